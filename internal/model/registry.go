package model

// Tables lists one zero value of every stored-row type. The schema catalog
// is built from this list.
func Tables() []interface{} {
	return []interface{}{
		User{},
		Subscription{},
		PaymentHistory{},
		DietaryPreference{},
		Recipe{},
		Ingredient{},
		Instruction{},
		Tag{},
		RecipeTag{},
		Category{},
		RecipeCategory{},
		NutritionalInfo{},
		SavedRecipe{},
		MealPlan{},
		MealPlanItem{},
		ShoppingList{},
		ShoppingListItem{},
	}
}

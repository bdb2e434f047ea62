package model

import "time"

type SavedRecipe struct {
	_ struct{} `dbdef:"table:saved_recipes;index:idx_saved_recipes_user,user_id"`

	ID        string    `db:"id" dbdef:"type:uuid;primary_key"`
	UserID    string    `db:"user_id" dbdef:"type:varchar(255);not_null;foreign_key:users.id;on_delete:CASCADE"`
	RecipeID  string    `db:"recipe_id" dbdef:"type:uuid;not_null;foreign_key:recipes.id;on_delete:CASCADE"`
	CreatedAt time.Time `db:"created_at" dbdef:"type:timestamptz;not_null;default:now()"`
}

type NewSavedRecipe struct {
	UserID   string `json:"userId" validate:"required"`
	RecipeID string `json:"recipeId" validate:"required"`
}

func (n NewSavedRecipe) Build(id string, now time.Time) SavedRecipe {
	return SavedRecipe{ID: id, UserID: n.UserID, RecipeID: n.RecipeID, CreatedAt: now}
}

type MealPlan struct {
	_ struct{} `dbdef:"table:meal_plans;index:idx_meal_plans_user,user_id"`

	ID        string    `db:"id" dbdef:"type:uuid;primary_key"`
	UserID    string    `db:"user_id" dbdef:"type:varchar(255);not_null;foreign_key:users.id;on_delete:CASCADE"`
	Name      string    `db:"name" dbdef:"type:text;not_null"`
	CreatedAt time.Time `db:"created_at" dbdef:"type:timestamptz;not_null;default:now()"`
	UpdatedAt time.Time `db:"updated_at" dbdef:"type:timestamptz;not_null;default:now()"`
}

type NewMealPlan struct {
	UserID string `json:"userId" validate:"required"`
	Name   string `json:"name" validate:"required"`
}

func (n NewMealPlan) Build(id string, now time.Time) MealPlan {
	return MealPlan{ID: id, UserID: n.UserID, Name: n.Name, CreatedAt: now, UpdatedAt: now}
}

type MealPlanChanges struct {
	Name *string `db:"name" json:"name,omitempty" validate:"omitempty,min=1"`
}

// MealPlanItem schedules a recipe into a meal plan slot.
type MealPlanItem struct {
	_ struct{} `dbdef:"table:meal_plan_items;index:idx_meal_plan_items_plan,meal_plan_id"`

	ID         string    `db:"id" dbdef:"type:uuid;primary_key"`
	MealPlanID string    `db:"meal_plan_id" dbdef:"type:uuid;not_null;foreign_key:meal_plans.id;on_delete:CASCADE"`
	RecipeID   string    `db:"recipe_id" dbdef:"type:uuid;not_null;foreign_key:recipes.id;on_delete:CASCADE"`
	Date       time.Time `db:"date" dbdef:"type:timestamptz;not_null"`
	MealType   MealType  `db:"meal_type" dbdef:"type:text;not_null"`
	Notes      *string   `db:"notes" dbdef:"type:text"`
	Servings   int       `db:"servings" dbdef:"type:integer;not_null;default:1"`
}

type NewMealPlanItem struct {
	MealPlanID string    `json:"mealPlanId" validate:"required"`
	RecipeID   string    `json:"recipeId" validate:"required"`
	Date       time.Time `json:"date" validate:"required"`
	MealType   MealType  `json:"mealType" validate:"required,oneof=breakfast lunch dinner snack"`
	Notes      *string   `json:"notes,omitempty"`
	Servings   *int      `json:"servings,omitempty" validate:"omitempty,gt=0"`
}

func (n NewMealPlanItem) Build(id string, _ time.Time) MealPlanItem {
	return MealPlanItem{
		ID:         id,
		MealPlanID: n.MealPlanID,
		RecipeID:   n.RecipeID,
		Date:       n.Date,
		MealType:   n.MealType,
		Notes:      n.Notes,
		Servings:   valueOr(n.Servings, 1),
	}
}

// MealPlanItemChanges may re-point the item at another recipe but never at
// another meal plan.
type MealPlanItemChanges struct {
	RecipeID *string    `db:"recipe_id" json:"recipeId,omitempty" validate:"omitempty,min=1"`
	Date     *time.Time `db:"date" json:"date,omitempty"`
	MealType *MealType  `db:"meal_type" json:"mealType,omitempty" validate:"omitempty,oneof=breakfast lunch dinner snack"`
	Notes    *string    `db:"notes" json:"notes,omitempty"`
	Servings *int       `db:"servings" json:"servings,omitempty" validate:"omitempty,gt=0"`
	Clear    []string   `db:"-" json:"clear,omitempty" validate:"omitempty,dive,oneof=notes"`
}

// Cleared names the nullable columns to set back to NULL.
func (c MealPlanItemChanges) Cleared() []string { return c.Clear }

type ShoppingList struct {
	_ struct{} `dbdef:"table:shopping_lists;index:idx_shopping_lists_user,user_id"`

	ID        string    `db:"id" dbdef:"type:uuid;primary_key"`
	UserID    string    `db:"user_id" dbdef:"type:varchar(255);not_null;foreign_key:users.id;on_delete:CASCADE"`
	Name      string    `db:"name" dbdef:"type:text;not_null"`
	CreatedAt time.Time `db:"created_at" dbdef:"type:timestamptz;not_null;default:now()"`
	UpdatedAt time.Time `db:"updated_at" dbdef:"type:timestamptz;not_null;default:now()"`
}

type NewShoppingList struct {
	UserID string `json:"userId" validate:"required"`
	Name   string `json:"name" validate:"required"`
}

func (n NewShoppingList) Build(id string, now time.Time) ShoppingList {
	return ShoppingList{ID: id, UserID: n.UserID, Name: n.Name, CreatedAt: now, UpdatedAt: now}
}

type ShoppingListChanges struct {
	Name *string `db:"name" json:"name,omitempty" validate:"omitempty,min=1"`
}

type ShoppingListItem struct {
	_ struct{} `dbdef:"table:shopping_list_items;index:idx_shopping_list_items_list,shopping_list_id"`

	ID             string  `db:"id" dbdef:"type:uuid;primary_key"`
	ShoppingListID string  `db:"shopping_list_id" dbdef:"type:uuid;not_null;foreign_key:shopping_lists.id;on_delete:CASCADE"`
	Name           string  `db:"name" dbdef:"type:text;not_null"`
	Quantity       string  `db:"quantity" dbdef:"type:text;not_null"`
	Unit           *string `db:"unit" dbdef:"type:text"`
	Category       string  `db:"category" dbdef:"type:text;not_null;default:'Other'"`
	Checked        bool    `db:"checked" dbdef:"type:boolean;not_null;default:false"`
}

type NewShoppingListItem struct {
	ShoppingListID string  `json:"shoppingListId" validate:"required"`
	Name           string  `json:"name" validate:"required"`
	Quantity       string  `json:"quantity" validate:"required"`
	Unit           *string `json:"unit,omitempty"`
	Category       *string `json:"category,omitempty" validate:"omitempty,min=1"`
	Checked        *bool   `json:"checked,omitempty"`
}

func (n NewShoppingListItem) Build(id string, _ time.Time) ShoppingListItem {
	return ShoppingListItem{
		ID:             id,
		ShoppingListID: n.ShoppingListID,
		Name:           n.Name,
		Quantity:       n.Quantity,
		Unit:           n.Unit,
		Category:       valueOr(n.Category, DefaultShoppingCategory),
		Checked:        valueOr(n.Checked, false),
	}
}

type ShoppingListItemChanges struct {
	Name     *string  `db:"name" json:"name,omitempty" validate:"omitempty,min=1"`
	Quantity *string  `db:"quantity" json:"quantity,omitempty" validate:"omitempty,min=1"`
	Unit     *string  `db:"unit" json:"unit,omitempty"`
	Category *string  `db:"category" json:"category,omitempty" validate:"omitempty,min=1"`
	Checked  *bool    `db:"checked" json:"checked,omitempty"`
	Clear    []string `db:"-" json:"clear,omitempty" validate:"omitempty,dive,oneof=unit"`
}

// Cleared names the nullable columns to set back to NULL.
func (c ShoppingListItemChanges) Cleared() []string { return c.Clear }

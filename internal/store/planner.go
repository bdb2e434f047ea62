package store

import (
	"context"

	"github.com/eleven-am/pantry/internal/model"
	"github.com/eleven-am/pantry/internal/orm"
)

// SaveRecipe bookmarks a recipe for a user.
func (s *Store) SaveRecipe(ctx context.Context, in model.NewSavedRecipe) (*model.SavedRecipe, error) {
	return create[model.SavedRecipe](ctx, s, in)
}

// GetSavedRecipe returns the saved recipe with the given id.
func (s *Store) GetSavedRecipe(ctx context.Context, id string) (*model.SavedRecipe, error) {
	return get[model.SavedRecipe](ctx, s, id)
}

// DeleteSavedRecipe removes a saved recipe.
func (s *Store) DeleteSavedRecipe(ctx context.Context, id string) error {
	return remove[model.SavedRecipe](ctx, s, id)
}

// ListSavedRecipes returns the saved recipes of the user.
func (s *Store) ListSavedRecipes(ctx context.Context, userID string) ([]model.SavedRecipe, error) {
	return children[model.SavedRecipe, model.User](ctx, s, "user_id", userID)
}

// ListSavedRecipeDetails returns the recipes a user has saved, each once.
func (s *Store) ListSavedRecipeDetails(ctx context.Context, userID string) ([]model.Recipe, error) {
	var out []model.Recipe
	err := s.read(ctx, "list", "recipes", func(ctx context.Context, exec orm.DBExecutor) error {
		if err := mustExist[model.User](ctx, s, exec, userID); err != nil {
			return err
		}
		var err error
		out, err = through[model.Recipe](ctx, s, exec, "saved_recipes", "user_id", "recipe_id", userID)
		return err
	})
	return out, err
}

// CreateMealPlan inserts a meal plan.
func (s *Store) CreateMealPlan(ctx context.Context, in model.NewMealPlan) (*model.MealPlan, error) {
	return create[model.MealPlan](ctx, s, in)
}

// GetMealPlan returns the meal plan with the given id.
func (s *Store) GetMealPlan(ctx context.Context, id string) (*model.MealPlan, error) {
	return get[model.MealPlan](ctx, s, id)
}

// UpdateMealPlan applies changes to a meal plan and returns the stored row.
func (s *Store) UpdateMealPlan(ctx context.Context, id string, changes model.MealPlanChanges) (*model.MealPlan, error) {
	return update[model.MealPlan](ctx, s, id, changes)
}

// DeleteMealPlan removes the plan and all its items.
func (s *Store) DeleteMealPlan(ctx context.Context, id string) error {
	return remove[model.MealPlan](ctx, s, id)
}

// ListMealPlans returns the meal plans of the user.
func (s *Store) ListMealPlans(ctx context.Context, userID string) ([]model.MealPlan, error) {
	return children[model.MealPlan, model.User](ctx, s, "user_id", userID)
}

// CreateMealPlanItem inserts a meal plan item.
func (s *Store) CreateMealPlanItem(ctx context.Context, in model.NewMealPlanItem) (*model.MealPlanItem, error) {
	return create[model.MealPlanItem](ctx, s, in)
}

// GetMealPlanItem returns the meal plan item with the given id.
func (s *Store) GetMealPlanItem(ctx context.Context, id string) (*model.MealPlanItem, error) {
	return get[model.MealPlanItem](ctx, s, id)
}

// UpdateMealPlanItem may re-point the item at another recipe, which must
// exist. changes.Clear sets notes back to NULL.
func (s *Store) UpdateMealPlanItem(ctx context.Context, id string, changes model.MealPlanItemChanges) (*model.MealPlanItem, error) {
	return update[model.MealPlanItem](ctx, s, id, changes)
}

// DeleteMealPlanItem removes a meal plan item.
func (s *Store) DeleteMealPlanItem(ctx context.Context, id string) error {
	return remove[model.MealPlanItem](ctx, s, id)
}

// ListMealPlanItems returns the meal plan items of the meal plan.
func (s *Store) ListMealPlanItems(ctx context.Context, mealPlanID string) ([]model.MealPlanItem, error) {
	return children[model.MealPlanItem, model.MealPlan](ctx, s, "meal_plan_id", mealPlanID)
}

// ListMealPlanRecipes returns the distinct recipes scheduled in a plan.
func (s *Store) ListMealPlanRecipes(ctx context.Context, mealPlanID string) ([]model.Recipe, error) {
	var out []model.Recipe
	err := s.read(ctx, "list", "recipes", func(ctx context.Context, exec orm.DBExecutor) error {
		if err := mustExist[model.MealPlan](ctx, s, exec, mealPlanID); err != nil {
			return err
		}
		var err error
		out, err = through[model.Recipe](ctx, s, exec, "meal_plan_items", "meal_plan_id", "recipe_id", mealPlanID)
		return err
	})
	return out, err
}

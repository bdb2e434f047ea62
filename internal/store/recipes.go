package store

import (
	"context"
	"errors"

	"github.com/eleven-am/pantry/internal/model"
	"github.com/eleven-am/pantry/internal/orm"
)

// RecipeFilter narrows ListRecipes. Zero fields match everything.
type RecipeFilter struct {
	Cuisine    string
	MealType   string
	Difficulty model.Difficulty
	IsPremium  *bool
}

func (f RecipeFilter) conditions() []orm.Condition {
	var where []orm.Condition
	if f.Cuisine != "" {
		where = append(where, orm.Col[string]("recipes", "cuisine").Eq(f.Cuisine))
	}
	if f.MealType != "" {
		where = append(where, orm.Col[string]("recipes", "meal_type").Eq(f.MealType))
	}
	if f.Difficulty != "" {
		where = append(where, orm.Col[model.Difficulty]("recipes", "difficulty").Eq(f.Difficulty))
	}
	if f.IsPremium != nil {
		where = append(where, orm.Col[bool]("recipes", "is_premium").Eq(*f.IsPremium))
	}
	return where
}

// CreateRecipe writes a recipe and its whole family in one transaction:
// ingredients, numbered instructions, nutrition and tag/category links.
// Any failure leaves nothing behind.
func (s *Store) CreateRecipe(ctx context.Context, in model.NewRecipe) (*model.RecipeDetail, error) {
	if err := s.check("create", "recipes", in); err != nil {
		return nil, err
	}

	now := s.now()
	id := in.ID
	if id == "" {
		id = s.newID()
	}
	recipe := in.Build(id, now)

	var out *model.RecipeDetail
	err := s.write(ctx, "create", "recipes", func(ctx context.Context, exec orm.DBExecutor) error {
		if err := repo[model.Recipe](s, exec).Create(ctx, &recipe); err != nil {
			return err
		}

		ingredients := repo[model.Ingredient](s, exec)
		for _, ing := range in.Ingredients {
			row := model.NewIngredient{
				RecipeID: recipe.ID,
				Name:     ing.Name,
				Quantity: ing.Quantity,
				Unit:     ing.Unit,
			}.Build(s.newID(), now)
			if err := ingredients.Create(ctx, &row); err != nil {
				return err
			}
		}

		instructions := repo[model.Instruction](s, exec)
		for i, text := range in.Instructions {
			row := model.NewInstruction{RecipeID: recipe.ID, Order: i + 1, Text: text}.Build(s.newID(), now)
			if err := instructions.Create(ctx, &row); err != nil {
				return err
			}
		}

		if in.Nutrition != nil {
			row := model.NewNutritionalInfo{RecipeID: recipe.ID, NewRecipeNutrition: *in.Nutrition}.Build(s.newID(), now)
			if err := repo[model.NutritionalInfo](s, exec).Create(ctx, &row); err != nil {
				return err
			}
		}

		tags := repo[model.RecipeTag](s, exec)
		for _, tagID := range distinct(in.TagIDs) {
			row := model.NewRecipeTag{RecipeID: recipe.ID, TagID: tagID}.Build(s.newID(), now)
			if err := tags.Create(ctx, &row); err != nil {
				return err
			}
		}

		categories := repo[model.RecipeCategory](s, exec)
		for _, categoryID := range distinct(in.CategoryIDs) {
			row := model.NewRecipeCategory{RecipeID: recipe.ID, CategoryID: categoryID}.Build(s.newID(), now)
			if err := categories.Create(ctx, &row); err != nil {
				return err
			}
		}

		var err error
		out, err = s.detail(ctx, exec, recipe.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.log.Debug("Recipe created", "id", recipe.ID, "ingredients", len(in.Ingredients), "instructions", len(in.Instructions))
	return out, nil
}

// GetRecipe returns the recipe with the given id.
func (s *Store) GetRecipe(ctx context.Context, id string) (*model.Recipe, error) {
	return get[model.Recipe](ctx, s, id)
}

// GetRecipeDetail loads a recipe together with its family.
func (s *Store) GetRecipeDetail(ctx context.Context, id string) (*model.RecipeDetail, error) {
	var out *model.RecipeDetail
	err := s.read(ctx, "get", "recipes", func(ctx context.Context, exec orm.DBExecutor) error {
		var err error
		out, err = s.detail(ctx, exec, id)
		return err
	})
	return out, err
}

func (s *Store) detail(ctx context.Context, exec orm.DBExecutor, id string) (*model.RecipeDetail, error) {
	recipe, err := repo[model.Recipe](s, exec).FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	d := &model.RecipeDetail{Recipe: *recipe}

	d.Ingredients, err = repo[model.Ingredient](s, exec).Query(ctx).
		Where(orm.Col[string]("ingredients", "recipe_id").Eq(id)).
		OrderBy(orm.Col[string]("ingredients", "id").Asc()).
		Find()
	if err != nil {
		return nil, err
	}

	d.Instructions, err = repo[model.Instruction](s, exec).Query(ctx).
		Where(orm.Col[string]("instructions", "recipe_id").Eq(id)).
		OrderBy(instructionOrder...).
		Find()
	if err != nil {
		return nil, err
	}

	d.Nutrition, err = repo[model.NutritionalInfo](s, exec).Query(ctx).
		Where(orm.Col[string]("nutritional_info", "recipe_id").Eq(id)).
		First()
	if errors.Is(err, orm.ErrNotFound) {
		d.Nutrition, err = nil, nil
	}
	if err != nil {
		return nil, err
	}

	if d.Tags, err = through[model.Tag](ctx, s, exec, "recipe_tags", "recipe_id", "tag_id", id); err != nil {
		return nil, err
	}
	if d.Categories, err = through[model.Category](ctx, s, exec, "recipe_categories", "recipe_id", "category_id", id); err != nil {
		return nil, err
	}
	return d, nil
}

// UpdateRecipe applies changes to a recipe and returns the stored row.
// changes.Clear sets chef_notes back to NULL.
func (s *Store) UpdateRecipe(ctx context.Context, id string, changes model.RecipeChanges) (*model.Recipe, error) {
	return update[model.Recipe](ctx, s, id, changes)
}

// DeleteRecipe removes the recipe with its family, links, saves and meal
// plan slots.
func (s *Store) DeleteRecipe(ctx context.Context, id string) error {
	return remove[model.Recipe](ctx, s, id)
}

// ListRecipes returns recipes matching filter in insertion order.
func (s *Store) ListRecipes(ctx context.Context, filter RecipeFilter) ([]model.Recipe, error) {
	return all[model.Recipe](ctx, s, filter.conditions()...)
}

// ListRecipesByTag returns the distinct recipes carrying a tag.
func (s *Store) ListRecipesByTag(ctx context.Context, tagID string) ([]model.Recipe, error) {
	var out []model.Recipe
	err := s.read(ctx, "list", "recipes", func(ctx context.Context, exec orm.DBExecutor) error {
		if err := mustExist[model.Tag](ctx, s, exec, tagID); err != nil {
			return err
		}
		var err error
		out, err = through[model.Recipe](ctx, s, exec, "recipe_tags", "tag_id", "recipe_id", tagID)
		return err
	})
	return out, err
}

// ListRecipesByCategory returns the distinct recipes in a category.
func (s *Store) ListRecipesByCategory(ctx context.Context, categoryID string) ([]model.Recipe, error) {
	var out []model.Recipe
	err := s.read(ctx, "list", "recipes", func(ctx context.Context, exec orm.DBExecutor) error {
		if err := mustExist[model.Category](ctx, s, exec, categoryID); err != nil {
			return err
		}
		var err error
		out, err = through[model.Recipe](ctx, s, exec, "recipe_categories", "category_id", "recipe_id", categoryID)
		return err
	})
	return out, err
}

// CreateIngredient inserts an ingredient.
func (s *Store) CreateIngredient(ctx context.Context, in model.NewIngredient) (*model.Ingredient, error) {
	return create[model.Ingredient](ctx, s, in)
}

// GetIngredient returns the ingredient with the given id.
func (s *Store) GetIngredient(ctx context.Context, id string) (*model.Ingredient, error) {
	return get[model.Ingredient](ctx, s, id)
}

// UpdateIngredient applies changes to an ingredient and returns the stored row.
func (s *Store) UpdateIngredient(ctx context.Context, id string, changes model.IngredientChanges) (*model.Ingredient, error) {
	return update[model.Ingredient](ctx, s, id, changes)
}

// DeleteIngredient removes an ingredient.
func (s *Store) DeleteIngredient(ctx context.Context, id string) error {
	return remove[model.Ingredient](ctx, s, id)
}

// ListIngredients returns the ingredients of the recipe.
func (s *Store) ListIngredients(ctx context.Context, recipeID string) ([]model.Ingredient, error) {
	return children[model.Ingredient, model.Recipe](ctx, s, "recipe_id", recipeID)
}

// CreateNutritionalInfo attaches nutrition to a recipe. A recipe has at
// most one; a second is a validation error.
func (s *Store) CreateNutritionalInfo(ctx context.Context, in model.NewNutritionalInfo) (*model.NutritionalInfo, error) {
	return create[model.NutritionalInfo](ctx, s, in)
}

// GetNutritionalInfo returns the nutrition row with the given id.
func (s *Store) GetNutritionalInfo(ctx context.Context, id string) (*model.NutritionalInfo, error) {
	return get[model.NutritionalInfo](ctx, s, id)
}

// GetNutritionalInfoForRecipe returns the nutrition of a recipe, or
// ErrNotFound when the recipe has none.
func (s *Store) GetNutritionalInfoForRecipe(ctx context.Context, recipeID string) (*model.NutritionalInfo, error) {
	var out *model.NutritionalInfo
	err := s.read(ctx, "get", "nutritional_info", func(ctx context.Context, exec orm.DBExecutor) error {
		if !isUUID(recipeID) {
			return orm.NotFound("get", "nutritional_info")
		}
		var err error
		out, err = repo[model.NutritionalInfo](s, exec).Query(ctx).
			Where(orm.Col[string]("nutritional_info", "recipe_id").Eq(recipeID)).
			First()
		return err
	})
	return out, err
}

// UpdateNutritionalInfo applies changes to a nutrition row and returns the stored row.
func (s *Store) UpdateNutritionalInfo(ctx context.Context, id string, changes model.NutritionChanges) (*model.NutritionalInfo, error) {
	return update[model.NutritionalInfo](ctx, s, id, changes)
}

// DeleteNutritionalInfo removes a nutrition row.
func (s *Store) DeleteNutritionalInfo(ctx context.Context, id string) error {
	return remove[model.NutritionalInfo](ctx, s, id)
}

func distinct(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

package store

import (
	"context"

	"github.com/eleven-am/pantry/internal/model"
	"github.com/eleven-am/pantry/internal/orm"
)

// CreateTag inserts a tag.
func (s *Store) CreateTag(ctx context.Context, in model.NewTag) (*model.Tag, error) {
	return create[model.Tag](ctx, s, in)
}

// GetTag returns the tag with the given id.
func (s *Store) GetTag(ctx context.Context, id string) (*model.Tag, error) {
	return get[model.Tag](ctx, s, id)
}

// GetTagByName finds a tag by its unique name.
func (s *Store) GetTagByName(ctx context.Context, name string) (*model.Tag, error) {
	var out *model.Tag
	err := s.read(ctx, "get", "tags", func(ctx context.Context, exec orm.DBExecutor) error {
		var err error
		out, err = repo[model.Tag](s, exec).Query(ctx).
			Where(orm.Col[string]("tags", "name").Eq(name)).
			First()
		return err
	})
	return out, err
}

// UpdateTag applies changes to a tag and returns the stored row.
func (s *Store) UpdateTag(ctx context.Context, id string, changes model.TagChanges) (*model.Tag, error) {
	return update[model.Tag](ctx, s, id, changes)
}

// DeleteTag removes a tag and its recipe links. Recipes are untouched.
func (s *Store) DeleteTag(ctx context.Context, id string) error {
	return remove[model.Tag](ctx, s, id)
}

// ListTags returns every tag in id order.
func (s *Store) ListTags(ctx context.Context) ([]model.Tag, error) {
	return all[model.Tag](ctx, s)
}

// TagRecipe links a recipe to a tag. Both must exist.
func (s *Store) TagRecipe(ctx context.Context, recipeID, tagID string) (*model.RecipeTag, error) {
	return create[model.RecipeTag](ctx, s, model.NewRecipeTag{RecipeID: recipeID, TagID: tagID})
}

// UntagRecipe removes every link between a recipe and a tag.
func (s *Store) UntagRecipe(ctx context.Context, recipeID, tagID string) error {
	return unlink[model.RecipeTag](ctx, s, "tag_id", recipeID, tagID)
}

// ListRecipeTags returns the tags on a recipe.
func (s *Store) ListRecipeTags(ctx context.Context, recipeID string) ([]model.Tag, error) {
	var out []model.Tag
	err := s.read(ctx, "list", "tags", func(ctx context.Context, exec orm.DBExecutor) error {
		if err := mustExist[model.Recipe](ctx, s, exec, recipeID); err != nil {
			return err
		}
		var err error
		out, err = through[model.Tag](ctx, s, exec, "recipe_tags", "recipe_id", "tag_id", recipeID)
		return err
	})
	return out, err
}

// CreateCategory inserts a category.
func (s *Store) CreateCategory(ctx context.Context, in model.NewCategory) (*model.Category, error) {
	return create[model.Category](ctx, s, in)
}

// GetCategory returns the category with the given id.
func (s *Store) GetCategory(ctx context.Context, id string) (*model.Category, error) {
	return get[model.Category](ctx, s, id)
}

// GetCategoryBySlug finds a category by its unique slug.
func (s *Store) GetCategoryBySlug(ctx context.Context, slug string) (*model.Category, error) {
	var out *model.Category
	err := s.read(ctx, "get", "categories", func(ctx context.Context, exec orm.DBExecutor) error {
		var err error
		out, err = repo[model.Category](s, exec).Query(ctx).
			Where(orm.Col[string]("categories", "slug").Eq(slug)).
			First()
		return err
	})
	return out, err
}

// UpdateCategory applies changes to a category and returns the stored row.
func (s *Store) UpdateCategory(ctx context.Context, id string, changes model.CategoryChanges) (*model.Category, error) {
	return update[model.Category](ctx, s, id, changes)
}

// DeleteCategory removes a category.
func (s *Store) DeleteCategory(ctx context.Context, id string) error {
	return remove[model.Category](ctx, s, id)
}

// ListCategories returns every category in id order.
func (s *Store) ListCategories(ctx context.Context) ([]model.Category, error) {
	return all[model.Category](ctx, s)
}

// CategorizeRecipe puts a recipe in a category. Both must exist.
func (s *Store) CategorizeRecipe(ctx context.Context, recipeID, categoryID string) (*model.RecipeCategory, error) {
	return create[model.RecipeCategory](ctx, s, model.NewRecipeCategory{RecipeID: recipeID, CategoryID: categoryID})
}

// UncategorizeRecipe removes every link between a recipe and a category.
func (s *Store) UncategorizeRecipe(ctx context.Context, recipeID, categoryID string) error {
	return unlink[model.RecipeCategory](ctx, s, "category_id", recipeID, categoryID)
}

// ListRecipeCategories returns the categories a recipe belongs to.
func (s *Store) ListRecipeCategories(ctx context.Context, recipeID string) ([]model.Category, error) {
	var out []model.Category
	err := s.read(ctx, "list", "categories", func(ctx context.Context, exec orm.DBExecutor) error {
		if err := mustExist[model.Recipe](ctx, s, exec, recipeID); err != nil {
			return err
		}
		var err error
		out, err = through[model.Category](ctx, s, exec, "recipe_categories", "recipe_id", "category_id", recipeID)
		return err
	})
	return out, err
}

func unlink[L any](ctx context.Context, s *Store, column, recipeID, targetID string) error {
	link := tableOf[L]().Name
	return s.write(ctx, "delete", link, func(ctx context.Context, exec orm.DBExecutor) error {
		if !isUUID(recipeID) || !isUUID(targetID) {
			return orm.NotFound("delete", link)
		}
		n, err := repo[L](s, exec).Query(ctx).
			Where(orm.Col[string](link, "recipe_id").Eq(recipeID)).
			Where(orm.Col[string](link, column).Eq(targetID)).
			Delete()
		if err != nil {
			return err
		}
		if n == 0 {
			return orm.NotFound("delete", link)
		}
		return nil
	})
}

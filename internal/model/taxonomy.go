package model

import "time"

type Tag struct {
	_ struct{} `dbdef:"table:tags"`

	ID   string `db:"id" dbdef:"type:uuid;primary_key"`
	Name string `db:"name" dbdef:"type:text;not_null;unique"`
}

type NewTag struct {
	Name string `json:"name" validate:"required"`
}

func (n NewTag) Build(id string, _ time.Time) Tag {
	return Tag{ID: id, Name: n.Name}
}

type TagChanges struct {
	Name *string `db:"name" json:"name,omitempty" validate:"omitempty,min=1"`
}

// RecipeTag links a recipe to a tag.
type RecipeTag struct {
	_ struct{} `dbdef:"table:recipe_tags;index:idx_recipe_tags_recipe,recipe_id;index:idx_recipe_tags_tag,tag_id"`

	ID       string `db:"id" dbdef:"type:uuid;primary_key"`
	RecipeID string `db:"recipe_id" dbdef:"type:uuid;not_null;foreign_key:recipes.id;on_delete:CASCADE"`
	TagID    string `db:"tag_id" dbdef:"type:uuid;not_null;foreign_key:tags.id;on_delete:CASCADE"`
}

type NewRecipeTag struct {
	RecipeID string `json:"recipeId" validate:"required"`
	TagID    string `json:"tagId" validate:"required"`
}

func (n NewRecipeTag) Build(id string, _ time.Time) RecipeTag {
	return RecipeTag{ID: id, RecipeID: n.RecipeID, TagID: n.TagID}
}

type Category struct {
	_ struct{} `dbdef:"table:categories"`

	ID          string `db:"id" dbdef:"type:uuid;primary_key"`
	Name        string `db:"name" dbdef:"type:text;not_null;unique"`
	Description string `db:"description" dbdef:"type:text;not_null"`
	ImageURL    string `db:"image_url" dbdef:"type:text;not_null"`
	Slug        string `db:"slug" dbdef:"type:text;not_null;unique"`
}

type NewCategory struct {
	Name        string `json:"name" yaml:"name" validate:"required"`
	Description string `json:"description" yaml:"description" validate:"required"`
	ImageURL    string `json:"imageUrl" yaml:"image_url" validate:"required"`
	Slug        string `json:"slug" yaml:"slug" validate:"required,slug"`
}

func (n NewCategory) Build(id string, _ time.Time) Category {
	return Category{ID: id, Name: n.Name, Description: n.Description, ImageURL: n.ImageURL, Slug: n.Slug}
}

type CategoryChanges struct {
	Name        *string `db:"name" json:"name,omitempty" validate:"omitempty,min=1"`
	Description *string `db:"description" json:"description,omitempty" validate:"omitempty,min=1"`
	ImageURL    *string `db:"image_url" json:"imageUrl,omitempty" validate:"omitempty,min=1"`
	Slug        *string `db:"slug" json:"slug,omitempty" validate:"omitempty,slug"`
}

// RecipeCategory links a recipe to a category.
type RecipeCategory struct {
	_ struct{} `dbdef:"table:recipe_categories;index:idx_recipe_categories_recipe,recipe_id;index:idx_recipe_categories_category,category_id"`

	ID         string `db:"id" dbdef:"type:uuid;primary_key"`
	RecipeID   string `db:"recipe_id" dbdef:"type:uuid;not_null;foreign_key:recipes.id;on_delete:CASCADE"`
	CategoryID string `db:"category_id" dbdef:"type:uuid;not_null;foreign_key:categories.id;on_delete:CASCADE"`
}

type NewRecipeCategory struct {
	RecipeID   string `json:"recipeId" validate:"required"`
	CategoryID string `json:"categoryId" validate:"required"`
}

func (n NewRecipeCategory) Build(id string, _ time.Time) RecipeCategory {
	return RecipeCategory{ID: id, RecipeID: n.RecipeID, CategoryID: n.CategoryID}
}

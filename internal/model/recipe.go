package model

import "time"

// Recipe is the root of the recipe family: ingredients, instructions,
// nutrition, and tag/category links all cascade from it.
type Recipe struct {
	_ struct{} `dbdef:"table:recipes"`

	ID          string     `db:"id" dbdef:"type:uuid;primary_key"`
	Title       string     `db:"title" dbdef:"type:text;not_null"`
	Description string     `db:"description" dbdef:"type:text;not_null"`
	ImageURL    string     `db:"image_url" dbdef:"type:text;not_null"`
	PrepTime    int        `db:"prep_time" dbdef:"type:integer;not_null"`
	CookTime    int        `db:"cook_time" dbdef:"type:integer;not_null"`
	TotalTime   int        `db:"total_time" dbdef:"type:integer;not_null"`
	Servings    int        `db:"servings" dbdef:"type:integer;not_null"`
	Difficulty  Difficulty `db:"difficulty" dbdef:"type:text;not_null"`
	Cuisine     string     `db:"cuisine" dbdef:"type:text;not_null"`
	MealType    string     `db:"meal_type" dbdef:"type:text;not_null"`
	IsPremium   bool       `db:"is_premium" dbdef:"type:boolean;not_null;default:false"`
	Chef        string     `db:"chef" dbdef:"type:text;not_null"`
	ChefNotes   *string    `db:"chef_notes" dbdef:"type:text"`
	CreatedAt   time.Time  `db:"created_at" dbdef:"type:timestamptz;not_null;default:now()"`
	UpdatedAt   time.Time  `db:"updated_at" dbdef:"type:timestamptz;not_null;default:now()"`
}

// NewRecipe creates a recipe together with its family. Nested rows are
// optional; when present they are written in the same transaction.
type NewRecipe struct {
	ID           string                `json:"id,omitempty" yaml:"-" validate:"omitempty,uuid"`
	Title        string                `json:"title" yaml:"title" validate:"required"`
	Description  string                `json:"description" yaml:"description" validate:"required"`
	ImageURL     string                `json:"imageUrl" yaml:"image_url" validate:"required"`
	PrepTime     int                   `json:"prepTime" yaml:"prep_time" validate:"gte=0"`
	CookTime     int                   `json:"cookTime" yaml:"cook_time" validate:"gte=0"`
	TotalTime    int                   `json:"totalTime" yaml:"total_time" validate:"gte=0"`
	Servings     int                   `json:"servings" yaml:"servings" validate:"required,gt=0"`
	Difficulty   Difficulty            `json:"difficulty" yaml:"difficulty" validate:"required,oneof=Easy Medium Advanced"`
	Cuisine      string                `json:"cuisine" yaml:"cuisine" validate:"required"`
	MealType     string                `json:"mealType" yaml:"meal_type" validate:"required"`
	IsPremium    *bool                 `json:"isPremium,omitempty" yaml:"is_premium"`
	Chef         string                `json:"chef" yaml:"chef" validate:"required"`
	ChefNotes    *string               `json:"chefNotes,omitempty" yaml:"chef_notes"`
	Ingredients  []NewRecipeIngredient `json:"ingredients,omitempty" yaml:"ingredients" validate:"dive"`
	Instructions []string              `json:"instructions,omitempty" yaml:"instructions" validate:"dive,required"`
	Nutrition    *NewRecipeNutrition   `json:"nutrition,omitempty" yaml:"nutrition"`
	TagIDs       []string              `json:"tagIds,omitempty" yaml:"-" validate:"dive,required"`
	CategoryIDs  []string              `json:"categoryIds,omitempty" yaml:"-" validate:"dive,required"`
}

func (n NewRecipe) Build(id string, now time.Time) Recipe {
	return Recipe{
		ID:          id,
		Title:       n.Title,
		Description: n.Description,
		ImageURL:    n.ImageURL,
		PrepTime:    n.PrepTime,
		CookTime:    n.CookTime,
		TotalTime:   n.TotalTime,
		Servings:    n.Servings,
		Difficulty:  n.Difficulty,
		Cuisine:     n.Cuisine,
		MealType:    n.MealType,
		IsPremium:   valueOr(n.IsPremium, false),
		Chef:        n.Chef,
		ChefNotes:   n.ChefNotes,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// NewRecipeIngredient is an ingredient nested in a NewRecipe.
type NewRecipeIngredient struct {
	Name     string `json:"name" yaml:"name" validate:"required"`
	Quantity string `json:"quantity" yaml:"quantity" validate:"required"`
	Unit     string `json:"unit" yaml:"unit" validate:"required"`
}

// NewRecipeNutrition is the nutrition block nested in a NewRecipe.
type NewRecipeNutrition struct {
	Calories int     `json:"calories" yaml:"calories" validate:"gte=0"`
	Protein  float64 `json:"protein" yaml:"protein" validate:"gte=0"`
	Carbs    float64 `json:"carbs" yaml:"carbs" validate:"gte=0"`
	Fat      float64 `json:"fat" yaml:"fat" validate:"gte=0"`
	Fiber    float64 `json:"fiber" yaml:"fiber" validate:"gte=0"`
	Sugar    float64 `json:"sugar" yaml:"sugar" validate:"gte=0"`
}

type RecipeChanges struct {
	Title       *string     `db:"title" json:"title,omitempty" validate:"omitempty,min=1"`
	Description *string     `db:"description" json:"description,omitempty" validate:"omitempty,min=1"`
	ImageURL    *string     `db:"image_url" json:"imageUrl,omitempty" validate:"omitempty,min=1"`
	PrepTime    *int        `db:"prep_time" json:"prepTime,omitempty" validate:"omitempty,gte=0"`
	CookTime    *int        `db:"cook_time" json:"cookTime,omitempty" validate:"omitempty,gte=0"`
	TotalTime   *int        `db:"total_time" json:"totalTime,omitempty" validate:"omitempty,gte=0"`
	Servings    *int        `db:"servings" json:"servings,omitempty" validate:"omitempty,gt=0"`
	Difficulty  *Difficulty `db:"difficulty" json:"difficulty,omitempty" validate:"omitempty,oneof=Easy Medium Advanced"`
	Cuisine     *string     `db:"cuisine" json:"cuisine,omitempty" validate:"omitempty,min=1"`
	MealType    *string     `db:"meal_type" json:"mealType,omitempty" validate:"omitempty,min=1"`
	IsPremium   *bool       `db:"is_premium" json:"isPremium,omitempty"`
	Chef        *string     `db:"chef" json:"chef,omitempty" validate:"omitempty,min=1"`
	ChefNotes   *string     `db:"chef_notes" json:"chefNotes,omitempty"`
	Clear       []string    `db:"-" json:"clear,omitempty" validate:"omitempty,dive,oneof=chef_notes"`
}

// Cleared names the nullable columns to set back to NULL.
func (c RecipeChanges) Cleared() []string { return c.Clear }

// RecipeDetail is a recipe with its whole family loaded.
type RecipeDetail struct {
	Recipe
	Ingredients  []Ingredient
	Instructions []Instruction
	Nutrition    *NutritionalInfo
	Tags         []Tag
	Categories   []Category
}

type Ingredient struct {
	_ struct{} `dbdef:"table:ingredients;index:idx_ingredients_recipe,recipe_id"`

	ID       string `db:"id" dbdef:"type:uuid;primary_key"`
	RecipeID string `db:"recipe_id" dbdef:"type:uuid;not_null;foreign_key:recipes.id;on_delete:CASCADE"`
	Name     string `db:"name" dbdef:"type:text;not_null"`
	Quantity string `db:"quantity" dbdef:"type:text;not_null"`
	Unit     string `db:"unit" dbdef:"type:text;not_null"`
}

type NewIngredient struct {
	RecipeID string `json:"recipeId" validate:"required"`
	Name     string `json:"name" validate:"required"`
	Quantity string `json:"quantity" validate:"required"`
	Unit     string `json:"unit" validate:"required"`
}

func (n NewIngredient) Build(id string, _ time.Time) Ingredient {
	return Ingredient{ID: id, RecipeID: n.RecipeID, Name: n.Name, Quantity: n.Quantity, Unit: n.Unit}
}

type IngredientChanges struct {
	Name     *string `db:"name" json:"name,omitempty" validate:"omitempty,min=1"`
	Quantity *string `db:"quantity" json:"quantity,omitempty" validate:"omitempty,min=1"`
	Unit     *string `db:"unit" json:"unit,omitempty" validate:"omitempty,min=1"`
}

// Instruction is one step of a recipe. Orders within a recipe are unique
// and contiguous from 1; the store keeps them that way.
type Instruction struct {
	_ struct{} `dbdef:"table:instructions;index:idx_instructions_recipe,recipe_id"`

	ID       string `db:"id" dbdef:"type:uuid;primary_key"`
	RecipeID string `db:"recipe_id" dbdef:"type:uuid;not_null;foreign_key:recipes.id;on_delete:CASCADE"`
	Order    int    `db:"order" dbdef:"type:integer;not_null"`
	Text     string `db:"text" dbdef:"type:text;not_null"`
}

// NewInstruction inserts a step at Order, shifting later steps down. Order
// must lie in 1..n+1 for a recipe with n steps.
type NewInstruction struct {
	RecipeID string `json:"recipeId" validate:"required"`
	Order    int    `json:"order" validate:"required,gte=1"`
	Text     string `json:"text" validate:"required"`
}

func (n NewInstruction) Build(id string, _ time.Time) Instruction {
	return Instruction{ID: id, RecipeID: n.RecipeID, Order: n.Order, Text: n.Text}
}

// InstructionChanges may move a step to another position in 1..n.
type InstructionChanges struct {
	Order *int    `db:"order" json:"order,omitempty" validate:"omitempty,gte=1"`
	Text  *string `db:"text" json:"text,omitempty" validate:"omitempty,min=1"`
}

type NutritionalInfo struct {
	_ struct{} `dbdef:"table:nutritional_info"`

	ID       string  `db:"id" dbdef:"type:uuid;primary_key"`
	RecipeID string  `db:"recipe_id" dbdef:"type:uuid;not_null;unique;foreign_key:recipes.id;on_delete:CASCADE"`
	Calories int     `db:"calories" dbdef:"type:integer;not_null"`
	Protein  float64 `db:"protein" dbdef:"type:double precision;not_null"`
	Carbs    float64 `db:"carbs" dbdef:"type:double precision;not_null"`
	Fat      float64 `db:"fat" dbdef:"type:double precision;not_null"`
	Fiber    float64 `db:"fiber" dbdef:"type:double precision;not_null"`
	Sugar    float64 `db:"sugar" dbdef:"type:double precision;not_null"`
}

type NewNutritionalInfo struct {
	RecipeID string `json:"recipeId" validate:"required"`
	NewRecipeNutrition
}

func (n NewNutritionalInfo) Build(id string, _ time.Time) NutritionalInfo {
	return NutritionalInfo{
		ID:       id,
		RecipeID: n.RecipeID,
		Calories: n.Calories,
		Protein:  n.Protein,
		Carbs:    n.Carbs,
		Fat:      n.Fat,
		Fiber:    n.Fiber,
		Sugar:    n.Sugar,
	}
}

type NutritionChanges struct {
	Calories *int     `db:"calories" json:"calories,omitempty" validate:"omitempty,gte=0"`
	Protein  *float64 `db:"protein" json:"protein,omitempty" validate:"omitempty,gte=0"`
	Carbs    *float64 `db:"carbs" json:"carbs,omitempty" validate:"omitempty,gte=0"`
	Fat      *float64 `db:"fat" json:"fat,omitempty" validate:"omitempty,gte=0"`
	Fiber    *float64 `db:"fiber" json:"fiber,omitempty" validate:"omitempty,gte=0"`
	Sugar    *float64 `db:"sugar" json:"sugar,omitempty" validate:"omitempty,gte=0"`
}

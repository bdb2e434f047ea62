package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/eleven-am/pantry/internal/model"
	"github.com/eleven-am/pantry/internal/orm"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	recipeID = "0190a0b2-0000-7000-8000-000000000001"
	tagID    = "0190a0b2-0000-7000-8000-000000000002"
	stepID   = "0190a0b2-0000-7000-8000-000000000003"
	itemID   = "0190a0b2-0000-7000-8000-000000000004"
	planID   = "0190a0b2-0000-7000-8000-000000000005"
	listID   = "0190a0b2-0000-7000-8000-000000000006"
)

var fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newMockStore(t *testing.T, opts Options) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	seq := 100
	if opts.NewID == nil {
		opts.NewID = func() string {
			seq++
			return fmt.Sprintf("0190a0b2-0000-7000-8000-%012d", seq)
		}
	}
	if opts.Clock == nil {
		opts.Clock = func() time.Time { return fixedNow }
	}
	return New(sqlx.NewDb(db, "postgres"), opts), mock
}

func lockedRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"?column?"}).AddRow(1)
}

func q(s string) string {
	return regexp.QuoteMeta(s)
}

func existsRows(v bool) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"exists"}).AddRow(v)
}

func strPtr(s string) *string {
	return &s
}

func validationFields(t *testing.T, err error) []string {
	t.Helper()
	var verrs orm.ValidationErrors
	require.True(t, errors.As(err, &verrs), "expected validation details, got %v", err)
	fields := make([]string, len(verrs))
	for i, v := range verrs {
		fields[i] = v.Field
	}
	return fields
}

func TestCreateUserRejectsInvalidInputBeforeTouchingStorage(t *testing.T) {
	s, mock := newMockStore(t, Options{})

	_, err := s.CreateUser(context.Background(), model.NewUser{Username: "ann", Email: "not-an-email"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, orm.ErrValidation))
	assert.Equal(t, []string{"email"}, validationFields(t, err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateUserDuplicateEmailIsValidation(t *testing.T) {
	s, mock := newMockStore(t, Options{})

	mock.ExpectBegin()
	mock.ExpectQuery(q(`SELECT EXISTS (SELECT 1 FROM "users" WHERE "email" = $1)`)).
		WithArgs("ann@example.com").
		WillReturnRows(existsRows(true))
	mock.ExpectRollback()

	_, err := s.CreateUser(context.Background(), model.NewUser{Username: "ann", Email: "ann@example.com"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, orm.ErrValidation))
	assert.True(t, errors.Is(err, orm.ErrDuplicateKey))
	assert.Equal(t, "users_email_key", orm.GetConstraintName(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateUserAppliesDefaults(t *testing.T) {
	s, mock := newMockStore(t, Options{})

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT EXISTS .* FROM "users"`).WillReturnRows(existsRows(false))
	mock.ExpectExec(`INSERT INTO "users"`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	user, err := s.CreateUser(context.Background(), model.NewUser{ID: strPtr("google|42"), Username: "ann", Email: "ann@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "google|42", user.ID)
	assert.Equal(t, model.AuthEmail, user.AuthProvider)
	assert.Equal(t, model.SubscriptionInactive, user.SubscriptionStatus)
	assert.False(t, user.IsPremium)
	assert.Equal(t, fixedNow, user.CreatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateNutritionalInfoTwiceIsValidation(t *testing.T) {
	s, mock := newMockStore(t, Options{})

	mock.ExpectBegin()
	mock.ExpectQuery(q(`SELECT EXISTS (SELECT 1 FROM "nutritional_info" WHERE "recipe_id" = $1)`)).
		WithArgs(recipeID).
		WillReturnRows(existsRows(true))
	mock.ExpectRollback()

	_, err := s.CreateNutritionalInfo(context.Background(), model.NewNutritionalInfo{
		RecipeID:           recipeID,
		NewRecipeNutrition: model.NewRecipeNutrition{Calories: 300},
	})
	assert.True(t, errors.Is(err, orm.ErrValidation))
	assert.Equal(t, "nutritional_info_recipe_id_key", orm.GetConstraintName(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateInstructionForMissingRecipeIsReference(t *testing.T) {
	for _, order := range []int{1, 2, 5} {
		t.Run(fmt.Sprintf("order %d", order), func(t *testing.T) {
			s, mock := newMockStore(t, Options{})

			mock.ExpectBegin()
			mock.ExpectQuery(q(`SELECT 1 FROM "recipes" WHERE "id" = $1 FOR UPDATE`)).
				WithArgs(recipeID).
				WillReturnRows(sqlmock.NewRows([]string{"?column?"}))
			mock.ExpectRollback()

			_, err := s.CreateInstruction(context.Background(), model.NewInstruction{RecipeID: recipeID, Order: order, Text: "Boil"})
			require.Error(t, err)
			assert.True(t, errors.Is(err, orm.ErrReference))
			assert.False(t, errors.Is(err, orm.ErrValidation))
			assert.Equal(t, "recipe_id", orm.GetColumnName(err))
			assert.Equal(t, "instructions_recipe_id_fkey", orm.GetConstraintName(err))
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestCreateInstructionWithMalformedRecipeIDIsReference(t *testing.T) {
	s, mock := newMockStore(t, Options{})

	mock.ExpectBegin()
	mock.ExpectRollback()

	_, err := s.CreateInstruction(context.Background(), model.NewInstruction{RecipeID: "nonexistent-id", Order: 2, Text: "Boil"})
	assert.True(t, errors.Is(err, orm.ErrReference))
	assert.Equal(t, "instructions_recipe_id_fkey", orm.GetConstraintName(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateInstructionShiftsLaterSteps(t *testing.T) {
	s, mock := newMockStore(t, Options{})

	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE`).WillReturnRows(lockedRows())
	mock.ExpectQuery(`SELECT COUNT`).WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectExec(q(`UPDATE "instructions" SET "order" = "order" + $1 WHERE ("instructions"."recipe_id" = $2 AND "instructions"."order" >= $3)`)).
		WithArgs(1, recipeID, 2).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectQuery(`SELECT EXISTS .* FROM "recipes"`).WillReturnRows(existsRows(true))
	mock.ExpectExec(q(`INSERT INTO "instructions" ("id","recipe_id","order","text") VALUES ($1,$2,$3,$4)`)).
		WithArgs(sqlmock.AnyArg(), recipeID, 2, "Stir").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	step, err := s.CreateInstruction(context.Background(), model.NewInstruction{RecipeID: recipeID, Order: 2, Text: "Stir"})
	require.NoError(t, err)
	assert.Equal(t, 2, step.Order)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateInstructionRejectsOrderPastEnd(t *testing.T) {
	s, mock := newMockStore(t, Options{})

	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE`).WillReturnRows(lockedRows())
	mock.ExpectQuery(`SELECT COUNT`).WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectRollback()

	_, err := s.CreateInstruction(context.Background(), model.NewInstruction{RecipeID: recipeID, Order: 4, Text: "Serve"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, orm.ErrValidation))
	assert.Equal(t, []string{"order"}, validationFields(t, err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteInstructionClosesGap(t *testing.T) {
	s, mock := newMockStore(t, Options{})

	mock.ExpectBegin()
	mock.ExpectQuery(q(`FROM "instructions" WHERE "id" = $1`)).
		WithArgs(stepID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "recipe_id", "order", "text"}).AddRow(stepID, recipeID, 2, "Stir"))
	mock.ExpectQuery(`FOR UPDATE`).WillReturnRows(lockedRows())
	mock.ExpectQuery(`SELECT COUNT`).WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectExec(q(`DELETE FROM "instructions" WHERE "id" = $1`)).
		WithArgs(stepID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q(`UPDATE "instructions" SET "order" = "order" + $1 WHERE ("instructions"."recipe_id" = $2 AND "instructions"."order" > $3)`)).
		WithArgs(-1, recipeID, 2).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, s.DeleteInstruction(context.Background(), stepID))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateInstructionMovingUpShiftsNeighboursDown(t *testing.T) {
	s, mock := newMockStore(t, Options{})

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM "instructions" WHERE "id"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "recipe_id", "order", "text"}).AddRow(stepID, recipeID, 3, "Serve"))
	mock.ExpectQuery(`FOR UPDATE`).WillReturnRows(lockedRows())
	mock.ExpectQuery(`SELECT COUNT`).WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectExec(q(`UPDATE "instructions" SET "order" = "order" + $1 WHERE ("instructions"."recipe_id" = $2 AND ("instructions"."order" >= $3 AND "instructions"."order" < $4))`)).
		WithArgs(1, recipeID, 1, 3).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(q(`UPDATE "instructions" SET "order" = $1 WHERE ("id" = $2)`)).
		WithArgs(1, stepID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`FROM "instructions" WHERE "id"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "recipe_id", "order", "text"}).AddRow(stepID, recipeID, 1, "Serve"))
	mock.ExpectCommit()

	to := 1
	step, err := s.UpdateInstruction(context.Background(), stepID, model.InstructionChanges{Order: &to})
	require.NoError(t, err)
	assert.Equal(t, 1, step.Order)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateMissingShoppingListItemIsNotFound(t *testing.T) {
	s, mock := newMockStore(t, Options{})

	mock.ExpectBegin()
	mock.ExpectExec(q(`UPDATE "shopping_list_items" SET "checked" = $1 WHERE ("id" = $2)`)).
		WithArgs(true, itemID).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	checked := true
	_, err := s.UpdateShoppingListItem(context.Background(), itemID, model.ShoppingListItemChanges{Checked: &checked})
	require.Error(t, err)
	assert.True(t, errors.Is(err, orm.ErrNotFound))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateShoppingListItemClearsUnit(t *testing.T) {
	s, mock := newMockStore(t, Options{})

	mock.ExpectBegin()
	mock.ExpectExec(q(`UPDATE "shopping_list_items" SET "unit" = $1 WHERE ("id" = $2)`)).
		WithArgs(nil, itemID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`FROM "shopping_list_items" WHERE "id"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "shopping_list_id", "name", "quantity", "unit", "category", "checked"}).
			AddRow(itemID, listID, "Flour", "500", nil, "Baking", false))
	mock.ExpectCommit()

	item, err := s.UpdateShoppingListItem(context.Background(), itemID, model.ShoppingListItemChanges{Clear: []string{"unit"}})
	require.NoError(t, err)
	assert.Nil(t, item.Unit)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateRejectsClearingUnknownColumn(t *testing.T) {
	s, mock := newMockStore(t, Options{})

	_, err := s.UpdateShoppingListItem(context.Background(), itemID, model.ShoppingListItemChanges{Clear: []string{"name"}})
	assert.True(t, errors.Is(err, orm.ErrValidation))

	_, err = s.UpdateShoppingListItem(context.Background(), itemID, model.ShoppingListItemChanges{Unit: strPtr("g"), Clear: []string{"unit"}})
	assert.True(t, errors.Is(err, orm.ErrValidation))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStampsUpdatedAt(t *testing.T) {
	s, mock := newMockStore(t, Options{})

	mock.ExpectBegin()
	mock.ExpectExec(q(`UPDATE "meal_plans" SET "name" = $1, "updated_at" = $2 WHERE ("id" = $3)`)).
		WithArgs("Week 2", fixedNow, planID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`FROM "meal_plans" WHERE "id"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "name", "created_at", "updated_at"}).
			AddRow(planID, "user-1", "Week 2", fixedNow, fixedNow))
	mock.ExpectCommit()

	plan, err := s.UpdateMealPlan(context.Background(), planID, model.MealPlanChanges{Name: strPtr("Week 2")})
	require.NoError(t, err)
	assert.Equal(t, "Week 2", plan.Name)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteTwiceIsNotFound(t *testing.T) {
	s, mock := newMockStore(t, Options{})

	mock.ExpectBegin()
	mock.ExpectExec(q(`DELETE FROM "meal_plans" WHERE "id" = $1`)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectBegin()
	mock.ExpectExec(q(`DELETE FROM "meal_plans" WHERE "id" = $1`)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	require.NoError(t, s.DeleteMealPlan(context.Background(), planID))
	assert.True(t, errors.Is(s.DeleteMealPlan(context.Background(), planID), orm.ErrNotFound))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListChildrenOfMissingParentIsNotFound(t *testing.T) {
	s, mock := newMockStore(t, Options{})

	mock.ExpectQuery(q(`SELECT EXISTS (SELECT 1 FROM "meal_plans" WHERE "id" = $1)`)).
		WithArgs(planID).
		WillReturnRows(existsRows(false))

	_, err := s.ListMealPlanItems(context.Background(), planID)
	assert.True(t, errors.Is(err, orm.ErrNotFound))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListInstructionsOrdersByPosition(t *testing.T) {
	s, mock := newMockStore(t, Options{})

	mock.ExpectQuery(`SELECT EXISTS .* FROM "recipes"`).WillReturnRows(existsRows(true))
	mock.ExpectQuery(q(`FROM "instructions" WHERE ("instructions"."recipe_id" = $1) ORDER BY "instructions"."order" ASC, "instructions"."id" ASC`)).
		WithArgs(recipeID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "recipe_id", "order", "text"}).
			AddRow(stepID, recipeID, 1, "Boil").
			AddRow(itemID, recipeID, 2, "Serve"))

	steps, err := s.ListInstructions(context.Background(), recipeID)
	require.NoError(t, err)
	require.Len(t, steps, 2)
	assert.Equal(t, "Boil", steps[0].Text)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListRecipesByTagUsesDistinctSubquery(t *testing.T) {
	s, mock := newMockStore(t, Options{})

	mock.ExpectQuery(q(`SELECT EXISTS (SELECT 1 FROM "tags" WHERE "id" = $1)`)).
		WithArgs(tagID).
		WillReturnRows(existsRows(true))
	mock.ExpectQuery(q(`FROM "recipes" WHERE ("recipes"."id" IN (SELECT "recipe_id" FROM "recipe_tags" WHERE "tag_id" = $1)) ORDER BY "recipes"."id" ASC`)).
		WithArgs(tagID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title"}).AddRow(recipeID, "Soup"))

	recipes, err := s.ListRecipesByTag(context.Background(), tagID)
	require.NoError(t, err)
	require.Len(t, recipes, 1)
	assert.Equal(t, "Soup", recipes[0].Title)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListRecipesByUnknownTagIsNotFound(t *testing.T) {
	s, mock := newMockStore(t, Options{})

	_, err := s.ListRecipesByTag(context.Background(), "no-such-tag")
	assert.True(t, errors.Is(err, orm.ErrNotFound))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateRecipeRollsBackFamilyOnDanglingTag(t *testing.T) {
	s, mock := newMockStore(t, Options{})

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO "recipes"`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT EXISTS .* FROM "recipes"`).WillReturnRows(existsRows(true))
	mock.ExpectExec(`INSERT INTO "instructions"`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT EXISTS .* FROM "recipes"`).WillReturnRows(existsRows(true))
	mock.ExpectQuery(q(`SELECT EXISTS (SELECT 1 FROM "tags" WHERE "id" = $1)`)).
		WithArgs(tagID).
		WillReturnRows(existsRows(false))
	mock.ExpectRollback()

	_, err := s.CreateRecipe(context.Background(), model.NewRecipe{
		Title:        "Soup",
		Description:  "Warm",
		ImageURL:     "https://example.com/soup.jpg",
		Servings:     2,
		Difficulty:   model.DifficultyEasy,
		Cuisine:      "French",
		MealType:     "dinner",
		Chef:         "Ann",
		Instructions: []string{"Boil"},
		TagIDs:       []string{tagID, tagID},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, orm.ErrReference))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateRecipeReportsNestedFieldPaths(t *testing.T) {
	s, mock := newMockStore(t, Options{})

	_, err := s.CreateRecipe(context.Background(), model.NewRecipe{
		Title:       "Soup",
		Description: "Warm",
		ImageURL:    "https://example.com/soup.jpg",
		Servings:    2,
		Difficulty:  "Hard",
		Cuisine:     "French",
		MealType:    "dinner",
		Chef:        "Ann",
		Ingredients: []model.NewRecipeIngredient{{Quantity: "1", Unit: "l"}},
	})
	require.Error(t, err)
	assert.ElementsMatch(t, []string{"difficulty", "ingredients[0].name"}, validationFields(t, err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateCategoryRejectsBadSlug(t *testing.T) {
	s, _ := newMockStore(t, Options{})

	_, err := s.CreateCategory(context.Background(), model.NewCategory{
		Name:        "Quick Meals",
		Description: "Under 30 minutes",
		ImageURL:    "https://example.com/quick.jpg",
		Slug:        "Quick Meals",
	})
	assert.True(t, errors.Is(err, orm.ErrValidation))
}

func TestDeadlineSurfacesAsStorageUnavailable(t *testing.T) {
	s, mock := newMockStore(t, Options{OperationTimeout: 20 * time.Millisecond})

	mock.ExpectQuery(`FROM "recipes"`).
		WillDelayFor(200 * time.Millisecond).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(recipeID))

	_, err := s.GetRecipe(context.Background(), recipeID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, orm.ErrStorageUnavailable))
	assert.False(t, errors.Is(err, orm.ErrNotFound))
	assert.True(t, orm.IsRetryable(err))
}

func TestGetWithMalformedIDIsNotFound(t *testing.T) {
	s, mock := newMockStore(t, Options{})

	_, err := s.GetShoppingListItem(context.Background(), "missing")
	assert.True(t, errors.Is(err, orm.ErrNotFound))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUntagRecipeWithoutLinkIsNotFound(t *testing.T) {
	s, mock := newMockStore(t, Options{})

	mock.ExpectBegin()
	mock.ExpectExec(q(`DELETE FROM "recipe_tags" WHERE ("recipe_tags"."recipe_id" = $1 AND "recipe_tags"."tag_id" = $2)`)).
		WithArgs(recipeID, tagID).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := s.UntagRecipe(context.Background(), recipeID, tagID)
	assert.True(t, errors.Is(err, orm.ErrNotFound))
	require.NoError(t, mock.ExpectationsWereMet())
}

package store

import (
	"context"

	"github.com/eleven-am/pantry/internal/model"
)

// CreateShoppingList inserts a shopping list.
func (s *Store) CreateShoppingList(ctx context.Context, in model.NewShoppingList) (*model.ShoppingList, error) {
	return create[model.ShoppingList](ctx, s, in)
}

// GetShoppingList returns the shopping list with the given id.
func (s *Store) GetShoppingList(ctx context.Context, id string) (*model.ShoppingList, error) {
	return get[model.ShoppingList](ctx, s, id)
}

// UpdateShoppingList applies changes to a shopping list and returns the stored row.
func (s *Store) UpdateShoppingList(ctx context.Context, id string, changes model.ShoppingListChanges) (*model.ShoppingList, error) {
	return update[model.ShoppingList](ctx, s, id, changes)
}

// DeleteShoppingList removes the list and its items.
func (s *Store) DeleteShoppingList(ctx context.Context, id string) error {
	return remove[model.ShoppingList](ctx, s, id)
}

// ListShoppingLists returns the shopping lists of the user.
func (s *Store) ListShoppingLists(ctx context.Context, userID string) ([]model.ShoppingList, error) {
	return children[model.ShoppingList, model.User](ctx, s, "user_id", userID)
}

// CreateShoppingListItem adds an item; category defaults to "Other" and
// checked to false.
func (s *Store) CreateShoppingListItem(ctx context.Context, in model.NewShoppingListItem) (*model.ShoppingListItem, error) {
	return create[model.ShoppingListItem](ctx, s, in)
}

// GetShoppingListItem returns the shopping list item with the given id.
func (s *Store) GetShoppingListItem(ctx context.Context, id string) (*model.ShoppingListItem, error) {
	return get[model.ShoppingListItem](ctx, s, id)
}

// UpdateShoppingListItem applies changes to a shopping list item and returns the stored row.
// changes.Clear sets unit back to NULL.
func (s *Store) UpdateShoppingListItem(ctx context.Context, id string, changes model.ShoppingListItemChanges) (*model.ShoppingListItem, error) {
	return update[model.ShoppingListItem](ctx, s, id, changes)
}

// DeleteShoppingListItem removes a shopping list item.
func (s *Store) DeleteShoppingListItem(ctx context.Context, id string) error {
	return remove[model.ShoppingListItem](ctx, s, id)
}

// ListShoppingListItems returns the shopping list items of the shopping list.
func (s *Store) ListShoppingListItems(ctx context.Context, listID string) ([]model.ShoppingListItem, error) {
	return children[model.ShoppingListItem, model.ShoppingList](ctx, s, "shopping_list_id", listID)
}

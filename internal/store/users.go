package store

import (
	"context"

	"github.com/eleven-am/pantry/internal/model"
	"github.com/eleven-am/pantry/internal/orm"
)

// CreateUser registers a user. The id is taken from the input when an auth
// provider supplies one.
func (s *Store) CreateUser(ctx context.Context, in model.NewUser) (*model.User, error) {
	return create[model.User](ctx, s, in)
}

// GetUser returns the user with the given id.
func (s *Store) GetUser(ctx context.Context, id string) (*model.User, error) {
	return get[model.User](ctx, s, id)
}

// GetUserByEmail finds a user by their unique email address.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	var out *model.User
	err := s.read(ctx, "get", "users", func(ctx context.Context, exec orm.DBExecutor) error {
		var err error
		out, err = repo[model.User](s, exec).Query(ctx).
			Where(orm.Col[string]("users", "email").Eq(email)).
			First()
		return err
	})
	return out, err
}

// UpsertUser creates the user when the id is unknown and otherwise
// refreshes its profile fields. Billing fields are left alone.
func (s *Store) UpsertUser(ctx context.Context, in model.UpsertUser) (*model.User, error) {
	if err := s.check("upsert", "users", in); err != nil {
		return nil, err
	}
	table := tableOf[model.User]()
	changes, err := s.changeSet(table, in.Changes())
	if err != nil {
		return nil, err
	}
	row := in.NewUser().Build(in.ID, s.now())

	var out *model.User
	err = s.write(ctx, "upsert", table.Name, func(ctx context.Context, exec orm.DBExecutor) error {
		r := repo[model.User](s, exec)
		found, err := r.Exists(ctx, in.ID)
		if err != nil {
			return err
		}
		if !found {
			if err := r.Create(ctx, &row); err != nil {
				return err
			}
			out = &row
			return nil
		}
		if err := r.Update(ctx, in.ID, changes); err != nil {
			return err
		}
		out, err = r.FindByID(ctx, in.ID)
		return err
	})
	return out, err
}

// UpdateUser applies changes to an user and returns the stored row.
func (s *Store) UpdateUser(ctx context.Context, id string, changes model.UserChanges) (*model.User, error) {
	return update[model.User](ctx, s, id, changes)
}

// DeleteUser removes the user and everything owned by them.
func (s *Store) DeleteUser(ctx context.Context, id string) error {
	return remove[model.User](ctx, s, id)
}

// CreateDietaryPreference inserts a dietary preference.
func (s *Store) CreateDietaryPreference(ctx context.Context, in model.NewDietaryPreference) (*model.DietaryPreference, error) {
	return create[model.DietaryPreference](ctx, s, in)
}

// GetDietaryPreference returns the dietary preference with the given id.
func (s *Store) GetDietaryPreference(ctx context.Context, id string) (*model.DietaryPreference, error) {
	return get[model.DietaryPreference](ctx, s, id)
}

// UpdateDietaryPreference applies changes to a dietary preference and returns the stored row.
func (s *Store) UpdateDietaryPreference(ctx context.Context, id string, changes model.DietaryPreferenceChanges) (*model.DietaryPreference, error) {
	return update[model.DietaryPreference](ctx, s, id, changes)
}

// DeleteDietaryPreference removes a dietary preference.
func (s *Store) DeleteDietaryPreference(ctx context.Context, id string) error {
	return remove[model.DietaryPreference](ctx, s, id)
}

// ListDietaryPreferences returns the dietary preferences of the user.
func (s *Store) ListDietaryPreferences(ctx context.Context, userID string) ([]model.DietaryPreference, error) {
	return children[model.DietaryPreference, model.User](ctx, s, "user_id", userID)
}

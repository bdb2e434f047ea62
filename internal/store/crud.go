package store

import (
	"context"
	"reflect"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/eleven-am/pantry/internal/orm"
	"github.com/eleven-am/pantry/internal/schema"
	"github.com/google/uuid"
)

// contract is implemented by every New* input type.
type contract[T any] interface {
	Build(id string, now time.Time) T
}

func tableOf[T any]() *schema.Table {
	var zero T
	t, ok := catalog.TableFor(reflect.TypeOf(zero))
	if !ok {
		panic("store: unregistered row type " + reflect.TypeOf(zero).String())
	}
	return t
}

func repo[T any](s *Store, exec orm.DBExecutor) *orm.Repository[T] {
	r, err := orm.NewRepository[T](exec, catalog)
	if err != nil {
		panic(err)
	}
	return r.Use(s.logging)
}

func create[T any, C contract[T]](ctx context.Context, s *Store, in C) (*T, error) {
	table := tableOf[T]().Name
	if err := s.check("create", table, in); err != nil {
		return nil, err
	}

	row := in.Build(s.newID(), s.now())
	err := s.write(ctx, "create", table, func(ctx context.Context, exec orm.DBExecutor) error {
		return repo[T](s, exec).Create(ctx, &row)
	})
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func get[T any](ctx context.Context, s *Store, id string) (*T, error) {
	var out *T
	err := s.read(ctx, "get", tableOf[T]().Name, func(ctx context.Context, exec orm.DBExecutor) error {
		var err error
		out, err = repo[T](s, exec).FindByID(ctx, id)
		return err
	})
	return out, err
}

// changeSet validates patch and flattens it, stamping updated_at when the
// table has one and something changes.
func (s *Store) changeSet(table *schema.Table, patch interface{}) (map[string]interface{}, error) {
	if err := s.check("update", table.Name, patch); err != nil {
		return nil, err
	}
	changes, err := orm.Changes(patch)
	if err != nil {
		return nil, orm.Invalid("update", table.Name, orm.ValidationError{Field: "changes", Message: err.Error()})
	}
	if len(changes) > 0 && table.HasColumn("updated_at") {
		changes["updated_at"] = s.now()
	}
	return changes, nil
}

func update[T any](ctx context.Context, s *Store, id string, patch interface{}) (*T, error) {
	table := tableOf[T]()
	changes, err := s.changeSet(table, patch)
	if err != nil {
		return nil, err
	}

	var out *T
	err = s.write(ctx, "update", table.Name, func(ctx context.Context, exec orm.DBExecutor) error {
		r := repo[T](s, exec)
		if err := r.Update(ctx, id, changes); err != nil {
			return err
		}
		out, err = r.FindByID(ctx, id)
		return err
	})
	return out, err
}

func remove[T any](ctx context.Context, s *Store, id string) error {
	return s.write(ctx, "delete", tableOf[T]().Name, func(ctx context.Context, exec orm.DBExecutor) error {
		return repo[T](s, exec).Delete(ctx, id)
	})
}

// children lists rows of C whose fk column points at parentID, in
// insertion order unless order is given. A missing parent is NotFound.
func children[C, P any](ctx context.Context, s *Store, fk, parentID string, order ...string) ([]C, error) {
	child := tableOf[C]().Name
	if len(order) == 0 {
		order = []string{orm.Col[string](child, "id").Asc()}
	}

	var out []C
	err := s.read(ctx, "list", child, func(ctx context.Context, exec orm.DBExecutor) error {
		if err := mustExist[P](ctx, s, exec, parentID); err != nil {
			return err
		}
		var err error
		out, err = repo[C](s, exec).Query(ctx).
			Where(orm.Col[string](child, fk).Eq(parentID)).
			OrderBy(order...).
			Find()
		return err
	})
	return out, err
}

// all lists every row of T in insertion order.
func all[T any](ctx context.Context, s *Store, where ...orm.Condition) ([]T, error) {
	table := tableOf[T]().Name

	var out []T
	err := s.read(ctx, "list", table, func(ctx context.Context, exec orm.DBExecutor) error {
		q := repo[T](s, exec).Query(ctx)
		for _, cond := range where {
			q = q.Where(cond)
		}
		var err error
		out, err = q.OrderBy(orm.Col[string](table, "id").Asc()).Find()
		return err
	})
	return out, err
}

// through lists the rows of T reached from ownerID through a link table,
// each row once, in insertion order.
func through[T any](ctx context.Context, s *Store, exec orm.DBExecutor, link, ownerColumn, targetColumn, ownerID string) ([]T, error) {
	table := tableOf[T]().Name
	sub := squirrel.Select(schema.Quote(targetColumn)).
		From(schema.Quote(link)).
		Where(squirrel.Eq{schema.Quote(ownerColumn): ownerID})

	return repo[T](s, exec).Query(ctx).
		Where(orm.Col[string](table, "id").InSelect(sub)).
		OrderBy(orm.Col[string](table, "id").Asc()).
		Find()
}

func mustExist[T any](ctx context.Context, s *Store, exec orm.DBExecutor, id string) error {
	found, err := repo[T](s, exec).Exists(ctx, id)
	if err != nil {
		return err
	}
	if !found {
		return orm.NotFound("get", tableOf[T]().Name)
	}
	return nil
}

func isUUID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

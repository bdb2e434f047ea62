package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/eleven-am/pantry/internal/model"
	"github.com/eleven-am/pantry/internal/orm"
	"github.com/eleven-am/pantry/internal/schema"
)

var (
	stepRecipe = orm.Col[string]("instructions", "recipe_id")
	stepOrder  = orm.Cmp[int]("instructions", "order")

	instructionOrder = []string{
		stepOrder.Asc(),
		orm.Col[string]("instructions", "id").Asc(),
	}
)

// CreateInstruction inserts a step at in.Order, which must lie in 1..n+1
// for a recipe with n steps. Steps at or after that position move down one.
func (s *Store) CreateInstruction(ctx context.Context, in model.NewInstruction) (*model.Instruction, error) {
	if err := s.check("create", "instructions", in); err != nil {
		return nil, err
	}

	row := in.Build(s.newID(), s.now())
	err := s.write(ctx, "create", "instructions", func(ctx context.Context, exec orm.DBExecutor) error {
		r := repo[model.Instruction](s, exec)
		n, err := s.lockSteps(ctx, exec, r, "create", in.RecipeID)
		if err != nil {
			return err
		}
		if in.Order > n+1 {
			return orderError("create", n+1)
		}
		if in.Order <= n {
			if err := shiftSteps(r.Query(ctx), in.RecipeID, stepOrder.Gte(in.Order), 1); err != nil {
				return err
			}
		}
		return r.Create(ctx, &row)
	})
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// GetInstruction returns the instruction with the given id.
func (s *Store) GetInstruction(ctx context.Context, id string) (*model.Instruction, error) {
	return get[model.Instruction](ctx, s, id)
}

// UpdateInstruction edits a step. Moving it to another position in 1..n
// shifts the steps in between to keep the numbering contiguous.
func (s *Store) UpdateInstruction(ctx context.Context, id string, changes model.InstructionChanges) (*model.Instruction, error) {
	table := tableOf[model.Instruction]()
	set, err := s.changeSet(table, changes)
	if err != nil {
		return nil, err
	}

	var out *model.Instruction
	err = s.write(ctx, "update", table.Name, func(ctx context.Context, exec orm.DBExecutor) error {
		r := repo[model.Instruction](s, exec)
		current, err := r.FindByID(ctx, id)
		if err != nil {
			return err
		}

		if changes.Order != nil && *changes.Order != current.Order {
			to, from := *changes.Order, current.Order
			n, err := s.lockSteps(ctx, exec, r, "update", current.RecipeID)
			if err != nil {
				return err
			}
			if to > n {
				return orderError("update", n)
			}
			if to > from {
				err = shiftSteps(r.Query(ctx), current.RecipeID, orm.And(stepOrder.Gt(from), stepOrder.Lte(to)), -1)
			} else {
				err = shiftSteps(r.Query(ctx), current.RecipeID, orm.And(stepOrder.Gte(to), stepOrder.Lt(from)), 1)
			}
			if err != nil {
				return err
			}
		}

		if err := r.Update(ctx, id, set); err != nil {
			return err
		}
		out, err = r.FindByID(ctx, id)
		return err
	})
	return out, err
}

// DeleteInstruction removes a step and closes the gap it leaves.
func (s *Store) DeleteInstruction(ctx context.Context, id string) error {
	return s.write(ctx, "delete", "instructions", func(ctx context.Context, exec orm.DBExecutor) error {
		r := repo[model.Instruction](s, exec)
		current, err := r.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if _, err := s.lockSteps(ctx, exec, r, "delete", current.RecipeID); err != nil {
			return err
		}
		if err := r.Delete(ctx, id); err != nil {
			return err
		}
		return shiftSteps(r.Query(ctx), current.RecipeID, stepOrder.Gt(current.Order), -1)
	})
}

// ListInstructions returns a recipe's steps by position.
func (s *Store) ListInstructions(ctx context.Context, recipeID string) ([]model.Instruction, error) {
	return children[model.Instruction, model.Recipe](ctx, s, "recipe_id", recipeID, instructionOrder...)
}

// lockSteps takes a row lock on the recipe so renumbering is serialized
// per recipe, then counts its steps. A recipe that is not there is a
// dangling reference, reported before any position is checked.
func (s *Store) lockSteps(ctx context.Context, exec orm.DBExecutor, r *orm.Repository[model.Instruction], op, recipeID string) (int, error) {
	if !isUUID(recipeID) {
		return 0, missingRecipe(op, recipeID)
	}

	lock, args, err := squirrel.Select("1").
		From(schema.Quote("recipes")).
		Where(squirrel.Eq{schema.Quote("id"): recipeID}).
		Suffix("FOR UPDATE").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build lock query: %w", err)
	}

	var locked int
	if err := exec.GetContext(ctx, &locked, lock, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, missingRecipe(op, recipeID)
		}
		return 0, orm.ParsePostgreSQLError(err, "lock", "recipes")
	}

	n, err := r.Query(ctx).Where(stepRecipe.Eq(recipeID)).Count()
	return int(n), err
}

func missingRecipe(op, recipeID string) error {
	e := &orm.Error{
		Op:     op,
		Table:  "instructions",
		Kind:   orm.ErrReference,
		Err:    fmt.Errorf("%w: recipe_id %s not found in recipes", orm.ErrForeignKey, recipeID),
		Column: "recipe_id",
	}
	if fk, ok := tableOf[model.Instruction]().ForeignKeyFor("recipe_id"); ok {
		e.Constraint = fk.Name
	}
	return e
}

func shiftSteps(q *orm.Query[model.Instruction], recipeID string, which orm.Condition, delta int) error {
	_, err := q.Where(stepRecipe.Eq(recipeID)).
		Where(which).
		Update(map[string]interface{}{"order": stepOrder.Shift(delta)})
	return err
}

func orderError(op string, max int) error {
	return orm.Invalid(op, "instructions", orm.ValidationError{
		Field:   "order",
		Message: fmt.Sprintf("must be between 1 and %d", max),
	})
}

package store

import (
	"context"

	"github.com/eleven-am/pantry/internal/model"
	"github.com/eleven-am/pantry/internal/orm"
)

// CreateSubscription inserts a subscription.
func (s *Store) CreateSubscription(ctx context.Context, in model.NewSubscription) (*model.Subscription, error) {
	return create[model.Subscription](ctx, s, in)
}

// GetSubscription returns the subscription with the given id.
func (s *Store) GetSubscription(ctx context.Context, id string) (*model.Subscription, error) {
	return get[model.Subscription](ctx, s, id)
}

// UpdateSubscription applies changes reported by the payment processor.
// The resulting billing period must not end before it starts.
func (s *Store) UpdateSubscription(ctx context.Context, id string, changes model.SubscriptionChanges) (*model.Subscription, error) {
	table := tableOf[model.Subscription]()
	set, err := s.changeSet(table, changes)
	if err != nil {
		return nil, err
	}

	var out *model.Subscription
	err = s.write(ctx, "update", table.Name, func(ctx context.Context, exec orm.DBExecutor) error {
		r := repo[model.Subscription](s, exec)
		current, err := r.FindByID(ctx, id)
		if err != nil {
			return err
		}

		start, end := current.CurrentPeriodStart, current.CurrentPeriodEnd
		if changes.CurrentPeriodStart != nil {
			start = *changes.CurrentPeriodStart
		}
		if changes.CurrentPeriodEnd != nil {
			end = *changes.CurrentPeriodEnd
		}
		if end.Before(start) {
			return orm.Invalid("update", table.Name, orm.ValidationError{
				Field:   "currentPeriodEnd",
				Message: "must not be before currentPeriodStart",
			})
		}

		if err := r.Update(ctx, id, set); err != nil {
			return err
		}
		out, err = r.FindByID(ctx, id)
		return err
	})
	return out, err
}

// DeleteSubscription removes a subscription.
func (s *Store) DeleteSubscription(ctx context.Context, id string) error {
	return remove[model.Subscription](ctx, s, id)
}

// ListSubscriptions returns the subscriptions of the user.
func (s *Store) ListSubscriptions(ctx context.Context, userID string) ([]model.Subscription, error) {
	return children[model.Subscription, model.User](ctx, s, "user_id", userID)
}

// CreatePayment records an invoice for a user.
func (s *Store) CreatePayment(ctx context.Context, in model.NewPayment) (*model.PaymentHistory, error) {
	return create[model.PaymentHistory](ctx, s, in)
}

// GetPayment returns the payment record with the given id.
func (s *Store) GetPayment(ctx context.Context, id string) (*model.PaymentHistory, error) {
	return get[model.PaymentHistory](ctx, s, id)
}

// UpdatePayment applies changes to a payment record and returns the stored row.
// changes.Clear sets invoice_url and description back to NULL.
func (s *Store) UpdatePayment(ctx context.Context, id string, changes model.PaymentChanges) (*model.PaymentHistory, error) {
	return update[model.PaymentHistory](ctx, s, id, changes)
}

// DeletePayment removes a payment record.
func (s *Store) DeletePayment(ctx context.Context, id string) error {
	return remove[model.PaymentHistory](ctx, s, id)
}

// ListPayments returns a user's payment history, oldest first.
func (s *Store) ListPayments(ctx context.Context, userID string) ([]model.PaymentHistory, error) {
	return children[model.PaymentHistory, model.User](ctx, s, "user_id", userID)
}

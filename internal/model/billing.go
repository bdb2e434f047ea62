package model

import "time"

// Subscription is a user's billing subscription as reported by the
// payment processor.
type Subscription struct {
	_ struct{} `dbdef:"table:subscriptions;index:idx_subscriptions_user,user_id"`

	ID                   string             `db:"id" dbdef:"type:uuid;primary_key"`
	UserID               string             `db:"user_id" dbdef:"type:varchar(255);not_null;foreign_key:users.id;on_delete:CASCADE"`
	StripeSubscriptionID string             `db:"stripe_subscription_id" dbdef:"type:varchar(255);not_null"`
	StripePriceID        string             `db:"stripe_price_id" dbdef:"type:varchar(255);not_null"`
	Status               SubscriptionStatus `db:"status" dbdef:"type:varchar(255);not_null"`
	PlanName             string             `db:"plan_name" dbdef:"type:varchar(255);not_null"`
	CurrentPeriodStart   time.Time          `db:"current_period_start" dbdef:"type:timestamptz;not_null"`
	CurrentPeriodEnd     time.Time          `db:"current_period_end" dbdef:"type:timestamptz;not_null"`
	CancelAtPeriodEnd    bool               `db:"cancel_at_period_end" dbdef:"type:boolean;not_null;default:false"`
	CreatedAt            time.Time          `db:"created_at" dbdef:"type:timestamptz;not_null;default:now()"`
	UpdatedAt            time.Time          `db:"updated_at" dbdef:"type:timestamptz;not_null;default:now()"`
}

type NewSubscription struct {
	UserID               string             `json:"userId" validate:"required"`
	StripeSubscriptionID string             `json:"stripeSubscriptionId" validate:"required,max=255"`
	StripePriceID        string             `json:"stripePriceId" validate:"required,max=255"`
	Status               SubscriptionStatus `json:"status" validate:"required,oneof=active inactive canceled past_due incomplete incomplete_expired trialing unpaid paused"`
	PlanName             string             `json:"planName" validate:"required,max=255"`
	CurrentPeriodStart   time.Time          `json:"currentPeriodStart" validate:"required"`
	CurrentPeriodEnd     time.Time          `json:"currentPeriodEnd" validate:"required,gtefield=CurrentPeriodStart"`
	CancelAtPeriodEnd    *bool              `json:"cancelAtPeriodEnd,omitempty"`
}

func (n NewSubscription) Build(id string, now time.Time) Subscription {
	return Subscription{
		ID:                   id,
		UserID:               n.UserID,
		StripeSubscriptionID: n.StripeSubscriptionID,
		StripePriceID:        n.StripePriceID,
		Status:               n.Status,
		PlanName:             n.PlanName,
		CurrentPeriodStart:   n.CurrentPeriodStart,
		CurrentPeriodEnd:     n.CurrentPeriodEnd,
		CancelAtPeriodEnd:    valueOr(n.CancelAtPeriodEnd, false),
		CreatedAt:            now,
		UpdatedAt:            now,
	}
}

type SubscriptionChanges struct {
	StripePriceID      *string             `db:"stripe_price_id" json:"stripePriceId,omitempty" validate:"omitempty,min=1,max=255"`
	Status             *SubscriptionStatus `db:"status" json:"status,omitempty" validate:"omitempty,oneof=active inactive canceled past_due incomplete incomplete_expired trialing unpaid paused"`
	PlanName           *string             `db:"plan_name" json:"planName,omitempty" validate:"omitempty,min=1,max=255"`
	CurrentPeriodStart *time.Time          `db:"current_period_start" json:"currentPeriodStart,omitempty"`
	CurrentPeriodEnd   *time.Time          `db:"current_period_end" json:"currentPeriodEnd,omitempty"`
	CancelAtPeriodEnd  *bool               `db:"cancel_at_period_end" json:"cancelAtPeriodEnd,omitempty"`
}

// PaymentHistory records one invoice. Amount is in minor currency units.
type PaymentHistory struct {
	_ struct{} `dbdef:"table:payment_history;index:idx_payment_history_user,user_id"`

	ID              string        `db:"id" dbdef:"type:uuid;primary_key"`
	UserID          string        `db:"user_id" dbdef:"type:varchar(255);not_null;foreign_key:users.id;on_delete:CASCADE"`
	StripeInvoiceID string        `db:"stripe_invoice_id" dbdef:"type:varchar(255);not_null"`
	Amount          int64         `db:"amount" dbdef:"type:bigint;not_null"`
	Currency        string        `db:"currency" dbdef:"type:varchar(255);not_null"`
	Status          PaymentStatus `db:"status" dbdef:"type:varchar(255);not_null"`
	InvoiceURL      *string       `db:"invoice_url" dbdef:"type:varchar(255)"`
	Description     *string       `db:"description" dbdef:"type:text"`
	PaymentDate     time.Time     `db:"payment_date" dbdef:"type:timestamptz;not_null"`
	CreatedAt       time.Time     `db:"created_at" dbdef:"type:timestamptz;not_null;default:now()"`
}

type NewPayment struct {
	UserID          string        `json:"userId" validate:"required"`
	StripeInvoiceID string        `json:"stripeInvoiceId" validate:"required,max=255"`
	Amount          int64         `json:"amount" validate:"gte=0"`
	Currency        string        `json:"currency" validate:"required,max=255"`
	Status          PaymentStatus `json:"status" validate:"required,oneof=paid unpaid refunded open void uncollectible"`
	InvoiceURL      *string       `json:"invoiceUrl,omitempty" validate:"omitempty,url,max=255"`
	Description     *string       `json:"description,omitempty"`
	PaymentDate     time.Time     `json:"paymentDate" validate:"required"`
}

func (n NewPayment) Build(id string, now time.Time) PaymentHistory {
	return PaymentHistory{
		ID:              id,
		UserID:          n.UserID,
		StripeInvoiceID: n.StripeInvoiceID,
		Amount:          n.Amount,
		Currency:        n.Currency,
		Status:          n.Status,
		InvoiceURL:      n.InvoiceURL,
		Description:     n.Description,
		PaymentDate:     n.PaymentDate,
		CreatedAt:       now,
	}
}

type PaymentChanges struct {
	Status      *PaymentStatus `db:"status" json:"status,omitempty" validate:"omitempty,oneof=paid unpaid refunded open void uncollectible"`
	InvoiceURL  *string        `db:"invoice_url" json:"invoiceUrl,omitempty" validate:"omitempty,url,max=255"`
	Description *string        `db:"description" json:"description,omitempty"`
	Clear       []string       `db:"-" json:"clear,omitempty" validate:"omitempty,dive,oneof=invoice_url description"`
}

// Cleared names the nullable columns to set back to NULL.
func (c PaymentChanges) Cleared() []string { return c.Clear }

package model

// Difficulty grades how hard a recipe is.
type Difficulty string

const (
	DifficultyEasy     Difficulty = "Easy"
	DifficultyMedium   Difficulty = "Medium"
	DifficultyAdvanced Difficulty = "Advanced"
)

// MealType is the slot a meal plan item occupies during a day.
type MealType string

const (
	MealBreakfast MealType = "breakfast"
	MealLunch     MealType = "lunch"
	MealDinner    MealType = "dinner"
	MealSnack     MealType = "snack"
)

// AuthProvider records how a user signed up.
type AuthProvider string

const (
	AuthEmail  AuthProvider = "email"
	AuthGoogle AuthProvider = "google"
	AuthReplit AuthProvider = "replit"
)

// SubscriptionStatus mirrors the billing processor's subscription states.
type SubscriptionStatus string

const (
	SubscriptionActive            SubscriptionStatus = "active"
	SubscriptionInactive          SubscriptionStatus = "inactive"
	SubscriptionCanceled          SubscriptionStatus = "canceled"
	SubscriptionPastDue           SubscriptionStatus = "past_due"
	SubscriptionIncomplete        SubscriptionStatus = "incomplete"
	SubscriptionIncompleteExpired SubscriptionStatus = "incomplete_expired"
	SubscriptionTrialing          SubscriptionStatus = "trialing"
	SubscriptionUnpaid            SubscriptionStatus = "unpaid"
	SubscriptionPaused            SubscriptionStatus = "paused"
)

// PaymentStatus mirrors the billing processor's invoice states.
type PaymentStatus string

const (
	PaymentPaid          PaymentStatus = "paid"
	PaymentUnpaid        PaymentStatus = "unpaid"
	PaymentRefunded      PaymentStatus = "refunded"
	PaymentOpen          PaymentStatus = "open"
	PaymentVoid          PaymentStatus = "void"
	PaymentUncollectible PaymentStatus = "uncollectible"
)

// DefaultShoppingCategory is used for shopping list items created without one.
const DefaultShoppingCategory = "Other"

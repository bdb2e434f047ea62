package model

import "time"

// User is an account holder. The id is either store-assigned or the id of an
// external auth provider.
type User struct {
	_ struct{} `dbdef:"table:users"`

	ID                   string             `db:"id" dbdef:"type:varchar(255);primary_key"`
	Username             string             `db:"username" dbdef:"type:varchar(255);not_null"`
	Email                string             `db:"email" dbdef:"type:varchar(255);not_null;unique"`
	PasswordHash         *string            `db:"password" dbdef:"type:varchar(255)"`
	FirstName            *string            `db:"first_name" dbdef:"type:varchar(255)"`
	LastName             *string            `db:"last_name" dbdef:"type:varchar(255)"`
	ProfileImageURL      *string            `db:"profile_image_url" dbdef:"type:varchar(255)"`
	AuthProvider         AuthProvider       `db:"auth_provider" dbdef:"type:varchar(255);not_null;default:'email'"`
	IsPremium            bool               `db:"is_premium" dbdef:"type:boolean;not_null;default:false"`
	StripeCustomerID     *string            `db:"stripe_customer_id" dbdef:"type:varchar(255)"`
	StripeSubscriptionID *string            `db:"stripe_subscription_id" dbdef:"type:varchar(255)"`
	SubscriptionStatus   SubscriptionStatus `db:"subscription_status" dbdef:"type:varchar(255);not_null;default:'inactive'"`
	SubscriptionPlan     *string            `db:"subscription_plan" dbdef:"type:varchar(255)"`
	SubscriptionEndDate  *time.Time         `db:"subscription_end_date" dbdef:"type:timestamptz"`
	CreatedAt            time.Time          `db:"created_at" dbdef:"type:timestamptz;not_null;default:now()"`
	UpdatedAt            time.Time          `db:"updated_at" dbdef:"type:timestamptz;not_null;default:now()"`
}

// NewUser is the registration contract. ID is optional and lets an external
// auth provider's subject id become the user id.
type NewUser struct {
	ID                   *string             `json:"id,omitempty" validate:"omitempty,max=255"`
	Username             string              `json:"username" validate:"required,max=255"`
	Email                string              `json:"email" validate:"required,email,max=255"`
	PasswordHash         *string             `json:"password,omitempty" validate:"omitempty,max=255"`
	FirstName            *string             `json:"firstName,omitempty" validate:"omitempty,max=255"`
	LastName             *string             `json:"lastName,omitempty" validate:"omitempty,max=255"`
	ProfileImageURL      *string             `json:"profileImageUrl,omitempty" validate:"omitempty,max=255"`
	AuthProvider         *AuthProvider       `json:"authProvider,omitempty" validate:"omitempty,oneof=email google replit"`
	IsPremium            *bool               `json:"isPremium,omitempty"`
	StripeCustomerID     *string             `json:"stripeCustomerId,omitempty" validate:"omitempty,max=255"`
	StripeSubscriptionID *string             `json:"stripeSubscriptionId,omitempty" validate:"omitempty,max=255"`
	SubscriptionStatus   *SubscriptionStatus `json:"subscriptionStatus,omitempty" validate:"omitempty,oneof=active inactive canceled past_due incomplete incomplete_expired trialing unpaid paused"`
	SubscriptionPlan     *string             `json:"subscriptionPlan,omitempty" validate:"omitempty,max=255"`
	SubscriptionEndDate  *time.Time          `json:"subscriptionEndDate,omitempty"`
}

// Build turns the contract into a row, applying column defaults.
func (n NewUser) Build(id string, now time.Time) User {
	if n.ID != nil && *n.ID != "" {
		id = *n.ID
	}
	return User{
		ID:                   id,
		Username:             n.Username,
		Email:                n.Email,
		PasswordHash:         n.PasswordHash,
		FirstName:            n.FirstName,
		LastName:             n.LastName,
		ProfileImageURL:      n.ProfileImageURL,
		AuthProvider:         valueOr(n.AuthProvider, AuthEmail),
		IsPremium:            valueOr(n.IsPremium, false),
		StripeCustomerID:     n.StripeCustomerID,
		StripeSubscriptionID: n.StripeSubscriptionID,
		SubscriptionStatus:   valueOr(n.SubscriptionStatus, SubscriptionInactive),
		SubscriptionPlan:     n.SubscriptionPlan,
		SubscriptionEndDate:  n.SubscriptionEndDate,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
}

// UserChanges lists the user fields a caller may change. Nil means unchanged.
type UserChanges struct {
	Username             *string             `db:"username" json:"username,omitempty" validate:"omitempty,min=1,max=255"`
	Email                *string             `db:"email" json:"email,omitempty" validate:"omitempty,email,max=255"`
	PasswordHash         *string             `db:"password" json:"password,omitempty" validate:"omitempty,max=255"`
	FirstName            *string             `db:"first_name" json:"firstName,omitempty" validate:"omitempty,max=255"`
	LastName             *string             `db:"last_name" json:"lastName,omitempty" validate:"omitempty,max=255"`
	ProfileImageURL      *string             `db:"profile_image_url" json:"profileImageUrl,omitempty" validate:"omitempty,max=255"`
	AuthProvider         *AuthProvider       `db:"auth_provider" json:"authProvider,omitempty" validate:"omitempty,oneof=email google replit"`
	IsPremium            *bool               `db:"is_premium" json:"isPremium,omitempty"`
	StripeCustomerID     *string             `db:"stripe_customer_id" json:"stripeCustomerId,omitempty" validate:"omitempty,max=255"`
	StripeSubscriptionID *string             `db:"stripe_subscription_id" json:"stripeSubscriptionId,omitempty" validate:"omitempty,max=255"`
	SubscriptionStatus   *SubscriptionStatus `db:"subscription_status" json:"subscriptionStatus,omitempty" validate:"omitempty,oneof=active inactive canceled past_due incomplete incomplete_expired trialing unpaid paused"`
	SubscriptionPlan     *string             `db:"subscription_plan" json:"subscriptionPlan,omitempty" validate:"omitempty,max=255"`
	SubscriptionEndDate  *time.Time          `db:"subscription_end_date" json:"subscriptionEndDate,omitempty"`
}

// UpsertUser is the profile payload delivered by an external auth provider.
// The user is created when the id is unknown and its profile refreshed
// otherwise.
type UpsertUser struct {
	ID              string        `json:"id" validate:"required,max=255"`
	Username        string        `json:"username" validate:"required,max=255"`
	Email           string        `json:"email" validate:"required,email,max=255"`
	FirstName       *string       `json:"firstName,omitempty" validate:"omitempty,max=255"`
	LastName        *string       `json:"lastName,omitempty" validate:"omitempty,max=255"`
	ProfileImageURL *string       `json:"profileImageUrl,omitempty" validate:"omitempty,max=255"`
	AuthProvider    *AuthProvider `json:"authProvider,omitempty" validate:"omitempty,oneof=email google replit"`
}

// NewUser converts the upsert payload to a registration.
func (u UpsertUser) NewUser() NewUser {
	id := u.ID
	return NewUser{
		ID:              &id,
		Username:        u.Username,
		Email:           u.Email,
		FirstName:       u.FirstName,
		LastName:        u.LastName,
		ProfileImageURL: u.ProfileImageURL,
		AuthProvider:    u.AuthProvider,
	}
}

// Changes converts the upsert payload to a profile update.
func (u UpsertUser) Changes() UserChanges {
	username, email := u.Username, u.Email
	return UserChanges{
		Username:        &username,
		Email:           &email,
		FirstName:       u.FirstName,
		LastName:        u.LastName,
		ProfileImageURL: u.ProfileImageURL,
		AuthProvider:    u.AuthProvider,
	}
}

// DietaryPreference is a free-form dietary restriction or preference.
type DietaryPreference struct {
	_ struct{} `dbdef:"table:dietary_preferences;index:idx_dietary_preferences_user,user_id"`

	ID         string `db:"id" dbdef:"type:uuid;primary_key"`
	UserID     string `db:"user_id" dbdef:"type:varchar(255);not_null;foreign_key:users.id;on_delete:CASCADE"`
	Preference string `db:"preference" dbdef:"type:text;not_null"`
}

type NewDietaryPreference struct {
	UserID     string `json:"userId" validate:"required"`
	Preference string `json:"preference" validate:"required"`
}

func (n NewDietaryPreference) Build(id string, _ time.Time) DietaryPreference {
	return DietaryPreference{ID: id, UserID: n.UserID, Preference: n.Preference}
}

type DietaryPreferenceChanges struct {
	Preference *string `db:"preference" json:"preference,omitempty" validate:"omitempty,min=1"`
}

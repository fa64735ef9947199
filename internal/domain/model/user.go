package model

import (
	"time"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"

	AuthProviderCredentials = "credentials"
)

const (
	PlanFreemium       = "freemium"
	PlanPro            = "pro"
	PlanPremium        = "premium"
	PlanPremiumMonthly = "premium_monthly"
	PlanPremiumYearly  = "premium_yearly"
)

type User struct {
	ID                    string     `json:"id"`
	Username              string     `json:"username"`
	Email                 string     `json:"email"`
	HashedPassword        string     `json:"-"` // "" for OAuth-only accounts
	AuthProvider          string     `json:"auth_provider"`
	Role                  string     `json:"role"`
	IsSubscribed          bool       `json:"is_subscribed"`
	SubscriptionPlan      string     `json:"subscription_plan"`
	SubscriptionExpiresAt *time.Time `json:"subscription_expires_at,omitempty"`
	CreatedAt             time.Time  `json:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at"`
}

func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// HasActiveSubscription is true when the flag is set and the expiry, if any,
// is still in the future.
func (u *User) HasActiveSubscription(now time.Time) bool {
	if u == nil || !u.IsSubscribed {
		return false
	}
	return u.SubscriptionExpiresAt == nil || u.SubscriptionExpiresAt.After(now)
}

// UserUpdate carries a partial profile change. Nil fields are left untouched.
type UserUpdate struct {
	Username *string
	Email    *string
}

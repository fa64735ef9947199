package model

import "time"

const (
	PaymentCreated = "created"
	PaymentPaid    = "paid"
	PaymentFailed  = "failed"
)

type Payment struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	OrderID   string    `json:"order_id"`
	PaymentID *string   `json:"payment_id,omitempty"`
	Plan      string    `json:"plan"`
	Amount    int64     `json:"amount"` // minor units
	Currency  string    `json:"currency"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type PlanPrice struct {
	Plan     string        `json:"plan"`
	Amount   int64         `json:"amount"`
	Currency string        `json:"currency"`
	Duration time.Duration `json:"-"`
}

var planCatalog = map[string]PlanPrice{
	PlanPro:            {Plan: PlanPro, Amount: 29900, Currency: "INR", Duration: 30 * 24 * time.Hour},
	PlanPremium:        {Plan: PlanPremium, Amount: 49900, Currency: "INR", Duration: 30 * 24 * time.Hour},
	PlanPremiumMonthly: {Plan: PlanPremiumMonthly, Amount: 49900, Currency: "INR", Duration: 30 * 24 * time.Hour},
	PlanPremiumYearly:  {Plan: PlanPremiumYearly, Amount: 499900, Currency: "INR", Duration: 365 * 24 * time.Hour},
}

// PriceForPlan looks up a purchasable plan. Freemium is not purchasable.
func PriceForPlan(plan string) (PlanPrice, bool) {
	p, ok := planCatalog[plan]
	return p, ok
}

type SubscriptionStatus struct {
	Plan      string     `json:"plan"`
	Active    bool       `json:"active"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

package customer

import (
	"context"
	"time"
)

// Customer is an identity keyed by a normalized phone number. Customers are
// created on first contact and never deleted by the concierge.
type Customer struct {
	ID        uint    `json:"-"`
	PublicID  string  `json:"id"`
	Phone     string  `json:"phone"`
	Name      *string `json:"name,omitempty"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Repository exposes persistence for customers.
type Repository interface {
	Create(ctx context.Context, customer *Customer) error
	FindByPhone(ctx context.Context, phone string) (*Customer, error)
}

package entities

import (
	"time"

	"github.com/inkwell-books/sms-concierge/internal/domain/customer"
)

// Customer represents the database schema for customers.
type Customer struct {
	ID        uint      `gorm:"primaryKey"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`

	PublicID string  `gorm:"type:varchar(50);uniqueIndex;not null"`
	Phone    string  `gorm:"type:varchar(20);uniqueIndex;not null"`
	Name     *string `gorm:"type:varchar(128)"`

	Conversations []Conversation `gorm:"foreignKey:CustomerID"`
}

// TableName specifies the table name for Customer.
func (Customer) TableName() string {
	return "customers"
}

// EtoD converts the database entity to the domain model.
func (c *Customer) EtoD() *customer.Customer {
	return &customer.Customer{
		ID:        c.ID,
		PublicID:  c.PublicID,
		Phone:     c.Phone,
		Name:      c.Name,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

// NewSchemaCustomer creates a database entity from the domain model.
func NewSchemaCustomer(c *customer.Customer) *Customer {
	return &Customer{
		ID:       c.ID,
		PublicID: c.PublicID,
		Phone:    c.Phone,
		Name:     c.Name,
	}
}

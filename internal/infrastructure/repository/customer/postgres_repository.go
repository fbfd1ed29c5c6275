package customer

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	domain "github.com/inkwell-books/sms-concierge/internal/domain/customer"
	apperrors "github.com/inkwell-books/sms-concierge/internal/domain/errors"
	"github.com/inkwell-books/sms-concierge/internal/infrastructure/database/entities"
)

// Repository persists customers.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a customer repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts the customer record.
func (r *Repository) Create(ctx context.Context, cust *domain.Customer) error {
	entity := entities.NewSchemaCustomer(cust)
	if err := r.db.WithContext(ctx).Create(entity).Error; err != nil {
		return apperrors.Wrap(apperrors.KindDatabase, "create customer", err)
	}
	cust.ID = entity.ID
	cust.CreatedAt = entity.CreatedAt
	cust.UpdatedAt = entity.UpdatedAt
	return nil
}

// FindByPhone fetches a customer by its normalized phone number.
func (r *Repository) FindByPhone(ctx context.Context, phone string) (*domain.Customer, error) {
	var entity entities.Customer
	if err := r.db.WithContext(ctx).
		Where("phone = ?", phone).
		First(&entity).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.New(apperrors.KindNotFound, fmt.Sprintf("customer not found: %s", phone))
		}
		return nil, apperrors.Wrap(apperrors.KindDatabase, "fetch customer", err)
	}
	return entity.EtoD(), nil
}

var _ domain.Repository = (*Repository)(nil)

// Package store provides persistence for products.
package store

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Product is a row of the products table.
type Product struct {
	ID        int64           `db:"id"         json:"id"`
	Name      string          `db:"name"       json:"name"`
	Price     decimal.Decimal `db:"price"      json:"price"`
	Available bool            `db:"available"  json:"available"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt time.Time       `db:"updated_at" json:"updated_at"`
}

// ProductChanges holds the fields of a partial update; nil fields are left unchanged.
type ProductChanges struct {
	Name      *string
	Price     *decimal.Decimal
	Available *bool
}

// IsEmpty reports whether no field is set.
func (c ProductChanges) IsEmpty() bool {
	return c.Name == nil && c.Price == nil && c.Available == nil
}

// ProductStore is an interface for product storage operations.
// Every read and write except Create only sees rows with available = true.
type ProductStore interface {
	// Create inserts a product and returns it with the assigned ID.
	Create(ctx context.Context, name string, price decimal.Decimal, available bool) (*Product, error)

	// CountAvailable returns the number of available products.
	CountAvailable(ctx context.Context) (int64, error)

	// FindAll returns a page of available products ordered by ID.
	FindAll(ctx context.Context, offset, limit int64) ([]Product, error)

	// FindByID returns an available product.
	// Returns ErrProductNotFound if the product does not exist or is unavailable.
	FindByID(ctx context.Context, id int64) (*Product, error)

	// FindByIDs returns the available products among ids, ordered by ID.
	FindByIDs(ctx context.Context, ids []int64) ([]Product, error)

	// Update applies changes to an available product.
	// Returns ErrProductNotFound if the product does not exist or is unavailable.
	Update(ctx context.Context, id int64, changes ProductChanges) (*Product, error)

	// Deactivate sets available = false.
	// Returns ErrProductNotFound if the product does not exist or is already unavailable.
	Deactivate(ctx context.Context, id int64) (*Product, error)
}

// CacheInvalidator is implemented by stores that keep copies of products outside the database.
// Callers that write inside a transaction invalidate again after commit: a lookup running
// before the commit may have cached the old row.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, ids ...int64)
}

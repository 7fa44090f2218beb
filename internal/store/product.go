package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/spoilsapp/spoils-api/internal/domain"
)

// ProductStore defines the interface for product data persistence.
type ProductStore interface {
	// Upsert saves a product, updating the existing row when a product with
	// the same barcode is already cached. The existing row keeps its id on
	// update, and the stored id is written back into product.ID so callers
	// chaining follow-up work reference the persisted row.
	Upsert(ctx context.Context, product *domain.Product) error

	// GetByID retrieves a product by its unique ID.
	// Returns ErrProductNotFound if the product does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error)

	// GetByBarcode retrieves a product by its barcode.
	// Returns ErrProductNotFound if the product does not exist.
	GetByBarcode(ctx context.Context, barcode string) (*domain.Product, error)

	// SetIngredients records the top-level ingredient ids resolved from the
	// product's ingredient statement.
	SetIngredients(ctx context.Context, id uuid.UUID, ingredientIDs []uuid.UUID) error

	// WithTx returns a new ProductStore instance that uses the provided
	// transaction. The transaction is created and managed by the caller.
	WithTx(tx *sql.Tx) ProductStore
}

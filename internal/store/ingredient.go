package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/spoilsapp/spoils-api/internal/domain"
)

// IngredientStore defines the interface for ingredient data persistence.
//
// The sub_ingredients/parent_ingredients relation forms a directed graph
// shared by all workers; every mutation here must be safe under concurrent
// resolution of the same names.
type IngredientStore interface {
	// CreateOrGet inserts a new ingredient, or returns the existing one when
	// an ingredient with the same normalized name is already stored. The
	// insert-or-fetch is atomic: two workers resolving the same name
	// concurrently observe a single row.
	CreateOrGet(ctx context.Context, ingredient *domain.Ingredient) (*domain.Ingredient, error)

	// GetByID retrieves an ingredient by its unique ID.
	// Returns ErrIngredientNotFound if the ingredient does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Ingredient, error)

	// GetByName retrieves an ingredient by its normalized name.
	// Returns ErrIngredientNotFound if the ingredient does not exist.
	GetByName(ctx context.Context, name string) (*domain.Ingredient, error)

	// LinkEdge adds child to parent's sub_ingredients and parent to child's
	// parent_ingredients. Both updates are idempotent: linking an already
	// present edge is a no-op.
	LinkEdge(ctx context.Context, parentID, childID uuid.UUID) error

	// ParentIDs returns the parent_ingredients set for the given ingredient.
	// Used by the resolver's ancestor walk for cycle detection.
	ParentIDs(ctx context.Context, id uuid.UUID) ([]uuid.UUID, error)

	// WithTx returns a new IngredientStore instance that uses the provided
	// transaction. The transaction is created and managed by the caller.
	WithTx(tx *sql.Tx) IngredientStore
}

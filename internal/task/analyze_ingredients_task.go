package task

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/spoilsapp/spoils-api/internal/ingredients"
	"github.com/spoilsapp/spoils-api/internal/store"
)

// ErrNilResolver is returned when a handler is constructed without a resolver.
var ErrNilResolver = errors.New("ingredient resolver cannot be nil")

// IngredientResolver materializes and links ingredient entities from
// extracted names.
type IngredientResolver interface {
	// ResolveForProduct resolves top-level names with no graph parent and
	// returns the resulting ingredient ids in input order.
	ResolveForProduct(ctx context.Context, names []string) ([]uuid.UUID, error)

	// ResolveForIngredient resolves names as components of the given parent
	// ingredient, linking edges where no cycle results.
	ResolveForIngredient(ctx context.Context, parentID uuid.UUID, names []string) ([]uuid.UUID, error)
}

// AnalyzeIngredientsPayload is the serialized parameter set of an
// analyze_ingredients task.
type AnalyzeIngredientsPayload struct {
	ProductID uuid.UUID `json:"product_id"`
}

// AnalyzeIngredientsHandler expands a cached product's ingredient statement
// into linked ingredient entities.
type AnalyzeIngredientsHandler struct {
	products store.ProductStore
	resolver IngredientResolver
	backoff  BackoffPolicy
	logger   *slog.Logger
}

// NewAnalyzeIngredientsHandler creates the analyze_ingredients handler.
func NewAnalyzeIngredientsHandler(
	products store.ProductStore,
	resolver IngredientResolver,
	logger *slog.Logger,
) (*AnalyzeIngredientsHandler, error) {
	if products == nil {
		return nil, ErrNilProductStore
	}
	if resolver == nil {
		return nil, ErrNilResolver
	}
	if logger == nil {
		return nil, ErrNilLogger
	}

	return &AnalyzeIngredientsHandler{
		products: products,
		resolver: resolver,
		backoff:  ExponentialBackoff{Base: 60 * time.Second, Max: time.Hour},
		logger:   logger.With("task_type", TypeAnalyzeIngredients),
	}, nil
}

func (h *AnalyzeIngredientsHandler) Type() string   { return TypeAnalyzeIngredients }
func (h *AnalyzeIngredientsHandler) IsUnique() bool { return true }
func (h *AnalyzeIngredientsHandler) MaxRetries() int { return 2 }
func (h *AnalyzeIngredientsHandler) Backoff(attempt int) time.Duration {
	return h.backoff.NextDelay(attempt)
}
func (h *AnalyzeIngredientsHandler) Schedule() string { return "" }

// Execute extracts the product's ingredient statement and resolves each
// name into an ingredient entity. A statement with no recognizable
// ingredient marker is a defined empty outcome, not a failure.
func (h *AnalyzeIngredientsHandler) Execute(ctx context.Context, payload json.RawMessage) error {
	var p AnalyzeIngredientsPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return fmt.Errorf("invalid analyze_ingredients payload: %w", err)
	}
	if p.ProductID == uuid.Nil {
		return errors.New("analyze_ingredients payload has empty product id")
	}

	logger := h.logger.With("product_id", p.ProductID)

	product, err := h.products.GetByID(ctx, p.ProductID)
	if err != nil {
		if store.IsNotFoundError(err) {
			return fmt.Errorf("product %s not found: %w", p.ProductID, err)
		}
		return Infra(fmt.Errorf("failed to load product %s: %w", p.ProductID, err))
	}

	names := ingredients.Extract(product.IngredientsText)
	logger.Info("extracted ingredient names", "count", len(names))

	ids, err := h.resolver.ResolveForProduct(ctx, names)
	if err != nil {
		return fmt.Errorf("failed to resolve ingredients for product %s: %w", p.ProductID, err)
	}

	if err := h.products.SetIngredients(ctx, product.ID, ids); err != nil {
		return Infra(fmt.Errorf("failed to record ingredients for product %s: %w", p.ProductID, err))
	}

	logger.Info("ingredient analysis completed", "ingredient_count", len(ids))
	return nil
}

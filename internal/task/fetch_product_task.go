package task

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/spoilsapp/spoils-api/internal/domain"
	"github.com/spoilsapp/spoils-api/internal/store"
)

// Common handler construction errors.
var (
	ErrNilCatalog      = errors.New("catalog client cannot be nil")
	ErrNilProductStore = errors.New("product store cannot be nil")
	ErrNilEnqueuer     = errors.New("enqueuer cannot be nil")
	ErrNilLogger       = errors.New("logger cannot be nil")
)

// CatalogClient fetches a product record from the external catalog.
type CatalogClient interface {
	// FetchProduct returns the catalog's view of the product with the given
	// barcode as a populated domain entity.
	FetchProduct(ctx context.Context, barcode string) (*domain.Product, error)
}

// FetchProductPayload is the serialized parameter set of a fetch_product task.
type FetchProductPayload struct {
	Barcode string `json:"barcode"`
}

// FetchProductHandler caches a catalog product locally and chains an
// ingredient analysis task for it.
type FetchProductHandler struct {
	catalog  CatalogClient
	products store.ProductStore
	enqueuer Enqueuer
	backoff  BackoffPolicy
	logger   *slog.Logger
}

// NewFetchProductHandler creates the fetch_product handler.
func NewFetchProductHandler(
	catalog CatalogClient,
	products store.ProductStore,
	enqueuer Enqueuer,
	logger *slog.Logger,
) (*FetchProductHandler, error) {
	if catalog == nil {
		return nil, ErrNilCatalog
	}
	if products == nil {
		return nil, ErrNilProductStore
	}
	if enqueuer == nil {
		return nil, ErrNilEnqueuer
	}
	if logger == nil {
		return nil, ErrNilLogger
	}

	return &FetchProductHandler{
		catalog:  catalog,
		products: products,
		enqueuer: enqueuer,
		backoff:  ExponentialBackoff{Base: 60 * time.Second, Max: time.Hour},
		logger:   logger.With("task_type", TypeFetchProduct),
	}, nil
}

func (h *FetchProductHandler) Type() string                     { return TypeFetchProduct }
func (h *FetchProductHandler) IsUnique() bool                   { return true }
func (h *FetchProductHandler) MaxRetries() int                  { return 3 }
func (h *FetchProductHandler) Backoff(attempt int) time.Duration { return h.backoff.NextDelay(attempt) }
func (h *FetchProductHandler) Schedule() string                 { return "" }

// Execute fetches the product from the catalog, upserts the local cache
// row, and enqueues ingredient analysis.
func (h *FetchProductHandler) Execute(ctx context.Context, payload json.RawMessage) error {
	var p FetchProductPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return fmt.Errorf("invalid fetch_product payload: %w", err)
	}
	if p.Barcode == "" {
		return errors.New("fetch_product payload has empty barcode")
	}

	logger := h.logger.With("barcode", p.Barcode)
	logger.Info("fetching product from catalog")

	product, err := h.catalog.FetchProduct(ctx, p.Barcode)
	if err != nil {
		return fmt.Errorf("failed to fetch product %s: %w", p.Barcode, err)
	}

	if err := h.products.Upsert(ctx, product); err != nil {
		return Infra(fmt.Errorf("failed to store product %s: %w", p.Barcode, err))
	}

	logger.Info("product cached", "product_id", product.ID)

	_, err = h.enqueuer.Enqueue(ctx, TypeAnalyzeIngredients, AnalyzeIngredientsPayload{
		ProductID: product.ID,
	})
	if err != nil && !errors.Is(err, ErrDuplicateTask) {
		return Infra(fmt.Errorf("failed to enqueue ingredient analysis for product %s: %w", product.ID, err))
	}

	return nil
}

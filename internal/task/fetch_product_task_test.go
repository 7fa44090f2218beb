package task

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spoilsapp/spoils-api/internal/domain"
	"github.com/spoilsapp/spoils-api/internal/store"
)

// fakeCatalog serves canned products by barcode.
type fakeCatalog struct {
	products map[string]*domain.Product
	err      error
}

func (c *fakeCatalog) FetchProduct(_ context.Context, barcode string) (*domain.Product, error) {
	if c.err != nil {
		return nil, c.err
	}
	if p, ok := c.products[barcode]; ok {
		return p, nil
	}
	return nil, errors.New("not in catalog")
}

// fakeProductStore is a minimal in-memory ProductStore for handler tests.
type fakeProductStore struct {
	byID        map[uuid.UUID]*domain.Product
	upsertErr   error
	setErr      error
	ingredients map[uuid.UUID][]uuid.UUID
}

func newFakeProductStore() *fakeProductStore {
	return &fakeProductStore{
		byID:        make(map[uuid.UUID]*domain.Product),
		ingredients: make(map[uuid.UUID][]uuid.UUID),
	}
}

func (s *fakeProductStore) Upsert(_ context.Context, p *domain.Product) error {
	if s.upsertErr != nil {
		return s.upsertErr
	}
	// Mirrors the Postgres store: a barcode conflict keeps the existing
	// row's id and reports it back through p.ID.
	for _, existing := range s.byID {
		if existing.Barcode == p.Barcode {
			p.ID = existing.ID
			break
		}
	}
	s.byID[p.ID] = p
	return nil
}

func (s *fakeProductStore) GetByID(_ context.Context, id uuid.UUID) (*domain.Product, error) {
	if p, ok := s.byID[id]; ok {
		return p, nil
	}
	return nil, store.ErrProductNotFound
}

func (s *fakeProductStore) GetByBarcode(_ context.Context, barcode string) (*domain.Product, error) {
	for _, p := range s.byID {
		if p.Barcode == barcode {
			return p, nil
		}
	}
	return nil, store.ErrProductNotFound
}

func (s *fakeProductStore) SetIngredients(_ context.Context, id uuid.UUID, ids []uuid.UUID) error {
	if s.setErr != nil {
		return s.setErr
	}
	if _, ok := s.byID[id]; !ok {
		return store.ErrProductNotFound
	}
	s.ingredients[id] = ids
	return nil
}

func (s *fakeProductStore) WithTx(_ *sql.Tx) store.ProductStore { return s }

func mustProduct(t *testing.T, barcode string) *domain.Product {
	t.Helper()
	p, err := domain.NewProduct(barcode)
	require.NoError(t, err)
	return p
}

func TestFetchProductHandlerConstructorValidation(t *testing.T) {
	t.Parallel()

	catalog := &fakeCatalog{}
	products := newFakeProductStore()
	enq := &stubTaskEnqueuer{}
	logger := discardLogger()

	_, err := NewFetchProductHandler(nil, products, enq, logger)
	assert.ErrorIs(t, err, ErrNilCatalog)
	_, err = NewFetchProductHandler(catalog, nil, enq, logger)
	assert.ErrorIs(t, err, ErrNilProductStore)
	_, err = NewFetchProductHandler(catalog, products, nil, logger)
	assert.ErrorIs(t, err, ErrNilEnqueuer)
	_, err = NewFetchProductHandler(catalog, products, enq, nil)
	assert.ErrorIs(t, err, ErrNilLogger)
}

// stubTaskEnqueuer records enqueued follow-up tasks.
type stubTaskEnqueuer struct {
	types     []string
	payloads  []any
	returnErr error
}

func (s *stubTaskEnqueuer) Enqueue(_ context.Context, typeTag string, payload any) (uuid.UUID, error) {
	s.types = append(s.types, typeTag)
	s.payloads = append(s.payloads, payload)
	if s.returnErr != nil {
		return uuid.Nil, s.returnErr
	}
	return uuid.New(), nil
}

func TestFetchProductHandlerExecute(t *testing.T) {
	t.Parallel()

	t.Run("caches product and chains analysis", func(t *testing.T) {
		t.Parallel()

		product := mustProduct(t, "0123456789012")
		catalog := &fakeCatalog{products: map[string]*domain.Product{product.Barcode: product}}
		products := newFakeProductStore()
		enq := &stubTaskEnqueuer{}

		h, err := NewFetchProductHandler(catalog, products, enq, discardLogger())
		require.NoError(t, err)

		payload, err := json.Marshal(FetchProductPayload{Barcode: product.Barcode})
		require.NoError(t, err)
		require.NoError(t, h.Execute(context.Background(), payload))

		assert.Contains(t, products.byID, product.ID)
		require.Equal(t, []string{TypeAnalyzeIngredients}, enq.types)
		assert.Equal(t, AnalyzeIngredientsPayload{ProductID: product.ID}, enq.payloads[0])
	})

	t.Run("re-fetch chains analysis with the stored row id", func(t *testing.T) {
		t.Parallel()

		first := mustProduct(t, "5901234123457")
		catalog := &fakeCatalog{products: map[string]*domain.Product{first.Barcode: first}}
		products := newFakeProductStore()
		enq := &stubTaskEnqueuer{}

		h, err := NewFetchProductHandler(catalog, products, enq, discardLogger())
		require.NoError(t, err)

		payload, err := json.Marshal(FetchProductPayload{Barcode: first.Barcode})
		require.NoError(t, err)
		require.NoError(t, h.Execute(context.Background(), payload))

		storedID := enq.payloads[0].(AnalyzeIngredientsPayload).ProductID

		// A later fetch of the same barcode yields a fresh catalog entity
		// with a new in-memory id; the chained analysis must still point
		// at the cached row.
		catalog.products[first.Barcode] = mustProduct(t, first.Barcode)
		require.NoError(t, h.Execute(context.Background(), payload))

		require.Len(t, enq.payloads, 2)
		chained := enq.payloads[1].(AnalyzeIngredientsPayload)
		assert.Equal(t, storedID, chained.ProductID)

		_, err = products.GetByID(context.Background(), chained.ProductID)
		assert.NoError(t, err, "chained analysis must reference an existing row")
	})

	t.Run("duplicate analysis task is success", func(t *testing.T) {
		t.Parallel()

		product := mustProduct(t, "42")
		catalog := &fakeCatalog{products: map[string]*domain.Product{product.Barcode: product}}
		enq := &stubTaskEnqueuer{returnErr: &DuplicateTaskError{ExistingID: uuid.New()}}

		h, err := NewFetchProductHandler(catalog, newFakeProductStore(), enq, discardLogger())
		require.NoError(t, err)

		payload, _ := json.Marshal(FetchProductPayload{Barcode: product.Barcode})
		assert.NoError(t, h.Execute(context.Background(), payload))
	})

	t.Run("catalog failure is a retryable logic error", func(t *testing.T) {
		t.Parallel()

		catalog := &fakeCatalog{err: errors.New("catalog down")}
		h, err := NewFetchProductHandler(catalog, newFakeProductStore(), &stubTaskEnqueuer{}, discardLogger())
		require.NoError(t, err)

		payload, _ := json.Marshal(FetchProductPayload{Barcode: "42"})
		execErr := h.Execute(context.Background(), payload)
		require.Error(t, execErr)
		assert.False(t, IsInfrastructure(execErr))
	})

	t.Run("store failure is infrastructure", func(t *testing.T) {
		t.Parallel()

		product := mustProduct(t, "42")
		catalog := &fakeCatalog{products: map[string]*domain.Product{product.Barcode: product}}
		products := newFakeProductStore()
		products.upsertErr = errors.New("connection refused")

		h, err := NewFetchProductHandler(catalog, products, &stubTaskEnqueuer{}, discardLogger())
		require.NoError(t, err)

		payload, _ := json.Marshal(FetchProductPayload{Barcode: "42"})
		execErr := h.Execute(context.Background(), payload)
		require.Error(t, execErr)
		assert.True(t, IsInfrastructure(execErr))
	})

	t.Run("empty barcode rejected", func(t *testing.T) {
		t.Parallel()

		h, err := NewFetchProductHandler(&fakeCatalog{}, newFakeProductStore(), &stubTaskEnqueuer{}, discardLogger())
		require.NoError(t, err)

		assert.Error(t, h.Execute(context.Background(), json.RawMessage(`{"barcode":""}`)))
		assert.Error(t, h.Execute(context.Background(), json.RawMessage(`{`)))
	})
}

func TestFetchProductHandlerMetadata(t *testing.T) {
	t.Parallel()

	h, err := NewFetchProductHandler(&fakeCatalog{}, newFakeProductStore(), &stubTaskEnqueuer{}, discardLogger())
	require.NoError(t, err)

	assert.Equal(t, TypeFetchProduct, h.Type())
	assert.True(t, h.IsUnique())
	assert.Equal(t, 3, h.MaxRetries())
	assert.Empty(t, h.Schedule())
	assert.Equal(t, 60.0, h.Backoff(1).Seconds())
	assert.Equal(t, 120.0, h.Backoff(2).Seconds())
}

package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/spoilsapp/spoils-api/internal/api/shared"
	"github.com/spoilsapp/spoils-api/internal/events"
	"github.com/spoilsapp/spoils-api/internal/store"
	"github.com/spoilsapp/spoils-api/internal/task"
)

// ProductHandler serves the cached product catalog. A miss schedules a
// catalog fetch through the event emitter and tells the client to retry.
type ProductHandler struct {
	products store.ProductStore
	emitter  events.EventEmitter
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(products store.ProductStore, emitter events.EventEmitter) *ProductHandler {
	return &ProductHandler{
		products: products,
		emitter:  emitter,
	}
}

// GetProduct handles GET /api/products/{barcode} requests.
func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	barcode := chi.URLParam(r, "barcode")
	if barcode == "" {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Missing barcode")
		return
	}

	product, err := h.products.GetByBarcode(r.Context(), barcode)
	if err != nil {
		if store.IsNotFoundError(err) {
			h.scheduleFetch(r, barcode)
			shared.RespondWithJSON(w, r, http.StatusAccepted, JobAcceptedResponse{
				Duplicate: false,
			})
			return
		}
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError,
			"Failed to load product", err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, productToResponse(product))
}

// scheduleFetch emits a fetch_product event for the barcode. Emission
// failures are logged, not surfaced: the client already gets the retry
// response either way.
func (h *ProductHandler) scheduleFetch(r *http.Request, barcode string) {
	event, err := events.NewTaskRequestEvent(task.TypeFetchProduct, task.FetchProductPayload{
		Barcode: barcode,
	})
	if err != nil {
		slog.Error("failed to build fetch event", "error", err, "barcode", barcode)
		return
	}
	if err := h.emitter.EmitEvent(r.Context(), event); err != nil {
		slog.Error("failed to emit fetch event", "error", err, "barcode", barcode)
	}
}

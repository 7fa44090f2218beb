package openfoodfacts

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(server.URL, 5*time.Second, testLogger())
	require.NoError(t, err)
	return client
}

func TestNewClientValidation(t *testing.T) {
	_, err := NewClient("", time.Second, nil)
	assert.ErrorIs(t, err, ErrNilLogger)

	client, err := NewClient("", 0, testLogger())
	require.NoError(t, err)
	assert.Equal(t, DefaultBaseURL, client.baseURL)
	assert.Equal(t, 30*time.Second, client.httpClient.Timeout)
}

func TestFetchProductMapsFields(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v2/product/0123456789012", r.URL.Path)
		fmt.Fprint(w, `{
			"status": 1,
			"product": {
				"product_name": "Oat Crunch",
				"brands": "Grainworks",
				"categories": "Cereals",
				"quantity": "500 g",
				"image_url": "https://images.example/oat.jpg",
				"nutriscore_grade": "b",
				"nova_group": 3,
				"ecoscore_grade": "c",
				"ingredients_text": "Ingredients: Oats, Sugar, Salt.",
				"allergens": "en:gluten"
			}
		}`)
	})

	product, err := client.FetchProduct(context.Background(), "0123456789012")
	require.NoError(t, err)

	assert.Equal(t, "0123456789012", product.Barcode)
	assert.Equal(t, "Oat Crunch", product.ProductName)
	assert.Equal(t, "Grainworks", product.Brands)
	assert.Equal(t, "Cereals", product.Categories)
	assert.Equal(t, "500 g", product.Quantity)
	assert.Equal(t, "b", product.NutriscoreGrade)
	require.NotNil(t, product.NovaGroup)
	assert.Equal(t, 3, *product.NovaGroup)
	assert.Equal(t, "c", product.EcoscoreGrade)
	assert.Equal(t, "Ingredients: Oats, Sugar, Salt.", product.IngredientsText)
	assert.Equal(t, "en:gluten", product.Allergens)

	var full map[string]interface{}
	require.NoError(t, json.Unmarshal(product.FullResponse, &full))
	assert.Equal(t, "Oat Crunch", full["product_name"])
}

func TestFetchProductNotFoundStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status": 0, "status_verbose": "product not found"}`)
	})

	_, err := client.FetchProduct(context.Background(), "999")
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestFetchProductHTTPNotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := client.FetchProduct(context.Background(), "999")
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestFetchProductServerError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := client.FetchProduct(context.Background(), "0123456789012")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrProductNotFound)
}

func TestFetchProductMalformedBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status": `)
	})

	_, err := client.FetchProduct(context.Background(), "0123456789012")
	assert.Error(t, err)
}

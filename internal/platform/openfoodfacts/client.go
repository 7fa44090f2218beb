package openfoodfacts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/spoilsapp/spoils-api/internal/domain"
)

// DefaultBaseURL is the public Open Food Facts API root.
const DefaultBaseURL = "https://world.openfoodfacts.org"

// maxResponseBytes caps how much of a catalog response is read. Product
// payloads run tens of kilobytes; anything beyond this is malformed.
const maxResponseBytes = 4 << 20

// Client errors.
var (
	ErrProductNotFound = errors.New("product not found in catalog")
	ErrNilHTTPClient   = errors.New("http client cannot be nil")
	ErrNilLogger       = errors.New("logger cannot be nil")
)

// Client queries the Open Food Facts v2 product API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a catalog client. An empty baseURL selects the public
// API; a zero timeout defaults to 30 seconds.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		return nil, ErrNilLogger
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.With("component", "openfoodfacts_client"),
	}, nil
}

// productResponse is the envelope the v2 API wraps products in. Status 1
// means found; the product document itself is schema-less.
type productResponse struct {
	Status  int             `json:"status"`
	Product json.RawMessage `json:"product"`
}

// FetchProduct retrieves the catalog record for a barcode and maps it onto
// a domain Product. Returns ErrProductNotFound when the catalog has no
// entry for the barcode.
func (c *Client) FetchProduct(ctx context.Context, barcode string) (*domain.Product, error) {
	url := fmt.Sprintf("%s/api/v2/product/%s", c.baseURL, barcode)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building catalog request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("querying catalog for %s: %w", barcode, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrProductNotFound, barcode)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("catalog returned status %d for %s", resp.StatusCode, barcode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("reading catalog response for %s: %w", barcode, err)
	}

	var envelope productResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("parsing catalog response for %s: %w", barcode, err)
	}
	if envelope.Status != 1 || len(envelope.Product) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrProductNotFound, barcode)
	}

	product, err := mapProduct(barcode, envelope.Product)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("fetched catalog product",
		"barcode", barcode,
		"product_name", product.ProductName)
	return product, nil
}

// productFields are the keys extracted from the catalog document. The
// document holds hundreds of keys; everything else stays in FullResponse.
type productFields struct {
	ProductName     string   `json:"product_name"`
	Brands          string   `json:"brands"`
	Categories      string   `json:"categories"`
	Quantity        string   `json:"quantity"`
	ImageURL        string   `json:"image_url"`
	NutriscoreGrade string   `json:"nutriscore_grade"`
	NovaGroup       *float64 `json:"nova_group"`
	EcoscoreGrade   string   `json:"ecoscore_grade"`
	IngredientsText string   `json:"ingredients_text"`
	Allergens       string   `json:"allergens"`
}

func mapProduct(barcode string, raw json.RawMessage) (*domain.Product, error) {
	var fields productFields
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("parsing catalog product %s: %w", barcode, err)
	}

	product, err := domain.NewProduct(barcode)
	if err != nil {
		return nil, err
	}

	product.ProductName = fields.ProductName
	product.Brands = fields.Brands
	product.Categories = fields.Categories
	product.Quantity = fields.Quantity
	product.ImageURL = fields.ImageURL
	product.NutriscoreGrade = fields.NutriscoreGrade
	product.EcoscoreGrade = fields.EcoscoreGrade
	product.IngredientsText = fields.IngredientsText
	product.Allergens = fields.Allergens
	product.FullResponse = raw
	if fields.NovaGroup != nil {
		group := int(*fields.NovaGroup)
		product.NovaGroup = &group
	}

	return product, nil
}

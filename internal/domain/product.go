package domain

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Common validation errors for Product
var (
	ErrEmptyProductID      = errors.New("product ID cannot be empty")
	ErrEmptyProductBarcode = errors.New("product barcode cannot be empty")
)

// Product represents a catalog product cached from the external food
// database, keyed by barcode. Most descriptive fields are optional since
// catalog coverage varies per product.
type Product struct {
	ID              uuid.UUID       `json:"id"`
	Barcode         string          `json:"barcode"`
	ProductName     string          `json:"product_name,omitempty"`
	Brands          string          `json:"brands,omitempty"`
	Categories      string          `json:"categories,omitempty"`
	Quantity        string          `json:"quantity,omitempty"`
	ImageURL        string          `json:"image_url,omitempty"`
	NutriscoreGrade string          `json:"nutriscore_grade,omitempty"`
	NovaGroup       *int            `json:"nova_group,omitempty"`
	EcoscoreGrade   string          `json:"ecoscore_grade,omitempty"`
	IngredientsText string          `json:"ingredients_text,omitempty"`
	Allergens       string          `json:"allergens,omitempty"`
	FullResponse    json.RawMessage `json:"full_response"`

	// Ingredients holds the ids of the top-level ingredients resolved from
	// IngredientsText. Empty until ingredient analysis has run.
	Ingredients []uuid.UUID `json:"ingredients"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewProduct creates a new Product for the given barcode.
// Returns an error if validation fails.
func NewProduct(barcode string) (*Product, error) {
	now := time.Now().UTC()
	p := &Product{
		ID:        uuid.New(),
		Barcode:   barcode,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}

	return p, nil
}

// Validate checks if the Product has valid data.
func (p *Product) Validate() error {
	if p.ID == uuid.Nil {
		return ErrEmptyProductID
	}

	if p.Barcode == "" {
		return ErrEmptyProductBarcode
	}

	return nil
}

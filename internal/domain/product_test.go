package domain

import (
	"testing"

	"github.com/google/uuid"
)

func TestNewProduct(t *testing.T) {
	t.Parallel()

	p, err := NewProduct("737628064502")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if p.ID == uuid.Nil {
		t.Error("Expected non-nil UUID, got nil UUID")
	}

	if p.Barcode != "737628064502" {
		t.Errorf("Expected barcode %q, got %q", "737628064502", p.Barcode)
	}

	if p.CreatedAt.IsZero() || p.UpdatedAt.IsZero() {
		t.Error("Expected non-zero timestamps")
	}

	_, err = NewProduct("")
	if err != ErrEmptyProductBarcode {
		t.Errorf("Expected error %v, got %v", ErrEmptyProductBarcode, err)
	}
}

func TestProductValidate(t *testing.T) {
	t.Parallel()

	valid := Product{ID: uuid.New(), Barcode: "123"}
	if err := valid.Validate(); err != nil {
		t.Errorf("Expected valid product, got error %v", err)
	}

	missingID := Product{Barcode: "123"}
	if err := missingID.Validate(); err != ErrEmptyProductID {
		t.Errorf("Expected error %v, got %v", ErrEmptyProductID, err)
	}
}

package api

import (
	"encoding/json"
	"time"

	"github.com/spoilsapp/spoils-api/internal/domain"
	"github.com/spoilsapp/spoils-api/internal/task"
)

// FetchProductRequest represents the request body for scheduling a catalog fetch.
type FetchProductRequest struct {
	Barcode string `json:"barcode" validate:"required,min=4,max=64"`
}

// AnalyzeIngredientsRequest represents the request body for scheduling
// ingredient analysis of a cached product.
type AnalyzeIngredientsRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
}

// JobAcceptedResponse is returned when a job has been scheduled, or when an
// equivalent job was already pending.
type JobAcceptedResponse struct {
	TaskID    string `json:"task_id,omitempty"`
	Duplicate bool   `json:"duplicate"`
}

// JobResponse represents the stored state of a single job.
type JobResponse struct {
	ID           string          `json:"id"`
	Type         string          `json:"type"`
	State        string          `json:"state"`
	Payload      json.RawMessage `json:"payload"`
	RetryCount   int             `json:"retry_count"`
	ScheduledAt  time.Time       `json:"scheduled_at"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
	ErrorMessage string          `json:"error_message,omitempty"`
}

// JobStatusResponse aggregates queue counts per state.
type JobStatusResponse struct {
	Counts map[string]int `json:"counts"`
}

// ProductResponse represents the cached catalog view of a product.
type ProductResponse struct {
	ID              string    `json:"id"`
	Barcode         string    `json:"barcode"`
	ProductName     string    `json:"product_name,omitempty"`
	Brands          string    `json:"brands,omitempty"`
	Categories      string    `json:"categories,omitempty"`
	Quantity        string    `json:"quantity,omitempty"`
	ImageURL        string    `json:"image_url,omitempty"`
	NutriscoreGrade string    `json:"nutriscore_grade,omitempty"`
	NovaGroup       *int      `json:"nova_group,omitempty"`
	EcoscoreGrade   string    `json:"ecoscore_grade,omitempty"`
	IngredientsText string    `json:"ingredients_text,omitempty"`
	Allergens       string    `json:"allergens,omitempty"`
	Ingredients     []string  `json:"ingredients"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func taskToResponse(t *task.Task) JobResponse {
	return JobResponse{
		ID:           t.ID.String(),
		Type:         t.Type,
		State:        string(t.State),
		Payload:      t.Payload,
		RetryCount:   t.RetryCount,
		ScheduledAt:  t.ScheduledAt,
		CreatedAt:    t.CreatedAt,
		UpdatedAt:    t.UpdatedAt,
		ErrorMessage: t.ErrorMessage,
	}
}

func productToResponse(p *domain.Product) ProductResponse {
	ingredients := make([]string, len(p.Ingredients))
	for i, id := range p.Ingredients {
		ingredients[i] = id.String()
	}
	return ProductResponse{
		ID:              p.ID.String(),
		Barcode:         p.Barcode,
		ProductName:     p.ProductName,
		Brands:          p.Brands,
		Categories:      p.Categories,
		Quantity:        p.Quantity,
		ImageURL:        p.ImageURL,
		NutriscoreGrade: p.NutriscoreGrade,
		NovaGroup:       p.NovaGroup,
		EcoscoreGrade:   p.EcoscoreGrade,
		IngredientsText: p.IngredientsText,
		Allergens:       p.Allergens,
		Ingredients:     ingredients,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
}

package domain

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Common validation errors for Ingredient
var (
	ErrEmptyIngredientID    = errors.New("ingredient ID cannot be empty")
	ErrEmptyIngredientName  = errors.New("ingredient name cannot be empty")
	ErrIngredientSelfEdge   = errors.New("ingredient cannot contain itself")
	ErrUnknownAttributeKind = errors.New("unknown ingredient attribute category")
)

// AttributeCategory tags a structured attribute group on an ingredient.
// The payloads themselves are opaque to this package.
type AttributeCategory string

// Attribute categories tracked per ingredient.
const (
	AttrVitamins              AttributeCategory = "vitamins"
	AttrMinerals              AttributeCategory = "minerals"
	AttrEssentialFattyAcids   AttributeCategory = "essential_fatty_acids"
	AttrEssentialAminoAcids   AttributeCategory = "essential_amino_acids"
	AttrHeavyMetals           AttributeCategory = "heavy_metals"
	AttrMicroPlastics         AttributeCategory = "micro_plastics"
	AttrIndustrialChemicals   AttributeCategory = "industrial_chemicals"
	AttrPesticides            AttributeCategory = "pesticides"
	AttrHormones              AttributeCategory = "hormones"
	AttrAntibiotics           AttributeCategory = "antibiotics"
	AttrBetaAgonists          AttributeCategory = "beta_agonists"
	AttrAntiparasitics        AttributeCategory = "antiparasitics"
	AttrCarcinogens           AttributeCategory = "carcinogens"
	AttrNaturalToxins         AttributeCategory = "natural_toxins"
	AttrRadiological          AttributeCategory = "radiological"
	AttrHistoricalIssues      AttributeCategory = "historical_issues"
	AttrFraudulentIngredients AttributeCategory = "fraudulent_ingredients"
	AttrDyes                  AttributeCategory = "dyes"
	AttrEmulsifiers           AttributeCategory = "emulsifiers"
	AttrPreservatives         AttributeCategory = "preservatives"
)

// Macros holds per-gram macronutrient values. All fields are optional;
// nil means the value is unknown rather than zero.
type Macros struct {
	ProteinPerGram  *float64 `json:"gram_protein_per_gram,omitempty"`
	CarbsPerGram    *float64 `json:"gram_carbs_per_gram,omitempty"`
	FatPerGram      *float64 `json:"gram_fat_per_gram,omitempty"`
	TransFatPerGram *float64 `json:"gram_trans_fat_per_gram,omitempty"`
	FiberPerGram    *float64 `json:"gram_fiber_per_gram,omitempty"`
}

// Ingredient represents a named substance or composite product component.
// Composite ("branded") entries decompose into further ingredients; the
// SubIngredients/ParentIngredients relation must remain acyclic, which the
// resolver enforces before linking any edge.
type Ingredient struct {
	ID                uuid.UUID                             `json:"id"`
	Name              string                                `json:"name"`
	Branded           bool                                  `json:"branded"`
	SubIngredients    []uuid.UUID                           `json:"sub_ingredients"`
	ParentIngredients []uuid.UUID                           `json:"parent_ingredients"`
	Macros            Macros                                `json:"macros"`
	Attributes        map[AttributeCategory]json.RawMessage `json:"attributes,omitempty"`
	CreatedAt         time.Time                             `json:"created_at"`
	UpdatedAt         time.Time                             `json:"updated_at"`
}

// NormalizeIngredientName produces the canonical form an ingredient is
// stored and looked up under: case-folded and trimmed.
func NormalizeIngredientName(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// NewIngredient creates a new Ingredient with the given display name,
// normalizing it first. Returns an error if validation fails.
func NewIngredient(name string, branded bool) (*Ingredient, error) {
	now := time.Now().UTC()
	ing := &Ingredient{
		ID:        uuid.New(),
		Name:      NormalizeIngredientName(name),
		Branded:   branded,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := ing.Validate(); err != nil {
		return nil, err
	}

	return ing, nil
}

// Validate checks if the Ingredient has valid data.
func (i *Ingredient) Validate() error {
	if i.ID == uuid.Nil {
		return ErrEmptyIngredientID
	}

	if i.Name == "" {
		return ErrEmptyIngredientName
	}

	for _, sub := range i.SubIngredients {
		if sub == i.ID {
			return ErrIngredientSelfEdge
		}
	}

	return nil
}

// HasSubIngredient reports whether the given id is already linked as a
// component of this ingredient.
func (i *Ingredient) HasSubIngredient(id uuid.UUID) bool {
	for _, sub := range i.SubIngredients {
		if sub == id {
			return true
		}
	}
	return false
}

// Expanded reports whether a composite entry has already been decomposed
// into sub-ingredients. Atomic substances are always considered expanded.
func (i *Ingredient) Expanded() bool {
	if !i.Branded {
		return true
	}
	return len(i.SubIngredients) > 0
}

package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/spoilsapp/spoils-api/internal/domain"
	"github.com/spoilsapp/spoils-api/internal/platform/logger"
	"github.com/spoilsapp/spoils-api/internal/store"
)

// PostgresIngredientStore implements the store.IngredientStore interface
// using a PostgreSQL database as the storage backend.
type PostgresIngredientStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresIngredientStore creates a new PostgreSQL implementation of the
// IngredientStore interface. If logger is nil, a default logger will be used.
func NewPostgresIngredientStore(db store.DBTX, logger *slog.Logger) *PostgresIngredientStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresIngredientStore{
		db:     db,
		logger: logger.With(slog.String("component", "ingredient_store")),
	}
}

// Ensure PostgresIngredientStore implements store.IngredientStore interface
var _ store.IngredientStore = (*PostgresIngredientStore)(nil)

// WithTx implements store.IngredientStore.WithTx
func (s *PostgresIngredientStore) WithTx(tx *sql.Tx) store.IngredientStore {
	return &PostgresIngredientStore{
		db:     tx,
		logger: s.logger,
	}
}

const ingredientColumns = `id, name, branded, sub_ingredients, parent_ingredients,
	gram_protein_per_gram, gram_carbs_per_gram, gram_fat_per_gram,
	gram_trans_fat_per_gram, gram_fiber_per_gram, attributes,
	created_at, updated_at`

// CreateOrGet implements store.IngredientStore.CreateOrGet. The insert
// lands on the unique name index; on conflict the existing row is returned
// in the same statement, so concurrent resolvers of one name converge on a
// single row without a retry loop.
func (s *PostgresIngredientStore) CreateOrGet(ctx context.Context, ingredient *domain.Ingredient) (*domain.Ingredient, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := ingredient.Validate(); err != nil {
		log.Warn("ingredient validation failed during create",
			slog.String("error", err.Error()),
			slog.String("name", ingredient.Name))
		return nil, err
	}

	attrs, err := marshalAttributes(ingredient.Attributes)
	if err != nil {
		return nil, fmt.Errorf("failed to encode ingredient attributes: %w", err)
	}

	// DO UPDATE instead of DO NOTHING so RETURNING always yields a row.
	// The no-op assignment does not change the existing record.
	query := `
		INSERT INTO ingredients (id, name, branded, sub_ingredients,
			parent_ingredients, gram_protein_per_gram, gram_carbs_per_gram,
			gram_fat_per_gram, gram_trans_fat_per_gram, gram_fiber_per_gram,
			attributes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING ` + ingredientColumns

	row := s.db.QueryRowContext(ctx, query,
		ingredient.ID,
		ingredient.Name,
		ingredient.Branded,
		uuidArray(ingredient.SubIngredients),
		uuidArray(ingredient.ParentIngredients),
		ingredient.Macros.ProteinPerGram,
		ingredient.Macros.CarbsPerGram,
		ingredient.Macros.FatPerGram,
		ingredient.Macros.TransFatPerGram,
		ingredient.Macros.FiberPerGram,
		attrs,
		ingredient.CreatedAt,
		ingredient.UpdatedAt,
	)

	stored, err := scanIngredient(row)
	if err != nil {
		log.Error("failed to create or get ingredient",
			slog.String("error", err.Error()),
			slog.String("name", ingredient.Name))
		return nil, MapError(err)
	}
	return stored, nil
}

// GetByID implements store.IngredientStore.GetByID
func (s *PostgresIngredientStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Ingredient, error) {
	query := `SELECT ` + ingredientColumns + ` FROM ingredients WHERE id = $1`

	stored, err := scanIngredient(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrIngredientNotFound
		}
		return nil, fmt.Errorf("failed to get ingredient: %w", MapError(err))
	}
	return stored, nil
}

// GetByName implements store.IngredientStore.GetByName
func (s *PostgresIngredientStore) GetByName(ctx context.Context, name string) (*domain.Ingredient, error) {
	query := `SELECT ` + ingredientColumns + ` FROM ingredients WHERE name = $1`

	stored, err := scanIngredient(s.db.QueryRowContext(ctx, query, domain.NormalizeIngredientName(name)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrIngredientNotFound
		}
		return nil, fmt.Errorf("failed to get ingredient: %w", MapError(err))
	}
	return stored, nil
}

// LinkEdge implements store.IngredientStore.LinkEdge. Each side of the edge
// appends only when the id is absent, making the operation idempotent under
// concurrent resolution. Both directions are written in one transaction so
// the graph never holds a half-linked edge.
func (s *PostgresIngredientStore) LinkEdge(ctx context.Context, parentID, childID uuid.UUID) error {
	if db, ok := s.db.(*sql.DB); ok {
		return store.RunInTransaction(ctx, db, func(ctx context.Context, tx *sql.Tx) error {
			return s.linkEdge(ctx, tx, parentID, childID)
		})
	}
	// Already inside a caller-owned transaction.
	return s.linkEdge(ctx, s.db, parentID, childID)
}

func (s *PostgresIngredientStore) linkEdge(ctx context.Context, db store.DBTX, parentID, childID uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	parentQuery := `
		UPDATE ingredients
		SET sub_ingredients = array_append(sub_ingredients, $2), updated_at = now()
		WHERE id = $1 AND NOT ($2 = ANY(sub_ingredients))
	`
	if _, err := db.ExecContext(ctx, parentQuery, parentID, childID); err != nil {
		log.Error("failed to link sub-ingredient",
			slog.String("error", err.Error()),
			slog.String("parent_id", parentID.String()),
			slog.String("child_id", childID.String()))
		return MapError(err)
	}

	childQuery := `
		UPDATE ingredients
		SET parent_ingredients = array_append(parent_ingredients, $2), updated_at = now()
		WHERE id = $1 AND NOT ($2 = ANY(parent_ingredients))
	`
	if _, err := db.ExecContext(ctx, childQuery, childID, parentID); err != nil {
		log.Error("failed to link parent ingredient",
			slog.String("error", err.Error()),
			slog.String("parent_id", parentID.String()),
			slog.String("child_id", childID.String()))
		return MapError(err)
	}

	return nil
}

// ParentIDs implements store.IngredientStore.ParentIDs
func (s *PostgresIngredientStore) ParentIDs(ctx context.Context, id uuid.UUID) ([]uuid.UUID, error) {
	query := `SELECT parent_ingredients FROM ingredients WHERE id = $1`

	var parents uuidArray
	if err := s.db.QueryRowContext(ctx, query, id).Scan(&parents); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrIngredientNotFound
		}
		return nil, fmt.Errorf("failed to get parent ingredients: %w", MapError(err))
	}
	return parents, nil
}

func scanIngredient(row rowScanner) (*domain.Ingredient, error) {
	var ing domain.Ingredient
	var subs, parents uuidArray
	var attrs []byte

	err := row.Scan(
		&ing.ID,
		&ing.Name,
		&ing.Branded,
		&subs,
		&parents,
		&ing.Macros.ProteinPerGram,
		&ing.Macros.CarbsPerGram,
		&ing.Macros.FatPerGram,
		&ing.Macros.TransFatPerGram,
		&ing.Macros.FiberPerGram,
		&attrs,
		&ing.CreatedAt,
		&ing.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	ing.SubIngredients = subs
	ing.ParentIngredients = parents
	if len(attrs) > 0 {
		if err := json.Unmarshal(attrs, &ing.Attributes); err != nil {
			return nil, fmt.Errorf("failed to decode ingredient attributes: %w", err)
		}
	}
	return &ing, nil
}

func marshalAttributes(attrs map[domain.AttributeCategory]json.RawMessage) ([]byte, error) {
	// The attributes column is NOT NULL; an absent map is an empty object,
	// never SQL NULL.
	if len(attrs) == 0 {
		return []byte("{}"), nil
	}
	return json.Marshal(attrs)
}

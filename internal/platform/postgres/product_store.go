package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/spoilsapp/spoils-api/internal/domain"
	"github.com/spoilsapp/spoils-api/internal/platform/logger"
	"github.com/spoilsapp/spoils-api/internal/store"
)

// PostgresProductStore implements the store.ProductStore interface
// using a PostgreSQL database as the storage backend.
type PostgresProductStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresProductStore creates a new PostgreSQL implementation of the
// ProductStore interface. It accepts a database connection or transaction
// that should be initialized and managed by the caller. If logger is nil, a
// default logger will be used.
func NewPostgresProductStore(db store.DBTX, logger *slog.Logger) *PostgresProductStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresProductStore{
		db:     db,
		logger: logger.With(slog.String("component", "product_store")),
	}
}

// Ensure PostgresProductStore implements store.ProductStore interface
var _ store.ProductStore = (*PostgresProductStore)(nil)

// WithTx implements store.ProductStore.WithTx
func (s *PostgresProductStore) WithTx(tx *sql.Tx) store.ProductStore {
	return &PostgresProductStore{
		db:     tx,
		logger: s.logger,
	}
}

const productColumns = `id, barcode, product_name, brands, categories, quantity,
	image_url, nutriscore_grade, nova_group, ecoscore_grade, ingredients_text,
	allergens, full_response, ingredients, created_at, updated_at`

// Upsert implements store.ProductStore.Upsert. The conflict target is the
// barcode; on update the existing row keeps its id and resolved ingredient
// list so task payloads referencing the product stay valid. The stored row's
// id is written back into product.ID, so callers chaining follow-up work
// always reference the row that actually exists.
func (s *PostgresProductStore) Upsert(ctx context.Context, product *domain.Product) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := product.Validate(); err != nil {
		log.Warn("product validation failed during upsert",
			slog.String("error", err.Error()),
			slog.String("barcode", product.Barcode))
		return err
	}

	query := `
		INSERT INTO products (id, barcode, product_name, brands, categories,
			quantity, image_url, nutriscore_grade, nova_group, ecoscore_grade,
			ingredients_text, allergens, full_response, ingredients,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT (barcode) DO UPDATE SET
			product_name = EXCLUDED.product_name,
			brands = EXCLUDED.brands,
			categories = EXCLUDED.categories,
			quantity = EXCLUDED.quantity,
			image_url = EXCLUDED.image_url,
			nutriscore_grade = EXCLUDED.nutriscore_grade,
			nova_group = EXCLUDED.nova_group,
			ecoscore_grade = EXCLUDED.ecoscore_grade,
			ingredients_text = EXCLUDED.ingredients_text,
			allergens = EXCLUDED.allergens,
			full_response = EXCLUDED.full_response,
			updated_at = EXCLUDED.updated_at
		RETURNING id
	`

	err := s.db.QueryRowContext(ctx, query,
		product.ID,
		product.Barcode,
		nullString(product.ProductName),
		nullString(product.Brands),
		nullString(product.Categories),
		nullString(product.Quantity),
		nullString(product.ImageURL),
		nullString(product.NutriscoreGrade),
		product.NovaGroup,
		nullString(product.EcoscoreGrade),
		nullString(product.IngredientsText),
		nullString(product.Allergens),
		[]byte(product.FullResponse),
		uuidArray(product.Ingredients),
		product.CreatedAt,
		product.UpdatedAt,
	).Scan(&product.ID)
	if err != nil {
		log.Error("failed to upsert product",
			slog.String("error", err.Error()),
			slog.String("barcode", product.Barcode))
		return MapError(err)
	}

	log.Info("product upserted",
		slog.String("product_id", product.ID.String()),
		slog.String("barcode", product.Barcode))
	return nil
}

// GetByID implements store.ProductStore.GetByID
func (s *PostgresProductStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`
	return s.getOne(ctx, query, id)
}

// GetByBarcode implements store.ProductStore.GetByBarcode
func (s *PostgresProductStore) GetByBarcode(ctx context.Context, barcode string) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE barcode = $1`
	return s.getOne(ctx, query, barcode)
}

func (s *PostgresProductStore) getOne(ctx context.Context, query string, arg any) (*domain.Product, error) {
	var p domain.Product
	var productName, brands, categories, quantity sql.NullString
	var imageURL, nutriscoreGrade, ecoscoreGrade sql.NullString
	var ingredientsText, allergens sql.NullString
	var novaGroup sql.NullInt64
	var fullResponse []byte
	var ingredients uuidArray

	err := s.db.QueryRowContext(ctx, query, arg).Scan(
		&p.ID,
		&p.Barcode,
		&productName,
		&brands,
		&categories,
		&quantity,
		&imageURL,
		&nutriscoreGrade,
		&novaGroup,
		&ecoscoreGrade,
		&ingredientsText,
		&allergens,
		&fullResponse,
		&ingredients,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", MapError(err))
	}

	p.ProductName = productName.String
	p.Brands = brands.String
	p.Categories = categories.String
	p.Quantity = quantity.String
	p.ImageURL = imageURL.String
	p.NutriscoreGrade = nutriscoreGrade.String
	p.EcoscoreGrade = ecoscoreGrade.String
	p.IngredientsText = ingredientsText.String
	p.Allergens = allergens.String
	p.FullResponse = fullResponse
	p.Ingredients = ingredients
	if novaGroup.Valid {
		group := int(novaGroup.Int64)
		p.NovaGroup = &group
	}

	return &p, nil
}

// SetIngredients implements store.ProductStore.SetIngredients
func (s *PostgresProductStore) SetIngredients(ctx context.Context, id uuid.UUID, ingredientIDs []uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE products
		SET ingredients = $2, updated_at = now()
		WHERE id = $1
	`
	result, err := s.db.ExecContext(ctx, query, id, uuidArray(ingredientIDs))
	if err != nil {
		log.Error("failed to set product ingredients",
			slog.String("error", err.Error()),
			slog.String("product_id", id.String()))
		return MapError(err)
	}
	if err := CheckRowsAffected(result, "product"); err != nil {
		return store.ErrProductNotFound
	}

	log.Info("product ingredients updated",
		slog.String("product_id", id.String()),
		slog.Int("ingredient_count", len(ingredientIDs)))
	return nil
}

// nullString maps empty strings to NULL so optional catalog fields stay
// NULL in the database rather than empty text.
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

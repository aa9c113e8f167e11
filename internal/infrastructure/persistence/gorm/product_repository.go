package gorm

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/wellpack/engine/internal/domain/reference"
	"github.com/wellpack/engine/internal/ports/outbound"
)

// ProductRepository serves the product catalog from the products table
type ProductRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

var _ outbound.ProductCatalog = (*ProductRepository)(nil)

// NewProductRepository creates a new product repository
func NewProductRepository(db *gorm.DB, logger *zap.Logger) *ProductRepository {
	return &ProductRepository{db: db, logger: logger.Named("product-repository")}
}

// ListProducts returns active products in catalog order
func (r *ProductRepository) ListProducts(ctx context.Context) ([]outbound.Product, error) {
	var models []ProductModel
	err := r.db.WithContext(ctx).
		Where("active = ?", true).
		Order("sort_order ASC").
		Order("name ASC").
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	products := make([]outbound.Product, len(models))
	for i := range models {
		products[i] = ModelToProduct(&models[i])
	}
	return products, nil
}

// SeedFromCatalog inserts a product for every catalog item that has none.
// Existing rows are left untouched so prices edited in the database survive restarts.
func (r *ProductRepository) SeedFromCatalog(ctx context.Context, catalog *reference.Catalog) (int, error) {
	items := catalog.Items()
	if len(items) == 0 {
		return 0, nil
	}
	rows := make([]*ProductModel, len(items))
	for i, item := range items {
		rows[i] = CatalogItemToProduct(item, i)
	}

	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&rows)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to seed products: %w", result.Error)
	}

	r.logger.Info("Product catalog seeded",
		zap.Int("catalog_items", len(items)),
		zap.Int64("inserted", result.RowsAffected))
	return int(result.RowsAffected), nil
}

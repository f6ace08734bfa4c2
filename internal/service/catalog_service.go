package service

import (
	"context"
	"strings"

	"gamesup-server/internal/models"
	"gamesup-server/internal/store"
	"gamesup-server/internal/util"

	"go.uber.org/zap"
)

// CatalogService covers products, taxonomy and banners. Plain repository
// passthrough plus input normalization; all the interesting constraints live
// in the store.
type CatalogService struct {
	store  *store.Store
	logger *zap.Logger
}

// NewCatalogService creates a new catalog service.
func NewCatalogService(store *store.Store) *CatalogService {
	return &CatalogService{store: store, logger: util.GetLogger()}
}

// ListProducts retrieves products, optionally filtered by category slug and
// free-text search. "All" (any case) means no category filter.
func (cs *CatalogService) ListProducts(ctx context.Context, category, search string) ([]models.Product, error) {
	if strings.EqualFold(category, "all") {
		category = ""
	}
	return cs.store.ListProducts(ctx, store.ProductFilter{
		Category: strings.ToLower(category),
		Search:   search,
	})
}

// GetProduct retrieves one product with its credential pool.
func (cs *CatalogService) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	return cs.store.GetProductByID(ctx, id)
}

// CreateProduct inserts a product after normalizing its category slug.
func (cs *CatalogService) CreateProduct(ctx context.Context, product *models.Product) error {
	normalizeProduct(product)
	return cs.store.CreateProduct(ctx, product)
}

// UpdateProduct updates a product and replaces its unsold credential pool.
func (cs *CatalogService) UpdateProduct(ctx context.Context, product *models.Product) error {
	normalizeProduct(product)
	return cs.store.UpdateProduct(ctx, product)
}

// DeleteProduct removes a product.
func (cs *CatalogService) DeleteProduct(ctx context.Context, id int64) error {
	return cs.store.DeleteProduct(ctx, id)
}

func normalizeProduct(product *models.Product) {
	product.CategorySlug = strings.ToLower(strings.TrimSpace(product.CategorySlug))
	if product.CategorySlug == "" {
		product.CategorySlug = "games"
	}
	if product.Attributes == nil {
		product.Attributes = models.AttributeMap{}
	}
}

// ListCategories retrieves all categories.
func (cs *CatalogService) ListCategories(ctx context.Context) ([]models.Category, error) {
	return cs.store.ListCategories(ctx)
}

// CreateCategory inserts a category.
func (cs *CatalogService) CreateCategory(ctx context.Context, category *models.Category) error {
	category.Slug = strings.ToLower(strings.TrimSpace(category.Slug))
	return cs.store.CreateCategory(ctx, category)
}

// UpdateCategory updates a category.
func (cs *CatalogService) UpdateCategory(ctx context.Context, category *models.Category) error {
	category.Slug = strings.ToLower(strings.TrimSpace(category.Slug))
	return cs.store.UpdateCategory(ctx, category)
}

// DeleteCategory removes a category.
func (cs *CatalogService) DeleteCategory(ctx context.Context, id int64) error {
	return cs.store.DeleteCategory(ctx, id)
}

// ListSubCategories retrieves all sub-categories.
func (cs *CatalogService) ListSubCategories(ctx context.Context) ([]models.SubCategory, error) {
	return cs.store.ListSubCategories(ctx)
}

// CreateSubCategory inserts a sub-category.
func (cs *CatalogService) CreateSubCategory(ctx context.Context, sub *models.SubCategory) error {
	return cs.store.CreateSubCategory(ctx, sub)
}

// UpdateSubCategory updates a sub-category.
func (cs *CatalogService) UpdateSubCategory(ctx context.Context, sub *models.SubCategory) error {
	return cs.store.UpdateSubCategory(ctx, sub)
}

// DeleteSubCategory removes a sub-category.
func (cs *CatalogService) DeleteSubCategory(ctx context.Context, id int64) error {
	return cs.store.DeleteSubCategory(ctx, id)
}

// ListAttributes retrieves all attribute definitions.
func (cs *CatalogService) ListAttributes(ctx context.Context) ([]models.AttributeDefinition, error) {
	return cs.store.ListAttributeDefinitions(ctx)
}

// CreateAttribute inserts an attribute definition.
func (cs *CatalogService) CreateAttribute(ctx context.Context, attr *models.AttributeDefinition) error {
	if attr.Options == nil {
		attr.Options = models.StringList{}
	}
	return cs.store.CreateAttributeDefinition(ctx, attr)
}

// UpdateAttribute updates an attribute definition.
func (cs *CatalogService) UpdateAttribute(ctx context.Context, attr *models.AttributeDefinition) error {
	if attr.Options == nil {
		attr.Options = models.StringList{}
	}
	return cs.store.UpdateAttributeDefinition(ctx, attr)
}

// DeleteAttribute removes an attribute definition.
func (cs *CatalogService) DeleteAttribute(ctx context.Context, id int64) error {
	return cs.store.DeleteAttributeDefinition(ctx, id)
}

// ListBanners retrieves all banners.
func (cs *CatalogService) ListBanners(ctx context.Context) ([]models.Banner, error) {
	return cs.store.ListBanners(ctx)
}

// CreateBanner inserts a banner.
func (cs *CatalogService) CreateBanner(ctx context.Context, banner *models.Banner) error {
	return cs.store.CreateBanner(ctx, banner)
}

// UpdateBanner updates a banner.
func (cs *CatalogService) UpdateBanner(ctx context.Context, banner *models.Banner) error {
	return cs.store.UpdateBanner(ctx, banner)
}

// DeleteBanner removes a banner.
func (cs *CatalogService) DeleteBanner(ctx context.Context, id int64) error {
	return cs.store.DeleteBanner(ctx, id)
}

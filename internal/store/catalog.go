package store

import (
	"context"

	"gamesup-server/internal/models"
)

// ListCategories retrieves categories in display order.
func (s *Store) ListCategories(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	err := s.db.SelectContext(ctx, &categories,
		"SELECT * FROM categories ORDER BY display_order, id")
	return categories, err
}

// CreateCategory inserts a category.
func (s *Store) CreateCategory(ctx context.Context, category *models.Category) error {
	return s.db.GetContext(ctx, category, `
		INSERT INTO categories (name, slug, icon, display_order, is_active)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`,
		category.Name, category.Slug, category.Icon, category.DisplayOrder, category.IsActive)
}

// UpdateCategory updates a category.
func (s *Store) UpdateCategory(ctx context.Context, category *models.Category) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE categories SET name = $1, slug = $2, icon = $3, display_order = $4, is_active = $5
		WHERE id = $6`,
		category.Name, category.Slug, category.Icon,
		category.DisplayOrder, category.IsActive, category.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.ErrNotFound
	}
	return nil
}

// DeleteCategory removes a category; its sub-categories cascade.
func (s *Store) DeleteCategory(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM categories WHERE id = $1", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.ErrNotFound
	}
	return nil
}

// ListSubCategories retrieves sub-categories in display order.
func (s *Store) ListSubCategories(ctx context.Context) ([]models.SubCategory, error) {
	var subs []models.SubCategory
	err := s.db.SelectContext(ctx, &subs,
		"SELECT * FROM sub_categories ORDER BY display_order, id")
	return subs, err
}

// CreateSubCategory inserts a sub-category.
func (s *Store) CreateSubCategory(ctx context.Context, sub *models.SubCategory) error {
	return s.db.GetContext(ctx, sub, `
		INSERT INTO sub_categories (category_id, name, slug, description, display_order, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`,
		sub.CategoryID, sub.Name, sub.Slug, sub.Description, sub.DisplayOrder, sub.IsActive)
}

// UpdateSubCategory updates a sub-category.
func (s *Store) UpdateSubCategory(ctx context.Context, sub *models.SubCategory) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE sub_categories SET category_id = $1, name = $2, slug = $3, description = $4,
			display_order = $5, is_active = $6
		WHERE id = $7`,
		sub.CategoryID, sub.Name, sub.Slug, sub.Description,
		sub.DisplayOrder, sub.IsActive, sub.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.ErrNotFound
	}
	return nil
}

// DeleteSubCategory removes a sub-category.
func (s *Store) DeleteSubCategory(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM sub_categories WHERE id = $1", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.ErrNotFound
	}
	return nil
}

// ListAttributeDefinitions retrieves attribute definitions in display order.
func (s *Store) ListAttributeDefinitions(ctx context.Context) ([]models.AttributeDefinition, error) {
	var attrs []models.AttributeDefinition
	err := s.db.SelectContext(ctx, &attrs,
		"SELECT * FROM product_attributes ORDER BY display_order, id")
	return attrs, err
}

// CreateAttributeDefinition inserts an attribute definition.
func (s *Store) CreateAttributeDefinition(ctx context.Context, attr *models.AttributeDefinition) error {
	return s.db.GetContext(ctx, attr, `
		INSERT INTO product_attributes (name, type, options, is_required, display_order, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`,
		attr.Name, attr.Type, attr.Options, attr.IsRequired, attr.DisplayOrder, attr.IsActive)
}

// UpdateAttributeDefinition updates an attribute definition.
func (s *Store) UpdateAttributeDefinition(ctx context.Context, attr *models.AttributeDefinition) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE product_attributes SET name = $1, type = $2, options = $3, is_required = $4,
			display_order = $5, is_active = $6
		WHERE id = $7`,
		attr.Name, attr.Type, attr.Options, attr.IsRequired,
		attr.DisplayOrder, attr.IsActive, attr.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.ErrNotFound
	}
	return nil
}

// DeleteAttributeDefinition removes an attribute definition.
func (s *Store) DeleteAttributeDefinition(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM product_attributes WHERE id = $1", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.ErrNotFound
	}
	return nil
}

// ListBanners retrieves banners by position.
func (s *Store) ListBanners(ctx context.Context) ([]models.Banner, error) {
	var banners []models.Banner
	err := s.db.SelectContext(ctx, &banners, "SELECT * FROM banners ORDER BY position, id")
	return banners, err
}

// CreateBanner inserts a banner.
func (s *Store) CreateBanner(ctx context.Context, banner *models.Banner) error {
	return s.db.GetContext(ctx, &banner.ID, `
		INSERT INTO banners (title, image_url, link, position, is_active, start_date, end_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`,
		banner.Title, banner.ImageURL, banner.Link, banner.Position,
		banner.IsActive, banner.StartDate, banner.EndDate)
}

// UpdateBanner updates a banner.
func (s *Store) UpdateBanner(ctx context.Context, banner *models.Banner) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE banners SET title = $1, image_url = $2, link = $3, position = $4,
			is_active = $5, start_date = $6, end_date = $7
		WHERE id = $8`,
		banner.Title, banner.ImageURL, banner.Link, banner.Position,
		banner.IsActive, banner.StartDate, banner.EndDate, banner.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.ErrNotFound
	}
	return nil
}

// DeleteBanner removes a banner.
func (s *Store) DeleteBanner(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM banners WHERE id = $1", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.ErrNotFound
	}
	return nil
}

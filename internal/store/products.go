package store

import (
	"context"
	"database/sql"
	"fmt"

	"gamesup-server/internal/models"

	"github.com/jmoiron/sqlx"
)

// ProductFilter narrows product listings. Zero values mean "no filter".
type ProductFilter struct {
	Category string
	Search   string
}

// ListProducts retrieves products with their credential pools.
func (s *Store) ListProducts(ctx context.Context, filter ProductFilter) ([]models.Product, error) {
	query := "SELECT * FROM products"
	var conditions []string
	var args []interface{}

	if filter.Category != "" {
		args = append(args, filter.Category)
		conditions = append(conditions, fmt.Sprintf("category_slug = $%d", len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		conditions = append(conditions,
			fmt.Sprintf("(name ILIKE $%d OR description ILIKE $%d)", len(args), len(args)))
	}

	for i, cond := range conditions {
		if i == 0 {
			query += " WHERE " + cond
		} else {
			query += " AND " + cond
		}
	}
	query += " ORDER BY id"

	var products []models.Product
	if err := s.db.SelectContext(ctx, &products, query, args...); err != nil {
		return nil, err
	}
	if err := s.attachCredentialPools(ctx, products); err != nil {
		return nil, err
	}
	return products, nil
}

// GetProductByID retrieves a product and its credential pool.
func (s *Store) GetProductByID(ctx context.Context, id int64) (*models.Product, error) {
	var product models.Product
	err := s.db.GetContext(ctx, &product, "SELECT * FROM products WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	pool, err := s.availableCredentials(ctx, id)
	if err != nil {
		return nil, err
	}
	product.DigitalItems = pool
	return &product, nil
}

// CreateProduct inserts a product and seeds its credential pool.
func (s *Store) CreateProduct(ctx context.Context, product *models.Product) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	err = tx.GetContext(ctx, product, `
		INSERT INTO products (name, description, category_slug, sub_category_slug, price, cost, stock, image, attributes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at`,
		product.Name, product.Description, product.CategorySlug, product.SubCategorySlug,
		product.Price, product.Cost, product.Stock, product.Image, product.Attributes)
	if err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}

	if err := replaceCredentialPool(ctx, tx, product.ID, product.DigitalItems); err != nil {
		return err
	}
	return tx.Commit()
}

// UpdateProduct updates a product and replaces its unsold credential pool with
// the given one. Assigned credentials are never touched.
func (s *Store) UpdateProduct(ctx context.Context, product *models.Product) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// Lock the row so a pool edit does not interleave with an in-flight
	// allocation for the same product.
	var exists bool
	err = tx.GetContext(ctx, &exists, "SELECT TRUE FROM products WHERE id = $1 FOR UPDATE", product.ID)
	if err == sql.ErrNoRows {
		return models.ErrNotFound
	}
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE products SET name = $1, description = $2, category_slug = $3, sub_category_slug = $4,
			price = $5, cost = $6, stock = $7, image = $8, attributes = $9, updated_at = NOW()
		WHERE id = $10`,
		product.Name, product.Description, product.CategorySlug, product.SubCategorySlug,
		product.Price, product.Cost, product.Stock, product.Image, product.Attributes, product.ID)
	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}

	if err := replaceCredentialPool(ctx, tx, product.ID, product.DigitalItems); err != nil {
		return err
	}
	return tx.Commit()
}

// DeleteProduct removes a product; its credential pool cascades.
func (s *Store) DeleteProduct(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM products WHERE id = $1", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.ErrNotFound
	}
	return nil
}

// availableCredentials reads a product's unsold pool in FIFO order.
func (s *Store) availableCredentials(ctx context.Context, productID int64) ([]models.Credential, error) {
	var rows []models.ProductCredential
	err := s.db.SelectContext(ctx, &rows, `
		SELECT * FROM product_credentials
		WHERE product_id = $1 AND status = $2
		ORDER BY position, id`,
		productID, models.CredentialAvailable)
	if err != nil {
		return nil, err
	}
	pool := make([]models.Credential, 0, len(rows))
	for _, row := range rows {
		pool = append(pool, models.Credential{Email: row.Email, Password: row.Password, Code: row.Code})
	}
	return pool, nil
}

// attachCredentialPools loads the unsold pools for a product slice in one query.
func (s *Store) attachCredentialPools(ctx context.Context, products []models.Product) error {
	if len(products) == 0 {
		return nil
	}

	ids := make([]int64, len(products))
	index := make(map[int64]*models.Product, len(products))
	for i := range products {
		ids[i] = products[i].ID
		index[products[i].ID] = &products[i]
		products[i].DigitalItems = []models.Credential{}
	}

	query, args, err := sqlx.In(`
		SELECT * FROM product_credentials
		WHERE product_id IN (?) AND status = ?
		ORDER BY product_id, position, id`,
		ids, models.CredentialAvailable)
	if err != nil {
		return err
	}
	query = s.db.Rebind(query)

	var rows []models.ProductCredential
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return err
	}
	for _, row := range rows {
		p := index[row.ProductID]
		p.DigitalItems = append(p.DigitalItems,
			models.Credential{Email: row.Email, Password: row.Password, Code: row.Code})
	}
	return nil
}

// replaceCredentialPool swaps a product's available credentials for the given
// list, preserving the list order as pool order.
func replaceCredentialPool(ctx context.Context, tx *sqlx.Tx, productID int64, pool []models.Credential) error {
	_, err := tx.ExecContext(ctx,
		"DELETE FROM product_credentials WHERE product_id = $1 AND status = $2",
		productID, models.CredentialAvailable)
	if err != nil {
		return fmt.Errorf("failed to clear credential pool: %w", err)
	}

	for i, cred := range pool {
		if cred.Empty() {
			continue
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO product_credentials (product_id, position, email, password, code, status)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			productID, i, cred.Email, cred.Password, cred.Code, models.CredentialAvailable)
		if err != nil {
			return fmt.Errorf("failed to insert credential: %w", err)
		}
	}
	return nil
}

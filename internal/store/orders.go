package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"gamesup-server/internal/models"

	"github.com/jmoiron/sqlx"
)

// CartLine is one requested line of a checkout. Name is the display name the
// cart carried, used in errors when the product id no longer resolves.
type CartLine struct {
	ProductID int64
	Name      string
	Quantity  int
	UnitPrice float64
}

// Checkout is the input to the allocation transaction.
type Checkout struct {
	OrderNumber   string
	CustomerName  string
	CustomerEmail string
	PaymentMethod string
	PaymentProof  string
	Lines         []CartLine
}

// PurchasedItem is the per-unit receipt entry returned to the caller.
type PurchasedItem struct {
	ProductName string             `json:"name"`
	Image       string             `json:"image"`
	Price       float64            `json:"price"`
	Credential  *models.Credential `json:"digitalItem"`
}

// AllocateOrder converts a checkout into a committed order header plus one
// line per purchased unit, consuming stock and digital credentials as it goes.
//
// Each unit locks its product row (SELECT ... FOR UPDATE), so concurrent
// checkouts for the same product serialize on the database. A unit takes the
// oldest available credential from the product's pool if one exists; a product
// with an empty pool and no stock fails the whole checkout. Any failure rolls
// back every unit allocated so far, across all lines.
func (s *Store) AllocateOrder(ctx context.Context, checkout *Checkout) (*models.Order, []PurchasedItem, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var total float64
	for _, line := range checkout.Lines {
		total += line.UnitPrice * float64(line.Quantity)
	}

	order := &models.Order{
		OrderNumber:   checkout.OrderNumber,
		CustomerName:  checkout.CustomerName,
		CustomerEmail: checkout.CustomerEmail,
		Status:        models.InitialOrderStatus(checkout.PaymentMethod),
		PaymentMethod: checkout.PaymentMethod,
		PaymentProof:  checkout.PaymentProof,
		TotalAmount:   total,
	}

	err = tx.GetContext(ctx, order, `
		INSERT INTO orders (order_number, customer_name, customer_email, status, payment_method, payment_proof, total_amount)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, placed_at`,
		order.OrderNumber, order.CustomerName, order.CustomerEmail,
		order.Status, order.PaymentMethod, order.PaymentProof, order.TotalAmount)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, nil, models.ErrOrderNumberTaken
		}
		return nil, nil, fmt.Errorf("failed to create order: %w", err)
	}

	var purchased []PurchasedItem
	for _, line := range checkout.Lines {
		for i := 0; i < line.Quantity; i++ {
			item, err := s.allocateUnit(ctx, tx, order.ID, line)
			if err != nil {
				return nil, nil, err
			}
			purchased = append(purchased, *item)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("failed to commit order: %w", err)
	}
	return order, purchased, nil
}

// allocateUnit handles one unit: lock product, claim a credential, decrement
// stock, write the order line. Errors abort the enclosing transaction.
func (s *Store) allocateUnit(ctx context.Context, tx *sqlx.Tx, orderID int64, line CartLine) (*PurchasedItem, error) {
	var product models.Product
	err := tx.GetContext(ctx, &product,
		"SELECT * FROM products WHERE id = $1 FOR UPDATE", line.ProductID)
	if err == sql.ErrNoRows {
		name := line.Name
		if name == "" {
			name = fmt.Sprintf("#%d", line.ProductID)
		}
		return nil, &models.ProductNotFoundError{Name: name}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock product %d: %w", line.ProductID, err)
	}

	// Claim the oldest available credential, if the pool has one. The product
	// row lock above serializes concurrent claims for the same product.
	var cred models.ProductCredential
	err = tx.GetContext(ctx, &cred, `
		UPDATE product_credentials SET status = $1, assigned_at = NOW()
		WHERE id = (
			SELECT id FROM product_credentials
			WHERE product_id = $2 AND status = $3
			ORDER BY position, id
			LIMIT 1
		)
		RETURNING id, product_id, position, email, password, code, status, assigned_at`,
		models.CredentialAssigned, product.ID, models.CredentialAvailable)
	hasCredential := true
	if err == sql.ErrNoRows {
		hasCredential = false
	} else if err != nil {
		return nil, fmt.Errorf("failed to claim credential for product %d: %w", product.ID, err)
	}

	if !hasCredential && product.Stock <= 0 {
		return nil, &models.OutOfStockError{Name: product.Name}
	}

	_, err = tx.ExecContext(ctx,
		"UPDATE products SET stock = GREATEST(stock - 1, 0), updated_at = NOW() WHERE id = $1",
		product.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to decrement stock for product %d: %w", product.ID, err)
	}

	orderLine := models.OrderLine{
		OrderID:     orderID,
		ProductID:   product.ID,
		ProductName: product.Name,
		UnitPrice:   line.UnitPrice,
		UnitCost:    product.Cost,
	}
	if hasCredential {
		orderLine.CredentialEmail = cred.Email
		orderLine.CredentialPassword = cred.Password
		orderLine.CredentialCode = cred.Code
		orderLine.InventoryID = cred.ID
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO order_lines (order_id, product_id, product_name, unit_price, unit_cost,
			credential_email, credential_password, credential_code, inventory_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		orderLine.OrderID, orderLine.ProductID, orderLine.ProductName,
		orderLine.UnitPrice, orderLine.UnitCost,
		orderLine.CredentialEmail, orderLine.CredentialPassword, orderLine.CredentialCode,
		orderLine.InventoryID)
	if err != nil {
		return nil, fmt.Errorf("failed to create order line: %w", err)
	}

	item := &PurchasedItem{
		ProductName: product.Name,
		Image:       product.Image,
		Price:       line.UnitPrice,
	}
	if hasCredential {
		item.Credential = &models.Credential{Email: cred.Email, Password: cred.Password, Code: cred.Code}
	}
	return item, nil
}

// GetOrderByNumber retrieves an order header by its order number.
func (s *Store) GetOrderByNumber(ctx context.Context, orderNumber string) (*models.Order, error) {
	var order models.Order
	err := s.db.GetContext(ctx, &order, "SELECT * FROM orders WHERE order_number = $1", orderNumber)
	if err == sql.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetOrderLines retrieves all lines of an order, in allocation order.
func (s *Store) GetOrderLines(ctx context.Context, orderID int64) ([]models.OrderLine, error) {
	var lines []models.OrderLine
	err := s.db.SelectContext(ctx, &lines,
		"SELECT * FROM order_lines WHERE order_id = $1 ORDER BY id", orderID)
	return lines, err
}

// GetOrderLinesBatch loads the lines of several orders in one query, keyed
// by order id. Orders without lines get no entry.
func (s *Store) GetOrderLinesBatch(ctx context.Context, orderIDs []int64) (map[int64][]models.OrderLine, error) {
	byOrder := make(map[int64][]models.OrderLine, len(orderIDs))
	if len(orderIDs) == 0 {
		return byOrder, nil
	}

	query, args, err := sqlx.In(
		"SELECT * FROM order_lines WHERE order_id IN (?) ORDER BY order_id, id", orderIDs)
	if err != nil {
		return nil, err
	}
	query = s.db.Rebind(query)

	var lines []models.OrderLine
	if err := s.db.SelectContext(ctx, &lines, query, args...); err != nil {
		return nil, err
	}
	for _, line := range lines {
		byOrder[line.OrderID] = append(byOrder[line.OrderID], line)
	}
	return byOrder, nil
}

// OrderFilter narrows ListOrders. Zero values mean "no filter".
type OrderFilter struct {
	Status string
	Email  string
	Search string
}

// ListOrders retrieves order headers, newest first.
func (s *Store) ListOrders(ctx context.Context, filter OrderFilter) ([]models.Order, error) {
	query := "SELECT * FROM orders"
	var conditions []string
	var args []interface{}

	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.Email != "" {
		args = append(args, filter.Email)
		conditions = append(conditions, fmt.Sprintf("customer_email = $%d", len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		conditions = append(conditions,
			fmt.Sprintf("(order_number ILIKE $%d OR customer_name ILIKE $%d)", len(args), len(args)))
	}

	for i, cond := range conditions {
		if i == 0 {
			query += " WHERE " + cond
		} else {
			query += " AND " + cond
		}
	}
	query += " ORDER BY placed_at DESC"

	var orders []models.Order
	err := s.db.SelectContext(ctx, &orders, query, args...)
	return orders, err
}

// UpdateOrderStatus updates an order's status by order number.
func (s *Store) UpdateOrderStatus(ctx context.Context, orderNumber, status string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE orders SET status = $1 WHERE order_number = $2", status, orderNumber)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.ErrNotFound
	}
	return nil
}

// MarkOrderPaid advances an order to paid unless it already is. Returns true
// when this call did the transition, false when it was already paid.
func (s *Store) MarkOrderPaid(ctx context.Context, orderNumber string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		"UPDATE orders SET status = $1 WHERE order_number = $2 AND status <> $1",
		models.OrderStatusPaid, orderNumber)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// UpdateOrderLine applies an admin edit to a single purchased unit.
func (s *Store) UpdateOrderLine(ctx context.Context, line *models.OrderLine) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE order_lines SET product_name = $1, credential_email = $2,
			credential_password = $3, credential_code = $4, inventory_id = $5
		WHERE id = $6`,
		line.ProductName, line.CredentialEmail, line.CredentialPassword,
		line.CredentialCode, line.InventoryID, line.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.ErrNotFound
	}
	return nil
}

// SoldLine is an order line that carries a credential, with its header fields
// flattened in for the admin sold-products screen.
type SoldLine struct {
	models.OrderLine
	OrderNumber   string    `db:"order_number" json:"orderNumber"`
	CustomerName  string    `db:"customer_name" json:"customerName"`
	CustomerEmail string    `db:"customer_email" json:"customerEmail"`
	PlacedAt      time.Time `db:"placed_at" json:"date"`
}

// ListSoldLines retrieves all lines with an assigned credential, newest first.
func (s *Store) ListSoldLines(ctx context.Context) ([]SoldLine, error) {
	var lines []SoldLine
	err := s.db.SelectContext(ctx, &lines, `
		SELECT l.*, o.order_number, o.customer_name, o.customer_email, o.placed_at
		FROM order_lines l
		JOIN orders o ON o.id = l.order_id
		WHERE l.credential_email <> '' OR l.credential_password <> '' OR l.credential_code <> ''
		ORDER BY o.placed_at DESC, l.id`)
	return lines, err
}

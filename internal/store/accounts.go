package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"gamesup-server/internal/models"
)

// CreateCustomer inserts a storefront account.
func (s *Store) CreateCustomer(ctx context.Context, customer *models.Customer) error {
	err := s.db.GetContext(ctx, customer, `
		INSERT INTO customers (email, password_hash, name, phone)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`,
		customer.Email, customer.PasswordHash, customer.Name, customer.Phone)
	if isUniqueViolation(err) {
		return models.ErrEmailTaken
	}
	return err
}

// GetCustomerByEmail retrieves a customer account.
func (s *Store) GetCustomerByEmail(ctx context.Context, email string) (*models.Customer, error) {
	var customer models.Customer
	err := s.db.GetContext(ctx, &customer, "SELECT * FROM customers WHERE email = $1", email)
	if err == sql.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

// CustomerSummary is a customer with order aggregates for the admin screen.
type CustomerSummary struct {
	ID          int64     `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Email       string    `db:"email" json:"email"`
	Phone       string    `db:"phone" json:"phone"`
	CreatedAt   time.Time `db:"created_at" json:"joinDate"`
	OrdersCount int       `db:"orders_count" json:"orders"`
	TotalSpent  float64   `db:"total_spent" json:"spent"`
}

// ListCustomerSummaries retrieves all customers with order count and spend.
func (s *Store) ListCustomerSummaries(ctx context.Context) ([]CustomerSummary, error) {
	var customers []CustomerSummary
	err := s.db.SelectContext(ctx, &customers, `
		SELECT c.id, c.name, c.email, c.phone, c.created_at,
			COUNT(o.id) AS orders_count,
			COALESCE(SUM(o.total_amount), 0) AS total_spent
		FROM customers c
		LEFT JOIN orders o ON o.customer_email = c.email
		GROUP BY c.id
		ORDER BY c.created_at DESC`)
	return customers, err
}

// CreateUser inserts a staff account.
func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	err := s.db.GetContext(ctx, user, `
		INSERT INTO users (email, password_hash, name, role, job_title, phone, avatar)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`,
		user.Email, user.PasswordHash, user.Name, user.Role,
		user.JobTitle, user.Phone, user.Avatar)
	if isUniqueViolation(err) {
		return models.ErrEmailTaken
	}
	return err
}

// GetUserByEmail retrieves a staff account.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.db.GetContext(ctx, &user, "SELECT * FROM users WHERE email = $1", email)
	if err == sql.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// ListUsers retrieves all staff accounts.
func (s *Store) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := s.db.SelectContext(ctx, &users, "SELECT * FROM users ORDER BY id")
	return users, err
}

// UpdateUser updates a staff account. An empty PasswordHash leaves the stored
// hash untouched.
func (s *Store) UpdateUser(ctx context.Context, user *models.User) error {
	query := `UPDATE users SET email = $1, name = $2, role = $3, job_title = $4, phone = $5, avatar = $6`
	args := []interface{}{user.Email, user.Name, user.Role, user.JobTitle, user.Phone, user.Avatar}

	if user.PasswordHash != "" {
		args = append(args, user.PasswordHash)
		query += fmt.Sprintf(", password_hash = $%d", len(args))
	}
	args = append(args, user.ID)
	query += fmt.Sprintf(" WHERE id = $%d", len(args))

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.ErrNotFound
	}
	return nil
}

// DeleteUser removes a staff account.
func (s *Store) DeleteUser(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM users WHERE id = $1", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.ErrNotFound
	}
	return nil
}

// ListRoles retrieves all roles with their permission sets.
func (s *Store) ListRoles(ctx context.Context) ([]models.Role, error) {
	var roles []models.Role
	err := s.db.SelectContext(ctx, &roles, "SELECT * FROM roles ORDER BY id")
	return roles, err
}

// GetRoleByName retrieves one role.
func (s *Store) GetRoleByName(ctx context.Context, name string) (*models.Role, error) {
	var role models.Role
	err := s.db.GetContext(ctx, &role, "SELECT * FROM roles WHERE name = $1", name)
	if err == sql.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &role, nil
}

// CreateRole inserts a role.
func (s *Store) CreateRole(ctx context.Context, role *models.Role) error {
	err := s.db.GetContext(ctx, &role.ID, `
		INSERT INTO roles (name, description, permissions)
		VALUES ($1, $2, $3)
		RETURNING id`,
		role.Name, role.Description, role.Permissions)
	if isUniqueViolation(err) {
		return fmt.Errorf("role %s already exists", role.Name)
	}
	return err
}

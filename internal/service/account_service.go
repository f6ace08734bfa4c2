package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gamesup-server/config"
	"gamesup-server/internal/models"
	"gamesup-server/internal/store"
	"gamesup-server/internal/util"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// AccountService handles storefront customers and staff users: signup, login,
// token issuance, and the admin-side user/role CRUD.
type AccountService struct {
	store    *store.Store
	secret   []byte
	tokenTTL time.Duration
	logger   *zap.Logger
}

// NewAccountService creates a new account service.
func NewAccountService(store *store.Store, cfg *config.Config) *AccountService {
	return &AccountService{
		store:    store,
		secret:   []byte(cfg.Auth.JWTSecret),
		tokenTTL: time.Duration(cfg.Auth.TokenTTLHours) * time.Hour,
		logger:   util.GetLogger(),
	}
}

// Claims is the JWT payload issued on login. Kind distinguishes customer
// tokens from staff tokens; Permissions is only set for staff.
type Claims struct {
	Kind        string               `json:"kind"`
	Email       string               `json:"email"`
	Name        string               `json:"name"`
	Role        string               `json:"role,omitempty"`
	Permissions models.PermissionMap `json:"permissions,omitempty"`
	jwt.RegisteredClaims
}

const (
	tokenKindCustomer = "customer"
	tokenKindStaff    = "staff"
)

// SignupRequest registers a new storefront customer.
type SignupRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Name     string `json:"name" binding:"required"`
	Phone    string `json:"phone"`
}

// LoginRequest authenticates a customer or staff user.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// AuthResponse carries the issued token and the authenticated identity.
type AuthResponse struct {
	Token       string               `json:"token"`
	Email       string               `json:"email"`
	Name        string               `json:"name"`
	Role        string               `json:"role,omitempty"`
	Permissions models.PermissionMap `json:"permissions,omitempty"`
}

// SignupCustomer registers a customer and logs them straight in.
func (as *AccountService) SignupCustomer(ctx context.Context, req SignupRequest) (*AuthResponse, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	customer := &models.Customer{
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: string(hash),
		Name:         req.Name,
		Phone:        req.Phone,
	}
	if err := as.store.CreateCustomer(ctx, customer); err != nil {
		return nil, err
	}
	as.logger.Info("Customer registered", zap.String("email", customer.Email))

	token, err := as.issueToken(tokenKindCustomer, customer.Email, customer.Name, "", nil)
	if err != nil {
		return nil, err
	}
	return &AuthResponse{Token: token, Email: customer.Email, Name: customer.Name}, nil
}

// LoginCustomer authenticates a storefront customer.
func (as *AccountService) LoginCustomer(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	customer, err := as.store.GetCustomerByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrInvalidLogin
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(customer.PasswordHash), []byte(req.Password)) != nil {
		return nil, models.ErrInvalidLogin
	}

	token, err := as.issueToken(tokenKindCustomer, customer.Email, customer.Name, "", nil)
	if err != nil {
		return nil, err
	}
	return &AuthResponse{Token: token, Email: customer.Email, Name: customer.Name}, nil
}

// LoginStaff authenticates a staff user and embeds the role's permission set
// in the token so the HTTP layer can gate admin routes without a DB hit.
func (as *AccountService) LoginStaff(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	user, err := as.store.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrInvalidLogin
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		return nil, models.ErrInvalidLogin
	}

	permissions := models.PermissionMap{}
	role, err := as.store.GetRoleByName(ctx, user.Role)
	if err == nil {
		permissions = role.Permissions
	} else if !errors.Is(err, models.ErrNotFound) {
		return nil, err
	}

	token, err := as.issueToken(tokenKindStaff, user.Email, user.Name, user.Role, permissions)
	if err != nil {
		return nil, err
	}
	as.logger.Info("Staff login", zap.String("email", user.Email), zap.String("role", user.Role))
	return &AuthResponse{Token: token, Email: user.Email, Name: user.Name, Role: user.Role, Permissions: permissions}, nil
}

func (as *AccountService) issueToken(kind, email, name, role string, permissions models.PermissionMap) (string, error) {
	now := time.Now()
	claims := Claims{
		Kind:        kind,
		Email:       email,
		Name:        name,
		Role:        role,
		Permissions: permissions,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(as.tokenTTL)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(as.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return token, nil
}

// ParseToken validates a bearer token and returns its claims.
func (as *AccountService) ParseToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return as.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, models.ErrInvalidLogin
	}
	return claims, nil
}

// IsStaff reports whether the claims belong to a staff token.
func (c *Claims) IsStaff() bool { return c.Kind == tokenKindStaff }

// ListCustomers returns every customer with their order count and spend.
func (as *AccountService) ListCustomers(ctx context.Context) ([]store.CustomerSummary, error) {
	return as.store.ListCustomerSummaries(ctx)
}

// CreateUserRequest creates a staff account.
type CreateUserRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Name     string `json:"name" binding:"required"`
	Role     string `json:"role" binding:"required"`
	JobTitle string `json:"job_title"`
	Phone    string `json:"phone"`
	Avatar   string `json:"avatar"`
}

// CreateUser registers a staff account.
func (as *AccountService) CreateUser(ctx context.Context, req CreateUserRequest) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	user := &models.User{
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: string(hash),
		Name:         req.Name,
		Role:         req.Role,
		JobTitle:     req.JobTitle,
		Phone:        req.Phone,
		Avatar:       req.Avatar,
	}
	if err := as.store.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// UpdateUserRequest updates a staff account. An empty password keeps the
// current one.
type UpdateUserRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password"`
	Name     string `json:"name" binding:"required"`
	Role     string `json:"role" binding:"required"`
	JobTitle string `json:"job_title"`
	Phone    string `json:"phone"`
	Avatar   string `json:"avatar"`
}

// UpdateUser updates a staff account.
func (as *AccountService) UpdateUser(ctx context.Context, id int64, req UpdateUserRequest) (*models.User, error) {
	user := &models.User{
		ID:       id,
		Email:    strings.ToLower(strings.TrimSpace(req.Email)),
		Name:     req.Name,
		Role:     req.Role,
		JobTitle: req.JobTitle,
		Phone:    req.Phone,
		Avatar:   req.Avatar,
	}
	if req.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		user.PasswordHash = string(hash)
	}
	if err := as.store.UpdateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// ListUsers returns all staff accounts.
func (as *AccountService) ListUsers(ctx context.Context) ([]models.User, error) {
	return as.store.ListUsers(ctx)
}

// DeleteUser removes a staff account.
func (as *AccountService) DeleteUser(ctx context.Context, id int64) error {
	return as.store.DeleteUser(ctx, id)
}

// ListRoles returns all roles.
func (as *AccountService) ListRoles(ctx context.Context) ([]models.Role, error) {
	return as.store.ListRoles(ctx)
}

// CreateRole registers a role with its permission set.
func (as *AccountService) CreateRole(ctx context.Context, role *models.Role) error {
	if role.Permissions == nil {
		role.Permissions = models.PermissionMap{}
	}
	return as.store.CreateRole(ctx, role)
}

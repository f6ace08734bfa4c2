package api

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"gamesup-server/config"
	"gamesup-server/internal/models"
	"gamesup-server/internal/payment"
	"gamesup-server/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRespondErrorStatusMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{models.ErrNotFound, http.StatusNotFound},
		{&models.ProductNotFoundError{Name: "FIFA 24"}, http.StatusNotFound},
		{&models.OutOfStockError{Name: "FIFA 24"}, http.StatusConflict},
		{models.ErrEmailTaken, http.StatusConflict},
		{models.ErrOrderNumberTaken, http.StatusConflict},
		{models.ErrInvalidLogin, http.StatusUnauthorized},
		{payment.ErrGatewayUnavailable, http.StatusBadGateway},
		{fmt.Errorf("%w: dial tcp 10.0.0.1:443", payment.ErrGatewayUnavailable), http.StatusBadGateway},
		{errors.New("pq: connection refused"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		respondError(c, tc.err)
		assert.Equal(t, tc.status, w.Code, "error %v", tc.err)
	}

	// Infrastructure details never leak to clients.
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	respondError(c, errors.New("pq: connection refused"))
	assert.NotContains(t, w.Body.String(), "pq:")
}

func testStaffRouter(t *testing.T) *gin.Engine {
	t.Helper()

	accounts := service.NewAccountService(nil, &config.Config{
		Auth: config.AuthConfig{JWTSecret: "test-secret", TokenTTLHours: 1},
	})

	h := &Handler{accountService: accounts}
	router := gin.New()
	router.GET("/admin/ping", h.requireStaff(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"pong": true})
	})
	return router
}

func TestRequireStaffRejectsMissingToken(t *testing.T) {
	router := testStaffRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin/ping", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireStaffRejectsCustomerToken(t *testing.T) {
	router := testStaffRouter(t)

	// A customer token is valid but carries no staff claim.
	resp := customerToken(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin/ping", nil)
	req.Header.Set("Authorization", "Bearer "+resp)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRequireStaffAcceptsStaffToken(t *testing.T) {
	router := testStaffRouter(t)

	now := time.Now()
	claims := service.Claims{
		Kind:  "staff",
		Email: "admin@example.com",
		Role:  "manager",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "admin@example.com",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin/ping", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireStaffRejectsGarbageToken(t *testing.T) {
	router := testStaffRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin/ping", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

// customerToken signs a valid customer token with the router's secret.
func customerToken(t *testing.T) string {
	t.Helper()
	now := time.Now()
	claims := service.Claims{
		Kind:  "customer",
		Email: "user@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user@example.com",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"gamesup-server/config"
	"gamesup-server/internal/models"
	"gamesup-server/internal/payment"
	"gamesup-server/internal/service"
	"gamesup-server/internal/shipping"
	"gamesup-server/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler contains HTTP handlers
type Handler struct {
	orderService    *service.OrderService
	paymentService  *service.PaymentService
	catalogService  *service.CatalogService
	accountService  *service.AccountService
	settingsService *service.SettingsService
	shippingClient  *shipping.Client
	uploads         config.UploadsConfig
}

// NewHandler creates a new HTTP handler
func NewHandler(
	orderService *service.OrderService,
	paymentService *service.PaymentService,
	catalogService *service.CatalogService,
	accountService *service.AccountService,
	settingsService *service.SettingsService,
	shippingClient *shipping.Client,
	uploads config.UploadsConfig,
) *Handler {
	return &Handler{
		orderService:    orderService,
		paymentService:  paymentService,
		catalogService:  catalogService,
		accountService:  accountService,
		settingsService: settingsService,
		shippingClient:  shippingClient,
		uploads:         uploads,
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.Static("/uploads", h.uploads.Dir)

	v1 := router.Group("/api/v1")
	{
		// Storefront, no auth required.
		v1.GET("/products", h.listProducts)
		v1.GET("/products/:id", h.getProduct)
		v1.GET("/categories", h.listCategories)
		v1.GET("/subcategories", h.listSubCategories)
		v1.GET("/banners", h.listBanners)
		v1.GET("/settings", h.getSettings)
		v1.GET("/delivery-options", h.listDeliveryOptions)

		v1.POST("/auth/signup", h.signup)
		v1.POST("/auth/login", h.login)
		v1.POST("/auth/staff-login", h.staffLogin)

		v1.POST("/customer-orders", h.placeOrder)
		v1.GET("/customer-orders", h.listCustomerOrders)
		v1.GET("/orders/:orderNumber", h.getOrder)

		v1.POST("/payments/create", h.createPayment)
		v1.POST("/payments/verify", h.verifyPayment)
	}

	admin := v1.Group("/admin")
	admin.Use(h.requireStaff())
	{
		admin.POST("/products", h.createProduct)
		admin.PUT("/products/:id", h.updateProduct)
		admin.DELETE("/products/:id", h.deleteProduct)

		admin.POST("/categories", h.createCategory)
		admin.PUT("/categories/:id", h.updateCategory)
		admin.DELETE("/categories/:id", h.deleteCategory)

		admin.POST("/subcategories", h.createSubCategory)
		admin.PUT("/subcategories/:id", h.updateSubCategory)
		admin.DELETE("/subcategories/:id", h.deleteSubCategory)

		admin.GET("/attributes", h.listAttributes)
		admin.POST("/attributes", h.createAttribute)
		admin.PUT("/attributes/:id", h.updateAttribute)
		admin.DELETE("/attributes/:id", h.deleteAttribute)

		admin.POST("/banners", h.createBanner)
		admin.PUT("/banners/:id", h.updateBanner)
		admin.DELETE("/banners/:id", h.deleteBanner)

		admin.PUT("/settings", h.updateSettings)

		admin.GET("/orders", h.listOrders)
		admin.PUT("/orders/:orderNumber/status", h.updateOrderStatus)
		admin.PUT("/order-lines/:id", h.updateOrderLine)
		admin.GET("/sold-products", h.listSoldProducts)

		admin.GET("/customers", h.listCustomers)

		admin.GET("/users", h.listUsers)
		admin.POST("/users", h.createUser)
		admin.PUT("/users/:id", h.updateUser)
		admin.DELETE("/users/:id", h.deleteUser)

		admin.GET("/roles", h.listRoles)
		admin.POST("/roles", h.createRole)

		admin.POST("/upload", h.upload)
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck handles readiness check requests
func (h *Handler) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

const claimsContextKey = "authClaims"

// requireStaff rejects requests without a valid staff bearer token.
func (h *Handler) requireStaff() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		claims, err := h.accountService.ParseToken(token)
		if err != nil || !claims.IsStaff() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "staff access required"})
			return
		}

		c.Set(claimsContextKey, claims)
		c.Next()
	}
}

// respondError maps a service error to an HTTP status and JSON body.
func respondError(c *gin.Context, err error) {
	var pnf *models.ProductNotFoundError
	var oos *models.OutOfStockError
	switch {
	case errors.As(err, &pnf), errors.Is(err, models.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.As(err, &oos), errors.Is(err, models.ErrEmailTaken), errors.Is(err, models.ErrOrderNumberTaken):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrInvalidLogin):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, payment.ErrGatewayUnavailable):
		c.JSON(http.StatusBadGateway, gin.H{"error": "payment gateway unavailable"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}

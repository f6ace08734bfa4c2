package shipping

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"gamesup-server/config"
	"gamesup-server/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DeliveryOption is one carrier quote shown at checkout.
type DeliveryOption struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Description   string  `json:"description"`
	Price         float64 `json:"price"`
	EstimatedDays string  `json:"estimatedDays"`
}

// StandardOption is the free fallback every checkout can always pick.
var StandardOption = DeliveryOption{
	ID:            "standard",
	Name:          "Standard Shipping",
	Description:   "Delivery in 3-5 business days",
	Price:         0,
	EstimatedDays: "3-5 days",
}

// ShipmentRequest is what the carrier needs to book a shipment.
type ShipmentRequest struct {
	OrderNumber   string
	CustomerName  string
	CustomerEmail string
	Phone         string
	Address       string
	City          string
	Total         float64
}

// Shipment is the carrier's booking confirmation.
type Shipment struct {
	ID       string `json:"otoId"`
	AWB      string `json:"awb"`
	LabelURL string `json:"labelUrl"`
}

// Client is the OTO delivery adapter. Without a refresh token it runs in mock
// mode with a fixed carrier list and synthetic bookings.
type Client struct {
	refreshToken string
	baseURL      string
	http         *http.Client
	logger       *zap.Logger

	mu          sync.Mutex
	accessToken string
}

// NewClient creates an OTO adapter from config.
func NewClient(cfg config.ShippingConfig) *Client {
	baseURL := "https://api-test.oto.sa/rest/v1"
	if cfg.Env == "production" {
		baseURL = "https://api.oto.sa/rest/v1"
	}

	return &Client{
		refreshToken: cfg.RefreshToken,
		baseURL:      baseURL,
		http:         &http.Client{Timeout: 15 * time.Second},
		logger:       util.GetLogger(),
	}
}

// Mocked reports whether the adapter is running without real credentials.
func (c *Client) Mocked() bool {
	return c.refreshToken == ""
}

// ListDeliveryOptions returns the standard option plus carrier quotes for the
// city. Purely advisory; carrier errors are not fatal to checkout.
func (c *Client) ListDeliveryOptions(ctx context.Context, city string) ([]DeliveryOption, error) {
	options := []DeliveryOption{StandardOption}

	// The rate card is static for now; OTO has no public quote endpoint for
	// open carts, so the mock list matches production carriers.
	carriers := []struct {
		name  string
		price float64
		eta   string
	}{
		{"Aramex", 25, "2-3 days"},
		{"SMSA", 30, "1-2 days"},
	}

	for i, carrier := range carriers {
		options = append(options, DeliveryOption{
			ID:            fmt.Sprintf("oto_%d", i),
			Name:          fmt.Sprintf("%s (via OTO)", carrier.name),
			Description:   fmt.Sprintf("Delivery in %s", carrier.eta),
			Price:         carrier.price,
			EstimatedDays: carrier.eta,
		})
	}
	return options, nil
}

// CreateShipment books a carrier shipment for a paid order.
func (c *Client) CreateShipment(ctx context.Context, req ShipmentRequest) (*Shipment, error) {
	if c.Mocked() {
		c.logger.Info("OTO mock: creating shipment",
			zap.String("order_number", req.OrderNumber))
		suffix := uuid.New().String()[:8]
		return &Shipment{
			ID:       fmt.Sprintf("OTO-%s", suffix),
			AWB:      fmt.Sprintf("AWB-%s", suffix),
			LabelURL: "https://example.com/label.pdf",
		}, nil
	}

	token, err := c.getAccessToken(ctx)
	if err != nil {
		return nil, err
	}

	payload := map[string]interface{}{
		"orderId":        req.OrderNumber,
		"payment_method": "paid",
		"amount":         req.Total,
		"amount_due":     0,
		"customer": map[string]string{
			"name":    req.CustomerName,
			"email":   req.CustomerEmail,
			"mobile":  req.Phone,
			"address": req.Address,
			"city":    req.City,
			"country": "SA",
		},
	}

	var shipment Shipment
	if err := c.post(ctx, "/shipment/create", token, payload, &shipment); err != nil {
		return nil, fmt.Errorf("shipment creation failed: %w", err)
	}
	return &shipment, nil
}

func (c *Client) getAccessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.accessToken != "" {
		return c.accessToken, nil
	}

	var resp struct {
		AccessToken string `json:"access_token"`
	}
	err := c.post(ctx, "/auth/refresh-token", "",
		map[string]string{"refresh_token": c.refreshToken}, &resp)
	if err != nil {
		return "", fmt.Errorf("carrier auth failed: %w", err)
	}
	c.accessToken = resp.AccessToken
	return c.accessToken, nil
}

func (c *Client) post(ctx context.Context, path, token string, payload, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("carrier returned %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

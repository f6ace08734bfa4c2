package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"gamesup-server/config"
	"gamesup-server/internal/util"

	"go.uber.org/zap"
)

// ErrGatewayUnavailable distinguishes transport failures from a deliberate
// "payment invalid" answer, so callers can decide whether to retry.
var ErrGatewayUnavailable = fmt.Errorf("payment gateway unavailable")

// OrderDetails is what the hosted payment page needs about a checkout.
type OrderDetails struct {
	OrderNumber   string
	CustomerName  string
	CustomerEmail string
	Total         float64
	Address       Address
}

// Address is the shipping address fragment PayTabs wants.
type Address struct {
	Street  string
	City    string
	State   string
	ZipCode string
	Phone   string
	Country string
}

// PaymentPage is the gateway's answer to a page-creation request.
type PaymentPage struct {
	Success     bool   `json:"success"`
	RedirectURL string `json:"redirect_url"`
	TranRef     string `json:"tran_ref"`
}

// Verification is the gateway's answer to a transaction query.
type Verification struct {
	Success bool   `json:"success"`
	Status  string `json:"status"`
}

// Gateway is the PayTabs hosted-payment-page adapter. Without a profile id it
// runs in mock mode and answers deterministically, which is what tests and
// local development rely on.
type Gateway struct {
	profileID string
	serverKey string
	currency  string
	baseURL   string
	client    *http.Client
	logger    *zap.Logger
}

// NewGateway creates a PayTabs adapter from config.
func NewGateway(cfg config.PaymentConfig) *Gateway {
	host := "https://secure.paytabs.com"
	if !strings.EqualFold(cfg.Region, "global") && cfg.Region != "" {
		host = fmt.Sprintf("https://secure-%s.paytabs.com", strings.ToLower(cfg.Region))
	}

	return &Gateway{
		profileID: cfg.ProfileID,
		serverKey: cfg.ServerKey,
		currency:  cfg.Currency,
		baseURL:   host,
		client:    &http.Client{Timeout: 15 * time.Second},
		logger:    util.GetLogger(),
	}
}

// Mocked reports whether the adapter is running without real credentials.
func (g *Gateway) Mocked() bool {
	return g.profileID == ""
}

type pageRequest struct {
	ProfileID       string          `json:"profile_id"`
	TranType        string          `json:"tran_type"`
	TranClass       string          `json:"tran_class"`
	CartID          string          `json:"cart_id"`
	CartDescription string          `json:"cart_description"`
	CartCurrency    string          `json:"cart_currency"`
	CartAmount      float64         `json:"cart_amount"`
	Callback        string          `json:"callback"`
	Return          string          `json:"return"`
	Customer        customerDetails `json:"customer_details"`
}

type customerDetails struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Street1 string `json:"street1"`
	City    string `json:"city"`
	State   string `json:"state"`
	Country string `json:"country"`
	Zip     string `json:"zip"`
}

type pageResponse struct {
	RedirectURL string `json:"redirect_url"`
	TranRef     string `json:"tran_ref"`
}

// CreatePaymentPage asks the gateway for a hosted page the customer is
// redirected to. Mock mode returns a redirect straight back to returnURL.
func (g *Gateway) CreatePaymentPage(ctx context.Context, order OrderDetails, returnURL string) (*PaymentPage, error) {
	if g.Mocked() {
		g.logger.Info("PayTabs mock: creating payment page",
			zap.String("order_number", order.OrderNumber))
		ref := "mock_ref_" + order.OrderNumber
		return &PaymentPage{
			Success:     true,
			RedirectURL: fmt.Sprintf("%s?payment_ref=%s&status=success", returnURL, ref),
			TranRef:     ref,
		}, nil
	}

	phone := order.Address.Phone
	if phone == "" {
		phone = "0000000000"
	}
	country := order.Address.Country
	if country == "" {
		country = "SA"
	}

	payload := pageRequest{
		ProfileID:       g.profileID,
		TranType:        "sale",
		TranClass:       "ecom",
		CartID:          order.OrderNumber,
		CartDescription: fmt.Sprintf("Order %s", order.OrderNumber),
		CartCurrency:    g.currency,
		CartAmount:      order.Total,
		Callback:        returnURL,
		Return:          returnURL,
		Customer: customerDetails{
			Name:    order.CustomerName,
			Email:   order.CustomerEmail,
			Phone:   phone,
			Street1: order.Address.Street,
			City:    order.Address.City,
			State:   order.Address.State,
			Country: country,
			Zip:     order.Address.ZipCode,
		},
	}

	var resp pageResponse
	if err := g.post(ctx, "/payment/request", payload, &resp); err != nil {
		return nil, err
	}

	return &PaymentPage{
		Success:     true,
		RedirectURL: resp.RedirectURL,
		TranRef:     resp.TranRef,
	}, nil
}

type verifyRequest struct {
	ProfileID string `json:"profile_id"`
	TranRef   string `json:"tran_ref"`
}

type verifyResponse struct {
	PaymentResult struct {
		ResponseStatus string `json:"response_status"`
	} `json:"payment_result"`
}

// VerifyPayment asks the gateway whether a transaction reference settled.
// A gateway answer of "declined" is a business outcome, not an error.
func (g *Gateway) VerifyPayment(ctx context.Context, tranRef string) (*Verification, error) {
	if g.Mocked() {
		// Mock references verify; anything else is declined.
		if strings.HasPrefix(tranRef, "mock_ref_") {
			return &Verification{Success: true, Status: "A"}, nil
		}
		return &Verification{Success: false, Status: "D"}, nil
	}

	var resp verifyResponse
	err := g.post(ctx, "/payment/query", verifyRequest{ProfileID: g.profileID, TranRef: tranRef}, &resp)
	if err != nil {
		return nil, err
	}

	status := resp.PaymentResult.ResponseStatus
	return &Verification{Success: status == "A", Status: status}, nil
}

func (g *Gateway) post(ctx context.Context, path string, payload, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal gateway request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build gateway request: %w", err)
	}
	req.Header.Set("Authorization", g.serverKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return fmt.Errorf("%w: gateway returned %d", ErrGatewayUnavailable, resp.StatusCode)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("gateway rejected request: %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode gateway response: %w", err)
	}
	return nil
}

package payment

import (
	"context"
	"testing"

	"gamesup-server/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mockGateway() *Gateway {
	return NewGateway(config.PaymentConfig{Region: "global", Currency: "USD"})
}

func TestMockGatewayCreatePaymentPage(t *testing.T) {
	g := mockGateway()
	require.True(t, g.Mocked())

	page, err := g.CreatePaymentPage(context.Background(), OrderDetails{
		OrderNumber: "ORD-1-abc",
		Total:       49.99,
	}, "https://shop.example.com/checkout/result")
	require.NoError(t, err)

	assert.True(t, page.Success)
	assert.Equal(t, "mock_ref_ORD-1-abc", page.TranRef)
	assert.Contains(t, page.RedirectURL, "payment_ref=mock_ref_ORD-1-abc")
	assert.Contains(t, page.RedirectURL, "status=success")
}

func TestMockGatewayVerifyAcceptsMockRefs(t *testing.T) {
	g := mockGateway()

	v, err := g.VerifyPayment(context.Background(), "mock_ref_ORD-1-abc")
	require.NoError(t, err)
	assert.True(t, v.Success)
	assert.Equal(t, "A", v.Status)
}

func TestMockGatewayVerifyDeclinesUnknownRefs(t *testing.T) {
	g := mockGateway()

	v, err := g.VerifyPayment(context.Background(), "TST000000001")
	require.NoError(t, err)
	assert.False(t, v.Success)
	assert.Equal(t, "D", v.Status)
}

func TestRegionalBaseURL(t *testing.T) {
	assert.Equal(t, "https://secure.paytabs.com", NewGateway(config.PaymentConfig{}).baseURL)
	assert.Equal(t, "https://secure.paytabs.com", NewGateway(config.PaymentConfig{Region: "global"}).baseURL)
	assert.Equal(t, "https://secure-egypt.paytabs.com", NewGateway(config.PaymentConfig{Region: "egypt"}).baseURL)
}

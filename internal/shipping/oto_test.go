package shipping

import (
	"context"
	"strings"
	"testing"

	"gamesup-server/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListDeliveryOptionsAlwaysIncludesStandard(t *testing.T) {
	c := NewClient(config.ShippingConfig{})

	options, err := c.ListDeliveryOptions(context.Background(), "Riyadh")
	require.NoError(t, err)
	require.NotEmpty(t, options)

	assert.Equal(t, StandardOption, options[0])
	assert.Len(t, options, 3)
	assert.Equal(t, 25.0, options[1].Price)
	assert.Equal(t, 30.0, options[2].Price)
}

func TestMockCreateShipment(t *testing.T) {
	c := NewClient(config.ShippingConfig{})
	require.True(t, c.Mocked())

	shipment, err := c.CreateShipment(context.Background(), ShipmentRequest{
		OrderNumber:  "ORD-1-abc",
		CustomerName: "Test Customer",
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(shipment.ID, "OTO-"))
	assert.True(t, strings.HasPrefix(shipment.AWB, "AWB-"))
}

func TestBaseURLPerEnv(t *testing.T) {
	assert.Equal(t, "https://api-test.oto.sa/rest/v1", NewClient(config.ShippingConfig{}).baseURL)
	assert.Equal(t, "https://api.oto.sa/rest/v1", NewClient(config.ShippingConfig{Env: "production"}).baseURL)
}

package service

import (
	"context"
	"os"
	"testing"
	"time"

	"gamesup-server/config"
	"gamesup-server/internal/models"
	"gamesup-server/internal/payment"
	"gamesup-server/internal/redisclient"
	"gamesup-server/internal/store"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newVerifyFixture connects to TEST_DATABASE_URL, seeds one pending card
// order, and returns a payment service wired to the mock gateway. Tests
// using it are skipped when the variable is unset.
func newVerifyFixture(t *testing.T, redis *redisclient.Client) (*PaymentService, *store.Store, string) {
	t.Helper()

	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("Integration test - set TEST_DATABASE_URL to run")
	}

	require.NoError(t, store.Migrate(url))
	st, err := store.NewStore(url)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	product := &models.Product{
		Name:         "Test Product " + uuid.New().String()[:8],
		CategorySlug: "games",
		Price:        59.99,
		Cost:         40,
		Stock:        2,
	}
	require.NoError(t, st.CreateProduct(context.Background(), product))

	checkout := &store.Checkout{
		OrderNumber:   "ORD-test-" + uuid.New().String()[:8],
		CustomerName:  "Test Customer",
		CustomerEmail: "customer@example.com",
		PaymentMethod: models.PaymentMethodCard,
		Lines: []store.CartLine{
			{ProductID: product.ID, Name: product.Name, Quantity: 1, UnitPrice: product.Price},
		},
	}
	_, _, err = st.AllocateOrder(context.Background(), checkout)
	require.NoError(t, err)

	ps := NewPaymentService(st, redis, payment.NewGateway(config.PaymentConfig{}), nil)
	return ps, st, checkout.OrderNumber
}

func newVerifyRedis(t *testing.T) *redisclient.Client {
	t.Helper()

	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("Integration test - set TEST_REDIS_ADDR to run")
	}

	redis, err := redisclient.NewClient(addr, "", 0)
	require.NoError(t, err)
	t.Cleanup(func() { redis.Close() })
	return redis
}

// A claim marker left behind by a callback that never reached the database
// must not absorb later callbacks: the order still has to land on paid.
func TestVerifyPaymentHeldClaimStillMarksOrderPaid(t *testing.T) {
	redis := newVerifyRedis(t)
	ps, st, orderNumber := newVerifyFixture(t, redis)
	ctx := context.Background()

	tranRef := "mock_ref_" + orderNumber
	got, err := redis.ClaimVerification(ctx, tranRef, time.Minute)
	require.NoError(t, err)
	require.True(t, got, "fixture expects a fresh claim")

	result, err := ps.VerifyPayment(ctx, tranRef, orderNumber)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, models.OrderStatusPaid, result.Status)

	order, err := st.GetOrderByNumber(ctx, orderNumber)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPaid, order.Status)
}

func TestVerifyPaymentIdempotentWithoutClaimCache(t *testing.T) {
	ps, st, orderNumber := newVerifyFixture(t, nil)
	ctx := context.Background()

	tranRef := "mock_ref_" + orderNumber
	for i := 0; i < 2; i++ {
		result, err := ps.VerifyPayment(ctx, tranRef, orderNumber)
		require.NoError(t, err)
		assert.True(t, result.Success)
		assert.Equal(t, models.OrderStatusPaid, result.Status)
	}

	order, err := st.GetOrderByNumber(ctx, orderNumber)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPaid, order.Status)
}

func TestVerifyPaymentDeclinedKeepsOrderStatus(t *testing.T) {
	ps, st, orderNumber := newVerifyFixture(t, nil)
	ctx := context.Background()

	result, err := ps.VerifyPayment(ctx, "declined_ref", orderNumber)
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, models.OrderStatusPending, result.Status)

	order, err := st.GetOrderByNumber(ctx, orderNumber)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPending, order.Status)
}

package store

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"

	"gamesup-server/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestStore connects to the database named by TEST_DATABASE_URL and
// applies migrations. Tests using it are skipped when the variable is unset.
func newTestStore(t *testing.T) *Store {
	t.Helper()

	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("Integration test - set TEST_DATABASE_URL to run")
	}

	require.NoError(t, Migrate(url))

	store, err := NewStore(url)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func seedProduct(t *testing.T, store *Store, stock int, pool []models.Credential) *models.Product {
	t.Helper()

	product := &models.Product{
		Name:         "Test Product " + uuid.New().String()[:8],
		CategorySlug: "games",
		Price:        59.99,
		Cost:         40,
		Stock:        stock,
		DigitalItems: pool,
	}
	require.NoError(t, store.CreateProduct(context.Background(), product))
	return product
}

func testCheckout(lines ...CartLine) *Checkout {
	return &Checkout{
		OrderNumber:   "ORD-test-" + uuid.New().String()[:8],
		CustomerName:  "Test Customer",
		CustomerEmail: "customer@example.com",
		PaymentMethod: models.PaymentMethodCard,
		Lines:         lines,
	}
}

func TestAllocateOrderAssignsCredentialsInOrder(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	product := seedProduct(t, store, 3, []models.Credential{
		{Email: "first@pool.com", Password: "p1"},
		{Email: "second@pool.com", Password: "p2"},
		{Email: "third@pool.com", Password: "p3"},
	})

	order, purchased, err := store.AllocateOrder(ctx, testCheckout(CartLine{
		ProductID: product.ID, Quantity: 2, UnitPrice: product.Price,
	}))
	require.NoError(t, err)
	require.Len(t, purchased, 2)

	// Oldest credentials go first.
	require.NotNil(t, purchased[0].Credential)
	assert.Equal(t, "first@pool.com", purchased[0].Credential.Email)
	assert.Equal(t, "second@pool.com", purchased[1].Credential.Email)

	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.InDelta(t, 2*product.Price, order.TotalAmount, 0.001)

	// Stock dropped by one per unit; the pool shrank to one.
	reloaded, err := store.GetProductByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, reloaded.Stock)
	require.Len(t, reloaded.DigitalItems, 1)
	assert.Equal(t, "third@pool.com", reloaded.DigitalItems[0].Email)

	// One header, two lines, credential snapshots on the lines.
	lines, err := store.GetOrderLines(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, order.ID, lines[0].OrderID)
	assert.Equal(t, "first@pool.com", lines[0].CredentialEmail)
	assert.NotZero(t, lines[0].InventoryID)
}

func TestAllocateOrderDrainsPoolBeforePhysicalStock(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	product := seedProduct(t, store, 5, []models.Credential{
		{Code: "A"}, {Code: "B"},
	})

	checkout := testCheckout(CartLine{ProductID: product.ID, Quantity: 2, UnitPrice: 10})
	checkout.PaymentMethod = models.PaymentMethodCOD

	order, purchased, err := store.AllocateOrder(ctx, checkout)
	require.NoError(t, err)
	require.Len(t, purchased, 2)

	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.Equal(t, "A", purchased[0].Credential.Code)
	assert.Equal(t, "B", purchased[1].Credential.Code)

	reloaded, err := store.GetProductByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, reloaded.Stock)
	assert.Empty(t, reloaded.DigitalItems)

	lines, err := store.GetOrderLines(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, lines, 2)
	for _, line := range lines {
		assert.Equal(t, order.ID, line.OrderID)
	}
}

func TestAllocateOrderRollsBackOnOutOfStock(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	inStock := seedProduct(t, store, 5, []models.Credential{{Code: "AAAA"}})
	soldOut := seedProduct(t, store, 0, nil)

	checkout := testCheckout(
		CartLine{ProductID: inStock.ID, Quantity: 1, UnitPrice: inStock.Price},
		CartLine{ProductID: soldOut.ID, Quantity: 1, UnitPrice: soldOut.Price},
	)

	_, _, err := store.AllocateOrder(ctx, checkout)
	var oos *models.OutOfStockError
	require.ErrorAs(t, err, &oos)
	assert.Equal(t, soldOut.Name, oos.Name)

	// The failing second line must undo the first: stock untouched, pool
	// untouched, no order row.
	reloaded, err := store.GetProductByID(ctx, inStock.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, reloaded.Stock)
	assert.Len(t, reloaded.DigitalItems, 1)

	_, err = store.GetOrderByNumber(ctx, checkout.OrderNumber)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestAllocateOrderRollsBackWhenLineExceedsStock(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	product := seedProduct(t, store, 1, nil)

	// One line asking for two units of a product that can sell one. The
	// second unit re-locks the row, sees the in-transaction decrement and
	// an empty pool, and the whole order has to unwind.
	checkout := testCheckout(CartLine{
		ProductID: product.ID, Quantity: 2, UnitPrice: product.Price,
	})
	_, _, err := store.AllocateOrder(ctx, checkout)
	var oos *models.OutOfStockError
	require.ErrorAs(t, err, &oos)
	assert.Equal(t, product.Name, oos.Name)

	reloaded, err := store.GetProductByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, reloaded.Stock)
	assert.Empty(t, reloaded.DigitalItems)

	_, err = store.GetOrderByNumber(ctx, checkout.OrderNumber)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestAllocateOrderUnknownProduct(t *testing.T) {
	store := newTestStore(t)

	_, _, err := store.AllocateOrder(context.Background(), testCheckout(CartLine{
		ProductID: 999999999, Name: "Ghost Game", Quantity: 1, UnitPrice: 10,
	}))
	var pnf *models.ProductNotFoundError
	require.ErrorAs(t, err, &pnf)
	assert.Equal(t, "Ghost Game", pnf.Name)
}

func TestAllocateOrderPhysicalStockFloorsAtZero(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	// Pool larger than stock: credential units keep selling even after the
	// stock counter bottoms out at zero.
	product := seedProduct(t, store, 1, []models.Credential{
		{Code: "K1"}, {Code: "K2"}, {Code: "K3"},
	})

	_, purchased, err := store.AllocateOrder(ctx, testCheckout(CartLine{
		ProductID: product.ID, Quantity: 3, UnitPrice: product.Price,
	}))
	require.NoError(t, err)
	assert.Len(t, purchased, 3)

	reloaded, err := store.GetProductByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, reloaded.Stock)
	assert.Empty(t, reloaded.DigitalItems)
}

func TestAllocateOrderDuplicateOrderNumber(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	product := seedProduct(t, store, 10, nil)
	checkout := testCheckout(CartLine{ProductID: product.ID, Quantity: 1, UnitPrice: 9.99})

	_, _, err := store.AllocateOrder(ctx, checkout)
	require.NoError(t, err)

	dup := testCheckout(CartLine{ProductID: product.ID, Quantity: 1, UnitPrice: 9.99})
	dup.OrderNumber = checkout.OrderNumber
	_, _, err = store.AllocateOrder(ctx, dup)
	assert.ErrorIs(t, err, models.ErrOrderNumberTaken)
}

func TestConcurrentCheckoutsNeverOversell(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	// Two units of stock, one of them a credential: at most two checkouts
	// can ever win.
	product := seedProduct(t, store, 2, []models.Credential{{Code: "ONLY-ONE"}})

	const attempts = 8
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	credentials := make(chan string, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, purchased, err := store.AllocateOrder(ctx, testCheckout(CartLine{
				ProductID: product.ID, Quantity: 1, UnitPrice: product.Price,
			}))
			errs[i] = err
			if err == nil && purchased[0].Credential != nil {
				credentials <- purchased[0].Credential.Code
			}
		}(i)
	}
	wg.Wait()
	close(credentials)

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			var oos *models.OutOfStockError
			assert.ErrorAs(t, err, &oos)
		}
	}
	assert.Equal(t, 2, succeeded, "exactly the seeded units can sell")

	// The credential went to exactly one winner.
	assert.Len(t, credentials, 1)

	reloaded, err := store.GetProductByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, reloaded.Stock)
	assert.Empty(t, reloaded.DigitalItems)
}

func TestMarkOrderPaidIsIdempotent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	product := seedProduct(t, store, 5, nil)
	checkout := testCheckout(CartLine{ProductID: product.ID, Quantity: 1, UnitPrice: 19.99})
	order, _, err := store.AllocateOrder(ctx, checkout)
	require.NoError(t, err)

	transitioned, err := store.MarkOrderPaid(ctx, order.OrderNumber)
	require.NoError(t, err)
	assert.True(t, transitioned)

	// A duplicate callback is absorbed.
	transitioned, err = store.MarkOrderPaid(ctx, order.OrderNumber)
	require.NoError(t, err)
	assert.False(t, transitioned)

	reloaded, err := store.GetOrderByNumber(ctx, order.OrderNumber)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPaid, reloaded.Status)
}

func TestUpdateOrderStatus(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	product := seedProduct(t, store, 5, nil)
	order, _, err := store.AllocateOrder(ctx, testCheckout(CartLine{
		ProductID: product.ID, Quantity: 1, UnitPrice: 19.99,
	}))
	require.NoError(t, err)

	require.NoError(t, store.UpdateOrderStatus(ctx, order.OrderNumber, models.OrderStatusShipped))

	reloaded, err := store.GetOrderByNumber(ctx, order.OrderNumber)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusShipped, reloaded.Status)

	err = store.UpdateOrderStatus(ctx, "ORD-missing", models.OrderStatusShipped)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestUpdateProductPreservesAssignedCredentials(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	product := seedProduct(t, store, 2, []models.Credential{
		{Code: "SOLD"}, {Code: "UNSOLD"},
	})

	_, purchased, err := store.AllocateOrder(ctx, testCheckout(CartLine{
		ProductID: product.ID, Quantity: 1, UnitPrice: product.Price,
	}))
	require.NoError(t, err)
	require.Equal(t, "SOLD", purchased[0].Credential.Code)

	// Replacing the pool only touches unsold rows.
	product.DigitalItems = []models.Credential{{Code: "FRESH"}}
	require.NoError(t, store.UpdateProduct(ctx, product))

	reloaded, err := store.GetProductByID(ctx, product.ID)
	require.NoError(t, err)
	require.Len(t, reloaded.DigitalItems, 1)
	assert.Equal(t, "FRESH", reloaded.DigitalItems[0].Code)

	// The sold line still carries its snapshot.
	sold, err := store.ListSoldLines(ctx)
	require.NoError(t, err)
	found := false
	for _, line := range sold {
		if line.CredentialCode == "SOLD" && line.ProductID == product.ID {
			found = true
		}
	}
	assert.True(t, found, "sold credential snapshot should survive pool replacement")
}

func TestProcessedEvents(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	eventID := uuid.New().String()

	processed, err := store.IsEventProcessed(ctx, eventID)
	require.NoError(t, err)
	assert.False(t, processed)

	require.NoError(t, store.MarkEventProcessed(ctx, eventID, models.EventTypeOrderPaid))

	processed, err = store.IsEventProcessed(ctx, eventID)
	require.NoError(t, err)
	assert.True(t, processed)
}

func TestListOrdersFilters(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	product := seedProduct(t, store, 10, nil)
	email := fmt.Sprintf("filter-%s@example.com", uuid.New().String()[:8])

	checkout := testCheckout(CartLine{ProductID: product.ID, Quantity: 1, UnitPrice: 5})
	checkout.CustomerEmail = email
	order, _, err := store.AllocateOrder(ctx, checkout)
	require.NoError(t, err)

	byEmail, err := store.ListOrders(ctx, OrderFilter{Email: email})
	require.NoError(t, err)
	require.Len(t, byEmail, 1)
	assert.Equal(t, order.OrderNumber, byEmail[0].OrderNumber)

	bySearch, err := store.ListOrders(ctx, OrderFilter{Search: order.OrderNumber})
	require.NoError(t, err)
	require.Len(t, bySearch, 1)

	none, err := store.ListOrders(ctx, OrderFilter{Email: email, Status: models.OrderStatusCancelled})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestGetOrderLinesBatch(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	product := seedProduct(t, store, 10, nil)

	first, _, err := store.AllocateOrder(ctx, testCheckout(
		CartLine{ProductID: product.ID, Name: product.Name, Quantity: 2, UnitPrice: product.Price},
	))
	require.NoError(t, err)
	second, _, err := store.AllocateOrder(ctx, testCheckout(
		CartLine{ProductID: product.ID, Name: product.Name, Quantity: 1, UnitPrice: product.Price},
	))
	require.NoError(t, err)

	byOrder, err := store.GetOrderLinesBatch(ctx, []int64{first.ID, second.ID})
	require.NoError(t, err)
	require.Len(t, byOrder, 2)
	assert.Len(t, byOrder[first.ID], 2)
	assert.Len(t, byOrder[second.ID], 1)
	for _, line := range byOrder[first.ID] {
		assert.Equal(t, first.ID, line.OrderID)
		assert.Equal(t, product.Name, line.ProductName)
	}

	empty, err := store.GetOrderLinesBatch(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

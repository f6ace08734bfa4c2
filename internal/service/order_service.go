package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gamesup-server/internal/broker"
	"gamesup-server/internal/models"
	"gamesup-server/internal/store"
	"gamesup-server/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// OrderService turns carts into committed orders and answers order queries.
type OrderService struct {
	store          *store.Store
	eventPublisher *broker.EventPublisher
	logger         *zap.Logger
}

// NewOrderService creates a new order service.
func NewOrderService(store *store.Store, eventPublisher *broker.EventPublisher) *OrderService {
	return &OrderService{
		store:          store,
		eventPublisher: eventPublisher,
		logger:         util.GetLogger(),
	}
}

// CartItemRequest is one cart line as the storefront sends it.
type CartItemRequest struct {
	ID       int64   `json:"id" binding:"required"`
	Name     string  `json:"name"`
	Quantity int     `json:"quantity" binding:"required,min=1"`
	Price    float64 `json:"price"`
}

// PlaceOrderRequest is the checkout payload.
type PlaceOrderRequest struct {
	CustomerName  string            `json:"customerName" binding:"required"`
	CustomerEmail string            `json:"customerEmail" binding:"required,email"`
	Items         []CartItemRequest `json:"items" binding:"required,min=1,dive"`
	PaymentMethod string            `json:"paymentMethod"`
	PaymentProof  string            `json:"paymentProof"`
}

// PlaceOrderResponse is the receipt returned to the storefront.
type PlaceOrderResponse struct {
	OrderNumber    string                `json:"orderNumber"`
	Status         string                `json:"status"`
	PurchasedItems []store.PurchasedItem `json:"purchasedItems"`
}

// newOrderNumber builds a collision-resistant order number. The unique
// constraint on orders.order_number is the real guarantee; a collision
// surfaces as a retryable error.
func newOrderNumber() string {
	return fmt.Sprintf("ORD-%d-%s", time.Now().UnixMilli(), uuid.New().String()[:8])
}

// PlaceOrder runs the allocation transaction for a cart and publishes the
// resulting OrderPlaced event. Failures leave no trace: the transaction rolls
// back all units of the checkout.
func (s *OrderService) PlaceOrder(ctx context.Context, req *PlaceOrderRequest) (*PlaceOrderResponse, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.PlaceOrder")
	defer span.End()

	start := time.Now()
	defer func() {
		util.AllocationLatency.Observe(time.Since(start).Seconds())
	}()

	if req.PaymentMethod == "" {
		req.PaymentMethod = models.PaymentMethodCard
	}

	checkout := &store.Checkout{
		OrderNumber:   newOrderNumber(),
		CustomerName:  req.CustomerName,
		CustomerEmail: req.CustomerEmail,
		PaymentMethod: req.PaymentMethod,
		PaymentProof:  req.PaymentProof,
	}
	for _, item := range req.Items {
		checkout.Lines = append(checkout.Lines, store.CartLine{
			ProductID: item.ID,
			Name:      item.Name,
			Quantity:  item.Quantity,
			UnitPrice: item.Price,
		})
	}

	order, purchased, err := s.store.AllocateOrder(ctx, checkout)
	if err != nil {
		util.OrdersFailedTotal.WithLabelValues(failureReason(err)).Inc()
		return nil, err
	}

	util.OrdersPlacedTotal.Inc()
	util.OrderUnitsAllocatedTotal.Add(float64(len(purchased)))
	for _, item := range purchased {
		if item.Credential != nil {
			util.CredentialsAssignedTotal.Inc()
		}
	}

	s.logger.Info("Order placed",
		zap.String("order_number", order.OrderNumber),
		zap.Int("units", len(purchased)),
		zap.String("status", order.Status))

	event := &models.OrderPlacedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeOrderPlaced,
			Timestamp: time.Now(),
		},
		OrderNumber:   order.OrderNumber,
		CustomerName:  order.CustomerName,
		CustomerEmail: order.CustomerEmail,
		Status:        order.Status,
		TotalAmount:   order.TotalAmount,
	}
	for _, item := range purchased {
		event.Lines = append(event.Lines, models.OrderLineData{
			ProductName: item.ProductName,
			UnitPrice:   item.Price,
			Digital:     item.Credential != nil,
		})
	}

	if err := s.eventPublisher.PublishOrderPlaced(ctx, event); err != nil {
		// The order is committed; a lost event only delays downstream work.
		s.logger.Error("Failed to publish OrderPlaced event", zap.Error(err))
	}

	return &PlaceOrderResponse{
		OrderNumber:    order.OrderNumber,
		Status:         order.Status,
		PurchasedItems: purchased,
	}, nil
}

func failureReason(err error) string {
	var pnf *models.ProductNotFoundError
	var oos *models.OutOfStockError
	switch {
	case errors.As(err, &pnf):
		return "product_not_found"
	case errors.As(err, &oos):
		return "out_of_stock"
	case errors.Is(err, models.ErrOrderNumberTaken):
		return "order_number_conflict"
	default:
		return "db_error"
	}
}

// OrderWithLines is an order header plus its purchased units.
type OrderWithLines struct {
	models.Order
	Lines []models.OrderLine `json:"items"`
}

// GetOrder retrieves an order with its lines by order number.
func (s *OrderService) GetOrder(ctx context.Context, orderNumber string) (*OrderWithLines, error) {
	order, err := s.store.GetOrderByNumber(ctx, orderNumber)
	if err != nil {
		return nil, err
	}
	lines, err := s.store.GetOrderLines(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	return &OrderWithLines{Order: *order, Lines: lines}, nil
}

// ListOrders retrieves order headers with lines for the admin console.
func (s *OrderService) ListOrders(ctx context.Context, filter store.OrderFilter) ([]OrderWithLines, error) {
	orders, err := s.store.ListOrders(ctx, filter)
	if err != nil {
		return nil, err
	}

	ids := make([]int64, len(orders))
	for i, order := range orders {
		ids[i] = order.ID
	}
	linesByOrder, err := s.store.GetOrderLinesBatch(ctx, ids)
	if err != nil {
		return nil, err
	}

	result := make([]OrderWithLines, 0, len(orders))
	for _, order := range orders {
		result = append(result, OrderWithLines{Order: order, Lines: linesByOrder[order.ID]})
	}
	return result, nil
}

// ListCustomerOrders retrieves a customer's order history, newest first.
func (s *OrderService) ListCustomerOrders(ctx context.Context, email string) ([]OrderWithLines, error) {
	return s.ListOrders(ctx, store.OrderFilter{Email: email})
}

// UpdateStatus moves an order to the given status.
func (s *OrderService) UpdateStatus(ctx context.Context, orderNumber, status string) error {
	if err := s.store.UpdateOrderStatus(ctx, orderNumber, status); err != nil {
		return err
	}

	if status == models.OrderStatusCancelled {
		event := &models.OrderCancelledEvent{
			BaseEvent: models.BaseEvent{
				EventID:   uuid.New().String(),
				EventType: models.EventTypeOrderCancelled,
				Timestamp: time.Now(),
			},
			OrderNumber: orderNumber,
			Reason:      "cancelled_by_admin",
		}
		if err := s.eventPublisher.PublishOrderCancelled(ctx, event); err != nil {
			s.logger.Error("Failed to publish OrderCancelled event", zap.Error(err))
		}
	}
	return nil
}

// UpdateLine applies an admin edit to one purchased unit.
func (s *OrderService) UpdateLine(ctx context.Context, line *models.OrderLine) error {
	return s.store.UpdateOrderLine(ctx, line)
}

// ListSoldItems retrieves every purchased unit carrying a credential.
func (s *OrderService) ListSoldItems(ctx context.Context) ([]store.SoldLine, error) {
	return s.store.ListSoldLines(ctx)
}

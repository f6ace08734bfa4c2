package service

import (
	"context"
	"time"

	"gamesup-server/internal/broker"
	"gamesup-server/internal/models"
	"gamesup-server/internal/payment"
	"gamesup-server/internal/redisclient"
	"gamesup-server/internal/store"
	"gamesup-server/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// verificationClaimTTL bounds how long a duplicate callback is suppressed.
const verificationClaimTTL = 24 * time.Hour

// PaymentService fronts the gateway adapter: hosted-page creation before the
// customer pays, verification and status advancement after the callback.
type PaymentService struct {
	store          *store.Store
	redis          *redisclient.Client
	gateway        *payment.Gateway
	eventPublisher *broker.EventPublisher
	logger         *zap.Logger
}

// NewPaymentService creates a new payment service.
func NewPaymentService(
	store *store.Store,
	redis *redisclient.Client,
	gateway *payment.Gateway,
	eventPublisher *broker.EventPublisher,
) *PaymentService {
	return &PaymentService{
		store:          store,
		redis:          redis,
		gateway:        gateway,
		eventPublisher: eventPublisher,
		logger:         util.GetLogger(),
	}
}

// CreatePaymentRequest asks for a hosted payment page for a placed order.
type CreatePaymentRequest struct {
	OrderNumber   string          `json:"orderNumber" binding:"required"`
	CustomerName  string          `json:"customerName"`
	CustomerEmail string          `json:"customerEmail"`
	Total         float64         `json:"total"`
	Address       payment.Address `json:"shippingAddress"`
	ReturnURL     string          `json:"-"`
}

// CreatePayment builds the gateway's hosted payment page for an order. The
// order must already be allocated; the gateway never touches inventory.
func (ps *PaymentService) CreatePayment(ctx context.Context, req *CreatePaymentRequest) (*payment.PaymentPage, error) {
	ctx, span := util.StartSpan(ctx, "PaymentService.CreatePayment")
	defer span.End()

	order, err := ps.store.GetOrderByNumber(ctx, req.OrderNumber)
	if err != nil {
		return nil, err
	}

	details := payment.OrderDetails{
		OrderNumber:   order.OrderNumber,
		CustomerName:  order.CustomerName,
		CustomerEmail: order.CustomerEmail,
		Total:         order.TotalAmount,
		Address:       req.Address,
	}

	page, err := ps.gateway.CreatePaymentPage(ctx, details, req.ReturnURL)
	if err != nil {
		return nil, err
	}

	util.PaymentPagesCreatedTotal.Inc()
	ps.logger.Info("Payment page created",
		zap.String("order_number", order.OrderNumber),
		zap.String("tran_ref", page.TranRef))
	return page, nil
}

// VerifyResult reports the outcome of a verification callback.
type VerifyResult struct {
	Success bool   `json:"success"`
	Status  string `json:"status"`
}

// VerifyPayment checks a transaction reference with the gateway and, when it
// settled, advances the order to paid. Safe to call repeatedly for the same
// reference: the paid transition happens at most once and duplicate callbacks
// are absorbed.
func (ps *PaymentService) VerifyPayment(ctx context.Context, tranRef, orderNumber string) (*VerifyResult, error) {
	ctx, span := util.StartSpan(ctx, "PaymentService.VerifyPayment")
	defer span.End()

	order, err := ps.store.GetOrderByNumber(ctx, orderNumber)
	if err != nil {
		return nil, err
	}

	verification, err := ps.gateway.VerifyPayment(ctx, tranRef)
	if err != nil {
		util.PaymentVerificationsTotal.WithLabelValues("gateway_error").Inc()
		return nil, err
	}

	if !verification.Success {
		// A declined payment is a terminal business outcome; the order keeps
		// its prior status.
		util.PaymentVerificationsTotal.WithLabelValues("declined").Inc()
		ps.logger.Warn("Payment verification declined",
			zap.String("order_number", orderNumber),
			zap.String("tran_ref", tranRef))
		return &VerifyResult{Success: false, Status: order.Status}, nil
	}

	// The claim only flags duplicate callbacks for logging; the conditional
	// update below is the idempotency guarantee. A claim held by a caller
	// that crashed before the update must not stop this one from landing it.
	claimed := false
	if ps.redis != nil {
		got, err := ps.redis.ClaimVerification(ctx, tranRef, verificationClaimTTL)
		if err != nil {
			ps.logger.Warn("Verification claim failed, relying on database",
				zap.Error(err))
		} else if !got {
			ps.logger.Debug("Duplicate verification callback",
				zap.String("tran_ref", tranRef))
		} else {
			claimed = true
		}
	}

	transitioned, err := ps.store.MarkOrderPaid(ctx, orderNumber)
	if err != nil {
		if claimed {
			// Let the next callback retry cleanly.
			if relErr := ps.redis.ReleaseVerification(ctx, tranRef); relErr != nil {
				ps.logger.Warn("Failed to release verification claim", zap.Error(relErr))
			}
		}
		return nil, err
	}

	if !transitioned {
		util.PaymentVerificationsTotal.WithLabelValues("duplicate").Inc()
		return &VerifyResult{Success: true, Status: models.OrderStatusPaid}, nil
	}

	util.PaymentVerificationsTotal.WithLabelValues("success").Inc()
	ps.logger.Info("Order paid",
		zap.String("order_number", orderNumber),
		zap.String("tran_ref", tranRef))

	event := &models.OrderPaidEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeOrderPaid,
			Timestamp: time.Now(),
		},
		OrderNumber:   orderNumber,
		CustomerName:  order.CustomerName,
		CustomerEmail: order.CustomerEmail,
		TranRef:       tranRef,
	}
	if ps.eventPublisher != nil {
		if err := ps.eventPublisher.PublishOrderPaid(ctx, event); err != nil {
			ps.logger.Error("Failed to publish OrderPaid event", zap.Error(err))
		}
	}

	return &VerifyResult{Success: true, Status: models.OrderStatusPaid}, nil
}

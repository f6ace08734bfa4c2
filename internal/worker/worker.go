package worker

import (
	"context"
	"time"

	"gamesup-server/internal/broker"
	"gamesup-server/internal/models"
	"gamesup-server/internal/shipping"
	"gamesup-server/internal/store"
	"gamesup-server/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ShipmentWorker books carrier shipments for paid orders. It consumes
// OrderPaid events, creates a shipment with the carrier, advances the order
// to processing and publishes ShipmentCreated. Events are deduplicated
// through the processed_events table so redeliveries are harmless.
type ShipmentWorker struct {
	consumer       *broker.Consumer
	eventHandler   *broker.EventHandler
	store          *store.Store
	carrier        *shipping.Client
	eventPublisher *broker.EventPublisher
	logger         *zap.Logger
}

// NewShipmentWorker creates a new shipment worker.
func NewShipmentWorker(
	consumer *broker.Consumer,
	store *store.Store,
	carrier *shipping.Client,
	eventPublisher *broker.EventPublisher,
) *ShipmentWorker {
	w := &ShipmentWorker{
		consumer:       consumer,
		store:          store,
		carrier:        carrier,
		eventPublisher: eventPublisher,
		logger:         util.GetLogger(),
	}

	eventHandler := broker.NewEventHandler()
	eventHandler.OnOrderPaid(w.handleOrderPaid)
	w.eventHandler = eventHandler

	return w
}

// Start starts the worker. Blocks until the context is cancelled.
func (w *ShipmentWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting shipment worker")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker.
func (w *ShipmentWorker) Stop() error {
	w.logger.Info("Stopping shipment worker")
	return w.consumer.Close()
}

func (w *ShipmentWorker) handleOrderPaid(ctx context.Context, event *models.OrderPaidEvent) error {
	processed, err := w.store.IsEventProcessed(ctx, event.EventID)
	if err != nil {
		return err
	}
	if processed {
		w.logger.Debug("Skipping already processed event", zap.String("event_id", event.EventID))
		return nil
	}

	order, err := w.store.GetOrderByNumber(ctx, event.OrderNumber)
	if err != nil {
		return err
	}

	shipment, err := w.carrier.CreateShipment(ctx, shipping.ShipmentRequest{
		OrderNumber:   order.OrderNumber,
		CustomerName:  order.CustomerName,
		CustomerEmail: order.CustomerEmail,
		Total:         order.TotalAmount,
	})
	if err != nil {
		return err
	}
	util.ShipmentsCreatedTotal.Inc()

	if err := w.store.UpdateOrderStatus(ctx, order.OrderNumber, models.OrderStatusProcessing); err != nil {
		return err
	}

	if err := w.eventPublisher.PublishShipmentCreated(ctx, &models.ShipmentCreatedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeShipmentCreated,
			Timestamp: time.Now(),
		},
		OrderNumber: order.OrderNumber,
		ShipmentID:  shipment.ID,
		AWB:         shipment.AWB,
	}); err != nil {
		w.logger.Error("Failed to publish ShipmentCreated event", zap.Error(err))
	}

	w.logger.Info("Shipment created",
		zap.String("order_number", order.OrderNumber),
		zap.String("shipment_id", shipment.ID),
		zap.String("awb", shipment.AWB))

	return w.store.MarkEventProcessed(ctx, event.EventID, event.EventType)
}

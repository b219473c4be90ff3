package realtime

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/harborline/storefront-sync/internal/notify"
	"github.com/harborline/storefront-sync/internal/state"
	"github.com/harborline/storefront-sync/pkg/db/models"
	"github.com/harborline/storefront-sync/pkg/enums"
	"github.com/harborline/storefront-sync/pkg/errors"
	"github.com/harborline/storefront-sync/pkg/logger"
	"github.com/harborline/storefront-sync/pkg/metrics"
)

// Dispatcher merges inbound events into local state. Delivery is
// at-least-once and the dispatcher never deduplicates; merge rules are
// idempotent (insert-or-replace by id, patch in place) and synthesized
// notifications carry a correlation id so upstream consumers can collapse
// duplicates.
type Dispatcher struct {
	messages *state.MessageLog
	orders   *state.OrderBook
	inbox    *notify.Service
	metrics  *metrics.SyncMetrics
	logg     *logger.Logger
}

type DispatcherParams struct {
	Messages *state.MessageLog
	Orders   *state.OrderBook
	Inbox    *notify.Service
	Metrics  *metrics.SyncMetrics
	Logger   *logger.Logger
}

func NewDispatcher(params DispatcherParams) (*Dispatcher, error) {
	if params.Messages == nil {
		return nil, errors.New(errors.CodeValidation, "message log is required")
	}
	if params.Orders == nil {
		return nil, errors.New(errors.CodeValidation, "order book is required")
	}
	if params.Inbox == nil {
		return nil, errors.New(errors.CodeValidation, "notification inbox is required")
	}
	if params.Logger == nil {
		params.Logger = logger.New(logger.Options{ServiceName: "realtime"})
	}
	return &Dispatcher{
		messages: params.Messages,
		orders:   params.Orders,
		inbox:    params.Inbox,
		metrics:  params.Metrics,
		logg:     params.Logger,
	}, nil
}

// Dispatch applies one event. Unknown topics are logged and skipped so a
// server rolling out new streams does not break older sessions.
func (d *Dispatcher) Dispatch(ctx context.Context, event Event) error {
	ctx = d.logg.WithTopic(ctx, string(event.Topic))
	d.metrics.IncRealtimeEvent(string(event.Topic))

	switch event.Topic {
	case TopicMessage, TopicMessageUpdated:
		return d.mergeMessage(ctx, event.Data)
	case TopicOrderUpdated:
		return d.mergeOrder(ctx, event.Data)
	case TopicShipmentUpdated:
		return d.mergeShipment(ctx, event.Data)
	case TopicNotification:
		return d.mergeNotification(ctx, event.Data)
	default:
		d.logg.Warn(ctx, "skipping event on unknown topic")
		return nil
	}
}

// mergeMessage inserts or replaces the chat entry with the same id, so a
// redelivered or updated message never duplicates.
func (d *Dispatcher) mergeMessage(ctx context.Context, data json.RawMessage) error {
	var msg state.ChatMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return errors.Wrap(errors.CodeValidation, err, "decoding message event")
	}
	if msg.ID == "" {
		return errors.New(errors.CodeValidation, "message event without id")
	}
	d.messages.Upsert(msg)
	return nil
}

type orderEventPayload struct {
	OrderID string         `json:"orderId"`
	Fields  map[string]any `json:"fields"`
}

// mergeOrder patches the referenced order's fields in place and synthesizes
// an inbox notification correlated to the order id.
func (d *Dispatcher) mergeOrder(ctx context.Context, data json.RawMessage) error {
	var payload orderEventPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return errors.Wrap(errors.CodeValidation, err, "decoding order event")
	}
	if payload.OrderID == "" {
		return errors.New(errors.CodeValidation, "order event without order id")
	}

	d.orders.Patch(payload.OrderID, payload.Fields)

	correlation := payload.OrderID
	if _, err := d.inbox.Append(ctx, models.Notification{
		Type:          enums.NotificationTypeOrder,
		Title:         "Order Updated",
		Body:          fmt.Sprintf("Order %s has been updated.", payload.OrderID),
		CorrelationID: &correlation,
	}); err != nil {
		return err
	}
	return nil
}

type shipmentEventPayload struct {
	ShipmentID string `json:"shipmentId"`
	OrderID    string `json:"orderId"`
	Status     string `json:"status"`
}

// mergeShipment synthesizes a correlated notification only; shipment detail
// itself is not tracked locally.
func (d *Dispatcher) mergeShipment(ctx context.Context, data json.RawMessage) error {
	var payload shipmentEventPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return errors.Wrap(errors.CodeValidation, err, "decoding shipment event")
	}
	if payload.ShipmentID == "" {
		return errors.New(errors.CodeValidation, "shipment event without shipment id")
	}

	body := fmt.Sprintf("Shipment %s has been updated.", payload.ShipmentID)
	if payload.Status != "" {
		body = fmt.Sprintf("Shipment %s is now %s.", payload.ShipmentID, payload.Status)
	}

	correlation := payload.ShipmentID
	if _, err := d.inbox.Append(ctx, models.Notification{
		Type:          enums.NotificationTypeShipment,
		Title:         "Shipment Updated",
		Body:          body,
		CorrelationID: &correlation,
	}); err != nil {
		return err
	}
	return nil
}

type notificationEventPayload struct {
	Type  string `json:"type"`
	Title string `json:"title"`
	Body  string `json:"body"`
}

// mergeNotification inserts the server-authored notification verbatim.
func (d *Dispatcher) mergeNotification(ctx context.Context, data json.RawMessage) error {
	var payload notificationEventPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return errors.Wrap(errors.CodeValidation, err, "decoding notification event")
	}
	if payload.Title == "" {
		return errors.New(errors.CodeValidation, "notification event without title")
	}

	kind, err := enums.ParseNotificationType(payload.Type)
	if err != nil {
		kind = enums.NotificationTypeGeneral
	}
	if _, err := d.inbox.Append(ctx, models.Notification{
		Type:  kind,
		Title: payload.Title,
		Body:  payload.Body,
	}); err != nil {
		return err
	}
	return nil
}

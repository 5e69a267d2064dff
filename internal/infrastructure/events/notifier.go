package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"storefront/internal/usecase"
)

type Publisher interface {
	Publish(ctx context.Context, exchange, key string, msg amqp.Publishing) error
}

// OrderNotifier publishes completed orders for the referral programme.
type OrderNotifier struct {
	Publisher Publisher
	Source    string
}

func (n *OrderNotifier) OrderCompleted(ctx context.Context, ev usecase.OrderCompleted) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal order completed: %w", err)
	}
	msg := amqp.Publishing{
		DeliveryMode:  amqp.Persistent,
		ContentType:   "application/json",
		Body:          body,
		MessageId:     uuid.NewString(),
		CorrelationId: strconv.Itoa(ev.BusinessOrderID),
		Timestamp:     ev.CompletedAt,
		Headers:       amqp.Table{"x-source": n.Source},
	}
	if err := n.Publisher.Publish(ctx, OrdersExchange, OrderCompletedRouting, msg); err != nil {
		return fmt.Errorf("publish order completed: %w", err)
	}
	return nil
}

// LogNotifier records completed orders in the log when no broker is
// configured.
type LogNotifier struct {
	Logger *slog.Logger
}

func (n LogNotifier) OrderCompleted(_ context.Context, ev usecase.OrderCompleted) error {
	n.Logger.Info("order_completed",
		"business_order_id", ev.BusinessOrderID,
		"store_id", ev.StoreID,
		"fulfilment", ev.FulfilmentMethod,
		"member", ev.MemberUUID)
	return nil
}

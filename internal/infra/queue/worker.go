package queue

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// ConversionNotifier tells a client which contacts were added to its CRM.
type ConversionNotifier interface {
	SendConversionSummary(to, clientName string, contacts []ConvertedContact) error
}

type Consumer interface {
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
}

type Worker struct {
	Channel  Consumer
	Notifier ConversionNotifier
	Logger   *zap.Logger
}

func NewWorker(ch Consumer, notifier ConversionNotifier, logger *zap.Logger) *Worker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Worker{
		Channel:  ch,
		Notifier: notifier,
		Logger:   logger,
	}
}

// Start consumes until ctx is done or the delivery channel closes.
func (w *Worker) Start(ctx context.Context, queueName string) error {
	msgs, err := w.Channel.Consume(
		queueName,
		"",    // consumer
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	w.Logger.Info("conversion worker listening", zap.String("queue", queueName))

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-msgs:
			if !ok {
				w.Logger.Warn("delivery channel closed", zap.String("queue", queueName))
				return nil
			}
			w.handle(ctx, d)
		}
	}
}

func (w *Worker) handle(ctx context.Context, d amqp.Delivery) {
	var event ConversionEvent
	if err := json.Unmarshal(d.Body, &event); err != nil {
		w.Logger.Error("malformed conversion event, dead-lettering", zap.Error(err))
		d.Nack(false, false)
		return
	}

	if err := w.processMessage(ctx, event); err != nil {
		w.Logger.Error("conversion notification failed",
			zap.String("event_id", event.EventID),
			zap.String("client_id", event.ClientID),
			zap.Error(err),
		)
		d.Nack(false, false)
		return
	}

	d.Ack(false)
}

func (w *Worker) processMessage(_ context.Context, event ConversionEvent) error {
	if event.ClientEmail == "" || len(event.Contacts) == 0 {
		w.Logger.Info("nothing to notify", zap.String("event_id", event.EventID))
		return nil
	}
	return w.Notifier.SendConversionSummary(event.ClientEmail, event.ClientName, event.Contacts)
}

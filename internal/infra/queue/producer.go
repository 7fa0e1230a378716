package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

type ConvertedContact struct {
	ContactID   string `json:"contact_id"`
	LeadID      string `json:"lead_id"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	JobTitle    string `json:"job_title,omitempty"`
	CompanyName string `json:"company_name"`
}

// ConversionEvent is published once per conversion request that converted
// at least one lead.
type ConversionEvent struct {
	EventID        string             `json:"event_id"`
	ClientID       string             `json:"client_id"`
	ClientName     string             `json:"client_name"`
	ClientEmail    string             `json:"client_email"`
	ConvertedCount int                `json:"converted_count"`
	SkippedCount   int                `json:"skipped_count"`
	Contacts       []ConvertedContact `json:"contacts"`
	OccurredAt     time.Time          `json:"occurred_at"`
}

// Publisher is the part of *amqp.Channel the producer needs.
type Publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

type RabbitMQProducer struct {
	Ch Publisher
}

func NewProducer(ch Publisher) *RabbitMQProducer {
	return &RabbitMQProducer{Ch: ch}
}

func (p *RabbitMQProducer) PublishConversion(ctx context.Context, event ConversionEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode conversion event: %w", err)
	}

	err = p.Ch.PublishWithContext(ctx,
		ExchangeName,
		RoutingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			MessageId:    event.EventID,
			Timestamp:    event.OccurredAt,
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish to RabbitMQ: %w", err)
	}

	return nil
}

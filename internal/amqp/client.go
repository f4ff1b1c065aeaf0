// Package amqp carries domain events to the local notification worker over
// RabbitMQ. The stream is one-way glue for alerts; the ledger never depends
// on it and keeps working when the broker is down.
package amqp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"budgetwise/internal/core"

	"github.com/rabbitmq/amqp091-go"
)

type Client struct {
	conn         *amqp091.Connection
	channel      *amqp091.Channel
	exchangeName string
	queueName    string
}

func NewClient(url, exchangeName, queueName string) (*Client, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	client := &Client{
		conn:         conn,
		channel:      channel,
		exchangeName: exchangeName,
		queueName:    queueName,
	}

	if err := client.setup(); err != nil {
		client.Close()
		return nil, fmt.Errorf("setup exchange and queue: %w", err)
	}

	return client, nil
}

func (c *Client) setup() error {
	err := c.channel.ExchangeDeclare(
		c.exchangeName, // name
		"direct",       // type
		true,           // durable
		false,          // auto-deleted
		false,          // internal
		false,          // no-wait
		nil,            // arguments
	)
	if err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	_, err = c.channel.QueueDeclare(
		c.queueName, // name
		true,        // durable
		false,       // delete when unused
		false,       // exclusive
		false,       // no-wait
		nil,         // arguments
	)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	err = c.channel.QueueBind(
		c.queueName,    // queue name
		c.queueName,    // routing key (same as queue name for direct exchange)
		c.exchangeName, // exchange
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}

	return nil
}

// PublishTransactionCreated publishes a transaction-created event.
func (c *Client) PublishTransactionCreated(ctx context.Context, t core.Transaction) error {
	event := NewTransactionEvent(t)
	body, err := event.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	if err := c.publish(ctx, body); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Published transaction event",
		"event_id", event.EventID,
		"transaction_id", t.ID,
		"exchange", c.exchangeName,
		"queue", c.queueName)

	return nil
}

// PublishBudgetAlert publishes a budget-exceeded event.
func (c *Client) PublishBudgetAlert(ctx context.Context, r core.ExceedanceResult) error {
	event := NewBudgetAlertEvent(r)
	body, err := event.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	if err := c.publish(ctx, body); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Published budget alert",
		"event_id", event.EventID,
		"category", r.Category,
		"exchange", c.exchangeName)

	return nil
}

func (c *Client) publish(ctx context.Context, body []byte) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err := c.channel.PublishWithContext(
		ctx,
		c.exchangeName, // exchange
		c.queueName,    // routing key
		false,          // mandatory
		false,          // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish message: %w", err)
	}
	return nil
}

// EventHandler receives decoded events from the stream.
type EventHandler interface {
	HandleTransactionCreated(e *TransactionEvent) error
	HandleBudgetAlert(e *BudgetAlertEvent) error
}

// Consume delivers events to handler until ctx is cancelled. Undecodable
// payloads are dropped; handler failures are requeued.
func (c *Client) Consume(ctx context.Context, handler EventHandler) error {
	msgs, err := c.channel.Consume(
		c.queueName, // queue
		"",          // consumer
		false,       // auto-ack (we want manual ack)
		false,       // exclusive
		false,       // no-local
		false,       // no-wait
		nil,         // args
	)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	slog.InfoContext(ctx, "Started consuming events", "queue", c.queueName)

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Stopping event consumption", "reason", ctx.Err())
			return ctx.Err()
		case delivery, ok := <-msgs:
			if !ok {
				return fmt.Errorf("message channel closed")
			}

			if err := c.dispatch(delivery.Body, handler); err != nil {
				slog.ErrorContext(ctx, "Failed to handle event", "error", err)
				delivery.Nack(false, true) // reject and requeue
				continue
			}

			delivery.Ack(false)
		}
	}
}

func (c *Client) dispatch(body []byte, handler EventHandler) error {
	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		// Undecodable payloads would requeue forever; drop them.
		slog.Error("Dropping undecodable event", "error", err)
		return nil
	}

	switch env.Kind {
	case KindTransactionCreated:
		e, err := TransactionEventFromJSON(body)
		if err != nil {
			slog.Error("Dropping malformed transaction event", "event_id", env.EventID, "error", err)
			return nil
		}
		return handler.HandleTransactionCreated(e)
	case KindBudgetExceeded:
		e, err := BudgetAlertEventFromJSON(body)
		if err != nil {
			slog.Error("Dropping malformed budget alert", "event_id", env.EventID, "error", err)
			return nil
		}
		return handler.HandleBudgetAlert(e)
	default:
		slog.Error("Dropping event of unknown kind", "kind", env.Kind, "event_id", env.EventID)
		return nil
	}
}

func (c *Client) Close() error {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

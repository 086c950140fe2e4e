package helpers

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// declareQueue opens a channel on conn and declares the durable queue.
func declareQueue(conn *amqp.Connection, queue string) (*amqp.Channel, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, err
	}
	if _, err := ch.QueueDeclare(
		queue,
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,
	); err != nil {
		_ = ch.Close()
		return nil, err
	}
	return ch, nil
}

type rabbitConn struct {
	conn  *amqp.Connection
	ch    *amqp.Channel
	Queue string
}

func dialQueue(url, queue string) (rabbitConn, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return rabbitConn{}, err
	}
	ch, err := declareQueue(conn, queue)
	if err != nil {
		_ = conn.Close()
		return rabbitConn{}, err
	}
	return rabbitConn{conn: conn, ch: ch, Queue: queue}, nil
}

func (r *rabbitConn) close() {
	if r.ch != nil {
		_ = r.ch.Close()
	}
	if r.conn != nil {
		_ = r.conn.Close()
	}
}

// RabbitPublisher publishes email jobs to a durable queue.
type RabbitPublisher struct {
	rabbitConn
}

func NewRabbitPublisher(url, queue string) (*RabbitPublisher, error) {
	rc, err := dialQueue(url, queue)
	if err != nil {
		return nil, err
	}
	return &RabbitPublisher{rabbitConn: rc}, nil
}

func (p *RabbitPublisher) Close() {
	if p == nil {
		return
	}
	p.close()
}

// PublishJSON publishes a persistent JSON message to the queue.
func (p *RabbitPublisher) PublishJSON(ctx context.Context, body any) error {
	b, err := json.Marshal(body)
	if err != nil {
		return err
	}
	return p.ch.PublishWithContext(ctx,
		"",      // default exchange
		p.Queue, // routing key = queue
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    uuid.NewString(),
			Timestamp:    time.Now().UTC(),
			Body:         b,
		},
	)
}

// RabbitConsumer reads the queue with manual acks and a bounded prefetch.
type RabbitConsumer struct {
	rabbitConn
}

func NewRabbitConsumer(url, queue string, prefetch int) (*RabbitConsumer, error) {
	rc, err := dialQueue(url, queue)
	if err != nil {
		return nil, err
	}
	if err := rc.ch.Qos(prefetch, 0, false); err != nil {
		rc.close()
		return nil, err
	}
	return &RabbitConsumer{rabbitConn: rc}, nil
}

// Deliveries starts consuming; every delivery must be acked or nacked.
func (c *RabbitConsumer) Deliveries() (<-chan amqp.Delivery, error) {
	return c.ch.Consume(c.Queue, "", false, false, false, false, nil)
}

func (c *RabbitConsumer) Close() {
	if c == nil {
		return
	}
	c.close()
}

package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/testimonialnudger/api/pkg/logger"
)

type Publisher interface {
	Publish(ctx context.Context, subject string, data interface{}) error
	Close() error
}

type Subscriber interface {
	Subscribe(subject string, handler func(msg *Message)) error
	QueueSubscribe(subject, queue string, handler func(msg *Message)) error
	Close() error
}

type EventBus interface {
	Publisher
	Subscriber
}

type Message struct {
	Subject   string
	Data      []byte
	Timestamp time.Time
	ID        string
}

type NATSEventBus struct {
	conn *nats.Conn
}

func NewNATSEventBus(url string) (*NATSEventBus, error) {
	conn, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return &NATSEventBus{conn: conn}, nil
}

func (n *NATSEventBus) Publish(ctx context.Context, subject string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}

	logger.DebugContext(ctx, "Publishing event", "subject", subject, "data", string(payload))

	return n.conn.Publish(subject, payload)
}

func (n *NATSEventBus) Subscribe(subject string, handler func(msg *Message)) error {
	_, err := n.conn.Subscribe(subject, func(msg *nats.Msg) {
		handler(&Message{
			Subject:   msg.Subject,
			Data:      msg.Data,
			Timestamp: time.Now(),
			ID:        fmt.Sprintf("%d", time.Now().UnixNano()),
		})
	})
	return err
}

func (n *NATSEventBus) QueueSubscribe(subject, queue string, handler func(msg *Message)) error {
	_, err := n.conn.QueueSubscribe(subject, queue, func(msg *nats.Msg) {
		handler(&Message{
			Subject:   msg.Subject,
			Data:      msg.Data,
			Timestamp: time.Now(),
			ID:        fmt.Sprintf("%d", time.Now().UnixNano()),
		})
	})
	return err
}

func (n *NATSEventBus) Close() error {
	n.conn.Close()
	return nil
}

var _ EventBus = (*NATSEventBus)(nil)

// Event subjects
const (
	RequestCreated     = "request.created"
	RequestCompleted   = "request.completed"
	TestimonialCreated = "testimonial.created"
	TestimonialDeleted = "testimonial.deleted"
	NotifySend         = "notify.send"
)

// Event payloads
type RequestCreatedEvent struct {
	BusinessID  int64     `json:"business_id"`
	ClientEmail string    `json:"client_email"`
	ClientName  string    `json:"client_name"`
	ServiceType string    `json:"service_type"`
	ExpiresAt   time.Time `json:"expires_at"`
	CreatedAt   time.Time `json:"created_at"`
}

type RequestCompletedEvent struct {
	BusinessID    int64     `json:"business_id"`
	ClientEmail   string    `json:"client_email"`
	TestimonialID int64     `json:"testimonial_id"`
	CompletedAt   time.Time `json:"completed_at"`
}

type TestimonialCreatedEvent struct {
	TestimonialID int64     `json:"testimonial_id"`
	BusinessID    int64     `json:"business_id"`
	ClientEmail   string    `json:"client_email"`
	Rating        int       `json:"rating"`
	Status        string    `json:"status"`
	MediaCount    int       `json:"media_count"`
	CreatedAt     time.Time `json:"created_at"`
}

type TestimonialDeletedEvent struct {
	TestimonialID int64     `json:"testimonial_id"`
	BusinessID    int64     `json:"business_id"`
	DeletedAt     time.Time `json:"deleted_at"`
}

type NotificationEvent struct {
	Type      string                 `json:"type"`
	Recipient string                 `json:"recipient"`
	Subject   string                 `json:"subject"`
	Template  string                 `json:"template"`
	Data      map[string]interface{} `json:"data"`
}

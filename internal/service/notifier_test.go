package service_test

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/testimonialnudger/api/internal/service"
	"github.com/testimonialnudger/api/pkg/events"
)

// mockSubscriber captures the registered handler so tests can feed it
// messages directly.
type mockSubscriber struct {
	subject, queue string
	handler        func(msg *events.Message)
}

func (m *mockSubscriber) Subscribe(subject string, handler func(msg *events.Message)) error {
	m.subject, m.handler = subject, handler
	return nil
}

func (m *mockSubscriber) QueueSubscribe(subject, queue string, handler func(msg *events.Message)) error {
	m.subject, m.queue, m.handler = subject, queue, handler
	return nil
}

func (m *mockSubscriber) Close() error { return nil }

func (m *mockSubscriber) deliver(t *testing.T, payload any) {
	t.Helper()
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	m.handler(&events.Message{Subject: m.subject, Data: data})
}

func newNotifierFixture(t *testing.T) (*mockSubscriber, *mockMailer) {
	t.Helper()

	bus := &mockSubscriber{}
	mail := &mockMailer{}
	if err := service.NewNotifier(bus, mail).Start(); err != nil {
		t.Fatalf("start notifier: %v", err)
	}
	if bus.subject != events.NotifySend {
		t.Fatalf("subscribed to %q, want %q", bus.subject, events.NotifySend)
	}
	if bus.queue == "" {
		t.Fatal("notifier must join a queue group so replicas share delivery")
	}
	return bus, mail
}

func TestNotifierDeliversRequestTemplate(t *testing.T) {
	bus, mail := newNotifierFixture(t)

	bus.deliver(t, events.NotificationEvent{
		Type:      "email",
		Recipient: "client@x.com",
		Template:  "testimonial_request",
		Data: map[string]interface{}{
			"client_name":   "Jane",
			"business_name": "Acme Design",
			"service_type":  "Web Design",
			"form_link":     "http://localhost:3000/testimonial-form/tok123",
		},
	})

	if len(mail.requests) != 1 {
		t.Fatalf("request emails = %d, want 1", len(mail.requests))
	}
	if !strings.HasPrefix(mail.requests[0], "client@x.com ") {
		t.Errorf("request email = %q, want recipient client@x.com", mail.requests[0])
	}
}

func TestNotifierDeliversThankYouTemplate(t *testing.T) {
	bus, mail := newNotifierFixture(t)

	bus.deliver(t, events.NotificationEvent{
		Type:      "email",
		Recipient: "friend@x.com",
		Template:  "thank_you",
		Data: map[string]interface{}{
			"recommender_name": "Sam",
			"business_name":    "Acme Design",
			"client_name":      "Jane",
		},
	})

	if len(mail.thankYous) != 1 || mail.thankYous[0] != "friend@x.com" {
		t.Errorf("thank-yous = %v, want [friend@x.com]", mail.thankYous)
	}
}

func TestNotifierDeliversGenericMail(t *testing.T) {
	bus, mail := newNotifierFixture(t)

	bus.deliver(t, events.NotificationEvent{
		Type:      "email",
		Recipient: "owner@acme.com",
		Subject:   "Weekly digest",
		Data:      map[string]interface{}{"text": "3 new testimonials"},
	})

	if len(mail.sends) != 1 || mail.sends[0] != "owner@acme.com Weekly digest" {
		t.Errorf("sends = %v, want the generic digest mail", mail.sends)
	}
}

func TestNotifierDropsBadEvents(t *testing.T) {
	bus, mail := newNotifierFixture(t)

	// Malformed JSON and a missing recipient must be absorbed, not panic.
	bus.handler(&events.Message{Subject: events.NotifySend, Data: []byte("{not json")})
	bus.deliver(t, events.NotificationEvent{Type: "email", Template: "thank_you"})

	if len(mail.sends)+len(mail.thankYous)+len(mail.requests) != 0 {
		t.Error("bad events must not produce mail")
	}
}

package service

import (
	"encoding/json"

	"github.com/testimonialnudger/api/internal/platform/mailer"
	"github.com/testimonialnudger/api/pkg/events"
	"github.com/testimonialnudger/api/pkg/logger"
)

// notifyQueue is the queue group for notification consumers; replicas of the
// API share it so each event is delivered once.
const notifyQueue = "api-notify"

// Notifier consumes notification events from the bus and delivers them
// through the mail service. Internal tools publish on the notify subject
// instead of carrying a mailer of their own.
type Notifier struct {
	bus  events.Subscriber
	mail mailer.Service
}

func NewNotifier(bus events.Subscriber, mail mailer.Service) *Notifier {
	return &Notifier{bus: bus, mail: mail}
}

func (n *Notifier) Start() error {
	return n.bus.QueueSubscribe(events.NotifySend, notifyQueue, n.handle)
}

// handle delivers one notification. A bad payload or a failed send is logged
// and dropped; the bus is fire-and-forget, same as every other mail path.
func (n *Notifier) handle(msg *events.Message) {
	var ev events.NotificationEvent
	if err := json.Unmarshal(msg.Data, &ev); err != nil {
		logger.Warn("Dropping malformed notification event", "error", err)
		return
	}
	if ev.Recipient == "" {
		logger.Warn("Dropping notification event without recipient", "type", ev.Type)
		return
	}

	var err error
	switch ev.Template {
	case "testimonial_request":
		err = n.mail.SendTestimonialRequest(ev.Recipient,
			str(ev.Data, "client_name"), str(ev.Data, "business_name"),
			str(ev.Data, "service_type"), str(ev.Data, "form_link"))
	case "thank_you":
		err = n.mail.SendThankYou(ev.Recipient,
			str(ev.Data, "recommender_name"), str(ev.Data, "business_name"),
			str(ev.Data, "client_name"), str(ev.Data, "personal_note"))
	default:
		_, err = n.mail.Send(ev.Recipient, str(ev.Data, "name"),
			ev.Subject, str(ev.Data, "text"), str(ev.Data, "html"))
	}
	if err != nil {
		logger.Warn("Notification delivery failed",
			"type", ev.Type, "recipient", ev.Recipient, "error", err)
	}
}

func str(data map[string]interface{}, key string) string {
	if v, ok := data[key].(string); ok {
		return v
	}
	return ""
}

package mailer

import (
	"github.com/testimonialnudger/api/pkg/logger"
)

// DevMailer logs mail instead of sending it. Selected via MAIL_DRIVER=dev.
type DevMailer struct{}

func NewDevMailer() *DevMailer {
	return &DevMailer{}
}

func (d *DevMailer) Send(toEmail, toName, subject, text, html string) (string, error) {
	logger.Info("[DEV MAIL]",
		"to", toEmail,
		"name", toName,
		"subject", subject,
		"text", text,
	)
	return "dev-message-id", nil
}

func (d *DevMailer) SendTestimonialRequest(toEmail, toName, businessName, serviceType, formLink string) error {
	logger.Info("[DEV MAIL] Testimonial request",
		"to", toEmail,
		"name", toName,
		"business", businessName,
		"service_type", serviceType,
		"form_link", formLink,
	)
	return nil
}

func (d *DevMailer) SendThankYou(toEmail, toName, businessName, clientName, personalNote string) error {
	logger.Info("[DEV MAIL] Thank you",
		"to", toEmail,
		"name", toName,
		"business", businessName,
		"client", clientName,
	)
	return nil
}

var _ Service = (*DevMailer)(nil)

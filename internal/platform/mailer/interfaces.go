package mailer

type Service interface {
	Send(toEmail, toName, subject, text, html string) (string, error)
	// SendTestimonialRequest emails the client their tokenized form link.
	SendTestimonialRequest(toEmail, toName, businessName, serviceType, formLink string) error
	// SendThankYou thanks the third party who referred the client.
	SendThankYou(toEmail, toName, businessName, clientName, personalNote string) error
}

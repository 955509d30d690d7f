package mailer

import (
	"fmt"
	"strings"
)

func requestEmail(clientName, businessName, serviceType, formLink string) (subject, text, html string) {
	greeting := "Hi"
	if strings.TrimSpace(clientName) != "" {
		greeting = "Hi " + clientName
	}
	work := "your recent project"
	if strings.TrimSpace(serviceType) != "" {
		work = "the " + serviceType + " work"
	}

	subject = fmt.Sprintf("%s would love your feedback", businessName)
	text = fmt.Sprintf(
		"%s,\n\n%s would really appreciate a short testimonial about %s.\n"+
			"It takes about two minutes:\n\n%s\n\nThe link is personal and expires, so please don't forward it.\n",
		greeting, businessName, work, formLink)
	html = fmt.Sprintf(
		`<p>%s,</p><p><b>%s</b> would really appreciate a short testimonial about %s. It takes about two minutes:</p>`+
			`<p><a href="%s">Leave a testimonial</a></p>`+
			`<p><small>The link is personal and expires, so please don't forward it.</small></p>`,
		greeting, businessName, work, formLink)
	return subject, text, html
}

func thankYouEmail(recommenderName, businessName, clientName, personalNote string) (subject, text, html string) {
	greeting := "Hi"
	if strings.TrimSpace(recommenderName) != "" {
		greeting = "Hi " + recommenderName
	}

	subject = fmt.Sprintf("Thank you for the testimonial from %s", clientName)
	text = fmt.Sprintf(
		"%s,\n\n%s just left a testimonial for %s — thank you for the introduction!\n",
		greeting, clientName, businessName)
	html = fmt.Sprintf(
		`<p>%s,</p><p><b>%s</b> just left a testimonial for <b>%s</b> — thank you for the introduction!</p>`,
		greeting, clientName, businessName)

	if strings.TrimSpace(personalNote) != "" {
		text += fmt.Sprintf("\nA note from %s:\n%s\n", clientName, personalNote)
		html += fmt.Sprintf(`<blockquote>%s</blockquote>`, personalNote)
	}
	return subject, text, html
}

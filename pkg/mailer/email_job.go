package mailer

// EmailJob is the JSON payload put on the RabbitMQ queue for sending
// email. HTML is optional; Text is the fallback. Template selects a
// rendered template by name, with Data as its input.
type EmailJob struct {
	To       string         `json:"to"`
	Subject  string         `json:"subject,omitempty"`
	Text     string         `json:"text,omitempty"`
	HTML     string         `json:"html,omitempty"`
	Template string         `json:"template,omitempty"` // e.g. "profile_updated"
	Data     map[string]any `json:"data,omitempty"`
}

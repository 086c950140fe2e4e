package mailer

// EmailJob is the JSON payload put on the RabbitMQ queue for sending email.
// Either Template (with Data) or Subject with Text/HTML must be set.
// UserID, when present, receives a notification entry once the mail is sent.
type EmailJob struct {
	To       string         `json:"to"`
	UserID   string         `json:"user_id,omitempty"`
	Subject  string         `json:"subject,omitempty"`
	Text     string         `json:"text,omitempty"`
	HTML     string         `json:"html,omitempty"`
	Template string         `json:"template,omitempty"` // welcome, forgot_password, password_changed
	Data     map[string]any `json:"data,omitempty"`
}

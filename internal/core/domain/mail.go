package domain

// MailMessage is a plain-text outbound email.
type MailMessage struct {
	To      string
	Subject string
	Body    string
}

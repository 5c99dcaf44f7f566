package domain

// Mailer sends a plain-text email. Implementations may use SES or be no-ops;
// delivery is best effort and callers must not treat failures as fatal.
type Mailer interface {
	Send(to, subject, body string) error
}

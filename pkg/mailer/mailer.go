package mailer

import "context"

// Mailer delivers transactional email.
type Mailer interface {
	Send(ctx context.Context, to, subject, plain, html string) error
}

package ports

import "context"

// Mailer delivers the transactional mails the auth flows produce.
type Mailer interface {
	SendEmailVerification(ctx context.Context, to, token string) error
	SendPasswordReset(ctx context.Context, to, token string) error
}

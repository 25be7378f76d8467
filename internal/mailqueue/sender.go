package mailqueue

import (
	"context"

	"github.com/wardenmq/warden-core/internal/infrastructure/smtp"
)

// GatewaySender adapts an smtp.Gateway to the Sender interface, issuing
// one Send per recipient as the queue's dispatch loop requires.
type GatewaySender struct {
	Gateway *smtp.Gateway
}

// Send delivers subject/body to a single recipient over gateway.
func (s GatewaySender) Send(ctx context.Context, recipient, subject, body string) error {
	return s.Gateway.Send(smtp.Message{
		To:      []string{recipient},
		Subject: subject,
		Body:    body,
	})
}

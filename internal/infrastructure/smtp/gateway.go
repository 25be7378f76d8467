// Package smtp sends alert emails over SMTP, using implicit TLS when the
// configured port is 465.
//
// No third-party mail client exists anywhere in the reference examples
// this module was built alongside, so this gateway is built directly on
// net/smtp — see the standard-library justification in DESIGN.md.
package smtp

import (
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strings"
	"time"

	"github.com/wardenmq/warden-core/internal/infrastructure/config"
)

// Sentinel errors for gateway operations. Check with errors.Is().
var (
	ErrSendFailed   = errors.New("smtp: send failed")
	ErrNoRecipients = errors.New("smtp: no recipients")
	ErrDialFailed   = errors.New("smtp: dial failed")
)

const defaultDialTimeout = 10 * time.Second

// Message is a single outbound alert email.
type Message struct {
	To      []string
	Subject string
	Body    string
}

// Gateway sends Messages over SMTP using the configured server and
// credentials.
//
// Thread Safety: Send is safe for concurrent use; net/smtp opens a fresh
// connection per call.
type Gateway struct {
	cfg config.SMTPConfig
}

// New creates a Gateway from SMTP configuration.
func New(cfg config.SMTPConfig) *Gateway {
	return &Gateway{cfg: cfg}
}

// Send delivers msg to all of its recipients over a single SMTP session.
// It returns ErrNoRecipients without dialing if msg.To is empty.
func (g *Gateway) Send(msg Message) error {
	if len(msg.To) == 0 {
		return ErrNoRecipients
	}

	addr := fmt.Sprintf("%s:%d", g.cfg.Host, g.cfg.Port)
	body := buildMessage(g.cfg.From, msg)

	var auth smtp.Auth
	if g.cfg.Username != "" {
		auth = smtp.PlainAuth("", g.cfg.Username, g.cfg.Password, g.cfg.Host)
	}

	if g.cfg.Port == 465 {
		return g.sendTLS(addr, auth, msg.To, body)
	}

	if err := smtp.SendMail(addr, auth, g.cfg.From, msg.To, []byte(body)); err != nil {
		return fmt.Errorf("%w: %w", ErrSendFailed, err)
	}
	return nil
}

// sendTLS handles implicit-TLS submission (port 465), which net/smtp's
// SendMail does not support directly.
func (g *Gateway) sendTLS(addr string, auth smtp.Auth, to []string, body string) error {
	dialer := &net.Dialer{Timeout: defaultDialTimeout}
	conn, err := tls.DialWithDialer(dialer, "tcp", addr, &tls.Config{ServerName: g.cfg.Host})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDialFailed, err)
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, g.cfg.Host)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDialFailed, err)
	}
	defer client.Close()

	if auth != nil {
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("%w: authenticating: %w", ErrSendFailed, err)
		}
	}

	if err := client.Mail(g.cfg.From); err != nil {
		return fmt.Errorf("%w: MAIL FROM: %w", ErrSendFailed, err)
	}
	for _, recipient := range to {
		if err := client.Rcpt(recipient); err != nil {
			return fmt.Errorf("%w: RCPT TO %s: %w", ErrSendFailed, recipient, err)
		}
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("%w: DATA: %w", ErrSendFailed, err)
	}
	if _, err := w.Write([]byte(body)); err != nil {
		return fmt.Errorf("%w: writing body: %w", ErrSendFailed, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("%w: closing body: %w", ErrSendFailed, err)
	}

	return client.Quit()
}

// buildMessage constructs a minimal RFC 5322 message with headers.
func buildMessage(from string, msg Message) string {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(msg.To, ", "))
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(msg.Body)
	return b.String()
}

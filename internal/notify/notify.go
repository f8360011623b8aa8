// Package notify delivers routing notifications.
package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"docflow-backend/internal/shared/telemetry"
)

// Message is a completed-document notification. Owner is the document
// owner's identity; when it is an email address the notification is
// delivered there, otherwise to the configured default recipient.
type Message struct {
	DocumentID     string
	Owner          string
	FileName       string
	Classification string
	Confidence     int
	Sentiment      string
	Destination    string
}

// Notifier sends a notification about a routed document.
type Notifier interface {
	Notify(ctx context.Context, msg Message) error
}

// Noop discards notifications. Used when SMTP is not configured.
type Noop struct{}

func (Noop) Notify(ctx context.Context, msg Message) error { return nil }

// SMTPNotifier sends plain-text email over SMTP with optional AUTH.
type SMTPNotifier struct {
	host     string
	port     int
	username string
	password string
	from     string
	to       string

	// send is swappable for tests.
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewSMTPNotifier constructs an SMTP notifier.
func NewSMTPNotifier(host string, port int, username, password, from, to string) (*SMTPNotifier, error) {
	if strings.TrimSpace(host) == "" {
		return nil, fmt.Errorf("SMTP_HOST is required")
	}
	if strings.TrimSpace(from) == "" || strings.TrimSpace(to) == "" {
		return nil, fmt.Errorf("SMTP from and to addresses are required")
	}
	if port <= 0 {
		port = 587
	}
	return &SMTPNotifier{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
		to:       to,
		send:     smtp.SendMail,
	}, nil
}

func (n *SMTPNotifier) Notify(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	to := n.to
	if strings.Contains(msg.Owner, "@") {
		to = msg.Owner
	}

	subject := fmt.Sprintf("Document processed: %s", msg.FileName)
	body := fmt.Sprintf(
		"Document %s has finished processing.\r\n\r\nClassification: %s (%d%% confidence)\r\nSentiment: %s\r\nRouted to: %s\r\n",
		msg.FileName, msg.Classification, msg.Confidence, msg.Sentiment, msg.Destination,
	)
	payload := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n%s",
		n.from, to, subject, body)

	var auth smtp.Auth
	if n.username != "" {
		auth = smtp.PlainAuth("", n.username, n.password, n.host)
	}
	addr := fmt.Sprintf("%s:%d", n.host, n.port)
	if err := n.send(addr, auth, n.from, []string{to}, []byte(payload)); err != nil {
		telemetry.Error("notify.send", map[string]any{
			"document_id": msg.DocumentID,
			"error":       err.Error(),
		})
		return fmt.Errorf("send notification: %w", err)
	}
	return nil
}

var (
	_ Notifier = (*SMTPNotifier)(nil)
	_ Notifier = Noop{}
)

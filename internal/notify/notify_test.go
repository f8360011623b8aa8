package notify

import (
	"context"
	"errors"
	"net/smtp"
	"strings"
	"testing"
)

func TestSMTPNotifierSends(t *testing.T) {
	n, err := NewSMTPNotifier("mail.example.com", 2525, "user", "pass", "noreply@example.com", "ops@example.com")
	if err != nil {
		t.Fatalf("NewSMTPNotifier: %v", err)
	}

	var gotAddr, gotFrom string
	var gotTo []string
	var gotMsg string
	n.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotFrom, gotTo, gotMsg = addr, from, to, string(msg)
		return nil
	}

	err = n.Notify(context.Background(), Message{
		DocumentID:     "doc-1",
		Owner:          "user-1",
		FileName:       "Invoice_Acme_2026-01-15.pdf",
		Classification: "Invoice",
		Confidence:     92,
		Sentiment:      "Neutral",
		Destination:    "Accounting",
	})
	if err != nil {
		t.Fatalf("Notify: %v", err)
	}

	if gotAddr != "mail.example.com:2525" {
		t.Fatalf("addr = %q", gotAddr)
	}
	if gotFrom != "noreply@example.com" {
		t.Fatalf("from = %q", gotFrom)
	}
	if len(gotTo) != 1 || gotTo[0] != "ops@example.com" {
		t.Fatalf("to = %v", gotTo)
	}
	for _, want := range []string{"Invoice_Acme_2026-01-15.pdf", "Invoice", "92%", "Neutral", "Accounting"} {
		if !strings.Contains(gotMsg, want) {
			t.Fatalf("message missing %q:\n%s", want, gotMsg)
		}
	}
}

func TestSMTPNotifierDeliversToOwnerAddress(t *testing.T) {
	n, err := NewSMTPNotifier("mail.example.com", 2525, "", "", "noreply@example.com", "ops@example.com")
	if err != nil {
		t.Fatalf("NewSMTPNotifier: %v", err)
	}

	var gotTo []string
	var gotMsg string
	n.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotTo, gotMsg = to, string(msg)
		return nil
	}

	if err := n.Notify(context.Background(), Message{DocumentID: "doc-1", Owner: "alice@example.com"}); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if len(gotTo) != 1 || gotTo[0] != "alice@example.com" {
		t.Fatalf("to = %v, want owner address", gotTo)
	}
	if !strings.Contains(gotMsg, "To: alice@example.com") {
		t.Fatalf("header recipient not the owner:\n%s", gotMsg)
	}
}

func TestSMTPNotifierSendFailure(t *testing.T) {
	n, err := NewSMTPNotifier("mail.example.com", 0, "", "", "noreply@example.com", "ops@example.com")
	if err != nil {
		t.Fatalf("NewSMTPNotifier: %v", err)
	}
	n.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		return errors.New("connection refused")
	}
	if err := n.Notify(context.Background(), Message{DocumentID: "doc-1"}); err == nil {
		t.Fatal("expected send error")
	}
}

func TestNewSMTPNotifierValidation(t *testing.T) {
	if _, err := NewSMTPNotifier("", 587, "", "", "a@b.c", "d@e.f"); err == nil {
		t.Fatal("expected error for missing host")
	}
	if _, err := NewSMTPNotifier("mail.example.com", 587, "", "", "", "d@e.f"); err == nil {
		t.Fatal("expected error for missing from")
	}
}

func TestNoop(t *testing.T) {
	if err := (Noop{}).Notify(context.Background(), Message{}); err != nil {
		t.Fatalf("noop: %v", err)
	}
}

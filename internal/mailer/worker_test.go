package mailer

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/corebank/banking-service/internal/domain"
	"github.com/corebank/banking-service/pkg/mailclient"
)

type senderStub struct {
	called   bool
	email    string
	username string
	code     string
	err      error
}

func (s *senderStub) SendVerificationCode(ctx context.Context, email, username, code string, expiresAt time.Time) (*mailclient.SendResponse, error) {
	s.called = true
	s.email = email
	s.username = username
	s.code = code
	if s.err != nil {
		return nil, s.err
	}
	return &mailclient.SendResponse{ID: "msg_123", Status: "queued"}, nil
}

func eventBody(t *testing.T, event domain.VerificationMailEvent) []byte {
	t.Helper()
	body, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("failed to marshal event: %v", err)
	}
	return body
}

func TestHandleVerificationMail_DeliversAndAcks(t *testing.T) {
	sender := &senderStub{}
	worker := NewWorker(nil, sender)

	body := eventBody(t, domain.VerificationMailEvent{
		Email:     "alice@example.com",
		Username:  "alice",
		Code:      "123456",
		ExpiresAt: time.Now().UTC().Add(10 * time.Minute),
	})

	if !worker.handleVerificationMail(body) {
		t.Fatal("expected successful delivery to ack")
	}
	if !sender.called {
		t.Fatal("expected the mail client to be invoked")
	}
	if sender.email != "alice@example.com" || sender.code != "123456" {
		t.Fatalf("expected event fields to reach the client, got %s/%s", sender.email, sender.code)
	}
}

func TestHandleVerificationMail_RequeuesOnDeliveryFailure(t *testing.T) {
	sender := &senderStub{err: errors.New("provider unavailable")}
	worker := NewWorker(nil, sender)

	body := eventBody(t, domain.VerificationMailEvent{
		Email:     "alice@example.com",
		Username:  "alice",
		Code:      "123456",
		ExpiresAt: time.Now().UTC().Add(10 * time.Minute),
	})

	if worker.handleVerificationMail(body) {
		t.Fatal("expected delivery failure to requeue")
	}
}

func TestHandleVerificationMail_DropsPoisonMessages(t *testing.T) {
	tests := []struct {
		name string
		body []byte
	}{
		{name: "malformed json", body: []byte("{not json")},
		{name: "missing email", body: []byte(`{"username":"alice","code":"123456"}`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sender := &senderStub{}
			worker := NewWorker(nil, sender)

			if !worker.handleVerificationMail(tt.body) {
				t.Fatal("expected poison message to be acked and dropped")
			}
			if sender.called {
				t.Fatal("expected no delivery attempt for a poison message")
			}
		})
	}
}

func TestHandleVerificationMail_DropsExpiredCodes(t *testing.T) {
	sender := &senderStub{}
	worker := NewWorker(nil, sender)

	body := eventBody(t, domain.VerificationMailEvent{
		Email:     "alice@example.com",
		Username:  "alice",
		Code:      "123456",
		ExpiresAt: time.Now().UTC().Add(-time.Minute),
	})

	if !worker.handleVerificationMail(body) {
		t.Fatal("expected expired code to be acked and dropped")
	}
	if sender.called {
		t.Fatal("expected no delivery attempt for an expired code")
	}
}

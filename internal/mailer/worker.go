/**
 * @description
 * This file implements the verification-mail worker. It consumes
 * verification-mail events from RabbitMQ and delivers the code through the
 * mail API client. A failed delivery nacks the message back onto the queue for
 * retry; a malformed payload is acked and dropped so a poison message cannot
 * wedge the queue.
 *
 * @dependencies
 * - context, encoding/json, log, time: Standard Go libraries.
 * - internal/domain: The event payload shape.
 * - pkg/mailclient: The mail API client.
 * - pkg/rabbitmq: The queue consumer.
 */

package mailer

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/corebank/banking-service/internal/domain"
	"github.com/corebank/banking-service/pkg/mailclient"
	"github.com/corebank/banking-service/pkg/rabbitmq"
)

const sendTimeout = 30 * time.Second

// Sender is the slice of the mail client the worker uses.
type Sender interface {
	SendVerificationCode(ctx context.Context, email, username, code string, expiresAt time.Time) (*mailclient.SendResponse, error)
}

// Worker consumes verification-mail events and delivers them.
type Worker struct {
	consumer *rabbitmq.Consumer
	sender   Sender
}

// NewWorker creates a mail worker around an open consumer and a mail client.
func NewWorker(consumer *rabbitmq.Consumer, sender Sender) *Worker {
	return &Worker{consumer: consumer, sender: sender}
}

// Start binds the worker's queue to the verification routing key and begins
// consuming. It returns once the consumer goroutine is running.
func (w *Worker) Start(exchange, routingKey, queueName string) error {
	return w.consumer.ConsumeWithBindings(exchange, queueName, map[string]func([]byte) bool{
		routingKey: w.handleVerificationMail,
	})
}

// handleVerificationMail processes one event. Returning false requeues the
// message for another attempt.
func (w *Worker) handleVerificationMail(body []byte) bool {
	var event domain.VerificationMailEvent
	if err := json.Unmarshal(body, &event); err != nil {
		log.Printf("level=error component=mailer msg=\"malformed event dropped\" err=%v", err)
		return true
	}
	if event.Email == "" || event.Code == "" {
		log.Printf("level=error component=mailer msg=\"incomplete event dropped\" username=%s", event.Username)
		return true
	}

	// Expired codes are not worth delivering; the user will request a new one.
	if !event.ExpiresAt.IsZero() && time.Now().UTC().After(event.ExpiresAt) {
		log.Printf("level=warn component=mailer msg=\"expired code dropped\" username=%s", event.Username)
		return true
	}

	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()

	resp, err := w.sender.SendVerificationCode(ctx, event.Email, event.Username, event.Code, event.ExpiresAt)
	if err != nil {
		log.Printf("level=warn component=mailer msg=\"delivery failed, requeuing\" username=%s err=%v", event.Username, err)
		return false
	}

	log.Printf("level=info component=mailer msg=\"verification mail sent\" username=%s message_id=%s", event.Username, resp.ID)
	return true
}

package mail

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Message is one delivered reset email.
type Message struct {
	To     string
	Link   string
	SentAt time.Time
}

// Outbox keeps reset emails in memory and logs them instead of sending.
// Implements domain.ResetMailer.
type Outbox struct {
	mu       sync.Mutex
	messages []Message
	logger   *slog.Logger
}

// NewOutbox creates an empty outbox.
func NewOutbox(logger *slog.Logger) *Outbox {
	if logger == nil {
		logger = slog.Default()
	}
	return &Outbox{logger: logger}
}

// SendReset records the link.
func (o *Outbox) SendReset(ctx context.Context, email, link string) error {
	o.mu.Lock()
	o.messages = append(o.messages, Message{To: email, Link: link, SentAt: time.Now()})
	o.mu.Unlock()

	o.logger.InfoContext(ctx, "password reset email queued", "to", email, "link", link)
	return nil
}

// Last returns the newest message sent to email.
func (o *Outbox) Last(email string) (Message, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	for i := len(o.messages) - 1; i >= 0; i-- {
		if o.messages[i].To == email {
			return o.messages[i], true
		}
	}
	return Message{}, false
}

// Len returns the number of recorded messages.
func (o *Outbox) Len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.messages)
}

package mail

import (
	"context"
	"sync"

	dommail "github.com/Zhima-Mochi/courseshop/internal/domain/mail"
	"github.com/Zhima-Mochi/courseshop/internal/observability"
)

// LogDispatcher records messages instead of sending them. It is used when no
// SMTP relay is configured.
type LogDispatcher struct {
	logger observability.Logger

	mu   sync.Mutex
	sent []dommail.Message
}

func NewLogDispatcher(logger observability.Logger) *LogDispatcher {
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &LogDispatcher{logger: logger}
}

func (d *LogDispatcher) Send(ctx context.Context, msg dommail.Message) error {
	if msg.To == "" {
		return dommail.ErrNoRecipient
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	d.mu.Lock()
	d.sent = append(d.sent, msg)
	d.mu.Unlock()

	d.logger.Info("mail_logged",
		observability.F("to", msg.To),
		observability.F("subject", msg.Subject),
		observability.F("template", msg.Template),
		observability.F("body_bytes", len(msg.HTML)),
	)
	return nil
}

// Sent returns a copy of every message accepted so far.
func (d *LogDispatcher) Sent() []dommail.Message {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]dommail.Message, len(d.sent))
	copy(out, d.sent)
	return out
}

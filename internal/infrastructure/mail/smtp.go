package mail

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"

	dommail "github.com/Zhima-Mochi/courseshop/internal/domain/mail"
)

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPDispatcher sends through one SMTP relay per message.
type SMTPDispatcher struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPDispatcher(cfg SMTPConfig) *SMTPDispatcher {
	from := cfg.From
	if from == "" {
		from = cfg.Username
	}
	return &SMTPDispatcher{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   from,
	}
}

// Send returns when the relay accepts the message or ctx is done, whichever
// comes first. A send still in flight at cancellation is abandoned.
func (d *SMTPDispatcher) Send(ctx context.Context, msg dommail.Message) error {
	if msg.To == "" {
		return dommail.ErrNoRecipient
	}

	m := gomail.NewMessage()
	m.SetHeader("From", d.from)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/html", msg.HTML)

	done := make(chan error, 1)
	go func() { done <- d.dialer.DialAndSend(m) }()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("mail: smtp send: %w", err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("mail: smtp send: %w", ctx.Err())
	}
}

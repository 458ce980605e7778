package mail

import (
	"context"
	"errors"
)

var ErrNoRecipient = errors.New("mail: recipient address is required")

// TemplateOrderConfirmation names the purchase confirmation body.
const TemplateOrderConfirmation = "order-confirmation.html"

// Message is one outbound mail. HTML is the rendered body; Template and Data
// are kept for dispatchers that log instead of sending.
type Message struct {
	To       string
	Subject  string
	Template string
	Data     any
	HTML     string
}

// Dispatcher delivers a message and reports success only once the transport
// has accepted it.
type Dispatcher interface {
	Send(ctx context.Context, msg Message) error
}

// Renderer turns a named template and its data into an HTML body.
type Renderer interface {
	Render(name string, data any) (string, error)
}

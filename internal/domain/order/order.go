package order

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrNotFound           = errors.New("order: not found")
	ErrConflict           = errors.New("order: already exists")
	ErrUserRequired       = errors.New("order: user id is required")
	ErrCourseRequired     = errors.New("order: course id is required")
	ErrPaymentStatusEmpty = errors.New("order: payment status is required")
)

// PaymentInfo is the confirmation returned by the payment provider. It is
// treated as opaque once validated.
type PaymentInfo struct {
	ID     string `json:"id,omitempty"`
	Status string `json:"status"`
}

func (p PaymentInfo) Validate() error {
	if strings.TrimSpace(p.Status) == "" {
		return ErrPaymentStatusEmpty
	}
	return nil
}

// Order is immutable once committed.
type Order struct {
	ID          string      `json:"_id"`
	UserID      string      `json:"userId"`
	CourseID    string      `json:"courseId"`
	PaymentInfo PaymentInfo `json:"payment_info"`
	CreatedAt   time.Time   `json:"createdAt"`
}

func New(id, userID, courseID string, payment PaymentInfo, now time.Time) (*Order, error) {
	if userID == "" {
		return nil, ErrUserRequired
	}
	if courseID == "" {
		return nil, ErrCourseRequired
	}
	if err := payment.Validate(); err != nil {
		return nil, err
	}
	return &Order{
		ID:          id,
		UserID:      userID,
		CourseID:    courseID,
		PaymentInfo: payment,
		CreatedAt:   now.UTC(),
	}, nil
}

func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	c := *o
	return &c
}

package order

import "time"

// OrderCreatedEvent is emitted after an order has been committed.
type OrderCreatedEvent struct {
	OrderID    string
	UserID     string
	CourseID   string
	OccurredAt time.Time
}

func (OrderCreatedEvent) EventName() string { return "order.created" }

func NewOrderCreatedEvent(o *Order) OrderCreatedEvent {
	return OrderCreatedEvent{
		OrderID:    o.ID,
		UserID:     o.UserID,
		CourseID:   o.CourseID,
		OccurredAt: time.Now().UTC(),
	}
}

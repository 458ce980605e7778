package order

import (
	"errors"
	"testing"
	"time"
)

func TestNewValidates(t *testing.T) {
	now := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)
	ok := PaymentInfo{ID: "pi_1", Status: "succeeded"}

	cases := []struct {
		name     string
		userID   string
		courseID string
		payment  PaymentInfo
		want     error
	}{
		{"missing user", "", "c-1", ok, ErrUserRequired},
		{"missing course", "u-1", "", ok, ErrCourseRequired},
		{"missing payment status", "u-1", "c-1", PaymentInfo{ID: "pi_1", Status: "  "}, ErrPaymentStatusEmpty},
		{"valid", "u-1", "c-1", ok, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			o, err := New("o-1", tc.userID, tc.courseID, tc.payment, now)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			if tc.want == nil && (o.UserID != "u-1" || o.CourseID != "c-1" || !o.CreatedAt.Equal(now)) {
				t.Fatalf("unexpected order %#v", o)
			}
		})
	}
}

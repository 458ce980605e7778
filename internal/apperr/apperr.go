// Package apperr carries the error taxonomy shared by the auth gate, the
// order pipeline and the HTTP reporting path. Every failure that leaves a use
// case is an *Error so the transport can turn it into one (kind, message,
// status) triple.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	KindNoCredential               Kind = "no_credential"
	KindInvalidCredential          Kind = "invalid_credential"
	KindSessionNotFound            Kind = "session_not_found"
	KindRoleDenied                 Kind = "role_denied"
	KindMalformedRequest           Kind = "malformed_request"
	KindUserNotFound               Kind = "user_not_found"
	KindCourseNotFound             Kind = "course_not_found"
	KindAlreadyPurchased           Kind = "already_purchased"
	KindNotificationDispatchFailed Kind = "notification_dispatch_failed"
	KindPersistenceFailed          Kind = "persistence_failed"
	KindInternal                   Kind = "internal"
)

type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Message != "" {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error by kind so callers can write
// errors.Is(err, apperr.AlreadyPurchased).
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Message == "" && t.Err == nil && t.Kind == e.Kind
}

func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches kind and msg to err. A nil err yields nil.
func Wrap(kind Kind, msg string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Message: msg, Err: err}
}

// KindOf reports the kind of the outermost *Error in err's chain.
// Errors outside the taxonomy are KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Status maps a kind to its HTTP status equivalent.
func Status(kind Kind) int {
	switch kind {
	case KindNoCredential, KindInvalidCredential, KindSessionNotFound:
		return http.StatusUnauthorized
	case KindRoleDenied:
		return http.StatusForbidden
	case KindUserNotFound, KindCourseNotFound:
		return http.StatusNotFound
	case KindAlreadyPurchased, KindMalformedRequest:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Unauthenticated reports whether kind belongs to the authentication class.
func Unauthenticated(kind Kind) bool {
	return kind == KindNoCredential || kind == KindInvalidCredential || kind == KindSessionNotFound
}

// Sentinels for errors.Is comparisons.
var (
	NoCredential               = &Error{Kind: KindNoCredential}
	InvalidCredential          = &Error{Kind: KindInvalidCredential}
	SessionNotFound            = &Error{Kind: KindSessionNotFound}
	RoleDenied                 = &Error{Kind: KindRoleDenied}
	MalformedRequest           = &Error{Kind: KindMalformedRequest}
	UserNotFound               = &Error{Kind: KindUserNotFound}
	CourseNotFound             = &Error{Kind: KindCourseNotFound}
	AlreadyPurchased           = &Error{Kind: KindAlreadyPurchased}
	NotificationDispatchFailed = &Error{Kind: KindNotificationDispatchFailed}
	PersistenceFailed          = &Error{Kind: KindPersistenceFailed}
)

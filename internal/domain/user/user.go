package user

import (
	"context"
	"errors"
	"slices"
)

var (
	ErrNotFound         = errors.New("user: not found")
	ErrAlreadyEnrolled  = errors.New("user: course already enrolled")
	ErrInvalidCourseRef = errors.New("user: course id is required")
)

const RoleAdmin = "admin"

// User is the entitlement aggregate: identity plus the set of courses the
// user may access.
type User struct {
	ID      string   `json:"_id"`
	Name    string   `json:"name"`
	Email   string   `json:"email"`
	Role    string   `json:"role"`
	Courses []string `json:"courses"`
}

func (u *User) HasCourse(courseID string) bool {
	return slices.Contains(u.Courses, courseID)
}

// Enroll appends courseID once. A second call for the same course fails with
// ErrAlreadyEnrolled and leaves the set untouched.
func (u *User) Enroll(courseID string) error {
	if courseID == "" {
		return ErrInvalidCourseRef
	}
	if u.HasCourse(courseID) {
		return ErrAlreadyEnrolled
	}
	u.Courses = append(u.Courses, courseID)
	return nil
}

func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	c.Courses = slices.Clone(u.Courses)
	return &c
}

type Repository interface {
	FindByID(ctx context.Context, id string) (*User, error)
	Save(ctx context.Context, u *User) error
	// AddCourse appends courseID to the user's set only if absent, as one
	// atomic operation. Returns ErrAlreadyEnrolled when it is present and
	// ErrNotFound when the user does not exist.
	AddCourse(ctx context.Context, userID, courseID string) error
}

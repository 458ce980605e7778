package user

import (
	"errors"
	"testing"
)

func TestEnrollOnce(t *testing.T) {
	u := &User{ID: "u-1"}

	if err := u.Enroll("c-1"); err != nil {
		t.Fatalf("first enroll: %v", err)
	}
	if err := u.Enroll("c-1"); !errors.Is(err, ErrAlreadyEnrolled) {
		t.Fatalf("expected ErrAlreadyEnrolled, got %v", err)
	}
	if len(u.Courses) != 1 {
		t.Fatalf("expected single course, got %v", u.Courses)
	}
	if err := u.Enroll(""); !errors.Is(err, ErrInvalidCourseRef) {
		t.Fatalf("expected ErrInvalidCourseRef, got %v", err)
	}
}

func TestCloneIsDeep(t *testing.T) {
	u := &User{ID: "u-1", Courses: []string{"c-1"}}
	c := u.Clone()
	c.Courses[0] = "changed"

	if u.Courses[0] != "c-1" {
		t.Fatal("clone shares course slice")
	}
}

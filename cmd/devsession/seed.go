package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/Zhima-Mochi/courseshop/internal/domain/course"
	"github.com/Zhima-Mochi/courseshop/internal/domain/session"
	"github.com/Zhima-Mochi/courseshop/internal/domain/user"
)

type seedInput struct {
	User   user.User
	Course *course.Course
}

// seed upserts the user, and the course when one is given, and returns the
// session snapshot for the stored user. Enrollments and purchase counters
// already in the store are kept.
func seed(ctx context.Context, users user.Repository, courses course.Repository, in seedInput) (session.Record, error) {
	u := in.User
	existing, err := users.FindByID(ctx, u.ID)
	switch {
	case err == nil:
		u.Courses = existing.Courses
	case errors.Is(err, user.ErrNotFound):
	default:
		return session.Record{}, fmt.Errorf("find user %s: %w", u.ID, err)
	}
	if err := users.Save(ctx, &u); err != nil {
		return session.Record{}, fmt.Errorf("save user %s: %w", u.ID, err)
	}

	if in.Course != nil {
		if err := courses.Save(ctx, in.Course); err != nil {
			return session.Record{}, fmt.Errorf("save course %s: %w", in.Course.ID, err)
		}
	}

	return sessionRecord(&u), nil
}

func sessionRecord(u *user.User) session.Record {
	return session.Record{
		ID:      u.ID,
		Name:    u.Name,
		Email:   u.Email,
		Role:    u.Role,
		Courses: append([]string(nil), u.Courses...),
	}
}

package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Zhima-Mochi/courseshop/internal/domain/user"
	"github.com/lib/pq"
)

// Users adapts DB to user.Repository.
type Users struct{ db *DB }

func (d *DB) Users() *Users { return &Users{db: d} }

func (r *Users) FindByID(ctx context.Context, id string) (*user.User, error) {
	var u user.User
	err := r.db.sql.QueryRowContext(ctx,
		"SELECT id, name, email, role, courses FROM users WHERE id = $1;", id,
	).Scan(&u.ID, &u.Name, &u.Email, &u.Role, pq.Array(&u.Courses))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, user.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("users: find %s: %w", id, err)
	}
	return &u, nil
}

func (r *Users) Save(ctx context.Context, u *user.User) error {
	if u == nil || u.ID == "" {
		return fmt.Errorf("users: id is required")
	}
	courses := u.Courses
	if courses == nil {
		courses = []string{}
	}
	_, err := r.db.sql.ExecContext(ctx,
		`INSERT INTO users (id, name, email, role, courses) VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, email = EXCLUDED.email, role = EXCLUDED.role, courses = EXCLUDED.courses;`,
		u.ID, u.Name, u.Email, u.Role, pq.Array(courses),
	)
	if err != nil {
		return fmt.Errorf("users: save %s: %w", u.ID, err)
	}
	return nil
}

// AddCourse appends courseID with a single conditional UPDATE, so concurrent
// callers for the same pair see exactly one success.
func (r *Users) AddCourse(ctx context.Context, userID, courseID string) error {
	if courseID == "" {
		return user.ErrInvalidCourseRef
	}
	res, err := r.db.sql.ExecContext(ctx,
		"UPDATE users SET courses = array_append(courses, $2::text) WHERE id = $1 AND NOT ($2::text = ANY(courses));",
		userID, courseID,
	)
	if err != nil {
		return fmt.Errorf("users: add course: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("users: add course: %w", err)
	}
	if n == 1 {
		return nil
	}

	var exists bool
	if err := r.db.sql.QueryRowContext(ctx,
		"SELECT EXISTS (SELECT 1 FROM users WHERE id = $1);", userID,
	).Scan(&exists); err != nil {
		return fmt.Errorf("users: add course: %w", err)
	}
	if !exists {
		return user.ErrNotFound
	}
	return user.ErrAlreadyEnrolled
}

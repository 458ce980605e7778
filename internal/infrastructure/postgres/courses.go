package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Zhima-Mochi/courseshop/internal/domain/course"
)

// Courses adapts DB to course.Repository.
type Courses struct{ db *DB }

func (d *DB) Courses() *Courses { return &Courses{db: d} }

func (r *Courses) FindByID(ctx context.Context, id string) (*course.Course, error) {
	var c course.Course
	err := r.db.sql.QueryRowContext(ctx,
		"SELECT id, name, price, purchased FROM courses WHERE id = $1;", id,
	).Scan(&c.ID, &c.Name, &c.Price, &c.Purchased)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, course.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("courses: find %s: %w", id, err)
	}
	return &c, nil
}

// Save upserts the catalogue fields. An existing row keeps its purchase counter.
func (r *Courses) Save(ctx context.Context, c *course.Course) error {
	if c == nil || c.ID == "" {
		return fmt.Errorf("courses: id is required")
	}
	_, err := r.db.sql.ExecContext(ctx,
		`INSERT INTO courses (id, name, price, purchased) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, price = EXCLUDED.price;`,
		c.ID, c.Name, c.Price, c.Purchased,
	)
	if err != nil {
		return fmt.Errorf("courses: save %s: %w", c.ID, err)
	}
	return nil
}

func (r *Courses) IncrementPurchased(ctx context.Context, id string) (int, error) {
	var n int
	err := r.db.sql.QueryRowContext(ctx,
		"UPDATE courses SET purchased = purchased + 1 WHERE id = $1 RETURNING purchased;", id,
	).Scan(&n)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, course.ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("courses: increment %s: %w", id, err)
	}
	return n, nil
}

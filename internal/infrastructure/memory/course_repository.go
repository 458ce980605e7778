package memory

import (
	"context"
	"fmt"
	"sync"

	domain "github.com/Zhima-Mochi/courseshop/internal/domain/course"
)

type CourseRepository struct {
	mu      sync.RWMutex
	courses map[string]*domain.Course
}

func NewCourseRepository(seed ...*domain.Course) *CourseRepository {
	r := &CourseRepository{courses: make(map[string]*domain.Course, len(seed))}
	for _, c := range seed {
		if c != nil {
			r.courses[c.ID] = cloneCourse(c)
		}
	}
	return r
}

func (r *CourseRepository) FindByID(ctx context.Context, id string) (*domain.Course, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.courses[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cloneCourse(c), nil
}

func (r *CourseRepository) Save(ctx context.Context, c *domain.Course) error {
	_ = ctx
	if c == nil || c.ID == "" {
		return fmt.Errorf("course repository: id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	next := cloneCourse(c)
	if prev, ok := r.courses[c.ID]; ok {
		next.Purchased = prev.Purchased
	}
	r.courses[c.ID] = next
	return nil
}

func (r *CourseRepository) IncrementPurchased(ctx context.Context, id string) (int, error) {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.courses[id]
	if !ok {
		return 0, domain.ErrNotFound
	}
	c.Purchased++
	return c.Purchased, nil
}

func cloneCourse(c *domain.Course) *domain.Course {
	clone := *c
	return &clone
}

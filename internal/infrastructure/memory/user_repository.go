package memory

import (
	"context"
	"fmt"
	"sync"

	domain "github.com/Zhima-Mochi/courseshop/internal/domain/user"
)

type UserRepository struct {
	mu    sync.RWMutex
	users map[string]*domain.User
}

func NewUserRepository(seed ...*domain.User) *UserRepository {
	r := &UserRepository{users: make(map[string]*domain.User, len(seed))}
	for _, u := range seed {
		if u != nil {
			r.users[u.ID] = u.Clone()
		}
	}
	return r
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return u.Clone(), nil
}

func (r *UserRepository) Save(ctx context.Context, u *domain.User) error {
	_ = ctx
	if u == nil || u.ID == "" {
		return fmt.Errorf("user repository: id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.users[u.ID] = u.Clone()
	return nil
}

func (r *UserRepository) AddCourse(ctx context.Context, userID, courseID string) error {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[userID]
	if !ok {
		return domain.ErrNotFound
	}
	return u.Enroll(courseID)
}

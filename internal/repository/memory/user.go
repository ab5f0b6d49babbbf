package memory

import (
	"context"

	"github.com/Guyuepp/community-board/domain"
	"github.com/Guyuepp/community-board/internal/repository"
)

type userRepository struct {
	s *Store
}

var _ domain.UserRepository = (*userRepository)(nil)

func (r *userRepository) GetByID(ctx context.Context, id string) (domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return domain.User{}, domain.ErrNotFound
	}
	return u, nil
}

func (r *userRepository) GetByIDs(ctx context.Context, ids []string) ([]domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	res := make([]domain.User, 0, len(ids))
	for _, id := range repository.UniqueIDs(ids) {
		if u, ok := r.s.users[id]; ok {
			res = append(res, u)
		}
	}
	return res, nil
}

func (r *userRepository) Insert(ctx context.Context, u *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u.Handle = domain.NormalizeHandle(u.Handle)
	for _, other := range r.s.users {
		if other.Email == u.Email || other.Handle == u.Handle {
			return domain.ErrConflict
		}
	}
	if u.ID == "" {
		u.ID = repository.NewID()
	}
	now := repository.Now()
	u.CreatedAt, u.UpdatedAt = now, now
	r.s.users[u.ID] = *u
	return nil
}

func (r *userRepository) UpdateProfile(ctx context.Context, u *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	cur, ok := r.s.users[u.ID]
	if !ok {
		return domain.ErrNotFound
	}
	cur.DisplayName = u.DisplayName
	cur.UpdatedAt = repository.Now()
	r.s.users[u.ID] = cur
	*u = cur
	return nil
}

package memory

import (
	"context"

	"github.com/Guyuepp/community-board/domain"
	"github.com/Guyuepp/community-board/internal/repository"
)

type commentRepository struct {
	s *Store
}

var _ domain.CommentRepository = (*commentRepository)(nil)

func (r *commentRepository) GetByID(ctx context.Context, id string) (domain.Comment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	c, ok := r.s.comments[id]
	if !ok {
		return domain.Comment{}, domain.ErrNotFound
	}
	return c, nil
}

func (r *commentRepository) FetchActiveByPost(ctx context.Context, postID string) ([]domain.Comment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	return r.s.activeComments(postID), nil
}

func (r *commentRepository) Store(ctx context.Context, c *domain.Comment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	post, ok := r.s.posts[c.PostID]
	if !ok || post.Status == domain.PostDeleted {
		return domain.ErrNotFound
	}
	if c.ID == "" {
		c.ID = repository.NewID()
	}
	if c.Status == "" {
		c.Status = domain.CommentActive
	}
	now := repository.Now()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.CreatedAt = repository.Normalize(c.CreatedAt)
	c.UpdatedAt = now
	r.s.comments[c.ID] = *c

	if c.IsActive() {
		post.CommentCount++
		r.s.posts[post.ID] = post
	}
	return nil
}

func (r *commentRepository) UpdateContent(ctx context.Context, c *domain.Comment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	cur, ok := r.s.comments[c.ID]
	if !ok || !cur.IsActive() {
		return domain.ErrNotFound
	}
	cur.Content = c.Content
	cur.UpdatedAt = repository.Now()
	r.s.comments[c.ID] = cur
	*c = cur
	return nil
}

func (r *commentRepository) SoftDelete(ctx context.Context, c domain.Comment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	cur, ok := r.s.comments[c.ID]
	if !ok || !cur.IsActive() {
		return domain.ErrNotFound
	}
	cur.Status = domain.CommentDeleted
	cur.UpdatedAt = repository.Now()
	r.s.comments[c.ID] = cur

	if post, ok := r.s.posts[cur.PostID]; ok && post.CommentCount > 0 {
		post.CommentCount--
		r.s.posts[post.ID] = post
	}
	return nil
}

func (r *commentRepository) CountBySubtype(ctx context.Context, postID string) (map[string]int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	res := make(map[string]int64)
	for _, c := range r.s.activeComments(postID) {
		res[string(c.Metadata.Subtype)]++
	}
	return res, nil
}

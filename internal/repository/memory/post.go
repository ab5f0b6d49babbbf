package memory

import (
	"context"
	"sort"

	"github.com/Guyuepp/community-board/domain"
	"github.com/Guyuepp/community-board/internal/repository"
)

type postRepository struct {
	s *Store
}

var _ domain.PostRepository = (*postRepository)(nil)

func (r *postRepository) Fetch(ctx context.Context, skip, limit int64) ([]domain.Post, error) {
	skip, limit = repository.PageBounds(skip, limit)

	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	all := make([]domain.Post, 0, len(r.s.posts))
	for _, p := range r.s.posts {
		if p.Status == domain.PostPublished && p.Metadata.Visibility != domain.VisibilityPrivate {
			all = append(all, clonePost(p))
		}
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].ID > all[j].ID
		}
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	if skip >= int64(len(all)) {
		return []domain.Post{}, nil
	}
	end := min(skip+limit, int64(len(all)))
	return all[skip:end], nil
}

func (r *postRepository) GetBySlug(ctx context.Context, slug string) (domain.Post, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.s.livePost(r.s.slugs[slug])
	if !ok {
		return domain.Post{}, domain.ErrNotFound
	}
	return p, nil
}

func (r *postRepository) GetByID(ctx context.Context, id string) (domain.Post, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.s.livePost(id)
	if !ok {
		return domain.Post{}, domain.ErrNotFound
	}
	return p, nil
}

func (r *postRepository) Store(ctx context.Context, p *domain.Post) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, taken := r.s.slugs[p.Slug]; taken {
		return domain.ErrConflict
	}
	if p.ID == "" {
		p.ID = repository.NewID()
	}
	now := repository.Now()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.CreatedAt = repository.Normalize(p.CreatedAt)
	p.UpdatedAt = now
	r.s.posts[p.ID] = clonePost(*p)
	r.s.slugs[p.Slug] = p.ID
	return nil
}

func (r *postRepository) Update(ctx context.Context, p *domain.Post) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	cur, ok := r.s.posts[p.ID]
	if !ok || cur.Status == domain.PostDeleted {
		return domain.ErrNotFound
	}
	cur.Title = p.Title
	cur.Content = p.Content
	cur.Status = p.Status
	cur.Metadata = p.Metadata
	cur.UpdatedAt = repository.Now()
	r.s.posts[p.ID] = clonePost(cur)
	*p = clonePost(cur)
	return nil
}

func (r *postRepository) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	cur, ok := r.s.posts[id]
	if !ok || cur.Status == domain.PostDeleted {
		return domain.ErrNotFound
	}
	cur.Status = domain.PostDeleted
	cur.UpdatedAt = repository.Now()
	r.s.posts[id] = cur
	return nil
}

func (r *postRepository) IncrementViews(ctx context.Context, id string, delta int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	cur, ok := r.s.posts[id]
	if !ok {
		return domain.ErrNotFound
	}
	cur.ViewCount += delta
	r.s.posts[id] = cur
	return nil
}

func (r *postRepository) FetchSlugs(ctx context.Context, skip, limit int64) ([]string, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	slugs := make([]string, 0, len(r.s.slugs))
	for slug, id := range r.s.slugs {
		if r.s.posts[id].Status != domain.PostDeleted {
			slugs = append(slugs, slug)
		}
	}
	sort.Strings(slugs)

	if skip < 0 {
		skip = 0
	}
	if skip >= int64(len(slugs)) {
		return []string{}, nil
	}
	end := int64(len(slugs))
	if limit > 0 {
		end = min(skip+limit, end)
	}
	return slugs[skip:end], nil
}

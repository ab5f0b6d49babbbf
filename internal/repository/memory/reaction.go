package memory

import (
	"context"

	"github.com/Guyuepp/community-board/domain"
	"github.com/Guyuepp/community-board/internal/repository"
)

type reactionRepository struct {
	s *Store
}

var (
	_ domain.ReactionRepository = (*reactionRepository)(nil)
	_ domain.CounterRepository  = (*reactionRepository)(nil)
)

func (r *reactionRepository) Get(ctx context.Context, userID string, target domain.ReactionTarget) (domain.ReactionState, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	return r.s.reactions[reactionKey{userID, target}].ReactionState, nil
}

func (r *reactionRepository) GetBatch(ctx context.Context, userID string, targetType domain.TargetType, targetIDs []string) (map[string]domain.ReactionState, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	res := make(map[string]domain.ReactionState)
	for _, id := range targetIDs {
		if rec, ok := r.s.reactions[reactionKey{userID, domain.ReactionTarget{Type: targetType, ID: id}}]; ok {
			res[id] = rec.ReactionState
		}
	}
	return res, nil
}

// Toggle runs as one critical section: the flag flip and the counter move can
// not interleave with another toggle.
func (r *reactionRepository) Toggle(ctx context.Context, userID string, target domain.ReactionTarget, kind domain.ReactionKind) (domain.ToggleResult, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	key := reactionKey{userID, target}
	rec, exists := r.s.reactions[key]
	now := repository.Now()
	if !exists {
		rec = domain.UserReaction{UserID: userID, Target: target, CreatedAt: now}
	}
	next := rec.ReactionState.Toggle(kind)
	delta := rec.ReactionState.Delta(next)

	var counts domain.ReactionCounts
	switch target.Type {
	case domain.TargetPost:
		p, ok := r.s.posts[target.ID]
		if !ok || p.Status == domain.PostDeleted {
			return domain.ToggleResult{}, domain.ErrNotFound
		}
		p.LikeCount += delta.LikeCount
		p.DislikeCount += delta.DislikeCount
		p.BookmarkCount += delta.BookmarkCount
		r.s.posts[p.ID] = p
		counts = domain.ReactionCounts{LikeCount: p.LikeCount, DislikeCount: p.DislikeCount, BookmarkCount: p.BookmarkCount}
	case domain.TargetComment:
		c, ok := r.s.comments[target.ID]
		if !ok || !c.IsActive() {
			return domain.ToggleResult{}, domain.ErrNotFound
		}
		c.LikeCount += delta.LikeCount
		c.DislikeCount += delta.DislikeCount
		c.BookmarkCount += delta.BookmarkCount
		r.s.comments[c.ID] = c
		counts = domain.ReactionCounts{LikeCount: c.LikeCount, DislikeCount: c.DislikeCount, BookmarkCount: c.BookmarkCount}
	default:
		return domain.ToggleResult{}, domain.ErrBadParamInput
	}

	rec.ReactionState = next
	rec.UpdatedAt = now
	r.s.reactions[key] = rec
	return domain.ToggleResult{Counts: counts, State: next}, nil
}

// ReconcileCounters recomputes the counters of target from the reaction records
// and, for posts, the active comments.
func (r *reactionRepository) ReconcileCounters(ctx context.Context, target domain.ReactionTarget) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var counts domain.ReactionCounts
	for k, rec := range r.s.reactions {
		if k.target != target {
			continue
		}
		counts.LikeCount += b2i(rec.Liked)
		counts.DislikeCount += b2i(rec.Disliked)
		counts.BookmarkCount += b2i(rec.Bookmarked)
	}

	switch target.Type {
	case domain.TargetPost:
		p, ok := r.s.posts[target.ID]
		if !ok {
			return domain.ErrNotFound
		}
		p.LikeCount, p.DislikeCount, p.BookmarkCount = counts.LikeCount, counts.DislikeCount, counts.BookmarkCount
		p.CommentCount = int64(len(r.s.activeComments(p.ID)))
		r.s.posts[p.ID] = p
	case domain.TargetComment:
		c, ok := r.s.comments[target.ID]
		if !ok {
			return domain.ErrNotFound
		}
		c.LikeCount, c.DislikeCount, c.BookmarkCount = counts.LikeCount, counts.DislikeCount, counts.BookmarkCount
		r.s.comments[c.ID] = c
	default:
		return domain.ErrBadParamInput
	}
	return nil
}

func b2i(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

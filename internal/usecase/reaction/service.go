package reaction

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Guyuepp/community-board/domain"
	"github.com/Guyuepp/community-board/internal/repository"
	"github.com/Guyuepp/community-board/internal/repository/cache"
)

const DefaultTTL = 5 * time.Minute

type Service struct {
	reactionRepo domain.ReactionRepository
	postRepo     domain.PostRepository
	commentRepo  domain.CommentRepository
	cache        *cache.Cache
	ttl          time.Duration
	reconciler   domain.CounterReconciler
}

var _ domain.ReactionUsecase = (*Service)(nil)

// NewService will create a new reaction service object. reconciler may be nil.
func NewService(rr domain.ReactionRepository, pr domain.PostRepository, cr domain.CommentRepository,
	c *cache.Cache, ttl time.Duration, reconciler domain.CounterReconciler) *Service {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Service{
		reactionRepo: rr,
		postRepo:     pr,
		commentRepo:  cr,
		cache:        c,
		ttl:          ttl,
		reconciler:   reconciler,
	}
}

// ResolveReaction never fails with ErrNotFound: a user who never reacted has the
// default state, and so has an anonymous viewer.
func (s *Service) ResolveReaction(ctx context.Context, userID string, target domain.ReactionTarget) (domain.ReactionState, error) {
	if userID == "" {
		return domain.ReactionState{}, nil
	}

	key := cache.ReactionKey(userID, string(target.Type), target.ID)
	var state domain.ReactionState
	if s.cache.GetJSON(ctx, key, &state) {
		return state, nil
	}

	lease := s.cache.Lease(ctx, key)
	state, err := s.reactionRepo.Get(ctx, userID, target)
	if err != nil {
		logrus.Errorf("failed to get reaction from repo: %v", err)
		return domain.ReactionState{}, err
	}
	s.cache.Fill(ctx, lease, state, s.ttl)
	return state, nil
}

func (s *Service) ResolveReactionsBatch(ctx context.Context, userID string, targetType domain.TargetType, targetIDs []string) (map[string]domain.ReactionState, error) {
	ids := repository.UniqueIDs(targetIDs)
	res := make(map[string]domain.ReactionState, len(ids))
	if userID == "" {
		for _, id := range ids {
			res[id] = domain.ReactionState{}
		}
		return res, nil
	}
	if len(ids) == 0 {
		return res, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = cache.ReactionKey(userID, string(targetType), id)
	}
	hits := cache.GetMany[domain.ReactionState](ctx, s.cache, keys)

	missed := make([]string, 0, len(ids))
	missedKeys := make([]string, 0, len(ids))
	for i, id := range ids {
		if state, ok := hits[keys[i]]; ok {
			res[id] = state
			continue
		}
		missed = append(missed, id)
		missedKeys = append(missedKeys, keys[i])
	}
	if len(missed) == 0 {
		return res, nil
	}

	leases := s.cache.Leases(ctx, missedKeys)
	stored, err := s.reactionRepo.GetBatch(ctx, userID, targetType, missed)
	if err != nil {
		logrus.Errorf("failed to GetBatch reactions from repo: %v", err)
		return nil, err
	}
	for i, id := range missed {
		state := stored[id]
		res[id] = state
		s.cache.Fill(ctx, leases[i], state, s.ttl)
	}
	return res, nil
}

func (s *Service) TogglePostReaction(ctx context.Context, userID, slug string, kind domain.ReactionKind) (domain.ToggleResult, error) {
	if userID == "" {
		return domain.ToggleResult{}, domain.ErrUnauthorized
	}
	post, err := s.postRepo.GetBySlug(ctx, slug)
	if err != nil {
		return domain.ToggleResult{}, err
	}
	return s.toggle(ctx, userID, domain.ReactionTarget{Type: domain.TargetPost, ID: post.ID}, kind, post.Slug)
}

func (s *Service) ToggleReaction(ctx context.Context, userID string, target domain.ReactionTarget, kind domain.ReactionKind) (domain.ToggleResult, error) {
	if userID == "" {
		return domain.ToggleResult{}, domain.ErrUnauthorized
	}

	var postID string
	switch target.Type {
	case domain.TargetPost:
		postID = target.ID
	case domain.TargetComment:
		c, err := s.commentRepo.GetByID(ctx, target.ID)
		if err != nil {
			return domain.ToggleResult{}, err
		}
		if !c.IsActive() {
			return domain.ToggleResult{}, domain.ErrNotFound
		}
		postID = c.PostID
	default:
		return domain.ToggleResult{}, domain.ErrBadParamInput
	}

	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return domain.ToggleResult{}, err
	}
	return s.toggle(ctx, userID, target, kind, post.Slug)
}

func (s *Service) toggle(ctx context.Context, userID string, target domain.ReactionTarget, kind domain.ReactionKind, slug string) (domain.ToggleResult, error) {
	res, err := s.reactionRepo.Toggle(ctx, userID, target, kind)
	if errors.Is(err, domain.ErrReactionConflict) {
		logrus.Warnf("reaction toggle conflict for user %s on %s %s, retrying once", userID, target.Type, target.ID)
		res, err = s.reactionRepo.Toggle(ctx, userID, target, kind)
	}
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrBadParamInput) {
			return domain.ToggleResult{}, err
		}
		logrus.Errorf("failed to toggle %s for user %s on %s %s: %v", kind, userID, target.Type, target.ID, err)
		return domain.ToggleResult{}, domain.ErrInternalServerError
	}

	keys := []string{
		cache.ReactionKey(userID, string(target.Type), target.ID),
		cache.PostDetailKey(slug),
	}
	if target.Type == domain.TargetComment {
		keys = append(keys, cache.PostCommentsKey(slug))
	}
	s.cache.Delete(ctx, keys...)

	if s.reconciler != nil {
		s.reconciler.Send(target)
	}
	return res, nil
}

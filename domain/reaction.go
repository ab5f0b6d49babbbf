package domain

import (
	"context"
	"strings"
	"time"
)

// TargetType is the kind of entity a reaction points at
type TargetType string

const (
	TargetPost    TargetType = "post"
	TargetComment TargetType = "comment"
)

// ReactionKind is one of the three toggles a user has on a target
type ReactionKind string

const (
	ReactionLike     ReactionKind = "like"
	ReactionDislike  ReactionKind = "dislike"
	ReactionBookmark ReactionKind = "bookmark"
)

// ParseReactionKind returns ErrBadParamInput for anything but like, dislike, bookmark.
func ParseReactionKind(s string) (ReactionKind, error) {
	switch k := ReactionKind(strings.ToLower(strings.TrimSpace(s))); k {
	case ReactionLike, ReactionDislike, ReactionBookmark:
		return k, nil
	default:
		return "", ErrBadParamInput
	}
}

// ReactionTarget identifies a post or a comment
type ReactionTarget struct {
	Type TargetType `json:"type"`
	ID   string     `json:"id"`
}

// ReactionState is a user's flags on one target. The zero value is the default
// state of a user who never reacted.
type ReactionState struct {
	Liked      bool `json:"liked"`
	Disliked   bool `json:"disliked"`
	Bookmarked bool `json:"bookmarked"`
}

// Toggle flips the flag of kind. Liked and Disliked exclude each other;
// Bookmarked is independent of both.
func (s ReactionState) Toggle(kind ReactionKind) ReactionState {
	switch kind {
	case ReactionLike:
		s.Liked = !s.Liked
		if s.Liked {
			s.Disliked = false
		}
	case ReactionDislike:
		s.Disliked = !s.Disliked
		if s.Disliked {
			s.Liked = false
		}
	case ReactionBookmark:
		s.Bookmarked = !s.Bookmarked
	}
	return s
}

// Delta is the counter change that moving from s to next implies.
func (s ReactionState) Delta(next ReactionState) ReactionCounts {
	return ReactionCounts{
		LikeCount:     b2i(next.Liked) - b2i(s.Liked),
		DislikeCount:  b2i(next.Disliked) - b2i(s.Disliked),
		BookmarkCount: b2i(next.Bookmarked) - b2i(s.Bookmarked),
	}
}

func b2i(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

// UserReaction is representing a stored reaction record
type UserReaction struct {
	UserID string
	Target ReactionTarget
	ReactionState
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ReactionCounts are the denormalized reaction counters of a target
type ReactionCounts struct {
	LikeCount     int64 `json:"like_count"`
	DislikeCount  int64 `json:"dislike_count"`
	BookmarkCount int64 `json:"bookmark_count"`
}

// IsZero reports whether no counter changes.
func (c ReactionCounts) IsZero() bool {
	return c == ReactionCounts{}
}

// ToggleResult is what a toggle returns to the caller
type ToggleResult struct {
	Counts ReactionCounts `json:"counts"`
	State  ReactionState  `json:"reaction"`
}

// ReactionRepository defines the contract for reaction persistence
type ReactionRepository interface {
	// Get returns the default state when the user never reacted.
	Get(ctx context.Context, userID string, target ReactionTarget) (ReactionState, error)

	// GetBatch returns the stored states among targetIDs in a single query.
	// Targets without a record are absent from the result.
	GetBatch(ctx context.Context, userID string, targetType TargetType, targetIDs []string) (map[string]ReactionState, error)

	// Toggle atomically flips kind for the user on target and moves the target
	// counters by the implied delta. Returns ErrReactionConflict when a concurrent
	// toggle on the same pair interfered and ErrNotFound when the target is gone.
	Toggle(ctx context.Context, userID string, target ReactionTarget, kind ReactionKind) (ToggleResult, error)
}

// CounterRepository recomputes denormalized counters from the authoritative rows.
type CounterRepository interface {
	ReconcileCounters(ctx context.Context, target ReactionTarget) error
}

// ReactionUsecase resolves and mutates reaction state with caching.
type ReactionUsecase interface {
	ResolveReaction(ctx context.Context, userID string, target ReactionTarget) (ReactionState, error)
	// ResolveReactionsBatch returns one entry per distinct target id.
	ResolveReactionsBatch(ctx context.Context, userID string, targetType TargetType, targetIDs []string) (map[string]ReactionState, error)
	ToggleReaction(ctx context.Context, userID string, target ReactionTarget, kind ReactionKind) (ToggleResult, error)
	TogglePostReaction(ctx context.Context, userID, slug string, kind ReactionKind) (ToggleResult, error)
}

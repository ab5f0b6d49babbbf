package domain

import (
	"context"
	"strings"
	"time"
)

// CommentStatus is the soft-delete state of a comment
type CommentStatus string

const (
	CommentActive  CommentStatus = "active"
	CommentDeleted CommentStatus = "deleted"
)

// ParentType tells whether a comment answers a post or another comment
type ParentType string

const (
	ParentPost    ParentType = "post"
	ParentComment ParentType = "comment"
)

// CommentSubtype categorizes comments for counting.
type CommentSubtype string

const (
	SubtypeGeneral        CommentSubtype = "general"
	SubtypeServiceInquiry CommentSubtype = "service_inquiry"
	SubtypeServiceReview  CommentSubtype = "service_review"
	SubtypeOther          CommentSubtype = "other"
)

// KnownCommentSubtypes are the buckets every stats result carries.
var KnownCommentSubtypes = []CommentSubtype{SubtypeGeneral, SubtypeServiceInquiry, SubtypeServiceReview}

// ParseCommentSubtype maps stored or user input onto the closed subtype set.
// Empty input is a general comment.
func ParseCommentSubtype(s string) CommentSubtype {
	switch t := CommentSubtype(strings.ToLower(strings.TrimSpace(s))); t {
	case "":
		return SubtypeGeneral
	case SubtypeGeneral, SubtypeServiceInquiry, SubtypeServiceReview:
		return t
	default:
		return SubtypeOther
	}
}

// CommentMetadata holds the categorization of a comment
type CommentMetadata struct {
	Subtype CommentSubtype `json:"subtype"`
}

// Comment domain model
type Comment struct {
	ID         string          `json:"id"`
	PostID     string          `json:"post_id"`
	ParentType ParentType      `json:"parent_type"`
	ParentID   string          `json:"parent_id"`
	AuthorID   string          `json:"author_id"`
	Content    string          `json:"content"`
	Depth      int             `json:"depth"` // 0 for a comment on the post itself
	Status     CommentStatus   `json:"status"`
	Metadata   CommentMetadata `json:"metadata"`

	LikeCount     int64 `json:"like_count"`
	DislikeCount  int64 `json:"dislike_count"`
	BookmarkCount int64 `json:"bookmark_count"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsActive is the one soft-delete predicate; stores mirror it in their filters.
func (c Comment) IsActive() bool {
	return c.Status == CommentActive
}

// CommentView is a comment decorated for display.
type CommentView struct {
	Comment
	Author   *AuthorInfo    `json:"author"`
	Reaction *ReactionState `json:"reaction,omitempty"`
}

// CommentStats counts active comments per subtype.
type CommentStats map[CommentSubtype]int64

// NewCommentStats folds raw stored subtype counts into typed buckets. Known buckets
// are always present; the other bucket only when something landed in it.
func NewCommentStats(raw map[string]int64) CommentStats {
	stats := make(CommentStats, len(KnownCommentSubtypes))
	for _, t := range KnownCommentSubtypes {
		stats[t] = 0
	}
	for subtype, n := range raw {
		stats[ParseCommentSubtype(subtype)] += n
	}
	if stats[SubtypeOther] == 0 {
		delete(stats, SubtypeOther)
	}
	return stats
}

// CommentRepository 数据存取接口
type CommentRepository interface {
	// GetByID returns the comment whatever its status.
	GetByID(ctx context.Context, id string) (Comment, error)

	// FetchActiveByPost returns the active comments of a post ordered by creation
	// time ascending, ties broken by id, in a single query.
	FetchActiveByPost(ctx context.Context, postID string) ([]Comment, error)

	// Store inserts the comment and increments the post comment_count.
	Store(ctx context.Context, c *Comment) error

	// UpdateContent rewrites the content of an active comment.
	UpdateContent(ctx context.Context, c *Comment) error

	// SoftDelete marks an active comment deleted and decrements the post comment_count.
	// Returns ErrNotFound if the comment was not active.
	SoftDelete(ctx context.Context, c Comment) error

	// CountBySubtype groups the active comments of a post by stored subtype.
	CountBySubtype(ctx context.Context, postID string) (map[string]int64, error)
}

// CommentAssembler decorates the comments of a loaded post.
type CommentAssembler interface {
	CommentsForPost(ctx context.Context, post Post, viewerID string) ([]CommentView, error)
}

// CommentUsecase 业务逻辑接口
type CommentUsecase interface {
	CommentAssembler
	GetCommentsWithAuthors(ctx context.Context, slug, viewerID string) ([]CommentView, error)
	// Create returns ErrDepthExceeded when a reply would nest too deep.
	Create(ctx context.Context, slug string, c *Comment) error
	Update(ctx context.Context, actorID, commentID, content string) (Comment, error)
	Delete(ctx context.Context, actorID, commentID string) error
	CountBySubtype(ctx context.Context, postID string, subtype CommentSubtype) (int64, error)
	StatsByPost(ctx context.Context, postID string) (CommentStats, error)
}

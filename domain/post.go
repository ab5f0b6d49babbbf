package domain

import (
	"context"
	"strings"
	"time"
)

// PostStatus is the lifecycle state of a post.
type PostStatus string

const (
	PostDraft     PostStatus = "draft"
	PostPublished PostStatus = "published"
	PostDeleted   PostStatus = "deleted"
)

// Valid reports whether s is one of the known statuses.
func (s PostStatus) Valid() bool {
	switch s {
	case PostDraft, PostPublished, PostDeleted:
		return true
	}
	return false
}

// PostType tags what kind of board entry a post is.
type PostType string

const (
	PostTypeBoard        PostType = "board"
	PostTypePropertyInfo PostType = "property_info"
	PostTypeServices     PostType = "services"
	PostTypeTips         PostType = "tips"
	// PostTypeOther keeps posts written by newer clients readable.
	PostTypeOther PostType = "other"
)

// ParsePostType maps free-form input onto the closed set of post types.
// Empty input is a board post.
func ParsePostType(s string) PostType {
	switch t := PostType(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_")); t {
	case "":
		return PostTypeBoard
	case PostTypeBoard, PostTypePropertyInfo, PostTypeServices, PostTypeTips:
		return t
	default:
		return PostTypeOther
	}
}

// Visibility controls who can list a post.
type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
)

// ParseVisibility defaults anything unknown to public.
func ParseVisibility(s string) Visibility {
	if Visibility(strings.ToLower(strings.TrimSpace(s))) == VisibilityPrivate {
		return VisibilityPrivate
	}
	return VisibilityPublic
}

// PostMetadata is the typed replacement of the post metadata bag.
type PostMetadata struct {
	Type       PostType   `json:"type"`
	Category   string     `json:"category"`
	Tags       []string   `json:"tags"`
	Visibility Visibility `json:"visibility"`
}

// Post is representing the Post data struct
type Post struct {
	ID       string       `json:"id"`
	Slug     string       `json:"slug"` // unique, immutable after creation
	Title    string       `json:"title"`
	Content  string       `json:"content"`
	AuthorID string       `json:"author_id"`
	Status   PostStatus   `json:"status"`
	Metadata PostMetadata `json:"metadata"`

	// Denormalized counters, maintained by atomic increments on write.
	ViewCount     int64 `json:"view_count"`
	LikeCount     int64 `json:"like_count"`
	DislikeCount  int64 `json:"dislike_count"`
	CommentCount  int64 `json:"comment_count"`
	BookmarkCount int64 `json:"bookmark_count"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PostUpdate carries the mutable fields of a post; nil fields are left unchanged.
type PostUpdate struct {
	Title    *string
	Content  *string
	Status   *PostStatus
	Metadata *PostMetadata
}

// PostRepository defines the contract for post data persistence
type PostRepository interface {
	// Fetch retrieves published posts, newest first.
	Fetch(ctx context.Context, skip, limit int64) ([]Post, error)

	// GetBySlug returns ErrNotFound for unknown or deleted posts.
	GetBySlug(ctx context.Context, slug string) (Post, error)

	// GetByID returns ErrNotFound for unknown or deleted posts.
	GetByID(ctx context.Context, id string) (Post, error)

	// Store creates a new post and backfills ID and timestamps.
	// Returns ErrConflict if the slug is taken.
	Store(ctx context.Context, p *Post) error

	// Update persists title, content, status and metadata. The slug is never written.
	Update(ctx context.Context, p *Post) error

	// Delete marks the post deleted.
	Delete(ctx context.Context, id string) error

	// IncrementViews atomically adds delta to view_count.
	IncrementViews(ctx context.Context, id string, delta int64) error

	// FetchSlugs pages through the slugs of every stored post.
	FetchSlugs(ctx context.Context, skip, limit int64) ([]string, error)
}

// PostUsecase is the post read/write business logic
type PostUsecase interface {
	Fetch(ctx context.Context, skip, limit int64) ([]PostDetailView, error)
	// GetPostDetail returns the post with its author and the viewer's reaction.
	GetPostDetail(ctx context.Context, slug, viewerID string) (PostDetailView, error)
	// GetPostComplete also embeds the comments with their authors.
	GetPostComplete(ctx context.Context, slug, viewerID string) (PostDetailView, error)
	Store(ctx context.Context, p *Post) error
	Update(ctx context.Context, actorID, slug string, upd PostUpdate) (Post, error)
	Delete(ctx context.Context, actorID, slug string) error
	InitBloomFilter(ctx context.Context) error
}

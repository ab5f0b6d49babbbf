package mongo

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Guyuepp/community-board/domain"
)

type userDoc struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Email       string             `bson:"email"`
	Handle      string             `bson:"handle"`
	DisplayName string             `bson:"display_name"`
	IsAdmin     bool               `bson:"is_admin"`
	CreatedAt   time.Time          `bson:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at"`
}

func (d userDoc) toDomain() domain.User {
	return domain.User{
		ID:          d.ID.Hex(),
		Email:       d.Email,
		Handle:      d.Handle,
		DisplayName: d.DisplayName,
		IsAdmin:     d.IsAdmin,
		CreatedAt:   d.CreatedAt.UTC(),
		UpdatedAt:   d.UpdatedAt.UTC(),
	}
}

func (d userDoc) authorInfo() *domain.AuthorInfo {
	return &domain.AuthorInfo{ID: d.ID.Hex(), Handle: d.Handle, DisplayName: d.DisplayName}
}

type postMetadataDoc struct {
	Type       string   `bson:"type"`
	Category   string   `bson:"category"`
	Tags       []string `bson:"tags"`
	Visibility string   `bson:"visibility"`
}

type postDoc struct {
	ID            primitive.ObjectID `bson:"_id,omitempty"`
	Slug          string             `bson:"slug"`
	Title         string             `bson:"title"`
	Content       string             `bson:"content"`
	AuthorID      primitive.ObjectID `bson:"author_id"`
	Status        string             `bson:"status"`
	Metadata      postMetadataDoc    `bson:"metadata"`
	ViewCount     int64              `bson:"view_count"`
	LikeCount     int64              `bson:"like_count"`
	DislikeCount  int64              `bson:"dislike_count"`
	CommentCount  int64              `bson:"comment_count"`
	BookmarkCount int64              `bson:"bookmark_count"`
	CreatedAt     time.Time          `bson:"created_at"`
	UpdatedAt     time.Time          `bson:"updated_at"`
}

func newPostDoc(p *domain.Post) postDoc {
	authorID, _ := objectID(p.AuthorID)
	return postDoc{
		Slug:     p.Slug,
		Title:    p.Title,
		Content:  p.Content,
		AuthorID: authorID,
		Status:   string(p.Status),
		Metadata: postMetadataDoc{
			Type:       string(p.Metadata.Type),
			Category:   p.Metadata.Category,
			Tags:       p.Metadata.Tags,
			Visibility: string(p.Metadata.Visibility),
		},
		ViewCount:     p.ViewCount,
		LikeCount:     p.LikeCount,
		DislikeCount:  p.DislikeCount,
		CommentCount:  p.CommentCount,
		BookmarkCount: p.BookmarkCount,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

func (d postDoc) toDomain() domain.Post {
	return domain.Post{
		ID:       d.ID.Hex(),
		Slug:     d.Slug,
		Title:    d.Title,
		Content:  d.Content,
		AuthorID: hexID(d.AuthorID),
		Status:   domain.PostStatus(d.Status),
		Metadata: domain.PostMetadata{
			Type:       domain.ParsePostType(d.Metadata.Type),
			Category:   d.Metadata.Category,
			Tags:       d.Metadata.Tags,
			Visibility: domain.ParseVisibility(d.Metadata.Visibility),
		},
		ViewCount:     d.ViewCount,
		LikeCount:     d.LikeCount,
		DislikeCount:  d.DislikeCount,
		CommentCount:  d.CommentCount,
		BookmarkCount: d.BookmarkCount,
		CreatedAt:     d.CreatedAt.UTC(),
		UpdatedAt:     d.UpdatedAt.UTC(),
	}
}

type commentDoc struct {
	ID         primitive.ObjectID `bson:"_id,omitempty"`
	PostID     primitive.ObjectID `bson:"post_id"`
	ParentType string             `bson:"parent_type"`
	ParentID   primitive.ObjectID `bson:"parent_id"`
	AuthorID   primitive.ObjectID `bson:"author_id"`
	Content    string             `bson:"content"`
	Depth      int                `bson:"depth"`
	Status     string             `bson:"status"`
	Metadata   struct {
		Subtype string `bson:"subtype"`
	} `bson:"metadata"`
	LikeCount     int64     `bson:"like_count"`
	DislikeCount  int64     `bson:"dislike_count"`
	BookmarkCount int64     `bson:"bookmark_count"`
	CreatedAt     time.Time `bson:"created_at"`
	UpdatedAt     time.Time `bson:"updated_at"`
}

func newCommentDoc(c *domain.Comment) commentDoc {
	postID, _ := objectID(c.PostID)
	parentID, _ := objectID(c.ParentID)
	authorID, _ := objectID(c.AuthorID)
	d := commentDoc{
		PostID:        postID,
		ParentType:    string(c.ParentType),
		ParentID:      parentID,
		AuthorID:      authorID,
		Content:       c.Content,
		Depth:         c.Depth,
		Status:        string(c.Status),
		LikeCount:     c.LikeCount,
		DislikeCount:  c.DislikeCount,
		BookmarkCount: c.BookmarkCount,
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
	d.Metadata.Subtype = string(c.Metadata.Subtype)
	return d
}

func (d commentDoc) toDomain() domain.Comment {
	return domain.Comment{
		ID:            d.ID.Hex(),
		PostID:        d.PostID.Hex(),
		ParentType:    domain.ParentType(d.ParentType),
		ParentID:      hexID(d.ParentID),
		AuthorID:      hexID(d.AuthorID),
		Content:       d.Content,
		Depth:         d.Depth,
		Status:        domain.CommentStatus(d.Status),
		Metadata:      domain.CommentMetadata{Subtype: domain.ParseCommentSubtype(d.Metadata.Subtype)},
		LikeCount:     d.LikeCount,
		DislikeCount:  d.DislikeCount,
		BookmarkCount: d.BookmarkCount,
		CreatedAt:     d.CreatedAt.UTC(),
		UpdatedAt:     d.UpdatedAt.UTC(),
	}
}

type reactionDoc struct {
	ID         primitive.ObjectID `bson:"_id,omitempty"`
	UserID     primitive.ObjectID `bson:"user_id"`
	TargetType string             `bson:"target_type"`
	TargetID   primitive.ObjectID `bson:"target_id"`
	Liked      bool               `bson:"liked"`
	Disliked   bool               `bson:"disliked"`
	Bookmarked bool               `bson:"bookmarked"`
	CreatedAt  time.Time          `bson:"created_at"`
	UpdatedAt  time.Time          `bson:"updated_at"`
}

func (d reactionDoc) state() domain.ReactionState {
	return domain.ReactionState{Liked: d.Liked, Disliked: d.Disliked, Bookmarked: d.Bookmarked}
}

type countersDoc struct {
	LikeCount     int64 `bson:"like_count"`
	DislikeCount  int64 `bson:"dislike_count"`
	BookmarkCount int64 `bson:"bookmark_count"`
}

func (d countersDoc) toDomain() domain.ReactionCounts {
	return domain.ReactionCounts{
		LikeCount:     d.LikeCount,
		DislikeCount:  d.DislikeCount,
		BookmarkCount: d.BookmarkCount,
	}
}

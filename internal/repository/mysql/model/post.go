package model

import (
	"time"

	"github.com/Guyuepp/community-board/domain"
)

type Post struct {
	ID            string    `gorm:"type:char(26);primaryKey"`
	Slug          string    `gorm:"type:varchar(80);not null;uniqueIndex"`
	Title         string    `gorm:"type:varchar(200);not null"`
	Content       string    `gorm:"type:longtext;not null"`
	AuthorID      string    `gorm:"type:char(26);not null;index"`
	Status        string    `gorm:"type:varchar(16);not null;index:idx_posts_listing,priority:1"`
	PostType      string    `gorm:"column:post_type;type:varchar(32);not null"`
	Category      string    `gorm:"type:varchar(64)"`
	Tags          []string  `gorm:"type:json;serializer:json"`
	Visibility    string    `gorm:"type:varchar(16);not null"`
	ViewCount     int64     `gorm:"not null;default:0"`
	LikeCount     int64     `gorm:"not null;default:0"`
	DislikeCount  int64     `gorm:"not null;default:0"`
	CommentCount  int64     `gorm:"not null;default:0"`
	BookmarkCount int64     `gorm:"not null;default:0"`
	CreatedAt     time.Time `gorm:"type:datetime(3);index:idx_posts_listing,priority:2"`
	UpdatedAt     time.Time `gorm:"type:datetime(3)"`
}

func (Post) TableName() string {
	return "posts"
}

func (m *Post) ToDomain() domain.Post {
	return domain.Post{
		ID:       m.ID,
		Slug:     m.Slug,
		Title:    m.Title,
		Content:  m.Content,
		AuthorID: m.AuthorID,
		Status:   domain.PostStatus(m.Status),
		Metadata: domain.PostMetadata{
			Type:       domain.ParsePostType(m.PostType),
			Category:   m.Category,
			Tags:       m.Tags,
			Visibility: domain.ParseVisibility(m.Visibility),
		},
		ViewCount:     m.ViewCount,
		LikeCount:     m.LikeCount,
		DislikeCount:  m.DislikeCount,
		CommentCount:  m.CommentCount,
		BookmarkCount: m.BookmarkCount,
		CreatedAt:     m.CreatedAt.UTC(),
		UpdatedAt:     m.UpdatedAt.UTC(),
	}
}

func NewPostFromDomain(p *domain.Post) *Post {
	return &Post{
		ID:            p.ID,
		Slug:          p.Slug,
		Title:         p.Title,
		Content:       p.Content,
		AuthorID:      p.AuthorID,
		Status:        string(p.Status),
		PostType:      string(p.Metadata.Type),
		Category:      p.Metadata.Category,
		Tags:          p.Metadata.Tags,
		Visibility:    string(p.Metadata.Visibility),
		ViewCount:     p.ViewCount,
		LikeCount:     p.LikeCount,
		DislikeCount:  p.DislikeCount,
		CommentCount:  p.CommentCount,
		BookmarkCount: p.BookmarkCount,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

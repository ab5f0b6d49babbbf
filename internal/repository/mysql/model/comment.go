package model

import (
	"time"

	"github.com/Guyuepp/community-board/domain"
)

type Comment struct {
	ID            string    `gorm:"type:char(26);primaryKey;index:idx_comments_post,priority:4"`
	PostID        string    `gorm:"column:post_id;type:char(26);not null;index:idx_comments_post,priority:1"`
	ParentType    string    `gorm:"column:parent_type;type:varchar(16);not null"`
	ParentID      string    `gorm:"column:parent_id;type:char(26);not null"`
	AuthorID      string    `gorm:"column:author_id;type:char(26);not null"`
	Content       string    `gorm:"type:text;not null"`
	Depth         int       `gorm:"not null;default:0"`
	Status        string    `gorm:"type:varchar(16);not null;index:idx_comments_post,priority:2"`
	Subtype       string    `gorm:"type:varchar(32);not null"`
	LikeCount     int64     `gorm:"not null;default:0"`
	DislikeCount  int64     `gorm:"not null;default:0"`
	BookmarkCount int64     `gorm:"not null;default:0"`
	CreatedAt     time.Time `gorm:"type:datetime(3);index:idx_comments_post,priority:3"`
	UpdatedAt     time.Time `gorm:"type:datetime(3)"`
}

func (Comment) TableName() string {
	return "comments"
}

func NewCommentFromDomain(c *domain.Comment) *Comment {
	return &Comment{
		ID:            c.ID,
		PostID:        c.PostID,
		ParentType:    string(c.ParentType),
		ParentID:      c.ParentID,
		AuthorID:      c.AuthorID,
		Content:       c.Content,
		Depth:         c.Depth,
		Status:        string(c.Status),
		Subtype:       string(c.Metadata.Subtype),
		LikeCount:     c.LikeCount,
		DislikeCount:  c.DislikeCount,
		BookmarkCount: c.BookmarkCount,
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
}

func (m *Comment) ToDomain() domain.Comment {
	return domain.Comment{
		ID:            m.ID,
		PostID:        m.PostID,
		ParentType:    domain.ParentType(m.ParentType),
		ParentID:      m.ParentID,
		AuthorID:      m.AuthorID,
		Content:       m.Content,
		Depth:         m.Depth,
		Status:        domain.CommentStatus(m.Status),
		Metadata:      domain.CommentMetadata{Subtype: domain.ParseCommentSubtype(m.Subtype)},
		LikeCount:     m.LikeCount,
		DislikeCount:  m.DislikeCount,
		BookmarkCount: m.BookmarkCount,
		CreatedAt:     m.CreatedAt.UTC(),
		UpdatedAt:     m.UpdatedAt.UTC(),
	}
}

package request

import "github.com/Guyuepp/community-board/domain"

type Comment struct {
	Content  string `json:"content" binding:"required,max=5000"`
	ParentID string `json:"parent_id"` // reply target, empty for a comment on the post
	Subtype  string `json:"subtype" binding:"omitempty,max=64"`
}

// ToDomain: Request -> Domain
func (r *Comment) ToDomain() domain.Comment {
	c := domain.Comment{
		Content:  r.Content,
		Metadata: domain.CommentMetadata{Subtype: domain.CommentSubtype(r.Subtype)},
	}
	if r.ParentID != "" {
		c.ParentType = domain.ParentComment
		c.ParentID = r.ParentID
	}
	return c
}

type UpdateComment struct {
	Content string `json:"content" binding:"required,max=5000"`
}

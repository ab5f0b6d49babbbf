package response

import "github.com/Guyuepp/community-board/domain"

type Comment struct {
	ID            string `json:"id"`
	PostID        string `json:"post_id"`
	ParentType    string `json:"parent_type"`
	ParentID      string `json:"parent_id"`
	AuthorID      string `json:"author_id"`
	Content       string `json:"content"`
	Depth         int    `json:"depth"`
	Subtype       string `json:"subtype"`
	LikeCount     int64  `json:"like_count"`
	DislikeCount  int64  `json:"dislike_count"`
	BookmarkCount int64  `json:"bookmark_count"`
	CreatedAt     string `json:"created_at"`
	UpdatedAt     string `json:"updated_at"`

	// Author 评论作者信息, null when the user no longer exists
	Author *Author `json:"author"`
	// Reaction is only set for an authenticated viewer
	Reaction *domain.ReactionState `json:"reaction,omitempty"`
}

// NewCommentFromDomain: Domain -> Response
func NewCommentFromDomain(c domain.Comment) Comment {
	return Comment{
		ID:            c.ID,
		PostID:        c.PostID,
		ParentType:    string(c.ParentType),
		ParentID:      c.ParentID,
		AuthorID:      c.AuthorID,
		Content:       c.Content,
		Depth:         c.Depth,
		Subtype:       string(c.Metadata.Subtype),
		LikeCount:     c.LikeCount,
		DislikeCount:  c.DislikeCount,
		BookmarkCount: c.BookmarkCount,
		CreatedAt:     c.CreatedAt.Format(DateTimeFormat),
		UpdatedAt:     c.UpdatedAt.Format(DateTimeFormat),
	}
}

func NewCommentViewFromDomain(v domain.CommentView) Comment {
	res := NewCommentFromDomain(v.Comment)
	res.Author = NewAuthorFromDomain(v.Author)
	res.Reaction = v.Reaction
	return res
}

func NewCommentViewsFromDomain(views []domain.CommentView) []Comment {
	res := make([]Comment, len(views))
	for i := range views {
		res[i] = NewCommentViewFromDomain(views[i])
	}
	return res
}

type CommentStats map[string]int64

func NewCommentStatsFromDomain(s domain.CommentStats) CommentStats {
	res := make(CommentStats, len(s))
	for k, v := range s {
		res[string(k)] = v
	}
	return res
}

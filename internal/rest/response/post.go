package response

import "github.com/Guyuepp/community-board/domain"

type Post struct {
	ID            string              `json:"id"`
	Slug          string              `json:"slug"`
	Title         string              `json:"title"`
	Content       string              `json:"content"`
	AuthorID      string              `json:"author_id"`
	Status        string              `json:"status"`
	Metadata      domain.PostMetadata `json:"metadata"`
	ViewCount     int64               `json:"view_count"`
	LikeCount     int64               `json:"like_count"`
	DislikeCount  int64               `json:"dislike_count"`
	CommentCount  int64               `json:"comment_count"`
	BookmarkCount int64               `json:"bookmark_count"`
	CreatedAt     string              `json:"created_at"`
	UpdatedAt     string              `json:"updated_at"`
}

// NewPostFromDomain: Domain -> Response
func NewPostFromDomain(p domain.Post) Post {
	return Post{
		ID:            p.ID,
		Slug:          p.Slug,
		Title:         p.Title,
		Content:       p.Content,
		AuthorID:      p.AuthorID,
		Status:        string(p.Status),
		Metadata:      p.Metadata,
		ViewCount:     p.ViewCount,
		LikeCount:     p.LikeCount,
		DislikeCount:  p.DislikeCount,
		CommentCount:  p.CommentCount,
		BookmarkCount: p.BookmarkCount,
		CreatedAt:     p.CreatedAt.Format(DateTimeFormat),
		UpdatedAt:     p.UpdatedAt.Format(DateTimeFormat),
	}
}

type PostDetail struct {
	Post     Post                  `json:"post"`
	Author   *Author               `json:"author"`
	Reaction *domain.ReactionState `json:"reaction,omitempty"`
}

func NewPostDetailFromDomain(v domain.PostDetailView) PostDetail {
	return PostDetail{
		Post:     NewPostFromDomain(v.Post),
		Author:   NewAuthorFromDomain(v.Author),
		Reaction: v.Reaction,
	}
}

// PostComplete always carries the comment list, empty or not.
type PostComplete struct {
	PostDetail
	Comments []Comment `json:"comments"`
}

func NewPostCompleteFromDomain(v domain.PostDetailView) PostComplete {
	return PostComplete{
		PostDetail: NewPostDetailFromDomain(v),
		Comments:   NewCommentViewsFromDomain(v.Comments),
	}
}

type ToggleResult struct {
	Counts   domain.ReactionCounts `json:"counts"`
	Reaction domain.ReactionState  `json:"reaction"`
}

func NewToggleResultFromDomain(r domain.ToggleResult) ToggleResult {
	return ToggleResult{Counts: r.Counts, Reaction: r.State}
}

package domain

import "context"

// PostDetailView is the read model of a post page.
type PostDetailView struct {
	Post     Post           `json:"post"`
	Author   *AuthorInfo    `json:"author"`
	Comments []CommentView  `json:"comments,omitempty"`
	Reaction *ReactionState `json:"reaction,omitempty"`
}

// WithoutViewer strips every viewer specific field so the view can be shared.
func (v PostDetailView) WithoutViewer() PostDetailView {
	v.Reaction = nil
	if v.Comments != nil {
		comments := make([]CommentView, len(v.Comments))
		for i, c := range v.Comments {
			c.Reaction = nil
			comments[i] = c
		}
		v.Comments = comments
	}
	return v
}

// PostAggregator produces the complete post view. Implementations differ only in
// how many round trips they pay, never in the view they return.
type PostAggregator interface {
	// GetPostComplete returns ErrNotFound for unknown or deleted posts. An empty
	// viewerID means an anonymous viewer.
	GetPostComplete(ctx context.Context, slug, viewerID string) (PostDetailView, error)
}

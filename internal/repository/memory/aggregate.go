package memory

import (
	"context"

	"github.com/Guyuepp/community-board/domain"
)

type postAggregator struct {
	s *Store
}

var _ domain.PostAggregator = (*postAggregator)(nil)

// GetPostComplete joins post, author, comments, comment authors and the viewer
// reactions under a single read lock.
func (a *postAggregator) GetPostComplete(ctx context.Context, slug, viewerID string) (domain.PostDetailView, error) {
	s := a.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	post, ok := s.livePost(s.slugs[slug])
	if !ok {
		return domain.PostDetailView{}, domain.ErrNotFound
	}

	view := domain.PostDetailView{
		Post:     post,
		Author:   s.authorInfo(post.AuthorID),
		Comments: []domain.CommentView{},
	}
	if viewerID != "" {
		st := s.reactions[reactionKey{viewerID, domain.ReactionTarget{Type: domain.TargetPost, ID: post.ID}}].ReactionState
		view.Reaction = &st
	}

	for _, c := range s.activeComments(post.ID) {
		cv := domain.CommentView{Comment: c, Author: s.authorInfo(c.AuthorID)}
		if viewerID != "" {
			st := s.reactions[reactionKey{viewerID, domain.ReactionTarget{Type: domain.TargetComment, ID: c.ID}}].ReactionState
			cv.Reaction = &st
		}
		view.Comments = append(view.Comments, cv)
	}
	return view, nil
}

// authorInfo must be called with s.mu held.
func (s *Store) authorInfo(id string) *domain.AuthorInfo {
	u, ok := s.users[id]
	if !ok {
		return nil
	}
	info := u.AuthorInfo()
	return &info
}

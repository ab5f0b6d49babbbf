// Package memory keeps the whole board in process memory. It backs local runs
// with STORE_DRIVER=memory and the service level tests.
package memory

import (
	"sort"
	"sync"

	"github.com/Guyuepp/community-board/domain"
)

type reactionKey struct {
	userID string
	target domain.ReactionTarget
}

// Store holds every entity behind one lock. The repositories returned by its
// accessors share that state.
type Store struct {
	mu        sync.RWMutex
	users     map[string]domain.User
	posts     map[string]domain.Post
	slugs     map[string]string // slug -> post id
	comments  map[string]domain.Comment
	reactions map[reactionKey]domain.UserReaction
}

func New() *Store {
	return &Store{
		users:     make(map[string]domain.User),
		posts:     make(map[string]domain.Post),
		slugs:     make(map[string]string),
		comments:  make(map[string]domain.Comment),
		reactions: make(map[reactionKey]domain.UserReaction),
	}
}

func (s *Store) Users() *userRepository         { return &userRepository{s} }
func (s *Store) Posts() *postRepository         { return &postRepository{s} }
func (s *Store) Comments() *commentRepository   { return &commentRepository{s} }
func (s *Store) Reactions() *reactionRepository { return &reactionRepository{s} }
func (s *Store) Aggregator() *postAggregator    { return &postAggregator{s} }

// activeComments must be called with s.mu held.
func (s *Store) activeComments(postID string) []domain.Comment {
	res := make([]domain.Comment, 0)
	for _, c := range s.comments {
		if c.PostID == postID && c.IsActive() {
			res = append(res, c)
		}
	}
	sort.Slice(res, func(i, j int) bool {
		if res[i].CreatedAt.Equal(res[j].CreatedAt) {
			return res[i].ID < res[j].ID
		}
		return res[i].CreatedAt.Before(res[j].CreatedAt)
	})
	return res
}

// livePost must be called with s.mu held.
func (s *Store) livePost(id string) (domain.Post, bool) {
	p, ok := s.posts[id]
	if !ok || p.Status == domain.PostDeleted {
		return domain.Post{}, false
	}
	return clonePost(p), true
}

func clonePost(p domain.Post) domain.Post {
	if p.Metadata.Tags != nil {
		p.Metadata.Tags = append([]string(nil), p.Metadata.Tags...)
	}
	return p
}

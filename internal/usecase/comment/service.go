package comment

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Guyuepp/community-board/domain"
	"github.com/Guyuepp/community-board/internal/repository/cache"
)

const (
	DefaultMaxDepth = 3
	DefaultTTL      = 2 * time.Minute
)

type service struct {
	commentRepo domain.CommentRepository
	postRepo    domain.PostRepository
	userRepo    domain.UserRepository
	authors     domain.AuthorResolver
	reactions   domain.ReactionUsecase
	bloomRepo   domain.BloomRepository
	cache       *cache.Cache
	ttl         time.Duration
	maxDepth    int
	reconciler  domain.CounterReconciler
}

var _ domain.CommentUsecase = (*service)(nil)

type Option func(*service)

// WithMaxDepth sets the deepest allowed reply; a comment on the post is depth 0.
func WithMaxDepth(depth int) Option {
	return func(s *service) {
		if depth >= 0 {
			s.maxDepth = depth
		}
	}
}

// WithTTL sets how long the comment list of a post stays cached.
func WithTTL(ttl time.Duration) Option {
	return func(s *service) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

func WithBloom(bloomRepo domain.BloomRepository) Option {
	return func(s *service) { s.bloomRepo = bloomRepo }
}

func WithReconciler(r domain.CounterReconciler) Option {
	return func(s *service) { s.reconciler = r }
}

func NewService(commentRepo domain.CommentRepository, postRepo domain.PostRepository, userRepo domain.UserRepository,
	authors domain.AuthorResolver, reactions domain.ReactionUsecase, c *cache.Cache, opts ...Option) *service {
	s := &service{
		commentRepo: commentRepo,
		postRepo:    postRepo,
		userRepo:    userRepo,
		authors:     authors,
		reactions:   reactions,
		cache:       c,
		ttl:         DefaultTTL,
		maxDepth:    DefaultMaxDepth,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) mustExists(ctx context.Context, slug string) error {
	if s.bloomRepo == nil {
		return nil
	}
	exists, err := s.bloomRepo.Exists(ctx, slug)
	if err == nil && !exists {
		logrus.Warnf("bloom filter says post %s does not exist", slug)
		return domain.ErrNotFound
	}

	return nil
}

func (s *service) GetCommentsWithAuthors(ctx context.Context, slug, viewerID string) ([]domain.CommentView, error) {
	if err := s.mustExists(ctx, slug); err != nil {
		return nil, err
	}
	post, err := s.postRepo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	return s.CommentsForPost(ctx, post, viewerID)
}

// CommentsForPost lists the active comments of post oldest first, each with its
// author and, for a known viewer, the viewer's reaction.
func (s *service) CommentsForPost(ctx context.Context, post domain.Post, viewerID string) ([]domain.CommentView, error) {
	key := cache.PostCommentsKey(post.Slug)
	var views []domain.CommentView
	if !s.cache.GetJSON(ctx, key, &views) {
		lease := s.cache.Lease(ctx, key)
		comments, err := s.commentRepo.FetchActiveByPost(ctx, post.ID)
		if err != nil {
			logrus.Errorf("failed to FetchActiveByPost from repo: %v", err)
			return nil, err
		}

		authorIDs := make([]string, len(comments))
		for i := range comments {
			authorIDs[i] = comments[i].AuthorID
		}
		authors, err := s.authors.ResolveAuthorsBatch(ctx, authorIDs)
		if err != nil {
			return nil, err
		}

		views = make([]domain.CommentView, len(comments))
		for i, c := range comments {
			views[i] = domain.CommentView{Comment: c}
			if a, ok := authors[c.AuthorID]; ok {
				views[i].Author = &a
			}
		}
		s.cache.Fill(ctx, lease, views, s.ttl)
	}
	if views == nil {
		views = []domain.CommentView{}
	}

	if viewerID == "" || len(views) == 0 {
		return views, nil
	}
	ids := make([]string, len(views))
	for i := range views {
		ids[i] = views[i].ID
	}
	states, err := s.reactions.ResolveReactionsBatch(ctx, viewerID, domain.TargetComment, ids)
	if err != nil {
		return nil, err
	}
	for i := range views {
		st := states[views[i].ID]
		views[i].Reaction = &st
	}
	return views, nil
}

func (s *service) Create(ctx context.Context, slug string, c *domain.Comment) error {
	if c.AuthorID == "" {
		return domain.ErrUnauthorized
	}
	c.Content = strings.TrimSpace(c.Content)
	if c.Content == "" {
		return domain.ErrBadParamInput
	}
	if err := s.mustExists(ctx, slug); err != nil {
		return err
	}
	post, err := s.postRepo.GetBySlug(ctx, slug)
	if err != nil {
		return err
	}

	c.PostID = post.ID
	c.Status = domain.CommentActive
	c.Metadata.Subtype = domain.ParseCommentSubtype(string(c.Metadata.Subtype))
	if c.ParentType == domain.ParentComment {
		parent, err := s.commentRepo.GetByID(ctx, c.ParentID)
		if err != nil {
			return err
		}
		if !parent.IsActive() {
			return domain.ErrNotFound
		}
		if parent.PostID != post.ID {
			return domain.ErrBadParamInput
		}
		c.Depth = parent.Depth + 1
		if c.Depth > s.maxDepth {
			return domain.ErrDepthExceeded
		}
	} else {
		c.ParentType = domain.ParentPost
		c.ParentID = post.ID
		c.Depth = 0
	}

	if err := s.commentRepo.Store(ctx, c); err != nil {
		return err
	}
	s.afterWrite(ctx, post)
	return nil
}

func (s *service) Update(ctx context.Context, actorID, commentID, content string) (domain.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return domain.Comment{}, domain.ErrBadParamInput
	}
	c, post, err := s.authorize(ctx, actorID, commentID)
	if err != nil {
		return domain.Comment{}, err
	}

	c.Content = content
	if err := s.commentRepo.UpdateContent(ctx, &c); err != nil {
		return domain.Comment{}, err
	}
	s.afterWrite(ctx, post)
	return c, nil
}

func (s *service) Delete(ctx context.Context, actorID, commentID string) error {
	c, post, err := s.authorize(ctx, actorID, commentID)
	if err != nil {
		return err
	}
	if err := s.commentRepo.SoftDelete(ctx, c); err != nil {
		return err
	}
	s.afterWrite(ctx, post)
	return nil
}

// authorize loads an active comment and its post and checks actorID may change it.
func (s *service) authorize(ctx context.Context, actorID, commentID string) (domain.Comment, domain.Post, error) {
	if actorID == "" {
		return domain.Comment{}, domain.Post{}, domain.ErrUnauthorized
	}
	c, err := s.commentRepo.GetByID(ctx, commentID)
	if err != nil {
		return domain.Comment{}, domain.Post{}, err
	}
	if !c.IsActive() {
		return domain.Comment{}, domain.Post{}, domain.ErrNotFound
	}
	actor, err := s.userRepo.GetByID(ctx, actorID)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.Comment{}, domain.Post{}, domain.ErrUnauthorized
	} else if err != nil {
		return domain.Comment{}, domain.Post{}, err
	}
	if !actor.CanModify(c.AuthorID) {
		return domain.Comment{}, domain.Post{}, domain.ErrForbidden
	}
	post, err := s.postRepo.GetByID(ctx, c.PostID)
	if err != nil {
		return domain.Comment{}, domain.Post{}, err
	}
	return c, post, nil
}

// afterWrite drops every cached view listing the comments of post.
func (s *service) afterWrite(ctx context.Context, post domain.Post) {
	s.cache.Delete(ctx, cache.PostCommentsKey(post.Slug), cache.PostDetailKey(post.Slug))
	if s.reconciler != nil {
		s.reconciler.Send(domain.ReactionTarget{Type: domain.TargetPost, ID: post.ID})
	}
}

func (s *service) CountBySubtype(ctx context.Context, postID string, subtype domain.CommentSubtype) (int64, error) {
	stats, err := s.StatsByPost(ctx, postID)
	if err != nil {
		return 0, err
	}
	return stats[domain.ParseCommentSubtype(string(subtype))], nil
}

func (s *service) StatsByPost(ctx context.Context, postID string) (domain.CommentStats, error) {
	if _, err := s.postRepo.GetByID(ctx, postID); err != nil {
		return nil, err
	}
	raw, err := s.commentRepo.CountBySubtype(ctx, postID)
	if err != nil {
		logrus.Errorf("failed to CountBySubtype from repo: %v", err)
		return nil, err
	}
	return domain.NewCommentStats(raw), nil
}

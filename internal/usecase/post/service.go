package post

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/singleflight"

	"github.com/Guyuepp/community-board/domain"
	"github.com/Guyuepp/community-board/internal/repository"
	"github.com/Guyuepp/community-board/internal/repository/cache"
)

const (
	DefaultTTL                = 5 * time.Minute
	DefaultAggregationTimeout = 500 * time.Millisecond

	bloomPageSize       = 1000
	viewWriteTimeout    = 2 * time.Second
	completeLoadTimeout = 5 * time.Second
)

var tracer = otel.Tracer("github.com/Guyuepp/community-board/internal/usecase/post")

type Service struct {
	postRepo   domain.PostRepository
	userRepo   domain.UserRepository
	authors    domain.AuthorResolver
	reactions  domain.ReactionUsecase
	pipeline   domain.PostAggregator
	decomposed domain.PostAggregator
	bloomRepo  domain.BloomRepository
	cache      *cache.Cache
	ttl        time.Duration
	aggTimeout time.Duration
	group      singleflight.Group
}

var _ domain.PostUsecase = (*Service)(nil)

type Option func(*Service)

// WithPipeline enables the single round trip read. Without it every complete
// read is served by the decomposed strategy.
func WithPipeline(pipeline domain.PostAggregator, timeout time.Duration) Option {
	return func(s *Service) {
		s.pipeline = pipeline
		if timeout > 0 {
			s.aggTimeout = timeout
		}
	}
}

func WithBloom(bloomRepo domain.BloomRepository) Option {
	return func(s *Service) { s.bloomRepo = bloomRepo }
}

func WithTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// NewService will create a new post service object
func NewService(postRepo domain.PostRepository, userRepo domain.UserRepository, authors domain.AuthorResolver,
	comments domain.CommentAssembler, reactions domain.ReactionUsecase, c *cache.Cache, opts ...Option) *Service {
	s := &Service{
		postRepo:   postRepo,
		userRepo:   userRepo,
		authors:    authors,
		reactions:  reactions,
		decomposed: NewDecomposed(postRepo, authors, comments, reactions),
		cache:      c,
		ttl:        DefaultTTL,
		aggTimeout: DefaultAggregationTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) mustExists(ctx context.Context, slug string) error {
	if s.bloomRepo == nil {
		return nil
	}
	exists, err := s.bloomRepo.Exists(ctx, slug)
	if err != nil {
		logrus.Warnf("bloom filter check of %s failed: %v", slug, err)
		return nil
	}
	if !exists {
		logrus.Warnf("bloom filter says post %s does not exist", slug)
		return domain.ErrNotFound
	}
	return nil
}

func (s *Service) Fetch(ctx context.Context, skip, limit int64) ([]domain.PostDetailView, error) {
	skip, limit = repository.PageBounds(skip, limit)
	posts, err := s.postRepo.Fetch(ctx, skip, limit)
	if err != nil {
		return nil, err
	}

	authorIDs := make([]string, len(posts))
	for i := range posts {
		authorIDs[i] = posts[i].AuthorID
	}
	authors, err := s.authors.ResolveAuthorsBatch(ctx, authorIDs)
	if err != nil {
		return nil, err
	}

	res := make([]domain.PostDetailView, len(posts))
	for i, p := range posts {
		res[i] = domain.PostDetailView{Post: p}
		if a, ok := authors[p.AuthorID]; ok {
			res[i].Author = &a
		}
	}
	return res, nil
}

// GetPostDetail returns the post, its author and the viewer's reaction.
func (s *Service) GetPostDetail(ctx context.Context, slug, viewerID string) (domain.PostDetailView, error) {
	if err := s.mustExists(ctx, slug); err != nil {
		return domain.PostDetailView{}, err
	}
	post, err := s.postRepo.GetBySlug(ctx, slug)
	if err != nil {
		return domain.PostDetailView{}, err
	}

	view := domain.PostDetailView{Post: post}
	if view.Author, err = resolveAuthor(ctx, s.authors, post.AuthorID); err != nil {
		return domain.PostDetailView{}, err
	}
	if viewerID != "" {
		st, err := s.reactions.ResolveReaction(ctx, viewerID, domain.ReactionTarget{Type: domain.TargetPost, ID: post.ID})
		if err != nil {
			return domain.PostDetailView{}, err
		}
		view.Reaction = &st
	}

	s.recordView(post.ID)
	return view, nil
}

// GetPostComplete serves the full post page. The shared cached copy carries no
// viewer state; the viewer's reactions are overlaid per request.
func (s *Service) GetPostComplete(ctx context.Context, slug, viewerID string) (domain.PostDetailView, error) {
	ctx, span := tracer.Start(ctx, "post.GetPostComplete")
	defer span.End()
	span.SetAttributes(attribute.String("post.slug", slug), attribute.Bool("viewer.known", viewerID != ""))

	if err := s.mustExists(ctx, slug); err != nil {
		return domain.PostDetailView{}, err
	}

	var view domain.PostDetailView
	if s.cache.GetJSON(ctx, cache.PostDetailKey(slug), &view) {
		completeReads.WithLabelValues(strategyCache, outcomeOK).Inc()
		if view.Comments == nil {
			view.Comments = []domain.CommentView{}
		}
		if err := s.overlayViewer(ctx, &view, viewerID); err != nil {
			span.RecordError(err)
			return domain.PostDetailView{}, err
		}
		s.recordView(view.Post.ID)
		return view, nil
	}

	v, err, _ := s.group.Do(slug, func() (any, error) {
		// the flight is shared, so no single caller's cancellation may end it
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), completeLoadTimeout)
		defer cancel()

		lease := s.cache.Lease(ctx, cache.PostDetailKey(slug))
		view, err := s.load(ctx, slug, "")
		if err != nil {
			return domain.PostDetailView{}, err
		}
		view = view.WithoutViewer()
		s.cache.Fill(ctx, lease, view, s.ttl)
		return view, nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return domain.PostDetailView{}, err
	}
	// every caller gets its own comment slice to overlay on
	view = v.(domain.PostDetailView).WithoutViewer()
	if view.Comments == nil {
		view.Comments = []domain.CommentView{}
	}
	if err := s.overlayViewer(ctx, &view, viewerID); err != nil {
		span.RecordError(err)
		return domain.PostDetailView{}, err
	}
	s.recordView(view.Post.ID)
	return view, nil
}

// load tries the single round trip pipeline first and falls back to the
// decomposed strategy on anything but a missing post.
func (s *Service) load(ctx context.Context, slug, viewerID string) (domain.PostDetailView, error) {
	if s.pipeline != nil {
		view, err := s.readPipeline(ctx, slug, viewerID)
		if err == nil {
			completeReads.WithLabelValues(strategyPipeline, outcomeOK).Inc()
			return view, nil
		}
		if errors.Is(err, domain.ErrNotFound) {
			completeReads.WithLabelValues(strategyPipeline, outcomeNotFound).Inc()
			return domain.PostDetailView{}, err
		}
		completeReads.WithLabelValues(strategyPipeline, outcomeFallback).Inc()
		logrus.Warnf("complete read of %s: %v, falling back to decomposed read", slug, err)
	}

	ctx, span := tracer.Start(ctx, "post.decomposed")
	defer span.End()
	view, err := s.decomposed.GetPostComplete(ctx, slug, viewerID)
	switch {
	case err == nil:
		completeReads.WithLabelValues(strategyDecomposed, outcomeOK).Inc()
		return view, nil
	case errors.Is(err, domain.ErrNotFound):
		completeReads.WithLabelValues(strategyDecomposed, outcomeNotFound).Inc()
		return domain.PostDetailView{}, err
	default:
		completeReads.WithLabelValues(strategyDecomposed, outcomeError).Inc()
		span.RecordError(err)
		logrus.Errorf("decomposed read of %s failed: %v", slug, err)
		return domain.PostDetailView{}, domain.ErrInternalServerError
	}
}

func (s *Service) readPipeline(ctx context.Context, slug, viewerID string) (domain.PostDetailView, error) {
	ctx, span := tracer.Start(ctx, "post.pipeline")
	defer span.End()
	ctx, cancel := context.WithTimeout(ctx, s.aggTimeout)
	defer cancel()

	view, err := s.pipeline.GetPostComplete(ctx, slug, viewerID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.PostDetailView{}, err
		}
		span.RecordError(err)
		return domain.PostDetailView{}, errors.Join(domain.ErrAggregationUnavailable, err)
	}
	if view.Comments == nil {
		view.Comments = []domain.CommentView{}
	}
	return view, nil
}

// overlayViewer sets the viewer's reactions on a viewer neutral view.
func (s *Service) overlayViewer(ctx context.Context, view *domain.PostDetailView, viewerID string) error {
	if viewerID == "" {
		return nil
	}
	st, err := s.reactions.ResolveReaction(ctx, viewerID, domain.ReactionTarget{Type: domain.TargetPost, ID: view.Post.ID})
	if err != nil {
		return err
	}
	view.Reaction = &st

	if len(view.Comments) == 0 {
		return nil
	}
	ids := make([]string, len(view.Comments))
	for i := range view.Comments {
		ids[i] = view.Comments[i].ID
	}
	states, err := s.reactions.ResolveReactionsBatch(ctx, viewerID, domain.TargetComment, ids)
	if err != nil {
		return err
	}
	for i := range view.Comments {
		cst := states[view.Comments[i].ID]
		view.Comments[i].Reaction = &cst
	}
	return nil
}

// recordView bumps view_count in the background; a lost view is only logged.
func (s *Service) recordView(id string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), viewWriteTimeout)
		defer cancel()
		if err := s.postRepo.IncrementViews(ctx, id, 1); err != nil {
			logrus.Warnf("failed to increment views of post %s: %v", id, err)
		}
	}()
}

func (s *Service) Store(ctx context.Context, p *domain.Post) error {
	if p.AuthorID == "" {
		return domain.ErrUnauthorized
	}
	p.Title = strings.TrimSpace(p.Title)
	if p.Title == "" {
		return domain.ErrBadParamInput
	}
	if p.Status == "" {
		p.Status = domain.PostPublished
	}
	if !p.Status.Valid() || p.Status == domain.PostDeleted {
		return domain.ErrBadParamInput
	}
	p.Metadata.Type = domain.ParsePostType(string(p.Metadata.Type))
	p.Metadata.Visibility = domain.ParseVisibility(string(p.Metadata.Visibility))
	p.Slug = NewSlug(p.Title)

	if err := s.postRepo.Store(ctx, p); err != nil {
		return err
	}
	if s.bloomRepo != nil {
		if err := s.bloomRepo.Add(ctx, p.Slug); err != nil {
			logrus.Warnf("failed to add %s to bloom filter: %v", p.Slug, err)
		}
	}
	return nil
}

func (s *Service) Update(ctx context.Context, actorID, slug string, upd domain.PostUpdate) (domain.Post, error) {
	post, err := s.authorize(ctx, actorID, slug)
	if err != nil {
		return domain.Post{}, err
	}

	if upd.Title != nil {
		title := strings.TrimSpace(*upd.Title)
		if title == "" {
			return domain.Post{}, domain.ErrBadParamInput
		}
		post.Title = title
	}
	if upd.Content != nil {
		post.Content = *upd.Content
	}
	if upd.Status != nil {
		if !upd.Status.Valid() || *upd.Status == domain.PostDeleted {
			return domain.Post{}, domain.ErrBadParamInput
		}
		post.Status = *upd.Status
	}
	if upd.Metadata != nil {
		md := *upd.Metadata
		md.Type = domain.ParsePostType(string(md.Type))
		md.Visibility = domain.ParseVisibility(string(md.Visibility))
		post.Metadata = md
	}

	if err := s.postRepo.Update(ctx, &post); err != nil {
		return domain.Post{}, err
	}
	s.invalidate(ctx, post.Slug)
	return post, nil
}

func (s *Service) Delete(ctx context.Context, actorID, slug string) error {
	post, err := s.authorize(ctx, actorID, slug)
	if err != nil {
		return err
	}
	if err := s.postRepo.Delete(ctx, post.ID); err != nil {
		return err
	}
	s.invalidate(ctx, post.Slug)
	return nil
}

func (s *Service) authorize(ctx context.Context, actorID, slug string) (domain.Post, error) {
	if actorID == "" {
		return domain.Post{}, domain.ErrUnauthorized
	}
	post, err := s.postRepo.GetBySlug(ctx, slug)
	if err != nil {
		return domain.Post{}, err
	}
	actor, err := s.userRepo.GetByID(ctx, actorID)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.Post{}, domain.ErrUnauthorized
	} else if err != nil {
		return domain.Post{}, err
	}
	if !actor.CanModify(post.AuthorID) {
		return domain.Post{}, domain.ErrForbidden
	}
	return post, nil
}

func (s *Service) invalidate(ctx context.Context, slug string) {
	s.cache.Delete(ctx, cache.PostDetailKey(slug), cache.PostCommentsKey(slug))
}

// InitBloomFilter loads the slug of every stored post into the bloom filter.
func (s *Service) InitBloomFilter(ctx context.Context) error {
	if s.bloomRepo == nil {
		return nil
	}
	var skip int64
	for {
		slugs, err := s.postRepo.FetchSlugs(ctx, skip, bloomPageSize)
		if err != nil {
			return err
		}
		if err := s.bloomRepo.BulkAdd(ctx, slugs); err != nil {
			return err
		}
		if len(slugs) < bloomPageSize {
			logrus.Infof("bloom filter loaded with %d slugs", skip+int64(len(slugs)))
			return nil
		}
		skip += int64(len(slugs))
	}
}

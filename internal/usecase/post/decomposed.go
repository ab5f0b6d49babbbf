package post

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"github.com/Guyuepp/community-board/domain"
)

// Decomposed builds the complete post view from the resolvers: one post fetch,
// then author, comments and viewer reaction concurrently. It is the fallback of
// the single round trip aggregators and returns the same view.
type Decomposed struct {
	postRepo  domain.PostRepository
	authors   domain.AuthorResolver
	comments  domain.CommentAssembler
	reactions domain.ReactionUsecase
}

var _ domain.PostAggregator = (*Decomposed)(nil)

func NewDecomposed(postRepo domain.PostRepository, authors domain.AuthorResolver,
	comments domain.CommentAssembler, reactions domain.ReactionUsecase) *Decomposed {
	return &Decomposed{
		postRepo:  postRepo,
		authors:   authors,
		comments:  comments,
		reactions: reactions,
	}
}

func (d *Decomposed) GetPostComplete(ctx context.Context, slug, viewerID string) (domain.PostDetailView, error) {
	post, err := d.postRepo.GetBySlug(ctx, slug)
	if err != nil {
		return domain.PostDetailView{}, err
	}

	var (
		author   *domain.AuthorInfo
		comments []domain.CommentView
		reaction *domain.ReactionState
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		author, err = resolveAuthor(gctx, d.authors, post.AuthorID)
		return err
	})
	g.Go(func() error {
		var err error
		comments, err = d.comments.CommentsForPost(gctx, post, viewerID)
		return err
	})
	if viewerID != "" {
		g.Go(func() error {
			st, err := d.reactions.ResolveReaction(gctx, viewerID, domain.ReactionTarget{Type: domain.TargetPost, ID: post.ID})
			if err != nil {
				return err
			}
			reaction = &st
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return domain.PostDetailView{}, err
	}

	if comments == nil {
		comments = []domain.CommentView{}
	}
	return domain.PostDetailView{
		Post:     post,
		Author:   author,
		Comments: comments,
		Reaction: reaction,
	}, nil
}

// resolveAuthor maps a missing author onto a nil AuthorInfo.
func resolveAuthor(ctx context.Context, authors domain.AuthorResolver, id string) (*domain.AuthorInfo, error) {
	info, err := authors.ResolveAuthor(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &info, nil
}

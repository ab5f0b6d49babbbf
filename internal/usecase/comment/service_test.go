package comment_test

import (
	"context"
	"testing"
	"time"

	"github.com/go-faker/faker/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Guyuepp/community-board/domain"
	"github.com/Guyuepp/community-board/internal/repository/cache"
	"github.com/Guyuepp/community-board/internal/repository/memory"
	"github.com/Guyuepp/community-board/internal/usecase/author"
	"github.com/Guyuepp/community-board/internal/usecase/comment"
	"github.com/Guyuepp/community-board/internal/usecase/reaction"
)

type fixture struct {
	store     *memory.Store
	cache     *cache.Cache
	reactions *reaction.Service
	svc       domain.CommentUsecase
	author    domain.User
	viewer    domain.User
	post      domain.Post
}

func setup(t *testing.T, opts ...comment.Option) *fixture {
	t.Helper()
	ctx := context.Background()
	f := &fixture{store: memory.New(), cache: cache.New(memory.NewCache(), "")}

	authors := author.NewService(f.store.Users(), f.cache, time.Minute)
	f.reactions = reaction.NewService(f.store.Reactions(), f.store.Posts(), f.store.Comments(), f.cache, time.Minute, nil)
	f.svc = comment.NewService(f.store.Comments(), f.store.Posts(), f.store.Users(), authors, f.reactions, f.cache, opts...)

	for _, u := range []*domain.User{&f.author, &f.viewer} {
		*u = domain.User{Email: faker.Email(), Handle: faker.Username(), DisplayName: faker.Name()}
		require.NoError(t, f.store.Users().Insert(ctx, u))
	}
	f.post = domain.Post{Slug: "hello", Title: "hello", AuthorID: f.author.ID, Status: domain.PostPublished}
	require.NoError(t, f.store.Posts().Store(ctx, &f.post))
	return f
}

func (f *fixture) create(t *testing.T, by domain.User, parentID string, subtype domain.CommentSubtype) domain.Comment {
	t.Helper()
	c := domain.Comment{AuthorID: by.ID, Content: faker.Sentence(), Metadata: domain.CommentMetadata{Subtype: subtype}}
	if parentID != "" {
		c.ParentType = domain.ParentComment
		c.ParentID = parentID
	}
	require.NoError(t, f.svc.Create(context.Background(), "hello", &c))
	return c
}

func TestCommentsAreOrderedWithAuthors(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	first := f.create(t, f.author, "", "")
	time.Sleep(2 * time.Millisecond)
	second := f.create(t, f.viewer, "", "")

	views, err := f.svc.GetCommentsWithAuthors(ctx, "hello", "")
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, first.ID, views[0].ID)
	assert.Equal(t, second.ID, views[1].ID)
	require.NotNil(t, views[1].Author)
	assert.Equal(t, f.viewer.AuthorInfo(), *views[1].Author)
	assert.Nil(t, views[0].Reaction)
}

func TestViewerReactionsAreOverlaid(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	c := f.create(t, f.author, "", "")

	// the anonymous read fills the shared cache first
	_, err := f.svc.GetCommentsWithAuthors(ctx, "hello", "")
	require.NoError(t, err)

	_, err = f.reactions.ToggleReaction(ctx, f.viewer.ID, domain.ReactionTarget{Type: domain.TargetComment, ID: c.ID}, domain.ReactionLike)
	require.NoError(t, err)

	views, err := f.svc.GetCommentsWithAuthors(ctx, "hello", f.viewer.ID)
	require.NoError(t, err)
	require.Len(t, views, 1)
	require.NotNil(t, views[0].Reaction)
	assert.True(t, views[0].Reaction.Liked)
	assert.Equal(t, int64(1), views[0].LikeCount)
}

func TestEmptyPostHasNonNilComments(t *testing.T) {
	f := setup(t)

	views, err := f.svc.GetCommentsWithAuthors(context.Background(), "hello", f.viewer.ID)
	require.NoError(t, err)
	assert.NotNil(t, views)
	assert.Empty(t, views)

	_, err = f.svc.GetCommentsWithAuthors(context.Background(), "missing", "")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestReplyDepth(t *testing.T) {
	f := setup(t, comment.WithMaxDepth(1))
	ctx := context.Background()

	root := f.create(t, f.author, "", "")
	assert.Equal(t, 0, root.Depth)
	assert.Equal(t, domain.ParentPost, root.ParentType)

	reply := f.create(t, f.viewer, root.ID, "")
	assert.Equal(t, 1, reply.Depth)

	tooDeep := domain.Comment{AuthorID: f.author.ID, Content: "x", ParentType: domain.ParentComment, ParentID: reply.ID}
	assert.ErrorIs(t, f.svc.Create(ctx, "hello", &tooDeep), domain.ErrDepthExceeded)

	orphan := domain.Comment{AuthorID: f.author.ID, Content: "x", ParentType: domain.ParentComment, ParentID: "missing"}
	assert.ErrorIs(t, f.svc.Create(ctx, "hello", &orphan), domain.ErrNotFound)

	// rejected replies leave no record behind
	assert.Empty(t, tooDeep.ID)
	stored, err := f.store.Comments().FetchActiveByPost(ctx, f.post.ID)
	require.NoError(t, err)
	require.Len(t, stored, 2)
	assert.ElementsMatch(t, []string{root.ID, reply.ID}, []string{stored[0].ID, stored[1].ID})

	p, err := f.store.Posts().GetBySlug(ctx, "hello")
	require.NoError(t, err)
	assert.Equal(t, int64(2), p.CommentCount)
}

func TestCreateValidation(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	anon := domain.Comment{Content: "x"}
	assert.ErrorIs(t, f.svc.Create(ctx, "hello", &anon), domain.ErrUnauthorized)

	blank := domain.Comment{AuthorID: f.author.ID, Content: "   "}
	assert.ErrorIs(t, f.svc.Create(ctx, "hello", &blank), domain.ErrBadParamInput)

	lost := domain.Comment{AuthorID: f.author.ID, Content: "x"}
	assert.ErrorIs(t, f.svc.Create(ctx, "missing", &lost), domain.ErrNotFound)
}

func TestStatsBySubtype(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	stats, err := f.svc.StatsByPost(ctx, f.post.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.CommentStats{
		domain.SubtypeGeneral:        0,
		domain.SubtypeServiceInquiry: 0,
		domain.SubtypeServiceReview:  0,
	}, stats)

	for i := 0; i < 5; i++ {
		f.create(t, f.viewer, "", domain.SubtypeGeneral)
	}
	for i := 0; i < 3; i++ {
		f.create(t, f.viewer, "", domain.SubtypeServiceInquiry)
	}
	for i := 0; i < 2; i++ {
		f.create(t, f.viewer, "", domain.SubtypeServiceReview)
	}
	gone := f.create(t, f.viewer, "", domain.SubtypeServiceReview)
	require.NoError(t, f.svc.Delete(ctx, f.viewer.ID, gone.ID))

	stats, err = f.svc.StatsByPost(ctx, f.post.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.CommentStats{
		domain.SubtypeGeneral:        5,
		domain.SubtypeServiceInquiry: 3,
		domain.SubtypeServiceReview:  2,
	}, stats)

	n, err := f.svc.CountBySubtype(ctx, f.post.ID, domain.SubtypeServiceInquiry)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	post, err := f.store.Posts().GetByID(ctx, f.post.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(10), post.CommentCount)

	_, err = f.svc.StatsByPost(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUpdateAndDeleteAuthorization(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	c := f.create(t, f.author, "", "")

	// warm the cache, then edit
	_, err := f.svc.GetCommentsWithAuthors(ctx, "hello", "")
	require.NoError(t, err)

	_, err = f.svc.Update(ctx, f.viewer.ID, c.ID, "hijack")
	assert.ErrorIs(t, err, domain.ErrForbidden)
	_, err = f.svc.Update(ctx, "", c.ID, "x")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	updated, err := f.svc.Update(ctx, f.author.ID, c.ID, "edited")
	require.NoError(t, err)
	assert.Equal(t, "edited", updated.Content)

	views, err := f.svc.GetCommentsWithAuthors(ctx, "hello", "")
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "edited", views[0].Content)

	require.NoError(t, f.svc.Delete(ctx, f.author.ID, c.ID))
	assert.ErrorIs(t, f.svc.Delete(ctx, f.author.ID, c.ID), domain.ErrNotFound)

	views, err = f.svc.GetCommentsWithAuthors(ctx, "hello", "")
	require.NoError(t, err)
	assert.Empty(t, views)
}

package rest_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Guyuepp/community-board/domain"
	"github.com/Guyuepp/community-board/internal/rest"
	"github.com/Guyuepp/community-board/internal/rest/middleware"
	"github.com/Guyuepp/community-board/internal/rest/request"
)

const secret = "test-secret"

type mockPostUsecase struct{ mock.Mock }

func (m *mockPostUsecase) Fetch(ctx context.Context, skip, limit int64) ([]domain.PostDetailView, error) {
	args := m.Called(ctx, skip, limit)
	return args.Get(0).([]domain.PostDetailView), args.Error(1)
}

func (m *mockPostUsecase) GetPostDetail(ctx context.Context, slug, viewerID string) (domain.PostDetailView, error) {
	args := m.Called(ctx, slug, viewerID)
	return args.Get(0).(domain.PostDetailView), args.Error(1)
}

func (m *mockPostUsecase) GetPostComplete(ctx context.Context, slug, viewerID string) (domain.PostDetailView, error) {
	args := m.Called(ctx, slug, viewerID)
	return args.Get(0).(domain.PostDetailView), args.Error(1)
}

func (m *mockPostUsecase) Store(ctx context.Context, p *domain.Post) error {
	return m.Called(ctx, p).Error(0)
}

func (m *mockPostUsecase) Update(ctx context.Context, actorID, slug string, upd domain.PostUpdate) (domain.Post, error) {
	args := m.Called(ctx, actorID, slug, upd)
	return args.Get(0).(domain.Post), args.Error(1)
}

func (m *mockPostUsecase) Delete(ctx context.Context, actorID, slug string) error {
	return m.Called(ctx, actorID, slug).Error(0)
}

func (m *mockPostUsecase) InitBloomFilter(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

type mockReactionUsecase struct{ mock.Mock }

func (m *mockReactionUsecase) ResolveReaction(ctx context.Context, userID string, target domain.ReactionTarget) (domain.ReactionState, error) {
	args := m.Called(ctx, userID, target)
	return args.Get(0).(domain.ReactionState), args.Error(1)
}

func (m *mockReactionUsecase) ResolveReactionsBatch(ctx context.Context, userID string, targetType domain.TargetType, targetIDs []string) (map[string]domain.ReactionState, error) {
	args := m.Called(ctx, userID, targetType, targetIDs)
	return args.Get(0).(map[string]domain.ReactionState), args.Error(1)
}

func (m *mockReactionUsecase) ToggleReaction(ctx context.Context, userID string, target domain.ReactionTarget, kind domain.ReactionKind) (domain.ToggleResult, error) {
	args := m.Called(ctx, userID, target, kind)
	return args.Get(0).(domain.ToggleResult), args.Error(1)
}

func (m *mockReactionUsecase) TogglePostReaction(ctx context.Context, userID, slug string, kind domain.ReactionKind) (domain.ToggleResult, error) {
	args := m.Called(ctx, userID, slug, kind)
	return args.Get(0).(domain.ToggleResult), args.Error(1)
}

type mockCommentUsecase struct{ mock.Mock }

func (m *mockCommentUsecase) CommentsForPost(ctx context.Context, post domain.Post, viewerID string) ([]domain.CommentView, error) {
	args := m.Called(ctx, post, viewerID)
	return args.Get(0).([]domain.CommentView), args.Error(1)
}

func (m *mockCommentUsecase) GetCommentsWithAuthors(ctx context.Context, slug, viewerID string) ([]domain.CommentView, error) {
	args := m.Called(ctx, slug, viewerID)
	return args.Get(0).([]domain.CommentView), args.Error(1)
}

func (m *mockCommentUsecase) Create(ctx context.Context, slug string, c *domain.Comment) error {
	return m.Called(ctx, slug, c).Error(0)
}

func (m *mockCommentUsecase) Update(ctx context.Context, actorID, commentID, content string) (domain.Comment, error) {
	args := m.Called(ctx, actorID, commentID, content)
	return args.Get(0).(domain.Comment), args.Error(1)
}

func (m *mockCommentUsecase) Delete(ctx context.Context, actorID, commentID string) error {
	return m.Called(ctx, actorID, commentID).Error(0)
}

func (m *mockCommentUsecase) CountBySubtype(ctx context.Context, postID string, subtype domain.CommentSubtype) (int64, error) {
	args := m.Called(ctx, postID, subtype)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockCommentUsecase) StatsByPost(ctx context.Context, postID string) (domain.CommentStats, error) {
	args := m.Called(ctx, postID)
	return args.Get(0).(domain.CommentStats), args.Error(1)
}

type mockUserUsecase struct{ mock.Mock }

func (m *mockUserUsecase) Register(ctx context.Context, u *domain.User) error {
	return m.Called(ctx, u).Error(0)
}

func (m *mockUserUsecase) GetByID(ctx context.Context, id string) (domain.User, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.User), args.Error(1)
}

func (m *mockUserUsecase) UpdateProfile(ctx context.Context, actorID, userID, displayName string) (domain.User, error) {
	args := m.Called(ctx, actorID, userID, displayName)
	return args.Get(0).(domain.User), args.Error(1)
}

// mockPostRepository only answers GetBySlug.
type mockPostRepository struct {
	domain.PostRepository
	mock.Mock
}

func (m *mockPostRepository) GetBySlug(ctx context.Context, slug string) (domain.Post, error) {
	args := m.Called(ctx, slug)
	return args.Get(0).(domain.Post), args.Error(1)
}

type server struct {
	router    *gin.Engine
	posts     *mockPostUsecase
	reactions *mockReactionUsecase
	comments  *mockCommentUsecase
	users     *mockUserUsecase
	postRepo  *mockPostRepository
}

func newServer(t *testing.T) *server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	require.NoError(t, request.RegisterValidators())

	s := &server{
		router:    gin.New(),
		posts:     &mockPostUsecase{},
		reactions: &mockReactionUsecase{},
		comments:  &mockCommentUsecase{},
		users:     &mockUserUsecase{},
		postRepo:  &mockPostRepository{},
	}
	rest.RegisterRoutes(s.router, rest.Handlers{
		Post:    rest.NewPostHandler(s.posts, s.reactions),
		Comment: rest.NewCommentHandler(s.comments, s.postRepo, s.reactions),
		User:    rest.NewUserHandler(s.users),
	}, middleware.OptionalAuth(secret), middleware.AuthMiddleware(secret))
	return s
}

func (s *server) do(t *testing.T, method, path, uid, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if uid != "" {
		tok, err := middleware.IssueToken([]byte(secret), uid, time.Hour)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func completeView() domain.PostDetailView {
	return domain.PostDetailView{
		Post:     domain.Post{ID: "p1", Slug: "hello", Title: "Hello", AuthorID: "u1", Status: domain.PostPublished, CreatedAt: time.Now().UTC()},
		Author:   &domain.AuthorInfo{ID: "u1", Handle: "ann", DisplayName: "Ann"},
		Comments: []domain.CommentView{},
	}
}

func TestGetCompleteAnonymous(t *testing.T) {
	s := newServer(t)
	s.posts.On("GetPostComplete", mock.Anything, "hello", "").Return(completeView(), nil).Once()

	rec := s.do(t, http.MethodGet, "/posts/hello/complete", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, []any{}, body["comments"])
	assert.NotContains(t, body, "reaction")
	assert.Equal(t, "ann", body["author"].(map[string]any)["user_handle"])
	s.posts.AssertExpectations(t)
}

func TestGetCompleteForViewer(t *testing.T) {
	s := newServer(t)
	view := completeView()
	st := domain.ReactionState{Liked: true}
	view.Reaction = &st
	view.Author = nil
	s.posts.On("GetPostComplete", mock.Anything, "hello", "u2").Return(view, nil).Once()

	rec := s.do(t, http.MethodGet, "/posts/hello/complete", "u2", "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	assert.Nil(t, body["author"])
	assert.Equal(t, true, body["reaction"].(map[string]any)["liked"])
	s.posts.AssertExpectations(t)
}

func TestErrorTaxonomy(t *testing.T) {
	tests := []struct {
		err     error
		code    int
		message string
	}{
		{domain.ErrNotFound, http.StatusNotFound, domain.ErrNotFound.Error()},
		{domain.ErrBadParamInput, http.StatusBadRequest, domain.ErrBadParamInput.Error()},
		{domain.ErrForbidden, http.StatusForbidden, domain.ErrForbidden.Error()},
		{errors.New("dial tcp 10.0.0.1:3306: refused"), http.StatusInternalServerError, domain.ErrInternalServerError.Error()},
	}
	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			s := newServer(t)
			s.posts.On("GetPostDetail", mock.Anything, "hello", "").Return(domain.PostDetailView{}, tt.err).Once()

			rec := s.do(t, http.MethodGet, "/posts/hello", "", "")
			assert.Equal(t, tt.code, rec.Code)
			assert.Equal(t, tt.message, decode(t, rec)["message"])
		})
	}
}

func TestReactRequiresAuth(t *testing.T) {
	s := newServer(t)

	rec := s.do(t, http.MethodPost, "/posts/hello/like", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	s.reactions.AssertNotCalled(t, "TogglePostReaction", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestReactOnPost(t *testing.T) {
	s := newServer(t)
	res := domain.ToggleResult{Counts: domain.ReactionCounts{LikeCount: 3}, State: domain.ReactionState{Liked: true}}
	s.reactions.On("TogglePostReaction", mock.Anything, "u1", "hello", domain.ReactionLike).Return(res, nil).Once()

	rec := s.do(t, http.MethodPost, "/posts/hello/like", "u1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, float64(3), body["counts"].(map[string]any)["like_count"])
	assert.Equal(t, true, body["reaction"].(map[string]any)["liked"])
	s.reactions.AssertExpectations(t)
}

func TestReactOnComment(t *testing.T) {
	s := newServer(t)
	target := domain.ReactionTarget{Type: domain.TargetComment, ID: "c1"}
	s.reactions.On("ToggleReaction", mock.Anything, "u1", target, domain.ReactionDislike).
		Return(domain.ToggleResult{}, domain.ErrNotFound).Once()

	rec := s.do(t, http.MethodPost, "/comments/c1/dislike", "u1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	s.reactions.AssertExpectations(t)
}

func TestCreateCommentTooDeep(t *testing.T) {
	s := newServer(t)
	s.comments.On("Create", mock.Anything, "hello", mock.MatchedBy(func(c *domain.Comment) bool {
		return c.AuthorID == "u1" && c.ParentType == domain.ParentComment && c.ParentID == "c9"
	})).Return(domain.ErrDepthExceeded).Once()

	rec := s.do(t, http.MethodPost, "/posts/hello/comments", "u1", `{"content":"deep","parent_id":"c9"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, domain.ErrDepthExceeded.Error(), decode(t, rec)["message"])
	s.comments.AssertExpectations(t)
}

func TestCreateCommentValidation(t *testing.T) {
	s := newServer(t)

	rec := s.do(t, http.MethodPost, "/posts/hello/comments", "u1", `{"content":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	s.comments.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
}

func TestCommentStats(t *testing.T) {
	s := newServer(t)
	s.postRepo.On("GetBySlug", mock.Anything, "hello").Return(domain.Post{ID: "p1", Slug: "hello"}, nil).Once()
	s.comments.On("StatsByPost", mock.Anything, "p1").Return(domain.NewCommentStats(map[string]int64{"general": 5}), nil).Once()

	rec := s.do(t, http.MethodGet, "/posts/hello/comments/stats", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, float64(5), body["general"])
	assert.Equal(t, float64(0), body["service_review"])
}

func TestFetchCommentsEmpty(t *testing.T) {
	s := newServer(t)
	s.comments.On("GetCommentsWithAuthors", mock.Anything, "hello", "").Return([]domain.CommentView{}, nil).Once()

	rec := s.do(t, http.MethodGet, "/posts/hello/comments", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"comments":[]}`, rec.Body.String())
}

func TestStorePost(t *testing.T) {
	s := newServer(t)
	s.posts.On("Store", mock.Anything, mock.MatchedBy(func(p *domain.Post) bool {
		return p.AuthorID == "u1" && p.Title == "Hi" && p.Metadata.Type == "tips"
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*domain.Post).Slug = "hi-1a2b3c4d"
	}).Return(nil).Once()

	rec := s.do(t, http.MethodPost, "/posts", "u1", `{"title":"Hi","content":"body","metadata":{"type":"tips"}}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "hi-1a2b3c4d", decode(t, rec)["slug"])

	rec = s.do(t, http.MethodPost, "/posts", "u1", `{"content":"no title"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	s.posts.AssertExpectations(t)
}

func TestRegisterAndUpdateProfile(t *testing.T) {
	s := newServer(t)
	s.users.On("Register", mock.Anything, mock.AnythingOfType("*domain.User")).Return(nil).Once()
	s.users.On("UpdateProfile", mock.Anything, "u2", "u1", "Ann").Return(domain.User{}, domain.ErrForbidden).Once()

	rec := s.do(t, http.MethodPost, "/users", "", `{"email":"ann@example.com","user_handle":"ann_1"}`)
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = s.do(t, http.MethodPost, "/users", "", `{"email":"ann@example.com","user_handle":"a!"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPatch, "/users/u1", "u2", `{"display_name":"Ann"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	s.users.AssertExpectations(t)
}

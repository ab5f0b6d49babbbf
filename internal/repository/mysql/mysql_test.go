package mysql

import (
	"context"
	"database/sql/driver"
	"testing"
	"time"

	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sqlmock "gopkg.in/DATA-DOG/go-sqlmock.v1"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Guyuepp/community-board/domain"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(gormmysql.New(gormmysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return db, mock
}

var postColumnNames = []string{
	"id", "slug", "title", "content", "author_id", "status", "post_type", "category", "tags", "visibility",
	"view_count", "like_count", "dislike_count", "comment_count", "bookmark_count", "created_at", "updated_at",
}

var completeColumnNames = []string{
	"id", "slug", "title", "content", "author_id", "status", "post_type", "category", "tags", "visibility",
	"view_count", "like_count", "dislike_count", "comment_count", "bookmark_count", "created_at", "updated_at",
	"handle", "display_name",
	"liked", "disliked", "bookmarked",
	"id", "parent_type", "parent_id", "author_id", "content", "depth", "status", "subtype",
	"like_count", "dislike_count", "bookmark_count", "created_at", "updated_at",
	"handle", "display_name",
	"liked", "disliked", "bookmarked",
}

func TestPostGetBySlug(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostRepository(db)
	created := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT \\* FROM `posts` WHERE").
		WillReturnRows(sqlmock.NewRows(postColumnNames).AddRow(
			"01P", "hello-world-1a2b3c4d", "Hello", "body", "01U", "published", "tips", "garden", []byte(`["a","b"]`), "public",
			int64(3), int64(2), int64(0), int64(1), int64(0), created, created,
		))

	post, err := repo.GetBySlug(context.TODO(), "hello-world-1a2b3c4d")
	require.NoError(t, err)
	assert.Equal(t, "01P", post.ID)
	assert.Equal(t, domain.PostTypeTips, post.Metadata.Type)
	assert.Equal(t, []string{"a", "b"}, post.Metadata.Tags)
	assert.Equal(t, int64(2), post.LikeCount)
	assert.Equal(t, created, post.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostGetBySlugNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostRepository(db)

	mock.ExpectQuery("SELECT \\* FROM `posts` WHERE").
		WillReturnRows(sqlmock.NewRows(postColumnNames))

	_, err := repo.GetBySlug(context.TODO(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostDeleteMissing(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostRepository(db)

	mock.ExpectExec("UPDATE `posts` SET").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.TODO(), "01P")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserInsertConflict(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectExec("INSERT INTO `users`").
		WillReturnError(&mysqldriver.MySQLError{Number: errDuplicateEntry, Message: "Duplicate entry"})

	u := &domain.User{Email: "a@example.com", Handle: "Alice", DisplayName: "Alice"}
	err := repo.Insert(context.TODO(), u)
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Equal(t, "alice", u.Handle)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserGetByIDsEmpty(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	users, err := repo.GetByIDs(context.TODO(), []string{"", ""})
	require.NoError(t, err)
	assert.Empty(t, users)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCommentCountBySubtype(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCommentRepository(db)

	mock.ExpectQuery("SELECT subtype, COUNT\\(\\*\\) AS n FROM `comments`").
		WillReturnRows(sqlmock.NewRows([]string{"subtype", "n"}).
			AddRow("general", int64(5)).
			AddRow("service_inquiry", int64(3)))

	counts, err := repo.CountBySubtype(context.TODO(), "01P")
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"general": 5, "service_inquiry": 3}, counts)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCommentStoreOnDeletedPost(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCommentRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `posts` SET `comment_count`").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.Store(context.TODO(), &domain.Comment{PostID: "01P", AuthorID: "01U", Content: "hi"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReactionToggleFirstLike(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewReactionRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT like_count, dislike_count, bookmark_count FROM `posts`").
		WillReturnRows(sqlmock.NewRows([]string{"like_count", "dislike_count", "bookmark_count"}).
			AddRow(int64(4), int64(1), int64(0)))
	mock.ExpectQuery("SELECT \\* FROM `reactions`").
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "target_type", "target_id", "liked", "disliked", "bookmarked", "created_at", "updated_at"}))
	mock.ExpectExec("INSERT INTO `reactions`").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE `posts` SET").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	res, err := repo.Toggle(context.TODO(), "01U", domain.ReactionTarget{Type: domain.TargetPost, ID: "01P"}, domain.ReactionLike)
	require.NoError(t, err)
	assert.Equal(t, domain.ReactionState{Liked: true}, res.State)
	assert.Equal(t, domain.ReactionCounts{LikeCount: 5, DislikeCount: 1}, res.Counts)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReactionToggleFlipsDislike(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewReactionRepository(db)
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT like_count, dislike_count, bookmark_count FROM `comments`").
		WillReturnRows(sqlmock.NewRows([]string{"like_count", "dislike_count", "bookmark_count"}).
			AddRow(int64(0), int64(1), int64(0)))
	mock.ExpectQuery("SELECT \\* FROM `reactions`").
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "target_type", "target_id", "liked", "disliked", "bookmarked", "created_at", "updated_at"}).
			AddRow("01U", "comment", "01C", false, true, false, now, now))
	mock.ExpectExec("UPDATE `reactions` SET").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE `comments` SET").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	res, err := repo.Toggle(context.TODO(), "01U", domain.ReactionTarget{Type: domain.TargetComment, ID: "01C"}, domain.ReactionLike)
	require.NoError(t, err)
	assert.Equal(t, domain.ReactionState{Liked: true}, res.State)
	assert.Equal(t, domain.ReactionCounts{LikeCount: 1, DislikeCount: 0}, res.Counts)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReactionToggleMissingTarget(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewReactionRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT like_count, dislike_count, bookmark_count FROM `posts`").
		WillReturnRows(sqlmock.NewRows([]string{"like_count", "dislike_count", "bookmark_count"}))
	mock.ExpectRollback()

	_, err := repo.Toggle(context.TODO(), "01U", domain.ReactionTarget{Type: domain.TargetPost, ID: "01P"}, domain.ReactionBookmark)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReactionToggleLostRace(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewReactionRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT like_count, dislike_count, bookmark_count FROM `posts`").
		WillReturnRows(sqlmock.NewRows([]string{"like_count", "dislike_count", "bookmark_count"}).
			AddRow(int64(0), int64(0), int64(0)))
	mock.ExpectQuery("SELECT \\* FROM `reactions`").
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "target_type", "target_id", "liked", "disliked", "bookmarked", "created_at", "updated_at"}))
	mock.ExpectExec("INSERT INTO `reactions`").
		WillReturnError(&mysqldriver.MySQLError{Number: errDuplicateEntry, Message: "Duplicate entry"})
	mock.ExpectRollback()

	_, err := repo.Toggle(context.TODO(), "01U", domain.ReactionTarget{Type: domain.TargetPost, ID: "01P"}, domain.ReactionLike)
	assert.ErrorIs(t, err, domain.ErrReactionConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReactionToggleUnknownTargetType(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewReactionRepository(db)

	_, err := repo.Toggle(context.TODO(), "01U", domain.ReactionTarget{Type: "user", ID: "01X"}, domain.ReactionLike)
	assert.ErrorIs(t, err, domain.ErrBadParamInput)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func completeRowValues(comment []driver.Value) []driver.Value {
	created := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	row := []driver.Value{
		"01P", "hello-1a2b3c4d", "Hello", "body", "01U", "published", "board", "", []byte(`null`), "public",
		int64(10), int64(1), int64(0), int64(2), int64(0), created, created,
		"alice", "Alice",
		true, false, false,
	}
	return append(row, comment...)
}

func TestAggregatorGetPostComplete(t *testing.T) {
	db, mock := newMockDB(t)
	agg := NewPostAggregator(db)
	t1 := time.Date(2024, 5, 1, 11, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Minute)

	rows := sqlmock.NewRows(completeColumnNames).
		AddRow(completeRowValues([]driver.Value{
			"01C1", "post", "01P", "01U", "first", int64(0), "active", "general",
			int64(0), int64(0), int64(0), t1, t1,
			"alice", "Alice",
			nil, nil, nil,
		})...).
		AddRow(completeRowValues([]driver.Value{
			"01C2", "comment", "01C1", "01GONE", "second", int64(1), "active", "service_review",
			int64(1), int64(0), int64(0), t2, t2,
			nil, nil,
			true, false, true,
		})...)
	mock.ExpectQuery("SELECT(.|\n)+FROM posts p").
		WithArgs("01V", "01V", "hello-1a2b3c4d").
		WillReturnRows(rows)

	view, err := agg.GetPostComplete(context.TODO(), "hello-1a2b3c4d", "01V")
	require.NoError(t, err)
	assert.Equal(t, "01P", view.Post.ID)
	require.NotNil(t, view.Author)
	assert.Equal(t, "alice", view.Author.Handle)
	require.NotNil(t, view.Reaction)
	assert.True(t, view.Reaction.Liked)

	require.Len(t, view.Comments, 2)
	assert.Equal(t, "01C1", view.Comments[0].ID)
	assert.Equal(t, domain.ReactionState{}, *view.Comments[0].Reaction)
	assert.Nil(t, view.Comments[1].Author)
	assert.Equal(t, 1, view.Comments[1].Depth)
	assert.Equal(t, domain.SubtypeServiceReview, view.Comments[1].Metadata.Subtype)
	assert.Equal(t, domain.ReactionState{Liked: true, Bookmarked: true}, *view.Comments[1].Reaction)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAggregatorAnonymousWithoutComments(t *testing.T) {
	db, mock := newMockDB(t)
	agg := NewPostAggregator(db)

	rows := sqlmock.NewRows(completeColumnNames).
		AddRow(completeRowValues([]driver.Value{
			nil, nil, nil, nil, nil, nil, nil, nil,
			nil, nil, nil, nil, nil,
			nil, nil,
			nil, nil, nil,
		})...)
	mock.ExpectQuery("SELECT(.|\n)+FROM posts p").
		WithArgs("", "", "hello-1a2b3c4d").
		WillReturnRows(rows)

	view, err := agg.GetPostComplete(context.TODO(), "hello-1a2b3c4d", "")
	require.NoError(t, err)
	assert.Nil(t, view.Reaction)
	assert.NotNil(t, view.Comments)
	assert.Empty(t, view.Comments)
	assert.Nil(t, view.Post.Metadata.Tags)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAggregatorNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	agg := NewPostAggregator(db)

	mock.ExpectQuery("SELECT(.|\n)+FROM posts p").
		WillReturnRows(sqlmock.NewRows(completeColumnNames))

	_, err := agg.GetPostComplete(context.TODO(), "missing", "")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReactionReconcileLocksTargetFirst(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewReactionRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT `id` FROM `posts` WHERE id = \\?(.|\n)+FOR UPDATE").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("01P"))
	mock.ExpectQuery("SELECT COALESCE\\(SUM\\(liked\\), 0\\)").
		WillReturnRows(sqlmock.NewRows([]string{"like_count", "dislike_count", "bookmark_count"}).
			AddRow(int64(2), int64(1), int64(0)))
	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `comments`").
		WillReturnRows(sqlmock.NewRows([]string{"count(*)"}).AddRow(int64(7)))
	mock.ExpectExec("UPDATE `posts` SET").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.ReconcileCounters(context.TODO(), domain.ReactionTarget{Type: domain.TargetPost, ID: "01P"})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReactionReconcileMissingTarget(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewReactionRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT `id` FROM `comments` WHERE id = \\?(.|\n)+FOR UPDATE").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	err := repo.ReconcileCounters(context.TODO(), domain.ReactionTarget{Type: domain.TargetComment, ID: "01C"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

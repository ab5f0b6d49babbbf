package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Guyuepp/community-board/domain"
)

func TestParsePostType(t *testing.T) {
	assert.Equal(t, domain.PostTypeBoard, domain.ParsePostType(""))
	assert.Equal(t, domain.PostTypePropertyInfo, domain.ParsePostType("Property-Info"))
	assert.Equal(t, domain.PostTypeTips, domain.ParsePostType("tips"))
	assert.Equal(t, domain.PostTypeOther, domain.ParsePostType("classifieds"))
}

func TestParseVisibility(t *testing.T) {
	assert.Equal(t, domain.VisibilityPrivate, domain.ParseVisibility("PRIVATE"))
	assert.Equal(t, domain.VisibilityPublic, domain.ParseVisibility(""))
	assert.Equal(t, domain.VisibilityPublic, domain.ParseVisibility("friends"))
}

func TestCommentStats(t *testing.T) {
	assert.Equal(t, domain.SubtypeGeneral, domain.ParseCommentSubtype(""))
	assert.Equal(t, domain.SubtypeOther, domain.ParseCommentSubtype("rant"))

	stats := domain.NewCommentStats(map[string]int64{
		"general":         5,
		"service_inquiry": 3,
		"":                1,
	})
	assert.Equal(t, domain.CommentStats{
		domain.SubtypeGeneral:        6,
		domain.SubtypeServiceInquiry: 3,
		domain.SubtypeServiceReview:  0,
	}, stats)

	stats = domain.NewCommentStats(map[string]int64{"rant": 2})
	assert.Equal(t, int64(2), stats[domain.SubtypeOther])
	assert.Equal(t, int64(0), stats[domain.SubtypeGeneral])
}

func TestWithoutViewer(t *testing.T) {
	st := domain.ReactionState{Liked: true}
	view := domain.PostDetailView{
		Post:     domain.Post{ID: "p1"},
		Reaction: &st,
		Comments: []domain.CommentView{{Comment: domain.Comment{ID: "c1"}, Reaction: &st}},
	}

	shared := view.WithoutViewer()
	assert.Nil(t, shared.Reaction)
	assert.Nil(t, shared.Comments[0].Reaction)
	// the original keeps its viewer state
	assert.NotNil(t, view.Comments[0].Reaction)
}

func TestUserCanModify(t *testing.T) {
	assert.True(t, domain.User{ID: "u1"}.CanModify("u1"))
	assert.False(t, domain.User{ID: "u1"}.CanModify("u2"))
	assert.True(t, domain.User{ID: "u1", IsAdmin: true}.CanModify("u2"))
	assert.False(t, domain.User{}.CanModify(""))
}

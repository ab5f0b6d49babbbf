package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Guyuepp/community-board/domain"
	"github.com/Guyuepp/community-board/internal/rest/request"
	"github.com/Guyuepp/community-board/internal/rest/response"
)

type CommentHandler struct {
	Service   domain.CommentUsecase
	Posts     domain.PostRepository
	Reactions domain.ReactionUsecase
}

func NewCommentHandler(svc domain.CommentUsecase, posts domain.PostRepository, reactions domain.ReactionUsecase) *CommentHandler {
	return &CommentHandler{
		Service:   svc,
		Posts:     posts,
		Reactions: reactions,
	}
}

func (h *CommentHandler) FetchByPost(c *gin.Context) {
	views, err := h.Service.GetCommentsWithAuthors(c.Request.Context(), c.Param("slug"), currentUser(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"comments": response.NewCommentViewsFromDomain(views)})
}

func (h *CommentHandler) CreateComment(c *gin.Context) {
	var req request.Comment
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
		return
	}

	comment := req.ToDomain()
	comment.AuthorID = currentUser(c)
	if err := h.Service.Create(c.Request.Context(), c.Param("slug"), &comment); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.NewCommentFromDomain(comment))
}

func (h *CommentHandler) UpdateComment(c *gin.Context) {
	var req request.UpdateComment
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
		return
	}

	comment, err := h.Service.Update(c.Request.Context(), currentUser(c), c.Param("id"), req.Content)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.NewCommentFromDomain(comment))
}

func (h *CommentHandler) DeleteComment(c *gin.Context) {
	if err := h.Service.Delete(c.Request.Context(), currentUser(c), c.Param("id")); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Stats counts the active comments of the post per subtype
func (h *CommentHandler) Stats(c *gin.Context) {
	ctx := c.Request.Context()
	post, err := h.Posts.GetBySlug(ctx, c.Param("slug"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	stats, err := h.Service.StatsByPost(ctx, post.ID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.NewCommentStatsFromDomain(stats))
}

// React toggles kind for the current user on the comment
func (h *CommentHandler) React(kind domain.ReactionKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		target := domain.ReactionTarget{Type: domain.TargetComment, ID: c.Param("id")}
		res, err := h.Reactions.ToggleReaction(c.Request.Context(), currentUser(c), target, kind)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.NewToggleResultFromDomain(res))
	}
}

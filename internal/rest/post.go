package rest

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Guyuepp/community-board/domain"
	"github.com/Guyuepp/community-board/internal/rest/request"
	"github.com/Guyuepp/community-board/internal/rest/response"
)

const (
	DefaultPageNum = 10
	PageMinNum     = 1
	PageMaxNum     = 50
)

// PostHandler  represent the httphandler for post
type PostHandler struct {
	Service   domain.PostUsecase
	Reactions domain.ReactionUsecase
}

func NewPostHandler(svc domain.PostUsecase, reactions domain.ReactionUsecase) *PostHandler {
	return &PostHandler{
		Service:   svc,
		Reactions: reactions,
	}
}

// FetchPost lists published posts, newest first
func (h *PostHandler) FetchPost(c *gin.Context) {
	limit, err := strconv.Atoi(c.Query("limit"))
	if err != nil || limit < PageMinNum || limit > PageMaxNum {
		limit = DefaultPageNum
	}
	skip, err := strconv.Atoi(c.Query("skip"))
	if err != nil || skip < 0 {
		skip = 0
	}

	views, err := h.Service.Fetch(c.Request.Context(), int64(skip), int64(limit))
	if err != nil {
		abortWithError(c, err)
		return
	}
	res := make([]response.PostDetail, len(views))
	for i := range views {
		res[i] = response.NewPostDetailFromDomain(views[i])
	}
	c.JSON(http.StatusOK, res)
}

// GetBySlug returns the post with its author and the viewer's reaction
func (h *PostHandler) GetBySlug(c *gin.Context) {
	view, err := h.Service.GetPostDetail(c.Request.Context(), c.Param("slug"), currentUser(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.NewPostDetailFromDomain(view))
}

// GetComplete returns the post with its author, comments and the viewer's reactions
func (h *PostHandler) GetComplete(c *gin.Context) {
	view, err := h.Service.GetPostComplete(c.Request.Context(), c.Param("slug"), currentUser(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.NewPostCompleteFromDomain(view))
}

// Store will store the post by given request body
func (h *PostHandler) Store(c *gin.Context) {
	var req request.Post
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
		return
	}

	post := req.ToDomain()
	post.AuthorID = currentUser(c)
	if err := h.Service.Store(c.Request.Context(), &post); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.NewPostFromDomain(post))
}

func (h *PostHandler) Update(c *gin.Context) {
	var req request.UpdatePost
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
		return
	}

	post, err := h.Service.Update(c.Request.Context(), currentUser(c), c.Param("slug"), req.ToDomain())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.NewPostFromDomain(post))
}

// Delete will soft delete the post by given param
func (h *PostHandler) Delete(c *gin.Context) {
	if err := h.Service.Delete(c.Request.Context(), currentUser(c), c.Param("slug")); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// React toggles kind for the current user on the post
func (h *PostHandler) React(kind domain.ReactionKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		res, err := h.Reactions.TogglePostReaction(c.Request.Context(), currentUser(c), c.Param("slug"), kind)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.NewToggleResultFromDomain(res))
	}
}

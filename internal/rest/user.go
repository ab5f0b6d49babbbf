package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Guyuepp/community-board/domain"
	"github.com/Guyuepp/community-board/internal/rest/request"
	"github.com/Guyuepp/community-board/internal/rest/response"
)

type UserHandler struct {
	Service domain.UserUsecase
}

func NewUserHandler(svc domain.UserUsecase) *UserHandler {
	return &UserHandler{
		Service: svc,
	}
}

func (h *UserHandler) Register(c *gin.Context) {
	var req request.Register
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
		return
	}

	u := req.ToDomain()
	if err := h.Service.Register(c.Request.Context(), &u); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.NewUserFromDomain(u))
}

func (h *UserHandler) GetByID(c *gin.Context) {
	u, err := h.Service.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.NewUserFromDomain(u))
}

func (h *UserHandler) UpdateProfile(c *gin.Context) {
	var req request.UpdateProfile
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
		return
	}

	u, err := h.Service.UpdateProfile(c.Request.Context(), currentUser(c), c.Param("id"), req.DisplayName)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.NewUserFromDomain(u))
}

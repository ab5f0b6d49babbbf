package rest

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/Guyuepp/community-board/domain"
)

// ResponseError represent the response error struct
type ResponseError struct {
	Message string `json:"message"`
}

// getStatusCode maps the domain errors onto http status codes
func getStatusCode(err error) int {
	if err == nil {
		return http.StatusOK
	}

	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrBadParamInput), errors.Is(err, domain.ErrDepthExceeded):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict
	default:
		logrus.Error(err)
		return http.StatusInternalServerError
	}
}

// abortWithError writes err as a ResponseError. Internal details never leak.
func abortWithError(c *gin.Context, err error) {
	code := getStatusCode(err)
	msg := err.Error()
	if code == http.StatusInternalServerError {
		msg = domain.ErrInternalServerError.Error()
	}
	c.AbortWithStatusJSON(code, ResponseError{Message: msg})
}

// currentUser returns the id set by the auth middleware, "" for anonymous.
func currentUser(c *gin.Context) string {
	if v, ok := c.Get("user_id"); ok {
		if uid, ok := v.(string); ok {
			return uid
		}
	}
	return ""
}

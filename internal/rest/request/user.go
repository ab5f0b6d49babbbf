package request

import (
	"regexp"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/Guyuepp/community-board/domain"
)

var handlePattern = regexp.MustCompile(`^[a-zA-Z0-9_]{3,32}$`)

// RegisterValidators installs the custom binding tags on gin's validator.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}
	return v.RegisterValidation("handle", func(fl validator.FieldLevel) bool {
		return handlePattern.MatchString(fl.Field().String())
	})
}

type Register struct {
	Email       string `json:"email" binding:"required,email"`
	Handle      string `json:"user_handle" binding:"required,handle"`
	DisplayName string `json:"display_name" binding:"omitempty,max=64"`
}

func (r *Register) ToDomain() domain.User {
	return domain.User{
		Email:       r.Email,
		Handle:      r.Handle,
		DisplayName: r.DisplayName,
	}
}

type UpdateProfile struct {
	DisplayName string `json:"display_name" binding:"required,max=64"`
}

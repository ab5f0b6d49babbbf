package response

import "github.com/Guyuepp/community-board/domain"

const DateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

type Author struct {
	ID          string `json:"id"`
	Handle      string `json:"user_handle"`
	DisplayName string `json:"display_name"`
}

func NewAuthorFromDomain(a *domain.AuthorInfo) *Author {
	if a == nil {
		return nil
	}
	return &Author{
		ID:          a.ID,
		Handle:      a.Handle,
		DisplayName: a.DisplayName,
	}
}

type User struct {
	ID          string `json:"id"`
	Handle      string `json:"user_handle"`
	DisplayName string `json:"display_name"`
	IsAdmin     bool   `json:"is_admin"`
	CreatedAt   string `json:"created_at"`
}

func NewUserFromDomain(u domain.User) User {
	return User{
		ID:          u.ID,
		Handle:      u.Handle,
		DisplayName: u.DisplayName,
		IsAdmin:     u.IsAdmin,
		CreatedAt:   u.CreatedAt.Format(DateTimeFormat),
	}
}

package user

import (
	"context"
	"net/mail"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/Guyuepp/community-board/domain"
)

type service struct {
	userRepo domain.UserRepository
	authors  domain.AuthorResolver
}

var _ domain.UserUsecase = (*service)(nil)

func NewService(userRepo domain.UserRepository, authors domain.AuthorResolver) *service {
	return &service{
		userRepo: userRepo,
		authors:  authors,
	}
}

func (s *service) Register(ctx context.Context, u *domain.User) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	if _, err := mail.ParseAddress(u.Email); err != nil {
		return domain.ErrBadParamInput
	}
	u.Handle = domain.NormalizeHandle(u.Handle)
	if u.Handle == "" {
		return domain.ErrBadParamInput
	}
	u.DisplayName = strings.TrimSpace(u.DisplayName)
	if u.DisplayName == "" {
		u.DisplayName = u.Handle
	}
	u.IsAdmin = false
	return s.userRepo.Insert(ctx, u)
}

func (s *service) GetByID(ctx context.Context, id string) (domain.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

// UpdateProfile commits the new display name, then drops the cached author so
// the next read sees it.
func (s *service) UpdateProfile(ctx context.Context, actorID, userID, displayName string) (domain.User, error) {
	if actorID == "" {
		return domain.User{}, domain.ErrUnauthorized
	}
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		return domain.User{}, domain.ErrBadParamInput
	}

	if actorID != userID {
		actor, err := s.userRepo.GetByID(ctx, actorID)
		if err != nil {
			return domain.User{}, domain.ErrUnauthorized
		}
		if !actor.CanModify(userID) {
			return domain.User{}, domain.ErrForbidden
		}
	}

	u, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return domain.User{}, err
	}
	u.DisplayName = displayName
	if err := s.userRepo.UpdateProfile(ctx, &u); err != nil {
		logrus.Errorf("failed to update profile of user %s: %v", userID, err)
		return domain.User{}, err
	}

	s.authors.InvalidateAuthor(ctx, userID)
	return u, nil
}

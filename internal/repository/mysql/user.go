package mysql

import (
	"context"

	"gorm.io/gorm"

	"github.com/Guyuepp/community-board/domain"
	"github.com/Guyuepp/community-board/internal/repository"
	"github.com/Guyuepp/community-board/internal/repository/mysql/model"
)

type userRepository struct {
	DB *gorm.DB
}

var _ domain.UserRepository = (*userRepository)(nil)

// NewUserRepository will create an implementation of domain.UserRepository
func NewUserRepository(db *gorm.DB) *userRepository {
	return &userRepository{
		DB: db,
	}
}

func (m *userRepository) GetByID(ctx context.Context, id string) (domain.User, error) {
	var user model.User
	if err := m.DB.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return domain.User{}, translateError(err)
	}

	return user.ToDomain(), nil
}

func (m *userRepository) GetByIDs(ctx context.Context, ids []string) ([]domain.User, error) {
	ids = repository.UniqueIDs(ids)
	if len(ids) == 0 {
		return []domain.User{}, nil
	}
	var users []model.User
	if err := m.DB.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}
	res := make([]domain.User, len(users))
	for i := range users {
		res[i] = users[i].ToDomain()
	}
	return res, nil
}

func (m *userRepository) Insert(ctx context.Context, u *domain.User) error {
	if u.ID == "" {
		u.ID = repository.NewID()
	}
	u.Handle = domain.NormalizeHandle(u.Handle)
	now := repository.Now()
	u.CreatedAt, u.UpdatedAt = now, now

	userModel := model.NewUserFromDomain(u)
	if err := m.DB.WithContext(ctx).Create(userModel).Error; err != nil {
		return translateError(err)
	}
	return nil
}

func (m *userRepository) UpdateProfile(ctx context.Context, u *domain.User) error {
	result := m.DB.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", u.ID).
		Updates(map[string]any{
			"display_name": u.DisplayName,
			"updated_at":   repository.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}

	cur, err := m.GetByID(ctx, u.ID)
	if err != nil {
		return err
	}
	*u = cur
	return nil
}

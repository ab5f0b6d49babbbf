package mysql

import (
	"context"

	"gorm.io/gorm"

	"github.com/Guyuepp/community-board/domain"
	"github.com/Guyuepp/community-board/internal/repository"
	"github.com/Guyuepp/community-board/internal/repository/mysql/model"
)

type postRepository struct {
	DB *gorm.DB
}

var _ domain.PostRepository = (*postRepository)(nil)

// NewPostRepository 创建数据库操作层
func NewPostRepository(db *gorm.DB) *postRepository {
	return &postRepository{db}
}

// live 过滤掉软删除的帖子
func live(db *gorm.DB) *gorm.DB {
	return db.Where("status <> ?", domain.PostDeleted)
}

func (m *postRepository) Fetch(ctx context.Context, skip, limit int64) ([]domain.Post, error) {
	skip, limit = repository.PageBounds(skip, limit)

	var posts []model.Post
	err := m.DB.WithContext(ctx).
		Where("status = ? AND visibility <> ?", domain.PostPublished, domain.VisibilityPrivate).
		Order("created_at DESC, id DESC").
		Offset(int(skip)).
		Limit(int(limit)).
		Find(&posts).Error
	if err != nil {
		return nil, err
	}

	res := make([]domain.Post, len(posts))
	for i := range posts {
		res[i] = posts[i].ToDomain()
	}
	return res, nil
}

func (m *postRepository) GetBySlug(ctx context.Context, slug string) (domain.Post, error) {
	var post model.Post
	if err := m.DB.WithContext(ctx).Scopes(live).First(&post, "slug = ?", slug).Error; err != nil {
		return domain.Post{}, translateError(err)
	}
	return post.ToDomain(), nil
}

func (m *postRepository) GetByID(ctx context.Context, id string) (domain.Post, error) {
	var post model.Post
	if err := m.DB.WithContext(ctx).Scopes(live).First(&post, "id = ?", id).Error; err != nil {
		return domain.Post{}, translateError(err)
	}
	return post.ToDomain(), nil
}

func (m *postRepository) Store(ctx context.Context, p *domain.Post) error {
	if p.ID == "" {
		p.ID = repository.NewID()
	}
	now := repository.Now()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.CreatedAt = repository.Normalize(p.CreatedAt)
	p.UpdatedAt = now

	postModel := model.NewPostFromDomain(p)
	if err := m.DB.WithContext(ctx).Create(postModel).Error; err != nil {
		return translateError(err)
	}
	return nil
}

func (m *postRepository) Update(ctx context.Context, p *domain.Post) error {
	postModel := model.NewPostFromDomain(p)
	result := m.DB.WithContext(ctx).Model(&model.Post{}).
		Scopes(live).
		Where("id = ?", p.ID).
		Select("title", "content", "status", "post_type", "category", "tags", "visibility", "updated_at").
		Updates(&model.Post{
			Title:      postModel.Title,
			Content:    postModel.Content,
			Status:     postModel.Status,
			PostType:   postModel.PostType,
			Category:   postModel.Category,
			Tags:       postModel.Tags,
			Visibility: postModel.Visibility,
			UpdatedAt:  repository.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}

	cur, err := m.GetByID(ctx, p.ID)
	if err != nil {
		return err
	}
	*p = cur
	return nil
}

func (m *postRepository) Delete(ctx context.Context, id string) error {
	result := m.DB.WithContext(ctx).Model(&model.Post{}).
		Scopes(live).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":     domain.PostDeleted,
			"updated_at": repository.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (m *postRepository) IncrementViews(ctx context.Context, id string, delta int64) error {
	result := m.DB.WithContext(ctx).Model(&model.Post{}).
		Where("id = ?", id).
		UpdateColumn("view_count", gorm.Expr("view_count + ?", delta))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (m *postRepository) FetchSlugs(ctx context.Context, skip, limit int64) ([]string, error) {
	if skip < 0 {
		skip = 0
	}
	q := m.DB.WithContext(ctx).Model(&model.Post{}).Scopes(live).Order("slug").Offset(int(skip))
	if limit > 0 {
		q = q.Limit(int(limit))
	}

	slugs := []string{}
	if err := q.Pluck("slug", &slugs).Error; err != nil {
		return nil, err
	}
	return slugs, nil
}

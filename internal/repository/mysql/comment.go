package mysql

import (
	"context"

	"gorm.io/gorm"

	"github.com/Guyuepp/community-board/domain"
	"github.com/Guyuepp/community-board/internal/repository"
	"github.com/Guyuepp/community-board/internal/repository/mysql/model"
)

type commentRepository struct {
	DB *gorm.DB
}

var _ domain.CommentRepository = (*commentRepository)(nil)

func NewCommentRepository(db *gorm.DB) *commentRepository {
	return &commentRepository{
		DB: db,
	}
}

// activeComments is the soft-delete predicate of comments.
func activeComments(db *gorm.DB) *gorm.DB {
	return db.Where("status = ?", domain.CommentActive)
}

func (c *commentRepository) GetByID(ctx context.Context, id string) (domain.Comment, error) {
	var comment model.Comment
	if err := c.DB.WithContext(ctx).First(&comment, "id = ?", id).Error; err != nil {
		return domain.Comment{}, translateError(err)
	}
	return comment.ToDomain(), nil
}

func (c *commentRepository) FetchActiveByPost(ctx context.Context, postID string) ([]domain.Comment, error) {
	var comments []model.Comment
	err := c.DB.WithContext(ctx).
		Scopes(activeComments).
		Where("post_id = ?", postID).
		Order("created_at ASC, id ASC").
		Find(&comments).Error
	if err != nil {
		return nil, err
	}

	res := make([]domain.Comment, len(comments))
	for i := range comments {
		res[i] = comments[i].ToDomain()
	}
	return res, nil
}

func (c *commentRepository) Store(ctx context.Context, comment *domain.Comment) error {
	if comment.ID == "" {
		comment.ID = repository.NewID()
	}
	if comment.Status == "" {
		comment.Status = domain.CommentActive
	}
	now := repository.Now()
	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = now
	}
	comment.CreatedAt = repository.Normalize(comment.CreatedAt)
	comment.UpdatedAt = now

	return c.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		delta := 0
		if comment.IsActive() {
			delta = 1
		}
		result := tx.Model(&model.Post{}).
			Scopes(live).
			Where("id = ?", comment.PostID).
			UpdateColumn("comment_count", gorm.Expr("comment_count + ?", delta))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domain.ErrNotFound
		}

		if err := tx.Create(model.NewCommentFromDomain(comment)).Error; err != nil {
			return translateError(err)
		}
		return nil
	})
}

func (c *commentRepository) UpdateContent(ctx context.Context, comment *domain.Comment) error {
	result := c.DB.WithContext(ctx).Model(&model.Comment{}).
		Scopes(activeComments).
		Where("id = ?", comment.ID).
		Updates(map[string]any{
			"content":    comment.Content,
			"updated_at": repository.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}

	cur, err := c.GetByID(ctx, comment.ID)
	if err != nil {
		return err
	}
	*comment = cur
	return nil
}

func (c *commentRepository) SoftDelete(ctx context.Context, comment domain.Comment) error {
	return c.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&model.Comment{}).
			Scopes(activeComments).
			Where("id = ?", comment.ID).
			Updates(map[string]any{
				"status":     domain.CommentDeleted,
				"updated_at": repository.Now(),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domain.ErrNotFound
		}

		return tx.Model(&model.Post{}).
			Where("id = ? AND comment_count > 0", comment.PostID).
			UpdateColumn("comment_count", gorm.Expr("comment_count - 1")).Error
	})
}

type subtypeCount struct {
	Subtype string
	N       int64
}

func (c *commentRepository) CountBySubtype(ctx context.Context, postID string) (map[string]int64, error) {
	var rows []subtypeCount
	err := c.DB.WithContext(ctx).Model(&model.Comment{}).
		Scopes(activeComments).
		Select("subtype, COUNT(*) AS n").
		Where("post_id = ?", postID).
		Group("subtype").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	res := make(map[string]int64, len(rows))
	for _, row := range rows {
		res[row.Subtype] += row.N
	}
	return res, nil
}

package mysql

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Guyuepp/community-board/domain"
	"github.com/Guyuepp/community-board/internal/repository"
	"github.com/Guyuepp/community-board/internal/repository/mysql/model"
)

type reactionRepository struct {
	DB *gorm.DB
}

var (
	_ domain.ReactionRepository = (*reactionRepository)(nil)
	_ domain.CounterRepository  = (*reactionRepository)(nil)
)

func NewReactionRepository(db *gorm.DB) *reactionRepository {
	return &reactionRepository{db}
}

func (m *reactionRepository) Get(ctx context.Context, userID string, target domain.ReactionTarget) (domain.ReactionState, error) {
	var rec model.Reaction
	err := m.DB.WithContext(ctx).
		Where("user_id = ? AND target_type = ? AND target_id = ?", userID, target.Type, target.ID).
		Limit(1).
		Find(&rec).Error
	if err != nil {
		return domain.ReactionState{}, err
	}
	return rec.State(), nil
}

func (m *reactionRepository) GetBatch(ctx context.Context, userID string, targetType domain.TargetType, targetIDs []string) (map[string]domain.ReactionState, error) {
	res := make(map[string]domain.ReactionState)
	targetIDs = repository.UniqueIDs(targetIDs)
	if len(targetIDs) == 0 {
		return res, nil
	}

	var recs []model.Reaction
	err := m.DB.WithContext(ctx).
		Where("user_id = ? AND target_type = ? AND target_id IN ?", userID, targetType, targetIDs).
		Find(&recs).Error
	if err != nil {
		return nil, err
	}
	for i := range recs {
		res[recs[i].TargetID] = recs[i].State()
	}
	return res, nil
}

// targetTable returns the model whose counters a reaction on target moves,
// together with its liveness predicate.
func targetTable(target domain.ReactionTarget) (any, func(*gorm.DB) *gorm.DB, error) {
	switch target.Type {
	case domain.TargetPost:
		return &model.Post{}, live, nil
	case domain.TargetComment:
		return &model.Comment{}, activeComments, nil
	default:
		return nil, nil, domain.ErrBadParamInput
	}
}

// Toggle locks the target row first, so toggles on one target serialize and the
// flag flip commits together with the counter move.
func (m *reactionRepository) Toggle(ctx context.Context, userID string, target domain.ReactionTarget, kind domain.ReactionKind) (domain.ToggleResult, error) {
	table, alive, err := targetTable(target)
	if err != nil {
		return domain.ToggleResult{}, err
	}

	var res domain.ToggleResult
	err = m.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var counts domain.ReactionCounts
		result := tx.Model(table).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Scopes(alive).
			Select("like_count, dislike_count, bookmark_count").
			Where("id = ?", target.ID).
			Limit(1).
			Scan(&counts)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domain.ErrNotFound
		}

		var recs []model.Reaction
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ? AND target_type = ? AND target_id = ?", userID, target.Type, target.ID).
			Limit(1).
			Find(&recs).Error
		if err != nil {
			return err
		}

		now := repository.Now()
		var cur domain.ReactionState
		if len(recs) > 0 {
			cur = recs[0].State()
		}
		next := cur.Toggle(kind)
		delta := cur.Delta(next)

		rec := model.NewReactionFromDomain(domain.UserReaction{
			UserID:        userID,
			Target:        target,
			ReactionState: next,
			CreatedAt:     now,
			UpdatedAt:     now,
		})
		if len(recs) == 0 {
			err = tx.Create(&rec).Error
		} else {
			err = tx.Model(&model.Reaction{}).
				Where("user_id = ? AND target_type = ? AND target_id = ?", userID, target.Type, target.ID).
				Updates(map[string]any{
					"liked":      next.Liked,
					"disliked":   next.Disliked,
					"bookmarked": next.Bookmarked,
					"updated_at": now,
				}).Error
		}
		if err != nil {
			return err
		}

		if !delta.IsZero() {
			err = tx.Model(table).
				Where("id = ?", target.ID).
				UpdateColumns(map[string]any{
					"like_count":     gorm.Expr("like_count + ?", delta.LikeCount),
					"dislike_count":  gorm.Expr("dislike_count + ?", delta.DislikeCount),
					"bookmark_count": gorm.Expr("bookmark_count + ?", delta.BookmarkCount),
				}).Error
			if err != nil {
				return err
			}
		}

		res = domain.ToggleResult{
			Counts: domain.ReactionCounts{
				LikeCount:     counts.LikeCount + delta.LikeCount,
				DislikeCount:  counts.DislikeCount + delta.DislikeCount,
				BookmarkCount: counts.BookmarkCount + delta.BookmarkCount,
			},
			State: next,
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ToggleResult{}, err
		}
		if isLockConflict(err) {
			return domain.ToggleResult{}, domain.ErrReactionConflict
		}
		return domain.ToggleResult{}, err
	}
	return res, nil
}

// ReconcileCounters overwrites the counters of target with the sums of its
// reaction rows and, for posts, the number of active comments. The target row is
// locked first, in the same order as Toggle, so no toggle commits between the
// sums and the overwrite.
func (m *reactionRepository) ReconcileCounters(ctx context.Context, target domain.ReactionTarget) error {
	table, _, err := targetTable(target)
	if err != nil {
		return err
	}

	return m.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ids []string
		err := tx.Model(table).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", target.ID).
			Limit(1).
			Pluck("id", &ids).Error
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			return domain.ErrNotFound
		}

		var counts domain.ReactionCounts
		err = tx.Model(&model.Reaction{}).
			Select("COALESCE(SUM(liked), 0) AS like_count, COALESCE(SUM(disliked), 0) AS dislike_count, COALESCE(SUM(bookmarked), 0) AS bookmark_count").
			Where("target_type = ? AND target_id = ?", target.Type, target.ID).
			Scan(&counts).Error
		if err != nil {
			return err
		}

		columns := map[string]any{
			"like_count":     counts.LikeCount,
			"dislike_count":  counts.DislikeCount,
			"bookmark_count": counts.BookmarkCount,
		}
		if target.Type == domain.TargetPost {
			var n int64
			err := tx.Model(&model.Comment{}).
				Scopes(activeComments).
				Where("post_id = ?", target.ID).
				Count(&n).Error
			if err != nil {
				return err
			}
			columns["comment_count"] = n
		}

		result := tx.Model(table).Where("id = ?", target.ID).UpdateColumns(columns)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domain.ErrNotFound
		}
		return nil
	})
}

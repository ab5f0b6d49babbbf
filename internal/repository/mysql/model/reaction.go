package model

import (
	"time"

	"github.com/Guyuepp/community-board/domain"
)

// Reaction is one row per (user, target); the three flags live side by side.
type Reaction struct {
	UserID     string    `gorm:"column:user_id;type:char(26);primaryKey"`
	TargetType string    `gorm:"column:target_type;type:varchar(16);primaryKey;index:idx_reactions_target,priority:1"`
	TargetID   string    `gorm:"column:target_id;type:char(26);primaryKey;index:idx_reactions_target,priority:2"`
	Liked      bool      `gorm:"not null;default:false"`
	Disliked   bool      `gorm:"not null;default:false"`
	Bookmarked bool      `gorm:"not null;default:false"`
	CreatedAt  time.Time `gorm:"type:datetime(3)"`
	UpdatedAt  time.Time `gorm:"type:datetime(3)"`
}

func (Reaction) TableName() string {
	return "reactions"
}

func (m *Reaction) State() domain.ReactionState {
	return domain.ReactionState{
		Liked:      m.Liked,
		Disliked:   m.Disliked,
		Bookmarked: m.Bookmarked,
	}
}

func NewReactionFromDomain(r domain.UserReaction) Reaction {
	return Reaction{
		UserID:     r.UserID,
		TargetType: string(r.Target.Type),
		TargetID:   r.Target.ID,
		Liked:      r.Liked,
		Disliked:   r.Disliked,
		Bookmarked: r.Bookmarked,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
}

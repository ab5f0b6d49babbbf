package mysql

import (
	"errors"

	mysqldriver "github.com/go-sql-driver/mysql"
	"gorm.io/gorm"

	"github.com/Guyuepp/community-board/domain"
	"github.com/Guyuepp/community-board/internal/repository/mysql/model"
)

const (
	errDuplicateEntry = 1062
	errLockDeadlock   = 1213
	errLockWaitTimout = 1205
)

// translateError maps driver errors onto the domain sentinels.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ErrNotFound
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return domain.ErrConflict
	}
	var myErr *mysqldriver.MySQLError
	if errors.As(err, &myErr) && myErr.Number == errDuplicateEntry {
		return domain.ErrConflict
	}
	return err
}

// isLockConflict reports a lost race between two writers on the same rows.
func isLockConflict(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var myErr *mysqldriver.MySQLError
	if !errors.As(err, &myErr) {
		return false
	}
	switch myErr.Number {
	case errDuplicateEntry, errLockDeadlock, errLockWaitTimout:
		return true
	}
	return false
}

// Migrate creates or alters the board tables.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&model.User{}, &model.Post{}, &model.Comment{}, &model.Reaction{})
}

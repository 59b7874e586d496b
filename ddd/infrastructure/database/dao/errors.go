package dao

import (
	"errors"

	"gorm.io/gorm"

	"videoindex-service/pkg/errno"
)

// wrapDBError 将gorm错误映射为领域错误
//
// The gorm session is opened with TranslateError so driver-specific
// constraint errors arrive as gorm sentinels.
func wrapDBError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return errno.ErrNotFound.Wrap(err)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return errno.ErrConflict.Wrap(err)
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return errno.ErrNotFound.Wrap(err)
	default:
		return errno.ErrDatabase.Wrap(err)
	}
}

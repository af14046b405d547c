package storage

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// Error taxonomy shared by the stores and the services built on them.
// Callers match with errors.Is; details are attached with %w wrapping.
var (
	ErrValidation   = errors.New("validation error")
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrStorage      = errors.New("storage error")
)

// dbError wraps an underlying persistence failure as ErrStorage.
// The original error stays in the message for logs only.
func dbError(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %s: %v", ErrStorage, op, err)
}

func isDuplicate(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

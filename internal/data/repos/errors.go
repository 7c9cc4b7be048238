package repos

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	types "github.com/yungbote/creator-onboarding-backend/internal/domain/onboarding"
)

// ErrStaleVersion is returned when an optimistic update lost the race.
var ErrStaleVersion = errors.New("stale profile version")

// MapError maps storage failures into onboarding error codes.
func MapError(op string, err error) error {
	if err == nil {
		return nil
	}
	var oe *types.Error
	if errors.As(err, &oe) {
		return err
	}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return types.NewError(types.CodeNotFound, op, types.MsgProfileNotFound, err)
	case errors.Is(err, gorm.ErrDuplicatedKey), errors.Is(err, ErrStaleVersion):
		return types.Wrap(types.CodeConflict, op, err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return types.ServiceUnavailableError(op, "profile store", err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch strings.TrimSpace(pgErr.Code) {
		case "23505":
			return types.Wrap(types.CodeConflict, op, err) // unique_violation
		case "40001", "40P01", "55P03":
			return types.Wrap(types.CodeConflict, op, err) // serialization/deadlock/lock_not_available
		case "57P01", "08006", "08001":
			return types.ServiceUnavailableError(op, "profile store", err)
		}
	}

	msg := strings.ToLower(strings.TrimSpace(err.Error()))
	switch {
	case strings.Contains(msg, "unique constraint"), strings.Contains(msg, "duplicate key"):
		return types.Wrap(types.CodeConflict, op, err)
	case strings.Contains(msg, "database is locked"), strings.Contains(msg, "connection refused"):
		return types.ServiceUnavailableError(op, "profile store", err)
	}
	return types.Wrap(types.CodeInternal, op, err)
}

// IsUniqueViolation reports whether err is a duplicate-key failure on any supported driver.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint")
}

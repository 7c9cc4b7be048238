package repos

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	types "github.com/yungbote/creator-onboarding-backend/internal/domain/onboarding"
)

func TestMapError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want types.ErrorCode
	}{
		{"not found", gorm.ErrRecordNotFound, types.CodeNotFound},
		{"duplicate", gorm.ErrDuplicatedKey, types.CodeConflict},
		{"stale", fmt.Errorf("update: %w", ErrStaleVersion), types.CodeConflict},
		{"pg unique", &pgconn.PgError{Code: "23505"}, types.CodeConflict},
		{"pg deadlock", &pgconn.PgError{Code: "40P01"}, types.CodeConflict},
		{"canceled", context.Canceled, types.CodeServiceUnavailable},
		{"sqlite unique", errors.New("UNIQUE constraint failed: creator_profile.user_id"), types.CodeConflict},
		{"other", errors.New("boom"), types.CodeInternal},
		{"already mapped", types.ValidationError("op", "bad"), types.CodeValidation},
	}
	for _, tc := range cases {
		got := MapError("op", tc.err)
		if code := types.CodeOf(got); code != tc.want {
			t.Fatalf("%s: want=%s got=%s (%v)", tc.name, tc.want, code, got)
		}
	}
	if MapError("op", nil) != nil {
		t.Fatalf("nil should stay nil")
	}
}

func TestIsUniqueViolation(t *testing.T) {
	if !IsUniqueViolation(&pgconn.PgError{Code: "23505"}) {
		t.Fatalf("pg 23505 should be unique violation")
	}
	if !IsUniqueViolation(fmt.Errorf("create: %w", gorm.ErrDuplicatedKey)) {
		t.Fatalf("wrapped ErrDuplicatedKey should be unique violation")
	}
	if IsUniqueViolation(errors.New("boom")) {
		t.Fatalf("plain error is not a unique violation")
	}
}

package postgres

import (
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

func TestUUIDOrEmpty(t *testing.T) {
	if got := uuidOrEmpty(pgtype.UUID{}); got != "" {
		t.Fatalf("invalid uuid = %q", got)
	}
	u := pgtype.UUID{Valid: true, Bytes: [16]byte{0x12, 0x34, 0x56, 0x78, 0x9a, 0xbc, 0xde, 0xf0, 0x01, 0x23, 0x45, 0x67, 0x89, 0xab, 0xcd, 0xef}}
	if got, want := uuidOrEmpty(u), "12345678-9abc-def0-0123-456789abcdef"; got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestNullableHelpers(t *testing.T) {
	if nullIfEmpty("") != nil {
		t.Fatalf("empty string should be nil")
	}
	if nullIfEmpty("x") != "x" {
		t.Fatalf("non-empty string should pass through")
	}
	if textOrEmpty(pgtype.Text{String: "x"}) != "" {
		t.Fatalf("invalid text should be empty")
	}
	if timestamptzPtr(pgtype.Timestamptz{}) != nil {
		t.Fatalf("invalid timestamp should be nil")
	}
	now := time.Now()
	if got := timestamptzPtr(pgtype.Timestamptz{Time: now, Valid: true}); got == nil || !got.Equal(now) {
		t.Fatalf("got %v", got)
	}
}

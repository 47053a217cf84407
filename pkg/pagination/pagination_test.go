package pagination

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestNormalizeLimit(t *testing.T) {
	t.Parallel()

	if got := NormalizeLimit(0); got != DefaultLimit {
		t.Fatalf("expected default for zero, got %d", got)
	}
	if got := NormalizeLimit(-4); got != DefaultLimit {
		t.Fatalf("expected default for negative, got %d", got)
	}
	if got := NormalizeLimit(1000); got != MaxLimit {
		t.Fatalf("expected max cap, got %d", got)
	}
	if got := NormalizeLimit(10); got != 10 {
		t.Fatalf("expected passthrough, got %d", got)
	}
}

func TestCursorRoundTrip(t *testing.T) {
	t.Parallel()

	want := Cursor{
		CreatedAt: time.Date(2025, 6, 1, 12, 30, 0, 0, time.UTC),
		ID:        uuid.New(),
	}

	got, err := ParseCursor(EncodeCursor(want))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if got == nil {
		t.Fatal("expected cursor, got nil")
	}
	if !got.CreatedAt.Equal(want.CreatedAt) || got.ID != want.ID {
		t.Fatalf("round trip mismatch: %+v != %+v", got, want)
	}
}

func TestParseCursorEmpty(t *testing.T) {
	t.Parallel()

	got, err := ParseCursor("  ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil cursor, got %+v", got)
	}
}

func TestParseCursorInvalid(t *testing.T) {
	t.Parallel()

	if _, err := ParseCursor("!!!not-base64"); err == nil {
		t.Fatal("expected error for invalid base64")
	}
}

type pagedRow struct {
	id        uuid.UUID
	createdAt time.Time
}

func TestBuildPage(t *testing.T) {
	t.Parallel()

	rows := []pagedRow{
		{id: uuid.New(), createdAt: time.Now().Add(-3 * time.Minute)},
		{id: uuid.New(), createdAt: time.Now().Add(-2 * time.Minute)},
		{id: uuid.New(), createdAt: time.Now().Add(-1 * time.Minute)},
	}

	page := BuildPage(rows, 2, func(r pagedRow) Cursor {
		return Cursor{CreatedAt: r.createdAt, ID: r.id}
	})
	if len(page.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(page.Items))
	}
	if page.NextCursor == nil {
		t.Fatal("expected next cursor for over-fetched page")
	}

	page = BuildPage(rows[:2], 2, func(r pagedRow) Cursor {
		return Cursor{CreatedAt: r.createdAt, ID: r.id}
	})
	if page.NextCursor != nil {
		t.Fatal("expected no next cursor for final page")
	}
}

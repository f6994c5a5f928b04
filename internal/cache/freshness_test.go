package cache

import (
	"testing"
	"time"
)

func TestIsFreshHistoricalNeverExpires(t *testing.T) {
	now := time.Date(2026, 7, 31, 10, 0, 0, 0, time.UTC)
	storedAt := now.Add(-48 * time.Hour)
	params := map[string]string{"end_date": "2026-07-01"}

	if !isFresh(params, storedAt, now) {
		t.Fatalf("expected historical entry to remain fresh")
	}
}

func TestIsFreshCurrentDayExpiresAtMidnight(t *testing.T) {
	storedAt := time.Date(2026, 7, 30, 23, 0, 0, 0, time.UTC)
	params := map[string]string{"end_date": "2026-07-31"}

	beforeMidnight := time.Date(2026, 7, 30, 23, 30, 0, 0, time.UTC)
	if !isFresh(params, storedAt, beforeMidnight) {
		t.Fatalf("expected entry to still be fresh before local midnight")
	}

	afterMidnight := time.Date(2026, 7, 31, 0, 30, 0, 0, time.UTC)
	if isFresh(params, storedAt, afterMidnight) {
		t.Fatalf("expected entry to expire after local midnight")
	}
}

func TestIsFreshDefaultsEndDateToToday(t *testing.T) {
	now := time.Date(2026, 7, 31, 9, 0, 0, 0, time.UTC)
	storedAt := now.Add(-time.Hour)

	if !isFresh(map[string]string{}, storedAt, now) {
		t.Fatalf("expected entry with no end_date to be treated as current-day and still fresh")
	}
}

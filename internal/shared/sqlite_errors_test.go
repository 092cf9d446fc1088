package shared

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestIsSQLiteConflictError(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{errors.New("SQLITE_BUSY: database locked"), true},
		{errors.New("database is locked (5)"), true},
		{errors.New("no such table: readers"), false},
	}
	for _, tt := range tests {
		if got := IsSQLiteConflictError(tt.err); got != tt.want {
			t.Errorf("IsSQLiteConflictError(%v): expected %v, got %v", tt.err, tt.want, got)
		}
	}
}

func TestRetrySQLite_RetriesOnBusy(t *testing.T) {
	calls := 0
	err := RetrySQLite(context.Background(), 3, time.Millisecond, func() error {
		calls++
		if calls < 3 {
			return errors.New("SQLITE_BUSY")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Expected success after retries, got %v", err)
	}
	if calls != 3 {
		t.Errorf("Expected 3 attempts, got %d", calls)
	}
}

func TestRetrySQLite_StopsOnOtherErrors(t *testing.T) {
	calls := 0
	wantErr := errors.New("no such table")
	err := RetrySQLite(context.Background(), 3, time.Millisecond, func() error {
		calls++
		return wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("Expected the original error, got %v", err)
	}
	if calls != 1 {
		t.Errorf("Expected 1 attempt for a non-conflict error, got %d", calls)
	}
}

func TestRetrySQLite_ExhaustsAttempts(t *testing.T) {
	calls := 0
	err := RetrySQLite(context.Background(), 3, time.Millisecond, func() error {
		calls++
		return errors.New("database is locked")
	})
	if err == nil {
		t.Fatal("Expected error after exhausting attempts")
	}
	if calls != 3 {
		t.Errorf("Expected 3 attempts, got %d", calls)
	}
}

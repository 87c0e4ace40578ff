package storage

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/pauljones0/kiosk-listings/internal/listing"
)

func TestDocID(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"5277e3e4cd530eb866000260", "5277e3e4cd530eb866000260"},
		{"lot/12", "lot%2F12"},
		{"", "~"},
		{".", "~."},
		{"..", "~.."},
		{"__name__", "~__name__"},
		{"__", "__"},
		{"a b", "a%20b"},
	}

	for _, tt := range tests {
		if got := DocID(tt.in); got != tt.want {
			t.Errorf("DocID(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"unavailable", status.Error(codes.Unavailable, "try again"), true},
		{"aborted", status.Error(codes.Aborted, "contention"), true},
		{"permission denied", status.Error(codes.PermissionDenied, "no"), false},
		{"plain error", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := retryable(tt.err); got != tt.want {
				t.Errorf("retryable() = %v, want %v", got, tt.want)
			}
		})
	}
}

type fakeSaver struct {
	mu       sync.Mutex
	errs     []error
	saved    []uint64
	attempts int
}

func (f *fakeSaver) SaveListing(_ context.Context, snap listing.Snapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attempts++
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		if err != nil {
			return err
		}
	}
	f.saved = append(f.saved, snap.Version)
	return nil
}

func TestMirrorUpdates_RetriesTransientErrors(t *testing.T) {
	saver := &fakeSaver{errs: []error{status.Error(codes.Unavailable, "blip"), nil}}
	updates := make(chan listing.Snapshot, 2)
	updates <- listing.Snapshot{AuctionID: "sale-1", Version: 1}
	updates <- listing.Snapshot{AuctionID: "sale-1", Version: 2}
	close(updates)

	MirrorUpdates(context.Background(), updates, saver, time.Millisecond)

	if len(saver.saved) != 2 || saver.saved[0] != 1 || saver.saved[1] != 2 {
		t.Errorf("saved versions = %v, want [1 2]", saver.saved)
	}
	if saver.attempts != 3 {
		t.Errorf("attempts = %d, want 3", saver.attempts)
	}
}

func TestMirrorUpdates_SkipsPermanentErrors(t *testing.T) {
	saver := &fakeSaver{errs: []error{status.Error(codes.PermissionDenied, "no")}}
	updates := make(chan listing.Snapshot, 2)
	updates <- listing.Snapshot{Version: 1}
	updates <- listing.Snapshot{Version: 2}
	close(updates)

	MirrorUpdates(context.Background(), updates, saver, time.Millisecond)

	if saver.attempts != 2 {
		t.Errorf("permanent error should not be retried: attempts = %d, want 2", saver.attempts)
	}
	if len(saver.saved) != 1 || saver.saved[0] != 2 {
		t.Errorf("saved versions = %v, want [2]", saver.saved)
	}
}

func TestMirrorUpdates_StopsOnContextDone(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		MirrorUpdates(ctx, make(chan listing.Snapshot), &fakeSaver{}, time.Millisecond)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("MirrorUpdates did not return after cancel")
	}
}

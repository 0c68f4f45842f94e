package maintenance

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type fakeCleanups struct {
	mu       sync.Mutex
	calls    map[string]int
	failures map[string]error
}

func newFakeCleanups() *fakeCleanups {
	return &fakeCleanups{calls: map[string]int{}, failures: map[string]error{}}
}

func (f *fakeCleanups) record(name string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[name]++
	if err := f.failures[name]; err != nil {
		return 0, err
	}
	return 3, nil
}

func (f *fakeCleanups) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeCleanups) CleanupExpired(ctx context.Context, _ time.Duration) (int64, error) {
	return f.record("expired")
}

func (f *fakeCleanups) CleanupOldRevoked(ctx context.Context, _ time.Duration) (int64, error) {
	return f.record("revoked")
}

func (f *fakeCleanups) CleanupOldAttempts(ctx context.Context, _ time.Duration) (int64, error) {
	return f.record("attempts")
}

func (f *fakeCleanups) CleanupExpiredLocks(ctx context.Context) (int64, error) {
	return f.record("locks")
}

type fakeBlacklistCleanup struct{ f *fakeCleanups }

func (b fakeBlacklistCleanup) CleanupExpired(ctx context.Context) (int64, error) {
	return b.f.record("blacklist")
}

func TestSweep_RunsEveryStep(t *testing.T) {
	f := newFakeCleanups()
	s := NewSweeper(f, fakeBlacklistCleanup{f}, f, time.Hour, 30*24*time.Hour, 90*24*time.Hour)

	s.Sweep(context.Background())

	for _, step := range []string{"expired", "revoked", "blacklist", "attempts", "locks"} {
		if f.count(step) != 1 {
			t.Errorf("step %s ran %d times, want 1", step, f.count(step))
		}
	}
}

func TestSweep_FailingStepDoesNotStopOthers(t *testing.T) {
	f := newFakeCleanups()
	f.failures["revoked"] = errors.New("db gone")
	s := NewSweeper(f, fakeBlacklistCleanup{f}, f, time.Hour, time.Hour, time.Hour)

	s.Sweep(context.Background())

	for _, step := range []string{"expired", "blacklist", "attempts", "locks"} {
		if f.count(step) != 1 {
			t.Errorf("step %s ran %d times, want 1", step, f.count(step))
		}
	}
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	f := newFakeCleanups()
	s := NewSweeper(f, fakeBlacklistCleanup{f}, f, 10*time.Millisecond, time.Hour, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	// Let the immediate sweep plus at least one tick happen.
	time.Sleep(35 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after cancel")
	}
	if f.count("expired") < 2 {
		t.Errorf("expected at least 2 sweeps, got %d", f.count("expired"))
	}
}

package sequence_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/your-org/forms-backend/internal/domain/sequence"
	"github.com/your-org/forms-backend/internal/infrastructure/memory"
)

func TestAllocateSequential(t *testing.T) {
	svc := sequence.NewService(memory.New(), sequence.Config{MaxRetries: 3}, nil)
	ctx := context.Background()

	for _, want := range []string{"ORD-2024-0001", "ORD-2024-0002", "ORD-2024-0003"} {
		got, err := svc.Allocate(ctx, "ORD", 2024)
		if err != nil {
			t.Fatalf("Allocate() error = %v", err)
		}
		if got != want {
			t.Fatalf("Allocate() = %q, want %q", got, want)
		}
	}
}

func TestAllocateKeysAreIndependent(t *testing.T) {
	svc := sequence.NewService(memory.New(), sequence.Config{MaxRetries: 3}, nil)
	ctx := context.Background()

	mustAllocate(t, svc, "ORD", 2024)
	mustAllocate(t, svc, "ORD", 2024)
	if got := mustAllocate(t, svc, "ORD", 2025); got != "ORD-2025-0001" {
		t.Fatalf("new year got %q", got)
	}
	if got := mustAllocate(t, svc, "INV", 2024); got != "INV-2024-0001" {
		t.Fatalf("new prefix got %q", got)
	}
	if _, err := svc.Allocate(ctx, "ORD", 2024); err != nil {
		t.Fatal(err)
	}
}

func TestAllocateConcurrentIsUnique(t *testing.T) {
	store := memory.New()
	svc := sequence.NewService(store, sequence.Config{MaxRetries: 3}, nil)

	const n = 200
	var wg sync.WaitGroup
	results := make(chan string, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			num, err := svc.Allocate(context.Background(), "QC", 2024)
			if err != nil {
				t.Errorf("Allocate() error = %v", err)
				return
			}
			results <- num
		}()
	}
	wg.Wait()
	close(results)

	seen := make(map[string]bool, n)
	for num := range results {
		if seen[num] {
			t.Fatalf("duplicate number %s", num)
		}
		seen[num] = true
	}
	if len(seen) != n {
		t.Fatalf("got %d numbers, want %d", len(seen), n)
	}
	for i := int64(1); i <= n; i++ {
		if !seen[sequence.Format("QC", 2024, i)] {
			t.Fatalf("missing %s", sequence.Format("QC", 2024, i))
		}
	}
	if got := store.Counter(sequence.Key{Prefix: "QC", Year: 2024}); got != n {
		t.Fatalf("counter = %d, want %d", got, n)
	}
}

func TestAllocateInvalidPrefix(t *testing.T) {
	svc := sequence.NewService(memory.New(), sequence.Config{MaxRetries: 3}, nil)
	for _, prefix := range []string{"", "ord", "XYZ", "ORDER"} {
		if _, err := svc.Allocate(context.Background(), prefix, 2024); !errors.Is(err, sequence.ErrInvalidPrefix) {
			t.Fatalf("prefix %q: err = %v, want ErrInvalidPrefix", prefix, err)
		}
	}
}

func TestFormatWidensPastFourDigits(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{1, "ORD-2024-0001"},
		{9999, "ORD-2024-9999"},
		{10000, "ORD-2024-10000"},
		{123456, "ORD-2024-123456"},
	}
	for _, tt := range tests {
		if got := sequence.Format("ORD", 2024, tt.n); got != tt.want {
			t.Fatalf("Format(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestNextUsesClockYear(t *testing.T) {
	svc := sequence.NewService(memory.New(), sequence.Config{MaxRetries: 1}, nil).
		WithClock(func() time.Time { return time.Date(2031, 3, 1, 0, 0, 0, 0, time.UTC) })
	got, err := svc.Next(context.Background(), "INW")
	if err != nil {
		t.Fatal(err)
	}
	if got != "INW-2031-0001" {
		t.Fatalf("Next() = %q", got)
	}
}

// flakyStore fails with ErrConflict a fixed number of times before succeeding
type flakyStore struct {
	mu        sync.Mutex
	failures  int
	calls     int
	value     int64
	permanent error
}

func (f *flakyStore) Increment(ctx context.Context, key sequence.Key) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.permanent != nil {
		return 0, f.permanent
	}
	if f.failures > 0 {
		f.failures--
		return 0, sequence.ErrConflict
	}
	f.value++
	return f.value, nil
}

func TestAllocateRetriesOnConflict(t *testing.T) {
	store := &flakyStore{failures: 2}
	svc := sequence.NewService(store, sequence.Config{MaxRetries: 3, RetryBackoff: time.Millisecond}, nil)

	got, err := svc.Allocate(context.Background(), "CHK", 2024)
	if err != nil {
		t.Fatalf("Allocate() error = %v", err)
	}
	if got != "CHK-2024-0001" {
		t.Fatalf("Allocate() = %q", got)
	}
	if store.calls != 3 {
		t.Fatalf("calls = %d, want 3", store.calls)
	}
}

func TestAllocateGivesUpAfterMaxRetries(t *testing.T) {
	store := &flakyStore{failures: 10}
	svc := sequence.NewService(store, sequence.Config{MaxRetries: 4, RetryBackoff: time.Millisecond}, nil)

	_, err := svc.Allocate(context.Background(), "CHK", 2024)
	if !errors.Is(err, sequence.ErrAllocationConflict) {
		t.Fatalf("err = %v, want ErrAllocationConflict", err)
	}
	if store.calls != 4 {
		t.Fatalf("calls = %d, want 4", store.calls)
	}
}

func TestAllocateDoesNotRetryOtherErrors(t *testing.T) {
	boom := errors.New("connection refused")
	store := &flakyStore{permanent: boom}
	svc := sequence.NewService(store, sequence.Config{MaxRetries: 5}, nil)

	_, err := svc.Allocate(context.Background(), "INS", 2024)
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want wrapped store error", err)
	}
	if store.calls != 1 {
		t.Fatalf("calls = %d, want 1", store.calls)
	}
}

func TestAllocateStopsOnCancelledContext(t *testing.T) {
	store := &flakyStore{failures: 10}
	svc := sequence.NewService(store, sequence.Config{MaxRetries: 10, RetryBackoff: time.Hour}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := svc.Allocate(ctx, "DRW", 2024); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func mustAllocate(t *testing.T, svc *sequence.Service, prefix string, year int) string {
	t.Helper()
	n, err := svc.Allocate(context.Background(), prefix, year)
	if err != nil {
		t.Fatalf("Allocate(%s, %d) error = %v", prefix, year, err)
	}
	return n
}

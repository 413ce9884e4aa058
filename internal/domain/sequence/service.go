package sequence

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"
)

// Document prefixes
const (
	PrefixOrder           = "ORD"
	PrefixInvoice         = "INV"
	PrefixDrawing         = "DRW"
	PrefixQualityCheck    = "QC"
	PrefixSupervisorCheck = "CHK"
	PrefixInspection      = "INS"
	PrefixInward          = "INW"
	PrefixOutward         = "OUT"
)

var validPrefixes = map[string]bool{
	PrefixOrder:           true,
	PrefixInvoice:         true,
	PrefixDrawing:         true,
	PrefixQualityCheck:    true,
	PrefixSupervisorCheck: true,
	PrefixInspection:      true,
	PrefixInward:          true,
	PrefixOutward:         true,
}

var (
	// ErrInvalidPrefix is returned for unknown document prefixes. It is never retried.
	ErrInvalidPrefix = errors.New("invalid document prefix")
	// ErrAllocationConflict means the counter stayed contended for every
	// attempt; the caller may retry the whole operation.
	ErrAllocationConflict = errors.New("document number allocation conflict")
	// ErrConflict is returned by a CounterStore for transient contention.
	ErrConflict = errors.New("counter update conflict")
)

// Key identifies one counter
type Key struct {
	Prefix string
	Year   int
}

func (k Key) String() string {
	return fmt.Sprintf("%s:%d", k.Prefix, k.Year)
}

// CounterStore atomically increments the counter for key, creating it at zero
// first if needed, and returns the new value once it is durable.
type CounterStore interface {
	Increment(ctx context.Context, key Key) (int64, error)
}

// Config controls retries on ErrConflict
type Config struct {
	MaxRetries   int
	RetryBackoff time.Duration
}

// Service allocates document numbers
type Service struct {
	store  CounterStore
	config Config
	logger *logrus.Logger
	now    func() time.Time
}

// NewService creates a new sequence service
func NewService(store CounterStore, config Config, logger *logrus.Logger) *Service {
	if config.MaxRetries < 1 {
		config.MaxRetries = 1
	}
	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(io.Discard)
	}
	return &Service{
		store:  store,
		config: config,
		logger: logger,
		now:    time.Now,
	}
}

// WithClock replaces the clock used by Next
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// ValidPrefix reports whether prefix is a known document prefix
func ValidPrefix(prefix string) bool {
	return validPrefixes[prefix]
}

// Format renders a document number. Sequences past 9999 widen instead of wrapping.
func Format(prefix string, year int, n int64) string {
	return fmt.Sprintf("%s-%04d-%04d", prefix, year, n)
}

// Next allocates a number for prefix in the current year
func (s *Service) Next(ctx context.Context, prefix string) (string, error) {
	return s.Allocate(ctx, prefix, s.now().Year())
}

// Allocate returns the next number for (prefix, year)
func (s *Service) Allocate(ctx context.Context, prefix string, year int) (string, error) {
	if !ValidPrefix(prefix) {
		return "", fmt.Errorf("%w: %q", ErrInvalidPrefix, prefix)
	}

	key := Key{Prefix: prefix, Year: year}
	for attempt := 1; attempt <= s.config.MaxRetries; attempt++ {
		n, err := s.store.Increment(ctx, key)
		if err == nil {
			return Format(prefix, year, n), nil
		}
		if !errors.Is(err, ErrConflict) {
			return "", fmt.Errorf("failed to allocate %s number: %w", key, err)
		}

		s.logger.WithFields(logrus.Fields{
			"counter": key.String(),
			"attempt": attempt,
		}).Warn("Counter contention, retrying")

		if attempt == s.config.MaxRetries {
			break
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(time.Duration(attempt) * s.config.RetryBackoff):
		}
	}

	return "", fmt.Errorf("%w: %s after %d attempts", ErrAllocationConflict, key, s.config.MaxRetries)
}

package sol

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
)

// ErrSeedExhausted is returned when no unreserved seed could be found.
var ErrSeedExhausted = errors.New("no free stake seed")

// SeedSource hands out seeds for stake account derivation.
type SeedSource interface {
	NextSeed(ctx context.Context, base solana.PublicKey) (string, error)
}

// SeedReleaser is implemented by sources that can return an unused seed.
type SeedReleaser interface {
	ReleaseSeed(ctx context.Context, base solana.PublicKey, seed string) error
}

// TimestampSeeds issues millisecond timestamps, bumped so that one process
// never repeats a value. Uniqueness across processes is best effort.
type TimestampSeeds struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
}

// NewTimestampSeeds creates a seed source backed by the wall clock.
func NewTimestampSeeds() *TimestampSeeds {
	return &TimestampSeeds{now: time.Now}
}

func (s *TimestampSeeds) NextSeed(_ context.Context, _ solana.PublicKey) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ms := s.now().UnixMilli()
	if ms <= s.last {
		ms = s.last + 1
	}
	s.last = ms
	return strconv.FormatInt(ms, 10), nil
}

// SeedReserver is the storage side of ReservedSeeds.
type SeedReserver interface {
	ReserveSeed(ctx context.Context, base, seed string, ttl time.Duration) (bool, error)
	ReleaseSeed(ctx context.Context, base, seed string) error
}

// ReservedSeeds claims each candidate seed in a shared store so two
// processes never build for the same stake account.
type ReservedSeeds struct {
	next     SeedSource
	store    SeedReserver
	ttl      time.Duration
	attempts int
}

// NewReservedSeeds wraps next with reservation in store.
func NewReservedSeeds(next SeedSource, store SeedReserver, ttl time.Duration) *ReservedSeeds {
	return &ReservedSeeds{next: next, store: store, ttl: ttl, attempts: 5}
}

func (s *ReservedSeeds) NextSeed(ctx context.Context, base solana.PublicKey) (string, error) {
	for i := 0; i < s.attempts; i++ {
		seed, err := s.next.NextSeed(ctx, base)
		if err != nil {
			return "", err
		}

		ok, err := s.store.ReserveSeed(ctx, base.String(), seed, s.ttl)
		if err != nil {
			return "", fmt.Errorf("reserve seed: %w", err)
		}
		if ok {
			return seed, nil
		}
	}
	return "", fmt.Errorf("%w after %d attempts for %s", ErrSeedExhausted, s.attempts, base)
}

func (s *ReservedSeeds) ReleaseSeed(ctx context.Context, base solana.PublicKey, seed string) error {
	return s.store.ReleaseSeed(ctx, base.String(), seed)
}

package security

import (
	"context"
	"errors"
	"runtime"
	"time"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/semaphore"
)

var ErrPasswordTooLong = bcrypt.ErrPasswordTooLong

// Hasher bcrypt-hashes passwords with a fixed cost. Hashing is deliberately slow,
// so at most maxConcurrent hashes run at once and waiters honour ctx.
type Hasher struct {
	cost    int
	sem     *semaphore.Weighted
	observe func(time.Duration)
}

func NewHasher(cost, maxConcurrent int) *Hasher {
	if cost < bcrypt.MinCost {
		cost = bcrypt.MinCost
	}
	if cost > bcrypt.MaxCost {
		cost = bcrypt.MaxCost
	}
	if maxConcurrent <= 0 {
		maxConcurrent = runtime.GOMAXPROCS(0)
	}

	return &Hasher{
		cost: cost,
		sem:  semaphore.NewWeighted(int64(maxConcurrent)),
	}
}

// WithObserver reports the duration of every successful hash, e.g. to a histogram.
func (h *Hasher) WithObserver(fn func(time.Duration)) *Hasher {
	h.observe = fn
	return h
}

func (h *Hasher) Cost() int {
	return h.cost
}

// Hash password hashes a plain text password with bcrypt.
func (h *Hasher) Hash(ctx context.Context, plain string) (string, error) {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer h.sem.Release(1)

	start := time.Now()
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), h.cost)

	if err != nil {
		return "", err
	}

	if h.observe != nil {
		h.observe(time.Since(start))
	}

	return string(hash), nil
}

// Compare checks plain against a stored hash in constant time.
func (h *Hasher) Compare(hash, plain string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
}

// NeedsRehash reports whether hash was produced with a different cost.
func (h *Hasher) NeedsRehash(hash string) bool {
	cost, err := bcrypt.Cost([]byte(hash))
	if err != nil {
		return true
	}
	return cost != h.cost
}

func IsMismatch(err error) bool {
	return errors.Is(err, bcrypt.ErrMismatchedHashAndPassword)
}

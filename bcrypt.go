package auth

import (
	"context"
	"errors"
	"runtime"
	"sync"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/semaphore"
)

// ErrMismatchedHashAndPassword is returned by ComparePasswordAndHash when the
// password does not match.
var ErrMismatchedHashAndPassword = ErrInvalidCredentials

// PasswordHasherOption configures a PasswordHasher
type PasswordHasherOption func(*PasswordHasher)

// WithPasswordCost sets the bcrypt work factor
func WithPasswordCost(cost int) PasswordHasherOption {
	return func(h *PasswordHasher) {
		if cost >= bcrypt.MinCost && cost <= bcrypt.MaxCost {
			h.cost = cost
		}
	}
}

// WithHashConcurrency caps how many hash or verify calls run at once
func WithHashConcurrency(n int) PasswordHasherOption {
	return func(h *PasswordHasher) {
		if n > 0 {
			h.slots = semaphore.NewWeighted(int64(n))
		}
	}
}

// PasswordHasher hashes and verifies passwords with bcrypt. Both operations
// are CPU bound and share a bounded pool of slots, acquiring a slot honours
// the caller's context.
type PasswordHasher struct {
	cost  int
	slots *semaphore.Weighted

	decoyOnce sync.Once
	decoy     string
}

// NewPasswordHasher returns a hasher using the default cost and one slot
// per available CPU.
func NewPasswordHasher(opts ...PasswordHasherOption) *PasswordHasher {
	h := &PasswordHasher{
		cost:  passwordHashCost(),
		slots: semaphore.NewWeighted(int64(runtime.GOMAXPROCS(0))),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

// Cost returns the configured bcrypt cost
func (h *PasswordHasher) Cost() int {
	return h.cost
}

// Hash returns a salted bcrypt hash. Hashing the same password twice gives
// different results.
func (h *PasswordHasher) Hash(ctx context.Context, password string) (string, error) {
	if password == "" {
		return "", ErrEmptyCredential
	}

	if err := h.slots.Acquire(ctx, 1); err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryOperation, "password hashing cancelled")
	}
	defer h.slots.Release(1)

	out, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
	}
	return string(out), nil
}

// Verify reports whether password matches hash. A malformed hash, an empty
// password or a cancelled context all report false.
func (h *PasswordHasher) Verify(ctx context.Context, password, hash string) bool {
	if password == "" || hash == "" {
		return false
	}

	if err := h.slots.Acquire(ctx, 1); err != nil {
		return false
	}
	defer h.slots.Release(1)

	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// DecoyHash returns a hash of a random secret at the hasher's cost. It is
// created once per hasher.
func (h *PasswordHasher) DecoyHash() string {
	h.decoyOnce.Do(func() {
		out, err := bcrypt.GenerateFromPassword([]byte(uuid.NewString()), h.cost)
		if err == nil {
			h.decoy = string(out)
		}
	})
	return h.decoy
}

// VerifyAbsent does the work of Verify for an account that does not exist,
// so a lookup miss costs the same as a wrong password. It always reports
// false.
func (h *PasswordHasher) VerifyAbsent(ctx context.Context, password string) bool {
	h.Verify(ctx, password, h.DecoyHash())
	return false
}

// HashPassword will generate a password hash
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyCredential
	}

	h, err := bcrypt.GenerateFromPassword([]byte(password), passwordHashCost())
	return string(h), err
}

// ComparePasswordAndHash will validate the given cleartext
// password matches the hashed password
func ComparePasswordAndHash(password, hash string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrMismatchedHashAndPassword
		}
		return err
	}
	return nil
}

// RandomPasswordHash is a temporary password
func RandomPasswordHash() string {
	pwd := uuid.New()

	h, err := HashPassword(pwd.String())
	if err != nil {
		return RandomPasswordHash()
	}

	return h
}

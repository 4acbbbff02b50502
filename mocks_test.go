package auth_test

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	auth "github.com/goliatone/go-mediaauth"
)

// MockUsers implements auth.UserRepository
type MockUsers struct {
	mock.Mock
}

func (m *MockUsers) FindByEmail(ctx context.Context, email string) (auth.UserRecord, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(auth.UserRecord), args.Error(1)
}

func (m *MockUsers) MarkConfirmed(ctx context.Context, email string) error {
	args := m.Called(ctx, email)
	return args.Error(0)
}

func (m *MockUsers) Insert(ctx context.Context, email, passwordHash string) (auth.UserRecord, error) {
	args := m.Called(ctx, email, passwordHash)
	return args.Get(0).(auth.UserRecord), args.Error(1)
}

// MockAuthenticator implements auth.Authenticator
type MockAuthenticator struct {
	mock.Mock
}

func (m *MockAuthenticator) Authenticate(ctx context.Context, email, password string) (auth.UserRecord, error) {
	args := m.Called(ctx, email, password)
	return args.Get(0).(auth.UserRecord), args.Error(1)
}

func (m *MockAuthenticator) Login(ctx context.Context, email, password string) (string, error) {
	args := m.Called(ctx, email, password)
	return args.String(0), args.Error(1)
}

func (m *MockAuthenticator) IdentifyFromAccessToken(ctx context.Context, token string) (auth.UserRecord, error) {
	args := m.Called(ctx, token)
	return args.Get(0).(auth.UserRecord), args.Error(1)
}

func (m *MockAuthenticator) ConfirmFromToken(ctx context.Context, token string) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *MockAuthenticator) Register(ctx context.Context, email, password string) (auth.UserRecord, string, error) {
	args := m.Called(ctx, email, password)
	return args.Get(0).(auth.UserRecord), args.String(1), args.Error(2)
}

// MockLogger implements auth.Logger
type MockLogger struct {
	mock.Mock
}

func (m *MockLogger) Debug(format string, args ...any) { m.Called(format, args) }
func (m *MockLogger) Info(format string, args ...any)  { m.Called(format, args) }
func (m *MockLogger) Warn(format string, args ...any)  { m.Called(format, args) }
func (m *MockLogger) Error(format string, args ...any) { m.Called(format, args) }

type capturingSink struct {
	mu     sync.Mutex
	events []auth.ActivityEvent
}

func (c *capturingSink) Record(ctx context.Context, evt auth.ActivityEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, evt)
	return nil
}

func (c *capturingSink) Events() []auth.ActivityEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]auth.ActivityEvent(nil), c.events...)
}

// memoryUsers is a concurrency safe in-memory user store
type memoryUsers struct {
	mu    sync.Mutex
	users map[string]auth.UserRecord
}

func newMemoryUsers() *memoryUsers {
	return &memoryUsers{users: map[string]auth.UserRecord{}}
}

func (m *memoryUsers) FindByEmail(ctx context.Context, email string) (auth.UserRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[email]
	if !ok {
		return auth.UserRecord{}, auth.ErrUserNotFound
	}
	return u, nil
}

func (m *memoryUsers) MarkConfirmed(ctx context.Context, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[email]
	if !ok {
		return auth.ErrUserNotFound
	}
	u.Confirmed = true
	m.users[email] = u
	return nil
}

func (m *memoryUsers) Insert(ctx context.Context, email, passwordHash string) (auth.UserRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[email]; ok {
		return auth.UserRecord{}, auth.ErrUserExists
	}
	u := auth.UserRecord{ID: newID(), Email: email, PasswordHash: passwordHash}
	m.users[email] = u
	return u, nil
}

func (m *memoryUsers) delete(email string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.users, email)
}

const testSecret = "test-secret-key-with-enough-entropy"

func testSigning() *auth.SigningContext {
	return auth.MustSigningContext(testSecret, "HS256")
}

func testHasher() *auth.PasswordHasher {
	return auth.NewPasswordHasher(auth.WithPasswordCost(4))
}

package auth

import (
	"context"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// UserRepository is the storage the credential core depends on. Unknown
// emails are reported with ErrUserNotFound.
type UserRepository interface {
	FindByEmail(ctx context.Context, email string) (UserRecord, error)
	MarkConfirmed(ctx context.Context, email string) error
	Insert(ctx context.Context, email, passwordHash string) (UserRecord, error)
}

// Users is the bun backed user repository
type Users interface {
	repository.Repository[*User]
	UserRepository

	FindByEmailTx(ctx context.Context, tx bun.IDB, email string) (UserRecord, error)
	MarkConfirmedTx(ctx context.Context, tx bun.IDB, email string) error
	InsertTx(ctx context.Context, tx bun.IDB, email, passwordHash string) (UserRecord, error)
}

type users struct {
	repository.Repository[*User]
	db    *bun.DB
	newID func(email string) uuid.UUID
	clock func() time.Time
}

var (
	_ Users                        = (*users)(nil)
	_ UserRepository               = (*users)(nil)
	_ repository.Repository[*User] = (*users)(nil)
)

type UsersOption func(*users)

// WithHashidUserIDs derives user IDs from the email so the same address
// always maps to the same ID across environments.
func WithHashidUserIDs() UsersOption {
	return func(u *users) {
		u.newID = func(email string) uuid.UUID {
			if id, err := hashid.NewUUID(email); err == nil {
				return id
			}
			return uuid.New()
		}
	}
}

// WithUsersClock sets the clock used for updated_at
func WithUsersClock(now func() time.Time) UsersOption {
	return func(u *users) {
		if now != nil {
			u.clock = now
		}
	}
}

func NewUsersRepository(db *bun.DB, opts ...UsersOption) Users {
	repo := repository.NewRepository[*User](db, repository.ModelHandlers[*User]{
		NewRecord: func() *User { return &User{} },
		GetID: func(u *User) uuid.UUID {
			if u == nil {
				return uuid.Nil
			}
			return u.ID
		},
		SetID: func(u *User, id uuid.UUID) {
			if u != nil {
				u.ID = id
			}
		},
		GetIdentifier: func() string {
			return "email"
		},
	})

	repoUsers := &users{
		Repository: repo,
		db:         db,
		newID:      func(string) uuid.UUID { return uuid.New() },
		clock:      time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(repoUsers)
		}
	}

	return repoUsers
}

func (a *users) FindByEmail(ctx context.Context, email string) (UserRecord, error) {
	return a.FindByEmailTx(ctx, a.db, email)
}

func (a *users) FindByEmailTx(ctx context.Context, tx bun.IDB, email string) (UserRecord, error) {
	record := &User{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.email = ?", email).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return UserRecord{}, userNotFound(email)
		}
		return UserRecord{}, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to find user")
	}

	return record.ToRecord(), nil
}

func (a *users) MarkConfirmed(ctx context.Context, email string) error {
	return a.MarkConfirmedTx(ctx, a.db, email)
}

// MarkConfirmedTx is idempotent, confirming a confirmed user succeeds.
func (a *users) MarkConfirmedTx(ctx context.Context, tx bun.IDB, email string) error {
	res, err := tx.NewUpdate().
		Model((*User)(nil)).
		Set("confirmed = ?", true).
		Set("updated_at = ?", a.clock()).
		Where("email = ?", email).
		Exec(ctx)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to confirm user")
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return userNotFound(email)
	}

	return nil
}

func (a *users) Insert(ctx context.Context, email, passwordHash string) (UserRecord, error) {
	return a.InsertTx(ctx, a.db, email, passwordHash)
}

func (a *users) InsertTx(ctx context.Context, tx bun.IDB, email, passwordHash string) (UserRecord, error) {
	if email == "" || passwordHash == "" {
		return UserRecord{}, ErrEmptyCredential
	}

	now := a.clock()
	record := &User{
		ID:           a.newID(email),
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    &now,
		UpdatedAt:    &now,
	}

	created, err := a.Repository.CreateTx(ctx, tx, record)
	if err != nil {
		if isUniqueViolation(err) {
			return UserRecord{}, withMetadata(ErrUserExists, map[string]any{"email": email})
		}
		return UserRecord{}, goerrors.Wrap(err, goerrors.CategoryInternal, "could not create user")
	}

	return created.ToRecord(), nil
}

func userNotFound(email string) error {
	return withMetadata(ErrUserNotFound, map[string]any{"email": email})
}

// IsUserNotFound reports whether err means the repository has no such user
func IsUserNotFound(err error) bool {
	return ErrorKind(err) == TextCodeUserNotFound || repository.IsRecordNotFound(err)
}

func isUniqueViolation(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") || strings.Contains(msg, "duplicate key")
}

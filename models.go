package auth

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is the user model
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Email         string     `bun:"email,notnull,unique" json:"email,omitempty"`
	PasswordHash  string     `bun:"password_hash,notnull" json:"-"`
	Confirmed     bool       `bun:"confirmed,notnull" json:"confirmed"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// ToRecord returns an immutable snapshot of the model
func (u *User) ToRecord() UserRecord {
	if u == nil {
		return UserRecord{}
	}
	rec := UserRecord{
		ID:           u.ID,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Confirmed:    u.Confirmed,
	}
	if u.CreatedAt != nil {
		rec.CreatedAt = *u.CreatedAt
	}
	return rec
}

// UserRecord is what the credential core sees of a user. It is a value,
// changing a copy never changes what is stored.
type UserRecord struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Confirmed    bool      `json:"confirmed"`
	CreatedAt    time.Time `json:"created_at,omitempty"`
}

// IsZero reports whether r is the empty record
func (r UserRecord) IsZero() bool {
	return r.Email == "" && r.ID == uuid.Nil
}

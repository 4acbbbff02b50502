package auth

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenPurpose tags a token with what it may be used for. A token minted
// for one purpose never validates for another. The zero value is invalid.
type TokenPurpose int

const (
	PurposeAccess TokenPurpose = iota + 1
	PurposeConfirmation
)

const (
	purposeAccessName       = "access"
	purposeConfirmationName = "confirmation"
)

func (p TokenPurpose) String() string {
	switch p {
	case PurposeAccess:
		return purposeAccessName
	case PurposeConfirmation:
		return purposeConfirmationName
	default:
		return "unknown"
	}
}

// Valid reports whether p is one of the known purposes
func (p TokenPurpose) Valid() bool {
	return p == PurposeAccess || p == PurposeConfirmation
}

// ParseTokenPurpose maps the wire name of a purpose back to its value
func ParseTokenPurpose(s string) (TokenPurpose, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case purposeAccessName:
		return PurposeAccess, true
	case purposeConfirmationName:
		return PurposeConfirmation, true
	default:
		return 0, false
	}
}

// TokenClaims is the result of a successful validation
type TokenClaims struct {
	Subject   string
	Purpose   TokenPurpose
	ID        string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// wireClaims is what actually goes inside the JWS payload
type wireClaims struct {
	jwt.RegisteredClaims
	Type string `json:"type,omitempty"`
}

func (c wireClaims) toTokenClaims(purpose TokenPurpose) TokenClaims {
	out := TokenClaims{
		Subject: c.Subject,
		Purpose: purpose,
		ID:      c.ID,
	}
	if c.IssuedAt != nil {
		out.IssuedAt = c.IssuedAt.Time
	}
	if c.ExpiresAt != nil {
		out.ExpiresAt = c.ExpiresAt.Time
	}
	return out
}

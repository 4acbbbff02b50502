package auth

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

const (
	// DefaultAccessTokenTTL is how long an access token is valid
	DefaultAccessTokenTTL = 30 * time.Minute
	// DefaultConfirmationTokenTTL is how long a confirmation link is valid
	DefaultConfirmationTokenTTL = 1440 * time.Minute
)

// TokenServiceOption configures a TokenService
type TokenServiceOption func(*TokenService)

// WithAccessTokenTTL overrides the access token lifetime. Zero keeps the
// default, negative values mint tokens that are already expired.
func WithAccessTokenTTL(ttl time.Duration) TokenServiceOption {
	return func(ts *TokenService) {
		if ttl != 0 {
			ts.ttls[PurposeAccess] = ttl
		}
	}
}

// WithConfirmationTokenTTL overrides the confirmation token lifetime
func WithConfirmationTokenTTL(ttl time.Duration) TokenServiceOption {
	return func(ts *TokenService) {
		if ttl != 0 {
			ts.ttls[PurposeConfirmation] = ttl
		}
	}
}

// WithTokenClock sets the time source used for issuing and expiry checks
func WithTokenClock(now func() time.Time) TokenServiceOption {
	return func(ts *TokenService) {
		if now != nil {
			ts.now = now
		}
	}
}

// WithTokenLogger sets the logger
func WithTokenLogger(logger Logger) TokenServiceOption {
	return func(ts *TokenService) {
		if logger != nil {
			ts.logger = logger
		}
	}
}

// TokenService issues and validates purpose bound tokens. It keeps no
// per-call state, so a single instance serves all requests.
type TokenService struct {
	signing *SigningContext
	ttls    map[TokenPurpose]time.Duration
	now     func() time.Time
	logger  Logger
	parser  *jwt.Parser
}

// NewTokenService creates a new TokenService instance
func NewTokenService(signing *SigningContext, opts ...TokenServiceOption) *TokenService {
	if signing == nil {
		panic("AUTH: token service requires a signing context")
	}

	ts := &TokenService{
		signing: signing,
		ttls: map[TokenPurpose]time.Duration{
			PurposeAccess:       DefaultAccessTokenTTL,
			PurposeConfirmation: DefaultConfirmationTokenTTL,
		},
		now:    time.Now,
		logger: defLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(ts)
		}
	}

	// claims are checked by hand so the order of failures is fixed
	ts.parser = jwt.NewParser(
		jwt.WithValidMethods([]string{signing.Algorithm()}),
		jwt.WithoutClaimsValidation(),
		jwt.WithStrictDecoding(),
	)

	return ts
}

// TTL returns the lifetime used for purpose when Issue gets a zero ttl
func (ts *TokenService) TTL(purpose TokenPurpose) time.Duration {
	return ts.ttls[purpose]
}

// Issue signs a token for subject. A zero ttl uses the purpose policy.
func (ts *TokenService) Issue(subject string, purpose TokenPurpose, ttl time.Duration) (string, error) {
	if strings.TrimSpace(subject) == "" {
		return "", ErrEmptyCredential
	}

	if !purpose.Valid() {
		return "", goerrors.New("unknown token purpose", goerrors.CategoryBadInput).
			WithCode(goerrors.CodeBadRequest).
			WithMetadata(map[string]any{"purpose": int(purpose)})
	}

	if ttl == 0 {
		ttl = ts.TTL(purpose)
	}

	now := ts.now()
	claims := &wireClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
		Type: purpose.String(),
	}

	return ts.signing.sign(claims)
}

// Validate checks a token in a fixed order: signature and structure first,
// then expiry, subject and purpose. A forged token is always reported as
// invalid even when it also looks expired.
func (ts *TokenService) Validate(tokenString string, expected TokenPurpose) (TokenClaims, error) {
	claims := &wireClaims{}

	token, err := ts.parser.ParseWithClaims(tokenString, claims, ts.signing.keyFunc)
	if err != nil || token == nil || !token.Valid {
		ts.logger.Debug("TokenService validate rejected token", "error", err)
		return TokenClaims{}, invalidTokenError(err)
	}

	if claims.ExpiresAt == nil {
		return TokenClaims{}, invalidTokenError(jwt.ErrTokenRequiredClaimMissing)
	}

	if !ts.now().Before(claims.ExpiresAt.Time) {
		return TokenClaims{}, ErrTokenExpired
	}

	if claims.Subject == "" {
		return TokenClaims{}, ErrMissingSubject
	}

	actual, ok := ParseTokenPurpose(claims.Type)
	if !ok || actual != expected {
		return TokenClaims{}, &WrongPurposeError{Expected: expected, Actual: claims.Type}
	}

	return claims.toTokenClaims(actual), nil
}

func invalidTokenError(cause error) error {
	if cause == nil {
		return ErrTokenInvalid
	}
	e := withMetadata(ErrTokenInvalid, map[string]any{"cause": cause.Error()})
	e.Source = cause
	return e
}

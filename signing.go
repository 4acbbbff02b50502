package auth

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"
)

var allowedSigningMethods = map[string]bool{
	jwt.SigningMethodHS256.Alg(): true,
	jwt.SigningMethodHS384.Alg(): true,
	jwt.SigningMethodHS512.Alg(): true,
}

// SigningContext holds the shared secret and the HMAC algorithm used to sign
// and verify tokens. It is immutable once built and safe to share between
// goroutines. The key never leaves the package.
type SigningContext struct {
	key    []byte
	method jwt.SigningMethod
}

// NewSigningContext validates the key and algorithm. Only symmetric HMAC
// algorithms are accepted.
func NewSigningContext(key, algorithm string) (*SigningContext, error) {
	if key == "" {
		return nil, goerrors.New("signing key is required", goerrors.CategoryBadInput).
			WithCode(goerrors.CodeInternal)
	}

	algorithm = strings.ToUpper(strings.TrimSpace(algorithm))
	if algorithm == "" {
		return nil, goerrors.New("signing algorithm is required", goerrors.CategoryBadInput).
			WithCode(goerrors.CodeInternal)
	}

	if !allowedSigningMethods[algorithm] {
		return nil, goerrors.New(fmt.Sprintf("unsupported signing algorithm %q", algorithm), goerrors.CategoryBadInput).
			WithCode(goerrors.CodeInternal).
			WithMetadata(map[string]any{"algorithm": algorithm})
	}

	method := jwt.GetSigningMethod(algorithm)
	if method == nil {
		return nil, goerrors.New(fmt.Sprintf("unknown signing algorithm %q", algorithm), goerrors.CategoryInternal)
	}

	return &SigningContext{
		key:    []byte(key),
		method: method,
	}, nil
}

// MustSigningContext is like NewSigningContext but panics, the process
// cannot serve tokens without a signing context.
func MustSigningContext(key, algorithm string) *SigningContext {
	sc, err := NewSigningContext(key, algorithm)
	if err != nil {
		panic("AUTH: " + err.Error())
	}
	return sc
}

// SigningContextFromConfig builds the context from the configured key and method.
func SigningContextFromConfig(cfg Config) (*SigningContext, error) {
	return NewSigningContext(cfg.GetSigningKey(), cfg.GetSigningMethod())
}

// Algorithm returns the JWT "alg" name, e.g. HS256.
func (s *SigningContext) Algorithm() string {
	return s.method.Alg()
}

// Method returns the jwt signing method.
func (s *SigningContext) Method() jwt.SigningMethod {
	return s.method
}

func (s *SigningContext) String() string {
	return fmt.Sprintf("SigningContext{alg: %s, key: [REDACTED]}", s.Algorithm())
}

// LogValue keeps the key out of structured logs.
func (s *SigningContext) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("alg", s.Algorithm()),
		slog.String("key", "[REDACTED]"),
	)
}

func (s *SigningContext) sign(claims jwt.Claims) (string, error) {
	token := jwt.NewWithClaims(s.method, claims)
	signed, err := token.SignedString(s.key)
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to sign JWT")
	}
	return signed, nil
}

func (s *SigningContext) keyFunc(t *jwt.Token) (any, error) {
	if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
	}
	return s.key, nil
}

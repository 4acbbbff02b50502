package auth

import (
	"fmt"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

// Text codes carried by every error the credential core returns.
// Callers branch on these instead of on messages.
const (
	TextCodeEmptyCredential    = "EMPTY_CREDENTIAL"
	TextCodeInvalidCredentials = "INVALID_CREDENTIALS"
	TextCodeUnconfirmedAccount = "UNCONFIRMED_ACCOUNT"
	TextCodeInvalidToken       = "INVALID_TOKEN"
	TextCodeExpiredToken       = "EXPIRED_TOKEN"
	TextCodeMissingSubject     = "MISSING_SUBJECT"
	TextCodeWrongPurpose       = "WRONG_TOKEN_PURPOSE"
	TextCodeUserVanished       = "USER_VANISHED"
	TextCodeUserExists         = "USER_EXISTS"
	TextCodeUserNotFound       = "USER_NOT_FOUND"
)

// ErrEmptyCredential is returned when an email, password or subject is blank.
var ErrEmptyCredential = goerrors.New("empty credential", goerrors.CategoryBadInput).
	WithTextCode(TextCodeEmptyCredential).
	WithCode(goerrors.CodeBadRequest)

// ErrInvalidCredentials is returned for unknown users and wrong passwords alike,
// so a caller cannot tell which emails are registered.
var ErrInvalidCredentials = goerrors.New("invalid user or password", goerrors.CategoryAuth).
	WithTextCode(TextCodeInvalidCredentials).
	WithCode(goerrors.CodeUnauthorized)

// ErrUnconfirmedAccount is returned when the password matched but the email
// was never confirmed.
var ErrUnconfirmedAccount = goerrors.New("the user has not confirmed the email", goerrors.CategoryAuth).
	WithTextCode(TextCodeUnconfirmedAccount).
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenInvalid covers bad signatures, broken structure and disallowed algorithms.
var ErrTokenInvalid = goerrors.New("could not validate credentials", goerrors.CategoryAuth).
	WithTextCode(TextCodeInvalidToken).
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenMalformed is kept as an alias of ErrTokenInvalid for callers of the
// older helper names.
var ErrTokenMalformed = ErrTokenInvalid

// ErrTokenExpired is returned for authentic tokens past their expiry.
var ErrTokenExpired = goerrors.New("expired token", goerrors.CategoryAuth).
	WithTextCode(TextCodeExpiredToken).
	WithCode(goerrors.CodeUnauthorized)

// ErrMissingSubject is returned for authentic tokens without a subject.
var ErrMissingSubject = goerrors.New("token is missing subject", goerrors.CategoryAuth).
	WithTextCode(TextCodeMissingSubject).
	WithCode(goerrors.CodeUnauthorized)

// ErrWrongPurpose is returned when a token was minted for another purpose.
// The concrete error is a *WrongPurposeError.
var ErrWrongPurpose = goerrors.New("invalid token type", goerrors.CategoryAuth).
	WithTextCode(TextCodeWrongPurpose).
	WithCode(goerrors.CodeUnauthorized)

// ErrUserVanished is returned when a valid token names a user that no longer exists.
var ErrUserVanished = goerrors.New("could not find user for this token", goerrors.CategoryAuth).
	WithTextCode(TextCodeUserVanished).
	WithCode(goerrors.CodeUnauthorized)

// ErrUserExists is returned by registration for a taken email.
var ErrUserExists = goerrors.New("a user with that email already exists", goerrors.CategoryConflict).
	WithTextCode(TextCodeUserExists).
	WithCode(goerrors.CodeBadRequest)

// ErrUserNotFound is what repositories return for an unknown email.
var ErrUserNotFound = goerrors.New("user not found", goerrors.CategoryNotFound).
	WithTextCode(TextCodeUserNotFound).
	WithCode(goerrors.CodeNotFound)

// WrongPurposeError reports the purpose a caller asked for and the one the
// token actually carried. Actual is empty when the claim was missing.
type WrongPurposeError struct {
	Expected TokenPurpose
	Actual   string
}

func (e *WrongPurposeError) Error() string {
	if e.Actual == "" {
		return fmt.Sprintf("invalid token type, expected: %s, got none", e.Expected)
	}
	return fmt.Sprintf("invalid token type, expected: %s, got: %s", e.Expected, e.Actual)
}

func (e *WrongPurposeError) Unwrap() error {
	return ErrWrongPurpose
}

// ErrorKind returns the text code of a credential error, or "" when err
// did not come from this package.
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return richErr.TextCode
	}
	return ""
}

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	if ErrorKind(err) == TextCodeExpiredToken {
		return true
	}
	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	if ErrorKind(err) == TextCodeInvalidToken {
		return true
	}
	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}

func withMetadata(err *goerrors.Error, meta map[string]any) *goerrors.Error {
	return err.Clone().WithMetadata(meta)
}

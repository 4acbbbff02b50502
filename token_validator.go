package auth

// TokenValidator validates purpose bound tokens without tying callers to a
// specific signing key.
type TokenValidator interface {
	Validate(tokenString string, expected TokenPurpose) (TokenClaims, error)
}

// TokenValidatorFunc adapts a function into a TokenValidator.
type TokenValidatorFunc func(tokenString string, expected TokenPurpose) (TokenClaims, error)

// Validate satisfies the TokenValidator interface.
func (f TokenValidatorFunc) Validate(tokenString string, expected TokenPurpose) (TokenClaims, error) {
	if f == nil {
		return TokenClaims{}, ErrTokenInvalid
	}
	return f(tokenString, expected)
}

// MultiTokenValidator tries validators in order until one succeeds.
// An invalid token error means "try next", so tokens signed with a retired
// key keep working while it is listed. Any other failure is final.
type MultiTokenValidator struct {
	validators []TokenValidator
}

// NewMultiTokenValidator filters nil validators and returns a composite validator.
func NewMultiTokenValidator(validators ...TokenValidator) *MultiTokenValidator {
	filtered := make([]TokenValidator, 0, len(validators))
	for _, v := range validators {
		if v != nil {
			filtered = append(filtered, v)
		}
	}
	return &MultiTokenValidator{validators: filtered}
}

// Validate satisfies the TokenValidator interface.
func (m *MultiTokenValidator) Validate(tokenString string, expected TokenPurpose) (TokenClaims, error) {
	var lastErr error
	for _, v := range m.validators {
		claims, err := v.Validate(tokenString, expected)
		if err == nil {
			return claims, nil
		}
		if IsMalformedError(err) {
			lastErr = err
			continue
		}
		return TokenClaims{}, err
	}
	if lastErr != nil {
		return TokenClaims{}, lastErr
	}
	return TokenClaims{}, ErrTokenInvalid
}

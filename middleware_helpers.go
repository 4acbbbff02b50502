package auth

import (
	"github.com/goliatone/go-router"

	"github.com/goliatone/go-mediaauth/middleware/jwtware"
)

// ValidationListener aliases the jwtware listener so consumers can use auth helpers directly.
type ValidationListener = jwtware.ValidationListener

// RequireConfirmed rejects principals whose account is not confirmed. Login
// already refuses them, this covers accounts changed after a token was issued.
func RequireConfirmed() ValidationListener {
	return func(_ router.Context, principal any) error {
		user, ok := principal.(UserRecord)
		if !ok {
			return ErrTokenInvalid
		}
		if !user.Confirmed {
			return ErrUnconfirmedAccount
		}
		return nil
	}
}

// RegisterValidationListeners appends listeners to a jwtware.Config in a safe, reusable way.
func RegisterValidationListeners(cfg *jwtware.Config, listeners ...ValidationListener) {
	if cfg == nil || len(listeners) == 0 {
		return
	}
	cfg.ValidationListeners = append(cfg.ValidationListeners, listeners...)
}

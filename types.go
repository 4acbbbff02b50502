package auth

import (
	"context"
	"fmt"
	"strings"
)

type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Authenticator holds methods to deal with authentication
type Authenticator interface {
	Authenticate(ctx context.Context, email, password string) (UserRecord, error)
	Login(ctx context.Context, email, password string) (string, error)
	IdentifyFromAccessToken(ctx context.Context, token string) (UserRecord, error)
	ConfirmFromToken(ctx context.Context, token string) error
	Register(ctx context.Context, email, password string) (UserRecord, string, error)
}

// Config holds auth options
type Config interface {
	GetSigningKey() string
	GetSigningMethod() string
	// GetPreviousSigningKey is still accepted for validation while keys rotate
	GetPreviousSigningKey() string
	// token lifetimes in minutes, zero means default
	GetAccessTokenTTL() int
	GetConfirmationTokenTTL() int
	GetPasswordCost() int
	GetContextKey() string
	GetTokenLookup() string
	GetAuthScheme() string
	GetBaseURL() string
}

// defLogger prints to stdout. Arguments are key value pairs, the same
// convention SlogLogger follows. Debug output is dropped.
type defLogger struct{}

func (d defLogger) Error(msg string, args ...any) {
	fmt.Print(formatLogLine("ERR", msg, args...))
}

func (d defLogger) Warn(msg string, args ...any) {
	fmt.Print(formatLogLine("WRN", msg, args...))
}

func (d defLogger) Info(msg string, args ...any) {
	fmt.Print(formatLogLine("INF", msg, args...))
}

func (d defLogger) Debug(msg string, args ...any) {}

func formatLogLine(level, msg string, args ...any) string {
	var b strings.Builder
	b.WriteString("[" + level + "] AUTH ")
	b.WriteString(strings.TrimRight(msg, "\n"))
	for i := 0; i < len(args); i += 2 {
		if i+1 == len(args) {
			fmt.Fprintf(&b, " !BADKEY=%v", args[i])
			break
		}
		fmt.Fprintf(&b, " %v=%v", args[i], args[i+1])
	}
	b.WriteString("\n")
	return b.String()
}

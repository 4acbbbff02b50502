package auth_test

import (
	"testing"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auth "github.com/goliatone/go-mediaauth"
)

func newID() uuid.UUID { return uuid.New() }

func assertKind(t *testing.T, err error, kind string) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, kind, auth.ErrorKind(err), "unexpected error: %v", err)
}

func richError(t *testing.T, err error) *goerrors.Error {
	t.Helper()
	var richErr *goerrors.Error
	require.True(t, goerrors.As(err, &richErr), "expected a rich error, got %T", err)
	return richErr
}

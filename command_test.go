package auth_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	auth "github.com/goliatone/go-mediaauth"
)

func TestRegisterUserHandler(t *testing.T) {
	user := auth.UserRecord{ID: newID(), Email: "a@x.com"}
	mockAuth := new(MockAuthenticator)
	mockAuth.On("Register", mock.Anything, "a@x.com", "pw1").Return(user, "tok", nil)

	var res *auth.RegisterUserResponse
	handler := auth.NewRegisterUserHandler(mockAuth, "http://localhost:8000")
	err := handler.Execute(context.Background(), auth.RegisterUserMessage{
		Email:    "a@x.com",
		Password: "pw1",
		OnResponse: func(r *auth.RegisterUserResponse) {
			res = r
		},
	})

	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, user, res.User)
	assert.Equal(t, "http://localhost:8000/confirm/tok", res.ConfirmationURL)
	assert.Equal(t, "user.register", auth.RegisterUserMessage{}.Type())
}

func TestRegisterUserHandlerWrapsPlainErrors(t *testing.T) {
	mockAuth := new(MockAuthenticator)
	mockAuth.On("Register", mock.Anything, "a@x.com", "pw1").Return(auth.UserRecord{}, "", errors.New("disk full"))

	handler := auth.NewRegisterUserHandler(mockAuth, "http://localhost:8000")
	err := handler.Execute(context.Background(), auth.RegisterUserMessage{Email: "a@x.com", Password: "pw1"})

	require.Error(t, err)
	assert.Contains(t, richError(t, err).Message, "user registration failed")
}

func TestRegisterUserHandlerCancelled(t *testing.T) {
	mockAuth := new(MockAuthenticator)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	handler := auth.NewRegisterUserHandler(mockAuth, "http://localhost:8000")
	err := handler.Execute(ctx, auth.RegisterUserMessage{Email: "a@x.com", Password: "pw1"})

	assert.ErrorIs(t, err, context.Canceled)
	mockAuth.AssertNotCalled(t, "Register", mock.Anything, mock.Anything, mock.Anything)
}

func TestConfirmAccountHandler(t *testing.T) {
	mockAuth := new(MockAuthenticator)
	mockAuth.On("ConfirmFromToken", mock.Anything, "tok").Return(nil)
	mockAuth.On("ConfirmFromToken", mock.Anything, "bad").Return(auth.ErrTokenInvalid)

	handler := auth.NewConfirmAccountHandler(mockAuth)

	require.NoError(t, handler.Execute(context.Background(), auth.ConfirmAccountMessage{Token: "tok"}))

	err := handler.Execute(context.Background(), auth.ConfirmAccountMessage{Token: "bad"})
	assertKind(t, err, auth.TextCodeInvalidToken)
	assert.Equal(t, "user.confirm", auth.ConfirmAccountMessage{}.Type())
}

func TestConfirmationLink(t *testing.T) {
	link, err := auth.ConfirmationLink("http://localhost:8000/", "abc.def.ghi")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8000/confirm/abc.def.ghi", link)

	link, err = auth.ConfirmationLink("https://media.example/api", "t")
	require.NoError(t, err)
	assert.Equal(t, "https://media.example/api/confirm/t", link)

	_, err = auth.ConfirmationLink("http://bad host\x7f", "t")
	assert.Error(t, err)
}

package auth_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-router"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auth "github.com/goliatone/go-mediaauth"
)

func TestRegistrationConfirmationLoginFlow(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	sink := &capturingSink{}

	tokens := auth.NewTokenService(testSigning())
	auther := auth.NewAuthenticator(auth.NewUsersRepository(db), tokens).
		WithPasswordHasher(testHasher()).
		WithActivitySink(sink)

	var res *auth.RegisterUserResponse
	register := auth.NewRegisterUserHandler(auther, "http://localhost:8000")
	require.NoError(t, register.Execute(ctx, auth.RegisterUserMessage{
		Email:      "a@x.com",
		Password:   "pw1",
		OnResponse: func(r *auth.RegisterUserResponse) { res = r },
	}))
	require.NotNil(t, res)

	_, err := auther.Login(ctx, "a@x.com", "pw1")
	assertKind(t, err, auth.TextCodeUnconfirmedAccount)

	_, err = auther.Login(ctx, "a@x.com", "wrong")
	assertKind(t, err, auth.TextCodeInvalidCredentials)

	link, err := url.Parse(res.ConfirmationURL)
	require.NoError(t, err)
	confirmToken := path.Base(link.Path)

	_, err = auther.IdentifyFromAccessToken(ctx, confirmToken)
	assertKind(t, err, auth.TextCodeWrongPurpose)

	confirm := auth.NewConfirmAccountHandler(auther)
	require.NoError(t, confirm.Execute(ctx, auth.ConfirmAccountMessage{Token: confirmToken}))
	require.NoError(t, confirm.Execute(ctx, auth.ConfirmAccountMessage{Token: confirmToken}))

	access, err := auther.Login(ctx, "a@x.com", "pw1")
	require.NoError(t, err)

	user, err := auther.IdentifyFromAccessToken(ctx, access)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", user.Email)
	assert.True(t, user.Confirmed)

	err = confirm.Execute(ctx, auth.ConfirmAccountMessage{Token: access})
	assertKind(t, err, auth.TextCodeWrongPurpose)

	_, _, err = auther.Register(ctx, "a@x.com", "pw2")
	assertKind(t, err, auth.TextCodeUserExists)

	var types []auth.ActivityEventType
	for _, evt := range sink.Events() {
		types = append(types, evt.EventType)
	}
	assert.Equal(t, []auth.ActivityEventType{
		auth.ActivityEventRegister,
		auth.ActivityEventLoginFailure,
		auth.ActivityEventLoginFailure,
		auth.ActivityEventConfirmSuccess,
		auth.ActivityEventConfirmSuccess,
		auth.ActivityEventLoginSuccess,
		auth.ActivityEventConfirmFailure,
	}, types)
}

func TestVanishedUserAfterDelete(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	users := auth.NewUsersRepository(db)

	auther := auth.NewAuthenticator(users, auth.NewTokenService(testSigning())).
		WithPasswordHasher(testHasher())

	_, confirmToken, err := auther.Register(ctx, "a@x.com", "pw1")
	require.NoError(t, err)
	access, err := auther.IssueAccessToken("a@x.com")
	require.NoError(t, err)

	_, err = db.NewDelete().Model((*auth.User)(nil)).Where("email = ?", "a@x.com").Exec(ctx)
	require.NoError(t, err)

	_, err = auther.IdentifyFromAccessToken(ctx, access)
	assertKind(t, err, auth.TextCodeUserVanished)

	assertKind(t, auther.ConfirmFromToken(ctx, confirmToken), auth.TextCodeUserVanished)

	_, err = auther.Login(ctx, "a@x.com", "pw1")
	assertKind(t, err, auth.TextCodeInvalidCredentials)
}

func TestHTTPFlowOverFiber(t *testing.T) {
	db := setupTestDB(t)
	auther := auth.NewAuthenticator(auth.NewUsersRepository(db), auth.NewTokenService(testSigning())).
		WithPasswordHasher(testHasher())

	httpAuth, err := auth.NewHTTPAuthenticator(auther, testConfig{})
	require.NoError(t, err)
	httpAuth.WithValidationListeners(auth.RequireConfirmed())

	srv := router.NewFiberAdapter(func(*fiber.App) *fiber.App { return fiber.New() })
	auth.RegisterAuthRoutes(srv.Router().Group("/"),
		auth.WithControllerAuthenticator(auther),
		auth.WithControllerProtection(httpAuth.ProtectedRoute(), auth.DefaultContextKey),
	)
	app := srv.WrappedRouter()

	send := func(method, target, body, bearer string) (int, map[string]any) {
		t.Helper()
		req := httptest.NewRequest(method, target, strings.NewReader(body))
		if body != "" {
			req.Header.Set("Content-Type", "application/json")
		}
		if bearer != "" {
			req.Header.Set("Authorization", "Bearer "+bearer)
		}
		resp, err := app.Test(req)
		require.NoError(t, err)
		defer resp.Body.Close()

		out := map[string]any{}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
		return resp.StatusCode, out
	}

	credentials := `{"email":"a@x.com","password":"pw1"}`

	status, body := send(http.MethodPost, "/register", credentials, "")
	require.Equal(t, http.StatusCreated, status, body)
	confirmURL, _ := body["confirmation_url"].(string)
	link, err := url.Parse(confirmURL)
	require.NoError(t, err)

	status, body = send(http.MethodPost, "/token", credentials, "")
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, auth.TextCodeUnconfirmedAccount, body["code"])

	status, _ = send(http.MethodGet, link.Path, "", "")
	require.Equal(t, http.StatusOK, status)

	status, body = send(http.MethodPost, "/token", credentials, "")
	require.Equal(t, http.StatusOK, status, body)
	access, _ := body["access_token"].(string)
	require.NotEmpty(t, access)

	status, body = send(http.MethodGet, "/me", "", access)
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, "a@x.com", body["email"])

	status, body = send(http.MethodGet, "/me", "", "")
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Not authenticated", body["detail"])
}

package auth_test

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auth "github.com/goliatone/go-mediaauth"
)

var fixedNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

func newTestTokenService(opts ...auth.TokenServiceOption) *auth.TokenService {
	return auth.NewTokenService(testSigning(), append([]auth.TokenServiceOption{auth.WithTokenClock(fixedClock)}, opts...)...)
}

func signRaw(t *testing.T, method jwt.SigningMethod, key any, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return token
}

func TestNewTokenServiceRequiresSigningContext(t *testing.T) {
	assert.Panics(t, func() {
		auth.NewTokenService(nil)
	})
}

func TestTokenServiceDefaultTTLs(t *testing.T) {
	ts := newTestTokenService()
	assert.Equal(t, 30*time.Minute, ts.TTL(auth.PurposeAccess))
	assert.Equal(t, 1440*time.Minute, ts.TTL(auth.PurposeConfirmation))

	custom := newTestTokenService(auth.WithAccessTokenTTL(5*time.Minute), auth.WithConfirmationTokenTTL(0))
	assert.Equal(t, 5*time.Minute, custom.TTL(auth.PurposeAccess))
	assert.Equal(t, 1440*time.Minute, custom.TTL(auth.PurposeConfirmation), "zero keeps the default")
}

func TestTokenServiceRoundTrip(t *testing.T) {
	ts := newTestTokenService()

	for _, purpose := range []auth.TokenPurpose{auth.PurposeAccess, auth.PurposeConfirmation} {
		t.Run(purpose.String(), func(t *testing.T) {
			token, err := ts.Issue("a@x.com", purpose, 0)
			require.NoError(t, err)
			assert.Len(t, strings.Split(token, "."), 3)

			claims, err := ts.Validate(token, purpose)
			require.NoError(t, err)
			assert.Equal(t, "a@x.com", claims.Subject)
			assert.Equal(t, purpose, claims.Purpose)
			assert.NotEmpty(t, claims.ID)
			assert.Equal(t, fixedNow, claims.IssuedAt.UTC())
			assert.Equal(t, fixedNow.Add(ts.TTL(purpose)), claims.ExpiresAt.UTC())
		})
	}
}

func TestTokenServiceUniqueIDs(t *testing.T) {
	ts := newTestTokenService()

	first, err := ts.Issue("a@x.com", auth.PurposeAccess, 0)
	require.NoError(t, err)
	second, err := ts.Issue("a@x.com", auth.PurposeAccess, 0)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestTokenServiceIssueRejectsBadInput(t *testing.T) {
	ts := newTestTokenService()

	_, err := ts.Issue("", auth.PurposeAccess, 0)
	assertKind(t, err, auth.TextCodeEmptyCredential)

	_, err = ts.Issue("   ", auth.PurposeAccess, 0)
	assertKind(t, err, auth.TextCodeEmptyCredential)

	_, err = ts.Issue("a@x.com", auth.TokenPurpose(0), 0)
	assert.Error(t, err)
}

func TestTokenServicePurposeIsolation(t *testing.T) {
	ts := newTestTokenService()

	access, err := ts.Issue("a@x.com", auth.PurposeAccess, 0)
	require.NoError(t, err)
	confirmation, err := ts.Issue("a@x.com", auth.PurposeConfirmation, 0)
	require.NoError(t, err)

	_, err = ts.Validate(access, auth.PurposeConfirmation)
	assertKind(t, err, auth.TextCodeWrongPurpose)
	var wp *auth.WrongPurposeError
	require.ErrorAs(t, err, &wp)
	assert.Equal(t, auth.PurposeConfirmation, wp.Expected)
	assert.Equal(t, "access", wp.Actual)

	_, err = ts.Validate(confirmation, auth.PurposeAccess)
	assertKind(t, err, auth.TextCodeWrongPurpose)
}

func TestTokenServiceExpiry(t *testing.T) {
	ts := newTestTokenService()

	expired, err := ts.Issue("a@x.com", auth.PurposeAccess, -time.Minute)
	require.NoError(t, err)

	_, err = ts.Validate(expired, auth.PurposeAccess)
	assertKind(t, err, auth.TextCodeExpiredToken)
	assert.True(t, auth.IsTokenExpiredError(err))

	shortLived, err := ts.Issue("a@x.com", auth.PurposeAccess, time.Minute)
	require.NoError(t, err)

	later := auth.NewTokenService(testSigning(), auth.WithTokenClock(func() time.Time {
		return fixedNow.Add(2 * time.Minute)
	}))
	_, err = later.Validate(shortLived, auth.PurposeAccess)
	assertKind(t, err, auth.TextCodeExpiredToken)

	atExpiry := auth.NewTokenService(testSigning(), auth.WithTokenClock(func() time.Time {
		return fixedNow.Add(time.Minute)
	}))
	_, err = atExpiry.Validate(shortLived, auth.PurposeAccess)
	assertKind(t, err, auth.TextCodeExpiredToken)
}

func TestTokenServiceRejectsEveryTamperedByte(t *testing.T) {
	ts := newTestTokenService()

	token, err := ts.Issue("a@x.com", auth.PurposeAccess, 0)
	require.NoError(t, err)

	for i := range token {
		if token[i] == '.' {
			continue
		}
		replacement := byte('A')
		if token[i] == 'A' {
			replacement = 'B'
		}
		tampered := token[:i] + string(replacement) + token[i+1:]

		_, err := ts.Validate(tampered, auth.PurposeAccess)
		require.Error(t, err, "byte %d", i)
		assert.Equal(t, auth.TextCodeInvalidToken, auth.ErrorKind(err), "byte %d", i)
	}
}

func TestTokenServiceInvalidBeatsExpired(t *testing.T) {
	ts := newTestTokenService()

	expired, err := ts.Issue("a@x.com", auth.PurposeAccess, -time.Hour)
	require.NoError(t, err)

	parts := strings.Split(expired, ".")
	sig := []byte(parts[2])
	if sig[0] == 'A' {
		sig[0] = 'B'
	} else {
		sig[0] = 'A'
	}
	tampered := parts[0] + "." + parts[1] + "." + string(sig)

	_, err = ts.Validate(tampered, auth.PurposeAccess)
	assertKind(t, err, auth.TextCodeInvalidToken)
}

func TestTokenServiceRejectsForeignTokens(t *testing.T) {
	ts := newTestTokenService()
	exp := fixedNow.Add(time.Hour).Unix()

	tests := []struct {
		name  string
		token string
		kind  string
	}{
		{name: "garbage", token: "not-a-token", kind: auth.TextCodeInvalidToken},
		{name: "empty", token: "", kind: auth.TextCodeInvalidToken},
		{
			name: "other key",
			token: signRaw(t, jwt.SigningMethodHS256, []byte("another-key"), jwt.MapClaims{
				"sub": "a@x.com", "exp": exp, "type": "access",
			}),
			kind: auth.TextCodeInvalidToken,
		},
		{
			name: "other algorithm",
			token: signRaw(t, jwt.SigningMethodHS512, []byte(testSecret), jwt.MapClaims{
				"sub": "a@x.com", "exp": exp, "type": "access",
			}),
			kind: auth.TextCodeInvalidToken,
		},
		{
			name: "unsigned",
			token: signRaw(t, jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType, jwt.MapClaims{
				"sub": "a@x.com", "exp": exp, "type": "access",
			}),
			kind: auth.TextCodeInvalidToken,
		},
		{
			name: "no expiry",
			token: signRaw(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.MapClaims{
				"sub": "a@x.com", "type": "access",
			}),
			kind: auth.TextCodeInvalidToken,
		},
		{
			name: "no subject",
			token: signRaw(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.MapClaims{
				"exp": exp, "type": "access",
			}),
			kind: auth.TextCodeMissingSubject,
		},
		{
			name: "no purpose",
			token: signRaw(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.MapClaims{
				"sub": "a@x.com", "exp": exp,
			}),
			kind: auth.TextCodeWrongPurpose,
		},
		{
			name: "unknown purpose",
			token: signRaw(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.MapClaims{
				"sub": "a@x.com", "exp": exp, "type": "refresh",
			}),
			kind: auth.TextCodeWrongPurpose,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ts.Validate(tt.token, auth.PurposeAccess)
			assertKind(t, err, tt.kind)
		})
	}
}

func TestTokenServiceUnknownExpectedPurpose(t *testing.T) {
	ts := newTestTokenService()

	token, err := ts.Issue("a@x.com", auth.PurposeAccess, 0)
	require.NoError(t, err)

	_, err = ts.Validate(token, auth.TokenPurpose(0))
	assertKind(t, err, auth.TextCodeWrongPurpose)
}

func TestParseTokenPurpose(t *testing.T) {
	p, ok := auth.ParseTokenPurpose("access")
	assert.True(t, ok)
	assert.Equal(t, auth.PurposeAccess, p)

	p, ok = auth.ParseTokenPurpose("confirmation")
	assert.True(t, ok)
	assert.Equal(t, auth.PurposeConfirmation, p)

	_, ok = auth.ParseTokenPurpose("refresh")
	assert.False(t, ok)

	assert.False(t, auth.TokenPurpose(0).Valid())
	assert.Equal(t, "unknown", auth.TokenPurpose(7).String())
}

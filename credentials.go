package auth

import (
	"net/url"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

// CredentialIssuer mints the two kinds of tokens handed to users
type CredentialIssuer struct {
	tokens *TokenService
}

// NewCredentialIssuer wraps a token service
func NewCredentialIssuer(tokens *TokenService) *CredentialIssuer {
	return &CredentialIssuer{tokens: tokens}
}

// IssueAccessToken returns a bearer token for email
func (c *CredentialIssuer) IssueAccessToken(email string) (string, error) {
	return c.tokens.Issue(email, PurposeAccess, 0)
}

// IssueConfirmationToken returns a token to embed in a confirmation link
func (c *CredentialIssuer) IssueConfirmationToken(email string) (string, error) {
	return c.tokens.Issue(email, PurposeConfirmation, 0)
}

// ConfirmationURL builds <baseURL>/confirm/<token>. Delivering the link is
// up to the caller.
func (c *CredentialIssuer) ConfirmationURL(baseURL, email string) (string, error) {
	token, err := c.IssueConfirmationToken(email)
	if err != nil {
		return "", err
	}
	return ConfirmationLink(baseURL, token)
}

// ConfirmationLink joins an already issued token onto baseURL
func ConfirmationLink(baseURL, token string) (string, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryBadInput, "invalid base url").
			WithCode(goerrors.CodeInternal)
	}

	return u.JoinPath("confirm", token).String(), nil
}

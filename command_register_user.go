package auth

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

type RegisterUserMessage struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	OnResponse func(r *RegisterUserResponse)
}

func (e RegisterUserMessage) Type() string { return "user.register" }

type RegisterUserResponse struct {
	User            UserRecord `json:"user"`
	ConfirmationURL string     `json:"confirmation_url"`
}

type RegisterUserHandler struct {
	auth    Authenticator
	baseURL string
}

// NewRegisterUserHandler registers users and answers with the link that
// confirms the new account.
func NewRegisterUserHandler(auth Authenticator, baseURL string) *RegisterUserHandler {
	return &RegisterUserHandler{auth: auth, baseURL: baseURL}
}

func (h *RegisterUserHandler) Execute(ctx context.Context, event RegisterUserMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during user registration",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *RegisterUserHandler) execute(ctx context.Context, event RegisterUserMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	user, token, err := h.auth.Register(ctx, event.Email, event.Password)
	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return err
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "user registration failed")
	}

	link, err := ConfirmationLink(h.baseURL, token)
	if err != nil {
		return err
	}

	if event.OnResponse != nil {
		event.OnResponse(&RegisterUserResponse{
			User:            user,
			ConfirmationURL: link,
		})
	}

	return nil
}

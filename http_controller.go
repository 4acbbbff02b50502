package auth

import (
	"errors"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
)

// RegisterAuthRoutes mounts register, token, confirm and me.
func RegisterAuthRoutes[T any](app router.Router[T], opts ...AuthControllerOption) *AuthController {
	controller := NewAuthController(opts...)

	app.Post(controller.Routes.Register, controller.RegisterUser).
		SetName("register.post")

	app.Post(controller.Routes.Token, controller.IssueToken).
		SetName("token.post")

	app.Get(controller.Routes.Confirm+"/:token", controller.ConfirmEmail).
		SetName("confirm.get")

	if controller.Protected != nil {
		app.Get(controller.Routes.Me, controller.CurrentUser, controller.Protected).
			SetName("me.get")
	}

	return controller
}

type AuthControllerRoutes struct {
	Register string
	Token    string
	Confirm  string
	Me       string
}

type AuthController struct {
	Debug        bool
	Logger       Logger
	Auther       Authenticator
	BaseURL      string
	ContextKey   string
	Routes       *AuthControllerRoutes
	Protected    router.MiddlewareFunc
	ErrorHandler router.ErrorHandler
}

type AuthControllerOption func(*AuthController) *AuthController

func WithControllerAuthenticator(auther Authenticator) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Auther = auther
		return c
	}
}

func WithControllerLogger(logger Logger) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		if logger != nil {
			c.Logger = logger
		}
		return c
	}
}

// WithControllerBaseURL sets the public URL confirmation links point at
func WithControllerBaseURL(baseURL string) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.BaseURL = baseURL
		return c
	}
}

// WithControllerProtection enables the /me route behind mw
func WithControllerProtection(mw router.MiddlewareFunc, contextKey string) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Protected = mw
		if contextKey != "" {
			c.ContextKey = contextKey
		}
		return c
	}
}

func WithControllerDebug(debug bool) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Debug = debug
		return c
	}
}

func NewAuthController(opts ...AuthControllerOption) *AuthController {
	c := &AuthController{
		Logger:     defLogger{},
		BaseURL:    "http://localhost:8000",
		ContextKey: DefaultContextKey,
		Routes: &AuthControllerRoutes{
			Register: "/register",
			Token:    "/token",
			Confirm:  "/confirm",
			Me:       "/me",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.ErrorHandler == nil {
		logger := c.Logger
		c.ErrorHandler = func(ctx router.Context, err error) error {
			return WriteError(ctx, logger, err)
		}
	}

	if c.Auther == nil {
		panic("Missing Authenticator in auth controller...")
	}

	return c
}

// CredentialsPayload is the body of /register and /token
type CredentialsPayload struct {
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

// Validate will run validation rules
func (r CredentialsPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required),
	)
}

func (a *AuthController) RegisterUser(ctx router.Context) error {
	payload, err := a.bindCredentials(ctx)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	var res *RegisterUserResponse
	cmd := NewRegisterUserHandler(a.Auther, a.BaseURL)
	err = cmd.Execute(ctx.Context(), RegisterUserMessage{
		Email:    payload.Email,
		Password: payload.Password,
		OnResponse: func(r *RegisterUserResponse) {
			res = r
		},
	})
	if err != nil {
		a.Logger.Error("register user error", "error", err)
		return a.ErrorHandler(ctx, err)
	}

	if a.Debug {
		fmt.Println(print.MaybePrettyJSON(res))
	}

	return ctx.JSON(router.StatusCreated, map[string]any{
		"detail":           "User created. Please confirm your email.",
		"confirmation_url": res.ConfirmationURL,
	})
}

func (a *AuthController) IssueToken(ctx router.Context) error {
	payload, err := a.bindCredentials(ctx)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	token, err := a.Auther.Login(ctx.Context(), payload.Email, payload.Password)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"access_token": token,
		"token_type":   "bearer",
	})
}

func (a *AuthController) ConfirmEmail(ctx router.Context) error {
	cmd := NewConfirmAccountHandler(a.Auther)
	if err := cmd.Execute(ctx.Context(), ConfirmAccountMessage{Token: ctx.Param("token")}); err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"detail": "User confirmed.",
	})
}

func (a *AuthController) CurrentUser(ctx router.Context) error {
	user, ok := GetRouterUser(ctx, a.ContextKey)
	if !ok {
		return a.ErrorHandler(ctx, ErrTokenInvalid)
	}
	return ctx.JSON(router.StatusOK, user)
}

func (a *AuthController) bindCredentials(ctx router.Context) (*CredentialsPayload, error) {
	payload := new(CredentialsPayload)
	if err := ctx.Bind(payload); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse body").
			WithCode(goerrors.CodeBadRequest)
	}

	if payload.Email == "" || payload.Password == "" {
		return nil, ErrEmptyCredential
	}

	if err := payload.Validate(); err != nil {
		return nil, goerrors.New("invalid payload", goerrors.CategoryValidation).
			WithCode(goerrors.CodeBadRequest).
			WithMetadata(map[string]any{
				"validation": FormatValidationErrorToMap(err),
			})
	}

	return payload, nil
}

// FormatValidationErrorToMap flattens ozzo errors to field -> message
func FormatValidationErrorToMap(err error) map[string]string {
	out := map[string]string{}
	var verrs validation.Errors
	if errors.As(err, &verrs) {
		for field, ferr := range verrs {
			out[field] = ferr.Error()
		}
		return out
	}
	if err != nil {
		out["form"] = err.Error()
	}
	return out
}

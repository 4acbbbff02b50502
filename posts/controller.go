package posts

import (
	"context"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"
	"github.com/google/uuid"

	auth "github.com/goliatone/go-mediaauth"
)

// Store is what the controller needs from persistence
type Store interface {
	CreatePost(ctx context.Context, userID uuid.UUID, body string) (*Post, error)
	ListPosts(ctx context.Context, sorting Sorting) ([]PostWithLikes, error)
	PostWithComments(ctx context.Context, postID uuid.UUID) (PostDetail, error)
	CreateComment(ctx context.Context, userID, postID uuid.UUID, body string) (*Comment, error)
	ListComments(ctx context.Context, postID uuid.UUID) ([]Comment, error)
	LikePost(ctx context.Context, userID, postID uuid.UUID) (*Like, error)
}

var _ Store = (*Repository)(nil)

// RegisterRoutes mounts the posts API. Creating routes run behind protected.
func RegisterRoutes[T any](app router.Router[T], store Store, protected router.MiddlewareFunc, opts ...ControllerOption) *Controller {
	c := NewController(store, opts...)

	app.Post("/post", c.CreatePost, protected).
		SetName("post.create")

	app.Get("/post", c.ListPosts).
		SetName("post.list")

	app.Get("/post/:id/comments", c.ListComments).
		SetName("post.comments")

	app.Get("/post/:id", c.GetPost).
		SetName("post.get")

	app.Post("/comment", c.CreateComment, protected).
		SetName("comment.create")

	app.Post("/like", c.LikePost, protected).
		SetName("like.create")

	return c
}

type Controller struct {
	Store        Store
	Logger       auth.Logger
	ContextKey   string
	ErrorHandler router.ErrorHandler
}

type ControllerOption func(*Controller)

func WithLogger(logger auth.Logger) ControllerOption {
	return func(c *Controller) {
		if logger != nil {
			c.Logger = logger
		}
	}
}

// WithContextKey sets the locals key the auth middleware stores the user in
func WithContextKey(key string) ControllerOption {
	return func(c *Controller) {
		if key != "" {
			c.ContextKey = key
		}
	}
}

func NewController(store Store, opts ...ControllerOption) *Controller {
	if store == nil {
		panic("Missing Store in posts controller...")
	}

	c := &Controller{
		Store:      store,
		ContextKey: auth.DefaultContextKey,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	if c.ErrorHandler == nil {
		c.ErrorHandler = func(ctx router.Context, err error) error {
			return auth.WriteError(ctx, c.Logger, err)
		}
	}

	return c
}

type PostPayload struct {
	Body string `form:"body" json:"body"`
}

func (p PostPayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Body, validation.Required, validation.Length(1, 10000)),
	)
}

type CommentPayload struct {
	PostID string `form:"post_id" json:"post_id"`
	Body   string `form:"body" json:"body"`
}

func (p CommentPayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.PostID, validation.Required, is.UUID),
		validation.Field(&p.Body, validation.Required, validation.Length(1, 10000)),
	)
}

type LikePayload struct {
	PostID string `form:"post_id" json:"post_id"`
}

func (p LikePayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.PostID, validation.Required, is.UUID),
	)
}

func (c *Controller) CreatePost(ctx router.Context) error {
	user, ok := auth.GetRouterUser(ctx, c.ContextKey)
	if !ok {
		return c.ErrorHandler(ctx, auth.ErrTokenInvalid)
	}

	payload := new(PostPayload)
	if err := bindAndValidate(ctx, payload); err != nil {
		return c.ErrorHandler(ctx, err)
	}

	post, err := c.Store.CreatePost(ctx.Context(), user.ID, payload.Body)
	if err != nil {
		return c.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusCreated, post)
}

func (c *Controller) ListPosts(ctx router.Context) error {
	sorting, ok := ParseSorting(ctx.Query("sorting", ""))
	if !ok {
		return c.ErrorHandler(ctx, goerrors.New("unknown sorting, use new, old or most_likes", goerrors.CategoryBadInput).
			WithTextCode("INVALID_SORTING").
			WithCode(goerrors.CodeBadRequest))
	}

	posts, err := c.Store.ListPosts(ctx.Context(), sorting)
	if err != nil {
		return c.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, posts)
}

func (c *Controller) GetPost(ctx router.Context) error {
	id, err := postIDParam(ctx)
	if err != nil {
		return c.ErrorHandler(ctx, err)
	}

	detail, err := c.Store.PostWithComments(ctx.Context(), id)
	if err != nil {
		return c.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, detail)
}

func (c *Controller) ListComments(ctx router.Context) error {
	id, err := postIDParam(ctx)
	if err != nil {
		return c.ErrorHandler(ctx, err)
	}

	comments, err := c.Store.ListComments(ctx.Context(), id)
	if err != nil {
		return c.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, comments)
}

func (c *Controller) CreateComment(ctx router.Context) error {
	user, ok := auth.GetRouterUser(ctx, c.ContextKey)
	if !ok {
		return c.ErrorHandler(ctx, auth.ErrTokenInvalid)
	}

	payload := new(CommentPayload)
	if err := bindAndValidate(ctx, payload); err != nil {
		return c.ErrorHandler(ctx, err)
	}

	comment, err := c.Store.CreateComment(ctx.Context(), user.ID, uuid.MustParse(payload.PostID), payload.Body)
	if err != nil {
		return c.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusCreated, comment)
}

func (c *Controller) LikePost(ctx router.Context) error {
	user, ok := auth.GetRouterUser(ctx, c.ContextKey)
	if !ok {
		return c.ErrorHandler(ctx, auth.ErrTokenInvalid)
	}

	payload := new(LikePayload)
	if err := bindAndValidate(ctx, payload); err != nil {
		return c.ErrorHandler(ctx, err)
	}

	like, err := c.Store.LikePost(ctx.Context(), user.ID, uuid.MustParse(payload.PostID))
	if err != nil {
		return c.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusCreated, like)
}

func postIDParam(ctx router.Context) (uuid.UUID, error) {
	raw := ctx.Param("id")
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, ErrPostNotFound.Clone().WithMetadata(map[string]any{"post_id": raw})
	}
	return id, nil
}

func bindAndValidate(ctx router.Context, payload validation.Validatable) error {
	if err := ctx.Bind(payload); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse body").
			WithCode(goerrors.CodeBadRequest)
	}

	if err := payload.Validate(); err != nil {
		return goerrors.New("invalid payload", goerrors.CategoryValidation).
			WithCode(goerrors.CodeBadRequest).
			WithMetadata(map[string]any{
				"validation": auth.FormatValidationErrorToMap(err),
			})
	}

	return nil
}

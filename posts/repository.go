package posts

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/uptrace/bun"
)

const (
	TextCodePostNotFound = "POST_NOT_FOUND"
	TextCodeAlreadyLiked = "ALREADY_LIKED"
	TextCodeEmptyBody    = "EMPTY_BODY"
)

var ErrPostNotFound = goerrors.New("post not found", goerrors.CategoryNotFound).
	WithTextCode(TextCodePostNotFound).
	WithCode(goerrors.CodeNotFound)

var ErrAlreadyLiked = goerrors.New("post already liked", goerrors.CategoryConflict).
	WithTextCode(TextCodeAlreadyLiked).
	WithCode(goerrors.CodeConflict)

var ErrEmptyBody = goerrors.New("body must not be empty", goerrors.CategoryValidation).
	WithTextCode(TextCodeEmptyBody).
	WithCode(goerrors.CodeBadRequest)

type Option func(*Repository)

// WithClock sets the time source for created_at
func WithClock(now func() time.Time) Option {
	return func(r *Repository) {
		if now != nil {
			r.clock = now
		}
	}
}

// WithPolicy replaces the strict sanitizer used on bodies
func WithPolicy(p *bluemonday.Policy) Option {
	return func(r *Repository) {
		if p != nil {
			r.policy = p
		}
	}
}

// Repository stores posts, comments and likes. Bodies are sanitized before
// they are written.
type Repository struct {
	db       *bun.DB
	posts    repository.Repository[*Post]
	comments repository.Repository[*Comment]
	likes    repository.Repository[*Like]
	policy   *bluemonday.Policy
	clock    func() time.Time
}

func NewRepository(db *bun.DB, opts ...Option) *Repository {
	r := &Repository{
		db: db,
		posts: repository.NewRepository[*Post](db, repository.ModelHandlers[*Post]{
			NewRecord: func() *Post { return &Post{} },
			GetID:     func(p *Post) uuid.UUID { return p.ID },
			SetID:     func(p *Post, id uuid.UUID) { p.ID = id },
		}),
		comments: repository.NewRepository[*Comment](db, repository.ModelHandlers[*Comment]{
			NewRecord: func() *Comment { return &Comment{} },
			GetID:     func(c *Comment) uuid.UUID { return c.ID },
			SetID:     func(c *Comment, id uuid.UUID) { c.ID = id },
		}),
		likes: repository.NewRepository[*Like](db, repository.ModelHandlers[*Like]{
			NewRecord: func() *Like { return &Like{} },
			GetID:     func(l *Like) uuid.UUID { return l.ID },
			SetID:     func(l *Like, id uuid.UUID) { l.ID = id },
		}),
		policy: bluemonday.StrictPolicy(),
		clock:  time.Now,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}

	return r
}

func (r *Repository) sanitize(body string) (string, error) {
	clean := strings.TrimSpace(r.policy.Sanitize(body))
	if clean == "" {
		return "", ErrEmptyBody
	}
	return clean, nil
}

func (r *Repository) now() time.Time {
	return r.clock().UTC()
}

// CreatePost stores a post owned by userID
func (r *Repository) CreatePost(ctx context.Context, userID uuid.UUID, body string) (*Post, error) {
	clean, err := r.sanitize(body)
	if err != nil {
		return nil, err
	}

	post, err := r.posts.Create(ctx, &Post{
		ID:        uuid.New(),
		Body:      clean,
		UserID:    userID,
		CreatedAt: r.now(),
	})
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "could not create post")
	}

	return post, nil
}

// FindPost returns a post and its like count
func (r *Repository) FindPost(ctx context.Context, id uuid.UUID) (PostWithLikes, error) {
	var row PostWithLikes
	err := r.selectPosts(&row).
		Where("p.id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || repository.IsRecordNotFound(err) {
			return PostWithLikes{}, postNotFound(id)
		}
		return PostWithLikes{}, goerrors.Wrap(err, goerrors.CategoryInternal, "could not load post")
	}
	return row, nil
}

// ListPosts returns every post in the requested order
func (r *Repository) ListPosts(ctx context.Context, sorting Sorting) ([]PostWithLikes, error) {
	rows := []PostWithLikes{}
	q := r.selectPosts(&rows)

	switch sorting {
	case SortOld:
		q = q.OrderExpr("p.created_at ASC")
	case SortMostLikes:
		q = q.OrderExpr("likes DESC").OrderExpr("p.created_at DESC")
	default:
		q = q.OrderExpr("p.created_at DESC")
	}

	if err := q.Scan(ctx); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "could not list posts")
	}

	return rows, nil
}

func (r *Repository) selectPosts(dest any) *bun.SelectQuery {
	return r.db.NewSelect().
		Model(dest).
		ColumnExpr("p.*").
		ColumnExpr("(SELECT COUNT(*) FROM likes AS l WHERE l.post_id = p.id) AS likes")
}

// CreateComment adds a comment, the post has to exist
func (r *Repository) CreateComment(ctx context.Context, userID, postID uuid.UUID, body string) (*Comment, error) {
	clean, err := r.sanitize(body)
	if err != nil {
		return nil, err
	}

	if _, err := r.FindPost(ctx, postID); err != nil {
		return nil, err
	}

	comment, err := r.comments.Create(ctx, &Comment{
		ID:        uuid.New(),
		Body:      clean,
		PostID:    postID,
		UserID:    userID,
		CreatedAt: r.now(),
	})
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "could not create comment")
	}

	return comment, nil
}

// ListComments returns the comments of a post, oldest first
func (r *Repository) ListComments(ctx context.Context, postID uuid.UUID) ([]Comment, error) {
	if _, err := r.FindPost(ctx, postID); err != nil {
		return nil, err
	}

	comments := []Comment{}
	err := r.db.NewSelect().
		Model(&comments).
		Where("c.post_id = ?", postID).
		OrderExpr("c.created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "could not list comments")
	}

	return comments, nil
}

// PostWithComments loads a post with its comments
func (r *Repository) PostWithComments(ctx context.Context, postID uuid.UUID) (PostDetail, error) {
	post, err := r.FindPost(ctx, postID)
	if err != nil {
		return PostDetail{}, err
	}

	comments, err := r.ListComments(ctx, postID)
	if err != nil {
		return PostDetail{}, err
	}

	return PostDetail{Post: post, Comments: comments}, nil
}

// LikePost records a like, a user can like a post once
func (r *Repository) LikePost(ctx context.Context, userID, postID uuid.UUID) (*Like, error) {
	if _, err := r.FindPost(ctx, postID); err != nil {
		return nil, err
	}

	like, err := r.likes.Create(ctx, &Like{
		ID:        uuid.New(),
		PostID:    postID,
		UserID:    userID,
		CreatedAt: r.now(),
	})
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "unique") ||
			strings.Contains(strings.ToLower(err.Error()), "duplicate key") {
			return nil, ErrAlreadyLiked
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "could not like post")
	}

	return like, nil
}

func postNotFound(id uuid.UUID) error {
	return ErrPostNotFound.Clone().WithMetadata(map[string]any{"post_id": id.String()})
}

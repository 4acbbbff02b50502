package posts

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Post is a user submitted post
type Post struct {
	bun.BaseModel `bun:"table:posts,alias:p"`
	ID            uuid.UUID `bun:"id,pk,type:uuid" json:"id"`
	Body          string    `bun:"body,notnull" json:"body"`
	UserID        uuid.UUID `bun:"user_id,notnull,type:uuid" json:"user_id"`
	CreatedAt     time.Time `bun:"created_at,notnull" json:"created_at"`
}

// PostWithLikes is a post together with its like count
type PostWithLikes struct {
	Post  `bun:",extend"`
	Likes int `bun:"likes,scanonly" json:"likes"`
}

// Comment belongs to a post
type Comment struct {
	bun.BaseModel `bun:"table:comments,alias:c"`
	ID            uuid.UUID `bun:"id,pk,type:uuid" json:"id"`
	Body          string    `bun:"body,notnull" json:"body"`
	PostID        uuid.UUID `bun:"post_id,notnull,type:uuid" json:"post_id"`
	UserID        uuid.UUID `bun:"user_id,notnull,type:uuid" json:"user_id"`
	CreatedAt     time.Time `bun:"created_at,notnull" json:"created_at"`
}

// Like is one user's like of one post
type Like struct {
	bun.BaseModel `bun:"table:likes,alias:l"`
	ID            uuid.UUID `bun:"id,pk,type:uuid" json:"id"`
	PostID        uuid.UUID `bun:"post_id,notnull,type:uuid" json:"post_id"`
	UserID        uuid.UUID `bun:"user_id,notnull,type:uuid" json:"user_id"`
	CreatedAt     time.Time `bun:"created_at,notnull" json:"created_at"`
}

// PostDetail is a post with all of its comments
type PostDetail struct {
	Post     PostWithLikes `json:"post"`
	Comments []Comment     `json:"comments"`
}

// Sorting orders post listings
type Sorting string

const (
	SortNew       Sorting = "new"
	SortOld       Sorting = "old"
	SortMostLikes Sorting = "most_likes"
)

// ParseSorting defaults to SortNew for an empty value
func ParseSorting(s string) (Sorting, bool) {
	switch Sorting(s) {
	case "":
		return SortNew, true
	case SortNew, SortOld, SortMostLikes:
		return Sorting(s), true
	default:
		return "", false
	}
}

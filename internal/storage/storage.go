package storage

import (
	"context"

	"github.com/MosinFAM/chirp/internal/models"
)

// ListQuery selects one page of posts in newest-first order.
type ListQuery struct {
	ParentID *string // nil selects top-level posts
	Cursor   *string // opaque cursor of the last post already seen
	Limit    int
}

// NewPost carries the caller-supplied fields of a post. The store assigns ID and CreatedAt.
type NewPost struct {
	ParentID *string
	AuthorID string
	Content  string
}

// Storage - интерфейс для всех типов хранилищ (in-memory и PostgreSQL)
type Storage interface {
	ListPosts(ctx context.Context, q ListQuery) ([]models.Post, error)
	GetPostByID(ctx context.Context, id string) (*models.Post, error)
	AddPost(ctx context.Context, post NewPost) (models.Post, error)
	UpdatePostContent(ctx context.Context, id, content string) error
	// DeletePostTree removes the post and every reply below it atomically
	// and returns the number of removed rows.
	DeletePostTree(ctx context.Context, id string) (int, error)
}

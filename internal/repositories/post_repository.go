package repositories

import (
	"context"
	"errors"

	"github.com/anonto42/nastani/backend/internal/models"
)

// ErrPostNotFound is returned when a post id does not reference a stored post.
var ErrPostNotFound = errors.New("post not found")

// PostQuery selects a page of posts ordered by createdAt descending.
type PostQuery struct {
	Zip    string // exact match; empty selects every post
	Offset int64
	Limit  int64
}

// PostRepository defines the interface for post data operations
type PostRepository interface {
	CreatePost(ctx context.Context, post *models.Post) error
	GetPostByID(ctx context.Context, id string) (*models.Post, error)
	ListPosts(ctx context.Context, q PostQuery) ([]models.Post, error)
	ListPostsByEmail(ctx context.Context, email string) ([]models.Post, error)
	// CountPosts counts posts with the given zip, or the whole collection when zip is empty.
	CountPosts(ctx context.Context, zip string) (int64, error)
	// UpdatePost sets only the given fields; other stored fields are left untouched.
	UpdatePost(ctx context.Context, id string, fields map[string]any) error
	DeletePost(ctx context.Context, id string) error
}

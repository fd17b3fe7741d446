package repository

import (
	"context"

	"github.com/inkpress/inkpress/backend/blog-service/internal/post"
)

// Repository persists posts. Implementations report post.ErrNotFound for
// unknown ids and hand out ids through NextID.
type Repository interface {
	post.Sequence
	Insert(ctx context.Context, p *post.Post) error
	Get(ctx context.Context, id string) (*post.Post, error)
	Delete(ctx context.Context, id string) error
	// List returns every post, newest first. Posts published at the same
	// instant keep insertion order.
	List(ctx context.Context) ([]*post.Post, error)
}

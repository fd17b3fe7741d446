package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/inkpress/inkpress/backend/blog-service/internal/post"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const postgresSchema = `
CREATE SEQUENCE IF NOT EXISTS post_ids;
CREATE TABLE IF NOT EXISTS posts (
  seq          BIGSERIAL PRIMARY KEY,
  id           TEXT NOT NULL UNIQUE,
  title        TEXT NOT NULL,
  content      TEXT NOT NULL,
  excerpt      TEXT NOT NULL,
  author       TEXT NOT NULL,
  published_at TIMESTAMPTZ NOT NULL,
  read_time    INT NOT NULL,
  tags         TEXT[] NOT NULL DEFAULT '{}',
  image_url    TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_posts_published ON posts (published_at DESC, seq ASC);
`

const postColumns = `id, title, content, excerpt, author, published_at, read_time, tags, image_url`

// PostgresRepo stores posts in a single table. The seq column records
// insertion order for tie-breaking; ids come from the post_ids sequence.
type PostgresRepo struct {
	pool *pgxpool.Pool
}

var _ Repository = (*PostgresRepo)(nil)

// NewPostgresRepo creates the schema when missing.
func NewPostgresRepo(ctx context.Context, pool *pgxpool.Pool) (*PostgresRepo, error) {
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		return nil, fmt.Errorf("create posts schema: %w", err)
	}
	return &PostgresRepo{pool: pool}, nil
}

func (r *PostgresRepo) NextID(ctx context.Context) (string, error) {
	var n int64
	if err := r.pool.QueryRow(ctx, `SELECT nextval('post_ids')`).Scan(&n); err != nil {
		return "", fmt.Errorf("next post id: %w", err)
	}
	return strconv.FormatInt(n, 10), nil
}

func (r *PostgresRepo) Insert(ctx context.Context, p *post.Post) error {
	tags := p.Tags
	if tags == nil {
		tags = []string{}
	}
	_, err := r.pool.Exec(ctx, `
INSERT INTO posts (`+postColumns+`)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		p.ID, p.Title, p.Content, p.Excerpt, p.Author, p.PublishedAt, p.ReadTime, tags, p.ImageURL)
	if err != nil {
		return fmt.Errorf("insert post %s: %w", p.ID, err)
	}
	return nil
}

func (r *PostgresRepo) Get(ctx context.Context, id string) (*post.Post, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+postColumns+` FROM posts WHERE id=$1`, id)
	p, err := scanPost(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, post.ErrNotFound
	}
	return p, err
}

func (r *PostgresRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM posts WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return post.ErrNotFound
	}
	return nil
}

func (r *PostgresRepo) List(ctx context.Context) ([]*post.Post, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+postColumns+` FROM posts ORDER BY published_at DESC, seq ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*post.Post{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func scanPost(row pgx.Row) (*post.Post, error) {
	var p post.Post
	err := row.Scan(&p.ID, &p.Title, &p.Content, &p.Excerpt, &p.Author, &p.PublishedAt, &p.ReadTime, &p.Tags, &p.ImageURL)
	if err != nil {
		return nil, err
	}
	p.PublishedAt = p.PublishedAt.UTC()
	if p.Tags == nil {
		p.Tags = []string{}
	}
	return &p, nil
}

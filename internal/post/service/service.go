package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/inkpress/inkpress/backend/blog-service/internal/post"
	"github.com/inkpress/inkpress/backend/blog-service/internal/post/repository"
	"github.com/inkpress/inkpress/backend/blog-service/internal/storage"
	"github.com/inkpress/inkpress/backend/blog-service/pkg/logger"
	"github.com/inkpress/inkpress/backend/blog-service/pkg/metrics"
)

// Upload is an image attached to a new post. The transport has already
// checked size and type; Ext is the extension matching ContentType.
type Upload struct {
	Body        io.Reader
	Size        int64
	ContentType string
	Ext         string
}

// Service defines the post operations used by the handler layer.
type Service interface {
	Create(ctx context.Context, in post.Input, img *Upload) (*post.Post, error)
	Get(ctx context.Context, id string) (*post.Post, error)
	List(ctx context.Context, q post.Query) ([]*post.Post, error)
	Delete(ctx context.Context, id string) error
	Tags(ctx context.Context) ([]string, error)
	Stats(ctx context.Context) (post.Stats, error)
	OpenImage(ctx context.Context, name string) (io.ReadCloser, storage.Info, error)
	// Seed stores in as if it had been published at the given time.
	Seed(ctx context.Context, in post.Input, at time.Time) (*post.Post, error)
}

// Options tune a PostService. A nil Now uses time.Now.
type Options struct {
	// ImagePrefix is prepended to stored image keys to form imageUrl.
	ImagePrefix string
	Now         func() time.Time
}

// PostService wires the ingestion pipeline to a repository and blob store.
type PostService struct {
	repo     repository.Repository
	blobs    storage.BlobStore
	pipeline *post.Pipeline
	prefix   string
}

var _ Service = (*PostService)(nil)

// New returns a PostService. blobs may be nil when uploads are disabled.
func New(repo repository.Repository, blobs storage.BlobStore, opts Options) *PostService {
	prefix := strings.TrimRight(opts.ImagePrefix, "/")
	if prefix == "" {
		prefix = "/uploads"
	}
	return &PostService{
		repo:     repo,
		blobs:    blobs,
		pipeline: post.NewPipeline(repo, opts.Now),
		prefix:   prefix,
	}
}

// NewMemoryService returns a Service backed by the in-memory repository
// with no image storage.
func NewMemoryService() *PostService {
	return New(repository.NewMemoryRepo(), nil, Options{})
}

// Create validates in, stores the image (if any), ingests and inserts the
// post. Either the post is stored or nothing is: a blob written for a
// failed insert is removed again.
func (s *PostService) Create(ctx context.Context, in post.Input, img *Upload) (*post.Post, error) {
	if err := s.pipeline.Check(in); err != nil {
		countFailure(err)
		return nil, err
	}

	var key string
	if img != nil {
		if s.blobs == nil {
			metrics.IngestFailures.WithLabelValues(metrics.ReasonUpload).Inc()
			return nil, &post.UploadError{Reason: "Image uploads are disabled"}
		}
		key = uuid.NewString() + img.Ext
		if err := s.blobs.Put(ctx, key, img.Body, img.Size, img.ContentType); err != nil {
			metrics.IngestFailures.WithLabelValues(metrics.ReasonStorage).Inc()
			return nil, fmt.Errorf("store image: %w", err)
		}
		in.ImageURL = s.prefix + "/" + key
	}

	p, err := s.pipeline.Ingest(ctx, in)
	if err == nil {
		err = s.repo.Insert(ctx, p)
	}
	if err != nil {
		countFailure(err)
		s.discard(key)
		return nil, err
	}

	metrics.PostsCreated.Inc()
	logger.Infof("post %s created by %q (tags=%d image=%v)", p.ID, p.Author, len(p.Tags), key != "")
	return p, nil
}

// discard removes an orphaned blob. It runs detached from the request
// context so a cancelled request still cleans up.
func (s *PostService) discard(key string) {
	if key == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.blobs.Delete(ctx, key); err != nil {
		logger.Warnf("failed to remove orphaned image %s: %v", key, err)
	}
}

func countFailure(err error) {
	switch {
	case post.IsValidation(err):
		metrics.IngestFailures.WithLabelValues(metrics.ReasonValidation).Inc()
	case errors.Is(err, post.ErrMalformedTags):
		metrics.IngestFailures.WithLabelValues(metrics.ReasonTags).Inc()
	default:
		metrics.IngestFailures.WithLabelValues(metrics.ReasonStorage).Inc()
	}
}

func (s *PostService) Get(ctx context.Context, id string) (*post.Post, error) {
	return s.repo.Get(ctx, id)
}

func (s *PostService) List(ctx context.Context, q post.Query) ([]*post.Post, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	return post.Filter(all, q), nil
}

func (s *PostService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	metrics.PostsDeleted.Inc()
	logger.Infof("post %s deleted", id)
	return nil
}

func (s *PostService) Tags(ctx context.Context) ([]string, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	return post.Tags(all), nil
}

func (s *PostService) Stats(ctx context.Context) (post.Stats, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return post.Stats{}, err
	}
	return post.Summarize(all), nil
}

func (s *PostService) OpenImage(ctx context.Context, name string) (io.ReadCloser, storage.Info, error) {
	if s.blobs == nil {
		return nil, storage.Info{}, storage.ErrNotFound
	}
	return s.blobs.Open(ctx, name)
}

func (s *PostService) Seed(ctx context.Context, in post.Input, at time.Time) (*post.Post, error) {
	p, err := s.pipeline.IngestAt(ctx, in, at)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Insert(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

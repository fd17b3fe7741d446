// Package seed loads sample posts from YAML and feeds them either to a
// local service or to a running API.
package seed

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/inkpress/inkpress/backend/blog-service/internal/post"
	"github.com/inkpress/inkpress/backend/blog-service/pkg/logger"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

//go:embed sample.yaml
var sample []byte

// Entry is one post in a seed file.
type Entry struct {
	Title       string    `yaml:"title"`
	Content     string    `yaml:"content"`
	Author      string    `yaml:"author"`
	Tags        []string  `yaml:"tags"`
	PublishedAt time.Time `yaml:"publishedAt"`
	ImageURL    string    `yaml:"imageUrl"`
}

type file struct {
	Posts []Entry `yaml:"posts"`
}

// Input converts e into pipeline input.
func (e Entry) Input() post.Input {
	return post.Input{
		Title:    e.Title,
		Content:  e.Content,
		Author:   e.Author,
		Tags:     append([]string{}, e.Tags...),
		ImageURL: e.ImageURL,
	}
}

// Parse decodes a seed document.
func Parse(data []byte) ([]Entry, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse seed: %w", err)
	}
	return f.Posts, nil
}

// Sample returns the built-in sample posts.
func Sample() ([]Entry, error) {
	return Parse(sample)
}

// Load reads and parses a seed file from fsys.
func Load(fsys afero.Fs, path string) ([]Entry, error) {
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("read seed %s: %w", path, err)
	}
	return Parse(data)
}

// Seeder stores a post with a given publication time.
type Seeder interface {
	Seed(ctx context.Context, in post.Input, at time.Time) (*post.Post, error)
}

// Apply stores every entry through s. Entries without a publication time
// are published now. It stops at the first failure.
func Apply(ctx context.Context, s Seeder, entries []Entry) (int, error) {
	for i, e := range entries {
		at := e.PublishedAt
		if at.IsZero() {
			at = time.Now()
		}
		p, err := s.Seed(ctx, e.Input(), at)
		if err != nil {
			return i, fmt.Errorf("seed entry %d (%q): %w", i, e.Title, err)
		}
		logger.Debugf("seeded post %s %q", p.ID, p.Title)
	}
	return len(entries), nil
}

// Push submits entries to a running API as multipart forms, the same way
// the browser client does. Publication times are assigned by the server.
func Push(ctx context.Context, client *http.Client, baseURL string, entries []Entry) (int, error) {
	endpoint := strings.TrimRight(baseURL, "/") + "/api/posts"
	for i, e := range entries {
		body, contentType, err := encodeForm(e)
		if err != nil {
			return i, err
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
		if err != nil {
			return i, err
		}
		req.Header.Set("Content-Type", contentType)
		resp, err := client.Do(req)
		if err != nil {
			return i, fmt.Errorf("push %q: %w", e.Title, err)
		}
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		resp.Body.Close()
		if resp.StatusCode != http.StatusCreated {
			return i, fmt.Errorf("push %q: %s: %s", e.Title, resp.Status, bytes.TrimSpace(msg))
		}
	}
	return len(entries), nil
}

func encodeForm(e Entry) (io.Reader, string, error) {
	tags := e.Tags
	if tags == nil {
		tags = []string{}
	}
	rawTags, err := json.Marshal(tags)
	if err != nil {
		return nil, "", err
	}
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, f := range [][2]string{{"title", e.Title}, {"content", e.Content}, {"author", e.Author}, {"tags", string(rawTags)}} {
		if err := mw.WriteField(f[0], f[1]); err != nil {
			return nil, "", err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return &buf, mw.FormDataContentType(), nil
}

package repository

import (
	"context"
	"slices"
	"sort"
	"strconv"
	"sync"

	"github.com/inkpress/inkpress/backend/blog-service/internal/post"
)

// MemoryRepo keeps posts in insertion order in process memory. A single
// RWMutex guards the slice and the id counter: mutations are serialized,
// reads may overlap each other.
type MemoryRepo struct {
	mu    sync.RWMutex
	posts []*post.Post
	next  int
}

var _ Repository = (*MemoryRepo)(nil)

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{}
}

func (m *MemoryRepo) NextID(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.next++
	return strconv.Itoa(m.next), nil
}

// Insert appends p. Uniqueness of p.ID is the caller's concern.
func (m *MemoryRepo) Insert(ctx context.Context, p *post.Post) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.posts = append(m.posts, p.Clone())
	return nil
}

func (m *MemoryRepo) Get(ctx context.Context, id string) (*post.Post, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if i := m.indexOf(id); i >= 0 {
		return m.posts[i].Clone(), nil
	}
	return nil, post.ErrNotFound
}

func (m *MemoryRepo) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.indexOf(id)
	if i < 0 {
		return post.ErrNotFound
	}
	m.posts = slices.Delete(m.posts, i, i+1)
	return nil
}

func (m *MemoryRepo) List(ctx context.Context) ([]*post.Post, error) {
	m.mu.RLock()
	out := make([]*post.Post, 0, len(m.posts))
	for _, p := range m.posts {
		out = append(out, p.Clone())
	}
	m.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].PublishedAt.After(out[j].PublishedAt)
	})
	return out, nil
}

// Len reports how many posts are stored.
func (m *MemoryRepo) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.posts)
}

// caller holds mu
func (m *MemoryRepo) indexOf(id string) int {
	return slices.IndexFunc(m.posts, func(p *post.Post) bool { return p.ID == id })
}

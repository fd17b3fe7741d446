package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/inkpress/inkpress/backend/blog-service/internal/post"
	"github.com/stretchr/testify/require"
)

func day(d int) time.Time { return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC) }

func listIDs(t *testing.T, r Repository) []string {
	t.Helper()
	list, err := r.List(context.Background())
	require.NoError(t, err)
	out := make([]string, 0, len(list))
	for _, p := range list {
		out = append(out, p.ID)
	}
	return out
}

func TestMemoryRepoCRUD(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepo()

	id, err := r.NextID(ctx)
	require.NoError(t, err)
	require.Equal(t, "1", id)

	p := &post.Post{ID: id, Title: "t", Content: "hello", Author: "a", Tags: []string{"go"}, PublishedAt: day(1)}
	require.NoError(t, r.Insert(ctx, p))

	got, err := r.Get(ctx, id)
	require.NoError(t, err)
	require.Equal(t, "hello", got.Content)

	// stored records are not aliased by callers
	p.Tags[0] = "changed"
	got.Title = "changed"
	again, err := r.Get(ctx, id)
	require.NoError(t, err)
	require.Equal(t, "t", again.Title)
	require.Equal(t, []string{"go"}, again.Tags)

	require.NoError(t, r.Delete(ctx, id))
	_, err = r.Get(ctx, id)
	require.ErrorIs(t, err, post.ErrNotFound)
	require.Equal(t, 0, r.Len())
}

func TestMemoryRepo_ListNewestFirst(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepo()
	require.NoError(t, r.Insert(ctx, &post.Post{ID: "a", PublishedAt: day(1)}))
	require.NoError(t, r.Insert(ctx, &post.Post{ID: "b", PublishedAt: day(2)}))
	require.NoError(t, r.Insert(ctx, &post.Post{ID: "c", PublishedAt: day(3)}))
	require.Equal(t, []string{"c", "b", "a"}, listIDs(t, r))
}

func TestMemoryRepo_ListKeepsInsertionOrderOnTies(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepo()
	for _, id := range []string{"x", "y", "z"} {
		require.NoError(t, r.Insert(ctx, &post.Post{ID: id, PublishedAt: day(5)}))
	}
	require.NoError(t, r.Insert(ctx, &post.Post{ID: "old", PublishedAt: day(1)}))
	require.NoError(t, r.Insert(ctx, &post.Post{ID: "new", PublishedAt: day(9)}))
	require.Equal(t, []string{"new", "x", "y", "z", "old"}, listIDs(t, r))
}

func TestMemoryRepo_DeleteUnknownLeavesOthers(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepo()
	for i, id := range []string{"1", "2", "3"} {
		require.NoError(t, r.Insert(ctx, &post.Post{ID: id, PublishedAt: day(i + 1)}))
	}

	require.ErrorIs(t, r.Delete(ctx, "42"), post.ErrNotFound)
	require.Equal(t, []string{"3", "2", "1"}, listIDs(t, r))

	require.NoError(t, r.Delete(ctx, "2"))
	require.Equal(t, []string{"3", "1"}, listIDs(t, r))
	require.ErrorIs(t, r.Delete(ctx, "2"), post.ErrNotFound)
}

func TestMemoryRepo_ConcurrentIDsAreUnique(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepo()

	const n = 200
	var wg sync.WaitGroup
	ids := make(chan string, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, err := r.NextID(ctx)
			if err != nil {
				return
			}
			_ = r.Insert(ctx, &post.Post{ID: id, PublishedAt: time.Now()})
			ids <- id
		}()
	}
	wg.Wait()
	close(ids)

	seen := map[string]bool{}
	for id := range ids {
		require.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
	require.Len(t, seen, n)
	require.Equal(t, n, r.Len())
}

package post

import (
	"slices"
	"sort"
	"strings"
)

// Filter returns the posts matching both the search term and the selected
// tag, in input order. The input slice is not modified.
func Filter(posts []*Post, q Query) []*Post {
	term := strings.ToLower(q.Search)
	out := make([]*Post, 0, len(posts))
	for _, p := range posts {
		if matchesSearch(p, term) && matchesTag(p, q.Tag) {
			out = append(out, p)
		}
	}
	return out
}

func matchesSearch(p *Post, term string) bool {
	if term == "" {
		return true
	}
	return strings.Contains(strings.ToLower(p.Title), term) ||
		strings.Contains(strings.ToLower(p.Content), term) ||
		strings.Contains(strings.ToLower(p.Author), term)
}

// tag match is exact and case-sensitive
func matchesTag(p *Post, tag string) bool {
	return tag == "" || slices.Contains(p.Tags, tag)
}

// Tags returns the sorted set of tags used across posts.
func Tags(posts []*Post) []string {
	seen := map[string]struct{}{}
	for _, p := range posts {
		for _, t := range p.Tags {
			seen[t] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for t := range seen {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Summarize counts posts, distinct topics and total minutes of reading.
func Summarize(posts []*Post) Stats {
	s := Stats{Posts: len(posts), Topics: len(Tags(posts))}
	for _, p := range posts {
		s.Minutes += p.ReadTime
	}
	return s
}

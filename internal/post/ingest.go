package post

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

const (
	// ExcerptLimit is the longest excerpt (in characters) built from whole sentences.
	ExcerptLimit = 200
	// WordsPerMinute is the reading speed used for read-time estimates.
	WordsPerMinute = 200

	sentenceSep = ". "
	ellipsis    = "..."
)

// markdown emphasis, heading and link glyphs dropped before building an excerpt
var markdownStripper = strings.NewReplacer("#", "", "*", "", "`", "", "_", "", "[", "", "]", "")

var validate = validator.New()

// Sequence hands out post identifiers. Implementations must never return
// the same id twice for the lifetime of a store.
type Sequence interface {
	NextID(ctx context.Context) (string, error)
}

// Pipeline turns raw submitted fields into a Post. It never persists
// anything; storing the result is the caller's job.
type Pipeline struct {
	ids Sequence
	now func() time.Time
}

// NewPipeline returns a pipeline drawing ids from ids. A nil now uses time.Now.
func NewPipeline(ids Sequence, now func() time.Time) *Pipeline {
	if now == nil {
		now = time.Now
	}
	return &Pipeline{ids: ids, now: now}
}

// Check validates in without assigning an id.
func (p *Pipeline) Check(in Input) error {
	if err := Validate(in); err != nil {
		return err
	}
	_, err := normalizeTags(in)
	return err
}

// Ingest builds a new Post published now.
func (p *Pipeline) Ingest(ctx context.Context, in Input) (*Post, error) {
	return p.IngestAt(ctx, in, p.now())
}

// IngestAt builds a new Post with an explicit publication time.
func (p *Pipeline) IngestAt(ctx context.Context, in Input, at time.Time) (*Post, error) {
	if err := Validate(in); err != nil {
		return nil, err
	}
	tags, err := normalizeTags(in)
	if err != nil {
		return nil, err
	}
	id, err := p.ids.NextID(ctx)
	if err != nil {
		return nil, fmt.Errorf("assign id: %w", err)
	}
	return &Post{
		ID:          id,
		Title:       in.Title,
		Content:     in.Content,
		Excerpt:     GenerateExcerpt(in.Content),
		Author:      in.Author,
		PublishedAt: at.UTC().Truncate(time.Millisecond),
		ReadTime:    CalculateReadTime(in.Content),
		Tags:        tags,
		ImageURL:    in.ImageURL,
	}, nil
}

// Validate fails with a *ValidationError when title, content or author is
// empty after trimming. Values are not otherwise modified or sanitized.
func Validate(in Input) error {
	trimmed := Input{
		Title:   strings.TrimSpace(in.Title),
		Content: strings.TrimSpace(in.Content),
		Author:  strings.TrimSpace(in.Author),
	}
	err := validate.Struct(trimmed)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	ve := &ValidationError{}
	for _, fe := range fieldErrs {
		ve.Fields = append(ve.Fields, strings.ToLower(fe.Field()))
	}
	return ve
}

// GenerateExcerpt strips markdown glyphs and keeps as many leading
// sentences as fit in ExcerptLimit characters. The first sentence is always
// kept whole. A "..." suffix marks a truncated excerpt.
func GenerateExcerpt(content string) string {
	plain := strings.TrimSpace(markdownStripper.Replace(content))
	sentences := strings.Split(plain, sentenceSep)

	var b strings.Builder
	b.WriteString(sentences[0])
	n := utf8.RuneCountInString(sentences[0])
	for _, s := range sentences[1:] {
		next := n + len(sentenceSep) + utf8.RuneCountInString(s)
		if next > ExcerptLimit {
			break
		}
		b.WriteString(sentenceSep)
		b.WriteString(s)
		n = next
	}

	if n < utf8.RuneCountInString(plain) {
		b.WriteString(ellipsis)
	}
	return b.String()
}

// CalculateReadTime estimates minutes needed to read content, never less than one.
func CalculateReadTime(content string) int {
	words := len(strings.Fields(content))
	minutes := (words + WordsPerMinute - 1) / WordsPerMinute
	if minutes < 1 {
		return 1
	}
	return minutes
}

// ParseTags decodes the serialized tag form: a JSON array of strings.
// An empty string or JSON null means no tags.
func ParseTags(raw string) ([]string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return []string{}, nil
	}
	var tags []string
	if err := json.Unmarshal([]byte(raw), &tags); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedTags, err)
	}
	if tags == nil {
		tags = []string{}
	}
	return tags, nil
}

func normalizeTags(in Input) ([]string, error) {
	if in.TagsJSON != "" {
		return ParseTags(in.TagsJSON)
	}
	return append(make([]string, 0, len(in.Tags)), in.Tags...), nil
}

// TagList decodes either a native JSON array or a string holding one.
type TagList []string

func (t *TagList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			return fmt.Errorf("%w: %v", ErrMalformedTags, err)
		}
		tags, err := ParseTags(raw)
		if err != nil {
			return err
		}
		*t = tags
		return nil
	}
	var tags []string
	if err := json.Unmarshal(data, &tags); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedTags, err)
	}
	*t = tags
	return nil
}

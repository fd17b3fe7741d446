package post

import "time"

// Post is a published blog post. Posts are never edited after creation;
// they are only read or deleted.
type Post struct {
	ID          string    `json:"id" bson:"id"`
	Title       string    `json:"title" bson:"title"`
	Content     string    `json:"content" bson:"content"`
	Excerpt     string    `json:"excerpt" bson:"excerpt"`
	Author      string    `json:"author" bson:"author"`
	PublishedAt time.Time `json:"publishedAt" bson:"publishedAt"`
	ReadTime    int       `json:"readTime" bson:"readTime"`
	Tags        []string  `json:"tags" bson:"tags"`
	ImageURL    string    `json:"imageUrl,omitempty" bson:"imageUrl,omitempty"`
}

// Clone returns a deep copy so callers can't alias a stored record.
func (p *Post) Clone() *Post {
	if p == nil {
		return nil
	}
	cp := *p
	cp.Tags = append(make([]string, 0, len(p.Tags)), p.Tags...)
	return &cp
}

// Input carries the raw fields submitted for a new post.
type Input struct {
	Title   string `validate:"required"`
	Content string `validate:"required"`
	Author  string `validate:"required"`
	// Tags is the native list form.
	Tags []string
	// TagsJSON is the serialized form (a JSON array inside a string).
	// When set it takes precedence over Tags.
	TagsJSON string
	// ImageURL references an already stored image; empty means none.
	ImageURL string
}

// Query narrows a listing. An empty Tag selects every tag.
type Query struct {
	Search string
	Tag    string
}

// Stats summarises a listing the way the home page shows it.
type Stats struct {
	Posts   int `json:"posts"`
	Topics  int `json:"topics"`
	Minutes int `json:"minutes"`
}

package content

import (
	"io"
	"time"
)

type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
	StatusArchived  Status = "archived"
	StatusScheduled Status = "scheduled"
)

func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusPublished, StatusArchived, StatusScheduled:
		return true
	}
	return false
}

type Author struct {
	Name   string            `json:"name"`
	Avatar string            `json:"avatar,omitempty"`
	Bio    string            `json:"bio,omitempty"`
	URL    string            `json:"url,omitempty"`
	Social map[string]string `json:"social,omitempty"`
}

// Metadata is validated front matter. Empty strings and zero values stand for
// absent optional fields.
type Metadata struct {
	Title   string   `json:"title"`
	Date    string   `json:"date"`
	Excerpt string   `json:"excerpt"`
	Slug    string   `json:"slug"`
	Tags    []string `json:"tags"`

	Author       *Author `json:"author,omitempty"`
	CoverImage   string  `json:"coverImage,omitempty"`
	CanonicalURL string  `json:"canonicalUrl,omitempty"`
	Featured     bool    `json:"featured,omitempty"`
	ReadingTime  float64 `json:"readingTime,omitempty"`
	LastUpdated  string  `json:"lastUpdated,omitempty"`
	Draft        bool    `json:"draft,omitempty"`
	Status       Status  `json:"status,omitempty"`

	// set by the repository, never authored
	DevelopmentOnly bool `json:"isDevelopmentOnly,omitempty"`
}

// Published returns the parsed post date, or the zero time if Date is empty.
func (m Metadata) Published() time.Time {
	t, err := time.Parse(time.DateOnly, m.Date)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Hidden reports whether production visibility rules exclude the post.
func (m Metadata) Hidden() bool {
	return m.Draft || (m.Status != "" && m.Status != StatusPublished)
}

func (m Metadata) AuthorName() string {
	if m.Author == nil {
		return ""
	}
	return m.Author.Name
}

type Heading struct {
	Level int    `json:"level"`
	ID    string `json:"id"`
	Text  string `json:"text"`
}

// Body is the renderable half of a post, owned by whichever adapter loaded it.
type Body interface {
	Render(w io.Writer) error
	Headings() []Heading
}

type Preview struct {
	Slug string   `json:"slug"`
	Meta Metadata `json:"frontmatter"`
}

type Post struct {
	Preview
	Body Body `json:"-"`
}

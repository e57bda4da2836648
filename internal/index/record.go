package index

import (
	"encoding/json"
	"fmt"
	"folio/internal/domain/content"
	"os"
	"path/filepath"
)

// DefaultReadingTime is used when a post carries no reading time.
const DefaultReadingTime = 5

// Record is what the social preview responder needs to know about a post.
type Record struct {
	Title       string   `json:"title"`
	Excerpt     string   `json:"excerpt"`
	CoverImage  *string  `json:"coverImage"`
	Date        string   `json:"date"`
	Author      string   `json:"author"`
	Tags        []string `json:"tags"`
	ReadingTime float64  `json:"readingTime"`
}

// BuildRecords keys records by front matter slug. Hidden posts are left out
// and the first preview wins when two share a slug.
func BuildRecords(previews []content.Preview, defaultAuthor string) map[string]Record {
	out := make(map[string]Record, len(previews))
	for _, p := range previews {
		m := p.Meta
		if m.Hidden() {
			continue
		}
		slug := m.Slug
		if slug == "" {
			slug = p.Slug
		}
		if _, dup := out[slug]; dup {
			continue
		}

		r := Record{
			Title:       m.Title,
			Excerpt:     m.Excerpt,
			Date:        m.Date,
			Author:      m.AuthorName(),
			Tags:        append([]string{}, m.Tags...),
			ReadingTime: m.ReadingTime,
		}
		if m.CoverImage != "" {
			cover := m.CoverImage
			r.CoverImage = &cover
		}
		if r.Author == "" {
			r.Author = defaultAuthor
		}
		if r.ReadingTime <= 0 {
			r.ReadingTime = DefaultReadingTime
		}
		out[slug] = r
	}
	return out
}

func WriteJSON(path string, records map[string]Record) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", filepath.Dir(path), err)
	}
	b, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, append(b, '\n'), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

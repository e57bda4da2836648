package schema

import (
	"folio/internal/domain/content"
	domainerr "folio/internal/domain/errors"
	"math"
	"regexp"
	"sort"
	"strings"
	"time"
)

var (
	datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	slugPattern = regexp.MustCompile(`^[a-z0-9-]+$`)
)

// Validate turns raw front matter into Metadata. The first violated rule
// aborts validation and is returned as a *errors.FrontmatterError.
func Validate(raw map[string]any) (content.Metadata, error) {
	var (
		m   content.Metadata
		err error
	)
	if m.Title, err = requiredString(raw["title"], "title"); err != nil {
		return content.Metadata{}, err
	}
	if m.Date, err = dateString(raw["date"], "date"); err != nil {
		return content.Metadata{}, err
	}
	if m.Excerpt, err = requiredString(raw["excerpt"], "excerpt"); err != nil {
		return content.Metadata{}, err
	}
	if m.Slug, err = slug(raw["slug"], "slug"); err != nil {
		return content.Metadata{}, err
	}
	if m.Tags, err = tags(raw["tags"], "tags"); err != nil {
		return content.Metadata{}, err
	}
	if m.Author, err = author(raw["author"], "author"); err != nil {
		return content.Metadata{}, err
	}
	if m.CoverImage, err = optionalString(raw["coverImage"], "coverImage"); err != nil {
		return content.Metadata{}, err
	}
	if m.CanonicalURL, err = optionalString(raw["canonicalUrl"], "canonicalUrl"); err != nil {
		return content.Metadata{}, err
	}
	if m.Featured, err = optionalBool(raw["featured"], "featured"); err != nil {
		return content.Metadata{}, err
	}
	if m.ReadingTime, err = optionalNumber(raw["readingTime"], "readingTime"); err != nil {
		return content.Metadata{}, err
	}
	if Present(raw["lastUpdated"]) {
		if m.LastUpdated, err = dateString(raw["lastUpdated"], "lastUpdated"); err != nil {
			return content.Metadata{}, err
		}
	}
	if m.Draft, err = optionalBool(raw["draft"], "draft"); err != nil {
		return content.Metadata{}, err
	}
	if m.Status, err = status(raw["status"], "status"); err != nil {
		return content.Metadata{}, err
	}
	return m, nil
}

// IsSlug reports whether s only uses lowercase letters, digits and hyphens.
func IsSlug(s string) bool {
	return slugPattern.MatchString(s)
}

// Present mirrors a truthiness check: nil, false, zero and "" count as absent.
func Present(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case string:
		return x != ""
	case bool:
		return x
	}
	if f, ok := number(v); ok {
		return f != 0 && !math.IsNaN(f)
	}
	return true
}

func requiredString(v any, field string) (string, error) {
	s, ok := v.(string)
	if !ok || strings.TrimSpace(s) == "" {
		return "", domainerr.NewFrontmatterError(field, "is required and must be a non-empty string")
	}
	return strings.TrimSpace(s), nil
}

func dateString(v any, field string) (string, error) {
	s, err := requiredString(v, field)
	if err != nil {
		return "", err
	}
	if !datePattern.MatchString(s) {
		return "", domainerr.NewFrontmatterError(field, "must be in YYYY-MM-DD format")
	}
	if _, err := time.Parse(time.DateOnly, s); err != nil {
		return "", domainerr.NewFrontmatterError(field, "is not a valid date")
	}
	return s, nil
}

func slug(v any, field string) (string, error) {
	s, err := requiredString(v, field)
	if err != nil {
		return "", err
	}
	if !IsSlug(s) {
		return "", domainerr.NewFrontmatterError(field, "must contain only lowercase letters, numbers, and hyphens")
	}
	return s, nil
}

func tags(v any, field string) ([]string, error) {
	list, ok := v.([]any)
	if !ok {
		if ss, isStrings := v.([]string); isStrings {
			list = make([]any, len(ss))
			for i, s := range ss {
				list[i] = s
			}
		} else {
			return []string{}, nil
		}
	}
	out := make([]string, 0, len(list))
	for i, item := range list {
		s, ok := item.(string)
		if !ok || strings.TrimSpace(s) == "" {
			return nil, domainerr.NewFrontmatterIndexError(field, i, "must be a non-empty string")
		}
		out = append(out, strings.TrimSpace(s))
	}
	return out, nil
}

func optionalString(v any, field string) (string, error) {
	if v == nil {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", domainerr.NewFrontmatterError(field, "must be a string if provided")
	}
	return strings.TrimSpace(s), nil
}

func optionalBool(v any, field string) (bool, error) {
	if v == nil {
		return false, nil
	}
	b, ok := v.(bool)
	if !ok {
		return false, domainerr.NewFrontmatterError(field, "must be a boolean if provided")
	}
	return b, nil
}

func optionalNumber(v any, field string) (float64, error) {
	if v == nil {
		return 0, nil
	}
	f, ok := number(v)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, domainerr.NewFrontmatterError(field, "must be a number if provided")
	}
	return f, nil
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

func status(v any, field string) (content.Status, error) {
	s, err := optionalString(v, field)
	if err != nil || s == "" {
		return "", err
	}
	st := content.Status(s)
	if !st.Valid() {
		return "", domainerr.NewFrontmatterError(field, "must be one of draft, published, archived, scheduled")
	}
	return st, nil
}

func author(v any, field string) (*content.Author, error) {
	switch a := v.(type) {
	case nil:
		return nil, nil
	case string:
		name := strings.TrimSpace(a)
		if name == "" {
			return nil, nil
		}
		return &content.Author{Name: name}, nil
	}

	fields, ok := stringMap(v)
	if !ok {
		return nil, domainerr.NewFrontmatterError(field, "must be a string or an object with a name")
	}
	name, err := requiredString(fields["name"], field+".name")
	if err != nil {
		return nil, err
	}
	out := &content.Author{Name: name}
	if out.Avatar, err = optionalString(fields["avatar"], field+".avatar"); err != nil {
		return nil, err
	}
	if out.Bio, err = optionalString(fields["bio"], field+".bio"); err != nil {
		return nil, err
	}
	if out.URL, err = optionalString(fields["url"], field+".url"); err != nil {
		return nil, err
	}
	if raw, ok := fields["social"]; ok && raw != nil {
		social, ok := stringMap(raw)
		if !ok {
			return nil, domainerr.NewFrontmatterError(field+".social", "must be an object if provided")
		}
		keys := make([]string, 0, len(social))
		for k := range social {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out.Social = make(map[string]string, len(social))
		for _, k := range keys {
			s, err := optionalString(social[k], field+".social."+k)
			if err != nil {
				return nil, err
			}
			if s != "" {
				out.Social[k] = s
			}
		}
	}
	return out, nil
}

// stringMap accepts mappings from both yaml.v3 (string keys) and yaml.v2
// style decoders (interface keys).
func stringMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, val := range m {
			ks, ok := k.(string)
			if !ok {
				return nil, false
			}
			out[ks] = val
		}
		return out, true
	}
	return nil, false
}

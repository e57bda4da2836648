package blog

import (
	"folio/internal/domain/content"
	"golang.org/x/text/cases"
	"sort"
	"strings"
)

type TagStat struct {
	Tag   string `json:"tag"`
	Label string `json:"label"`
	Count int    `json:"count"`
}

// TagStats counts posts per case-folded tag. A post counts once per tag no
// matter how many spellings of it the post carries. The label is the first
// spelling seen.
func TagStats(previews []content.Preview) []TagStat {
	fold := cases.Fold()
	idx := map[string]int{}
	var stats []TagStat

	for _, p := range previews {
		own := map[string]struct{}{}
		for _, tag := range p.Meta.Tags {
			label := strings.TrimSpace(tag)
			key := fold.String(label)
			if key == "" {
				continue
			}
			if _, ok := own[key]; ok {
				continue
			}
			own[key] = struct{}{}

			if i, ok := idx[key]; ok {
				stats[i].Count++
				continue
			}
			idx[key] = len(stats)
			stats = append(stats, TagStat{Tag: key, Label: label, Count: 1})
		}
	}

	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Count != stats[j].Count {
			return stats[i].Count > stats[j].Count
		}
		return stats[i].Tag < stats[j].Tag
	})
	if stats == nil {
		stats = []TagStat{}
	}
	return stats
}

// Popular picks up to limit posts. Curated slugs win when any of them still
// exist; otherwise featured posts come first, then the rest, newest first.
func Popular(previews []content.Preview, limit int, curated []string) []content.Preview {
	out := []content.Preview{}
	if limit <= 0 {
		return out
	}

	if len(curated) > 0 {
		bySlug := make(map[string]content.Preview, len(previews))
		for _, p := range previews {
			if _, ok := bySlug[p.Slug]; !ok {
				bySlug[p.Slug] = p
			}
		}
		picked := map[string]struct{}{}
		for _, slug := range curated {
			p, ok := bySlug[slug]
			if !ok {
				continue
			}
			if _, dup := picked[slug]; dup {
				continue
			}
			picked[slug] = struct{}{}
			out = append(out, p)
			if len(out) == limit {
				break
			}
		}
		if len(out) > 0 {
			return out
		}
	}

	var featured, rest []content.Preview
	for _, p := range previews {
		if p.Meta.Date == "" {
			continue
		}
		if p.Meta.Featured {
			featured = append(featured, p)
		} else {
			rest = append(rest, p)
		}
	}
	byDate := func(s []content.Preview) {
		sort.SliceStable(s, func(i, j int) bool { return s[i].Meta.Date > s[j].Meta.Date })
	}
	byDate(featured)
	byDate(rest)

	seen := map[string]struct{}{}
	for _, p := range append(featured, rest...) {
		if _, dup := seen[p.Slug]; dup {
			continue
		}
		seen[p.Slug] = struct{}{}
		out = append(out, p)
		if len(out) == limit {
			break
		}
	}
	return out
}

// Recent returns the first limit previews, which are newest first when they
// come from ListPreviews.
func Recent(previews []content.Preview, limit int) []content.Preview {
	if limit <= 0 {
		return []content.Preview{}
	}
	if limit > len(previews) {
		limit = len(previews)
	}
	return append([]content.Preview{}, previews[:limit]...)
}

// FilterByTag keeps previews carrying tag in any casing. An empty tag keeps
// everything.
func FilterByTag(previews []content.Preview, tag string) []content.Preview {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return previews
	}
	fold := cases.Fold()
	want := fold.String(tag)

	out := []content.Preview{}
	for _, p := range previews {
		for _, t := range p.Meta.Tags {
			if fold.String(strings.TrimSpace(t)) == want {
				out = append(out, p)
				break
			}
		}
	}
	return out
}

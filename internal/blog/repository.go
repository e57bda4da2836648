package blog

import (
	"context"
	"errors"
	"fmt"
	"folio/internal/domain/content"
	"folio/internal/schema"
	"folio/internal/source"
	"golang.org/x/sync/singleflight"
	"log"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

type Options struct {
	// Production hides drafts and unpublished posts from every call.
	Production bool
	Logger     *log.Logger
	// LoadTimeout bounds each call into the source. Zero means no bound.
	LoadTimeout time.Duration
}

// Repository loads posts from a source, validates them and caches the
// preview list. Single post lookups always go back to the source.
type Repository struct {
	src source.Source
	opt Options
	log *log.Logger

	group singleflight.Group

	mu     sync.RWMutex
	gen    uint64
	loaded bool
	cache  []content.Preview
}

func New(src source.Source, opt Options) *Repository {
	lg := opt.Logger
	if lg == nil {
		lg = log.Default()
	}
	return &Repository{src: src, opt: opt, log: lg}
}

func (r *Repository) Production() bool { return r.opt.Production }

// Reset drops the cached preview list. A load already in flight will not
// repopulate it.
func (r *Repository) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gen++
	r.loaded = false
	r.cache = nil
}

// ListPreviews returns every valid post, newest first. Hidden posts are
// dropped in production or when forceProduction is set, and flagged as
// development only otherwise.
func (r *Repository) ListPreviews(ctx context.Context, forceProduction bool) ([]content.Preview, error) {
	all, err := r.previews(ctx)
	if err != nil {
		return nil, err
	}
	return visible(all, r.opt.Production || forceProduction), nil
}

func (r *Repository) cached() ([]content.Preview, uint64, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.cache, r.gen, r.loaded
}

func (r *Repository) previews(ctx context.Context) ([]content.Preview, error) {
	list, gen, ok := r.cached()
	if ok {
		return list, nil
	}

	// The shared load must not die with whichever caller started it.
	loadCtx := context.WithoutCancel(ctx)
	ch := r.group.DoChan("previews/"+strconv.FormatUint(gen, 10), func() (any, error) {
		if list, _, ok := r.cached(); ok {
			return list, nil
		}
		list, err := r.load(loadCtx)
		if err != nil {
			return nil, err
		}
		r.mu.Lock()
		if r.gen == gen {
			r.cache = list
			r.loaded = true
		}
		r.mu.Unlock()
		return list, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]content.Preview), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (r *Repository) load(ctx context.Context) ([]content.Preview, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	units, err := r.src.Enumerate(ctx)
	if err != nil {
		return nil, fmt.Errorf("enumerate content: %w", err)
	}

	seen := make(map[string]struct{}, len(units))
	out := make([]content.Preview, 0, len(units))
	for _, u := range units {
		if !source.ValidID(u.ID) {
			r.log.Printf("[blog] skip %q: identifier is not a valid slug", u.ID)
			continue
		}
		// the first unit claims its ID even when invalid, since Load
		// resolves the ID to that same unit
		if _, dup := seen[u.ID]; dup {
			r.log.Printf("[blog] skip duplicate post %q", u.ID)
			continue
		}
		seen[u.ID] = struct{}{}

		meta, err := prepare(u)
		if err != nil {
			r.log.Printf("[blog] skip %s: %v", u.ID, err)
			continue
		}
		out = append(out, content.Preview{Slug: u.ID, Meta: meta})
	}

	// validated dates are YYYY-MM-DD, so string order is date order
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Meta.Date > out[j].Meta.Date
	})
	return out, nil
}

// GetBySlug loads one post straight from the source. A missing, corrupt,
// invalid or hidden post yields ok == false with a nil error; err is only
// set when the source itself fails.
func (r *Repository) GetBySlug(ctx context.Context, slug string) (content.Post, bool, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	u, err := r.src.Load(ctx, slug)
	if errors.Is(err, source.ErrNotFound) {
		return content.Post{}, false, nil
	}
	if err != nil {
		return content.Post{}, false, fmt.Errorf("load %s: %w", slug, err)
	}
	if u.ID == "" {
		u.ID = slug
	}
	if u.Err == nil && u.Body == nil {
		r.log.Printf("[blog] %s has no content body", slug)
		return content.Post{}, false, nil
	}

	meta, err := prepare(u)
	if err != nil {
		r.log.Printf("[blog] invalid post %s: %v", slug, err)
		return content.Post{}, false, nil
	}
	if meta.Hidden() {
		if r.opt.Production {
			return content.Post{}, false, nil
		}
		meta.DevelopmentOnly = true
	}
	return content.Post{
		Preview: content.Preview{Slug: slug, Meta: meta},
		Body:    u.Body,
	}, true, nil
}

func (r *Repository) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.opt.LoadTimeout > 0 {
		return context.WithTimeout(ctx, r.opt.LoadTimeout)
	}
	return context.WithCancel(ctx)
}

// prepare fills in the derived slug and reading time, then validates.
func prepare(u source.Unit) (content.Metadata, error) {
	if u.Err != nil {
		return content.Metadata{}, u.Err
	}
	raw := make(map[string]any, len(u.Meta)+2)
	for k, v := range u.Meta {
		raw[k] = v
	}
	if !schema.Present(raw["slug"]) {
		raw["slug"] = u.ID
	}
	if !schema.Present(raw["readingTime"]) {
		raw["readingTime"] = schema.ReadingTime(bodyText(u))
	}
	return schema.Validate(raw)
}

// bodyText prefers the text the source supplied, then the body's own prose.
func bodyText(u source.Unit) string {
	if strings.TrimSpace(u.Text) != "" {
		return u.Text
	}
	if t, ok := u.Body.(interface{ Text() string }); ok {
		return t.Text()
	}
	return ""
}

func visible(all []content.Preview, production bool) []content.Preview {
	out := make([]content.Preview, 0, len(all))
	for _, p := range all {
		hidden := p.Meta.Hidden()
		if production && hidden {
			continue
		}
		p = clonePreview(p)
		p.Meta.DevelopmentOnly = !production && hidden
		out = append(out, p)
	}
	return out
}

// clonePreview copies the slices and pointers a caller could mutate.
func clonePreview(p content.Preview) content.Preview {
	p.Meta.Tags = append([]string{}, p.Meta.Tags...)
	if p.Meta.Author != nil {
		a := *p.Meta.Author
		if a.Social != nil {
			social := make(map[string]string, len(a.Social))
			for k, v := range a.Social {
				social[k] = v
			}
			a.Social = social
		}
		p.Meta.Author = &a
	}
	return p
}

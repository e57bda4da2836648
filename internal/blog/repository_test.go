package blog

import (
	"bytes"
	"context"
	"errors"
	"folio/internal/domain/content"
	"folio/internal/render"
	"folio/internal/source"
	fssource "folio/internal/source/fs"
	"folio/internal/source/memory"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func doc(fields ...string) []byte {
	return []byte("---\n" + strings.Join(fields, "\n") + "\n---\nSome words here.\n")
}

func validDoc(title, date string, extra ...string) []byte {
	fields := append([]string{"title: " + title, "date: " + date, "excerpt: about " + title}, extra...)
	return doc(fields...)
}

func newTestRepo(t *testing.T, src source.Source, production bool) (*Repository, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	return New(src, Options{Production: production, Logger: log.New(&buf, "", 0)}), &buf
}

func slugs(ps []content.Preview) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.Slug
	}
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestListPreviewsSortsByDateDescending(t *testing.T) {
	src := memory.New()
	src.PutDocument("jan", validDoc("Jan", "2024-01-01"))
	src.PutDocument("mar", validDoc("Mar", "2024-03-01"))
	src.PutDocument("feb", validDoc("Feb", "2024-02-01"))
	src.PutDocument("feb-too", validDoc("Feb too", "2024-02-01"))
	repo, _ := newTestRepo(t, src, false)

	got, err := repo.ListPreviews(context.Background(), false)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"mar", "feb", "feb-too", "jan"}
	if !equal(slugs(got), want) {
		t.Fatalf("order = %v, want %v", slugs(got), want)
	}
	if got[0].Meta.Slug != "mar" {
		t.Errorf("slug should be derived from the identifier, got %q", got[0].Meta.Slug)
	}
	if got[0].Meta.ReadingTime != 1 {
		t.Errorf("reading time should be estimated, got %v", got[0].Meta.ReadingTime)
	}
}

func TestListPreviewsVisibility(t *testing.T) {
	src := memory.New()
	src.PutDocument("live", validDoc("Live", "2024-01-02"))
	src.PutDocument("wip", validDoc("Wip", "2024-01-03", "draft: true"))
	src.PutDocument("old", validDoc("Old", "2024-01-01", "status: archived"))
	src.PutDocument("shipped", validDoc("Shipped", "2024-01-04", "status: published"))

	t.Run("development", func(t *testing.T) {
		repo, _ := newTestRepo(t, src, false)
		got, err := repo.ListPreviews(context.Background(), false)
		if err != nil {
			t.Fatal(err)
		}
		flags := map[string]bool{}
		for _, p := range got {
			flags[p.Slug] = p.Meta.DevelopmentOnly
		}
		want := map[string]bool{"live": false, "wip": true, "old": true, "shipped": false}
		for slug, dev := range want {
			got, ok := flags[slug]
			if !ok || got != dev {
				t.Errorf("%s: present=%v devOnly=%v, want devOnly=%v", slug, ok, got, dev)
			}
		}
	})

	t.Run("forced", func(t *testing.T) {
		repo, _ := newTestRepo(t, src, false)
		if _, err := repo.ListPreviews(context.Background(), false); err != nil {
			t.Fatal(err)
		}
		got, err := repo.ListPreviews(context.Background(), true)
		if err != nil {
			t.Fatal(err)
		}
		if !equal(slugs(got), []string{"shipped", "live"}) {
			t.Errorf("forced production = %v", slugs(got))
		}
	})

	t.Run("production option", func(t *testing.T) {
		repo, _ := newTestRepo(t, src, true)
		got, err := repo.ListPreviews(context.Background(), false)
		if err != nil {
			t.Fatal(err)
		}
		if !equal(slugs(got), []string{"shipped", "live"}) {
			t.Errorf("production = %v", slugs(got))
		}
		for _, p := range got {
			if p.Meta.DevelopmentOnly {
				t.Errorf("%s flagged in production", p.Slug)
			}
		}
	})
}

func TestListPreviewsSkipsInvalidPost(t *testing.T) {
	src := memory.New()
	for _, id := range []string{"a", "b", "c", "d", "e"} {
		src.PutDocument(id, validDoc(strings.ToUpper(id), "2024-01-01"))
	}
	src.PutDocument("untitled", doc("date: 2024-01-01", "excerpt: no title"))
	repo, logs := newTestRepo(t, src, false)

	got, err := repo.ListPreviews(context.Background(), false)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 5 {
		t.Fatalf("expected 5 previews, got %d", len(got))
	}
	lines := strings.Split(strings.TrimSpace(logs.String()), "\n")
	if len(lines) != 1 || !strings.Contains(lines[0], "untitled") || !strings.Contains(lines[0], "title") {
		t.Errorf("expected one log line about the untitled post, got %q", logs.String())
	}
}

func TestListPreviewsIsCached(t *testing.T) {
	src := memory.New()
	src.PutDocument("one", validDoc("One", "2024-01-01"))
	repo, _ := newTestRepo(t, src, false)
	ctx := context.Background()

	if got, _ := repo.ListPreviews(ctx, false); len(got) != 1 {
		t.Fatalf("first list = %d", len(got))
	}
	src.PutDocument("two", validDoc("Two", "2024-01-02"))
	if got, _ := repo.ListPreviews(ctx, false); len(got) != 1 {
		t.Errorf("cached list should not see new posts, got %d", len(got))
	}

	got, _ := repo.ListPreviews(ctx, false)
	got[0].Meta.Tags = append(got[0].Meta.Tags, "mutated")
	again, _ := repo.ListPreviews(ctx, false)
	if len(again[0].Meta.Tags) != 0 {
		t.Errorf("caller mutation leaked into the cache: %v", again[0].Meta.Tags)
	}

	repo.Reset()
	if got, _ := repo.ListPreviews(ctx, false); len(got) != 2 {
		t.Errorf("after reset expected 2, got %d", len(got))
	}
}

type duplicateSource struct{ memory.Source }

func (d *duplicateSource) Enumerate(ctx context.Context) ([]source.Unit, error) {
	first, _ := source.ParseDocument("same", validDoc("First", "2024-01-01"))
	second, _ := source.ParseDocument("same", validDoc("Second", "2024-01-02"))
	return []source.Unit{first, second}, nil
}

func TestListPreviewsDuplicateIdentifiers(t *testing.T) {
	repo, logs := newTestRepo(t, &duplicateSource{}, false)
	got, err := repo.ListPreviews(context.Background(), false)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Meta.Title != "First" {
		t.Fatalf("expected the first unit to win, got %+v", got)
	}
	if !strings.Contains(logs.String(), "duplicate") {
		t.Errorf("expected a duplicate warning, got %q", logs.String())
	}
}

type invalidFirstSource struct{ memory.Source }

func (d *invalidFirstSource) Enumerate(ctx context.Context) ([]source.Unit, error) {
	first, _ := source.ParseDocument("same", doc("date: 2024-01-01", "excerpt: no title"))
	second, _ := source.ParseDocument("same", validDoc("Second", "2024-01-02"))
	return []source.Unit{first, second}, nil
}

// Load picks the first file for an ID, so the list must not fall through to
// a later valid duplicate either.
func TestListPreviewsInvalidFirstDuplicate(t *testing.T) {
	repo, logs := newTestRepo(t, &invalidFirstSource{}, false)
	got, err := repo.ListPreviews(context.Background(), false)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no previews, got %+v", got)
	}
	if !strings.Contains(logs.String(), "duplicate") || !strings.Contains(logs.String(), "title") {
		t.Errorf("expected validation and duplicate warnings, got %q", logs.String())
	}
}

func TestListPreviewsSystemicFailure(t *testing.T) {
	src := memory.New()
	src.PutDocument("one", validDoc("One", "2024-01-01"))
	src.Fail = errors.New("content directory unreachable")
	repo, _ := newTestRepo(t, src, false)

	if _, err := repo.ListPreviews(context.Background(), false); err == nil {
		t.Fatal("expected the source failure to propagate")
	}

	src.Fail = nil
	got, err := repo.ListPreviews(context.Background(), false)
	if err != nil || len(got) != 1 {
		t.Errorf("a failed load must not be cached: %v %v", got, err)
	}
}

type countingSource struct {
	*memory.Source
	calls   atomic.Int32
	release chan struct{}
}

func (c *countingSource) Enumerate(ctx context.Context) ([]source.Unit, error) {
	c.calls.Add(1)
	<-c.release
	return c.Source.Enumerate(ctx)
}

func TestListPreviewsConcurrentFirstLoad(t *testing.T) {
	mem := memory.New()
	mem.PutDocument("one", validDoc("One", "2024-01-01"))
	src := &countingSource{Source: mem, release: make(chan struct{})}
	repo, _ := newTestRepo(t, src, false)

	var wg sync.WaitGroup
	results := make([]int, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			got, err := repo.ListPreviews(context.Background(), false)
			if err == nil {
				results[i] = len(got)
			}
		}(i)
	}
	time.Sleep(20 * time.Millisecond)
	close(src.release)
	wg.Wait()

	if n := src.calls.Load(); n != 1 {
		t.Errorf("expected one enumeration, got %d", n)
	}
	for i, n := range results {
		if n != 1 {
			t.Errorf("caller %d got %d previews", i, n)
		}
	}
}

type blockingSource struct{ memory.Source }

func (b *blockingSource) Enumerate(ctx context.Context) ([]source.Unit, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestListPreviewsLoadTimeout(t *testing.T) {
	repo := New(&blockingSource{}, Options{LoadTimeout: 10 * time.Millisecond, Logger: log.New(&bytes.Buffer{}, "", 0)})
	_, err := repo.ListPreviews(context.Background(), false)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestGetBySlug(t *testing.T) {
	src := memory.New()
	src.PutDocument("hello", validDoc("Hello", "2024-01-01", "tags: [go]"))
	src.PutDocument("wip", validDoc("Wip", "2024-01-02", "draft: true"))
	src.PutDocument("broken", doc("title: Broken", "date: 01/02/2024", "excerpt: x"))
	src.Put(source.Unit{ID: "hollow", Meta: map[string]any{"title": "H", "date": "2024-01-01", "excerpt": "x"}})
	ctx := context.Background()

	dev, devLogs := newTestRepo(t, src, false)
	prod, _ := newTestRepo(t, src, true)

	post, ok, err := dev.GetBySlug(ctx, "hello")
	if err != nil || !ok {
		t.Fatalf("hello: ok=%v err=%v", ok, err)
	}
	if post.Slug != "hello" || post.Meta.Slug != "hello" || post.Body == nil {
		t.Errorf("unexpected post: %+v", post)
	}
	if post.Meta.ReadingTime < 1 {
		t.Errorf("reading time = %v", post.Meta.ReadingTime)
	}

	tests := []struct {
		name string
		repo *Repository
		slug string
		ok   bool
	}{
		{"missing", dev, "nope", false},
		{"path-like", dev, "../etc/passwd", false},
		{"invalid front matter", dev, "broken", false},
		{"no body", dev, "hollow", false},
		{"draft in development", dev, "wip", true},
		{"draft in production", prod, "wip", false},
		{"published in production", prod, "hello", true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, ok, err := tc.repo.GetBySlug(ctx, tc.slug)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if ok != tc.ok {
				t.Errorf("ok = %v, want %v", ok, tc.ok)
			}
		})
	}

	if !strings.Contains(devLogs.String(), "broken") {
		t.Errorf("invalid post should be logged, got %q", devLogs.String())
	}

	post, _, _ = dev.GetBySlug(ctx, "wip")
	if !post.Meta.DevelopmentOnly {
		t.Error("draft should be flagged as development only")
	}
}

func TestGetBySlugBypassesCache(t *testing.T) {
	src := memory.New()
	repo, _ := newTestRepo(t, src, false)
	ctx := context.Background()

	if _, err := repo.ListPreviews(ctx, false); err != nil {
		t.Fatal(err)
	}
	src.PutDocument("fresh", validDoc("Fresh", "2024-05-01"))
	if _, ok, err := repo.GetBySlug(ctx, "fresh"); err != nil || !ok {
		t.Errorf("lookup should see new content: ok=%v err=%v", ok, err)
	}
}

func TestGetBySlugSystemicFailure(t *testing.T) {
	src := memory.New()
	src.Fail = errors.New("bucket unreachable")
	repo, _ := newTestRepo(t, src, false)
	if _, ok, err := repo.GetBySlug(context.Background(), "anything"); err == nil || ok {
		t.Fatalf("expected a propagated error, got ok=%v err=%v", ok, err)
	}
}

func TestDirectoryPostsWithUnquotedDates(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"first.md":  "---\ntitle: First\ndate: 2024-01-01\nexcerpt: one\n---\nHello there.\n",
		"second.md": "---\ntitle: Second\ndate: 2024-02-01\nlastUpdated: 2024-02-03\nexcerpt: two\n---\nMore words.\n",
	}
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	repo, logs := newTestRepo(t, fssource.New(dir), true)
	ctx := context.Background()

	got, err := repo.ListPreviews(ctx, false)
	if err != nil {
		t.Fatal(err)
	}
	if !equal(slugs(got), []string{"second", "first"}) {
		t.Fatalf("previews = %v, logs %q", slugs(got), logs.String())
	}
	if got[0].Meta.Date != "2024-02-01" || got[0].Meta.LastUpdated != "2024-02-03" {
		t.Errorf("dates = %q / %q", got[0].Meta.Date, got[0].Meta.LastUpdated)
	}

	post, ok, err := repo.GetBySlug(ctx, "first")
	if err != nil || !ok {
		t.Fatalf("first: ok=%v err=%v logs %q", ok, err, logs.String())
	}
	if post.Meta.Date != "2024-01-01" {
		t.Errorf("date = %q", post.Meta.Date)
	}
}

func TestReadingTimeAlwaysEstimated(t *testing.T) {
	src := memory.New()
	src.PutDocument("empty", []byte("---\ntitle: Empty\ndate: 2024-01-01\nexcerpt: x\n---\n"))
	src.PutDocument("given", validDoc("Given", "2024-01-02", "readingTime: 7"))
	src.Put(source.Unit{
		ID:   "bare",
		Meta: map[string]any{"title": "Bare", "date": "2024-01-03", "excerpt": "x"},
		Body: render.NewMarkdown([]byte(strings.Repeat("word ", 450))),
	})
	repo, _ := newTestRepo(t, src, false)
	ctx := context.Background()

	tests := []struct {
		slug string
		want float64
	}{
		{"empty", 1},
		{"given", 7},
		{"bare", 3},
	}
	for _, tc := range tests {
		t.Run(tc.slug, func(t *testing.T) {
			post, ok, err := repo.GetBySlug(ctx, tc.slug)
			if err != nil || !ok {
				t.Fatalf("ok=%v err=%v", ok, err)
			}
			if float64(post.Meta.ReadingTime) != tc.want {
				t.Errorf("reading time = %v, want %v", post.Meta.ReadingTime, tc.want)
			}
		})
	}

	all, err := repo.ListPreviews(ctx, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 {
		t.Errorf("expected every post listed, got %v", slugs(all))
	}
}

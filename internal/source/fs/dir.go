package fs

import (
	"context"
	"errors"
	"fmt"
	"folio/internal/source"
	iofs "io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
)

var DefaultExtensions = []string{".md", ".mdx", ".markdown"}

// Dir is a flat directory of Markdown/MDX files. The unit identifier is the
// file name without its extension.
type Dir struct {
	root string
	exts []string
}

func New(root string, exts ...string) *Dir {
	return &Dir{root: root, exts: NormalizeExtensions(exts)}
}

// NormalizeExtensions lowercases exts, adds the leading dot and sorts them,
// which is the order Enumerate sees files in, so Load agrees on duplicates.
// An empty list means DefaultExtensions.
func NormalizeExtensions(exts []string) []string {
	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	norm := make([]string, 0, len(exts))
	for _, e := range exts {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		norm = append(norm, e)
	}
	sort.Strings(norm)
	return norm
}

func (d *Dir) Root() string {
	return d.root
}

type sourceFile struct {
	ID   string
	Path string
}

func (d *Dir) discover() ([]sourceFile, error) {
	entries, err := os.ReadDir(d.root)
	if err != nil {
		return nil, fmt.Errorf("read content dir %s: %w", d.root, err)
	}
	var out []sourceFile
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		id, ok := d.idOf(e.Name())
		if !ok {
			continue
		}
		out = append(out, sourceFile{ID: id, Path: filepath.Join(d.root, e.Name())})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].ID != out[j].ID {
			return out[i].ID < out[j].ID
		}
		return out[i].Path < out[j].Path
	})
	return out, nil
}

func (d *Dir) idOf(name string) (string, bool) {
	ext := filepath.Ext(name)
	for _, e := range d.exts {
		if ext == e {
			return strings.TrimSuffix(name, ext), true
		}
	}
	return "", false
}

func (d *Dir) Enumerate(ctx context.Context) ([]source.Unit, error) {
	files, err := d.discover()
	if err != nil {
		return nil, err
	}

	workers := runtime.GOMAXPROCS(0)
	if workers > len(files) {
		workers = len(files)
	}
	jobs := make(chan int)
	out := make([]source.Unit, len(files))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				out[idx] = readUnit(files[idx])
			}
		}()
	}

feed:
	for idx := range files {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- idx:
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (d *Dir) Load(ctx context.Context, id string) (source.Unit, error) {
	if !source.ValidID(id) {
		return source.Unit{}, source.ErrNotFound
	}
	if err := ctx.Err(); err != nil {
		return source.Unit{}, err
	}
	for _, ext := range d.exts {
		path := filepath.Join(d.root, id+ext)
		st, err := os.Stat(path)
		if err != nil {
			if errors.Is(err, iofs.ErrNotExist) {
				continue
			}
			return source.Unit{}, err
		}
		if st.IsDir() {
			continue
		}
		return readUnit(sourceFile{ID: id, Path: path}), nil
	}
	if _, err := os.Stat(d.root); err != nil {
		return source.Unit{}, fmt.Errorf("content dir %s: %w", d.root, err)
	}
	return source.Unit{}, source.ErrNotFound
}

func readUnit(sf sourceFile) source.Unit {
	raw, err := os.ReadFile(sf.Path)
	if err != nil {
		return source.Unit{ID: sf.ID, Err: err}
	}
	u, err := source.ParseDocument(sf.ID, raw)
	if err != nil {
		return source.Unit{ID: sf.ID, Err: err, Hash: source.HashBytes(raw)}
	}
	return u
}

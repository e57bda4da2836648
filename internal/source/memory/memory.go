package memory

import (
	"context"
	"folio/internal/source"
	"github.com/tidwall/btree"
	"sync"
)

// Source keeps units in an ordered map so enumeration follows ID order.
type Source struct {
	mu    sync.RWMutex
	units *btree.Map[string, source.Unit]

	// Fail, when set, is returned by every Enumerate and Load call.
	Fail error
}

func New() *Source {
	return &Source{units: btree.NewMap[string, source.Unit](0)}
}

func (s *Source) Put(u source.Unit) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.units.Set(u.ID, u)
}

// PutDocument parses raw Markdown with front matter and stores it under id.
// A document that fails to parse is stored with its error, like a file would be.
func (s *Source) PutDocument(id string, raw []byte) {
	u, err := source.ParseDocument(id, raw)
	if err != nil {
		u = source.Unit{ID: id, Err: err}
	}
	s.Put(u)
}

func (s *Source) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.units.Delete(id)
}

func (s *Source) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.units.Len()
}

func (s *Source) Enumerate(ctx context.Context) ([]source.Unit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.Fail != nil {
		return nil, s.Fail
	}
	out := make([]source.Unit, 0, s.units.Len())
	s.units.Scan(func(_ string, u source.Unit) bool {
		out = append(out, cloneUnit(u))
		return true
	})
	return out, nil
}

func (s *Source) Load(ctx context.Context, id string) (source.Unit, error) {
	if err := ctx.Err(); err != nil {
		return source.Unit{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.Fail != nil {
		return source.Unit{}, s.Fail
	}
	u, ok := s.units.Get(id)
	if !ok {
		return source.Unit{}, source.ErrNotFound
	}
	return cloneUnit(u), nil
}

// cloneUnit copies the top-level meta map so callers filling in derived
// fields never write back into the store.
func cloneUnit(u source.Unit) source.Unit {
	meta := make(map[string]any, len(u.Meta))
	for k, v := range u.Meta {
		meta[k] = v
	}
	u.Meta = meta
	return u
}

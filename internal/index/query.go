package index

import (
	"encoding/json"
	domainerr "folio/internal/domain/errors"
	bolt "go.etcd.io/bbolt"
	"golang.org/x/text/cases"
	"strings"
)

var ErrNotFound = domainerr.ErrNotFound

type Entry struct {
	Slug string `json:"slug"`
	Record
}

type ListOptions struct {
	Page int
	// Size <= 0 returns everything from Page on.
	Size int
}

func (s *Store) Get(slug string) (Record, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return Record{}, ErrNotFound
	}
	var r Record
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bMeta)
		if b == nil {
			return ErrNotFound
		}
		v := b.Get([]byte(slug))
		if v == nil {
			return ErrNotFound
		}
		return json.Unmarshal(v, &r)
	})
	return r, err
}

// Fingerprint returns the fingerprint stored by the last Rebuild, or "".
func (s *Store) Fingerprint() (string, error) {
	var fp string
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bState)
		if b == nil {
			return nil
		}
		fp = string(b.Get(keyFingerprint))
		return nil
	})
	return fp, err
}

// List returns records newest first.
func (s *Store) List(opt ListOptions) ([]Entry, error) {
	var out []Entry
	err := s.db.View(func(tx *bolt.Tx) error {
		idx := tx.Bucket(bIdxDate)
		if idx == nil {
			return nil
		}
		var err error
		out, err = collect(tx, idx, opt)
		return err
	})
	return out, err
}

func (s *Store) ListByTag(tag string, opt ListOptions) ([]Entry, error) {
	tag = cases.Fold().String(strings.TrimSpace(tag))
	if tag == "" {
		return nil, nil
	}
	var out []Entry
	err := s.db.View(func(tx *bolt.Tx) error {
		parent := tx.Bucket(bIdxTag)
		if parent == nil {
			return nil
		}
		sb := parent.Bucket([]byte(tag))
		if sb == nil {
			return nil
		}
		var err error
		out, err = collect(tx, sb, opt)
		return err
	})
	return out, err
}

func collect(tx *bolt.Tx, idx *bolt.Bucket, opt ListOptions) ([]Entry, error) {
	metaB := tx.Bucket(bMeta)
	if metaB == nil {
		return nil, nil
	}
	page := opt.Page
	if page <= 0 {
		page = 1
	}
	skip := 0
	if opt.Size > 0 {
		skip = (page - 1) * opt.Size
	}

	var out []Entry
	cur := idx.Cursor()
	for k, _ := cur.First(); k != nil; k, _ = cur.Next() {
		slug := slugFromTimeSlugKey(k)
		if slug == "" {
			continue
		}
		v := metaB.Get([]byte(slug))
		if v == nil {
			continue
		}
		if skip > 0 {
			skip--
			continue
		}
		e := Entry{Slug: slug}
		if err := json.Unmarshal(v, &e.Record); err != nil {
			return nil, err
		}
		out = append(out, e)
		if opt.Size > 0 && len(out) >= opt.Size {
			break
		}
	}
	return out, nil
}

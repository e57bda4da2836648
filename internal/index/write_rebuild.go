package index

import (
	"encoding/json"
	bolt "go.etcd.io/bbolt"
	"golang.org/x/text/cases"
	"strings"
)

// Rebuild replaces the whole index with records and stores fingerprint.
func (s *Store) Rebuild(records map[string]Record, fingerprint string) error {
	fold := cases.Fold()
	return s.db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{bMeta, bIdxDate, bIdxTag, bState} {
			_ = tx.DeleteBucket(name)
		}

		metaB, err := tx.CreateBucket(bMeta)
		if err != nil {
			return err
		}
		dateB, err := tx.CreateBucket(bIdxDate)
		if err != nil {
			return err
		}
		tagB, err := tx.CreateBucket(bIdxTag)
		if err != nil {
			return err
		}
		stateB, err := tx.CreateBucket(bState)
		if err != nil {
			return err
		}

		for slug, r := range records {
			if strings.TrimSpace(slug) == "" {
				continue
			}
			rb, err := json.Marshal(r)
			if err != nil {
				return err
			}
			if err := metaB.Put([]byte(slug), rb); err != nil {
				return err
			}

			dKey := makeTimeSlugKey(r.Date, slug)
			if err := dateB.Put(dKey, []byte{1}); err != nil {
				return err
			}

			for _, tag := range r.Tags {
				key := fold.String(strings.TrimSpace(tag))
				if key == "" {
					continue
				}
				sb, err := tagB.CreateBucketIfNotExists([]byte(key))
				if err != nil {
					return err
				}
				if err := sb.Put(dKey, []byte{1}); err != nil {
					return err
				}
			}
		}
		return stateB.Put(keyFingerprint, []byte(fingerprint))
	})
}

// Sync rebuilds only when the fingerprint of records differs from the stored one.
func (s *Store) Sync(records map[string]Record) (bool, error) {
	fp := Fingerprint(records)
	cur, err := s.Fingerprint()
	if err != nil {
		return false, err
	}
	if cur == fp {
		return false, nil
	}
	if err := s.Rebuild(records, fp); err != nil {
		return false, err
	}
	return true, nil
}

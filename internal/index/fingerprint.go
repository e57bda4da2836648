package index

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
)

// Fingerprint hashes records in slug order. Equal record sets always share
// a fingerprint.
func Fingerprint(records map[string]Record) string {
	slugs := make([]string, 0, len(records))
	for slug := range records {
		slugs = append(slugs, slug)
	}
	sort.Strings(slugs)

	h := sha256.New()
	for _, slug := range slugs {
		b, _ := json.Marshal(records[slug])
		h.Write([]byte(slug))
		h.Write([]byte{0})
		h.Write(b)
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

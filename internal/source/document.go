package source

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"folio/internal/render"
	"github.com/adrg/frontmatter"
	"gopkg.in/yaml.v3"
)

var yamlFormats = []*frontmatter.Format{
	frontmatter.NewFormat("---", "---", unmarshalYAML),
}

// unmarshalYAML decodes front matter with timestamps kept as their source
// text, so "date: 2024-01-01" reaches the validator as a string.
func unmarshalYAML(data []byte, v any) error {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return err
	}
	if doc.Kind == 0 {
		return nil
	}
	keepTimestampsAsText(&doc)
	return doc.Decode(v)
}

func keepTimestampsAsText(n *yaml.Node) {
	if n.Kind == yaml.ScalarNode && n.ShortTag() == "!!timestamp" {
		n.Tag = "!!str"
	}
	for _, c := range n.Content {
		keepTimestampsAsText(c)
	}
}

// ParseDocument splits raw file bytes into front matter and a Markdown body.
// A document without front matter yields an empty Meta map.
func ParseDocument(id string, raw []byte) (Unit, error) {
	norm := bytes.ReplaceAll(raw, []byte("\r\n"), []byte("\n"))

	meta := map[string]any{}
	body, err := frontmatter.Parse(bytes.NewReader(norm), &meta, yamlFormats...)
	if err != nil {
		return Unit{}, fmt.Errorf("parse front matter of %s: %w", id, err)
	}
	if meta == nil {
		meta = map[string]any{}
	}

	md := render.NewMarkdown(bytes.TrimSpace(body))
	return Unit{
		ID:   id,
		Meta: meta,
		Body: md,
		Text: md.Text(),
		Hash: HashBytes(raw),
	}, nil
}

func HashBytes(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

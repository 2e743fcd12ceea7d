// Package parser splits Markdown notes into YAML front-matter and body,
// and merges structured fields back without disturbing unrelated content.
package parser

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

const delim = "---"

// Result holds the output of parsing a Markdown note.
type Result struct {
	// Frontmatter is the decoded metadata block, nil when absent.
	Frontmatter map[string]interface{}
	// Body is the Markdown content after the front-matter block.
	Body string
	// Title is the front-matter "title" or the first H1 heading.
	Title string

	node *yaml.Node // retained mapping node, preserves key order and comments
}

// Parse extracts front-matter and body from raw Markdown bytes.
// A note without front-matter is valid; a note whose front-matter block is
// present but not well-formed YAML returns an error so the caller can skip it.
func Parse(data []byte) (*Result, error) {
	block, body, found := splitFrontmatter(data)

	res := &Result{Body: body}
	if found {
		var doc yaml.Node
		if err := yaml.Unmarshal(block, &doc); err != nil {
			return nil, fmt.Errorf("front-matter: %w", err)
		}
		if len(doc.Content) > 0 {
			if doc.Content[0].Kind != yaml.MappingNode {
				return nil, fmt.Errorf("front-matter: expected mapping, got %s", kindName(doc.Content[0].Kind))
			}
			res.node = doc.Content[0]
			fm := make(map[string]interface{})
			if err := res.node.Decode(&fm); err != nil {
				return nil, fmt.Errorf("front-matter: %w", err)
			}
			res.Frontmatter = fm
		}
	}

	res.Title = deriveTitle(res.Frontmatter, body)
	return res, nil
}

// Merge returns the full note re-serialized with fields merged into the
// front-matter: new keys are appended, existing keys are overwritten only
// when present in fields. Unrelated keys, their order, and their comments
// survive untouched. The body is carried over byte for byte.
func Merge(data []byte, fields map[string]interface{}, order []string) ([]byte, error) {
	res, err := Parse(data)
	if err != nil {
		return nil, err
	}

	mapping := res.node
	if mapping == nil {
		mapping = &yaml.Node{Kind: yaml.MappingNode}
	}

	for _, key := range mergeOrder(fields, order) {
		if err := setMappingKey(mapping, key, fields[key]); err != nil {
			return nil, fmt.Errorf("merge %s: %w", key, err)
		}
	}

	var buf bytes.Buffer
	buf.WriteString(delim + "\n")
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(mapping); err != nil {
		return nil, fmt.Errorf("encode front-matter: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode front-matter: %w", err)
	}
	buf.WriteString(delim + "\n")
	buf.WriteString(res.Body)
	return buf.Bytes(), nil
}

// mergeOrder lists the keys of fields, honoring the preferred order first
// and appending any remaining keys sorted, so merges are deterministic.
func mergeOrder(fields map[string]interface{}, order []string) []string {
	keys := make([]string, 0, len(fields))
	seen := make(map[string]struct{}, len(fields))
	for _, k := range order {
		if _, ok := fields[k]; ok {
			keys = append(keys, k)
			seen[k] = struct{}{}
		}
	}
	var rest []string
	for k := range fields {
		if _, ok := seen[k]; !ok {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	return append(keys, rest...)
}

// setMappingKey replaces the value of key in the mapping node, or appends a
// new key/value pair when the key is absent.
func setMappingKey(mapping *yaml.Node, key string, val interface{}) error {
	valNode := &yaml.Node{}
	if err := valNode.Encode(val); err != nil {
		return err
	}
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			mapping.Content[i+1] = valNode
			return nil
		}
	}
	mapping.Content = append(mapping.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Value: key},
		valNode)
	return nil
}

// splitFrontmatter separates the YAML block (between leading --- delimiters)
// from the Markdown body. found reports whether a delimited block exists;
// without one the entire content is body.
func splitFrontmatter(data []byte) (block []byte, body string, found bool) {
	trimmed := bytes.TrimLeft(data, "\n\r")
	if !bytes.HasPrefix(trimmed, []byte(delim)) {
		return nil, string(data), false
	}

	rest := trimmed[len(delim):]
	idx := bytes.Index(rest, []byte("\n"+delim))
	if idx < 0 {
		return nil, string(data), false
	}

	block = rest[:idx]
	after := rest[idx+1+len(delim):]
	body = strings.TrimLeft(string(after), "\n\r")
	return block, body, true
}

// deriveTitle returns the front-matter "title" if present, otherwise the
// first H1 heading, otherwise empty string.
func deriveTitle(fm map[string]interface{}, body string) string {
	if fm != nil {
		if t, ok := fm["title"]; ok {
			if s, ok := t.(string); ok && s != "" {
				return s
			}
		}
	}
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "# ") {
			return strings.TrimSpace(trimmed[2:])
		}
	}
	return ""
}

func kindName(k yaml.Kind) string {
	switch k {
	case yaml.SequenceNode:
		return "sequence"
	case yaml.ScalarNode:
		return "scalar"
	case yaml.MappingNode:
		return "mapping"
	case yaml.AliasNode:
		return "alias"
	default:
		return "document"
	}
}

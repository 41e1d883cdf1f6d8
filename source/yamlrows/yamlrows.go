// Package yamlrows reads raw records from YAML fixtures. A document holds
// either one record or a sequence of records; a stream may hold several
// documents. Duplicate keys are rejected with both positions.
package yamlrows

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"gopkg.in/yaml.v3"

	storeskema "github.com/kioskcart/storeskema"
)

// DuplicateKeyError reports a key repeated within one mapping.
type DuplicateKeyError struct {
	Key       string
	FirstLine int
	FirstCol  int
	Line      int
	Col       int
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("duplicate YAML key %q at %d:%d (first at %d:%d)", e.Key, e.Line, e.Col, e.FirstLine, e.FirstCol)
}

// Reader decodes a YAML stream document by document.
type Reader struct {
	dec *yaml.Decoder
}

// NewReader constructs a Reader over r.
func NewReader(r io.Reader) *Reader {
	return &Reader{dec: yaml.NewDecoder(r)}
}

// Next returns the next document as a JSON-compatible value, or io.EOF.
func (r *Reader) Next() (any, error) {
	var root yaml.Node
	if err := r.dec.Decode(&root); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, err
	}
	if len(root.Content) == 0 {
		return nil, nil
	}
	return toValue(root.Content[0])
}

// Records reads every document and flattens them into records. An element
// that is not a mapping is reported as an invalid_type issue at its index
// and kept as nil so positions stay stable.
func (r *Reader) Records() ([]storeskema.RawRecord, error) {
	var (
		out []storeskema.RawRecord
		iss storeskema.Issues
	)
	add := func(v any) {
		m, ok := v.(map[string]any)
		if !ok {
			iss = storeskema.AppendIssues(iss, storeskema.IssueAt("/"+strconv.Itoa(len(out)), storeskema.CodeInvalidType, "expected object", nil))
		}
		out = append(out, m)
	}
	for {
		v, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		switch t := v.(type) {
		case nil:
		case []any:
			for _, e := range t {
				add(e)
			}
		default:
			add(t)
		}
	}
	if len(iss) > 0 {
		return out, iss
	}
	return out, nil
}

func toValue(n *yaml.Node) (any, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return toValue(n.Content[0])
	case yaml.AliasNode:
		return toValue(n.Alias)
	case yaml.MappingNode:
		m := make(map[string]any, len(n.Content)/2)
		first := make(map[string][2]int, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			k, v := n.Content[i], n.Content[i+1]
			if pos, dup := first[k.Value]; dup {
				return nil, &DuplicateKeyError{Key: k.Value, FirstLine: pos[0], FirstCol: pos[1], Line: k.Line, Col: k.Column}
			}
			first[k.Value] = [2]int{k.Line, k.Column}
			val, err := toValue(v)
			if err != nil {
				return nil, err
			}
			m[k.Value] = val
		}
		return m, nil
	case yaml.SequenceNode:
		arr := make([]any, 0, len(n.Content))
		for _, c := range n.Content {
			v, err := toValue(c)
			if err != nil {
				return nil, err
			}
			arr = append(arr, v)
		}
		return arr, nil
	case yaml.ScalarNode:
		return scalar(n), nil
	}
	return nil, nil
}

// scalar keeps timestamps and anything unrecognised as text; the pipeline
// parses timestamps itself.
func scalar(n *yaml.Node) any {
	switch n.Tag {
	case "!!null":
		return nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err == nil {
			return b
		}
	case "!!int":
		if i, err := strconv.ParseInt(n.Value, 0, 64); err == nil {
			return i
		}
	case "!!float":
		if f, err := strconv.ParseFloat(n.Value, 64); err == nil {
			return f
		}
	}
	return n.Value
}

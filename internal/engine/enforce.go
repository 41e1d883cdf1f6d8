package engine

import (
	"strconv"
	"strings"
)

// DupPolicy controls what a repeated key inside one object does.
type DupPolicy int

const (
	DupIgnore DupPolicy = iota
	DupWarn
	DupError
)

// Limits bounds what Guard lets through.
type Limits struct {
	Duplicates DupPolicy
	MaxDepth   int
	MaxBytes   int64
	// OnViolation receives every violation, fatal or not.
	OnViolation func(Violation)
	// FailFast makes duplicate-key warnings fatal too.
	FailFast bool
}

// Violation is a limit breach located by JSON Pointer ("/" for the root).
type Violation struct {
	Code    string
	Path    string
	Message string
}

// ViolationError stops decoding at a fatal Violation.
type ViolationError struct{ Violation }

func (e ViolationError) Error() string { return e.Message + " at " + e.Path }

// Guard wraps inner so that every token is checked against lim while it is
// read. Paths are tracked incrementally; nothing is buffered.
func Guard(inner TokenSource, lim Limits) TokenSource {
	return &guard{inner: inner, lim: lim}
}

type frame struct {
	path  string
	array bool
	next  int
	key   string
	seen  map[string]struct{}
}

type guard struct {
	inner  TokenSource
	lim    Limits
	frames []frame
}

func (g *guard) Location() int64 { return g.inner.Location() }

func (g *guard) NextToken() (Token, error) {
	tok, err := g.inner.NextToken()
	if err != nil {
		return Token{}, err
	}
	at := g.locate(tok)

	switch tok.Kind {
	case KindBeginObject, KindBeginArray:
		g.frames = append(g.frames, frame{path: at, array: tok.Kind == KindBeginArray})
		if g.lim.MaxDepth > 0 && len(g.frames) > g.lim.MaxDepth {
			return Token{}, g.fatal(Violation{Code: "parse_error", Path: pointer(at), Message: "max depth exceeded"})
		}
	case KindEndObject, KindEndArray:
		if n := len(g.frames); n > 0 {
			g.frames = g.frames[:n-1]
		}
	case KindKey:
		if err := g.key(tok.String, at); err != nil {
			return Token{}, err
		}
	}

	if g.lim.MaxBytes > 0 {
		if off := g.Location(); off > g.lim.MaxBytes {
			return Token{}, g.fatal(Violation{Code: "truncated", Path: pointer(at), Message: "max bytes exceeded"})
		}
	}
	return tok, nil
}

// locate returns the pointer of tok relative to the document root and
// advances the enclosing container's cursor.
func (g *guard) locate(tok Token) string {
	if len(g.frames) == 0 {
		return ""
	}
	top := &g.frames[len(g.frames)-1]
	switch tok.Kind {
	case KindEndObject, KindEndArray:
		return top.path
	case KindKey:
		return join(top.path, tok.String)
	}
	if top.array {
		p := join(top.path, strconv.Itoa(top.next))
		top.next++
		return p
	}
	p := join(top.path, top.key)
	top.key = ""
	return p
}

func (g *guard) key(name, at string) error {
	if len(g.frames) == 0 {
		return nil
	}
	top := &g.frames[len(g.frames)-1]
	top.key = name
	if g.lim.Duplicates == DupIgnore {
		return nil
	}
	if top.seen == nil {
		top.seen = make(map[string]struct{})
	}
	if _, dup := top.seen[name]; !dup {
		top.seen[name] = struct{}{}
		return nil
	}
	v := Violation{Code: "duplicate_key", Path: at, Message: "key '" + name + "' duplicated"}
	if g.lim.Duplicates == DupError || g.lim.FailFast {
		return g.fatal(v)
	}
	g.report(v)
	return nil
}

func (g *guard) report(v Violation) {
	if g.lim.OnViolation != nil {
		g.lim.OnViolation(v)
	}
}

func (g *guard) fatal(v Violation) error {
	g.report(v)
	return ViolationError{v}
}

func pointer(p string) string {
	if p == "" {
		return "/"
	}
	return p
}

var tokenEscaper = strings.NewReplacer("~", "~0", "/", "~1")

func join(base, token string) string { return base + "/" + tokenEscaper.Replace(token) }

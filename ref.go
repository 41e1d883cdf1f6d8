package storeskema

import (
	"fmt"
	"strconv"
	"strings"
)

// Ref exposes helpers for rules: presence access and path building.
type Ref interface {
	Presence() PresenceMap
	Root() PathRef
	At(path string) PathRef
}

// PathRef builds JSON Pointer paths in a chain-safe way and creates Issues.
type PathRef interface {
	Field(name string) PathRef
	Index(i int) PathRef
	Pointer() string
	Issue(code, msg string, kv ...any) Issue
}

type refImpl struct {
	presence PresenceMap
}

func NewRef(pm PresenceMap) Ref { return &refImpl{presence: pm} }

func (r *refImpl) Presence() PresenceMap { return r.presence }
func (r *refImpl) Root() PathRef         { return pathRef{} }
func (r *refImpl) At(path string) PathRef {
	var parts []string
	for _, p := range strings.Split(path, "/") {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return pathRef{parts: parts}
}

type pathRef struct {
	parts []string
}

func (p pathRef) Field(name string) PathRef {
	if name == "" {
		return p
	}
	return pathRef{parts: append(append([]string{}, p.parts...), escapePointer(name))}
}

func (p pathRef) Index(i int) PathRef {
	return pathRef{parts: append(append([]string{}, p.parts...), strconv.Itoa(i))}
}

func (p pathRef) Pointer() string {
	if len(p.parts) == 0 {
		return "/"
	}
	return "/" + strings.Join(p.parts, "/")
}

// Issue builds an Issue at the path; kv are alternating param keys and values.
func (p pathRef) Issue(code, msg string, kv ...any) Issue {
	m := map[string]any{}
	for i := 0; i+1 < len(kv); i += 2 {
		m[fmt.Sprint(kv[i])] = kv[i+1]
	}
	return Issue{Path: p.Pointer(), Code: code, Message: msg, Params: m}
}

// IssueAt creates an Issue at the given pointer with provided code, message and params map.
func IssueAt(pointer, code, msg string, params map[string]any) Issue {
	return Issue{Path: pointer, Code: code, Message: msg, Params: params}
}

var pointerEscaper = strings.NewReplacer("~", "~0", "/", "~1")

// escape '~' -> '~0', '/' -> '~1' per RFC6901
func escapePointer(s string) string { return pointerEscaper.Replace(s) }

// JoinPointer appends key to a JSON Pointer base.
func JoinPointer(base, key string) string {
	if base == "" || base == "/" {
		return "/" + escapePointer(key)
	}
	return base + "/" + escapePointer(key)
}

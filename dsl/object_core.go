package dsl

import (
	"context"
	"sort"

	storeskema "github.com/kioskcart/storeskema"
	"github.com/kioskcart/storeskema/i18n"
	js "github.com/kioskcart/storeskema/jsonschema"
)

type objectSchema struct {
	fields        map[string]AnyAdapter
	required      map[string]struct{}
	unknownPolicy storeskema.UnknownPolicy
	unknownTarget string
	refines       []objRefine
	sortedKeys    []string
	title         string
}

type objRefine struct {
	name string
	fn   func(context.Context, map[string]any) error
}

// Ensure objectSchema implements storeskema.Schema[map[string]any]
var _ storeskema.Schema[map[string]any] = (*objectSchema)(nil)

// issuesFromErr converts an error into Issues, wrapping non-Issues with CodeParseError.
func issuesFromErr(path string, err error) storeskema.Issues {
	if err == nil {
		return nil
	}
	if i2, ok := storeskema.AsIssues(err); ok {
		return i2
	}
	return storeskema.Issues{{Path: path, Code: storeskema.CodeParseError, Message: err.Error(), Cause: err}}
}

// childIssues rebases a field's issues under its pointer and withholds
// values of sensitive fields.
func childIssues(base string, ad AnyAdapter, err error) storeskema.Issues {
	out := issuesFromErr("/", err).Rebase(base)
	if ad.sensitive {
		out = append(storeskema.Issues(nil), out...)
		for i := range out {
			out[i].Value = nil
		}
	}
	return out
}

func requiredIssue(path string) storeskema.Issue {
	return storeskema.Issue{Path: path, Code: storeskema.CodeRequired, Message: i18n.T(storeskema.CodeRequired, nil)}
}

// collectKnown parses declared fields in key order and records presence.
func (o *objectSchema) collectKnown(ctx context.Context, src map[string]any, pm storeskema.PresenceMap) (map[string]any, storeskema.Issues) {
	out := make(map[string]any, len(src))
	var iss storeskema.Issues
	for _, k := range o.sortedKeys {
		ad := o.fields[k]
		path := storeskema.JoinPointer("", k)
		_, req := o.required[k]
		val, exists := src[k]
		if !exists {
			if req {
				iss = storeskema.AppendIssues(iss, requiredIssue(path))
				if storeskema.IsFailFast(ctx) {
					return out, iss
				}
			}
			continue
		}
		pm[path] |= storeskema.PresenceSeen
		if isNull(val) {
			val = nil
			pm[path] |= storeskema.PresenceWasNull
			if req {
				iss = storeskema.AppendIssues(iss, requiredIssue(path))
				if storeskema.IsFailFast(ctx) {
					return out, iss
				}
				continue
			}
		}
		parsed, cpm, err := ad.parse(ctx, val)
		if err != nil {
			iss = storeskema.AppendIssues(iss, childIssues(path, ad, err)...)
			if storeskema.IsFailFast(ctx) {
				return out, iss
			}
			continue
		}
		mergePresence(pm, cpm, path)
		out[k] = parsed
	}
	return out, iss
}

// collectUnknown processes unknown keys according to unknownPolicy and may write into out for passthrough.
func (o *objectSchema) collectUnknown(src, out map[string]any, pm storeskema.PresenceMap) storeskema.Issues {
	var iss storeskema.Issues
	uks := make([]string, 0, len(src))
	for k := range src {
		if _, known := o.fields[k]; !known {
			uks = append(uks, k)
		}
	}
	sort.Strings(uks)
	var extra map[string]any
	if o.unknownPolicy == storeskema.UnknownPassthrough {
		extra = map[string]any{}
		out[o.unknownTarget] = extra
	}
	for _, k := range uks {
		switch o.unknownPolicy {
		case storeskema.UnknownStrict:
			iss = storeskema.AppendIssues(iss, storeskema.Issue{Path: storeskema.JoinPointer("", k), Code: storeskema.CodeUnknownKey, Message: i18n.T(storeskema.CodeUnknownKey, nil)})
		case storeskema.UnknownStrip:
			// drop
		case storeskema.UnknownPassthrough:
			extra[k] = src[k]
			markPresenceSubtree(pm, storeskema.JoinPointer(storeskema.JoinPointer("", o.unknownTarget), k), src[k])
		}
	}
	return iss
}

func (o *objectSchema) parse(ctx context.Context, v any) (map[string]any, storeskema.PresenceMap, error) {
	pm := storeskema.PresenceMap{"/": storeskema.PresenceSeen}
	src, ok := v.(map[string]any)
	if !ok {
		return nil, pm, storeskema.Issues{{Path: "/", Code: storeskema.CodeInvalidType, Message: i18n.T(storeskema.CodeInvalidType, nil), Hint: "expected object", Value: v}}
	}
	out, iss := o.collectKnown(ctx, src, pm)
	if storeskema.IsFailFast(ctx) && len(iss) > 0 {
		return nil, pm, iss
	}
	iss = storeskema.AppendIssues(iss, o.collectUnknown(src, out, pm)...)
	if len(iss) > 0 {
		return nil, pm, iss
	}
	if err := o.refine(ctx, out); err != nil {
		return nil, pm, err
	}
	return out, pm, nil
}

func (o *objectSchema) Parse(ctx context.Context, v any) (map[string]any, error) {
	out, _, err := o.parse(ctx, v)
	return out, err
}

func (o *objectSchema) ParseWithMeta(ctx context.Context, v any) (storeskema.Decoded[map[string]any], error) {
	out, pm, err := o.parse(ctx, v)
	return storeskema.Decoded[map[string]any]{Value: out, Presence: pm}, err
}

func (o *objectSchema) ValidateValue(ctx context.Context, v map[string]any) error {
	var iss storeskema.Issues
	for _, k := range o.sortedKeys {
		ad := o.fields[k]
		path := storeskema.JoinPointer("", k)
		val, ok := v[k]
		if !ok || val == nil {
			if _, req := o.required[k]; req {
				iss = storeskema.AppendIssues(iss, requiredIssue(path))
			}
			continue
		}
		if err := ad.validate(ctx, val); err != nil {
			iss = storeskema.AppendIssues(iss, childIssues(path, ad, err)...)
		}
	}
	if len(iss) > 0 {
		return iss
	}
	return nil
}

// refine runs builder-registered object checks in registration order.
func (o *objectSchema) refine(ctx context.Context, v map[string]any) error {
	var iss storeskema.Issues
	for _, r := range o.refines {
		err := r.fn(ctx, v)
		if err == nil {
			continue
		}
		if i2, ok := storeskema.AsIssues(err); ok {
			for _, it := range i2 {
				if it.Rule == "" {
					it.Rule = r.name
				}
				iss = storeskema.AppendIssues(iss, it)
			}
		} else {
			iss = storeskema.AppendIssues(iss, storeskema.Issue{Path: "/", Code: storeskema.CodeCustom, Message: err.Error(), Cause: err, Rule: r.name})
		}
		if storeskema.IsFailFast(ctx) {
			return iss
		}
	}
	if len(iss) > 0 {
		return iss
	}
	return nil
}

func (o *objectSchema) JSONSchema() (*js.Schema, error) {
	props := make(map[string]*js.Schema, len(o.fields))
	for k, ad := range o.fields {
		if ad.jsonSchema != nil {
			ps, err := ad.jsonSchema()
			if err != nil {
				return nil, err
			}
			if ps != nil {
				props[k] = ps
				continue
			}
		}
		props[k] = &js.Schema{}
	}
	req := make([]string, 0, len(o.required))
	for k := range o.required {
		req = append(req, k)
	}
	sort.Strings(req)
	var additional any
	switch o.unknownPolicy {
	case storeskema.UnknownStrict:
		additional = false
	case storeskema.UnknownStrip, storeskema.UnknownPassthrough:
		// Runtime accepts unknown keys (then drops or collects them).
		additional = true
	}
	return &js.Schema{Title: o.title, Type: "object", Properties: props, Required: req, AdditionalProperties: additional}, nil
}

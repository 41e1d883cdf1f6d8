package storeskema

import (
	"bytes"
	"io"

	eng "github.com/kioskcart/storeskema/internal/engine"
)

// Source is a stream of JSON tokens feeding the decoder.
type Source interface {
	tokens() eng.TokenSource
	// Location is the byte offset reached so far, or -1 when unknown.
	Location() int64
}

type jsonSource struct {
	inner eng.TokenSource
}

func (s *jsonSource) tokens() eng.TokenSource { return s.inner }
func (s *jsonSource) Location() int64        { return s.inner.Location() }

// JSONReader wraps an io.Reader as a JSON Source backed by goccy/go-json.
func JSONReader(r io.Reader) Source { return &jsonSource{inner: eng.NewReader(r)} }

// JSONBytes wraps a byte slice as a JSON Source.
func JSONBytes(b []byte) Source { return JSONReader(bytes.NewReader(b)) }

func toEngineDup(s Severity) eng.DupPolicy {
	switch s {
	case Warn:
		return eng.DupWarn
	case Error:
		return eng.DupError
	default:
		return eng.DupIgnore
	}
}

// enforce wraps src with duplicate-key and depth enforcement. Warnings for
// duplicate keys go to sink when set.
func enforce(src Source, opt ParseOpt, sink func(Issue)) eng.TokenSource {
	ts := src.tokens()
	if opt.Strictness.OnDuplicateKey == Ignore && opt.MaxDepth == 0 && opt.MaxBytes == 0 {
		return ts
	}
	var forward func(eng.Violation)
	if sink != nil {
		forward = func(v eng.Violation) {
			sink(Issue{Path: v.Path, Code: v.Code, Message: v.Message})
		}
	}
	return eng.Guard(ts, eng.Limits{
		Duplicates:  toEngineDup(opt.Strictness.OnDuplicateKey),
		MaxDepth:    opt.MaxDepth,
		MaxBytes:    opt.MaxBytes,
		OnViolation: forward,
		FailFast:    opt.FailFast,
	})
}

func numberConv(m NumberMode) eng.NumberConv {
	if m == NumberFloat64 {
		return eng.AsFloat64
	}
	return eng.AsJSONNumber
}

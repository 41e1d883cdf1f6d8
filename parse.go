package storeskema

import (
	"context"
	"errors"
	"io"

	eng "github.com/kioskcart/storeskema/internal/engine"
)

func pickOpt(opts []ParseOpt) ParseOpt {
	if len(opts) > 0 {
		return opts[len(opts)-1]
	}
	return DefaultParseOpt()
}

// Decode reads one JSON value from src into an untyped tree. Objects decode
// to RawRecord and numbers to json.Number unless opt selects float64.
func Decode(src Source, opts ...ParseOpt) (any, error) {
	opt := pickOpt(opts)
	v, err := eng.Decode(enforce(src, opt, nil), numberConv(opt.Numbers))
	if err != nil {
		return nil, toIssues(err)
	}
	return v, nil
}

// DecodeRecords reads a JSON array of objects, or a stream of objects, into
// raw records. Elements that are not objects are reported at their index.
func DecodeRecords(src Source, opts ...ParseOpt) ([]RawRecord, error) {
	opt := pickOpt(opts)
	var (
		out []RawRecord
		iss Issues
	)
	err := eng.DecodeStream(enforce(src, opt, nil), numberConv(opt.Numbers), func(v any) error {
		m, ok := v.(map[string]any)
		if !ok {
			iss = AppendIssues(iss, IssueAt(NewRef(nil).Root().Index(len(out)).Pointer(), CodeInvalidType, "expected object", nil))
			m = nil
		}
		out = append(out, m)
		return nil
	})
	if err != nil {
		return nil, toIssues(err)
	}
	if len(iss) > 0 {
		return out, iss
	}
	return out, nil
}

// ParseFrom decodes src and validates the result with s.
func ParseFrom[T any](ctx context.Context, s Schema[T], src Source, opts ...ParseOpt) (T, error) {
	var zero T
	if s == nil {
		return zero, singleIssue(CodeParseError, "nil schema")
	}
	opt := pickOpt(opts)
	if opt.FailFast {
		ctx = WithFailFast(ctx, true)
	}
	v, err := Decode(src, opt)
	if err != nil {
		return zero, err
	}
	return s.Parse(ctx, v)
}

// StreamParse validates JSON read from r. When MaxBytes is set the input is
// capped up front and larger documents fail with a truncated issue.
func StreamParse[T any](ctx context.Context, s Schema[T], r io.Reader, opts ...ParseOpt) (T, error) {
	opt := pickOpt(opts)
	if opt.MaxBytes > 0 {
		data, err := io.ReadAll(io.LimitReader(r, opt.MaxBytes+1))
		if err != nil {
			var zero T
			return zero, singleIssue(CodeParseError, err.Error())
		}
		if int64(len(data)) > opt.MaxBytes {
			var zero T
			return zero, singleIssue(CodeTruncated, "max bytes exceeded")
		}
		return ParseFrom(ctx, s, JSONBytes(data), opt)
	}
	return ParseFrom(ctx, s, JSONReader(r), opt)
}

func toIssues(err error) Issues {
	if err == nil {
		return nil
	}
	if ii, ok := AsIssues(err); ok {
		return ii
	}
	var ie eng.ViolationError
	if errors.As(err, &ie) {
		return AppendIssues(nil, Issue{Code: ie.Code, Path: ie.Path, Message: ie.Message})
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return AppendIssues(nil, Issue{Path: "/", Code: CodeParseError, Message: "unexpected end of JSON input", Cause: err})
	}
	return AppendIssues(nil, Issue{Path: "/", Code: CodeParseError, Message: err.Error(), Cause: err})
}

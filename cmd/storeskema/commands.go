package main

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	_ "modernc.org/sqlite"

	storeskema "github.com/kioskcart/storeskema"
	"github.com/kioskcart/storeskema/batch"
	"github.com/kioskcart/storeskema/entity"
	"github.com/kioskcart/storeskema/envelope"
	"github.com/kioskcart/storeskema/i18n"
	"github.com/kioskcart/storeskema/internal/config"
	"github.com/kioskcart/storeskema/metrics"
	"github.com/kioskcart/storeskema/rules"
	"github.com/kioskcart/storeskema/source/sqlrows"
	"github.com/kioskcart/storeskema/source/yamlrows"
)

// errRejected marks a run whose input was rejected; the envelope already
// describes why.
var errRejected = errors.New("input rejected")

type commonFlags struct {
	config  string
	entity  string
	policy  string
	workers int
	metrics string
}

func (c *commonFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&c.config, "config", "", "YAML settings file")
	fs.StringVar(&c.entity, "entity", "", "entity name (see 'storeskema entities')")
	fs.StringVar(&c.policy, "policy", "", "batch policy: fail-fast or skip-invalid")
	fs.IntVar(&c.workers, "workers", 0, "records evaluated in parallel")
	fs.StringVar(&c.metrics, "metrics", "", "write Prometheus metrics to this file")
}

type app struct {
	cfg         config.Config
	logger      *slog.Logger
	entry       entity.Entry
	reg         *prometheus.Registry
	metrics     *metrics.Metrics
	out         io.Writer
	metricsPath string
}

func newApp(c commonFlags, stdout, stderr io.Writer) (*app, error) {
	cfg, err := config.Load(c.config)
	if err != nil {
		return nil, err
	}
	if c.policy != "" {
		cfg.Policy = c.policy
	}
	if c.workers > 0 {
		cfg.Workers = c.workers
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	level, err := cfg.Log.SlogLevel()
	if err != nil {
		return nil, err
	}
	i18n.SetLanguage(cfg.Lang)

	if c.entity == "" {
		return nil, fmt.Errorf("%w: -entity is required", errUsage)
	}
	e, err := entity.Lookup(c.entity)
	if err != nil {
		return nil, err
	}
	reg := prometheus.NewRegistry()
	return &app{
		cfg:         cfg,
		logger:      newLogger(stderr, cfg.Log.Format, level).With(slog.String("entity", e.Name())),
		entry:       e,
		reg:         reg,
		metrics:     metrics.New(reg),
		out:         stdout,
		metricsPath: c.metrics,
	}, nil
}

func (a *app) context(ctx context.Context) context.Context {
	return storeskema.WithDiagnostics(ctx, a.metrics.Sink(storeskema.LogDiagnostics(a.logger)))
}

func (a *app) batchOptions() []batch.Option {
	return []batch.Option{batch.WithWorkers(a.cfg.Workers), batch.WithObserver(a.metrics)}
}

func (a *app) write(v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	_, err = fmt.Fprintf(a.out, "%s\n", b)
	return err
}

func (a *app) flushMetrics() {
	if a.metricsPath == "" {
		return
	}
	if err := prometheus.WriteToTextfile(a.metricsPath, a.reg); err != nil {
		a.logger.Error("write metrics", slog.String("path", a.metricsPath), slog.String("error", err.Error()))
	}
}

// runOne answers a single record with one envelope.
func (a *app) runOne(ctx context.Context, raw storeskema.RawRecord) error {
	v, err := a.entry.Run(ctx, raw)
	resp := envelope.From(v, err)
	if err := a.write(resp); err != nil {
		return err
	}
	if !resp.OK() {
		return errRejected
	}
	return nil
}

// runBulk answers with a per-record bulk summary.
func (a *app) runBulk(ctx context.Context, recs []storeskema.RawRecord) error {
	b, err := a.entry.Bulk(ctx, recs, a.batchOptions()...)
	if err != nil {
		return err
	}
	if err := a.write(b); err != nil {
		return err
	}
	if f, ok := b.(interface{ Facts() rules.BulkFacts }); ok && !f.Facts().Success {
		return errRejected
	}
	return nil
}

// runBatch processes recs under the configured policy.
func (a *app) runBatch(ctx context.Context, recs []storeskema.RawRecord) error {
	policy, err := a.cfg.BatchPolicy()
	if err != nil {
		return fmt.Errorf("%w (set -policy or %sPOLICY)", err, config.EnvPrefix)
	}
	start := time.Now()
	out, rep, err := a.entry.RunBatch(ctx, recs, policy, a.batchOptions()...)
	if err != nil {
		var re *batch.RecordError
		if !errors.As(err, &re) {
			return err
		}
		f := envelope.Fail(err)
		f.Message = fmt.Sprintf("record %d", re.Index)
		if re.ID != "" {
			f.Message += fmt.Sprintf(" (id %s)", re.ID)
		}
		if werr := a.write(f); werr != nil {
			return werr
		}
		a.logger.Warn("batch aborted", slog.Int("index", re.Index), slog.String("id", re.ID))
		return errRejected
	}
	a.logger.Info("batch processed",
		slog.String("policy", policy.String()),
		slog.Int("total", rep.Total),
		slog.Int("accepted", rep.Accepted),
		slog.Int("skipped", rep.Skipped),
		slog.Duration("elapsed", time.Since(start)),
	)
	return a.write(envelope.Success[any]{
		Data:    out,
		Message: fmt.Sprintf("%d accepted, %d skipped", rep.Accepted, rep.Skipped),
	})
}

func validateCmd(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("validate", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		c    commonFlags
		in   string
		bulk bool
	)
	c.register(fs)
	fs.StringVar(&in, "in", "", "input file (default stdin)")
	fs.BoolVar(&bulk, "bulk", false, "answer with a per-record bulk summary instead of failing or skipping")
	if err := fs.Parse(args); err != nil {
		return err
	}
	a, err := newApp(c, stdout, stderr)
	if err != nil {
		return err
	}
	defer a.flushMetrics()

	recs, single, err := readInput(in, stdin, a.cfg.MaxDepth)
	if err != nil {
		if iss, ok := storeskema.AsIssues(err); ok {
			if werr := a.write(envelope.Fail(iss)); werr != nil {
				return werr
			}
			return errRejected
		}
		return err
	}
	ctx = a.context(ctx)
	switch {
	case bulk:
		return a.runBulk(ctx, recs)
	case single:
		return a.runOne(ctx, recs[0])
	default:
		return a.runBatch(ctx, recs)
	}
}

// readInput returns the records of in (stdin when empty). single reports a
// lone JSON object as opposed to an array or a stream.
func readInput(in string, stdin io.Reader, maxDepth int) ([]storeskema.RawRecord, bool, error) {
	r := stdin
	if in != "" && in != "-" {
		f, err := os.Open(in)
		if err != nil {
			return nil, false, fmt.Errorf("open input: %w", err)
		}
		defer f.Close()
		r = f
	}
	switch strings.ToLower(filepath.Ext(in)) {
	case ".yaml", ".yml":
		recs, err := yamlrows.NewReader(r).Records()
		return recs, false, err
	}

	b, err := io.ReadAll(r)
	if err != nil {
		return nil, false, fmt.Errorf("read input: %w", err)
	}
	opt := storeskema.DefaultParseOpt()
	opt.MaxDepth = maxDepth
	recs, err := storeskema.DecodeRecords(storeskema.JSONBytes(b), opt)
	if err != nil {
		return nil, false, err
	}
	single := len(recs) == 1 && bytes.HasPrefix(bytes.TrimSpace(b), []byte("{"))
	return recs, single, nil
}

func queryCmd(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("query", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		c      commonFlags
		query  string
		driver string
		dsn    string
		bulk   bool
	)
	c.register(fs)
	fs.StringVar(&query, "sql", "", "SELECT statement returning rows of the entity's table")
	fs.StringVar(&driver, "driver", "", "database driver: sqlite or postgres")
	fs.StringVar(&dsn, "dsn", "", "data source name")
	fs.BoolVar(&bulk, "bulk", false, "answer with a per-record bulk summary")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if query == "" {
		fmt.Fprintln(stderr, "query: -sql is required")
		return errUsage
	}
	a, err := newApp(c, stdout, stderr)
	if err != nil {
		return err
	}
	defer a.flushMetrics()
	if driver != "" {
		a.cfg.DB.Driver = driver
	}
	if dsn != "" {
		a.cfg.DB.DSN = dsn
	}
	if a.cfg.DB.DSN == "" {
		return fmt.Errorf("%w: no data source (set -dsn or %sDB_DSN)", errUsage, config.EnvPrefix)
	}

	db, err := sql.Open(a.cfg.DB.Driver, a.cfg.DB.DSN)
	if err != nil {
		return fmt.Errorf("open %s: %w", a.cfg.DB.Driver, err)
	}
	defer db.Close()
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("query: %w", err)
	}
	recs, err := sqlrows.Collect(rows)
	if err != nil {
		return err
	}
	a.logger.Debug("rows fetched", slog.Int("rows", len(recs)), slog.String("driver", a.cfg.DB.Driver))

	ctx = a.context(ctx)
	if bulk {
		return a.runBulk(ctx, recs)
	}
	return a.runBatch(ctx, recs)
}

func schemaCmd(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("schema", flag.ContinueOnError)
	fs.SetOutput(stderr)
	name := fs.String("entity", "", "entity name")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *name == "" {
		fmt.Fprintln(stderr, "schema: -entity is required")
		return errUsage
	}
	e, err := entity.Lookup(*name)
	if err != nil {
		return err
	}
	s, err := e.JSONSchema()
	if err != nil {
		return err
	}
	b, err := s.MarshalIndent()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(stdout, "%s\n", b)
	return err
}

func entitiesCmd(stdout io.Writer) error {
	for _, n := range entity.Names() {
		if _, err := fmt.Fprintln(stdout, n); err != nil {
			return err
		}
	}
	return nil
}

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

const usageText = `storeskema validates and normalizes storefront records

Usage:
  storeskema validate -entity E [-policy P] [-in file] [-bulk] [-workers n]
  storeskema query    -entity E [-policy P] -sql QUERY [-driver sqlite|postgres] [-dsn DSN]
  storeskema schema   -entity E
  storeskema entities

Common flags:
  -config file   YAML settings (overridden by STORESKEMA_* variables)
  -metrics file  write Prometheus metrics in text format after the run

Input (-in, default stdin) is JSON (an object, an array or a stream of
objects) or YAML when the file ends in .yaml/.yml. A single JSON object is
answered with one envelope; several records need an explicit policy.`

// errUsage makes run exit with status 2.
var errUsage = errors.New("usage")

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		fmt.Fprintln(stderr, usageText)
		return 2
	}
	var err error
	switch args[0] {
	case "validate":
		err = validateCmd(ctx, args[1:], stdin, stdout, stderr)
	case "query":
		err = queryCmd(ctx, args[1:], stdout, stderr)
	case "schema":
		err = schemaCmd(args[1:], stdout, stderr)
	case "entities":
		err = entitiesCmd(stdout)
	case "help", "-h", "--help":
		fmt.Fprintln(stdout, usageText)
		return 0
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n%s\n", args[0], usageText)
		return 2
	}
	switch {
	case err == nil:
		return 0
	case errors.Is(err, errUsage), errors.Is(err, flag.ErrHelp):
		return 2
	case errors.Is(err, errRejected):
		return 1
	default:
		fmt.Fprintf(stderr, "storeskema %s: %v\n", args[0], err)
		return 1
	}
}

func newLogger(w io.Writer, format string, level slog.Level) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// Package sink delivers run results: comma-separated rows for a terminal,
// a SQLite results table, a Prometheus textfile and JSON exports of the
// final tree and the dispatch trace.
package sink

import (
	"context"
	"fmt"
	"io"

	"github.com/hashicorp/go-multierror"

	"github.com/inference-sim/schedule-sim/sim"
)

// Sink receives the results of finished runs.
type Sink interface {
	Write(ctx context.Context, res *sim.Result, opts sim.OutputOptions) error
	Close() error
}

// RowWriter writes each result as a comma-separated row. Results whose
// options request nothing are skipped.
type RowWriter struct {
	w          io.Writer
	withHeader bool
	wroteHead  bool
}

// NewRowWriter writes rows to w, preceded by a header line when withHeader is set.
func NewRowWriter(w io.Writer, withHeader bool) *RowWriter {
	return &RowWriter{w: w, withHeader: withHeader}
}

func (r *RowWriter) Write(_ context.Context, res *sim.Result, opts sim.OutputOptions) error {
	row, ok := res.Row(opts)
	if !ok {
		return nil
	}
	if r.withHeader && !r.wroteHead {
		if _, err := fmt.Fprintln(r.w, res.Header(opts)); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
		r.wroteHead = true
	}
	if _, err := fmt.Fprintln(r.w, row); err != nil {
		return fmt.Errorf("writing row: %w", err)
	}
	return nil
}

func (r *RowWriter) Close() error { return nil }

// multi fans every call out to several sinks.
type multi []Sink

// Multi returns a Sink writing to every non-nil sink in order. Failures are
// collected so one broken sink does not hide results from the others.
func Multi(sinks ...Sink) Sink {
	var m multi
	for _, s := range sinks {
		if s != nil {
			m = append(m, s)
		}
	}
	return m
}

func (m multi) Write(ctx context.Context, res *sim.Result, opts sim.OutputOptions) error {
	var errs *multierror.Error
	for _, s := range m {
		if err := s.Write(ctx, res, opts); err != nil {
			errs = multierror.Append(errs, err)
		}
	}
	return errs.ErrorOrNil()
}

func (m multi) Close() error {
	var errs *multierror.Error
	for _, s := range m {
		if err := s.Close(); err != nil {
			errs = multierror.Append(errs, err)
		}
	}
	return errs.ErrorOrNil()
}

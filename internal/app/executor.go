package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/jsamuelsen/quote-session/internal/platform/logging"
)

// A load moves a fetched collection into a session in five stages:
//
//	check   the load ticket is usable
//	fetch   the quote source is called
//	vet     the collection is non-empty with unique ids
//	commit  the session takes the collection and persists it
//	reply   a snapshot is built for the waiter
//
// The session keeps its previous collection unless commit runs.

// Stage names one step of a Pipeline.
type Stage string

const (
	StageCheck  Stage = "check"
	StageFetch  Stage = "fetch"
	StageVet    Stage = "vet"
	StageCommit Stage = "commit"
	StageReply  Stage = "reply"
)

// StageError records which stage of a pipeline failed.
type StageError struct {
	Pipeline string
	Stage    Stage
	Err      error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %s stage: %v", e.Pipeline, e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// FailedStage returns the stage err came from, if it came from a pipeline.
func FailedStage(err error) (Stage, bool) {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage, true
	}

	return "", false
}

// StageCause strips the stage annotation from err.
func StageCause(err error) error {
	var se *StageError
	if errors.As(err, &se) && se.Err != nil {
		return se.Err
	}

	return err
}

// Pipeline describes a staged operation. In is the request, Raw what fetch
// produces, Vetted what survives vet and Out the reply. Nil stages are
// skipped and yield zero values.
type Pipeline[In, Raw, Vetted, Out any] struct {
	Name   string
	Check  func(ctx context.Context, in In) error
	Fetch  func(ctx context.Context, in In) (Raw, error)
	Vet    func(ctx context.Context, in In, raw Raw) (Vetted, error)
	Commit func(ctx context.Context, in In, v Vetted) error
	Reply  func(ctx context.Context, in In, v Vetted) (Out, error)
}

// Runner executes pipelines with stage logging and span events.
type Runner struct {
	logger *slog.Logger
}

// NewRunner creates a Runner. A nil logger means slog.Default.
func NewRunner(logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}

	return &Runner{logger: logger}
}

// Run executes p for in, stopping at the first failing stage.
func Run[In, Raw, Vetted, Out any](ctx context.Context, r *Runner, p Pipeline[In, Raw, Vetted, Out], in In) (Out, error) {
	var (
		out    Out
		raw    Raw
		vetted Vetted
	)

	logger := logging.FromContextOr(ctx, r.logger).With(slog.String("pipeline", p.Name))
	span := trace.SpanFromContext(ctx)
	start := time.Now()

	stage := func(s Stage, fn func() error) error {
		logger.DebugContext(ctx, "stage started", slog.String("stage", string(s)))
		span.AddEvent(p.Name + "." + string(s))

		if err := fn(); err != nil {
			level := slog.LevelError
			if s == StageCheck || s == StageReply {
				level = slog.LevelWarn
			}

			logger.Log(ctx, level, "stage failed", slog.String("stage", string(s)), slog.Any("error", err))

			return &StageError{Pipeline: p.Name, Stage: s, Err: err}
		}

		return nil
	}

	fetch := func() (err error) {
		raw, err = p.Fetch(ctx, in)
		return err
	}

	vet := func() (err error) {
		vetted, err = p.Vet(ctx, in, raw)
		return err
	}

	reply := func() (err error) {
		out, err = p.Reply(ctx, in, vetted)
		return err
	}

	steps := []struct {
		stage Stage
		run   func() error
		skip  bool
	}{
		{StageCheck, func() error { return p.Check(ctx, in) }, p.Check == nil},
		{StageFetch, fetch, p.Fetch == nil},
		{StageVet, vet, p.Vet == nil},
		{StageCommit, func() error { return p.Commit(ctx, in, vetted) }, p.Commit == nil},
		{StageReply, reply, p.Reply == nil},
	}

	for _, st := range steps {
		if st.skip {
			continue
		}

		if err := stage(st.stage, st.run); err != nil {
			var zero Out
			return zero, err
		}
	}

	logger.InfoContext(ctx, "pipeline completed", slog.Duration("duration", time.Since(start)))

	return out, nil
}

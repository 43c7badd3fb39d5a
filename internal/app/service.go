// Package app contains application services that orchestrate use cases.
// This is the application layer in Clean Architecture - it coordinates
// domain logic and infrastructure through ports.
//
// Application Layer Responsibilities:
//   - Own one quote session per user and serialize commands against it
//   - Run quote loads through the transactional pipeline
//   - Persist session state after every mutation
//   - Handle cross-cutting concerns (logging, metrics, tracing)
//
// What does NOT belong here:
//   - HTTP specifics (that's adapters)
//   - Store encodings beyond the JSON records below (that's store adapters)
//   - Session transition rules (that's the domain layer)
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jsamuelsen/quote-session/internal/domain"
	"github.com/jsamuelsen/quote-session/internal/platform/logging"
	"github.com/jsamuelsen/quote-session/internal/ports"
)

const (
	tracerName = "github.com/jsamuelsen/quote-session/internal/app"

	defaultLoadTimeout  = 30 * time.Second
	defaultFlushWorkers = 4
)

// SessionService owns the quote sessions of all users.
//
// Each command resolves the caller through the IdentityProvider, opens (and
// restores) that user's session on first use, and runs under the session's
// lock. Store writes happen under the same lock right after the in-memory
// change, so the next command always observes them.
type SessionService struct {
	source   ports.QuoteSource
	store    ports.KeyValueStore
	identity ports.IdentityProvider
	flags    ports.FeatureFlags
	logger   *slog.Logger
	metrics  *Metrics
	runner   *Runner
	tracer   trace.Tracer

	loadTimeout time.Duration
	autoLoad    bool
	random      func(int) int

	mu       sync.Mutex
	sessions map[string]*sessionEntry
	loads    sync.WaitGroup
}

// SessionServiceConfig contains the dependencies of the session service.
type SessionServiceConfig struct {
	// Source supplies quote collections. Required.
	Source ports.QuoteSource

	// Store persists session state. Required.
	Store ports.KeyValueStore

	// Identity scopes sessions per user. Nil means every caller is anonymous.
	Identity ports.IdentityProvider

	// Flags toggles optional behaviour. Nil means defaults.
	Flags ports.FeatureFlags

	// Logger defaults to slog.Default().
	Logger *slog.Logger

	// Metrics is optional.
	Metrics *Metrics

	// LoadTimeout bounds a single quote load. Defaults to 30s.
	LoadTimeout time.Duration

	// AutoLoad requests a load as soon as a session is opened.
	AutoLoad bool

	// Random overrides the index picker of new sessions.
	Random func(int) int
}

type sessionEntry struct {
	mu   sync.Mutex
	user domain.User
	keys ports.SessionKeys
	sess *domain.Session

	// restored is set once the persisted state has been read. Until then
	// the liked set and cursor are not written back.
	restored   bool
	autoLoaded bool
}

// NewSessionService creates a session service.
// Panics if Source or Store is nil.
func NewSessionService(cfg SessionServiceConfig) *SessionService {
	if cfg.Source == nil {
		panic("app: SessionServiceConfig.Source is required")
	}

	if cfg.Store == nil {
		panic("app: SessionServiceConfig.Store is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	logger = logger.With(slog.String("component", "app.SessionService"))

	timeout := cfg.LoadTimeout
	if timeout <= 0 {
		timeout = defaultLoadTimeout
	}

	return &SessionService{
		source:      cfg.Source,
		store:       cfg.Store,
		identity:    cfg.Identity,
		flags:       cfg.Flags,
		logger:      logger,
		metrics:     cfg.Metrics,
		runner:      NewRunner(logger),
		tracer:      otel.Tracer(tracerName),
		loadTimeout: timeout,
		autoLoad:    cfg.AutoLoad,
		random:      cfg.Random,
		sessions:    make(map[string]*sessionEntry),
	}
}

func (s *SessionService) currentUser(ctx context.Context) domain.User {
	if s.identity == nil {
		return domain.User{}
	}

	user, ok := s.identity.CurrentUser(ctx)
	if !ok {
		return domain.User{}
	}

	return user
}

func (s *SessionService) log(ctx context.Context, e *sessionEntry) *slog.Logger {
	return logging.FromContextOr(ctx, s.logger).With(slog.String("session", e.user.Key()))
}

// entry returns the caller's session, creating and restoring it on first use.
func (s *SessionService) entry(ctx context.Context) *sessionEntry {
	user := s.currentUser(ctx)
	key := user.Key()

	s.mu.Lock()

	e, ok := s.sessions[key]
	if !ok {
		var opts []domain.SessionOption
		if s.random != nil {
			opts = append(opts, domain.WithRandom(s.random))
		}

		e = &sessionEntry{
			user: user,
			keys: ports.KeysFor(user),
			sess: domain.NewSession(opts...),
		}
		s.sessions[key] = e
		s.metrics.sessions(len(s.sessions))
	}

	s.mu.Unlock()

	e.mu.Lock()
	s.restoreLocked(ctx, e)
	startLoad := s.autoLoad && !e.autoLoaded
	e.autoLoaded = true
	e.mu.Unlock()

	if startLoad {
		if _, err := s.requestLoad(ctx, e); err != nil {
			s.log(ctx, e).WarnContext(ctx, "auto load not started", slog.Any("error", err))
		}
	}

	return e
}

// restoreLocked reads the persisted liked set and cursor into the session
// unless that already succeeded. A failed read is retried on the next
// command. Callers hold e.mu.
func (s *SessionService) restoreLocked(ctx context.Context, e *sessionEntry) bool {
	if e.restored {
		return true
	}

	// The stored state must not be lost to the caller giving up.
	ctx = context.WithoutCancel(ctx)

	liked, cursor, err := Both(ctx,
		func(ctx context.Context) ([]string, error) {
			var ids []string
			_, err := readJSON(ctx, s.store, e.keys.Liked, &ids)

			return ids, err
		},
		func(ctx context.Context) (cursorRecord, error) {
			var rec cursorRecord
			_, err := readJSON(ctx, s.store, e.keys.Cursor, &rec)

			return rec, err
		},
	)
	if err != nil {
		s.persistFailed(ctx, e, "get", err)
		return false
	}

	// Likes and moves made while the store was unreadable are kept.
	snap := e.sess.Snapshot()
	liked = append(liked, snap.Liked...)

	if len(snap.History) > 0 {
		cursor = newCursorRecord(e.sess)
	}

	e.sess.Restore(cursor.Current, cursor.History, liked)
	e.restored = true

	if len(snap.Liked) > 0 || len(snap.History) > 0 {
		s.persist(ctx, e, persistLiked|persistCursor)
	}

	if !e.user.IsAnonymous() {
		if err := writeJSON(ctx, s.store, e.keys.Profile, e.user); err != nil {
			s.persistFailed(ctx, e, "set", err)
		}
	}

	s.log(ctx, e).DebugContext(ctx, "session opened",
		slog.Int("liked", len(e.sess.LikedIDs())),
		slog.Int("history", len(cursor.History)),
	)

	return true
}

// persistFailed records a non-fatal store failure on the session.
// Callers hold e.mu.
func (s *SessionService) persistFailed(ctx context.Context, e *sessionEntry, op string, err error) {
	s.metrics.persistFailure(op)
	s.log(ctx, e).WarnContext(ctx, "session persistence failed",
		slog.String("op", op),
		slog.Any("error", err),
	)
	e.sess.SetError(err.Error())
}

type persistSet uint8

const (
	persistQuotes persistSet = 1 << iota
	persistLiked
	persistCursor
)

// persist writes the selected parts of the session. Callers hold e.mu and
// have already committed the in-memory change.
func (s *SessionService) persist(ctx context.Context, e *sessionEntry, what persistSet) {
	if what&persistQuotes != 0 {
		if err := writeJSON(ctx, s.store, e.keys.Quotes, e.sess.Quotes()); err != nil {
			s.persistFailed(ctx, e, "set", err)
		}
	}

	if !e.restored {
		return
	}

	if what&persistLiked != 0 {
		if err := writeJSON(ctx, s.store, e.keys.Liked, e.sess.LikedIDs()); err != nil {
			s.persistFailed(ctx, e, "set", err)
		}
	}

	if what&persistCursor != 0 {
		if err := writeJSON(ctx, s.store, e.keys.Cursor, newCursorRecord(e.sess)); err != nil {
			s.persistFailed(ctx, e, "set", err)
		}
	}
}

// Snapshot returns the caller's session state.
func (s *SessionService) Snapshot(ctx context.Context) domain.SessionSnapshot {
	e := s.entry(ctx)

	e.mu.Lock()
	defer e.mu.Unlock()

	return e.sess.Snapshot()
}

// Next moves the caller's session to a random quote.
func (s *SessionService) Next(ctx context.Context) (domain.Quote, error) {
	e := s.entry(ctx)

	e.mu.Lock()
	defer e.mu.Unlock()

	next := e.sess.Next
	if s.flags != nil && s.flags.IsEnabled(ctx, ports.FlagNextAvoidRepeat, false) {
		next = e.sess.NextDistinct
	}

	q, err := next()
	s.metrics.command("next", err)

	if err != nil {
		return domain.Quote{}, err
	}

	s.persist(ctx, e, persistCursor)

	return q, nil
}

// Previous steps the caller's session back. moved is false when the
// history was empty.
func (s *SessionService) Previous(ctx context.Context) (q domain.Quote, moved bool, err error) {
	e := s.entry(ctx)

	e.mu.Lock()
	defer e.mu.Unlock()

	q, moved, err = e.sess.Previous()
	s.metrics.command("previous", err)

	if err != nil {
		return domain.Quote{}, false, err
	}

	if moved {
		s.persist(ctx, e, persistCursor)
	}

	return q, moved, nil
}

// ToggleLike flips the like on quote id and returns the new membership.
func (s *SessionService) ToggleLike(ctx context.Context, id string) (bool, error) {
	e := s.entry(ctx)

	e.mu.Lock()
	defer e.mu.Unlock()

	liked, err := e.sess.ToggleLike(id)
	s.metrics.command("toggle_like", err)

	if err != nil {
		return false, err
	}

	s.persist(ctx, e, persistLiked|persistQuotes)

	return liked, nil
}

// LikeCurrent toggles the like on the displayed quote.
func (s *SessionService) LikeCurrent(ctx context.Context) (id string, liked bool, err error) {
	e := s.entry(ctx)

	e.mu.Lock()
	defer e.mu.Unlock()

	id, liked, err = e.sess.LikeCurrent()
	s.metrics.command("like_current", err)

	if err != nil {
		return "", false, err
	}

	s.persist(ctx, e, persistLiked|persistQuotes)

	return id, liked, nil
}

// SetError sets or, with an empty message, clears the session error.
func (s *SessionService) SetError(ctx context.Context, msg string) domain.SessionSnapshot {
	e := s.entry(ctx)

	e.mu.Lock()
	defer e.mu.Unlock()

	e.sess.SetError(msg)
	s.metrics.command("set_error", nil)

	return e.sess.Snapshot()
}

// SetLoading toggles the loading flag of the session.
func (s *SessionService) SetLoading(ctx context.Context, loading bool) domain.SessionSnapshot {
	e := s.entry(ctx)

	e.mu.Lock()
	defer e.mu.Unlock()

	e.sess.SetLoading(loading)
	s.metrics.command("set_loading", nil)

	return e.sess.Snapshot()
}

// ReplaceQuotes loads quotes the caller already holds, bypassing the source.
func (s *SessionService) ReplaceQuotes(ctx context.Context, quotes []domain.Quote) (domain.SessionSnapshot, error) {
	e := s.entry(ctx)

	e.mu.Lock()
	defer e.mu.Unlock()

	err := e.sess.LoadQuotes(quotes)
	s.metrics.command("replace_quotes", err)

	if err != nil {
		return e.sess.Snapshot(), err
	}

	s.persist(ctx, e, persistQuotes|persistCursor)

	return e.sess.Snapshot(), nil
}

// Quotes returns the caller's loaded collection.
func (s *SessionService) Quotes(ctx context.Context) []domain.Quote {
	e := s.entry(ctx)

	e.mu.Lock()
	defer e.mu.Unlock()

	return e.sess.Quotes()
}

// Quote returns one quote of the caller's collection.
func (s *SessionService) Quote(ctx context.Context, id string) (domain.Quote, error) {
	e := s.entry(ctx)

	e.mu.Lock()
	defer e.mu.Unlock()

	q, ok := e.sess.Quote(id)
	if !ok {
		return domain.Quote{}, domain.NewNotFoundError("quote", id)
	}

	return q, nil
}

// LikedQuotes returns the liked quotes of the caller's collection.
func (s *SessionService) LikedQuotes(ctx context.Context) []domain.Quote {
	e := s.entry(ctx)

	e.mu.Lock()
	defer e.mu.Unlock()

	return e.sess.LikedQuotes()
}

// SignOut drops the caller's in-memory session after flushing it.
// Persisted state stays in the store and is restored on the next sign-in.
func (s *SessionService) SignOut(ctx context.Context) error {
	user := s.currentUser(ctx)

	s.mu.Lock()
	e, ok := s.sessions[user.Key()]
	s.mu.Unlock()

	if !ok {
		return nil
	}

	e.mu.Lock()
	pending := e.sess.LoadPending()
	e.mu.Unlock()

	if pending {
		return domain.NewConflictError("session", "load in flight")
	}

	if err := s.flush(ctx, e); err != nil {
		return err
	}

	s.mu.Lock()
	delete(s.sessions, user.Key())
	s.metrics.sessions(len(s.sessions))
	s.mu.Unlock()

	s.log(ctx, e).InfoContext(ctx, "session signed out")

	return nil
}

// flush writes the liked set and cursor of e. A session whose persisted
// state could not be read is not flushed over it.
func (s *SessionService) flush(ctx context.Context, e *sessionEntry) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !s.restoreLocked(ctx, e) {
		return domain.NewUnavailableError("session store", "persisted state not restored")
	}

	if err := writeJSON(ctx, s.store, e.keys.Liked, e.sess.LikedIDs()); err != nil {
		return err
	}

	return writeJSON(ctx, s.store, e.keys.Cursor, newCursorRecord(e.sess))
}

// Close waits for in-flight loads and flushes every open session.
func (s *SessionService) Close(ctx context.Context) error {
	done := make(chan struct{})

	go func() {
		s.loads.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return fmt.Errorf("waiting for quote loads: %w", ctx.Err())
	}

	s.mu.Lock()
	entries := make([]*sessionEntry, 0, len(s.sessions))
	for _, e := range s.sessions {
		entries = append(entries, e)
	}
	s.mu.Unlock()

	return ForEachLimit(ctx, defaultFlushWorkers, entries, s.flush)
}

// LoadResult is delivered when a pending load finishes.
type LoadResult struct {
	Snapshot domain.SessionSnapshot
	Err      error
}

// PendingLoad is the marker returned by RequestLoad.
type PendingLoad struct {
	Ticket domain.LoadTicket

	done   chan struct{}
	result LoadResult
}

func (p *PendingLoad) finish(r LoadResult) {
	p.result = r
	close(p.done)
}

// Done is closed once the load has completed or failed.
func (p *PendingLoad) Done() <-chan struct{} {
	return p.done
}

// Result returns the outcome. It is only meaningful after Done is closed.
func (p *PendingLoad) Result() LoadResult {
	<-p.done

	return p.result
}

// Wait blocks until the load finishes or ctx is done. The load itself
// keeps running when ctx ends.
func (p *PendingLoad) Wait(ctx context.Context) (LoadResult, error) {
	select {
	case <-p.done:
		return p.result, nil
	case <-ctx.Done():
		return LoadResult{}, ctx.Err()
	}
}

// RequestLoad starts loading the caller's collection from the quote source.
// It returns immediately with a pending marker; a second request while one
// is pending fails with domain.ErrLoadInFlight.
func (s *SessionService) RequestLoad(ctx context.Context) (*PendingLoad, error) {
	return s.requestLoad(ctx, s.entry(ctx))
}

// Load requests a load and waits for it.
func (s *SessionService) Load(ctx context.Context) (domain.SessionSnapshot, error) {
	p, err := s.RequestLoad(ctx)
	if err != nil {
		return domain.SessionSnapshot{}, err
	}

	res, err := p.Wait(ctx)
	if err != nil {
		return domain.SessionSnapshot{}, err
	}

	return res.Snapshot, res.Err
}

func (s *SessionService) requestLoad(ctx context.Context, e *sessionEntry) (*PendingLoad, error) {
	e.mu.Lock()
	ticket, err := e.sess.BeginLoad()
	e.mu.Unlock()

	if err != nil {
		s.metrics.command("load", err)
		return nil, err
	}

	p := &PendingLoad{Ticket: ticket, done: make(chan struct{})}

	// Loads are not cancellable by the caller; only the load timeout ends them.
	loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.loadTimeout)

	s.loads.Go(func() {
		defer cancel()

		p.finish(s.runLoad(loadCtx, e, ticket))
	})

	return p, nil
}

func (s *SessionService) runLoad(ctx context.Context, e *sessionEntry, ticket domain.LoadTicket) LoadResult {
	source := s.source.Name()

	ctx, span := s.tracer.Start(ctx, "SessionService.Load", trace.WithAttributes(
		attribute.String("quote.source", source),
		attribute.String("session", e.user.Key()),
	))
	defer span.End()

	start := time.Now()
	snap, err := Run(ctx, s.runner, s.loadPipeline(e), ticket)

	s.metrics.load(source, time.Since(start), err)
	s.metrics.command("load", err)

	if err == nil {
		span.SetAttributes(attribute.Int("quote.count", snap.Total))
		return LoadResult{Snapshot: snap}
	}

	cause := StageCause(err)
	if !domain.IsLoadFailure(cause) && !domain.IsEmptyCollection(cause) && !errors.Is(cause, domain.ErrStaleLoad) {
		cause = domain.NewLoadFailureError(source, "", cause)
	}

	span.RecordError(cause)
	span.SetStatus(codes.Error, cause.Error())

	e.mu.Lock()
	defer e.mu.Unlock()

	if ferr := e.sess.FailLoad(ticket, cause); ferr != nil {
		s.log(ctx, e).DebugContext(ctx, "load outcome superseded", slog.Any("error", ferr))
	}

	s.log(ctx, e).WarnContext(ctx, "quote load failed",
		slog.String("source", source),
		slog.Any("error", cause),
	)

	return LoadResult{Snapshot: e.sess.Snapshot(), Err: cause}
}

func (s *SessionService) loadPipeline(e *sessionEntry) Pipeline[domain.LoadTicket, []domain.Quote, []domain.Quote, domain.SessionSnapshot] {
	source := s.source.Name()

	return Pipeline[domain.LoadTicket, []domain.Quote, []domain.Quote, domain.SessionSnapshot]{
		Name: "load_quotes",
		Check: func(_ context.Context, t domain.LoadTicket) error {
			if t.Seq == 0 {
				return domain.NewValidationError("ticket", "missing load ticket")
			}

			return nil
		},
		Fetch: func(ctx context.Context, _ domain.LoadTicket) ([]domain.Quote, error) {
			return s.source.FetchInitialQuotes(ctx)
		},
		Vet: func(_ context.Context, _ domain.LoadTicket, quotes []domain.Quote) ([]domain.Quote, error) {
			if err := domain.ValidateCollection(source, quotes); err != nil {
				return nil, err
			}

			return quotes, nil
		},
		Commit: func(ctx context.Context, t domain.LoadTicket, quotes []domain.Quote) error {
			e.mu.Lock()
			defer e.mu.Unlock()

			if err := e.sess.CompleteLoad(t, quotes); err != nil {
				return err
			}

			s.persist(ctx, e, persistQuotes|persistCursor)

			return nil
		},
		Reply: func(_ context.Context, _ domain.LoadTicket, _ []domain.Quote) (domain.SessionSnapshot, error) {
			e.mu.Lock()
			defer e.mu.Unlock()

			return e.sess.Snapshot(), nil
		},
	}
}

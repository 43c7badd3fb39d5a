package domain

import (
	"maps"
	"math/rand/v2"
	"slices"
)

// Status is the lifecycle state of a quote session.
type Status string

// Session states. Navigation and like commands are accepted only in StatusReady.
const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusReady   Status = "ready"
	StatusError   Status = "error"
)

// LoadTicket marks a pending two-phase load. Only the most recent ticket
// may complete.
type LoadTicket struct {
	Seq uint64
}

// SessionSnapshot is a read-only view of a session.
type SessionSnapshot struct {
	Status       Status   `json:"status"`
	Error        string   `json:"error,omitempty"`
	Current      *Quote   `json:"current,omitempty"`
	CurrentIndex int      `json:"currentIndex"`
	History      []string `json:"history"`
	Liked        []string `json:"liked"`
	Total        int      `json:"total"`
}

// Session holds the quote collection, the cursor into it, the navigation
// history and the liked set for one user.
//
// Session is not safe for concurrent use; callers serialize access.
type Session struct {
	quotes  []Quote
	byID    map[string]int
	index   int
	history []string
	liked   map[string]struct{}

	status Status
	errMsg string

	loadSeq uint64
	pending uint64

	// restored cursor, applied when the next collection arrives
	wantCurrent string

	intn func(n int) int
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithRandom replaces the index picker used by Next. intn must return a
// value in [0, n).
func WithRandom(intn func(n int) int) SessionOption {
	return func(s *Session) {
		s.intn = intn
	}
}

// NewSession creates an idle, empty session.
func NewSession(opts ...SessionOption) *Session {
	s := &Session{
		byID:    make(map[string]int),
		history: []string{},
		liked:   make(map[string]struct{}),
		status:  StatusIdle,
		intn:    rand.IntN,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Status returns the current lifecycle state.
func (s *Session) Status() Status {
	return s.status
}

// LoadQuotes replaces the collection in one step and supersedes any
// outstanding ticket. On an empty or malformed collection the session moves
// to StatusError and keeps its previous quotes and its outstanding ticket.
func (s *Session) LoadQuotes(quotes []Quote) error {
	if err := s.apply(quotes); err != nil {
		return err
	}

	s.pending = 0

	return nil
}

// BeginLoad starts a two-phase load. It fails with ErrLoadInFlight while
// another ticket is outstanding. The loading flag set by SetLoading does not
// count as an outstanding ticket.
func (s *Session) BeginLoad() (LoadTicket, error) {
	if s.pending != 0 {
		return LoadTicket{}, ErrLoadInFlight
	}

	s.loadSeq++
	s.pending = s.loadSeq
	s.status = StatusLoading

	return LoadTicket{Seq: s.pending}, nil
}

// CompleteLoad finishes the load identified by t with the fetched quotes.
func (s *Session) CompleteLoad(t LoadTicket, quotes []Quote) error {
	if err := s.settle(t); err != nil {
		return err
	}

	return s.apply(quotes)
}

// FailLoad finishes the load identified by t with an error. The previous
// collection, history and liked set stay untouched.
func (s *Session) FailLoad(t LoadTicket, cause error) error {
	if err := s.settle(t); err != nil {
		return err
	}

	if cause == nil {
		cause = ErrLoadFailure
	}

	s.status = StatusError
	s.errMsg = cause.Error()

	return nil
}

// LoadPending reports whether a ticket is outstanding.
func (s *Session) LoadPending() bool {
	return s.pending != 0
}

func (s *Session) settle(t LoadTicket) error {
	if t.Seq == 0 || t.Seq != s.pending {
		return ErrStaleLoad
	}

	s.pending = 0

	return nil
}

func (s *Session) apply(quotes []Quote) error {
	if err := ValidateCollection("", quotes); err != nil {
		s.status = StatusError
		s.errMsg = err.Error()

		return err
	}

	keep := s.wantCurrent
	if len(s.quotes) > 0 {
		keep = s.quotes[s.index].ID
	}

	s.quotes = CloneQuotes(quotes)
	s.byID = make(map[string]int, len(s.quotes))

	for i, q := range s.quotes {
		s.byID[q.ID] = i
	}

	s.index = 0
	if i, ok := s.byID[keep]; ok {
		s.index = i
	}

	s.wantCurrent = ""
	s.history = s.knownIDs(s.history)
	s.countLikes()
	s.status = StatusReady
	s.errMsg = ""

	return nil
}

// countLikes raises the like count of every liked quote to at least one.
// Sources other than the store do not carry counts.
func (s *Session) countLikes() {
	for id := range s.liked {
		if i, ok := s.byID[id]; ok && s.quotes[i].LikeCount == 0 {
			s.quotes[i].LikeCount = 1
		}
	}
}

func (s *Session) knownIDs(ids []string) []string {
	out := make([]string, 0, len(ids))

	for _, id := range ids {
		if _, ok := s.byID[id]; ok {
			out = append(out, id)
		}
	}

	return out
}

func (s *Session) ready() bool {
	return s.status == StatusReady && len(s.quotes) > 0
}

// Next moves to a uniformly random quote, which may be the current one,
// and pushes the current id onto the history.
func (s *Session) Next() (Quote, error) {
	if !s.ready() {
		return Quote{}, ErrNotReady
	}

	return s.moveTo(s.intn(len(s.quotes))), nil
}

// NextDistinct is Next restricted to quotes other than the current one
// when the collection has more than one quote.
func (s *Session) NextDistinct() (Quote, error) {
	if !s.ready() {
		return Quote{}, ErrNotReady
	}

	n := len(s.quotes)
	if n == 1 {
		return s.moveTo(0), nil
	}

	i := s.intn(n - 1)
	if i >= s.index {
		i++
	}

	return s.moveTo(i), nil
}

func (s *Session) moveTo(i int) Quote {
	s.history = append(s.history, s.quotes[s.index].ID)
	s.index = i

	return s.quotes[i]
}

// Previous pops the history. With an empty history it is a no-op and
// reports ok=false.
func (s *Session) Previous() (q Quote, ok bool, err error) {
	if !s.ready() {
		return Quote{}, false, ErrNotReady
	}

	if len(s.history) == 0 {
		return s.quotes[s.index], false, nil
	}

	last := len(s.history) - 1
	id := s.history[last]
	s.history = s.history[:last]
	s.index = s.byID[id]

	return s.quotes[s.index], true, nil
}

// ToggleLike flips membership of id in the liked set and adjusts the
// quote's like count. It returns the new membership.
func (s *Session) ToggleLike(id string) (bool, error) {
	if !s.ready() {
		return false, ErrNotReady
	}

	i, ok := s.byID[id]
	if !ok {
		return false, NewNotFoundError("quote", id)
	}

	if _, liked := s.liked[id]; liked {
		delete(s.liked, id)

		if s.quotes[i].LikeCount > 0 {
			s.quotes[i].LikeCount--
		}

		return false, nil
	}

	s.liked[id] = struct{}{}
	s.quotes[i].LikeCount++

	return true, nil
}

// LikeCurrent toggles the like on the displayed quote.
func (s *Session) LikeCurrent() (string, bool, error) {
	if !s.ready() {
		return "", false, ErrNotReady
	}

	id := s.quotes[s.index].ID
	liked, err := s.ToggleLike(id)

	return id, liked, err
}

// SetError records msg. An empty msg clears the error and, if the session
// was in StatusError, returns it to ready or idle.
func (s *Session) SetError(msg string) {
	if msg == "" {
		s.errMsg = ""

		if s.status == StatusError {
			s.status = s.settledStatus()
		}

		return
	}

	s.errMsg = msg
	if s.status == StatusLoading {
		s.status = StatusError
	}
}

// SetLoading toggles the loading flag without touching quotes, history or
// likes. It neither starts nor settles a two-phase load.
func (s *Session) SetLoading(loading bool) {
	if loading {
		s.status = StatusLoading
		return
	}

	if s.status == StatusLoading {
		s.status = s.settledStatus()
	}
}

func (s *Session) settledStatus() Status {
	if len(s.quotes) > 0 {
		return StatusReady
	}

	return StatusIdle
}

// Restore applies a persisted cursor. Liked ids are taken as-is; history
// and the current id are reconciled with the collection when one is loaded.
func (s *Session) Restore(currentID string, history, liked []string) {
	s.liked = make(map[string]struct{}, len(liked))
	for _, id := range liked {
		s.liked[id] = struct{}{}
	}

	s.history = append([]string{}, history...)

	if len(s.quotes) == 0 {
		s.wantCurrent = currentID
		return
	}

	s.history = s.knownIDs(s.history)
	s.countLikes()

	if i, ok := s.byID[currentID]; ok {
		s.index = i
	}
}

// Current returns the displayed quote, if any.
func (s *Session) Current() (Quote, bool) {
	if len(s.quotes) == 0 {
		return Quote{}, false
	}

	return s.quotes[s.index], true
}

// Quotes returns a copy of the collection.
func (s *Session) Quotes() []Quote {
	return CloneQuotes(s.quotes)
}

// Quote looks up a quote in the collection.
func (s *Session) Quote(id string) (Quote, bool) {
	i, ok := s.byID[id]
	if !ok {
		return Quote{}, false
	}

	return s.quotes[i], true
}

// LikedIDs returns the liked set in sorted order.
func (s *Session) LikedIDs() []string {
	return slices.Sorted(maps.Keys(s.liked))
}

// LikedQuotes returns the liked quotes in collection order.
func (s *Session) LikedQuotes() []Quote {
	out := make([]Quote, 0, len(s.liked))

	for _, q := range s.quotes {
		if _, ok := s.liked[q.ID]; ok {
			out = append(out, q)
		}
	}

	return out
}

// Snapshot returns a copy of the observable state.
func (s *Session) Snapshot() SessionSnapshot {
	snap := SessionSnapshot{
		Status:       s.status,
		Error:        s.errMsg,
		CurrentIndex: -1,
		History:      append([]string{}, s.history...),
		Liked:        s.LikedIDs(),
		Total:        len(s.quotes),
	}

	if q, ok := s.Current(); ok {
		snap.Current = &q
		snap.CurrentIndex = s.index
	}

	return snap
}

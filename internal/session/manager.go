// Package session owns live games: it loads a state, runs the engine against
// the session's city content, checks for an ending after every closed turn,
// and saves the result. Calls on one session are serialized.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/talgya/undercurrent/internal/content"
	"github.com/talgya/undercurrent/internal/engine"
	"github.com/talgya/undercurrent/internal/entropy"
	"github.com/talgya/undercurrent/internal/events"
	"github.com/talgya/undercurrent/internal/persistence"
)

var (
	ErrNotFound       = errors.New("session not found")
	ErrSessionEnded   = errors.New("session has ended")
	ErrNoDecision     = errors.New("no decision pending")
	ErrNoChoice       = errors.New("no choice given")
	ErrUnknownChoice  = errors.New("unknown choice")
	ErrChoiceLocked   = errors.New("choice is locked")
	ErrTooManyChoices = errors.New("decision allows a single choice")
)

// Store is the persistence the manager needs.
type Store interface {
	Get(id string) (engine.GameState, error)
	Set(state engine.GameState, ttl time.Duration) error
	Delete(id string) error
	Touch(id string, ttl time.Duration) error
	PurgeExpired() (int64, error)
	ListSessions(limit int) ([]persistence.SessionInfo, error)
	RecordEvents(records []persistence.EventRecord) error
	RecentEvents(sessionID string, limit int) ([]persistence.EventRecord, error)
}

// Catalog resolves city content.
type Catalog interface {
	City(id string) (content.City, error)
}

// RandFunc builds the source for one engine call on a session, keyed by
// the state the call starts from.
type RandFunc func(sessionID string, turn int, phase engine.Phase) entropy.Source

// SeededRand derives a reproducible stream per session, turn and phase from
// seed. A session's draws never depend on what other sessions do, or on
// restarts in between.
func SeededRand(seed int64) RandFunc {
	return func(sessionID string, turn int, phase engine.Phase) entropy.Source {
		key := fmt.Sprintf("%s/%d/%s", sessionID, turn, phase)
		return entropy.NewSeeded(entropy.DeriveSeed(seed, key))
	}
}

// Options tune a Manager. Zero values pick defaults.
type Options struct {
	TTL      time.Duration
	MaxTurns int
	// Rand is shared by every session. Use it only for stateless sources
	// such as crypto/rand, or for pinned test sequences.
	Rand entropy.Source
	// NewRand, when set, replaces Rand with a fresh source per engine call.
	NewRand RandFunc
	IDs     events.IDSource
	Feed    *Feed
}

// Manager runs sessions. Safe for concurrent use.
type Manager struct {
	store    Store
	catalog  Catalog
	ttl      time.Duration
	maxTurns int
	newRand  RandFunc
	ids      events.IDSource
	feed     *Feed
	locks    keyedMutex
}

// NewManager wires a manager over store and catalog.
func NewManager(store Store, catalog Catalog, opts Options) *Manager {
	if opts.TTL <= 0 {
		opts.TTL = 72 * time.Hour
	}
	if opts.MaxTurns <= 0 {
		opts.MaxTurns = engine.DefaultMaxTurns
	}
	if opts.NewRand == nil {
		rng := opts.Rand
		if rng == nil {
			rng = entropy.Crypto{}
		}
		opts.NewRand = func(string, int, engine.Phase) entropy.Source { return rng }
	}
	if opts.IDs == nil {
		opts.IDs = events.UUIDs{}
	}
	if opts.Feed == nil {
		opts.Feed = NewFeed()
	}
	return &Manager{
		store:    store,
		catalog:  catalog,
		ttl:      opts.TTL,
		maxTurns: opts.MaxTurns,
		newRand:  opts.NewRand,
		ids:      opts.IDs,
		feed:     opts.Feed,
		locks:    keyedMutex{locks: make(map[string]*keyedEntry)},
	}
}

// Feed returns the update feed sessions publish to.
func (m *Manager) Feed() *Feed {
	return m.feed
}

// Create starts a new session in cityID.
func (m *Manager) Create(cityID string) (engine.GameState, error) {
	city, err := m.catalog.City(cityID)
	if err != nil {
		return engine.GameState{}, err
	}

	state := engine.NewGameState(uuid.NewString(), city.State(), m.maxTurns)
	if err := m.store.Set(state, m.ttl); err != nil {
		return engine.GameState{}, fmt.Errorf("create session: %w", err)
	}
	slog.Info("session created", "session", state.SessionID, "city", cityID, "max_turns", state.MaxTurns)
	return state, nil
}

// Get loads a session and extends its TTL.
func (m *Manager) Get(id string) (engine.GameState, error) {
	state, err := m.load(id)
	if err != nil {
		return engine.GameState{}, err
	}
	if err := m.store.Touch(id, m.ttl); err != nil {
		slog.Warn("session touch failed", "session", id, "error", err)
	}
	return state, nil
}

// Delete removes a session.
func (m *Manager) Delete(id string) error {
	unlock := m.locks.Lock(id)
	defer unlock()
	err := m.store.Delete(id)
	if errors.Is(err, persistence.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return err
}

// Advance runs the session until a decision needs input or the turn closes.
// With a decision already pending the state comes back unchanged.
func (m *Manager) Advance(id string) (engine.GameState, error) {
	return m.run(id, func(e *engine.Engine, s engine.GameState, ctx engine.TurnContext) (engine.GameState, error) {
		return e.RunCompleteTurn(s, ctx, nil), nil
	})
}

// Step moves the session exactly one phase.
func (m *Manager) Step(id string) (engine.GameState, error) {
	return m.run(id, func(e *engine.Engine, s engine.GameState, ctx engine.TurnContext) (engine.GameState, error) {
		return e.AdvancePhase(s, ctx, s.LastGlobalUpdate, nil), nil
	})
}

// Choose resolves the pending decision with choiceIDs and closes the turn.
// Unlike the engine, it rejects unknown, locked or surplus choices.
func (m *Manager) Choose(id string, choiceIDs []string) (engine.GameState, error) {
	return m.run(id, func(e *engine.Engine, s engine.GameState, ctx engine.TurnContext) (engine.GameState, error) {
		if err := validateChoices(s, choiceIDs); err != nil {
			return s, err
		}
		return e.RunCompleteTurn(s, ctx, choiceIDs), nil
	})
}

func validateChoices(s engine.GameState, choiceIDs []string) error {
	d := s.CurrentDecision
	if d == nil {
		return ErrNoDecision
	}
	if len(choiceIDs) == 0 {
		return ErrNoChoice
	}
	if len(choiceIDs) > 1 && !d.MultiSelect {
		return ErrTooManyChoices
	}

	flags := engine.Flags(s.ChoiceHistory)
	for _, cid := range choiceIDs {
		var found *engine.Choice
		for i := range d.Choices {
			if d.Choices[i].ID == cid {
				found = &d.Choices[i]
				break
			}
		}
		if found == nil {
			return fmt.Errorf("%w: %s", ErrUnknownChoice, cid)
		}
		if !found.Unlocked(flags) {
			return fmt.Errorf("%w: %s", ErrChoiceLocked, cid)
		}
	}
	return nil
}

// run serializes one engine call on a session and persists the result.
// Each call gets its own engine over the session's source.
func (m *Manager) run(id string, step func(*engine.Engine, engine.GameState, engine.TurnContext) (engine.GameState, error)) (engine.GameState, error) {
	unlock := m.locks.Lock(id)
	defer unlock()

	state, err := m.load(id)
	if err != nil {
		return engine.GameState{}, err
	}
	if state.Ended() {
		return state, ErrSessionEnded
	}

	city, err := m.catalog.City(state.City.ID)
	if err != nil {
		return state, fmt.Errorf("session %s: %w", id, err)
	}

	eng := engine.New(m.newRand(id, state.Turn, state.Phase), m.ids)
	next, err := step(eng, state, city.TurnContext())
	if err != nil {
		return state, err
	}
	if next.Phase == engine.PhasePlan && next.Turn > state.Turn {
		next = engine.CheckGameEnding(next)
	}

	started := startedEvents(state, next)
	if err := m.store.Set(next, m.ttl); err != nil {
		return state, fmt.Errorf("save session %s: %w", id, err)
	}
	if err := m.store.RecordEvents(started); err != nil {
		slog.Warn("event log write failed", "session", id, "error", err)
	}

	m.feed.Publish(Update{
		SessionID: id,
		Turn:      next.Turn,
		Day:       engine.DayLabel(next.Turn),
		Phase:     next.Phase,
		Family:    next.Family,
		Events:    started,
		Decision:  next.CurrentDecision,
		Ending:    next.Ending,
	})

	slog.Debug("session stepped", "session", id, "turn", next.Turn, "phase", next.Phase, "new_events", len(started))
	return next, nil
}

func (m *Manager) load(id string) (engine.GameState, error) {
	state, err := m.store.Get(id)
	if errors.Is(err, persistence.ErrNotFound) {
		return engine.GameState{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return state, err
}

// startedEvents lists events present in next but not in prev.
func startedEvents(prev, next engine.GameState) []persistence.EventRecord {
	seen := map[string]bool{}
	for _, e := range prev.ActiveEvents.Global {
		seen[e.ID] = true
	}
	for _, e := range prev.ActiveEvents.City {
		seen[e.ID] = true
	}
	for _, e := range prev.ActiveEvents.Neighborhood {
		seen[e.ID] = true
	}

	var out []persistence.EventRecord
	add := func(ev events.Event, eventID, title, desc string, turn int) {
		if seen[eventID] {
			return
		}
		out = append(out, persistence.EventRecord{
			SessionID:   next.SessionID,
			Turn:        turn,
			Layer:       string(ev.Layer()),
			EventID:     eventID,
			Title:       title,
			Description: desc,
		})
	}
	for _, e := range next.ActiveEvents.Global {
		add(e, e.ID, e.Title, e.Description, e.StartTurn)
	}
	for _, e := range next.ActiveEvents.City {
		add(e, e.ID, e.Title, e.Description, e.StartTurn)
	}
	for _, e := range next.ActiveEvents.Neighborhood {
		add(e, e.ID, e.Title, e.Description, e.StartTurn)
	}
	return out
}

// Events returns a session's most recent logged events.
func (m *Manager) Events(id string, limit int) ([]persistence.EventRecord, error) {
	if _, err := m.load(id); err != nil {
		return nil, err
	}
	return m.store.RecentEvents(id, limit)
}

// List returns live sessions.
func (m *Manager) List(limit int) ([]persistence.SessionInfo, error) {
	return m.store.ListSessions(limit)
}

// Purge removes expired sessions.
func (m *Manager) Purge() (int64, error) {
	return m.store.PurgeExpired()
}

// RunJanitor purges expired sessions every interval until ctx is done.
func (m *Manager) RunJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := m.Purge(); err != nil {
				slog.Error("session purge failed", "error", err)
			}
		}
	}
}

// ── Per-session locking ───────────────────────────────────────────────

type keyedEntry struct {
	mu   sync.Mutex
	refs int
}

type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyedEntry
}

// Lock acquires the lock for key and returns its release.
func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	e, ok := k.locks[key]
	if !ok {
		e = &keyedEntry{}
		k.locks[key] = e
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		k.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}

package session

import (
	"errors"
	"path/filepath"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/talgya/undercurrent/internal/content"
	"github.com/talgya/undercurrent/internal/engine"
	"github.com/talgya/undercurrent/internal/entropy"
	"github.com/talgya/undercurrent/internal/events"
	"github.com/talgya/undercurrent/internal/persistence"
)

func newTestManager(t *testing.T, rng entropy.Source) (*Manager, *persistence.DB) {
	t.Helper()
	return newManagerWith(t, Options{Rand: rng})
}

func newManagerWith(t *testing.T, opts Options) (*Manager, *persistence.DB) {
	t.Helper()
	db, err := persistence.Open(filepath.Join(t.TempDir(), "sessions.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	catalog, err := content.Default()
	if err != nil {
		t.Fatalf("content: %v", err)
	}
	opts.TTL = time.Hour
	opts.IDs = events.NewCounter(0)
	return NewManager(db, catalog, opts), db
}

func TestCreate(t *testing.T) {
	m, _ := newTestManager(t, entropy.NewSequence(0.99))

	s, err := m.Create("riverton")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if s.SessionID == "" || s.Turn != 1 || s.Phase != engine.PhasePlan || s.MaxTurns != engine.DefaultMaxTurns {
		t.Fatalf("state = %+v", s)
	}
	if s.City.CurrentNeighborhoodID != "eastside" {
		t.Fatalf("current = %q", s.City.CurrentNeighborhoodID)
	}

	got, err := m.Get(s.SessionID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.SessionID != s.SessionID {
		t.Fatalf("loaded %q", got.SessionID)
	}

	if _, err := m.Create("atlantis"); !errors.Is(err, content.ErrUnknownCity) {
		t.Fatalf("unknown city err = %v", err)
	}
}

func TestAdvanceQuietTurn(t *testing.T) {
	m, _ := newTestManager(t, entropy.NewSequence(0.99))
	s, _ := m.Create("riverton")

	next, err := m.Advance(s.SessionID)
	if err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if next.Turn != 2 || next.Phase != engine.PhasePlan {
		t.Fatalf("turn %d phase %q", next.Turn, next.Phase)
	}

	stored, _ := m.Get(s.SessionID)
	if stored.Turn != 2 {
		t.Fatalf("stored turn = %d", stored.Turn)
	}
}

func TestDecisionFlow(t *testing.T) {
	m, _ := newTestManager(t, entropy.NewSequence(0))
	s, _ := m.Create("riverton")

	paused, err := m.Advance(s.SessionID)
	if err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if paused.Phase != engine.PhaseDecision || paused.CurrentDecision == nil {
		t.Fatalf("phase %q decision %v", paused.Phase, paused.CurrentDecision)
	}
	if got := paused.ActiveEvents.Neighborhood[0].Type; got != events.Checkpoint {
		t.Fatalf("neighborhood event = %s", got)
	}

	held, err := m.Advance(s.SessionID)
	if err != nil || held.Phase != engine.PhaseDecision || held.Turn != 1 {
		t.Fatalf("Advance with pending decision: phase %q turn %d err %v", held.Phase, held.Turn, err)
	}

	tests := []struct {
		choices []string
		want    error
	}{
		{nil, ErrNoChoice},
		{[]string{"bogus"}, ErrUnknownChoice},
		{[]string{"assert_rights"}, ErrChoiceLocked},
		{[]string{"comply", "avoid"}, ErrTooManyChoices},
	}
	for _, tt := range tests {
		if _, err := m.Choose(s.SessionID, tt.choices); !errors.Is(err, tt.want) {
			t.Errorf("Choose(%v) err = %v, want %v", tt.choices, err, tt.want)
		}
	}

	done, err := m.Choose(s.SessionID, []string{"comply"})
	if err != nil {
		t.Fatalf("Choose: %v", err)
	}
	if done.Turn != 2 || done.Phase != engine.PhasePlan || len(done.ChoiceHistory) != 1 {
		t.Fatalf("turn %d phase %q history %d", done.Turn, done.Phase, len(done.ChoiceHistory))
	}

	if _, err := m.Choose(s.SessionID, []string{"comply"}); !errors.Is(err, ErrNoDecision) {
		t.Fatalf("second Choose err = %v", err)
	}

	logged, err := m.Events(s.SessionID, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(logged) != 3 {
		t.Fatalf("logged %d events, want global, city and neighborhood", len(logged))
	}
}

func TestStepOnePhase(t *testing.T) {
	m, _ := newTestManager(t, entropy.NewSequence(0.99))
	s, _ := m.Create("riverton")

	want := []engine.Phase{engine.PhasePulseUpdate, engine.PhaseEvent, engine.PhaseDecision, engine.PhaseConsequence, engine.PhasePlan}
	for _, phase := range want {
		next, err := m.Step(s.SessionID)
		if err != nil {
			t.Fatalf("Step: %v", err)
		}
		if next.Phase != phase {
			t.Fatalf("phase = %q, want %q", next.Phase, phase)
		}
	}
}

func TestEndedSessionRejectsCalls(t *testing.T) {
	m, db := newTestManager(t, entropy.NewSequence(0.99))
	s, _ := m.Create("riverton")

	s.Family.Stress = 99
	s.Family.Cohesion = 1
	s.Ending = &engine.Ending{Type: engine.EndingFailure, Turn: 1}
	if err := db.Set(s, time.Hour); err != nil {
		t.Fatal(err)
	}

	if _, err := m.Advance(s.SessionID); !errors.Is(err, ErrSessionEnded) {
		t.Fatalf("Advance err = %v", err)
	}
	if _, err := m.Choose(s.SessionID, []string{"x"}); !errors.Is(err, ErrSessionEnded) {
		t.Fatalf("Choose err = %v", err)
	}
}

func TestFailureEndingAfterTurn(t *testing.T) {
	m, db := newTestManager(t, entropy.NewSequence(0.99))
	s, _ := m.Create("riverton")

	s.Family.Stress = 100
	s.Family.Cohesion = 0
	if err := db.Set(s, time.Hour); err != nil {
		t.Fatal(err)
	}

	next, err := m.Advance(s.SessionID)
	if err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if next.Ending == nil || next.Ending.Type != engine.EndingFailure || next.Ending.Turn != 2 {
		t.Fatalf("ending = %+v", next.Ending)
	}
}

func TestMissingSession(t *testing.T) {
	m, _ := newTestManager(t, entropy.NewSequence(0.99))
	if _, err := m.Get("nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get err = %v", err)
	}
	if _, err := m.Advance("nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Advance err = %v", err)
	}
	if _, err := m.Events("nope", 5); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Events err = %v", err)
	}
	if err := m.Delete("nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Delete err = %v", err)
	}
}

func TestConcurrentAdvanceIsSerialized(t *testing.T) {
	m, _ := newTestManager(t, entropy.NewSequence(0.99))
	s, _ := m.Create("riverton")

	const n = 10
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := m.Advance(s.SessionID); err != nil {
				t.Errorf("Advance: %v", err)
			}
		}()
	}
	wg.Wait()

	got, _ := m.Get(s.SessionID)
	if got.Turn != n+1 {
		t.Fatalf("turn = %d, want %d", got.Turn, n+1)
	}
}

func TestSeededSessionsAreIsolated(t *testing.T) {
	m, db := newManagerWith(t, Options{NewRand: SeededRand(42)})
	a, err := m.Create("riverton")
	if err != nil {
		t.Fatal(err)
	}
	snapshot, err := db.Get(a.SessionID)
	if err != nil {
		t.Fatal(err)
	}

	play := func(other string) engine.GameState {
		t.Helper()
		var last engine.GameState
		for i := 0; i < 5; i++ {
			if other != "" {
				if _, err := m.Step(other); err != nil {
					t.Fatalf("Step other: %v", err)
				}
			}
			next, err := m.Step(a.SessionID)
			if err != nil {
				t.Fatalf("Step: %v", err)
			}
			last = next
		}
		return last
	}

	alone := play("")

	if err := db.Set(snapshot, time.Hour); err != nil {
		t.Fatal(err)
	}
	b, err := m.Create("riverton")
	if err != nil {
		t.Fatal(err)
	}
	interleaved := play(b.SessionID)

	if !reflect.DeepEqual(alone.Family, interleaved.Family) {
		t.Fatalf("family alone %+v, interleaved %+v", alone.Family, interleaved.Family)
	}
	if !reflect.DeepEqual(alone.GlobalPulse, interleaved.GlobalPulse) {
		t.Fatalf("global pulse alone %+v, interleaved %+v", alone.GlobalPulse, interleaved.GlobalPulse)
	}
	if !reflect.DeepEqual(alone.City.Pulse, interleaved.City.Pulse) {
		t.Fatalf("city pulse alone %+v, interleaved %+v", alone.City.Pulse, interleaved.City.Pulse)
	}
}

func TestSeededRandIsKeyed(t *testing.T) {
	newRand := SeededRand(42)
	x := newRand("s1", 3, engine.PhaseEvent).Float()
	if y := newRand("s1", 3, engine.PhaseEvent).Float(); x != y {
		t.Fatalf("same key drew %v then %v", x, y)
	}
	if y := newRand("s2", 3, engine.PhaseEvent).Float(); x == y {
		t.Fatal("different sessions drew the same value")
	}
	if y := newRand("s1", 4, engine.PhaseEvent).Float(); x == y {
		t.Fatal("different turns drew the same value")
	}
}

func TestFeedReceivesUpdates(t *testing.T) {
	m, _ := newTestManager(t, entropy.NewSequence(0))
	s, _ := m.Create("riverton")

	id, ch := m.Feed().Subscribe(s.SessionID)
	defer m.Feed().Unsubscribe(s.SessionID, id)

	if _, err := m.Advance(s.SessionID); err != nil {
		t.Fatal(err)
	}

	select {
	case u := <-ch:
		if u.Decision == nil || len(u.Events) != 3 || u.Phase != engine.PhaseDecision {
			t.Fatalf("update = %+v", u)
		}
	case <-time.After(time.Second):
		t.Fatal("no update published")
	}
}

func TestFeedUnsubscribe(t *testing.T) {
	f := NewFeed()
	id, ch := f.Subscribe("s1")
	_, other := f.Subscribe("s2")
	if f.Subscribers("s1") != 1 {
		t.Fatalf("subscribers = %d", f.Subscribers("s1"))
	}

	f.Unsubscribe("s1", id)
	if _, ok := <-ch; ok {
		t.Fatal("channel not closed")
	}
	f.Publish(Update{SessionID: "s1"})
	f.Publish(Update{SessionID: "s2", Turn: 4})
	if u := <-other; u.Turn != 4 {
		t.Fatalf("s2 update = %+v", u)
	}
	f.Unsubscribe("s1", id)
}

func TestFeedDropsForSlowSubscriber(t *testing.T) {
	f := NewFeed()
	_, ch := f.Subscribe("s1")
	for i := 0; i < subscriberBuffer+10; i++ {
		f.Publish(Update{SessionID: "s1", Turn: i})
	}
	if len(ch) != subscriberBuffer {
		t.Fatalf("buffered = %d", len(ch))
	}
}

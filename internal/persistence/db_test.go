package persistence

import (
	"errors"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/talgya/undercurrent/internal/engine"
	"github.com/talgya/undercurrent/internal/events"
	"github.com/talgya/undercurrent/internal/pulse"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func openTestDB(t *testing.T) (*DB, *clock) {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	c := &clock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	db.now = c.now
	return db, c
}

func testState(id string) engine.GameState {
	city := pulse.CityState{
		ID:    "riverton",
		Pulse: pulse.DefaultCity(),
		Neighborhoods: []pulse.NeighborhoodState{
			{ID: "eastside", Name: "Eastside", Pulse: pulse.DefaultNeighborhood()},
		},
		CurrentNeighborhoodID: "eastside",
	}
	s := engine.NewGameState(id, city, 0)
	s.ActiveEvents.Global = append(s.ActiveEvents.Global, events.GlobalEvent{
		ID: "global-1", Type: events.GlobalMedia, Magnitude: 2, DurationDays: 21, StartTurn: 1,
		Effects: map[pulse.GlobalField]float64{pulse.MediaNarrative: -8},
	})
	s.ActiveEvents.City = append(s.ActiveEvents.City, events.CityEvent{
		ID: "city-1", Category: events.CityBudget, ImpactRadius: events.ImpactRadius{NeighborhoodIDs: []string{"eastside"}},
		StartTurn: 1, DurationDays: 5, Effects: map[pulse.CityField]float64{pulse.PoliticalCover: 2},
	})
	return s
}

func TestSetGetRoundTrip(t *testing.T) {
	db, _ := openTestDB(t)
	want := testState("s1")

	if err := db.Set(want, time.Hour); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := db.Get("s1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", got, want)
	}

	want.Turn = 5
	want.Phase = engine.PhaseEvent
	if err := db.Set(want, time.Hour); err != nil {
		t.Fatalf("Set overwrite: %v", err)
	}
	got, _ = db.Get("s1")
	if got.Turn != 5 || got.Phase != engine.PhaseEvent {
		t.Fatalf("overwrite not stored: turn %d phase %q", got.Turn, got.Phase)
	}
}

func TestGetMissing(t *testing.T) {
	db, _ := openTestDB(t)
	if _, err := db.Get("nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v", err)
	}
}

func TestExpiryAndTouch(t *testing.T) {
	db, c := openTestDB(t)
	if err := db.Set(testState("s1"), time.Hour); err != nil {
		t.Fatal(err)
	}

	c.advance(50 * time.Minute)
	if err := db.Touch("s1", time.Hour); err != nil {
		t.Fatalf("Touch: %v", err)
	}

	c.advance(50 * time.Minute)
	if _, err := db.Get("s1"); err != nil {
		t.Fatalf("touched session expired early: %v", err)
	}

	c.advance(11 * time.Minute)
	if _, err := db.Get("s1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expired Get err = %v", err)
	}
	if err := db.Touch("s1", time.Hour); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expired Touch err = %v", err)
	}
}

func TestPurgeExpired(t *testing.T) {
	db, c := openTestDB(t)
	if err := db.Set(testState("short"), time.Minute); err != nil {
		t.Fatal(err)
	}
	if err := db.Set(testState("long"), time.Hour); err != nil {
		t.Fatal(err)
	}
	if err := db.RecordEvents([]EventRecord{{SessionID: "short", Turn: 1, Layer: "city", EventID: "city-1", Title: "t"}}); err != nil {
		t.Fatal(err)
	}

	c.advance(2 * time.Minute)
	n, err := db.PurgeExpired()
	if err != nil {
		t.Fatalf("PurgeExpired: %v", err)
	}
	if n != 1 {
		t.Fatalf("purged %d, want 1", n)
	}
	if evs, _ := db.RecentEvents("short", 10); len(evs) != 0 {
		t.Fatalf("events survived purge: %+v", evs)
	}

	list, err := db.ListSessions(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].ID != "long" || list[0].CityID != "riverton" {
		t.Fatalf("sessions = %+v", list)
	}
}

func TestDelete(t *testing.T) {
	db, _ := openTestDB(t)
	if err := db.Set(testState("s1"), time.Hour); err != nil {
		t.Fatal(err)
	}
	if err := db.Delete("s1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := db.Get("s1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v", err)
	}
	if err := db.Delete("s1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second Delete err = %v", err)
	}
}

func TestEventLogOrder(t *testing.T) {
	db, _ := openTestDB(t)
	records := []EventRecord{
		{SessionID: "s1", Turn: 1, Layer: "global", EventID: "global-1", Title: "first"},
		{SessionID: "s1", Turn: 2, Layer: "neighborhood", EventID: "nbhd-2", Title: "second"},
		{SessionID: "s2", Turn: 2, Layer: "city", EventID: "city-3", Title: "other session"},
		{SessionID: "s1", Turn: 3, Layer: "city", EventID: "city-4", Title: "third"},
	}
	if err := db.RecordEvents(records); err != nil {
		t.Fatalf("RecordEvents: %v", err)
	}

	got, err := db.RecentEvents("s1", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].Title != "third" || got[1].Title != "second" {
		t.Fatalf("recent = %+v", got)
	}
	if err := db.RecordEvents(nil); err != nil {
		t.Fatalf("empty RecordEvents: %v", err)
	}
}

func TestMeta(t *testing.T) {
	db, _ := openTestDB(t)
	if _, err := db.GetMeta("boot"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v", err)
	}
	if err := db.SaveMeta("boot", "1"); err != nil {
		t.Fatal(err)
	}
	if err := db.SaveMeta("boot", "2"); err != nil {
		t.Fatal(err)
	}
	v, err := db.GetMeta("boot")
	if err != nil || v != "2" {
		t.Fatalf("GetMeta = %q, %v", v, err)
	}
}

func TestStateIsCompressed(t *testing.T) {
	s := testState("s1")
	for i := 0; i < 40; i++ {
		s.ChoiceHistory = append(s.ChoiceHistory, engine.ChoiceRecord{
			Turn: i, DecisionID: "decision-nbhd-1", ChoiceIDs: []string{"attend"},
			Effects: map[pulse.FamilyField]float64{pulse.TrustNetworkStrength: 10},
		})
	}
	blob, err := encodeState(s)
	if err != nil {
		t.Fatal(err)
	}
	back, err := decodeState(blob)
	if err != nil {
		t.Fatal(err)
	}
	if len(back.ChoiceHistory) != 40 {
		t.Fatalf("history = %d", len(back.ChoiceHistory))
	}

	if _, err := decodeState([]byte("not zstd")); err == nil {
		t.Fatal("expected an error for garbage input")
	}
}

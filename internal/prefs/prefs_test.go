package prefs

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/i474232898/weather-lookup/internal/store"
)

type failingKV struct{}

func (failingKV) Get(context.Context, string) (string, bool, error) {
	return "", false, errors.New("storage unavailable")
}

func (failingKV) Set(context.Context, string, string) error {
	return errors.New("storage unavailable")
}

func TestLoadDefaultsWhenEmpty(t *testing.T) {
	s := New(store.NewMemoryStore())
	recent, unit := s.Load(context.Background())
	if len(recent) != 0 {
		t.Fatalf("expected empty recent searches, got %v", recent)
	}
	if unit != Celsius {
		t.Fatalf("expected Celsius, got %q", unit)
	}
}

func TestLoadDefaultsWhenCorrupt(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryStore()
	_ = kv.Set(ctx, KeyRecentSearches, `{not json`)
	_ = kv.Set(ctx, KeyTemperatureUnit, "K")

	recent, unit := New(kv).Load(ctx)
	if len(recent) != 0 || unit != Celsius {
		t.Fatalf("expected defaults, got %v %q", recent, unit)
	}
}

func TestLoadNormalizesStoredList(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryStore()
	_ = kv.Set(ctx, KeyRecentSearches, `["A","B","A","","C","D","E","F"]`)

	recent, _ := New(kv).Load(ctx)
	want := RecentSearches{"A", "B", "C", "D", "E"}
	if !reflect.DeepEqual(recent, want) {
		t.Fatalf("expected %v, got %v", want, recent)
	}
}

func TestStorageFailuresAreSwallowed(t *testing.T) {
	ctx := context.Background()
	s := New(failingKV{})

	recent, unit := s.Load(ctx)
	if len(recent) != 0 || unit != Celsius {
		t.Fatalf("expected defaults, got %v %q", recent, unit)
	}
	if got := s.RecordSearch(ctx, "Paris", recent); !reflect.DeepEqual(got, RecentSearches{"Paris"}) {
		t.Fatalf("expected in-memory update despite write failure, got %v", got)
	}
	if got := s.ToggleUnit(ctx, Celsius); got != Fahrenheit {
		t.Fatalf("expected Fahrenheit, got %q", got)
	}
}

func TestRecordSearchMovesExistingToFront(t *testing.T) {
	s := New(store.NewMemoryStore())
	got := s.RecordSearch(context.Background(), "Tokyo", RecentSearches{"Paris", "Tokyo"})
	want := RecentSearches{"Tokyo", "Paris"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestRecordSearchEvictsOldest(t *testing.T) {
	ctx := context.Background()
	s := New(store.NewMemoryStore())

	recent := RecentSearches{"Tokyo", "Paris"}
	for _, city := range []string{"Berlin", "Rome", "Oslo", "Madrid"} {
		recent = s.RecordSearch(ctx, city, recent)
		if len(recent) > MaxRecentSearches {
			t.Fatalf("list grew past %d: %v", MaxRecentSearches, recent)
		}
	}

	want := RecentSearches{"Madrid", "Oslo", "Rome", "Berlin", "Tokyo"}
	if !reflect.DeepEqual(recent, want) {
		t.Fatalf("expected %v, got %v", want, recent)
	}
}

func TestRecordSearchIsCaseSensitive(t *testing.T) {
	got := Push(RecentSearches{"paris"}, "Paris", MaxRecentSearches)
	want := RecentSearches{"Paris", "paris"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestPushDoesNotMutateInput(t *testing.T) {
	in := RecentSearches{"A", "B", "C", "D", "E"}
	_ = Push(in, "C", MaxRecentSearches)
	if !reflect.DeepEqual(in, RecentSearches{"A", "B", "C", "D", "E"}) {
		t.Fatalf("input was modified: %v", in)
	}
}

func TestToggleUnitTwiceRestores(t *testing.T) {
	ctx := context.Background()
	s := New(store.NewMemoryStore())
	u := s.ToggleUnit(ctx, Celsius)
	if u != Fahrenheit {
		t.Fatalf("expected Fahrenheit, got %q", u)
	}
	if u = s.ToggleUnit(ctx, u); u != Celsius {
		t.Fatalf("expected Celsius, got %q", u)
	}
}

func TestPreferencesSurviveRestart(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "prefs.db")

	kv, err := store.NewSQLite(dbPath)
	if err != nil {
		t.Fatalf("NewSQLite failed: %v", err)
	}
	s := New(kv)
	recent, unit := s.Load(ctx)
	recent = s.RecordSearch(ctx, "Paris", recent)
	recent = s.RecordSearch(ctx, "Tokyo", recent)
	unit = s.ToggleUnit(ctx, unit)
	_ = kv.Close()

	kv, err = store.NewSQLite(dbPath)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer kv.Close()

	gotRecent, gotUnit := New(kv).Load(ctx)
	if !reflect.DeepEqual(gotRecent, recent) {
		t.Fatalf("recent searches after restart: expected %v, got %v", recent, gotRecent)
	}
	if gotUnit != unit {
		t.Fatalf("unit after restart: expected %q, got %q", unit, gotUnit)
	}
}

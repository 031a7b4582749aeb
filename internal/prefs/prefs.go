// Package prefs persists the two user preferences of the widget: the list of
// recently searched cities and the temperature display unit.
package prefs

import (
	"context"
	"encoding/json"
	"log"
)

// Keys under which the preferences are persisted.
const (
	KeyRecentSearches  = "recentSearches"
	KeyTemperatureUnit = "temperatureUnit"
)

// MaxRecentSearches bounds the recent-searches list.
const MaxRecentSearches = 5

// Unit is the temperature display unit.
type Unit string

const (
	Celsius    Unit = "C"
	Fahrenheit Unit = "F"
)

// Valid reports whether u is one of the known units.
func (u Unit) Valid() bool {
	return u == Celsius || u == Fahrenheit
}

// Toggle returns the other unit. Anything unknown toggles to Fahrenheit, as
// if it had been Celsius.
func (u Unit) Toggle() Unit {
	if u == Fahrenheit {
		return Celsius
	}
	return Fahrenheit
}

// RecentSearches is ordered most-recent-first, duplicate free and holds at
// most MaxRecentSearches entries.
type RecentSearches []string

// Push returns a new list with city moved (or added) to the front,
// truncated to max. The input slice is not modified.
func Push(current RecentSearches, city string, max int) RecentSearches {
	out := make(RecentSearches, 0, len(current)+1)
	out = append(out, city)
	for _, c := range current {
		if c != city {
			out = append(out, c)
		}
	}
	if max > 0 && len(out) > max {
		out = out[:max]
	}
	return out
}

// normalize drops empty and duplicate entries and enforces the bound, so a
// hand-edited or foreign value cannot break the list invariants.
func normalize(list RecentSearches, max int) RecentSearches {
	out := make(RecentSearches, 0, len(list))
	seen := make(map[string]struct{}, len(list))
	for _, c := range list {
		if c == "" {
			continue
		}
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	if max > 0 && len(out) > max {
		out = out[:max]
	}
	return out
}

// KV is the persistence layer: string values under fixed string keys.
// A missing key is reported as ok == false, not as an error.
type KV interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
}

// Store reads and writes preferences. It never returns errors: persistence
// is best effort and failures are logged and replaced by defaults.
type Store struct {
	kv       KV
	capacity int
}

// New creates a Store backed by kv.
func New(kv KV) *Store {
	return &Store{kv: kv, capacity: MaxRecentSearches}
}

// Load reads both preferences, substituting an empty list and Celsius for
// anything missing or unreadable.
func (s *Store) Load(ctx context.Context) (RecentSearches, Unit) {
	recent := RecentSearches{}
	unit := Celsius

	raw, ok, err := s.kv.Get(ctx, KeyRecentSearches)
	switch {
	case err != nil:
		log.Printf("WARN: prefs: read %s: %v", KeyRecentSearches, err)
	case ok:
		var list RecentSearches
		if err := json.Unmarshal([]byte(raw), &list); err != nil {
			log.Printf("WARN: prefs: ignoring unparsable %s: %v", KeyRecentSearches, err)
		} else {
			recent = normalize(list, s.capacity)
		}
	}

	raw, ok, err = s.kv.Get(ctx, KeyTemperatureUnit)
	switch {
	case err != nil:
		log.Printf("WARN: prefs: read %s: %v", KeyTemperatureUnit, err)
	case ok:
		if u := Unit(raw); u.Valid() {
			unit = u
		} else {
			log.Printf("WARN: prefs: ignoring unknown %s %q", KeyTemperatureUnit, raw)
		}
	}

	return recent, unit
}

// RecordSearch moves city to the front of current, persists and returns the
// new list.
func (s *Store) RecordSearch(ctx context.Context, city string, current RecentSearches) RecentSearches {
	updated := Push(current, city, s.capacity)

	b, err := json.Marshal(updated)
	if err != nil {
		log.Printf("WARN: prefs: encode %s: %v", KeyRecentSearches, err)
		return updated
	}
	if err := s.kv.Set(ctx, KeyRecentSearches, string(b)); err != nil {
		log.Printf("WARN: prefs: write %s: %v", KeyRecentSearches, err)
	}
	return updated
}

// ToggleUnit flips current, persists and returns the new unit.
func (s *Store) ToggleUnit(ctx context.Context, current Unit) Unit {
	next := current.Toggle()
	if err := s.kv.Set(ctx, KeyTemperatureUnit, string(next)); err != nil {
		log.Printf("WARN: prefs: write %s: %v", KeyTemperatureUnit, err)
	}
	return next
}

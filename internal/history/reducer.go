// Package history maintains the one-snapshot-per-day asset history.
package history

import (
	"sort"
	"time"

	"github.com/rpgo/lifedash/internal/calculation"
	"github.com/rpgo/lifedash/internal/domain"
	"github.com/rpgo/lifedash/pkg/dateutil"
)

// Reducer applies the snapshot rules. Days are calendar days in Location;
// a nil Location means the local zone.
type Reducer struct {
	Location *time.Location
	Now      func() time.Time
}

// NewReducer returns a reducer for loc using the package clock.
func NewReducer(loc *time.Location) *Reducer {
	return &Reducer{Location: loc, Now: calculation.Now}
}

func (r *Reducer) now() time.Time {
	if r.Now == nil {
		return calculation.Now()
	}
	return r.Now()
}

func (r *Reducer) day(timestamp string) (string, bool) {
	t, err := dateutil.ParseTimestamp(timestamp)
	if err != nil {
		return "", false
	}
	return dateutil.DayKey(t, r.Location), true
}

// Record adds today's snapshot when eligible: all required fields present and
// a positive balance. A snapshot from the same day as the last one replaces
// it. The returned slice is a copy; the bool reports whether a snapshot was
// recorded.
func (r *Reducer) Record(hist []domain.HistorySnapshot, age int, balance int64, requiredFieldsPresent bool) ([]domain.HistorySnapshot, bool) {
	out := append([]domain.HistorySnapshot(nil), hist...)
	if !requiredFieldsPresent || balance <= 0 {
		return out, false
	}

	now := r.now()
	snap := domain.HistorySnapshot{
		Timestamp: dateutil.FormatISO(now),
		Age:       age,
		Balance:   balance,
	}
	today := dateutil.DayKey(now, r.Location)
	if n := len(out); n > 0 {
		if day, ok := r.day(out[n-1].Timestamp); ok && day == today {
			out[n-1] = snap
			return out, true
		}
	}
	return append(out, snap), true
}

// Normalize is the load-time hygiene pass over a decoded history value.
// Entries that are not objects or lack a parseable timestamp are dropped;
// the rest are sorted ascending and collapsed to the last entry per day.
func (r *Reducer) Normalize(raw any) []domain.HistorySnapshot {
	var entries []domain.HistorySnapshot
	switch v := raw.(type) {
	case []domain.HistorySnapshot:
		entries = v
	case []any:
		for _, e := range v {
			if snap, ok := FromValue(e); ok {
				entries = append(entries, snap)
			}
		}
	}
	return r.collapse(entries, false)
}

// Combine merges the local list with a remote list for display: newest
// first, one entry per day, the newest entry of a day winning.
func (r *Reducer) Combine(local, remote []domain.HistorySnapshot) []domain.HistorySnapshot {
	all := make([]domain.HistorySnapshot, 0, len(local)+len(remote))
	all = append(all, local...)
	all = append(all, remote...)
	return r.collapse(all, true)
}

type dated struct {
	snap domain.HistorySnapshot
	at   time.Time
	day  string
}

func (r *Reducer) collapse(entries []domain.HistorySnapshot, descending bool) []domain.HistorySnapshot {
	valid := make([]dated, 0, len(entries))
	for _, e := range entries {
		t, err := dateutil.ParseTimestamp(e.Timestamp)
		if err != nil {
			continue
		}
		valid = append(valid, dated{snap: e, at: t, day: dateutil.DayKey(t, r.Location)})
	}
	sort.SliceStable(valid, func(i, j int) bool {
		if descending {
			return valid[i].at.After(valid[j].at)
		}
		return valid[i].at.Before(valid[j].at)
	})

	// ascending keeps the last entry of each day, descending the first;
	// either way the newest of the day survives
	out := make([]domain.HistorySnapshot, 0, len(valid))
	index := map[string]int{}
	for _, d := range valid {
		if i, seen := index[d.day]; seen {
			if !descending {
				out[i] = d.snap
			}
			continue
		}
		index[d.day] = len(out)
		out = append(out, d.snap)
	}
	return out
}

// FromValue reads a snapshot out of a decoded JSON object.
func FromValue(v any) (domain.HistorySnapshot, bool) {
	m, ok := domain.AsMap(v)
	if !ok {
		return domain.HistorySnapshot{}, false
	}
	ts, _ := m["timestamp"].(string)
	if ts == "" {
		return domain.HistorySnapshot{}, false
	}
	return domain.HistorySnapshot{
		Timestamp: ts,
		Age:       int(calculation.NumberFrom(m["age"]).IntPart()),
		Balance:   calculation.NumberFrom(m["balance"]).IntPart(),
	}, true
}

// ToValue renders a snapshot as a plain JSON object for persistence.
func ToValue(s domain.HistorySnapshot) map[string]any {
	return map[string]any{
		"timestamp": s.Timestamp,
		"age":       s.Age,
		"balance":   s.Balance,
	}
}

// ToValues renders a history list for persistence.
func ToValues(hist []domain.HistorySnapshot) []any {
	out := make([]any, len(hist))
	for i, s := range hist {
		out[i] = ToValue(s)
	}
	return out
}

// DocumentID is the remote per-day document id of a snapshot.
func DocumentID(s domain.HistorySnapshot) string {
	return dateutil.DocumentID(s.Timestamp)
}

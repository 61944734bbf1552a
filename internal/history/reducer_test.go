package history

import (
	"testing"
	"time"

	"github.com/rpgo/lifedash/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time         { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestReducer(start time.Time) (*Reducer, *fakeClock) {
	clock := &fakeClock{t: start}
	return &Reducer{Location: time.UTC, Now: clock.Now}, clock
}

func TestRecordSameDayOverwrites(t *testing.T) {
	r, clock := newTestReducer(time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC))

	hist, ok := r.Record(nil, 40, 1000, true)
	require.True(t, ok)
	require.Len(t, hist, 1)

	clock.Advance(3 * time.Hour)
	hist, ok = r.Record(hist, 40, 1500, true)
	require.True(t, ok)
	require.Len(t, hist, 1)
	assert.Equal(t, int64(1500), hist[0].Balance)
	assert.Equal(t, "2024-05-01T12:00:00.000Z", hist[0].Timestamp)
}

func TestRecordNextDayAppends(t *testing.T) {
	r, clock := newTestReducer(time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC))

	hist, _ := r.Record(nil, 40, 1000, true)
	for i := 0; i < 3; i++ {
		clock.Advance(24 * time.Hour)
		before := len(hist)
		hist, _ = r.Record(hist, 40, 1000+int64(i), true)
		assert.Len(t, hist, before+1)
	}
	assert.Equal(t, "2024-05-04T09:00:00.000Z", hist[3].Timestamp)
}

func TestRecordIneligible(t *testing.T) {
	r, _ := newTestReducer(time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC))
	existing := []domain.HistorySnapshot{{Timestamp: "2024-04-30T10:00:00.000Z", Age: 39, Balance: 10}}

	tests := []struct {
		name     string
		balance  int64
		required bool
	}{
		{"required field blank", 5000, false},
		{"zero balance", 0, true},
		{"negative balance", -10, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := r.Record(existing, 40, tt.balance, tt.required)
			assert.False(t, ok)
			assert.Equal(t, existing, got)
		})
	}
}

func TestRecordDoesNotMutateInput(t *testing.T) {
	r, _ := newTestReducer(time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC))
	existing := []domain.HistorySnapshot{{Timestamp: "2024-05-01T01:00:00.000Z", Age: 40, Balance: 10}}

	got, ok := r.Record(existing, 40, 99, true)
	require.True(t, ok)
	assert.Equal(t, int64(99), got[0].Balance)
	assert.Equal(t, int64(10), existing[0].Balance)
}

func TestRecordUsesReducerTimezone(t *testing.T) {
	ny := time.FixedZone("NY", -4*3600)
	clock := &fakeClock{t: time.Date(2024, 5, 2, 2, 0, 0, 0, time.UTC)} // May 1 in NY
	r := &Reducer{Location: ny, Now: clock.Now}
	existing := []domain.HistorySnapshot{{Timestamp: "2024-05-01T15:00:00.000Z", Age: 40, Balance: 10}}

	got, _ := r.Record(existing, 40, 20, true)
	assert.Len(t, got, 1)
}

func TestNormalizeHygiene(t *testing.T) {
	r, _ := newTestReducer(time.Now())
	raw := []any{
		map[string]any{"timestamp": "2024-05-02T10:00:00.000Z", "age": 40.0, "balance": 300.0},
		map[string]any{"timestamp": "not a date", "age": 40.0, "balance": 1.0},
		map[string]any{"age": 40.0, "balance": 2.0},
		"garbage",
		map[string]any{"timestamp": "2024-05-01T08:00:00.000Z", "age": 40.0, "balance": 100.0},
		map[string]any{"timestamp": "2024-05-01T20:00:00.000Z", "age": 40.0, "balance": 200.0},
	}

	got := r.Normalize(raw)
	require.Len(t, got, 2)
	assert.Equal(t, "2024-05-01T20:00:00.000Z", got[0].Timestamp)
	assert.Equal(t, int64(200), got[0].Balance)
	assert.Equal(t, int64(300), got[1].Balance)
	assert.Equal(t, 40, got[1].Age)

	assert.Empty(t, r.Normalize(nil))
	assert.Empty(t, r.Normalize("oops"))
}

func TestCombineNewestFirstOnePerDay(t *testing.T) {
	r, _ := newTestReducer(time.Now())
	local := []domain.HistorySnapshot{
		{Timestamp: "2024-05-01T08:00:00.000Z", Balance: 1},
		{Timestamp: "2024-05-03T08:00:00.000Z", Balance: 3},
	}
	remote := []domain.HistorySnapshot{
		{Timestamp: "2024-05-03T18:00:00.000Z", Balance: 33},
		{Timestamp: "2024-05-02T08:00:00.000Z", Balance: 2},
		{Timestamp: "bad", Balance: 0},
	}

	got := r.Combine(local, remote)
	require.Len(t, got, 3)
	assert.Equal(t, []int64{33, 2, 1}, []int64{got[0].Balance, got[1].Balance, got[2].Balance})
}

func TestValuesRoundTrip(t *testing.T) {
	snap := domain.HistorySnapshot{Timestamp: "2024-05-01T08:00:00.000Z", Age: 41, Balance: 1234}
	got, ok := FromValue(ToValue(snap))
	require.True(t, ok)
	assert.Equal(t, snap, got)
	assert.Len(t, ToValues([]domain.HistorySnapshot{snap, snap}), 2)
	assert.Equal(t, "2024-05-01", DocumentID(snap))
}

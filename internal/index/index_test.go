package index

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"calclash/internal/model"
)

var base = time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)

func interval(startMin, endMin int, label string) model.Event {
	return model.Event{
		Start: base.Add(time.Duration(startMin) * time.Minute),
		End:   base.Add(time.Duration(endMin) * time.Minute),
		Label: label,
	}
}

func TestInsertAndOverlap(t *testing.T) {
	ix := New()

	require.NoError(t, ix.Insert(interval(540, 570, "standup")))
	require.NoError(t, ix.Insert(interval(555, 570, "breathing")))
	require.NoError(t, ix.Insert(interval(660, 690, "accountant")))
	assert.Equal(t, 3, ix.Len())

	got := ix.Overlapping(interval(555, 570, "").Start, interval(555, 570, "").End)
	require.Len(t, got, 2)
	assert.Equal(t, "standup", got[0].Label)
	assert.Equal(t, "breathing", got[1].Label)
}

func TestInsert_RejectsMalformed(t *testing.T) {
	ix := New()
	err := ix.Insert(interval(600, 540, "inverted"))
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrMalformed)
	assert.Equal(t, 0, ix.Len(), "failed insert must leave the index unchanged")
}

// Shared endpoints conflict under the inclusive-bounds rule.
func TestOverlap_TouchingEndpointsInclusive(t *testing.T) {
	ix := New()
	require.NoError(t, ix.Insert(interval(540, 570, "first"))) // 09:00-09:30

	got := ix.Overlapping(base.Add(570*time.Minute), base.Add(600*time.Minute)) // 09:30-10:00
	require.Len(t, got, 1)
	assert.Equal(t, "first", got[0].Label)
}

func TestOverlap_IdempotentQuery(t *testing.T) {
	ix := New()
	for i := 0; i < 20; i++ {
		require.NoError(t, ix.Insert(interval(i*10, i*10+15, fmt.Sprintf("e%d", i))))
	}

	first := ix.Overlapping(base, base.Add(60*time.Minute))
	second := ix.Overlapping(base, base.Add(60*time.Minute))
	assert.Equal(t, first, second)
}

func TestOverlap_DuplicateIntervals(t *testing.T) {
	ix := New()
	require.NoError(t, ix.Insert(interval(540, 570, "a")))
	require.NoError(t, ix.Insert(interval(540, 570, "b")))
	require.NoError(t, ix.Insert(interval(540, 570, "c")))

	got := ix.Overlapping(base.Add(540*time.Minute), base.Add(570*time.Minute))
	require.Len(t, got, 3)
	// Identical intervals come back in insertion order.
	assert.Equal(t, []string{"a", "b", "c"},
		[]string{got[0].Label, got[1].Label, got[2].Label})
}

func TestOverlap_ResultOrdering(t *testing.T) {
	ix := New()
	// Inserted out of order on purpose.
	require.NoError(t, ix.Insert(interval(560, 580, "late-start")))
	require.NoError(t, ix.Insert(interval(540, 600, "long")))
	require.NoError(t, ix.Insert(interval(540, 570, "short")))

	got := ix.Overlapping(base.Add(540*time.Minute), base.Add(600*time.Minute))
	require.Len(t, got, 3)
	// Sorted by start, then end.
	assert.Equal(t, []string{"short", "long", "late-start"},
		[]string{got[0].Label, got[1].Label, got[2].Label})
}

// Overlap correctness against a brute-force scan: for every pair of
// inserted intervals, the query must return exactly the events the
// inclusive-bounds predicate accepts.
func TestOverlap_MatchesBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	ix := New()
	events := make([]model.Event, 0, 200)
	for i := 0; i < 200; i++ {
		start := rng.Intn(1000)
		ev := interval(start, start+rng.Intn(120), fmt.Sprintf("e%d", i))
		events = append(events, ev)
		require.NoError(t, ix.Insert(ev))
	}

	for _, probe := range events {
		want := make([]string, 0)
		for _, other := range events {
			if probe.Overlaps(other) {
				want = append(want, other.Label)
			}
		}

		got := ix.Overlapping(probe.Start, probe.End)
		gotLabels := make([]string, len(got))
		for i, g := range got {
			gotLabels[i] = g.Label
		}
		assert.ElementsMatch(t, want, gotLabels, "probe %s", probe.Label)
	}
}

// Permuting insertion order must not change any query's result set.
func TestOverlap_OrderIndependence(t *testing.T) {
	events := []model.Event{
		interval(540, 570, "standup"),
		interval(555, 570, "breathing"),
		interval(660, 690, "accountant"),
		interval(675, 690, "one-on-one"),
		interval(840, 885, "gym"),
	}

	reference := New()
	for _, ev := range events {
		require.NoError(t, reference.Insert(ev))
	}

	rng := rand.New(rand.NewSource(7))
	for trial := 0; trial < 10; trial++ {
		perm := rng.Perm(len(events))
		ix := New()
		for _, i := range perm {
			require.NoError(t, ix.Insert(events[i]))
		}

		for _, probe := range events {
			want := reference.Overlapping(probe.Start, probe.End)
			got := ix.Overlapping(probe.Start, probe.End)

			wantLabels := make([]string, len(want))
			for i, w := range want {
				wantLabels[i] = w.Label
			}
			gotLabels := make([]string, len(got))
			for i, g := range got {
				gotLabels[i] = g.Label
			}
			assert.ElementsMatch(t, wantLabels, gotLabels)
		}
	}
}

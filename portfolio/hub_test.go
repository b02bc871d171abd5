package portfolio

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHub(t *testing.T, n, capacity, resetEvery int, m *Metrics) *Hub {
	t.Helper()
	db, err := NewDatabase(FilterExact, testFilterOptions)
	require.NoError(t, err)
	return NewHub(n, db, capacity, resetEvery, m)
}

func TestHub_dispatch(t *testing.T) {
	h := newTestHub(t, 3, 10, 0, nil)

	h.Link(0).Send([]int{1, 2})
	h.Link(1).Send([]int{-3})

	assert.Equal(t, [][]int{{-3}}, h.Link(0).Receive())
	assert.Equal(t, [][]int{{1, 2}}, h.Link(1).Receive())
	assert.Equal(t, [][]int{{1, 2}, {-3}}, h.Link(2).Receive())
	assert.Empty(t, h.Link(2).Receive(), "Receive drains the inbox")

	stats := h.Stats()
	assert.Equal(t, int64(2), stats.Sent)
	assert.Equal(t, int64(2), stats.Accepted)
	assert.Equal(t, int64(4), stats.Received)
	assert.InDelta(t, 2.0, stats.AvgClauseSize, 1.0)
}

func TestHub_filtersDuplicates(t *testing.T) {
	h := newTestHub(t, 2, 10, 0, nil)

	h.Send(0, []int{1, 2})
	h.Send(1, []int{2, 1})

	assert.Len(t, h.Receive(1), 1)
	assert.Empty(t, h.Receive(0))
	assert.Equal(t, int64(1), h.Stats().Filtered)
}

func TestHub_dropsOnFullInbox(t *testing.T) {
	h := newTestHub(t, 2, 2, 0, nil)

	for v := 1; v <= 5; v++ {
		h.Send(0, []int{v, v + 10})
	}

	assert.Len(t, h.Receive(1), 2)
	assert.Equal(t, int64(3), h.Stats().Dropped)
}

func TestHub_globalReset(t *testing.T) {
	h := newTestHub(t, 2, 10, 1, nil)

	h.Send(0, []int{1, 2})
	h.Send(0, []int{1, 2})

	// The local filter still rejects the clause once the global one forgot
	// it.
	assert.Len(t, h.Receive(1), 1)
	assert.Equal(t, int64(1), h.Stats().Filtered)
}

func TestHub_metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	h := newTestHub(t, 2, 1, 0, m)

	h.Send(0, []int{1, 2})
	h.Send(0, []int{1, 2})
	h.Send(0, []int{3, 4})
	h.Receive(1)

	assert.Equal(t, 3.0, testutil.ToFloat64(m.exported.WithLabelValues("0")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.filtered))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.dropped))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.imported.WithLabelValues("1")))
}

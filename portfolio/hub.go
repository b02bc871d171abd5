package portfolio

import (
	"sync"

	"github.com/rhartert/satshare/internal/sat"
	"github.com/rhartert/satshare/session"
)

// HubStats counts the clauses that went through a hub.
type HubStats struct {
	Sent     int64 // published by workers
	Accepted int64 // passed the database
	Filtered int64 // rejected by the database
	Dropped  int64 // lost to full inboxes
	Received int64 // delivered to workers

	// Exponential moving average of the accepted clauses' size.
	AvgClauseSize float64
}

// Hub dispatches the clauses published by each worker to all the others.
// Each worker has a bounded inbox; clauses that do not fit are dropped. Hub
// is safe for concurrent use.
type Hub struct {
	mu sync.Mutex

	db       *Database
	inboxes  [][][]int
	capacity int

	// The global filter is reset after this many accepted clauses, 0 for
	// never.
	resetEvery int
	sinceReset int

	stats      HubStats
	clauseSize sat.EMA
	metrics    *Metrics
}

// NewHub returns a hub for n workers. Metrics may be nil.
func NewHub(n int, db *Database, capacity int, resetEvery int, m *Metrics) *Hub {
	return &Hub{
		db:         db,
		inboxes:    make([][][]int, n),
		capacity:   capacity,
		resetEvery: resetEvery,
		clauseSize: sat.NewEMA(0.99),
		metrics:    m,
	}
}

// Send offers a clause published by worker from to the other workers. The
// hub retains clause.
func (h *Hub) Send(from int, clause []int) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.stats.Sent++
	h.metrics.clauseExported(from)

	if !h.db.Offer(clause) {
		h.stats.Filtered++
		h.metrics.clauseFiltered()
		return
	}
	h.stats.Accepted++
	h.clauseSize.Add(float64(len(clause)))

	if h.resetEvery > 0 {
		if h.sinceReset++; h.sinceReset >= h.resetEvery {
			h.db.ResetGlobal()
			h.sinceReset = 0
		}
	}

	for to := range h.inboxes {
		if to == from {
			continue
		}
		if len(h.inboxes[to]) >= h.capacity {
			h.stats.Dropped++
			h.metrics.clauseDropped()
			continue
		}
		h.inboxes[to] = append(h.inboxes[to], clause)
	}
}

// Receive returns and clears the inbox of worker to.
func (h *Hub) Receive(to int) [][]int {
	h.mu.Lock()
	defer h.mu.Unlock()

	in := h.inboxes[to]
	h.inboxes[to] = nil
	h.stats.Received += int64(len(in))
	h.metrics.clausesImported(to, len(in))
	return in
}

// Stats returns a snapshot of the hub's counters.
func (h *Hub) Stats() HubStats {
	h.mu.Lock()
	defer h.mu.Unlock()

	s := h.stats
	s.AvgClauseSize = h.clauseSize.Val()
	return s
}

// Link returns the session.Link of worker w.
func (h *Hub) Link(w int) session.Link {
	return hubLink{hub: h, worker: w}
}

type hubLink struct {
	hub    *Hub
	worker int
}

func (l hubLink) Send(clause []int) {
	l.hub.Send(l.worker, clause)
}

func (l hubLink) Receive() [][]int {
	return l.hub.Receive(l.worker)
}

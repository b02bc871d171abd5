package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rhartert/satshare/internal/engine"
	"github.com/rhartert/satshare/internal/sat"
)

// memLink records sent clauses and serves a fixed set of incoming ones.
type memLink struct {
	sent     [][]int
	incoming [][]int
	receives int
}

func (l *memLink) Send(clause []int) {
	l.sent = append(l.sent, clause)
}

func (l *memLink) Receive() [][]int {
	l.receives++
	in := l.incoming
	l.incoming = nil
	return in
}

func randomized() sat.Options {
	ops := sat.DefaultOptions
	ops.RandomVarFreq = 0.1
	return ops
}

func TestConnect_unsupportedEngine(t *testing.T) {
	s := New(WithEngine(engine.NewGini()))
	defer s.Close()

	assert.ErrorIs(t, s.Connect(&memLink{}), ErrExchangeUnsupported)
}

func TestConnect_exportsLearntClauses(t *testing.T) {
	s := New()
	defer s.Close()
	for _, c := range pigeonHole(6, 5) {
		s.AddClause(c...)
	}
	link := &memLink{}
	require.NoError(t, s.Connect(link))

	require.False(t, s.Solve())

	assert.Len(t, link.sent, int(s.LearnedClauseCount()))
	assert.NotZero(t, link.receives)
	for _, c := range link.sent {
		for _, l := range c {
			assert.NotZero(t, l)
			assert.LessOrEqual(t, abs(l), s.NumVariables())
		}
	}
}

func TestConnect_exportLimit(t *testing.T) {
	s := New(WithExportLimit(2))
	defer s.Close()
	for _, c := range pigeonHole(6, 5) {
		s.AddClause(c...)
	}
	link := &memLink{}
	require.NoError(t, s.Connect(link))

	s.Solve()

	assert.Less(t, len(link.sent), int(s.LearnedClauseCount()))
	for _, c := range link.sent {
		assert.LessOrEqual(t, len(c), 2)
	}
}

func TestConnect_exportPreservesSendBuffer(t *testing.T) {
	s := New()
	defer s.Close()
	for _, c := range pigeonHole(5, 4) {
		s.AddClause(c...)
	}
	s.AddLiteralToSendClause(7)
	s.AddLiteralToSendClause(-3)
	link := &memLink{}
	require.NoError(t, s.Connect(link))

	s.Solve()

	require.NotEmpty(t, link.sent)
	assert.Equal(t, []int{7, -3}, s.SendClause())
}

func TestConnect_importsIncomingClauses(t *testing.T) {
	s := New()
	defer s.Close()
	s.AddClause(1, 2)
	link := &memLink{incoming: [][]int{{-1}, {-2, 3}}}
	require.NoError(t, s.Connect(link))

	require.True(t, s.Solve())

	assert.False(t, s.ValueOf(1))
	assert.True(t, s.ValueOf(2))
	assert.True(t, s.ValueOf(3))
	assert.Equal(t, 3, s.NumVariables(), "imported clauses grow the universe")
}

func TestConnect_importMakesUnsat(t *testing.T) {
	s := New()
	defer s.Close()
	s.AddClause(1, 2)
	link := &memLink{incoming: [][]int{{-1}, {-2}}}
	require.NoError(t, s.Connect(link))

	assert.False(t, s.Solve())
}

func TestConnect_importPreservesReceiveBuffer(t *testing.T) {
	s := New()
	defer s.Close()
	s.AddClause(1, 2)
	s.AddLiteralToReceiveClause(-1)
	link := &memLink{incoming: [][]int{{-2}}}
	require.NoError(t, s.Connect(link))

	require.True(t, s.Solve())
	assert.True(t, s.ValueOf(1))

	// The staged -1 was not mixed with the imported clause.
	require.False(t, s.CommitIncomingClause())
	assert.False(t, s.Solve())
}

func TestConnect_disconnect(t *testing.T) {
	s := New()
	defer s.Close()
	for _, c := range pigeonHole(5, 4) {
		s.AddClause(c...)
	}
	link := &memLink{}
	require.NoError(t, s.Connect(link))
	require.NoError(t, s.Connect(nil))

	s.Solve()

	assert.Empty(t, link.sent)
	assert.Zero(t, link.receives)
}

// pairLink connects two sessions running in the same goroutine.
type pairLink struct {
	out  *[][]int
	in   *[][]int
	sent int
}

func (l *pairLink) Send(clause []int) {
	*l.out = append(*l.out, clause)
	l.sent++
}

func (l *pairLink) Receive() [][]int {
	in := *l.in
	*l.in = nil
	return in
}

func TestConnect_sharedClausesKeepAnswers(t *testing.T) {
	var ab, ba [][]int
	a := New(WithEngine(engine.NewNative(randomized())))
	defer a.Close()
	b := New(WithEngine(engine.NewNative(randomized())))
	defer b.Close()
	b.SetRandomSeed(7)

	linkA := &pairLink{out: &ab, in: &ba}
	linkB := &pairLink{out: &ba, in: &ab}
	require.NoError(t, a.Connect(linkA))
	require.NoError(t, b.Connect(linkB))

	for _, c := range pigeonHole(6, 5) {
		a.AddClause(c...)
		b.AddClause(c...)
	}

	assert.False(t, a.Solve())
	assert.False(t, b.Solve())
	assert.NotZero(t, linkA.sent)

	// Learnt clauses are implied by the problem: dropping one pigeon keeps
	// both sessions satisfiable.
	c := New()
	defer c.Close()
	d := New()
	defer d.Close()
	var cd, dc [][]int
	require.NoError(t, c.Connect(&pairLink{out: &cd, in: &dc}))
	require.NoError(t, d.Connect(&pairLink{out: &dc, in: &cd}))
	for _, cl := range pigeonHole(5, 5) {
		c.AddClause(cl...)
		d.AddClause(cl...)
	}
	for i := 0; i < 3; i++ {
		c.AddAssumption(-(i + 1))
		require.True(t, c.Solve())
		require.True(t, d.Solve())
	}
}

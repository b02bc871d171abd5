package session

import (
	"errors"

	"github.com/rhartert/satshare/internal/sat"
)

// ErrExchangeUnsupported is returned by Connect for engines that do not
// expose their learnt clauses.
var ErrExchangeUnsupported = errors.New("session: engine does not support clause exchange")

// Link transports clauses between a session and its peers. Clauses are
// DIMACS literals; the session never retains nor modifies them.
type Link interface {
	// Send publishes a clause learnt by the session.
	Send(clause []int)

	// Receive returns the clauses published by peers since the last call.
	Receive() [][]int
}

// exchanger is implemented by engines with learnt clause hooks.
type exchanger interface {
	SetExchange(x sat.Exchange)
}

// AddLiteralToSendClause appends l to the clause to export.
func (s *Session) AddLiteralToSendClause(l int) {
	s.checkOpen()
	s.send.stage(l)
}

// CleanSendClause discards the clause to export.
func (s *Session) CleanSendClause() {
	s.checkOpen()
	s.send.clean()
}

// SendClause returns the clause to export as DIMACS literals. The buffer is
// left untouched.
func (s *Session) SendClause() []int {
	s.checkOpen()
	return s.send.contents()
}

// AddLiteralToReceiveClause appends l to the clause being imported,
// allocating its variable if needed.
func (s *Session) AddLiteralToReceiveClause(l int) {
	s.checkOpen()
	s.receive.stage(l)
}

// CleanReceiveClause discards the clause being imported.
func (s *Session) CleanReceiveClause() {
	s.checkOpen()
	s.receive.clean()
}

// CommitIncomingClause adds the imported clause to the engine and empties
// the buffer. It behaves as CommitClause.
func (s *Session) CommitIncomingClause() bool {
	s.checkOpen()
	s.modelValid = false
	return s.receive.commit()
}

// Connect attaches the session to l. During Solve, each learnt clause no
// larger than the export limit goes through the send buffer to l.Send, and
// the clauses of l.Receive go through the receive buffer into the engine
// after each restart. A nil l disconnects the session.
func (s *Session) Connect(l Link) error {
	s.checkOpen()
	x, ok := s.engine.(exchanger)
	if !ok {
		return ErrExchangeUnsupported
	}
	s.link = l
	if l == nil {
		x.SetExchange(nil)
		return nil
	}
	x.SetExchange(gateway{s})
	return nil
}

// gateway implements sat.Exchange on top of the session's send and receive
// buffers. Literals staged by the caller in these buffers are preserved.
type gateway struct {
	s *Session
}

func (g gateway) Export(clause []sat.Literal) {
	s := g.s
	if s.exportLimit > 0 && len(clause) > s.exportLimit {
		return
	}

	n := len(s.send.lits)
	s.send.lits = append(s.send.lits, clause...)
	out := make([]int, len(clause))
	for i, l := range s.send.lits[n:] {
		out[i] = l.DIMACS()
	}
	s.send.lits = s.send.lits[:n]

	s.link.Send(out)
	s.nExported++
}

func (g gateway) Import() {
	s := g.s
	incoming := s.link.Receive()
	if len(incoming) == 0 {
		return
	}

	var staged []sat.Literal
	if len(s.receive.lits) > 0 {
		staged = append(staged, s.receive.lits...)
		s.receive.clean()
	}

	for _, c := range incoming {
		for _, l := range c {
			s.receive.stage(l)
		}
		s.CommitIncomingClause()
		s.nImported++
	}

	s.receive.lits = append(s.receive.lits, staged...)
}

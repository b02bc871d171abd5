package sat

import (
	"fmt"
	"strings"
)

// Queue is a FIFO queue backed by a ring buffer whose size is always a power
// of two. It is used as the propagation queue of the solver.
type Queue[T any] struct {
	ring  []T
	mask  int
	start int
	end   int
	size  int
}

// NewQueue returns a new Queue with the given capacity. Note that the capacity
// is used as an indication and the queue might be instantiated with a larger
// capacity than the given one.
func NewQueue[T any](capa int) *Queue[T] {
	capa = nextPower2(capa)
	return &Queue[T]{
		ring: make([]T, capa),
		mask: capa - 1,
	}
}

// nextPower2 returns the smallest power of two strictly greater than i.
func nextPower2(i int) int {
	i |= i >> 1
	i |= i >> 2
	i |= i >> 4
	i |= i >> 8
	i |= i >> 16
	i |= i >> 32
	return i + 1
}

func (q *Queue[T]) IsEmpty() bool {
	return q.size == 0
}

func (q *Queue[T]) Size() int {
	return q.size
}

func (q *Queue[T]) Clear() {
	q.start = 0
	q.end = 0
	q.size = 0
}

func (q *Queue[T]) Push(elem T) {
	if q.size == len(q.ring) {
		q.resize()
	}
	q.ring[q.end] = elem
	q.end = (q.end + 1) & q.mask
	q.size++
}

// resize doubles the capacity of the ring and moves the queued elements to
// the beginning of the new ring.
func (q *Queue[T]) resize() {
	newRing := make([]T, len(q.ring)*2)
	n := copy(newRing, q.ring[q.start:])
	copy(newRing[n:], q.ring[:q.start])
	q.start = 0
	q.end = q.size
	q.ring = newRing
	q.mask = len(newRing) - 1
}

// Peek returns the next element of the queue without removing it.
func (q *Queue[T]) Peek() T {
	if q.size == 0 {
		panic("peek on an empty queue")
	}
	return q.ring[q.start]
}

func (q *Queue[T]) Pop() T {
	if q.size == 0 {
		panic("pop on an empty queue")
	}
	elem := q.ring[q.start]
	q.start = (q.start + 1) & q.mask
	q.size--
	return elem
}

func (q *Queue[T]) String() string {
	if q.IsEmpty() {
		return "Queue[]"
	}
	sb := strings.Builder{}
	sb.WriteString("Queue[")
	fmt.Fprintf(&sb, "%v", q.ring[q.start])
	for i := 1; i < q.Size(); i++ {
		p := (q.start + i) & q.mask
		fmt.Fprintf(&sb, " %v", q.ring[p])
	}
	sb.WriteByte(']')
	return sb.String()
}

package aio

import "sort"

type lesser[E any] interface {
	less(v E) bool
}

// A readyqueue is a stable priority queue: elements that compare equal pop in
// the order they were pushed.
//
// It keeps two segments backed by one array. Popping shrinks the head
// segment from the front; pushing inserts with a binary search, reusing the
// array space freed by earlier pops before growing.
type readyqueue[E lesser[E]] struct {
	head, tail []E
}

func (q *readyqueue[E]) Empty() bool {
	return len(q.head) == 0
}

func (q *readyqueue[E]) Push(v E) {
	headsize, tailsize := len(q.head), len(q.tail)

	n := headsize + tailsize

	i := sort.Search(n, func(i int) bool {
		if i < headsize {
			return v.less(q.head[i])
		}
		return v.less(q.tail[i-headsize])
	})

	if n == cap(q.tail) {
		var zero E

		s := append(q.tail[:n], zero)[:0]

		if i < headsize {
			s = append(s, q.head[:i]...)
			s = append(s, v)
			s = append(s, q.head[i:]...)
			s = append(s, q.tail...)
		} else {
			i -= headsize
			s = append(s, q.head...)
			s = append(s, q.tail[:i]...)
			s = append(s, v)
			s = append(s, q.tail[i:]...)
		}

		q.head, q.tail = s, s[:0]

		return
	}

	if headsize < cap(q.head) {
		s := q.head[:headsize+1]
		copy(s[i+1:], s[i:])
		s[i] = v
		q.head = s
		return
	}

	if i < headsize {
		s := q.head
		u := s[headsize-1]
		copy(s[i+1:], s[i:])
		s[i] = v
		v = u
		i = headsize
	}

	i -= headsize

	s := q.tail[:tailsize+1]
	copy(s[i+1:], s[i:])
	s[i] = v
	q.tail = s
}

func (q *readyqueue[E]) Pop() (v E) {
	q.head[0], v = v, q.head[0]

	if len(q.head) > 1 {
		q.head = q.head[1:]
	} else {
		q.head, q.tail = q.tail, q.tail[:0]
	}

	return v
}

package workerpool

import "github.com/petrijr/relay/pkg/api"

// fifo is a growable ring buffer of tasks. It is not safe for concurrent
// use; Pool guards it with its mutex.
type fifo struct {
	buf  []api.Task
	head int
	n    int
}

func (q *fifo) len() int { return q.n }

func (q *fifo) push(t api.Task) {
	if q.n == len(q.buf) {
		q.grow()
	}
	q.buf[(q.head+q.n)%len(q.buf)] = t
	q.n++
}

func (q *fifo) pop() (api.Task, bool) {
	if q.n == 0 {
		return nil, false
	}
	t := q.buf[q.head]
	q.buf[q.head] = nil
	q.head = (q.head + 1) % len(q.buf)
	q.n--
	return t, true
}

func (q *fifo) grow() {
	size := len(q.buf) * 2
	if size == 0 {
		size = 16
	}
	buf := make([]api.Task, size)
	for i := 0; i < q.n; i++ {
		buf[i] = q.buf[(q.head+i)%len(q.buf)]
	}
	q.buf = buf
	q.head = 0
}

// idleStack holds parked workers. The most recently parked worker is handed
// work first so that surplus workers further down can reach their keep-alive.
type idleStack []*worker

func (s *idleStack) push(w *worker) { *s = append(*s, w) }

func (s *idleStack) pop() (*worker, bool) {
	n := len(*s)
	if n == 0 {
		return nil, false
	}
	w := (*s)[n-1]
	(*s)[n-1] = nil
	*s = (*s)[:n-1]
	return w, true
}

// remove reports whether w was still parked.
func (s *idleStack) remove(w *worker) bool {
	for i, x := range *s {
		if x == w {
			copy((*s)[i:], (*s)[i+1:])
			(*s)[len(*s)-1] = nil
			*s = (*s)[:len(*s)-1]
			return true
		}
	}
	return false
}

package channel

// Latest holds at most one pending value. Send never blocks: a value nobody has
// received yet is replaced by the newer one. It expects a single sender.
type Latest[T any] struct {
	ch chan T
}

// NewLatest creates an empty Latest channel
func NewLatest[T any]() *Latest[T] {
	return &Latest[T]{ch: make(chan T, 1)}
}

// Send publishes v, dropping a stale pending value if there is one
func (l *Latest[T]) Send(v T) {
	for {
		select {
		case l.ch <- v:
			return
		default:
		}
		select {
		case <-l.ch:
		default:
		}
	}
}

func (l *Latest[T]) Receive() <-chan T {
	return l.ch
}

// Len is 1 while a value is pending, else 0
func (l *Latest[T]) Len() int {
	return len(l.ch)
}

func (l *Latest[T]) Close() {
	close(l.ch)
}

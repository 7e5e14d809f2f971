package ai

import "io"

// Stream is a lazy, finite, non-restartable sequence of generated text
// fragments. Recv returns io.EOF once the sequence is exhausted.
type Stream struct {
	next    func() (string, error)
	closeFn func()
}

// NewStream wraps a receive function and an optional close function.
func NewStream(next func() (string, error), closeFn func()) *Stream {
	return &Stream{next: next, closeFn: closeFn}
}

// StreamFromSlice produces the given fragments in order. Used for fixed
// replies and as a synthetic generator in tests.
func StreamFromSlice(fragments []string) *Stream {
	idx := 0
	return NewStream(func() (string, error) {
		if idx >= len(fragments) {
			return "", io.EOF
		}
		frag := fragments[idx]
		idx++
		return frag, nil
	}, nil)
}

// Recv returns the next fragment, in production order.
func (s *Stream) Recv() (string, error) {
	return s.next()
}

// Close releases the underlying source. Safe to call more than once.
func (s *Stream) Close() {
	if s.closeFn != nil {
		s.closeFn()
	}
}

package testutil

import "sync"

// CountingReader is an io.Reader for nonce generation in tests. Each Read
// fills the buffer with one counter byte, so consecutive nonces differ but a
// fresh reader always produces the same sequence.
type CountingReader struct {
	mu   sync.Mutex
	next byte
}

// Read fills p with the counter value and then bumps the counter.
func (r *CountingReader) Read(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.next++
	for i := range p {
		p[i] = r.next
	}
	return len(p), nil
}

package detect

import "sync"

// Mock implements Detector for testing.
// DetectFunc can be customized; if nil, Detect returns an empty result
// echoing the timestamp.
type Mock struct {
	DetectFunc func(jpeg []byte, timestampMS int64) (*Result, error)

	mu    sync.Mutex
	calls int
}

// NewMock creates a mock detector.
func NewMock() *Mock {
	return &Mock{}
}

// Detect implements Detector.
func (m *Mock) Detect(jpeg []byte, timestampMS int64) (*Result, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()

	if m.DetectFunc != nil {
		return m.DetectFunc(jpeg, timestampMS)
	}
	return &Result{TimestampMS: timestampMS}, nil
}

// Close implements Detector.
func (m *Mock) Close() error { return nil }

// Calls returns how many times Detect was invoked.
func (m *Mock) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

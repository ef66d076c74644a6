package storage

import (
	"io"
	"sync"
)

// progressCounter turns byte counts into monotonically increasing percentages
type progressCounter struct {
	mu         sync.Mutex
	total      int64
	sent       int64
	last       float64
	onProgress ProgressFunc
}

func newProgressCounter(total int64, onProgress ProgressFunc) *progressCounter {
	return &progressCounter{total: total, onProgress: onProgress}
}

func (p *progressCounter) add(n int64) {
	if p.onProgress == nil || p.total <= 0 || n <= 0 {
		return
	}

	p.mu.Lock()
	p.sent += n
	pct := float64(p.sent) * 100 / float64(p.total)
	if pct > 100 {
		pct = 100
	}
	report := pct > p.last
	if report {
		p.last = pct
	}
	p.mu.Unlock()

	if report {
		p.onProgress(pct)
	}
}

// complete reports 100 if it has not been reported yet
func (p *progressCounter) complete() {
	if p.onProgress == nil {
		return
	}
	p.mu.Lock()
	report := p.last < 100
	p.last = 100
	p.mu.Unlock()

	if report {
		p.onProgress(100)
	}
}

// progressReader counts bytes as the uploader pulls them from the body
type progressReader struct {
	r       io.Reader
	counter *progressCounter
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	p.counter.add(int64(n))
	return n, err
}

// progressSink is handed to clients that push a copy of every sent chunk
// into an io.Reader. The chunk must not be written to.
type progressSink struct {
	counter *progressCounter
}

func (p *progressSink) Read(b []byte) (int, error) {
	p.counter.add(int64(len(b)))
	return len(b), nil
}

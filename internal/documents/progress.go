package documents

import "sync"

// ProgressFunc receives a category's overall upload percentage in [0,100]
type ProgressFunc func(category Category, percent int)

// categoryProgress folds per-file progress into a monotonic category percentage
type categoryProgress struct {
	mu       sync.Mutex
	category Category
	total    int
	last     int
	report   ProgressFunc
}

func newCategoryProgress(category Category, total int, report ProgressFunc) *categoryProgress {
	return &categoryProgress{category: category, total: total, last: -1, report: report}
}

// file records progress of the index-th file, fileProgress in [0,100]
func (p *categoryProgress) file(index int, fileProgress float64) {
	if p.total == 0 {
		return
	}
	p.emit(int((float64(index)*100 + fileProgress) / float64(p.total)))
}

func (p *categoryProgress) done() {
	p.emit(100)
}

func (p *categoryProgress) emit(percent int) {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if percent <= p.last {
		return
	}
	p.last = percent
	if p.report != nil {
		p.report(p.category, percent)
	}
}

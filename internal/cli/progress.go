package cli

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"
	"github.com/richxcame/fleet/internal/documents"
	"github.com/richxcame/fleet/internal/vehicle"
)

// consoleProgress prints one line per progress step of each category
type consoleProgress struct {
	mu       sync.Mutex
	out      io.Writer
	progress vehicle.UploadProgress
}

func newConsoleProgress(out io.Writer) *consoleProgress {
	return &consoleProgress{out: out, progress: vehicle.UploadProgress{}}
}

func (p *consoleProgress) Set(_ context.Context, _ uuid.UUID, category documents.Category, percent int) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if last, ok := p.progress[category]; ok && last == percent {
		return nil
	}
	p.progress[category] = percent
	_, err := fmt.Fprintf(p.out, "%-10s %3d%%\n", category, percent)
	return err
}

func (p *consoleProgress) Get(context.Context, uuid.UUID) (vehicle.UploadProgress, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make(vehicle.UploadProgress, len(p.progress))
	for k, v := range p.progress {
		out[k] = v
	}
	return out, nil
}

func (p *consoleProgress) Clear(context.Context, uuid.UUID) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.progress = vehicle.UploadProgress{}
	return nil
}

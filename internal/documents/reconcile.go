package documents

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/richxcame/fleet/pkg/logger"
	"github.com/richxcame/fleet/pkg/tracing"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	tracerName     = "fleet/documents"
	cleanupTimeout = 30 * time.Second
)

// Request describes one reconciliation of a record's documents
type Request struct {
	RecordID  uuid.UUID
	Current   map[Category]Paths
	Staged    StagedSet
	Deletions DeletionSet
	// OnProgress may be called from several goroutines
	OnProgress ProgressFunc
}

// Result holds the finalized document lists
type Result struct {
	// Documents has an entry for every category in Categories
	Documents      map[Category]Paths
	Uploaded       map[Category]Paths
	DeletionErrors []*DeletionError
}

// Columns maps each category column to its finalized paths
func (r *Result) Columns() map[string]any {
	fields := make(map[string]any, len(r.Documents))
	for category, paths := range r.Documents {
		fields[category.Column()] = paths
	}
	return fields
}

// UploadedCount counts objects written to the store
func (r *Result) UploadedCount() int {
	n := 0
	for _, paths := range r.Uploaded {
		n += len(paths)
	}
	return n
}

// Reconciler uploads staged files, deletes marked ones and merges reference lists
type Reconciler struct {
	store ObjectStore
	now   func() time.Time
}

// Option configures a Reconciler
type Option func(*Reconciler)

// WithClock overrides the time source used in object keys
func WithClock(now func() time.Time) Option {
	return func(r *Reconciler) {
		r.now = now
	}
}

// NewReconciler creates a reconciler writing to store
func NewReconciler(store ObjectStore, opts ...Option) *Reconciler {
	r := &Reconciler{store: store, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Reconcile uploads every staged file, then attempts every marked deletion,
// then returns each category as (existing ++ uploaded) - deleted.
// An upload failure aborts the batch and no result is produced; deletion
// failures are collected in the result.
func (r *Reconciler) Reconcile(ctx context.Context, req *Request) (*Result, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	ctx, span := tracing.StartSpan(ctx, tracerName, "documents.Reconcile")
	defer span.End()
	span.SetAttributes(
		attribute.String("vehicle.id", req.RecordID.String()),
		attribute.Int("documents.staged", req.Staged.PendingFiles()),
		attribute.Int("documents.marked_for_deletion", req.Deletions.Len()),
	)

	start := time.Now()
	uploaded, err := r.uploadAll(ctx, req)
	if err != nil {
		tracing.RecordError(ctx, err)
		reconcileDuration.WithLabelValues(resultFailure).Observe(time.Since(start).Seconds())
		return nil, err
	}
	tracing.AddSpanEvent(ctx, "documents.uploaded")

	deletionErrs := r.deleteAll(ctx, req.Deletions)

	result := &Result{
		Documents:      merge(req, uploaded),
		Uploaded:       uploaded,
		DeletionErrors: deletionErrs,
	}
	span.SetAttributes(
		attribute.Int("documents.uploaded", result.UploadedCount()),
		attribute.Int("documents.deletion_errors", len(deletionErrs)),
	)
	reconcileDuration.WithLabelValues(resultSuccess).Observe(time.Since(start).Seconds())

	return result, nil
}

func (req *Request) validate() error {
	if req.RecordID == uuid.Nil {
		return fmt.Errorf("reconcile: record id is required")
	}
	for category := range req.Staged {
		if !category.Valid() {
			return fmt.Errorf("reconcile: %w: %q", ErrUnknownCategory, category)
		}
	}
	for category := range req.Deletions {
		if !category.Valid() {
			return fmt.Errorf("reconcile: %w: %q", ErrUnknownCategory, category)
		}
	}
	return nil
}

func (r *Reconciler) uploadAll(ctx context.Context, req *Request) (map[Category]Paths, error) {
	var (
		mu       sync.Mutex
		uploaded = make(map[Category]Paths)
	)

	g, gctx := errgroup.WithContext(ctx)
	for _, category := range Categories {
		staged := req.Staged[category]
		if staged == nil || len(staged.Files) == 0 {
			continue
		}

		g.Go(func() error {
			keys, err := r.uploadCategory(gctx, req, category, staged.Files)
			if len(keys) > 0 {
				mu.Lock()
				uploaded[category] = keys
				mu.Unlock()
			}
			return err
		})
	}

	if err := g.Wait(); err != nil {
		r.discard(ctx, uploaded)
		return nil, err
	}
	return uploaded, nil
}

// uploadCategory uploads files one at a time; the keys written before a
// failure are returned alongside the error.
func (r *Reconciler) uploadCategory(ctx context.Context, req *Request, category Category, files []File) (Paths, error) {
	progress := newCategoryProgress(category, len(files), req.OnProgress)
	progress.file(0, 0)

	keys := make(Paths, 0, len(files))
	for i, f := range files {
		if err := ctx.Err(); err != nil {
			return keys, &UploadError{Category: category, File: f.Name, Err: err}
		}

		key, err := r.uploadFile(ctx, req.RecordID, category, i, f, progress)
		if err != nil {
			uploadsTotal.WithLabelValues(category.String(), resultFailure).Inc()
			logger.WarnContext(ctx, "document upload failed",
				zap.String("category", category.String()),
				zap.String("file", f.Name),
				zap.Error(err),
			)
			return keys, &UploadError{Category: category, File: f.Name, Err: err}
		}

		uploadsTotal.WithLabelValues(category.String(), resultSuccess).Inc()
		uploadBytes.WithLabelValues(category.String()).Observe(float64(f.Size))
		keys = append(keys, key)
		progress.file(i, 100)
	}

	progress.done()
	return keys, nil
}

func (r *Reconciler) uploadFile(ctx context.Context, recordID uuid.UUID, category Category, index int, f File, progress *categoryProgress) (string, error) {
	if f.Open == nil {
		return "", fmt.Errorf("no content")
	}
	body, err := f.Open()
	if err != nil {
		return "", fmt.Errorf("open: %w", err)
	}
	defer body.Close()

	key := ObjectKey(recordID, category, r.now(), index, f.Name)
	return r.store.Upload(ctx, key, body, f.Size, f.ContentType, func(percent float64) {
		progress.file(index, percent)
	})
}

// discard removes objects written by a batch that failed
func (r *Reconciler) discard(ctx context.Context, uploaded map[Category]Paths) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
	defer cancel()

	for _, category := range Categories {
		for _, key := range uploaded[category] {
			if err := r.store.Delete(ctx, key); err != nil {
				logger.WarnContext(ctx, "failed to discard orphaned upload",
					zap.String("category", category.String()),
					zap.String("key", key),
					zap.Error(err),
				)
			}
		}
	}
}

// deleteAll attempts every marked path; it never fails
func (r *Reconciler) deleteAll(ctx context.Context, deletions DeletionSet) []*DeletionError {
	perCategory := make([][]*DeletionError, len(Categories))

	var g errgroup.Group
	for i, category := range Categories {
		paths := deletions[category]
		if len(paths) == 0 {
			continue
		}

		g.Go(func() error {
			for _, path := range paths {
				if err := r.store.Delete(ctx, path); err != nil {
					deletionsTotal.WithLabelValues(category.String(), resultFailure).Inc()
					logger.WarnContext(ctx, "document deletion failed",
						zap.String("category", category.String()),
						zap.String("path", path),
						zap.Error(err),
					)
					perCategory[i] = append(perCategory[i], &DeletionError{Category: category, Path: path, Err: err})
					continue
				}
				deletionsTotal.WithLabelValues(category.String(), resultSuccess).Inc()
			}
			return nil
		})
	}
	_ = g.Wait()

	var errs []*DeletionError
	for _, categoryErrs := range perCategory {
		errs = append(errs, categoryErrs...)
	}
	return errs
}

func merge(req *Request, uploaded map[Category]Paths) map[Category]Paths {
	docs := make(map[Category]Paths, len(Categories))
	for _, category := range Categories {
		base := req.Current[category]
		if staged := req.Staged[category]; staged != nil && staged.Existing != nil {
			base = staged.Existing
		}

		list := append(Normalize(base), uploaded[category]...)
		docs[category] = list.Without(req.Deletions[category])
	}
	return docs
}

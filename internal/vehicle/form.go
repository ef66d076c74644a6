package vehicle

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/richxcame/fleet/internal/documents"
)

// Form is the single state container for editing one vehicle: its scalar
// details, the files staged per category and the paths marked for removal.
// It is safe for concurrent use.
type Form struct {
	mu         sync.Mutex
	record     Vehicle
	details    Details
	detailsRev uint64
	staged     documents.StagedSet
	deletions  documents.DeletionSet
}

// FormSnapshot is an immutable copy of a form's state
type FormSnapshot struct {
	Record    Vehicle
	Details   Details
	Current   map[documents.Category]documents.Paths
	Staged    documents.StagedSet
	Deletions documents.DeletionSet

	detailsRev uint64
}

// NewForm opens a form seeded with the record's details and documents
func NewForm(v *Vehicle) *Form {
	f := &Form{record: *v}
	f.record.Documents = copyDocuments(v.Documents)
	f.details = v.Details()
	f.reset()
	return f
}

// VehicleID returns the record the form edits
func (f *Form) VehicleID() uuid.UUID {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.record.ID
}

// Details returns the form's current details
func (f *Form) Details() Details {
	f.mu.Lock()
	defer f.mu.Unlock()
	d := f.details
	d.Tags = append([]string{}, f.details.Tags...)
	return d
}

// SetDetails replaces the form's scalar details
func (f *Form) SetDetails(d Details) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d.Tags = append([]string{}, d.Tags...)
	f.details = d
	f.detailsRev++
}

// Stage queues files for upload under category. The category's existing
// paths are captured the first time it is staged.
func (f *Form) Stage(category documents.Category, files ...documents.File) error {
	if !category.Valid() {
		return fmt.Errorf("stage: %w: %q", documents.ErrUnknownCategory, category)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	staged, ok := f.staged[category]
	if !ok {
		staged = &documents.Staged{
			Existing: append(documents.Paths{}, f.record.Documents[category]...),
		}
		f.staged[category] = staged
	}
	staged.Files = append(staged.Files, files...)
	return nil
}

// MarkForDeletion marks an attached path for removal on submit.
// Only paths currently attached to the category may be marked.
func (f *Form) MarkForDeletion(category documents.Category, path string) error {
	if !category.Valid() {
		return fmt.Errorf("mark for deletion: %w: %q", documents.ErrUnknownCategory, category)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.record.Documents[category].Contains(path) {
		return fmt.Errorf("%s is not attached to %s", path, category)
	}
	if f.deletions[category].Contains(path) {
		return nil
	}
	f.deletions[category] = append(f.deletions[category], path)
	return nil
}

// PendingFiles counts files staged but not yet uploaded
func (f *Form) PendingFiles() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.staged.PendingFiles()
}

// Snapshot copies the form state for a submission
func (f *Form) Snapshot() FormSnapshot {
	f.mu.Lock()
	defer f.mu.Unlock()

	snap := FormSnapshot{
		Record:    f.record,
		Details:   f.details,
		Current:   copyDocuments(f.record.Documents),
		Staged:    make(documents.StagedSet, len(f.staged)),
		Deletions: make(documents.DeletionSet, len(f.deletions)),

		detailsRev: f.detailsRev,
	}
	snap.Record.Documents = snap.Current
	snap.Details.Tags = append([]string{}, f.details.Tags...)
	for category, staged := range f.staged {
		snap.Staged[category] = &documents.Staged{
			Files:    append([]documents.File(nil), staged.Files...),
			Existing: append(documents.Paths{}, staged.Existing...),
		}
	}
	for category, paths := range f.deletions {
		snap.Deletions[category] = append(documents.Paths{}, paths...)
	}
	return snap
}

// Clear rebases the form on the saved record and drops what the consumed
// snapshot submitted. Files staged, deletions marked and details set after
// that snapshot was taken stay pending for the next submission.
func (f *Form) Clear(saved *Vehicle, consumed FormSnapshot) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.record = *saved
	f.record.Documents = copyDocuments(saved.Documents)
	if f.detailsRev == consumed.detailsRev {
		f.details = saved.Details()
	}

	// staging only appends, so the consumed files are a prefix
	staged := documents.StagedSet{}
	for category, st := range f.staged {
		done := 0
		if c := consumed.Staged[category]; c != nil {
			done = len(c.Files)
		}
		if len(st.Files) <= done {
			continue
		}
		staged[category] = &documents.Staged{
			Files:    append([]documents.File(nil), st.Files[done:]...),
			Existing: append(documents.Paths{}, f.record.Documents[category]...),
		}
	}

	deletions := documents.DeletionSet{}
	for category, paths := range f.deletions {
		for _, path := range paths {
			if consumed.Deletions[category].Contains(path) || !f.record.Documents[category].Contains(path) {
				continue
			}
			deletions[category] = append(deletions[category], path)
		}
	}
	f.staged = staged
	f.deletions = deletions
}

func (f *Form) reset() {
	f.staged = documents.StagedSet{}
	f.deletions = documents.DeletionSet{}
}

// copyDocuments returns a normalized copy with an entry for every category
func copyDocuments(docs map[documents.Category]documents.Paths) map[documents.Category]documents.Paths {
	out := make(map[documents.Category]documents.Paths, len(documents.Categories))
	for _, category := range documents.Categories {
		out[category] = documents.Normalize(docs[category])
	}
	return out
}

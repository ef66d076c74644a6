package documents

import (
	"io"
)

// File is a locally selected document that has not been uploaded yet
type File struct {
	Name        string
	ContentType string
	Size        int64
	// Open returns a fresh reader over the file contents
	Open func() (io.ReadCloser, error)
}

// Staged holds a category's pending files and the paths it already had
type Staged struct {
	Files    []File
	Existing Paths
}

// StagedSet maps categories to their staged documents
type StagedSet map[Category]*Staged

// DeletionSet maps categories to paths marked for removal
type DeletionSet map[Category]Paths

// PendingFiles counts files waiting to be uploaded
func (s StagedSet) PendingFiles() int {
	n := 0
	for _, staged := range s {
		if staged != nil {
			n += len(staged.Files)
		}
	}
	return n
}

// Len counts paths marked for removal
func (d DeletionSet) Len() int {
	n := 0
	for _, paths := range d {
		n += len(paths)
	}
	return n
}

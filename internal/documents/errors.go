package documents

import (
	"errors"
	"fmt"
)

// ErrUnknownCategory is returned for category names outside Categories
var ErrUnknownCategory = errors.New("unknown document category")

// UploadError aborts a reconciliation. Nothing may be persisted after it.
type UploadError struct {
	Category Category
	File     string
	Err      error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload %s document %q: %v", e.Category, e.File, e.Err)
}

func (e *UploadError) Unwrap() error {
	return e.Err
}

// DeletionError records a path that could not be removed from the store.
// It never aborts a reconciliation.
type DeletionError struct {
	Category Category `json:"category"`
	Path     string   `json:"path"`
	Err      error    `json:"-"`
}

func (e *DeletionError) Error() string {
	return fmt.Sprintf("delete %s document %q: %v", e.Category, e.Path, e.Err)
}

func (e *DeletionError) Unwrap() error {
	return e.Err
}

package validation

import (
	"fmt"
	"strings"
)

// UploadRules bounds the files a single submission may stage
type UploadRules struct {
	MaxFileSize         int64
	MaxFilesPerCategory int
	AllowedContentTypes []string
}

// UploadCandidate describes a staged file without its body
type UploadCandidate struct {
	Name        string
	ContentType string
	Size        int64
}

// ValidateUploads checks the files staged under field against the rules
func ValidateUploads(field string, files []UploadCandidate, rules UploadRules) *ValidationError {
	ve := &ValidationError{}

	if rules.MaxFilesPerCategory > 0 && len(files) > rules.MaxFilesPerCategory {
		ve.AddError(field, fmt.Sprintf("at most %d files may be attached", rules.MaxFilesPerCategory))
	}

	for _, f := range files {
		switch {
		case strings.TrimSpace(f.Name) == "":
			ve.AddError(field, "file name is required")
		case f.Size <= 0:
			ve.AddError(field, fmt.Sprintf("%s is empty", f.Name))
		case rules.MaxFileSize > 0 && f.Size > rules.MaxFileSize:
			ve.AddError(field, fmt.Sprintf("%s exceeds the %d MB limit", f.Name, rules.MaxFileSize>>20))
		case len(rules.AllowedContentTypes) > 0 && !contentTypeAllowed(rules.AllowedContentTypes, f.ContentType):
			ve.AddError(field, fmt.Sprintf("%s has unsupported type %q", f.Name, f.ContentType))
		}
	}

	if !ve.HasErrors() {
		return nil
	}
	return ve
}

func contentTypeAllowed(allowed []string, contentType string) bool {
	// strip parameters such as "; charset=binary"
	contentType = strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
	for _, a := range allowed {
		if strings.EqualFold(a, contentType) {
			return true
		}
	}
	return false
}

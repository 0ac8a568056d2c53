// Package validation provides input validation for names taken from request paths.
package validation

import (
	"errors"
	"fmt"
	"strings"
)

// BackupExtension is the suffix every backup filename must carry.
const BackupExtension = ".json"

// ErrInvalidName is matched by every error returned from this package.
var ErrInvalidName = errors.New("invalid name")

// InvalidNameError describes a rejected installation name or filename.
type InvalidNameError struct {
	Kind      string
	Candidate string
	Reason    string
}

func (e *InvalidNameError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Kind, e.Candidate, e.Reason)
}

// Is reports whether target is ErrInvalidName.
func (e *InvalidNameError) Is(target error) bool {
	return target == ErrInvalidName
}

// ValidateName checks a single path segment such as an installation name.
// Empty strings and anything containing "/", "\" or ".." are rejected.
func ValidateName(candidate string) error {
	return validateSegment("installation name", candidate)
}

// ValidateFilename applies ValidateName and additionally requires the backup extension.
func ValidateFilename(candidate string) error {
	if err := validateSegment("filename", candidate); err != nil {
		return err
	}
	if !strings.HasSuffix(candidate, BackupExtension) {
		return &InvalidNameError{Kind: "filename", Candidate: candidate, Reason: "only " + BackupExtension + " files are allowed"}
	}
	return nil
}

// IsBackupFilename reports whether name would pass ValidateFilename.
func IsBackupFilename(name string) bool {
	return ValidateFilename(name) == nil
}

func validateSegment(kind, candidate string) error {
	switch {
	case candidate == "":
		return &InvalidNameError{Kind: kind, Candidate: candidate, Reason: "must not be empty"}
	case strings.Contains(candidate, ".."):
		return &InvalidNameError{Kind: kind, Candidate: candidate, Reason: "must not contain \"..\""}
	case strings.ContainsAny(candidate, `/\`):
		return &InvalidNameError{Kind: kind, Candidate: candidate, Reason: "must not contain path separators"}
	}
	return nil
}

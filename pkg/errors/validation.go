package errors

import "strings"

// ValidatePath validates an output path supplied on the command line.
// Absolute paths are allowed here (unlike a repository path) but the path
// must not be empty, contain null bytes, or end in a separator.
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}
	if strings.ContainsRune(path, '\x00') {
		return New(ErrCodeInvalidPath, "path contains invalid characters")
	}
	if strings.HasSuffix(path, "/") || strings.HasSuffix(path, "\\") {
		return New(ErrCodeInvalidPath, "path must name a file, not a directory: %q", path)
	}
	return nil
}

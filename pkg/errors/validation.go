package errors

import (
	"path/filepath"
	"strings"
	"unicode"
)

// ValidateIncludePath validates the path named by an include directive.
// Include paths are joined to each search directory in turn, so they may
// climb out of it with "..", as in "../shared/base.json".
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No absolute paths (must be relative)
//   - No backslashes (Windows-style paths)
func ValidateIncludePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "include path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "include path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "include path contains invalid characters")
		}
	}

	if strings.HasPrefix(path, "/") {
		return New(ErrCodeInvalidPath, "include path must be relative (cannot start with /)")
	}

	if strings.Contains(path, "\\") {
		return New(ErrCodeInvalidPath, "include path cannot contain backslashes")
	}

	return nil
}

// ValidateLocalIncludePath applies ValidateIncludePath and additionally
// rejects paths that leave the search directory. Servers resolving layouts
// from untrusted clients use it.
func ValidateLocalIncludePath(path string) error {
	if err := ValidateIncludePath(path); err != nil {
		return err
	}
	if !filepath.IsLocal(path) {
		return New(ErrCodeInvalidPath, "include path cannot leave the search directory: %q", path)
	}
	return nil
}

// ValidateFilename validates a resolved output filename. It must be a single
// path element that is safe to create inside the output directory.
func ValidateFilename(name string) error {
	if name == "" {
		return New(ErrCodeInvalidFilename, "filename cannot be empty")
	}

	const maxNameLength = 255
	if len(name) > maxNameLength {
		return New(ErrCodeInvalidFilename, "filename too long (max %d characters)", maxNameLength)
	}

	if strings.ContainsAny(name, "/\\") {
		return New(ErrCodeInvalidFilename, "filename cannot contain path separators")
	}

	if name == "." || name == ".." {
		return New(ErrCodeInvalidFilename, "filename cannot be %q", name)
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidFilename, "filename contains invalid control characters")
		}
	}

	return nil
}

package paths

import (
	"path/filepath"
	"strings"

	"github.com/arthur-debert/danny/pkg/errors"
)

// ValidatePath rejects empty paths, null bytes and overly long paths
func ValidatePath(path string) error {
	if path == "" {
		return errors.New(errors.ErrInvalidInput, "path cannot be empty")
	}
	if strings.Contains(path, "\x00") {
		return errors.New(errors.ErrInvalidInput, "path contains null bytes")
	}
	if len(path) > 4096 {
		return errors.New(errors.ErrInvalidInput, "path exceeds maximum length")
	}
	return nil
}

// SanitizePath expands ~ and cleans the path
func SanitizePath(path string) string {
	cleaned := filepath.Clean(ExpandHome(path))
	if cleaned == "" {
		return "."
	}
	return cleaned
}

// ContainsPath reports whether child is parent or lies below it.
// The check is lexical; symlinks are not resolved.
func ContainsPath(parent, child string) bool {
	rel, err := filepath.Rel(SanitizePath(parent), SanitizePath(child))
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// Resolve joins a relative path onto base and verifies the result stays
// inside base. Absolute paths are only verified.
func Resolve(base, path string) (string, error) {
	if err := ValidatePath(path); err != nil {
		return "", err
	}
	target := path
	if !filepath.IsAbs(target) {
		target = filepath.Join(base, target)
	}
	target = SanitizePath(target)
	if !ContainsPath(base, target) {
		return "", errors.Newf(errors.ErrPathEscape, "path %s escapes %s", path, base).
			WithDetail(errors.DetailPath, path)
	}
	return target, nil
}

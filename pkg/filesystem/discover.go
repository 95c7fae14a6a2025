package filesystem

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"

	"github.com/arthur-debert/danny/pkg/errors"
	"github.com/arthur-debert/danny/pkg/logging"
	"github.com/arthur-debert/danny/pkg/paths"
)

// DiscoverOptions bounds a directory walk. Symlinks are never followed.
type DiscoverOptions struct {
	// Extensions without the leading dot. Empty accepts every file.
	Extensions []string

	// MaxFileSize fails the walk when a matching file is larger. Zero disables the check.
	MaxFileSize int64

	// MaxDepth limits how far below dir entries are visited. Files directly in dir are depth 1.
	MaxDepth int

	IncludeHidden bool

	// ExcludeDirs are directory names never descended into
	ExcludeDirs []string
}

// Discover returns the absolute paths of regular files under dir that match
// opts, sorted. A missing dir yields no files.
func (r *rootedFS) Discover(dir string, opts DiscoverOptions) ([]string, error) {
	logger := logging.GetLogger("filesystem.discover")

	absDir, err := r.Normalize(dir)
	if err != nil {
		return nil, err
	}
	info, err := r.lstat(absDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, errors.ErrIO, "failed to stat %s", absDir)
	}
	if !info.IsDir() {
		return nil, errors.Newf(errors.ErrIO, "%s is not a directory", absDir).WithDetail(errors.DetailPath, absDir)
	}

	var found []string
	var walk func(current string, depth int) error
	walk = func(current string, depth int) error {
		entries, err := afero.ReadDir(r.fs, current)
		if err != nil {
			return errors.Wrapf(err, errors.ErrIO, "failed to read directory %s", current).
				WithDetail(errors.DetailPath, current)
		}
		for _, entry := range entries {
			name := entry.Name()
			if !opts.IncludeHidden && strings.HasPrefix(name, ".") {
				continue
			}
			full := filepath.Join(current, name)
			if !paths.ContainsPath(absDir, full) {
				logger.Warn().Str("path", full).Msg("Skipping path outside discovery root")
				continue
			}

			mode := entry.Mode()
			switch {
			case mode&os.ModeSymlink != 0:
				logger.Debug().Str("path", full).Msg("Skipping symlink")
			case entry.IsDir():
				if containsName(opts.ExcludeDirs, name) {
					continue
				}
				if opts.MaxDepth > 0 && depth+2 > opts.MaxDepth {
					logger.Debug().Str("path", full).Int("max_depth", opts.MaxDepth).Msg("Skipping directory beyond max depth")
					continue
				}
				if err := walk(full, depth+1); err != nil {
					return err
				}
			case mode.IsRegular():
				if !hasExtension(name, opts.Extensions) {
					continue
				}
				if opts.MaxFileSize > 0 && entry.Size() > opts.MaxFileSize {
					return tooBig(full, entry.Size(), opts.MaxFileSize)
				}
				found = append(found, full)
			}
		}
		return nil
	}

	if err := walk(absDir, 0); err != nil {
		return nil, err
	}
	sort.Strings(found)
	return found, nil
}

func hasExtension(name string, exts []string) bool {
	if len(exts) == 0 {
		return true
	}
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	for _, e := range exts {
		if ext == strings.ToLower(strings.TrimPrefix(e, ".")) {
			return true
		}
	}
	return false
}

func containsName(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}

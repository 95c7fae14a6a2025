package filesystem

import (
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/arthur-debert/danny/pkg/errors"
	"github.com/arthur-debert/danny/pkg/paths"
)

// FS is the filesystem contract used by the loader and content matching
type FS interface {
	// Root is the absolute directory all paths are confined to
	Root() string

	// Normalize returns the absolute, cleaned form of path and fails with
	// ErrPathEscape when it lies outside Root
	Normalize(path string) (string, error)

	Exists(path string) bool

	// Metadata does not follow symlinks when the backend supports lstat
	Metadata(path string) (os.FileInfo, error)

	ReadFile(path string) ([]byte, error)

	// ReadFileLimited fails with ErrFileTooBig instead of truncating
	ReadFileLimited(path string, maxSize int64) ([]byte, error)

	Discover(dir string, opts DiscoverOptions) ([]string, error)

	// IsNative reports whether the FS is the resolved OS filesystem
	IsNative() bool
}

type rootedFS struct {
	fs   afero.Fs
	root string
	// realRoot is root with symlinks resolved; only set for native FS
	realRoot string
	native   bool
}

// NewOS returns an FS over the OS filesystem confined to root
func NewOS(root string) (FS, error) {
	abs, err := filepath.Abs(paths.SanitizePath(root))
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrIO, "failed to resolve root %s", root)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		// A root that does not exist yet holds nothing to escape through
		resolved = abs
	}
	return &rootedFS{fs: afero.NewOsFs(), root: abs, realRoot: resolved, native: true}, nil
}

// NewMemory returns an empty in-memory FS rooted at root
func NewMemory(root string) *MemoryFS {
	mem := afero.NewMemMapFs()
	clean := filepath.Clean(root)
	_ = mem.MkdirAll(clean, 0o755)
	return &MemoryFS{rootedFS: rootedFS{fs: mem, root: clean}}
}

// NewAfero wraps an arbitrary afero filesystem
func NewAfero(fs afero.Fs, root string) FS {
	return &rootedFS{fs: fs, root: filepath.Clean(root)}
}

// MemoryFS is an in-memory FS that can be populated
type MemoryFS struct {
	rootedFS
}

// WriteFile writes data at path, creating parent directories.
// Relative paths are relative to the root.
func (m *MemoryFS) WriteFile(path string, data []byte) error {
	abs, err := m.Normalize(path)
	if err != nil {
		return err
	}
	if err := m.fs.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return errors.Wrapf(err, errors.ErrIO, "failed to create directory for %s", abs)
	}
	return afero.WriteFile(m.fs, abs, data, 0o644)
}

func (r *rootedFS) Root() string { return r.root }

func (r *rootedFS) IsNative() bool { return r.native }

func (r *rootedFS) Normalize(path string) (string, error) {
	abs, err := paths.Resolve(r.root, path)
	if err != nil {
		return "", err
	}
	if _, err := r.confine(abs); err != nil {
		return "", err
	}
	return abs, nil
}

// confine resolves symlinks in abs and fails with ErrPathEscape when the
// resolved location is outside the resolved root. Missing trailing components are
// resolved through their nearest existing ancestor.
func (r *rootedFS) confine(abs string) (string, error) {
	if !r.native {
		return abs, nil
	}
	resolved, err := resolveExisting(abs)
	if err != nil {
		return "", errors.Wrapf(err, errors.ErrIO, "failed to resolve %s", abs).WithDetail(errors.DetailPath, abs)
	}
	if !paths.ContainsPath(r.realRoot, resolved) {
		return "", errors.Newf(errors.ErrPathEscape, "%s resolves outside %s", abs, r.root).
			WithDetail(errors.DetailPath, abs)
	}
	return resolved, nil
}

func resolveExisting(abs string) (string, error) {
	p, rest := abs, ""
	for {
		resolved, err := filepath.EvalSymlinks(p)
		if err == nil {
			return filepath.Join(resolved, rest), nil
		}
		if !os.IsNotExist(err) {
			return "", err
		}
		parent := filepath.Dir(p)
		if parent == p {
			return abs, nil
		}
		rest = filepath.Join(filepath.Base(p), rest)
		p = parent
	}
}

func (r *rootedFS) Exists(path string) bool {
	abs, err := r.Normalize(path)
	if err != nil {
		return false
	}
	_, err = r.lstat(abs)
	return err == nil
}

func (r *rootedFS) Metadata(path string) (os.FileInfo, error) {
	abs, err := r.Normalize(path)
	if err != nil {
		return nil, err
	}
	info, err := r.lstat(abs)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrIO, "failed to stat %s", abs).WithDetail(errors.DetailPath, abs)
	}
	return info, nil
}

func (r *rootedFS) ReadFile(path string) ([]byte, error) {
	abs, err := r.Normalize(path)
	if err != nil {
		return nil, err
	}
	data, err := afero.ReadFile(r.fs, abs)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrIO, "failed to read %s", abs).WithDetail(errors.DetailPath, abs)
	}
	return data, nil
}

func (r *rootedFS) ReadFileLimited(path string, maxSize int64) ([]byte, error) {
	info, err := r.Metadata(path)
	if err != nil {
		return nil, err
	}
	abs, _ := r.Normalize(path)
	if info.IsDir() {
		return nil, errors.Newf(errors.ErrIO, "%s is a directory", abs).WithDetail(errors.DetailPath, abs)
	}
	if info.Size() > maxSize {
		return nil, tooBig(abs, info.Size(), maxSize)
	}

	// Open the resolved location so a link swapped after the check is not followed
	resolved, err := r.confine(abs)
	if err != nil {
		return nil, err
	}
	f, err := r.fs.Open(resolved)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrIO, "failed to open %s", abs).WithDetail(errors.DetailPath, abs)
	}
	defer func() { _ = f.Close() }()

	// The file may grow between stat and read
	data, err := io.ReadAll(io.LimitReader(f, maxSize+1))
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrIO, "failed to read %s", abs).WithDetail(errors.DetailPath, abs)
	}
	if int64(len(data)) > maxSize {
		return nil, tooBig(abs, int64(len(data)), maxSize)
	}
	return data, nil
}

func (r *rootedFS) lstat(abs string) (os.FileInfo, error) {
	if lst, ok := r.fs.(afero.Lstater); ok {
		info, _, err := lst.LstatIfPossible(abs)
		return info, err
	}
	return r.fs.Stat(abs)
}

func tooBig(path string, size, limit int64) error {
	return errors.Newf(errors.ErrFileTooBig, "%s is %d bytes, limit is %d", path, size, limit).
		WithDetail(errors.DetailPath, path).
		WithDetail(errors.DetailValue, size).
		WithDetail(errors.DetailLimit, limit)
}

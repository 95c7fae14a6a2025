package matchers

import (
	"os"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/arthur-debert/danny/pkg/constants"
	"github.com/arthur-debert/danny/pkg/errors"
	"github.com/arthur-debert/danny/pkg/filesystem"
)

// ContentSource reads module files for content_pattern conditions.
// Implementations must refuse files larger than their limit instead of
// truncating them.
type ContentSource interface {
	ReadContent(path string) ([]byte, error)
}

// OSContentSource reads files directly from the OS without a root
type OSContentSource struct {
	MaxSize int64
}

// NewOSContentSource returns a source limited to constants.MaxContentSize
func NewOSContentSource() *OSContentSource {
	return &OSContentSource{MaxSize: constants.MaxContentSize}
}

// ReadContent stats before reading so oversized files are never loaded
func (s *OSContentSource) ReadContent(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrIO, "failed to stat %s", path)
	}
	if info.Size() > s.MaxSize {
		return nil, errors.Newf(errors.ErrFileTooBig, "%s exceeds %d bytes", path, s.MaxSize).
			WithDetail(errors.DetailPath, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrIO, "failed to read %s", path)
	}
	return data, nil
}

type fsContentSource struct {
	fs      filesystem.FS
	maxSize int64
}

// NewFSContentSource reads through a rooted filesystem. Paths outside the
// root fail like unreadable files.
func NewFSContentSource(fs filesystem.FS, maxSize int64) ContentSource {
	return &fsContentSource{fs: fs, maxSize: maxSize}
}

func (s *fsContentSource) ReadContent(path string) ([]byte, error) {
	return s.fs.ReadFileLimited(path, s.maxSize)
}

type contentEntry struct {
	data []byte
	err  error
}

// CachedContentSource memoizes reads of another source, including failures.
// Several rules with content patterns on the same module then cost one read.
type CachedContentSource struct {
	src   ContentSource
	cache *lru.Cache[string, contentEntry]
	mu    sync.Mutex
	hits  int
	reads int
}

// NewCachedContentSource wraps src with an LRU holding up to entries files
func NewCachedContentSource(src ContentSource, entries int) (*CachedContentSource, error) {
	if entries <= 0 {
		entries = constants.DefaultContentCacheEntries
	}
	cache, err := lru.New[string, contentEntry](entries)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrInternal, "failed to create content cache")
	}
	return &CachedContentSource{src: src, cache: cache}, nil
}

func (c *CachedContentSource) ReadContent(path string) ([]byte, error) {
	if entry, ok := c.cache.Get(path); ok {
		c.mu.Lock()
		c.hits++
		c.mu.Unlock()
		return entry.data, entry.err
	}
	data, err := c.src.ReadContent(path)
	c.cache.Add(path, contentEntry{data: data, err: err})
	c.mu.Lock()
	c.reads++
	c.mu.Unlock()
	return data, err
}

// Stats returns cache hits and underlying reads
func (c *CachedContentSource) Stats() (hits, reads int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.reads
}

// Purge drops every cached entry
func (c *CachedContentSource) Purge() {
	c.cache.Purge()
}

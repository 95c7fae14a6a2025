package filesystem_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arthur-debert/danny/pkg/errors"
	"github.com/arthur-debert/danny/pkg/filesystem"
	"github.com/arthur-debert/danny/pkg/testutil"
)

func TestMemoryNormalizeRejectsEscape(t *testing.T) {
	fs := filesystem.NewMemory("/project")

	got, err := fs.Normalize("src/app.ts")
	require.NoError(t, err)
	assert.Equal(t, "/project/src/app.ts", got)

	_, err = fs.Normalize("../secrets.toml")
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrPathEscape))

	_, err = fs.Normalize("/etc/passwd")
	assert.True(t, errors.IsErrorCode(err, errors.ErrPathEscape))
	assert.False(t, fs.IsNative())
}

func TestMemoryReadFile(t *testing.T) {
	fs := filesystem.NewMemory("/project")
	require.NoError(t, fs.WriteFile("src/a.ts", []byte("export const a = 1")))

	assert.True(t, fs.Exists("src/a.ts"))
	assert.False(t, fs.Exists("src/b.ts"))
	assert.False(t, fs.Exists("../outside"))

	data, err := fs.ReadFile("/project/src/a.ts")
	require.NoError(t, err)
	assert.Equal(t, "export const a = 1", string(data))

	_, err = fs.ReadFile("src/missing.ts")
	assert.True(t, errors.IsErrorCode(err, errors.ErrIO))
}

func TestReadFileLimited(t *testing.T) {
	fs := filesystem.NewMemory("/project")
	require.NoError(t, fs.WriteFile("big.txt", []byte(strings.Repeat("x", 100))))

	data, err := fs.ReadFileLimited("big.txt", 100)
	require.NoError(t, err)
	assert.Len(t, data, 100)

	_, err = fs.ReadFileLimited("big.txt", 99)
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrFileTooBig))
	assert.Equal(t, int64(99), errors.GetErrorDetails(err)[errors.DetailLimit])
}

func TestDiscoverFiltersAndSorts(t *testing.T) {
	fs := filesystem.NewMemory("/project")
	for _, p := range []string{
		".danny/rules/b.toml",
		".danny/rules/a.yaml",
		".danny/rules/notes.md",
		".danny/rules/.hidden.toml",
		".danny/rules/nested/c.yml",
	} {
		require.NoError(t, fs.WriteFile(p, []byte("")))
	}

	files, err := fs.Discover(".danny/rules", filesystem.DiscoverOptions{
		Extensions: []string{"toml", "yaml", "yml"},
		MaxDepth:   10,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"/project/.danny/rules/a.yaml",
		"/project/.danny/rules/b.toml",
		"/project/.danny/rules/nested/c.yml",
	}, files)
}

func TestDiscoverMissingDir(t *testing.T) {
	fs := filesystem.NewMemory("/project")
	files, err := fs.Discover(".danny/rules", filesystem.DiscoverOptions{})
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestDiscoverMaxDepth(t *testing.T) {
	fs := filesystem.NewMemory("/project")
	require.NoError(t, fs.WriteFile("r/a.toml", nil))
	require.NoError(t, fs.WriteFile("r/x/b.toml", nil))
	require.NoError(t, fs.WriteFile("r/x/y/c.toml", nil))

	files, err := fs.Discover("r", filesystem.DiscoverOptions{MaxDepth: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"/project/r/a.toml", "/project/r/x/b.toml"}, files)
}

func TestDiscoverRejectsOversizedFile(t *testing.T) {
	fs := filesystem.NewMemory("/project")
	require.NoError(t, fs.WriteFile("r/huge.toml", []byte(strings.Repeat("#", 64))))

	_, err := fs.Discover("r", filesystem.DiscoverOptions{MaxFileSize: 32})
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrFileTooBig))
}

func TestDiscoverSkipsSymlinksOnOS(t *testing.T) {
	root := t.TempDir()
	outside := t.TempDir()
	rulesDir := filepath.Join(root, "rules")
	require.NoError(t, os.MkdirAll(rulesDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(rulesDir, "real.toml"), nil, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(outside, "evil.toml"), nil, 0o644))
	testutil.CreateSymlink(t, filepath.Join(outside, "evil.toml"), filepath.Join(rulesDir, "link.toml"))
	testutil.CreateSymlink(t, outside, filepath.Join(rulesDir, "linkdir"))

	fs, err := filesystem.NewOS(root)
	require.NoError(t, err)
	assert.True(t, fs.IsNative())

	files, err := fs.Discover("rules", filesystem.DiscoverOptions{MaxDepth: 10})
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(rulesDir, "real.toml")}, files)
}

func TestSymlinkedAncestorOutsideRootRejected(t *testing.T) {
	root := t.TempDir()
	outside := t.TempDir()
	testutil.CreateFile(t, outside, "rules/evil.toml", "x")
	testutil.CreateSymlink(t, outside, filepath.Join(root, ".danny"))

	fs, err := filesystem.NewOS(root)
	require.NoError(t, err)

	_, err = fs.Normalize(".danny/rules/evil.toml")
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrPathEscape))

	_, err = fs.Discover(".danny/rules", filesystem.DiscoverOptions{MaxDepth: 10})
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrPathEscape))

	assert.False(t, fs.Exists(".danny/rules/evil.toml"))

	// Paths that do not exist yet are resolved through their nearest ancestor
	_, err = fs.Normalize(".danny/new/file.toml")
	assert.True(t, errors.IsErrorCode(err, errors.ErrPathEscape))
}

func TestReadFileLimitedFollowsOnlyContainedSymlinks(t *testing.T) {
	root := t.TempDir()
	outside := t.TempDir()
	secret := testutil.CreateFile(t, outside, "secret.txt", "TOKEN")
	inside := testutil.CreateFile(t, root, "src/real.ts", "TOKEN")
	testutil.CreateSymlink(t, secret, filepath.Join(root, "mod.ts"))
	testutil.CreateSymlink(t, inside, filepath.Join(root, "alias.ts"))

	fs, err := filesystem.NewOS(root)
	require.NoError(t, err)

	_, err = fs.ReadFileLimited("mod.ts", 1024)
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrPathEscape))

	_, err = fs.ReadFile("mod.ts")
	assert.True(t, errors.IsErrorCode(err, errors.ErrPathEscape))

	data, err := fs.ReadFileLimited("alias.ts", 1024)
	require.NoError(t, err)
	assert.Equal(t, "TOKEN", string(data))
}

func TestSymlinkedRootIsResolved(t *testing.T) {
	target := t.TempDir()
	testutil.CreateFile(t, target, "a.ts", "a")
	link := filepath.Join(t.TempDir(), "project")
	testutil.CreateSymlink(t, target, link)

	fs, err := filesystem.NewOS(link)
	require.NoError(t, err)

	data, err := fs.ReadFileLimited("a.ts", 1024)
	require.NoError(t, err)
	assert.Equal(t, "a", string(data))
}

func TestDiscoverExcludeDirs(t *testing.T) {
	fs := filesystem.NewMemory("/project")
	require.NoError(t, fs.WriteFile("src/a.ts", []byte("a")))
	require.NoError(t, fs.WriteFile("node_modules/react/index.ts", []byte("r")))

	found, err := fs.Discover(".", filesystem.DiscoverOptions{ExcludeDirs: []string{"node_modules"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"/project/src/a.ts"}, found)
}

package loader_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arthur-debert/danny/pkg/errors"
	"github.com/arthur-debert/danny/pkg/filesystem"
	"github.com/arthur-debert/danny/pkg/loader"
	"github.com/arthur-debert/danny/pkg/rules"
	"github.com/arthur-debert/danny/pkg/testutil"
)

const ruleA = `
[[rules]]
name = "A"
priority = 10

[rules.match]
export_pattern = '^use'

[rules.action]
mark_used = true
`

const ruleB = `
rules:
  - name: B
    priority: 100
    match:
      import_from: react
    action:
      skip: true
`

func memFS(t *testing.T, files map[string]string) *filesystem.MemoryFS {
	t.Helper()
	fs := filesystem.NewMemory("/proj")
	for path, content := range files {
		require.NoError(t, fs.WriteFile(path, []byte(content)))
	}
	return fs
}

func ruleNames(rs []rules.Rule) []string {
	names := make([]string, len(rs))
	for i, r := range rs {
		names[i] = r.Name
	}
	return names
}

func TestLoadAllSortsByPriority(t *testing.T) {
	fs := memFS(t, map[string]string{
		".danny/rules/a.toml":        ruleA,
		".danny/rules/nested/b.yaml": ruleB,
		".danny/rules/notes.md":      "not a rule file",
	})

	rs, err := loader.New(fs, loader.Options{}).LoadAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"B", "A"}, ruleNames(rs))
}

func TestLoadFilesTierOrder(t *testing.T) {
	builtin, err := rules.ParseTOML(`
[[rules]]
name = "builtin"
[rules.match]
[rules.action]
skip = true
`)
	require.NoError(t, err)

	fs := memFS(t, map[string]string{
		"vendor-rules/extra.toml": ruleA,
		".danny/rules/b.yml":      ruleB,
	})

	files, err := loader.New(fs, loader.Options{
		Embedded:   []*rules.File{builtin},
		BuiltinDir: "vendor-rules",
	}).LoadFiles(context.Background())
	require.NoError(t, err)
	require.Len(t, files, 3)

	assert.Equal(t, loader.SourceBuiltin, files[0].Source)
	assert.Equal(t, "builtin", files[0].File.Rules[0].Name)
	assert.Equal(t, loader.SourceBuiltin, files[1].Source)
	assert.Equal(t, "/proj/vendor-rules/extra.toml", files[1].File.Path)
	assert.Equal(t, loader.SourceProject, files[2].Source)
	assert.Equal(t, "b", files[2].File.Name())

	assert.Equal(t, []string{"B", "A", "builtin"}, ruleNames(loader.MergeRules(files)))
	assert.Len(t, loader.Files(files), 3)
}

func TestLongPatternFailsLoad(t *testing.T) {
	fs := memFS(t, map[string]string{
		".danny/rules/bad.toml": `
[[rules]]
name = "too-long"
[rules.match]
export_pattern = '` + strings.Repeat("a", 501) + `'
[rules.action]
mark_used = true
`,
	})

	_, err := loader.New(fs, loader.Options{}).LoadAll(context.Background())
	require.Error(t, err)
	assert.Equal(t, errors.ErrLoad, errors.GetErrorCode(err))
	assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidPattern))

	details := errors.GetErrorDetails(err)
	assert.Equal(t, "/proj/.danny/rules/bad.toml", details[errors.DetailPath])
	assert.Equal(t, "too-long", details[errors.DetailRule])
}

func TestInvalidDetectionFailsLoad(t *testing.T) {
	fs := memFS(t, map[string]string{
		".danny/rules/fw.toml": `
[framework]
name = "Broken"
[[framework.detection]]
type = "import"
pattern = '(unclosed'
`,
	})

	_, err := loader.New(fs, loader.Options{}).LoadAll(context.Background())
	require.Error(t, err)
	assert.Equal(t, errors.ErrLoad, errors.GetErrorCode(err))
	assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidPattern))
}

func TestParseErrorReportsPath(t *testing.T) {
	fs := memFS(t, map[string]string{
		".danny/rules/broken.toml": "[[rules]\nname = ",
	})

	_, err := loader.New(fs, loader.Options{}).LoadAll(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrLoad))
	assert.True(t, errors.IsErrorCode(err, errors.ErrParse))
	assert.Equal(t, "/proj/.danny/rules/broken.toml", errors.GetErrorDetails(err)[errors.DetailPath])
}

func TestOversizedFileFailsLoad(t *testing.T) {
	fs := memFS(t, map[string]string{
		".danny/rules/big.toml": ruleA,
	})

	_, err := loader.New(fs, loader.Options{MaxFileSize: 16}).LoadAll(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrLoad))
	assert.True(t, errors.IsErrorCode(err, errors.ErrFileTooBig))
}

func TestMaxDepth(t *testing.T) {
	fs := memFS(t, map[string]string{
		".danny/rules/a.toml":     ruleA,
		".danny/rules/x/y/b.yaml": ruleB,
	})

	rs, err := loader.New(fs, loader.Options{MaxDepth: 2}).LoadAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, ruleNames(rs))
}

func TestMissingDirectoriesAreEmpty(t *testing.T) {
	fs := filesystem.NewMemory("/proj")
	files, err := loader.New(fs, loader.Options{BuiltinDir: "nope"}).LoadFiles(context.Background())
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestBuiltinDirOutsideRootSkipped(t *testing.T) {
	fs := memFS(t, map[string]string{".danny/rules/a.toml": ruleA})

	rs, err := loader.New(fs, loader.Options{BuiltinDir: "/elsewhere/rules"}).LoadAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, ruleNames(rs))
}

func TestUserDirSkippedOnMemoryFS(t *testing.T) {
	userDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(userDir, "b.yaml"), []byte(ruleB), 0o644))

	fs := memFS(t, map[string]string{".danny/rules/a.toml": ruleA})
	rs, err := loader.New(fs, loader.Options{UserDir: userDir}).LoadAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, ruleNames(rs))
}

func TestUserDirOnOS(t *testing.T) {
	root := t.TempDir()
	userDir := t.TempDir()

	rulesDir := filepath.Join(root, ".danny", "rules")
	require.NoError(t, os.MkdirAll(rulesDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(rulesDir, "a.toml"), []byte(ruleA), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(userDir, "b.yaml"), []byte(ruleB), 0o644))

	fs, err := filesystem.NewOS(root)
	require.NoError(t, err)

	files, err := loader.New(fs, loader.Options{UserDir: userDir}).LoadFiles(context.Background())
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, loader.SourceUser, files[0].Source)
	assert.Equal(t, loader.SourceProject, files[1].Source)
}

func TestSymlinkedRuleFilesIgnored(t *testing.T) {
	root := t.TempDir()
	outside := t.TempDir()

	target := filepath.Join(outside, "evil.toml")
	require.NoError(t, os.WriteFile(target, []byte(ruleA), 0o644))

	rulesDir := filepath.Join(root, ".danny", "rules")
	testutil.CreateSymlink(t, target, filepath.Join(rulesDir, "evil.toml"))

	fs, err := filesystem.NewOS(root)
	require.NoError(t, err)

	files, err := loader.New(fs, loader.Options{}).LoadFiles(context.Background())
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestSymlinkedRulesDirOutsideRootIgnored(t *testing.T) {
	root := t.TempDir()
	outside := t.TempDir()
	testutil.CreateFile(t, outside, "rules/evil.toml", ruleA)
	testutil.CreateSymlink(t, outside, filepath.Join(root, ".danny"))

	fs, err := filesystem.NewOS(root)
	require.NoError(t, err)

	files, err := loader.New(fs, loader.Options{}).LoadFiles(context.Background())
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestInvalidEmbeddedRejected(t *testing.T) {
	bad := &rules.File{Rules: []rules.Rule{{
		Name:  "bad",
		Match: rules.Matcher{ImportFromPattern: "(["},
	}}}

	_, err := loader.New(filesystem.NewMemory("/proj"), loader.Options{
		Embedded: []*rules.File{bad},
	}).LoadAll(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrLoad))
	assert.Equal(t, "bad", errors.GetErrorDetails(err)[errors.DetailRule])
}

func TestLoadCancelled(t *testing.T) {
	fs := memFS(t, map[string]string{".danny/rules/a.toml": ruleA})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := loader.New(fs, loader.Options{}).LoadFiles(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSourceString(t *testing.T) {
	assert.Equal(t, "builtin", loader.SourceBuiltin.String())
	assert.Equal(t, "user", loader.SourceUser.String())
	assert.Equal(t, "project", loader.SourceProject.String())
}

func TestLoadFile(t *testing.T) {
	fs := memFS(t, map[string]string{"custom/extra.yaml": ruleB})

	f, err := loader.New(fs, loader.Options{}).LoadFile("custom/extra.yaml")
	require.NoError(t, err)
	assert.Equal(t, "/proj/custom/extra.yaml", f.Path)
	assert.Equal(t, []string{"B"}, ruleNames(f.Rules))

	_, err = loader.New(fs, loader.Options{}).LoadFile("custom/extra.txt")
	assert.True(t, errors.IsErrorCode(err, errors.ErrLoad))
}

package paths_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arthur-debert/danny/pkg/errors"
	"github.com/arthur-debert/danny/pkg/paths"
)

func TestNewUsesEnvOverrides(t *testing.T) {
	root := t.TempDir()
	cfg := t.TempDir()
	t.Setenv(paths.EnvConfigDir, cfg)
	t.Setenv(paths.EnvRulesDir, "/opt/danny/rules")

	p, err := paths.New(root)
	require.NoError(t, err)

	assert.Equal(t, root, p.ProjectRoot())
	assert.Equal(t, filepath.Join(cfg, "rules"), p.UserRulesDir())
	assert.Equal(t, filepath.Join(root, ".danny", "rules"), p.ProjectRulesDir())
	assert.Equal(t, filepath.Join(root, ".danny.toml"), p.ProjectConfigPath())
	assert.Equal(t, "/opt/danny/rules", p.BuiltinRulesDir())
}

func TestNewFallsBackToEnvRoot(t *testing.T) {
	root := t.TempDir()
	t.Setenv(paths.EnvProjectRoot, root)
	t.Setenv(paths.EnvRulesDir, "")

	p, err := paths.New("")
	require.NoError(t, err)
	assert.Equal(t, root, p.ProjectRoot())
	assert.Empty(t, p.BuiltinRulesDir())
}

func TestContainsPath(t *testing.T) {
	tests := []struct {
		parent, child string
		want          bool
	}{
		{"/project", "/project", true},
		{"/project", "/project/.danny/rules/a.toml", true},
		{"/project", "/project/../etc/passwd", false},
		{"/project", "/other", false},
		{"/project", "/project/..foo/a", true},
	}
	for _, tt := range tests {
		t.Run(tt.child, func(t *testing.T) {
			assert.Equal(t, tt.want, paths.ContainsPath(tt.parent, tt.child))
		})
	}
}

func TestResolve(t *testing.T) {
	got, err := paths.Resolve("/project", "src/index.ts")
	require.NoError(t, err)
	assert.Equal(t, "/project/src/index.ts", got)

	_, err = paths.Resolve("/project", "../../etc/passwd")
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrPathEscape))

	_, err = paths.Resolve("/project", "")
	assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidInput))
}

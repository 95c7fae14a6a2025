// pkg/testutil/environment.go
// DEPENDENCIES: None (base test utilities)
// PURPOSE: Isolated project roots for tests

package testutil

import (
	"path/filepath"
	"testing"

	"github.com/arthur-debert/danny/pkg/filesystem"
	"github.com/arthur-debert/danny/pkg/paths"
)

// EnvType defines the type of test environment
type EnvType int

const (
	EnvMemoryOnly EnvType = iota // In-memory filesystem rooted at /project
	EnvIsolated                  // Real filesystem in a temp directory
)

// MemoryRoot is the project root of memory environments
const MemoryRoot = "/project"

// TestEnvironment is a project root plus redirected user directories
type TestEnvironment struct {
	Root      string
	ConfigDir string
	StateDir  string
	FS        filesystem.FS
	Paths     *paths.Paths
	Type      EnvType

	t   *testing.T
	mem *filesystem.MemoryFS
}

// NewTestEnvironment creates an environment. DANNY_ variables that would
// leak the developer's own setup into the test are overridden.
func NewTestEnvironment(t *testing.T, envType EnvType) *TestEnvironment {
	t.Helper()

	env := &TestEnvironment{
		t:         t,
		Type:      envType,
		ConfigDir: t.TempDir(),
		StateDir:  t.TempDir(),
	}

	t.Setenv(paths.EnvConfigDir, env.ConfigDir)
	t.Setenv(paths.EnvStateDir, env.StateDir)
	t.Setenv(paths.EnvRulesDir, "")
	t.Setenv(paths.EnvProjectRoot, "")

	switch envType {
	case EnvMemoryOnly:
		env.Root = MemoryRoot
		env.mem = filesystem.NewMemory(MemoryRoot)
		env.FS = env.mem
	case EnvIsolated:
		env.Root = t.TempDir()
		fs, err := filesystem.NewOS(env.Root)
		if err != nil {
			t.Fatalf("Failed to create filesystem: %v", err)
		}
		env.FS = fs
	}

	p, err := paths.New(env.Root)
	if err != nil {
		t.Fatalf("Failed to create paths: %v", err)
	}
	env.Paths = p
	return env
}

// WriteFile writes content at rel, a slash separated path below Root
func (env *TestEnvironment) WriteFile(rel, content string) string {
	env.t.Helper()

	path := filepath.Join(env.Root, filepath.FromSlash(rel))
	if env.mem != nil {
		if err := env.mem.WriteFile(path, []byte(content)); err != nil {
			env.t.Fatalf("Failed to write %s: %v", path, err)
		}
		return path
	}
	return CreateFile(env.t, env.Root, filepath.FromSlash(rel), content)
}

// WriteRuleFile writes a project rule file under .danny/rules
func (env *TestEnvironment) WriteRuleFile(name, content string) string {
	env.t.Helper()
	return env.WriteFile(".danny/rules/"+name, content)
}

// WriteUserRuleFile writes a rule file into the user rules directory
func (env *TestEnvironment) WriteUserRuleFile(name, content string) string {
	env.t.Helper()
	return CreateFile(env.t, env.Paths.UserRulesDir(), name, content)
}

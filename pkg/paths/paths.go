// Package paths resolves the directories danny reads rules and
// configuration from. It follows the XDG Base Directory specification
// for user level locations.
package paths

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"

	"github.com/arthur-debert/danny/pkg/constants"
	"github.com/arthur-debert/danny/pkg/errors"
)

// Environment variable names
const (
	// EnvProjectRoot overrides the project root
	EnvProjectRoot = "DANNY_PROJECT_ROOT"

	// EnvConfigDir overrides the XDG config directory for danny
	EnvConfigDir = "DANNY_CONFIG_DIR"

	// EnvStateDir overrides the XDG state directory for danny
	EnvStateDir = "DANNY_STATE_DIR"

	// EnvRulesDir points at an extra built-in rules directory
	EnvRulesDir = "DANNY_RULES_DIR"

	// EnvHome is the standard home directory variable
	EnvHome = "HOME"
)

const (
	// RulesDirName is the rules subdirectory of the user config dir
	RulesDirName = "rules"

	// LogFileName is the name of the log file
	LogFileName = "danny.log"
)

// Paths holds the resolved locations for one project
type Paths struct {
	projectRoot string
	configDir   string
	stateDir    string
	rulesDir    string
}

// New resolves paths for projectRoot. An empty root falls back to
// DANNY_PROJECT_ROOT and then the working directory.
func New(projectRoot string) (*Paths, error) {
	if projectRoot == "" {
		projectRoot = os.Getenv(EnvProjectRoot)
	}
	if projectRoot == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrIO, "failed to get working directory")
		}
		projectRoot = wd
	}

	absRoot, err := filepath.Abs(ExpandHome(projectRoot))
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrIO, "failed to get absolute path for %s", projectRoot)
	}

	p := &Paths{projectRoot: absRoot}

	if dir := os.Getenv(EnvConfigDir); dir != "" {
		p.configDir = ExpandHome(dir)
	} else {
		p.configDir = filepath.Join(xdg.ConfigHome, constants.ToolName)
	}

	if dir := os.Getenv(EnvStateDir); dir != "" {
		p.stateDir = ExpandHome(dir)
	} else {
		p.stateDir = filepath.Join(xdg.StateHome, constants.ToolName)
	}

	if dir := os.Getenv(EnvRulesDir); dir != "" {
		p.rulesDir = ExpandHome(dir)
	}

	return p, nil
}

// ProjectRoot is the absolute project root
func (p *Paths) ProjectRoot() string { return p.projectRoot }

// ConfigDir is the user level config directory
func (p *Paths) ConfigDir() string { return p.configDir }

// StateDir is the user level state directory
func (p *Paths) StateDir() string { return p.stateDir }

// UserRulesDir is where user-global rule files live
func (p *Paths) UserRulesDir() string {
	return filepath.Join(p.configDir, RulesDirName)
}

// ProjectRulesDir is where project-local rule files live
func (p *Paths) ProjectRulesDir() string {
	return filepath.Join(p.projectRoot, filepath.FromSlash(constants.ProjectRulesDir))
}

// ProjectConfigPath is the project configuration file
func (p *Paths) ProjectConfigPath() string {
	return filepath.Join(p.projectRoot, constants.ProjectConfigFile)
}

// BuiltinRulesDir is the extra built-in rules directory, empty when unset
func (p *Paths) BuiltinRulesDir() string { return p.rulesDir }

// LogFilePath is the path of the log file
func (p *Paths) LogFilePath() string {
	return filepath.Join(p.stateDir, LogFileName)
}

// ExpandHome replaces a leading ~ with the user's home directory
func ExpandHome(path string) string {
	if path == "" || path[0] != '~' {
		return path
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = os.Getenv(EnvHome)
		if homeDir == "" {
			return path
		}
	}

	if len(path) == 1 {
		return homeDir
	}
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(homeDir, path[2:])
	}
	return path
}

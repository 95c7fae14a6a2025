// Package constants holds the resource limits shared by the rule engine.
// This package has no dependencies to avoid circular imports.
package constants

const (
	// MaxRuleFileSize caps the size of a single rule file (1 MiB).
	MaxRuleFileSize int64 = 1024 * 1024

	// MaxContentSize caps the size of a file scanned by content_pattern (10 MiB).
	MaxContentSize int64 = 10 * 1024 * 1024

	// MaxRegexLength caps the length of any user supplied pattern.
	MaxRegexLength = 500

	// MaxRegexProgramSize caps the number of instructions of a compiled
	// regex program. Counted repetitions expand into instructions, so
	// this bounds patterns like (a{100}){100} that are short but huge.
	MaxRegexProgramSize = 10_000

	// MaxDirectoryDepth caps recursion during rule discovery.
	MaxDirectoryDepth = 10

	// DefaultDetectionWeight is used when a detection rule has no weight.
	DefaultDetectionWeight = 1.0

	// DefaultFrameworkPriority is used when a framework declares none.
	DefaultFrameworkPriority = 50

	// DefaultContentCacheEntries sizes the LRU used for file contents.
	DefaultContentCacheEntries = 256
)

const (
	// ToolName is used for directory and env var naming.
	ToolName = "danny"

	// ProjectRulesDir is relative to the project root.
	ProjectRulesDir = ".danny/rules"

	// ProjectConfigFile is relative to the project root.
	ProjectConfigFile = ".danny.toml"

	// EnvPrefix prefixes every environment override.
	EnvPrefix = "DANNY_"
)

// RuleFileExtensions lists the extensions discovered as rule files.
var RuleFileExtensions = []string{"toml", "yaml", "yml"}

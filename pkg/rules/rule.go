package rules

import (
	"fmt"
	"sort"
	"unicode"
	"unicode/utf8"

	"github.com/arthur-debert/danny/pkg/types"
)

// Rule is a named matcher with an action
type Rule struct {
	Name        string       `toml:"name" yaml:"name"`
	Description string       `toml:"description,omitempty" yaml:"description,omitempty"`
	Match       Matcher      `toml:"match" yaml:"match"`
	Action      ActionConfig `toml:"action" yaml:"action"`
	Priority    *uint32      `toml:"priority,omitempty" yaml:"priority,omitempty"`
}

// PriorityValue returns the priority, treating unset as 0
func (r Rule) PriorityValue() uint32 {
	if r.Priority == nil {
		return 0
	}
	return *r.Priority
}

// Matcher is the declarative set of conditions of a rule.
// Nil and empty fields are absent conditions.
type Matcher struct {
	ImportFrom        []string `toml:"-" yaml:"-"`
	ImportFromPattern string   `toml:"import_from_pattern,omitempty" yaml:"import_from_pattern,omitempty"`
	ImportSpecifiers  []string `toml:"import_specifiers,omitempty" yaml:"import_specifiers,omitempty"`
	ImportDefault     *bool    `toml:"import_default,omitempty" yaml:"import_default,omitempty"`
	ImportNamespace   *bool    `toml:"import_namespace,omitempty" yaml:"import_namespace,omitempty"`
	NotImportFrom     []string `toml:"not_import_from,omitempty" yaml:"not_import_from,omitempty"`

	ExportName       []string   `toml:"export_name,omitempty" yaml:"export_name,omitempty"`
	ExportPattern    string     `toml:"export_pattern,omitempty" yaml:"export_pattern,omitempty"`
	ExportType       ExportType `toml:"export_type,omitempty" yaml:"export_type,omitempty"`
	NotExportName    []string   `toml:"not_export_name,omitempty" yaml:"not_export_name,omitempty"`
	NotExportPattern string     `toml:"not_export_pattern,omitempty" yaml:"not_export_pattern,omitempty"`

	PathStartsWith []string `toml:"path_starts_with,omitempty" yaml:"path_starts_with,omitempty"`
	PathEndsWith   []string `toml:"path_ends_with,omitempty" yaml:"path_ends_with,omitempty"`
	PathPattern    string   `toml:"path_pattern,omitempty" yaml:"path_pattern,omitempty"`
	NotPathPattern string   `toml:"not_path_pattern,omitempty" yaml:"not_path_pattern,omitempty"`

	ContentPattern string `toml:"content_pattern,omitempty" yaml:"content_pattern,omitempty"`

	MinUsageCount *uint `toml:"min_usage_count,omitempty" yaml:"min_usage_count,omitempty"`
	MaxUsageCount *uint `toml:"max_usage_count,omitempty" yaml:"max_usage_count,omitempty"`
}

// PatternField is a regex bearing field of a matcher
type PatternField struct {
	Field   string
	Pattern string
}

// Patterns returns every non-empty regex field of m, in evaluation order
func (m Matcher) Patterns() []PatternField {
	candidates := []PatternField{
		{"import_from_pattern", m.ImportFromPattern},
		{"export_pattern", m.ExportPattern},
		{"path_pattern", m.PathPattern},
		{"content_pattern", m.ContentPattern},
		{"not_export_pattern", m.NotExportPattern},
		{"not_path_pattern", m.NotPathPattern},
	}
	var out []PatternField
	for _, c := range candidates {
		if c.Pattern != "" {
			out = append(out, c)
		}
	}
	return out
}

// Severity is the level set by a severity action
type Severity string

const (
	SeverityError Severity = "error"
	SeverityWarn  Severity = "warn"
	SeverityInfo  Severity = "info"
)

// Valid reports whether s is a known severity
func (s Severity) Valid() bool {
	switch s {
	case SeverityError, SeverityWarn, SeverityInfo:
		return true
	}
	return false
}

// ActionConfig is the action block as written in a rule file
type ActionConfig struct {
	MarkUsed *bool    `toml:"mark_used,omitempty" yaml:"mark_used,omitempty"`
	Reason   string   `toml:"reason,omitempty" yaml:"reason,omitempty"`
	Skip     *bool    `toml:"skip,omitempty" yaml:"skip,omitempty"`
	Warn     *bool    `toml:"warn,omitempty" yaml:"warn,omitempty"`
	Message  string   `toml:"message,omitempty" yaml:"message,omitempty"`
	Severity Severity `toml:"severity,omitempty" yaml:"severity,omitempty"`
}

// ActionKind enumerates executable actions
type ActionKind int

const (
	ActionMarkUsed ActionKind = iota
	ActionSkip
	ActionWarn
	ActionSetSeverity
)

func (k ActionKind) String() string {
	switch k {
	case ActionMarkUsed:
		return "mark_used"
	case ActionSkip:
		return "skip"
	case ActionWarn:
		return "warn"
	case ActionSetSeverity:
		return "set_severity"
	}
	return fmt.Sprintf("ActionKind(%d)", int(k))
}

// Action is the executable form of an ActionConfig.
// Reason is set for MarkUsed, Message for Warn and Severity for SetSeverity.
type Action struct {
	Kind     ActionKind
	Reason   string
	Message  string
	Severity Severity
}

const defaultWarnMessage = "Rule matched"

// ToAction converts the config with precedence skip, warn, severity, mark_used.
// A config with nothing set marks exports as used.
func (c ActionConfig) ToAction() Action {
	switch {
	case c.Skip != nil && *c.Skip:
		return Action{Kind: ActionSkip}
	case c.Warn != nil && *c.Warn:
		msg := c.Message
		if msg == "" {
			msg = c.Reason
		}
		if msg == "" {
			msg = defaultWarnMessage
		}
		return Action{Kind: ActionWarn, Message: msg}
	case c.Severity != "":
		return Action{Kind: ActionSetSeverity, Severity: c.Severity}
	default:
		return Action{Kind: ActionMarkUsed, Reason: c.Reason}
	}
}

func (a Action) String() string {
	switch a.Kind {
	case ActionMarkUsed:
		if a.Reason != "" {
			return fmt.Sprintf("mark_used(%s)", a.Reason)
		}
		return "mark_used"
	case ActionWarn:
		return fmt.Sprintf("warn(%s)", a.Message)
	case ActionSetSeverity:
		return fmt.Sprintf("severity(%s)", a.Severity)
	}
	return a.Kind.String()
}

// ExportType filters exports by kind using naming heuristics, not type information.
// Type-only exports match only Type and Interface.
type ExportType string

const (
	ExportFunction  ExportType = "function"
	ExportClass     ExportType = "class"
	ExportConst     ExportType = "const"
	ExportLet       ExportType = "let"
	ExportVar       ExportType = "var"
	ExportTypeAlias ExportType = "type"
	ExportInterface ExportType = "interface"
	ExportEnum      ExportType = "enum"
)

// Valid reports whether t is a known export type
func (t ExportType) Valid() bool {
	switch t {
	case ExportFunction, ExportClass, ExportConst, ExportLet, ExportVar,
		ExportTypeAlias, ExportInterface, ExportEnum:
		return true
	}
	return false
}

// Matches applies the naming heuristic for t to e
func (t ExportType) Matches(e types.Export) bool {
	if e.IsTypeOnly {
		return t == ExportTypeAlias || t == ExportInterface
	}
	name := e.Name
	switch t {
	case ExportFunction:
		return name != ""
	case ExportClass, ExportEnum:
		return startsUpper(name)
	case ExportConst, ExportLet, ExportVar:
		if name == "" {
			return false
		}
		return !startsUpper(name) || isScreamingSnake(name)
	}
	return false
}

func startsUpper(name string) bool {
	r, _ := utf8.DecodeRuneInString(name)
	return r != utf8.RuneError && unicode.IsUpper(r)
}

// isScreamingSnake is true for names like MAX_SIZE
func isScreamingSnake(name string) bool {
	hasUnderscore := false
	for _, r := range name {
		switch {
		case r == '_':
			hasUnderscore = true
		case unicode.IsUpper(r):
		default:
			return false
		}
	}
	return hasUnderscore
}

// SortRules orders rules by priority descending then name ascending.
// The sort is stable so equal keys keep their input order.
func SortRules(rules []Rule) {
	sort.SliceStable(rules, func(i, j int) bool {
		pi, pj := rules[i].PriorityValue(), rules[j].PriorityValue()
		if pi != pj {
			return pi > pj
		}
		return rules[i].Name < rules[j].Name
	})
}

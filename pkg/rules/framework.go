package rules

import (
	"sort"

	"github.com/arthur-debert/danny/pkg/constants"
)

// FrameworkMetadata describes the framework a rule file belongs to and
// how to detect it
type FrameworkMetadata struct {
	Name        string   `toml:"name" yaml:"name"`
	Description string   `toml:"description,omitempty" yaml:"description,omitempty"`
	Version     string   `toml:"version,omitempty" yaml:"version,omitempty"`
	Priority    *uint32  `toml:"priority,omitempty" yaml:"priority,omitempty"`
	Suppresses  []string `toml:"suppresses,omitempty" yaml:"suppresses,omitempty"`

	// Detect holds legacy detection hints. Parsed and ignored.
	Detect []string `toml:"detect,omitempty" yaml:"detect,omitempty"`

	Detection []DetectionRule `toml:"-" yaml:"-"`
}

// PriorityValue returns the detection priority, defaulting to 50
func (f FrameworkMetadata) PriorityValue() uint32 {
	if f.Priority == nil {
		return constants.DefaultFrameworkPriority
	}
	return *f.Priority
}

// DetectionType is the kind of evidence a detection rule looks at
type DetectionType string

const (
	DetectImport            DetectionType = "import"
	DetectExportPattern     DetectionType = "export_pattern"
	DetectPackageDependency DetectionType = "package_dependency"
	DetectPackageScript     DetectionType = "package_script"
	DetectFilePath          DetectionType = "file_path"
	DetectFileExtension     DetectionType = "file_extension"
)

// Valid reports whether t is a known detection type
func (t DetectionType) Valid() bool {
	switch t {
	case DetectImport, DetectExportPattern, DetectPackageDependency,
		DetectPackageScript, DetectFilePath, DetectFileExtension:
		return true
	}
	return false
}

// IsRegex reports whether patterns of this type are regular expressions
func (t DetectionType) IsRegex() bool {
	return t == DetectImport || t == DetectExportPattern
}

// DetectionRule is one weighted piece of framework evidence
type DetectionRule struct {
	Type    DetectionType
	Pattern string
	Weight  *float64
}

// WeightValue returns the weight, defaulting to 1.0
func (d DetectionRule) WeightValue() float64 {
	if d.Weight == nil {
		return constants.DefaultDetectionWeight
	}
	return *d.Weight
}

// EntryPointPattern names a set of globs that seed graph construction
type EntryPointPattern struct {
	Name        string   `toml:"name" yaml:"name"`
	Description string   `toml:"description,omitempty" yaml:"description,omitempty"`
	Patterns    []string `toml:"patterns" yaml:"patterns"`
	Priority    *uint32  `toml:"priority,omitempty" yaml:"priority,omitempty"`
}

// PriorityValue returns the priority, treating unset as 0
func (e EntryPointPattern) PriorityValue() uint32 {
	if e.Priority == nil {
		return 0
	}
	return *e.Priority
}

// SortEntryPoints orders entry points by priority descending then name ascending
func SortEntryPoints(eps []EntryPointPattern) {
	sort.SliceStable(eps, func(i, j int) bool {
		pi, pj := eps[i].PriorityValue(), eps[j].PriorityValue()
		if pi != pj {
			return pi > pj
		}
		return eps[i].Name < eps[j].Name
	})
}

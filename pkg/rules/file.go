package rules

import (
	stderrors "errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/arthur-debert/danny/pkg/errors"
)

// Format is the serialization of a rule file
type Format string

const (
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
)

// FormatFromPath picks the format from a file extension
func FormatFromPath(path string) (Format, bool) {
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(path), ".")) {
	case "toml":
		return FormatTOML, true
	case "yaml", "yml":
		return FormatYAML, true
	}
	return "", false
}

// File is a parsed rule file
type File struct {
	// Path is where the file was read from, empty for inline text
	Path        string
	Framework   *FrameworkMetadata
	Rules       []Rule
	EntryPoints []EntryPointPattern
}

// Name is the framework name when present, else the file base name
func (f *File) Name() string {
	if f.Framework != nil && f.Framework.Name != "" {
		return f.Framework.Name
	}
	if f.Path != "" {
		return strings.TrimSuffix(filepath.Base(f.Path), filepath.Ext(f.Path))
	}
	return ""
}

// Description is the framework description when present
func (f *File) Description() string {
	if f.Framework != nil {
		return f.Framework.Description
	}
	return ""
}

type rawFile struct {
	Framework   *rawFramework       `toml:"framework" yaml:"framework"`
	Rules       []rawRule           `toml:"rules" yaml:"rules"`
	EntryPoints []EntryPointPattern `toml:"entry_points" yaml:"entry_points"`
}

type rawFramework struct {
	FrameworkMetadata `yaml:",inline"`
	Detection         []rawDetection `toml:"detection" yaml:"detection"`
}

type rawDetection struct {
	Type    DetectionType `toml:"type" yaml:"type"`
	Pattern string        `toml:"pattern" yaml:"pattern"`
	Weight  interface{}   `toml:"weight" yaml:"weight"`
}

type rawRule struct {
	Name        string       `toml:"name" yaml:"name"`
	Description string       `toml:"description" yaml:"description"`
	Match       rawMatcher   `toml:"match" yaml:"match"`
	Action      ActionConfig `toml:"action" yaml:"action"`
	Priority    *uint32      `toml:"priority" yaml:"priority"`
}

type rawMatcher struct {
	Matcher    `yaml:",inline"`
	ImportFrom interface{} `toml:"import_from" yaml:"import_from"`
}

// ParseTOML parses rule file text in TOML
func ParseTOML(text string) (*File, error) {
	return Parse([]byte(text), FormatTOML)
}

// Parse decodes and structurally validates a rule file.
// Patterns are not compiled here.
func Parse(data []byte, format Format) (*File, error) {
	var raw rawFile
	switch format {
	case FormatTOML:
		if err := toml.Unmarshal(data, &raw); err != nil {
			perr := errors.Wrap(err, errors.ErrParse, "invalid TOML")
			var derr *toml.DecodeError
			if stderrors.As(err, &derr) {
				row, col := derr.Position()
				perr.WithDetail(errors.DetailLine, row).WithDetail(errors.DetailColumn, col)
			}
			return nil, perr
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, errors.Wrap(err, errors.ErrParse, "invalid YAML")
		}
	default:
		return nil, errors.Newf(errors.ErrParse, "unsupported rule format %q", format)
	}
	return raw.normalize()
}

func (raw *rawFile) normalize() (*File, error) {
	f := &File{EntryPoints: raw.EntryPoints}

	if raw.Framework != nil {
		fw := raw.Framework.FrameworkMetadata
		if fw.Name == "" {
			return nil, errors.New(errors.ErrParse, "framework name is required")
		}
		for i, d := range raw.Framework.Detection {
			rule, err := d.normalize()
			if err != nil {
				return nil, errors.Wrapf(err, errors.ErrParse, "framework %s: detection rule %d", fw.Name, i).
					WithDetail(errors.DetailFramework, fw.Name)
			}
			fw.Detection = append(fw.Detection, rule)
		}
		f.Framework = &fw
	}

	for i, rr := range raw.Rules {
		rule, err := rr.normalize()
		if err != nil {
			name := rr.Name
			if name == "" {
				name = fmt.Sprintf("#%d", i)
			}
			return nil, errors.Wrapf(err, errors.ErrParse, "rule %s", name).WithDetail(errors.DetailRule, name)
		}
		f.Rules = append(f.Rules, rule)
	}

	for _, ep := range f.EntryPoints {
		if ep.Name == "" {
			return nil, errors.New(errors.ErrParse, "entry point name is required")
		}
	}
	return f, nil
}

func (rr rawRule) normalize() (Rule, error) {
	if rr.Name == "" {
		return Rule{}, errors.New(errors.ErrParse, "rule name is required")
	}
	m := rr.Match.Matcher
	from, err := stringOrList(rr.Match.ImportFrom)
	if err != nil {
		return Rule{}, err
	}
	m.ImportFrom = from

	if m.ExportType != "" && !m.ExportType.Valid() {
		return Rule{}, errors.Newf(errors.ErrParse, "unknown export_type %q", m.ExportType).
			WithDetail(errors.DetailValue, string(m.ExportType))
	}
	if rr.Action.Severity != "" && !rr.Action.Severity.Valid() {
		return Rule{}, errors.Newf(errors.ErrParse, "unknown severity %q", rr.Action.Severity).
			WithDetail(errors.DetailValue, string(rr.Action.Severity))
	}
	return Rule{
		Name:        rr.Name,
		Description: rr.Description,
		Match:       m,
		Action:      rr.Action,
		Priority:    rr.Priority,
	}, nil
}

func (d rawDetection) normalize() (DetectionRule, error) {
	if !d.Type.Valid() {
		return DetectionRule{}, errors.Newf(errors.ErrParse, "unknown detection type %q", d.Type).
			WithDetail(errors.DetailValue, string(d.Type))
	}
	rule := DetectionRule{Type: d.Type, Pattern: d.Pattern}
	switch w := d.Weight.(type) {
	case nil:
	case float64:
		rule.Weight = &w
	case int64:
		f := float64(w)
		rule.Weight = &f
	case int:
		f := float64(w)
		rule.Weight = &f
	default:
		return DetectionRule{}, errors.Newf(errors.ErrParse, "weight must be a number, got %T", d.Weight)
	}
	return rule, nil
}

// stringOrList accepts import_from written as a string or an array of strings
func stringOrList(v interface{}) ([]string, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case string:
		return []string{val}, nil
	case []interface{}:
		out := make([]string, 0, len(val))
		for _, item := range val {
			s, ok := item.(string)
			if !ok {
				return nil, errors.Newf(errors.ErrParse, "import_from entries must be strings, got %T", item)
			}
			out = append(out, s)
		}
		return out, nil
	case []string:
		return val, nil
	}
	return nil, errors.Newf(errors.ErrParse, "import_from must be a string or an array, got %T", v)
}

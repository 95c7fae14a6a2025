package detection

import (
	"fmt"
	"math"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/arthur-debert/danny/pkg/constants"
	"github.com/arthur-debert/danny/pkg/errors"
	"github.com/arthur-debert/danny/pkg/matchers"
	"github.com/arthur-debert/danny/pkg/rules"
)

// compiledRule is a detection rule with its pattern prepared
type compiledRule struct {
	rule   rules.DetectionRule
	weight float64
	regex  *regexp.Regexp
	glob   string
}

func compileRule(r rules.DetectionRule) (*compiledRule, error) {
	if len(r.Pattern) > constants.MaxRegexLength {
		return nil, errors.Newf(errors.ErrInvalidPattern,
			"detection pattern length %d exceeds maximum of %d", len(r.Pattern), constants.MaxRegexLength).
			WithDetail(errors.DetailValue, len(r.Pattern)).
			WithDetail(errors.DetailLimit, constants.MaxRegexLength)
	}

	weight := r.WeightValue()
	if math.IsNaN(weight) || math.IsInf(weight, 0) || weight < 0 {
		return nil, errors.Newf(errors.ErrInvalidPattern,
			"detection weight must be finite and non-negative, got %v", weight).
			WithDetail(errors.DetailValue, weight).
			WithDetail(errors.DetailPattern, r.Pattern)
	}

	c := &compiledRule{rule: r, weight: weight}
	switch r.Type {
	case rules.DetectImport, rules.DetectExportPattern:
		re, err := matchers.CompileRegex(r.Pattern)
		if err != nil {
			return nil, err
		}
		c.regex = re
	case rules.DetectFilePath:
		if !doublestar.ValidatePattern(r.Pattern) {
			return nil, errors.Newf(errors.ErrInvalidPattern, "invalid glob pattern %q", r.Pattern).
				WithDetail(errors.DetailPattern, r.Pattern)
		}
		c.glob = r.Pattern
	case rules.DetectFileExtension, rules.DetectPackageDependency, rules.DetectPackageScript:
	default:
		return nil, errors.Newf(errors.ErrInvalidPattern, "unknown detection type %q", r.Type)
	}
	return c, nil
}

// id identifies the rule in evidence, e.g. "import:^react$"
func (c *compiledRule) id() string {
	return fmt.Sprintf("%s:%s", c.rule.Type, c.rule.Pattern)
}

func (c *compiledRule) matchesString(s string) bool {
	return c.regex != nil && c.regex.MatchString(s)
}

func (c *compiledRule) matchesPath(path string) bool {
	switch c.rule.Type {
	case rules.DetectFilePath:
		slashed := filepath.ToSlash(path)
		if ok, _ := doublestar.Match(c.glob, slashed); ok {
			return true
		}
		// A leading "/" is not a segment; "pages/**" matches "/pages/a.tsx"
		// but not "/repo/pages/a.tsx"
		ok, _ := doublestar.Match(c.glob, strings.TrimPrefix(slashed, "/"))
		return ok
	case rules.DetectFileExtension:
		ext := filepath.Ext(path)
		return ext != "" && strings.TrimPrefix(ext, ".") == strings.TrimPrefix(c.rule.Pattern, ".")
	}
	return false
}

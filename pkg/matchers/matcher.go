// Package matchers compiles declarative rule conditions into executable
// predicates over modules and exports.
//
// A CompiledMatcher is immutable once built and safe for concurrent use.
// Conditions are evaluated cheapest first: imports, exports, path,
// content, negations, then usage counts, stopping at the first failure.
package matchers

import (
	stderrors "errors"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/arthur-debert/danny/pkg/errors"
	"github.com/arthur-debert/danny/pkg/rules"
	"github.com/arthur-debert/danny/pkg/types"
)

// Options customizes compilation
type Options struct {
	// Content reads files for content_pattern. Defaults to the OS with the
	// standard size limit.
	Content ContentSource
}

// CompiledMatcher is the executable form of a rules.Matcher
type CompiledMatcher struct {
	spec rules.Matcher

	importFrom       []string
	importFromRegex  *regexp.Regexp
	importSpecifiers []string
	importDefault    *bool
	importNamespace  *bool

	exportNames map[string]struct{}
	exportRegex *regexp.Regexp
	exportType  rules.ExportType

	pathStartsWith []string
	pathEndsWith   []string
	pathRegex      *regexp.Regexp

	contentRegex *regexp.Regexp
	content      ContentSource

	notImportFrom  []string
	notExportNames map[string]struct{}
	notExportRegex *regexp.Regexp
	notPathRegex   *regexp.Regexp

	minUsage *uint
	maxUsage *uint
}

// Compile builds a matcher reading content from the OS
func Compile(spec rules.Matcher) (*CompiledMatcher, error) {
	return CompileWithOptions(spec, Options{})
}

// CompileWithOptions validates spec and builds a matcher.
// Fails with ErrInvalidRange when min_usage_count > max_usage_count and
// with ErrInvalidPattern for any regex over the length or size limits.
func CompileWithOptions(spec rules.Matcher, opts Options) (*CompiledMatcher, error) {
	if err := validateUsageRange(spec); err != nil {
		return nil, err
	}

	m := &CompiledMatcher{
		spec:             spec,
		importFrom:       spec.ImportFrom,
		importSpecifiers: spec.ImportSpecifiers,
		importDefault:    spec.ImportDefault,
		importNamespace:  spec.ImportNamespace,
		exportNames:      toSet(spec.ExportName),
		exportType:       spec.ExportType,
		pathStartsWith:   spec.PathStartsWith,
		pathEndsWith:     spec.PathEndsWith,
		notImportFrom:    spec.NotImportFrom,
		notExportNames:   toSet(spec.NotExportName),
		minUsage:         spec.MinUsageCount,
		maxUsage:         spec.MaxUsageCount,
		content:          opts.Content,
	}

	regexFields := []struct {
		field   string
		pattern string
		dst     **regexp.Regexp
	}{
		{"import_from_pattern", spec.ImportFromPattern, &m.importFromRegex},
		{"export_pattern", spec.ExportPattern, &m.exportRegex},
		{"path_pattern", spec.PathPattern, &m.pathRegex},
		{"content_pattern", spec.ContentPattern, &m.contentRegex},
		{"not_export_pattern", spec.NotExportPattern, &m.notExportRegex},
		{"not_path_pattern", spec.NotPathPattern, &m.notPathRegex},
	}
	for _, rf := range regexFields {
		if rf.pattern == "" {
			continue
		}
		re, err := CompileRegex(rf.pattern)
		if err != nil {
			return nil, annotateField(err, rf.field)
		}
		*rf.dst = re
	}

	if m.contentRegex != nil && m.content == nil {
		m.content = NewOSContentSource()
	}
	return m, nil
}

// Validate runs every compile-time check of spec without keeping the result
func Validate(spec rules.Matcher) error {
	if err := validateUsageRange(spec); err != nil {
		return err
	}
	for _, pf := range spec.Patterns() {
		if err := ValidatePattern(pf.Pattern); err != nil {
			return annotateField(err, pf.Field)
		}
	}
	return nil
}

func validateUsageRange(spec rules.Matcher) error {
	if spec.MinUsageCount != nil && spec.MaxUsageCount != nil && *spec.MinUsageCount > *spec.MaxUsageCount {
		return errors.Newf(errors.ErrInvalidRange,
			"min_usage_count (%d) > max_usage_count (%d)", *spec.MinUsageCount, *spec.MaxUsageCount).
			WithDetail(errors.DetailValue, *spec.MinUsageCount).
			WithDetail(errors.DetailLimit, *spec.MaxUsageCount)
	}
	return nil
}

func annotateField(err error, field string) error {
	var dErr *errors.DannyError
	if stderrors.As(err, &dErr) {
		return dErr.WithDetail(errors.DetailField, field)
	}
	return err
}

// Spec returns the declarative matcher this was compiled from
func (m *CompiledMatcher) Spec() rules.Matcher { return m.spec }

// Matches reports whether every present condition holds for export in module
func (m *CompiledMatcher) Matches(module *types.Module, export *types.Export) bool {
	return m.checkImports(module) &&
		m.checkExport(export) &&
		m.checkPath(module) &&
		m.checkContent(module) &&
		m.checkNegations(module, export) &&
		m.checkUsage(export)
}

// IsFileOnly is true when no condition looks at the export
func (m *CompiledMatcher) IsFileOnly() bool {
	return m.exportRegex == nil &&
		m.exportNames == nil &&
		m.exportType == "" &&
		m.notExportRegex == nil &&
		m.notExportNames == nil &&
		m.minUsage == nil &&
		m.maxUsage == nil
}

func (m *CompiledMatcher) checkImports(module *types.Module) bool {
	if m.importFrom != nil && !importsAny(module, m.importFrom) {
		return false
	}

	if m.importFromRegex != nil {
		found := false
		for _, imp := range module.Imports {
			if m.importFromRegex.MatchString(imp.Source) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	if m.importSpecifiers != nil || m.importDefault != nil || m.importNamespace != nil {
		return m.checkSpecifiers(module)
	}
	return true
}

// checkSpecifiers requires a single import that satisfies the source
// condition and every specifier condition at once
func (m *CompiledMatcher) checkSpecifiers(module *types.Module) bool {
	for i := range module.Imports {
		imp := &module.Imports[i]

		switch {
		case m.importFrom != nil:
			if !contains(m.importFrom, imp.Source) {
				continue
			}
		case m.importFromRegex != nil:
			if !m.importFromRegex.MatchString(imp.Source) {
				continue
			}
		}

		if m.importHasSpecifiers(imp) {
			return true
		}
	}
	return false
}

func (m *CompiledMatcher) importHasSpecifiers(imp *types.Import) bool {
	if m.importSpecifiers != nil {
		names := make(map[string]struct{}, len(imp.Specifiers))
		for _, s := range imp.Specifiers {
			names[s.SpecifierName()] = struct{}{}
		}
		for _, req := range m.importSpecifiers {
			if _, ok := names[req]; !ok {
				return false
			}
		}
	}
	if m.importDefault != nil && *m.importDefault != imp.HasDefault() {
		return false
	}
	if m.importNamespace != nil && *m.importNamespace != imp.HasNamespace() {
		return false
	}
	return true
}

func (m *CompiledMatcher) checkExport(export *types.Export) bool {
	if m.exportNames != nil {
		if _, ok := m.exportNames[export.Name]; !ok {
			return false
		}
	}
	if m.exportRegex != nil && !m.exportRegex.MatchString(export.Name) {
		return false
	}
	if m.exportType != "" && !m.exportType.Matches(*export) {
		return false
	}
	return true
}

func (m *CompiledMatcher) checkPath(module *types.Module) bool {
	path := module.Path
	if m.pathStartsWith != nil && !anyPrefix(path, m.pathStartsWith) {
		return false
	}
	if m.pathEndsWith != nil && !anySuffix(path, m.pathEndsWith) {
		return false
	}
	if m.pathRegex != nil && !m.pathRegex.MatchString(path) {
		return false
	}
	return true
}

// checkContent fails closed: oversized, unreadable or non UTF-8 files fail
func (m *CompiledMatcher) checkContent(module *types.Module) bool {
	if m.contentRegex == nil {
		return true
	}
	data, err := m.content.ReadContent(module.Path)
	if err != nil || !utf8.Valid(data) {
		return false
	}
	return m.contentRegex.Match(data)
}

func (m *CompiledMatcher) checkNegations(module *types.Module, export *types.Export) bool {
	if m.notImportFrom != nil && importsAny(module, m.notImportFrom) {
		return false
	}
	if m.notExportNames != nil {
		if _, ok := m.notExportNames[export.Name]; ok {
			return false
		}
	}
	if m.notExportRegex != nil && m.notExportRegex.MatchString(export.Name) {
		return false
	}
	if m.notPathRegex != nil && m.notPathRegex.MatchString(module.Path) {
		return false
	}
	return true
}

// checkUsage fails when a bound is configured but usage was never computed
func (m *CompiledMatcher) checkUsage(export *types.Export) bool {
	if m.minUsage == nil && m.maxUsage == nil {
		return true
	}
	if export.UsageCount == nil {
		return false
	}
	count := *export.UsageCount
	if m.minUsage != nil && count < *m.minUsage {
		return false
	}
	if m.maxUsage != nil && count > *m.maxUsage {
		return false
	}
	return true
}

func importsAny(module *types.Module, sources []string) bool {
	for _, src := range sources {
		if module.ImportsFrom(src) {
			return true
		}
	}
	return false
}

func toSet(names []string) map[string]struct{} {
	if names == nil {
		return nil
	}
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return set
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}

func anyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

func anySuffix(s string, suffixes []string) bool {
	for _, p := range suffixes {
		if strings.HasSuffix(s, p) {
			return true
		}
	}
	return false
}

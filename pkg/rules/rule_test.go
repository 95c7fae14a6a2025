package rules_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/arthur-debert/danny/pkg/rules"
	"github.com/arthur-debert/danny/pkg/types"
)

func boolPtr(b bool) *bool { return &b }
func u32(v uint32) *uint32 { return &v }

func TestActionConfigToAction(t *testing.T) {
	tests := []struct {
		name   string
		config rules.ActionConfig
		want   rules.Action
	}{
		{
			name:   "empty config marks used",
			config: rules.ActionConfig{},
			want:   rules.Action{Kind: rules.ActionMarkUsed},
		},
		{
			name:   "mark used keeps reason",
			config: rules.ActionConfig{MarkUsed: boolPtr(true), Reason: "hook"},
			want:   rules.Action{Kind: rules.ActionMarkUsed, Reason: "hook"},
		},
		{
			name:   "skip wins over everything",
			config: rules.ActionConfig{Skip: boolPtr(true), Warn: boolPtr(true), Severity: rules.SeverityInfo},
			want:   rules.Action{Kind: rules.ActionSkip},
		},
		{
			name:   "warn uses message",
			config: rules.ActionConfig{Warn: boolPtr(true), Message: "deprecated", Reason: "r"},
			want:   rules.Action{Kind: rules.ActionWarn, Message: "deprecated"},
		},
		{
			name:   "warn falls back to reason",
			config: rules.ActionConfig{Warn: boolPtr(true), Reason: "legacy"},
			want:   rules.Action{Kind: rules.ActionWarn, Message: "legacy"},
		},
		{
			name:   "warn falls back to default message",
			config: rules.ActionConfig{Warn: boolPtr(true)},
			want:   rules.Action{Kind: rules.ActionWarn, Message: "Rule matched"},
		},
		{
			name:   "severity beats mark used",
			config: rules.ActionConfig{MarkUsed: boolPtr(true), Severity: rules.SeverityWarn},
			want:   rules.Action{Kind: rules.ActionSetSeverity, Severity: rules.SeverityWarn},
		},
		{
			name:   "skip false falls through",
			config: rules.ActionConfig{Skip: boolPtr(false), Reason: "x"},
			want:   rules.Action{Kind: rules.ActionMarkUsed, Reason: "x"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.config.ToAction())
		})
	}
}

func TestExportTypeMatches(t *testing.T) {
	tests := []struct {
		name   string
		typ    rules.ExportType
		export types.Export
		want   bool
	}{
		{"function any name", rules.ExportFunction, types.Export{Name: "Button"}, true},
		{"function empty", rules.ExportFunction, types.Export{Name: ""}, false},
		{"class pascal", rules.ExportClass, types.Export{Name: "Store"}, true},
		{"class camel", rules.ExportClass, types.Export{Name: "store"}, false},
		{"enum pascal", rules.ExportEnum, types.Export{Name: "Color"}, true},
		{"const camel", rules.ExportConst, types.Export{Name: "config"}, true},
		{"const screaming", rules.ExportConst, types.Export{Name: "MAX_SIZE"}, true},
		{"const pascal", rules.ExportConst, types.Export{Name: "Config"}, false},
		{"let upper no underscore", rules.ExportLet, types.Export{Name: "URL"}, false},
		{"var empty", rules.ExportVar, types.Export{Name: ""}, false},
		{"type on value", rules.ExportTypeAlias, types.Export{Name: "Props"}, false},
		{"type on type only", rules.ExportTypeAlias, types.Export{Name: "Props", IsTypeOnly: true}, true},
		{"interface on type only", rules.ExportInterface, types.Export{Name: "Props", IsTypeOnly: true}, true},
		{"function on type only", rules.ExportFunction, types.Export{Name: "Props", IsTypeOnly: true}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.typ.Matches(tt.export))
		})
	}
}

func TestSortRules(t *testing.T) {
	rs := []rules.Rule{
		{Name: "low", Priority: u32(10)},
		{Name: "none"},
		{Name: "high", Priority: u32(90)},
		{Name: "b-mid", Priority: u32(50)},
		{Name: "a-mid", Priority: u32(50)},
	}
	rules.SortRules(rs)

	var names []string
	for _, r := range rs {
		names = append(names, r.Name)
	}
	assert.Equal(t, []string{"high", "a-mid", "b-mid", "low", "none"}, names)
}

func TestMatcherPatterns(t *testing.T) {
	m := rules.Matcher{ExportPattern: "^use", NotPathPattern: "test", ContentPattern: "@public"}
	fields := m.Patterns()
	assert.Equal(t, []rules.PatternField{
		{Field: "export_pattern", Pattern: "^use"},
		{Field: "content_pattern", Pattern: "@public"},
		{Field: "not_path_pattern", Pattern: "test"},
	}, fields)
	assert.Empty(t, rules.Matcher{}.Patterns())
}

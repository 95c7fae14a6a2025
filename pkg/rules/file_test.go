package rules_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arthur-debert/danny/pkg/errors"
	"github.com/arthur-debert/danny/pkg/rules"
)

const reactTOML = `
[framework]
name = "React"
description = "React hooks and components"
priority = 60
suppresses = ["Preact"]

[[framework.detection]]
type = "import"
pattern = "^react$"
weight = 0.6

[[framework.detection]]
type = "package_dependency"
pattern = "react"
weight = 1

[[rules]]
name = "react-hooks"
priority = 100

[rules.match]
import_from = ["react", "preact"]
export_pattern = "^use[A-Z]"

[rules.action]
mark_used = true
reason = "React hook"

[[rules]]
name = "single-source"

[rules.match]
import_from = "react"
min_usage_count = 1

[rules.action]
warn = true

[[entry_points]]
name = "pages"
patterns = ["pages/**/*.tsx"]
priority = 10
`

const reactYAML = `
framework:
  name: React
  description: React hooks and components
  priority: 60
  suppresses: [Preact]
  detection:
    - type: import
      pattern: ^react$
      weight: 0.6
    - type: package_dependency
      pattern: react
      weight: 1
rules:
  - name: react-hooks
    priority: 100
    match:
      import_from: [react, preact]
      export_pattern: ^use[A-Z]
    action:
      mark_used: true
      reason: React hook
  - name: single-source
    match:
      import_from: react
      min_usage_count: 1
    action:
      warn: true
entry_points:
  - name: pages
    patterns: ["pages/**/*.tsx"]
    priority: 10
`

func assertReactFile(t *testing.T, f *rules.File) {
	t.Helper()
	require.NotNil(t, f.Framework)
	assert.Equal(t, "React", f.Name())
	assert.Equal(t, "React hooks and components", f.Description())
	assert.Equal(t, uint32(60), f.Framework.PriorityValue())
	assert.Equal(t, []string{"Preact"}, f.Framework.Suppresses)

	require.Len(t, f.Framework.Detection, 2)
	assert.Equal(t, rules.DetectImport, f.Framework.Detection[0].Type)
	assert.InDelta(t, 0.6, f.Framework.Detection[0].WeightValue(), 1e-9)
	assert.InDelta(t, 1.0, f.Framework.Detection[1].WeightValue(), 1e-9)

	require.Len(t, f.Rules, 2)
	hooks := f.Rules[0]
	assert.Equal(t, "react-hooks", hooks.Name)
	assert.Equal(t, uint32(100), hooks.PriorityValue())
	assert.Equal(t, []string{"react", "preact"}, hooks.Match.ImportFrom)
	assert.Equal(t, "^use[A-Z]", hooks.Match.ExportPattern)
	assert.Equal(t, rules.Action{Kind: rules.ActionMarkUsed, Reason: "React hook"}, hooks.Action.ToAction())

	single := f.Rules[1]
	assert.Equal(t, []string{"react"}, single.Match.ImportFrom)
	require.NotNil(t, single.Match.MinUsageCount)
	assert.Equal(t, uint(1), *single.Match.MinUsageCount)
	assert.Nil(t, single.Priority)
	assert.Equal(t, rules.ActionWarn, single.Action.ToAction().Kind)

	require.Len(t, f.EntryPoints, 1)
	assert.Equal(t, []string{"pages/**/*.tsx"}, f.EntryPoints[0].Patterns)
}

func TestParseTOML(t *testing.T) {
	f, err := rules.ParseTOML(reactTOML)
	require.NoError(t, err)
	assertReactFile(t, f)
}

func TestParseYAMLParity(t *testing.T) {
	f, err := rules.Parse([]byte(reactYAML), rules.FormatYAML)
	require.NoError(t, err)
	assertReactFile(t, f)
}

func TestParseEmpty(t *testing.T) {
	f, err := rules.ParseTOML("")
	require.NoError(t, err)
	assert.Nil(t, f.Framework)
	assert.Empty(t, f.Rules)
	assert.Empty(t, f.EntryPoints)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{
			name: "malformed toml",
			text: "[[rules]\nname = ",
		},
		{
			name: "missing rule name",
			text: "[[rules]]\n[rules.match]\nexport_name = [\"a\"]\n",
		},
		{
			name: "unknown export type",
			text: "[[rules]]\nname = \"r\"\n[rules.match]\nexport_type = \"module\"\n",
		},
		{
			name: "unknown severity",
			text: "[[rules]]\nname = \"r\"\n[rules.action]\nseverity = \"fatal\"\n",
		},
		{
			name: "import_from wrong type",
			text: "[[rules]]\nname = \"r\"\n[rules.match]\nimport_from = 3\n",
		},
		{
			name: "import_from array of numbers",
			text: "[[rules]]\nname = \"r\"\n[rules.match]\nimport_from = [1, 2]\n",
		},
		{
			name: "unknown detection type",
			text: "[framework]\nname = \"X\"\n[[framework.detection]]\ntype = \"guess\"\npattern = \"x\"\n",
		},
		{
			name: "framework without name",
			text: "[framework]\ndescription = \"nameless\"\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := rules.ParseTOML(tt.text)
			require.Error(t, err)
			assert.True(t, errors.IsErrorCode(err, errors.ErrParse))
		})
	}
}

func TestParseTOMLErrorPosition(t *testing.T) {
	_, err := rules.ParseTOML("[[rules]]\nname = \"ok\"\nbroken = = 1\n")
	require.Error(t, err)
	details := errors.GetErrorDetails(err)
	assert.Equal(t, 3, details[errors.DetailLine])
}

func TestFormatFromPath(t *testing.T) {
	f, ok := rules.FormatFromPath("rules/react.toml")
	assert.True(t, ok)
	assert.Equal(t, rules.FormatTOML, f)

	f, ok = rules.FormatFromPath("rules/vue.YML")
	assert.True(t, ok)
	assert.Equal(t, rules.FormatYAML, f)

	_, ok = rules.FormatFromPath("rules/readme.md")
	assert.False(t, ok)
}

func TestFileNameFallsBackToPath(t *testing.T) {
	f := &rules.File{Path: "/p/.danny/rules/custom.toml"}
	assert.Equal(t, "custom", f.Name())
}

func TestSortEntryPoints(t *testing.T) {
	eps := []rules.EntryPointPattern{
		{Name: "b", Priority: u32(5)},
		{Name: "z"},
		{Name: "a", Priority: u32(5)},
		{Name: "top", Priority: u32(100)},
	}
	rules.SortEntryPoints(eps)
	var names []string
	for _, ep := range eps {
		names = append(names, ep.Name)
	}
	assert.Equal(t, []string{"top", "a", "b", "z"}, names)
}

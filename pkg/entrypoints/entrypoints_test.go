package entrypoints_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arthur-debert/danny/pkg/entrypoints"
	"github.com/arthur-debert/danny/pkg/errors"
	"github.com/arthur-debert/danny/pkg/filesystem"
	"github.com/arthur-debert/danny/pkg/rules"
)

func u32(v uint32) *uint32 { return &v }

func TestExtractSorts(t *testing.T) {
	files := []*rules.File{
		{EntryPoints: []rules.EntryPointPattern{{Name: "pages-router", Priority: u32(90)}}},
		{EntryPoints: []rules.EntryPointPattern{
			{Name: "zeta"},
			{Name: "app-router", Priority: u32(100)},
			{Name: "alpha"},
		}},
	}

	eps := entrypoints.Extract(files)
	names := make([]string, len(eps))
	for i, ep := range eps {
		names[i] = ep.Name
	}
	assert.Equal(t, []string{"app-router", "pages-router", "alpha", "zeta"}, names)
}

func TestExtractEmpty(t *testing.T) {
	assert.Empty(t, entrypoints.Extract([]*rules.File{{}}))
}

func TestDiscover(t *testing.T) {
	fs := filesystem.NewMemory("/proj")
	for _, p := range []string{
		"app/page.tsx",
		"app/blog/[slug]/page.tsx",
		"app/blog/utils.ts",
		"pages/index.tsx",
		"node_modules/next/app/page.tsx",
		".next/server/app/page.tsx",
	} {
		require.NoError(t, fs.WriteFile(p, []byte("x")))
	}

	eps := []rules.EntryPointPattern{
		{Name: "app-router", Patterns: []string{"app/**/page.{ts,tsx}"}, Priority: u32(100)},
		{Name: "everything", Patterns: []string{"**/*.tsx"}},
	}

	matches, err := entrypoints.Discover(fs, eps, entrypoints.Options{})
	require.NoError(t, err)
	assert.Equal(t, []entrypoints.Match{
		{Path: "app/blog/[slug]/page.tsx", EntryPoint: "app-router"},
		{Path: "app/page.tsx", EntryPoint: "app-router"},
		{Path: "pages/index.tsx", EntryPoint: "everything"},
	}, matches)
}

func TestDiscoverRejectsBadGlob(t *testing.T) {
	fs := filesystem.NewMemory("/proj")
	_, err := entrypoints.Discover(fs, []rules.EntryPointPattern{{Name: "bad", Patterns: []string{"app/[a-"}}}, entrypoints.Options{})
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidPattern))
	assert.Equal(t, "bad", errors.GetErrorDetails(err)[errors.DetailRule])
}

package matchers_test

import (
	"github.com/arthur-debert/danny/pkg/types"
)

func module(path string, sources ...string) *types.Module {
	m := &types.Module{ID: path, Path: path}
	for _, s := range sources {
		m.Imports = append(m.Imports, types.Import{Source: s, Kind: types.ImportKindStatic})
	}
	return m
}

func export(name string) *types.Export {
	return &types.Export{Name: name, Kind: types.ExportKindNamed}
}

func exportWithUsage(name string, n uint) *types.Export {
	e := types.Export{Name: name, Kind: types.ExportKindNamed}.WithUsage(n)
	return &e
}

func uintPtr(v uint) *uint { return &v }
func boolPtr(v bool) *bool { return &v }

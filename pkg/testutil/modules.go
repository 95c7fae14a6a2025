package testutil

import (
	"github.com/arthur-debert/danny/pkg/types"
)

// ModuleBuilder assembles a types.Module for tests
type ModuleBuilder struct {
	module *types.Module
}

// NewModule starts a module at path. The path doubles as the ID.
func NewModule(path string) *ModuleBuilder {
	return &ModuleBuilder{module: &types.Module{ID: path, Path: path}}
}

// Import adds a static import of source binding the named specifiers
func (b *ModuleBuilder) Import(source string, names ...string) *ModuleBuilder {
	imp := types.Import{Source: source, Kind: types.ImportKindStatic}
	for _, name := range names {
		imp.Specifiers = append(imp.Specifiers, types.Named(name))
	}
	b.module.Imports = append(b.module.Imports, imp)
	return b
}

// ImportDefault adds a static default import of source
func (b *ModuleBuilder) ImportDefault(source string) *ModuleBuilder {
	b.module.Imports = append(b.module.Imports, types.Import{
		Source:     source,
		Kind:       types.ImportKindStatic,
		Specifiers: []types.ImportSpecifier{types.Default()},
	})
	return b
}

// Export adds named exports
func (b *ModuleBuilder) Export(names ...string) *ModuleBuilder {
	for _, name := range names {
		b.module.Exports = append(b.module.Exports, types.Export{Name: name, Kind: types.ExportKindNamed})
	}
	return b
}

// ExportUsed adds an export with a computed usage count
func (b *ModuleBuilder) ExportUsed(name string, count uint) *ModuleBuilder {
	b.module.Exports = append(b.module.Exports, types.Export{Name: name, Kind: types.ExportKindNamed}.WithUsage(count))
	return b
}

// Build returns the module
func (b *ModuleBuilder) Build() *types.Module {
	return b.module
}

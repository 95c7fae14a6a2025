package types

import "fmt"

// ExportKind is the syntactic kind of an export as reported by the graph provider
type ExportKind string

const (
	ExportKindNamed     ExportKind = "named"
	ExportKindDefault   ExportKind = "default"
	ExportKindReExport  ExportKind = "reexport"
	ExportKindTypeOnly  ExportKind = "type"
	ExportKindNamespace ExportKind = "namespace"
)

// ImportKind distinguishes static, dynamic and type-only imports
type ImportKind string

const (
	ImportKindStatic  ImportKind = "static"
	ImportKindDynamic ImportKind = "dynamic"
	ImportKindType    ImportKind = "type"
)

// SpecifierKind is the shape of an import specifier
type SpecifierKind string

const (
	SpecifierNamed     SpecifierKind = "named"
	SpecifierDefault   SpecifierKind = "default"
	SpecifierNamespace SpecifierKind = "namespace"
)

// ImportSpecifier is one binding of an import statement.
// Name is empty for default specifiers.
type ImportSpecifier struct {
	Kind SpecifierKind `json:"kind"`
	Name string        `json:"name,omitempty"`
}

// Named returns a named import specifier
func Named(name string) ImportSpecifier {
	return ImportSpecifier{Kind: SpecifierNamed, Name: name}
}

// Default returns the default import specifier
func Default() ImportSpecifier {
	return ImportSpecifier{Kind: SpecifierDefault}
}

// Namespace returns a namespace import specifier (import * as name)
func Namespace(name string) ImportSpecifier {
	return ImportSpecifier{Kind: SpecifierNamespace, Name: name}
}

// SpecifierName is the name used when matching required specifiers.
// Default specifiers are named "default".
func (s ImportSpecifier) SpecifierName() string {
	if s.Kind == SpecifierDefault {
		return "default"
	}
	return s.Name
}

// Import is a single import statement of a module
type Import struct {
	Source     string            `json:"source"`
	Specifiers []ImportSpecifier `json:"specifiers,omitempty"`
	Kind       ImportKind        `json:"kind,omitempty"`
}

// HasDefault reports whether the import binds the default export
func (i Import) HasDefault() bool {
	for _, s := range i.Specifiers {
		if s.Kind == SpecifierDefault {
			return true
		}
	}
	return false
}

// HasNamespace reports whether the import is a namespace import
func (i Import) HasNamespace() bool {
	for _, s := range i.Specifiers {
		if s.Kind == SpecifierNamespace {
			return true
		}
	}
	return false
}

// Export is a single export of a module.
// UsageCount is nil when the provider has not computed usage.
type Export struct {
	Name            string     `json:"name"`
	Kind            ExportKind `json:"kind,omitempty"`
	IsTypeOnly      bool       `json:"is_type_only,omitempty"`
	UsageCount      *uint      `json:"usage_count,omitempty"`
	IsFrameworkUsed bool       `json:"is_framework_used,omitempty"`
}

// WithUsage returns a copy of e with the usage count set
func (e Export) WithUsage(n uint) Export {
	e.UsageCount = &n
	return e
}

// Module is a source file in the graph
type Module struct {
	ID      string   `json:"id"`
	Path    string   `json:"path"`
	Imports []Import `json:"imports,omitempty"`
	Exports []Export `json:"exports,omitempty"`
}

// ImportsFrom reports whether any import of m has exactly source
func (m *Module) ImportsFrom(source string) bool {
	for _, imp := range m.Imports {
		if imp.Source == source {
			return true
		}
	}
	return false
}

// ExportIndex returns the index of the export named name, or -1
func (m *Module) ExportIndex(name string) int {
	for i := range m.Exports {
		if m.Exports[i].Name == name {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy of m
func (m *Module) Clone() *Module {
	c := &Module{ID: m.ID, Path: m.Path}
	if m.Imports != nil {
		c.Imports = make([]Import, len(m.Imports))
		for i, imp := range m.Imports {
			c.Imports[i] = imp
			if imp.Specifiers != nil {
				c.Imports[i].Specifiers = append([]ImportSpecifier(nil), imp.Specifiers...)
			}
		}
	}
	if m.Exports != nil {
		c.Exports = make([]Export, len(m.Exports))
		for i, exp := range m.Exports {
			c.Exports[i] = exp
			if exp.UsageCount != nil {
				n := *exp.UsageCount
				c.Exports[i].UsageCount = &n
			}
		}
	}
	return c
}

// Key returns the identity used by graph providers: ID when set, else Path
func (m *Module) Key() string {
	if m.ID != "" {
		return m.ID
	}
	return m.Path
}

func (m *Module) String() string {
	return fmt.Sprintf("Module(%s, %d imports, %d exports)", m.Path, len(m.Imports), len(m.Exports))
}

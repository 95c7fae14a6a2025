// Package types defines the module graph read model shared by the rule
// engine, the bridge and graph providers.
//
// A Module is a single source file with its imports and exports. Modules
// are treated as values: the rule engine never mutates them, and the
// bridge replaces whole modules through the graph provider after
// modifying a clone.
package types

// Package registry keeps named framework rules. The generic Registry is a
// thread-safe name to value map with sorted listing; Frameworks layers
// default filtering and explicit selection on top of it.
package registry

// Package testutil provides shared fixtures for danny tests.
//
// Key components:
//   - TestEnvironment: an isolated project root with user level
//     directories redirected into temp dirs
//   - ModuleBuilder: declarative construction of graph modules
//   - CreateFile and friends: small real filesystem helpers
//
// Usage guidelines:
//   - Prefer EnvMemoryOnly unless the code under test opens files itself
//   - Define rule files inline in the test, not in testdata
package testutil

// Package filesystem provides a rooted, read-mostly filesystem for rule
// discovery and content matching.
//
// Every path handed to an FS is normalized against its root and rejected
// when it escapes. Two implementations exist: the OS filesystem and an
// in-memory filesystem backed by afero for sandboxed use and tests.
package filesystem

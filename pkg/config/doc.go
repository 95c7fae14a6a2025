// Package config loads danny's settings.
//
// Values are layered, later sources winning:
//
//  1. embedded defaults (embedded/defaults.toml)
//  2. the project file .danny.toml
//  3. DANNY_ environment variables, with "__" separating sections,
//     e.g. DANNY_RULES__MAX_DEPTH=4
//  4. explicit overrides, usually command line flags
package config

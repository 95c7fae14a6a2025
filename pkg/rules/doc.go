// Package rules defines the declarative rule model and its file formats.
//
// A rule file holds optional framework metadata, a list of rules and a
// list of entry point patterns:
//
//	[framework]
//	name = "React"
//	priority = 50
//
//	[[framework.detection]]
//	type = "import"
//	pattern = "^react$"
//	weight = 1.0
//
//	[[rules]]
//	name = "react-hooks"
//	priority = 100
//
//	[rules.match]
//	import_from = ["react", "preact"]
//	export_pattern = "^use[A-Z]"
//
//	[rules.action]
//	mark_used = true
//	reason = "React hook"
//
//	[[entry_points]]
//	name = "pages"
//	patterns = ["pages/**/*.tsx"]
//
// Every condition of a match block is optional. Absent conditions are
// vacuously true and present ones are combined with AND. The same schema
// is accepted in YAML.
package rules

package cli

// Root command
const (
	MsgRootShort = "Mark framework-consumed exports as used"
	MsgRootLong  = `danny applies declarative rules to a module graph so that exports consumed
by framework conventions (hooks, page components, route handlers) are not
reported as dead code. It also detects which frameworks a project uses.

Rules come from the built-in bundles, the user rules directory
($XDG_CONFIG_HOME/danny/rules) and the project's .danny/rules directory.`

	MsgFlagVerbose     = "Increase verbosity (-v INFO, -vv DEBUG, -vvv TRACE)"
	MsgFlagRoot        = "Project root (default: $DANNY_PROJECT_ROOT or the working directory)"
	MsgFlagNoBuiltin   = "Do not load the built-in rule bundles"
	MsgFlagNoUser      = "Do not load rules from the user config directory"
	MsgFlagFramework   = "Only use rule files for these frameworks (repeatable)"
	MsgFlagGraph       = "Module graph snapshot (JSON)"
	MsgFlagOutput      = "Write the updated graph snapshot here ('-' for stdout)"
	MsgFlagPerBundle   = "Apply each framework bundle separately instead of one merged rule set"
	MsgFlagEvidence    = "Show the evidence behind each detection"
	MsgFlagDiscover    = "Resolve entry point patterns against the project tree"
	MsgFlagPackageJSON = "package.json to read dependencies and scripts from"
)

// Subcommands
const (
	MsgRulesShort       = "Inspect rule files"
	MsgRulesListShort   = "List every loaded rule in evaluation order"
	MsgRulesCheckShort  = "Validate rule files"
	MsgRulesCheckLong   = "Validate the given rule files, or every reachable rule file when none are given."
	MsgDetectShort      = "Detect the frameworks a project uses"
	MsgApplyShort       = "Apply rules to a module graph snapshot"
	MsgEntryPointsShort = "List entry point patterns"
	MsgVersionShort     = "Print version information"
)

// Output
const (
	MsgNoRules        = "No rules loaded"
	MsgNoFrameworks   = "No frameworks detected"
	MsgNoEntryPoints  = "No entry points declared"
	MsgNoMatches      = "No files matched"
	MsgRulesValid     = "%d rule files, %d rules: all valid"
	MsgFileValid      = "%s: %d rules"
	MsgApplySummary   = "%d callbacks, %d exports marked used, %d files matched by file rules"
	MsgNoneMarked     = "No exports marked"
	MsgRuleWarning    = "[%s] %s: %s"
	MsgVersion        = "danny version %s\n  commit: %s\n  built:  %s\n"
	MsgUnknownBundles = "unknown framework %q (available: %s)"
)

package cli

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/arthur-debert/danny/internal/version"
	"github.com/arthur-debert/danny/pkg/logging"
)

// NewRootCmd creates the danny command tree
func NewRootCmd() *cobra.Command {
	initTemplateFormatting()

	flags := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:     "danny",
		Short:   MsgRootShort,
		Long:    MsgRootLong,
		Version: version.Version,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.SetupLogger(flags.verbosity)
			configureStyling()
			log.Debug().Str("command", cmd.Name()).Msg("Command started")
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		DisableAutoGenTag: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.CountVarP(&flags.verbosity, "verbose", "v", MsgFlagVerbose)
	pf.StringVar(&flags.root, "root", "", MsgFlagRoot)
	pf.BoolVar(&flags.noBuiltin, "no-builtin", false, MsgFlagNoBuiltin)
	pf.BoolVar(&flags.noUser, "no-user", false, MsgFlagNoUser)
	pf.StringSliceVarP(&flags.frameworks, "framework", "f", nil, MsgFlagFramework)

	rootCmd.AddGroup(&cobra.Group{ID: "core", Title: "COMMANDS:"})
	rootCmd.AddGroup(&cobra.Group{ID: "misc", Title: "MISC:"})

	rootCmd.AddCommand(newRulesCmd(flags))
	rootCmd.AddCommand(newDetectCmd(flags))
	rootCmd.AddCommand(newApplyCmd(flags))
	rootCmd.AddCommand(newEntryPointsCmd(flags))
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

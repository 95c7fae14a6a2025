package cli

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/arthur-debert/danny/pkg/filesystem"
	"github.com/arthur-debert/danny/pkg/loader"
	"github.com/arthur-debert/danny/pkg/matchers"
	"github.com/arthur-debert/danny/pkg/rules"
)

func newRulesCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "rules",
		Short:   MsgRulesShort,
		GroupID: "core",
	}
	cmd.AddCommand(newRulesListCmd(flags))
	cmd.AddCommand(newRulesCheckCmd(flags))
	return cmd
}

func newRulesListCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: MsgRulesListShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(flags)
			if err != nil {
				return err
			}
			files, err := s.loadFiles(cmd.Context())
			if err != nil {
				return err
			}

			rows := [][]string{{"Rule", "Priority", "Scope", "Action", "Bundle", "Source"}}
			for _, entry := range orderedRules(files) {
				m, err := matchers.Compile(entry.rule.Match)
				if err != nil {
					return err
				}
				scope := "export"
				if m.IsFileOnly() {
					scope = "file"
				}
				rows = append(rows, []string{
					entry.rule.Name,
					strconv.FormatUint(uint64(entry.rule.PriorityValue()), 10),
					scope,
					entry.rule.Action.ToAction().String(),
					entry.file.File.Name(),
					styleSource(entry.file.Source),
				})
			}
			if len(rows) == 1 {
				fmt.Fprintln(cmd.OutOrStdout(), MsgNoRules)
				return nil
			}
			return renderTable(cmd.OutOrStdout(), rows)
		},
	}
}

type ruleEntry struct {
	rule rules.Rule
	file loader.LoadedFile
}

// orderedRules pairs each rule with its file, in evaluation order
func orderedRules(files []loader.LoadedFile) []ruleEntry {
	origin := map[string]loader.LoadedFile{}
	for _, lf := range files {
		for _, r := range lf.File.Rules {
			if _, seen := origin[r.Name]; !seen {
				origin[r.Name] = lf
			}
		}
	}
	merged := loader.MergeRules(files)
	out := make([]ruleEntry, len(merged))
	for i, r := range merged {
		out[i] = ruleEntry{rule: r, file: origin[r.Name]}
	}
	return out
}

func newRulesCheckCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "check [file...]",
		Short: MsgRulesCheckShort,
		Long:  MsgRulesCheckLong,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(flags)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if len(args) == 0 {
				files, err := s.loadFiles(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintln(out, pterm.Success.Sprintf(MsgRulesValid, len(files), len(loader.MergeRules(files))))
				return nil
			}

			for _, arg := range args {
				f, err := checkFile(s, arg)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, pterm.Success.Sprintf(MsgFileValid, arg, len(f.Rules)))
			}
			return nil
		},
	}
}

// checkFile validates a rule file that may live outside the project
func checkFile(s *session, path string) (*rules.File, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	fs, err := filesystem.NewOS(filepath.Dir(abs))
	if err != nil {
		return nil, err
	}
	l := loader.New(fs, loader.Options{MaxFileSize: s.cfg.Rules.MaxFileSize})
	return l.LoadFile(abs)
}

package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/arthur-debert/danny/pkg/entrypoints"
	"github.com/arthur-debert/danny/pkg/loader"
)

func newEntryPointsCmd(flags *globalFlags) *cobra.Command {
	var discover bool
	cmd := &cobra.Command{
		Use:     "entrypoints",
		Aliases: []string{"entry-points"},
		Short:   MsgEntryPointsShort,
		GroupID: "core",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(flags)
			if err != nil {
				return err
			}
			files, err := s.loadFiles(cmd.Context())
			if err != nil {
				return err
			}
			eps := entrypoints.Extract(loader.Files(files))
			out := cmd.OutOrStdout()
			if len(eps) == 0 {
				fmt.Fprintln(out, MsgNoEntryPoints)
				return nil
			}

			if !discover {
				rows := [][]string{{"Entry point", "Priority", "Patterns"}}
				for _, ep := range eps {
					rows = append(rows, []string{
						ep.Name,
						strconv.FormatUint(uint64(ep.PriorityValue()), 10),
						strings.Join(ep.Patterns, " "),
					})
				}
				return renderTable(out, rows)
			}

			matches, err := entrypoints.Discover(s.fs, eps, entrypoints.Options{
				MaxDepth:    s.cfg.EntryPoints.MaxDepth,
				ExcludeDirs: s.cfg.EntryPoints.ExcludeDirs,
			})
			if err != nil {
				return err
			}
			if len(matches) == 0 {
				fmt.Fprintln(out, MsgNoMatches)
				return nil
			}
			rows := [][]string{{"File", "Entry point"}}
			for _, m := range matches {
				rows = append(rows, []string{m.Path, m.EntryPoint})
			}
			return renderTable(out, rows)
		},
	}
	cmd.Flags().BoolVar(&discover, "discover", false, MsgFlagDiscover)
	return cmd
}

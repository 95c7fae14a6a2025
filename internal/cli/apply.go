package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/arthur-debert/danny/pkg/bridge"
	"github.com/arthur-debert/danny/pkg/engine"
	"github.com/arthur-debert/danny/pkg/errors"
	"github.com/arthur-debert/danny/pkg/graph"
	"github.com/arthur-debert/danny/pkg/loader"
	"github.com/arthur-debert/danny/pkg/registry"
	"github.com/arthur-debert/danny/pkg/rules"
	"github.com/arthur-debert/danny/pkg/types"
)

type applyOptions struct {
	graph     string
	output    string
	perBundle bool
}

func newApplyCmd(flags *globalFlags) *cobra.Command {
	opts := &applyOptions{}
	cmd := &cobra.Command{
		Use:     "apply",
		Short:   MsgApplyShort,
		GroupID: "core",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(flags)
			if err != nil {
				return err
			}
			return runApply(cmd, s, opts)
		},
	}
	cmd.Flags().StringVarP(&opts.graph, "graph", "g", "", MsgFlagGraph)
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", MsgFlagOutput)
	cmd.Flags().BoolVar(&opts.perBundle, "per-bundle", false, MsgFlagPerBundle)
	_ = cmd.MarkFlagRequired("graph")
	return cmd
}

func runApply(cmd *cobra.Command, s *session, opts *applyOptions) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	g, err := readGraph(opts.graph)
	if err != nil {
		return err
	}
	files, err := s.loadFiles(ctx)
	if err != nil {
		return err
	}

	observer := func(bundle string, module *types.Module, export *types.Export, action rules.Action) {
		if action.Kind != rules.ActionWarn {
			return
		}
		target := module.Path
		if export != nil {
			target += "#" + export.Name
		}
		fmt.Fprintln(cmd.ErrOrStderr(), pterm.Warning.Sprintf(MsgRuleWarning, bundle, target, action.Message))
	}

	var stats engine.Stats
	if opts.perBundle {
		stats, err = applyPerBundle(ctx, s, g, files, observer)
	} else {
		stats, err = applyMerged(ctx, s, g, files, observer)
	}
	if err != nil {
		return err
	}

	// Keep stdout clean for the snapshot
	report := out
	if opts.output == "-" {
		report = cmd.ErrOrStderr()
	}
	fmt.Fprintf(report, MsgApplySummary+"\n", stats.RulesApplied, stats.ExportsMarkedUsed, stats.FilesSkipped)
	if err := printMarked(report, g); err != nil {
		return err
	}
	return writeGraph(out, g, opts.output)
}

// applyMerged evaluates every rule file as one ordered rule set
func applyMerged(ctx context.Context, s *session, g graph.Graph, files []loader.LoadedFile, observer bridge.Observer) (engine.Stats, error) {
	mopts, err := s.matcherOptions()
	if err != nil {
		return engine.Stats{}, err
	}
	eng, err := engine.NewWithOptions(loader.MergeRules(files), engine.Options{Matcher: mopts})
	if err != nil {
		return engine.Stats{}, err
	}
	return bridge.NewWithEngine("danny", "merged rule set", eng).
		WithObserver(observer).
		ApplyWithStats(ctx, g)
}

// applyPerBundle runs each framework's rules as its own bundle. A project
// file with the same framework name overrides a built-in one.
func applyPerBundle(ctx context.Context, s *session, g graph.Graph, files []loader.LoadedFile, observer bridge.Observer) (engine.Stats, error) {
	mopts, err := s.matcherOptions()
	if err != nil {
		return engine.Stats{}, err
	}
	frameworks, err := registry.NewFrameworks()
	if err != nil {
		return engine.Stats{}, err
	}
	for _, lf := range files {
		rs := append([]rules.Rule(nil), lf.File.Rules...)
		rules.SortRules(rs)
		eng, err := engine.NewWithOptions(rs, engine.Options{Matcher: mopts})
		if err != nil {
			return engine.Stats{}, errors.Wrapf(err, errors.GetErrorCode(err), "bundle %s", lf.File.Name()).
				WithDetail(errors.DetailFramework, lf.File.Name())
		}
		b := bridge.NewWithEngine(lf.File.Name(), lf.File.Description(), eng).WithObserver(observer)
		if err := frameworks.Override(b); err != nil {
			return engine.Stats{}, err
		}
	}

	selected, err := frameworks.Select(s.cfg.Rules.Frameworks)
	if err != nil {
		return engine.Stats{}, err
	}
	return bridge.ApplyAll(ctx, g, selected)
}

func printMarked(w io.Writer, g *graph.Memory) error {
	marked := g.FrameworkUsed()
	if len(marked) == 0 {
		fmt.Fprintln(w, MsgNoneMarked)
		return nil
	}
	rows := [][]string{{"Module", "Export"}}
	for _, key := range marked {
		module, export, _ := strings.Cut(key, "#")
		rows = append(rows, []string{module, styled("Marked", export)})
	}
	return renderTable(w, rows)
}

// writeGraph writes the snapshot to path, or to stdout for "-". An empty
// path writes nothing.
func writeGraph(stdout io.Writer, g *graph.Memory, path string) error {
	switch path {
	case "":
		return nil
	case "-":
		return g.WriteSnapshot(stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, errors.ErrIO, "failed to create %s", path).WithDetail(errors.DetailPath, path)
	}
	if err := g.WriteSnapshot(f); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return errors.Wrapf(err, errors.ErrIO, "failed to write %s", path).WithDetail(errors.DetailPath, path)
	}
	return nil
}

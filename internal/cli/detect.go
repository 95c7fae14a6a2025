package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/arthur-debert/danny/pkg/detection"
	"github.com/arthur-debert/danny/pkg/errors"
	"github.com/arthur-debert/danny/pkg/filesystem"
	"github.com/arthur-debert/danny/pkg/loader"
)

// sourceExtensions are the files whose paths count as detection evidence
var sourceExtensions = []string{"js", "jsx", "mjs", "cjs", "ts", "tsx", "vue", "svelte"}

type detectOptions struct {
	graph       string
	packageJSON string
	evidence    bool
}

func newDetectCmd(flags *globalFlags) *cobra.Command {
	opts := &detectOptions{}
	cmd := &cobra.Command{
		Use:     "detect",
		Short:   MsgDetectShort,
		GroupID: "core",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(flags)
			if err != nil {
				return err
			}
			results, err := runDetect(cmd.Context(), s, opts)
			if err != nil {
				return err
			}
			return printDetection(cmd, results, opts.evidence)
		},
	}
	cmd.Flags().StringVarP(&opts.graph, "graph", "g", "", MsgFlagGraph)
	cmd.Flags().StringVar(&opts.packageJSON, "package-json", "package.json", MsgFlagPackageJSON)
	cmd.Flags().BoolVar(&opts.evidence, "evidence", false, MsgFlagEvidence)
	return cmd
}

func runDetect(ctx context.Context, s *session, opts *detectOptions) ([]detection.Result, error) {
	files, err := s.loadFiles(ctx)
	if err != nil {
		return nil, err
	}
	d, err := detection.FromFiles(loader.Files(files))
	if err != nil {
		return nil, err
	}

	var inputs []detection.Input
	if opts.graph != "" {
		inputs, err = graphInputs(ctx, opts.graph)
	} else {
		inputs, err = treeInputs(s)
	}
	if err != nil {
		return nil, err
	}

	pkg, err := readPackageJSON(s.fs, opts.packageJSON)
	if err != nil {
		return nil, err
	}

	results, err := d.DetectProject(ctx, inputs, detection.ProjectOptions{
		Package: pkg,
		Workers: s.cfg.Detection.Workers,
	})
	if err != nil {
		return nil, err
	}

	var kept []detection.Result
	for _, r := range results {
		if r.Confidence >= s.cfg.Detection.MinConfidence {
			kept = append(kept, r)
		}
	}
	return kept, nil
}

// graphInputs turns each module of a snapshot into detection input
func graphInputs(ctx context.Context, path string) ([]detection.Input, error) {
	g, err := readGraph(path)
	if err != nil {
		return nil, err
	}
	modules, err := g.Modules(ctx)
	if err != nil {
		return nil, err
	}
	inputs := make([]detection.Input, 0, len(modules))
	for _, m := range modules {
		in := detection.Input{Path: m.Path}
		for _, imp := range m.Imports {
			in.Imports = append(in.Imports, imp.Source)
		}
		for _, exp := range m.Exports {
			in.Exports = append(in.Exports, exp.Name)
		}
		inputs = append(inputs, in)
	}
	return inputs, nil
}

// treeInputs uses the paths of project source files only
func treeInputs(s *session) ([]detection.Input, error) {
	found, err := s.fs.Discover(s.fs.Root(), filesystem.DiscoverOptions{
		Extensions:  sourceExtensions,
		MaxDepth:    s.cfg.EntryPoints.MaxDepth,
		ExcludeDirs: s.cfg.EntryPoints.ExcludeDirs,
	})
	if err != nil {
		return nil, err
	}
	inputs := make([]detection.Input, 0, len(found))
	for _, abs := range found {
		rel, err := filepath.Rel(s.fs.Root(), abs)
		if err != nil {
			continue
		}
		inputs = append(inputs, detection.Input{Path: filepath.ToSlash(rel)})
	}
	return inputs, nil
}

// readPackageJSON returns nil when the file does not exist
func readPackageJSON(fs filesystem.FS, path string) (*detection.PackageJSON, error) {
	if path == "" || !fs.Exists(path) {
		return nil, nil
	}
	data, err := fs.ReadFileLimited(path, 1024*1024)
	if err != nil {
		return nil, err
	}
	pkg, err := detection.ParsePackageJSON(data)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrParse, "%s", path).WithDetail(errors.DetailPath, path)
	}
	return pkg, nil
}

func printDetection(cmd *cobra.Command, results []detection.Result, evidence bool) error {
	out := cmd.OutOrStdout()
	if len(results) == 0 {
		fmt.Fprintln(out, MsgNoFrameworks)
		return nil
	}

	rows := [][]string{{"Framework", "Confidence", "Evidence"}}
	for _, r := range results {
		rows = append(rows, []string{
			r.Framework,
			styleConfidence(r.Confidence, fmt.Sprintf("%.2f", r.Confidence)),
			fmt.Sprintf("%d", len(r.Evidence)),
		})
	}
	if err := renderTable(out, rows); err != nil {
		return err
	}
	if !evidence {
		return nil
	}

	for _, r := range results {
		fmt.Fprintf(out, "\n%s\n", formatBold(r.Framework))
		for _, ev := range r.Evidence {
			line := fmt.Sprintf("  %-28s %.2f", ev.Rule, ev.Weight)
			if ev.Context != "" {
				line += "  " + strings.TrimSpace(ev.Context)
			}
			fmt.Fprintln(out, line)
		}
	}
	return nil
}

package detection

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/arthur-debert/danny/pkg/logging"
)

// MaxWorkers caps DetectProject concurrency
const MaxWorkers = 32

// Input is one file's worth of detection data
type Input struct {
	Path    string
	Imports []string
	Exports []string
}

// ProjectOptions configures DetectProject
type ProjectOptions struct {
	// Package adds package.json evidence when set
	Package *PackageJSON
	// Workers defaults to GOMAXPROCS
	Workers int
}

// DetectProject gathers evidence from every input concurrently and
// finalizes once. Evidence order, and so the result, does not depend on
// scheduling.
func (d *Detector) DetectProject(ctx context.Context, inputs []Input, opts ProjectOptions) ([]Result, error) {
	logger := logging.GetLogger("detection.project")
	done := logging.LogOperationStart(logger, "detect_project")
	defer done()

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > MaxWorkers {
		workers = MaxWorkers
	}

	perInput := make([][]Evidence, len(inputs))
	sem := semaphore.NewWeighted(int64(workers))
	g, gCtx := errgroup.WithContext(ctx)

	for i := range inputs {
		i := i
		g.Go(func() error {
			if err := sem.Acquire(gCtx, 1); err != nil {
				return err
			}
			defer sem.Release(1)

			in := inputs[i]
			var ev []Evidence
			ev = append(ev, d.importEvidence(in.Imports)...)
			ev = append(ev, d.exportEvidence(in.Exports)...)
			if in.Path != "" {
				ev = append(ev, d.pathEvidence(in.Path)...)
			}
			perInput[i] = ev
			return gCtx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []Evidence
	if opts.Package != nil {
		all = append(all, d.packageEvidence(opts.Package.AllDependencies(), opts.Package.Scripts)...)
	}
	for _, ev := range perInput {
		all = append(all, ev...)
	}

	results := d.Finalize(all)
	logger.Debug().Int("inputs", len(inputs)).Int("frameworks", len(results)).Msg("Project detection complete")
	return results, nil
}

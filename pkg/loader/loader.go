// Package loader discovers, parses and validates rule files from layered
// sources: embedded built-ins, an optional built-in directory, the user
// config directory and the project's .danny/rules directory.
//
// Any invalid file aborts the whole load. Rules from all sources are
// merged and sorted by priority descending then name ascending; the
// source only decides the order files are read in.
package loader

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/arthur-debert/danny/pkg/constants"
	"github.com/arthur-debert/danny/pkg/detection"
	"github.com/arthur-debert/danny/pkg/errors"
	"github.com/arthur-debert/danny/pkg/filesystem"
	"github.com/arthur-debert/danny/pkg/logging"
	"github.com/arthur-debert/danny/pkg/matchers"
	"github.com/arthur-debert/danny/pkg/rules"
)

// Source is the tier a rule file came from
type Source int

const (
	SourceBuiltin Source = iota
	SourceUser
	SourceProject
)

func (s Source) String() string {
	switch s {
	case SourceBuiltin:
		return "builtin"
	case SourceUser:
		return "user"
	case SourceProject:
		return "project"
	}
	return "unknown"
}

// LoadedFile is a validated rule file and its tier
type LoadedFile struct {
	File   *rules.File
	Source Source
}

// Options selects sources and limits. Zero limits use the package defaults.
type Options struct {
	// Embedded files are trusted built-ins and are validated like any other
	Embedded []*rules.File

	// BuiltinDir is read through the project filesystem; skipped when outside its root
	BuiltinDir string

	// UserDir is read through its own OS filesystem, only when the project filesystem is native
	UserDir string

	// ProjectDir defaults to .danny/rules under the project root
	ProjectDir string

	MaxFileSize int64
	MaxDepth    int
	Workers     int
}

// Loader loads rule files for one project
type Loader struct {
	fs   filesystem.FS
	opts Options
}

// New creates a loader over the project filesystem
func New(fs filesystem.FS, opts Options) *Loader {
	if opts.ProjectDir == "" {
		opts.ProjectDir = constants.ProjectRulesDir
	}
	if opts.MaxFileSize <= 0 {
		opts.MaxFileSize = constants.MaxRuleFileSize
	}
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = constants.MaxDirectoryDepth
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	return &Loader{fs: fs, opts: opts}
}

type pending struct {
	fs     filesystem.FS
	path   string
	source Source
}

// LoadFiles returns every validated rule file in tier order
func (l *Loader) LoadFiles(ctx context.Context) ([]LoadedFile, error) {
	logger := logging.GetLogger("loader")
	done := logging.LogOperationStart(logger, "load_rule_files")
	defer done()

	var loaded []LoadedFile
	for _, f := range l.opts.Embedded {
		if err := Validate(f); err != nil {
			return nil, err
		}
		loaded = append(loaded, LoadedFile{File: f, Source: SourceBuiltin})
	}

	var queue []pending
	if l.opts.BuiltinDir != "" {
		found, err := l.discover(l.fs, l.opts.BuiltinDir)
		if err != nil {
			return nil, err
		}
		queue = appendPending(queue, l.fs, found, SourceBuiltin)
	}

	if l.opts.UserDir != "" {
		if !l.fs.IsNative() {
			logger.Debug().Str("dir", l.opts.UserDir).Msg("Skipping user rules on non-native filesystem")
		} else {
			userFS, err := filesystem.NewOS(l.opts.UserDir)
			if err != nil {
				return nil, errors.Wrap(err, errors.ErrLoad, "failed to open user rules directory").
					WithDetail(errors.DetailPath, l.opts.UserDir)
			}
			found, err := l.discover(userFS, userFS.Root())
			if err != nil {
				return nil, err
			}
			queue = appendPending(queue, userFS, found, SourceUser)
		}
	}

	found, err := l.discover(l.fs, l.opts.ProjectDir)
	if err != nil {
		return nil, err
	}
	queue = appendPending(queue, l.fs, found, SourceProject)

	parsed, err := l.parseAll(ctx, queue)
	if err != nil {
		return nil, err
	}
	loaded = append(loaded, parsed...)

	logger.Info().Int("files", len(loaded)).Msg("Rule files loaded")
	return loaded, nil
}

// LoadAll returns every rule from every source, sorted by priority
// descending then name ascending
func (l *Loader) LoadAll(ctx context.Context) ([]rules.Rule, error) {
	files, err := l.LoadFiles(ctx)
	if err != nil {
		return nil, err
	}
	return MergeRules(files), nil
}

// MergeRules flattens and sorts the rules of files
func MergeRules(files []LoadedFile) []rules.Rule {
	var all []rules.Rule
	for _, lf := range files {
		all = append(all, lf.File.Rules...)
	}
	rules.SortRules(all)
	return all
}

// Files strips the tier from loaded files
func Files(loaded []LoadedFile) []*rules.File {
	out := make([]*rules.File, len(loaded))
	for i, lf := range loaded {
		out[i] = lf.File
	}
	return out
}

func appendPending(queue []pending, fs filesystem.FS, paths []string, source Source) []pending {
	for _, p := range paths {
		queue = append(queue, pending{fs: fs, path: p, source: source})
	}
	return queue
}

// discover lists rule files under dir. A dir outside the filesystem root
// is skipped rather than failing the load.
func (l *Loader) discover(fs filesystem.FS, dir string) ([]string, error) {
	logger := logging.GetLogger("loader.discover")

	if _, err := fs.Normalize(dir); err != nil {
		logger.Debug().Str("dir", dir).Str("root", fs.Root()).Msg("Rules directory outside root, skipping")
		return nil, nil
	}

	found, err := fs.Discover(dir, filesystem.DiscoverOptions{
		Extensions:  constants.RuleFileExtensions,
		MaxFileSize: l.opts.MaxFileSize,
		MaxDepth:    l.opts.MaxDepth,
	})
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrLoad, "failed to discover rules in %s", dir).
			WithDetail(errors.DetailPath, dir)
	}
	logger.Debug().Str("dir", dir).Int("files", len(found)).Msg("Discovered rule files")
	return found, nil
}

// parseAll reads and validates files concurrently, keeping queue order
func (l *Loader) parseAll(ctx context.Context, queue []pending) ([]LoadedFile, error) {
	out := make([]LoadedFile, len(queue))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(l.opts.Workers)

	for i := range queue {
		i := i
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			p := queue[i]
			f, err := l.loadFile(p.fs, p.path)
			if err != nil {
				return err
			}
			out[i] = LoadedFile{File: f, Source: p.source}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// LoadFile reads and validates a single rule file from the project filesystem
func (l *Loader) LoadFile(path string) (*rules.File, error) {
	return l.loadFile(l.fs, path)
}

func (l *Loader) loadFile(fs filesystem.FS, path string) (*rules.File, error) {
	format, ok := rules.FormatFromPath(path)
	if !ok {
		return nil, errors.Newf(errors.ErrLoad, "unsupported rule file %s", path).WithDetail(errors.DetailPath, path)
	}

	data, err := fs.ReadFileLimited(path, l.opts.MaxFileSize)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrLoad, "failed to read %s", path).WithDetail(errors.DetailPath, path)
	}

	f, err := rules.Parse(data, format)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrLoad, "failed to parse %s", path).WithDetail(errors.DetailPath, path)
	}
	f.Path = path

	if err := Validate(f); err != nil {
		return nil, err
	}
	return f, nil
}

// Validate re-checks every pattern of f so that no file, trusted or not,
// reaches the engine with an unbounded regex
func Validate(f *rules.File) error {
	for _, r := range f.Rules {
		if err := matchers.Validate(r.Match); err != nil {
			return errors.Wrapf(err, errors.ErrLoad, "invalid rule %s in %s", r.Name, describe(f)).
				WithDetail(errors.DetailPath, f.Path).
				WithDetail(errors.DetailRule, r.Name)
		}
	}
	if f.Framework != nil {
		if _, err := detection.New([]rules.FrameworkMetadata{*f.Framework}); err != nil {
			return errors.Wrapf(err, errors.ErrLoad, "invalid detection rules in %s", describe(f)).
				WithDetail(errors.DetailPath, f.Path)
		}
	}
	return nil
}

func describe(f *rules.File) string {
	if f.Path != "" {
		return f.Path
	}
	if name := f.Name(); name != "" {
		return name
	}
	return "<inline>"
}

package cli

import (
	"context"
	"os"
	"sort"
	"strings"

	"github.com/arthur-debert/danny/pkg/builtin"
	"github.com/arthur-debert/danny/pkg/config"
	"github.com/arthur-debert/danny/pkg/errors"
	"github.com/arthur-debert/danny/pkg/filesystem"
	"github.com/arthur-debert/danny/pkg/graph"
	"github.com/arthur-debert/danny/pkg/loader"
	"github.com/arthur-debert/danny/pkg/logging"
	"github.com/arthur-debert/danny/pkg/matchers"
	"github.com/arthur-debert/danny/pkg/paths"
)

// globalFlags are the persistent flags shared by every command
type globalFlags struct {
	verbosity  int
	root       string
	noBuiltin  bool
	noUser     bool
	frameworks []string
}

// overrides turns explicitly set flags into config keys
func (g *globalFlags) overrides() map[string]interface{} {
	out := map[string]interface{}{}
	if g.noBuiltin {
		out["rules.builtin"] = false
	}
	if g.noUser {
		out["rules.user"] = false
	}
	if len(g.frameworks) > 0 {
		out["rules.frameworks"] = g.frameworks
	}
	return out
}

// session is the resolved environment of one command run
type session struct {
	paths *paths.Paths
	cfg   *config.Config
	fs    filesystem.FS
}

func newSession(flags *globalFlags) (*session, error) {
	p, err := paths.New(flags.root)
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(p.ProjectRoot(), flags.overrides())
	if err != nil {
		return nil, err
	}
	fs, err := filesystem.NewOS(p.ProjectRoot())
	if err != nil {
		return nil, err
	}
	if flags.verbosity == 0 && cfg.Logging.Verbosity > 0 {
		logging.SetupLogger(cfg.Logging.Verbosity)
	}
	logger := logging.GetLogger("cli")
	logger.Debug().Str("root", p.ProjectRoot()).Msg("Session ready")
	return &session{paths: p, cfg: cfg, fs: fs}, nil
}

func (s *session) loader() (*loader.Loader, error) {
	opts := loader.Options{
		ProjectDir:  s.cfg.Rules.Dir,
		BuiltinDir:  s.paths.BuiltinRulesDir(),
		MaxFileSize: s.cfg.Rules.MaxFileSize,
		MaxDepth:    s.cfg.Rules.MaxDepth,
		Workers:     s.cfg.Rules.Workers,
	}
	if opts.BuiltinDir == "" {
		opts.BuiltinDir = s.cfg.Rules.BuiltinDir
	}
	if s.cfg.Rules.Builtin {
		files, err := builtin.Files()
		if err != nil {
			return nil, err
		}
		opts.Embedded = files
	}
	if s.cfg.Rules.User {
		opts.UserDir = s.paths.UserRulesDir()
	}
	return loader.New(s.fs, opts), nil
}

// loadFiles loads every reachable rule file, narrowed to the selected frameworks
func (s *session) loadFiles(ctx context.Context) ([]loader.LoadedFile, error) {
	l, err := s.loader()
	if err != nil {
		return nil, err
	}
	files, err := l.LoadFiles(ctx)
	if err != nil {
		return nil, err
	}
	return selectFiles(files, s.cfg.Rules.Frameworks)
}

// selectFiles keeps files whose name is in names. Empty names keeps all.
func selectFiles(files []loader.LoadedFile, names []string) ([]loader.LoadedFile, error) {
	if len(names) == 0 {
		return files, nil
	}
	available := map[string]bool{}
	for _, lf := range files {
		available[lf.File.Name()] = true
	}
	wanted := map[string]bool{}
	for _, name := range names {
		if !available[name] {
			return nil, errors.Newf(errors.ErrInvalidInput, MsgUnknownBundles, name, strings.Join(sortedKeys(available), ", ")).
				WithDetail(errors.DetailFramework, name)
		}
		wanted[name] = true
	}

	var out []loader.LoadedFile
	for _, lf := range files {
		if wanted[lf.File.Name()] {
			out = append(out, lf)
		}
	}
	return out, nil
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// matcherOptions reads content_pattern files through the project filesystem with a cache
func (s *session) matcherOptions() (matchers.Options, error) {
	src := matchers.NewFSContentSource(s.fs, s.cfg.Content.MaxSize)
	if s.cfg.Content.CacheEntries > 0 {
		cached, err := matchers.NewCachedContentSource(src, s.cfg.Content.CacheEntries)
		if err != nil {
			return matchers.Options{}, err
		}
		src = cached
	}
	return matchers.Options{Content: src}, nil
}

// readGraph loads a snapshot from path, relative to the working directory
func readGraph(path string) (*graph.Memory, error) {
	if path == "" {
		return nil, errors.New(errors.ErrInvalidInput, "a graph snapshot is required (--graph)")
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrIO, "failed to open %s", path).WithDetail(errors.DetailPath, path)
	}
	defer func() { _ = f.Close() }()

	g, err := graph.ReadSnapshot(f)
	if err != nil {
		return nil, errors.Wrapf(err, errors.GetErrorCode(err), "graph %s", path).WithDetail(errors.DetailPath, path)
	}
	return g, nil
}

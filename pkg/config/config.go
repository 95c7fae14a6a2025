package config

import (
	_ "embed"
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/arthur-debert/danny/pkg/constants"
	"github.com/arthur-debert/danny/pkg/errors"
	"github.com/arthur-debert/danny/pkg/logging"
)

//go:embed embedded/defaults.toml
var defaultConfig []byte

// Config is the fully resolved configuration
type Config struct {
	Rules       Rules       `koanf:"rules"`
	Detection   Detection   `koanf:"detection"`
	Content     Content     `koanf:"content"`
	EntryPoints EntryPoints `koanf:"entry_points"`
	Logging     Logging     `koanf:"logging"`
}

// Rules controls rule loading
type Rules struct {
	// Builtin includes the embedded bundles
	Builtin bool `koanf:"builtin"`

	// User includes the per-user rules directory
	User bool `koanf:"user"`

	// Dir is the project rules directory, relative to the project root
	Dir string `koanf:"dir"`

	// BuiltinDir holds extra rule files loaded at the built-in tier
	BuiltinDir string `koanf:"builtin_dir"`

	MaxFileSize int64 `koanf:"max_file_size"`
	MaxDepth    int   `koanf:"max_depth"`
	Workers     int   `koanf:"workers"`

	// Frameworks selects bundles to apply. Empty runs every default bundle.
	Frameworks []string `koanf:"frameworks"`
}

// Detection controls framework detection
type Detection struct {
	Workers       int     `koanf:"workers"`
	MinConfidence float64 `koanf:"min_confidence"`
}

// Content controls content_pattern reads
type Content struct {
	MaxSize      int64 `koanf:"max_size"`
	CacheEntries int   `koanf:"cache_entries"`
}

// EntryPoints controls entry point discovery
type EntryPoints struct {
	MaxDepth    int      `koanf:"max_depth"`
	ExcludeDirs []string `koanf:"exclude_dirs"`
}

// Logging controls log verbosity when no -v flag is given
type Logging struct {
	Verbosity int `koanf:"verbosity"`
}

// projectFiles are tried in order; only the first one found is loaded
var projectFiles = []struct {
	name   string
	parser koanf.Parser
}{
	{constants.ProjectConfigFile, toml.Parser()},
	{".danny.yaml", yaml.Parser()},
	{".danny.yml", yaml.Parser()},
}

// rawBytesProvider feeds embedded bytes to koanf
type rawBytesProvider struct{ bytes []byte }

func (r *rawBytesProvider) ReadBytes() ([]byte, error) { return r.bytes, nil }
func (r *rawBytesProvider) Read() (map[string]interface{}, error) {
	return nil, stderrors.New("not implemented")
}

// Default returns the embedded defaults
func Default() *Config {
	cfg, err := Load("", nil)
	if err != nil {
		panic("invalid embedded defaults: " + err.Error())
	}
	return cfg
}

// Load resolves the configuration for projectRoot. An empty projectRoot
// skips the project file. overrides use dotted keys such as "rules.max_depth".
func Load(projectRoot string, overrides map[string]interface{}) (*Config, error) {
	logger := logging.GetLogger("config")
	k := koanf.New(".")

	if err := k.Load(&rawBytesProvider{bytes: defaultConfig}, toml.Parser()); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigLoad, "failed to load defaults")
	}

	if projectRoot != "" {
		for _, candidate := range projectFiles {
			path := filepath.Join(projectRoot, candidate.name)
			if _, err := os.Stat(path); err != nil {
				continue
			}
			if err := k.Load(file.Provider(path), candidate.parser); err != nil {
				return nil, errors.Wrapf(err, errors.ErrConfigParse, "failed to load %s", path).
					WithDetail(errors.DetailPath, path)
			}
			logger.Debug().Str("path", path).Msg("Loaded project config")
			break
		}
	}

	if err := k.Load(env.Provider(constants.EnvPrefix, ".", envKey), nil); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigLoad, "failed to load environment")
	}

	if len(overrides) > 0 {
		if err := k.Load(confmap.Provider(overrides, "."), nil); err != nil {
			return nil, errors.Wrap(err, errors.ErrConfigLoad, "failed to apply overrides")
		}
	}

	var cfg Config
	unmarshalConf := koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           &cfg,
			WeaklyTypedInput: true,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToSliceHookFunc(","),
			),
		},
	}
	if err := k.UnmarshalWithConf("", &cfg, unmarshalConf); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigParse, "failed to decode configuration")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// envKey maps DANNY_RULES__MAX_DEPTH to rules.max_depth. Variables
// without a section separator, such as DANNY_RULES_DIR, map to top level
// keys that no section reads.
func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, constants.EnvPrefix))
	return strings.ReplaceAll(key, "__", ".")
}

// Validate rejects values the loaders cannot honor
func (c *Config) Validate() error {
	switch {
	case c.Rules.MaxFileSize <= 0:
		return invalid("rules.max_file_size", c.Rules.MaxFileSize)
	case c.Rules.MaxDepth <= 0:
		return invalid("rules.max_depth", c.Rules.MaxDepth)
	case c.Rules.Workers < 0:
		return invalid("rules.workers", c.Rules.Workers)
	case c.Detection.Workers < 0:
		return invalid("detection.workers", c.Detection.Workers)
	case c.Detection.MinConfidence < 0 || c.Detection.MinConfidence > 1:
		return invalid("detection.min_confidence", c.Detection.MinConfidence)
	case c.Content.MaxSize <= 0:
		return invalid("content.max_size", c.Content.MaxSize)
	case c.Content.CacheEntries < 0:
		return invalid("content.cache_entries", c.Content.CacheEntries)
	case c.EntryPoints.MaxDepth <= 0:
		return invalid("entry_points.max_depth", c.EntryPoints.MaxDepth)
	}
	return nil
}

func invalid(field string, value interface{}) error {
	return errors.Newf(errors.ErrConfigParse, "invalid value %v for %s", value, field).
		WithDetail(errors.DetailField, field).
		WithDetail(errors.DetailValue, value)
}

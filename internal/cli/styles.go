package cli

import (
	_ "embed"

	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"

	"github.com/arthur-debert/danny/pkg/loader"
)

// colorDef is an adaptive color in styles.yaml
type colorDef struct {
	Light string `yaml:"light"`
	Dark  string `yaml:"dark"`
}

// styleDef is a style in styles.yaml. Foreground names a color.
type styleDef struct {
	Bold       bool   `yaml:"bold,omitempty"`
	Italic     bool   `yaml:"italic,omitempty"`
	Foreground string `yaml:"foreground,omitempty"`
}

type stylesConfig struct {
	Colors map[string]colorDef `yaml:"colors"`
	Styles map[string]styleDef `yaml:"styles"`
}

//go:embed styles.yaml
var embeddedStyles []byte

// styleRegistry maps semantic names to lipgloss styles
var styleRegistry = loadStyles(embeddedStyles)

// loadStyles builds the registry. Bad data yields an empty registry,
// which renders everything unstyled.
func loadStyles(data []byte) map[string]lipgloss.Style {
	var cfg stylesConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return map[string]lipgloss.Style{}
	}

	out := make(map[string]lipgloss.Style, len(cfg.Styles))
	for name, def := range cfg.Styles {
		s := lipgloss.NewStyle().Bold(def.Bold).Italic(def.Italic)
		if c, ok := cfg.Colors[def.Foreground]; ok {
			s = s.Foreground(lipgloss.AdaptiveColor{Light: c.Light, Dark: c.Dark})
		} else if def.Foreground != "" {
			s = s.Foreground(lipgloss.Color(def.Foreground))
		}
		out[name] = s
	}
	return out
}

// styled renders text with the named style, or plain when unknown
func styled(name, text string) string {
	s, ok := styleRegistry[name]
	if !ok {
		return text
	}
	return s.Render(text)
}

func styleConfidence(c float64, text string) string {
	switch {
	case c >= 0.8:
		return styled("High", text)
	case c >= 0.4:
		return styled("Medium", text)
	default:
		return styled("Low", text)
	}
}

func styleSource(src loader.Source) string {
	switch src {
	case loader.SourceUser:
		return styled("User", src.String())
	case loader.SourceProject:
		return styled("Project", src.String())
	default:
		return styled("Builtin", src.String())
	}
}

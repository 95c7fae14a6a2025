package cli

import (
	"io"
	"os"
	"strings"
	"text/template"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/arthur-debert/danny/pkg/errors"
)

func isTerminal() bool {
	fd := os.Stdout.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// configureStyling turns off colors when stdout is not a terminal or
// NO_COLOR is set
func configureStyling() {
	if !isTerminal() || termenv.EnvNoColor() {
		pterm.DisableStyling()
		lipgloss.SetColorProfile(termenv.Ascii)
	}
}

func formatBold(s string) string {
	if !isTerminal() {
		return s
	}
	return pterm.Bold.Sprint(s)
}

func formatBoldUpper(s string) string {
	return formatBold(strings.ToUpper(s))
}

// initTemplateFormatting adds formatting functions to cobra templates
func initTemplateFormatting() {
	cobra.AddTemplateFuncs(template.FuncMap{
		"bold":      formatBold,
		"upper":     strings.ToUpper,
		"boldUpper": formatBoldUpper,
	})
}

// renderTable writes rows with the first row as header
func renderTable(w io.Writer, rows [][]string) error {
	out, err := pterm.DefaultTable.WithHasHeader().WithData(pterm.TableData(rows)).Srender()
	if err != nil {
		return errors.Wrap(err, errors.ErrInternal, "failed to render table")
	}
	_, err = io.WriteString(w, out+"\n")
	return err
}

// RenderError formats err for the terminal, showing the code and details of coded errors
func RenderError(err error) string {
	if err == nil {
		return ""
	}
	code := errors.GetErrorCode(err)
	if code == errors.ErrUnknown {
		return pterm.Error.Sprint(err.Error())
	}

	var b strings.Builder
	b.WriteString(pterm.Error.Sprintf("[%s] %s", code, err.Error()))
	details := errors.GetErrorDetails(err)
	for _, key := range []string{errors.DetailPath, errors.DetailRule, errors.DetailFramework, errors.DetailField, errors.DetailValue, errors.DetailLimit, errors.DetailLine} {
		if v, ok := details[key]; ok {
			b.WriteString("\n  " + styled("DetailKey", key) + ": ")
			b.WriteString(pterm.Sprint(v))
		}
	}
	return b.String()
}

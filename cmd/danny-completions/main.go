package main

import (
	"fmt"
	"io"
	"os"

	"github.com/arthur-debert/danny/internal/cli"
)

// generators writes the completion script for each supported shell
var generators = map[string]func(w io.Writer) error{
	"bash": func(w io.Writer) error { return cli.NewRootCmd().GenBashCompletionV2(w, true) },
	"zsh":  func(w io.Writer) error { return cli.NewRootCmd().GenZshCompletion(w) },
	"fish": func(w io.Writer) error { return cli.NewRootCmd().GenFishCompletion(w, true) },
	"powershell": func(w io.Writer) error {
		return cli.NewRootCmd().GenPowerShellCompletionWithDesc(w)
	},
}

func main() {
	if len(os.Args) < 2 || len(os.Args) > 3 {
		fmt.Fprintf(os.Stderr, "Usage: %s <bash|zsh|fish|powershell> [output-file]\n", os.Args[0])
		os.Exit(1)
	}

	shell := os.Args[1]
	gen, ok := generators[shell]
	if !ok {
		fmt.Fprintf(os.Stderr, "Unknown shell: %s\n", shell)
		fmt.Fprintf(os.Stderr, "Supported shells: bash, zsh, fish, powershell\n")
		os.Exit(1)
	}

	var out io.Writer = os.Stdout
	if len(os.Args) == 3 {
		f, err := os.Create(os.Args[2])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating %s: %v\n", os.Args[2], err)
			os.Exit(1)
		}
		defer func() { _ = f.Close() }()
		out = f
	}

	if err := gen(out); err != nil {
		fmt.Fprintf(os.Stderr, "Error generating %s completion: %v\n", shell, err)
		os.Exit(1)
	}
}

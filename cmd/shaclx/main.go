// Command shaclx converts schemas to SHACL shapes, maps tree-structured data
// to RDF and validates data graphs against shapes.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/geoknoesis/shacl-go/transform"
)

const (
	Version = "0.1.0"
	appName = "shaclx"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()
	os.Exit(execute(os.Args[1:], os.Stdout, os.Stderr))
}

// execute runs the command line and returns the process exit status.
func execute(args []string, stdout, stderr io.Writer) int {
	cmd := rootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := cmd.ExecuteContext(ctx); err != nil {
		var nc *nonConformingError
		if errors.As(err, &nc) {
			return 2
		}
		code := transform.Code(err)
		if code == transform.ErrCodeInternal {
			_, _ = fmt.Fprintf(stderr, "error: %v\n", err)
		} else {
			_, _ = fmt.Fprintf(stderr, "error [%s]: %v\n", code, err)
		}
		return 1
	}
	return 0
}

func rootCmd() *cobra.Command {
	a := &app{}
	cmd := &cobra.Command{
		Use:   appName,
		Short: "SHACL schema transformation toolkit",
		Long: `shaclx converts OWL ontologies and JSON Schema style documents into SHACL
shapes graphs, maps JSON and YAML data into RDF, and validates RDF data
against shapes.

Rule-based conversion is deterministic. Paths that start from free text
(markdown, HTML, DOCX) need the Gemini-backed transformer, enabled with
--ai and an API key in GEMINI_API_KEY or GOOGLE_API_KEY.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "config file (default: shaclx.yaml in this or a parent directory)")
	cmd.PersistentFlags().StringVar(&a.namespace, "namespace", "", "base namespace for minted identifiers")
	cmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level (debug, info, warn, error)")

	cmd.AddCommand(
		convertCmd(a),
		createCmd(a),
		applyCmd(a),
		validateCmd(a),
		generateCmd(a),
		serveCmd(a),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, _ []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s version %s\n", appName, Version)
			},
		},
	)
	return cmd
}

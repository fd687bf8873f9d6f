package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/geoknoesis/shacl-go/format"
	"github.com/geoknoesis/shacl-go/report"
)

const watchDebounce = 200 * time.Millisecond

// nonConformingError makes validate exit with status 2 under
// --fail-on-violation.
type nonConformingError struct{ violations int }

func (e *nonConformingError) Error() string {
	return fmt.Sprintf("data does not conform (%d results)", e.violations)
}

type validateOptions struct {
	output    string
	format    string
	inference string
	watch     bool
	strict    bool
}

func validateCmd(a *app) *cobra.Command {
	var opts validateOptions
	cmd := &cobra.Command{
		Use:   "validate DATA SHAPES",
		Short: "Validate an RDF data graph against a shapes graph",
		Long: `Validate DATA against SHAPES and print the report as markdown, JSON or the
raw Turtle result graph. --watch re-runs validation whenever either file
changes.`,
		Example: `  shaclx validate people.ttl person-shapes.ttl
  shaclx validate people.ttl person-shapes.ttl --format json --inference owlrl
  shaclx validate people.ttl person-shapes.ttl --watch`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.setup(cmd, nil); err != nil {
				return err
			}
			switch opts.format {
			case "markdown", "json", "turtle":
			default:
				return fmt.Errorf("%w: report format %q (want markdown, json or turtle)", format.ErrUnsupportedFormat, opts.format)
			}
			mode, err := parseInference(opts.inference)
			if err != nil {
				return err
			}
			if opts.watch {
				return a.watch(cmd, args[0], args[1], mode, opts)
			}
			r, err := a.validateOnce(cmd.Context(), args[0], args[1], mode)
			if err != nil {
				return err
			}
			if err := a.emitReport(cmd, r, opts); err != nil {
				return err
			}
			if opts.strict && !r.Conforms {
				return &nonConformingError{violations: len(r.Violations)}
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "write the report to a file")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "markdown", "report format: markdown, json or turtle")
	cmd.Flags().StringVar(&opts.inference, "inference", "", "inference mode: none, rdfs or owlrl (default from config)")
	cmd.Flags().BoolVarP(&opts.watch, "watch", "w", false, "re-validate when DATA or SHAPES change")
	cmd.Flags().BoolVar(&opts.strict, "fail-on-violation", false, "exit with status 2 when the data does not conform")
	return cmd
}

func (a *app) validateOnce(ctx context.Context, dataPath, shapesPath string, mode report.InferenceMode) (*report.Report, error) {
	data, err := a.loadGraph(ctx, dataPath, "")
	if err != nil {
		return nil, err
	}
	shapesGraph, err := a.loadGraph(ctx, shapesPath, "")
	if err != nil {
		return nil, err
	}
	return a.engine.ValidateData(ctx, data, shapesGraph, mode)
}

func (a *app) renderReport(ctx context.Context, w io.Writer, r *report.Report, kind string) error {
	switch kind {
	case "json":
		data, err := json.MarshalIndent(r, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(w, "%s\n", data)
		return err
	case "turtle":
		return a.engine.Save(ctx, w, r.Graph, format.Turtle)
	}
	_, err := io.WriteString(w, report.FormatMarkdown(*r))
	return err
}

func (a *app) emitReport(cmd *cobra.Command, r *report.Report, opts validateOptions) error {
	if opts.output == "" {
		return a.renderReport(cmd.Context(), cmd.OutOrStdout(), r, opts.format)
	}
	var buf bytes.Buffer
	if err := a.renderReport(cmd.Context(), &buf, r, opts.format); err != nil {
		return err
	}
	if err := os.WriteFile(opts.output, buf.Bytes(), 0o644); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Validation report saved: %s\n", opts.output)
	return nil
}

// watch validates once, then again after every debounced change to either
// file, until the context ends. Failures are reported and watching goes
// on.
func (a *app) watch(cmd *cobra.Command, dataPath, shapesPath string, mode report.InferenceMode, opts validateOptions) error {
	ctx := cmd.Context()
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fsw.Close()

	targets := make(map[string]bool)
	dirs := make(map[string]bool)
	for _, p := range []string{dataPath, shapesPath} {
		abs, err := filepath.Abs(p)
		if err != nil {
			return err
		}
		targets[abs] = true
		dirs[filepath.Dir(abs)] = true
	}
	// directories, not files: editors replace files on save
	for dir := range dirs {
		if err := fsw.Add(dir); err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
	}

	run := func() {
		r, err := a.validateOnce(ctx, dataPath, shapesPath, mode)
		if err != nil {
			a.logger.Error("validation failed", slog.String("error", err.Error()))
			return
		}
		if err := a.emitReport(cmd, r, opts); err != nil {
			a.logger.Error("writing report failed", slog.String("error", err.Error()))
		}
	}
	run()
	a.logger.Info("watching for changes", slog.String("data", dataPath), slog.String("shapes", shapesPath))

	timer := time.NewTimer(watchDebounce)
	timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if !targets[filepath.Clean(event.Name)] || event.Has(fsnotify.Chmod) && !event.Has(fsnotify.Write) {
				continue
			}
			a.logger.Debug("file change detected", slog.String("path", event.Name), slog.String("op", event.Op.String()))
			timer.Reset(watchDebounce)
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			a.logger.Error("watcher error", slog.String("error", err.Error()))
		case <-timer.C:
			run()
		}
	}
}

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/geoknoesis/shacl-go/ai"
	"github.com/geoknoesis/shacl-go/config"
	"github.com/geoknoesis/shacl-go/format"
	"github.com/geoknoesis/shacl-go/namespace"
	"github.com/geoknoesis/shacl-go/rdf"
	"github.com/geoknoesis/shacl-go/report"
	"github.com/geoknoesis/shacl-go/shacl"
	"github.com/geoknoesis/shacl-go/transform"
)

// app holds what every subcommand shares: flags, configuration, logger
// and the engine.
type app struct {
	configPath string
	namespace  string
	logLevel   string

	cfg    *config.Config
	logger *slog.Logger
	engine *transform.Engine
}

// aiFlags are the --ai / --no-ai switches of commands with an intelligent
// path.
type aiFlags struct {
	on  bool
	off bool
}

func (f *aiFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.on, "ai", false, "use the intelligent transformer")
	cmd.Flags().BoolVar(&f.off, "no-ai", false, "never use the intelligent transformer")
	cmd.MarkFlagsMutuallyExclusive("ai", "no-ai")
}

// enabled resolves the switches against ai.enabled.
func (f *aiFlags) enabled(cfg *config.Config) bool {
	switch {
	case f.off:
		return false
	case f.on:
		return true
	}
	return cfg.AI.Enabled
}

// setup loads configuration and builds the engine. The transformer is
// created only when flags resolve to enabled; a missing API key leaves it
// out so the engine reports it as unavailable.
func (a *app) setup(cmd *cobra.Command, flags *aiFlags, extra ...transform.Option) error {
	cfg, err := config.NewLoader(nil).Load(a.configPath)
	if err != nil {
		return err
	}
	if a.namespace != "" {
		cfg.Namespace = a.namespace
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = cfg.NewLogger(cmd.ErrOrStderr())
	slog.SetDefault(a.logger)

	mode, err := cfg.InferenceMode()
	if err != nil {
		return err
	}
	opts := append([]transform.Option{transform.WithLogger(a.logger)}, extra...)
	if flags != nil && flags.enabled(cfg) {
		if t := a.transformer(cmd.Context()); t != nil {
			opts = append(opts, transform.WithTransformer(t))
		}
	}
	a.engine, err = transform.New(transform.Settings{
		Namespace:     namespace.Namespace(cfg.Namespace),
		Disambiguate:  cfg.Identifiers.Disambiguate,
		Inference:     mode,
		MaxDepth:      cfg.Limits.MaxDepth,
		MaxTriples:    cfg.Limits.MaxTriples,
		MaxInputBytes: cfg.Limits.MaxInputBytes,
	}, shacl.New(shacl.WithLogger(a.logger)), opts...)
	return err
}

func (a *app) transformer(ctx context.Context) transform.Transformer {
	g, err := ai.NewGemini(ctx, a.cfg.AI.APIKey, a.cfg.AI.Model, a.logger)
	if err != nil {
		a.logger.Warn("intelligent transformer disabled", slog.String("error", err.Error()))
		return nil
	}
	return g
}

// aiContext bounds intelligent calls by ai.timeout.
func (a *app) aiContext(ctx context.Context, useAI bool) (context.Context, context.CancelFunc) {
	if !useAI || a.cfg.AI.Timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, a.cfg.AI.Timeout)
}

// outputFormat picks the output format: the explicit flag, then the
// output file's extension when it names a writable RDF format, then the
// configured default.
func (a *app) outputFormat(flag, output string) (format.Canonical, error) {
	if flag != "" {
		return format.Resolve(flag), nil
	}
	if output != "" {
		if c := format.FromPath(output); c.IsRDF() {
			if rf, _ := format.RDF(c); rf.CanWrite() {
				return c, nil
			}
		}
	}
	return a.cfg.Output()
}

// write saves g to output, or to stdout when output is empty.
func (a *app) write(cmd *cobra.Command, g *rdf.Graph, output, to string) error {
	c, err := a.outputFormat(to, output)
	if err != nil {
		return err
	}
	if output == "" {
		return a.engine.Save(cmd.Context(), cmd.OutOrStdout(), g, c)
	}
	if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
		return err
	}
	f, err := os.Create(output)
	if err != nil {
		return err
	}
	if err := a.engine.Save(cmd.Context(), f, g, c); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	a.logger.Info("wrote graph", slog.String("path", output), slog.Int("triples", g.Len()), slog.String("format", string(c)))
	return nil
}

// loadGraph loads an RDF document, rejecting anything else.
func (a *app) loadGraph(ctx context.Context, path, hint string) (*rdf.Graph, error) {
	in, err := a.engine.Load(ctx, path, hint)
	if err != nil {
		return nil, err
	}
	if in.Kind != transform.InputGraph {
		return nil, fmt.Errorf("%w: %s is not an RDF document", format.ErrUnsupportedFormat, path)
	}
	return in.Graph, nil
}

func extension(c format.Canonical) string {
	switch c {
	case format.NTriples:
		return ".nt"
	case format.JSONLD:
		return ".jsonld"
	}
	return ".ttl"
}

func parseInference(s string) (report.InferenceMode, error) {
	if strings.TrimSpace(s) == "" {
		return "", nil
	}
	return report.ParseInferenceMode(s)
}

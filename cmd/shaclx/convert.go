package main

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"

	"github.com/geoknoesis/shacl-go/namespace"
	"github.com/geoknoesis/shacl-go/transform"
)

func convertCmd(a *app) *cobra.Command {
	var (
		from, to, glob, outDir string
		aiOpts                 aiFlags
	)
	cmd := &cobra.Command{
		Use:   "convert INPUT [OUTPUT]",
		Short: "Convert an ontology or schema to a SHACL shapes graph",
		Long: `Convert an OWL/RDFS ontology or a JSON Schema style document (JSON or
YAML) into a SHACL shapes graph. RDF inputs that already hold shapes pass
through unchanged. With --glob every matching file is converted into
--out-dir.`,
		Example: `  shaclx convert ontology.owl shapes.ttl
  shaclx convert person.schema.json --to nt
  shaclx convert --glob 'schemas/**/*.json' --out-dir shapes/`,
		Args: func(cmd *cobra.Command, args []string) error {
			if glob != "" {
				return cobra.NoArgs(cmd, args)
			}
			return cobra.RangeArgs(1, 2)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.setup(cmd, &aiOpts); err != nil {
				return err
			}
			useAI := aiOpts.enabled(a.cfg)
			ctx, cancel := a.aiContext(cmd.Context(), useAI)
			defer cancel()
			opts := transform.ConvertOptions{UseAI: useAI, Namespace: namespace.Namespace(a.namespace)}

			if glob != "" {
				return a.convertGlob(ctx, cmd, glob, outDir, from, to, opts)
			}
			in, err := a.engine.Load(ctx, args[0], from)
			if err != nil {
				return err
			}
			g, err := a.engine.ConvertSchema(ctx, in, opts)
			if err != nil {
				return err
			}
			return a.write(cmd, g, optionalArg(args, 1), to)
		},
	}
	cmd.Flags().StringVarP(&from, "from", "f", "", "input format (default: from extension)")
	cmd.Flags().StringVarP(&to, "to", "t", "", "output format: turtle, nt or json-ld")
	cmd.Flags().StringVar(&glob, "glob", "", "convert every file matching this doublestar pattern")
	cmd.Flags().StringVar(&outDir, "out-dir", ".", "output directory for --glob")
	aiOpts.register(cmd)
	return cmd
}

// convertGlob converts each match of pattern into outDir, keeping the base
// name and swapping the extension. It stops at the first failure.
func (a *app) convertGlob(ctx context.Context, cmd *cobra.Command, pattern, outDir, from, to string, opts transform.ConvertOptions) error {
	matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
	if err != nil {
		return fmt.Errorf("glob %q: %w", pattern, err)
	}
	if len(matches) == 0 {
		return fmt.Errorf("%w: no files match %q", transform.ErrMissingRequiredInput, pattern)
	}
	c, err := a.outputFormat(to, "")
	if err != nil {
		return err
	}
	for _, path := range matches {
		in, err := a.engine.Load(ctx, path, from)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		g, err := a.engine.ConvertSchema(ctx, in, opts)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		out := filepath.Join(outDir, base+extension(c))
		if err := a.write(cmd, g, out, string(c)); err != nil {
			return err
		}
	}
	a.logger.Info("converted files", slog.Int("count", len(matches)), slog.String("out_dir", outDir))
	return nil
}

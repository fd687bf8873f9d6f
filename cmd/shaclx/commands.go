package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/geoknoesis/shacl-go/rdf"
)

func createCmd(a *app) *cobra.Command {
	var (
		from, to, baseSchema string
		aiOpts               aiFlags
	)
	cmd := &cobra.Command{
		Use:   "create DATA [OUTPUT]",
		Short: "Derive a SHACL shapes graph from sample data",
		Long: `Derive a shapes graph from a sample JSON or YAML document. The rule-based
path infers one property shape per top-level key. With --base the shapes of
an existing graph are merged into the result.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.setup(cmd, &aiOpts); err != nil {
				return err
			}
			useAI := aiOpts.enabled(a.cfg)
			ctx, cancel := a.aiContext(cmd.Context(), useAI)
			defer cancel()

			in, err := a.engine.Load(ctx, args[0], from)
			if err != nil {
				return err
			}
			var base *rdf.Graph
			if baseSchema != "" {
				if base, err = a.loadGraph(ctx, baseSchema, ""); err != nil {
					return err
				}
			}
			g, err := a.engine.CreateSchema(ctx, in, base, useAI)
			if err != nil {
				return err
			}
			return a.write(cmd, g, optionalArg(args, 1), to)
		},
	}
	cmd.Flags().StringVarP(&from, "from", "f", "", "input format (default: from extension)")
	cmd.Flags().StringVarP(&to, "to", "t", "", "output format: turtle, nt or json-ld")
	cmd.Flags().StringVarP(&baseSchema, "base", "b", "", "shapes graph to extend")
	aiOpts.register(cmd)
	return cmd
}

func applyCmd(a *app) *cobra.Command {
	var (
		from, to, shapesPath string
		aiOpts               aiFlags
	)
	cmd := &cobra.Command{
		Use:   "apply DATA [OUTPUT]",
		Short: "Map JSON or YAML data to an RDF graph",
		Long: `Map a JSON or YAML document to RDF with the structural mapper: each
mapping becomes a node, scalar fields become literals and sequences become
rdf:_1, rdf:_2, ... members. --shapes names the target shapes graph for the
intelligent path.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.setup(cmd, &aiOpts); err != nil {
				return err
			}
			useAI := aiOpts.enabled(a.cfg)
			ctx, cancel := a.aiContext(cmd.Context(), useAI)
			defer cancel()

			in, err := a.engine.Load(ctx, args[0], from)
			if err != nil {
				return err
			}
			var target *rdf.Graph
			if shapesPath != "" {
				if target, err = a.loadGraph(ctx, shapesPath, ""); err != nil {
					return err
				}
			}
			g, err := a.engine.ApplySchema(ctx, in, target, useAI)
			if err != nil {
				return err
			}
			return a.write(cmd, g, optionalArg(args, 1), to)
		},
	}
	cmd.Flags().StringVarP(&from, "from", "f", "", "input format (default: from extension)")
	cmd.Flags().StringVarP(&to, "to", "t", "", "output format: turtle, nt or json-ld")
	cmd.Flags().StringVarP(&shapesPath, "shapes", "s", "", "target shapes graph")
	aiOpts.register(cmd)
	return cmd
}

func generateCmd(a *app) *cobra.Command {
	var (
		to     string
		prompt string
		count  int
	)
	cmd := &cobra.Command{
		Use:   "generate SHAPES [OUTPUT]",
		Short: "Generate sample data that conforms to a shapes graph",
		Long: `Ask the intelligent transformer for sample instances of the shapes in
SHAPES. Needs an API key in GEMINI_API_KEY or GOOGLE_API_KEY.`,
		Example: `  shaclx generate person.ttl people.ttl --prompt "people from different countries" --count 20`,
		Args:    cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.setup(cmd, &aiFlags{on: true}); err != nil {
				return err
			}
			if count < 0 {
				return fmt.Errorf("--count must not be negative")
			}
			ctx, cancel := a.aiContext(cmd.Context(), true)
			defer cancel()

			shapesGraph, err := a.loadGraph(ctx, args[0], "")
			if err != nil {
				return err
			}
			g, err := a.engine.GenerateData(ctx, shapesGraph, prompt, count)
			if err != nil {
				return err
			}
			return a.write(cmd, g, optionalArg(args, 1), to)
		},
	}
	cmd.Flags().StringVarP(&prompt, "prompt", "p", "", "description of the desired data")
	cmd.Flags().IntVarP(&count, "count", "n", 10, "number of instances")
	cmd.Flags().StringVarP(&to, "to", "t", "", "output format: turtle, nt or json-ld")
	return cmd
}

func optionalArg(args []string, i int) string {
	if i < len(args) {
		return args[i]
	}
	return ""
}

package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/jrevolver/pkg/includegraph"
	"github.com/matzehuels/jrevolver/pkg/pipeline"
	"github.com/matzehuels/jrevolver/pkg/resolve"
)

const (
	formatDOT = "dot"
	formatSVG = "svg"
)

// graphOpts holds the command-line flags for the graph command.
type graphOpts struct {
	format   string   // dot or svg
	output   string   // output file, stdout when empty
	includes []string // extra include directories
}

// graphCommand creates the graph command, which shows which documents a
// layout includes.
func (c *CLI) graphCommand() *cobra.Command {
	opts := graphOpts{format: formatDOT}

	cmd := &cobra.Command{
		Use:   "graph <file>",
		Short: "Show the include graph of a layout",
		Long: `Print the include graph of a layout as Graphviz DOT, or render it to SVG.

Every include directive is followed, including those in map alternatives.
Includes that cannot be found are drawn dashed.`,
		Example: `  jrevolver graph layouts/user.json | dot -Tpng > user.png
  jrevolver graph layouts/user.json -f svg -o user.svg`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.format != formatDOT && opts.format != formatSVG {
				return fmt.Errorf("invalid format: %s (must be 'dot' or 'svg')", opts.format)
			}
			popts := c.pipelineOptions(args[0])
			popts.IncludeDirs = append(popts.IncludeDirs, opts.includes...)
			return c.runGraph(cmd.Context(), popts, &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.format, "format", "f", opts.format, "output format: dot, svg")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().StringArrayVarP(&opts.includes, "include", "I", nil, "additional include directory (repeatable)")

	return cmd
}

func (c *CLI) runGraph(ctx context.Context, popts pipeline.Options, opts *graphOpts) error {
	if err := popts.ValidateAndSetDefaults(); err != nil {
		return err
	}
	src, err := resolve.ReadFile(popts.Input)
	if err != nil {
		return err
	}

	g, err := includegraph.Build(ctx, resolve.NewFileLoader(popts.SearchPath()...), src)
	if err != nil {
		return err
	}
	for _, n := range g.Nodes {
		switch {
		case n.Missing:
			c.Logger.Warn("include not found", "include", n.Name)
		case n.Invalid:
			c.Logger.Warn("document is not valid JSON", "file", n.ID)
		}
	}

	data := []byte(includegraph.ToDOT(g))
	if opts.format == formatSVG {
		spinner := newSpinnerWithContext(ctx, "Rendering SVG...")
		spinner.Start()
		data, err = includegraph.RenderSVG(ctx, string(data))
		spinner.Stop()
		if err != nil {
			return err
		}
	}

	if opts.output == "" {
		_, err := c.Out.Write(data)
		return err
	}
	if err := os.WriteFile(opts.output, data, 0o644); err != nil {
		return err
	}
	printFile(opts.output)
	printDetail("%s, %s", plural(len(g.Nodes), "document"), plural(len(g.Edges), "include"))
	return nil
}

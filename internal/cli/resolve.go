package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/jrevolver/pkg/layout"
	"github.com/matzehuels/jrevolver/pkg/output"
	"github.com/matzehuels/jrevolver/pkg/pipeline"
	"github.com/matzehuels/jrevolver/pkg/resolve"
)

const (
	formatJSON = "json"
	formatYAML = "yaml"
)

// resolveOpts holds the command-line flags for the resolve command.
type resolveOpts struct {
	format   string   // json or yaml
	index    int      // permutation to print, -1 for all
	includes []string // extra include directories
	noCache  bool
	noSort   bool
}

// resolveCommand creates the resolve command, which prints the permutations
// of a single layout instead of writing files.
func (c *CLI) resolveCommand() *cobra.Command {
	opts := resolveOpts{format: formatJSON, index: -1}

	cmd := &cobra.Command{
		Use:   "resolve <file>",
		Short: "Print the permutations of a layout",
		Long: `Resolve a layout file and print its permutations to stdout as a JSON
array, or a YAML sequence with --format yaml. Use --index to print a single
permutation.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.format != formatJSON && opts.format != formatYAML {
				return fmt.Errorf("invalid format: %s (must be 'json' or 'yaml')", opts.format)
			}
			popts := c.pipelineOptions(args[0])
			popts.IncludeDirs = append(popts.IncludeDirs, opts.includes...)
			if cmd.Flags().Changed("no-sort") {
				popts.PreserveKeyOrder = opts.noSort
			}
			return c.runResolve(cmd.Context(), popts, &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.format, "format", "f", opts.format, "output format: json, yaml")
	cmd.Flags().IntVar(&opts.index, "index", opts.index, "print only the permutation at this index")
	cmd.Flags().StringArrayVarP(&opts.includes, "include", "I", nil, "additional include directory (repeatable)")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the resolution cache")
	cmd.Flags().BoolVar(&opts.noSort, "no-sort", false, "keep object keys in document order")

	return cmd
}

func (c *CLI) runResolve(ctx context.Context, popts pipeline.Options, opts *resolveOpts) error {
	res, err := c.resolveLayout(ctx, popts, opts.noCache)
	if err != nil {
		return err
	}

	values := res.Values()
	var v layout.Value = layout.NewArray(values...)
	if opts.index >= 0 {
		if opts.index >= len(values) {
			return fmt.Errorf("index %d out of range: layout has %s", opts.index, plural(len(values), "permutation"))
		}
		v = values[opts.index]
	}

	if opts.format == formatYAML {
		return writeYAML(c.Out, v)
	}
	data := output.Encode(v, popts.Indent)
	_, err = fmt.Fprintf(c.Out, "%s\n", data)
	return err
}

// resolveLayout resolves one layout file through a cached runner.
func (c *CLI) resolveLayout(ctx context.Context, popts pipeline.Options, noCache bool) (*resolve.Result, error) {
	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return nil, err
	}
	defer runner.Close()

	prog := newProgress(c.Logger)
	res, hit, err := runner.ResolveFile(ctx, popts)
	if err != nil {
		return nil, err
	}
	c.Logger.Debug("resolved layout", "file", popts.Input, "permutations", len(res.Permutations), "cached", hit)
	if !hit {
		prog.done(fmt.Sprintf("Resolved %s", plural(len(res.Permutations), "permutation")))
	}
	return res, nil
}

// writeYAML encodes v as YAML, keeping object keys in their resolved order.
func writeYAML(w io.Writer, v layout.Value) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(yamlNode(v)); err != nil {
		return err
	}
	return enc.Close()
}

// yamlNode converts v to a yaml.Node tree. Going through map[string]any would
// lose the key order.
func yamlNode(v layout.Value) *yaml.Node {
	switch t := v.(type) {
	case nil, layout.Null:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
	case layout.Bool:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: fmt.Sprint(bool(t))}
	case layout.Number:
		tag := "!!int"
		if strings.ContainsAny(string(t), ".eE") {
			tag = "!!float"
		}
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: string(t)}
	case layout.String:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: string(t)}
	case *layout.Array:
		return yamlSeq(t.Items)
	case *layout.PermutationSet:
		return yamlSeq(t.Items())
	case *layout.Object:
		n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for _, k := range t.Keys() {
			val, _ := t.Get(k)
			n.Content = append(n.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k},
				yamlNode(val))
		}
		return n
	}
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
}

func yamlSeq(items []layout.Value) *yaml.Node {
	n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
	for _, item := range items {
		n.Content = append(n.Content, yamlNode(item))
	}
	return n
}

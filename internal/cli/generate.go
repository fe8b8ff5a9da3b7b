package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matzehuels/jrevolver/pkg/pipeline"
)

// generateOpts holds the command-line flags for the generate command.
// Flags left unset fall back to the configuration file.
type generateOpts struct {
	includes        []string // extra include directories, searched after the input root
	noCache         bool     // bypass the resolution cache
	refresh         bool     // re-resolve and overwrite cached entries
	indent          int      // output indent width, negative for compact output
	noSort          bool     // keep object keys in document order
	maxPermutations int      // 0 means unlimited
	maxPasses       int      // expansion pass guard
	concurrency     int      // layouts resolved in parallel
}

// generateCommand creates the generate command, which resolves a layout file
// or a directory of layouts and writes every permutation.
func (c *CLI) generateCommand() *cobra.Command {
	var opts generateOpts

	cmd := &cobra.Command{
		Use:   "generate <input> [output-dir]",
		Short: "Resolve layouts and write their permutations",
		Long: `Resolve a layout file, or every layout below a directory, and write the
resulting documents.

A layout with a single permutation is written to <output-dir>/<name>.json.
A layout with several permutations is written to the directory
<output-dir>/<name>/, one file per permutation, named by its --filename
template or by content hash.`,
		Example: `  jrevolver generate layouts/user.json
  jrevolver generate layouts mocks -I shared -j 4`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			popts := c.pipelineOptions(args[0])
			if len(args) > 1 {
				popts.OutputDir = args[1]
			}
			opts.apply(cmd, &popts)
			return c.runGenerate(cmd.Context(), popts, opts.noCache)
		},
	}

	cmd.Flags().StringArrayVarP(&opts.includes, "include", "I", nil, "additional include directory (repeatable)")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the resolution cache")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "ignore cached results and resolve again")
	cmd.Flags().IntVar(&opts.indent, "indent", 0, "indent width of written JSON (negative for compact)")
	cmd.Flags().BoolVar(&opts.noSort, "no-sort", false, "keep object keys in document order")
	cmd.Flags().IntVar(&opts.maxPermutations, "max-permutations", 0, "fail when a layout expands to more permutations (0 = unlimited)")
	cmd.Flags().IntVar(&opts.maxPasses, "max-passes", 0, "maximum expansion passes per layout")
	cmd.Flags().IntVarP(&opts.concurrency, "concurrency", "j", 0, "layouts resolved in parallel")

	return cmd
}

// apply overrides the configured pipeline options with the flags that were
// set on the command line.
func (o *generateOpts) apply(cmd *cobra.Command, popts *pipeline.Options) {
	flags := cmd.Flags()
	popts.IncludeDirs = append(popts.IncludeDirs, o.includes...)
	popts.Refresh = o.refresh
	if flags.Changed("indent") {
		popts.Indent = o.indent
	}
	if flags.Changed("no-sort") {
		popts.PreserveKeyOrder = o.noSort
	}
	if flags.Changed("max-permutations") {
		popts.MaxPermutations = o.maxPermutations
	}
	if flags.Changed("max-passes") {
		popts.MaxPasses = o.maxPasses
	}
	if flags.Changed("concurrency") {
		popts.Concurrency = o.concurrency
	}
}

// runGenerate executes the pipeline and prints a summary of the written files.
func (c *CLI) runGenerate(ctx context.Context, opts pipeline.Options, noCache bool) error {
	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	prog := newProgress(c.Logger)
	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Resolving %s...", filepath.Base(opts.Input)))
	spinner.Start()

	result, err := runner.Execute(ctx, opts)
	if result == nil {
		spinner.StopWithError("Generate failed")
		return err
	}
	spinner.Stop()
	prog.done(fmt.Sprintf("Resolved %s", plural(result.Stats.Files, "layout")))

	for _, f := range result.Files {
		if f.Err != nil {
			printError("%s: %v", f.Input, f.Err)
			continue
		}
		if f.Permutations == 0 {
			printWarning("%s produced no permutations", f.Input)
			continue
		}
		if len(f.Outputs) == 1 {
			printFile(f.Outputs[0])
		} else {
			printFile(filepath.Dir(f.Outputs[0]) + string(filepath.Separator))
			if f.Repeated > 0 {
				printDetail("%d of %s named by content hash", f.Repeated, plural(len(f.Outputs), "file"))
			}
		}
	}
	for _, s := range result.Skipped {
		printDetail("skipped %s", s)
	}
	printStats(result.Stats)

	if err != nil {
		return err
	}
	if len(result.Files) == 1 && result.Stats.Permutations > 1 {
		printNewline()
		printNextStep("Browse", "jrevolver browse "+opts.Input)
	}
	return nil
}

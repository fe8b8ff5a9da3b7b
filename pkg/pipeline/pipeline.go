// Package pipeline resolves layout files on disk and writes their
// permutations.
//
// This package implements the generate flow shared by the CLI and the
// browse and resolve commands: discover layout files, resolve each one with
// caching, and write the results with package output.
//
// # Architecture
//
// A run has three stages per input file:
//
//  1. Discover: walk the input directory, skipping ignored directories
//  2. Resolve: resolve the layout, or reuse a cached resolution whose
//     included files are unchanged
//  3. Write: plan file names and write the permutations
//
// Files are processed concurrently up to Options.Concurrency.
//
// # Usage
//
// Create a Runner and execute the pipeline:
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Input:       "layouts",
//	    OutputDir:   "mocks",
//	    IncludeDirs: []string{"shared"},
//	})
//
// Resolve a single file without writing:
//
//	res, hit, err := runner.ResolveFile(ctx, pipeline.Options{Input: "users.json"})
package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/jrevolver/pkg/cache"
	jerrors "github.com/matzehuels/jrevolver/pkg/errors"
	"github.com/matzehuels/jrevolver/pkg/output"
	"github.com/matzehuels/jrevolver/pkg/resolve"
)

// =============================================================================
// Default Values
// =============================================================================

const (
	// DefaultConcurrency is the number of files resolved at once.
	DefaultConcurrency = 1

	// DefaultIgnoreFile marks a directory whose layouts are not generated.
	DefaultIgnoreFile = ".ignore"

	// DefaultExtension is the extension of layout files.
	DefaultExtension = ".json"
)

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for a pipeline run.
type Options struct {
	// Input is a layout file or a directory of layout files.
	Input string
	// OutputDir receives the generated files. Required by Execute.
	OutputDir string
	// IncludeDirs are searched for includes after the input root.
	IncludeDirs []string

	Indent           int
	PreserveKeyOrder bool
	MaxPermutations  int
	MaxPasses        int
	Concurrency      int
	IgnoreFile       string
	Extension        string

	// CacheTTL is the lifetime of cache entries. Defaults to cache.DefaultTTL.
	CacheTTL time.Duration
	// Refresh resolves every file again and overwrites its cache entry.
	Refresh bool

	Logger *log.Logger

	// root is the input directory, or the directory of an input file.
	root string
	// searchPath is root followed by IncludeDirs, all absolute.
	searchPath []string
	inputIsDir bool

	validated bool
}

// ValidateAndSetDefaults checks required fields and applies defaults.
// This method is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.Input == "" {
		return jerrors.New(jerrors.ErrCodeInvalidInput, "input is required")
	}
	info, err := os.Stat(o.Input)
	if err != nil {
		if os.IsNotExist(err) {
			return jerrors.Wrap(jerrors.ErrCodeFileNotFound, err, "input %s does not exist", o.Input)
		}
		return fmt.Errorf("stat input: %w", err)
	}
	if o.MaxPermutations < 0 {
		return jerrors.New(jerrors.ErrCodeInvalidInput, "max permutations cannot be negative")
	}

	if o.Concurrency <= 0 {
		o.Concurrency = DefaultConcurrency
	}
	if o.MaxPasses <= 0 {
		o.MaxPasses = resolve.DefaultMaxPasses
	}
	if o.IgnoreFile == "" {
		o.IgnoreFile = DefaultIgnoreFile
	}
	if o.Extension == "" {
		o.Extension = DefaultExtension
	}
	if o.Indent == 0 {
		o.Indent = output.DefaultIndent
	}
	if o.CacheTTL <= 0 {
		o.CacheTTL = cache.DefaultTTL
	}
	if o.Logger == nil {
		o.Logger = log.Default()
	}

	o.inputIsDir = info.IsDir()
	o.root = o.Input
	if !o.inputIsDir {
		o.root = filepath.Dir(o.Input)
	}
	o.searchPath = nil
	for _, dir := range append([]string{o.root}, o.IncludeDirs...) {
		abs, err := filepath.Abs(dir)
		if err != nil {
			return fmt.Errorf("include dir %s: %w", dir, err)
		}
		o.searchPath = append(o.searchPath, abs)
	}

	o.validated = true
	return nil
}

// SearchPath returns the include search path: the input root followed by
// IncludeDirs. It is empty until ValidateAndSetDefaults succeeds.
func (o *Options) SearchPath() []string {
	return o.searchPath
}

// LayoutKeyOpts returns cache key options for a resolution.
func (o *Options) LayoutKeyOpts() cache.LayoutKeyOpts {
	return cache.LayoutKeyOpts{
		IncludeDirs:     o.searchPath,
		SortKeys:        !o.PreserveKeyOrder,
		MaxPermutations: o.MaxPermutations,
		MaxPasses:       o.MaxPasses,
	}
}

// =============================================================================
// Results
// =============================================================================

// Result contains the outcome of a pipeline run.
type Result struct {
	// Files holds one entry per discovered layout, in walk order.
	Files []FileResult
	// Skipped lists files ignored because of their extension.
	Skipped []string
	Stats   Stats
}

// FileResult is the outcome for one layout file.
type FileResult struct {
	Input        string
	Outputs      []string
	Permutations int
	Warnings     []resolve.Warning
	// Repeated counts permutations whose "--filename" could not be used.
	Repeated int
	CacheHit bool
	Duration time.Duration
	Err      error
}

// Stats contains run statistics.
type Stats struct {
	Files        int
	Failed       int
	Permutations int
	Written      int
	Warnings     int
	CacheHits    int
	Duration     time.Duration
}

func (r *Result) tally() {
	for _, f := range r.Files {
		r.Stats.Files++
		if f.Err != nil {
			r.Stats.Failed++
			continue
		}
		r.Stats.Permutations += f.Permutations
		r.Stats.Written += len(f.Outputs)
		r.Stats.Warnings += len(f.Warnings)
		if f.CacheHit {
			r.Stats.CacheHits++
		}
	}
}

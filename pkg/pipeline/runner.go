package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/jrevolver/pkg/cache"
	jerrors "github.com/matzehuels/jrevolver/pkg/errors"
	"github.com/matzehuels/jrevolver/pkg/observability"
	"github.com/matzehuels/jrevolver/pkg/output"
	"github.com/matzehuels/jrevolver/pkg/resolve"
)

// cacheKeyType labels cache hook events emitted by the pipeline.
const cacheKeyType = "layout"

// Runner encapsulates pipeline execution with caching.
//
// The Runner is stateless except for the cache and logger. Multiple
// goroutines can safely use the same Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute resolves every layout under opts.Input and writes the results to
// opts.OutputDir.
//
// A layout that fails to resolve or write does not stop the others. The
// returned Result always describes every file; the error joins the
// per-file failures.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	if opts.OutputDir == "" {
		return nil, fmt.Errorf("invalid options: %w",
			jerrors.New(jerrors.ErrCodeInvalidInput, "output directory is required"))
	}

	start := time.Now()
	files, skipped, err := discover(&opts)
	if err != nil {
		return nil, fmt.Errorf("discover: %w", err)
	}
	for _, s := range skipped {
		r.Logger.Warn("skipping file without layout extension", "file", s, "extension", opts.Extension)
	}
	r.Logger.Debug("discovered layouts", "files", len(files), "skipped", len(skipped))

	result := &Result{
		Files:   make([]FileResult, len(files)),
		Skipped: skipped,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Concurrency)
	for i, f := range files {
		g.Go(func() error {
			result.Files[i] = r.generate(gctx, f, opts)
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result.tally()
	result.Stats.Duration = time.Since(start)

	var errs []error
	for _, f := range result.Files {
		if f.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", f.Input, f.Err))
		}
	}
	if len(errs) > 0 {
		return result, fmt.Errorf("%d of %d layouts failed: %w", len(errs), len(files), errors.Join(errs...))
	}
	return result, nil
}

// generate resolves and writes one layout.
func (r *Runner) generate(ctx context.Context, f layoutFile, opts Options) FileResult {
	start := time.Now()
	fr := FileResult{Input: f.path}

	res, hit, err := r.resolveFile(ctx, f.path, &opts)
	fr.CacheHit = hit
	if err != nil {
		fr.Err = err
		r.Logger.Error("resolve failed", "file", f.path, "err", jerrors.UserMessage(err))
		return fr
	}
	fr.Permutations = len(res.Permutations)
	fr.Warnings = res.Warnings

	if len(res.Permutations) == 0 {
		r.Logger.Warn("layout has no permutations", "file", f.path)
	}

	plan := output.NewPlan(f.outputDir, filepath.Base(f.path), res.Permutations, output.Options{
		Indent:    opts.Indent,
		Extension: opts.Extension,
	})
	if err := plan.Write(); err != nil {
		fr.Err = err
		return fr
	}
	fr.Outputs = plan.Paths()
	fr.Repeated = plan.Repeated
	if plan.Repeated > 0 {
		r.Logger.Warn("filename template produced unusable names; hashed names used instead",
			"file", f.path, "count", plan.Repeated)
	}

	fr.Duration = time.Since(start)
	r.Logger.Info("generated",
		"file", f.path,
		"permutations", fr.Permutations,
		"cached", hit,
		"duration", fr.Duration)
	return fr
}

// ResolveFile resolves the layout file opts.Input with caching, without
// writing anything. The boolean reports a cache hit.
func (r *Runner) ResolveFile(ctx context.Context, opts Options) (*resolve.Result, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, false, fmt.Errorf("invalid options: %w", err)
	}
	if opts.inputIsDir {
		return nil, false, jerrors.New(jerrors.ErrCodeInvalidInput, "%s is a directory", opts.Input)
	}
	return r.resolveFile(ctx, opts.Input, &opts)
}

func (r *Runner) resolveFile(ctx context.Context, path string, opts *Options) (*resolve.Result, bool, error) {
	src, err := resolve.ReadFile(path)
	if err != nil {
		return nil, false, err
	}

	cacheKey := r.Keyer.LayoutKey(cache.Hash(src.Data), opts.LayoutKeyOpts())
	if !opts.Refresh {
		if res, ok := r.cached(ctx, cacheKey); ok {
			for _, w := range res.Warnings {
				r.Logger.Warn(w.Message, "code", w.Code, "path", w.Path, "file", path)
			}
			return res, true, nil
		}
	}

	hooks := observability.Resolve()
	hooks.OnResolveStart(ctx, path)
	start := time.Now()

	resolver := resolve.New(resolve.Options{
		Loader:           resolve.NewFileLoader(opts.searchPath...),
		Logger:           r.Logger.With("file", path),
		MaxPasses:        opts.MaxPasses,
		MaxPermutations:  opts.MaxPermutations,
		PreserveKeyOrder: opts.PreserveKeyOrder,
	})
	res, err := resolver.ResolveSource(ctx, src)

	n := 0
	if res != nil {
		n = len(res.Permutations)
	}
	hooks.OnResolveComplete(ctx, path, n, time.Since(start), err)
	if err != nil {
		return nil, false, err
	}

	r.store(ctx, cacheKey, res, opts.CacheTTL)
	return res, false, nil
}

// cached returns the cached resolution for key if all of its dependencies
// are unchanged.
func (r *Runner) cached(ctx context.Context, key string) (*resolve.Result, bool) {
	hooks := observability.Cache()

	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil {
		r.Logger.Debug("cache read failed", "err", err)
	}
	if err != nil || !hit {
		hooks.OnCacheMiss(ctx, cacheKeyType)
		return nil, false
	}

	var entry cacheEntry
	if err := json.Unmarshal(data, &entry); err != nil || !entry.valid() {
		hooks.OnCacheMiss(ctx, cacheKeyType)
		return nil, false
	}
	res, err := entry.result()
	if err != nil {
		hooks.OnCacheMiss(ctx, cacheKeyType)
		return nil, false
	}
	hooks.OnCacheHit(ctx, cacheKeyType)
	return res, true
}

// store caches res unless an include was missing: a missing file may be
// created later, and it is not a dependency that validation could check.
func (r *Runner) store(ctx context.Context, key string, res *resolve.Result, ttl time.Duration) {
	for _, w := range res.Warnings {
		if w.Code == jerrors.ErrCodeIncludeNotFound {
			return
		}
	}
	entry, err := newCacheEntry(res)
	if err != nil {
		return
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return
	}
	if err := r.Cache.Set(ctx, key, data, ttl); err != nil {
		r.Logger.Debug("cache write failed", "err", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, cacheKeyType, len(data))
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

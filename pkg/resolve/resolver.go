// Package resolve turns a layout document into the permutations it describes.
//
// A layout is ordinary JSON with directive keys (see package directive).
// Resolution runs the directive families to a fixpoint, in priority order:
//
//  1. merges: "--concat p" and "--zipperMerge p" combine into sibling p
//  2. includes: "--include path" keys and values splice other documents in
//  3. maps: "--map p" and friends expand into a Cartesian product
//
// Every candidate document that still contains a family's marker is replaced
// by that family's output, which for maps may be many documents. When no
// marker remains, comments are stripped, "--filename" templates are
// extracted, and the permutations are canonicalized and deduplicated.
//
// # Includes
//
// Include paths are resolved by a [Loader]. A missing or unreadable include
// is a warning: as a value it becomes null, as a key it is dropped. Key
// includes take a mode value, one of DEFAULTS, OVERRIDES or PERMUTE. Cycles
// abort resolution with ErrCodeIncludeCycle.
//
// # Concurrency
//
// A Resolver holds only configuration. Each call to Resolve builds its own
// state, so one Resolver may be shared by many goroutines.
package resolve

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/jrevolver/pkg/directive"
	jerrors "github.com/matzehuels/jrevolver/pkg/errors"
	"github.com/matzehuels/jrevolver/pkg/layout"
)

// DefaultMaxPasses bounds the fixpoint loop when Options.MaxPasses is zero.
const DefaultMaxPasses = 100

// Options configures a Resolver.
type Options struct {
	// Loader reads included documents. With a nil Loader every include is
	// reported as not found.
	Loader Loader

	// Logger receives warnings and debug output. Defaults to log.Default().
	Logger *log.Logger

	// MaxPasses bounds the number of fixpoint iterations.
	MaxPasses int

	// MaxPermutations aborts resolution when more candidates would exist at
	// once. Zero means unlimited.
	MaxPermutations int

	// PreserveKeyOrder skips canonicalization, leaving object keys in
	// resolution order.
	PreserveKeyOrder bool

	// ConfineIncludes rejects include paths that leave the loader's search
	// directories with "..".
	ConfineIncludes bool
}

// Resolver resolves layouts.
type Resolver struct {
	opts Options
}

// New returns a Resolver with opts, applying defaults.
func New(opts Options) *Resolver {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.MaxPasses <= 0 {
		opts.MaxPasses = DefaultMaxPasses
	}
	return &Resolver{opts: opts}
}

// Permutation is one fully resolved document.
type Permutation struct {
	Value layout.Value
	// Filename is the raw "--filename" template of the permutation, or "".
	Filename string
}

// Warning is a recoverable problem encountered during resolution.
type Warning struct {
	Code    jerrors.Code `json:"code"`
	Path    string       `json:"path,omitempty"`
	Message string       `json:"message"`
}

func (w Warning) String() string {
	if w.Path == "" {
		return fmt.Sprintf("%s: %s", w.Code, w.Message)
	}
	return fmt.Sprintf("%s: %s (at %s)", w.Code, w.Message, w.Path)
}

// Result is the outcome of resolving one layout.
type Result struct {
	Permutations []Permutation
	Warnings     []Warning
	// Includes lists the IDs of every document read, in first-read order.
	Includes []string
	// Passes is the number of fixpoint iterations performed.
	Passes int
}

// Values returns the permutation values in order.
func (r *Result) Values() []layout.Value {
	out := make([]layout.Value, len(r.Permutations))
	for i, p := range r.Permutations {
		out[i] = p.Value
	}
	return out
}

// Resolve resolves an in-memory layout. Include cycles back to the root
// cannot be detected because the root has no ID; use ResolveSource when the
// layout comes from a Loader or a file.
func (r *Resolver) Resolve(ctx context.Context, root layout.Value) (*Result, error) {
	return r.resolve(ctx, "", root)
}

// ResolveSource parses and resolves src.
func (r *Resolver) ResolveSource(ctx context.Context, src Source) (*Result, error) {
	root, err := layout.Parse(src.Data)
	if err != nil {
		return nil, jerrors.Wrap(jerrors.ErrCodeInvalidLayout, err, "parse %s", src.ID)
	}
	return r.resolve(ctx, src.ID, root)
}

// family is one directive family of the fixpoint loop.
type family struct {
	name   string
	marker markers
	apply  func(*expansion, layout.Value) ([]layout.Value, error)
}

var families = []family{
	{"merges", hasMerge, (*expansion).mergePass},
	{"includes", hasInclude, (*expansion).includePass},
	{"maps", hasMap, (*expansion).mapPass},
}

func (r *Resolver) resolve(ctx context.Context, rootID string, root layout.Value) (*Result, error) {
	if root == nil {
		return nil, jerrors.New(jerrors.ErrCodeInvalidInput, "layout is empty")
	}
	e := newExpansion(ctx, &r.opts, rootID)

	candidates := []layout.Value{layout.Clone(root)}
	passes := 0
	for {
		pending, err := anyMarker(candidates)
		if err != nil {
			return nil, err
		}
		if pending == 0 {
			break
		}
		if passes >= r.opts.MaxPasses {
			return nil, jerrors.New(jerrors.ErrCodeUnresolved,
				"directives remain after %d passes", passes)
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		for _, fam := range families {
			if pending&fam.marker == 0 {
				continue
			}
			candidates, err = e.runFamily(fam, candidates)
			if err != nil {
				return nil, err
			}
		}
		passes++
		r.opts.Logger.Debug("resolution pass", "pass", passes, "candidates", len(candidates))
	}

	return &Result{
		Permutations: e.finish(candidates, !r.opts.PreserveKeyOrder),
		Warnings:     e.warnings,
		Includes:     e.includes,
		Passes:       passes,
	}, nil
}

// runFamily replaces every candidate carrying fam's marker with fam's output.
func (e *expansion) runFamily(fam family, candidates []layout.Value) ([]layout.Value, error) {
	next := make([]layout.Value, 0, len(candidates))
	for i, c := range candidates {
		m, err := scan(c, "")
		if err != nil {
			return nil, err
		}
		if m&fam.marker == 0 {
			next = append(next, c)
			continue
		}
		out, err := fam.apply(e, c)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", fam.name, err)
		}
		next = append(next, out...)

		if limit := e.opts.MaxPermutations; limit > 0 && len(next)+len(candidates)-i-1 > limit {
			return nil, jerrors.New(jerrors.ErrCodePermutationLimit,
				"more than %d permutations", limit)
		}
	}
	return next, nil
}

// finish post-processes the fixpoint output.
func (e *expansion) finish(candidates []layout.Value, canonical bool) []Permutation {
	out := make([]Permutation, 0, len(candidates))
	seen := make(map[string]bool, len(candidates))
	for _, c := range candidates {
		if c == nil || c.Kind() == layout.KindNull {
			continue
		}
		c = stripComments(c)
		c, name := e.extractFilename(c)
		if canonical {
			c = layout.Canonicalize(c)
		}
		key := string(layout.Marshal(layout.Canonicalize(c)))
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, Permutation{Value: c, Filename: name})
	}
	return out
}

// expansion is the per-resolution context threaded through every family.
type expansion struct {
	ctx    context.Context
	opts   *Options
	logger *log.Logger

	// sentinel holds the alternatives of an unnamed "--map" while the
	// enclosing object is expanded.
	sentinel string

	// stack is the chain of documents currently being included.
	stack    []string
	includes []string
	seen     map[string]bool

	warnings []Warning
}

func newExpansion(ctx context.Context, opts *Options, rootID string) *expansion {
	e := &expansion{
		ctx:      ctx,
		opts:     opts,
		logger:   opts.Logger,
		sentinel: "__J_" + uuid.NewString(),
		seen:     make(map[string]bool),
	}
	if rootID != "" {
		e.stack = append(e.stack, rootID)
		e.seen[rootID] = true
	}
	return e
}

func (e *expansion) warn(code jerrors.Code, path, format string, args ...any) {
	w := Warning{Code: code, Path: path, Message: fmt.Sprintf(format, args...)}
	e.warnings = append(e.warnings, w)
	e.logger.Warn(w.Message, "code", w.Code, "path", w.Path)
}

func (e *expansion) mergePass(v layout.Value) ([]layout.Value, error) {
	out, err := e.resolveMerges(v, "")
	if err != nil {
		return nil, err
	}
	return []layout.Value{out}, nil
}

func (e *expansion) includePass(v layout.Value) ([]layout.Value, error) {
	out, err := e.resolveIncludes(v, "")
	if err != nil {
		return nil, err
	}
	return []layout.Value{out}, nil
}

// extractFilename removes the top-level "--filename" template.
func (e *expansion) extractFilename(v layout.Value) (layout.Value, string) {
	obj, ok := v.(*layout.Object)
	if !ok {
		return v, ""
	}
	key := directive.Filename.String()
	tmpl, ok := obj.Get(key)
	if !ok {
		return v, ""
	}
	obj.Delete(key)
	str, ok := tmpl.(layout.String)
	if !ok {
		e.warn(jerrors.ErrCodeInvalidFilename, key, "filename template must be a string, got %s", tmpl.Kind())
		return obj, ""
	}
	return obj, string(str)
}

// Package pkg provides the libraries behind jrevolver, a generator of JSON
// mock documents from templated layouts.
//
// # Overview
//
// A layout is a JSON document carrying directives. "--include" pulls in
// other documents, "--map" expands alternatives into permutations, and
// "--concat" and "--zipperMerge" combine values. Resolving a layout yields
// the list of concrete documents it describes. The pkg directory is
// organized into three areas:
//
//  1. Engine - [layout], [directive], [perm] and [resolve]
//  2. Orchestration - [pipeline], [output] and [cache]
//  3. Surfaces - [server], [includegraph] and [observability]
//
// # Architecture
//
// The typical data flow through jrevolver:
//
//	Layout file (+ include directories)
//	         ↓
//	    [resolve] package (merges → includes → maps, to a fixpoint)
//	         ↓
//	    []resolve.Permutation (canonical values + filename templates)
//	         ↓
//	    [output] package (naming + writing)
//	         ↓
//	    <output-dir>/<name>.json or <output-dir>/<name>/*.json
//
// [pipeline] runs this for a file or a directory tree, consulting [cache]
// before resolving.
//
// # Quick Start
//
// Resolve an in-memory layout:
//
//	r := resolve.New(resolve.Options{})
//	res, _ := r.Resolve(ctx, layout.MustParse(`{"--map role":["admin","guest"]}`))
//	for _, p := range res.Permutations {
//	    fmt.Println(layout.Sprint(p.Value))
//	}
//
// Generate files for a directory of layouts:
//
//	runner := pipeline.NewRunner(nil, nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Input:     "layouts",
//	    OutputDir: "mockgen",
//	})
//
// # Main Packages
//
// [layout] - The JSON value model: insertion-ordered objects, permutation
// sets, deep merge, canonical form and byte-stable encoding.
//
// [directive] - Parsing of "--" directive keys and values.
//
// [perm] - Cartesian and zipper products over permutation properties.
//
// [resolve] - The resolution engine and document loaders.
//
// [pipeline] - File discovery, cached resolution and concurrent generation,
// shared by the CLI.
//
// [output] - Output naming from "--filename" templates and file writing.
//
// [cache] - Result caching with file, Redis and null backends.
//
// [server] - The HTTP resolve API.
//
// [includegraph] - Static include graphs rendered as DOT or SVG.
//
// [observability] - Hooks for resolution, cache and HTTP events, with a
// Prometheus implementation.
//
// [errors] - Structured errors carrying a code and a layout path.
//
// # Testing
//
//	go test ./pkg/...           # All tests
//	go test ./pkg/resolve/...   # Specific package
//	go test -run Example ./...  # Examples only
//
// [layout]: https://pkg.go.dev/github.com/matzehuels/jrevolver/pkg/layout
// [directive]: https://pkg.go.dev/github.com/matzehuels/jrevolver/pkg/directive
// [perm]: https://pkg.go.dev/github.com/matzehuels/jrevolver/pkg/perm
// [resolve]: https://pkg.go.dev/github.com/matzehuels/jrevolver/pkg/resolve
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/jrevolver/pkg/pipeline
// [output]: https://pkg.go.dev/github.com/matzehuels/jrevolver/pkg/output
// [cache]: https://pkg.go.dev/github.com/matzehuels/jrevolver/pkg/cache
// [server]: https://pkg.go.dev/github.com/matzehuels/jrevolver/pkg/server
// [includegraph]: https://pkg.go.dev/github.com/matzehuels/jrevolver/pkg/includegraph
// [observability]: https://pkg.go.dev/github.com/matzehuels/jrevolver/pkg/observability
// [errors]: https://pkg.go.dev/github.com/matzehuels/jrevolver/pkg/errors
package pkg

// Package includegraph extracts the include structure of a layout.
//
// The graph is built statically: every include directive anywhere in a
// document is followed, including those inside map alternatives that a
// given permutation may never reach. Documents are visited once, so cycles
// show up as back edges instead of errors.
//
// # Usage
//
//	g, err := includegraph.Build(ctx, loader, root)
//	dot := includegraph.ToDOT(g)
//	svg, err := includegraph.RenderSVG(ctx, dot)
package includegraph

import (
	"context"
	"errors"
	"fmt"

	"github.com/matzehuels/jrevolver/pkg/directive"
	jerrors "github.com/matzehuels/jrevolver/pkg/errors"
	"github.com/matzehuels/jrevolver/pkg/layout"
	"github.com/matzehuels/jrevolver/pkg/resolve"
)

// ValueMode labels edges of value includes, which have no mode.
const ValueMode = "VALUE"

// Node is one document.
type Node struct {
	// ID is the loader ID, or the include path for documents that could
	// not be loaded.
	ID string
	// Name is the include path the document was first reached by, or the
	// root's ID.
	Name string
	// Missing marks includes the loader could not find or read.
	Missing bool
	// Invalid marks documents that are not valid JSON.
	Invalid bool
}

// Edge is one include directive.
type Edge struct {
	From string
	To   string
	// Mode is the include mode of a key include, or ValueMode.
	Mode string
	// Path is the dot path of the directive in the including document.
	Path string
}

// Graph is the include graph of a root document.
type Graph struct {
	Root  string
	Nodes []Node
	Edges []Edge

	index map[string]int
}

// Node returns the node with the given ID.
func (g *Graph) Node(id string) (Node, bool) {
	i, ok := g.index[id]
	if !ok {
		return Node{}, false
	}
	return g.Nodes[i], true
}

func (g *Graph) addNode(n Node) bool {
	if _, ok := g.index[n.ID]; ok {
		return false
	}
	g.index[n.ID] = len(g.Nodes)
	g.Nodes = append(g.Nodes, n)
	return true
}

// Build walks the includes of root. Loader failures other than
// cancellation become missing nodes.
func Build(ctx context.Context, loader resolve.Loader, root resolve.Source) (*Graph, error) {
	g := &Graph{Root: root.ID, index: map[string]int{}}
	b := &builder{ctx: ctx, loader: loader, g: g}

	g.addNode(Node{ID: root.ID, Name: root.ID})
	if err := b.visit(root); err != nil {
		return nil, err
	}
	return g, nil
}

type builder struct {
	ctx    context.Context
	loader resolve.Loader
	g      *Graph
}

// visit parses src and follows its includes.
func (b *builder) visit(src resolve.Source) error {
	doc, err := layout.Parse(src.Data)
	if err != nil {
		b.g.Nodes[b.g.index[src.ID]].Invalid = true
		return nil
	}
	return b.walk(src.ID, doc, "")
}

func (b *builder) walk(from string, v layout.Value, path string) error {
	switch t := v.(type) {
	case layout.String:
		if d := directive.ParseValue(t); d.Kind == directive.Include {
			return b.follow(from, d.Arg, ValueMode, path)
		}
	case *layout.Array:
		for i, item := range t.Items {
			if err := b.walk(from, item, fmt.Sprintf("%s[%d]", path, i)); err != nil {
				return err
			}
		}
	case *layout.Object:
		for _, k := range t.Keys() {
			child, _ := t.Get(k)
			childPath := k
			if path != "" {
				childPath = path + "." + k
			}
			d, err := directive.ParseKey(k)
			if err != nil {
				return jerrors.At(err, childPath)
			}
			switch d.Kind {
			case directive.Comment:
				continue
			case directive.Include:
				mode := directive.ParseIncludeMode(child).String()
				if err := b.follow(from, d.Arg, mode, childPath); err != nil {
					return err
				}
				continue
			}
			if err := b.walk(from, child, childPath); err != nil {
				return err
			}
		}
	}
	return nil
}

// follow records an edge to name and visits the target the first time it
// is reached.
func (b *builder) follow(from, name, mode, path string) error {
	if err := b.ctx.Err(); err != nil {
		return err
	}
	if err := jerrors.ValidateIncludePath(name); err != nil {
		return jerrors.At(err, path)
	}

	src, err := b.loader.Load(b.ctx, name)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if err != nil {
		b.g.addNode(Node{ID: name, Name: name, Missing: true})
		b.g.Edges = append(b.g.Edges, Edge{From: from, To: name, Mode: mode, Path: path})
		return nil
	}

	b.g.Edges = append(b.g.Edges, Edge{From: from, To: src.ID, Mode: mode, Path: path})
	if !b.g.addNode(Node{ID: src.ID, Name: name}) {
		return nil
	}
	return b.visit(src)
}

package resolve

import (
	"context"
	"errors"
	"slices"
	"strings"

	"github.com/matzehuels/jrevolver/pkg/directive"
	jerrors "github.com/matzehuels/jrevolver/pkg/errors"
	"github.com/matzehuels/jrevolver/pkg/layout"
)

// replaceArrays is used for every merge during resolution: arrays replace
// wholesale.
var replaceArrays = layout.MergeOptions{Arrays: layout.ArrayReplace}

// resolveIncludes splices every included document into the tree rooted at v,
// depth first.
func (e *expansion) resolveIncludes(v layout.Value, path string) (layout.Value, error) {
	switch t := v.(type) {
	case layout.String:
		d := directive.ParseValue(t)
		if d.Kind != directive.Include {
			return v, nil
		}
		src, doc, err := e.load(d.Arg, path)
		if err != nil || doc == nil {
			return layout.Null{}, err
		}
		e.push(src.ID)
		defer e.pop()
		return e.resolveIncludes(doc, path)

	case *layout.Array:
		for i, item := range t.Items {
			out, err := e.resolveIncludes(item, indexPath(path, i))
			if err != nil {
				return nil, err
			}
			t.Items[i] = out
		}
		return t, nil

	case *layout.Object:
		obj := t
		for {
			key, d, ok := firstInclude(obj)
			if !ok {
				break
			}
			var err error
			obj, err = e.includeKey(obj, key, d, path)
			if err != nil {
				return nil, err
			}
		}
		for _, key := range obj.Keys() {
			if d, _ := directive.ParseKey(key); d.Kind == directive.Comment {
				continue
			}
			child, _ := obj.Get(key)
			out, err := e.resolveIncludes(child, joinPath(path, key))
			if err != nil {
				return nil, err
			}
			obj.Set(key, out)
		}
		return obj, nil
	}
	return v, nil
}

func firstInclude(obj *layout.Object) (string, directive.Directive, bool) {
	for _, key := range obj.Keys() {
		if d, err := directive.ParseKey(key); err == nil && d.Kind == directive.Include {
			return key, d, true
		}
	}
	return "", directive.Directive{}, false
}

// includeKey resolves the include key of root and returns the combined
// object. The key is always removed.
func (e *expansion) includeKey(root *layout.Object, key string, d directive.Directive, path string) (*layout.Object, error) {
	modeVal, _ := root.Get(key)
	mode := directive.ParseIncludeMode(modeVal)
	root.Delete(key)

	src, doc, err := e.load(d.Arg, joinPath(path, key))
	if err != nil || doc == nil {
		return root, err
	}
	incl, ok := doc.(*layout.Object)
	if !ok {
		e.warn(jerrors.ErrCodeInvalidLayout, joinPath(path, key),
			"%s must contain an object to be included as a key, got %s", d.Arg, doc.Kind())
		return root, nil
	}

	e.push(src.ID)
	resolved, err := e.resolveIncludes(incl, path)
	e.pop()
	if err != nil {
		return nil, err
	}
	incl = resolved.(*layout.Object)

	e.logger.Debug("include", "file", d.Arg, "mode", mode, "path", path)

	switch mode {
	case directive.Overrides:
		return combineOverride(root, incl, path)
	case directive.Permute:
		return combinePermute(incl, root, path)
	default:
		return combineOverride(incl, root, path)
	}
}

// combineOverride merges over on top of base. Properties over defines
// directly, as plain values or as maps, replace the same property of base
// in every form. Objects merge key-wise.
func combineOverride(base, over *layout.Object, path string) (*layout.Object, error) {
	mergeFilterLists(base, over)
	for _, key := range over.Keys() {
		d, err := directive.ParseKey(key)
		if err != nil {
			return nil, jerrors.At(err, joinPath(path, key))
		}
		name := ""
		switch d.Kind {
		case directive.Map, directive.MapZipper:
			name = d.Arg
		case directive.None:
			if v, _ := over.Get(key); v.Kind() != layout.KindObject {
				name = key
			}
		}
		if name == "" {
			continue
		}
		base.Delete(name)
		base.Delete(directive.Key(directive.Map, name))
		base.Delete(directive.Key(directive.MapZipper, name))
	}

	out := layout.DeepMerge(nil, replaceArrays, base, over)
	if err := applyMerges(out, path); err != nil {
		return nil, err
	}
	return out, nil
}

// property is every form one named property takes on one side of a
// PERMUTE include.
type property struct {
	plain, mapped, zipped layout.Value
	hasPlain              bool
}

func takeProperty(obj *layout.Object, name string) property {
	var p property
	p.plain, p.hasPlain = obj.Get(name)
	p.mapped, _ = obj.Get(directive.Key(directive.Map, name))
	p.zipped, _ = obj.Get(directive.Key(directive.MapZipper, name))
	obj.Delete(name)
	obj.Delete(directive.Key(directive.Map, name))
	obj.Delete(directive.Key(directive.MapZipper, name))
	return p
}

// alternatives lists the values p contributes to a synthesized map.
func (p property) alternatives() []layout.Value {
	var out []layout.Value
	if p.hasPlain {
		out = append(out, p.plain)
	}
	if p.mapped != nil {
		out = append(out, items(p.mapped)...)
	}
	return out
}

// zipSources lists the positional sources p contributes to a zipper map.
func (p property) zipSources() [][]layout.Value {
	var out [][]layout.Value
	if p.hasPlain {
		out = append(out, []layout.Value{p.plain})
	}
	if p.mapped != nil {
		out = append(out, items(p.mapped))
	}
	if p.zipped != nil {
		out = append(out, items(p.zipped))
	}
	return out
}

// combinePermute turns every property defined on both sides into a map over
// the alternatives of both sides. Maps already present on either side absorb
// the other side's values.
func combinePermute(base, over *layout.Object, path string) (*layout.Object, error) {
	var names []string
	for _, obj := range []*layout.Object{base, over} {
		for _, key := range obj.Keys() {
			d, err := directive.ParseKey(key)
			if err != nil {
				return nil, jerrors.At(err, joinPath(path, key))
			}
			if d.Kind.IsMap() && d.Arg != "" && !slices.Contains(names, d.Arg) {
				names = append(names, d.Arg)
			}
		}
	}

	synth := layout.NewObject()
	for _, name := range names {
		zip := base.Has(directive.Key(directive.MapZipper, name)) || over.Has(directive.Key(directive.MapZipper, name))
		b, o := takeProperty(base, name), takeProperty(over, name)
		if zip {
			merged := interleave(append(b.zipSources(), o.zipSources()...)...)
			synth.Set(directive.Key(directive.MapZipper, name), layout.NewArray(merged...))
			continue
		}
		set := layout.NewPermutationSet(b.alternatives()...).
			Merge(layout.NewPermutationSet(o.alternatives()...), layout.Add, layout.ReplaceWithEmpty)
		synth.Set(directive.Key(directive.Map, name), layout.NewArray(set.Items()...))
	}

	mergeFilterLists(base, over)

	for _, key := range over.Keys() {
		if d, _ := directive.ParseKey(key); d.Kind != directive.None || !base.Has(key) {
			continue
		}
		bv, _ := base.Get(key)
		ov, _ := over.Get(key)
		base.Delete(key)
		over.Delete(key)
		set := layout.NewPermutationSet(bv).Merge(layout.NewPermutationSet(ov), layout.Add, layout.ReplaceWithEmpty)
		if set.Len() == 1 {
			synth.Set(key, set.Items()[0])
			continue
		}
		synth.Set(directive.Key(directive.Map, key), layout.NewArray(set.Items()...))
	}

	return layout.DeepMerge(nil, replaceArrays, base, over, synth), nil
}

// mergeFilterLists unions the filter lists of base and over into over.
func mergeFilterLists(base, over *layout.Object) {
	for _, kind := range []directive.Kind{directive.MapExclude, directive.MapAllowOnly} {
		key := kind.String()
		bv, ok := base.Get(key)
		if !ok {
			continue
		}
		ov, ok := over.Get(key)
		if !ok {
			continue
		}
		ba, bok := bv.(*layout.Array)
		oa, ook := ov.(*layout.Array)
		if !bok || !ook {
			continue
		}
		merged := layout.Unique(append(slices.Clone(ba.Items), oa.Items...))
		over.Set(key, layout.Clone(layout.NewArray(merged...)))
		base.Delete(key)
	}
}

// load reads and parses an included document. A nil document with a nil
// error means the include was skipped with a warning.
func (e *expansion) load(name, path string) (Source, layout.Value, error) {
	validate := jerrors.ValidateIncludePath
	if e.opts.ConfineIncludes {
		validate = jerrors.ValidateLocalIncludePath
	}
	if err := validate(name); err != nil {
		return Source{}, nil, jerrors.At(err, path)
	}
	if e.opts.Loader == nil {
		e.warn(jerrors.ErrCodeIncludeNotFound, path, "no loader configured for %s", name)
		return Source{}, nil, nil
	}

	src, err := e.opts.Loader.Load(e.ctx, name)
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return Source{}, nil, err
	case jerrors.Is(err, jerrors.ErrCodeIncludeNotFound):
		e.warn(jerrors.ErrCodeIncludeNotFound, path, "include %s not found", name)
		return Source{}, nil, nil
	case err != nil:
		e.warn(jerrors.ErrCodeIncludeNotFound, path, "include %s unreadable: %v", name, err)
		return Source{}, nil, nil
	}

	if slices.Contains(e.stack, src.ID) {
		chain := append(slices.Clone(e.stack), src.ID)
		return Source{}, nil, jerrors.At(jerrors.New(jerrors.ErrCodeIncludeCycle,
			"include cycle: %s", strings.Join(chain, " -> ")), path)
	}
	if !e.seen[src.ID] {
		e.seen[src.ID] = true
		e.includes = append(e.includes, src.ID)
	}

	doc, err := layout.Parse(src.Data)
	if err != nil {
		e.warn(jerrors.ErrCodeInvalidLayout, path, "include %s is not valid JSON: %v", name, err)
		return Source{}, nil, nil
	}
	return src, doc, nil
}

func (e *expansion) push(id string) {
	e.stack = append(e.stack, id)
}

func (e *expansion) pop() {
	e.stack = e.stack[:len(e.stack)-1]
}

package resolve

import (
	"github.com/matzehuels/jrevolver/pkg/directive"
	jerrors "github.com/matzehuels/jrevolver/pkg/errors"
	"github.com/matzehuels/jrevolver/pkg/layout"
	"github.com/matzehuels/jrevolver/pkg/perm"
)

// mapScope is the state of one map pass over one candidate: the fragments
// registered with "--mapKey" and the filter lists collected from the tree.
type mapScope struct {
	e         *expansion
	fragments map[string]layout.Value
	exclude   []layout.Value
	allowOnly []layout.Value
}

// mapProp is one expandable property of an object or array: its name (or
// index) and its alternatives.
type mapProp struct {
	name  string
	index int
	alts  *layout.PermutationSet
}

// mapPass expands every map in v into the Cartesian product of its
// alternatives and applies the collected filters.
func (e *expansion) mapPass(v layout.Value) ([]layout.Value, error) {
	m := &mapScope{e: e, fragments: make(map[string]layout.Value)}

	v = m.registerFragments(v)
	v = m.substitute(v, "", nil)
	if err := m.collectFilters(v, "", nil); err != nil {
		return nil, err
	}
	if err := m.expandFilters(); err != nil {
		return nil, err
	}

	results, err := m.expand(v, "")
	if err != nil {
		return nil, err
	}
	if results == nil {
		results = []layout.Value{v}
	}
	return m.filter(results), nil
}

// expand returns every permutation of v, or nil when v contains no maps.
func (m *mapScope) expand(v layout.Value, path string) ([]layout.Value, error) {
	if err := m.e.ctx.Err(); err != nil {
		return nil, err
	}
	if mk, _ := scan(v, path); mk&hasMap == 0 {
		return nil, nil
	}
	switch t := v.(type) {
	case *layout.Object:
		return m.expandObject(t, path)
	case *layout.Array:
		return m.expandArray(t, path)
	}
	return nil, nil
}

func (m *mapScope) expandObject(obj *layout.Object, path string) ([]layout.Value, error) {
	base := layout.NewObject()
	var props []*mapProp
	add := func(name string, alts []layout.Value) {
		if len(alts) == 0 {
			return
		}
		for _, p := range props {
			if p.name == name {
				p.alts.Append(alts...)
				return
			}
		}
		props = append(props, &mapProp{name: name, alts: layout.NewPermutationSet().Append(alts...)})
	}

	for _, key := range obj.Keys() {
		child, _ := obj.Get(key)
		p := joinPath(path, key)
		d, err := directive.ParseKey(key)
		if err != nil {
			return nil, jerrors.At(err, p)
		}

		if !d.Kind.IsMap() {
			sub, err := m.expand(child, p)
			if err != nil {
				return nil, err
			}
			if sub == nil {
				base.Set(key, child)
				continue
			}
			base.Set(key, layout.Null{})
			add(key, sub)
			continue
		}

		arr, ok := child.(*layout.Array)
		if !ok {
			m.e.warn(jerrors.ErrCodeInvalidMap, p, "map value must be an array, got %s", child.Kind())
			arr = layout.NewArray(layout.Null{})
		}
		name := d.Arg
		if name == "" {
			name = m.e.sentinel
		}

		var alts []layout.Value
		for i, alt := range layout.Unique(arr.Items) {
			if d.Arg == "" {
				if _, isObj := alt.(*layout.Object); !isObj {
					m.e.warn(jerrors.ErrCodeInvalidMap, indexPath(p, i),
						"alternatives of an unnamed map must be objects, got %s", alt.Kind())
					continue
				}
			}
			sub, err := m.expand(alt, indexPath(p, i))
			if err != nil {
				return nil, err
			}
			if sub == nil {
				alts = append(alts, alt)
			} else {
				alts = append(alts, sub...)
			}
		}
		add(name, alts)
	}

	if len(props) == 0 {
		return []layout.Value{base}, nil
	}
	sizes, err := m.sizes(props, path)
	if err != nil {
		return nil, err
	}

	out := make([]layout.Value, 0, min(perm.Count(sizes), 1<<16))
	for tuple := range perm.All(sizes) {
		res := layout.CloneObject(base)
		var current *layout.Object
		for i, p := range props {
			alt := p.alts.Items()[tuple[i]]
			if p.name == m.e.sentinel {
				current, _ = alt.(*layout.Object)
				continue
			}
			single := layout.NewObject()
			single.Set(p.name, alt)
			layout.DeepMerge(res, replaceArrays, single)
		}
		if current != nil {
			layout.DeepMerge(res, replaceArrays, current)
		}
		out = append(out, res)
	}
	return out, nil
}

func (m *mapScope) expandArray(arr *layout.Array, path string) ([]layout.Value, error) {
	var props []*mapProp
	for i, item := range arr.Items {
		sub, err := m.expand(item, indexPath(path, i))
		if err != nil {
			return nil, err
		}
		if len(sub) > 0 {
			props = append(props, &mapProp{index: i, alts: layout.NewPermutationSet(sub...)})
		}
	}
	if len(props) == 0 {
		return nil, nil
	}
	sizes, err := m.sizes(props, path)
	if err != nil {
		return nil, err
	}

	out := make([]layout.Value, 0, min(perm.Count(sizes), 1<<16))
	for tuple := range perm.All(sizes) {
		res := layout.Clone(arr).(*layout.Array)
		for i, p := range props {
			res.Items[p.index] = layout.Clone(p.alts.Items()[tuple[i]])
		}
		out = append(out, res)
	}
	return out, nil
}

func (m *mapScope) sizes(props []*mapProp, path string) ([]int, error) {
	sizes := make([]int, len(props))
	for i, p := range props {
		sizes[i] = p.alts.Len()
	}
	if limit := m.e.opts.MaxPermutations; limit > 0 && perm.Count(sizes) > limit {
		return nil, jerrors.At(jerrors.New(jerrors.ErrCodePermutationLimit,
			"map expands to more than %d permutations", limit), path)
	}
	return sizes, nil
}

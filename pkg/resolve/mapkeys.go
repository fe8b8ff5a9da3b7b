package resolve

import (
	"github.com/matzehuels/jrevolver/pkg/directive"
	jerrors "github.com/matzehuels/jrevolver/pkg/errors"
	"github.com/matzehuels/jrevolver/pkg/layout"
)

// registerFragments records every node marked with "--mapKey" in pre-order;
// the first registration of a name wins. A node carrying "--mapContent" is
// replaced by that content, which is also what gets registered.
func (m *mapScope) registerFragments(v layout.Value) layout.Value {
	switch t := v.(type) {
	case *layout.Array:
		for i, item := range t.Items {
			t.Items[i] = m.registerFragments(item)
		}

	case *layout.Object:
		name, named := fragmentName(t)
		reserved := named && !m.has(name)
		if reserved {
			m.fragments[name] = nil
		}

		contentKey := directive.MapContent.String()
		hasContent := t.Has(contentKey)
		for _, key := range t.Keys() {
			if d, _ := directive.ParseKey(key); d.Kind == directive.Comment {
				continue
			}
			child, _ := t.Get(key)
			t.Set(key, m.registerFragments(child))
		}
		if hasContent {
			v = mustGet(t, contentKey)
		}
		if reserved {
			m.fragments[name] = layout.Clone(v)
		}
	}
	return v
}

func (m *mapScope) has(name string) bool {
	_, ok := m.fragments[name]
	return ok
}

// fragmentName removes the "--mapKey" marker of obj and returns its name.
// Both "--mapKey": "name" and "--mapKey name": ... are accepted.
func fragmentName(obj *layout.Object) (string, bool) {
	var name string
	var found bool
	for _, key := range obj.Keys() {
		d, err := directive.ParseKey(key)
		if err != nil || d.Kind != directive.MapKey {
			continue
		}
		if d.Arg == "" {
			if s, ok := mustGet(obj, key).(layout.String); ok && !found {
				name, found = string(s), true
			}
		} else if !found {
			name, found = d.Arg, true
		}
		obj.Delete(key)
	}
	return name, found && name != ""
}

func mustGet(obj *layout.Object, key string) layout.Value {
	v, _ := obj.Get(key)
	return v
}

// substitute replaces every "--mapKey name" string with a copy of the
// registered fragment. visiting holds the names being substituted, so a
// fragment referencing itself is reported instead of recursing forever.
func (m *mapScope) substitute(v layout.Value, path string, visiting map[string]bool) layout.Value {
	switch t := v.(type) {
	case layout.String:
		d := directive.ParseValue(t)
		if d.Kind != directive.MapKey {
			return v
		}
		frag := m.fragments[d.Arg]
		switch {
		case frag == nil:
			m.e.warn(jerrors.ErrCodeInvalidMap, path, "unknown mapKey %q", d.Arg)
			return layout.Null{}
		case visiting[d.Arg]:
			m.e.warn(jerrors.ErrCodeInvalidMap, path, "mapKey %q references itself", d.Arg)
			return layout.Null{}
		}
		if visiting == nil {
			visiting = make(map[string]bool)
		}
		visiting[d.Arg] = true
		out := m.substitute(layout.Clone(frag), path, visiting)
		delete(visiting, d.Arg)
		return out

	case *layout.Array:
		for i, item := range t.Items {
			t.Items[i] = m.substitute(item, indexPath(path, i), visiting)
		}

	case *layout.Object:
		for _, key := range t.Keys() {
			if d, _ := directive.ParseKey(key); d.Kind == directive.Comment {
				continue
			}
			t.Set(key, m.substitute(mustGet(t, key), joinPath(path, key), visiting))
		}
	}
	return v
}

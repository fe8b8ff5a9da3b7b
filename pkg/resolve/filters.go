package resolve

import (
	"slices"

	"github.com/matzehuels/jrevolver/pkg/directive"
	jerrors "github.com/matzehuels/jrevolver/pkg/errors"
	"github.com/matzehuels/jrevolver/pkg/layout"
)

// segment is one step from the document root to a nested filter list.
// Object key steps have index -1.
type segment struct {
	key   string
	index int
}

// collectFilters moves every "--mapExclude" and "--mapAllowOnly" list in v
// to the scope, re-rooting nested entries at the document root. A list
// nested under a map property is rooted at the property's bare name, so an
// entry written inside an alternative matches the permutations that picked
// it.
func (m *mapScope) collectFilters(v layout.Value, path string, segs []segment) error {
	switch t := v.(type) {
	case *layout.Array:
		for i, item := range t.Items {
			if err := m.collectFilters(item, indexPath(path, i), append(slices.Clip(segs), segment{index: i})); err != nil {
				return err
			}
		}

	case *layout.Object:
		for _, key := range t.Keys() {
			p := joinPath(path, key)
			d, err := directive.ParseKey(key)
			if err != nil {
				return jerrors.At(err, p)
			}
			child := mustGet(t, key)

			switch {
			case d.Kind == directive.Comment:
			case d.Kind.IsFilter():
				entries, err := filterEntries(child, p, d.Kind)
				if err != nil {
					return err
				}
				for _, entry := range entries {
					entry = reroot(stripComments(entry), segs)
					if d.Kind == directive.MapExclude {
						m.exclude = append(m.exclude, entry)
					} else {
						m.allowOnly = append(m.allowOnly, entry)
					}
				}
				t.Delete(key)
			case d.Kind.IsMap():
				alts, ok := child.(*layout.Array)
				if !ok {
					continue
				}
				inner := segs
				if d.Arg != "" {
					inner = append(slices.Clip(segs), segment{key: d.Arg, index: -1})
				}
				for i, alt := range alts.Items {
					if err := m.collectFilters(alt, indexPath(p, i), inner); err != nil {
						return err
					}
				}
			default:
				if err := m.collectFilters(child, p, append(slices.Clip(segs), segment{key: key, index: -1})); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func filterEntries(v layout.Value, path string, kind directive.Kind) ([]layout.Value, error) {
	arr, ok := v.(*layout.Array)
	if !ok {
		return nil, jerrors.At(jerrors.New(jerrors.ErrCodeInvalidFilter,
			"%s should be an array, got %s", kind, v.Kind()), path)
	}
	var entries []layout.Value
	for i, entry := range arr.Items {
		if directive.ParseValue(entry).Kind == directive.Comment {
			continue
		}
		if _, ok := entry.(*layout.Object); !ok {
			return nil, jerrors.At(jerrors.New(jerrors.ErrCodeInvalidFilter,
				"%s entries should be objects, got %s", kind, entry.Kind()), indexPath(path, i))
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// reroot wraps entry in the keys and indices of segs, innermost first.
// Array positions before the entry are padded with nulls.
func reroot(entry layout.Value, segs []segment) layout.Value {
	for i := len(segs) - 1; i >= 0; i-- {
		s := segs[i]
		if s.index < 0 {
			obj := layout.NewObject()
			obj.Set(s.key, entry)
			entry = obj
			continue
		}
		items := make([]layout.Value, s.index+1)
		for j := range s.index {
			items[j] = layout.Null{}
		}
		items[s.index] = entry
		entry = layout.NewArray(items...)
	}
	return entry
}

// expandFilters replaces filter entries containing maps by their
// permutations.
func (m *mapScope) expandFilters() error {
	var err error
	if m.exclude, err = m.expandEntries(m.exclude); err != nil {
		return err
	}
	m.allowOnly, err = m.expandEntries(m.allowOnly)
	return err
}

func (m *mapScope) expandEntries(entries []layout.Value) ([]layout.Value, error) {
	var out []layout.Value
	for _, entry := range entries {
		sub, err := m.expand(entry, "")
		if err != nil {
			return nil, err
		}
		if sub == nil {
			out = append(out, entry)
			continue
		}
		out = append(out, sub...)
	}
	return out, nil
}

// filter drops the permutations matching an exclude entry and, when an
// allow-only list exists, those matching none of its entries.
func (m *mapScope) filter(perms []layout.Value) []layout.Value {
	if len(m.exclude) == 0 && len(m.allowOnly) == 0 {
		return perms
	}
	out := perms[:0]
	for _, p := range perms {
		if matchesAny(p, m.exclude) {
			continue
		}
		if len(m.allowOnly) > 0 && !matchesAny(p, m.allowOnly) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func matchesAny(v layout.Value, entries []layout.Value) bool {
	return slices.ContainsFunc(entries, func(entry layout.Value) bool {
		return matches(v, entry)
	})
}

// matches reports whether v satisfies the partial entry: every key of an
// object entry must be present in v with a matching value. Arrays and
// scalars must be equal.
func matches(v, entry layout.Value) bool {
	want, ok := entry.(*layout.Object)
	if !ok {
		return layout.Equal(v, entry)
	}
	if want.Len() == 0 {
		return true
	}
	got, ok := v.(*layout.Object)
	if !ok {
		return false
	}
	for _, key := range want.Keys() {
		gv, ok := got.Get(key)
		if !ok || !matches(gv, mustGet(want, key)) {
			return false
		}
	}
	return true
}

package resolve

import (
	"slices"
	"strings"

	"github.com/matzehuels/jrevolver/pkg/directive"
	jerrors "github.com/matzehuels/jrevolver/pkg/errors"
	"github.com/matzehuels/jrevolver/pkg/layout"
	"github.com/matzehuels/jrevolver/pkg/perm"
)

// resolveMerges applies every merge directive in the tree rooted at v.
func (e *expansion) resolveMerges(v layout.Value, path string) (layout.Value, error) {
	switch t := v.(type) {
	case *layout.Array:
		for i, item := range t.Items {
			out, err := e.resolveMerges(item, indexPath(path, i))
			if err != nil {
				return nil, err
			}
			t.Items[i] = out
		}

	case *layout.Object:
		// Merges next to an include key wait for the include to combine
		// both halves first.
		if _, _, pending := firstInclude(t); !pending {
			if err := applyMerges(t, path); err != nil {
				return nil, err
			}
		}
		for _, key := range t.Keys() {
			if d, _ := directive.ParseKey(key); d.Kind == directive.Comment {
				continue
			}
			child, _ := t.Get(key)
			out, err := e.resolveMerges(child, joinPath(path, key))
			if err != nil {
				return nil, err
			}
			t.Set(key, out)
		}
	}
	return v, nil
}

// applyMerges folds the merge directives of obj into their sibling
// properties. All concatenations run before any zipper merge.
func applyMerges(obj *layout.Object, path string) error {
	for _, kind := range []directive.Kind{directive.Concat, directive.ZipperMerge} {
		for _, key := range obj.Keys() {
			d, err := directive.ParseKey(key)
			if err != nil {
				return jerrors.At(err, joinPath(path, key))
			}
			if d.Kind != kind {
				continue
			}
			v, _ := obj.Get(key)
			obj.Delete(key)

			base, ok := obj.Get(d.Arg)
			if !ok {
				obj.Set(d.Arg, v)
				continue
			}
			if _, isObj := base.(*layout.Object); isObj {
				return jerrors.At(jerrors.New(jerrors.ErrCodeInvalidMerge, "%s cannot merge into an object", kind), joinPath(path, d.Arg))
			}
			if _, isObj := v.(*layout.Object); isObj {
				return jerrors.At(jerrors.New(jerrors.ErrCodeInvalidMerge, "%s value must not be an object", kind), joinPath(path, key))
			}
			if kind == directive.Concat {
				obj.Set(d.Arg, concat(base, v))
			} else {
				obj.Set(d.Arg, zipper(base, v))
			}
		}
	}
	return nil
}

// concat appends v to base. Arrays absorb their operand; two scalars join
// as text.
func concat(base, v layout.Value) layout.Value {
	if arr, ok := base.(*layout.Array); ok {
		return layout.NewArray(append(slices.Clone(arr.Items), items(v)...)...)
	}
	if arr, ok := v.(*layout.Array); ok {
		return layout.NewArray(append([]layout.Value{base}, arr.Items...)...)
	}
	return layout.String(scalarText(base) + scalarText(v))
}

// zipper interleaves base and v. Two scalars interleave character by
// character; anything else interleaves one array level deep.
func zipper(base, v layout.Value) layout.Value {
	if layout.IsScalar(base) && layout.IsScalar(v) {
		return layout.String(interleaveRunes([]rune(scalarText(base)), []rune(scalarText(v))))
	}
	return layout.NewArray(interleave(items(base), items(v))...)
}

// interleave zips any number of sources position by position.
func interleave(sources ...[]layout.Value) []layout.Value {
	sizes := make([]int, len(sources))
	for i, s := range sources {
		sizes[i] = len(s)
	}
	var out []layout.Value
	for pos, srcs := range perm.Zip(sizes) {
		for _, src := range srcs {
			out = append(out, sources[src][pos])
		}
	}
	return out
}

func interleaveRunes(a, b []rune) string {
	var sb strings.Builder
	sources := [][]rune{a, b}
	for pos, srcs := range perm.Zip([]int{len(a), len(b)}) {
		for _, src := range srcs {
			sb.WriteRune(sources[src][pos])
		}
	}
	return sb.String()
}

// items returns the elements of an array, or v alone.
func items(v layout.Value) []layout.Value {
	if arr, ok := v.(*layout.Array); ok {
		return arr.Items
	}
	return []layout.Value{v}
}

// scalarText renders a scalar the way it reads in JSON, without quotes.
func scalarText(v layout.Value) string {
	switch t := v.(type) {
	case layout.String:
		return string(t)
	case layout.Number:
		return string(t)
	case layout.Bool:
		if t {
			return "true"
		}
		return "false"
	}
	return "null"
}

package layout

import (
	"encoding/json"
	"slices"
)

// Canonicalize returns a copy of v with object keys sorted recursively.
// Array order is left untouched. Permutation sets become arrays.
func Canonicalize(v Value) Value {
	switch t := v.(type) {
	case *Object:
		keys := t.Keys()
		slices.Sort(keys)
		out := NewObject()
		for _, k := range keys {
			child, _ := t.Get(k)
			out.Set(k, Canonicalize(child))
		}
		return out
	case *Array:
		return &Array{Items: canonicalItems(t.Items)}
	case *PermutationSet:
		return &Array{Items: canonicalItems(t.items)}
	}
	return v
}

func canonicalItems(items []Value) []Value {
	out := make([]Value, len(items))
	for i, item := range items {
		out[i] = Canonicalize(item)
	}
	return out
}

// ToInterface converts v to the generic representation produced by
// encoding/json: map[string]any, []any, string, bool, nil, and int64 or
// float64 for numbers.
func ToInterface(v Value) any {
	switch t := v.(type) {
	case nil, Null:
		return nil
	case Bool:
		return bool(t)
	case String:
		return string(t)
	case Number:
		if i, err := json.Number(t).Int64(); err == nil {
			return i
		}
		f, _ := json.Number(t).Float64()
		return f
	case *Array:
		return interfaceItems(t.Items)
	case *PermutationSet:
		return interfaceItems(t.items)
	case *Object:
		m := make(map[string]any, t.Len())
		for p := t.m.Oldest(); p != nil; p = p.Next() {
			m[p.Key] = ToInterface(p.Value)
		}
		return m
	}
	return nil
}

func interfaceItems(items []Value) []any {
	out := make([]any, len(items))
	for i, item := range items {
		out[i] = ToInterface(item)
	}
	return out
}

// Package layout defines the JSON value model used by the resolution engine.
//
// A layout document is a tree of [Value]s. The tree is a closed set of
// variants: [Null], [Bool], [Number], [String], [*Array], [*Object] and
// [*PermutationSet]. Objects keep their keys in insertion order so that map
// expansion produces permutations in document order. Numbers keep the literal
// text they were parsed from.
//
// A nil Value means "absent" and is distinct from [Null].
//
// # Cloning and merging
//
// [Clone] returns a structurally independent copy of any value, including
// nested permutation sets. [DeepMerge] merges objects key-wise, with options
// controlling how arrays and permutation sets combine, and
// [PermutationSet.Merge] implements the positional merge algebra used when
// two sets of alternatives meet at the same position.
//
// # Serialization
//
// [Parse] reads JSON (comments and trailing commas are tolerated) and
// [Marshal] / [MarshalIndent] write it back. [Canonicalize] sorts object keys
// recursively so that structurally equal values serialize identically.
package layout

import (
	"encoding/json"
	"strconv"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Kind identifies the variant of a [Value].
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
	KindPermutationSet
)

var kindNames = [...]string{
	KindNull:           "null",
	KindBool:           "bool",
	KindNumber:         "number",
	KindString:         "string",
	KindArray:          "array",
	KindObject:         "object",
	KindPermutationSet: "permutation set",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
	return kindNames[k]
}

// Value is a node of a layout tree.
type Value interface {
	Kind() Kind
	isValue()
}

// Null is the JSON null literal.
type Null struct{}

// Bool is a JSON boolean.
type Bool bool

// Number is a JSON number, kept as its literal text.
type Number json.Number

// String is a JSON string.
type String string

// Array is a JSON array.
type Array struct {
	Items []Value
}

// Object is a JSON object with insertion-ordered keys.
type Object struct {
	m *orderedmap.OrderedMap[string, Value]
}

func (Null) Kind() Kind            { return KindNull }
func (Bool) Kind() Kind            { return KindBool }
func (Number) Kind() Kind          { return KindNumber }
func (String) Kind() Kind          { return KindString }
func (*Array) Kind() Kind          { return KindArray }
func (*Object) Kind() Kind         { return KindObject }
func (*PermutationSet) Kind() Kind { return KindPermutationSet }

func (Null) isValue()            {}
func (Bool) isValue()            {}
func (Number) isValue()          {}
func (String) isValue()          {}
func (*Array) isValue()          {}
func (*Object) isValue()         {}
func (*PermutationSet) isValue() {}

// Int returns the Number for n.
func Int(n int) Number {
	return Number(strconv.Itoa(n))
}

// Float64 returns the numeric value of n, or 0 if the literal is malformed.
func (n Number) Float64() float64 {
	f, _ := strconv.ParseFloat(string(n), 64)
	return f
}

// NewArray returns an array holding items.
func NewArray(items ...Value) *Array {
	if items == nil {
		items = []Value{}
	}
	return &Array{Items: items}
}

// Len returns the number of items in a.
func (a *Array) Len() int {
	return len(a.Items)
}

// NewObject returns an empty object.
func NewObject() *Object {
	return &Object{m: orderedmap.New[string, Value]()}
}

// Len returns the number of keys in o.
func (o *Object) Len() int {
	return o.m.Len()
}

// Get returns the value stored under key.
func (o *Object) Get(key string) (Value, bool) {
	return o.m.Get(key)
}

// Has reports whether key is present.
func (o *Object) Has(key string) bool {
	_, ok := o.m.Get(key)
	return ok
}

// Set stores v under key. An existing key keeps its position.
func (o *Object) Set(key string, v Value) {
	o.m.Set(key, v)
}

// Delete removes key and reports whether it was present.
func (o *Object) Delete(key string) bool {
	_, ok := o.m.Delete(key)
	return ok
}

// Keys returns a snapshot of the keys in insertion order. Callers may mutate
// o while ranging over the result.
func (o *Object) Keys() []string {
	keys := make([]string, 0, o.m.Len())
	for p := o.m.Oldest(); p != nil; p = p.Next() {
		keys = append(keys, p.Key)
	}
	return keys
}

// IsEmpty reports whether v is an empty object, array or permutation set.
func IsEmpty(v Value) bool {
	switch t := v.(type) {
	case *Object:
		return t.Len() == 0
	case *Array:
		return t.Len() == 0
	case *PermutationSet:
		return t.Len() == 0
	}
	return false
}

// IsScalar reports whether v is null, a boolean, a number or a string.
func IsScalar(v Value) bool {
	switch v.(type) {
	case Null, Bool, Number, String:
		return true
	}
	return false
}

// Clone returns a deep copy of v. Scalars are immutable and returned as is.
func Clone(v Value) Value {
	switch t := v.(type) {
	case *Object:
		out := NewObject()
		for p := t.m.Oldest(); p != nil; p = p.Next() {
			out.m.Set(p.Key, Clone(p.Value))
		}
		return out
	case *Array:
		return &Array{Items: cloneItems(t.Items)}
	case *PermutationSet:
		return &PermutationSet{items: cloneItems(t.items)}
	}
	return v
}

// CloneObject is Clone for objects.
func CloneObject(o *Object) *Object {
	if o == nil {
		return nil
	}
	return Clone(o).(*Object)
}

func cloneItems(items []Value) []Value {
	out := make([]Value, len(items))
	for i, v := range items {
		out[i] = Clone(v)
	}
	return out
}

// Equal reports whether a and b are structurally equal. Object key order is
// ignored; array and permutation set order is not. Numbers compare by value.
func Equal(a, b Value) bool {
	switch x := a.(type) {
	case nil:
		return b == nil
	case Null:
		_, ok := b.(Null)
		return ok
	case Bool:
		y, ok := b.(Bool)
		return ok && x == y
	case String:
		y, ok := b.(String)
		return ok && x == y
	case Number:
		y, ok := b.(Number)
		if !ok {
			return false
		}
		if x == y {
			return true
		}
		fx, errX := strconv.ParseFloat(string(x), 64)
		fy, errY := strconv.ParseFloat(string(y), 64)
		return errX == nil && errY == nil && fx == fy
	case *Array:
		y, ok := b.(*Array)
		return ok && equalItems(x.Items, y.Items)
	case *PermutationSet:
		y, ok := b.(*PermutationSet)
		return ok && equalItems(x.items, y.items)
	case *Object:
		y, ok := b.(*Object)
		if !ok || x.Len() != y.Len() {
			return false
		}
		for p := x.m.Oldest(); p != nil; p = p.Next() {
			w, ok := y.m.Get(p.Key)
			if !ok || !Equal(p.Value, w) {
				return false
			}
		}
		return true
	}
	return false
}

func equalItems(a, b []Value) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}

// Unique returns items with deep duplicates removed, keeping the first
// occurrence of each value.
func Unique(items []Value) []Value {
	out := make([]Value, 0, len(items))
	for _, v := range items {
		dup := false
		for _, seen := range out {
			if Equal(v, seen) {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, v)
		}
	}
	return out
}

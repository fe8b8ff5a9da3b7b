package layout

// ArrayBehavior controls how DeepMerge combines two arrays under the same key.
type ArrayBehavior int

const (
	// ArrayReplace overwrites the destination array wholesale.
	ArrayReplace ArrayBehavior = iota
	// ArrayMerge concatenates the source array onto the destination.
	ArrayMerge
)

// MergeOptions configures DeepMerge. The zero value replaces arrays, adds
// permutation sets together and lets empty values replace non-empty ones.
type MergeOptions struct {
	Arrays          ArrayBehavior
	PermutationSets MergeBehavior
	Empty           EmptyPolicy
}

// DeepMerge merges sources into target from left to right and returns target.
// Nested objects merge key-wise; every other conflict is decided by the last
// source. Values taken from sources are cloned, so sources are never mutated.
//
// A nil target is replaced by a new object.
func DeepMerge(target *Object, opts MergeOptions, sources ...*Object) *Object {
	if target == nil {
		target = NewObject()
	}
	for _, src := range sources {
		if src == nil {
			continue
		}
		for p := src.m.Oldest(); p != nil; p = p.Next() {
			mergeKey(target, p.Key, p.Value, opts)
		}
	}
	return target
}

func mergeKey(target *Object, key string, v Value, opts MergeOptions) {
	existing, exists := target.Get(key)

	switch t := v.(type) {
	case *Object:
		if dst, ok := existing.(*Object); ok {
			DeepMerge(dst, opts, t)
			return
		}
		target.Set(key, Clone(t))

	case *Array:
		if dst, ok := existing.(*Array); ok && opts.Arrays == ArrayMerge {
			dst.Items = append(dst.Items, cloneItems(t.Items)...)
			return
		}
		target.Set(key, Clone(t))

	case *PermutationSet:
		src := Clone(t).(*PermutationSet)
		if dst, ok := existing.(*PermutationSet); ok {
			switch opts.PermutationSets {
			case Replace:
				target.Set(key, src)
			default:
				dst.Merge(src, opts.PermutationSets, opts.Empty)
			}
			return
		}
		if exists && opts.PermutationSets == MergeAdd {
			target.Set(key, NewPermutationSet(existing, src))
			return
		}
		target.Set(key, src)

	default:
		target.Set(key, v)
	}
}

// mergeArrayInto merges src into dst index by index, the way DeepMerge merges
// object keys.
func mergeArrayInto(dst *Array, src *Array, opts MergeOptions) {
	for i, v := range src.Items {
		if i >= len(dst.Items) {
			dst.Items = append(dst.Items, Clone(v))
			continue
		}
		switch t := v.(type) {
		case *Object:
			if d, ok := dst.Items[i].(*Object); ok {
				DeepMerge(d, opts, t)
				continue
			}
		case *PermutationSet:
			if d, ok := dst.Items[i].(*PermutationSet); ok && opts.PermutationSets != Replace {
				d.Merge(t, opts.PermutationSets, opts.Empty)
				continue
			}
		}
		dst.Items[i] = Clone(v)
	}
}

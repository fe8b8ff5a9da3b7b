package layout

// MergeBehavior governs how two permutation sets, or a permutation set and a
// plain value, combine.
type MergeBehavior int

const (
	// Add appends the other set's items.
	Add MergeBehavior = iota
	// MergeAdd merges positionally and adds conflicting alternatives.
	MergeAdd
	// MergeReplace merges positionally and replaces the first n alternatives.
	MergeReplace
	// Replace replaces object, array and set positions wholesale, subject
	// to the EmptyPolicy. Scalar positions are left unchanged.
	Replace
)

func (b MergeBehavior) String() string {
	switch b {
	case Add:
		return "add"
	case MergeAdd:
		return "merge_add"
	case MergeReplace:
		return "merge_replace"
	case Replace:
		return "replace"
	}
	return "unknown"
}

// EmptyPolicy decides whether Replace may overwrite a non-empty object with
// an empty one.
type EmptyPolicy int

const (
	ReplaceWithEmpty EmptyPolicy = iota
	DontReplaceWithEmpty
)

// PermutationSet is an ordered list of alternative values for one position in
// a layout tree. Items may themselves be permutation sets.
type PermutationSet struct {
	items []Value
}

// NewPermutationSet returns a set holding items. The items are not copied.
func NewPermutationSet(items ...Value) *PermutationSet {
	return &PermutationSet{items: append([]Value(nil), items...)}
}

// Items returns the alternatives in order. The slice is shared with s.
func (s *PermutationSet) Items() []Value {
	return s.items
}

// Len returns the number of alternatives.
func (s *PermutationSet) Len() int {
	return len(s.items)
}

// Append adds clones of vals to the end of s and deduplicates.
func (s *PermutationSet) Append(vals ...Value) *PermutationSet {
	s.items = append(s.items, cloneItems(vals)...)
	s.items = Unique(s.items)
	return s
}

// Merge combines other into s position by position and returns s.
//
// Only the overlapping prefix of the two sets is merged according to
// behavior; items of other beyond the original length of s are always
// appended. Afterwards s is deduplicated, first occurrence winning.
// other is never mutated.
func (s *PermutationSet) Merge(other *PermutationSet, behavior MergeBehavior, policy EmptyPolicy) *PermutationSet {
	if other == nil {
		s.items = Unique(s.items)
		return s
	}
	if behavior == Add {
		return s.Append(other.items...)
	}

	n := len(s.items)
	for i := 0; i < n && i < len(other.items); i++ {
		item := other.items[i]

		switch target := s.items[i].(type) {
		case *PermutationSet:
			s.mergeIntoSet(i, target, item, behavior, policy)

		case *Object:
			if behavior == Replace {
				if policy == ReplaceWithEmpty || !IsEmpty(item) {
					s.items[i] = Clone(item)
				}
				continue
			}
			if o, ok := item.(*Object); ok {
				DeepMerge(target, MergeOptions{PermutationSets: behavior, Empty: policy}, o)
			}

		case *Array:
			if behavior == Replace {
				if policy == ReplaceWithEmpty || !IsEmpty(item) {
					s.items[i] = Clone(item)
				}
				continue
			}
			if a, ok := item.(*Array); ok {
				mergeArrayInto(target, a, MergeOptions{PermutationSets: behavior, Empty: policy})
			}

		default:
			switch behavior {
			case MergeAdd:
				s.items = append(s.items, Clone(item))
			case MergeReplace:
				s.items[i] = Clone(item)
			}
		}
	}

	if len(other.items) > n {
		s.items = append(s.items, cloneItems(other.items[n:])...)
	}
	s.items = Unique(s.items)
	return s
}

func (s *PermutationSet) mergeIntoSet(i int, target *PermutationSet, item Value, behavior MergeBehavior, policy EmptyPolicy) {
	if o, ok := item.(*PermutationSet); ok {
		items := cloneItems(o.items)
		switch behavior {
		case MergeAdd:
			target.items = append(target.items, items...)
		case MergeReplace:
			if len(target.items) > len(items) {
				target.items = append(items, target.items[len(items):]...)
			} else {
				target.items = items
			}
		case Replace:
			target.items = items
		}
		return
	}

	switch behavior {
	case MergeAdd:
		target.items = append(target.items, Clone(item))
	case MergeReplace:
		target.Merge(NewPermutationSet(item), MergeReplace, policy)
	case Replace:
		s.items[i] = Clone(item)
	}
}

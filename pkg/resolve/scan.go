package resolve

import (
	"strconv"

	"github.com/matzehuels/jrevolver/pkg/directive"
	jerrors "github.com/matzehuels/jrevolver/pkg/errors"
	"github.com/matzehuels/jrevolver/pkg/layout"
)

// markers is a bit set of the directive families present in a tree.
type markers uint8

const (
	hasMerge markers = 1 << iota
	hasInclude
	hasMap
)

// scan reports which directive families occur in v. Every directive key is
// validated on the way, so a malformed key fails with its dot path before
// any family runs. Comment values are opaque and not visited.
func scan(v layout.Value, path string) (markers, error) {
	var m markers
	switch t := v.(type) {
	case layout.String:
		switch directive.ParseValue(t).Kind {
		case directive.Include:
			m |= hasInclude
		case directive.MapKey:
			m |= hasMap
		}

	case *layout.Array:
		for i, item := range t.Items {
			sub, err := scan(item, indexPath(path, i))
			if err != nil {
				return 0, err
			}
			m |= sub
		}

	case *layout.PermutationSet:
		for i, item := range t.Items() {
			sub, err := scan(item, indexPath(path, i))
			if err != nil {
				return 0, err
			}
			m |= sub
		}

	case *layout.Object:
		for _, key := range t.Keys() {
			p := joinPath(path, key)
			d, err := directive.ParseKey(key)
			if err != nil {
				return 0, jerrors.At(err, p)
			}
			switch {
			case d.Kind == directive.Comment:
				continue
			case d.Kind == directive.Include:
				m |= hasInclude
			case d.Kind.IsMerge():
				m |= hasMerge
			case d.Kind.IsMap(), d.Kind.IsFilter(),
				d.Kind == directive.MapKey, d.Kind == directive.MapContent:
				m |= hasMap
			}
			child, _ := t.Get(key)
			sub, err := scan(child, p)
			if err != nil {
				return 0, err
			}
			m |= sub
		}
	}
	return m, nil
}

func anyMarker(candidates []layout.Value) (markers, error) {
	var m markers
	for _, c := range candidates {
		sub, err := scan(c, "")
		if err != nil {
			return 0, err
		}
		m |= sub
	}
	return m, nil
}

// joinPath appends an object key to a dot path.
func joinPath(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}

// indexPath appends an array index to a dot path.
func indexPath(path string, i int) string {
	return joinPath(path, strconv.Itoa(i))
}

package resolve

import (
	"github.com/matzehuels/jrevolver/pkg/directive"
	"github.com/matzehuels/jrevolver/pkg/layout"
)

// stripComments removes comment keys and comment string elements from v,
// along with any "--filename" below the top level.
func stripComments(v layout.Value) layout.Value {
	return strip(v, 0)
}

func strip(v layout.Value, depth int) layout.Value {
	switch t := v.(type) {
	case *layout.Array:
		items := t.Items[:0]
		for _, item := range t.Items {
			if directive.ParseValue(item).Kind == directive.Comment {
				continue
			}
			items = append(items, strip(item, depth+1))
		}
		t.Items = items

	case *layout.Object:
		for _, key := range t.Keys() {
			d, _ := directive.ParseKey(key)
			if d.Kind == directive.Comment || (d.Kind == directive.Filename && depth > 0) {
				t.Delete(key)
				continue
			}
			t.Set(key, strip(mustGet(t, key), depth+1))
		}
	}
	return v
}

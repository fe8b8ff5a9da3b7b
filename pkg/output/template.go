package output

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/ohler55/ojg"
	"github.com/ohler55/ojg/jp"
	"github.com/ohler55/ojg/oj"

	"github.com/matzehuels/jrevolver/pkg/layout"
)

var placeholder = regexp.MustCompile(`\{[^}]*\}`)

// ExpandTemplate replaces every "{dot.path}" placeholder in tmpl with the
// value at that path in v. Missing values, null, false and zero render as
// the empty string.
func ExpandTemplate(tmpl string, v layout.Value) string {
	if !strings.Contains(tmpl, "{") {
		return tmpl
	}
	data := layout.ToInterface(v)
	return placeholder.ReplaceAllStringFunc(tmpl, func(m string) string {
		return format(lookup(data, m[1:len(m)-1]))
	})
}

// lookup evaluates a dot path against generic JSON data. An empty path
// selects the whole document.
func lookup(data any, path string) any {
	x := jp.R()
	if path != "" {
		for _, seg := range strings.Split(path, ".") {
			if i, err := strconv.Atoi(seg); err == nil && i >= 0 {
				x = x.N(i)
			} else {
				x = x.C(seg)
			}
		}
	}
	return x.First(data)
}

func format(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		if !t {
			return ""
		}
		return strconv.FormatBool(t)
	case int64:
		if t == 0 {
			return ""
		}
		return strconv.FormatInt(t, 10)
	case float64:
		if t == 0 {
			return ""
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	}
	// Objects and arrays render as compact JSON.
	return oj.JSON(v, &ojg.Options{Sort: true})
}

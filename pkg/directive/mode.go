package directive

import (
	"strings"

	"github.com/matzehuels/jrevolver/pkg/layout"
)

// IncludeMode selects how a key-based include combines with its object.
type IncludeMode int

const (
	// Defaults makes the included file the base; the including object wins ties.
	Defaults IncludeMode = iota
	// Overrides merges the included file on top; it wins ties.
	Overrides
	// Permute turns properties defined on both sides into a map.
	Permute
)

func (m IncludeMode) String() string {
	switch m {
	case Overrides:
		return "OVERRIDES"
	case Permute:
		return "PERMUTE"
	}
	return "DEFAULTS"
}

// ParseIncludeMode reads the value of an include key. Anything that is not
// "OVERRIDES" or "PERMUTE" (compared case-insensitively) selects Defaults.
func ParseIncludeMode(v layout.Value) IncludeMode {
	s, ok := v.(layout.String)
	if !ok {
		return Defaults
	}
	switch strings.ToUpper(strings.TrimSpace(string(s))) {
	case "OVERRIDES":
		return Overrides
	case "PERMUTE":
		return Permute
	}
	return Defaults
}

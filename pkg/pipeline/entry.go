package pipeline

import (
	"encoding/json"
	"os"

	"github.com/matzehuels/jrevolver/pkg/cache"
	"github.com/matzehuels/jrevolver/pkg/layout"
	"github.com/matzehuels/jrevolver/pkg/resolve"
)

// cacheEntry is a cached resolution. Dependencies maps the ID of every
// included document to the hash of its content when the entry was written.
type cacheEntry struct {
	Dependencies map[string]string   `json:"dependencies"`
	Permutations []cachedPermutation `json:"permutations"`
	Warnings     []resolve.Warning   `json:"warnings,omitempty"`
	Includes     []string            `json:"includes,omitempty"`
	Passes       int                 `json:"passes"`
}

type cachedPermutation struct {
	Value    json.RawMessage `json:"value"`
	Filename string          `json:"filename,omitempty"`
}

// newCacheEntry records res. It hashes every include as read now, which is
// the content res was resolved from unless a file changed mid-run; such an
// entry fails validation on the next read.
func newCacheEntry(res *resolve.Result) (*cacheEntry, error) {
	e := &cacheEntry{
		Dependencies: make(map[string]string, len(res.Includes)),
		Permutations: make([]cachedPermutation, len(res.Permutations)),
		Warnings:     res.Warnings,
		Includes:     res.Includes,
		Passes:       res.Passes,
	}
	for _, id := range res.Includes {
		data, err := os.ReadFile(id)
		if err != nil {
			return nil, err
		}
		e.Dependencies[id] = cache.Hash(data)
	}
	for i, p := range res.Permutations {
		e.Permutations[i] = cachedPermutation{
			Value:    layout.Marshal(p.Value),
			Filename: p.Filename,
		}
	}
	return e, nil
}

// valid reports whether every dependency still has the recorded content.
func (e *cacheEntry) valid() bool {
	for id, hash := range e.Dependencies {
		data, err := os.ReadFile(id)
		if err != nil || cache.Hash(data) != hash {
			return false
		}
	}
	return true
}

// result rebuilds the resolution.
func (e *cacheEntry) result() (*resolve.Result, error) {
	res := &resolve.Result{
		Permutations: make([]resolve.Permutation, len(e.Permutations)),
		Warnings:     e.Warnings,
		Includes:     e.Includes,
		Passes:       e.Passes,
	}
	for i, p := range e.Permutations {
		v, err := layout.Parse(p.Value)
		if err != nil {
			return nil, err
		}
		res.Permutations[i] = resolve.Permutation{Value: v, Filename: p.Filename}
	}
	return res, nil
}

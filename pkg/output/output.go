// Package output names and writes resolved permutations.
//
// A layout that resolves to one permutation is written next to where its
// input would be, under the input's file name. A layout with several
// permutations gets a directory named after the input, holding one file per
// permutation. Those files are named by the permutation's "--filename"
// template, or by the content hash of the file when the permutation has no
// template or its name is unusable.
//
// # Templates
//
// A template is plain text with "{dot.path}" placeholders:
//
//	"--filename": "{user.role}-{locale}"
//
// Each placeholder is replaced by the value at that path in the permutation.
// Numeric segments index arrays. Missing and null values become empty
// strings, so "{missing}-x" names the file "-x".
package output

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/matzehuels/jrevolver/pkg/cache"
	jerrors "github.com/matzehuels/jrevolver/pkg/errors"
	"github.com/matzehuels/jrevolver/pkg/layout"
	"github.com/matzehuels/jrevolver/pkg/resolve"
)

const (
	// DefaultIndent is the number of spaces each nesting level is indented by.
	DefaultIndent = 2

	// DefaultExtension is appended to names produced from templates or hashes.
	DefaultExtension = ".json"
)

// Options configures a Plan.
type Options struct {
	// Indent is the indentation width. Zero means DefaultIndent; a negative
	// value writes compact JSON.
	Indent int

	// Extension is appended to template and hash names. Defaults to
	// DefaultExtension.
	Extension string
}

func (o *Options) setDefaults() {
	if o.Indent == 0 {
		o.Indent = DefaultIndent
	}
	if o.Extension == "" {
		o.Extension = DefaultExtension
	}
}

// File is one planned output file.
type File struct {
	// Path is the destination path.
	Path string
	// Data is the encoded permutation.
	Data []byte
	// Template is the expanded "--filename" template, or "" when the
	// permutation had none.
	Template string
	// Hashed reports whether the file is named by its content hash.
	Hashed bool
}

// Plan is the set of files one resolved layout produces.
type Plan struct {
	// Dir is the directory holding the files. For a layout with several
	// permutations it is replaced wholesale by Write.
	Dir string
	// Files are the planned files in permutation order.
	Files []File
	// Multiple reports whether the layout had more than one permutation.
	Multiple bool
	// Repeated counts permutations whose template produced a name that was
	// empty, invalid or already taken, and which were hash named instead.
	Repeated int
}

// NewPlan plans the output of perms for the input file inputName (a base
// name such as "users.json") written under outputDir.
func NewPlan(outputDir, inputName string, perms []resolve.Permutation, opts Options) *Plan {
	opts.setDefaults()

	if len(perms) <= 1 {
		p := &Plan{Dir: outputDir}
		if len(perms) == 1 {
			p.Files = []File{{
				Path: filepath.Join(outputDir, inputName),
				Data: Encode(perms[0].Value, opts.Indent),
			}}
		}
		return p
	}

	base := strings.TrimSuffix(inputName, filepath.Ext(inputName))
	p := &Plan{
		Dir:      filepath.Join(outputDir, base),
		Files:    make([]File, 0, len(perms)),
		Multiple: true,
	}

	used := make(map[string]bool, len(perms))
	for _, perm := range perms {
		f := File{Data: Encode(perm.Value, opts.Indent)}

		name := ""
		if perm.Filename != "" {
			f.Template = ExpandTemplate(perm.Filename, perm.Value)
			name = f.Template + opts.Extension
			if f.Template == "" || used[name] || jerrors.ValidateFilename(name) != nil {
				p.Repeated++
				name = ""
			}
		}
		if name == "" {
			name = cache.Hash(f.Data) + opts.Extension
			f.Hashed = true
		}

		used[name] = true
		f.Path = filepath.Join(p.Dir, name)
		p.Files = append(p.Files, f)
	}
	return p
}

// Write writes the planned files. For a layout with several permutations
// the plan directory is removed and recreated first, so files left by an
// earlier run with different permutations disappear.
func (p *Plan) Write() error {
	if p.Multiple {
		if err := os.RemoveAll(p.Dir); err != nil {
			return fmt.Errorf("clear %s: %w", p.Dir, err)
		}
	}
	if err := os.MkdirAll(p.Dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", p.Dir, err)
	}

	var errs []error
	for _, f := range p.Files {
		if err := os.WriteFile(f.Path, f.Data, 0o644); err != nil {
			errs = append(errs, fmt.Errorf("write %s: %w", f.Path, err))
		}
	}
	return errors.Join(errs...)
}

// Paths returns the destination paths in order.
func (p *Plan) Paths() []string {
	out := make([]string, len(p.Files))
	for i, f := range p.Files {
		out[i] = f.Path
	}
	return out
}

// Encode serializes v with indent spaces per level. Output has no trailing
// newline and does not escape HTML characters.
func Encode(v layout.Value, indent int) []byte {
	return layout.MarshalIndent(v, indent)
}

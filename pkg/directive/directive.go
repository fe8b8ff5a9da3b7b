// Package directive classifies the specially prefixed keys and string values
// that drive layout resolution.
//
// Every directive starts with "--" followed by a function name and, for some
// functions, a single space and an argument:
//
//	"--map color": ["red", "blue"]      map over a property
//	"--map": [{...}, {...}]             map over the enclosing object
//	"--include base.json": "PERMUTE"    include a file under a key
//	"key": "--include part.json"        include a file as a value
//	"--concat tags": ["extra"]          concatenate onto a sibling
//
// [ParseKey] classifies an object key exactly once into a [Directive].
// Resolution code switches on [Kind] instead of matching string prefixes.
package directive

import (
	"strings"

	"github.com/matzehuels/jrevolver/pkg/errors"
	"github.com/matzehuels/jrevolver/pkg/layout"
)

// Prefix starts every directive.
const Prefix = "--"

// Kind identifies a directive function.
type Kind int

const (
	None Kind = iota
	Map
	MapZipper
	MapKey
	MapContent
	MapExclude
	MapAllowOnly
	Include
	Concat
	ZipperMerge
	Comment
	Filename
)

// argument requirements per function
const (
	argNone = iota
	argOptional
	argRequired
)

type function struct {
	kind Kind
	name string
	arg  int
}

// Ordered so that the longest name is tried first when names share a prefix.
var functions = []function{
	{MapZipper, "--mapZipper", argRequired},
	{MapAllowOnly, "--mapAllowOnly", argNone},
	{MapExclude, "--mapExclude", argNone},
	{MapContent, "--mapContent", argNone},
	{MapKey, "--mapKey", argOptional},
	{Map, "--map", argOptional},
	{Include, "--include", argRequired},
	{Concat, "--concat", argRequired},
	{ZipperMerge, "--zipperMerge", argRequired},
	{Filename, "--filename", argNone},
}

func (k Kind) String() string {
	if k == Comment {
		return "--comment"
	}
	for _, f := range functions {
		if f.kind == k {
			return f.name
		}
	}
	return "none"
}

// Directive is a classified key or value.
type Directive struct {
	Kind Kind
	// Arg is the text after the function name and its separating space:
	// the property name for maps and merges, the relative path for includes.
	Arg string
}

// Key returns the object key that invokes kind with arg.
func Key(kind Kind, arg string) string {
	if arg == "" {
		return kind.String()
	}
	return kind.String() + " " + arg
}

// ParseKey classifies an object key.
//
// Keys that do not start with the prefix, or consist of nothing but the
// prefix, are plain keys. Any key starting with "--comment" is a comment.
// A prefixed key naming an unknown function, or with a missing or unexpected
// argument, returns an ErrCodeInvalidDirective error.
func ParseKey(key string) (Directive, error) {
	if !strings.HasPrefix(key, Prefix) || len(key) == len(Prefix) {
		return Directive{}, nil
	}
	if strings.HasPrefix(key, Comment.String()) {
		return Directive{Kind: Comment}, nil
	}

	name, arg, hasArg := strings.Cut(key, " ")
	for _, f := range functions {
		if name != f.name {
			continue
		}
		switch {
		case f.arg == argRequired && strings.TrimSpace(arg) == "":
			return Directive{}, errors.New(errors.ErrCodeInvalidDirective, "%s requires an argument: %q", f.name, key)
		case f.arg == argNone && hasArg:
			return Directive{}, errors.New(errors.ErrCodeInvalidDirective, "%s takes no argument: %q", f.name, key)
		}
		if f.kind == Include {
			arg = strings.TrimSpace(arg)
		}
		return Directive{Kind: f.kind, Arg: arg}, nil
	}
	return Directive{}, errors.New(errors.ErrCodeInvalidDirective, "unknown directive %q", name)
}

// ParseValue classifies a string value. Only includes, mapKey references and
// comments are meaningful as values; everything else is plain data.
func ParseValue(v layout.Value) Directive {
	s, ok := v.(layout.String)
	if !ok {
		return Directive{}
	}
	str := string(s)
	switch {
	case strings.HasPrefix(str, Comment.String()):
		return Directive{Kind: Comment}
	case strings.HasPrefix(str, Include.String()+" "):
		if path := strings.TrimSpace(str[len(Include.String())+1:]); path != "" {
			return Directive{Kind: Include, Arg: path}
		}
	case strings.HasPrefix(str, MapKey.String()+" "):
		if name := str[len(MapKey.String())+1:]; name != "" {
			return Directive{Kind: MapKey, Arg: name}
		}
	}
	return Directive{}
}

// IsMap reports whether k expands into permutations.
func (k Kind) IsMap() bool {
	return k == Map || k == MapZipper
}

// IsMerge reports whether k combines a sibling property.
func (k Kind) IsMerge() bool {
	return k == Concat || k == ZipperMerge
}

// IsFilter reports whether k holds a permutation filter list.
func (k Kind) IsFilter() bool {
	return k == MapExclude || k == MapAllowOnly
}

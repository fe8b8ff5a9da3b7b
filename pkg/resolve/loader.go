package resolve

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	jerrors "github.com/matzehuels/jrevolver/pkg/errors"
)

// Source is a layout document read by a Loader.
type Source struct {
	// ID identifies the document across loads. FileLoader uses absolute
	// paths; include cycles are detected by comparing IDs.
	ID   string
	Data []byte
}

// Loader reads the documents named by include directives.
//
// Load returns an error with code ErrCodeIncludeNotFound when name does not
// exist. Any other error is reported as an unreadable include.
type Loader interface {
	Load(ctx context.Context, name string) (Source, error)
}

// FileLoader resolves include paths against an ordered list of directories.
// The first directory containing the file wins.
type FileLoader struct {
	Dirs []string
}

// NewFileLoader returns a loader searching dirs in order. Empty entries are
// skipped.
func NewFileLoader(dirs ...string) *FileLoader {
	l := &FileLoader{}
	for _, d := range dirs {
		if d != "" {
			l.Dirs = append(l.Dirs, d)
		}
	}
	return l
}

// Load implements Loader.
func (l *FileLoader) Load(ctx context.Context, name string) (Source, error) {
	if err := ctx.Err(); err != nil {
		return Source{}, err
	}
	for _, dir := range l.Dirs {
		p := filepath.Join(dir, filepath.FromSlash(name))
		data, err := os.ReadFile(p)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return Source{}, fmt.Errorf("read %s: %w", p, err)
		}
		abs, err := filepath.Abs(p)
		if err != nil {
			abs = p
		}
		return Source{ID: abs, Data: data}, nil
	}
	return Source{}, jerrors.New(jerrors.ErrCodeIncludeNotFound, "%s not found in [%s]", name, strings.Join(l.Dirs, ", "))
}

// ReadFile reads a root layout file. The returned ID is the absolute path,
// matching the IDs produced by FileLoader.
func ReadFile(name string) (Source, error) {
	data, err := os.ReadFile(name)
	if errors.Is(err, fs.ErrNotExist) {
		return Source{}, jerrors.Wrap(jerrors.ErrCodeFileNotFound, err, "layout %s does not exist", name)
	}
	if err != nil {
		return Source{}, fmt.Errorf("read layout: %w", err)
	}
	abs, err := filepath.Abs(name)
	if err != nil {
		abs = name
	}
	return Source{ID: abs, Data: data}, nil
}

// MemoryLoader serves documents from memory, keyed by slash-separated
// relative path. It is used by tests and by callers that resolve layouts
// without touching the filesystem.
type MemoryLoader map[string]string

// Load implements Loader.
func (m MemoryLoader) Load(_ context.Context, name string) (Source, error) {
	name = path.Clean(name)
	data, ok := m[name]
	if !ok {
		return Source{}, jerrors.New(jerrors.ErrCodeIncludeNotFound, "%s not found", name)
	}
	return Source{ID: name, Data: []byte(data)}, nil
}

package blueprint

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/dmitrymomot/fsmkit"
)

// Source loads a blueprint document from somewhere: a file, an embedded
// filesystem, a config service. Implementations own the raw bytes and the
// parsing; callers compile the returned document themselves or use the
// LoadFile/LoadFS shortcuts.
type Source interface {
	Load(ctx context.Context) (*Document, error)
}

// FileSource loads a blueprint document from a file on disk, choosing the
// parser by file extension.
type FileSource struct {
	parser Parser
	path   string
}

// NewFileSource creates a source for the given path. It fails with
// ErrUnsupportedFormat when no parser handles the file's extension.
func NewFileSource(path string) (*FileSource, error) {
	parser := NewParserForFile(path)
	if parser == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
	return &FileSource{parser: parser, path: path}, nil
}

// Load reads and parses the file. The read runs in a goroutine so a
// cancelled context returns promptly even on slow filesystems.
func (s *FileSource) Load(ctx context.Context) (*Document, error) {
	done := make(chan struct{})
	var content []byte
	var readErr error

	go func() {
		content, readErr = os.ReadFile(s.path)
		close(done)
	}()

	select {
	case <-ctx.Done():
		return nil, errors.Join(ErrLoadingCancelled, ctx.Err())
	case <-done:
	}
	if readErr != nil {
		return nil, errors.Join(ErrFailedToReadFile, readErr)
	}
	return s.parser.Parse(ctx, content)
}

// FSSource loads a blueprint document from an fs.FS, typically an embed.FS
// baked into the binary, choosing the parser by file extension.
type FSSource struct {
	parser Parser
	fsys   fs.FS
	path   string
}

// NewFSSource creates a source for the given path inside fsys. It fails
// with ErrUnsupportedFormat when no parser handles the file's extension.
func NewFSSource(fsys fs.FS, path string) (*FSSource, error) {
	parser := NewParserForFile(path)
	if parser == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
	return &FSSource{parser: parser, fsys: fsys, path: path}, nil
}

// Load reads and parses the file from the filesystem.
func (s *FSSource) Load(ctx context.Context) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Join(ErrLoadingCancelled, err)
	}
	content, err := fs.ReadFile(s.fsys, s.path)
	if err != nil {
		return nil, errors.Join(ErrFailedToReadFile, err)
	}
	return s.parser.Parse(ctx, content)
}

// LoadFile reads, parses, and compiles a blueprint file in one call.
func LoadFile(ctx context.Context, path string, reg *Registry) (*fsmkit.Definition, error) {
	src, err := NewFileSource(path)
	if err != nil {
		return nil, err
	}
	doc, err := src.Load(ctx)
	if err != nil {
		return nil, err
	}
	return Compile(doc, reg)
}

// LoadFS reads, parses, and compiles a blueprint from an fs.FS in one call.
func LoadFS(ctx context.Context, fsys fs.FS, path string, reg *Registry) (*fsmkit.Definition, error) {
	src, err := NewFSSource(fsys, path)
	if err != nil {
		return nil, err
	}
	doc, err := src.Load(ctx)
	if err != nil {
		return nil, err
	}
	return Compile(doc, reg)
}

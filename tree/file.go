package tree

import (
	"bytes"
	"fmt"
	"io"
	"os"
)

// pinnedTypes are the leaf kinds whose type tag is fixed at construction.
// An image node can never be retagged as a text node later.
var pinnedTypes = map[string]bool{
	TypeText:   true,
	TypeBinary: true,
	TypeImage:  true,
}

// File is a leaf node with no children. Content access is backend-aware:
// filesystem-backed files read directly, container-backed files delegate to
// the parent backend directory.
type File struct {
	base
}

// NewFile creates a file node with the given type tag. Tags with a fixed
// concrete kind (text, binary, image) are pinned and ignore SetType.
func NewFile(name string, parent DirNode, backend Backend, typ string) *File {
	f := &File{base: newBase(name, parent, backend, typ)}
	f.pinned = pinnedTypes[typ]
	return f
}

// Bytes returns the file's raw contents.
func (f *File) Bytes(env Env) ([]byte, error) {
	if f.backend == BackendFilesystem {
		data, err := os.ReadFile(f.Path())
		if err != nil {
			return nil, fmt.Errorf("filesystem access: %w", err)
		}
		return data, nil
	}
	bd, err := f.container()
	if err != nil {
		return nil, err
	}
	return bd.ReadEntry(env, f.name)
}

// Text returns the file's contents decoded as UTF-8 text.
func (f *File) Text(env Env) (string, error) {
	data, err := f.Bytes(env)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Reader returns a byte stream over the file's contents.
func (f *File) Reader(env Env) (io.Reader, error) {
	data, err := f.Bytes(env)
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(data), nil
}

// RealPath returns a path on the real filesystem holding the file's
// contents, for handlers that require actual file paths. Container-backed
// files are materialized into a temporary file tracked by env.
func (f *File) RealPath(env Env) (string, error) {
	if f.backend == BackendFilesystem {
		return f.Path(), nil
	}
	bd, err := f.container()
	if err != nil {
		return "", err
	}
	return bd.TempEntry(env, f.name)
}

func (f *File) container() (BackendDir, error) {
	bd, ok := f.parent.(BackendDir)
	if !ok {
		return nil, fmt.Errorf("%w: %s is container-backed but has no backend directory parent",
			ErrInternal, f.name)
	}
	return bd, nil
}

// Equal reports structural equality with another file node.
func (f *File) Equal(other Node) bool {
	of, ok := other.(*File)
	return ok && f.equalBase(of)
}

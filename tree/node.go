// Package tree implements the virtual path tree: a single hierarchical
// namespace spanning the real filesystem and nested archive containers.
//
// Nodes are created lazily as a navigator descends, never pre-built
// recursively. The tree is not safe for unsynchronized concurrent access;
// a host embedding it in a concurrent program must serialize all calls on
// one tree externally.
package tree

import (
	"path/filepath"

	"github.com/nbrowse/nbrowse/internal/util"
)

var logger = util.GetLogger("tree")

// Backend identifies the resolution strategy a node uses for listing
// children and reading bytes.
type Backend int

const (
	// BackendFilesystem nodes resolve directly against the real filesystem.
	BackendFilesystem Backend = iota
	// BackendArchive nodes resolve through the container handle of their
	// nearest anchor ancestor.
	BackendArchive
)

func (b Backend) String() string {
	switch b {
	case BackendFilesystem:
		return "fs"
	case BackendArchive:
		return "archive"
	}
	return "unknown"
}

// Kind is the closed set of node shapes the classifier can produce.
type Kind int

const (
	KindFile Kind = iota
	KindDir
	KindContainer
)

// Type tags produced by the default classification table. The tag set is
// open; user configuration may introduce additional tags.
const (
	TypeDir     = "dir"
	TypeText    = "text"
	TypeBinary  = "binary"
	TypeImage   = "image"
	TypePDF     = "pdf"
	TypeVideo   = "video"
	TypeGeneric = "generic"
)

// Class describes how a named entry should be represented in the tree.
// Format is only set for KindContainer and names the container format key
// under which an opener was registered (see [RegisterContainer]).
type Class struct {
	Kind   Kind
	Type   string
	Format string
}

// Env carries the session collaborators a node needs while materializing
// children or resolving container handles. It is passed by parameter into
// every operation that may need it rather than captured at construction.
type Env interface {
	// Password prompts the user for a container password.
	Password(prompt string) (string, error)

	// TrackTemp registers a temporary file for removal at session teardown.
	TrackTemp(path string)

	// Classify maps an entry name to its node class.
	Classify(name string, isDir bool) Class
}

// Node is any addressable entry in the virtual tree.
type Node interface {
	// Name returns the last path segment of the node.
	Name() string

	// Path returns the absolute external-world path of the node.
	Path() string

	Backend() Backend
	Type() string

	// SetType retags the node. Leaves with a pinned type ignore it.
	SetType(t string)

	Parent() DirNode
	SetParent(p DirNode)

	// Equal reports structural equality: same concrete kind, name, parent
	// (by equality, not identity), backend, and type.
	Equal(other Node) bool
}

// DirNode is a Node that owns a keyed collection of child Nodes.
//
// Two virtual keys are reserved and never stored: "." resolves to the node
// itself and ".." to its parent. Delete, Len, Names, Range, and Contains
// operate over real children only.
type DirNode interface {
	Node

	Get(name string) (Node, bool)
	Set(name string, n Node)
	Delete(name string)
	Len() int
	Names() []string
	Range(fn func(name string, n Node) bool)
	Contains(name string) bool

	// All returns the children plus the synthetic "." and ".." views.
	All() map[string]Node
}

// BackendDir is a DirNode whose children live inside a non-filesystem
// container.
type BackendDir interface {
	DirNode

	// IsAnchor reports whether this node owns the container handle for the
	// subtree below it.
	IsAnchor() bool

	// Anchor returns the filesystem path at which the container's internal
	// namespace root sits.
	Anchor() (string, error)

	// Handle returns the open container handle, opening it on first use.
	Handle(env Env) (ContainerReader, error)

	// Populate materializes the node's children. Calling it again after a
	// successful run is a no-op.
	Populate(env Env) error

	// ReadEntry returns the raw bytes of the named child entry.
	ReadEntry(env Env, name string) ([]byte, error)

	// TempEntry materializes the named child entry into a temporary file
	// tracked by env and returns its filesystem path.
	TempEntry(env Env, name string) (string, error)
}

// base holds the identity fields common to every node kind.
type base struct {
	name    string
	parent  DirNode
	backend Backend
	typ     string
	path    string // cached absolute path; empty means derive on demand
	pinned  bool   // type tag fixed at construction
}

// newBase splits a possibly-absolute name into basename plus cached path.
// The path is resolved eagerly when the constructor has enough to do so;
// deriving lazily from a parent that could in turn derive from its children
// would risk mutual recursion.
func newBase(name string, parent DirNode, backend Backend, typ string) base {
	b := base{
		name:    filepath.Base(name),
		parent:  parent,
		backend: backend,
		typ:     typ,
	}
	switch {
	case b.name != name:
		if abs, err := filepath.Abs(name); err == nil {
			b.path = abs
		}
	case parent != nil:
		b.path = filepath.Join(parent.Path(), b.name)
	case backend == BackendFilesystem:
		if abs, err := filepath.Abs(b.name); err == nil {
			b.path = abs
		}
	}
	return b
}

func (b *base) Name() string     { return b.name }
func (b *base) Backend() Backend { return b.backend }
func (b *base) Type() string     { return b.typ }

func (b *base) SetType(t string) {
	if b.pinned {
		return
	}
	b.typ = t
}

func (b *base) Parent() DirNode     { return b.parent }
func (b *base) SetParent(p DirNode) { b.parent = p }

// Path resolves the node's absolute path: the cached value if present, the
// absolute name for a filesystem root, or the parent's path joined with the
// node's name. A parentless non-filesystem node violates a core invariant;
// it is reported loudly and the bare name returned rather than crashing.
func (b *base) Path() string {
	if b.path != "" {
		return b.path
	}
	switch {
	case b.parent == nil && b.backend == BackendFilesystem:
		abs, err := filepath.Abs(b.name)
		if err != nil {
			logger.Error().Err(err).Str("name", b.name).Msg("Cannot resolve root path")
			return b.name
		}
		b.path = abs
	case b.parent != nil:
		b.path = filepath.Join(b.parent.Path(), b.name)
	default:
		logger.Error().Str("name", b.name).
			Msg("Internal consistency violation: path resolution reached a parentless non-filesystem node")
		return b.name
	}
	return b.path
}

// equalBase compares the identity fields shared by all node kinds.
func (b *base) equalBase(other Node) bool {
	if other == nil {
		return false
	}
	if b.name != other.Name() || b.backend != other.Backend() || b.typ != other.Type() {
		return false
	}
	op := other.Parent()
	if (b.parent == nil) != (op == nil) {
		return false
	}
	if b.parent != nil && !b.parent.Equal(op) {
		return false
	}
	return true
}

package tree

import (
	"path/filepath"
	"sort"

	"github.com/puzpuzpuz/xsync/v4"
)

// Dir is a filesystem-backed directory node owning a keyed collection of
// child nodes. A child's parent reference is a non-owning back-reference
// used only for path derivation and delegation, never for lifetime
// management.
type Dir struct {
	base
	// self is the outermost node embedding this Dir, so that reserved-key
	// resolution and parent links refer to the concrete kind.
	self     DirNode
	children *xsync.Map[string, Node]
}

// NewDir creates a directory node. If name is an absolute path its basename
// becomes the node name and the full path is cached; parent may be nil for
// the tree root.
func NewDir(name string, parent DirNode) *Dir {
	d := &Dir{
		base:     newBase(name, parent, BackendFilesystem, TypeDir),
		children: xsync.NewMap[string, Node](),
	}
	d.self = d
	return d
}

// NewParentOf synthesizes a directory above an existing root, adopting the
// child. Used when navigating upward past the node the session started at.
func NewParentOf(child DirNode) *Dir {
	path := filepath.Dir(child.Path())
	d := &Dir{
		base:     base{name: filepath.Base(path), backend: BackendFilesystem, typ: TypeDir, path: path},
		children: xsync.NewMap[string, Node](),
	}
	d.self = d
	d.children.Store(child.Name(), child)
	child.SetParent(d)
	return d
}

// Path falls back to deriving from the first child when the directory was
// synthesized above a known node and has no parent of its own.
func (d *Dir) Path() string {
	if d.path != "" {
		return d.path
	}
	if d.parent == nil && d.children.Size() > 0 {
		d.children.Range(func(_ string, c Node) bool {
			d.path = filepath.Dir(c.Path())
			return false
		})
		return d.path
	}
	return d.base.Path()
}

// Get resolves a child by name. The reserved keys "." and ".." resolve to
// the node itself and its parent; for ".." the returned node is nil when the
// directory has no parent, with ok still true since the view always exists.
func (d *Dir) Get(name string) (Node, bool) {
	switch name {
	case ".":
		return d.self, true
	case "..":
		if d.parent == nil {
			return nil, true
		}
		return d.parent, true
	}
	return d.children.Load(name)
}

// Set inserts or overwrites a child. Setting "." absorbs the given node's
// identity fields into this one; setting ".." rebinds the parent reference.
func (d *Dir) Set(name string, n Node) {
	switch name {
	case ".":
		d.absorb(n)
	case "..":
		p, ok := n.(DirNode)
		if !ok {
			logger.Warn().Str("name", d.name).Msg("Unsupported operation: parent must be a directory node")
			return
		}
		d.parent = p
	default:
		d.children.Store(name, n)
		if n.Parent() == nil {
			n.SetParent(d.self)
		}
	}
}

// Delete removes a child. The reserved keys cannot be deleted.
func (d *Dir) Delete(name string) {
	if name == "." || name == ".." {
		return
	}
	d.children.Delete(name)
}

// Len returns the number of real children, excluding the reserved views.
func (d *Dir) Len() int { return d.children.Size() }

// Names returns the child names in sorted order.
func (d *Dir) Names() []string {
	names := make([]string, 0, d.children.Size())
	d.children.Range(func(name string, _ Node) bool {
		names = append(names, name)
		return true
	})
	sort.Strings(names)
	return names
}

// Range iterates over the real children until fn returns false.
func (d *Dir) Range(fn func(name string, n Node) bool) {
	d.children.Range(fn)
}

// Contains checks only the real children, never the reserved keys.
func (d *Dir) Contains(name string) bool {
	_, ok := d.children.Load(name)
	return ok
}

// All returns the children plus the synthetic "." and ".." views.
func (d *Dir) All() map[string]Node {
	all := make(map[string]Node, d.children.Size()+2)
	d.children.Range(func(name string, n Node) bool {
		all[name] = n
		return true
	})
	all["."] = d.self
	if d.parent != nil {
		all[".."] = d.parent
	} else {
		all[".."] = nil
	}
	return all
}

// absorb replaces this node's identity fields, and children if the other
// node is a directory. Used when a synthesized parent takes over the
// identity of a freshly resolved one.
func (d *Dir) absorb(n Node) {
	d.name = n.Name()
	d.parent = n.Parent()
	d.backend = n.Backend()
	d.typ = n.Type()
	d.path = ""
	if od, ok := n.(DirNode); ok {
		fresh := xsync.NewMap[string, Node]()
		od.Range(func(name string, c Node) bool {
			fresh.Store(name, c)
			return true
		})
		d.children = fresh
	}
}

// Equal reports structural equality with another directory node.
func (d *Dir) Equal(other Node) bool {
	od, ok := other.(*Dir)
	return ok && d.equalBase(od)
}

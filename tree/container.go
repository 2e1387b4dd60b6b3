package tree

// ContainerEntry describes one entry of a container's internal namespace.
type ContainerEntry struct {
	// InternalPath is the slash-separated path of the entry relative to the
	// container's internal root.
	InternalPath string
	IsDir        bool
}

// ContainerReader is an open container handle capable of listing and
// reading entries inside a non-filesystem namespace.
type ContainerReader interface {
	// Entries lists every entry of the container's internal namespace.
	Entries() ([]ContainerEntry, error)

	// ReadEntry returns the raw bytes stored at the given internal path.
	ReadEntry(internalPath string) ([]byte, error)

	// Reset rewinds the reader's internal cursor. Container readers are
	// commonly single-shot; the tree calls this after every entry read so
	// subsequent reads see a fresh cursor.
	Reset() error

	Close() error
}

// ContainerOpener resolves container handles for one format. Opening may
// fail with ErrPasswordRequired, ErrIncorrectPassword, or ErrFormat.
type ContainerOpener interface {
	// OpenPath opens a container stored at a real filesystem path.
	OpenPath(path, password string) (ContainerReader, error)

	// OpenBytes opens a container from raw bytes, used when the container
	// file itself lives inside another container.
	OpenBytes(data []byte, password string) (ContainerReader, error)
}

// DirEntry is one entry of a real directory listing.
type DirEntry struct {
	Name  string
	IsDir bool
}

// Lister is the filesystem collaborator used to enumerate real directories
// and read file bytes. Errors propagate as filesystem access failures.
type Lister interface {
	List(path string) ([]DirEntry, error)
	ReadBytes(path string) ([]byte, error)
}

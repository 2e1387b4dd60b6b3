package tree

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/puzpuzpuz/xsync/v4"
)

// maxPasswordAttempts bounds interactive password retries during anchor
// resolution.
const maxPasswordAttempts = 3

// ArchiveDir is a directory whose children live inside an archive
// container. An anchor ArchiveDir owns the open container handle for the
// whole subtree below it; non-anchor descendants delegate handle access and
// anchor resolution to the nearest anchor ancestor. Exactly one anchor
// exists per container along any path up to the filesystem root; a nested
// container introduces a fresh anchor at the node where the inner container
// file itself becomes a directory.
type ArchiveDir struct {
	Dir
	format       string
	isAnchor     bool
	anchor       string // memoized; resolution is delegation, caching is not
	handle       ContainerReader
	materialized bool
	data         map[string][]byte // raw entry bytes keyed by requested relative path
}

// NewArchiveDir creates an archive-backed directory node. The anchor flag
// marks the node that owns the container handle: true when the node stands
// for the container file itself, false for directories inside it.
func NewArchiveDir(name string, parent DirNode, format string, isAnchor bool) *ArchiveDir {
	a := &ArchiveDir{
		Dir: Dir{
			base:     newBase(name, parent, BackendArchive, format),
			children: xsync.NewMap[string, Node](),
		},
		format:   format,
		isAnchor: isAnchor,
		data:     map[string][]byte{},
	}
	a.self = a
	if isAnchor {
		a.anchor = a.Path()
	}
	return a
}

// Format returns the container format key the node resolves through.
func (a *ArchiveDir) Format() string { return a.format }

func (a *ArchiveDir) IsAnchor() bool { return a.isAnchor }

// Materialized reports whether Populate has run successfully.
func (a *ArchiveDir) Materialized() bool { return a.materialized }

// Anchor resolves the filesystem path at which the container's internal
// namespace root sits: the node's own path if it is an anchor, otherwise
// the nearest anchor ancestor's. The result is memoized per node.
func (a *ArchiveDir) Anchor() (string, error) {
	if a.anchor != "" {
		return a.anchor, nil
	}
	if a.isAnchor {
		a.anchor = a.Path()
		return a.anchor, nil
	}
	p, ok := a.parent.(BackendDir)
	if !ok {
		return "", fmt.Errorf("%w: non-anchor node %s has no backend directory ancestor",
			ErrInternal, a.name)
	}
	anchor, err := p.Anchor()
	if err != nil {
		return "", err
	}
	a.anchor = anchor
	return anchor, nil
}

// Handle returns the open container handle, delegating to the anchor
// ancestor for non-anchor nodes and opening the container once on first
// access for anchors. Opening a password-protected container prompts
// interactively up to three times before surfacing a resolution failure.
func (a *ArchiveDir) Handle(env Env) (ContainerReader, error) {
	if a.handle != nil {
		return a.handle, nil
	}
	if !a.isAnchor {
		p, ok := a.parent.(BackendDir)
		if !ok {
			return nil, fmt.Errorf("%w: non-anchor node %s has no backend directory ancestor",
				ErrInternal, a.name)
		}
		return p.Handle(env)
	}

	handle, err := a.open(env, "")
	if err == nil {
		a.handle = handle
		return handle, nil
	}
	if !errors.Is(err, ErrPasswordRequired) {
		return nil, err
	}

	for attempt := 0; attempt < maxPasswordAttempts; attempt++ {
		password, perr := env.Password(fmt.Sprintf("%s requires a password: ", a.name))
		if perr != nil {
			// An interrupted prompt aborts the current command only.
			return nil, fmt.Errorf("%w: %v", ErrResolutionFailed, perr)
		}
		handle, err = a.open(env, password)
		if err == nil {
			a.handle = handle
			return handle, nil
		}
		if !errors.Is(err, ErrIncorrectPassword) && !errors.Is(err, ErrPasswordRequired) {
			return nil, err
		}
		logger.Warn().Str("container", a.name).Int("attempt", attempt+1).Msg("Incorrect password")
	}
	return nil, fmt.Errorf("%w: %s: password attempts exhausted", ErrResolutionFailed, a.name)
}

// open resolves the container through its registered opener. Containers
// whose file lives on the real filesystem open by path; containers nested
// inside another container read their own raw bytes through the parent
// first.
func (a *ArchiveDir) open(env Env, password string) (ContainerReader, error) {
	opener, err := containerFor(a.format)
	if err != nil {
		return nil, err
	}
	if a.parent == nil || a.parent.Backend() == BackendFilesystem {
		return opener.OpenPath(a.Path(), password)
	}
	pd, ok := a.parent.(BackendDir)
	if !ok {
		return nil, fmt.Errorf("%w: container-backed node %s has no backend directory parent",
			ErrInternal, a.name)
	}
	raw, err := pd.ReadEntry(env, a.name)
	if err != nil {
		return nil, err
	}
	return opener.OpenBytes(raw, password)
}

// Populate materializes the node's children from the container listing.
// Direct entries become children: directories as nested non-anchor archive
// nodes, container files as fresh anchors, everything else as a file typed
// from its extension. Entries strictly below this node synthesize their
// first path segment as a directory child, since many archivers store only
// file entries and leave directories implicit. Entries already present are
// skipped, so repeated calls are idempotent.
func (a *ArchiveDir) Populate(env Env) error {
	if a.materialized {
		return nil
	}
	handle, err := a.Handle(env)
	if err != nil {
		return err
	}
	anchor, err := a.Anchor()
	if err != nil {
		return err
	}
	entries, err := handle.Entries()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrFormat, err)
	}

	sep := string(filepath.Separator)
	here := filepath.Clean(a.Path())
	for _, entry := range entries {
		full := filepath.Join(anchor, filepath.FromSlash(entry.InternalPath))
		rel, err := filepath.Rel(here, full)
		if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+sep) {
			continue
		}
		name, _, below := strings.Cut(rel, sep)
		if a.Contains(name) {
			continue
		}
		if below || entry.IsDir {
			a.Set(name, NewArchiveDir(name, a, a.format, false))
			continue
		}
		class := env.Classify(name, false)
		if class.Kind == KindContainer && ContainerRegistered(class.Format) {
			a.Set(name, NewArchiveDir(name, a, class.Format, true))
		} else {
			a.Set(name, NewFile(name, a, BackendArchive, class.Type))
		}
	}
	a.materialized = true
	return nil
}

// ReadEntry returns the raw bytes of the named child entry, reading through
// the container handle on first access and caching per requested name. The
// handle's cursor is reset after every read.
func (a *ArchiveDir) ReadEntry(env Env, name string) ([]byte, error) {
	if data, ok := a.data[name]; ok {
		return data, nil
	}
	handle, err := a.Handle(env)
	if err != nil {
		return nil, err
	}
	anchor, err := a.Anchor()
	if err != nil {
		return nil, err
	}
	rel, err := filepath.Rel(anchor, filepath.Join(a.Path(), name))
	if err != nil {
		return nil, fmt.Errorf("%w: %s is not under anchor %s", ErrInternal, name, anchor)
	}
	data, err := handle.ReadEntry(filepath.ToSlash(rel))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rel, err)
	}
	if err := handle.Reset(); err != nil {
		logger.Warn().Err(err).Str("container", a.name).Msg("Failed to reset container cursor")
	}
	a.data[name] = data
	return data, nil
}

// TempEntry materializes the named child entry into a temporary file with
// the entry's extension preserved, registers it with env for deferred
// cleanup, and returns its filesystem path.
func (a *ArchiveDir) TempEntry(env Env, name string) (string, error) {
	data, err := a.ReadEntry(env, name)
	if err != nil {
		return "", err
	}
	tmp, err := os.CreateTemp("", "nbrowse-*"+filepath.Ext(name))
	if err != nil {
		// Cannot create a temp file: unrecoverable resource exhaustion.
		return "", err
	}
	env.TrackTemp(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}
	return tmp.Name(), nil
}

// Equal reports structural equality with another archive directory node.
func (a *ArchiveDir) Equal(other Node) bool {
	oa, ok := other.(*ArchiveDir)
	return ok && a.equalBase(oa) && a.format == oa.format && a.isAnchor == oa.isAnchor
}

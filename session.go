// Package nbrowse provides a navigable virtual path tree spanning the real
// filesystem and nested archive containers, addressed as if they were all
// ordinary directories.
package nbrowse

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/term"

	"github.com/nbrowse/nbrowse/classify"
	"github.com/nbrowse/nbrowse/config"
	"github.com/nbrowse/nbrowse/internal/util"
	"github.com/nbrowse/nbrowse/tree"
)

// Session is the navigator over one virtual path tree: it holds the start
// and current directory nodes, materializes children on descent, owns the
// temp files produced by container reads, and implements [tree.Env] for the
// nodes below it. One Session is single-threaded by design; a concurrent
// host must serialize access externally.
type Session struct {
	id      uuid.UUID
	cfg     *config.Config
	fs      tree.Lister
	table   *classify.Table
	start   tree.DirNode
	current tree.DirNode
	temps   []string
	logger  util.Logger

	// passwordFn overrides the interactive prompt, for tests and
	// non-terminal hosts.
	passwordFn func(prompt string) (string, error)
}

// New creates a Session rooted at startPath given your config and
// materializes the root's children. A nil config uses the defaults.
func New(cfg *config.Config, startPath string) (*Session, error) {
	if cfg == nil {
		cfg = config.NewDefaultConfig()
	}
	abs, err := filepath.Abs(startPath)
	if err != nil {
		return nil, fmt.Errorf("resolve start path: %w", err)
	}

	table := classify.Default()
	table.MergeFiles(cfg.FileTypes)
	table.MergeContainers(cfg.ContainerTypes)

	s := &Session{
		id:     uuid.New(),
		cfg:    cfg,
		fs:     tree.OSFS{},
		table:  table,
		logger: util.GetLogger("session"),
	}
	root := tree.NewDir(abs, nil)
	s.start = root
	s.current = root
	if err := s.PopulateCurrent(); err != nil {
		return nil, err
	}
	s.logger.Debug().Str("session", s.id.String()).Str("start", abs).Msg("Session created")
	return s, nil
}

// ID returns the session's unique identifier.
func (s *Session) ID() string { return s.id.String() }

// Start returns the node the session was rooted at.
func (s *Session) Start() tree.DirNode { return s.start }

// Current returns the directory node the navigator points at.
func (s *Session) Current() tree.DirNode { return s.current }

// SetPasswordFunc replaces the interactive password prompt.
func (s *Session) SetPasswordFunc(fn func(prompt string) (string, error)) {
	s.passwordFn = fn
}

// Password prompts for a container password, with echo disabled when a
// terminal is attached and a plain line read otherwise. Implements
// [tree.Env].
func (s *Session) Password(prompt string) (string, error) {
	if s.passwordFn != nil {
		return s.passwordFn(prompt)
	}
	fmt.Fprint(os.Stderr, prompt)
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		data, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", fmt.Errorf("reading password: %w", err)
		}
		return string(data), nil
	}
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// TrackTemp registers a temporary file for removal at session teardown.
// Implements [tree.Env].
func (s *Session) TrackTemp(path string) {
	s.temps = append(s.temps, path)
}

// TempFiles returns the temp files currently tracked by the session.
func (s *Session) TempFiles() []string { return s.temps }

// Classify maps an entry name to its node class. Implements [tree.Env].
func (s *Session) Classify(name string, isDir bool) tree.Class {
	return s.table.Classify(name, isDir)
}

// PopulateCurrent materializes the current directory's children.
func (s *Session) PopulateCurrent() error {
	return s.Populate(s.current)
}

// Populate materializes a directory's children: backend directories fill in
// from their container listing, filesystem directories from a real listing.
// Children already present are kept, so repeated calls are idempotent.
func (s *Session) Populate(d tree.DirNode) error {
	if bd, ok := d.(tree.BackendDir); ok {
		return bd.Populate(s)
	}
	entries, err := s.fs.List(d.Path())
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if d.Contains(entry.Name) {
			continue
		}
		d.Set(entry.Name, s.newChild(d, entry.Name, entry.IsDir))
	}
	return nil
}

// newChild constructs the right node kind for a filesystem entry. A file
// classified as a container becomes a fresh anchor if its format has an
// opener registered; otherwise it fails closed as a generic file.
func (s *Session) newChild(parent tree.DirNode, name string, isDir bool) tree.Node {
	class := s.table.Classify(name, isDir)
	switch class.Kind {
	case tree.KindDir:
		return tree.NewDir(name, parent)
	case tree.KindContainer:
		if tree.ContainerRegistered(class.Format) {
			return tree.NewArchiveDir(name, parent, class.Format, true)
		}
		s.logger.Warn().Str("name", name).Str("format", class.Format).
			Msg("No container backend registered; treating as generic file")
		return tree.NewFile(name, parent, tree.BackendFilesystem, tree.TypeGeneric)
	default:
		return tree.NewFile(name, parent, tree.BackendFilesystem, class.Type)
	}
}

// Chdir moves the current pointer. An empty name returns to the start node.
// Moving up from a parentless node synthesizes a filesystem parent, which
// is unsupported for non-filesystem roots. The target is populated before
// the pointer moves, so a failed materialization (an aborted password
// prompt, a broken container) leaves the navigator where it was.
func (s *Session) Chdir(name string) error {
	switch name {
	case "":
		return s.moveTo(s.start)
	case ".":
		return nil
	case "..":
		return s.chdirUp()
	}

	node, ok := s.current.Get(name)
	if !ok {
		return fmt.Errorf("%w: %s", tree.ErrNotFound, name)
	}
	dir, ok := node.(tree.DirNode)
	if !ok {
		return fmt.Errorf("%s is not a directory", name)
	}
	return s.moveTo(dir)
}

func (s *Session) moveTo(dir tree.DirNode) error {
	if err := s.Populate(dir); err != nil {
		return err
	}
	s.current = dir
	return nil
}

func (s *Session) chdirUp() error {
	if parent := s.current.Parent(); parent != nil {
		return s.moveTo(parent)
	}
	path := s.current.Path()
	if path == filepath.Dir(path) {
		return fmt.Errorf("%w: already at the filesystem root", tree.ErrNotFound)
	}
	if s.current.Backend() != tree.BackendFilesystem {
		return fmt.Errorf("%w: adding parent paths outside the filesystem", tree.ErrUnsupported)
	}
	return s.moveTo(tree.NewParentOf(s.current))
}

// Lookup resolves a name in the current directory, including the reserved
// "." and ".." views.
func (s *Session) Lookup(name string) (tree.Node, error) {
	node, ok := s.current.Get(name)
	if !ok || node == nil {
		return nil, fmt.Errorf("%w: %s", tree.ErrNotFound, name)
	}
	return node, nil
}

// Cleanup removes the session's temp files. Removal failures are reported,
// not fatal.
func (s *Session) Cleanup() {
	for _, path := range s.temps {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			s.logger.Warn().Err(err).Str("path", path).Msg("Failed to remove temp file")
		}
	}
	s.temps = nil
}

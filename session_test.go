package nbrowse

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nbrowse/nbrowse/config"
	"github.com/nbrowse/nbrowse/tree"
)

// memContainer implements tree.ContainerReader over an in-memory entry set.
type memContainer struct {
	dirs  []string
	files map[string][]byte
}

func (c *memContainer) Entries() ([]tree.ContainerEntry, error) {
	var entries []tree.ContainerEntry
	for _, dir := range c.dirs {
		entries = append(entries, tree.ContainerEntry{InternalPath: dir, IsDir: true})
	}
	for path := range c.files {
		entries = append(entries, tree.ContainerEntry{InternalPath: path})
	}
	return entries, nil
}

func (c *memContainer) ReadEntry(internalPath string) ([]byte, error) {
	data, ok := c.files[internalPath]
	if !ok {
		return nil, fmt.Errorf("%w: %s", tree.ErrNotFound, internalPath)
	}
	return data, nil
}

func (c *memContainer) Reset() error { return nil }
func (c *memContainer) Close() error { return nil }

// memOpener serves the same container for path and byte opens, optionally
// gated by a password.
type memOpener struct {
	container *memContainer
	password  string
	lastPath  string
}

func (o *memOpener) open(password string) (tree.ContainerReader, error) {
	if o.password != "" {
		if password == "" {
			return nil, tree.ErrPasswordRequired
		}
		if password != o.password {
			return nil, tree.ErrIncorrectPassword
		}
	}
	return o.container, nil
}

func (o *memOpener) OpenPath(path, password string) (tree.ContainerReader, error) {
	o.lastPath = path
	return o.open(password)
}

func (o *memOpener) OpenBytes(data []byte, password string) (tree.ContainerReader, error) {
	return o.open(password)
}

// newTestTree builds a real directory with a text file, a subdirectory, and
// a fake container file.
func newTestTree(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("alpha"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "archive.box"), []byte("raw container"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", "b.txt"), []byte("beta"), 0o644))
	return dir
}

func boxConfig(format string) *config.Config {
	cfg := config.NewDefaultConfig()
	cfg.ContainerTypes[".box"] = format
	return cfg
}

func TestNew_PopulatesRoot(t *testing.T) {
	dir := newTestTree(t)

	sess, err := New(nil, dir)
	require.NoError(t, err)

	cur := sess.Current()
	assert.Equal(t, dir, cur.Path())
	assert.True(t, cur.Contains("a.txt"))
	assert.True(t, cur.Contains("sub"))

	node, ok := cur.Get("a.txt")
	require.True(t, ok)
	assert.Equal(t, tree.TypeText, node.Type())

	sub, ok := cur.Get("sub")
	require.True(t, ok)
	assert.IsType(t, &tree.Dir{}, sub)
}

func TestNew_MissingStartPath(t *testing.T) {
	_, err := New(nil, filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}

// Without a registered opener for its format, a container file fails closed
// as a plain generic file.
func TestNew_UnregisteredContainerFailsClosed(t *testing.T) {
	dir := newTestTree(t)

	sess, err := New(boxConfig("box-unregistered"), dir)
	require.NoError(t, err)

	node, ok := sess.Current().Get("archive.box")
	require.True(t, ok)
	assert.IsType(t, &tree.File{}, node)
	assert.Equal(t, tree.TypeGeneric, node.Type())
}

func TestSession_Chdir(t *testing.T) {
	dir := newTestTree(t)
	sess, err := New(nil, dir)
	require.NoError(t, err)

	require.NoError(t, sess.Chdir("sub"))
	assert.Equal(t, filepath.Join(dir, "sub"), sess.Current().Path())
	assert.True(t, sess.Current().Contains("b.txt"))

	require.NoError(t, sess.Chdir(".."))
	assert.Equal(t, dir, sess.Current().Path())

	require.NoError(t, sess.Chdir("."))
	assert.Equal(t, dir, sess.Current().Path())

	assert.ErrorIs(t, sess.Chdir("missing"), tree.ErrNotFound)
	assert.ErrorContains(t, sess.Chdir("a.txt"), "not a directory")
}

func TestSession_Chdir_EmptyReturnsToStart(t *testing.T) {
	dir := newTestTree(t)
	sess, err := New(nil, dir)
	require.NoError(t, err)

	require.NoError(t, sess.Chdir("sub"))
	require.NoError(t, sess.Chdir(""))
	assert.Equal(t, sess.Start(), sess.Current())
}

// Navigating above the original root synthesizes a filesystem parent that
// adopts the old root and picks up its real siblings.
func TestSession_ChdirUp_SynthesizesParent(t *testing.T) {
	dir := newTestTree(t)
	sess, err := New(nil, filepath.Join(dir, "sub"))
	require.NoError(t, err)
	require.Nil(t, sess.Current().Parent())

	require.NoError(t, sess.Chdir(".."))

	cur := sess.Current()
	assert.Equal(t, dir, cur.Path())
	assert.True(t, cur.Contains("sub"))
	assert.True(t, cur.Contains("a.txt"))

	// The old root was adopted, not rebuilt
	sub, ok := cur.Get("sub")
	require.True(t, ok)
	assert.Equal(t, tree.Node(sess.Start()), sub)
}

// Scenario: a filesystem directory contains archive.box; navigating into it
// creates an anchor whose path is the container file's path, and reading an
// internal file returns the exact stored bytes.
func TestSession_ArchiveNavigation(t *testing.T) {
	dir := newTestTree(t)
	opener := &memOpener{container: &memContainer{
		dirs: []string{"docs"},
		files: map[string][]byte{
			"docs/notes.txt": []byte("exact bytes"),
			"top.txt":        []byte("top"),
		},
	}}
	tree.RegisterContainer("box-session", opener)

	sess, err := New(boxConfig("box-session"), dir)
	require.NoError(t, err)

	require.NoError(t, sess.Chdir("archive.box"))
	anchor, ok := sess.Current().(*tree.ArchiveDir)
	require.True(t, ok)
	assert.True(t, anchor.IsAnchor())
	assert.Equal(t, filepath.Join(dir, "archive.box"), opener.lastPath)

	anchorPath, err := anchor.Anchor()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "archive.box"), anchorPath)
	assert.Equal(t, []string{"docs", "top.txt"}, anchor.Names())

	require.NoError(t, sess.Chdir("docs"))
	node, err := sess.Lookup("notes.txt")
	require.NoError(t, err)

	data, err := node.(*tree.File).Bytes(sess)
	require.NoError(t, err)
	assert.Equal(t, []byte("exact bytes"), data)
}

// Moving up from a container root must not synthesize a filesystem parent;
// it walks back into the real tree through the existing parent link.
func TestSession_ChdirUp_FromArchive(t *testing.T) {
	dir := newTestTree(t)
	tree.RegisterContainer("box-up", &memOpener{container: &memContainer{
		files: map[string][]byte{"x.txt": []byte("x")},
	}})

	sess, err := New(boxConfig("box-up"), dir)
	require.NoError(t, err)

	require.NoError(t, sess.Chdir("archive.box"))
	require.NoError(t, sess.Chdir(".."))
	assert.Equal(t, dir, sess.Current().Path())
}

func TestSession_PasswordPrompting(t *testing.T) {
	dir := newTestTree(t)
	tree.RegisterContainer("box-pw", &memOpener{
		container: &memContainer{files: map[string][]byte{"x.txt": []byte("x")}},
		password:  "sesame",
	})

	sess, err := New(boxConfig("box-pw"), dir)
	require.NoError(t, err)

	var prompts []string
	sess.SetPasswordFunc(func(prompt string) (string, error) {
		prompts = append(prompts, prompt)
		if len(prompts) < 3 {
			return "wrong", nil
		}
		return "sesame", nil
	})

	require.NoError(t, sess.Chdir("archive.box"))
	assert.Len(t, prompts, 3)
	assert.Contains(t, prompts[0], "archive.box")
	assert.True(t, sess.Current().Contains("x.txt"))
}

// An interrupted password prompt aborts the command: the error surfaces,
// the navigator stays where it was, and the session keeps working.
func TestSession_PasswordInterruptAbortsCommand(t *testing.T) {
	dir := newTestTree(t)
	tree.RegisterContainer("box-intr", &memOpener{
		container: &memContainer{files: map[string][]byte{"x.txt": []byte("x")}},
		password:  "sesame",
	})

	sess, err := New(boxConfig("box-intr"), dir)
	require.NoError(t, err)

	sess.SetPasswordFunc(func(prompt string) (string, error) {
		return "", errors.New("interrupt")
	})

	err = sess.Chdir("archive.box")
	assert.ErrorIs(t, err, tree.ErrResolutionFailed)
	assert.Equal(t, dir, sess.Current().Path(), "a failed descent must not move the navigator")

	require.NoError(t, sess.Chdir("sub"))
	assert.True(t, sess.Current().Contains("b.txt"))
}

func TestSession_Cleanup(t *testing.T) {
	dir := newTestTree(t)
	sess, err := New(nil, dir)
	require.NoError(t, err)

	tmp := filepath.Join(t.TempDir(), "scratch.png")
	require.NoError(t, os.WriteFile(tmp, []byte{1}, 0o644))
	sess.TrackTemp(tmp)
	sess.TrackTemp(filepath.Join(t.TempDir(), "already-gone"))

	sess.Cleanup()

	assert.NoFileExists(t, tmp)
	assert.Empty(t, sess.TempFiles())
}

func TestSession_Lookup_Reserved(t *testing.T) {
	dir := newTestTree(t)
	sess, err := New(nil, dir)
	require.NoError(t, err)

	self, err := sess.Lookup(".")
	require.NoError(t, err)
	assert.Equal(t, tree.Node(sess.Current()), self)

	_, err = sess.Lookup("..")
	assert.ErrorIs(t, err, tree.ErrNotFound, "the root has no parent to look up")
}

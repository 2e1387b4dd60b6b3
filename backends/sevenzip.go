// Package backends provides the built-in container format implementations
// and their startup registration.
package backends

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/bodgit/sevenzip"

	"github.com/nbrowse/nbrowse/tree"
)

// RegisterSevenZip registers the 7z container opener.
func RegisterSevenZip() {
	tree.RegisterContainer(SevenZipType, sevenZipOpener{})
}

type sevenZipOpener struct{}

func (sevenZipOpener) OpenPath(path, password string) (tree.ContainerReader, error) {
	rc, err := sevenzip.OpenReaderWithPassword(path, password)
	if err != nil {
		return nil, translateOpenErr(err, password)
	}
	return &sevenZipReader{reader: &rc.Reader, closer: rc}, nil
}

func (sevenZipOpener) OpenBytes(data []byte, password string) (tree.ContainerReader, error) {
	r, err := sevenzip.NewReaderWithPassword(bytes.NewReader(data), int64(len(data)), password)
	if err != nil {
		return nil, translateOpenErr(err, password)
	}
	return &sevenZipReader{reader: r}, nil
}

// sevenZipReader adapts a sevenzip.Reader to the tree's container contract.
type sevenZipReader struct {
	reader *sevenzip.Reader
	closer io.Closer
}

func (s *sevenZipReader) Entries() ([]tree.ContainerEntry, error) {
	entries := make([]tree.ContainerEntry, 0, len(s.reader.File))
	for _, f := range s.reader.File {
		entries = append(entries, tree.ContainerEntry{
			InternalPath: f.Name,
			IsDir:        f.FileInfo().IsDir(),
		})
	}
	return entries, nil
}

func (s *sevenZipReader) ReadEntry(internalPath string) ([]byte, error) {
	for _, f := range s.reader.File {
		if f.Name != internalPath || f.FileInfo().IsDir() {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", tree.ErrFormat, err)
		}
		defer rc.Close()
		data, err := io.ReadAll(rc)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", tree.ErrFormat, err)
		}
		return data, nil
	}
	return nil, fmt.Errorf("%w: %s", tree.ErrNotFound, internalPath)
}

// Reset is a no-op: sevenzip opens a fresh substream per entry, so there is
// no shared cursor to rewind.
func (s *sevenZipReader) Reset() error { return nil }

func (s *sevenZipReader) Close() error {
	if s.closer != nil {
		return s.closer.Close()
	}
	return nil
}

// translateOpenErr maps sevenzip open failures onto the tree's error
// taxonomy. The library exposes no sentinel for password problems, so this
// matches on the error text; the mapping boundary is contained here.
func translateOpenErr(err error, password string) error {
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "password") || strings.Contains(msg, "decrypt") ||
		strings.Contains(msg, "checksum") {
		if password == "" {
			return fmt.Errorf("%w: %v", tree.ErrPasswordRequired, err)
		}
		return fmt.Errorf("%w: %v", tree.ErrIncorrectPassword, err)
	}
	return fmt.Errorf("%w: %v", tree.ErrFormat, err)
}

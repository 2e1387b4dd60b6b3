package tree

import (
	"fmt"
	"os"
)

// OSFS is the default Lister backed by the real filesystem.
type OSFS struct{}

func (OSFS) List(path string) ([]DirEntry, error) {
	dirents, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("filesystem access: %w", err)
	}
	entries := make([]DirEntry, 0, len(dirents))
	for _, de := range dirents {
		entries = append(entries, DirEntry{Name: de.Name(), IsDir: de.IsDir()})
	}
	return entries, nil
}

func (OSFS) ReadBytes(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("filesystem access: %w", err)
	}
	return data, nil
}

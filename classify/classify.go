// Package classify maps entry names to node classes via an extension table.
package classify

import (
	"path/filepath"
	"strings"

	"github.com/nbrowse/nbrowse/tree"
)

// Table is an extension-to-class mapping consulted whenever a new child
// node is registered in the tree. The zero extension behavior defaults
// files to text, matching how an unknown file is most usefully shown.
type Table struct {
	files      map[string]string // extension -> type tag
	containers map[string]string // extension -> container format key
}

// Default returns a table covering the built-in type tags.
func Default() *Table {
	return &Table{
		files: map[string]string{
			".txt":  tree.TypeText,
			".md":   tree.TypeText,
			".log":  tree.TypeText,
			".bin":  tree.TypeBinary,
			".jpg":  tree.TypeImage,
			".jpeg": tree.TypeImage,
			".png":  tree.TypeImage,
			".bmp":  tree.TypeImage,
			".webp": tree.TypeImage,
			".pdf":  tree.TypePDF,
			".mp4":  tree.TypeVideo,
			".mkv":  tree.TypeVideo,
			".webm": tree.TypeVideo,
			".gif":  tree.TypeVideo,
		},
		containers: map[string]string{
			".7z": "7z",
		},
	}
}

// MergeFiles applies extension-to-type overrides, e.g. from user config.
func (t *Table) MergeFiles(overrides map[string]string) {
	for ext, typ := range overrides {
		t.files[normalizeExt(ext)] = typ
	}
}

// MergeContainers applies extension-to-format overrides.
func (t *Table) MergeContainers(overrides map[string]string) {
	for ext, format := range overrides {
		t.containers[normalizeExt(ext)] = format
	}
}

// Classify is the pure classification function the tree consults when
// registering children. Directories are always plain directories; container
// formats are recognized by extension on files only.
func (t *Table) Classify(name string, isDir bool) tree.Class {
	if isDir {
		return tree.Class{Kind: tree.KindDir, Type: tree.TypeDir}
	}
	ext := strings.ToLower(filepath.Ext(name))
	if format, ok := t.containers[ext]; ok {
		return tree.Class{Kind: tree.KindContainer, Type: format, Format: format}
	}
	if typ, ok := t.files[ext]; ok {
		return tree.Class{Kind: tree.KindFile, Type: typ}
	}
	return tree.Class{Kind: tree.KindFile, Type: tree.TypeText}
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(ext)
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

package scripthost

import (
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Dir serves script files from a directory tree on disk.
type Dir struct {
	resource string
	root     string
}

// NewDir creates a directory-backed file collaborator rooted at root.
func NewDir(resource, root string) *Dir {
	return &Dir{resource: resource, root: root}
}

// Open resolves name inside the root. Names escaping the root resolve to
// nothing.
func (d *Dir) Open(name string) (io.ReadCloser, error) {
	clean := filepath.Clean(filepath.FromSlash(name))
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) || filepath.IsAbs(clean) {
		return nil, ErrNotFound
	}

	f, err := os.Open(filepath.Join(d.root, clean))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return f, nil
}

// ResourceName returns the owning resource name.
func (d *Dir) ResourceName() string {
	return d.resource
}

package scripthost

import (
	"errors"
	"io"
	"io/fs"
)

// FS serves script files from any fs.FS, typically an embed.FS carrying
// bundled system scripts.
type FS struct {
	resource string
	fsys     fs.FS
}

// NewFS creates a collaborator over fsys.
func NewFS(resource string, fsys fs.FS) *FS {
	return &FS{resource: resource, fsys: fsys}
}

// Open resolves name in the wrapped filesystem.
func (f *FS) Open(name string) (io.ReadCloser, error) {
	file, err := f.fsys.Open(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return file, nil
}

// ResourceName returns the owning resource name.
func (f *FS) ResourceName() string {
	return f.resource
}

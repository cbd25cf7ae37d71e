package scripthost

import (
	"errors"
	"io"
)

// ErrNotFound reports that a collaborator has no file under the requested
// name. Callers use it to fall through to the next collaborator.
var ErrNotFound = errors.New("scripthost: file not found")

// Files resolves logical script names to readable streams on behalf of a
// resource. Open returns ErrNotFound (or fs.ErrNotExist) for unknown names;
// any other error is a collaborator failure and stops the fallback chain.
type Files interface {
	Open(name string) (io.ReadCloser, error)
	ResourceName() string
}

var (
	_ Files = (*Dir)(nil)
	_ Files = (*FS)(nil)
	_ Files = (*WebCache)(nil)
)

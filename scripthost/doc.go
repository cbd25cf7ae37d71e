// Package scripthost provides the file collaborators a runtime instance
// loads scripts through.
//
// The Files interface resolves logical script names on behalf of one
// resource. Instances chain two collaborators, host files first and system
// files second, and fall through on ErrNotFound.
//
// Three implementations ship here: Dir over a directory tree, FS over any
// fs.FS (typically an embed.FS of bundled system scripts), and WebCache over
// an HTTP base URL with a persistent bolt-backed response cache.
package scripthost

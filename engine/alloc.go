package engine

import (
	"sync"

	luaruntime "github.com/wippyai/lua-runtime"
)

var _ luaruntime.Allocator = (*poolAllocator)(nil)

// sharedPool is the default marshal-buffer allocator, shared by all holders
// that do not configure their own. Safe for concurrent use across instances.
var sharedPool = &poolAllocator{
	pool: sync.Pool{
		New: func() any {
			b := make([]byte, 0, 512)
			return &b
		},
	},
}

type poolAllocator struct {
	pool sync.Pool
}

func (p *poolAllocator) Alloc(n int) []byte {
	bp := p.pool.Get().(*[]byte)
	b := *bp
	if cap(b) < n {
		p.pool.Put(bp)
		return make([]byte, n)
	}
	return b[:n]
}

func (p *poolAllocator) Free(buf []byte) {
	if cap(buf) == 0 {
		return
	}
	b := buf[:0]
	p.pool.Put(&b)
}

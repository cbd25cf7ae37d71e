package runtime

import (
	"go.uber.org/zap"

	"github.com/wippyai/lua-runtime/errors"
)

// NativeID identifies a host-implemented native call.
type NativeID uint64

// NativeRegistry resolves native-call names to their identifiers. Lookup
// reports false for names with no implementation; that answer is treated as
// authoritative and cached.
type NativeRegistry interface {
	LookupNative(name string) (NativeID, bool)
}

// joaat is the case-folding one-at-a-time hash used to key the
// confirmed-absent native set. Names differing only in case share a slot.
func joaat(name string) uint32 {
	var h uint32
	for i := 0; i < len(name); i++ {
		c := name[i]
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		h += uint32(c)
		h += h << 10
		h ^= h >> 6
	}
	h += h << 3
	h ^= h >> 11
	h += h << 15
	return h
}

// ResolveNative maps a native-call name to its identifier. Successful
// resolutions and registry-confirmed absences are both cached; with no
// registry configured every name reports unresolved without caching, so a
// registry attached later still gets asked.
func (i *Instance) ResolveNative(name string) (NativeID, error) {
	if err := i.usable(); err != nil {
		return 0, err
	}

	if id, ok := i.nativeIDs[name]; ok {
		return id, nil
	}
	if _, absent := i.nonExistent[joaat(name)]; absent {
		return 0, errors.UnresolvedNative(name)
	}

	if i.natives == nil {
		return 0, errors.UnresolvedNative(name)
	}

	id, ok := i.natives.LookupNative(name)
	if !ok {
		i.nonExistent[joaat(name)] = struct{}{}
		i.log.Debug("native confirmed absent", zap.String("native", name))
		return 0, errors.UnresolvedNative(name)
	}

	i.nativeIDs[name] = id
	return id, nil
}

// InvalidateNatives drops both native caches. Hosts call this after the
// registry's contents change, since confirmed absence is otherwise sticky.
func (i *Instance) InvalidateNatives() {
	i.nativeIDs = make(map[string]NativeID)
	i.nonExistent = make(map[uint32]struct{})
}

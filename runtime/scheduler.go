package runtime

import (
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/wippyai/lua-runtime/errors"
)

// pendingBookmark is one deferred dispatch. seq breaks ties between
// bookmarks sharing a due time, preserving scheduling order.
type pendingBookmark struct {
	due time.Time
	seq uint64
	id  uint64
}

// ScheduleBookmarkSoon queues a bookmark to run once its timeout has
// elapsed, measured against the tick clock. The timeout is a minimum delay:
// dispatch happens on the first tick at or past the due time. Bookmark 0 is
// reserved for plain ticks and cannot be scheduled.
func (i *Instance) ScheduleBookmarkSoon(bookmark uint64, timeout time.Duration) error {
	if err := i.usable(); err != nil {
		return err
	}
	if bookmark == 0 {
		return errors.InvalidBookmark(bookmark)
	}
	if timeout < 0 {
		timeout = 0
	}

	due := i.tickTime.Add(timeout)
	i.seq++
	p := pendingBookmark{due: due, seq: i.seq, id: bookmark}

	at := sort.Search(len(i.pending), func(n int) bool {
		q := i.pending[n]
		if !q.due.Equal(p.due) {
			return q.due.After(p.due)
		}
		return q.seq > p.seq
	})
	i.pending = append(i.pending, pendingBookmark{})
	copy(i.pending[at+1:], i.pending[at:])
	i.pending[at] = p

	if i.bookmarks != nil {
		i.bookmarks.ScheduleBookmark(i.id, bookmark, due)
	}

	i.log.Debug("bookmark scheduled",
		zap.Uint64("bookmark", bookmark),
		zap.Duration("timeout", timeout))
	return nil
}

// RunBookmark dispatches a single bookmark through the tick routine
// immediately. A panic escaping the routine is contained here and reported
// as failure; the instance stays usable.
func (i *Instance) RunBookmark(bookmark uint64) (ok bool) {
	if i.usable() != nil || bookmark == 0 || i.routines.tick == nil {
		return false
	}

	defer func() {
		if r := recover(); r != nil {
			i.log.Error("bookmark dispatch panicked",
				zap.Uint64("bookmark", bookmark),
				zap.Any("panic", r))
			ok = false
		}
	}()

	i.routines.tick(bookmark, i.prof.Active())
	return true
}

// CancelBookmark removes every pending occurrence of a bookmark. It reports
// how many were removed.
func (i *Instance) CancelBookmark(bookmark uint64) int {
	removed := 0
	kept := i.pending[:0]
	for _, p := range i.pending {
		if p.id == bookmark {
			removed++
			continue
		}
		kept = append(kept, p)
	}
	i.pending = kept
	return removed
}

// drainBookmarks dispatches everything due at or before the current tick
// time. The due batch is snapshotted first: a bookmark rescheduling itself
// during dispatch lands in the queue for a later drain instead of spinning
// this one.
func (i *Instance) drainBookmarks() {
	n := 0
	for n < len(i.pending) && !i.pending[n].due.After(i.tickTime) {
		n++
	}
	if n == 0 {
		return
	}

	batch := make([]pendingBookmark, n)
	copy(batch, i.pending[:n])
	i.pending = append(i.pending[:0], i.pending[n:]...)

	for _, p := range batch {
		i.RunBookmark(p.id)
		if i.corrupted || i.closed {
			return
		}
	}
}

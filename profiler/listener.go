package profiler

import (
	"net/http"
	"sync"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"go.uber.org/zap"

	luaruntime "github.com/wippyai/lua-runtime"
)

// EventStream fans debug events out to websocket subscribers. It implements
// both the instance-facing listener interface and http.Handler, so tooling
// can watch a live instance:
//
//	stream := profiler.NewEventStream(logger)
//	inst.SetDebugListener(stream)
//	http.Handle("/debug/events", stream)
//
// A slow subscriber drops events rather than stalling the instance.
type EventStream struct {
	log *zap.Logger

	mu   sync.Mutex
	subs map[chan luaruntime.DebugEvent]struct{}
}

// NewEventStream creates an event stream with no subscribers.
func NewEventStream(log *zap.Logger) *EventStream {
	if log == nil {
		log = zap.NewNop()
	}
	return &EventStream{
		log:  log,
		subs: make(map[chan luaruntime.DebugEvent]struct{}),
	}
}

// OnDebugEvent implements the debug-event listener. Delivery to each
// subscriber is non-blocking.
func (s *EventStream) OnDebugEvent(ev luaruntime.DebugEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// ServeHTTP upgrades the request to a websocket and streams debug events as
// JSON until the client disconnects.
func (s *EventStream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		s.log.Warn("event stream accept failed", zap.Error(err))
		return
	}
	defer conn.CloseNow()

	ch := make(chan luaruntime.DebugEvent, 64)
	s.mu.Lock()
	s.subs[ch] = struct{}{}
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.subs, ch)
		s.mu.Unlock()
	}()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			conn.Close(websocket.StatusNormalClosure, "")
			return
		case ev := <-ch:
			if err := wsjson.Write(ctx, conn, ev); err != nil {
				return
			}
		}
	}
}

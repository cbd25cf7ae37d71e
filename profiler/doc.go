// Package profiler implements the per-instance profiling and debug bridge.
//
// The Bridge is a small state machine driven by the owning instance:
//
//	none -> setup -> profiling -> shutdown -> none
//
// Tick(true) starts a session and Tick(false) ends it; redundant calls in
// either direction are no-ops. While a session is recording, tick and call
// boundaries land on the event timeline and stream to the configured Sink.
// Ending a session finalizes its Trace, which serializes to JSON and
// compresses with brotli for storage.
//
// Debug events are separate from profiling sessions: EmitDebug delivers to
// the single attached listener in every mode, and EventStream adapts that
// listener interface onto a websocket fan-out for live tooling.
package profiler

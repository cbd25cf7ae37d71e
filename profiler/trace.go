package profiler

import (
	"encoding/json"
	"io"

	"github.com/andybalholm/brotli"

	luaruntime "github.com/wippyai/lua-runtime"
)

// Trace is the complete event timeline of one profiling session.
type Trace struct {
	Resource string                `json:"resource"`
	Instance luaruntime.InstanceID `json:"instance"`
	Timeline uint64                `json:"timeline"`
	Events   []Event               `json:"events"`
}

// WriteJSON writes the trace as uncompressed JSON.
func (t *Trace) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	return enc.Encode(t)
}

// Save writes the trace as brotli-compressed JSON. Traces from long
// sessions compress well because event kinds and resource names repeat.
func (t *Trace) Save(w io.Writer) error {
	bw := brotli.NewWriterLevel(w, brotli.DefaultCompression)
	if err := t.WriteJSON(bw); err != nil {
		bw.Close()
		return err
	}
	return bw.Close()
}

// LoadTrace reads a brotli-compressed trace written by Save.
func LoadTrace(r io.Reader) (*Trace, error) {
	var t Trace
	if err := json.NewDecoder(brotli.NewReader(r)).Decode(&t); err != nil {
		return nil, err
	}
	return &t, nil
}

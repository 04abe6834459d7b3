package trace

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/fxamacker/cbor/v2"
)

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	encMode, err = cbor.EncOptions{
		Sort:        cbor.SortCanonical,
		IndefLength: cbor.IndefLengthForbidden,
		Time:        cbor.TimeRFC3339Nano,
	}.EncMode()
	if err != nil {
		panic(fmt.Sprintf("trace: cbor encoder mode: %v", err))
	}
	decMode, err = cbor.DecOptions{
		DupMapKey: cbor.DupMapKeyQuiet,
	}.DecMode()
	if err != nil {
		panic(fmt.Sprintf("trace: cbor decoder mode: %v", err))
	}
}

// FileRecorder appends CBOR-encoded events to a file. Safe for concurrent use.
type FileRecorder struct {
	mu     sync.Mutex
	file   *os.File
	enc    *cbor.Encoder
	closed bool
}

// NewFileRecorder opens (or creates) path for appending.
func NewFileRecorder(path string) (*FileRecorder, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("open trace file: %w", err)
	}
	return &FileRecorder{file: f, enc: encMode.NewEncoder(f)}, nil
}

// Record writes e. Encoding errors are dropped; tracing must not disturb the hover loop.
func (r *FileRecorder) Record(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	_ = r.enc.Encode(e)
}

// Close closes the file. Later Record calls are ignored.
func (r *FileRecorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	return r.file.Close()
}

// Reader decodes a CBOR trace stream.
type Reader struct {
	dec *cbor.Decoder
}

// NewReader reads events from r.
func NewReader(r io.Reader) *Reader {
	return &Reader{dec: decMode.NewDecoder(r)}
}

// Next returns the next event, or io.EOF at the end of the stream.
func (r *Reader) Next() (Event, error) {
	var e Event
	if err := r.dec.Decode(&e); err != nil {
		if errors.Is(err, io.EOF) {
			return Event{}, io.EOF
		}
		return Event{}, fmt.Errorf("decode trace event: %w", err)
	}
	return e, nil
}

// ReadAll decodes every event that passes f.
func ReadAll(r io.Reader, f Filter) ([]Event, error) {
	tr := NewReader(r)
	var out []Event
	for {
		e, err := tr.Next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		if f.Match(e) {
			out = append(out, e)
		}
	}
}

package trace

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"hash/crc32"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/golang/snappy"

	"github.com/Co11apsar/route/pkg/algorithms"
)

// Writer appends entries to a trace stream. It is safe for concurrent use.
type Writer struct {
	w      *bufio.Writer
	closer io.Closer
	seq    uint64
	mu     sync.Mutex
	now    func() time.Time

	stats Stats
}

// NewWriter writes a trace to w. Close flushes but does not close w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w), now: time.Now}
}

// Create truncates or creates the file at path, creating its directory
func Create(path string) (*Writer, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create trace directory: %w", err)
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create trace file: %w", err)
	}
	w := NewWriter(file)
	w.closer = file
	return w, nil
}

// WriteRecord appends one search record
func (w *Writer) WriteRecord(requestID string, rec algorithms.PathRecord) error {
	return w.append(KindRecord, payload{RequestID: requestID, Record: &rec})
}

// WriteSummary appends the outcome of a search
func (w *Writer) WriteSummary(requestID string, s Summary) error {
	return w.append(KindSummary, payload{RequestID: requestID, Summary: &s})
}

// WriteSearch appends all records of one search followed by its summary
func (w *Writer) WriteSearch(requestID string, records []algorithms.PathRecord, s Summary) error {
	for _, rec := range records {
		if err := w.WriteRecord(requestID, rec); err != nil {
			return err
		}
	}
	return w.WriteSummary(requestID, s)
}

func (w *Writer) append(kind Kind, p payload) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to encode trace %s: %w", kind, err)
	}
	compressed := snappy.Encode(nil, data)

	w.mu.Lock()
	defer w.mu.Unlock()

	w.seq++
	if err := w.writeEntry(w.seq, kind, compressed); err != nil {
		return err
	}
	w.stats.Entries++
	w.stats.BytesUncompressed += uint64(len(data))
	w.stats.BytesCompressed += uint64(len(compressed))
	return nil
}

func (w *Writer) writeEntry(seq uint64, kind Kind, data []byte) error {
	if err := binary.Write(w.w, binary.BigEndian, seq); err != nil {
		return err
	}
	if err := w.w.WriteByte(byte(kind)); err != nil {
		return err
	}
	if err := binary.Write(w.w, binary.BigEndian, uint32(len(data))); err != nil {
		return err
	}
	if _, err := w.w.Write(data); err != nil {
		return err
	}
	if err := binary.Write(w.w, binary.BigEndian, crc32.ChecksumIEEE(data)); err != nil {
		return err
	}
	return binary.Write(w.w, binary.BigEndian, w.now().UnixNano())
}

// Stats returns what has been written so far
func (w *Writer) Stats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stats
}

// Flush writes buffered entries to the underlying writer
func (w *Writer) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.w.Flush()
}

// Close flushes and, for files opened by Create, closes the file
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.w.Flush(); err != nil {
		return err
	}
	if w.closer == nil {
		return nil
	}
	if f, ok := w.closer.(*os.File); ok {
		if err := f.Sync(); err != nil {
			return err
		}
	}
	err := w.closer.Close()
	w.closer = nil
	return err
}

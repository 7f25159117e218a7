package trace

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"os"
	"time"

	"github.com/golang/snappy"
)

// Reader decodes entries written by Writer
type Reader struct {
	r *bufio.Reader
}

// NewReader reads a trace stream from r
func NewReader(r io.Reader) *Reader {
	return &Reader{r: bufio.NewReader(r)}
}

// Next returns the next entry, or io.EOF at a clean end of stream. A stream
// that ends inside an entry returns io.ErrUnexpectedEOF.
func (r *Reader) Next() (Entry, error) {
	var entry Entry

	if err := binary.Read(r.r, binary.BigEndian, &entry.Seq); err != nil {
		return Entry{}, err
	}

	kind, err := r.r.ReadByte()
	if err != nil {
		return Entry{}, unexpected(err)
	}
	entry.Kind = Kind(kind)
	if entry.Kind != KindRecord && entry.Kind != KindSummary {
		return Entry{}, fmt.Errorf("%w: %d at entry %d", ErrUnknownKind, kind, entry.Seq)
	}

	var dataLen uint32
	if err := binary.Read(r.r, binary.BigEndian, &dataLen); err != nil {
		return Entry{}, unexpected(err)
	}
	if dataLen > maxEntrySize {
		return Entry{}, fmt.Errorf("%w: %d bytes at entry %d", ErrTooLarge, dataLen, entry.Seq)
	}
	compressed := make([]byte, dataLen)
	if _, err := io.ReadFull(r.r, compressed); err != nil {
		return Entry{}, unexpected(err)
	}

	var checksum uint32
	if err := binary.Read(r.r, binary.BigEndian, &checksum); err != nil {
		return Entry{}, unexpected(err)
	}
	if crc32.ChecksumIEEE(compressed) != checksum {
		return Entry{}, fmt.Errorf("%w at entry %d", ErrChecksum, entry.Seq)
	}

	var ts int64
	if err := binary.Read(r.r, binary.BigEndian, &ts); err != nil {
		return Entry{}, unexpected(err)
	}
	entry.Time = time.Unix(0, ts)

	data, err := snappy.Decode(nil, compressed)
	if err != nil {
		return Entry{}, fmt.Errorf("failed to decompress trace entry %d: %w", entry.Seq, err)
	}
	var p payload
	if err := json.Unmarshal(data, &p); err != nil {
		return Entry{}, fmt.Errorf("failed to decode trace entry %d: %w", entry.Seq, err)
	}
	entry.RequestID = p.RequestID
	entry.Record = p.Record
	entry.Summary = p.Summary
	return entry, nil
}

// ReadAll decodes every entry in r
func ReadAll(r io.Reader) ([]Entry, error) {
	reader := NewReader(r)
	var entries []Entry
	for {
		entry, err := reader.Next()
		if errors.Is(err, io.EOF) {
			return entries, nil
		}
		if err != nil {
			return entries, err
		}
		entries = append(entries, entry)
	}
}

// ReadFile decodes every entry in the trace file at path
func ReadFile(path string) ([]Entry, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return ReadAll(file)
}

func unexpected(err error) error {
	if errors.Is(err, io.EOF) {
		return io.ErrUnexpectedEOF
	}
	return err
}

// Package trace stores path-search records as a compact binary stream so
// searches can be replayed and visualised after the fact.
//
// Each entry is framed as
//
//	[Seq:8][Kind:1][DataLen:4][Data:N][Checksum:4][Timestamp:8]
//
// where Data is snappy-compressed JSON and Checksum is the CRC-32 (IEEE) of
// the compressed bytes.
package trace

import (
	"errors"
	"math"
	"time"

	"github.com/Co11apsar/route/pkg/algorithms"
	"github.com/Co11apsar/route/pkg/network"
)

// Kind identifies what an entry carries
type Kind uint8

const (
	// KindRecord entries carry one PathRecord taken when a node was finalized
	KindRecord Kind = 1

	// KindSummary entries close a search with its outcome
	KindSummary Kind = 2
)

// String returns the kind name
func (k Kind) String() string {
	switch k {
	case KindRecord:
		return "record"
	case KindSummary:
		return "summary"
	default:
		return "unknown"
	}
}

var (
	ErrChecksum    = errors.New("trace entry checksum mismatch")
	ErrUnknownKind = errors.New("unknown trace entry kind")
	ErrTooLarge    = errors.New("trace entry too large")
)

// maxEntrySize bounds the compressed payload a reader accepts
const maxEntrySize = 64 << 20

// Summary is the outcome of one traced search. Cost is 0 when Found is false.
type Summary struct {
	Start network.NodeID   `json:"start"`
	End   network.NodeID   `json:"end"`
	Path  []network.NodeID `json:"path,omitempty"`
	Cost  float64          `json:"cost"`
	Found bool             `json:"found"`
}

// SummaryOf builds a Summary from a search result
func SummaryOf(start, end network.NodeID, res algorithms.PathResult) Summary {
	s := Summary{Start: start, End: end, Found: res.Found, Path: res.Path}
	if res.Found && !math.IsInf(res.Cost, 0) {
		s.Cost = res.Cost
	}
	return s
}

// Entry is one decoded trace entry; exactly one of Record and Summary is set
type Entry struct {
	Seq       uint64
	Kind      Kind
	RequestID string
	Time      time.Time
	Record    *algorithms.PathRecord
	Summary   *Summary
}

// payload is the JSON body stored in an entry
type payload struct {
	RequestID string                 `json:"request_id,omitempty"`
	Record    *algorithms.PathRecord `json:"record,omitempty"`
	Summary   *Summary               `json:"summary,omitempty"`
}

// Stats tracks how much a writer has written
type Stats struct {
	Entries           uint64
	BytesUncompressed uint64
	BytesCompressed   uint64
}

// CompressionRatio returns compressed/uncompressed bytes, or 0 before any write
func (s Stats) CompressionRatio() float64 {
	if s.BytesUncompressed == 0 {
		return 0
	}
	return float64(s.BytesCompressed) / float64(s.BytesUncompressed)
}

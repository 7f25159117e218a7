package algorithms

import (
	"maps"
	"slices"

	"github.com/Co11apsar/route/pkg/network"
)

// FrontierEntry is one candidate waiting in the search priority queue
type FrontierEntry struct {
	Cost float64          `json:"cost"`
	Node network.NodeID   `json:"node"`
	Path []network.NodeID `json:"path"`
}

// PathRecord captures the search state at the moment a node is finalized.
// Records are observational only; nothing in the search reads them.
type PathRecord struct {
	Current   network.NodeID             `json:"current"`
	Frontier  []FrontierEntry            `json:"candidates"`
	Visited   []network.NodeID           `json:"visited"`
	BestCosts map[network.NodeID]float64 `json:"costs"` // finite best-known costs only
	Path      []network.NodeID           `json:"path"`
}

// RecordLog collects PathRecords; its Record method can be passed as SearchOptions.Recorder
type RecordLog struct {
	Records []PathRecord
}

// Record appends a record
func (l *RecordLog) Record(r PathRecord) {
	l.Records = append(l.Records, r)
}

func snapshotRecord(current network.NodeID, q frontier, visited map[network.NodeID]bool, costs map[network.NodeID]float64, path []network.NodeID) PathRecord {
	entries := make([]FrontierEntry, len(q))
	for i, item := range q {
		entries[i] = FrontierEntry{Cost: item.cost, Node: item.node, Path: slices.Clone(item.path)}
	}
	seen := slices.Collect(maps.Keys(visited))
	slices.Sort(seen)
	return PathRecord{
		Current:   current,
		Frontier:  entries,
		Visited:   seen,
		BestCosts: maps.Clone(costs),
		Path:      slices.Clone(path),
	}
}

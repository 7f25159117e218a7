// Package topology builds networks from topology files or from seeded random generators.
package topology

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"os"

	"github.com/Co11apsar/route/pkg/network"
	"github.com/Co11apsar/route/pkg/validation"
	"gopkg.in/yaml.v3"
)

var (
	ErrTooManyEdges     = errors.New("requested more edges than the node count allows")
	ErrInvalidSpec      = errors.New("invalid topology")
	ErrIncompleteDelays = errors.New("explicit delays must cover every node pair")
	ErrTooLarge         = errors.New("topology exceeds the configured size limits")
)

// Hard ceilings on a topology; the validate tags on Spec carry the same values
const (
	MaxNodes = 1000
	MaxEdges = 20000
)

// Limits bounds the size of topologies accepted from callers. They may only
// tighten MaxNodes and MaxEdges.
type Limits struct {
	MaxNodes int `yaml:"max_nodes" json:"max_nodes"`
	MaxEdges int `yaml:"max_edges" json:"max_edges"`
}

// DefaultLimits returns the hard ceilings
func DefaultLimits() Limits {
	return Limits{MaxNodes: MaxNodes, MaxEdges: MaxEdges}
}

// Check reports ErrTooLarge when spec has more nodes or edges than allowed.
// Zero fields fall back to the hard ceilings.
func (l Limits) Check(spec *Spec) error {
	maxNodes := l.MaxNodes
	if maxNodes <= 0 || maxNodes > MaxNodes {
		maxNodes = MaxNodes
	}
	maxEdges := l.MaxEdges
	if maxEdges <= 0 || maxEdges > MaxEdges {
		maxEdges = MaxEdges
	}
	if len(spec.Nodes) > maxNodes {
		return fmt.Errorf("%w: %d nodes, limit %d", ErrTooLarge, len(spec.Nodes), maxNodes)
	}
	if len(spec.Edges) > maxEdges {
		return fmt.Errorf("%w: %d edges, limit %d", ErrTooLarge, len(spec.Edges), maxEdges)
	}
	return nil
}

// Spec describes a network explicitly. It is read from YAML files and from
// the JSON body of an init request.
type Spec struct {
	Nodes  []NodeSpec `yaml:"nodes" json:"nodes" validate:"required,min=1,max=1000,dive"`
	Edges  []EdgeSpec `yaml:"edges" json:"edges" validate:"omitempty,max=20000,dive"`
	Delays *DelaySpec `yaml:"delays,omitempty" json:"delays,omitempty" validate:"omitempty"`
}

// NodeSpec is one node entry
type NodeSpec struct {
	ID       int     `yaml:"id" json:"id"`
	Capacity float64 `yaml:"capacity" json:"capacity" validate:"gt=0"`
	Security int     `yaml:"security" json:"security" validate:"min=1,max=3"`
}

// EdgeSpec is one undirected edge entry
type EdgeSpec struct {
	U         int     `yaml:"u" json:"u"`
	V         int     `yaml:"v" json:"v"`
	Latency   float64 `yaml:"latency" json:"latency" validate:"gt=0"`
	Bandwidth float64 `yaml:"bandwidth" json:"bandwidth" validate:"gt=0"`
}

// DelaySpec attaches a delay matrix, either generated or listed pair by pair
type DelaySpec struct {
	Random *DelayRange `yaml:"random,omitempty" json:"random,omitempty" validate:"omitempty"`
	Pairs  []DelayPair `yaml:"pairs,omitempty" json:"pairs,omitempty" validate:"omitempty,dive"`
}

// DelayRange bounds generated integer delays, both ends inclusive
type DelayRange struct {
	Min int `yaml:"min" json:"min" validate:"min=0"`
	Max int `yaml:"max" json:"max" validate:"gtefield=Min"`
}

// DelayPair is one symmetric delay entry
type DelayPair struct {
	U     int     `yaml:"u" json:"u"`
	V     int     `yaml:"v" json:"v"`
	Delay float64 `yaml:"delay" json:"delay" validate:"gte=0"`
}

// Validate checks field constraints; structural errors such as duplicate
// nodes surface from Build
func (s *Spec) Validate() error {
	if err := validateStruct(s); err != nil {
		return err
	}
	if s.Delays != nil && s.Delays.Random != nil && len(s.Delays.Pairs) > 0 {
		return fmt.Errorf("%w: delays: random and pairs are mutually exclusive", ErrInvalidSpec)
	}
	// counted before any matrix is allocated
	if s.Delays != nil && s.Delays.Random == nil {
		if want := pairCount(len(s.Nodes)); len(s.Delays.Pairs) < want {
			return fmt.Errorf("%w: got %d of %d pairs", ErrIncompleteDelays, len(s.Delays.Pairs), want)
		}
	}
	return nil
}

func pairCount(nodes int) int {
	return nodes * (nodes - 1) / 2
}

// Parse decodes and validates a YAML topology
func Parse(data []byte) (*Spec, error) {
	var spec Spec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSpec, err)
	}
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	return &spec, nil
}

// Load reads and parses a YAML topology file
func Load(path string) (*Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read topology %s: %w", path, err)
	}
	return Parse(data)
}

// Build creates a network from spec. rng is only used for random delays and may
// be nil otherwise.
func Build(spec *Spec, rng *rand.Rand) (*network.Network, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	net := network.New()
	ids := make([]network.NodeID, 0, len(spec.Nodes))
	for _, n := range spec.Nodes {
		err := net.AddNode(network.NodeSpec{
			ID:       network.NodeID(n.ID),
			Capacity: n.Capacity,
			Security: network.SecurityLevel(n.Security),
		})
		if err != nil {
			return nil, err
		}
		ids = append(ids, network.NodeID(n.ID))
	}
	for _, e := range spec.Edges {
		err := net.AddEdge(network.EdgeSpec{
			U:         network.NodeID(e.U),
			V:         network.NodeID(e.V),
			Latency:   e.Latency,
			Bandwidth: e.Bandwidth,
		})
		if err != nil {
			return nil, err
		}
	}

	if spec.Delays == nil {
		return net, nil
	}

	var (
		m   *network.DelayMatrix
		err error
	)
	switch {
	case spec.Delays.Random != nil:
		if rng == nil {
			return nil, fmt.Errorf("%w: random delays need a random source", ErrInvalidSpec)
		}
		m, err = RandomDelayMatrix(rng, ids, spec.Delays.Random.Min, spec.Delays.Random.Max)
	default:
		m, err = pairMatrix(ids, spec.Delays.Pairs)
	}
	if err != nil {
		return nil, err
	}
	if err := net.SetDelays(m); err != nil {
		return nil, err
	}
	return net, nil
}

func validateStruct(v any) error {
	if err := validation.Struct(v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSpec, err)
	}
	return nil
}

func pairMatrix(ids []network.NodeID, pairs []DelayPair) (*network.DelayMatrix, error) {
	m := network.NewDelayMatrix(ids)
	seen := make(map[network.EdgeKey]bool, len(pairs))
	for _, p := range pairs {
		u, v := network.NodeID(p.U), network.NodeID(p.V)
		if err := m.Set(u, v, p.Delay); err != nil {
			return nil, err
		}
		if u != v {
			seen[network.KeyOf(u, v)] = true
		}
	}
	if want := pairCount(len(ids)); len(seen) != want {
		return nil, fmt.Errorf("%w: got %d of %d pairs", ErrIncompleteDelays, len(seen), want)
	}
	return m, nil
}

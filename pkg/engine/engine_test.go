package engine

import (
	"bytes"
	"context"
	"math"
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Co11apsar/route/pkg/algorithms"
	"github.com/Co11apsar/route/pkg/events"
	"github.com/Co11apsar/route/pkg/metrics"
	"github.com/Co11apsar/route/pkg/network"
	"github.com/Co11apsar/route/pkg/topology"
	"github.com/Co11apsar/route/pkg/trace"
)

const diamondYAML = `
nodes:
  - {id: 0, capacity: 100, security: 2}
  - {id: 1, capacity: 100, security: 2}
  - {id: 2, capacity: 100, security: 2}
  - {id: 3, capacity: 100, security: 2}
  - {id: 4, capacity: 100, security: 2}
edges:
  - {u: 0, v: 1, latency: 10, bandwidth: 100}
  - {u: 1, v: 3, latency: 10, bandwidth: 100}
  - {u: 0, v: 2, latency: 30, bandwidth: 100}
  - {u: 2, v: 3, latency: 5, bandwidth: 100}
delays:
  random: {min: 50, max: 200}
`

func latencyOnly() *algorithms.Weights {
	return &algorithms.Weights{Latency: 1}
}

func newTestEngine(t *testing.T, mutate func(*Options)) *Engine {
	t.Helper()
	opts := DefaultOptions()
	if mutate != nil {
		mutate(&opts)
	}
	eng, err := New(opts)
	require.NoError(t, err)
	return eng
}

func initDiamond(t *testing.T, eng *Engine) {
	t.Helper()
	spec, err := topology.Parse([]byte(diamondYAML))
	require.NoError(t, err)
	_, err = eng.InitFromTopology(spec, 7)
	require.NoError(t, err)
}

func counterValue(t *testing.T, c interface{ Write(*dto.Metric) error }) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, c.Write(&m))
	return m.GetCounter().GetValue()
}

func TestNew_RejectsBadOptions(t *testing.T) {
	opts := DefaultOptions()
	opts.Weights.Load = -1
	_, err := New(opts)
	assert.ErrorIs(t, err, algorithms.ErrNegativeWeight)

	opts = DefaultOptions()
	opts.Ant.Epsilon = 0
	_, err = New(opts)
	assert.ErrorIs(t, err, algorithms.ErrInvalidAntParams)
}

func TestEngine_NotInitialized(t *testing.T) {
	eng := newTestEngine(t, nil)
	ctx := context.Background()

	_, err := eng.FindPath(ctx, 0, 1, nil)
	assert.ErrorIs(t, err, ErrNotInitialized)
	_, err = eng.Route(ctx, 0, 1)
	assert.ErrorIs(t, err, ErrNotInitialized)
	assert.ErrorIs(t, eng.Evaporate(0.5), ErrNotInitialized)
	assert.ErrorIs(t, eng.DecayLoad(1), ErrNotInitialized)
	_, err = eng.Status()
	assert.ErrorIs(t, err, ErrNotInitialized)
	_, err = eng.Network()
	assert.ErrorIs(t, err, ErrNotInitialized)
	_, err = eng.Info()
	assert.ErrorIs(t, err, ErrNotInitialized)
	assert.Empty(t, eng.LastTrace())
}

func TestInitRandom_Reproducible(t *testing.T) {
	a := newTestEngine(t, nil)
	b := newTestEngine(t, nil)

	infoA, err := a.InitRandom(42)
	require.NoError(t, err)
	_, err = b.InitRandom(42)
	require.NoError(t, err)

	assert.Equal(t, SourceRandom, infoA.Source)
	assert.Equal(t, 20, infoA.Nodes)
	assert.Equal(t, 35, infoA.Edges)
	assert.True(t, infoA.HasDelays)

	snapA, _ := a.Status()
	snapB, _ := b.Status()
	assert.Equal(t, snapA, snapB)

	routeA, err := a.Route(context.Background(), 0, 19)
	require.NoError(t, err)
	routeB, err := b.Route(context.Background(), 0, 19)
	require.NoError(t, err)
	assert.Equal(t, routeA.Path, routeB.Path)
	assert.Equal(t, routeA.TotalDelay, routeB.TotalDelay)
}

func TestFindPath_AppliesLoadAndPublishes(t *testing.T) {
	bus := events.NewBus(16)
	defer bus.Shutdown()
	sub := bus.Subscribe(context.Background(), events.PathFound)
	reg := metrics.NewRegistry()

	eng := newTestEngine(t, func(o *Options) {
		o.Publisher = bus
		o.Metrics = reg
	})
	initDiamond(t, eng)

	ctx := WithRequestID(context.Background(), "req-42")
	out, err := eng.FindPath(ctx, 0, 3, latencyOnly())
	require.NoError(t, err)

	assert.True(t, out.Found)
	assert.Equal(t, []network.NodeID{0, 1, 3}, out.Path)
	assert.Equal(t, 20.0, out.Cost)
	assert.Equal(t, "req-42", out.RequestID)

	snap, err := eng.Status()
	require.NoError(t, err)
	assert.Equal(t, 3.0, snap.Nodes[0].Load)
	assert.Equal(t, 3.0, snap.Nodes[1].Load)
	assert.Equal(t, 0.0, snap.Nodes[2].Load)
	assert.Equal(t, 3.0, snap.Nodes[3].Load)

	assert.NotEmpty(t, eng.LastTrace())
	assert.Equal(t, network.NodeID(3), eng.LastTrace()[len(eng.LastTrace())-1].Current)

	select {
	case ev := <-sub.Events():
		assert.Equal(t, "req-42", ev.RequestID)
		summary, ok := ev.Payload.(trace.Summary)
		require.True(t, ok, "payload type %T", ev.Payload)
		assert.Equal(t, 20.0, summary.Cost)
	case <-time.After(time.Second):
		t.Fatal("no path.found event")
	}

	assert.Equal(t, 1.0, counterValue(t, reg.PathRequestsTotal.WithLabelValues(metrics.StatusFound)))
}

func TestFindPath_DefaultWeightsAndGeneratedID(t *testing.T) {
	eng := newTestEngine(t, nil)
	initDiamond(t, eng)

	out, err := eng.FindPath(context.Background(), 0, 3, nil)
	require.NoError(t, err)
	assert.Equal(t, algorithms.DefaultWeights(), out.Weights)
	assert.NotEmpty(t, out.RequestID)
	assert.True(t, out.Found)
}

func TestFindPath_NoPath(t *testing.T) {
	reg := metrics.NewRegistry()
	eng := newTestEngine(t, func(o *Options) { o.Metrics = reg })
	initDiamond(t, eng)

	out, err := eng.FindPath(context.Background(), 0, 4, latencyOnly())
	require.NoError(t, err)
	assert.False(t, out.Found)
	assert.True(t, math.IsInf(out.Cost, 1))
	assert.Nil(t, out.Path)

	snap, _ := eng.Status()
	for id, st := range snap.Nodes {
		assert.Zero(t, st.Load, "node %d", id)
	}
	assert.Equal(t, 1.0, counterValue(t, reg.PathRequestsTotal.WithLabelValues(metrics.StatusNotFound)))
}

func TestFindPath_Errors(t *testing.T) {
	eng := newTestEngine(t, nil)
	initDiamond(t, eng)

	_, err := eng.FindPath(context.Background(), 0, 99, nil)
	assert.ErrorIs(t, err, network.ErrNodeNotFound)

	_, err = eng.FindPath(context.Background(), 0, 3, &algorithms.Weights{Latency: -1})
	assert.ErrorIs(t, err, algorithms.ErrNegativeWeight)

	limited := newTestEngine(t, func(o *Options) { o.MaxPops = 1 })
	initDiamond(t, limited)
	_, err = limited.FindPath(context.Background(), 0, 3, nil)
	assert.ErrorIs(t, err, algorithms.ErrSearchTimeout)
}

func TestFindPath_WritesTrace(t *testing.T) {
	var buf bytes.Buffer
	w := trace.NewWriter(&buf)
	eng := newTestEngine(t, func(o *Options) { o.Trace = w })
	initDiamond(t, eng)

	out, err := eng.FindPath(context.Background(), 0, 3, latencyOnly())
	require.NoError(t, err)
	require.NoError(t, w.Flush())

	entries, err := trace.ReadAll(&buf)
	require.NoError(t, err)
	require.Len(t, entries, len(eng.LastTrace())+1)
	last := entries[len(entries)-1]
	require.NotNil(t, last.Summary)
	assert.Equal(t, out.Path, last.Summary.Path)
	assert.Equal(t, out.RequestID, last.RequestID)
}

func TestRoute_LoadBalanceNetwork(t *testing.T) {
	reg := metrics.NewRegistry()
	eng := newTestEngine(t, func(o *Options) { o.Metrics = reg })
	info, err := eng.InitLoadBalance(3, 8, 50, 200)
	require.NoError(t, err)
	assert.Equal(t, SourceLoadBalance, info.Source)
	assert.Zero(t, info.Edges)

	out, err := eng.Route(context.Background(), 0, 7)
	require.NoError(t, err)
	assert.Equal(t, network.NodeID(0), out.Path[0])
	assert.Equal(t, network.NodeID(7), out.Path[len(out.Path)-1])
	assert.Len(t, out.Hops, len(out.Path)-1)
	assert.Positive(t, out.TotalDelay)
	assert.LessOrEqual(t, out.AntHops(), len(out.Hops))

	snap, _ := eng.Status()
	assert.GreaterOrEqual(t, snap.Nodes[0].Load, 1.0)
	assert.Equal(t, 1.0, counterValue(t, reg.RouteRequestsTotal.WithLabelValues(metrics.StatusOK)))
}

func TestRoute_Stalled(t *testing.T) {
	bus := events.NewBus(4)
	defer bus.Shutdown()
	sub := bus.Subscribe(context.Background(), events.RouteStalled)
	reg := metrics.NewRegistry()

	eng := newTestEngine(t, func(o *Options) {
		o.MaxHops = 1
		o.Publisher = bus
		o.Metrics = reg
	})

	// The direct 0-2 hop is far slower than going through 1, so every
	// route needs two hops
	net := network.New()
	for i := 0; i < 3; i++ {
		require.NoError(t, net.AddNode(network.NodeSpec{ID: network.NodeID(i), Capacity: 100, Security: 3}))
	}
	delays := network.NewDelayMatrix([]network.NodeID{0, 1, 2})
	require.NoError(t, delays.Set(0, 1, 10))
	require.NoError(t, delays.Set(1, 2, 10))
	require.NoError(t, delays.Set(0, 2, 100))
	require.NoError(t, net.SetDelays(delays))
	_, err := eng.Install(net, 1)
	require.NoError(t, err)

	_, err = eng.Route(context.Background(), 0, 2)
	assert.ErrorIs(t, err, algorithms.ErrRoutingStalled)
	assert.Len(t, sub.Events(), 1)
	assert.Equal(t, 1.0, counterValue(t, reg.RouteRequestsTotal.WithLabelValues(metrics.StatusStalled)))

	snap, _ := eng.Status()
	for id, st := range snap.Nodes {
		assert.Zero(t, st.Load, "node %d", id)
	}
}

func TestRoute_NoDelays(t *testing.T) {
	eng := newTestEngine(t, nil)
	net := network.New()
	require.NoError(t, net.AddNode(network.NodeSpec{ID: 0, Capacity: 10, Security: 1}))
	require.NoError(t, net.AddNode(network.NodeSpec{ID: 1, Capacity: 10, Security: 1}))
	_, err := eng.Install(net, 1)
	require.NoError(t, err)

	_, err = eng.Route(context.Background(), 0, 1)
	assert.ErrorIs(t, err, network.ErrNoDelays)
}

func TestEvaporateAndDecay(t *testing.T) {
	eng := newTestEngine(t, nil)
	_, err := eng.InitLoadBalance(5, 4, 50, 200)
	require.NoError(t, err)

	for i := 0; i < 30; i++ {
		require.NoError(t, eng.Evaporate(0.5))
	}
	snap, _ := eng.Status()
	for id, st := range snap.Nodes {
		assert.Equal(t, network.PheromoneFloor, st.Pheromone, "node %d", id)
	}
	assert.ErrorIs(t, eng.Evaporate(1.5), network.ErrInvalidRho)

	net, err := eng.Network()
	require.NoError(t, err)
	require.NoError(t, net.Update(func(tx *network.Tx) error {
		for _, id := range tx.NodeIDs() {
			if err := tx.AddLoad(id, 1); err != nil {
				return err
			}
		}
		return nil
	}))

	require.NoError(t, eng.DecayLoad(0.3, 0, 3))
	snap, _ = eng.Status()
	assert.Equal(t, 1.0, snap.Nodes[0].Load)
	assert.InDelta(t, 0.7, snap.Nodes[1].Load, 1e-9)
	assert.InDelta(t, 0.7, snap.Nodes[2].Load, 1e-9)
	assert.Equal(t, 1.0, snap.Nodes[3].Load)

	assert.ErrorIs(t, eng.DecayLoad(0.3, 42), network.ErrNodeNotFound)
	assert.ErrorIs(t, eng.DecayLoad(-1), network.ErrInvalidAmount)
	assert.ErrorIs(t, eng.DecayLoad(math.NaN()), network.ErrInvalidAmount)

	snap, _ = eng.Status()
	assert.InDelta(t, 0.7, snap.Nodes[1].Load, 1e-9)
}

func TestReinitialize_ClearsTrace(t *testing.T) {
	eng := newTestEngine(t, nil)
	initDiamond(t, eng)

	_, err := eng.FindPath(context.Background(), 0, 3, nil)
	require.NoError(t, err)
	require.NotEmpty(t, eng.LastTrace())

	_, err = eng.InitRandom(1)
	require.NoError(t, err)
	assert.Empty(t, eng.LastTrace())
}

func TestRequestIDFromContext(t *testing.T) {
	_, ok := RequestIDFromContext(context.Background())
	assert.False(t, ok)
	_, ok = RequestIDFromContext(WithRequestID(context.Background(), ""))
	assert.False(t, ok)
	id, ok := RequestIDFromContext(WithRequestID(context.Background(), "abc"))
	assert.True(t, ok)
	assert.Equal(t, "abc", id)
}

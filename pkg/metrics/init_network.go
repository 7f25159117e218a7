package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initNetworkMetrics() {
	r.NetworkInitsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "route_network_inits_total",
			Help: "Network (re)initialisations by source",
		},
		[]string{"source"}, // random, topology
	)

	r.NetworkNodes = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "route_network_nodes",
			Help: "Nodes in the current network",
		},
	)

	r.NetworkEdges = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "route_network_edges",
			Help: "Undirected edges in the current network",
		},
	)

	r.NodeLoad = promauto.With(r.registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "route_node_load",
			Help: "Current load per node",
		},
		[]string{"node"},
	)

	r.NodeLoadRatio = promauto.With(r.registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "route_node_load_ratio",
			Help: "Load divided by capacity per node",
		},
		[]string{"node"},
	)

	r.NodePheromone = promauto.With(r.registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "route_node_pheromone",
			Help: "Pheromone level per node",
		},
		[]string{"node"},
	)

	r.NodeSelections = promauto.With(r.registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "route_node_selections",
			Help: "Times each node was sampled by the pheromone engine",
		},
		[]string{"node"},
	)

	r.EvaporationsTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "route_evaporations_total",
			Help: "Pheromone evaporation rounds",
		},
	)

	r.DecaysTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "route_load_decays_total",
			Help: "Load decay rounds",
		},
	)

	r.TxCommits = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "route_network_tx_commits",
			Help: "Committed network updates since the network was created",
		},
	)

	r.TxDiscards = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "route_network_tx_discards",
			Help: "Discarded network updates since the network was created",
		},
	)
}

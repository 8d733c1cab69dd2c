package bank

import (
	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "vault"

type Metrics struct {
	Requests      *prometheus.CounterVec
	LamportsMoved *prometheus.CounterVec
	FeesCollected prometheus.Counter
	Airdrops      prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "requests_total",
			Help:      "Vault requests processed, by instruction and outcome.",
		}, []string{"instruction", "outcome"}),
		LamportsMoved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "lamports_moved_total",
			Help:      "Lamports moved between owners and vaults.",
		}, []string{"instruction"}),
		FeesCollected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "fees_collected_lamports_total",
			Help:      "Transaction fees charged to owners.",
		}),
		Airdrops: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "airdropped_lamports_total",
			Help:      "Lamports credited by airdrop.",
		}),
	}

	if reg != nil {
		reg.MustRegister(m.Requests, m.LamportsMoved, m.FeesCollected, m.Airdrops)
	}
	return m
}

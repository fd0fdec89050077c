package resolver

import "github.com/prometheus/client_golang/prometheus"

const (
	resultHit   = "hit"
	resultMiss  = "miss"
	resultError = "error"
)

var lookups = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "ccipgate_resolver_lookups_total",
		Help: "Username lookups by tier (cache, curated, generated, index, events) and result.",
	},
	[]string{"tier", "result"},
)

func init() {
	prometheus.MustRegister(lookups)
}

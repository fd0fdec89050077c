package registry

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	resultSuccess     = "success"
	resultReverted    = "reverted"
	resultFailover    = "failover"
	resultUnavailable = "unavailable"
)

var registryCalls = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "ccipgate_registry_calls_total",
		Help: "JSON-RPC calls made to registry endpoints, by rpc method, endpoint host and result.",
	},
	[]string{"method", "endpoint", "result"},
)

func init() {
	prometheus.MustRegister(registryCalls)
}

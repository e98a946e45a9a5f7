package orchestrator

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

var opsStarted = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "veil_operations_started_total",
	Help: "operations initiated, by type",
}, []string{"type"})

var opsCompleted = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "veil_operations_completed_total",
	Help: "operations confirmed on chain, by type",
}, []string{"type"})

var opsFailed = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "veil_operations_failed_total",
	Help: "operations that ended in failure, by type",
}, []string{"type"})

var signerRejections = promauto.NewCounter(prometheus.CounterOpts{
	Name: "veil_signer_rejections_total",
	Help: "signature requests declined by the user",
})

var proofsGenerated = promauto.NewCounter(prometheus.CounterOpts{
	Name: "veil_proofs_generated_total",
	Help: "proof calldata assemblies reported by the crypto client",
})

func StartPromServer(logger *zap.Logger, port string) {
	logger.Info("serving prom stats on " + port)
	go func() {
		http.Handle("/metrics", promhttp.Handler())
		if err := http.ListenAndServe(port, nil); err != nil {
			logger.Error("prom server stopped", zap.Error(err))
		}
	}()
}

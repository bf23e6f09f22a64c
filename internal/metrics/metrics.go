package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

var (
	RefreshTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "scalpsentinel_refresh_total", Help: "Refresh cycles by result"},
		[]string{"result"},
	)
	AlertsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "scalpsentinel_alerts_total", Help: "Alert notifications by outcome"},
		[]string{"outcome"},
	)
	LastOFI = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "scalpsentinel_last_ofi", Help: "Latest order flow imbalance value"},
	)
	StopDistance = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "scalpsentinel_stop_distance", Help: "Latest estimated stop distance"},
	)
)

func init() {
	prometheus.MustRegister(RefreshTotal, AlertsTotal, LastOFI, StopDistance)
}

// Serve exposes /metrics on addr in the background.
func Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Errorf("metrics server: %v", err)
		}
	}()
	return srv
}

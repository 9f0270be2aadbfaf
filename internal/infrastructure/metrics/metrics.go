package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Gate contadores del gate de tenant/autenticación. Implementa cache.Observer.
type Gate struct {
	registry      *prometheus.Registry
	cacheRequests *prometheus.CounterVec
	failures      *prometheus.CounterVec
	resolutions   *prometheus.CounterVec
}

// New registra los contadores en un registry propio (más métricas de proceso y runtime).
func New() *Gate {
	reg := prometheus.NewRegistry()
	g := &Gate{
		registry: reg,
		cacheRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gate_cache_requests_total",
			Help: "Consultas a la caché de identidad por tabla y resultado.",
		}, []string{"table", "result"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gate_failures_total",
			Help: "Fallos del gate por código de error.",
		}, []string{"code"}),
		resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gate_tenant_resolutions_total",
			Help: "Resoluciones de tenant por estrategia y si vinieron de caché.",
		}, []string{"strategy", "cached"}),
	}
	reg.MustRegister(
		g.cacheRequests,
		g.failures,
		g.resolutions,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return g
}

// CacheLookup cuenta un acierto o fallo en la tabla dada.
func (g *Gate) CacheLookup(table string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	g.cacheRequests.WithLabelValues(table, result).Inc()
}

// GateFailure cuenta un fallo ya mapeado a código estable.
func (g *Gate) GateFailure(code string) {
	g.failures.WithLabelValues(code).Inc()
}

// TenantResolved cuenta qué estrategia resolvió el tenant.
func (g *Gate) TenantResolved(strategy string, cached bool) {
	g.resolutions.WithLabelValues(strategy, strconv.FormatBool(cached)).Inc()
}

// Handler expone el registry en formato Prometheus.
func (g *Gate) Handler() http.Handler {
	return promhttp.HandlerFor(g.registry, promhttp.HandlerOpts{Registry: g.registry})
}

// Registry acceso directo para tests.
func (g *Gate) Registry() *prometheus.Registry {
	return g.registry
}

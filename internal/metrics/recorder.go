// Package metrics expone contadores Prometheus del motor y del transporte HTTP.
package metrics

import (
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "websec"

// Recorder agrupa los collectors. Un *Recorder nil es válido y no registra
// nada, así el motor funciona igual sin métricas.
type Recorder struct {
	reg *prometheus.Registry

	sessionsCreated prometheus.Counter
	logins          prometheus.Counter
	logouts         prometheus.Counter
	transfers       *prometheus.CounterVec
	csrfTokens      *prometheus.CounterVec

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

// New registra los collectors en reg. Con reg nil usa un registry propio,
// nunca el global, para que los tests no compartan estado.
func New(reg *prometheus.Registry) (*Recorder, error) {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	r := &Recorder{
		reg: reg,
		sessionsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_created_total",
			Help:      "Sesiones creadas por el store",
		}),
		logins: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "logins_total",
			Help:      "Logins exitosos",
		}),
		logouts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "logouts_total",
			Help:      "Logouts",
		}),
		transfers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transfers_total",
			Help:      "Intentos de transferencia por camino y resultado",
		}, []string{"path", "outcome"}),
		csrfTokens: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "csrf_tokens_total",
			Help:      "Tokens CSRF emitidos por operación (issue|rotate)",
		}, []string{"op"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Número total de requests procesadas",
		}, []string{"method", "path", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Latencia de los requests HTTP",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),
	}

	for _, c := range []prometheus.Collector{
		r.sessionsCreated, r.logins, r.logouts, r.transfers,
		r.csrfTokens, r.httpRequests, r.httpDuration,
	} {
		if err := registerCollector(reg, c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// TrackActiveSessions registra un gauge que lee count en cada scrape.
func (r *Recorder) TrackActiveSessions(count func() int) error {
	if r == nil || count == nil {
		return nil
	}
	g := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "sessions_active",
		Help:      "Sesiones vivas en el store",
	}, func() float64 { return float64(count()) })
	return registerCollector(r.reg, g)
}

// Handler devuelve el handler de /metrics para el registry del Recorder.
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}

// SessionCreated implementa session.Observer.
func (r *Recorder) SessionCreated() {
	if r == nil {
		return
	}
	r.sessionsCreated.Inc()
}

// Login implementa auth.Observer.
func (r *Recorder) Login() {
	if r == nil {
		return
	}
	r.logins.Inc()
}

// Logout implementa auth.Observer.
func (r *Recorder) Logout() {
	if r == nil {
		return
	}
	r.logouts.Inc()
}

// Transfer implementa ledger.Observer.
func (r *Recorder) Transfer(path, outcome string) {
	if r == nil {
		return
	}
	r.transfers.WithLabelValues(path, outcome).Inc()
}

// CSRFToken implementa csrf.Observer.
func (r *Recorder) CSRFToken(op string) {
	if r == nil {
		return
	}
	r.csrfTokens.WithLabelValues(op).Inc()
}

// ObserveHTTP registra un request terminado. status 0 cuenta como 200.
func (r *Recorder) ObserveHTTP(method, path string, status int, d time.Duration) {
	if r == nil {
		return
	}
	if status == 0 {
		status = http.StatusOK
	}
	method = strings.ToUpper(method)
	p := NormalizePath(path)
	r.httpDuration.WithLabelValues(method, p).Observe(d.Seconds())
	r.httpRequests.WithLabelValues(method, p, strconv.Itoa(status)).Inc()
}

// registerCollector registra el collector en el registry indicado, ignorando duplicados.
func registerCollector(reg prometheus.Registerer, collector prometheus.Collector) error {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if err := reg.Register(collector); err != nil {
		if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return nil
		}
		return err
	}
	return nil
}

var (
	hexSegmentRE   = regexp.MustCompile(`^[0-9a-fA-F]{16,}$`)
	tokenSegmentRE = regexp.MustCompile(`^[A-Za-z0-9_-]{20,}$`)
)

// NormalizePath colapsa segmentos dinámicos para acotar la cardinalidad.
func NormalizePath(p string) string {
	clean := strings.SplitN(p, "?", 2)[0]
	if clean == "" {
		return "/"
	}

	var out []string
	for _, seg := range strings.Split(clean, "/") {
		if seg == "" {
			continue
		}
		if isDynamicSegment(seg) {
			out = append(out, ":param")
		} else {
			out = append(out, seg)
		}
	}
	if len(out) == 0 {
		return "/"
	}
	return "/" + strings.Join(out, "/")
}

func isDynamicSegment(seg string) bool {
	if len(seg) > 48 {
		return true
	}
	if hexSegmentRE.MatchString(seg) || tokenSegmentRE.MatchString(seg) {
		return true
	}
	if _, err := strconv.Atoi(seg); err == nil {
		return true
	}
	return false
}

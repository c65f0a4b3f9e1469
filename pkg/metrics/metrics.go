package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Registry struct {
	registry *prometheus.Registry

	ScansTotal        *prometheus.CounterVec
	ScanDuration      *prometheus.HistogramVec
	NetworksFound     *prometheus.GaugeVec
	ConnectsTotal     *prometheus.CounterVec
	ConnectDuration   *prometheus.HistogramVec
	AssociationPolls  prometheus.Histogram
	SequencerState    *prometheus.GaugeVec
	DisconnectsTotal  prometheus.Counter
	CacheWritesTotal  *prometheus.CounterVec
	InternetReachable prometheus.Gauge
}

var (
	defaultRegistry *Registry
	once            sync.Once
)

// DefaultRegistry returns the process-wide registry
func DefaultRegistry() *Registry {
	once.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &Registry{
		registry: reg,
		ScansTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "dogewifi_scans_total",
			Help: "Wireless scans by interface and outcome",
		}, []string{"interface", "status"}),
		ScanDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "dogewifi_scan_duration_seconds",
			Help:    "Wall time of a scan including empty-result retries",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 3, 5, 8},
		}, []string{"interface"}),
		NetworksFound: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "dogewifi_networks_found",
			Help: "Cells reported by the last scan",
		}, []string{"interface"}),
		ConnectsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "dogewifi_connects_total",
			Help: "Connection attempts by encryption and result",
		}, []string{"encryption", "result"}),
		ConnectDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "dogewifi_connect_duration_seconds",
			Help:    "Wall time of a connection attempt",
			Buckets: []float64{1, 2, 5, 10, 20, 30, 60, 120},
		}, []string{"result"}),
		AssociationPolls: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "dogewifi_association_polls",
			Help:    "Supplicant status polls needed before association or timeout",
			Buckets: prometheus.LinearBuckets(1, 5, 9),
		}),
		SequencerState: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "dogewifi_sequencer_state",
			Help: "1 for the state the connection sequencer is in",
		}, []string{"state"}),
		DisconnectsTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "dogewifi_disconnects_total",
			Help: "Disconnect requests",
		}),
		CacheWritesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "dogewifi_cache_writes_total",
			Help: "Credential cache saves and clears",
		}, []string{"op"}),
		InternetReachable: f.NewGauge(prometheus.GaugeOpts{
			Name: "dogewifi_internet_reachable",
			Help: "1 if the last internet probe succeeded",
		}),
	}
}

func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.registry
}

func ObserveScan(iface string, d time.Duration, found int, err error) {
	r := DefaultRegistry()
	status := "ok"
	if err != nil {
		status = "error"
	} else if found == 0 {
		status = "empty"
	}
	r.ScansTotal.WithLabelValues(iface, status).Inc()
	r.ScanDuration.WithLabelValues(iface).Observe(d.Seconds())
	r.NetworksFound.WithLabelValues(iface).Set(float64(found))
}

func ObserveConnect(encryption string, d time.Duration, err error) {
	r := DefaultRegistry()
	result := "connected"
	if err != nil {
		result = "failed"
	}
	r.ConnectsTotal.WithLabelValues(encryption, result).Inc()
	r.ConnectDuration.WithLabelValues(result).Observe(d.Seconds())
}

func ObserveAssociation(polls int) {
	DefaultRegistry().AssociationPolls.Observe(float64(polls))
}

// SetState marks state as current and clears the others in states.
func SetState(current string, states []string) {
	r := DefaultRegistry()
	for _, s := range states {
		r.SequencerState.WithLabelValues(s).Set(0)
	}
	r.SequencerState.WithLabelValues(current).Set(1)
}

func IncDisconnect() {
	DefaultRegistry().DisconnectsTotal.Inc()
}

func IncCacheWrite(op string) {
	DefaultRegistry().CacheWritesTotal.WithLabelValues(op).Inc()
}

func SetInternetReachable(ok bool) {
	v := 0.0
	if ok {
		v = 1
	}
	DefaultRegistry().InternetReachable.Set(v)
}

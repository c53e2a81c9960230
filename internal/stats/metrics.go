package stats

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"gsm-decoder/internal/codec"
	"gsm-decoder/internal/gsm"
)

// Metrics mirrors the decode counters into Prometheus.
type Metrics struct {
	registry *prometheus.Registry

	packets     *prometheus.CounterVec
	rslMessages *prometheus.CounterVec
	dtap        *prometheus.CounterVec
	amrFrames   *prometheus.CounterVec
	malformed   prometheus.Counter
	flowsActive prometheus.Gauge

	server *http.Server
}

// NewMetrics registers the decoder metrics on a private registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		packets: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gsm_packets_total",
			Help: "Packets seen per decoded layer",
		}, []string{"layer"}),
		rslMessages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gsm_rsl_messages_total",
			Help: "RSL messages per message type",
		}, []string{"type"}),
		dtap: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gsm_dtap_messages_total",
			Help: "DTAP messages per family and message type",
		}, []string{"family", "type"}),
		amrFrames: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gsm_amr_frames_total",
			Help: "AMR frames per quality",
		}, []string{"quality"}),
		malformed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gsm_malformed_packets_total",
			Help: "Packets with a malformed layer",
		}),
		flowsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "gsm_flows_active",
			Help: "Flows currently tracked",
		}),
	}
	m.registry.MustRegister(m.packets, m.rslMessages, m.dtap, m.amrFrames, m.malformed, m.flowsActive)
	return m
}

// Registry returns the registry the metrics live on.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Observe counts one packet tally.
func (m *Metrics) Observe(t *gsm.Tally) {
	m.packets.WithLabelValues("all").Inc()
	if t.GSMTAP > 0 {
		m.packets.WithLabelValues("gsmtap").Add(float64(t.GSMTAP))
	}
	for _, r := range t.RSL {
		m.packets.WithLabelValues("rsl").Inc()
		typ := rslClass(r.Disc).String()
		if r.Typed {
			typ = codec.RSLTypeName(r.Type)
		}
		m.rslMessages.WithLabelValues(typ).Inc()
	}
	for _, d := range t.DTAP {
		m.packets.WithLabelValues("dtap").Inc()
		fam := dtapFamily(d.PD)
		m.dtap.WithLabelValues(fam.String(), dtapTypeName(fam, d)).Inc()
	}
	if t.SMSTPDUs > 0 {
		m.packets.WithLabelValues("sms").Add(float64(t.SMSTPDUs))
	}
	for _, a := range t.AMR {
		q := "bad"
		if a.Good {
			q = "good"
		}
		m.amrFrames.WithLabelValues(q).Inc()
	}
	if t.Status&gsm.AnyMalformed != 0 {
		m.malformed.Inc()
	}
}

func dtapTypeName(fam DTAPFamily, d gsm.DTAPCount) string {
	if !d.Typed {
		return "untyped"
	}
	switch fam {
	case DTAPCC:
		return codec.CCMsgName(d.Type)
	case DTAPMM:
		return codec.MMMsgName(d.Type)
	case DTAPRR:
		return codec.RRMsgName(d.Type)
	}
	return fmt.Sprintf("0x%02x", d.Type)
}

// SetActiveFlows updates the live flow gauge.
func (m *Metrics) SetActiveFlows(n int) {
	m.flowsActive.Set(float64(n))
}

// Serve exposes the registry on addr until ctx is done.
func (m *Metrics) Serve(ctx context.Context, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
	m.server = &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		log.WithField("addr", addr).Info("Serving Prometheus metrics")
		if err := m.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("Metrics server failed")
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := m.server.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Warn("Failed to shut down metrics server")
		}
	}()
}

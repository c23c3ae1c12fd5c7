// Package telemetry provides session health metrics and structured,
// rotatable JSON event logging for a BlueShare node, grounded on the
// teacher's HealthLogger (registry of Gauges/Counters plus a logrus JSON
// sink) but reporting session/device/payment/consensus counters instead
// of ledger/network/coin state.
package telemetry

import (
	"net/http"
	"os"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// Snapshot captures a point-in-time view of node health statistics.
type Snapshot struct {
	ActiveSessions    int   `json:"active_sessions"`
	DevicesAdmitted   int   `json:"devices_admitted"`
	BytesTransferred  uint64 `json:"bytes_transferred"`
	PaymentsSettled   int   `json:"payments_settled"`
	PaymentsFailed    int   `json:"payments_failed"`
	ConsensusRejected int   `json:"consensus_rejected"`
}

// HealthLogger reports BlueShare session metrics to Prometheus and writes
// structured JSON events to a rotatable log file.
type HealthLogger struct {
	log  *logrus.Logger
	file *os.File
	mu   sync.Mutex

	registry *prometheus.Registry

	activeSessionsGauge    prometheus.Gauge
	devicesAdmittedCounter prometheus.Counter
	bytesTransferredGauge  prometheus.Gauge
	paymentsSettledCounter prometheus.Counter
	paymentsFailedCounter  prometheus.Counter
	consensusRejectedCounter prometheus.Counter
	errorCounter           prometheus.Counter
}

// NewHealthLogger configures a HealthLogger writing JSON logs to path.
func NewHealthLogger(path string) (*HealthLogger, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	lg := logrus.New()
	lg.SetFormatter(&logrus.JSONFormatter{})
	lg.SetOutput(f)
	reg := prometheus.NewRegistry()

	h := &HealthLogger{log: lg, file: f, registry: reg}

	h.activeSessionsGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "blueshare_active_sessions",
		Help: "Number of currently active sharing sessions",
	})
	h.devicesAdmittedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "blueshare_devices_admitted_total",
		Help: "Total number of devices admitted into a session",
	})
	h.bytesTransferredGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "blueshare_bytes_transferred",
		Help: "Bytes transferred across all devices in the current session",
	})
	h.paymentsSettledCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "blueshare_payments_settled_total",
		Help: "Total number of device payments settled",
	})
	h.paymentsFailedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "blueshare_payments_failed_total",
		Help: "Total number of device payments that failed",
	})
	h.consensusRejectedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "blueshare_consensus_rejected_total",
		Help: "Total number of NSIGII consensus rounds that ended REJECTED",
	})
	h.errorCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "blueshare_log_errors_total",
		Help: "Total number of error events logged",
	})

	reg.MustRegister(
		h.activeSessionsGauge,
		h.devicesAdmittedCounter,
		h.bytesTransferredGauge,
		h.paymentsSettledCounter,
		h.paymentsFailedCounter,
		h.consensusRejectedCounter,
		h.errorCounter,
	)

	return h, nil
}

// Close releases the underlying log file.
func (h *HealthLogger) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.file.Close()
}

// Rotate switches logging to a new file path.
func (h *HealthLogger) Rotate(path string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.file.Close(); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	h.log.SetOutput(f)
	h.file = f
	return nil
}

// LogEvent records an arbitrary message at the given log level.
func (h *HealthLogger) LogEvent(level logrus.Level, msg string) {
	h.mu.Lock()
	if level >= logrus.ErrorLevel {
		h.errorCounter.Inc()
	}
	h.log.Log(level, msg)
	h.mu.Unlock()
}

// RecordSessionStarted marks one more active session and accounts for the
// devices admitted into it.
func (h *HealthLogger) RecordSessionStarted(devicesAdmitted int) {
	h.activeSessionsGauge.Inc()
	h.devicesAdmittedCounter.Add(float64(devicesAdmitted))
	h.LogEvent(logrus.InfoLevel, "session started")
}

// RecordSessionEnded marks one fewer active session and records the
// session's final payment and bandwidth tallies.
func (h *HealthLogger) RecordSessionEnded(bytesTransferred uint64, paymentsSettled, paymentsFailed int) {
	h.activeSessionsGauge.Dec()
	h.bytesTransferredGauge.Set(float64(bytesTransferred))
	h.paymentsSettledCounter.Add(float64(paymentsSettled))
	h.paymentsFailedCounter.Add(float64(paymentsFailed))
	h.LogEvent(logrus.InfoLevel, "session ended")
}

// RecordConsensusRejected increments the rejected-round counter.
func (h *HealthLogger) RecordConsensusRejected() {
	h.consensusRejectedCounter.Inc()
	h.LogEvent(logrus.WarnLevel, "consensus round rejected")
}

// Handler returns the Prometheus scrape handler bound to this logger's
// private registry. internal/apiserver mounts it at /metrics so the gauges
// and counters above are reachable from the monitoring API, instead of the
// global default registry that no BlueShare counters are ever registered
// against.
func (h *HealthLogger) Handler() http.Handler {
	return promhttp.HandlerFor(h.registry, promhttp.HandlerOpts{})
}

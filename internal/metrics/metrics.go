package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors of the service. A nil *Metrics is
// valid and records nothing, so services can run without a registry.
type Metrics struct {
	RegistrationsStarted prometheus.Counter
	StepsCompleted       *prometheus.CounterVec
	DocumentsGenerated   *prometheus.CounterVec
	Signatures           *prometheus.CounterVec
	Notifications        *prometheus.CounterVec
	Provisioning         *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
}

// New creates the collectors and registers them on reg
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		RegistrationsStarted: f.NewCounter(prometheus.CounterOpts{
			Name: "acadef_registrations_started_total",
			Help: "Registrations that completed step 1",
		}),
		StepsCompleted: f.NewCounterVec(prometheus.CounterOpts{
			Name: "acadef_registration_steps_completed_total",
			Help: "Wizard steps completed, by step number",
		}, []string{"step"}),
		DocumentsGenerated: f.NewCounterVec(prometheus.CounterOpts{
			Name: "acadef_documents_generated_total",
			Help: "PDF documents written to storage, by document type",
		}, []string{"type"}),
		Signatures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "acadef_signatures_total",
			Help: "Signatures recorded, by signer role and channel (token or session)",
		}, []string{"role", "channel"}),
		Notifications: f.NewCounterVec(prometheus.CounterOpts{
			Name: "acadef_notifications_total",
			Help: "Outgoing emails, by kind and result",
		}, []string{"kind", "result"}),
		Provisioning: f.NewCounterVec(prometheus.CounterOpts{
			Name: "acadef_provisioning_calls_total",
			Help: "Remote account provisioning calls, by system, operation and result",
		}, []string{"system", "op", "result"}),
		HTTPRequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "acadef_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
}

func result(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}

// IncRegistrationStarted counts a new candidate record
func (m *Metrics) IncRegistrationStarted() {
	if m == nil {
		return
	}
	m.RegistrationsStarted.Inc()
}

// IncStepCompleted counts a completed wizard step
func (m *Metrics) IncStepCompleted(step string) {
	if m == nil {
		return
	}
	m.StepsCompleted.WithLabelValues(step).Inc()
}

// IncDocumentGenerated counts a PDF written to disk
func (m *Metrics) IncDocumentGenerated(docType string) {
	if m == nil {
		return
	}
	m.DocumentsGenerated.WithLabelValues(docType).Inc()
}

// IncSignature counts a recorded signature
func (m *Metrics) IncSignature(role, channel string) {
	if m == nil {
		return
	}
	m.Signatures.WithLabelValues(role, channel).Inc()
}

// IncNotification counts an email attempt
func (m *Metrics) IncNotification(kind string, ok bool) {
	if m == nil {
		return
	}
	m.Notifications.WithLabelValues(kind, result(ok)).Inc()
}

// IncProvisioning counts a remote provisioning call
func (m *Metrics) IncProvisioning(system, op string, ok bool) {
	if m == nil {
		return
	}
	m.Provisioning.WithLabelValues(system, op, result(ok)).Inc()
}

// ObserveHTTP records the latency of one request
func (m *Metrics) ObserveHTTP(method, route, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestDuration.WithLabelValues(method, route, status).Observe(d.Seconds())
}

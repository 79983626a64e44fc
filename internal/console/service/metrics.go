package service

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the login flow and token refresh.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	AuthOutcomes       *prometheus.CounterVec
	FlowTransitions    *prometheus.CounterVec
	RefreshAttempts    *prometheus.CounterVec
	RefreshDelay       prometheus.Histogram
	SessionsExhausted  prometheus.Counter
	Authenticated      prometheus.Gauge
	GatewayDuration    *prometheus.HistogramVec
	StorageChangesSeen prometheus.Counter
}

// NewMetrics registers the console metrics with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		AuthOutcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "console_auth_outcomes_total",
			Help: "Authenticate outcomes by status",
		}, []string{"status"}),
		FlowTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "console_flow_transitions_total",
			Help: "Login flow state transitions by target state",
		}, []string{"state"}),
		RefreshAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "console_refresh_attempts_total",
			Help: "Token refresh attempts by result",
		}, []string{"result"}),
		RefreshDelay: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "console_refresh_scheduled_delay_seconds",
			Help:    "Delay between arming the refresh timer and its planned fire time",
			Buckets: []float64{0, 1, 5, 30, 60, 300, 900, 1800, 3600},
		}),
		SessionsExhausted: factory.NewCounter(prometheus.CounterOpts{
			Name: "console_sessions_exhausted_total",
			Help: "Sessions ended because the refresh token could not be used",
		}),
		Authenticated: factory.NewGauge(prometheus.GaugeOpts{
			Name: "console_authenticated",
			Help: "1 while the console holds an authenticated session",
		}),
		GatewayDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "console_gateway_request_duration_seconds",
			Help:    "Duration of identity provider calls by operation",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"op"}),
		StorageChangesSeen: factory.NewCounter(prometheus.CounterOpts{
			Name: "console_storage_changes_total",
			Help: "External changes to the persisted session observed by the watchdog",
		}),
	}
}

func (m *Metrics) ObserveOutcome(status string) {
	if m == nil {
		return
	}
	m.AuthOutcomes.WithLabelValues(status).Inc()
}

func (m *Metrics) ObserveTransition(state string) {
	if m == nil {
		return
	}
	m.FlowTransitions.WithLabelValues(state).Inc()
}

func (m *Metrics) ObserveRefresh(result string) {
	if m == nil {
		return
	}
	m.RefreshAttempts.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveRefreshDelay(d time.Duration) {
	if m == nil {
		return
	}
	m.RefreshDelay.Observe(d.Seconds())
}

func (m *Metrics) IncrementSessionsExhausted() {
	if m == nil {
		return
	}
	m.SessionsExhausted.Inc()
}

func (m *Metrics) SetAuthenticated(ok bool) {
	if m == nil {
		return
	}
	if ok {
		m.Authenticated.Set(1)
	} else {
		m.Authenticated.Set(0)
	}
}

// ObserveGateway records the duration of an identity provider call.
// Call with time.Now() at the start of the call.
func (m *Metrics) ObserveGateway(op string, start time.Time) {
	if m == nil {
		return
	}
	m.GatewayDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

func (m *Metrics) IncrementStorageChanges() {
	if m == nil {
		return
	}
	m.StorageChangesSeen.Inc()
}

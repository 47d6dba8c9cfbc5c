package monitoring

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the collectors exported by the service. Each instance owns
// its registry so servers and tests do not collide on registration.
type Metrics struct {
	Registry *prometheus.Registry

	RequestCounter  *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	BankQuestions *prometheus.GaugeVec
	BankTags      prometheus.Gauge
	BankReloads   *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		RequestCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests",
				Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1},
			},
			[]string{"method", "endpoint"},
		),
		BankQuestions: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "question_bank_questions",
				Help: "Questions in the loaded bank by type",
			},
			[]string{"type"},
		),
		BankTags: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "question_bank_tags",
			Help: "Distinct tags in the loaded bank",
		}),
		BankReloads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "question_bank_reloads_total",
				Help: "Question bank load attempts by result",
			},
			[]string{"result"},
		),
	}

	m.Registry.MustRegister(
		m.RequestCounter,
		m.RequestDuration,
		m.BankQuestions,
		m.BankTags,
		m.BankReloads,
	)
	return m
}

// ObserveBank records the shape of a freshly loaded bank.
func (m *Metrics) ObserveBank(byType map[string]int, tagCount int) {
	m.BankQuestions.Reset()
	for questionType, count := range byType {
		m.BankQuestions.WithLabelValues(questionType).Set(float64(count))
	}
	m.BankTags.Set(float64(tagCount))
	m.BankReloads.WithLabelValues("success").Inc()
}

func (m *Metrics) ObserveLoadFailure() {
	m.BankReloads.WithLabelValues("failure").Inc()
}

func (m *Metrics) MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}

		m.RequestCounter.WithLabelValues(
			c.Request.Method,
			endpoint,
			strconv.Itoa(c.Writer.Status()),
		).Inc()

		m.RequestDuration.WithLabelValues(
			c.Request.Method,
			endpoint,
		).Observe(time.Since(start).Seconds())
	}
}

func (m *Metrics) PrometheusHandler() gin.HandlerFunc {
	h := promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

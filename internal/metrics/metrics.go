package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns its registry so tests and multiple servers in one process do
// not collide on the global one.
type Metrics struct {
	registry *prometheus.Registry

	Requests *prometheus.CounterVec
	Uploads  *prometheus.CounterVec
	Logins   *prometheus.CounterVec
	Likes    prometheus.Counter
	Comments prometheus.Counter
	Signups  prometheus.Counter
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Handled HTTP requests by route template and status code",
			},
			[]string{"path", "status"},
		),
		Uploads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "uploads_total",
				Help: "Upload attempts by result",
			},
			[]string{"result"},
		),
		Logins: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "logins_total",
				Help: "Login attempts by result",
			},
			[]string{"result"},
		),
		Likes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "likes_total",
			Help: "Likes recorded",
		}),
		Comments: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "comments_total",
			Help: "Comments recorded",
		}),
		Signups: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "signups_total",
			Help: "Accounts created",
		}),
	}

	m.registry.MustRegister(
		m.Requests,
		m.Uploads,
		m.Logins,
		m.Likes,
		m.Comments,
		m.Signups,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

func (m *Metrics) ObserveRequest(path string, status int) {
	m.Requests.WithLabelValues(path, strconv.Itoa(status)).Inc()
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

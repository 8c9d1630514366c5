package monitoring

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status_code"},
	)

	queueTransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "queue_transitions_total",
			Help: "Total number of queue transition attempts",
		},
		[]string{"action", "result"},
	)

	consultationCompletionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "consultation_completions_total",
			Help: "Total number of consultation completion submissions",
		},
		[]string{"result"},
	)

	prescriptionActionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prescription_actions_total",
			Help: "Total number of prescription payment/dispense actions",
		},
		[]string{"action", "result"},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequestDuration,
		queueTransitionsTotal,
		consultationCompletionsTotal,
		prescriptionActionsTotal,
	)
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func RecordQueueTransition(action string, err error) {
	queueTransitionsTotal.WithLabelValues(action, result(err)).Inc()
}

func RecordCompletion(err error) {
	consultationCompletionsTotal.WithLabelValues(result(err)).Inc()
}

func RecordPrescriptionAction(action string, err error) {
	prescriptionActionsTotal.WithLabelValues(action, result(err)).Inc()
}

// Handler mengembalikan handler /metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// EchoMiddleware mencatat durasi request per route.
func EchoMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			status := c.Response().Status
			if err != nil {
				if he, ok := err.(*echo.HTTPError); ok {
					status = he.Code
				}
			}
			httpRequestDuration.
				WithLabelValues(c.Request().Method, c.Path(), strconv.Itoa(status)).
				Observe(time.Since(start).Seconds())
			return err
		}
	}
}

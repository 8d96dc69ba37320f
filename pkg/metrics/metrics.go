package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var HistogramBuckets = []float64{
	// --- Fast responses (0 - 500ms) ---
	25, 50, 75, 100, 150, 200, 300, 400, 500,

	// --- Medium responses (500ms - 2s) ---
	750, 1000, 1250, 1500, 1750, 2000,

	// --- Slow responses (2s - 15s) ---
	2500, 3000, 4000, 5000, 7500, 10000, 15000,
}

var (
	httpReqTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Subsystem: "http",
		Name:      "req_total",
		Help:      "How many HTTP requests processed, partitioned by status code, method and route.",
	}, []string{"code", "method", "url"})

	httpReqDur = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Subsystem: "http",
		Name:      "req_dur_ms",
		Help:      "HTTP request latencies in milliseconds.",
		Buckets:   HistogramBuckets,
	}, []string{"code", "method", "url"})

	// OrdersCredited counts orders whose crediting transaction committed.
	OrdersCredited = promauto.NewCounter(prometheus.CounterOpts{
		Subsystem: "payment",
		Name:      "orders_credited_total",
		Help:      "Payment orders successfully credited into the entitlement ledger.",
	})

	// CreditFailures counts crediting transactions that rolled back.
	CreditFailures = promauto.NewCounter(prometheus.CounterOpts{
		Subsystem: "payment",
		Name:      "credit_failures_total",
		Help:      "Payment orders left unconfirmed after a failed crediting transaction.",
	})

	// SignatureRejects counts callbacks whose recomputed signature mismatched.
	SignatureRejects = promauto.NewCounter(prometheus.CounterOpts{
		Subsystem: "payment",
		Name:      "callback_signature_rejects_total",
		Help:      "Gateway callbacks rejected for signature mismatch.",
	})

	// PointsConsumed sums points deducted by successful consume calls.
	PointsConsumed = promauto.NewCounter(prometheus.CounterOpts{
		Subsystem: "ledger",
		Name:      "points_consumed_total",
		Help:      "Points deducted from user lots.",
	})

	// SweptRows counts expired rows removed by sweeps, partitioned by kind.
	SweptRows = promauto.NewCounterVec(prometheus.CounterOpts{
		Subsystem: "ledger",
		Name:      "swept_rows_total",
		Help:      "Expired entitlement rows removed by background sweeps.",
	}, []string{"kind"})
)

// GinMiddleware records request count and latency per route.
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		url := c.FullPath()
		if url == "" {
			url = c.Request.URL.Path
		}
		code := strconv.Itoa(c.Writer.Status())
		httpReqTotal.WithLabelValues(code, c.Request.Method, url).Inc()
		httpReqDur.WithLabelValues(code, c.Request.Method, url).Observe(float64(time.Since(start).Milliseconds()))
	}
}

package turbodbc

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector holds the Prometheus instruments the parameter-set and
// result-set engines update. A nil *Collector is never passed to the
// engines; NewConfig installs a freshly-registered one by default.
type Collector struct {
	BatchesFlushed       prometheus.Counter
	RowsFetched          prometheus.Counter
	ParametersRebound    prometheus.Counter
	ReaderFetchDuration   prometheus.Histogram
}

// NewCollector builds a Collector whose instruments are not registered
// anywhere, so importing this package never panics another program's
// default registry with duplicate metric names; callers that want
// turbodbc's metrics exported can call Registry(), which builds a new
// registry holding them on each call.
func NewCollector() *Collector {
	c := &Collector{
		BatchesFlushed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "turbodbc",
			Name:      "batches_flushed_total",
			Help:      "Number of parameter batches flushed to the native CLI.",
		}),
		RowsFetched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "turbodbc",
			Name:      "rows_fetched_total",
			Help:      "Number of result rows fetched from the native CLI.",
		}),
		ParametersRebound: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "turbodbc",
			Name:      "parameters_rebound_total",
			Help:      "Number of times a bound parameter's buffer was rebound to a larger Description.",
		}),
		ReaderFetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "turbodbc",
			Name:      "reader_fetch_duration_seconds",
			Help:      "Latency of a DoubleBufferedResultSet reader goroutine's fetch_next_batch call.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	return c
}

// Registry returns a new prometheus.Registry with all of this Collector's
// instruments already registered, for embedding into a larger process.
func (c *Collector) Registry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(c.BatchesFlushed, c.RowsFetched, c.ParametersRebound, c.ReaderFetchDuration)
	return reg
}

func (c *Collector) observeFetch(d time.Duration) {
	if c == nil {
		return
	}
	c.ReaderFetchDuration.Observe(d.Seconds())
}

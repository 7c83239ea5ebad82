// Package metrics records container-reader activity as Prometheus
// counters plus a rolling decode rate, grounded on the teacher's
// ppl/archive/immcache.LocalCache (promauto-registered hit/miss
// counters) and on paulbellamy/ratecounter for the rolling rate.
package metrics

import (
	"time"

	"github.com/paulbellamy/ratecounter"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements avroio.Metrics and cache.Metrics.
type Recorder struct {
	blocksRead    prometheus.Counter
	recordsRead   prometheus.Counter
	bytesRead     prometheus.Counter
	decodeErrors  prometheus.Counter
	cacheHits     prometheus.Counter
	cacheMisses   prometheus.Counter
	rate          *ratecounter.RateCounter
	ratePerSecond prometheus.GaugeFunc
}

// New registers a Recorder's counters against reg. Pass
// prometheus.DefaultRegisterer for the global registry, or a fresh
// prometheus.NewRegistry() in tests.
func New(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	rate := ratecounter.NewRateCounter(time.Second)
	return &Recorder{
		blocksRead:   f.NewCounter(prometheus.CounterOpts{Name: "avro_blocks_read_total"}),
		recordsRead:  f.NewCounter(prometheus.CounterOpts{Name: "avro_records_read_total"}),
		bytesRead:    f.NewCounter(prometheus.CounterOpts{Name: "avro_bytes_read_total"}),
		decodeErrors: f.NewCounter(prometheus.CounterOpts{Name: "avro_decode_errors_total"}),
		cacheHits:    f.NewCounter(prometheus.CounterOpts{Name: "avro_schema_cache_hits_total"}),
		cacheMisses:  f.NewCounter(prometheus.CounterOpts{Name: "avro_schema_cache_misses_total"}),
		rate:         rate,
		ratePerSecond: f.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "avro_records_decoded_per_second",
			Help: "Rolling one-second rate of RecordDecoded calls.",
		}, func() float64 { return float64(rate.Rate()) }),
	}
}

// BlockRead records one decoded block.
func (r *Recorder) BlockRead(records int, compressedBytes, decompressedBytes int64) {
	r.blocksRead.Inc()
	r.bytesRead.Add(float64(compressedBytes))
}

// RecordDecoded records one decoded record.
func (r *Recorder) RecordDecoded() {
	r.recordsRead.Inc()
	r.rate.Incr(1)
}

// DecodeError records a terminal decode failure.
func (r *Recorder) DecodeError() { r.decodeErrors.Inc() }

// Hit records a schema cache hit.
func (r *Recorder) Hit() { r.cacheHits.Inc() }

// Miss records a schema cache miss.
func (r *Recorder) Miss() { r.cacheMisses.Inc() }

// RecordsPerSecond returns the current rolling one-second decode rate.
func (r *Recorder) RecordsPerSecond() int64 { return r.rate.Rate() }

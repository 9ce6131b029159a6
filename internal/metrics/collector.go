package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// StreamStats is the per-stream live state the collector exports.
type StreamStats struct {
	ID              string
	BufferSize      int
	BufferCapacity  int
	SamplesEvicted  int64
	BlocksIngested  int64
}

// StatsSource provides the collector access to live pipeline state.
type StatsSource interface {
	StreamStats() []StreamStats
}

// SubscriberSource reports live event subscribers.
type SubscriberSource interface {
	SubscriberCount() int
}

// Collector implements prometheus.Collector to read live gauges at scrape time.
type Collector struct {
	streams StatsSource
	bus     SubscriberSource

	activeStreams  *prometheus.Desc
	bufferFill     *prometheus.Desc
	bufferCapacity *prometheus.Desc
	samplesEvicted *prometheus.Desc
	blocksIngested *prometheus.Desc
	sseSubscribers *prometheus.Desc
}

// NewCollector creates a collector that reads live state at scrape time.
// Either source may be nil; the corresponding metrics report 0.
func NewCollector(streams StatsSource, bus SubscriberSource) *Collector {
	return &Collector{
		streams: streams,
		bus:     bus,
		activeStreams: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "active_streams"),
			"Current number of open audio streams.",
			nil, nil,
		),
		bufferFill: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "buffer", "fill_samples"),
			"Samples currently accumulated in the stream buffer.",
			[]string{"stream"}, nil,
		),
		bufferCapacity: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "buffer", "capacity_samples"),
			"Configured stream buffer capacity.",
			[]string{"stream"}, nil,
		),
		samplesEvicted: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "buffer", "samples_evicted_total"),
			"Samples evicted from the head of the stream buffer.",
			[]string{"stream"}, nil,
		),
		blocksIngested: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "blocks_ingested_total"),
			"Audio blocks processed by the stream tap.",
			[]string{"stream"}, nil,
		),
		sseSubscribers: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "sse_subscribers_active"),
			"Current number of SSE subscribers.",
			nil, nil,
		),
	}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.activeStreams
	ch <- c.bufferFill
	ch <- c.bufferCapacity
	ch <- c.samplesEvicted
	ch <- c.blocksIngested
	ch <- c.sseSubscribers
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	if c.streams != nil {
		stats := c.streams.StreamStats()
		ch <- prometheus.MustNewConstMetric(c.activeStreams, prometheus.GaugeValue, float64(len(stats)))
		for _, s := range stats {
			ch <- prometheus.MustNewConstMetric(c.bufferFill, prometheus.GaugeValue, float64(s.BufferSize), s.ID)
			ch <- prometheus.MustNewConstMetric(c.bufferCapacity, prometheus.GaugeValue, float64(s.BufferCapacity), s.ID)
			ch <- prometheus.MustNewConstMetric(c.samplesEvicted, prometheus.CounterValue, float64(s.SamplesEvicted), s.ID)
			ch <- prometheus.MustNewConstMetric(c.blocksIngested, prometheus.CounterValue, float64(s.BlocksIngested), s.ID)
		}
	} else {
		ch <- prometheus.MustNewConstMetric(c.activeStreams, prometheus.GaugeValue, 0)
	}

	if c.bus != nil {
		ch <- prometheus.MustNewConstMetric(c.sseSubscribers, prometheus.GaugeValue, float64(c.bus.SubscriberCount()))
	} else {
		ch <- prometheus.MustNewConstMetric(c.sseSubscribers, prometheus.GaugeValue, 0)
	}
}

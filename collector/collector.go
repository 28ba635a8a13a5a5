/*
 * This file is part of dtorrent.
 *
 * dtorrent is free software: you can redistribute it and/or modify
 * it under the terms of the GNU General Public License as published by
 * the Free Software Foundation, either version 3 of the License, or
 * (at your option) any later version.
 *
 * dtorrent is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License
 * along with dtorrent.  If not, see <http://www.gnu.org/licenses/>.
 */

package collector

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"math"
	"sync/atomic"
	"time"

	"github.com/moham96/dtorrent-parser/metainfo"

	"github.com/prometheus/client_golang/prometheus"
)

type Collector struct {
	uptimeMetric          *prometheus.Desc
	requestsMetric        *prometheus.Desc
	erroredRequestsMetric *prometheus.Desc
	parsedMetric          *prometheus.Desc
	catalogMetric         *prometheus.Desc
	workersMetric         *prometheus.Desc

	parseTimeHistogram     *prometheus.Histogram
	serializeTimeHistogram *prometheus.Histogram
	torrentSizeHistogram   *prometheus.Histogram

	failuresCounter *prometheus.CounterVec
	droppedCounter  *prometheus.CounterVec
}

var (
	uptime          atomic.Uint64 // float64 bits
	requests        atomic.Uint64
	erroredRequests atomic.Uint64
	parsed          atomic.Uint64
	catalogSize     atomic.Int64
	workers         atomic.Int64
)

// Failure kinds reported by ObserveParse
const (
	FailureValidation = "validation"
	FailureDecode     = "decode"
	FailureIO         = "io"
	FailureArgument   = "argument"
	FailureCanceled   = "canceled"
	FailureOther      = "other"
)

var (
	parseTime = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "dtorrent_parse_seconds",
		Help:    "Histogram of the time taken to decode, validate and parse a metainfo file",
		Buckets: []float64{.0001, .0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
	})
	serializeTime = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "dtorrent_serialize_seconds",
		Help:    "Histogram of the time taken to serialize a torrent",
		Buckets: []float64{.0001, .0005, .001, .0025, .005, .01, .025, .05, .1, .25},
	})
	torrentSize = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "dtorrent_torrent_bytes",
		Help:    "Histogram of the size of parsed metainfo files",
		Buckets: prometheus.ExponentialBuckets(1024, 4, 10),
	})
	failures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dtorrent_parse_failures_total",
		Help: "Number of metainfo files that could not be parsed",
	}, []string{"kind"})
	dropped = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dtorrent_dropped_total",
		Help: "Number of malformed sub-items skipped while parsing",
	}, []string{"kind"})
)

func NewCollector() *Collector {
	return &Collector{
		uptimeMetric: prometheus.NewDesc("dtorrent_uptime",
			"System uptime in seconds", nil, nil),
		requestsMetric: prometheus.NewDesc("dtorrent_requests",
			"Number of requests received", nil, nil),
		erroredRequestsMetric: prometheus.NewDesc("dtorrent_requests_fail",
			"Number of failed requests", nil, nil),
		parsedMetric: prometheus.NewDesc("dtorrent_parsed_total",
			"Number of metainfo files parsed successfully", nil, nil),
		catalogMetric: prometheus.NewDesc("dtorrent_catalog_torrents",
			"Number of torrents stored in the catalog", nil, nil),
		workersMetric: prometheus.NewDesc("dtorrent_workers",
			"Number of offload workers", nil, nil),

		parseTimeHistogram:     &parseTime,
		serializeTimeHistogram: &serializeTime,
		torrentSizeHistogram:   &torrentSize,

		failuresCounter: failures,
		droppedCounter:  dropped,
	}
}

func (collector *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- collector.uptimeMetric
	ch <- collector.requestsMetric
	ch <- collector.erroredRequestsMetric
	ch <- collector.parsedMetric
	ch <- collector.catalogMetric
	ch <- collector.workersMetric

	(*collector.parseTimeHistogram).Describe(ch)
	(*collector.serializeTimeHistogram).Describe(ch)
	(*collector.torrentSizeHistogram).Describe(ch)

	collector.failuresCounter.Describe(ch)
	collector.droppedCounter.Describe(ch)
}

func (collector *Collector) Collect(ch chan<- prometheus.Metric) {
	ch <- prometheus.MustNewConstMetric(collector.uptimeMetric, prometheus.CounterValue, Uptime())
	ch <- prometheus.MustNewConstMetric(collector.requestsMetric, prometheus.CounterValue, float64(requests.Load()))
	ch <- prometheus.MustNewConstMetric(collector.erroredRequestsMetric, prometheus.CounterValue,
		float64(erroredRequests.Load()))
	ch <- prometheus.MustNewConstMetric(collector.parsedMetric, prometheus.CounterValue, float64(parsed.Load()))
	ch <- prometheus.MustNewConstMetric(collector.catalogMetric, prometheus.GaugeValue, float64(catalogSize.Load()))
	ch <- prometheus.MustNewConstMetric(collector.workersMetric, prometheus.GaugeValue, float64(workers.Load()))

	(*collector.parseTimeHistogram).Collect(ch)
	(*collector.serializeTimeHistogram).Collect(ch)
	(*collector.torrentSizeHistogram).Collect(ch)

	collector.failuresCounter.Collect(ch)
	collector.droppedCounter.Collect(ch)
}

// TrackDrops routes metainfo drop notifications into dtorrent_dropped_total.
func TrackDrops() {
	metainfo.SetDropHook(IncrementDropped)
}

func UpdateUptime(seconds float64) {
	uptime.Store(math.Float64bits(seconds))
}

func Uptime() float64 {
	return math.Float64frombits(uptime.Load())
}

func UpdateRequests(count uint64) {
	requests.Store(count)
}

func UpdateCatalogSize(count int64) {
	catalogSize.Store(count)
}

func UpdateWorkers(count int) {
	workers.Store(int64(count))
}

func IncrementErroredRequests() {
	erroredRequests.Add(1)
}

func IncrementDropped(kind string) {
	switch kind {
	case metainfo.DropAnnounce, metainfo.DropURLList, metainfo.DropNode, metainfo.DropPathSegment,
		metainfo.DropFileLength, metainfo.DropScalar:
		dropped.WithLabelValues(kind).Inc()
	default:
		slog.Error("trying to count drop of unknown kind", "kind", kind)
	}
}

// ObserveParse records the outcome of one parse of size bytes.
func ObserveParse(elapsed time.Duration, size int, err error) {
	parseTime.Observe(elapsed.Seconds())

	if err != nil {
		failures.WithLabelValues(FailureKind(err)).Inc()
		return
	}

	parsed.Add(1)
	torrentSize.Observe(float64(size))
}

func ObserveSerialize(elapsed time.Duration) {
	serializeTime.Observe(elapsed.Seconds())
}

func FailureKind(err error) string {
	switch {
	case errors.Is(err, metainfo.ErrValidation):
		return FailureValidation
	case errors.Is(err, metainfo.ErrDecode):
		return FailureDecode
	case errors.Is(err, metainfo.ErrInvalidArgument):
		return FailureArgument
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return FailureCanceled
	case errors.Is(err, fs.ErrNotExist), errors.Is(err, fs.ErrPermission), errors.Is(err, metainfo.ErrExists):
		return FailureIO
	default:
		return FailureOther
	}
}

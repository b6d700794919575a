// Copyright (C) 2026  Lukas Dietrich <lukas@lukasdietrich.com>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "briefbote"

var (
	messagesEnqueued = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "producer",
			Name:      "messages_total",
			Help:      "Number of enqueue attempts by result",
		},
		[]string{"result"},
	)

	// messagesDispatched counts handled deliveries.
	// Labels:
	// - outcome: "success", "failed", "duplicate", "dropped", "retry"
	messagesDispatched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "worker",
			Name:      "messages_total",
			Help:      "Number of queue messages handled by outcome",
		},
		[]string{"outcome"},
	)

	messagesInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "worker",
			Name:      "messages_in_flight",
			Help:      "Number of messages currently being handled",
		},
	)

	sendDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "mailer",
			Name:      "send_duration_seconds",
			Help:      "Duration of SMTP transmissions",
			Buckets:   prometheus.DefBuckets,
		},
	)

	attachmentsDeleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "attachments",
			Name:      "deleted_total",
			Help:      "Number of attachment files removed by reason",
		},
		[]string{"reason"},
	)
)

func IncEnqueued(result string) {
	messagesEnqueued.WithLabelValues(orUnknown(result)).Inc()
}

func IncDispatched(outcome string) {
	messagesDispatched.WithLabelValues(orUnknown(outcome)).Inc()
}

// TrackInFlight increments the in-flight gauge and returns a function to decrement it again.
func TrackInFlight() func() {
	messagesInFlight.Inc()
	return messagesInFlight.Dec
}

func ObserveSendDuration(d time.Duration) {
	sendDuration.Observe(d.Seconds())
}

func IncAttachmentsDeleted(reason string, n int) {
	attachmentsDeleted.WithLabelValues(orUnknown(reason)).Add(float64(n))
}

// Handler serves all registered metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

func orUnknown(label string) string {
	if label == "" {
		return "unknown"
	}

	return label
}

// Copyright 2025 The Ember Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package engine

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/emberhttp/ember/bufferpool"
)

// Metrics holds the Prometheus collectors an engine reports into.
type Metrics struct {
	connectionsAccepted prometheus.Counter
	connectionsRejected prometheus.Counter
	activeConnections   prometheus.Gauge
	requestsTotal       *prometheus.CounterVec
}

// NewMetrics creates and registers the engine collectors.
//
// Example:
//
//	m := engine.NewMetrics(prometheus.DefaultRegisterer)
//	eng, _ := engine.NewThreaded(cfg, r, engine.WithMetrics(m))
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		connectionsAccepted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "ember",
			Name:      "connections_accepted_total",
			Help:      "Connections accepted by the engine.",
		}),
		connectionsRejected: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "ember",
			Name:      "connections_rejected_total",
			Help:      "Connections refused by admission control.",
		}),
		activeConnections: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "ember",
			Name:      "active_connections",
			Help:      "Connections currently open.",
		}),
		requestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ember",
			Name:      "requests_total",
			Help:      "Requests answered, labeled by status class.",
		}, []string{"class"}),
	}
}

// RegisterPool exposes buffer-pool gauges on reg.
func RegisterPool(reg prometheus.Registerer, pool *bufferpool.Pool) {
	factory := promauto.With(reg)
	factory.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "ember",
		Name:      "bufferpool_in_use",
		Help:      "Buffers currently handed out.",
	}, func() float64 {
		return float64(pool.Stats().InUse)
	})
	factory.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "ember",
		Name:      "bufferpool_free",
		Help:      "Buffers on the free stack.",
	}, func() float64 {
		return float64(pool.Stats().Free)
	})
	factory.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "ember",
		Name:      "bufferpool_peak",
		Help:      "Historical maximum of in-use buffers.",
	}, func() float64 {
		return float64(pool.Stats().Peak)
	})
}

func (m *Metrics) connAccepted() {
	if m == nil {
		return
	}
	m.connectionsAccepted.Inc()
	m.activeConnections.Inc()
}

func (m *Metrics) connRejected() {
	if m == nil {
		return
	}
	m.connectionsRejected.Inc()
}

func (m *Metrics) connClosed() {
	if m == nil {
		return
	}
	m.activeConnections.Dec()
}

func (m *Metrics) requestDone(status int) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(strconv.Itoa(status/100) + "xx").Inc()
}

// Package metrics exposes the client's Prometheus counters and gauges,
// the same instruments the teacher's broker-side Stat type tracked,
// reshaped for one client connection instead of one server process.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Stats holds the counters and gauges a Client updates as it sends and
// receives packets. The zero value is unusable; construct with
// NewStats.
type Stats struct {
	PacketsSent     prometheus.Counter
	PacketsReceived prometheus.Counter
	BytesSent       prometheus.Counter
	BytesReceived   prometheus.Counter
	PingTimeouts    prometheus.Counter
	Reconnects      prometheus.Counter
	Connected       prometheus.Gauge
}

// NewStats builds a fresh, unregistered Stats instance. namespace is
// prefixed to every metric name (e.g. "mqttcore"), so a process that
// embeds more than one client can tell their metrics apart.
func NewStats(namespace string) *Stats {
	return &Stats{
		PacketsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "packets_sent_total", Help: "Total MQTT control packets sent.",
		}),
		PacketsReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "packets_received_total", Help: "Total MQTT control packets received.",
		}),
		BytesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "bytes_sent_total", Help: "Total bytes written to the transport.",
		}),
		BytesReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "bytes_received_total", Help: "Total bytes read from the transport.",
		}),
		PingTimeouts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "ping_timeouts_total", Help: "Keep-alive PINGREQ cycles that got no PINGRESP.",
		}),
		Reconnects: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "reconnects_total", Help: "Accepted CONNACKs after the engine's first successful connect.",
		}),
		Connected: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "connected", Help: "1 if the client currently holds a CONNACK-accepted session, else 0.",
		}),
	}
}

// Register adds every instrument to reg. Use a dedicated
// prometheus.NewRegistry rather than the global DefaultRegisterer when
// more than one Client shares a process under the same namespace: a
// duplicate registration makes Register return an error.
func (s *Stats) Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		s.PacketsSent, s.PacketsReceived, s.BytesSent, s.BytesReceived,
		s.PingTimeouts, s.Reconnects, s.Connected,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

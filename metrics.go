package monknet

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// metrics holds the Prometheus collectors of one Session
type metrics struct {
	datagramsSent     *prometheus.CounterVec
	datagramsReceived *prometheus.CounterVec
	errors            *prometheus.CounterVec
	retransmits       prometheus.Counter
	deliveryFailures  prometheus.Counter
	peers             prometheus.Gauge
	unacked           prometheus.Gauge
	dispatchDuration  prometheus.Histogram
}

func newMetrics(reg prometheus.Registerer) *metrics {
	factory := promauto.With(reg)

	return &metrics{
		datagramsSent: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "monknet",
			Name:      "datagrams_sent_total",
			Help:      "Datagrams written, by message type",
		}, []string{"type"}),

		datagramsReceived: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "monknet",
			Name:      "datagrams_received_total",
			Help:      "Datagrams read, by message kind",
		}, []string{"kind"}),

		errors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "monknet",
			Name:      "errors_total",
			Help:      "Reported errors, by class",
		}, []string{"class"}),

		retransmits: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "monknet",
			Name:      "retransmits_total",
			Help:      "Tracked messages sent again",
		}),

		deliveryFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "monknet",
			Name:      "delivery_failures_total",
			Help:      "Tracked messages given up on",
		}),

		peers: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "monknet",
			Name:      "peers",
			Help:      "Known peer records",
		}),

		unacked: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "monknet",
			Name:      "unacked_messages",
			Help:      "Messages waiting for a received message",
		}),

		dispatchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "monknet",
			Name:      "dispatch_duration_seconds",
			Help:      "Time spent handling one inbound datagram",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 8),
		}),
	}
}

// errorClass names the error taxonomy bucket of err
func errorClass(err error) string {
	var (
		parseErr     *ParseError
		unknownErr   *UnknownTypeError
		deliveryErr  *DeliveryError
		transportErr *TransportError
		handshakeErr *HandshakeError
	)

	switch {
	case errors.As(err, &parseErr):
		return "parse"
	case errors.As(err, &unknownErr):
		return "protocol"
	case errors.Is(err, ErrNotConnected):
		return "connectivity"
	case errors.As(err, &deliveryErr):
		return "delivery"
	case errors.As(err, &transportErr):
		return "transport"
	case errors.As(err, &handshakeErr):
		return "handshake"
	}

	return "other"
}

// Command mqttcore-client is a small manual-test harness for the
// mqttcore engine: it dials a broker, connects, subscribes to a filter,
// publishes a timestamp on a ticker, and exposes the client's
// Prometheus stats on /metrics.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang-io/mqttcore"
	"github.com/golang-io/mqttcore/metrics"
	"github.com/golang-io/mqttcore/transport"
	"github.com/golang-io/requests"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	url := flag.String("url", "tcp://127.0.0.1:1883", "broker URL (tcp/tls/ws schemes)")
	clientID := flag.String("client-id", "", "MQTT client id (default: generated)")
	topic := flag.String("topic", "mqttcore/demo", "topic to subscribe and publish to")
	qos := flag.Int("qos", 1, "publish/subscribe QoS (0, 1 or 2)")
	keepAlive := flag.Int("keepalive", 30, "keep-alive interval in seconds")
	metricsAddr := flag.String("metrics-addr", ":2112", "address to serve /metrics on")
	flag.Parse()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	t, err := transport.Dial(ctx, *url)
	if err != nil {
		log.Fatalf("dial: %v", err)
	}

	stats := metrics.NewStats("mqttcore_client")
	if err := stats.Register(prometheus.DefaultRegisterer); err != nil {
		log.Fatalf("register metrics: %v", err)
	}

	c := mqttcore.NewClient(t, mqttcore.DefaultLimits(),
		mqttcore.WithMetrics(stats),
		mqttcore.WithLogger(log.Default()),
		mqttcore.WithConnectionLostHandler(func(err error) {
			log.Printf("connection lost: %v", err)
		}),
	)

	connOpts := []mqttcore.ConnectOption{mqttcore.WithKeepAlive(uint16(*keepAlive)), mqttcore.WithCleanSession(true)}
	if *clientID != "" {
		connOpts = append(connOpts, mqttcore.WithClientID(*clientID))
	}

	rc, err := c.Connect(connOpts...)
	if err != nil {
		log.Fatalf("connect: %v", err)
	}
	if rc != 0 {
		log.Fatalf("broker refused connection, return code %d", rc)
	}
	log.Printf("connected to %s", *url)

	if _, err := c.Subscribe(*topic, byte(*qos), func(topic string, payload []byte) {
		log.Printf("on %s: %s", topic, payload)
	}); err != nil {
		log.Fatalf("subscribe: %v", err)
	}

	go func() {
		mux := requests.NewServeMux(requests.URL(*metricsAddr))
		mux.Route("/metrics", promhttp.Handler())
		mux.Pprof()
		s := requests.NewServer(ctx, mux, requests.OnStart(func(s *http.Server) {
			log.Printf("metrics listening on %s", s.Addr)
		}))
		if err := s.ListenAndServe(); err != nil {
			log.Printf("metrics server: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)

	publishTick := time.NewTicker(5 * time.Second)
	defer publishTick.Stop()

	for {
		select {
		case <-publishTick.C:
			msg := &mqttcore.Message{
				Topic:   *topic,
				QoS:     byte(*qos),
				Payload: []byte(fmt.Sprintf("mqttcore-client %s", time.Now().Format(time.RFC3339))),
			}
			if err := c.Publish(msg); err != nil {
				log.Printf("publish: %v", err)
			}
		case <-sig:
			log.Printf("shutting down")
			_ = c.Disconnect()
			return
		default:
			if err := c.Yield(250); err != nil {
				log.Printf("yield: %v", err)
				return
			}
		}
	}
}

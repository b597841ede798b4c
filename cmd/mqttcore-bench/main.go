// Command mqttcore-bench drives maxConn concurrent publishers against a
// broker, with either mqttcore's blocking engine or paho.mqtt.golang's
// async client (chosen by -driver), so separate runs of the two can be
// compared under the same load shape.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	paho_mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/golang-io/mqttcore"
	"github.com/golang-io/mqttcore/transport"
	"github.com/golang-io/requests"
	"golang.org/x/sync/errgroup"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	server := flag.String("server", "tcp://127.0.0.1:1883", "broker address")
	maxConn := flag.Int("conns", 100, "number of concurrent publishing connections")
	duration := flag.Duration("duration", 30*time.Second, "how long to run")
	driver := flag.String("driver", "mqttcore", "which client to benchmark: mqttcore or paho")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *duration)
	defer cancel()

	group, ctx := errgroup.WithContext(ctx)
	for i := 0; i < *maxConn; i++ {
		i := i
		group.Go(func() error {
			switch *driver {
			case "paho":
				pahoStart(ctx, *server, i)
			default:
				mqttcoreStart(ctx, *server, i)
			}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		log.Fatal(err)
	}
}

func onMessageReceived(client paho_mqtt.Client, message paho_mqtt.Message) {
	log.Printf("paho on %s: %s", message.Topic(), message.Payload())
}

func pahoStart(ctx context.Context, server string, i int) {
	id := requests.GenId()
	connOpts := paho_mqtt.NewClientOptions().AddBroker(server).SetClientID(id).SetCleanSession(true)
	connOpts.SetAutoReconnect(false)

	client := paho_mqtt.NewClient(connOpts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		log.Printf("paho connect %d: %v", i, token.Error())
		return
	}
	defer client.Disconnect(250)

	topic := fmt.Sprintf("topic_%02d", i)
	if token := client.Subscribe("+", 0, onMessageReceived); token.Wait() && token.Error() != nil {
		log.Printf("paho subscribe %d: %v", i, token.Error())
		return
	}

	tick := time.NewTicker(time.Second)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-tick.C:
			if t := client.Publish(topic, 0, false, fmt.Sprintf("paho:test-%02d", i)); t.Wait() && t.Error() != nil {
				log.Printf("paho publish %d: %v", i, t.Error())
				return
			}
		}
	}
}

func mqttcoreStart(ctx context.Context, server string, i int) {
	t, err := transport.Dial(ctx, server)
	if err != nil {
		log.Printf("mqttcore dial %d: %v", i, err)
		return
	}
	defer t.Close()

	c := mqttcore.NewClient(t, mqttcore.DefaultLimits())
	topic := fmt.Sprintf("topic_%02d", i)

	id := requests.GenId()
	rc, err := c.Connect(mqttcore.WithClientID(id), mqttcore.WithCleanSession(true), mqttcore.WithKeepAlive(30))
	if err != nil || rc != 0 {
		log.Printf("mqttcore connect %d: rc=%d err=%v", i, rc, err)
		return
	}

	if _, err := c.Subscribe("+", 0, func(topic string, payload []byte) {
		log.Printf("mqttcore on %s: %s", topic, payload)
	}); err != nil {
		log.Printf("mqttcore subscribe %d: %v", i, err)
		return
	}

	deadline := time.Now().Add(1 * time.Second)
	for {
		select {
		case <-ctx.Done():
			_ = c.Disconnect()
			return
		default:
		}
		if time.Now().After(deadline) {
			msg := &mqttcore.Message{Topic: topic, Payload: []byte(fmt.Sprintf("mqttcore:test-%02d", i))}
			if err := c.Publish(msg); err != nil {
				log.Printf("mqttcore publish %d: %v", i, err)
				return
			}
			deadline = time.Now().Add(1 * time.Second)
		}
		if err := c.Yield(200); err != nil {
			log.Printf("mqttcore yield %d: %v", i, err)
			return
		}
	}
}

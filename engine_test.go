package mqttcore

import (
	"bytes"
	"testing"
	"time"

	"github.com/golang-io/mqttcore/metrics"
	"github.com/golang-io/mqttcore/timer"
	"github.com/golang-io/mqttcore/transport"
	dto "github.com/prometheus/client_model/go"
)

func newMonotonicTimer() timer.Timer { return timer.NewMonotonic() }

// broker is a minimal scripted peer sitting on the other end of a
// transport.Pipe, used to feed canned wire bytes to the engine under
// test and capture what it wrote back.
type broker struct {
	t    *testing.T
	conn transport.Transport
}

func newBroker(t *testing.T, conn transport.Transport) *broker {
	return &broker{t: t, conn: conn}
}

func (b *broker) send(data []byte) {
	if err := writeAllBroker(b.conn, data); err != nil {
		b.t.Fatalf("broker write: %v", err)
	}
}

func writeAllBroker(c transport.Transport, data []byte) error {
	written := 0
	for written < len(data) {
		n, err := c.Write(data[written:], time.Second)
		if err != nil {
			return err
		}
		written += n
	}
	return nil
}

// readExactly blocks (with a generous per-call timeout) until it has
// read exactly n bytes from the broker side, for asserting what the
// engine under test wrote.
func readExactly(t *testing.T, c transport.Transport, n int) []byte {
	t.Helper()
	buf := make([]byte, n)
	read := 0
	deadline := time.Now().Add(2 * time.Second)
	for read < n {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %d bytes, got %d", n, read)
		}
		k, err := c.Read(buf[read:], 200*time.Millisecond)
		if err != nil {
			continue
		}
		read += k
	}
	return buf
}

func TestMinimalConnect(t *testing.T) {
	client, server := transport.Pipe()
	defer client.Close()
	defer server.Close()

	limits := DefaultLimits()
	limits.CommandTimeoutMs = 2000
	e := NewEngine(client, newMonotonicTimer, limits)
	b := newBroker(t, server)

	done := make(chan byte, 1)
	go func() {
		rc, err := e.Connect(NewConnectOptions(WithKeepAlive(60), WithCleanSession(true)))
		if err != nil {
			t.Errorf("connect: %v", err)
		}
		done <- byte(rc)
	}()

	// Read the CONNECT bytes the engine wrote: fixed header (10 xx) plus
	// the full remaining length; ClientID length varies, so read the
	// header first to learn the body size.
	hdr := readExactly(t, server, 2)
	if hdr[0] != 0x10 {
		t.Fatalf("expected CONNECT type byte 0x10, got %#x", hdr[0])
	}
	remaining := int(hdr[1])
	body := readExactly(t, server, remaining)
	if !bytes.Equal(body[:6], []byte{0x00, 0x04, 'M', 'Q', 'T', 'T'}) {
		t.Fatalf("bad protocol name in CONNECT body: %v", body[:6])
	}
	if body[6] != 0x04 {
		t.Fatalf("expected protocol level 4, got %d", body[6])
	}
	if body[7] != 0x02 {
		t.Fatalf("expected clean-session flags 0x02, got %#x", body[7])
	}
	if body[8] != 0x00 || body[9] != 0x3C {
		t.Fatalf("expected keep-alive 60 (00 3C), got %02x %02x", body[8], body[9])
	}

	b.send([]byte{0x20, 0x02, 0x00, 0x00}) // CONNACK, accepted

	select {
	case rc := <-done:
		if rc != 0 {
			t.Fatalf("expected return code 0, got %d", rc)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("connect did not complete")
	}
}

func TestRefusedConnect(t *testing.T) {
	client, server := transport.Pipe()
	defer client.Close()
	defer server.Close()

	limits := DefaultLimits()
	limits.CommandTimeoutMs = 2000
	e := NewEngine(client, newMonotonicTimer, limits)
	b := newBroker(t, server)

	done := make(chan byte, 1)
	go func() {
		rc, err := e.Connect(NewConnectOptions())
		if err != nil {
			t.Errorf("connect: %v", err)
		}
		done <- byte(rc)
	}()

	hdr := readExactly(t, server, 2)
	_ = readExactly(t, server, int(hdr[1]))
	b.send([]byte{0x20, 0x02, 0x00, 0x05}) // CONNACK, refused: not authorized

	select {
	case rc := <-done:
		if rc != 5 {
			t.Fatalf("expected return code 5, got %d", rc)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("connect did not complete")
	}
}

// connectedEngine drives a full accepted CONNECT so later scenarios can
// start from a connected state, returning the engine and the broker's
// end of the pipe.
func connectedEngine(t *testing.T) (*Engine, *broker) {
	t.Helper()
	client, server := transport.Pipe()
	t.Cleanup(func() { client.Close(); server.Close() })

	limits := DefaultLimits()
	limits.CommandTimeoutMs = 2000
	e := NewEngine(client, newMonotonicTimer, limits)
	b := newBroker(t, server)

	done := make(chan error, 1)
	go func() {
		_, err := e.Connect(NewConnectOptions(WithKeepAlive(0)))
		done <- err
	}()
	hdr := readExactly(t, server, 2)
	_ = readExactly(t, server, int(hdr[1]))
	b.send([]byte{0x20, 0x02, 0x00, 0x00})
	if err := <-done; err != nil {
		t.Fatalf("connect: %v", err)
	}
	return e, b
}

func TestQoS1Publish(t *testing.T) {
	e, b := connectedEngine(t)

	done := make(chan error, 1)
	go func() {
		done <- e.Publish(&Message{Topic: "a/b", QoS: 1, Payload: []byte("hi")})
	}()

	hdr := readExactly(t, b.conn, 2)
	if hdr[0]>>4 != 0x3 {
		t.Fatalf("expected PUBLISH, got kind %#x", hdr[0]>>4)
	}
	body := readExactly(t, b.conn, int(hdr[1]))
	// 2-byte topic length + "a/b" + 2-byte packet id + payload
	if string(body[2:5]) != "a/b" {
		t.Fatalf("expected topic a/b, got %q", body[2:5])
	}
	id := uint16(body[5])<<8 | uint16(body[6])
	if id != 1 {
		t.Fatalf("expected packet id 1, got %d", id)
	}
	if string(body[7:]) != "hi" {
		t.Fatalf("expected payload hi, got %q", body[7:])
	}

	b.send([]byte{0x40, 0x02, 0x00, 0x01}) // PUBACK id=1

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("publish: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("publish did not complete")
	}
}

func TestQoS2Publish(t *testing.T) {
	e, b := connectedEngine(t)

	done := make(chan error, 1)
	go func() {
		done <- e.Publish(&Message{Topic: "x", QoS: 2, Payload: []byte("z")})
	}()

	hdr := readExactly(t, b.conn, 2)
	_ = readExactly(t, b.conn, int(hdr[1]))

	b.send([]byte{0x50, 0x02, 0x00, 0x01}) // PUBREC id=1

	pubrel := readExactly(t, b.conn, 4)
	if !bytes.Equal(pubrel, []byte{0x62, 0x02, 0x00, 0x01}) {
		t.Fatalf("expected PUBREL 62 02 00 01, got % x", pubrel)
	}

	b.send([]byte{0x70, 0x02, 0x00, 0x01}) // PUBCOMP id=1

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("publish: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("publish did not complete")
	}
}

func TestInboundPublishDispatch(t *testing.T) {
	e, b := connectedEngine(t)

	subDone := make(chan error, 1)
	var calls int
	var gotTopic, gotPayload string
	go func() {
		_, err := e.Subscribe("foo", 0, func(topic string, payload []byte) {
			calls++
			gotTopic = topic
			gotPayload = string(payload)
		})
		subDone <- err
	}()

	hdr := readExactly(t, b.conn, 2)
	_ = readExactly(t, b.conn, int(hdr[1]))
	b.send([]byte{0x90, 0x03, 0x00, 0x01, 0x00}) // SUBACK id=1, granted QoS0
	if err := <-subDone; err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	yieldDone := make(chan error, 1)
	go func() {
		yieldDone <- e.Yield(200 * time.Millisecond)
	}()

	b.send([]byte{0x30, 0x08, 0x00, 0x03, 'f', 'o', 'o', 'b', 'a', 'r'})

	if err := <-yieldDone; err != nil {
		t.Fatalf("yield: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected handler called exactly once, got %d", calls)
	}
	if gotTopic != "foo" || gotPayload != "bar" {
		t.Fatalf("got topic=%q payload=%q", gotTopic, gotPayload)
	}
}

func TestKeepAliveMiss(t *testing.T) {
	client, server := transport.Pipe()
	defer client.Close()
	defer server.Close()

	limits := DefaultLimits()
	limits.CommandTimeoutMs = 2000
	e := NewEngine(client, newMonotonicTimer, limits)
	b := newBroker(t, server)

	done := make(chan error, 1)
	go func() {
		_, err := e.Connect(NewConnectOptions(WithKeepAlive(1)))
		done <- err
	}()
	hdr := readExactly(t, server, 2)
	_ = readExactly(t, server, int(hdr[1]))
	b.send([]byte{0x20, 0x02, 0x00, 0x00})
	if err := <-done; err != nil {
		t.Fatalf("connect: %v", err)
	}

	var lost error
	e.SetConnectionLostHandler(func(err error) { lost = err })

	// The first Yield spans the 1s keep-alive interval with no inbound
	// traffic: its single timer-bounded read blocks for the whole window,
	// then keepalive() finds the ping timer expired and sends exactly one
	// PINGREQ. The pipe is synchronous, so the broker side reads it
	// concurrently or the PINGREQ write could not complete.
	pingCh := make(chan []byte, 1)
	go func() {
		buf := make([]byte, 2)
		read := 0
		for read < len(buf) {
			n, err := server.Read(buf[read:], 3*time.Second)
			if err != nil {
				break
			}
			read += n
		}
		pingCh <- buf[:read]
	}()
	if err := e.Yield(1200 * time.Millisecond); err != nil {
		t.Fatalf("first yield (expected to only send a PINGREQ): %v", err)
	}
	pingreq := <-pingCh
	if !bytes.Equal(pingreq, []byte{0xC0, 0x00}) {
		t.Fatalf("expected PINGREQ c0 00, got % x", pingreq)
	}
	if lost != nil {
		t.Fatalf("connection should not be lost after only one missed PINGRESP, got %v", lost)
	}

	// The second Yield spans another full interval with the first PINGREQ
	// still unanswered: the broker has missed its keep-alive.
	yieldErr := e.Yield(1500 * time.Millisecond)
	if yieldErr == nil || lost == nil {
		t.Fatal("expected yield to report connection-lost after a missed keep-alive ping")
	}
}

// TestReconnectIncrementsStat checks that a second successful CONNACK on
// an engine that was connected before bumps the Reconnects counter, while
// the very first CONNACK of its lifetime does not.
func TestReconnectIncrementsStat(t *testing.T) {
	client, server := transport.Pipe()
	defer client.Close()
	defer server.Close()

	limits := DefaultLimits()
	limits.CommandTimeoutMs = 2000
	e := NewEngine(client, newMonotonicTimer, limits)
	b := newBroker(t, server)
	stats := metrics.NewStats("mqttcore_engine_test")
	e.SetStats(stats)

	connectOnce := func() {
		done := make(chan error, 1)
		go func() {
			_, err := e.Connect(NewConnectOptions(WithKeepAlive(0)))
			done <- err
		}()
		hdr := readExactly(t, server, 2)
		_ = readExactly(t, server, int(hdr[1]))
		b.send([]byte{0x20, 0x02, 0x00, 0x00})
		if err := <-done; err != nil {
			t.Fatalf("connect: %v", err)
		}
	}

	connectOnce()
	m := &dto.Metric{}
	if err := stats.Reconnects.Write(m); err != nil {
		t.Fatalf("write: %v", err)
	}
	if got := m.GetCounter().GetValue(); got != 0 {
		t.Fatalf("expected 0 reconnects after the first connect, got %v", got)
	}

	connectOnce()
	m = &dto.Metric{}
	if err := stats.Reconnects.Write(m); err != nil {
		t.Fatalf("write: %v", err)
	}
	if got := m.GetCounter().GetValue(); got != 1 {
		t.Fatalf("expected 1 reconnect after the second connect, got %v", got)
	}
}

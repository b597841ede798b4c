package mqttcore

import (
	"time"

	"github.com/golang-io/mqttcore/handler"
	"github.com/golang-io/mqttcore/metrics"
	"github.com/golang-io/mqttcore/packet"
	"github.com/golang-io/mqttcore/timer"
	"github.com/golang-io/mqttcore/transport"
)

// Client is the thin, blocking public facade over an Engine: it fixes
// the transport and timer types the caller constructed it with, and
// exposes the same five commands plus Yield as simple method calls.
// A Client's methods are not safe for concurrent use — see the
// single-threaded, cooperative contract of the Engine it wraps.
type Client struct {
	engine *Engine
}

// ClientOption configures a Client at construction.
type ClientOption func(*Client)

// WithLogger installs a diagnostic sink.
func WithLogger(l Logger) ClientOption {
	return func(c *Client) { c.engine.SetLogger(l) }
}

// WithMetrics wires a metrics.Stats instance into the client's engine.
func WithMetrics(s *metrics.Stats) ClientOption {
	return func(c *Client) { c.engine.SetStats(s) }
}

// WithDefaultHandler registers the fallback handler for inbound
// PUBLISHes matching no installed subscription.
func WithDefaultHandler(fn handler.MessageHandler) ClientOption {
	return func(c *Client) { c.engine.SetDefaultHandler(fn) }
}

// WithConnectionLostHandler registers the callback invoked when the
// engine detects a missed keep-alive ping.
func WithConnectionLostHandler(fn func(error)) ClientOption {
	return func(c *Client) { c.engine.SetConnectionLostHandler(fn) }
}

// NewClient builds a Client bound to t, with limits defaulting via
// DefaultLimits() when a zero Limits is passed.
func NewClient(t transport.Transport, limits Limits, opts ...ClientOption) *Client {
	if limits.MaxPacketSize == 0 && limits.MaxMessageHandlers == 0 && limits.CommandTimeoutMs == 0 {
		limits = DefaultLimits()
	}
	c := &Client{engine: NewEngine(t, func() timer.Timer { return timer.NewMonotonic() }, limits)}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Connect opens a session over the Client's transport.
func (c *Client) Connect(opts ...ConnectOption) (packet.ConnectReturnCode, error) {
	return c.engine.Connect(NewConnectOptions(opts...))
}

// Subscribe requests one subscription and binds fn to deliver its
// inbound messages.
func (c *Client) Subscribe(filter string, qos byte, fn handler.MessageHandler) (byte, error) {
	return c.engine.Subscribe(filter, qos, fn)
}

// Unsubscribe cancels a subscription installed via Subscribe.
func (c *Client) Unsubscribe(filter string) error {
	return c.engine.Unsubscribe(filter)
}

// Publish sends one application message.
func (c *Client) Publish(msg *Message) error {
	return c.engine.Publish(msg)
}

// Disconnect sends DISCONNECT and closes out the session state.
func (c *Client) Disconnect() error {
	return c.engine.Disconnect()
}

// Yield drains inbound traffic for up to the given command timeout
// window, dispatching PUBLISHes and servicing keep-alive.
func (c *Client) Yield(timeoutMs int) error {
	return c.engine.Yield(msToDuration(timeoutMs))
}

// Connected reports whether the Client currently holds an accepted
// session.
func (c *Client) Connected() bool {
	return c.engine.Connected()
}

func msToDuration(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}

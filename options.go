package mqttcore

import (
	"github.com/golang-io/requests"
)

// Limits bounds the fixed-size resources a Client allocates at
// construction, so an embedded deployment knows its worst-case memory
// footprint up front.
type Limits struct {
	// MAX_MQTT_PACKET_SIZE is the byte capacity of each of the send and
	// receive buffers. An outbound packet whose encoding exceeds it is
	// rejected before it is written; an inbound packet whose Remaining
	// Length exceeds it is rejected before its body is read. Both fail
	// with CapacityExceeded.
	MaxPacketSize int

	// MAX_MESSAGE_HANDLERS bounds the number of distinct active
	// subscriptions whose callbacks the client dispatches directly.
	MaxMessageHandlers int

	// CommandTimeoutMs upper-bounds every blocking command's total wait.
	CommandTimeoutMs int
}

// DefaultLimits mirrors the reference embedded client's defaults.
func DefaultLimits() Limits {
	return Limits{
		MaxPacketSize:      100,
		MaxMessageHandlers: 5,
		CommandTimeoutMs:   30000,
	}
}

// Will describes the Last Will and Testament message a broker publishes
// on this client's behalf if the connection drops uncleanly.
type Will struct {
	Topic   string
	Payload []byte
	QoS     byte
	Retain  bool
}

// ConnectOptions parameterises Engine.Connect / Client.Connect.
type ConnectOptions struct {
	ClientID     string
	KeepAlive    uint16 // seconds; 0 disables keep-alive
	CleanSession bool
	Username     string
	Password     string
	Will         *Will
	Version      byte
}

// ConnectOption mutates ConnectOptions, following the functional-options
// convention used throughout this codebase's client constructors.
type ConnectOption func(*ConnectOptions)

// NewConnectOptions returns ConnectOptions with a generated, non-empty
// client id, a 60-second keep-alive, and MQTT 3.1.1 selected, then
// applies opts.
func NewConnectOptions(opts ...ConnectOption) ConnectOptions {
	o := ConnectOptions{
		ClientID:  "mqttcore-" + requests.GenId(),
		KeepAlive: 60,
		Version:   0x04,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithClientID overrides the generated client identifier.
func WithClientID(id string) ConnectOption {
	return func(o *ConnectOptions) { o.ClientID = id }
}

// WithKeepAlive sets the keep-alive interval in seconds; 0 disables it.
func WithKeepAlive(seconds uint16) ConnectOption {
	return func(o *ConnectOptions) { o.KeepAlive = seconds }
}

// WithCleanSession sets the clean-session flag.
func WithCleanSession(clean bool) ConnectOption {
	return func(o *ConnectOptions) { o.CleanSession = clean }
}

// WithCredentials sets the username/password fields carried in CONNECT.
func WithCredentials(username, password string) ConnectOption {
	return func(o *ConnectOptions) {
		o.Username = username
		o.Password = password
	}
}

// WithWill attaches a Last Will and Testament.
func WithWill(w Will) ConnectOption {
	return func(o *ConnectOptions) { o.Will = &w }
}

package mqttcore

// Message is an MQTT application message the caller builds for Publish.
// Inbound messages are delivered separately, as plain (topic, payload)
// arguments to a handler.MessageHandler — see handler.Table.Dispatch.
type Message struct {
	Topic   string
	Payload []byte
	QoS     byte
	Retain  bool
	Dup     bool

	// ID is meaningful only when QoS > 0. Publish allocates one
	// automatically when QoS > 0 and ID == 0.
	ID uint16
}

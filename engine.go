package mqttcore

import (
	"bytes"
	"errors"
	"time"

	"github.com/golang-io/mqttcore/handler"
	"github.com/golang-io/mqttcore/metrics"
	"github.com/golang-io/mqttcore/packet"
	"github.com/golang-io/mqttcore/timer"
	"github.com/golang-io/mqttcore/transport"
)

// errPingMissed marks a keep-alive failure: the broker did not answer a
// previous PINGREQ before the next keep-alive interval elapsed.
var errPingMissed = errors.New("mqttcore: broker missed keep-alive ping")

// errCapacityExceeded marks an inbound packet whose Remaining Length
// exceeds the configured receive-buffer capacity.
var errCapacityExceeded = errors.New("mqttcore: packet exceeds configured capacity")

// Engine is the single-threaded, cooperative MQTT 3.1.1 protocol engine:
// it owns the connect/subscribe/unsubscribe/publish/disconnect state
// machines, the inbound packet dispatcher, and the keep-alive driver. All
// methods run on the calling goroutine; there is no internal event loop.
// Inbound traffic is only read when a command is awaiting its ack, or
// when the caller explicitly calls Yield.
type Engine struct {
	transport transport.Transport
	newTimer  func() timer.Timer
	limits    Limits
	ids       idAllocator
	handlers  *handler.Table
	stats     *metrics.Stats
	logger    Logger

	pingTimer        timer.Timer
	keepAliveSeconds uint16
	pingOutstanding  bool
	connected        bool
	everConnected    bool
	onConnectionLost func(error)
}

// NewEngine constructs an Engine bound to t. newTimer produces the Timer
// instances armed for each command and for keep-alive bookkeeping;
// NewClient passes a factory that returns timer.NewMonotonic().
func NewEngine(t transport.Transport, newTimer func() timer.Timer, limits Limits) *Engine {
	return &Engine{
		transport: t,
		newTimer:  newTimer,
		limits:    limits,
		handlers:  handler.New(limits.MaxMessageHandlers),
		pingTimer: newTimer(),
		logger:    discardLogger{},
	}
}

// SetLogger installs l as the Engine's diagnostic sink. A nil l is a
// no-op; the Engine always has a usable logger.
func (e *Engine) SetLogger(l Logger) {
	if l != nil {
		e.logger = l
	}
}

// SetStats wires a metrics.Stats instance so send/receive activity,
// ping timeouts, and connection state update its Prometheus instruments.
func (e *Engine) SetStats(s *metrics.Stats) { e.stats = s }

// SetDefaultHandler registers the callback invoked for an inbound
// PUBLISH whose topic matches no installed subscription.
func (e *Engine) SetDefaultHandler(fn handler.MessageHandler) { e.handlers.SetDefault(fn) }

// SetConnectionLostHandler registers the callback invoked when the
// engine detects a missed keep-alive ping. A transport fault is returned
// to the caller of the failing operation and does not invoke it.
func (e *Engine) SetConnectionLostHandler(fn func(error)) { e.onConnectionLost = fn }

// Connected reports whether the last Connect call was accepted and
// neither Disconnect nor a missed keep-alive ping has been observed
// since. A transport fault returned by another operation does not clear
// it.
func (e *Engine) Connected() bool { return e.connected }

func (e *Engine) commandTimeout() time.Duration {
	return time.Duration(e.limits.CommandTimeoutMs) * time.Millisecond
}

// Connect sends CONNECT and blocks until CONNACK arrives or the command
// timer expires. It returns the broker's return code (0 = accepted) on
// any successful round trip, even a refusal.
func (e *Engine) Connect(opts ConnectOptions) (packet.ConnectReturnCode, error) {
	budget := e.newTimer()
	budget.Arm(e.commandTimeout())

	cp := &packet.CONNECT{
		FixedHeader: &packet.FixedHeader{},
		Flags:       packet.ConnectFlags{CleanSession: opts.CleanSession},
		KeepAlive:   opts.KeepAlive,
		ClientID:    opts.ClientID,
		Username:    opts.Username,
		Password:    opts.Password,
	}
	if opts.Will != nil {
		cp.WillTopic = opts.Will.Topic
		cp.WillPayload = opts.Will.Payload
		cp.Flags.WillRetain = opts.Will.Retain
		cp.Flags.WillQoS = opts.Will.QoS
	}
	if err := e.send(cp, budget); err != nil {
		return 0, err
	}

	e.keepAliveSeconds = opts.KeepAlive
	if e.keepAliveSeconds > 0 {
		e.pingTimer.ArmSeconds(e.keepAliveSeconds)
	}

	for !budget.Expired() {
		pkt, err := e.cycle(budget)
		if err != nil {
			return 0, classify("connect", err)
		}
		if ack, ok := pkt.(*packet.CONNACK); ok {
			if ack.ReturnCode == packet.ConnAccepted {
				e.connected = true
				if e.stats != nil {
					e.stats.Connected.Set(1)
					if e.everConnected {
						e.stats.Reconnects.Inc()
					}
				}
				e.everConnected = true
			}
			e.logger.Printf("[CONNACK] return_code=%d session_present=%v", ack.ReturnCode, ack.SessionPresent)
			return ack.ReturnCode, nil
		}
	}
	return 0, newError("connect", Timeout, nil)
}

// Subscribe requests a single (filter, qos) subscription and installs h
// for it once granted. A 0x80 SUBACK refusal returns that code and
// Refused without installing h.
func (e *Engine) Subscribe(filter string, qos byte, h handler.MessageHandler) (byte, error) {
	budget := e.newTimer()
	budget.Arm(e.commandTimeout())

	id := e.ids.next()
	sp := &packet.SUBSCRIBE{
		FixedHeader:   &packet.FixedHeader{},
		PacketID:      id,
		Subscriptions: []packet.Subscription{{TopicFilter: filter, QoS: qos}},
	}
	if err := e.send(sp, budget); err != nil {
		return 0, err
	}

	for !budget.Expired() {
		pkt, err := e.cycle(budget)
		if err != nil {
			return 0, classify("subscribe", err)
		}
		ack, ok := pkt.(*packet.SUBACK)
		if !ok {
			continue
		}
		if ack.PacketID != id {
			e.logger.Printf("[SUBACK_ID_MISMATCH] got=%d want=%d", ack.PacketID, id)
			continue
		}
		if len(ack.ReturnCodes) == 0 {
			return 0, newError("subscribe", ProtocolFault, nil)
		}
		code := ack.ReturnCodes[0]
		if code == byte(packet.SubscribeFailure) {
			return code, newError("subscribe", Refused, nil)
		}
		if err := e.handlers.Install(filter, h); err != nil {
			return code, newError("subscribe", CapacityExceeded, err)
		}
		return code, nil
	}
	return 0, newError("subscribe", Timeout, nil)
}

// Unsubscribe cancels a single filter and removes its installed handler
// once UNSUBACK confirms it.
func (e *Engine) Unsubscribe(filter string) error {
	budget := e.newTimer()
	budget.Arm(e.commandTimeout())

	id := e.ids.next()
	up := &packet.UNSUBSCRIBE{
		FixedHeader:  &packet.FixedHeader{},
		PacketID:     id,
		TopicFilters: []string{filter},
	}
	if err := e.send(up, budget); err != nil {
		return err
	}

	for !budget.Expired() {
		pkt, err := e.cycle(budget)
		if err != nil {
			return classify("unsubscribe", err)
		}
		if ack, ok := pkt.(*packet.UNSUBACK); ok && ack.PacketID == id {
			e.handlers.Remove(filter)
			return nil
		}
	}
	return newError("unsubscribe", Timeout, nil)
}

// Publish sends msg. QoS 0 returns as soon as the write completes. QoS 1
// waits for PUBACK; QoS 2 waits for the full PUBREC/PUBREL/PUBCOMP
// handshake (the PUBREC-triggered PUBREL is sent automatically by the
// cycle routine). Inbound PUBLISHes that arrive while waiting are
// dispatched normally rather than blocking the wait.
func (e *Engine) Publish(msg *Message) error {
	if msg.QoS > 0 && msg.ID == 0 {
		msg.ID = e.ids.next()
	}
	budget := e.newTimer()
	budget.Arm(e.commandTimeout())

	pp := &packet.PUBLISH{
		FixedHeader: &packet.FixedHeader{QoS: msg.QoS, Retain: boolToBit(msg.Retain), Dup: boolToBit(msg.Dup)},
		TopicName:   []byte(msg.Topic),
		PacketID:    msg.ID,
		Payload:     msg.Payload,
	}
	if err := e.send(pp, budget); err != nil {
		return err
	}
	if msg.QoS == 0 {
		return nil
	}

	for !budget.Expired() {
		pkt, err := e.cycle(budget)
		if err != nil {
			return classify("publish", err)
		}
		switch msg.QoS {
		case 1:
			if ack, ok := pkt.(*packet.PUBACK); ok && ack.PacketID == msg.ID {
				return nil
			}
		case 2:
			if ack, ok := pkt.(*packet.PUBCOMP); ok && ack.PacketID == msg.ID {
				return nil
			}
			// a *packet.PUBREC here has already had its PUBREL reply sent
			// by cycle; we simply keep waiting for PUBCOMP.
		}
	}
	return newError("publish", Timeout, nil)
}

// Disconnect sends DISCONNECT and marks the connection closed. No
// response is expected.
func (e *Engine) Disconnect() error {
	budget := e.newTimer()
	budget.Arm(e.commandTimeout())
	err := e.send(&packet.DISCONNECT{FixedHeader: &packet.FixedHeader{}}, budget)
	e.connected = false
	if e.stats != nil {
		e.stats.Connected.Set(0)
	}
	if err != nil {
		return classify("disconnect", err)
	}
	return nil
}

// Yield drains inbound traffic for up to d, dispatching PUBLISHes and
// driving keep-alive, then returns. It never blocks longer than d.
func (e *Engine) Yield(d time.Duration) error {
	budget := e.newTimer()
	budget.Arm(d)
	for !budget.Expired() {
		if _, err := e.cycle(budget); err != nil {
			return classify("yield", err)
		}
	}
	return nil
}

// cycle processes at most one inbound packet, bounded by budget's
// remaining time, then drives the keep-alive check. It returns the
// decoded packet, or nil when none arrived within budget, so the
// blocking callers above can pick out the ack they are waiting for.
// PUBLISH delivery and its PUBACK/PUBREC reply, the PUBREL reply to a
// PUBREC, the PUBCOMP reply to a PUBREL, and PINGRESP bookkeeping are
// all done here before it returns.
func (e *Engine) cycle(budget timer.Timer) (packet.Packet, error) {
	pkt, err := e.readPacket(budget)
	if err != nil {
		if errors.Is(err, errNoData) {
			if kerr := e.keepalive(); kerr != nil {
				return nil, kerr
			}
			return nil, nil
		}
		return nil, err
	}

	switch p := pkt.(type) {
	case *packet.PUBLISH:
		if err := e.deliverPublish(p, budget); err != nil {
			return nil, err
		}
	case *packet.PUBREC:
		if err := e.send(&packet.PUBREL{FixedHeader: &packet.FixedHeader{}, PacketID: p.PacketID}, budget); err != nil {
			return nil, err
		}
	case *packet.PUBREL:
		if err := e.send(&packet.PUBCOMP{FixedHeader: &packet.FixedHeader{}, PacketID: p.PacketID}, budget); err != nil {
			return nil, err
		}
	case *packet.PINGRESP:
		e.pingOutstanding = false
	}

	if err := e.keepalive(); err != nil {
		return nil, err
	}
	return pkt, nil
}

func (e *Engine) deliverPublish(p *packet.PUBLISH, budget timer.Timer) error {
	topic := string(p.TopicName)
	e.handlers.Dispatch(topic, p.Payload)
	switch p.QoS {
	case 1:
		return e.send(&packet.PUBACK{FixedHeader: &packet.FixedHeader{}, PacketID: p.PacketID}, budget)
	case 2:
		return e.send(&packet.PUBREC{FixedHeader: &packet.FixedHeader{}, PacketID: p.PacketID}, budget)
	}
	return nil
}

// keepalive implements the keep-alive driver: if the ping timer has
// expired and a previous PINGREQ is still outstanding, the broker missed
// it and the connection is declared lost. Otherwise a fresh PINGREQ is
// sent under its own short sub-budget.
func (e *Engine) keepalive() error {
	if e.keepAliveSeconds == 0 || !e.pingTimer.Expired() {
		return nil
	}
	if e.pingOutstanding {
		e.connected = false
		if e.stats != nil {
			e.stats.PingTimeouts.Inc()
			e.stats.Connected.Set(0)
		}
		err := newError("keepalive", Timeout, errPingMissed)
		if e.onConnectionLost != nil {
			e.onConnectionLost(err)
		}
		return err
	}

	sub := e.newTimer()
	sub.Arm(time.Second)
	if err := e.send(&packet.PINGREQ{FixedHeader: &packet.FixedHeader{}}, sub); err != nil {
		return err
	}
	e.pingOutstanding = true
	return nil
}

// send serialises pkt bounded by the engine's packet-size limit, writes
// it fully under budget, and — on success — resets the ping timer, since
// any successfully transmitted packet postpones the next keep-alive
// check.
func (e *Engine) send(pkt packet.Packet, budget timer.Timer) error {
	buf, err := packet.Encode(pkt, e.limits.MaxPacketSize)
	if err != nil {
		return classify("send", err)
	}
	if err := writeFull(e.transport, buf, budget); err != nil {
		return classify("send", err)
	}
	if e.keepAliveSeconds > 0 {
		e.pingTimer.ArmSeconds(e.keepAliveSeconds)
	}
	if e.stats != nil {
		e.stats.PacketsSent.Inc()
		e.stats.BytesSent.Add(float64(len(buf)))
	}
	e.logger.Printf("[SEND] kind=%s len=%d", packet.Kind[pkt.Kind()], len(buf))
	return nil
}

// readPacket performs the cycle routine's manual, timer-bounded read:
// one header byte (which may legitimately never arrive within budget),
// the Remaining Length field, and exactly that many more body bytes.
func (e *Engine) readPacket(budget timer.Timer) (packet.Packet, error) {
	var hdr [1]byte
	if err := readFull(e.transport, hdr[:], budget); err != nil {
		return nil, err
	}
	kind := hdr[0] >> 4
	dup := (hdr[0] >> 3) & 0x1
	qos := (hdr[0] >> 1) & 0x3
	retain := hdr[0] & 0x1
	if err := packet.ValidateReservedFlags(kind, dup, qos, retain); err != nil {
		return nil, err
	}

	br := &budgetReader{t: e.transport, budget: budget}
	rl, err := packet.DecodeRemainingLength(br)
	if err != nil {
		return nil, err
	}
	if int(rl) > e.limits.MaxPacketSize {
		return nil, errCapacityExceeded
	}

	body := make([]byte, rl)
	if err := readFull(e.transport, body, budget); err != nil {
		// The header is already consumed, so a missing body is not "no data".
		if errors.Is(err, errNoData) {
			return nil, errBudgetExpired
		}
		return nil, err
	}

	fh := &packet.FixedHeader{Kind: kind, Dup: dup, QoS: qos, Retain: retain, RemainingLength: rl}
	pkt, err := newInboundPacket(fh)
	if err != nil {
		return nil, err
	}
	if err := pkt.Unpack(bytes.NewBuffer(body)); err != nil {
		return nil, err
	}

	if e.stats != nil {
		e.stats.PacketsReceived.Inc()
		size := 1 + len(body)
		for v := rl; ; v >>= 7 {
			size++ // one Remaining Length byte per 7 value bits
			if v < 0x80 {
				break
			}
		}
		e.stats.BytesReceived.Add(float64(size))
	}
	return pkt, nil
}

// newInboundPacket constructs the Packet value for a type this client
// may legitimately receive from a broker. CONNECT, SUBSCRIBE,
// UNSUBSCRIBE, PINGREQ, and DISCONNECT are client-to-broker only and are
// rejected as malformed if seen here.
func newInboundPacket(fh *packet.FixedHeader) (packet.Packet, error) {
	switch fh.Kind {
	case 0x2:
		return &packet.CONNACK{FixedHeader: fh}, nil
	case 0x3:
		return &packet.PUBLISH{FixedHeader: fh}, nil
	case 0x4:
		return &packet.PUBACK{FixedHeader: fh}, nil
	case 0x5:
		return &packet.PUBREC{FixedHeader: fh}, nil
	case 0x6:
		return &packet.PUBREL{FixedHeader: fh}, nil
	case 0x7:
		return &packet.PUBCOMP{FixedHeader: fh}, nil
	case 0x9:
		return &packet.SUBACK{FixedHeader: fh}, nil
	case 0xB:
		return &packet.UNSUBACK{FixedHeader: fh}, nil
	case 0xD:
		return &packet.PINGRESP{FixedHeader: fh}, nil
	default:
		return nil, packet.ErrMalformedPacket
	}
}

// classify maps a low-level error into the Error Kind callers are meant
// to branch on.
func classify(op string, err error) *Error {
	var perr *Error
	if errors.As(err, &perr) {
		return perr
	}
	switch {
	case errors.Is(err, errCapacityExceeded), errors.Is(err, packet.ErrShortBuffer), errors.Is(err, packet.ErrPacketTooLarge):
		return newError(op, CapacityExceeded, err)
	case errors.Is(err, errBudgetExpired):
		return newError(op, Timeout, err)
	case errors.Is(err, transport.ErrFault):
		return newError(op, TransportFault, err)
	case errors.As(err, new(packet.CodecError)):
		return newError(op, ProtocolFault, err)
	default:
		return newError(op, TransportFault, err)
	}
}

func boolToBit(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}

package packet

import (
	"bytes"
	"testing"
)

func TestConnectRoundTrip(t *testing.T) {
	in := &CONNECT{
		FixedHeader: &FixedHeader{},
		KeepAlive:   60,
		ClientID:    "mqttcore-test",
		Username:    "alice",
		Password:    "s3cret",
		Flags:       ConnectFlags{CleanSession: true},
	}
	var buf bytes.Buffer
	if err := in.Pack(&buf); err != nil {
		t.Fatalf("Pack: %v", err)
	}

	got, err := Decode(&buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	out, ok := got.(*CONNECT)
	if !ok {
		t.Fatalf("got %T, want *CONNECT", got)
	}
	if out.ClientID != in.ClientID || out.Username != in.Username || out.Password != in.Password {
		t.Fatalf("round trip mismatch: %+v", out)
	}
	if out.KeepAlive != in.KeepAlive {
		t.Fatalf("keepalive mismatch: got %d want %d", out.KeepAlive, in.KeepAlive)
	}
	if !out.Flags.CleanSession {
		t.Fatalf("clean session flag lost in round trip")
	}
}

func TestConnectWithWillRoundTrip(t *testing.T) {
	in := &CONNECT{
		FixedHeader: &FixedHeader{},
		ClientID:    "c1",
		WillTopic:   "last/will",
		WillPayload: []byte("bye"),
		Flags:       ConnectFlags{WillQoS: 1, WillRetain: true},
	}
	var buf bytes.Buffer
	if err := in.Pack(&buf); err != nil {
		t.Fatalf("Pack: %v", err)
	}
	got, err := Decode(&buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	out := got.(*CONNECT)
	if out.WillTopic != "last/will" || string(out.WillPayload) != "bye" {
		t.Fatalf("will round trip mismatch: %+v", out)
	}
	if !out.Flags.WillFlag {
		t.Fatalf("will flag not set on decode")
	}
}

func TestPublishRoundTripQoS0(t *testing.T) {
	in := &PUBLISH{
		FixedHeader: &FixedHeader{QoS: 0},
		TopicName:   []byte("a/b"),
		Payload:     []byte("hi"),
	}
	var buf bytes.Buffer
	if err := in.Pack(&buf); err != nil {
		t.Fatalf("Pack: %v", err)
	}
	got, err := Decode(&buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	out := got.(*PUBLISH)
	if string(out.TopicName) != "a/b" || string(out.Payload) != "hi" {
		t.Fatalf("round trip mismatch: %+v", out)
	}
}

func TestPublishRoundTripQoS1HasPacketID(t *testing.T) {
	in := &PUBLISH{
		FixedHeader: &FixedHeader{QoS: 1},
		TopicName:   []byte("x"),
		PacketID:    42,
		Payload:     []byte("z"),
	}
	var buf bytes.Buffer
	if err := in.Pack(&buf); err != nil {
		t.Fatalf("Pack: %v", err)
	}
	got, err := Decode(&buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	out := got.(*PUBLISH)
	if out.PacketID != 42 {
		t.Fatalf("packet id lost: got %d", out.PacketID)
	}
}

func TestSubscribeRoundTrip(t *testing.T) {
	in := &SUBSCRIBE{
		FixedHeader:   &FixedHeader{},
		PacketID:      7,
		Subscriptions: []Subscription{{TopicFilter: "foo", QoS: 1}},
	}
	var buf bytes.Buffer
	if err := in.Pack(&buf); err != nil {
		t.Fatalf("Pack: %v", err)
	}
	got, err := Decode(&buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	out := got.(*SUBSCRIBE)
	if out.PacketID != 7 || len(out.Subscriptions) != 1 || out.Subscriptions[0].TopicFilter != "foo" || out.Subscriptions[0].QoS != 1 {
		t.Fatalf("round trip mismatch: %+v", out)
	}
}

func TestRemainingLengthRoundTrip(t *testing.T) {
	cases := []uint32{0, 1, 127, 128, 16383, 16384, 2097151, 2097152, 268435455}
	for _, v := range cases {
		enc, err := encodeLength(v)
		if err != nil {
			t.Fatalf("encodeLength(%d): %v", v, err)
		}
		got, err := decodeLength(bytes.NewReader(enc))
		if err != nil {
			t.Fatalf("decodeLength(%d): %v", v, err)
		}
		if got != v {
			t.Fatalf("round trip mismatch: encoded %d, decoded %d", v, got)
		}
	}
}

func TestRemainingLengthRejectsOversize(t *testing.T) {
	if _, err := encodeLength(268435456); err != ErrPacketTooLarge {
		t.Fatalf("expected ErrPacketTooLarge, got %v", err)
	}
}

func TestRemainingLengthDecodeAbortsOnFifthByte(t *testing.T) {
	// Four continuation bytes then a fifth: must abort, never read a fifth.
	malformed := []byte{0xFF, 0xFF, 0xFF, 0xFF, 0x01}
	if _, err := decodeLength(bytes.NewReader(malformed)); err != ErrMalformedVariableByteInteger {
		t.Fatalf("expected ErrMalformedVariableByteInteger, got %v", err)
	}
}

func TestFixedHeaderRejectsBadPublishQoS(t *testing.T) {
	// QoS bits set to 3 (both bits 1) is invalid for PUBLISH.
	var buf bytes.Buffer
	buf.WriteByte(0x3<<4 | 0x3<<1)
	buf.WriteByte(0x00)
	h := &FixedHeader{}
	if err := h.Unpack(&buf); err != ErrQosOutOfRange {
		t.Fatalf("expected ErrQosOutOfRange, got %v", err)
	}
}

func TestEqualFilterNul(t *testing.T) {
	if !equalFilterNul([]byte("foo"), "foo\x00") {
		t.Fatalf("expected match against NUL-terminated filter")
	}
	if equalFilterNul([]byte("foobar"), "foo\x00") {
		t.Fatalf("expected mismatch: wire string longer than filter")
	}
	if !equalFilterNul([]byte("foo"), "foo") {
		t.Fatalf("expected match with no NUL terminator present")
	}
}

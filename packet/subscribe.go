package packet

import (
	"bytes"
	"io"
)

// Subscription is one (TopicFilter, MaximumQoS) pair of a SUBSCRIBE
// payload (section 3.8.3). The wire format supports a list of these per
// packet even though the Engine (package mqttcore) only ever constructs
// one-filter SUBSCRIBE packets, so this codec can still parse traffic
// produced by other implementations.
type Subscription struct {
	TopicFilter string
	QoS         uint8
}

// SUBSCRIBE requests one or more subscriptions (section 3.8). Fixed-header
// flags are fixed at DUP=0, QoS=1, RETAIN=0.
type SUBSCRIBE struct {
	*FixedHeader
	PacketID      uint16
	Subscriptions []Subscription
}

func (pkt *SUBSCRIBE) Kind() byte { return 0x8 }

func (pkt *SUBSCRIBE) Pack(w io.Writer) error {
	body := GetBuffer()
	defer PutBuffer(body)

	body.Write(putU16(pkt.PacketID))
	for _, s := range pkt.Subscriptions {
		body.Write(encodeUTF8(s.TopicFilter))
		body.WriteByte(s.QoS & 0x3)
	}

	pkt.FixedHeader.Kind = pkt.Kind()
	pkt.FixedHeader.QoS = 1
	pkt.FixedHeader.RemainingLength = uint32(body.Len())
	if err := pkt.FixedHeader.Pack(w); err != nil {
		return err
	}
	_, err := body.WriteTo(w)
	return err
}

func (pkt *SUBSCRIBE) Unpack(buf *bytes.Buffer) error {
	if buf.Len() < 2 {
		return ErrMalformedPacket
	}
	pkt.PacketID = u16(buf.Next(2))
	for buf.Len() > 0 {
		filter, err := decodeUTF8[string](buf)
		if err != nil {
			return err
		}
		if buf.Len() < 1 {
			return ErrMalformedPacket
		}
		qos, _ := buf.ReadByte()
		if qos > 2 {
			return ErrQosOutOfRange
		}
		pkt.Subscriptions = append(pkt.Subscriptions, Subscription{TopicFilter: filter, QoS: qos})
	}
	if len(pkt.Subscriptions) == 0 {
		return ErrMalformedPacket
	}
	return nil
}

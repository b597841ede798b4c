package packet

import (
	"bytes"
	"io"
)

// PUBLISH transports one application message in either direction
// (section 3.3). The packet identifier is present only when QoS > 0.
type PUBLISH struct {
	*FixedHeader

	TopicName []byte
	PacketID  uint16
	Payload   []byte
}

func (pkt *PUBLISH) Kind() byte { return 0x3 }

func (pkt *PUBLISH) Pack(w io.Writer) error {
	body := GetBuffer()
	defer PutBuffer(body)

	body.Write(encodeUTF8(pkt.TopicName))
	if pkt.QoS > 0 {
		body.Write(putU16(pkt.PacketID))
	}
	body.Write(pkt.Payload)

	pkt.FixedHeader.Kind = pkt.Kind()
	pkt.FixedHeader.RemainingLength = uint32(body.Len())
	if err := pkt.FixedHeader.Pack(w); err != nil {
		return err
	}
	_, err := body.WriteTo(w)
	return err
}

func (pkt *PUBLISH) Unpack(buf *bytes.Buffer) error {
	var err error
	if pkt.TopicName, err = decodeUTF8[[]byte](buf); err != nil {
		return err
	}
	pkt.TopicName = append([]byte(nil), pkt.TopicName...)
	if pkt.QoS > 0 {
		if buf.Len() < 2 {
			return ErrMalformedPacket
		}
		pkt.PacketID = u16(buf.Next(2))
	}
	pkt.Payload = append([]byte(nil), buf.Bytes()...)
	return nil
}

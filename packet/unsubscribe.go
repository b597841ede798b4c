package packet

import (
	"bytes"
	"io"
)

// UNSUBSCRIBE cancels one or more subscriptions (section 3.10). Fixed
// flags: DUP=0, QoS=1, RETAIN=0.
type UNSUBSCRIBE struct {
	*FixedHeader
	PacketID      uint16
	TopicFilters  []string
}

func (pkt *UNSUBSCRIBE) Kind() byte { return 0xA }

func (pkt *UNSUBSCRIBE) Pack(w io.Writer) error {
	body := GetBuffer()
	defer PutBuffer(body)

	body.Write(putU16(pkt.PacketID))
	for _, f := range pkt.TopicFilters {
		body.Write(encodeUTF8(f))
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

func (pkt *UNSUBSCRIBE) Unpack(buf *bytes.Buffer) error {
	if buf.Len() < 2 {
		return ErrMalformedPacket
	}
	pkt.PacketID = u16(buf.Next(2))
	for buf.Len() > 0 {
		f, err := decodeUTF8[string](buf)
		if err != nil {
			return err
		}
		pkt.TopicFilters = append(pkt.TopicFilters, f)
	}
	if len(pkt.TopicFilters) == 0 {
		return ErrMalformedPacket
	}
	return nil
}

package packet

import (
	"bytes"
	"io"
)

// SUBACK grants (or refuses, 0x80) QoS per requested filter, in request
// order (section 3.9).
type SUBACK struct {
	*FixedHeader
	PacketID    uint16
	ReturnCodes []byte
}

func (pkt *SUBACK) Kind() byte { return 0x9 }

func (pkt *SUBACK) Pack(w io.Writer) error {
	body := GetBuffer()
	defer PutBuffer(body)

	body.Write(putU16(pkt.PacketID))
	body.Write(pkt.ReturnCodes)

	pkt.FixedHeader.Kind = pkt.Kind()
	pkt.FixedHeader.RemainingLength = uint32(body.Len())
	if err := pkt.FixedHeader.Pack(w); err != nil {
		return err
	}
	_, err := body.WriteTo(w)
	return err
}

func (pkt *SUBACK) Unpack(buf *bytes.Buffer) error {
	if buf.Len() < 2 {
		return ErrMalformedPacket
	}
	pkt.PacketID = u16(buf.Next(2))
	pkt.ReturnCodes = append([]byte(nil), buf.Bytes()...)
	return nil
}

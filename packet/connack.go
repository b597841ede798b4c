package packet

import (
	"bytes"
	"io"
)

// CONNACK acknowledges a CONNECT (section 3.2). It carries no payload.
type CONNACK struct {
	*FixedHeader

	SessionPresent bool
	ReturnCode     ConnectReturnCode
}

func (pkt *CONNACK) Kind() byte { return 0x2 }

func (pkt *CONNACK) Pack(w io.Writer) error {
	body := GetBuffer()
	defer PutBuffer(body)

	var sp byte
	if pkt.SessionPresent {
		sp = 1
	}
	body.WriteByte(sp)
	body.WriteByte(byte(pkt.ReturnCode))

	pkt.FixedHeader.Kind = pkt.Kind()
	pkt.FixedHeader.RemainingLength = uint32(body.Len())
	if err := pkt.FixedHeader.Pack(w); err != nil {
		return err
	}
	_, err := body.WriteTo(w)
	return err
}

func (pkt *CONNACK) Unpack(buf *bytes.Buffer) error {
	if buf.Len() < 2 {
		return ErrMalformedPacket
	}
	ackFlags, _ := buf.ReadByte()
	pkt.SessionPresent = ackFlags&0x1 != 0
	rc, _ := buf.ReadByte()
	pkt.ReturnCode = ConnectReturnCode(rc)
	return nil
}

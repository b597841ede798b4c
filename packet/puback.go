package packet

import (
	"bytes"
	"io"
)

// PUBACK is the QoS 1 publish acknowledgement (section 3.4): fixed header
// plus a 2-byte packet identifier, no payload.
type PUBACK struct {
	*FixedHeader
	PacketID uint16
}

func (pkt *PUBACK) Kind() byte { return 0x4 }

func (pkt *PUBACK) Pack(w io.Writer) error { return packIDOnly(pkt.FixedHeader, pkt.Kind(), 0, pkt.PacketID, w) }

func (pkt *PUBACK) Unpack(buf *bytes.Buffer) error {
	id, err := unpackIDOnly(buf)
	pkt.PacketID = id
	return err
}

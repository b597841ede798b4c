package packet

import (
	"bytes"
	"io"
)

// PUBREC is QoS 2 delivery part 1: the receiver acknowledges a PUBLISH it
// has stored, before release (section 3.5).
type PUBREC struct {
	*FixedHeader
	PacketID uint16
}

func (pkt *PUBREC) Kind() byte { return 0x5 }

func (pkt *PUBREC) Pack(w io.Writer) error { return packIDOnly(pkt.FixedHeader, pkt.Kind(), 0, pkt.PacketID, w) }

func (pkt *PUBREC) Unpack(buf *bytes.Buffer) error {
	id, err := unpackIDOnly(buf)
	pkt.PacketID = id
	return err
}

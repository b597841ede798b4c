package packet

import (
	"bytes"
	"io"
)

// UNSUBACK confirms an UNSUBSCRIBE, carrying only the packet identifier
// (section 3.11).
type UNSUBACK struct {
	*FixedHeader
	PacketID uint16
}

func (pkt *UNSUBACK) Kind() byte { return 0xB }

func (pkt *UNSUBACK) Pack(w io.Writer) error { return packIDOnly(pkt.FixedHeader, pkt.Kind(), 0, pkt.PacketID, w) }

func (pkt *UNSUBACK) Unpack(buf *bytes.Buffer) error {
	id, err := unpackIDOnly(buf)
	pkt.PacketID = id
	return err
}

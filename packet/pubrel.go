package packet

import (
	"bytes"
	"io"
)

// PUBREL is QoS 2 delivery part 2 (section 3.6). Its fixed-header flags
// are fixed at DUP=0, QoS=1, RETAIN=0.
type PUBREL struct {
	*FixedHeader
	PacketID uint16
}

func (pkt *PUBREL) Kind() byte { return 0x6 }

func (pkt *PUBREL) Pack(w io.Writer) error { return packIDOnly(pkt.FixedHeader, pkt.Kind(), 1, pkt.PacketID, w) }

func (pkt *PUBREL) Unpack(buf *bytes.Buffer) error {
	id, err := unpackIDOnly(buf)
	pkt.PacketID = id
	return err
}

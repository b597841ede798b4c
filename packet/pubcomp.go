package packet

import (
	"bytes"
	"io"
)

// PUBCOMP is QoS 2 delivery part 3, completing the handshake (section 3.7).
type PUBCOMP struct {
	*FixedHeader
	PacketID uint16
}

func (pkt *PUBCOMP) Kind() byte { return 0x7 }

func (pkt *PUBCOMP) Pack(w io.Writer) error { return packIDOnly(pkt.FixedHeader, pkt.Kind(), 0, pkt.PacketID, w) }

func (pkt *PUBCOMP) Unpack(buf *bytes.Buffer) error {
	id, err := unpackIDOnly(buf)
	pkt.PacketID = id
	return err
}

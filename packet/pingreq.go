package packet

import (
	"bytes"
	"io"
)

// PINGREQ carries no variable header or payload (section 3.12).
type PINGREQ struct{ *FixedHeader }

func (pkt *PINGREQ) Kind() byte { return 0xC }

func (pkt *PINGREQ) Pack(w io.Writer) error { return packEmpty(pkt.FixedHeader, pkt.Kind(), w) }

func (pkt *PINGREQ) Unpack(*bytes.Buffer) error { return nil }

package packet

import (
	"bytes"
	"io"
)

// PINGRESP carries no variable header or payload (section 3.13).
type PINGRESP struct{ *FixedHeader }

func (pkt *PINGRESP) Kind() byte { return 0xD }

func (pkt *PINGRESP) Pack(w io.Writer) error { return packEmpty(pkt.FixedHeader, pkt.Kind(), w) }

func (pkt *PINGRESP) Unpack(*bytes.Buffer) error { return nil }

package packet

import (
	"bytes"
	"io"
)

// DISCONNECT is sent by the client to close the connection cleanly,
// without a Will (section 3.14). No variable header or payload.
type DISCONNECT struct{ *FixedHeader }

func (pkt *DISCONNECT) Kind() byte { return 0xE }

func (pkt *DISCONNECT) Pack(w io.Writer) error { return packEmpty(pkt.FixedHeader, pkt.Kind(), w) }

func (pkt *DISCONNECT) Unpack(*bytes.Buffer) error { return nil }

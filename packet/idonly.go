package packet

import (
	"bytes"
	"io"
)

// packIDOnly and unpackIDOnly implement the common shape shared by PUBACK,
// PUBREC, PUBREL, and UNSUBACK: a fixed header with no properties, a
// 2-byte packet identifier, and nothing else.
func packIDOnly(fh *FixedHeader, kind byte, qos uint8, id uint16, w io.Writer) error {
	fh.Kind = kind
	fh.QoS = qos
	fh.RemainingLength = 2
	if err := fh.Pack(w); err != nil {
		return err
	}
	_, err := w.Write(putU16(id))
	return err
}

func unpackIDOnly(buf *bytes.Buffer) (uint16, error) {
	if buf.Len() < 2 {
		return 0, ErrMalformedPacket
	}
	return u16(buf.Next(2)), nil
}

// packEmpty writes a fixed header with Remaining Length 0, for PINGREQ,
// PINGRESP, and DISCONNECT.
func packEmpty(fh *FixedHeader, kind byte, w io.Writer) error {
	fh.Kind = kind
	fh.RemainingLength = 0
	return fh.Pack(w)
}

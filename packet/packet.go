// Package packet implements the wire format of the 14 MQTT 3.1.1 control
// packets: fixed header, Remaining Length, and the variable header/payload
// layout of each packet type (OASIS MQTT Version 3.1.1, 29 October 2014).
//
// Every packet type embeds *FixedHeader and implements Pack/Unpack against
// an io.Writer / *bytes.Buffer respectively, following the convention of
// the teacher package this one descends from. MQTT 5 properties and the
// AUTH packet are intentionally not implemented; this codec speaks protocol
// level 4 only.
package packet

import (
	"bytes"
	"io"
)

// Packet is implemented by every MQTT 3.1.1 control packet.
type Packet interface {
	Kind() byte
	Pack(w io.Writer) error
	Unpack(buf *bytes.Buffer) error
}

// Decode reads one complete control packet from r: a fixed header followed
// by exactly RemainingLength more bytes, fully buffered before the
// type-specific Unpack runs. This mirrors the reference codec's Unpack
// entry point; the Engine's cycle routine (package mqttcore) performs the
// equivalent steps by hand against its own fixed-capacity receive buffer
// instead of calling Decode, since it must bound every read by a command
// timeout the io.Reader contract has no room for.
func Decode(r io.Reader) (Packet, error) {
	fixed := &FixedHeader{}
	if err := fixed.Unpack(r); err != nil {
		return nil, err
	}

	body := GetBuffer()
	defer PutBuffer(body)
	if _, err := io.CopyN(body, r, int64(fixed.RemainingLength)); err != nil {
		return nil, err
	}

	pkt, err := newPacket(fixed)
	if err != nil {
		return nil, err
	}
	if err := pkt.Unpack(body); err != nil {
		return nil, err
	}
	return pkt, nil
}

func newPacket(fixed *FixedHeader) (Packet, error) {
	switch fixed.Kind {
	case 0x1:
		return &CONNECT{FixedHeader: fixed}, nil
	case 0x2:
		return &CONNACK{FixedHeader: fixed}, nil
	case 0x3:
		return &PUBLISH{FixedHeader: fixed}, nil
	case 0x4:
		return &PUBACK{FixedHeader: fixed}, nil
	case 0x5:
		return &PUBREC{FixedHeader: fixed}, nil
	case 0x6:
		return &PUBREL{FixedHeader: fixed}, nil
	case 0x7:
		return &PUBCOMP{FixedHeader: fixed}, nil
	case 0x8:
		return &SUBSCRIBE{FixedHeader: fixed}, nil
	case 0x9:
		return &SUBACK{FixedHeader: fixed}, nil
	case 0xA:
		return &UNSUBSCRIBE{FixedHeader: fixed}, nil
	case 0xB:
		return &UNSUBACK{FixedHeader: fixed}, nil
	case 0xC:
		return &PINGREQ{FixedHeader: fixed}, nil
	case 0xD:
		return &PINGRESP{FixedHeader: fixed}, nil
	case 0xE:
		return &DISCONNECT{FixedHeader: fixed}, nil
	default:
		return nil, ErrMalformedPacket
	}
}

// Encode packs pkt and returns the encoded bytes, or ErrPacketTooLarge if
// the Remaining Length can't fit the 4-byte variable encoding. limit, if
// positive, additionally caps the total encoded size (fixed header +
// body); exceeding it returns ErrShortBuffer, matching spec.md's
// CapacityExceeded contract for a fixed-size send buffer.
func Encode(pkt Packet, limit int) ([]byte, error) {
	body := GetBuffer()
	defer PutBuffer(body)

	if err := pkt.Pack(body); err != nil {
		return nil, err
	}
	out := body.Bytes()
	if limit > 0 && len(out) > limit {
		return nil, ErrShortBuffer
	}
	buf := make([]byte, len(out))
	copy(buf, out)
	return buf, nil
}

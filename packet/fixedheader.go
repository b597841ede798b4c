package packet

import (
	"fmt"
	"io"
)

// FixedHeader is the 2-to-5 byte header every MQTT control packet starts
// with (section 2.2): a type+flags byte followed by the Remaining Length
// variable-byte integer.
type FixedHeader struct {
	Kind            byte
	Dup             uint8
	QoS             uint8
	Retain          uint8
	RemainingLength uint32
}

// ValidateReservedFlags enforces the reserved-flag constants mandated for
// packet types whose header flags are not DUP/QoS/RETAIN carrying
// (section 2.2.2). It is exported so a caller reading the header byte
// itself off a bounded, per-byte-timed stream (package mqttcore's cycle
// routine) can reuse the same rule Unpack applies when it reads the byte
// for you.
func ValidateReservedFlags(kind, dup, qos, retain byte) error {
	switch kind {
	case 0x3: // PUBLISH carries real DUP/QoS/RETAIN flags.
		if qos > 2 {
			return ErrQosOutOfRange
		}
	case 0x6, 0x8, 0xA: // PUBREL, SUBSCRIBE, UNSUBSCRIBE: flags fixed at 0010.
		if dup != 0 || qos != 1 || retain != 0 {
			return ErrMalformedFlags
		}
	default:
		if dup != 0 || qos != 0 || retain != 0 {
			return ErrMalformedFlags
		}
	}
	return nil
}

func (h *FixedHeader) String() string {
	return fmt.Sprintf("%s len=%d", Kind[h.Kind], h.RemainingLength)
}

// Pack writes the fixed header to w. RemainingLength must already reflect
// the size of the variable header and payload that follow.
func (h *FixedHeader) Pack(w io.Writer) error {
	enc, err := encodeLength(h.RemainingLength)
	if err != nil {
		return err
	}
	b := make([]byte, 0, 1+len(enc))
	b = append(b, h.Kind<<4|h.Dup<<3|h.QoS<<1|h.Retain)
	b = append(b, enc...)
	_, err = w.Write(b)
	return err
}

// Unpack reads the fixed header from r, one header byte followed by up to
// four Remaining Length bytes. It enforces the reserved-flag constants
// mandated for packet types whose flags are not DUP/QoS/RETAIN carrying
// (section 2.2.2).
func (h *FixedHeader) Unpack(r io.Reader) error {
	b := make([]byte, 1)
	if _, err := io.ReadFull(r, b); err != nil {
		return err
	}
	h.Kind = b[0] >> 4
	h.Dup = (b[0] >> 3) & 0x1
	h.QoS = (b[0] >> 1) & 0x3
	h.Retain = b[0] & 0x1

	if err := ValidateReservedFlags(h.Kind, h.Dup, h.QoS, h.Retain); err != nil {
		return err
	}

	rl, err := decodeLength(r)
	if err != nil {
		return err
	}
	h.RemainingLength = rl
	return nil
}

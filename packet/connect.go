package packet

import (
	"bytes"
	"io"
)

// protocolName is the fixed 6-byte protocol name field: 0x00 0x04 "MQTT"
// (section 3.1.2.1).
var protocolName = []byte{0x00, 0x04, 'M', 'Q', 'T', 'T'}

// ConnectFlags packs the 8 Connect Flags bits (section 3.1.2.3).
type ConnectFlags struct {
	UsernameFlag bool
	PasswordFlag bool
	WillRetain   bool
	WillQoS      uint8
	WillFlag     bool
	CleanSession bool
}

func (f ConnectFlags) encode() byte {
	var b byte
	if f.UsernameFlag {
		b |= 1 << 7
	}
	if f.PasswordFlag {
		b |= 1 << 6
	}
	if f.WillRetain {
		b |= 1 << 5
	}
	b |= (f.WillQoS & 0x3) << 3
	if f.WillFlag {
		b |= 1 << 2
	}
	if f.CleanSession {
		b |= 1 << 1
	}
	return b
}

func decodeConnectFlags(b byte) ConnectFlags {
	return ConnectFlags{
		UsernameFlag: b&(1<<7) != 0,
		PasswordFlag: b&(1<<6) != 0,
		WillRetain:   b&(1<<5) != 0,
		WillQoS:      (b >> 3) & 0x3,
		WillFlag:     b&(1<<2) != 0,
		CleanSession: b&(1<<1) != 0,
	}
}

// CONNECT is the packet a client sends once, immediately after opening the
// transport, to request a session (section 3.1).
type CONNECT struct {
	*FixedHeader

	Flags        ConnectFlags
	KeepAlive    uint16
	ClientID     string
	WillTopic    string
	WillPayload  []byte
	Username     string
	Password     string
}

func (pkt *CONNECT) Kind() byte { return 0x1 }

// Pack writes the CONNECT packet to w. Payload order follows section 3.1.3:
// ClientId, (WillTopic, WillMessage) if the Will flag is set, Username if
// the username flag is set, Password if the password flag is set.
func (pkt *CONNECT) Pack(w io.Writer) error {
	pkt.Flags.UsernameFlag = pkt.Username != ""
	pkt.Flags.PasswordFlag = pkt.Password != ""
	pkt.Flags.WillFlag = pkt.WillTopic != ""

	body := GetBuffer()
	defer PutBuffer(body)

	body.Write(protocolName)
	body.WriteByte(Version311)
	body.WriteByte(pkt.Flags.encode())
	body.Write(putU16(pkt.KeepAlive))

	body.Write(encodeUTF8(pkt.ClientID))
	if pkt.Flags.WillFlag {
		body.Write(encodeUTF8(pkt.WillTopic))
		body.Write(encodeUTF8(string(pkt.WillPayload)))
	}
	if pkt.Flags.UsernameFlag {
		body.Write(encodeUTF8(pkt.Username))
	}
	if pkt.Flags.PasswordFlag {
		body.Write(encodeUTF8(pkt.Password))
	}

	pkt.FixedHeader.Kind = pkt.Kind()
	pkt.FixedHeader.RemainingLength = uint32(body.Len())
	if err := pkt.FixedHeader.Pack(w); err != nil {
		return err
	}
	_, err := body.WriteTo(w)
	return err
}

// Unpack parses the CONNECT variable header and payload from buf.
func (pkt *CONNECT) Unpack(buf *bytes.Buffer) error {
	if buf.Len() < 10 {
		return ErrMalformedPacket
	}
	name := buf.Next(6)
	if !bytes.Equal(name, protocolName) {
		return ErrMalformedProtocolName
	}
	level, _ := buf.ReadByte()
	if level != Version311 {
		return ErrUnsupportedProtocolVersion
	}
	flagsByte, _ := buf.ReadByte()
	pkt.Flags = decodeConnectFlags(flagsByte)
	pkt.KeepAlive = u16(buf.Next(2))

	var err error
	if pkt.ClientID, err = decodeUTF8[string](buf); err != nil {
		return err
	}
	if pkt.Flags.WillFlag {
		if pkt.WillTopic, err = decodeUTF8[string](buf); err != nil {
			return err
		}
		var payload []byte
		if payload, err = decodeUTF8[[]byte](buf); err != nil {
			return err
		}
		pkt.WillPayload = append([]byte(nil), payload...)
	}
	if pkt.Flags.UsernameFlag {
		if pkt.Username, err = decodeUTF8[string](buf); err != nil {
			return err
		}
	}
	if pkt.Flags.PasswordFlag {
		if pkt.Password, err = decodeUTF8[string](buf); err != nil {
			return err
		}
	}
	return nil
}

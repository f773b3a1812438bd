package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Rejection reasons returned by the Decode functions.
var (
	ErrShortPacket = errors.New("packet too short")
	ErrBadCookie   = errors.New("magic cookie mismatch")
	ErrBadType     = errors.New("unexpected message type")
	ErrBadSegment  = errors.New("segment index out of range")
)

func putPrefix(buf []byte, msgType uint8) {
	binary.BigEndian.PutUint32(buf[0:4], MagicCookie)
	buf[4] = msgType
}

// checkPrefix validates length, cookie and type for the expected message.
func checkPrefix(data []byte, msgType uint8, size int) error {
	if len(data) < size {
		return fmt.Errorf("%w: %d bytes (need at least %d)", ErrShortPacket, len(data), size)
	}
	if cookie := binary.BigEndian.Uint32(data[0:4]); cookie != MagicCookie {
		return fmt.Errorf("%w: 0x%08X", ErrBadCookie, cookie)
	}
	if data[4] != msgType {
		return fmt.Errorf("%w: got 0x%x, want 0x%x", ErrBadType, data[4], msgType)
	}
	return nil
}

// EncodeOffer serializes an Offer into its 9-byte wire form.
func EncodeOffer(o Offer) []byte {
	buf := make([]byte, OfferSize)
	putPrefix(buf, TypeOffer)
	binary.BigEndian.PutUint16(buf[5:7], o.DatagramPort)
	binary.BigEndian.PutUint16(buf[7:9], o.StreamPort)
	return buf
}

// DecodeOffer parses an Offer. Trailing bytes are ignored.
func DecodeOffer(data []byte) (Offer, error) {
	if err := checkPrefix(data, TypeOffer, OfferSize); err != nil {
		return Offer{}, err
	}
	return Offer{
		DatagramPort: binary.BigEndian.Uint16(data[5:7]),
		StreamPort:   binary.BigEndian.Uint16(data[7:9]),
	}, nil
}

// EncodeRequest serializes a Request into its 13-byte wire form.
func EncodeRequest(r Request) []byte {
	buf := make([]byte, RequestSize)
	putPrefix(buf, TypeRequest)
	binary.BigEndian.PutUint64(buf[5:13], r.FileSize)
	return buf
}

// DecodeRequest parses a Request. Trailing bytes are ignored.
func DecodeRequest(data []byte) (Request, error) {
	if err := checkPrefix(data, TypeRequest, RequestSize); err != nil {
		return Request{}, err
	}
	return Request{FileSize: binary.BigEndian.Uint64(data[5:13])}, nil
}

// EncodePayload serializes a Payload header followed by its data block.
func EncodePayload(p *Payload) []byte {
	buf := make([]byte, PayloadHeaderSize+len(p.Data))
	PutPayloadHeader(buf, p.TotalSegments, p.SegmentIndex)
	copy(buf[PayloadHeaderSize:], p.Data)
	return buf
}

// PutPayloadHeader writes a payload header into the first PayloadHeaderSize
// bytes of buf, so senders can reuse one buffer for every segment.
func PutPayloadHeader(buf []byte, total, index uint32) {
	putPrefix(buf, TypePayload)
	binary.BigEndian.PutUint32(buf[5:9], total)
	binary.BigEndian.PutUint32(buf[9:13], index)
}

// DecodePayload parses a Payload. Data aliases the input slice.
func DecodePayload(data []byte) (*Payload, error) {
	if err := checkPrefix(data, TypePayload, PayloadHeaderSize); err != nil {
		return nil, err
	}
	p := &Payload{
		TotalSegments: binary.BigEndian.Uint32(data[5:9]),
		SegmentIndex:  binary.BigEndian.Uint32(data[9:13]),
		Data:          data[PayloadHeaderSize:],
	}
	if p.SegmentIndex >= p.TotalSegments {
		return nil, fmt.Errorf("%w: %d of %d", ErrBadSegment, p.SegmentIndex, p.TotalSegments)
	}
	return p, nil
}

package protocol

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
)

// TestOfferWireFormat verifies the exact 9-byte layout of an offer.
func TestOfferWireFormat(t *testing.T) {
	got := EncodeOffer(Offer{DatagramPort: 13118, StreamPort: 13119})
	want := []byte{0xAB, 0xCD, 0xDC, 0xBA, 0x02, 0x33, 0x3E, 0x33, 0x3F}
	if !bytes.Equal(got, want) {
		t.Fatalf("EncodeOffer = % X, want % X", got, want)
	}

	offer, err := DecodeOffer(got)
	if err != nil {
		t.Fatalf("DecodeOffer failed: %v", err)
	}
	if offer.DatagramPort != 13118 || offer.StreamPort != 13119 {
		t.Errorf("ports mismatch: got %d/%d", offer.DatagramPort, offer.StreamPort)
	}
}

// TestRequestWireFormat verifies the 13-byte request layout and round trip.
func TestRequestWireFormat(t *testing.T) {
	encoded := EncodeRequest(Request{FileSize: 1 << 20})
	if len(encoded) != RequestSize {
		t.Fatalf("request length = %d, want %d", len(encoded), RequestSize)
	}
	if encoded[4] != TypeRequest {
		t.Errorf("type byte = 0x%x, want 0x%x", encoded[4], TypeRequest)
	}
	if got := binary.BigEndian.Uint64(encoded[5:]); got != 1<<20 {
		t.Errorf("file size field = %d", got)
	}

	req, err := DecodeRequest(encoded)
	if err != nil {
		t.Fatalf("DecodeRequest failed: %v", err)
	}
	if req.FileSize != 1<<20 {
		t.Errorf("FileSize = %d, want %d", req.FileSize, 1<<20)
	}
}

// TestPayloadRoundTrip checks header fields and data block survive encoding.
func TestPayloadRoundTrip(t *testing.T) {
	testCases := []struct {
		name string
		pkt  *Payload
	}{
		{"first of many", &Payload{TotalSegments: 1045, SegmentIndex: 0, Data: bytes.Repeat([]byte("X"), SegmentCapacity)}},
		{"short last segment", &Payload{TotalSegments: 1045, SegmentIndex: 1044, Data: bytes.Repeat([]byte("X"), 400)}},
		{"empty data", &Payload{TotalSegments: 1, SegmentIndex: 0, Data: []byte{}}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			encoded := EncodePayload(tc.pkt)
			if len(encoded) > BufferSize {
				t.Fatalf("encoded payload %d bytes exceeds buffer %d", len(encoded), BufferSize)
			}

			decoded, err := DecodePayload(encoded)
			if err != nil {
				t.Fatalf("DecodePayload failed: %v", err)
			}
			if decoded.TotalSegments != tc.pkt.TotalSegments {
				t.Errorf("TotalSegments mismatch: got %d, want %d", decoded.TotalSegments, tc.pkt.TotalSegments)
			}
			if decoded.SegmentIndex != tc.pkt.SegmentIndex {
				t.Errorf("SegmentIndex mismatch: got %d, want %d", decoded.SegmentIndex, tc.pkt.SegmentIndex)
			}
			if !bytes.Equal(decoded.Data, tc.pkt.Data) {
				t.Errorf("Data mismatch: got %d bytes, want %d", len(decoded.Data), len(tc.pkt.Data))
			}
		})
	}
}

// TestDecodeRejects verifies that malformed and foreign packets yield a
// tagged rejection and never panic.
func TestDecodeRejects(t *testing.T) {
	offer := EncodeOffer(Offer{DatagramPort: 1, StreamPort: 2})
	badCookie := append([]byte(nil), offer...)
	badCookie[0] = 0x00

	request := EncodeRequest(Request{FileSize: 10})
	payload := EncodePayload(&Payload{TotalSegments: 2, SegmentIndex: 1})
	outOfRange := EncodePayload(&Payload{TotalSegments: 2, SegmentIndex: 2})

	testCases := []struct {
		name   string
		decode func([]byte) error
		data   []byte
		want   error
	}{
		{"offer empty", decodeOfferErr, nil, ErrShortPacket},
		{"offer truncated", decodeOfferErr, offer[:OfferSize-1], ErrShortPacket},
		{"offer bad cookie", decodeOfferErr, badCookie, ErrBadCookie},
		{"request parsed as offer", decodeOfferErr, request, ErrBadType},
		{"request truncated", decodeRequestErr, request[:8], ErrShortPacket},
		{"payload parsed as request", decodeRequestErr, payload, ErrBadType},
		{"offer parsed as payload", decodePayloadErr, offer, ErrShortPacket},
		{"request parsed as payload", decodePayloadErr, request, ErrBadType},
		{"segment index out of range", decodePayloadErr, outOfRange, ErrBadSegment},
		{"random garbage", decodePayloadErr, []byte("GET / HTTP/1.1\r\n"), ErrBadCookie},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.decode(tc.data)
			if !errors.Is(err, tc.want) {
				t.Fatalf("got error %v, want %v", err, tc.want)
			}
		})
	}
}

func decodeOfferErr(b []byte) error   { _, err := DecodeOffer(b); return err }
func decodeRequestErr(b []byte) error { _, err := DecodeRequest(b); return err }
func decodePayloadErr(b []byte) error { _, err := DecodePayload(b); return err }

// TestDecodeIgnoresTrailingBytes accepts datagrams padded past the fixed header.
func TestDecodeIgnoresTrailingBytes(t *testing.T) {
	data := append(EncodeOffer(Offer{DatagramPort: 7, StreamPort: 8}), 0xFF, 0xFF)
	offer, err := DecodeOffer(data)
	if err != nil {
		t.Fatalf("DecodeOffer failed: %v", err)
	}
	if offer.DatagramPort != 7 || offer.StreamPort != 8 {
		t.Errorf("ports mismatch: got %d/%d", offer.DatagramPort, offer.StreamPort)
	}
}

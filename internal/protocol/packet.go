// Package protocol defines the wire format shared by the offer, request and
// payload messages of the LAN speed test.
package protocol

// MagicCookie prefixes every message; anything else on the wire is foreign traffic.
const MagicCookie uint32 = 0xABCDDCBA

// Message type tags.
const (
	TypeOffer   uint8 = 0x2 // server → broadcast
	TypeRequest uint8 = 0x3 // client → server datagram port
	TypePayload uint8 = 0x4 // server → client, one per segment
)

// Fixed sizes in bytes. All multi-byte fields are big-endian.
const (
	prefixSize = 5 // Cookie(4) + Type(1)

	OfferSize         = prefixSize + 2 + 2 // + DatagramPort(2) + StreamPort(2)
	RequestSize       = prefixSize + 8     // + FileSize(8)
	PayloadHeaderSize = prefixSize + 4 + 4 // + TotalSegments(4) + SegmentIndex(4)
)

// BufferSize is the datagram read/write buffer.
const BufferSize = 1024

// SegmentCapacity is the number of payload bytes carried per segment.
// BufferSize minus 20 bytes of header and margin; the 13-byte payload header
// plus a full segment always fits in BufferSize.
const SegmentCapacity = BufferSize - 20

// Offer advertises the server's transfer endpoints.
type Offer struct {
	DatagramPort uint16
	StreamPort   uint16
}

// Request asks the server for a datagram transfer of FileSize bytes.
type Request struct {
	FileSize uint64
}

// Payload is one segment of a datagram transfer.
type Payload struct {
	TotalSegments uint32
	SegmentIndex  uint32 // zero-based, < TotalSegments
	Data          []byte
}

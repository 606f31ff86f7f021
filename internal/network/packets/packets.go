// Package packets defines the frames exchanged between a broadcast
// coordinator and its workers.
package packets

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Packet IDs.
const (
	// Coordinator -> Worker
	PKT_HELLO  uint16 = 0x0101 // Rank assignment after accept
	PKT_SCALAR uint16 = 0x0102 // Broadcast integer
	PKT_BYTES  uint16 = 0x0103 // Broadcast byte buffer
	PKT_ABORT  uint16 = 0x01FF // Coordinator is shutting the group down
)

// HeaderSize is the size of every frame header: packet ID plus payload length.
const HeaderSize = 6

// MaxPayload bounds a single frame so a corrupt length cannot exhaust memory.
const MaxPayload = 1 << 30

// ErrPayloadTooLarge is returned for frames above MaxPayload.
var ErrPayloadTooLarge = errors.New("frame payload too large")

// Name returns a readable name for a packet ID.
func Name(id uint16) string {
	switch id {
	case PKT_HELLO:
		return "HELLO"
	case PKT_SCALAR:
		return "SCALAR"
	case PKT_BYTES:
		return "BYTES"
	case PKT_ABORT:
		return "ABORT"
	default:
		return fmt.Sprintf("0x%04x", id)
	}
}

// Hello (PKT_HELLO 0x0101)
type Hello struct {
	Rank uint32
	Size uint32
}

// Encode encodes the packet payload to bytes.
func (p *Hello) Encode() []byte {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint32(buf[0:], p.Rank)
	binary.LittleEndian.PutUint32(buf[4:], p.Size)
	return buf
}

// DecodeHello decodes a PKT_HELLO payload.
func DecodeHello(payload []byte) (Hello, error) {
	if len(payload) != 8 {
		return Hello{}, fmt.Errorf("hello payload is %d bytes, want 8", len(payload))
	}
	return Hello{
		Rank: binary.LittleEndian.Uint32(payload[0:]),
		Size: binary.LittleEndian.Uint32(payload[4:]),
	}, nil
}

// EncodeScalar encodes a PKT_SCALAR payload.
func EncodeScalar(v int) []byte {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, uint64(int64(v)))
	return buf
}

// DecodeScalar decodes a PKT_SCALAR payload.
func DecodeScalar(payload []byte) (int, error) {
	if len(payload) != 8 {
		return 0, fmt.Errorf("scalar payload is %d bytes, want 8", len(payload))
	}
	return int(int64(binary.LittleEndian.Uint64(payload))), nil
}

// Frame builds a complete frame: little-endian packet ID and payload
// length followed by the payload.
func Frame(id uint16, payload []byte) []byte {
	buf := make([]byte, HeaderSize+len(payload))
	binary.LittleEndian.PutUint16(buf[0:], id)
	binary.LittleEndian.PutUint32(buf[2:], uint32(len(payload)))
	copy(buf[HeaderSize:], payload)
	return buf
}

// ReadFrame reads one frame from r.
func ReadFrame(r io.Reader) (uint16, []byte, error) {
	var hdr [HeaderSize]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return 0, nil, err
	}
	id := binary.LittleEndian.Uint16(hdr[0:])
	n := binary.LittleEndian.Uint32(hdr[2:])
	if n > MaxPayload {
		return 0, nil, fmt.Errorf("%w: %s frame of %d bytes", ErrPayloadTooLarge, Name(id), n)
	}
	payload := make([]byte, n)
	if _, err := io.ReadFull(r, payload); err != nil {
		return 0, nil, fmt.Errorf("reading %s payload: %w", Name(id), err)
	}
	return id, payload, nil
}

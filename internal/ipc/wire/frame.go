package wire

import (
	"encoding/binary"
	"fmt"
	"io"
)

// headerSize is ObjectID(4) + MethodID(4) + Seq(8) + Direction(1) +
// Encoding(1), all preceding the variable-length Payload.
const headerSize = 4 + 4 + 8 + 1 + 1

// MaxFrameSize bounds a single frame's total length-prefixed size, guarding
// against a malformed or hostile peer claiming an unbounded payload. Well
// above the largest legitimate frame: a 2048 KiB file-write chunk's binary
// payload plus its header.
const MaxFrameSize = 4 << 20

// WriteFrame writes m to w as a 32-bit big-endian length prefix followed by
// its header and payload.
func WriteFrame(w io.Writer, m Message) error {
	body := make([]byte, headerSize+len(m.Payload))
	binary.BigEndian.PutUint32(body[0:4], m.ObjectID)
	binary.BigEndian.PutUint32(body[4:8], m.MethodID)
	binary.BigEndian.PutUint64(body[8:16], m.Seq)
	body[16] = byte(m.Direction)
	body[17] = byte(m.Encoding)
	copy(body[headerSize:], m.Payload)

	var lenPrefix [4]byte
	binary.BigEndian.PutUint32(lenPrefix[:], uint32(len(body)))
	if _, err := w.Write(lenPrefix[:]); err != nil {
		return fmt.Errorf("wire: writing frame length: %w", err)
	}
	if _, err := w.Write(body); err != nil {
		return fmt.Errorf("wire: writing frame body: %w", err)
	}
	return nil
}

// ReadFrame reads one length-prefixed frame from r, blocking until a full
// frame arrives (partial reads are buffered internally by the io.Reader
// the caller supplies, typically a bufio.Reader over the connection).
func ReadFrame(r io.Reader) (Message, error) {
	var lenPrefix [4]byte
	if _, err := io.ReadFull(r, lenPrefix[:]); err != nil {
		return Message{}, err
	}
	n := binary.BigEndian.Uint32(lenPrefix[:])
	if n < headerSize || n > MaxFrameSize {
		return Message{}, fmt.Errorf("wire: frame length %d out of bounds", n)
	}
	body := make([]byte, n)
	if _, err := io.ReadFull(r, body); err != nil {
		return Message{}, fmt.Errorf("wire: reading frame body: %w", err)
	}
	return Message{
		ObjectID:  binary.BigEndian.Uint32(body[0:4]),
		MethodID:  binary.BigEndian.Uint32(body[4:8]),
		Seq:       binary.BigEndian.Uint64(body[8:16]),
		Direction: Direction(body[16]),
		Encoding:  Encoding(body[17]),
		Payload:   body[headerSize:],
	}, nil
}

package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// FrameHeaderSize is the length prefix used on stream transports
const FrameHeaderSize = 4

// ErrFrameTooLarge is returned when a length prefix exceeds the reader's limit.
// The stream cannot be resynchronised after this.
var ErrFrameTooLarge = errors.New("protocol: frame too large")

// WriteFrame writes a 4-byte big-endian length followed by payload as a
// single write.
func WriteFrame(w io.Writer, payload []byte) error {
	buf := make([]byte, FrameHeaderSize+len(payload))
	binary.BigEndian.PutUint32(buf[:FrameHeaderSize], uint32(len(payload)))
	copy(buf[FrameHeaderSize:], payload)
	_, err := w.Write(buf)
	return err
}

// ReadFrame reads one length-prefixed payload. maxSize bounds the accepted
// length; zero means no limit.
func ReadFrame(r io.Reader, maxSize int) ([]byte, error) {
	var header [FrameHeaderSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, err
	}

	n := binary.BigEndian.Uint32(header[:])
	if maxSize > 0 && uint64(n) > uint64(maxSize) {
		return nil, fmt.Errorf("%w: %d bytes (limit %d)", ErrFrameTooLarge, n, maxSize)
	}

	payload := make([]byte, n)
	if _, err := io.ReadFull(r, payload); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return nil, err
	}
	return payload, nil
}

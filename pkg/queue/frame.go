package queue

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"
)

// Frames larger than this indicate a corrupt stream rather than a
// legitimate payload.
const maxFrameSize = 64 << 20

// writeFrame encodes item as msgpack behind a 4-byte big-endian length
// prefix.
func writeFrame(w io.Writer, item any) error {
	payload, err := msgpack.Marshal(item)
	if err != nil {
		return fmt.Errorf("encode frame: %w", err)
	}
	var header [4]byte
	binary.BigEndian.PutUint32(header[:], uint32(len(payload)))
	if _, err := w.Write(header[:]); err != nil {
		return err
	}
	_, err = w.Write(payload)
	return err
}

// readFrame reads one length-prefixed msgpack frame.
func readFrame(r io.Reader) (any, error) {
	var header [4]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, err
	}
	size := binary.BigEndian.Uint32(header[:])
	if size > maxFrameSize {
		return nil, fmt.Errorf("frame of %d bytes exceeds limit", size)
	}
	payload := make([]byte, size)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, err
	}
	var item any
	if err := msgpack.Unmarshal(payload, &item); err != nil {
		return nil, fmt.Errorf("decode frame: %w", err)
	}
	return item, nil
}

package storage

import (
	"encoding/binary"
	"fmt"

	"github.com/dmitrijs2005/zkvault/internal/common"
)

const headerSize = 8

// frame prefixes body with its big-endian uint64 length so padding can be
// stripped exactly on read.
func frame(body []byte) []byte {
	out := make([]byte, headerSize+len(body))
	binary.BigEndian.PutUint64(out, uint64(len(body)))
	copy(out[headerSize:], body)
	return out
}

// unframe returns the body of a padded artifact. Padding past the declared
// length is ignored.
func unframe(data []byte) ([]byte, error) {
	if len(data) < headerSize {
		return nil, fmt.Errorf("%w: artifact shorter than its header", common.ErrStorageIO)
	}
	n := binary.BigEndian.Uint64(data)
	if n > uint64(len(data)-headerSize) {
		return nil, fmt.Errorf("%w: artifact declares %d bytes, has %d", common.ErrStorageIO, n, len(data)-headerSize)
	}
	return data[headerSize : headerSize+int(n)], nil
}

package badger

import "github.com/poiesic/evidentia/storage"

// Key prefixes
const (
	chunkRowPrefix  = "chunk:"
	vectorRowPrefix = "vec:"
	summaryKey      = "meta:build_summary"
)

// makeRowKey generates a key for row under prefix.
// Format: prefix + big-endian uint32 row, so prefix scans return row order.
func makeRowKey(prefix string, row int) []byte {
	rowBytes := storage.MarshalRow(row)
	buf := make([]byte, len(prefix)+len(rowBytes))
	offset := copy(buf, prefix)
	copy(buf[offset:], rowBytes)
	return buf
}

// rowFromKey extracts the row index from a key built by makeRowKey.
func rowFromKey(prefix string, key []byte) (int, error) {
	return storage.UnmarshalRow(key[len(prefix):])
}

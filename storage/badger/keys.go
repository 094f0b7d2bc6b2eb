package badger

import (
	"encoding/binary"
	"fmt"
)

// Key prefixes for different data types
const (
	chunkRecordPrefix   = "chkrec"
	documentIndexPrefix = "chkdoc"
	unembeddedPrefix    = "chkune"
	dimensionKeyName    = "chkdim"
)

// keySep separates variable-length key segments. Owner and document
// identifiers must not contain NUL bytes; core.ValidateDocumentID and
// core.ValidateOwner reject them before any key is built.
const keySep = byte(0x00)

// makeChunkRecordKey generates the primary key for a chunk record.
// Format: prefix:owner NUL documentID NUL index
func makeChunkRecordKey(owner, documentID string, index uint32) []byte {
	prefix := chunkRecordPrefix + ":"
	buf := make([]byte, 0, len(prefix)+len(owner)+len(documentID)+6)
	buf = append(buf, prefix...)
	buf = append(buf, owner...)
	buf = append(buf, keySep)
	buf = append(buf, documentID...)
	buf = append(buf, keySep)
	// BigEndian so lexicographic key order matches chunk order
	buf = binary.BigEndian.AppendUint32(buf, index)
	return buf
}

// makeOwnerScanPrefix generates the iteration prefix covering every chunk
// record stored for an owner.
func makeOwnerScanPrefix(owner string) []byte {
	prefix := chunkRecordPrefix + ":"
	buf := make([]byte, 0, len(prefix)+len(owner)+1)
	buf = append(buf, prefix...)
	buf = append(buf, owner...)
	buf = append(buf, keySep)
	return buf
}

// makeDocumentIndexKey generates a key for the document index, which maps
// a document back to the owners and indices of its chunk records.
// Format: prefix:documentID NUL owner NUL index
func makeDocumentIndexKey(documentID, owner string, index uint32) []byte {
	prefix := documentIndexPrefix + ":"
	buf := make([]byte, 0, len(prefix)+len(documentID)+len(owner)+6)
	buf = append(buf, prefix...)
	buf = append(buf, documentID...)
	buf = append(buf, keySep)
	buf = append(buf, owner...)
	buf = append(buf, keySep)
	buf = binary.BigEndian.AppendUint32(buf, index)
	return buf
}

// makeDocumentScanPrefix generates the iteration prefix covering the
// document index entries of one document.
func makeDocumentScanPrefix(documentID string) []byte {
	prefix := documentIndexPrefix + ":"
	buf := make([]byte, 0, len(prefix)+len(documentID)+1)
	buf = append(buf, prefix...)
	buf = append(buf, documentID...)
	buf = append(buf, keySep)
	return buf
}

// parseDocumentIndexKey extracts the owner and chunk index from a document
// index key, given the scan prefix it was found under. The owner is the
// variable-length middle segment; the index is the fixed-width 4-byte tail.
func parseDocumentIndexKey(key, scanPrefix []byte) (string, uint32, error) {
	rest := key[len(scanPrefix):]
	if len(rest) < 5 || rest[len(rest)-5] != keySep {
		return "", 0, fmt.Errorf("malformed document index key %q", key)
	}
	owner := string(rest[:len(rest)-5])
	index := binary.BigEndian.Uint32(rest[len(rest)-4:])
	return owner, index, nil
}

// makeUnembeddedKey generates a key for an unembedded marker.
// Format: prefix:documentID NUL index
func makeUnembeddedKey(documentID string, index uint32) []byte {
	prefix := unembeddedPrefix + ":"
	buf := make([]byte, 0, len(prefix)+len(documentID)+5)
	buf = append(buf, prefix...)
	buf = append(buf, documentID...)
	buf = append(buf, keySep)
	buf = binary.BigEndian.AppendUint32(buf, index)
	return buf
}

// makeUnembeddedScanPrefix generates the iteration prefix for a document's
// unembedded markers. An empty documentID covers every document.
func makeUnembeddedScanPrefix(documentID string) []byte {
	prefix := unembeddedPrefix + ":"
	if documentID == "" {
		return []byte(prefix)
	}
	buf := make([]byte, 0, len(prefix)+len(documentID)+1)
	buf = append(buf, prefix...)
	buf = append(buf, documentID...)
	buf = append(buf, keySep)
	return buf
}

// makeDimensionKey generates the key holding the pinned vector dimension.
func makeDimensionKey() []byte {
	return []byte(dimensionKeyName)
}

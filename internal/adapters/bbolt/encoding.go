// Binary encoding for stored pattern sets.
//
// Format (little-endian):
//
//	count: uint32
//	per pattern:
//	  nameLen:  uint16
//	  name:     [nameLen]byte
//	  valueLen: uint32
//	  value:    [valueLen]byte
//
// Patterns are written in name order so equal sets encode identically.
package bbolt

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/corey/dakota/internal/ports"
)

// encodePatterns encodes a pattern set. A single buffer is pre-allocated
// to avoid repeated growth.
func encodePatterns(patterns []ports.Pattern) ([]byte, error) {
	sorted := slices.Clone(patterns)
	slices.SortFunc(sorted, func(a, b ports.Pattern) int {
		return strings.Compare(a.Name, b.Name)
	})

	totalSize := 4
	for _, p := range sorted {
		if len(p.Name) > math.MaxUint16 {
			return nil, fmt.Errorf("pattern name too long: %d bytes", len(p.Name))
		}
		if uint64(len(p.Value)) > math.MaxUint32 {
			return nil, fmt.Errorf("pattern %q value too long: %d bytes", p.Name, len(p.Value))
		}
		totalSize += 2 + len(p.Name) + 4 + len(p.Value)
	}

	buf := make([]byte, totalSize)
	offset := 0

	binary.LittleEndian.PutUint32(buf[offset:], uint32(len(sorted)))
	offset += 4

	for _, p := range sorted {
		binary.LittleEndian.PutUint16(buf[offset:], uint16(len(p.Name)))
		offset += 2
		offset += copy(buf[offset:], p.Name)

		binary.LittleEndian.PutUint32(buf[offset:], uint32(len(p.Value)))
		offset += 4
		offset += copy(buf[offset:], p.Value)
	}

	return buf, nil
}

// decodePatterns decodes a pattern set. Every read is bounds-checked to
// avoid panics on corrupt data.
func decodePatterns(data []byte) ([]ports.Pattern, error) {
	if len(data) < 4 {
		return nil, fmt.Errorf("pattern set too short: %d bytes", len(data))
	}

	offset := 0
	count := binary.LittleEndian.Uint32(data[offset:])
	offset += 4

	// Each pattern needs at least 6 header bytes.
	if uint64(count)*6 > uint64(len(data)-offset) {
		return nil, fmt.Errorf("pattern count %d exceeds data size %d", count, len(data))
	}
	patterns := make([]ports.Pattern, 0, count)

	for i := uint32(0); i < count; i++ {
		if offset+2 > len(data) {
			return nil, fmt.Errorf("truncated at pattern %d name length (offset %d)", i, offset)
		}
		nameLen := int(binary.LittleEndian.Uint16(data[offset:]))
		offset += 2

		if offset+nameLen > len(data) {
			return nil, fmt.Errorf("truncated at pattern %d name (offset %d, need %d)", i, offset, nameLen)
		}
		name := string(data[offset : offset+nameLen])
		offset += nameLen

		if offset+4 > len(data) {
			return nil, fmt.Errorf("truncated at pattern %d value length (offset %d)", i, offset)
		}
		valueLen := uint64(binary.LittleEndian.Uint32(data[offset:]))
		offset += 4

		if valueLen > uint64(len(data)-offset) {
			return nil, fmt.Errorf("truncated at pattern %d value (offset %d, need %d)", i, offset, valueLen)
		}
		value := string(data[offset : offset+int(valueLen)])
		offset += int(valueLen)

		patterns = append(patterns, ports.Pattern{Name: name, Value: value})
	}

	if offset != len(data) {
		return nil, fmt.Errorf("trailing %d bytes after %d patterns", len(data)-offset, count)
	}
	return patterns, nil
}

// encodeGob encodes a value using gob. Used for the small per-set
// bookkeeping records, which do not need a custom binary format.
func encodeGob(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// decodeGob decodes gob-encoded data into target. Target must be a pointer.
func decodeGob(data []byte, target any) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(target)
}

// Package jedec reads and writes JEDEC fuse map files (JESD3).
//
// A Map holds the target device name, the fuse count, the default fuse
// state and the fuse bits themselves. Fuse n lives in byte n/8, bit n%8;
// unused bits of the last byte are always zero, so the fuse checksum is the
// plain 16-bit sum of the fuse bytes.
package jedec

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrSyntax is returned for malformed files.
	ErrSyntax = errors.New("jedec: syntax error")

	// ErrInvalid is returned for out-of-range arguments and for setting the
	// fuse count twice.
	ErrInvalid = errors.New("jedec: invalid argument")

	// ErrAddress is returned when a fuse address is beyond the fuse count.
	ErrAddress = errors.New("jedec: fuse address out of range")

	// ErrChecksum is returned by Verify when a recorded checksum disagrees
	// with the content.
	ErrChecksum = errors.New("jedec: checksum mismatch")
)

// MaxDevice is the maximum length of a device name in bytes.
const MaxDevice = 31

// MaxFuses is the largest fuse count a map accepts.
const MaxFuses = 1 << 24

// FieldError reports a field that could not be applied.
type FieldError struct {
	Field byte
	Text  string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("field %c %q: %v", e.Field, short(e.Text), e.Err)
}

func (e *FieldError) Unwrap() error { return e.Err }

func short(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > 24 {
		return s[:24] + "..."
	}
	return s
}

// Map is a fuse map.
type Map struct {
	device string
	def    int
	count  int
	sized  bool
	fuses  []byte

	// checksums found by Decode; zero means absent
	wantFuse uint16
	wantXmit uint16
	gotXmit  uint16
}

// New returns an empty map for device.
func New(device string) *Map {
	m := &Map{}
	m.SetDevice(device)
	return m
}

// Device returns the device name, or "" when unset.
func (m *Map) Device() string { return m.device }

// SetDevice sets the device name, truncated to MaxDevice bytes.
func (m *Map) SetDevice(device string) {
	if len(device) > MaxDevice {
		device = device[:MaxDevice]
	}
	m.device = device
}

// Default returns the default fuse state.
func (m *Map) Default() int { return m.def }

// Count returns the number of fuses.
func (m *Map) Count() int { return m.count }

// Fuses returns the packed fuse bits. The slice aliases the map.
func (m *Map) Fuses() []byte { return m.fuses }

// SetCount allocates count fuses, all blown to zero. It can be called once
// and count must not exceed MaxFuses.
func (m *Map) SetCount(count int) error {
	if m.sized || count < 0 || count > MaxFuses {
		return ErrInvalid
	}
	m.fuses = make([]byte, (count+7)/8)
	m.count = count
	m.sized = true
	return nil
}

// SetDefault sets the default fuse state and resets every fuse to it.
// The fuse count must already be set.
func (m *Map) SetDefault(def int) error {
	if !m.sized || def < 0 || def > 1 {
		return ErrInvalid
	}
	m.def = def

	full, tail := m.count/8, m.count%8
	mask := byte(0)
	if def != 0 {
		mask = 0xff
	}
	for i := 0; i < full; i++ {
		m.fuses[i] = mask
	}
	if tail != 0 {
		m.fuses[full] = mask >> (8 - tail)
	}
	return nil
}

// Fuse returns the state of the fuse at addr.
func (m *Map) Fuse(addr int) (bool, error) {
	if addr < 0 || addr >= m.count {
		return false, ErrAddress
	}
	return m.fuses[addr/8]&(1<<(addr%8)) != 0, nil
}

// SetFuse sets the state of the fuse at addr.
func (m *Map) SetFuse(addr int, on bool) error {
	if addr < 0 || addr >= m.count {
		return ErrAddress
	}
	bit := byte(1) << (addr % 8)
	if on {
		m.fuses[addr/8] |= bit
	} else {
		m.fuses[addr/8] &^= bit
	}
	return nil
}

// Checksum returns the fuse checksum: the sum of the fuse bytes mod 2^16.
func (m *Map) Checksum() uint16 {
	var sum uint16
	for _, b := range m.fuses {
		sum += uint16(b)
	}
	return sum
}

// Recorded returns the fuse and transmission checksums found by Decode.
func (m *Map) Recorded() (fuse, xmit uint16) { return m.wantFuse, m.wantXmit }

// Verify checks the checksums recorded by Decode. A zero checksum in the
// file means "not computed" and is not checked.
func (m *Map) Verify() error {
	if m.wantFuse != 0 {
		if got := m.Checksum(); got != m.wantFuse {
			return fmt.Errorf("%w: fuse checksum %04X, file says %04X", ErrChecksum, got, m.wantFuse)
		}
	}
	if m.wantXmit != 0 && m.gotXmit != m.wantXmit {
		return fmt.Errorf("%w: transmission checksum %04X, file says %04X", ErrChecksum, m.gotXmit, m.wantXmit)
	}
	return nil
}

package jedec

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

const (
	stx = 0x02
	etx = 0x03

	rowFuses = 64
)

// Decode reads a fuse map. Everything before STX is ignored; fields are
// read up to ETX. The transmission checksum after ETX is optional.
func Decode(r io.Reader) (*Map, error) {
	br := bufio.NewReader(r)

	if _, err := br.ReadBytes(stx); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: missing STX", ErrSyntax)
		}
		return nil, err
	}
	frame, err := br.ReadBytes(etx)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: missing ETX", ErrSyntax)
		}
		return nil, err
	}

	m := &Map{}
	if err := m.parse(frame[:len(frame)-1]); err != nil {
		return nil, err
	}

	m.gotXmit = stx
	for _, b := range frame {
		m.gotXmit += uint16(b)
	}
	m.wantXmit = readXmit(br)
	return m, nil
}

func (m *Map) parse(frame []byte) error {
	seenJ := false
	for i := 0; i < len(frame); {
		c := frame[i]
		if isSpace(c) {
			i++
			continue
		}
		end := bytes.IndexByte(frame[i+1:], '*')
		if end < 0 {
			return &FieldError{Field: c, Text: string(frame[i+1:]), Err: fmt.Errorf("%w: unterminated field", ErrSyntax)}
		}
		body := string(frame[i+1 : i+1+end])
		i += end + 2

		var err error
		switch c {
		case 'J':
			if !seenJ {
				if dev, ok := strings.CutPrefix(body, "EDEC file for:"); ok {
					m.setDeviceField(dev)
				}
				seenJ = true
			}
		case 'N':
			if f := strings.Fields(body); len(f) >= 2 && f[0] == "DEVICE" {
				m.SetDevice(f[1])
			}
		case 'Q':
			err = m.parseCount(body)
		case 'F':
			err = m.parseDefault(body)
		case 'L':
			err = m.parseFuses(body)
		case 'C':
			m.parseChecksum(body)
		}
		if err != nil {
			return &FieldError{Field: c, Text: body, Err: err}
		}
	}
	return nil
}

func (m *Map) setDeviceField(s string) {
	if f := strings.Fields(s); len(f) > 0 {
		m.SetDevice(f[0])
	}
}

// parseCount handles QF<n>. Other Q fields (QP, QV) are ignored.
func (m *Map) parseCount(body string) error {
	rest, ok := strings.CutPrefix(body, "F")
	if !ok {
		return nil
	}
	n, _, ok := leadingNumber(strings.TrimLeft(rest, " \t\r\n"))
	if !ok {
		return ErrSyntax
	}
	if n > MaxFuses {
		return fmt.Errorf("%w: fuse count %d exceeds %d", ErrSyntax, n, MaxFuses)
	}
	if err := m.SetCount(n); err != nil {
		return fmt.Errorf("%w: fuse count already set", ErrSyntax)
	}
	return nil
}

func (m *Map) parseDefault(body string) error {
	d, err := strconv.Atoi(strings.TrimSpace(body))
	if err != nil {
		return ErrSyntax
	}
	if !m.sized {
		return fmt.Errorf("%w: default before fuse count", ErrSyntax)
	}
	if err := m.SetDefault(d); err != nil {
		return fmt.Errorf("%w: default must be 0 or 1", ErrSyntax)
	}
	return nil
}

// parseFuses handles L<addr> <bits>. Only '0' and '1' consume addresses.
func (m *Map) parseFuses(body string) error {
	if !m.sized {
		return fmt.Errorf("%w: fuse list before fuse count", ErrSyntax)
	}
	addr, rest, ok := leadingNumber(body)
	if !ok {
		return ErrSyntax
	}
	for i := 0; i < len(rest); i++ {
		switch rest[i] {
		case '0', '1':
			if err := m.SetFuse(addr, rest[i] == '1'); err != nil {
				return fmt.Errorf("%w: %d", err, addr)
			}
			addr++
		}
	}
	return nil
}

// parseChecksum records a C<hex> field. A field that is not a hex number
// (a design specification line starting with C) is ignored.
func (m *Map) parseChecksum(body string) {
	s := strings.TrimSpace(body)
	if len(s) == 0 || len(s) > 4 {
		return
	}
	if v, err := strconv.ParseUint(s, 16, 16); err == nil {
		m.wantFuse = uint16(v)
	}
}

func readXmit(br *bufio.Reader) uint16 {
	var digits [4]byte
	n := 0
	for n < len(digits) {
		c, err := br.ReadByte()
		if err != nil || !isHex(c) {
			break
		}
		digits[n] = c
		n++
	}
	if n != len(digits) {
		return 0
	}
	v, _ := strconv.ParseUint(string(digits[:]), 16, 16)
	return uint16(v)
}

func leadingNumber(s string) (int, string, bool) {
	i := 0
	for i < len(s) && '0' <= s[i] && s[i] <= '9' {
		i++
	}
	if i == 0 {
		return 0, s, false
	}
	n, err := strconv.Atoi(s[:i])
	if err != nil {
		return 0, s, false
	}
	return n, s[i:], true
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\v' || c == '\f' || c == '\r'
}

func isHex(c byte) bool {
	return '0' <= c && c <= '9' || 'a' <= c && c <= 'f' || 'A' <= c && c <= 'F'
}

// Encode writes the map with fuse rows of 64 bits, the fuse checksum and
// the transmission checksum.
func (m *Map) Encode(w io.Writer) error {
	var frame bytes.Buffer

	fmt.Fprintf(&frame, "%cQF%d*\nF%d*\n", stx, m.count, m.def)
	if m.device != "" {
		fmt.Fprintf(&frame, "N DEVICE %s*\n", m.device)
	}
	row := make([]byte, 0, rowFuses)
	for addr := 0; addr < m.count; addr += rowFuses {
		end := min(addr+rowFuses, m.count)
		row = row[:0]
		for i := addr; i < end; i++ {
			bit := byte('0')
			if m.fuses[i/8]&(1<<(i%8)) != 0 {
				bit = '1'
			}
			row = append(row, bit)
		}
		fmt.Fprintf(&frame, "L%06d %s*\n", addr, row)
	}
	fmt.Fprintf(&frame, "C%04X*\n%c", m.Checksum(), etx)

	var xmit uint16
	for _, b := range frame.Bytes() {
		xmit += uint16(b)
	}
	fmt.Fprintf(&frame, "%04X\n", xmit)

	_, err := w.Write(frame.Bytes())
	return err
}

// Load decodes the fuse map file at path.
func Load(path string) (*Map, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	m, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// Save writes the map to path.
func (m *Map) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := m.Encode(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

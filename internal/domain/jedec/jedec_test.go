package jedec

import (
	"bytes"
	"fmt"
	"math"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Map
// =============================================================================

func TestMap_SetCountOnce(t *testing.T) {
	m := New("")
	require.NoError(t, m.SetCount(20))
	assert.Equal(t, 20, m.Count())
	assert.Len(t, m.Fuses(), 3)
	assert.ErrorIs(t, m.SetCount(30), ErrInvalid)
	assert.Equal(t, 20, m.Count())
}

func TestMap_SetCountBounded(t *testing.T) {
	assert.ErrorIs(t, New("").SetCount(MaxFuses+1), ErrInvalid)
	assert.ErrorIs(t, New("").SetCount(math.MaxInt), ErrInvalid)
	assert.ErrorIs(t, New("").SetCount(-1), ErrInvalid)

	m := New("")
	require.NoError(t, m.SetCount(MaxFuses))
	assert.Len(t, m.Fuses(), MaxFuses/8)
}

func TestMap_SetDefaultRequiresCount(t *testing.T) {
	m := New("")
	assert.ErrorIs(t, m.SetDefault(1), ErrInvalid)

	require.NoError(t, m.SetCount(12))
	assert.ErrorIs(t, m.SetDefault(2), ErrInvalid)
	assert.ErrorIs(t, m.SetDefault(-1), ErrInvalid)
}

func TestMap_SetDefaultMasksTail(t *testing.T) {
	m := New("")
	require.NoError(t, m.SetCount(12))
	require.NoError(t, m.SetDefault(1))
	assert.Equal(t, []byte{0xff, 0x0f}, m.Fuses())
	assert.Equal(t, 1, m.Default())

	require.NoError(t, m.SetDefault(0))
	assert.Equal(t, []byte{0x00, 0x00}, m.Fuses())
}

func TestMap_FuseAddressing(t *testing.T) {
	m := New("")
	require.NoError(t, m.SetCount(10))

	require.NoError(t, m.SetFuse(0, true))
	require.NoError(t, m.SetFuse(9, true))
	assert.Equal(t, []byte{0x01, 0x02}, m.Fuses())

	on, err := m.Fuse(9)
	require.NoError(t, err)
	assert.True(t, on)

	require.NoError(t, m.SetFuse(9, false))
	on, _ = m.Fuse(9)
	assert.False(t, on)

	assert.ErrorIs(t, m.SetFuse(10, true), ErrAddress)
	_, err = m.Fuse(-1)
	assert.ErrorIs(t, err, ErrAddress)
}

func TestMap_DeviceTruncated(t *testing.T) {
	m := New(strings.Repeat("x", 40))
	assert.Len(t, m.Device(), MaxDevice)
}

func TestMap_Checksum(t *testing.T) {
	m := New("")
	require.NoError(t, m.SetCount(24))
	require.NoError(t, m.SetDefault(1))
	assert.Equal(t, uint16(3*0xff), m.Checksum())
}

// =============================================================================
// Codec
// =============================================================================

func sample(t *testing.T) *Map {
	t.Helper()
	m := New("GAL16V8")
	require.NoError(t, m.SetCount(10))
	require.NoError(t, m.SetDefault(0))
	require.NoError(t, m.SetFuse(0, true))
	require.NoError(t, m.SetFuse(9, true))
	return m
}

func TestEncode_Layout(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, sample(t).Encode(&buf))

	want := "\x02QF10*\nF0*\nN DEVICE GAL16V8*\nL000000 1000000001*\nC0003*\n\x030AF2\n"
	assert.Equal(t, want, buf.String())
}

func TestEncode_EmptyMap(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, New("").Encode(&buf))
	assert.Equal(t, "\x02QF0*\nF0*\nC0000*\n\x0302E1\n", buf.String())
}

func TestEncode_RowsOf64(t *testing.T) {
	m := New("")
	require.NoError(t, m.SetCount(130))
	require.NoError(t, m.SetDefault(1))

	var buf bytes.Buffer
	require.NoError(t, m.Encode(&buf))
	out := buf.String()

	assert.Contains(t, out, "L000000 "+strings.Repeat("1", 64)+"*\n")
	assert.Contains(t, out, "L000064 "+strings.Repeat("1", 64)+"*\n")
	assert.Contains(t, out, "L000128 11*\n")
}

func TestDecode_RoundTrip(t *testing.T) {
	m := sample(t)
	var buf bytes.Buffer
	require.NoError(t, m.Encode(&buf))

	got, err := Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, "GAL16V8", got.Device())
	assert.Equal(t, 10, got.Count())
	assert.Equal(t, m.Fuses(), got.Fuses())
	assert.NoError(t, got.Verify())

	fuse, xmit := got.Recorded()
	assert.Equal(t, uint16(0x0003), fuse)
	assert.Equal(t, uint16(0x0AF2), xmit)
}

func TestDecode_TypicalFile(t *testing.T) {
	text := "header ignored\n\x02\nCUPL(WM) 5.0a design notes\n*\n" +
		"JEDEC file for: P22V10\n*QP24*\nQF16*\nQV0*\nF1*\n" +
		"L0008 0 1 0 x 0*\nG0*\nC01F1*\n\x03"

	m, err := Decode(strings.NewReader(text))
	require.NoError(t, err)

	assert.Equal(t, "P22V10", m.Device(), "J field names the device")
	assert.Equal(t, 16, m.Count())
	assert.Equal(t, 1, m.Default())
	// fuses 8..11 = 0,1,0,0; everything else defaults to 1
	assert.Equal(t, []byte{0xff, 0xf2}, m.Fuses())
	assert.Equal(t, uint16(0xff+0xf2), m.Checksum())
	assert.NoError(t, m.Verify())
}

func TestDecode_NoteDeviceOverridesJ(t *testing.T) {
	m, err := Decode(strings.NewReader("\x02JEDEC file for: A*N DEVICE B*N note*\x03"))
	require.NoError(t, err)
	assert.Equal(t, "B", m.Device())
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name string
		text string
		is   error
	}{
		{"missing STX", "QF10*F0*", ErrSyntax},
		{"missing ETX", "\x02QF10*F0*", ErrSyntax},
		{"unterminated field", "\x02QF10*F0\x03", ErrSyntax},
		{"fuses before count", "\x02L0 101*\x03", ErrSyntax},
		{"default before count", "\x02F0*QF8*\x03", ErrSyntax},
		{"bad default", "\x02QF8*F7*\x03", ErrSyntax},
		{"bad count", "\x02QFx*\x03", ErrSyntax},
		{"count twice", "\x02QF8*QF9*\x03", ErrSyntax},
		{"bad address", "\x02QF8*L 101*\x03", ErrSyntax},
		{"fuse beyond count", "\x02QF4*L2 111*\x03", ErrAddress},
		{"count at int limit", "\x02QF9223372036854775807*\x03", ErrSyntax},
		{"count above limit", "\x02QF100000000000*\x03", ErrSyntax},
		{"count beyond int", "\x02QF99999999999999999999*\x03", ErrSyntax},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.text))
			assert.ErrorIs(t, err, tt.is)
		})
	}
}

func TestDecode_FieldError(t *testing.T) {
	_, err := Decode(strings.NewReader("\x02QF4*L2 111*\x03"))
	var fe *FieldError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, byte('L'), fe.Field)
	assert.Equal(t, "2 111", fe.Text)
}

func TestVerify_Mismatch(t *testing.T) {
	m, err := Decode(strings.NewReader("\x02QF8*F1*C0001*\x03"))
	require.NoError(t, err)
	assert.ErrorIs(t, m.Verify(), ErrChecksum)

	m, err = Decode(strings.NewReader("\x02QF8*F1*C0000*\x03FFFF"))
	require.NoError(t, err)
	assert.ErrorIs(t, m.Verify(), ErrChecksum, "transmission checksum is checked")

	m, err = Decode(strings.NewReader("\x02QF8*F1*C0000*\x030000"))
	require.NoError(t, err)
	assert.NoError(t, m.Verify(), "zero checksums are not checked")
}

func TestLoadSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.jed")
	require.NoError(t, sample(t).Save(path))

	m, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, sample(t).Fuses(), m.Fuses())
	assert.NoError(t, m.Verify())

	_, err = Load(filepath.Join(t.TempDir(), "absent.jed"))
	assert.Error(t, err)
}

func ExampleMap_Encode() {
	m := New("G22V10")
	_ = m.SetCount(4)
	_ = m.SetDefault(0)
	_ = m.SetFuse(1, true)

	var buf bytes.Buffer
	_ = m.Encode(&buf)
	fmt.Printf("%q\n", buf.String())
	// Output: "\x02QF4*\nF0*\nN DEVICE G22V10*\nL000000 0100*\nC0002*\n\x03093C\n"
}

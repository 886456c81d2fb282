package qtbuf

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFourCCMatchesASCIIByteOrder(t *testing.T) {
	magic := FourCC("ping")
	b := New()
	b.WriteMagic(magic)
	out := b.Finalize()
	require.Equal(t, []byte{0x08, 0x00, 0x00, 0x00, 0x70, 0x69, 0x6E, 0x67}, out)
	require.Equal(t, "ping", FourCCString(magic))
}

func TestFinalizePatchesLengthHeader(t *testing.T) {
	b := New()
	b.WriteMagic(FourCC("sync"))
	b.WriteU64(0xDEADBEEF)
	out := b.Finalize()
	require.Len(t, out, 16)
	got := Wrap(out)
	n, err := got.ReadU32()
	require.NoError(t, err)
	require.EqualValues(t, len(out), n)
}

func TestNestedReadStartsAtOffsetFour(t *testing.T) {
	inner := NewWithMagic(FourCC("datv"))
	inner.WriteU8(0x42)
	innerBytes := inner.Finalize()

	outer := New()
	outer.Write(innerBytes)
	outerBytes := outer.Finalize()

	w := Wrap(outerBytes)
	_, err := w.ReadU32() // outer length
	require.NoError(t, err)
	nested, err := w.NestedRead(len(innerBytes))
	require.NoError(t, err)
	require.Equal(t, 4, nested.Pos())
	require.EqualValues(t, len(innerBytes), binary.LittleEndian.Uint32(nested.Bytes()[0:4]))

	require.NoError(t, nested.ReadMagic(FourCC("datv")))
	v, err := nested.ReadU8()
	require.NoError(t, err)
	require.EqualValues(t, 0x42, v)
}

func TestReadMagicMismatch(t *testing.T) {
	b := NewWithMagic(FourCC("ping"))
	out := b.Finalize()
	w := Wrap(out)
	_, err := w.ReadU32()
	require.NoError(t, err)
	err = w.ReadMagic(FourCC("sync"))
	require.Error(t, err)
}

func TestReadBytesUnexpectedEOF(t *testing.T) {
	w := Wrap([]byte{0x01, 0x02})
	_, err := w.ReadBytes(4)
	require.Error(t, err)
}

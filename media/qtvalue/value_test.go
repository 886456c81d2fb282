package qtvalue

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bugVanisher/qtstream/media/qtbuf"
)

func roundTrip(t *testing.T, v Value) Value {
	t.Helper()
	buf, err := Encode(v)
	require.NoError(t, err)
	out := buf.Finalize()
	w := qtbuf.Wrap(out)
	got, err := Parse(w)
	require.NoError(t, err)
	return got
}

func TestRoundTripStringKey(t *testing.T) {
	v := StringKey("deviceName")
	got := roundTrip(t, v)
	require.True(t, Equal(v, got))
}

func TestRoundTripBoolean(t *testing.T) {
	got := roundTrip(t, Bool(true))
	require.True(t, Equal(Bool(true), got))
}

func TestRoundTripUInt32(t *testing.T) {
	got := roundTrip(t, UInt32(0xCAFEBABE))
	require.True(t, Equal(UInt32(0xCAFEBABE), got))
}

func TestRoundTripUInt64(t *testing.T) {
	got := roundTrip(t, UInt64(0x1122334455667788))
	require.True(t, Equal(UInt64(0x1122334455667788), got))
}

func TestRoundTripFloat(t *testing.T) {
	got := roundTrip(t, Float(0.073))
	require.True(t, Equal(Float(0.073), got))
}

func TestRoundTripKeyValuePair(t *testing.T) {
	v := Pair(StringKey("Width"), Float(1920))
	got := roundTrip(t, v)
	require.True(t, Equal(v, got))
}

func TestRoundTripDictionary(t *testing.T) {
	v := Dict(
		Pair(StringKey("Valeria"), Bool(true)),
		Pair(StringKey("HEVCDecoderSupports444"), Bool(true)),
		Pair(StringKey("DisplaySize"), Dict(
			Pair(StringKey("Width"), Float(1920)),
			Pair(StringKey("Height"), Float(1200)),
		)),
	)
	got := roundTrip(t, v)
	require.True(t, Equal(v, got))
}

func TestNumberSubtype5AliasesUInt32(t *testing.T) {
	b := qtbuf.NewWithMagic(MagicNumber)
	b.WriteU8(NumberSubtypeUInt32Alt)
	b.WriteU32(7)
	out := b.Finalize()

	got, err := Parse(qtbuf.Wrap(out))
	require.NoError(t, err)
	require.True(t, Equal(UInt32(7), got))
}

func TestDictionaryTerminatesAtEndOfNestedBuffer(t *testing.T) {
	// An empty dictionary must parse successfully: zero entries, no error.
	b := qtbuf.NewWithMagic(MagicDictionary)
	out := b.Finalize()
	got, err := Parse(qtbuf.Wrap(out))
	require.NoError(t, err)
	require.Equal(t, TagDictionary, got.Tag)
	require.Empty(t, got.Dict)
}

func TestInvalidBooleanByteIsInvalidValue(t *testing.T) {
	b := qtbuf.NewWithMagic(MagicBoolean)
	b.WriteU8(7)
	out := b.Finalize()
	_, err := Parse(qtbuf.Wrap(out))
	require.Error(t, err)
}

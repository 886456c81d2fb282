package sink

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bugVanisher/qtstream/media/coremedia"
)

func lengthPrefixed(units ...[]byte) []byte {
	var out []byte
	for _, u := range units {
		var lenBuf [4]byte
		binary.BigEndian.PutUint32(lenBuf[:], uint32(len(u)))
		out = append(out, lenBuf[:]...)
		out = append(out, u...)
	}
	return out
}

func TestWriteSampleEmitsStartCodesForEachNALU(t *testing.T) {
	var buf bytes.Buffer
	w := New(&buf)

	nalu1 := []byte{0x01, 0x02}
	nalu2 := []byte{0x03, 0x04, 0x05}

	sample := &coremedia.SampleBuffer{
		MediaType:  coremedia.MediaTypeVideo,
		SampleData: lengthPrefixed(nalu1, nalu2),
	}

	require.NoError(t, w.WriteSample(sample))

	want := append(append([]byte{0, 0, 0, 1}, nalu1...), append([]byte{0, 0, 0, 1}, nalu2...)...)
	require.Equal(t, want, buf.Bytes())
}

func TestWriteSampleSkipsAudio(t *testing.T) {
	var buf bytes.Buffer
	w := New(&buf)

	sample := &coremedia.SampleBuffer{MediaType: coremedia.MediaTypeSound, SampleData: []byte{1, 2, 3}}
	require.NoError(t, w.WriteSample(sample))
	require.Empty(t, buf.Bytes())
}

func TestWriteSampleRejectsTruncatedLengthPrefix(t *testing.T) {
	var buf bytes.Buffer
	w := New(&buf)

	sample := &coremedia.SampleBuffer{MediaType: coremedia.MediaTypeVideo, SampleData: []byte{0, 0, 0}}
	require.Error(t, w.WriteSample(sample))
}

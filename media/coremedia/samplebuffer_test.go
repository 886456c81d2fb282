package coremedia

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bugVanisher/qtstream/media/qtbuf"
)

func buildMinimalVideoSbuf(t *testing.T, naluPayload []byte) []byte {
	t.Helper()

	sdat := qtbuf.NewWithMagic(magicSdat)
	frame := qtbuf.New()
	frame.WriteU32(uint32(len(naluPayload)))
	sdat.Write(frame.Bytes()[4:])
	sdat.Write(naluPayload)

	nsmp := qtbuf.NewWithMagic(magicNsmp)
	nsmp.WriteU32(1)

	sbuf := qtbuf.NewWithMagic(magicSbuf)
	sbuf.Write(sdat.Finalize())
	sbuf.Write(nsmp.Finalize())

	return sbuf.Finalize()
}

func TestParseSampleBufferVideoMinimal(t *testing.T) {
	payload := []byte{0x41, 0x42, 0x43}
	raw := buildMinimalVideoSbuf(t, payload)

	w := qtbuf.Wrap(raw)
	sample, err := ParseSampleBuffer(w, MediaTypeVideo)
	require.NoError(t, err)
	require.Equal(t, MediaTypeVideo, sample.MediaType)
	require.EqualValues(t, 1, sample.NumSamples)

	require.GreaterOrEqual(t, len(sample.SampleData), 4+len(payload))
	got := sample.SampleData[4 : 4+len(payload)]
	require.Equal(t, payload, got)
}

func TestParseSampleBufferSkipsUnknownChild(t *testing.T) {
	unknown := qtbuf.NewWithMagic(qtbuf.FourCC("????"))
	unknown.WriteU8(0xAA)

	sbuf := qtbuf.NewWithMagic(magicSbuf)
	sbuf.Write(unknown.Finalize())
	raw := sbuf.Finalize()

	w := qtbuf.Wrap(raw)
	sample, err := ParseSampleBuffer(w, MediaTypeVideo)
	require.NoError(t, err)
	require.Equal(t, MediaTypeVideo, sample.MediaType)
}

package coremedia

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bugVanisher/qtstream/media/codec/avcc"
	"github.com/bugVanisher/qtstream/media/qtbuf"
	"github.com/bugVanisher/qtstream/media/qtvalue"
)

func videoFormatDescriptorWithAVCC(sps, pps []byte) *FormatDescriptor {
	record := avcc.Record{
		ProfileIndication:    0x42,
		ProfileCompatibility: 0,
		LevelIndication:      0x1e,
		LengthSizeMinusOne:   3,
		SPS:                  [][]byte{sps},
		PPS:                  [][]byte{pps},
	}
	avccData := qtvalue.Dict(
		qtvalue.Pair(qtvalue.IdxKey(idxKeyAVCC), qtvalue.Data(record.Marshal())),
	)
	ext := qtvalue.Pair(qtvalue.IdxKey(idxKeyAVCExtension), avccData)

	return &FormatDescriptor{
		MediaType:   MediaTypeVideo,
		VideoWidth:  1920,
		VideoHeight: 1080,
		Codec:       CodecAVC1,
		Extensions:  []qtvalue.Value{ext},
	}
}

func TestFormatDescriptorAVCCExtraction(t *testing.T) {
	sps := []byte{0x67, 0x42, 0x00, 0x1e, 0x01, 0x02, 0x03}
	pps := []byte{0x68, 0xce, 0x3c, 0x80}
	fd := videoFormatDescriptorWithAVCC(sps, pps)

	buf, err := fd.EncodeQT()
	require.NoError(t, err)
	out := buf.Finalize()

	w := qtbuf.Wrap(out)
	lenField, err := w.ReadU32()
	require.NoError(t, err)
	require.EqualValues(t, len(out), lenField)
	require.NoError(t, w.ReadMagic(qtvalue.MagicFormatDesc))

	got, err := ParseFormatDescriptor(w)
	require.NoError(t, err)

	require.Equal(t, MediaTypeVideo, got.MediaType)
	require.EqualValues(t, 1920, got.VideoWidth)
	require.EqualValues(t, 1080, got.VideoHeight)
	require.Equal(t, CodecAVC1, got.Codec)
	require.Len(t, got.SPS(), 7)
	require.Len(t, got.PPS(), 4)
	require.Equal(t, sps, got.SPS())
	require.Equal(t, pps, got.PPS())
}

func TestAudioFormatDescriptorRoundTrip(t *testing.T) {
	asd := DefaultAudioStreamDescription()
	fd := &FormatDescriptor{MediaType: MediaTypeSound, AudioDescription: &asd}

	buf, err := fd.EncodeQT()
	require.NoError(t, err)
	out := buf.Finalize()

	w := qtbuf.Wrap(out)
	_, err = w.ReadU32()
	require.NoError(t, err)
	require.NoError(t, w.ReadMagic(qtvalue.MagicFormatDesc))

	got, err := ParseFormatDescriptor(w)
	require.NoError(t, err)
	require.Equal(t, MediaTypeSound, got.MediaType)
	require.Equal(t, asd.SampleRate, got.AudioDescription.SampleRate)
	require.Equal(t, asd.FormatID, got.AudioDescription.FormatID)
	require.Equal(t, asd.ChannelsPerFrame, got.AudioDescription.ChannelsPerFrame)
	require.Equal(t, asd.BitsPerChannel, got.AudioDescription.BitsPerChannel)
}

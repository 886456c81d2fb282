package avcc

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUnmarshalExtractsExactSPSPPSLengths(t *testing.T) {
	sps := []byte{0x67, 0x42, 0x00, 0x1e, 0xab, 0xcd, 0xef}
	pps := []byte{0x68, 0xce, 0x3c, 0x80}
	require.Len(t, sps, 7)
	require.Len(t, pps, 4)

	r := Record{
		ProfileIndication:    0x42,
		ProfileCompatibility: 0x00,
		LevelIndication:      0x1e,
		LengthSizeMinusOne:   3,
		SPS:                  [][]byte{sps},
		PPS:                  [][]byte{pps},
	}
	raw := r.Marshal()

	var got Record
	n, err := got.Unmarshal(raw)
	require.NoError(t, err)
	require.Equal(t, len(raw), n)
	require.Len(t, got.SPS[0], 7)
	require.Len(t, got.PPS[0], 4)
	require.Equal(t, sps, got.SPS[0])
	require.Equal(t, pps, got.PPS[0])
}

func TestUnmarshalTruncatedIsInvalid(t *testing.T) {
	var r Record
	_, err := r.Unmarshal([]byte{1, 2, 3})
	require.Error(t, err)
}

func TestSplitNALUsHandlesMultipleFrames(t *testing.T) {
	data := append(append([]byte{0, 0, 0, 2}, 0xAA, 0xBB), append([]byte{0, 0, 0, 1}, 0xCC)...)
	nalus, err := SplitNALUs(data)
	require.NoError(t, err)
	require.Len(t, nalus, 2)
	require.Equal(t, []byte{0xAA, 0xBB}, nalus[0])
	require.Equal(t, []byte{0xCC}, nalus[1])
}

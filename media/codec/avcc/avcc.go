// Package avcc implements the AVCDecoderConfigurationRecord codec used to
// carry H.264 SPS/PPS inside a QuickTime Stream FormatDescriptor's video
// extensions. It is adapted from this codebase's existing H.264 parser,
// trimmed to the container-level record (no bitstream/SEI parsing, which is
// out of scope here — decoding the video itself is a non-goal).
package avcc

import (
	"encoding/binary"
	"fmt"
)

// ErrRecordInvalid is returned when an AVCDecoderConfigurationRecord is
// truncated or malformed.
var ErrRecordInvalid = fmt.Errorf("avcc: decoder configuration record invalid")

// Record is the AVCDecoderConfigurationRecord: version/profile/level header,
// NALU length size, then length-prefixed SPS and PPS arrays.
type Record struct {
	ProfileIndication    uint8
	ProfileCompatibility uint8
	LevelIndication      uint8
	LengthSizeMinusOne   uint8
	SPS                  [][]byte
	PPS                  [][]byte
}

// Unmarshal decodes b per §3: version(u8), profile(u8), compat(u8),
// level(u8), (nalu_len_minus1 & 0x3)+1, (sps_count & 0x1F), then for each SPS
// a [u16-be len][len bytes], then pps_count (& 0x1F) and the same shape for
// PPS.
func (r *Record) Unmarshal(b []byte) (n int, err error) {
	if len(b) < 6 {
		return 0, ErrRecordInvalid
	}

	r.ProfileIndication = b[1]
	r.ProfileCompatibility = b[2]
	r.LevelIndication = b[3]
	r.LengthSizeMinusOne = b[4] & 0x03
	spsCount := int(b[5] & 0x1f)
	n = 6

	for i := 0; i < spsCount; i++ {
		if len(b) < n+2 {
			return 0, ErrRecordInvalid
		}
		spsLen := int(binary.BigEndian.Uint16(b[n:]))
		n += 2
		if len(b) < n+spsLen {
			return 0, ErrRecordInvalid
		}
		r.SPS = append(r.SPS, b[n:n+spsLen])
		n += spsLen
	}

	if len(b) < n+1 {
		return 0, ErrRecordInvalid
	}
	ppsCount := int(b[n] & 0x1f)
	n++

	for i := 0; i < ppsCount; i++ {
		if len(b) < n+2 {
			return 0, ErrRecordInvalid
		}
		ppsLen := int(binary.BigEndian.Uint16(b[n:]))
		n += 2
		if len(b) < n+ppsLen {
			return 0, ErrRecordInvalid
		}
		r.PPS = append(r.PPS, b[n:n+ppsLen])
		n += ppsLen
	}

	return n, nil
}

// Len reports the marshaled byte length of r.
func (r Record) Len() int {
	n := 6
	for _, sps := range r.SPS {
		n += 2 + len(sps)
	}
	n++ // pps count byte
	for _, pps := range r.PPS {
		n += 2 + len(pps)
	}
	return n
}

// Marshal encodes r per the same layout Unmarshal reads.
func (r Record) Marshal() []byte {
	b := make([]byte, r.Len())
	b[0] = 1
	b[1] = r.ProfileIndication
	b[2] = r.ProfileCompatibility
	b[3] = r.LevelIndication
	b[4] = r.LengthSizeMinusOne | 0xfc
	b[5] = uint8(len(r.SPS)) | 0xe0
	n := 6
	for _, sps := range r.SPS {
		binary.BigEndian.PutUint16(b[n:], uint16(len(sps)))
		n += 2
		n += copy(b[n:], sps)
	}
	b[n] = uint8(len(r.PPS))
	n++
	for _, pps := range r.PPS {
		binary.BigEndian.PutUint16(b[n:], uint16(len(pps)))
		n += 2
		n += copy(b[n:], pps)
	}
	return b
}

// SplitNALUs splits AVCC-framed sample data (a sequence of
// [u32-be len][len bytes] NALUs, as carried in SampleBuffer's 'sdat') into
// individual NALU byte slices.
func SplitNALUs(data []byte) ([][]byte, error) {
	var nalus [][]byte
	for len(data) > 0 {
		if len(data) < 4 {
			return nil, ErrRecordInvalid
		}
		naluLen := int(binary.BigEndian.Uint32(data))
		data = data[4:]
		if len(data) < naluLen {
			return nil, ErrRecordInvalid
		}
		nalus = append(nalus, data[:naluLen])
		data = data[naluLen:]
	}
	return nalus, nil
}

package coremedia

import (
	"github.com/bugVanisher/qtstream/media/qtbuf"
)

// FormatLPCM is the CoreAudio 'lpcm' format identifier.
const FormatLPCM uint32 = 0x6C70636D

// AudioStreamDescription mirrors CoreAudio's AudioStreamBasicDescription: 40
// bytes on the wire, little-endian.
type AudioStreamDescription struct {
	SampleRate       float64
	FormatID         uint32
	FormatFlags      uint32
	BytesPerPacket   uint32
	FramesPerPacket  uint32
	BytesPerFrame    uint32
	ChannelsPerFrame uint32
	BitsPerChannel   uint32
	Reserved         uint32
}

// DefaultAudioStreamDescription is the host-advertised format: 48 kHz LPCM,
// stereo, 16-bit.
func DefaultAudioStreamDescription() AudioStreamDescription {
	return AudioStreamDescription{
		SampleRate:       48000,
		FormatID:         FormatLPCM,
		FormatFlags:      12,
		BytesPerPacket:   1,
		FramesPerPacket:  1,
		BytesPerFrame:    4,
		ChannelsPerFrame: 2,
		BitsPerChannel:   16,
		Reserved:         0,
	}
}

// ParseAudioStreamDescription reads the 40-byte core struct from b. The
// container-embedded form used by 'asbd' packets additionally trails two f64
// repetitions of sample_rate; callers that know they are reading that form
// should discard 16 bytes after this returns.
func ParseAudioStreamDescription(b *qtbuf.Buffer) (AudioStreamDescription, error) {
	var a AudioStreamDescription
	var err error
	if a.SampleRate, err = b.ReadF64(); err != nil {
		return AudioStreamDescription{}, err
	}
	if a.FormatID, err = b.ReadU32(); err != nil {
		return AudioStreamDescription{}, err
	}
	if a.FormatFlags, err = b.ReadU32(); err != nil {
		return AudioStreamDescription{}, err
	}
	if a.BytesPerPacket, err = b.ReadU32(); err != nil {
		return AudioStreamDescription{}, err
	}
	if a.FramesPerPacket, err = b.ReadU32(); err != nil {
		return AudioStreamDescription{}, err
	}
	if a.BytesPerFrame, err = b.ReadU32(); err != nil {
		return AudioStreamDescription{}, err
	}
	if a.ChannelsPerFrame, err = b.ReadU32(); err != nil {
		return AudioStreamDescription{}, err
	}
	if a.BitsPerChannel, err = b.ReadU32(); err != nil {
		return AudioStreamDescription{}, err
	}
	if a.Reserved, err = b.ReadU32(); err != nil {
		return AudioStreamDescription{}, err
	}
	return a, nil
}

// WriteCore appends the 40-byte core struct (no trailing repetitions) to b.
func (a AudioStreamDescription) WriteCore(b *qtbuf.Buffer) {
	b.WriteF64(a.SampleRate)
	b.WriteU32(a.FormatID)
	b.WriteU32(a.FormatFlags)
	b.WriteU32(a.BytesPerPacket)
	b.WriteU32(a.FramesPerPacket)
	b.WriteU32(a.BytesPerFrame)
	b.WriteU32(a.ChannelsPerFrame)
	b.WriteU32(a.BitsPerChannel)
	b.WriteU32(a.Reserved)
}

// AsBuffer returns the 56-byte container-embedded form: the 40-byte core
// struct followed by two trailing f64 copies of SampleRate, as sent inside
// the HPA1 'formats' data value.
func (a AudioStreamDescription) AsBuffer() []byte {
	b := qtbuf.New()
	a.WriteCore(b)
	b.WriteF64(a.SampleRate)
	b.WriteF64(a.SampleRate)
	return b.Bytes()[4:]
}

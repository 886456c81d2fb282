package coremedia

import (
	"github.com/rs/zerolog/log"

	"github.com/bugVanisher/qtstream/common/errs"
	"github.com/bugVanisher/qtstream/media/codec/avcc"
	"github.com/bugVanisher/qtstream/media/qtbuf"
	"github.com/bugVanisher/qtstream/media/qtvalue"
)

// Media-type and child magics, per §3.
var (
	magicMediaType       = qtbuf.FourCC("mdia")
	magicVideoDimension  = qtbuf.FourCC("vdim")
	magicCodec           = qtbuf.FourCC("codc")
	magicExtension       = qtbuf.FourCC("extn")
	magicAudioStreamDesc = qtbuf.FourCC("asbd")
)

// Media types a FormatDescriptor can carry.
var (
	MediaTypeVideo = qtbuf.FourCC("vide")
	MediaTypeSound = qtbuf.FourCC("soun")
)

// CodecAVC1 is the H.264/AVC1 codec FourCC.
var CodecAVC1 = qtbuf.FourCC("avc1")

// idxKeyAVCExtension and idxKeyAVCC locate the AVCC payload inside a video
// FormatDescriptor's extensions, per §3: IdxKey(49) -> Dictionary whose
// first entry is IdxKey(105) -> Data(avcc).
const (
	idxKeyAVCExtension = 49
	idxKeyAVCC         = 105
)

// FormatDescriptor is a media-typed descriptor: audio carries an
// AudioStreamDescription, video carries dimensions, a codec FourCC, and a
// sequence of QT-value extensions (which, for AVC1, embed SPS/PPS).
type FormatDescriptor struct {
	MediaType uint32

	VideoWidth  uint32
	VideoHeight uint32
	Codec       uint32
	Extensions  []qtvalue.Value

	AudioDescription *AudioStreamDescription

	avccSPS [][]byte
	avccPPS [][]byte
}

func init() {
	qtvalue.DecodeFormatDescriptor = func(nested *qtbuf.Buffer) (qtvalue.FormatDescriptorHolder, error) {
		fd, err := ParseFormatDescriptor(nested)
		if err != nil {
			return nil, err
		}
		return fd, nil
	}
}

// SPS returns the first SPS NALU extracted from the AVCC extension, or nil
// if the descriptor carries none.
func (fd *FormatDescriptor) SPS() []byte {
	if len(fd.avccSPS) == 0 {
		return nil
	}
	return fd.avccSPS[0]
}

// PPS returns the first PPS NALU extracted from the AVCC extension, or nil
// if the descriptor carries none.
func (fd *FormatDescriptor) PPS() []byte {
	if len(fd.avccPPS) == 0 {
		return nil
	}
	return fd.avccPPS[0]
}

// ParseFormatDescriptor reads a FormatDescriptor starting at a nested 'mdia'
// packet (b's cursor is positioned right after the enclosing node's own
// magic, e.g. 'fdsc', ready to read 'mdia').
func ParseFormatDescriptor(b *qtbuf.Buffer) (*FormatDescriptor, error) {
	mdiaLen, err := b.ReadU32()
	if err != nil {
		return nil, err
	}
	if err := b.ReadMagic(magicMediaType); err != nil {
		return nil, err
	}
	mdia, err := reinterpretAsNested(b, int(mdiaLen)-8)
	if err != nil {
		return nil, err
	}

	mediaType, err := mdia.ReadU32()
	if err != nil {
		return nil, err
	}

	switch mediaType {
	case MediaTypeSound:
		asbdLen, err := mdia.ReadU32()
		if err != nil {
			return nil, err
		}
		if err := mdia.ReadMagic(magicAudioStreamDesc); err != nil {
			return nil, err
		}
		asbdBody, err := reinterpretAsNested(mdia, int(asbdLen)-8)
		if err != nil {
			return nil, err
		}
		asd, err := ParseAudioStreamDescription(asbdBody)
		if err != nil {
			return nil, err
		}
		return &FormatDescriptor{MediaType: MediaTypeSound, AudioDescription: &asd}, nil

	case MediaTypeVideo:
		vdimLen, err := mdia.ReadU32()
		if err != nil {
			return nil, err
		}
		if err := mdia.ReadMagic(magicVideoDimension); err != nil {
			return nil, err
		}
		vdim, err := reinterpretAsNested(mdia, int(vdimLen)-8)
		if err != nil {
			return nil, err
		}
		width, err := vdim.ReadU32()
		if err != nil {
			return nil, err
		}
		height, err := vdim.ReadU32()
		if err != nil {
			return nil, err
		}

		codcLen, err := mdia.ReadU32()
		if err != nil {
			return nil, err
		}
		if err := mdia.ReadMagic(magicCodec); err != nil {
			return nil, err
		}
		codc, err := reinterpretAsNested(mdia, int(codcLen)-8)
		if err != nil {
			return nil, err
		}
		codec, err := codc.ReadU32()
		if err != nil {
			return nil, err
		}

		extnLen, err := mdia.ReadU32()
		if err != nil {
			return nil, err
		}
		if err := mdia.ReadMagic(magicExtension); err != nil {
			return nil, err
		}
		extn, err := reinterpretAsNested(mdia, int(extnLen)-8)
		if err != nil {
			return nil, err
		}

		fd := &FormatDescriptor{
			MediaType:   MediaTypeVideo,
			VideoWidth:  width,
			VideoHeight: height,
			Codec:       codec,
		}

		for extn.Remaining() > 0 {
			val, err := qtvalue.Parse(extn)
			if err != nil {
				if errs.Is(err, errs.KindFramingUnexpectedEOF) {
					break
				}
				return nil, err
			}
			fd.Extensions = append(fd.Extensions, val)
			extractAVCC(fd, val)
		}

		return fd, nil

	default:
		return nil, errs.Newf(errs.KindInvalidValue, "coremedia: unknown media type %s", qtbuf.FourCCString(mediaType))
	}
}

// extractAVCC walks one extension entry looking for the
// IdxKey(49) -> Dict[0] -> IdxKey(105) -> Data(avcc) chain, per §3. A
// missing or malformed chain is not an error: the descriptor is still
// delivered without SPS/PPS.
func extractAVCC(fd *FormatDescriptor, val qtvalue.Value) {
	pair := val.AsPair()
	if pair == nil {
		return
	}
	idx, ok := pair.Key.AsIdx()
	if !ok || idx != idxKeyAVCExtension {
		return
	}
	obj := pair.Value.AsDict()
	if len(obj) == 0 {
		return
	}
	innerPair := obj[0].AsPair()
	if innerPair == nil {
		return
	}
	innerIdx, ok := innerPair.Key.AsIdx()
	if !ok || innerIdx != idxKeyAVCC {
		return
	}
	avccBytes := innerPair.Value.AsData()
	if avccBytes == nil {
		return
	}
	var record avcc.Record
	if _, err := record.Unmarshal(avccBytes); err != nil {
		log.Warn().Err(err).Msg("coremedia: malformed AVCC extension, delivering descriptor without SPS/PPS")
		return
	}
	fd.avccSPS = record.SPS
	fd.avccPPS = record.PPS
}

// EncodeQT implements qtvalue.FormatDescriptorHolder: it builds the outer
// 'fdsc' node wrapping the 'mdia' packet, the same shape used whether the
// descriptor is a SampleBuffer child or nested in a generic value tree.
func (fd *FormatDescriptor) EncodeQT() (*qtbuf.Buffer, error) {
	mdia := qtbuf.NewWithMagic(magicMediaType)
	mdia.WriteU32(fd.MediaType)

	switch fd.MediaType {
	case MediaTypeSound:
		asbd := qtbuf.NewWithMagic(magicAudioStreamDesc)
		asd := fd.AudioDescription
		if asd == nil {
			d := DefaultAudioStreamDescription()
			asd = &d
		}
		asbd.Write(asd.AsBuffer())
		mdia.Write(asbd.Finalize())

	case MediaTypeVideo:
		vdim := qtbuf.NewWithMagic(magicVideoDimension)
		vdim.WriteU32(fd.VideoWidth)
		vdim.WriteU32(fd.VideoHeight)
		mdia.Write(vdim.Finalize())

		codc := qtbuf.NewWithMagic(magicCodec)
		codc.WriteU32(fd.Codec)
		mdia.Write(codc.Finalize())

		extn := qtbuf.NewWithMagic(magicExtension)
		for _, ext := range fd.Extensions {
			entryBuf, err := qtvalue.Encode(ext)
			if err != nil {
				return nil, err
			}
			extn.Write(entryBuf.Finalize())
		}
		// The length header is patched by Finalize, never hand-zeroed: an
		// earlier source revision zeroed these four bytes instead.
		mdia.Write(extn.Finalize())

	default:
		return nil, errs.Newf(errs.KindInvalidValue, "coremedia: unknown media type %s", qtbuf.FourCCString(fd.MediaType))
	}

	fdsc := qtbuf.NewWithMagic(qtvalue.MagicFormatDesc)
	fdsc.Write(mdia.Finalize())
	return fdsc, nil
}

// reinterpretAsNested consumes n bytes from b and exposes them as a fresh
// buffer whose cursor starts at offset 0 (not 4): these inner packets were
// already past their own length+magic header by the time the caller knows
// their body length, so there is no length field left to skip.
func reinterpretAsNested(b *qtbuf.Buffer, n int) (*qtbuf.Buffer, error) {
	raw, err := b.ReadBytes(n)
	if err != nil {
		return nil, err
	}
	return qtbuf.Wrap(raw), nil
}

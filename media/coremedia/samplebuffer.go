package coremedia

import (
	"github.com/rs/zerolog/log"

	"github.com/bugVanisher/qtstream/common/errs"
	"github.com/bugVanisher/qtstream/media/qtbuf"
	"github.com/bugVanisher/qtstream/media/qtvalue"
)

// SampleBuffer child magics, per §3.
var (
	magicSbuf = qtbuf.FourCC("sbuf")
	magicOpts = qtbuf.FourCC("opts")
	magicStia = qtbuf.FourCC("stia")
	magicSdat = qtbuf.FourCC("sdat")
	magicSatt = qtbuf.FourCC("satt")
	magicSary = qtbuf.FourCC("sary")
	magicSsiz = qtbuf.FourCC("ssiz")
	magicNsmp = qtbuf.FourCC("nsmp")
	magicFree = qtbuf.FourCC("free")
	magicFdsc = qtbuf.FourCC("fdsc")
)

// SampleTimingInfo is one entry of a SampleBuffer's 'stia' array.
type SampleTimingInfo struct {
	Duration              Time
	PresentationTimeStamp Time
	DecodeTimeStamp       Time
}

// SampleBuffer is the top-level 'sbuf' container carrying either an audio
// ('eat!') or video ('feed') sample. MediaType is attached by the dispatcher,
// not read off the wire inside sbuf itself.
type SampleBuffer struct {
	MediaType uint32

	OutputPresentationTimeStamp *Time
	FormatDescriptor            *FormatDescriptor
	NumSamples                  uint32
	SampleTimingInfoArray       []SampleTimingInfo
	SampleData                  []byte
	SampleSizes                 []uint32
	Attachments                 []qtvalue.Value
	SampleArray                 []qtvalue.Value
}

// ParseSampleBuffer reads a SampleBuffer. b's cursor must be positioned to
// read the 'sbuf' node's length+magic header next.
func ParseSampleBuffer(b *qtbuf.Buffer, mediaType uint32) (*SampleBuffer, error) {
	sbufLen, err := b.ReadU32()
	if err != nil {
		return nil, err
	}
	if err := b.ReadMagic(magicSbuf); err != nil {
		return nil, err
	}
	sbuf, err := reinterpretAsNested(b, int(sbufLen)-8)
	if err != nil {
		return nil, err
	}

	sample := &SampleBuffer{MediaType: mediaType}

	for sbuf.Remaining() > 0 {
		childLen, err := sbuf.ReadU32()
		if err != nil {
			if errs.Is(err, errs.KindFramingUnexpectedEOF) {
				break
			}
			return nil, err
		}
		magic, err := sbuf.ReadU32()
		if err != nil {
			return nil, err
		}
		bodyLen := int(childLen) - 8
		if bodyLen < 0 {
			return nil, errs.New(errs.KindFramingUnexpectedEOF, "coremedia: sbuf child shorter than its own header")
		}

		switch magic {
		case magicOpts:
			body, err := reinterpretAsNested(sbuf, bodyLen)
			if err != nil {
				return nil, err
			}
			t, err := ParseTime(body)
			if err != nil {
				return nil, err
			}
			sample.OutputPresentationTimeStamp = &t

		case magicStia:
			body, err := reinterpretAsNested(sbuf, bodyLen)
			if err != nil {
				return nil, err
			}
			for body.Remaining() > 0 {
				duration, err := ParseTime(body)
				if err != nil {
					return nil, err
				}
				pts, err := ParseTime(body)
				if err != nil {
					return nil, err
				}
				dts, err := ParseTime(body)
				if err != nil {
					return nil, err
				}
				sample.SampleTimingInfoArray = append(sample.SampleTimingInfoArray, SampleTimingInfo{
					Duration:              duration,
					PresentationTimeStamp: pts,
					DecodeTimeStamp:       dts,
				})
			}

		case magicSdat:
			data, err := sbuf.ReadBytes(bodyLen)
			if err != nil {
				return nil, err
			}
			sample.SampleData = data

		case magicNsmp:
			n, err := sbuf.ReadU32()
			if err != nil {
				return nil, err
			}
			sample.NumSamples = n

		case magicSsiz:
			body, err := reinterpretAsNested(sbuf, bodyLen)
			if err != nil {
				return nil, err
			}
			for body.Remaining() > 0 {
				v, err := body.ReadU32()
				if err != nil {
					return nil, err
				}
				sample.SampleSizes = append(sample.SampleSizes, v)
			}

		case magicFdsc:
			// ParseFormatDescriptor expects to read the nested 'mdia'
			// header itself, so hand it the 'fdsc' body wrapped at offset
			// 0, starting at the 'mdia' length field.
			fdscBody, err := reinterpretAsNested(sbuf, bodyLen)
			if err != nil {
				return nil, err
			}
			fd, err := ParseFormatDescriptor(fdscBody)
			if err != nil {
				return nil, err
			}
			sample.FormatDescriptor = fd

		case magicSatt:
			body, err := reinterpretAsNested(sbuf, bodyLen)
			if err != nil {
				return nil, err
			}
			for body.Remaining() > 0 {
				v, err := qtvalue.Parse(body)
				if err != nil {
					if errs.Is(err, errs.KindFramingUnexpectedEOF) {
						break
					}
					return nil, err
				}
				sample.Attachments = append(sample.Attachments, v)
			}

		case magicSary:
			body, err := reinterpretAsNested(sbuf, bodyLen)
			if err != nil {
				return nil, err
			}
			for body.Remaining() > 0 {
				v, err := qtvalue.Parse(body)
				if err != nil {
					if errs.Is(err, errs.KindFramingUnexpectedEOF) {
						break
					}
					return nil, err
				}
				sample.SampleArray = append(sample.SampleArray, v)
			}

		case magicFree:
			if _, err := sbuf.ReadBytes(bodyLen); err != nil {
				return nil, err
			}

		default:
			log.Warn().Str("magic", qtbuf.FourCCString(magic)).Msg("coremedia: unknown sbuf child, skipping")
			if _, err := sbuf.ReadBytes(bodyLen); err != nil {
				return nil, err
			}
		}
	}

	return sample, nil
}

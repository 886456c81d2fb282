// Package sink writes decoded video samples out as an Annex-B H.264
// elementary stream, the same container main.rs wrote to disk.
package sink

import (
	"encoding/binary"
	"io"

	"github.com/bugVanisher/qtstream/common/errs"
	"github.com/bugVanisher/qtstream/media/coremedia"
)

// annexBStartCode is the four-byte marker written ahead of every NALU.
var annexBStartCode = [4]byte{0, 0, 0, 1}

// AnnexBWriter reassembles FEED video samples into an Annex-B elementary
// stream. SPS/PPS are written ahead of every sample that carries a
// FormatDescriptor: the source recorder does not deduplicate repeated
// parameter sets across samples, and this mirrors that.
type AnnexBWriter struct {
	w io.Writer
}

// New wraps w, typically an *os.File opened for the recording's lifetime.
func New(w io.Writer) *AnnexBWriter {
	return &AnnexBWriter{w: w}
}

// WriteSample writes sample's parameter sets (if present) followed by its
// length-prefixed NALUs, each reframed with an Annex-B start code. Audio
// samples are ignored.
func (a *AnnexBWriter) WriteSample(sample *coremedia.SampleBuffer) error {
	if sample.MediaType != coremedia.MediaTypeVideo {
		return nil
	}

	if fd := sample.FormatDescriptor; fd != nil {
		if sps := fd.SPS(); sps != nil {
			if err := a.writeUnit(sps); err != nil {
				return err
			}
		}
		if pps := fd.PPS(); pps != nil {
			if err := a.writeUnit(pps); err != nil {
				return err
			}
		}
	}

	cur := sample.SampleData
	for len(cur) > 0 {
		if len(cur) < 4 {
			return errs.New(errs.KindFramingUnexpectedEOF, "sink: truncated NALU length prefix")
		}
		sliceLen := int(binary.BigEndian.Uint32(cur[:4]))
		if sliceLen < 0 || len(cur) < 4+sliceLen {
			return errs.New(errs.KindFramingUnexpectedEOF, "sink: NALU length exceeds remaining sample data")
		}
		if err := a.writeUnit(cur[4 : 4+sliceLen]); err != nil {
			return err
		}
		cur = cur[4+sliceLen:]
	}
	return nil
}

func (a *AnnexBWriter) writeUnit(nalu []byte) error {
	if _, err := a.w.Write(annexBStartCode[:]); err != nil {
		return errs.Wrapf(err, "sink: write start code")
	}
	if _, err := a.w.Write(nalu); err != nil {
		return errs.Wrapf(err, "sink: write nalu")
	}
	return nil
}

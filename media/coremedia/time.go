// Package coremedia implements the binary CoreMedia types carried inside
// QuickTime Stream packets: Time, AudioStreamDescription, FormatDescriptor,
// and SampleBuffer.
package coremedia

import (
	"encoding/binary"

	"github.com/bugVanisher/qtstream/media/qtbuf"
)

// Time flag bits, per §3.
const (
	TimeFlagValid       uint32 = 0
	TimeFlagRounded     uint32 = 1
	TimeFlagPositiveInf uint32 = 2
	TimeFlagNegativeInf uint32 = 4
	TimeFlagIndefinite  uint32 = 8
)

// Time is the 24-byte CoreMedia timestamp: value/scale form a rational
// (value/scale seconds), flags is a bitmask, epoch disambiguates timelines.
type Time struct {
	Value uint64
	Scale uint32
	Flags uint32
	Epoch uint64
}

// Seconds returns the time as a floating-point number of seconds.
func (t Time) Seconds() float64 {
	if t.Scale == 0 {
		return 0
	}
	return float64(t.Value) / float64(t.Scale)
}

// ParseTime reads a 24-byte Time from b.
func ParseTime(b *qtbuf.Buffer) (Time, error) {
	value, err := b.ReadU64()
	if err != nil {
		return Time{}, err
	}
	scale, err := b.ReadU32()
	if err != nil {
		return Time{}, err
	}
	flags, err := b.ReadU32()
	if err != nil {
		return Time{}, err
	}
	epoch, err := b.ReadU64()
	if err != nil {
		return Time{}, err
	}
	return Time{Value: value, Scale: scale, Flags: flags, Epoch: epoch}, nil
}

// WriteTo appends the 24-byte wire form of t to b.
func (t Time) WriteTo(b *qtbuf.Buffer) {
	b.WriteU64(t.Value)
	b.WriteU32(t.Scale)
	b.WriteU32(t.Flags)
	b.WriteU64(t.Epoch)
}

// Bytes returns the 24-byte wire form of t on its own, with no surrounding
// length/magic framing.
func (t Time) Bytes() []byte {
	out := make([]byte, 24)
	binary.LittleEndian.PutUint64(out[0:8], t.Value)
	binary.LittleEndian.PutUint32(out[8:12], t.Scale)
	binary.LittleEndian.PutUint32(out[12:16], t.Flags)
	binary.LittleEndian.PutUint64(out[16:24], t.Epoch)
	return out
}

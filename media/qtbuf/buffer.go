// Package qtbuf implements the growable, length-prefixed little-endian byte
// buffer every QuickTime Stream packet is built on: a cursor-based reader for
// parsing, and a four-byte-reserved writer for emitting packets whose length
// header is patched in on Finalize.
package qtbuf

import (
	"encoding/binary"
	"io"
	"math"

	"github.com/bugVanisher/qtstream/common/errs"
)

// lenHeaderSize is the width of the length field every packet reserves at
// offset 0.
const lenHeaderSize = 4

// Buffer is a growable byte container with a read/write cursor. Buffers
// created with New reserve the first four bytes for a length header patched
// in by Finalize; the cursor starts at offset 4.
type Buffer struct {
	data []byte
	pos  int
}

// New allocates an empty buffer with its length header reserved and the
// cursor positioned just past it, ready for writes.
func New() *Buffer {
	return &Buffer{data: make([]byte, lenHeaderSize), pos: lenHeaderSize}
}

// NewWithMagic allocates a buffer with its length header reserved and a
// FourCC magic already written, cursor positioned for the body that follows.
func NewWithMagic(magic uint32) *Buffer {
	b := New()
	b.WriteMagic(magic)
	return b
}

// Wrap builds a buffer over already-framed bytes (as read off the wire),
// with the cursor positioned at the start of the length header so callers
// read the length field first, then the magic.
func Wrap(data []byte) *Buffer {
	return &Buffer{data: data, pos: 0}
}

// Len returns the total number of bytes currently held.
func (b *Buffer) Len() int {
	return len(b.data)
}

// Pos returns the current cursor offset.
func (b *Buffer) Pos() int {
	return b.pos
}

// Remaining reports how many unread bytes remain ahead of the cursor.
func (b *Buffer) Remaining() int {
	return len(b.data) - b.pos
}

// Bytes returns the full underlying slice, unfinalized.
func (b *Buffer) Bytes() []byte {
	return b.data
}

func (b *Buffer) need(n int) error {
	if b.Remaining() < n {
		return errs.New(errs.KindFramingUnexpectedEOF, "qtbuf: need more data than available")
	}
	return nil
}

// ReadU8 reads one byte and advances the cursor.
func (b *Buffer) ReadU8() (uint8, error) {
	if err := b.need(1); err != nil {
		return 0, err
	}
	v := b.data[b.pos]
	b.pos++
	return v, nil
}

// ReadU16 reads a little-endian uint16 and advances the cursor.
func (b *Buffer) ReadU16() (uint16, error) {
	if err := b.need(2); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint16(b.data[b.pos:])
	b.pos += 2
	return v, nil
}

// ReadU32 reads a little-endian uint32 and advances the cursor.
func (b *Buffer) ReadU32() (uint32, error) {
	if err := b.need(4); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint32(b.data[b.pos:])
	b.pos += 4
	return v, nil
}

// ReadU64 reads a little-endian uint64 and advances the cursor.
func (b *Buffer) ReadU64() (uint64, error) {
	if err := b.need(8); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint64(b.data[b.pos:])
	b.pos += 8
	return v, nil
}

// ReadF64 reads a little-endian IEEE-754 double and advances the cursor.
func (b *Buffer) ReadF64() (float64, error) {
	bits, err := b.ReadU64()
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(bits), nil
}

// ReadBytes consumes and returns the next n bytes verbatim.
func (b *Buffer) ReadBytes(n int) ([]byte, error) {
	if n < 0 {
		return nil, errs.New(errs.KindInvalidValue, "qtbuf: negative read length")
	}
	if err := b.need(n); err != nil {
		return nil, err
	}
	v := b.data[b.pos : b.pos+n]
	b.pos += n
	return v, nil
}

// ReadMagic reads a four-byte FourCC magic and fails with a magic-mismatch
// error if it is not want.
func (b *Buffer) ReadMagic(want uint32) error {
	got, err := b.ReadU32()
	if err != nil {
		return err
	}
	if got != want {
		return errs.Newf(errs.KindFramingMagicMismatch, "qtbuf: expected magic %s, got %s", FourCCString(want), FourCCString(got))
	}
	return nil
}

// PeekMagic returns the next four bytes as a magic without advancing the
// cursor, used by dispatch tables that branch on it.
func (b *Buffer) PeekMagic() (uint32, error) {
	if err := b.need(4); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b.data[b.pos:]), nil
}

// NestedRead consumes n bytes and wraps them as a standalone buffer whose own
// length header (the first four of those bytes) is left intact and whose
// cursor starts at offset 4, ready to read the nested magic.
func (b *Buffer) NestedRead(n int) (*Buffer, error) {
	raw, err := b.ReadBytes(n)
	if err != nil {
		return nil, err
	}
	return &Buffer{data: raw, pos: lenHeaderSize}, nil
}

// WriteU8 appends one byte.
func (b *Buffer) WriteU8(v uint8) {
	b.data = append(b.data, v)
}

// WriteU16 appends a little-endian uint16.
func (b *Buffer) WriteU16(v uint16) {
	var tmp [2]byte
	binary.LittleEndian.PutUint16(tmp[:], v)
	b.data = append(b.data, tmp[:]...)
}

// WriteU32 appends a little-endian uint32.
func (b *Buffer) WriteU32(v uint32) {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	b.data = append(b.data, tmp[:]...)
}

// WriteU64 appends a little-endian uint64.
func (b *Buffer) WriteU64(v uint64) {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], v)
	b.data = append(b.data, tmp[:]...)
}

// WriteF64 appends a little-endian IEEE-754 double.
func (b *Buffer) WriteF64(v float64) {
	b.WriteU64(math.Float64bits(v))
}

// Write appends raw bytes, satisfying io.Writer.
func (b *Buffer) Write(p []byte) (int, error) {
	b.data = append(b.data, p...)
	return len(p), nil
}

var _ io.Writer = (*Buffer)(nil)

// WriteMagic appends a FourCC magic.
func (b *Buffer) WriteMagic(magic uint32) {
	b.WriteU32(magic)
}

// Finalize patches the reserved length header with the buffer's total byte
// length (inclusive of the header itself) and returns the complete slice.
func (b *Buffer) Finalize() []byte {
	binary.LittleEndian.PutUint32(b.data[0:lenHeaderSize], uint32(len(b.data)))
	return b.data
}

// FourCC packs a 4-character ASCII mnemonic into the u32 form used on the
// wire: writing the resulting value little-endian reproduces the mnemonic's
// byte order exactly.
func FourCC(s string) uint32 {
	if len(s) != 4 {
		panic("qtbuf: FourCC mnemonic must be exactly 4 characters: " + s)
	}
	return uint32(s[0]) | uint32(s[1])<<8 | uint32(s[2])<<16 | uint32(s[3])<<24
}

// FourCCString renders a magic back to its 4-character mnemonic for logging.
func FourCCString(magic uint32) string {
	return string([]byte{
		byte(magic),
		byte(magic >> 8),
		byte(magic >> 16),
		byte(magic >> 24),
	})
}

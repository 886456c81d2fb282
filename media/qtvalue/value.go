// Package qtvalue implements the QuickTime Stream typed value tree: a tagged
// variant used both in control-path payloads and inside FormatDescriptor
// extensions, with FourCC-tagged on-wire nodes.
package qtvalue

import (
	"unicode/utf8"

	"github.com/bugVanisher/qtstream/common/errs"
	"github.com/bugVanisher/qtstream/media/qtbuf"
)

// Magics for every QT-value variant, given as FourCC mnemonics.
var (
	MagicStringKey   = qtbuf.FourCC("strk")
	MagicStringValue = qtbuf.FourCC("strv")
	MagicBoolean     = qtbuf.FourCC("bulv")
	MagicKeyValue    = qtbuf.FourCC("keyv")
	MagicDictionary  = qtbuf.FourCC("dict")
	MagicData        = qtbuf.FourCC("datv")
	MagicNumber      = qtbuf.FourCC("nmbv")
	MagicIdxKey      = qtbuf.FourCC("idxk")
	MagicFormatDesc  = qtbuf.FourCC("fdsc")
)

// Number subtypes, per §3 of the wire format.
const (
	NumberSubtypeUInt32    = 3
	NumberSubtypeUInt64    = 4
	NumberSubtypeUInt32Alt = 5 // decoder alias of subtype 3
	NumberSubtypeFloat64   = 6
)

// Tag discriminates the Value variant.
type Tag int

const (
	TagStringKey Tag = iota
	TagStringValue
	TagBoolean
	TagKeyValuePair
	TagDictionary
	TagData
	TagUInt32
	TagUInt64
	TagFloat64
	TagIdxKey
	TagFormatDescriptor
)

// Value is a single node of the typed value tree. Only the fields relevant
// to Tag are populated; FormatDescriptor is stored through the
// FormatDescriptorHolder indirection to avoid an import cycle with the
// coremedia package (coremedia.FormatDescriptor embeds []Value, Value never
// embeds coremedia.FormatDescriptor directly — see FormatDescriptorHolder).
type Value struct {
	Tag Tag

	Str  string // StringKey, StringValue
	Bool bool
	Pair *KeyValuePair
	Dict []Value
	Data []byte
	U32  uint32
	U64  uint64
	F64  float64
	Idx  uint16

	FormatDescriptor FormatDescriptorHolder
}

// KeyValuePair is the body of a 'keyv' node: an ordered key then value.
type KeyValuePair struct {
	Key   Value
	Value Value
}

// FormatDescriptorHolder lets qtvalue carry an opaque format-descriptor node
// without importing the coremedia package; coremedia implements it.
type FormatDescriptorHolder interface {
	EncodeQT() (*qtbuf.Buffer, error)
}

// DecodeFormatDescriptor is assigned by package coremedia's init so qtvalue
// can decode a nested FormatDescriptor node without importing coremedia
// directly (coremedia already imports qtvalue for its extensions).
var DecodeFormatDescriptor func(nested *qtbuf.Buffer) (FormatDescriptorHolder, error)

// FormatDescriptorNode builds a FormatDescriptor-tagged Value around an
// already-decoded holder, used by Parse when it decodes an 'fdsc' node.
func FormatDescriptorNode(holder FormatDescriptorHolder) Value {
	return Value{Tag: TagFormatDescriptor, FormatDescriptor: holder}
}

// StringKey builds a StringKey value.
func StringKey(s string) Value { return Value{Tag: TagStringKey, Str: s} }

// StringValue builds a StringValue value.
func StringValue(s string) Value { return Value{Tag: TagStringValue, Str: s} }

// Bool builds a Boolean value.
func Bool(b bool) Value { return Value{Tag: TagBoolean, Bool: b} }

// Pair builds a KeyValuePair value.
func Pair(key, value Value) Value {
	return Value{Tag: TagKeyValuePair, Pair: &KeyValuePair{Key: key, Value: value}}
}

// Dict builds a Dictionary value from an ordered slice of KeyValuePair nodes.
func Dict(entries ...Value) Value { return Value{Tag: TagDictionary, Dict: entries} }

// Data builds a DataValue value.
func Data(b []byte) Value { return Value{Tag: TagData, Data: b} }

// UInt32 builds a NumberValue value carrying subtype 3.
func UInt32(v uint32) Value { return Value{Tag: TagUInt32, U32: v} }

// UInt64 builds a NumberValue value carrying subtype 4.
func UInt64(v uint64) Value { return Value{Tag: TagUInt64, U64: v} }

// Float builds a NumberValue value carrying subtype 6.
func Float(v float64) Value { return Value{Tag: TagFloat64, F64: v} }

// IdxKey builds an IdxKey value.
func IdxKey(idx uint16) Value { return Value{Tag: TagIdxKey, Idx: idx} }

// AsPair returns the KeyValuePair body if v is a KeyValuePair, else nil.
func (v Value) AsPair() *KeyValuePair {
	if v.Tag != TagKeyValuePair {
		return nil
	}
	return v.Pair
}

// AsDict returns the ordered entries if v is a Dictionary, else nil.
func (v Value) AsDict() []Value {
	if v.Tag != TagDictionary {
		return nil
	}
	return v.Dict
}

// AsData returns the raw bytes if v is a DataValue, else nil.
func (v Value) AsData() []byte {
	if v.Tag != TagData {
		return nil
	}
	return v.Data
}

// AsIdx returns the numeric key if v is an IdxKey.
func (v Value) AsIdx() (uint16, bool) {
	if v.Tag != TagIdxKey {
		return 0, false
	}
	return v.Idx, true
}

// Parse reads one QT-value node from b: a [len][magic] header followed by a
// body whose shape depends on magic, per §4.4.
func Parse(b *qtbuf.Buffer) (Value, error) {
	total, err := b.ReadU32()
	if err != nil {
		return Value{}, err
	}
	magic, err := b.ReadU32()
	if err != nil {
		return Value{}, err
	}
	bodyLen := int(total) - 8
	if bodyLen < 0 {
		return Value{}, errs.New(errs.KindFramingUnexpectedEOF, "qtvalue: node length shorter than header")
	}

	switch magic {
	case MagicStringKey:
		raw, err := b.ReadBytes(bodyLen)
		if err != nil {
			return Value{}, err
		}
		if !utf8.Valid(raw) {
			return Value{}, errs.New(errs.KindInvalidValue, "qtvalue: StringKey is not valid UTF-8")
		}
		return StringKey(string(raw)), nil

	case MagicStringValue:
		raw, err := b.ReadBytes(bodyLen)
		if err != nil {
			return Value{}, err
		}
		if !utf8.Valid(raw) {
			return Value{}, errs.New(errs.KindInvalidValue, "qtvalue: StringValue is not valid UTF-8")
		}
		return StringValue(string(raw)), nil

	case MagicBoolean:
		raw, err := b.ReadU8()
		if err != nil {
			return Value{}, err
		}
		if raw != 0 && raw != 1 {
			return Value{}, errs.New(errs.KindInvalidValue, "qtvalue: Boolean byte outside {0,1}")
		}
		return Bool(raw == 1), nil

	case MagicKeyValue:
		raw, err := b.ReadBytes(bodyLen)
		if err != nil {
			return Value{}, err
		}
		nested := qtbuf.Wrap(raw)
		key, err := Parse(nested)
		if err != nil {
			return Value{}, err
		}
		val, err := Parse(nested)
		if err != nil {
			return Value{}, err
		}
		return Pair(key, val), nil

	case MagicDictionary:
		raw, err := b.ReadBytes(bodyLen)
		if err != nil {
			return Value{}, err
		}
		nested := qtbuf.Wrap(raw)
		var entries []Value
		for nested.Remaining() > 0 {
			entry, err := Parse(nested)
			if err != nil {
				if errs.Is(err, errs.KindFramingUnexpectedEOF) {
					break
				}
				return Value{}, err
			}
			entries = append(entries, entry)
		}
		return Dict(entries...), nil

	case MagicData:
		raw, err := b.ReadBytes(bodyLen)
		if err != nil {
			return Value{}, err
		}
		return Data(raw), nil

	case MagicNumber:
		subtype, err := b.ReadU8()
		if err != nil {
			return Value{}, err
		}
		switch subtype {
		case NumberSubtypeUInt32, NumberSubtypeUInt32Alt:
			v, err := b.ReadU32()
			if err != nil {
				return Value{}, err
			}
			return UInt32(v), nil
		case NumberSubtypeUInt64:
			v, err := b.ReadU64()
			if err != nil {
				return Value{}, err
			}
			return UInt64(v), nil
		case NumberSubtypeFloat64:
			v, err := b.ReadF64()
			if err != nil {
				return Value{}, err
			}
			return Float(v), nil
		default:
			return Value{}, errs.Newf(errs.KindInvalidValue, "qtvalue: unknown number subtype %d", subtype)
		}

	case MagicIdxKey:
		v, err := b.ReadU16()
		if err != nil {
			return Value{}, err
		}
		return IdxKey(v), nil

	case MagicFormatDesc:
		if DecodeFormatDescriptor == nil {
			return Value{}, errs.New(errs.KindInvalidValue, "qtvalue: no FormatDescriptor decoder registered")
		}
		raw, err := b.ReadBytes(bodyLen)
		if err != nil {
			return Value{}, err
		}
		holder, err := DecodeFormatDescriptor(qtbuf.Wrap(raw))
		if err != nil {
			return Value{}, err
		}
		return FormatDescriptorNode(holder), nil

	default:
		return Value{}, errs.Newf(errs.KindFramingMagicMismatch, "qtvalue: unknown node magic %s", qtbuf.FourCCString(magic))
	}
}

// Encode serializes v into a fresh buffer, patched via Finalize.
func Encode(v Value) (*qtbuf.Buffer, error) {
	switch v.Tag {
	case TagStringKey:
		b := qtbuf.NewWithMagic(MagicStringKey)
		b.Write([]byte(v.Str))
		return b, nil

	case TagStringValue:
		b := qtbuf.NewWithMagic(MagicStringValue)
		b.Write([]byte(v.Str))
		return b, nil

	case TagBoolean:
		b := qtbuf.NewWithMagic(MagicBoolean)
		if v.Bool {
			b.WriteU8(1)
		} else {
			b.WriteU8(0)
		}
		return b, nil

	case TagKeyValuePair:
		keyBuf, err := Encode(v.Pair.Key)
		if err != nil {
			return nil, err
		}
		valBuf, err := Encode(v.Pair.Value)
		if err != nil {
			return nil, err
		}
		b := qtbuf.NewWithMagic(MagicKeyValue)
		b.Write(keyBuf.Finalize())
		b.Write(valBuf.Finalize())
		return b, nil

	case TagDictionary:
		b := qtbuf.NewWithMagic(MagicDictionary)
		for _, entry := range v.Dict {
			entryBuf, err := Encode(entry)
			if err != nil {
				return nil, err
			}
			b.Write(entryBuf.Finalize())
		}
		return b, nil

	case TagData:
		b := qtbuf.NewWithMagic(MagicData)
		b.Write(v.Data)
		return b, nil

	case TagUInt32:
		b := qtbuf.NewWithMagic(MagicNumber)
		b.WriteU8(NumberSubtypeUInt32)
		b.WriteU32(v.U32)
		return b, nil

	case TagUInt64:
		b := qtbuf.NewWithMagic(MagicNumber)
		b.WriteU8(NumberSubtypeUInt64)
		b.WriteU64(v.U64)
		return b, nil

	case TagFloat64:
		b := qtbuf.NewWithMagic(MagicNumber)
		b.WriteU8(NumberSubtypeFloat64)
		b.WriteF64(v.F64)
		return b, nil

	case TagIdxKey:
		b := qtbuf.NewWithMagic(MagicIdxKey)
		b.WriteU16(v.Idx)
		return b, nil

	case TagFormatDescriptor:
		return v.FormatDescriptor.EncodeQT()

	default:
		return nil, errs.Newf(errs.KindInvalidValue, "qtvalue: unknown tag %d", v.Tag)
	}
}

// Equal compares two values for the round-trip law in §8, treating subtype-3
// and subtype-5 u32 encodings as identical (both decode to TagUInt32) and
// comparing dictionaries/pairs structurally.
func Equal(a, b Value) bool {
	if a.Tag != b.Tag {
		return false
	}
	switch a.Tag {
	case TagStringKey, TagStringValue:
		return a.Str == b.Str
	case TagBoolean:
		return a.Bool == b.Bool
	case TagKeyValuePair:
		return Equal(a.Pair.Key, b.Pair.Key) && Equal(a.Pair.Value, b.Pair.Value)
	case TagDictionary:
		if len(a.Dict) != len(b.Dict) {
			return false
		}
		for i := range a.Dict {
			if !Equal(a.Dict[i], b.Dict[i]) {
				return false
			}
		}
		return true
	case TagData:
		if len(a.Data) != len(b.Data) {
			return false
		}
		for i := range a.Data {
			if a.Data[i] != b.Data[i] {
				return false
			}
		}
		return true
	case TagUInt32:
		return a.U32 == b.U32
	case TagUInt64:
		return a.U64 == b.U64
	case TagFloat64:
		return a.F64 == b.F64
	case TagIdxKey:
		return a.Idx == b.Idx
	default:
		return false
	}
}

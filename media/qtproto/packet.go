package qtproto

import (
	"github.com/bugVanisher/qtstream/media/qtbuf"
	"github.com/bugVanisher/qtstream/media/qtvalue"
)

// Top-level packet magics, per §3.
var (
	PacketMagicPing  = qtbuf.FourCC("ping")
	PacketMagicSync  = qtbuf.FourCC("sync")
	PacketMagicAsyn  = qtbuf.FourCC("asyn")
	packetMagicReply = qtbuf.FourCC("rply")
)

// SYNC inner magics, per §3.
var (
	syncMagicOG   = qtbuf.FourCC("go! ")
	syncMagicCWPA = qtbuf.FourCC("cwpa")
	syncMagicCVRP = qtbuf.FourCC("cvrp")
	syncMagicCLOK = qtbuf.FourCC("clok")
	syncMagicTIME = qtbuf.FourCC("time")
	syncMagicAFMT = qtbuf.FourCC("afmt")
	syncMagicSKEW = qtbuf.FourCC("skew")
	syncMagicSTOP = qtbuf.FourCC("stop")
)

// ASYN inner magics, per §3.
var (
	asynMagicEAT  = qtbuf.FourCC("eat!")
	asynMagicFEED = qtbuf.FourCC("feed")
	asynMagicSPRP = qtbuf.FourCC("sprp")
	asynMagicTJMP = qtbuf.FourCC("tjmp")
	asynMagicSRAT = qtbuf.FourCC("srat")
	asynMagicTBAS = qtbuf.FourCC("tbas")
	asynMagicRELS = qtbuf.FourCC("rels")
	asynMagicHPD1 = qtbuf.FourCC("hpd1")
	asynMagicHPA1 = qtbuf.FourCC("hpa1")
	asynMagicHPD0 = qtbuf.FourCC("hpd0")
	asynMagicHPA0 = qtbuf.FourCC("hpa0")
	asynMagicNEED = qtbuf.FourCC("need")
)

// emptyCFType is the CFTypeID placeholder used as the HPD1 header, per §4.3.
const emptyCFType uint64 = 1

// nsPerSecond is the scale new host clocks are created with.
const nsPerSecond uint32 = 1000000000

// replyPacket builds the bare 'rply' packet: correlation id then a zero
// error code.
func replyPacket(correlationID uint64) *qtbuf.Buffer {
	b := qtbuf.NewWithMagic(packetMagicReply)
	b.WriteU64(correlationID)
	b.WriteU32(0)
	return b
}

// replyPacketWithClockRef appends a clock reference after the standard
// header, used by 'cwpa'/'cvrp'/'clok' replies.
func replyPacketWithClockRef(correlationID, clockRef uint64) *qtbuf.Buffer {
	b := replyPacket(correlationID)
	b.WriteU64(clockRef)
	return b
}

// newAsynPacket builds an outbound ASYN packet: top magic, clock-ref header,
// inner magic, and an optional QT-value payload.
func newAsynPacket(value *qtvalue.Value, innerMagic uint32, header uint64) (*qtbuf.Buffer, error) {
	b := qtbuf.NewWithMagic(PacketMagicAsyn)
	b.WriteU64(header)
	b.WriteU32(innerMagic)
	if value != nil {
		valBuf, err := qtvalue.Encode(*value)
		if err != nil {
			return nil, err
		}
		b.Write(valBuf.Finalize())
	}
	return b, nil
}

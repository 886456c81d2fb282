// Package reassembler turns a stream of bulk-endpoint reads, which may split
// or coalesce arbitrarily relative to packet boundaries, into whole
// length-prefixed QuickTime Stream packets.
package reassembler

import (
	"context"

	"github.com/bugVanisher/qtstream/common/errs"
	"github.com/bugVanisher/qtstream/media/qtbuf"
)

// Reader is the subset of usbdevice.Device the reassembler drives.
type Reader interface {
	MaxReadPacketSize() int
	Read(ctx context.Context, buf []byte) (int, error)
}

// Reassembler accumulates bulk reads in a pool and yields complete packets
// once the pool holds at least as many bytes as the leading length field
// declares.
type Reassembler struct {
	r    Reader
	pool []byte
}

// New wraps r with an empty pool.
func New(r Reader) *Reassembler {
	return &Reassembler{r: r}
}

// NextPacket returns the next complete packet, or (nil, nil) if a read
// yielded data but not yet a full packet; callers loop calling NextPacket
// until it returns a non-nil packet or an error. The pool is checked for an
// already-complete packet before issuing a new bulk read, so a single large
// read that contains several packets drains them without redundant I/O.
func (a *Reassembler) NextPacket(ctx context.Context) (*qtbuf.Buffer, error) {
	if pkt, err := a.tryTakeFromPool(); pkt != nil || err != nil {
		return pkt, err
	}

	buf := make([]byte, a.r.MaxReadPacketSize())
	n, err := a.r.Read(ctx, buf)
	if err != nil {
		return nil, errs.Wrapf(err, "reassembler: bulk read")
	}
	if n <= 0 {
		return nil, nil
	}

	a.pool = append(a.pool, buf[:n]...)

	return a.tryTakeFromPool()
}

// tryTakeFromPool slices a complete packet off the front of the pool once its
// declared length fits within what has accumulated so far. A declared length
// under 4 bytes (too small to hold even the length field itself) is a
// protocol error, not a "not ready yet" condition.
func (a *Reassembler) tryTakeFromPool() (*qtbuf.Buffer, error) {
	if len(a.pool) < 4 {
		return nil, nil
	}
	pktLen := int(uint32(a.pool[0]) | uint32(a.pool[1])<<8 | uint32(a.pool[2])<<16 | uint32(a.pool[3])<<24)
	if pktLen < 4 {
		return nil, errs.Newf(errs.KindFramingUnexpectedEOF, "reassembler: packet length %d below minimum header size", pktLen)
	}
	if len(a.pool) < pktLen {
		return nil, nil
	}

	raw := make([]byte, pktLen)
	copy(raw, a.pool[:pktLen])
	a.pool = append([]byte(nil), a.pool[pktLen:]...)

	return qtbuf.Wrap(raw), nil
}

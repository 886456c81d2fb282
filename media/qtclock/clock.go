// Package qtclock implements the host-backed scaled clock used to answer
// 'clok'/'cwpa'/'time'/'skew' SYNC requests, and the cross-clock skew
// computation used once audio/video start flowing.
package qtclock

import (
	"time"

	"github.com/bugVanisher/qtstream/media/coremedia"
)

// nsPerSecond is the nanosecond scale CoreMedia clocks are normally created
// with; a Clock whose Scale differs applies Factor = Scale/1e9 to elapsed
// nanoseconds.
const nsPerSecond = 1e9

// Clock is a wall-clock-backed scaled clock: {id, scale, factor, epoch}.
// GetTime returns an elapsed value scaled by Factor from the wall-clock
// instant the Clock was created.
type Clock struct {
	ID     uint64
	Scale  uint32
	Factor float64
	epoch  time.Time
}

// New creates a clock with the given id and scale, deriving Factor =
// scale/1e9 and pinning its epoch to the current wall-clock instant.
func New(id uint64, scale uint32) *Clock {
	return &Clock{
		ID:     id,
		Scale:  scale,
		Factor: float64(scale) / nsPerSecond,
		epoch:  time.Now(),
	}
}

// GetTime returns the elapsed wall-clock time since the clock's epoch as a
// CoreMedia Time, scaled per Factor with the rounded flag set (matching the
// discrete-precision nature of any wall-clock sample).
func (c *Clock) GetTime() coremedia.Time {
	elapsedNs := float64(time.Since(c.epoch).Nanoseconds())
	value := uint64(c.Factor * elapsedNs)
	return coremedia.Time{
		Value: value,
		Scale: c.Scale,
		Flags: coremedia.TimeFlagRounded,
	}
}

// Skew computes the drift between a reference clock (measured at s1..e1) and
// a second clock (measured at s2..e2), per §3:
//
//	scale2 * ((e1-s1) * scale2/scale1) / (e2-e1)
//
// where e1-s1 and e2-e1 are computed on the respective clocks' raw Value
// fields (e2-e1 deliberately crosses the two clocks, matching the source's
// cross-subtraction).
func Skew(s1, e1, s2, e2 coremedia.Time) float64 {
	diffClock1 := float64(e1.Value) - float64(s1.Value)
	diffClock2 := float64(e2.Value) - float64(e1.Value)
	scaledDiff := diffClock1 * (float64(s2.Scale) / float64(s1.Scale))
	return float64(s2.Scale) * scaledDiff / diffClock2
}

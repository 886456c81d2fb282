package qtclock

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bugVanisher/qtstream/media/coremedia"
)

func TestNewClockFactorFromScale(t *testing.T) {
	c := New(42, 1e9)
	require.EqualValues(t, 1.0, c.Factor)

	c2 := New(42, 44100)
	require.InDelta(t, 44100.0/1e9, c2.Factor, 1e-15)
}

func TestGetTimeIsRoundedAndMonotonicallyNondecreasing(t *testing.T) {
	c := New(1, 1e9)
	t1 := c.GetTime()
	t2 := c.GetTime()
	require.Equal(t, coremedia.TimeFlagRounded, t1.Flags)
	require.GreaterOrEqual(t, t2.Value, t1.Value)
}

func TestSkewMatchesReferenceFormula(t *testing.T) {
	startLocal := coremedia.Time{Value: 1000, Scale: 1e9}
	lastLocal := coremedia.Time{Value: 5000, Scale: 1e9}
	startDevice := coremedia.Time{Value: 2000, Scale: 44100}
	lastDevice := coremedia.Time{Value: 6000, Scale: 44100}

	got := Skew(startLocal, lastLocal, startDevice, lastDevice)

	diffClock1 := float64(lastLocal.Value) - float64(startLocal.Value)
	diffClock2 := float64(lastDevice.Value) - float64(lastLocal.Value)
	scaledDiff := diffClock1 * (float64(startDevice.Scale) / float64(startLocal.Scale))
	want := float64(startDevice.Scale) * scaledDiff / diffClock2

	require.Equal(t, want, got)
}

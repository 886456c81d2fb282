package usbdevice

import "testing"

func TestSerialPrefixMatch(t *testing.T) {
	cases := []struct {
		serial, prefix string
		want           bool
	}{
		{"00008030001A2B3C0123456789ABCDEF", "00008030001A2B3C", true},
		{"00008030001A2B3C0123456789ABCDEF", "00008030001A2B3D", false},
		{"short", "shortprefixlonger", false},
	}

	for _, c := range cases {
		got := len(c.serial) >= len(c.prefix) && c.serial[:len(c.prefix)] == c.prefix
		if got != c.want {
			t.Errorf("prefix match %q against %q: got %v, want %v", c.prefix, c.serial, got, c.want)
		}
	}
}

package qtproto

import (
	"github.com/bugVanisher/qtstream/media/coremedia"
	"github.com/bugVanisher/qtstream/media/qtvalue"
)

// hpd1DeviceInfo builds the display descriptor announced in the HPD1
// (host-port-display) message replying to 'cwpa', per §4.3. Field values are
// fixed, matching what a real Mac host advertises.
func hpd1DeviceInfo() qtvalue.Value {
	displaySize := qtvalue.Dict(
		qtvalue.Pair(qtvalue.StringKey("Width"), qtvalue.Float(1920)),
		qtvalue.Pair(qtvalue.StringKey("Height"), qtvalue.Float(1200)),
	)

	return qtvalue.Dict(
		qtvalue.Pair(qtvalue.StringKey("Valeria"), qtvalue.Bool(true)),
		qtvalue.Pair(qtvalue.StringKey("HEVCDecoderSupports444"), qtvalue.Bool(true)),
		qtvalue.Pair(qtvalue.StringKey("DisplaySize"), displaySize),
	)
}

// hpa1DeviceInfo builds the audio descriptor announced in the HPA1
// (host-port-audio) message replying to 'cwpa', per §4.3.
func hpa1DeviceInfo() qtvalue.Value {
	asd := coremedia.DefaultAudioStreamDescription()

	return qtvalue.Dict(
		qtvalue.Pair(qtvalue.StringKey("BufferAheadInterval"), qtvalue.Float(0.07300000000000001)),
		qtvalue.Pair(qtvalue.StringKey("deviceUID"), qtvalue.StringValue("Valeria")),
		qtvalue.Pair(qtvalue.StringKey("ScreenLatency"), qtvalue.Float(0.04)),
		qtvalue.Pair(qtvalue.StringKey("formats"), qtvalue.Data(asd.AsBuffer())),
		qtvalue.Pair(qtvalue.StringKey("EDIDAC3Support"), qtvalue.UInt32(0)),
		qtvalue.Pair(qtvalue.StringKey("deviceName"), qtvalue.StringValue("Valeria")),
	)
}

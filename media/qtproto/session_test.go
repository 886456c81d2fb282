package qtproto

import (
	"context"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"

	"github.com/bugVanisher/qtstream/media/coremedia"
	"github.com/bugVanisher/qtstream/media/qtbuf"
)

func buildSyncPacket(clockRef uint64, innerMagic uint32, correlationID uint64, body []byte) *qtbuf.Buffer {
	b := qtbuf.NewWithMagic(PacketMagicSync)
	b.WriteU64(clockRef)
	b.WriteU32(innerMagic)
	b.WriteU64(correlationID)
	b.Write(body)
	return qtbuf.Wrap(b.Finalize())
}

func buildAsynPacket(clockRef uint64, innerMagic uint32, body []byte) *qtbuf.Buffer {
	b := qtbuf.NewWithMagic(PacketMagicAsyn)
	b.WriteU64(clockRef)
	b.WriteU32(innerMagic)
	b.Write(body)
	return qtbuf.Wrap(b.Finalize())
}

func buildEatSbuf(t coremedia.Time) []byte {
	opts := qtbuf.NewWithMagic(qtbuf.FourCC("opts"))
	opts.Write(t.Bytes())

	sbuf := qtbuf.NewWithMagic(qtbuf.FourCC("sbuf"))
	sbuf.Write(opts.Finalize())
	return sbuf.Finalize()
}

func TestHandlePingEchoesVerbatim(t *testing.T) {
	ctrl := gomock.NewController(t)
	dev := NewMockEndpoint(ctrl)
	s, _ := NewSession(dev)

	ping := qtbuf.NewWithMagic(PacketMagicPing)
	ping.WriteU64(7)
	raw := ping.Finalize()

	var got []byte
	dev.EXPECT().Write(gomock.Any(), gomock.Any()).DoAndReturn(func(ctx context.Context, buf []byte) (int, error) {
		got = append([]byte(nil), buf...)
		return len(buf), nil
	})

	require.NoError(t, s.handlePacket(context.Background(), qtbuf.Wrap(raw)))
	require.Equal(t, raw, got)
}

func TestHandleOGReplyWritesZeroErrorCode(t *testing.T) {
	ctrl := gomock.NewController(t)
	dev := NewMockEndpoint(ctrl)
	s, _ := NewSession(dev)

	body := make([]byte, 4)
	pkt := buildSyncPacket(1, syncMagicOG, 99, body)

	var got []byte
	dev.EXPECT().Write(gomock.Any(), gomock.Any()).DoAndReturn(func(ctx context.Context, buf []byte) (int, error) {
		got = append([]byte(nil), buf...)
		return len(buf), nil
	})

	require.NoError(t, s.handlePacket(context.Background(), pkt))

	want := replyPacket(99)
	want.WriteU32(0)
	require.Equal(t, want.Finalize(), got)
}

func TestHandleCWPAAnnouncesDisplayThenAudio(t *testing.T) {
	ctrl := gomock.NewController(t)
	dev := NewMockEndpoint(ctrl)
	s, _ := NewSession(dev)

	body := make([]byte, 8)
	// device clock ref = 2000, little-endian u64.
	body[0] = 0xD0
	body[1] = 0x07
	pkt := buildSyncPacket(0, syncMagicCWPA, 5, body)

	var writes [][]byte
	dev.EXPECT().Write(gomock.Any(), gomock.Any()).Times(3).DoAndReturn(func(ctx context.Context, buf []byte) (int, error) {
		writes = append(writes, append([]byte(nil), buf...))
		return len(buf), nil
	})

	require.NoError(t, s.handlePacket(context.Background(), pkt))
	require.Len(t, writes, 3)

	// First write is the HPD1 announcement.
	display := qtbuf.Wrap(writes[0])
	_, err := display.ReadU32()
	require.NoError(t, err)
	require.NoError(t, display.ReadMagic(PacketMagicAsyn))
	header, err := display.ReadU64()
	require.NoError(t, err)
	require.EqualValues(t, emptyCFType, header)
	innerMagic, err := display.ReadU32()
	require.NoError(t, err)
	require.Equal(t, asynMagicHPD1, innerMagic)

	// Third write is the HPA1 announcement, keyed on the raw device clock ref.
	audio := qtbuf.Wrap(writes[2])
	_, err = audio.ReadU32()
	require.NoError(t, err)
	require.NoError(t, audio.ReadMagic(PacketMagicAsyn))
	audioHeader, err := audio.ReadU64()
	require.NoError(t, err)
	require.EqualValues(t, 2000, audioHeader)

	require.NotNil(t, s.localAudioClock)
	require.EqualValues(t, 2000, *s.deviceAudioClock)
}

func TestSkewRequiresPriorAudioSamples(t *testing.T) {
	ctrl := gomock.NewController(t)
	dev := NewMockEndpoint(ctrl)
	s, _ := NewSession(dev)

	pkt := buildSyncPacket(0, syncMagicSKEW, 1, nil)
	err := s.handlePacket(context.Background(), pkt)
	require.Error(t, err)
}

func TestHandleEatTracksClockBookkeepingForSkew(t *testing.T) {
	ctrl := gomock.NewController(t)
	dev := NewMockEndpoint(ctrl)
	s, _ := NewSession(dev)

	s.localAudioClock = nil
	// Seed a local audio clock by handling a 'cwpa' packet.
	cwpaBody := make([]byte, 8)
	cwpaBody[0] = 0x01
	dev.EXPECT().Write(gomock.Any(), gomock.Any()).Times(3).Return(0, nil)
	require.NoError(t, s.handlePacket(context.Background(), buildSyncPacket(0, syncMagicCWPA, 1, cwpaBody)))
	require.NotNil(t, s.localAudioClock)

	deviceTime1 := coremedia.Time{Value: 1000, Scale: 44100}
	eatPkt1 := buildAsynPacket(0, asynMagicEAT, buildEatSbuf(deviceTime1))
	require.NoError(t, s.handlePacket(context.Background(), eatPkt1))
	require.NotNil(t, s.startTimeDeviceAudioClock)
	require.EqualValues(t, 1000, s.startTimeDeviceAudioClock.Value)

	deviceTime2 := coremedia.Time{Value: 5000, Scale: 44100}
	eatPkt2 := buildAsynPacket(0, asynMagicEAT, buildEatSbuf(deviceTime2))
	require.NoError(t, s.handlePacket(context.Background(), eatPkt2))
	require.EqualValues(t, 5000, s.lastEatFrameReceivedDeviceAudioClock.Value)

	dev.EXPECT().Write(gomock.Any(), gomock.Any()).Times(1).Return(0, nil)
	skewPkt := buildSyncPacket(0, syncMagicSKEW, 2, nil)
	require.NoError(t, s.handlePacket(context.Background(), skewPkt))
}

func TestHandleFeedBlocksOnFullChannelUntilContextCancelled(t *testing.T) {
	ctrl := gomock.NewController(t)
	dev := NewMockEndpoint(ctrl)
	s, _ := NewSession(dev)

	ref := uint64(1)
	s.needClockRef = &ref
	for i := 0; i < consumerBufferSize; i++ {
		s.out <- Result{}
	}

	dev.EXPECT().Write(gomock.Any(), gomock.Any()).AnyTimes().Return(0, nil)

	sbuf := qtbuf.NewWithMagic(qtbuf.FourCC("sbuf"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.handleFeed(ctx, qtbuf.Wrap(sbuf.Finalize()))
	require.Error(t, err)
}

func TestDeliverAfterCloseReturnsChannelClosed(t *testing.T) {
	ctrl := gomock.NewController(t)
	dev := NewMockEndpoint(ctrl)
	s, _ := NewSession(dev)
	s.Close()

	err := s.deliver(context.Background(), &coremedia.SampleBuffer{MediaType: coremedia.MediaTypeSound})
	require.Error(t, err)
}

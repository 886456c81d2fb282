// Package qtproto implements the QuickTime Stream host-side protocol state
// machine: the ping/SYNC/ASYN dispatch loop, clock bookkeeping, and session
// teardown, layered on media/usbdevice and media/reassembler.
package qtproto

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/bugVanisher/qtstream/common/errs"
	"github.com/bugVanisher/qtstream/media/coremedia"
	"github.com/bugVanisher/qtstream/media/qtbuf"
	"github.com/bugVanisher/qtstream/media/qtclock"
	"github.com/bugVanisher/qtstream/media/qtvalue"
	"github.com/bugVanisher/qtstream/media/reassembler"
	"github.com/bugVanisher/qtstream/statistics"
)

// statLogInterval mirrors downstream/flv.go's LogStatistic ticker period.
const statLogInterval = 3 * time.Second

// consumerBufferSize bounds the channel Run delivers decoded samples on; a
// full channel makes delivery block, applying backpressure to the device.
const consumerBufferSize = 256

// Endpoint is the USB surface a Session drives: usbdevice.Device satisfies
// it directly.
type Endpoint interface {
	EnableQuickTime(on bool) error
	IsQuickTimeEnabled() bool
	ClaimInterface() error
	InitBulk() error
	ClearFeature() error
	MaxReadPacketSize() int
	Read(ctx context.Context, buf []byte) (int, error)
	Write(ctx context.Context, buf []byte) (int, error)
}

// Result is one decoded sample delivered to the consumer, or the loop's
// terminal error.
type Result struct {
	Sample *coremedia.SampleBuffer
	Err    error
}

// Session holds all per-connection protocol state: the active clocks, the
// device-side audio clock correlation bookkeeping needed to answer 'skew',
// and the reassembler feeding it whole packets.
type Session struct {
	dev      Endpoint
	asm      *reassembler.Reassembler
	out      chan Result
	closeOut sync.Once
	stats    *statistics.PeriodicStatistic

	videoBitrate *statistics.Bitrate
	audioBitrate *statistics.Bitrate
	videoFPS     *statistics.FPS
	audioFPS     *statistics.FPS

	clock            *qtclock.Clock
	needClockRef     *uint64
	localAudioClock  *qtclock.Clock
	deviceAudioClock *uint64

	startTimeLocalAudioClock             *coremedia.Time
	lastEatFrameReceivedLocalAudioClock  *coremedia.Time
	startTimeDeviceAudioClock            *coremedia.Time
	lastEatFrameReceivedDeviceAudioClock *coremedia.Time
}

// NewSession wraps dev, returning the session and the channel Run delivers
// samples on.
func NewSession(dev Endpoint) (*Session, <-chan Result) {
	out := make(chan Result, consumerBufferSize)
	s := &Session{
		dev:          dev,
		asm:          reassembler.New(dev),
		out:          out,
		stats:        statistics.NewPeriodicStatistic(statistics.DefaultStatGridNum, 1),
		videoBitrate: statistics.NewBitrate(),
		audioBitrate: statistics.NewBitrate(),
		videoFPS:     statistics.NewFPS(),
		audioFPS:     statistics.NewFPS(),
	}
	return s, out
}

// Close signals that the consumer is no longer reading from the channel
// NewSession returned. A Session already blocked in deliver sending to it
// observes the close and ends the session with a ChannelClosed error, per
// the consumer-channel contract: a closed channel means the consumer has
// dropped. Safe to call more than once and concurrently with Run.
func (s *Session) Close() {
	s.closeOut.Do(func() { close(s.out) })
}

// Init brings the vendor interface up: enables the QuickTime alternate
// interface, claims it, resolves its bulk endpoints, and clears any halted
// endpoint state left over from a previous session.
func (s *Session) Init() error {
	if err := s.dev.EnableQuickTime(true); err != nil {
		return errs.Wrapf(err, "qtproto: enable quicktime")
	}
	if err := s.dev.ClaimInterface(); err != nil {
		return errs.Wrapf(err, "qtproto: claim interface")
	}
	if err := s.dev.InitBulk(); err != nil {
		return errs.Wrapf(err, "qtproto: init bulk endpoint")
	}
	if err := s.dev.ClearFeature(); err != nil {
		return errs.Wrapf(err, "qtproto: clear feature")
	}
	return nil
}

// Run drives the dispatch loop until ctx is cancelled or an error occurs,
// then tears the session down. When the loop ends with an error, that error
// is also sent on the result channel as a terminal Result. It always closes
// the result channel before returning.
func (s *Session) Run(ctx context.Context) (err error) {
	defer func() {
		s.closeSession()
		if err != nil {
			func() {
				defer func() { _ = recover() }() // consumer already closed the channel
				select {
				case s.out <- Result{Err: err}:
				case <-ctx.Done():
				}
			}()
		}
		s.Close()
	}()

	stop := make(chan struct{})
	defer close(stop)
	go s.logStatistics(stop)

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		pkt, err := s.asm.NextPacket(ctx)
		if err != nil {
			return err
		}
		if pkt == nil {
			continue
		}

		if err := s.handlePacket(ctx, pkt); err != nil {
			return err
		}
	}
}

func (s *Session) handlePacket(ctx context.Context, pkt *qtbuf.Buffer) error {
	if _, err := pkt.ReadU32(); err != nil {
		return err
	}
	magic, err := pkt.ReadU32()
	if err != nil {
		return err
	}

	switch magic {
	case PacketMagicPing:
		return s.handlePing(ctx, pkt)
	case PacketMagicSync:
		return s.handleBody(ctx, pkt, true)
	case PacketMagicAsyn:
		return s.handleBody(ctx, pkt, false)
	default:
		log.Warn().Str("magic", qtbuf.FourCCString(magic)).Msg("qtproto: unknown top-level magic")
		return nil
	}
}

// handlePing echoes the ping packet back verbatim, matching Apple's host
// keepalive contract.
func (s *Session) handlePing(ctx context.Context, pkt *qtbuf.Buffer) error {
	_, err := s.dev.Write(ctx, pkt.Bytes())
	if err != nil {
		return errs.Wrapf(err, "qtproto: write ping reply")
	}
	return nil
}

func (s *Session) handleBody(ctx context.Context, pkt *qtbuf.Buffer, sync bool) error {
	clockRef, err := pkt.ReadU64()
	if err != nil {
		return err
	}
	magic, err := pkt.ReadU32()
	if err != nil {
		return err
	}

	if sync {
		correlationID, err := pkt.ReadU64()
		if err != nil {
			return err
		}
		return s.handleSync(ctx, pkt, clockRef, magic, correlationID)
	}
	return s.handleAsyn(ctx, pkt, clockRef, magic)
}

func (s *Session) write(ctx context.Context, b *qtbuf.Buffer) error {
	_, err := s.dev.Write(ctx, b.Finalize())
	if err != nil {
		return errs.Wrapf(err, "qtproto: bulk write")
	}
	return nil
}

func (s *Session) handleSync(ctx context.Context, pkt *qtbuf.Buffer, clockRef uint64, magic uint32, correlationID uint64) error {
	switch magic {
	case syncMagicOG:
		if _, err := pkt.ReadU32(); err != nil {
			return err
		}
		reply := replyPacket(correlationID)
		reply.WriteU32(0)
		return s.write(ctx, reply)

	case syncMagicCWPA:
		return s.handleCWPA(ctx, pkt, correlationID)

	case syncMagicCVRP:
		return s.handleCVRP(ctx, pkt, correlationID)

	case syncMagicCLOK:
		hostTime := clockRef + 0x10000
		s.clock = qtclock.New(hostTime, nsPerSecond)
		return s.write(ctx, replyPacketWithClockRef(correlationID, hostTime))

	case syncMagicTIME:
		if s.clock == nil {
			return errs.New(errs.KindInvalidValue, "qtproto: 'time' request before 'clok' established a clock")
		}
		t := s.clock.GetTime()
		reply := replyPacket(correlationID)
		reply.Write(t.Bytes())
		return s.write(ctx, reply)

	case syncMagicAFMT:
		if _, err := coremedia.ParseAudioStreamDescription(pkt); err != nil {
			return err
		}
		reply := replyPacket(correlationID)
		errVal := qtvalue.Dict(qtvalue.Pair(qtvalue.StringKey("Error"), qtvalue.UInt32(0)))
		valBuf, err := qtvalue.Encode(errVal)
		if err != nil {
			return err
		}
		reply.Write(valBuf.Finalize())
		return s.write(ctx, reply)

	case syncMagicSKEW:
		return s.handleSkew(ctx, correlationID)

	case syncMagicSTOP:
		reply := replyPacket(correlationID)
		reply.WriteU32(0)
		return s.write(ctx, reply)

	default:
		log.Warn().Str("magic", qtbuf.FourCCString(magic)).Msg("qtproto: unknown SYNC magic")
		return nil
	}
}

func (s *Session) handleCWPA(ctx context.Context, pkt *qtbuf.Buffer, correlationID uint64) error {
	deviceClockRef, err := pkt.ReadU64()
	if err != nil {
		return err
	}

	newClockRef := deviceClockRef + 1000
	s.localAudioClock = qtclock.New(newClockRef, nsPerSecond)
	ref := deviceClockRef
	s.deviceAudioClock = &ref

	displayPkt, err := newAsynPacket(hpd1Value(), asynMagicHPD1, emptyCFType)
	if err != nil {
		return err
	}
	if err := s.write(ctx, displayPkt); err != nil {
		return err
	}

	reply := replyPacketWithClockRef(correlationID, newClockRef)
	reply.Write(displayPkt.Bytes())
	if err := s.write(ctx, reply); err != nil {
		return err
	}

	audioPkt, err := newAsynPacket(hpa1Value(), asynMagicHPA1, deviceClockRef)
	if err != nil {
		return err
	}
	return s.write(ctx, audioPkt)
}

func hpd1Value() *qtvalue.Value {
	v := hpd1DeviceInfo()
	return &v
}

func hpa1Value() *qtvalue.Value {
	v := hpa1DeviceInfo()
	return &v
}

func (s *Session) handleCVRP(ctx context.Context, pkt *qtbuf.Buffer, correlationID uint64) error {
	deviceClockRef, err := pkt.ReadU64()
	if err != nil {
		return err
	}
	if _, err := qtvalue.Parse(pkt); err != nil {
		return err
	}

	ref := deviceClockRef
	s.needClockRef = &ref

	needPkt, err := newAsynPacket(nil, asynMagicNEED, deviceClockRef)
	if err != nil {
		return err
	}
	if err := s.write(ctx, needPkt); err != nil {
		return err
	}

	newClockRef := deviceClockRef + 0x1000AF
	return s.write(ctx, replyPacketWithClockRef(correlationID, newClockRef))
}

func (s *Session) handleSkew(ctx context.Context, correlationID uint64) error {
	if s.startTimeLocalAudioClock == nil || s.lastEatFrameReceivedLocalAudioClock == nil ||
		s.startTimeDeviceAudioClock == nil || s.lastEatFrameReceivedDeviceAudioClock == nil {
		return errs.New(errs.KindInvalidValue, "qtproto: 'skew' request before any audio sample arrived")
	}

	skew := qtclock.Skew(
		*s.startTimeLocalAudioClock,
		*s.lastEatFrameReceivedLocalAudioClock,
		*s.startTimeDeviceAudioClock,
		*s.lastEatFrameReceivedDeviceAudioClock,
	)

	reply := replyPacket(correlationID)
	reply.WriteF64(skew)
	return s.write(ctx, reply)
}

func (s *Session) handleAsyn(ctx context.Context, pkt *qtbuf.Buffer, _ uint64, magic uint32) error {
	switch magic {
	case asynMagicEAT:
		return s.handleEat(ctx, pkt)
	case asynMagicFEED:
		return s.handleFeed(ctx, pkt)
	case asynMagicSPRP, asynMagicTJMP, asynMagicSRAT, asynMagicTBAS, asynMagicRELS:
		return nil
	default:
		log.Warn().Str("magic", qtbuf.FourCCString(magic)).Msg("qtproto: unknown ASYN magic")
		return nil
	}
}

func (s *Session) handleEat(ctx context.Context, pkt *qtbuf.Buffer) error {
	sample, err := coremedia.ParseSampleBuffer(pkt, coremedia.MediaTypeSound)
	if err != nil {
		return err
	}
	if s.localAudioClock == nil {
		return errs.New(errs.KindInvalidValue, "qtproto: 'eat!' received before 'cwpa' established an audio clock")
	}

	localNow := s.localAudioClock.GetTime()
	if s.lastEatFrameReceivedDeviceAudioClock == nil {
		s.startTimeDeviceAudioClock = sample.OutputPresentationTimeStamp
		s.startTimeLocalAudioClock = &localNow
		s.lastEatFrameReceivedDeviceAudioClock = sample.OutputPresentationTimeStamp
		s.lastEatFrameReceivedLocalAudioClock = s.startTimeLocalAudioClock
	} else {
		s.lastEatFrameReceivedDeviceAudioClock = sample.OutputPresentationTimeStamp
		s.lastEatFrameReceivedLocalAudioClock = &localNow
	}

	return s.deliver(ctx, sample)
}

func (s *Session) handleFeed(ctx context.Context, pkt *qtbuf.Buffer) error {
	sample, err := coremedia.ParseSampleBuffer(pkt, coremedia.MediaTypeVideo)
	if err != nil {
		return err
	}
	if s.needClockRef == nil {
		return errs.New(errs.KindInvalidValue, "qtproto: 'feed' received before 'cvrp' established a need clock ref")
	}

	needPkt, err := newAsynPacket(nil, asynMagicNEED, *s.needClockRef)
	if err != nil {
		return err
	}
	if err := s.write(ctx, needPkt); err != nil {
		return err
	}

	return s.deliver(ctx, sample)
}

// deliver hands sample to the consumer channel. The send blocks so a slow
// consumer applies backpressure to the device instead of silently losing
// frames; it only gives up if ctx ends first, or the consumer has closed the
// channel via Close (a concurrent or already-closed channel turns the send
// into a panic, recovered below into a ChannelClosed error).
func (s *Session) deliver(ctx context.Context, sample *coremedia.SampleBuffer) (err error) {
	s.stats.Stat(int64(len(sample.SampleData)))
	if sample.MediaType == coremedia.MediaTypeVideo {
		s.videoBitrate.Add(uint64(len(sample.SampleData)))
		s.videoFPS.Add()
	} else {
		s.audioBitrate.Add(uint64(len(sample.SampleData)))
		s.audioFPS.Add()
	}

	defer func() {
		if r := recover(); r != nil {
			err = errs.New(errs.KindChannelClosed, "qtproto: consumer channel closed")
		}
	}()

	select {
	case s.out <- Result{Sample: sample}:
		return nil
	case <-ctx.Done():
		return errs.Wrapf(ctx.Err(), "qtproto: session ended while delivering sample")
	}
}

// logStatistics periodically reports stream liveness, the same cadence and
// shape as downstream/flv.go's LogStatistic ticker.
func (s *Session) logStatistics(done <-chan struct{}) {
	ticker := time.NewTicker(statLogInterval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			log.Info().
				Int64("sample_bytes_avg", s.stats.Avg()).
				Int64("sample_bytes_total", s.stats.Sum()).
				Str("video_bitrate", s.videoBitrate.String()).
				Uint32("video_fps", s.videoFPS.GetFPS()).
				Str("audio_bitrate", s.audioBitrate.String()).
				Uint32("audio_fps", s.audioFPS.GetFPS()).
				Msg("qtstream: stream statistics")
		}
	}
}

// closeSession mirrors the teardown a dropped session performs: announce
// audio/display off, then disable the QuickTime interface if still enabled.
// It uses its own background context: Run's ctx is already done by the time
// this runs, but the device still needs to see these final writes.
func (s *Session) closeSession() {
	teardownCtx := context.Background()

	if s.deviceAudioClock != nil {
		if offAudio, err := newAsynPacket(nil, asynMagicHPA0, *s.deviceAudioClock); err == nil {
			if err := s.write(teardownCtx, offAudio); err != nil {
				log.Warn().Err(err).Msg("qtproto: write hpa0 on teardown failed")
			}
		}
		if offDisplay, err := newAsynPacket(nil, asynMagicHPD0, 1); err == nil {
			if err := s.write(teardownCtx, offDisplay); err != nil {
				log.Warn().Err(err).Msg("qtproto: write hpd0 on teardown failed")
			}
		}
	}

	if s.dev.IsQuickTimeEnabled() {
		if err := s.dev.EnableQuickTime(false); err != nil {
			log.Warn().Err(err).Msg("qtproto: disable quicktime on teardown failed")
		}
	}
}

// Package usbdevice implements the USB endpoint component: enumerating
// attached iOS devices by serial prefix, toggling QuickTime mirroring mode,
// claiming the vendor interface, and bulk I/O over it. It is built on
// github.com/google/gousb, the Go libusb binding.
package usbdevice

import (
	"context"
	"time"

	"github.com/google/gousb"
	"github.com/rs/zerolog/log"

	"github.com/bugVanisher/qtstream/common/errs"
)

// QuickTime vendor interface class/sub-class, per §6.
const (
	quickTimeInterfaceClass    = 0xFF
	quickTimeInterfaceSubclass = 0x2A
)

// Activation control transfer constants, per §6.
const (
	activationRequest  = 0x52
	activationIndexOn  = 2
	activationIndexOff = 0
)

// Timeouts, per §5.
const (
	bulkTimeout           = 10 * time.Second
	activationTimeout     = 5 * time.Second
	clearFeatureTimeout   = 1 * time.Second
	postActivationInitial = 1 * time.Second
	postActivationPoll    = 500 * time.Millisecond
)

// Device wraps a gousb device once the QuickTime vendor interface has been
// found, claimed, and its bulk endpoints resolved.
type Device struct {
	ctx    *gousb.Context
	dev    *gousb.Device
	serial string

	config *gousb.Config
	intf   *gousb.Interface
	inEp   *gousb.InEndpoint
	outEp  *gousb.OutEndpoint

	configNum int
	ifaceNum  int
	altNum    int
}

// Open enumerates attached USB devices and selects the one whose iSerial,
// compared byte-for-byte up to the length of serialPrefix, matches. Dashes
// in serialPrefix are not special here: callers strip them the way the
// original pairing-service lookup does before calling Open.
func Open(ctx *gousb.Context, serialPrefix string) (*Device, error) {
	var found *gousb.Device

	devs, err := ctx.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		return true
	})
	if err != nil {
		return nil, errs.Wrapf(err, "usbdevice: enumerate devices")
	}

	for _, d := range devs {
		if found != nil {
			d.Close()
			continue
		}
		serial, err := d.SerialNumber()
		if err != nil {
			d.Close()
			continue
		}
		if len(serial) >= len(serialPrefix) && serial[:len(serialPrefix)] == serialPrefix {
			found = d
			continue
		}
		d.Close()
	}

	if found == nil {
		return nil, errs.New(errs.KindTransport, "usbdevice: no device matching serial prefix")
	}

	log.Info().Str("serial", serialPrefix).Msg("usbdevice: matched device")
	return &Device{ctx: ctx, dev: found, serial: serialPrefix}, nil
}

// findQuickTimeInterface walks the device's configuration descriptors
// looking for the vendor interface (class 0xFF, sub-class 0x2A), returning
// its config/interface/alt-setting numbers.
func (d *Device) findQuickTimeInterface() (cfgNum, ifaceNum, altNum int, found bool) {
	for _, cfg := range d.dev.Desc.Configs {
		for ifNum, iface := range cfg.Interfaces {
			for _, alt := range iface.AltSettings {
				if alt.Class == gousb.ClassVendor && uint8(alt.SubClass) == quickTimeInterfaceSubclass {
					return cfg.Number, ifNum, alt.Alternate, true
				}
				if uint8(alt.Class) == quickTimeInterfaceClass && uint8(alt.SubClass) == quickTimeInterfaceSubclass {
					return cfg.Number, ifNum, alt.Alternate, true
				}
			}
		}
	}
	return 0, 0, 0, false
}

// IsQuickTimeEnabled inspects configuration descriptors for the QT vendor
// interface, per §4.1.
func (d *Device) IsQuickTimeEnabled() bool {
	_, _, _, found := d.findQuickTimeInterface()
	return found
}

// EnableQuickTime is idempotent: if the interface's presence already matches
// on, it is a no-op. Otherwise it issues the vendor activation control
// transfer and, when turning on, polls the device until the interface
// appears, per §4.1/§5.
func (d *Device) EnableQuickTime(on bool) error {
	if d.IsQuickTimeEnabled() == on {
		return nil
	}

	index := activationIndexOff
	if on {
		index = activationIndexOn
	}

	d.dev.ControlTimeout = activationTimeout
	_, err := d.dev.Control(
		uint8(gousb.ControlOut|gousb.ControlVendor|gousb.ControlDevice),
		activationRequest,
		0x00,
		uint16(index),
		nil,
	)
	if err != nil {
		return errs.Wrapf(err, "usbdevice: activation control transfer")
	}

	if !on {
		return nil
	}

	time.Sleep(postActivationInitial)

	for {
		reopened, err := d.ctx.OpenDeviceWithVIDPID(d.dev.Desc.Vendor, d.dev.Desc.Product)
		if err != nil {
			return errs.Wrapf(err, "usbdevice: reopen device after activation")
		}
		if reopened == nil {
			return errs.New(errs.KindTransport, "usbdevice: device vanished after activation")
		}

		d.dev.Close()
		d.dev = reopened

		if d.IsQuickTimeEnabled() {
			log.Info().Msg("usbdevice: quicktime interface appeared")
			return nil
		}

		time.Sleep(postActivationPoll)
	}
}

// ClaimInterface locates the QT interface, switches to its configuration if
// necessary, and claims it. Fatal on failure per §4.1.
func (d *Device) ClaimInterface() error {
	cfgNum, ifaceNum, altNum, found := d.findQuickTimeInterface()
	if !found {
		return errs.New(errs.KindTransport, "usbdevice: quicktime interface not found")
	}
	d.configNum, d.ifaceNum, d.altNum = cfgNum, ifaceNum, altNum

	cfg, err := d.dev.Config(cfgNum)
	if err != nil {
		return errs.Wrapf(err, "usbdevice: set active configuration")
	}
	d.config = cfg

	intf, err := cfg.Interface(ifaceNum, altNum)
	if err != nil {
		return errs.Wrapf(err, "usbdevice: claim interface")
	}
	d.intf = intf

	return nil
}

// InitBulk records the IN/OUT bulk endpoint addresses within the claimed
// interface's alt setting, per §4.1.
func (d *Device) InitBulk() error {
	if d.intf == nil {
		return errs.New(errs.KindTransport, "usbdevice: interface not claimed")
	}

	var inEpNum, outEpNum int
	for _, alt := range d.dev.Desc.Configs[d.configNum].Interfaces[d.ifaceNum].AltSettings {
		if alt.Alternate != d.altNum {
			continue
		}
		for epNum, ep := range alt.Endpoints {
			switch {
			case ep.Direction == gousb.EndpointDirectionIn && ep.TransferType == gousb.TransferTypeBulk:
				inEpNum = epNum.Number()
			case ep.Direction == gousb.EndpointDirectionOut && ep.TransferType == gousb.TransferTypeBulk:
				outEpNum = epNum.Number()
			}
		}
	}

	inEp, err := d.intf.InEndpoint(inEpNum)
	if err != nil {
		return errs.Wrapf(err, "usbdevice: open IN bulk endpoint")
	}
	outEp, err := d.intf.OutEndpoint(outEpNum)
	if err != nil {
		return errs.Wrapf(err, "usbdevice: open OUT bulk endpoint")
	}
	d.inEp = inEp
	d.outEp = outEp
	return nil
}

// ClearFeature issues a standard CLEAR_FEATURE(ENDPOINT_HALT) on both bulk
// endpoints, per §4.1.
func (d *Device) ClearFeature() error {
	if d.inEp == nil || d.outEp == nil {
		return errs.New(errs.KindTransport, "usbdevice: bulk endpoints not initialized")
	}
	d.dev.ControlTimeout = clearFeatureTimeout
	for _, addr := range []gousb.EndpointAddress{d.inEp.Desc.Address, d.outEp.Desc.Address} {
		_, err := d.dev.Control(
			uint8(gousb.ControlOut|gousb.ControlStandard|gousb.ControlEndpoint),
			0x01,
			0x00,
			uint16(addr),
			nil,
		)
		if err != nil {
			return errs.Wrapf(err, "usbdevice: clear feature")
		}
	}
	return nil
}

// MaxReadPacketSize returns the IN endpoint's max packet size, the unit the
// frame reassembler reads in.
func (d *Device) MaxReadPacketSize() int {
	return d.inEp.Desc.MaxPacketSize
}

// Read performs one bulk IN transfer, bounded by bulkTimeout and by ctx: the
// transfer is allowed to finish or time out, whichever comes first, and
// cancelling ctx aborts it early, per §4.1/§5.
func (d *Device) Read(ctx context.Context, buf []byte) (int, error) {
	readCtx, cancel := context.WithTimeout(ctx, bulkTimeout)
	defer cancel()
	n, err := d.inEp.ReadContext(readCtx, buf)
	if err != nil {
		return n, errs.Wrapf(err, "usbdevice: bulk read")
	}
	return n, nil
}

// Write performs one bulk OUT transfer, bounded the same way as Read.
func (d *Device) Write(ctx context.Context, buf []byte) (int, error) {
	writeCtx, cancel := context.WithTimeout(ctx, bulkTimeout)
	defer cancel()
	n, err := d.outEp.WriteContext(writeCtx, buf)
	if err != nil {
		return n, errs.Wrapf(err, "usbdevice: bulk write")
	}
	return n, nil
}

// Close releases the claimed interface/config and closes the device handle.
func (d *Device) Close() {
	if d.intf != nil {
		d.intf.Close()
	}
	if d.config != nil {
		d.config.Close()
	}
	if d.dev != nil {
		d.dev.Close()
	}
}

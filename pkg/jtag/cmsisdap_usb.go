package jtag

import (
	"fmt"
	"time"

	"github.com/google/gousb"
)

const (
	// Default fixed packet size for CMSIS-DAP v1/v2 probes; overridden
	// by the bulk IN endpoint's max packet size once claimed.
	defaultDAPPacketSize = 64
	defaultUSBTimeout    = 5 * time.Second
)

// usbLink is the bulk-endpoint transport beneath a CMSIS-DAP probe.
// Commands and responses are fixed-size packets.
type usbLink struct {
	ctx  *gousb.Context
	dev  *gousb.Device
	intf *gousb.Interface

	out *gousb.OutEndpoint
	in  *gousb.InEndpoint

	packetSize int
	timeout    time.Duration
}

// openUSBLink opens the first device matching vid:pid and claims its
// vendor-class interface.
func openUSBLink(vid, pid uint16) (*usbLink, error) {
	ctx := gousb.NewContext()

	dev, err := ctx.OpenDeviceWithVIDPID(gousb.ID(vid), gousb.ID(pid))
	if err != nil {
		ctx.Close()
		return nil, fmt.Errorf("jtag: open USB device: %w", err)
	}
	if dev == nil {
		ctx.Close()
		return nil, fmt.Errorf("jtag: probe %04X:%04X not found", vid, pid)
	}

	// Kernel may hold the interface on Linux; not fatal elsewhere.
	_ = dev.SetAutoDetach(true)

	link := &usbLink{
		ctx:        ctx,
		dev:        dev,
		packetSize: defaultDAPPacketSize,
		timeout:    defaultUSBTimeout,
	}
	if err := link.claim(); err != nil {
		dev.Close()
		ctx.Close()
		return nil, err
	}
	return link, nil
}

func (l *usbLink) claim() error {
	cfg, err := l.dev.Config(1)
	if err != nil {
		return fmt.Errorf("jtag: read USB config: %w", err)
	}

	// CMSIS-DAP exposes a vendor-specific interface; fall back to
	// interface 0 when none advertises the class.
	num := 0
	for _, intf := range cfg.Desc.Interfaces {
		if len(intf.AltSettings) > 0 && intf.AltSettings[0].Class == gousb.ClassVendorSpec {
			num = intf.Number
			break
		}
	}

	intf, err := cfg.Interface(num, 0)
	if err != nil {
		return fmt.Errorf("jtag: claim interface %d: %w", num, err)
	}
	l.intf = intf

	var outNum, inNum int
	for _, ep := range intf.Setting.Endpoints {
		if ep.TransferType != gousb.TransferTypeBulk {
			continue
		}
		switch ep.Direction {
		case gousb.EndpointDirectionOut:
			if outNum == 0 {
				outNum = ep.Number
			}
		case gousb.EndpointDirectionIn:
			if inNum == 0 {
				inNum = ep.Number
				l.packetSize = ep.MaxPacketSize
			}
		}
	}
	if outNum == 0 || inNum == 0 {
		intf.Close()
		return fmt.Errorf("jtag: bulk endpoints not found")
	}

	if l.out, err = intf.OutEndpoint(outNum); err != nil {
		intf.Close()
		return fmt.Errorf("jtag: open OUT endpoint: %w", err)
	}
	if l.in, err = intf.InEndpoint(inNum); err != nil {
		intf.Close()
		return fmt.Errorf("jtag: open IN endpoint: %w", err)
	}
	return nil
}

// roundTrip sends one command packet and reads one response packet.
func (l *usbLink) roundTrip(cmd []byte) ([]byte, error) {
	if len(cmd) > l.packetSize {
		return nil, fmt.Errorf("jtag: command of %d bytes exceeds packet size %d", len(cmd), l.packetSize)
	}
	packet := make([]byte, l.packetSize)
	copy(packet, cmd)
	if _, err := l.out.Write(packet); err != nil {
		return nil, fmt.Errorf("jtag: USB write: %w", err)
	}

	resp := make([]byte, l.packetSize)
	n, err := l.in.Read(resp)
	if err != nil {
		return nil, fmt.Errorf("jtag: USB read: %w", err)
	}
	return resp[:n], nil
}

func (l *usbLink) close() error {
	if l.intf != nil {
		l.intf.Close()
		l.intf = nil
	}
	if l.dev != nil {
		l.dev.Close()
		l.dev = nil
	}
	if l.ctx != nil {
		l.ctx.Close()
		l.ctx = nil
	}
	return nil
}

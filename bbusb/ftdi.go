package bbusb

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/gousb"
)

// FTDI vendor/product for BitBabbler.
const (
	ftdiVendorID = 0x0403
	bbProductID  = 0x7840
)

// MPSSE opcodes.
const (
	mpsseNoClkDiv5     = 0x8A
	mpsseNoAdaptiveClk = 0x97
	mpsseNo3PhaseClk   = 0x8D
	mpsseSetDataLow    = 0x80
	mpsseSetDataHigh   = 0x82
	mpsseSetClkDivisor = 0x86
	mpsseSendImmediate = 0x87
	mpsseNoLoopback    = 0x85

	// read bytes in, MSB first, sample on +ve edge
	mpsseDataByteInPosMSB = 0x20
)

// FTDI SIO vendor requests.
const (
	ftdiReqReset        = 0x00
	ftdiReqSetFlowCtrl  = 0x02
	ftdiReqSetEventChar = 0x06
	ftdiReqSetErrorChar = 0x07
	ftdiReqSetLatency   = 0x09
	ftdiReqSetBitmode   = 0x0B
)

const ftdiResetSIO = 0

const ftdiFlowRtsCts = 0x0100

const (
	ftdiBitmodeReset = 0x0000
	ftdiBitmodeMpsse = 0x0200
)

// device is an open BitBabbler FTDI device with its MPSSE engine programmed
// for entropy reads.
type device struct {
	ctx       *gousb.Context
	dev       *gousb.Device
	cfg       *gousb.Config
	intf      *gousb.Interface
	inEp      *gousb.InEndpoint
	outEp     *gousb.OutEndpoint
	maxPacket int
}

// openUnit opens the Nth BitBabbler on the bus and runs the MPSSE init
// sequence. bitrate 0 selects the vendor default of 2.5 MHz, latencyMs 0 the
// default 1 ms latency timer.
func openUnit(unit int, bitrate uint, latencyMs uint8) (*device, error) {
	if bitrate == 0 {
		bitrate = 2_500_000
	}
	if latencyMs == 0 {
		latencyMs = 1
	}

	ctx := gousb.NewContext()
	devs, err := ctx.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		return desc.Vendor == gousb.ID(ftdiVendorID) && desc.Product == gousb.ID(bbProductID)
	})
	if err != nil {
		for _, d := range devs {
			d.Close()
		}
		ctx.Close()
		return nil, err
	}
	if unit < 0 || unit >= len(devs) {
		for _, d := range devs {
			d.Close()
		}
		ctx.Close()
		return nil, fmt.Errorf("BitBabbler unit %d not found (%d detected)", unit, len(devs))
	}
	for i, d := range devs {
		if i != unit {
			d.Close()
		}
	}
	dev := devs[unit]

	_ = dev.SetAutoDetach(true)

	cfg, err := dev.Config(1)
	if err != nil {
		dev.Close()
		ctx.Close()
		return nil, err
	}
	intf, err := cfg.Interface(0, 0)
	if err != nil {
		cfg.Close()
		dev.Close()
		ctx.Close()
		return nil, err
	}

	// Expect one bulk IN and one bulk OUT endpoint.
	var inEp *gousb.InEndpoint
	var outEp *gousb.OutEndpoint
	for _, ep := range intf.Setting.Endpoints {
		if ep.TransferType != gousb.TransferTypeBulk {
			continue
		}
		switch ep.Direction {
		case gousb.EndpointDirectionIn:
			inEp, err = intf.InEndpoint(ep.Number)
		case gousb.EndpointDirectionOut:
			outEp, err = intf.OutEndpoint(ep.Number)
		}
		if err != nil {
			break
		}
	}
	if err == nil && (inEp == nil || outEp == nil) {
		err = errors.New("bulk endpoints not found")
	}
	if err != nil {
		intf.Close()
		cfg.Close()
		dev.Close()
		ctx.Close()
		return nil, err
	}

	d := &device{
		ctx: ctx, dev: dev, cfg: cfg, intf: intf,
		inEp: inEp, outEp: outEp,
		maxPacket: int(inEp.Desc.MaxPacketSize),
	}
	if err := d.initMPSSE(bitrate, latencyMs); err != nil {
		d.close()
		return nil, err
	}
	return d, nil
}

func (d *device) initMPSSE(bitrate uint, latencyMs uint8) error {
	if err := d.ftdiReset(); err != nil {
		return err
	}
	if err := d.purgeRead(); err != nil {
		return err
	}
	if err := d.ftdiSetSpecialChars(0, false, 0, false); err != nil {
		return err
	}
	if err := d.ftdiSetLatencyTimer(latencyMs); err != nil {
		return err
	}
	if err := d.ftdiSetFlowControl(ftdiFlowRtsCts); err != nil {
		return err
	}
	if err := d.ftdiSetBitmode(ftdiBitmodeReset, 0); err != nil {
		return err
	}
	if err := d.ftdiSetBitmode(ftdiBitmodeMpsse, 0); err != nil {
		return err
	}
	time.Sleep(50 * time.Millisecond)

	// Sync check with the AA/AB bad-command probe, retried once.
	ok := d.checkSync(0xAA) && d.checkSync(0xAB)
	if !ok {
		ok = d.checkSync(0xAA) && d.checkSync(0xAB)
	}
	if !ok {
		return errors.New("MPSSE sync failed")
	}

	// Disable divider/adaptive/3-phase clocking, set pin directions, program
	// the clock divisor.
	clkDiv := uint16(30000000/bitrate - 1)
	cmd := []byte{
		mpsseNoClkDiv5,
		mpsseNoAdaptiveClk,
		mpsseNo3PhaseClk,
		mpsseSetDataLow,
		0x00, // outputs low
		0x0B, // direction: CLK, DO, CS outputs
		mpsseSetDataHigh,
		0x00,
		0x00,
		mpsseSetClkDivisor,
		byte(clkDiv & 0xFF),
		byte(clkDiv >> 8),
		mpsseNoLoopback,
	}
	if _, err := d.outEp.Write(cmd); err != nil {
		return err
	}
	time.Sleep(30 * time.Millisecond)
	return d.purgeRead()
}

func (d *device) close() {
	if d == nil {
		return
	}
	if d.intf != nil {
		d.intf.Close()
	}
	if d.cfg != nil {
		d.cfg.Close()
	}
	if d.dev != nil {
		d.dev.Close()
	}
	if d.ctx != nil {
		d.ctx.Close()
	}
}

// readRandom fills buf with entropy from the device: one MPSSE byte-in
// command, then bulk reads with the FTDI 2-byte status header stripped from
// each packet.
func (d *device) readRandom(buf []byte) (int, error) {
	if len(buf) == 0 {
		return 0, nil
	}
	n := len(buf)
	cmd := []byte{
		mpsseDataByteInPosMSB,
		byte((n - 1) & 0xFF),
		byte((n - 1) >> 8),
		mpsseSendImmediate,
	}
	if _, err := d.outEp.Write(cmd); err != nil {
		return 0, err
	}

	got := 0
	tmp := make([]byte, roundUpToMaxPacket(n, d.maxPacket)+d.maxPacket)
	for got < n {
		m, err := d.inEp.Read(tmp)
		if err != nil {
			return got, err
		}
		got += stripStatusBytes(buf[got:], tmp[:m], d.maxPacket)
	}
	return got, nil
}

// FTDI control requests.

func (d *device) control(req uint8, value uint16, index uint16) error {
	typ := uint8(gousb.ControlOut) | uint8(gousb.ControlVendor) | uint8(gousb.ControlDevice)
	_, err := d.dev.Control(typ, req, value, index, nil)
	return err
}

func (d *device) ftdiReset() error {
	return d.control(ftdiReqReset, ftdiResetSIO, 1)
}

func (d *device) ftdiSetBitmode(mode uint16, mask uint8) error {
	return d.control(ftdiReqSetBitmode, mode|uint16(mask), 1)
}

func (d *device) ftdiSetLatencyTimer(ms uint8) error {
	return d.control(ftdiReqSetLatency, uint16(ms), 1)
}

func (d *device) ftdiSetFlowControl(mode uint16) error {
	return d.control(ftdiReqSetFlowCtrl, 0, mode|1)
}

func (d *device) ftdiSetSpecialChars(event byte, evtEnable bool, errc byte, errEnable bool) error {
	v := uint16(event)
	if evtEnable {
		v |= 0x0100
	}
	if err := d.control(ftdiReqSetEventChar, v, 1); err != nil {
		return err
	}
	v = uint16(errc)
	if errEnable {
		v |= 0x0100
	}
	return d.control(ftdiReqSetErrorChar, v, 1)
}

func (d *device) purgeRead() error {
	buf := make([]byte, 8192)
	for i := 0; i < 10; i++ {
		n, _ := d.inEp.Read(buf)
		if n <= 2 {
			break
		}
	}
	return nil
}

func (d *device) checkSync(cmd byte) bool {
	msg := []byte{cmd, mpsseSendImmediate}
	if _, err := d.outEp.Write(msg); err != nil {
		return false
	}
	buf := make([]byte, 512)
	for i := 0; i < 10; i++ {
		n, _ := d.inEp.Read(buf)
		if n == 4 && buf[2] == 0xFA && buf[3] == cmd {
			return true
		}
	}
	return false
}

// stripStatusBytes copies the payload of one bulk transfer into dst, skipping
// the 2-byte modem status header the FTDI prepends to every packet-sized
// chunk. It returns the number of payload bytes copied, bounded by len(dst).
func stripStatusBytes(dst, transfer []byte, maxPacket int) int {
	if maxPacket <= 2 {
		return 0
	}
	copied := 0
	for offset := 0; offset < len(transfer) && copied < len(dst); offset += maxPacket {
		remain := len(transfer) - offset
		if remain <= 2 {
			break
		}
		take := remain
		if take > maxPacket {
			take = maxPacket
		}
		usable := take - 2
		if usable > len(dst)-copied {
			usable = len(dst) - copied
		}
		copy(dst[copied:copied+usable], transfer[offset+2:offset+2+usable])
		copied += usable
	}
	return copied
}

func roundUpToMaxPacket(n, max int) int {
	if max <= 0 {
		return n
	}
	if n%max == 0 {
		return n
	}
	return (n/max + 1) * max
}

//go:build rp2040 || rp2350

package main

import (
	"machine"

	"tinygo.org/x/drivers"

	"smartdrv/core"
)

// TMC bus pins (SPI0)
const (
	tmcSckPin  = machine.GPIO2
	tmcMosiPin = machine.GPIO3
	tmcMisoPin = machine.GPIO0
)

// RPTmcSpiDriver implements core.TmcSpiDriver on a drivers.SPI transport.
//
// The SAM-class parts this bus was designed around complete frames from a
// PDC end-of-receive interrupt. The RP2040 port instead latches the frame
// in StartFrame and performs the 3-byte transfer from the main loop's
// Poll, then runs the completion body. The core's contract only requires
// that TmcTransferComplete runs some time after StartFrame returns, with
// the buffers untouched in between.
type RPTmcSpiDriver struct {
	bus     drivers.SPI
	tx, rx  *[3]byte
	pending bool
	armed   bool // completion interrupt unmasked
}

// NewRPTmcSpiDriver creates the bus driver on machine.SPI0.
func NewRPTmcSpiDriver() *RPTmcSpiDriver {
	return &RPTmcSpiDriver{bus: machine.SPI0}
}

func (d *RPTmcSpiDriver) Configure(cfg core.TmcSpiConfig) error {
	// The TMC2660 clocks data on the rising edge of an idle-high clock:
	// SPI mode 3 on this controller.
	return machine.SPI0.Configure(machine.SPIConfig{
		Frequency: cfg.Rate,
		SCK:       tmcSckPin,
		SDO:       tmcMosiPin,
		SDI:       tmcMisoPin,
		Mode:      3,
	})
}

func (d *RPTmcSpiDriver) StartFrame(tx, rx *[3]byte) {
	d.tx = tx
	d.rx = rx
	d.pending = true
}

func (d *RPTmcSpiDriver) EnableCompletionInterrupt() {
	d.armed = true
}

func (d *RPTmcSpiDriver) DisableCompletionInterrupt() {
	d.armed = false
}

// Poll completes one pending frame. Called from the main loop; each
// completion starts the next driver's frame, so the ring advances one
// slot per call.
func (d *RPTmcSpiDriver) Poll() {
	if !d.pending || !d.armed {
		return
	}
	d.pending = false
	if err := d.bus.Tx(d.tx[:], d.rx[:]); err != nil {
		// Leave the reply zeroed; the status decode sees no flags.
		d.rx[0], d.rx[1], d.rx[2] = 0, 0, 0
	}
	core.TmcTransferComplete()
}

package core

// TmcSpiConfig holds the behavioural requirements the driver bus places
// on the SPI peripheral: clock idle high with data captured on the rising
// edge, 8-bit transfers, MSB first.
type TmcSpiConfig struct {
	Rate uint32 // SPI clock in Hz
}

// TmcSpiDriver is the abstract interface to the SPI peripheral that the
// bus scheduler drives. Platform implementations map this onto their DMA
// or FIFO engine.
//
// The contract: StartFrame resets the peripheral, programs a 3-byte
// transmit from tx and a 3-byte receive into rx, and arms the
// end-of-receive interrupt. When the receive completes the platform's
// interrupt handler must call TmcTransferComplete, after which tx and rx
// are free to reuse. StartFrame is called with interrupts masked and must
// not block.
type TmcSpiDriver interface {
	// Configure sets up the SPI peripheral for the driver bus.
	Configure(cfg TmcSpiConfig) error

	// StartFrame begins one 24-bit transfer. Both buffers remain owned
	// by the core until the completion interrupt fires.
	StartFrame(tx, rx *[3]byte)

	// EnableCompletionInterrupt unmasks the end-of-receive interrupt
	// vector ahead of the first frame.
	EnableCompletionInterrupt()

	// DisableCompletionInterrupt masks the end-of-receive interrupt when
	// the ring stops re-arming.
	DisableCompletionInterrupt()
}

// Global singleton used by core code.
var tmcSpiDriver TmcSpiDriver

// SetTmcSpiDriver is called by target-specific code to register its driver.
func SetTmcSpiDriver(d TmcSpiDriver) {
	tmcSpiDriver = d
}

// MustTmcSpi returns the configured driver or panics if missing.
func MustTmcSpi() TmcSpiDriver {
	if tmcSpiDriver == nil {
		panic("TMC SPI driver not configured")
	}
	return tmcSpiDriver
}

package core

// Driver bus scheduler and the driver-indexed public interface.
//
// The bus runs entirely on the SPI end-of-receive interrupt: each
// completion decodes the returned status for the driver just polled and
// starts the next driver's frame, round-robin. SpinDrivers kicks the ring
// off after power-up; loss of power stops it at the next completion.

import "time"

var (
	driverStates  [MaxSmartDrivers]TmcDriverState
	numTmcDrivers uint8

	// driversPowered is written from the main context and the tick
	// interrupt; the SPI interrupt only reads it. Single word.
	driversPowered bool

	globalEnablePin GPIOPin

	// currentDriver is the index of the driver whose frame is in flight,
	// or -1 when the ring is idle. Written by the SPI interrupt, reset by
	// InitDrivers, and set by SpinDrivers (through startTransfer) when it
	// restarts an idle ring, before that first frame reaches the peripheral.
	currentDriver int32 = -1

	// DMA transfer words. The SPI peripheral reads spiDataOut and writes
	// spiDataIn while a frame is in flight; the core touches them only
	// between frames.
	spiDataOut [3]byte
	spiDataIn  [3]byte
)

// packTmcFrame places a 20-bit register word into a 3-byte wire frame.
// The bus clocks bytes MSB first; the chip keeps the last 20 bits shifted
// in, so the word rides in the low 20 of the 24.
func packTmcFrame(out *[3]byte, regVal uint32) {
	out[0] = byte(regVal >> 16)
	out[1] = byte(regVal >> 8)
	out[2] = byte(regVal)
}

// unpackTmcStatus recovers the 20-bit status word from a 3-byte reply.
// The chip shifts the status out MSB first from the start of the frame,
// so the low 4 bits of the 24 received are padding.
func unpackTmcStatus(in *[3]byte) uint32 {
	return (uint32(in[0])<<16 | uint32(in[1])<<8 | uint32(in[2])) >> 4
}

// TmcTransferComplete is the SPI end-of-receive interrupt body. Platform
// interrupt handlers call this; tests drive it directly. It never
// allocates, never blocks and never logs.
func TmcTransferComplete() {
	idx := currentDriver
	if idx >= 0 {
		driver := &driverStates[idx]
		driver.transferDone()
		if driversPowered {
			RecordBusEvent(EvtFrameDone, uint8(idx), driver.lastReadStatus)
			// Power still good: poll the next driver in the ring
			idx++
			if idx == int32(numTmcDrivers) {
				idx = 0
			}
			driverStates[idx].startTransfer(idx)
			return
		}
	}

	// Power is down or there is no frame in flight; stop polling.
	MustTmcSpi().DisableCompletionInterrupt()
	currentDriver = -1
	RecordBusEvent(EvtBusHalt, 0, 0)
}

// InitDrivers sets up the driver interface with one chip select pin per
// driver, leaving every drive disabled. The drivers are assumed to be
// unpowered; call SpinDrivers(true) once motor power is good.
func InitDrivers(csPins []GPIOPin, enablePin GPIOPin) error {
	n := len(csPins)
	if n > MaxSmartDrivers {
		n = MaxSmartDrivers
	}
	numTmcDrivers = uint8(n)
	globalEnablePin = enablePin

	// ENN is active low; keep the drivers disabled until power-up
	gp := MustGPIO()
	if err := gp.ConfigureOutput(enablePin); err != nil {
		return err
	}
	if err := gp.SetPin(enablePin, true); err != nil {
		return err
	}

	if err := MustTmcSpi().Configure(TmcSpiConfig{Rate: DriversSpiClockFrequency}); err != nil {
		return err
	}

	driversPowered = false
	currentDriver = -1
	for i := 0; i < n; i++ {
		// Axes map straight through to drivers until remapped
		driverStates[i].init(uint32(i), csPins[i])
	}
	return nil
}

// NumDrivers returns the configured driver count.
func NumDrivers() int {
	return int(numTmcDrivers)
}

// SpinDrivers is called periodically from the main context with the
// current state of the motor power rail.
func SpinDrivers(powered bool) {
	wasPowered := driversPowered
	driversPowered = powered
	if powered {
		if !wasPowered {
			// Power has arrived or returned. Enable the chips, give them
			// time to settle, then queue a full resync: their register
			// file is undefined after a power cycle.
			MustGPIO().SetPin(globalEnablePin, false)
			time.Sleep(10 * time.Microsecond)

			for i := uint8(0); i < numTmcDrivers; i++ {
				driverStates[i].writeAll()
			}
			RecordBusEvent(EvtPowerUp, 0, uint32(numTmcDrivers))
		}
		if currentDriver < 0 && numTmcDrivers != 0 {
			// Ring idle: arm the interrupt and poll driver 0
			MustTmcSpi().EnableCompletionInterrupt()
			driverStates[0].startTransfer(0)
		}
	} else if wasPowered {
		MustGPIO().SetPin(globalEnablePin, true)
		RecordBusEvent(EvtPowerDown, 0, 0)
	}
}

// TurnDriversOff drops the shared enable line and marks power lost. Safe
// to call from the tick interrupt while SpinDrivers is executing: both
// writes are single words and the SPI interrupt picks up the powered
// flag at its next completion.
func TurnDriversOff() {
	MustGPIO().FastSetPin(globalEnablePin, true)
	driversPowered = false
}

// --- driver-indexed operations ---
//
// Any index at or beyond the configured count is ignored: setters no-op,
// getters return safe defaults. The surrounding firmware iterates over a
// fixed maximum with only some slots populated.

// SetDriverAxisNumber remaps which axis a driver's stall window tracks.
func SetDriverAxisNumber(driver int, axisNumber uint32) {
	if driver >= 0 && driver < int(numTmcDrivers) {
		driverStates[driver].setAxisNumber(axisNumber)
	}
}

// SetMotorCurrent sets the coil current in mA, clamped to the supported
// range.
func SetMotorCurrent(driver int, current float32) {
	if driver >= 0 && driver < int(numTmcDrivers) {
		driverStates[driver].setCurrent(current)
	}
}

// EnableDrive logically enables or disables a driver.
func EnableDrive(driver int, en bool) {
	if driver >= 0 && driver < int(numTmcDrivers) {
		driverStates[driver].enable(en)
	}
}

// GetLiveStatus returns the most recently polled status word.
func GetLiveStatus(driver int) uint32 {
	if driver >= 0 && driver < int(numTmcDrivers) {
		return driverStates[driver].readLiveStatus()
	}
	return 0
}

// GetAccumulatedStatus drains the status accumulator, keeping only
// bitsToKeep for subsequent readers.
func GetAccumulatedStatus(driver int, bitsToKeep uint32) uint32 {
	if driver >= 0 && driver < int(numTmcDrivers) {
		return driverStates[driver].readAccumulatedStatus(bitsToKeep)
	}
	return 0
}

// SetMicrostepping sets the microstep count (a power of two from 1 to
// 256) and interpolation. Returns false and changes nothing for any
// other count.
func SetMicrostepping(driver int, microsteps uint32, interpolate bool) bool {
	if driver >= 0 && driver < int(numTmcDrivers) && microsteps > 0 {
		shift := uint32(0)
		uSteps := microsteps
		for uSteps&1 == 0 {
			uSteps >>= 1
			shift++
		}
		if uSteps == 1 && shift <= 8 {
			driverStates[driver].setMicrostepping(shift, interpolate)
			return true
		}
	}
	return false
}

// GetMicrostepping returns the microstep count and interpolation flag.
func GetMicrostepping(driver int) (microsteps uint32, interpolation bool) {
	if driver >= 0 && driver < int(numTmcDrivers) {
		return driverStates[driver].getMicrostepping()
	}
	return 1, false
}

// SetDriverMode selects the chopper mode.
func SetDriverMode(driver int, mode DriverMode) bool {
	return driver >= 0 && driver < int(numTmcDrivers) &&
		driverStates[driver].setDriverMode(mode)
}

// GetDriverMode reports the configured chopper mode.
func GetDriverMode(driver int) DriverMode {
	if driver >= 0 && driver < int(numTmcDrivers) {
		return driverStates[driver].getDriverMode()
	}
	return DriverModeUnknown
}

// SetChopperControl sets the full 17-bit chopper control payload.
func SetChopperControl(driver int, ccr uint32) bool {
	return driver >= 0 && driver < int(numTmcDrivers) &&
		driverStates[driver].setChopConf(ccr)
}

// GetChopperControl returns the configured chopper control payload.
func GetChopperControl(driver int) uint32 {
	if driver >= 0 && driver < int(numTmcDrivers) {
		return driverStates[driver].getChopConf()
	}
	return 0
}

// SetOffTime sets the chopper off time (1..15).
func SetOffTime(driver int, offTime uint32) bool {
	return driver >= 0 && driver < int(numTmcDrivers) &&
		driverStates[driver].setOffTime(offTime)
}

// GetOffTime returns the configured chopper off time.
func GetOffTime(driver int) uint32 {
	if driver >= 0 && driver < int(numTmcDrivers) {
		return driverStates[driver].getOffTime()
	}
	return 0
}

// SetStallThreshold sets the stallGuard threshold, clamped to [-64, 63].
func SetStallThreshold(driver int, sgThreshold int) {
	if driver >= 0 && driver < int(numTmcDrivers) {
		driverStates[driver].setStallDetectThreshold(sgThreshold)
	}
}

// SetStallFilter enables or disables stallGuard filtering.
func SetStallFilter(driver int, sgFilter bool) {
	if driver >= 0 && driver < int(numTmcDrivers) {
		driverStates[driver].setStallDetectFilter(sgFilter)
	}
}

// SetStallMinimumStepsPerSecond sets the slowest step rate at which
// stall readings are trusted.
func SetStallMinimumStepsPerSecond(driver int, stepsPerSecond uint32) {
	if driver >= 0 && driver < int(numTmcDrivers) {
		driverStates[driver].setStallMinimumStepsPerSecond(stepsPerSecond)
	}
}

// SetCoolStep writes the coolStep configuration payload.
func SetCoolStep(driver int, coolStepConfig uint16) {
	if driver >= 0 && driver < int(numTmcDrivers) {
		driverStates[driver].setCoolStep(coolStepConfig)
	}
}

// AppendStallConfig appends the stall configuration to a reply line.
func AppendStallConfig(driver int, reply *Reply) {
	if driver >= 0 && driver < int(numTmcDrivers) {
		driverStates[driver].appendStallConfig(reply)
	}
}

// AppendDriverStatus appends alarms and the load window to a reply line
// and resets the window.
func AppendDriverStatus(driver int, reply *Reply) {
	if driver >= 0 && driver < int(numTmcDrivers) {
		driverStates[driver].appendDriverStatus(reply)
	}
}

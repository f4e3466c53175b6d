//go:build rp2040

package main

import (
	"machine"
	"time"

	"smartdrv/core"
	"smartdrv/protocol"
	"smartdrv/targets/pio"
)

// Board wiring
var (
	// One chip select per driver, daisy order X, Y, Z, E0
	tmcCsPins = []core.GPIOPin{9, 10, 11, 12}

	// Shared ENN line, active low
	tmcEnablePin = core.GPIOPin(13)

	// Motor supply power-good input
	powerGoodPin = machine.GPIO14
)

var (
	inputBuffer  *protocol.FifoBuffer
	outputBuffer *protocol.ScratchOutput
	transport    *protocol.Transport

	tmcSpi *RPTmcSpiDriver
)

func main() {
	machine.Serial.Configure(machine.UARTConfig{})

	InitClock()
	UpdateSystemTime()

	// Hardware drivers behind the core HALs
	core.SetGPIODriver(NewRPGPIODriver())
	tmcSpi = NewRPTmcSpiDriver()
	core.SetTmcSpiDriver(tmcSpi)
	core.SetStepperBackendFactory(func() core.StepperBackend {
		return pio.NewStepperBackend(0, 0)
	})

	core.SetDebugWriter(func(s string) {
		machine.Serial.Write([]byte(s))
		machine.Serial.Write([]byte("\r\n"))
	})

	// Host-visible commands
	core.InitCoreCommands()
	core.InitTmcCommands()

	// Host link
	inputBuffer = protocol.NewFifoBuffer(256)
	outputBuffer = protocol.NewScratchOutput()
	transport = protocol.NewTransport(outputBuffer, core.DispatchCommand)
	transport.SetResetCallback(func() {
		inputBuffer.Reset()
		outputBuffer.Reset()
	})
	transport.SetFlushCallback(flushSerial)
	core.SetGlobalTransport(transport)

	// Drivers come up with the ENN line released; the power-good input
	// gates the bus through SpinDrivers below.
	powerGoodPin.Configure(machine.PinConfig{Mode: machine.PinInputPullup})
	if err := core.InitDrivers(tmcCsPins, tmcEnablePin); err != nil {
		core.DebugPrintln("driver init failed: " + err.Error())
	}

	lastSpin := core.GetTime()
	for {
		UpdateSystemTime()
		core.ProcessTimers()

		readSerial()
		transport.Receive(inputBuffer)
		flushSerial()

		// Advance the driver bus ring
		tmcSpi.Poll()

		// Track the power rail roughly once a millisecond
		now := core.GetTime()
		if now-lastSpin >= core.TimerFromUS(1000) {
			lastSpin = now
			core.SpinDrivers(powerGoodPin.Get())
		}

		time.Sleep(50 * time.Microsecond)
	}
}

func readSerial() {
	for machine.Serial.Buffered() > 0 {
		b, err := machine.Serial.ReadByte()
		if err != nil {
			return
		}
		inputBuffer.Write([]byte{b})
	}
}

func flushSerial() {
	data := outputBuffer.Result()
	if len(data) == 0 {
		return
	}
	machine.Serial.Write(data)
	outputBuffer.Reset()
}

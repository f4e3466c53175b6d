//go:build rp2040 || rp2350

package main

import (
	"runtime/volatile"
	"unsafe"

	"smartdrv/core"
)

// RP2040 timer peripheral: a 64-bit microsecond counter.
const (
	timerBase     = 0x40054000
	timerTIMERAWH = timerBase + 0x08
	timerTIMERAWL = timerBase + 0x0C
)

var (
	timerRAWH = (*volatile.Register32)(unsafe.Pointer(uintptr(timerTIMERAWH)))
	timerRAWL = (*volatile.Register32)(unsafe.Pointer(uintptr(timerTIMERAWL)))
)

// Step clock ticks per hardware microsecond
const ticksPerMicrosecond = core.StepClockRate / 1000000

// InitClock publishes the clock constants for the host.
func InitClock() {
	core.RegisterConstant("MCU", "rp2040")
	core.RegisterConstant("CLOCK_FREQ", uint32(core.StepClockRate))
}

// GetHardwareTime reads the hardware counter scaled to step clock ticks.
func GetHardwareTime() uint32 {
	return timerRAWL.Get() * ticksPerMicrosecond
}

// GetHardwareUptime reads the full 64-bit counter. High word first, then
// low, then high again to detect rollover between the reads.
func GetHardwareUptime() uint64 {
	for {
		high1 := timerRAWH.Get()
		low := timerRAWL.Get()
		high2 := timerRAWH.Get()
		if high1 == high2 {
			return (uint64(high1)<<32 | uint64(low)) * ticksPerMicrosecond
		}
	}
}

// UpdateSystemTime publishes the hardware time to the core scheduler.
func UpdateSystemTime() {
	core.SetTime(GetHardwareTime())
}

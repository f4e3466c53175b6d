//go:build rp2040

// Package pio provides a step pulse backend on the RP2040 PIO blocks.
// The state machine times the pulses in hardware, so step generation is
// jitter-free and nearly free of CPU cost.
package pio

import (
	"machine"

	rp2pio "github.com/tinygo-org/pio/rp2-pio"

	"smartdrv/core"
)

// The PIO program consumes one 32-bit command per move burst:
//
//	bits 0-15:  pulse count
//	bits 16-23: delay cycles between pulses
//	bit 24:     direction level
//
// It pulls the command, unpacks count and delay into X and Y, drives the
// direction pin, then emits X pulses with Y cycle gaps.
func buildStepProgram() []uint16 {
	asm := rp2pio.AssemblerV0{SidesetBits: 0}
	return []uint16{
		// .wrap_target
		asm.Pull(false, true).Encode(),          // pull block
		asm.Out(rp2pio.OutDestX, 16).Encode(),   // out x, 16
		asm.Out(rp2pio.OutDestY, 8).Encode(),    // out y, 8
		asm.Out(rp2pio.OutDestPins, 1).Encode(), // out pins, 1 (direction)
		// step_loop:
		asm.Set(rp2pio.SetDestPins, 1).Delay(7).Encode(), // step high, ~64ns
		asm.Set(rp2pio.SetDestPins, 0).Encode(),          // step low
		// delay_loop:
		asm.Jmp(6, rp2pio.JmpYNZeroDec).Encode(),
		asm.Jmp(4, rp2pio.JmpXNZeroDec).Encode(),
		// .wrap
	}
}

// Program origin 0 keeps the jump targets absolute.
const stepProgramOrigin = 0

// StepperBackend implements core.StepperBackend on one PIO state machine.
type StepperBackend struct {
	pio       *rp2pio.PIO
	sm        rp2pio.StateMachine
	stepPin   machine.Pin
	dirPin    machine.Pin
	direction bool
	offset    uint8
}

// NewStepperBackend allocates a backend on the given PIO block (0 or 1)
// and state machine (0-3).
func NewStepperBackend(pioNum, smNum uint8) *StepperBackend {
	hw := rp2pio.PIO0
	if pioNum != 0 {
		hw = rp2pio.PIO1
	}
	return &StepperBackend{
		pio: hw,
		sm:  hw.StateMachine(smNum),
	}
}

// Init claims the state machine, loads the program and wires the pins.
func (b *StepperBackend) Init(stepPin, dirPin uint8, invertStep, invertDir bool) error {
	b.stepPin = machine.Pin(stepPin)
	b.dirPin = machine.Pin(dirPin)

	b.sm.TryClaim()

	program := buildStepProgram()
	offset, err := b.pio.AddProgram(program, stepProgramOrigin)
	if err != nil {
		return err
	}
	b.offset = offset

	b.stepPin.Configure(machine.PinConfig{Mode: b.pio.PinMode()})
	b.dirPin.Configure(machine.PinConfig{Mode: b.pio.PinMode()})

	cfg := rp2pio.DefaultStateMachineConfig()
	cfg.SetSetPins(b.stepPin, 1)        // SET drives the step pin
	cfg.SetOutPins(b.dirPin, 1)         // OUT drives the direction pin
	cfg.SetOutShift(true, false, 32)    // shift right, explicit pull
	cfg.SetWrap(offset+uint8(len(program))-1, offset)
	cfg.SetClkDivIntFrac(1000, 0)

	// Pin directions and levels must be set after Init
	b.sm.Init(offset, cfg)
	b.sm.SetPindirsConsecutive(b.stepPin, 1, true)
	b.sm.SetPindirsConsecutive(b.dirPin, 1, true)
	b.sm.SetPinsConsecutive(b.stepPin, 1, false)
	b.sm.SetPinsConsecutive(b.dirPin, 1, false)

	b.sm.SetEnabled(true)
	return nil
}

// Step queues a single pulse with the current direction.
func (b *StepperBackend) Step() {
	b.queue(1, 1)
}

// QueueSteps queues a burst of pulses with a fixed gap.
func (b *StepperBackend) QueueSteps(count uint16, delayCycles uint8) {
	b.queue(count, delayCycles)
}

func (b *StepperBackend) queue(count uint16, delayCycles uint8) {
	cmd := uint32(count) | uint32(delayCycles)<<16
	if b.direction {
		cmd |= 1 << 24
	}
	for b.sm.IsTxFIFOFull() {
		// brief wait for FIFO space
	}
	b.sm.TxPut(cmd)
}

// SetDirection latches the direction for subsequent pulses.
func (b *StepperBackend) SetDirection(dir bool) {
	b.direction = dir
}

// Stop drains the FIFO and restarts the state machine.
func (b *StepperBackend) Stop() {
	b.sm.SetEnabled(false)
	b.sm.ClearFIFOs()
	b.sm.Restart()
	b.sm.SetEnabled(true)
}

// GetName returns the backend name.
func (b *StepperBackend) GetName() string {
	return "PIO"
}

// GetInfo reports the backend's capabilities.
func (b *StepperBackend) GetInfo() core.StepperBackendInfo {
	return core.StepperBackendInfo{
		Name:          "PIO",
		MaxStepRate:   500000,
		MinPulseNs:    64,
		TypicalJitter: 10,
		CPUOverhead:   1,
	}
}

//go:build rp2040 || rp2350

package main

import (
	"errors"
	"machine"

	"smartdrv/core"
)

// RPGPIODriver implements core.GPIODriver on TinyGo's machine package.
type RPGPIODriver struct{}

func NewRPGPIODriver() *RPGPIODriver {
	return &RPGPIODriver{}
}

func (d *RPGPIODriver) ConfigureOutput(pin core.GPIOPin) error {
	if pin > 29 {
		return errors.New("invalid GPIO pin")
	}
	machine.Pin(pin).Configure(machine.PinConfig{Mode: machine.PinOutput})
	return nil
}

func (d *RPGPIODriver) ConfigureInputPullUp(pin core.GPIOPin) error {
	if pin > 29 {
		return errors.New("invalid GPIO pin")
	}
	machine.Pin(pin).Configure(machine.PinConfig{Mode: machine.PinInputPullup})
	return nil
}

func (d *RPGPIODriver) SetPin(pin core.GPIOPin, value bool) error {
	if pin > 29 {
		return errors.New("invalid GPIO pin")
	}
	machine.Pin(pin).Set(value)
	return nil
}

func (d *RPGPIODriver) GetPin(pin core.GPIOPin) (bool, error) {
	if pin > 29 {
		return false, errors.New("invalid GPIO pin")
	}
	return machine.Pin(pin).Get(), nil
}

// FastSetPin skips validation; the pin was configured at init time and
// this path runs from the bus interrupt.
func (d *RPGPIODriver) FastSetPin(pin core.GPIOPin, value bool) {
	machine.Pin(pin).Set(value)
}

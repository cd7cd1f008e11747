//go:build tinygo && (rp2040 || rp2350)

// Package rp2040 is the tinygo-tagged real-hardware PinDriver: direct SIO
// register access for single-cycle pin toggling, with no blocking
// NOP-delay pulse width. motion.StepTicker already schedules the
// deassert as its own MR1 event a configured delay after the assert, so
// Step must return immediately rather than spend cycles waiting out the
// pulse width itself.
package rp2040

import (
	"device/rp"
	"machine"
)

// Pin drives one axis's step/dir/enable lines directly through the
// RP2040's SIO block.
type Pin struct {
	stepPin   machine.Pin
	dirPin    machine.Pin
	enablePin machine.Pin

	stepMask   uint32
	dirSetMask uint32
	dirClrMask uint32

	invertStep   bool
	invertEnable bool
}

// NewPin configures stepPin/dirPin/enablePin as outputs and returns a
// ready-to-use Pin. invertStep flips the step pin's asserted polarity;
// invertEnable flips which level enables the driver.
func NewPin(stepPin, dirPin, enablePin uint8, invertStep, invertEnable bool) *Pin {
	p := &Pin{
		stepPin:      machine.Pin(stepPin),
		dirPin:       machine.Pin(dirPin),
		enablePin:    machine.Pin(enablePin),
		stepMask:     1 << stepPin,
		dirSetMask:   1 << dirPin,
		dirClrMask:   1 << dirPin,
		invertStep:   invertStep,
		invertEnable: invertEnable,
	}

	p.stepPin.Configure(machine.PinConfig{Mode: machine.PinOutput})
	p.dirPin.Configure(machine.PinConfig{Mode: machine.PinOutput})
	p.enablePin.Configure(machine.PinConfig{Mode: machine.PinOutput})
	p.stepPin.Low()
	p.dirPin.Low()
	p.Enable(false)

	return p
}

// Step asserts the step pin. Single-cycle SIO write, no delay: the pulse
// width is owned by the caller's scheduled Unstep, not by this call.
func (p *Pin) Step() {
	if p.invertStep {
		rp.SIO.GPIO_OUT_CLR.Set(p.stepMask)
	} else {
		rp.SIO.GPIO_OUT_SET.Set(p.stepMask)
	}
}

// Unstep deasserts the step pin.
func (p *Pin) Unstep() {
	if p.invertStep {
		rp.SIO.GPIO_OUT_SET.Set(p.stepMask)
	} else {
		rp.SIO.GPIO_OUT_CLR.Set(p.stepMask)
	}
}

// SetDirection sets the direction pin. forward=false drives the dir pin
// low (the axis's negative direction), matching StepperMotor's encoding.
func (p *Pin) SetDirection(forward bool) {
	if forward {
		rp.SIO.GPIO_OUT_SET.Set(p.dirSetMask)
	} else {
		rp.SIO.GPIO_OUT_CLR.Set(p.dirClrMask)
	}
}

// Enable turns the motor driver on or off, honoring invertEnable.
func (p *Pin) Enable(on bool) {
	level := on
	if p.invertEnable {
		level = !level
	}
	p.enablePin.Set(level)
}

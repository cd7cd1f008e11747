// Package hal is the hardware abstraction boundary motion.StepperMotor
// drives: separate assert/deassert/direction/enable operations rather
// than a single blocking Step() call, since motion.StepTicker schedules
// the assert (MR0) and deassert (MR1) as two distinct events one pulse
// width (its reset delay) apart instead of spending cycles on an in-ISR
// delay loop.
package hal

// PinDriver is the per-axis pin interface. It satisfies
// motion.StepperMotor's own PinDriver interface structurally; this
// package exists to give that interface a name implementations can refer
// to and to host a simulation-friendly implementation.
//
// Split into the narrow per-axis shape the Stepper/StepperMotor pairing
// uses, with Step and Unstep as separate calls instead of one self-timed
// Step().
type PinDriver interface {
	// Step asserts the step pin. Must be fast: called from the step ISR.
	Step()

	// Unstep deasserts the step pin. Called a configured delay later,
	// from the pulse-reset ISR.
	Unstep()

	// SetDirection sets the direction pin. forward=false means the axis's
	// negative direction, matching StepperMotor's own direction encoding.
	SetDirection(forward bool)

	// Enable turns the motor driver on or off.
	Enable(on bool)
}

// SimPin is an in-memory PinDriver used by the demo CLI: it records every
// edge instead of touching real hardware.
type SimPin struct {
	Name string

	StepCount   int
	StepHigh    bool
	Direction   bool
	Enabled     bool
	StepEvents  []bool // true=assert, false=deassert, in order
	DirChanges  []bool
	EnableEvent []bool
}

// NewSimPin returns a SimPin identified by name, for diagnostics.
func NewSimPin(name string) *SimPin {
	return &SimPin{Name: name}
}

func (p *SimPin) Step() {
	p.StepHigh = true
	p.StepCount++
	p.StepEvents = append(p.StepEvents, true)
}

func (p *SimPin) Unstep() {
	p.StepHigh = false
	p.StepEvents = append(p.StepEvents, false)
}

func (p *SimPin) SetDirection(forward bool) {
	p.Direction = forward
	p.DirChanges = append(p.DirChanges, forward)
}

func (p *SimPin) Enable(on bool) {
	p.Enabled = on
	p.EnableEvent = append(p.EnableEvent, on)
}

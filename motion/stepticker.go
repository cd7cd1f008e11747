package motion

import "math/bits"

// StepTicker is the high-frequency driver: it holds the registered motor
// set and the currently-active subset, and services two timer match
// events per period — MR0 (step edge) and MR1 (pulse-width reset) — on a
// single free-running counter, the way a two-match-register hardware
// timer would.
//
// The counter itself is simulated (Advance/Counter) so this type is
// host-testable without real timer hardware.
type StepTicker struct {
	period     uint32
	resetDelay uint32

	clock uint32
	mr0   uint32
	mr1   uint32

	mr1Armed      bool
	lastDuration  uint32
	resetStepPins bool
	moveFinished  bool

	// frequencyHz is how many times per second TickMR0 fires, i.e. the
	// step ticker's own rate. StepperMotor.SetSpeed needs this (not the
	// counter-tick period, which lives in a separate, finer-grained
	// hardware-counter domain) to compute fx_ticks_per_step.
	frequencyHz float64

	motors        [MaxMotors]*StepperMotor
	numMotors     int
	activeMotorBm uint32
}

// NewStepTicker constructs a ticker with no motors registered and no
// period programmed; call SetFrequency and SetResetDelay before use.
func NewStepTicker() *StepTicker {
	return &StepTicker{}
}

// SetFrequency programs MR0's period, in free-running-counter ticks, and
// records the equivalent rate in Hz (how many times per second MR0 will
// fire) for StepperMotor.SetSpeed's use. If the counter has already
// passed the new period since the last match, the next match is forced
// to the counter's current position plus one period so no spurious match
// is skipped.
func (t *StepTicker) SetFrequency(periodTicks uint32, hz float64) {
	t.period = periodTicks
	t.frequencyHz = hz
	if t.clock >= t.mr0 {
		t.mr0 = t.clock + periodTicks
	}
}

// Frequency returns the step ticker's own rate in Hz, as last set by
// SetFrequency.
func (t *StepTicker) Frequency() float64 { return t.frequencyHz }

// SetResetDelay programs MR1's offset from MR0, i.e. the step pulse width
// in free-running-counter ticks.
func (t *StepTicker) SetResetDelay(delayTicks uint32) {
	t.resetDelay = delayTicks
}

// Period returns the currently programmed MR0 period.
func (t *StepTicker) Period() uint32 { return t.period }

// ResetDelay returns the currently programmed MR1 offset.
func (t *StepTicker) ResetDelay() uint32 { return t.resetDelay }

// Counter returns the simulated free-running timer counter.
func (t *StepTicker) Counter() uint32 { return t.clock }

// AddStepperMotor registers a motor and returns its slot index.
func (t *StepTicker) AddStepperMotor(m *StepperMotor) int {
	idx := t.numMotors
	t.motors[idx] = m
	m.ticker = t
	m.index = idx
	t.numMotors++
	return idx
}

// Motors returns the registered motors in registration order.
func (t *StepTicker) Motors() []*StepperMotor {
	return t.motors[:t.numMotors]
}

// ActiveMotorBitmask returns the current active-motor bitmask, for tests.
func (t *StepTicker) ActiveMotorBitmask() uint32 { return t.activeMotorBm }

// AddMotorToActiveList sets the motor's bit in active_motor_bm. The
// 0-to-nonzero transition arms the timer: the counter and MR0 are reset
// so the first active tick happens a full period from now, and MR1's
// auto-reset-and-stop behavior is disabled since pulses are now expected.
//
// active_motor_bm and the clock/match registers it gates are read by
// TickMR0/TickMR1 every period, so the write is masked (spec.md §5).
func (t *StepTicker) AddMotorToActiveList(idx int) {
	state := disableInterrupts()
	wasZero := t.activeMotorBm == 0
	t.activeMotorBm |= 1 << uint(idx)
	if wasZero {
		t.clock = 0
		t.mr0 = t.period
		t.mr1Armed = false
		t.lastDuration = 0
	}
	restoreInterrupts(state)
}

// RemoveMotorFromActiveList clears the motor's bit. The nonzero-to-0
// transition disables the timer: MR1 is programmed to stop the timer so
// no stray pulse can be asserted with nothing left to service it. Masked
// for the same reason as AddMotorToActiveList.
func (t *StepTicker) RemoveMotorFromActiveList(idx int) {
	state := disableInterrupts()
	t.activeMotorBm &^= 1 << uint(idx)
	if t.activeMotorBm == 0 {
		t.mr1Armed = false
	}
	restoreInterrupts(state)
}

// Advance moves the simulated free-running counter forward by ticks and
// services every match event the counter has now reached, MR1 before MR0
// when both are pending, exactly as a real two-match-register ISR would.
// A large single jump models computational overrun: the ISR is serviced
// late, after the counter has already run past one or more periods.
func (t *StepTicker) Advance(ticks uint32) {
	t.clock += ticks
	for t.serviceOnce() {
	}
}

func (t *StepTicker) serviceOnce() bool {
	if t.mr1Armed && t.clock >= t.mr1 {
		t.TickMR1()
		return true
	}
	if t.activeMotorBm != 0 && t.clock >= t.mr0 {
		t.TickMR0()
		return true
	}
	return false
}

// TickMR1 is the pulse-reset interrupt entry point: it deasserts every
// active motor's step pin. Serviced ahead of MR0 when both are pending so
// a coincident match always clears the previous pulse before the next one
// asserts.
func (t *StepTicker) TickMR1() {
	t.mr1Armed = false
	bm := t.activeMotorBm
	for bm != 0 {
		i := bits.TrailingZeros32(bm)
		bm &^= 1 << uint(i)
		t.motors[i].Unstep()
		RecordTiming(EvtUnstepFired, uint8(i), t.clock, 0, 0)
	}
}

// TickMR0 is the step-edge interrupt entry point.
func (t *StepTicker) TickMR0() {
	due := t.mr0

	t.resetStepPins = false
	t.moveFinished = false

	bm := t.activeMotorBm
	for bm != 0 {
		i := bits.TrailingZeros32(bm)
		bm &^= 1 << uint(i)
		m := t.motors[i]
		if m.Tick() {
			t.resetStepPins = true
			RecordTiming(EvtTickFired, uint8(i), t.clock, 0, 0)
		}
		if m.IsMoveFinished() {
			t.moveFinished = true
		}
	}

	if !t.resetStepPins {
		t.mr0 += t.period
		return
	}

	t.mr1Armed = true
	t.mr1 = due + t.resetDelay
	t.resetStepPins = false

	if t.moveFinished {
		t.signalMovesFinished()
		t.moveFinished = false
	}

	// Baseline: the next match is one period past the one just serviced.
	// overrunCatchUp pushes this further out if the counter has already
	// run past it.
	t.mr0 = due + t.period
	t.overrunCatchUp(due)

	for t.clock > t.mr0 {
		t.mr0 += t.period
	}
}

// signalMovesFinished parks MR0 at the furthest representable value so a
// nested match cannot fire mid-callback, then calls FinishMove on every
// motor that reached its target this tick. A callback may deactivate its
// own motor (removing it from active_motor_bm), so the bitmask is
// re-read after every call.
func (t *StepTicker) signalMovesFinished() {
	savedMR0 := t.mr0
	t.mr0 = ^uint32(0)

	bm := t.activeMotorBm
	for bm != 0 {
		i := bits.TrailingZeros32(bm)
		bm &^= 1 << uint(i)
		m := t.motors[i]
		if m.IsMoveFinished() {
			RecordTiming(EvtTickFired, uint8(i), t.clock, 1, 0)
			m.FinishMove()
			bm &= t.activeMotorBm
		}
	}

	t.mr0 = savedMR0
}

// overrunCatchUp implements the ISR's recovery path: if the counter has
// already run more than one full period past the match that's only now
// being serviced, it fast-forwards every active motor's fractional
// accumulator by as many whole ticks as can be skipped without any motor
// missing a pulse, then reprograms MR0 comfortably ahead of the counter.
// due is the MR0 value that triggered this service call.
func (t *StepTicker) overrunCatchUp(due uint32) {
	if t.clock <= due+t.period {
		return
	}
	overrun := t.clock - due

	ticksToSkip := (overrun + t.lastDuration) / t.period

	ticksWeCanSkip, any := t.minSkippableTicks()
	if any && ticksWeCanSkip > 0 {
		bm := t.activeMotorBm
		for bm != 0 {
			i := bits.TrailingZeros32(bm)
			bm &^= 1 << uint(i)
			t.motors[i].AdvanceFxCounter(ticksWeCanSkip)
		}
	}

	t.mr0 = t.clock + (ticksToSkip+1)*t.period
	t.lastDuration = overrun
	RecordTiming(EvtOverrunDetected, 0, t.clock, overrun, ticksToSkip)
	if any && ticksWeCanSkip > 0 {
		RecordTiming(EvtCatchUpApplied, 0, t.clock, uint32(ticksWeCanSkip), 0)
	}
}

// minSkippableTicks returns floor((fx_ticks_per_step - fx_counter) / 2^32)
// minimized over every active motor: the largest number of whole
// step-ticks that can be skipped without any active motor passing its
// next pulse. any is false if there are no active motors.
func (t *StepTicker) minSkippableTicks() (ticks uint64, any bool) {
	bm := t.activeMotorBm
	first := true
	for bm != 0 {
		i := bits.TrailingZeros32(bm)
		bm &^= 1 << uint(i)
		m := t.motors[i]

		remaining := m.FxTicksPerStep() - m.FxCounter()
		skip := remaining / fxOne

		if first || skip < ticks {
			ticks = skip
			first = false
		}
		any = true
	}
	return ticks, any
}

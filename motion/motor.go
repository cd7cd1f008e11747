package motion

const fxOne = uint64(1) << 32

// SignalStepHandler is called once when a motor's stepped count reaches
// the value passed to AttachSignalStep. Runs in the step ISR's context;
// handlers must be ISR-safe (no allocation, no blocking).
type SignalStepHandler func(m *StepperMotor)

// StepperMotor is the per-axis state machine: a Q32.32 fixed-point DDA
// that turns a commanded step rate into step/unstep pin edges.
type StepperMotor struct {
	pin PinDriver

	direction bool
	moving    bool

	stepsToMove uint32
	stepped     uint32

	// fxTicksPerStep is Q32.32: the number of step-ticker periods between
	// pulses at the current speed.
	fxTicksPerStep uint64
	// fxCounter is the Q32.32 fractional accumulator.
	fxCounter uint64

	// rateRatio scales the main stepper's commanded rate into this
	// motor's own rate: steps[axis] / steps_event_count.
	rateRatio float64

	isMoveFinished bool
	finishedCalled bool
	onFinished     func(m *StepperMotor)

	signalStepAt      uint32
	signalStepHandler SignalStepHandler
	signalStepArmed   bool

	ticker *StepTicker
	index  int
}

// PinDriver is the minimal pin surface StepperMotor drives. Declared
// locally (rather than importing the hal package) so motion has no
// dependency on hardware/package layout; hal.PinDriver satisfies it.
type PinDriver interface {
	Step()
	Unstep()
	SetDirection(forward bool)
	Enable(on bool)
}

// NewStepperMotor constructs a motor driving the given pin set.
func NewStepperMotor(pin PinDriver) *StepperMotor {
	return &StepperMotor{pin: pin, rateRatio: 1.0}
}

// SetOnFinished registers the out-of-ISR completion callback, invoked once
// per move by StepTicker's signal_moves_finished pass.
func (m *StepperMotor) SetOnFinished(fn func(m *StepperMotor)) {
	m.onFinished = fn
}

// Moving reports whether the motor is between Move and completion.
func (m *StepperMotor) Moving() bool { return m.moving }

// Stepped returns the count of pulses emitted so far in the current move.
func (m *StepperMotor) Stepped() uint32 { return m.stepped }

// StepsToMove returns the target step count of the current move.
func (m *StepperMotor) StepsToMove() uint32 { return m.stepsToMove }

// Direction reports the commanded direction of the current move.
func (m *StepperMotor) Direction() bool { return m.direction }

// RateRatio returns the per-axis scale factor applied to the main
// stepper's commanded rate.
func (m *StepperMotor) RateRatio() float64 { return m.rateRatio }

// SetRateRatio sets the per-axis scale factor, computed by the caller as
// steps[axis] / steps_event_count.
func (m *StepperMotor) SetRateRatio(r float64) { m.rateRatio = r }

// Move starts a new move of the given step count and direction. Zero
// steps completes the move immediately: moving is left false and the
// end-of-move signal fires synchronously.
//
// stepsToMove, stepped, fxCounter and moving are also read by the step
// ISR's Tick every period; the field writes below are masked so the ISR
// never observes a torn in-progress update (spec.md §5's "writes from
// main context... must be done with the step ISR masked briefly").
func (m *StepperMotor) Move(direction bool, steps uint32) {
	m.pin.SetDirection(direction)

	state := disableInterrupts()
	m.direction = direction
	m.stepsToMove = steps
	m.stepped = 0
	m.fxCounter = 0
	m.isMoveFinished = steps == 0
	m.finishedCalled = false
	m.signalStepArmed = m.signalStepHandler != nil
	m.moving = steps > 0
	restoreInterrupts(state)

	if steps == 0 {
		m.FinishMove()
	}
}

// SetSpeed sets the commanded pulse rate. tickerRate is the step ticker's
// base frequency in Hz. fxTicksPerStep is floor-limited to fxOne so a
// pulse cannot be requested more than once per step-tick. fxTicksPerStep
// is read by the step ISR every period, so the write is masked.
func (m *StepperMotor) SetSpeed(stepsPerSecond, tickerRate float64) {
	var v uint64
	if stepsPerSecond <= 0 {
		v = fxOne << 16 // effectively stopped
	} else {
		ticksPerStep := (tickerRate / stepsPerSecond) * float64(fxOne)
		v = uint64(ticksPerStep + 0.5)
		if v < fxOne {
			v = fxOne
		}
	}

	state := disableInterrupts()
	m.fxTicksPerStep = v
	restoreInterrupts(state)
}

// FxTicksPerStep exposes the current Q32.32 period, for tests and for
// StepTicker's overrun catch-up computation.
func (m *StepperMotor) FxTicksPerStep() uint64 { return m.fxTicksPerStep }

// FxCounter exposes the current Q32.32 accumulator, for tests and for
// StepTicker's overrun catch-up computation.
func (m *StepperMotor) FxCounter() uint64 { return m.fxCounter }

// AdvanceFxCounter fast-forwards the accumulator by skip whole ticks
// without touching stepped. This is the only mutation the overrun
// catch-up path is allowed to perform.
func (m *StepperMotor) AdvanceFxCounter(skip uint64) {
	m.fxCounter += skip * fxOne
}

// Tick is called from the step-tick ISR once per period while the motor
// is active. Returns true if a pulse was asserted this tick.
func (m *StepperMotor) Tick() bool {
	m.fxCounter += fxOne
	stepped := false

	if m.fxCounter >= m.fxTicksPerStep {
		m.pin.Step()
		m.fxCounter -= m.fxTicksPerStep
		m.stepped++
		stepped = true

		if m.signalStepArmed && m.stepped == m.signalStepAt {
			m.signalStepArmed = false
			h := m.signalStepHandler
			if h != nil {
				h(m)
			}
		}

		if m.stepped == m.stepsToMove {
			m.isMoveFinished = true
		}
	}

	return stepped
}

// Unstep deasserts the physical step pin. Called at MR1.
func (m *StepperMotor) Unstep() {
	m.pin.Unstep()
}

// IsMoveFinished reports whether the current move reached its target step
// count. Set inside Tick; consumed out of ISR by StepTicker's
// signal_moves_finished pass, which clears Moving and fires the
// completion callback.
func (m *StepperMotor) IsMoveFinished() bool { return m.isMoveFinished }

// FinishMove clears moving and fires the completion callback exactly
// once per move. Called from StepTicker's out-of-ISR finish pass.
func (m *StepperMotor) FinishMove() {
	if m.finishedCalled {
		return
	}
	m.finishedCalled = true
	m.moving = false
	m.isMoveFinished = false
	if m.onFinished != nil {
		m.onFinished(m)
	}
}

// Pause and Unpause are no-ops: they drive no pin and leave pulse
// generation unchanged. Stepper.OnPause/OnPlay call them on every motor;
// pausing itself is done by Stepper.TrapezoidGeneratorTick returning early
// while paused.
func (m *StepperMotor) Pause()   {}
func (m *StepperMotor) Unpause() {}

// Enable turns the motor driver on or off.
func (m *StepperMotor) Enable(on bool) {
	m.pin.Enable(on)
}

// AttachSignalStep requests a callback the moment Stepped reaches n. Only
// one pending signal is supported at a time, matching the single
// decelerate_after hook the trapezoid generator needs per block.
func (m *StepperMotor) AttachSignalStep(n uint32, handler SignalStepHandler) {
	m.signalStepAt = n
	m.signalStepHandler = handler
	m.signalStepArmed = handler != nil && m.moving
}

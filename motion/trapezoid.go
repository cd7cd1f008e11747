package motion

import "math/bits"

// Phase tags the trapezoid generator's state explicitly, replacing the
// original firmware's implicit comparisons of stepped against the
// block's phase boundaries.
type Phase uint8

const (
	PhaseAccel Phase = iota
	PhaseCruise
	PhaseDecel
	PhaseFlushing
)

func (p Phase) String() string {
	switch p {
	case PhaseAccel:
		return "accel"
	case PhaseCruise:
		return "cruise"
	case PhaseDecel:
		return "decel"
	case PhaseFlushing:
		return "flushing"
	default:
		return "unknown"
	}
}

// EventPublisher is the minimal event-bus surface Stepper needs: a single
// fire-and-forget publish call per named event. eventbus.Bus satisfies
// this structurally.
type EventPublisher interface {
	Publish(event string, data any)
}

const (
	EventBlockBegin  = "ON_BLOCK_BEGIN"
	EventBlockEnd    = "ON_BLOCK_END"
	EventSpeedChange = "ON_SPEED_CHANGE"
	EventPlay        = "ON_PLAY"
	EventPause       = "ON_PAUSE"
)

// Stepper is the rate controller: it reacts to block begin/end events,
// drives the trapezoid generator on each acceleration tick, and announces
// the points where the acceleration tick should re-align with the step
// ticker (see SynchronizeAcceleration).
type Stepper struct {
	ticker *StepTicker
	motors []*StepperMotor
	bus    EventPublisher

	currentBlock *Block
	mainStepper  *StepperMotor
	mainIndex    int

	phase                 Phase
	trapezoidAdjustedRate float64
	forceSpeedUpdate      bool

	paused                     bool
	enablePinsStatus           bool
	minimumStepsPerSecond      float64
	accelerationTicksPerSecond float64
}

// NewStepper builds a trapezoid generator driving the given motors
// through the given step ticker, publishing rate-controller events on bus.
func NewStepper(ticker *StepTicker, motors []*StepperMotor, bus EventPublisher) *Stepper {
	return &Stepper{
		ticker:                     ticker,
		motors:                     motors,
		bus:                        bus,
		minimumStepsPerSecond:      50,
		accelerationTicksPerSecond: 100,
	}
}

// SetMinimumStepsPerSecond sets the rate floor set_step_events_per_second
// clamps to.
func (s *Stepper) SetMinimumStepsPerSecond(v float64) { s.minimumStepsPerSecond = v }

// SetAccelerationTicksPerSecond sets the rate the caller's slow ticker
// should invoke TrapezoidGeneratorTick at.
func (s *Stepper) SetAccelerationTicksPerSecond(v float64) { s.accelerationTicksPerSecond = v }

// AccelerationTicksPerSecond returns the configured acceleration tick rate.
func (s *Stepper) AccelerationTicksPerSecond() float64 { return s.accelerationTicksPerSecond }

// CurrentBlock returns the block being executed, or nil.
func (s *Stepper) CurrentBlock() *Block { return s.currentBlock }

// Phase returns the trapezoid generator's current phase.
func (s *Stepper) Phase() Phase { return s.phase }

// Paused reports whether the generator is paused.
func (s *Stepper) Paused() bool { return s.paused }

func (s *Stepper) publish(event string, data any) {
	if s.bus != nil {
		s.bus.Publish(event, data)
	}
}

// OnBlockBegin starts executing block. Zero-motion blocks are skipped
// without taking a reference, matching the firmware's degenerate-move
// handling.
func (s *Stepper) OnBlockBegin(block *Block) {
	if block == nil || block.IsZeroMotion() {
		return
	}

	block.Take()
	s.currentBlock = block

	if !s.enablePinsStatus {
		s.enableAll(true)
	}

	s.mainIndex = argmaxSteps(block.Steps)
	s.mainStepper = s.motors[s.mainIndex]

	for axis, steps := range block.Steps {
		if steps == 0 {
			continue
		}
		m := s.motors[axis]
		dir := block.DirectionBits&(1<<uint(axis)) == 0
		m.Move(dir, steps)
		m.SetRateRatio(float64(steps) / float64(block.StepsEventCount))
		s.ticker.AddMotorToActiveList(axis)
	}

	s.phase = PhaseAccel
	s.trapezoidAdjustedRate = block.InitialRate
	s.forceSpeedUpdate = true

	s.trapezoidGeneratorTick()
	s.synchronizeAcceleration(true)

	RecordTiming(EvtBlockBegin, uint8(s.mainIndex), s.ticker.Counter(), 0, 0)
	s.publish(EventBlockBegin, block)
}

// argmaxSteps returns the index of the largest value in steps.
func argmaxSteps(steps []uint32) int {
	best := 0
	for i, v := range steps {
		if v > steps[best] {
			best = i
		}
	}
	return best
}

// TrapezoidGeneratorTick is called at accelerationTicksPerSecond. It is a
// no-op when there's no block, the generator is paused, or no motor is
// active.
func (s *Stepper) TrapezoidGeneratorTick() {
	if s.currentBlock == nil || s.paused || s.ticker.ActiveMotorBitmask() == 0 {
		return
	}
	s.trapezoidGeneratorTick()
}

func (s *Stepper) trapezoidGeneratorTick() {
	block := s.currentBlock
	rate := s.trapezoidAdjustedRate

	if block.Flush {
		s.phase = PhaseFlushing
	}

	switch {
	case s.forceSpeedUpdate:
		s.forceSpeedUpdate = false

	case s.phase == PhaseFlushing:
		floor := block.RateDelta * 0.5
		rate -= block.RateDelta
		if rate <= floor {
			rate = floor
			s.setStepEventsPerSecond(rate)
			for _, m := range s.motors {
				m.Move(m.Direction(), 0)
			}
			s.releaseBlock()
			return
		}

	default:
		stepped := s.mainStepper.Stepped()
		switch {
		case stepped <= block.AccelerateUntil+1:
			s.phase = PhaseAccel
			rate += block.RateDelta
			if rate > block.NominalRate {
				rate = block.NominalRate
			}
		case stepped > block.DecelerateAfter:
			s.phase = PhaseDecel
			rate -= block.RateDelta
			floor := block.RateDelta * 0.5
			if rate <= 0 {
				rate = floor
			}
			if rate < block.FinalRate {
				rate = block.FinalRate
			}
		default:
			s.phase = PhaseCruise
			rate = block.NominalRate
		}
	}

	s.trapezoidAdjustedRate = rate
	s.setStepEventsPerSecond(rate)
}

func (s *Stepper) setStepEventsPerSecond(rate float64) {
	if rate < s.minimumStepsPerSecond {
		rate = s.minimumStepsPerSecond
	}
	for _, m := range s.motors {
		if !m.Moving() {
			continue
		}
		m.SetSpeed(rate*m.RateRatio(), s.ticker.Frequency())
	}
	s.publish(EventSpeedChange, rate)
}

// SynchronizeAcceleration publishes ON_ACCEL_SYNC carrying the step
// ticker's current counter value and records an EvtAccelSync timing
// event. It does not reprogram any timer: this package has no
// acceleration timer of its own, and the schedule on which the caller
// invokes TrapezoidGeneratorTick is not changed by the call. The internal
// call made from OnBlockBegin (atBlockBegin true) additionally, if
// decelerate_after falls strictly inside the move, registers a per-step
// hook on the main stepper that repeats the synchronization the instant
// deceleration starts — the second of the two calls per block.
func (s *Stepper) SynchronizeAcceleration() {
	s.synchronizeAcceleration(false)
}

func (s *Stepper) synchronizeAcceleration(atBlockBegin bool) {
	s.publish(EventAccelSyncName, s.ticker.Counter())
	RecordTiming(EvtAccelSync, uint8(s.mainIndex), s.ticker.Counter(), 0, 0)

	if !atBlockBegin {
		return
	}

	block := s.currentBlock
	if block == nil {
		return
	}
	if block.DecelerateAfter == 0 || block.DecelerateAfter >= s.mainStepper.StepsToMove() {
		return
	}

	decelAfter := block.DecelerateAfter
	s.mainStepper.AttachSignalStep(decelAfter, func(*StepperMotor) {
		s.synchronizeAcceleration(false)
	})
}

// EventAccelSyncName is published whenever the acceleration ISR
// re-synchronizes to the step ticker, for diagnostics/tests.
const EventAccelSyncName = "ON_ACCEL_SYNC"

// stepperMotorFinishedMove is the onFinished callback WireMotorCompletion
// installs on every motor; it releases the block once no motor is moving.
func (s *Stepper) stepperMotorFinishedMove(*StepperMotor) {
	for _, m := range s.motors {
		if m.Moving() {
			return
		}
	}
	s.releaseBlock()
}

// WireMotorCompletion registers stepperMotorFinishedMove as the
// completion callback on every motor this Stepper drives. Call once at
// setup, after all motors have been added to the Stepper and the ticker.
func (s *Stepper) WireMotorCompletion() {
	for _, m := range s.motors {
		m.SetOnFinished(s.stepperMotorFinishedMove)
	}
}

func (s *Stepper) releaseBlock() {
	block := s.currentBlock
	if block == nil {
		return
	}
	s.currentBlock = nil
	s.phase = PhaseAccel
	for _, m := range s.motors {
		idx := m.index
		s.ticker.RemoveMotorFromActiveList(idx)
	}
	block.Release()
	RecordTiming(EvtBlockEnd, uint8(s.mainIndex), s.ticker.Counter(), 0, 0)
	s.publish(EventBlockEnd, block)
}

// Flush requests the current block decelerate to a stop and release,
// regardless of its current step position.
func (s *Stepper) Flush() {
	if s.currentBlock == nil || s.phase == PhaseFlushing {
		return
	}
	s.currentBlock.Flush = true
	s.phase = PhaseFlushing
}

// OnPause freezes rate updates; in-flight pulses still drain through the
// step ticker.
func (s *Stepper) OnPause() {
	s.paused = true
	for _, m := range s.motors {
		m.Pause()
	}
	s.publish(EventPause, nil)
}

// OnPlay resumes rate updates after a pause.
func (s *Stepper) OnPlay() {
	s.paused = false
	for _, m := range s.motors {
		m.Unpause()
	}
	s.publish(EventPlay, nil)
}

func (s *Stepper) enableAll(on bool) {
	s.enablePinsStatus = on
	for _, m := range s.motors {
		m.Enable(on)
	}
}

// SetEnabled turns all motor drivers on or off directly, used by M17/M18.
func (s *Stepper) SetEnabled(on bool) {
	s.enableAll(on)
}

// EnablePinsStatus reports whether the drivers are currently enabled.
func (s *Stepper) EnablePinsStatus() bool { return s.enablePinsStatus }

// activeAxisCount is a small helper retained for diagnostics: how many
// motors are currently in the ticker's active set.
func activeAxisCount(bm uint32) int {
	return bits.OnesCount32(bm)
}

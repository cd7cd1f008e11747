package motion

import "testing"

type recordingBus struct {
	events []string
	data   []any
}

func (b *recordingBus) Publish(event string, data any) {
	b.events = append(b.events, event)
	b.data = append(b.data, data)
}

func (b *recordingBus) count(event string) int {
	n := 0
	for _, e := range b.events {
		if e == event {
			n++
		}
	}
	return n
}

func newTestStepper(t *testing.T, numMotors int) (*Stepper, *StepTicker, []*StepperMotor, []*fakePin, *recordingBus) {
	t.Helper()
	ticker := NewStepTicker()
	ticker.SetFrequency(10, 1000)
	ticker.SetResetDelay(2)

	motors := make([]*StepperMotor, numMotors)
	pins := make([]*fakePin, numMotors)
	for i := 0; i < numMotors; i++ {
		pins[i] = &fakePin{}
		motors[i] = NewStepperMotor(pins[i])
		ticker.AddStepperMotor(motors[i])
	}

	bus := &recordingBus{}
	stepper := NewStepper(ticker, motors, bus)
	stepper.WireMotorCompletion()
	return stepper, ticker, motors, pins, bus
}

func TestOnBlockBeginSkipsZeroMotionBlock(t *testing.T) {
	stepper, _, _, _, bus := newTestStepper(t, 1)

	block := &Block{Steps: []uint32{0}, Millimeters: 0}
	stepper.OnBlockBegin(block)

	if stepper.CurrentBlock() != nil {
		t.Errorf("expected a zero-motion block to be skipped, got a current block")
	}
	if block.Refcount() != 0 {
		t.Errorf("expected a zero-motion block to never be taken, refcount=%d", block.Refcount())
	}
	if bus.count(EventBlockBegin) != 0 {
		t.Errorf("expected no ON_BLOCK_BEGIN for a skipped block")
	}
}

func TestOnBlockBeginStartsAccelPhaseAtInitialRate(t *testing.T) {
	stepper, _, _, _, bus := newTestStepper(t, 1)

	block := &Block{
		Steps:           []uint32{100},
		StepsEventCount: 100,
		InitialRate:     200,
		NominalRate:     2000,
		FinalRate:       200,
		RateDelta:       50,
		AccelerateUntil: 20,
		DecelerateAfter: 80,
		Millimeters:     5,
	}
	stepper.OnBlockBegin(block)

	if stepper.CurrentBlock() != block {
		t.Fatalf("expected OnBlockBegin to take the block")
	}
	if stepper.Phase() != PhaseAccel {
		t.Errorf("Phase() = %v, want PhaseAccel", stepper.Phase())
	}
	if block.Refcount() != 1 {
		t.Errorf("Refcount() = %d, want 1", block.Refcount())
	}
	if bus.count(EventBlockBegin) != 1 {
		t.Errorf("expected exactly one ON_BLOCK_BEGIN publish")
	}
	if bus.count(EventAccelSyncName) != 1 {
		t.Errorf("expected synchronize_acceleration to publish once at block begin")
	}
}

func TestOnBlockBeginEnablesDriversWhenNotAlreadyEnabled(t *testing.T) {
	stepper, _, _, pins, _ := newTestStepper(t, 1)

	block := &Block{Steps: []uint32{10}, StepsEventCount: 10, NominalRate: 1000, Millimeters: 1}
	stepper.OnBlockBegin(block)

	if !pins[0].enabled {
		t.Errorf("expected OnBlockBegin to enable drivers when not already enabled")
	}
	if !stepper.EnablePinsStatus() {
		t.Errorf("expected EnablePinsStatus() true after OnBlockBegin")
	}
}

func TestSynchronizeAccelerationRegistersDecelSignalWhenInsideMove(t *testing.T) {
	stepper, _, motors, _, bus := newTestStepper(t, 1)

	block := &Block{
		Steps:           []uint32{100},
		StepsEventCount: 100,
		InitialRate:     200,
		NominalRate:     2000,
		FinalRate:       200,
		RateDelta:       50,
		AccelerateUntil: 20,
		DecelerateAfter: 50,
		Millimeters:     5,
	}
	stepper.OnBlockBegin(block)

	before := bus.count(EventAccelSyncName)

	// Drive the main stepper's own Tick to its decelerate_after boundary;
	// the registered signal callback should fire synchronizeAcceleration
	// again without anything else triggering it.
	motors[0].SetSpeed(2000, 1000)
	for i := uint32(0); i < block.DecelerateAfter; i++ {
		motors[0].Tick()
	}

	after := bus.count(EventAccelSyncName)
	if after != before+1 {
		t.Errorf("expected exactly one additional ON_ACCEL_SYNC when decelerate_after is reached, got %d more", after-before)
	}
}

func TestTrapezoidGeneratorTicksThroughAccelCruiseDecel(t *testing.T) {
	stepper, ticker, motors, _, _ := newTestStepper(t, 1)

	block := &Block{
		Steps:           []uint32{1000},
		StepsEventCount: 1000,
		InitialRate:     100,
		NominalRate:     1000,
		FinalRate:       100,
		RateDelta:       50,
		AccelerateUntil: 18,
		DecelerateAfter: 980,
		Millimeters:     50,
	}
	stepper.OnBlockBegin(block)

	if stepper.Phase() != PhaseAccel {
		t.Fatalf("expected initial phase PhaseAccel, got %v", stepper.Phase())
	}

	// Force the main motor's stepped count up through the cruise region
	// and call the generator tick directly, the way the acceleration
	// ticker would.
	motors[0].SetSpeed(1000, ticker.Frequency())
	for motors[0].Stepped() < 500 {
		motors[0].Tick()
	}
	stepper.TrapezoidGeneratorTick()
	if stepper.Phase() != PhaseCruise {
		t.Errorf("expected PhaseCruise mid-block, got %v", stepper.Phase())
	}

	for motors[0].Stepped() < uint32(block.DecelerateAfter)+1 {
		motors[0].Tick()
	}
	stepper.TrapezoidGeneratorTick()
	if stepper.Phase() != PhaseDecel {
		t.Errorf("expected PhaseDecel after decelerate_after, got %v", stepper.Phase())
	}
}

func TestFlushDeceleratesAndReleasesBlock(t *testing.T) {
	stepper, _, _, _, bus := newTestStepper(t, 1)

	block := &Block{
		Steps:           []uint32{1000},
		StepsEventCount: 1000,
		InitialRate:     100,
		NominalRate:     1000,
		FinalRate:       100,
		RateDelta:       200,
		AccelerateUntil: 10,
		DecelerateAfter: 900,
		Millimeters:     50,
	}
	stepper.OnBlockBegin(block)

	stepper.Flush()
	if stepper.Phase() != PhaseFlushing {
		t.Fatalf("expected PhaseFlushing after Flush(), got %v", stepper.Phase())
	}

	// Repeated ticks must decelerate the rate down to the floor and then
	// release the block.
	released := false
	for i := 0; i < 100; i++ {
		stepper.TrapezoidGeneratorTick()
		if stepper.CurrentBlock() == nil {
			released = true
			break
		}
	}

	if !released {
		t.Fatalf("expected the flushed block to release within 100 ticks")
	}
	if bus.count(EventBlockEnd) != 1 {
		t.Errorf("expected exactly one ON_BLOCK_END publish")
	}
}

func TestWireMotorCompletionReleasesBlockWhenAllMotorsFinish(t *testing.T) {
	stepper, ticker, motors, _, bus := newTestStepper(t, 2)

	block := &Block{
		Steps:           []uint32{2, 1},
		StepsEventCount: 2,
		InitialRate:     1000,
		NominalRate:     1000,
		FinalRate:       1000,
		RateDelta:       0,
		Millimeters:     1,
	}
	stepper.OnBlockBegin(block)

	ticker.AddMotorToActiveList(0)
	ticker.AddMotorToActiveList(1)

	motors[0].SetSpeed(1000, ticker.Frequency())
	motors[1].SetSpeed(500, ticker.Frequency())

	for i := 0; i < 10 && stepper.CurrentBlock() != nil; i++ {
		ticker.Advance(10)
		ticker.Advance(2)
	}

	if stepper.CurrentBlock() != nil {
		t.Fatalf("expected the block to release once every motor finishes")
	}
	if bus.count(EventBlockEnd) != 1 {
		t.Errorf("expected exactly one ON_BLOCK_END publish")
	}
}

func TestSetEnabledTogglesAllMotors(t *testing.T) {
	stepper, _, _, pins, _ := newTestStepper(t, 2)

	stepper.SetEnabled(true)
	for i, p := range pins {
		if !p.enabled {
			t.Errorf("motor %d: expected enabled after SetEnabled(true)", i)
		}
	}
	if !stepper.EnablePinsStatus() {
		t.Errorf("expected EnablePinsStatus() true")
	}

	stepper.SetEnabled(false)
	for i, p := range pins {
		if p.enabled {
			t.Errorf("motor %d: expected disabled after SetEnabled(false)", i)
		}
	}
}

func TestOnPauseSetsPausedAndOnPlayClearsIt(t *testing.T) {
	stepper, _, _, _, bus := newTestStepper(t, 1)

	stepper.OnPause()
	if !stepper.Paused() {
		t.Errorf("expected Paused() true after OnPause")
	}
	if bus.count(EventPause) != 1 {
		t.Errorf("expected exactly one ON_PAUSE publish")
	}

	stepper.OnPlay()
	if stepper.Paused() {
		t.Errorf("expected Paused() false after OnPlay")
	}
	if bus.count(EventPlay) != 1 {
		t.Errorf("expected exactly one ON_PLAY publish")
	}
}

func TestTrapezoidGeneratorTickIsNoopWithoutABlock(t *testing.T) {
	stepper, _, _, _, _ := newTestStepper(t, 1)
	// Must not panic with no current block and no active motors.
	stepper.TrapezoidGeneratorTick()
	if stepper.Phase() != PhaseAccel {
		t.Errorf("expected the zero-value phase to be left untouched")
	}
}

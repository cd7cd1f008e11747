package main

import (
	"fmt"
	"sort"

	"pulsecore/motion"
)

// scenario builds the Block(s) a named run feeds through the motion
// core, plus any mid-run action (e.g. a flush) keyed by main-stepper step
// count. These stand in for a motion planner's output; building one is
// the test harness's job here, not the motion core's.
type scenario struct {
	describe func(s *simulator) *motion.Block
	// flushAfterSteps, if nonzero, calls stepper.Flush() the first time
	// the main stepper's Stepped() count reaches this value.
	flushAfterSteps uint32
	// overrunTicks, if nonzero, advances the ticker by this many ticks in
	// one jump right after the block begins, instead of one period at a
	// time, to exercise the overrun catch-up path.
	overrunTicks uint32
}

var scenarios = map[string]scenario{
	"single-axis": {
		describe: func(s *simulator) *motion.Block {
			return &motion.Block{
				Steps:           []uint32{200, 0, 0},
				StepsEventCount: 200,
				InitialRate:     200,
				NominalRate:     2000,
				FinalRate:       200,
				RateDelta:       50,
				AccelerateUntil: 40,
				DecelerateAfter: 160,
				Millimeters:     10,
			}
		},
	},
	"pure-trapezoid": {
		describe: func(s *simulator) *motion.Block {
			return &motion.Block{
				Steps:           []uint32{1000, 0, 0},
				StepsEventCount: 1000,
				InitialRate:     100,
				NominalRate:     4000,
				FinalRate:       100,
				RateDelta:       40,
				AccelerateUntil: 250,
				DecelerateAfter: 750,
				Millimeters:     50,
			}
		},
	},
	"coordinated-xy": {
		describe: func(s *simulator) *motion.Block {
			return &motion.Block{
				Steps:           []uint32{300, 400, 0},
				StepsEventCount: 400,
				InitialRate:     200,
				NominalRate:     3000,
				FinalRate:       200,
				RateDelta:       60,
				AccelerateUntil: 80,
				DecelerateAfter: 320,
				Millimeters:     25,
			}
		},
	},
	"flush-mid-block": {
		describe: func(s *simulator) *motion.Block {
			return &motion.Block{
				Steps:           []uint32{2000, 0, 0},
				StepsEventCount: 2000,
				InitialRate:     200,
				NominalRate:     5000,
				FinalRate:       200,
				RateDelta:       40,
				AccelerateUntil: 400,
				DecelerateAfter: 1600,
				Millimeters:     100,
			}
		},
		flushAfterSteps: 500,
	},
	"isr-overrun": {
		describe: func(s *simulator) *motion.Block {
			return &motion.Block{
				Steps:           []uint32{500, 0, 0},
				StepsEventCount: 500,
				InitialRate:     200,
				NominalRate:     2000,
				FinalRate:       200,
				RateDelta:       50,
				AccelerateUntil: 100,
				DecelerateAfter: 400,
				Millimeters:     20,
			}
		},
		overrunTicks: 50,
	},
	"zero-motion": {
		describe: func(s *simulator) *motion.Block {
			return &motion.Block{
				Steps:           []uint32{0, 0, 0},
				StepsEventCount: 0,
				Millimeters:     0,
			}
		},
	},
}

func scenarioNames() []string {
	names := make([]string, 0, len(scenarios))
	for name := range scenarios {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// runScenario builds name's block, feeds it through s.stepper, and
// advances the simulated clock one step-ticker period at a time
// (overrunTicks at once, for the overrun scenario) until the block
// releases, then prints a one-line summary (ticks, final phase, step
// count per axis).
func (s *simulator) runScenario(name string) error {
	sc, ok := scenarios[name]
	if !ok {
		return fmt.Errorf("unknown scenario %q (try 'list')", name)
	}

	block := sc.describe(s)
	s.stepper.OnBlockBegin(block)

	if block.IsZeroMotion() {
		fmt.Println("zero-motion block: skipped without taking a reference, nothing to run")
		return nil
	}

	accelEvery := accelTickPeriod(s)
	ticks := uint32(0)
	flushed := false

	for s.stepper.CurrentBlock() != nil {
		step := uint32(1)
		if sc.overrunTicks != 0 && ticks == 0 {
			step = sc.overrunTicks
		}
		s.ticker.Advance(step)
		ticks += step

		if ticks%accelEvery == 0 {
			s.stepper.TrapezoidGeneratorTick()
		}

		if sc.flushAfterSteps != 0 && !flushed {
			main := s.motors[mainAxis(block)]
			if main.Stepped() >= sc.flushAfterSteps {
				s.stepper.Flush()
				flushed = true
			}
		}

		if ticks > 10_000_000 {
			return fmt.Errorf("scenario %q did not complete within the tick budget", name)
		}

		s.flush()
	}

	fmt.Printf("scenario %q complete: ticks=%d phase=%s steps=[%s]\n",
		name, ticks, s.stepper.Phase(), fmtSteps(s.pins[:]))

	// Surface any overrun/catch-up events the step ISR recorded during
	// this run through the logger now that we're back in main context.
	motion.DumpTimingRing()
	motion.ClearTimingRing()
	return nil
}

func accelTickPeriod(s *simulator) uint32 {
	freq := s.ticker.Frequency()
	accel := s.stepper.AccelerationTicksPerSecond()
	if accel <= 0 || freq <= 0 {
		return 1
	}
	period := uint32(freq / accel)
	if period == 0 {
		period = 1
	}
	return period
}

func mainAxis(b *motion.Block) int {
	best := 0
	for i, v := range b.Steps {
		if v > b.Steps[best] {
			best = i
		}
	}
	return best
}

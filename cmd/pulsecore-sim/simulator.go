package main

import (
	"fmt"
	"io"

	"pulsecore/config"
	"pulsecore/eventbus"
	"pulsecore/gcodeio"
	"pulsecore/hal"
	"pulsecore/logging"
	"pulsecore/motion"
	"pulsecore/protocol"
)

const simAxes = 3

// simulator owns the wired-up motion core plus the gcodeio command
// surface, scoped to the lifetime of one CLI run.
type simulator struct {
	log *logging.Logger
	cfg *config.Store
	bus *eventbus.Bus

	pins    [simAxes]*hal.SimPin
	motors  [simAxes]*motion.StepperMotor
	ticker  *motion.StepTicker
	stepper *motion.Stepper

	registry      *gcodeio.CommandRegistry
	enableHandler *gcodeio.EnableHandler

	notifier  *gcodeio.Notifier
	output    *protocol.ScratchOutput
	transport *protocol.Transport
	mirror    io.Writer
}

// newSimulator wires three axes of SimPin-backed motors onto one
// StepTicker and Stepper. If mirror is non-nil, every pin's transitions
// are additionally framed over protocol and written to it, the way the
// demo CLI's --serial flag mirrors a real driver's waveform to an
// external logic analyzer or second host.
func newSimulator(cfg *config.Store, bus *eventbus.Bus, log *logging.Logger, mirror io.Writer) *simulator {
	s := &simulator{log: log, cfg: cfg, bus: bus, mirror: mirror}

	s.registry = gcodeio.NewCommandRegistry()
	s.output = protocol.NewScratchOutput()
	s.transport = protocol.NewTransport(s.output)
	s.notifier = gcodeio.NewNotifier(s.registry, s.transport)

	motors := make([]*motion.StepperMotor, simAxes)
	s.ticker = motion.NewStepTicker()

	for i := 0; i < simAxes; i++ {
		s.pins[i] = hal.NewSimPin(fmt.Sprintf("axis%d", i))

		var pin motion.PinDriver = s.pins[i]
		if mirror != nil {
			pin = gcodeio.NewNotifyingPin(i, s.pins[i], s.notifier)
		}

		s.motors[i] = motion.NewStepperMotor(pin)
		s.ticker.AddStepperMotor(s.motors[i])
		motors[i] = s.motors[i]
	}

	// The simulated free-running counter's unit is defined as one MR0
	// period (period=1), so scenarios.go's normal Advance(1) calls mean
	// exactly "one step-ticker period elapsed". frequencyHz is still the
	// real rate StepperMotor.SetSpeed needs. The pulse width is one unit
	// wide in this model: just enough to keep MR1 a distinct, later event
	// than MR0 rather than collapsing pulse-width config into a no-op.
	freq := cfg.Value(config.KeyStepTickerFrequency).ByDefault(200000).AsNumber()
	s.ticker.SetFrequency(1, freq)
	s.ticker.SetResetDelay(1)

	s.stepper = motion.NewStepper(s.ticker, motors, bus)
	s.stepper.SetAccelerationTicksPerSecond(cfg.Value(config.KeyAccelerationTicksPerSecond).AsNumber())
	s.stepper.SetMinimumStepsPerSecond(cfg.Value(config.KeyMinimumStepsPerMinute).AsNumber() / 60)
	s.stepper.WireMotorCompletion()

	s.enableHandler = gcodeio.NewEnableHandler(s.stepper)

	s.wireLogging()

	return s
}

// wireLogging subscribes the demo CLI's logger to the main-context events
// SPEC_FULL.md's AMBIENT STACK section promises it: block begin/end,
// pause/play, config reload, and (via motion.DumpTimingRing, called by
// runScenario after each block) overrun/catch-up detection. Every handler
// here runs from eventbus.Publish's caller. ON_BLOCK_END comes from
// Stepper.releaseBlock, which runs inside StepTicker.TickMR0's
// finished-move pass or the trapezoid tick's flush branch; in this
// simulator both are plain calls made from runScenario's loop rather than
// hardware interrupts. The other events are published from main-context
// calls (Stepper.OnBlockBegin, OnPause/OnPlay, config.Store.Reload).
func (s *simulator) wireLogging() {
	motion.SetDebugWriter(func(msg string) { s.log.Debugf("%s", msg) })
	motion.SetDebugEnabled(true)

	if s.bus == nil {
		return
	}
	s.bus.Subscribe(motion.EventBlockBegin, func(data any) {
		b, ok := data.(*motion.Block)
		if !ok {
			return
		}
		s.log.Infof("block begin: steps=%v initial=%.0f nominal=%.0f final=%.0f",
			b.Steps, b.InitialRate, b.NominalRate, b.FinalRate)
	})
	s.bus.Subscribe(motion.EventBlockEnd, func(data any) {
		b, ok := data.(*motion.Block)
		if !ok {
			return
		}
		s.log.Infof("block end: steps=%v", b.Steps)
	})
	s.bus.Subscribe(motion.EventPause, func(any) {
		s.log.Infof("paused")
	})
	s.bus.Subscribe(motion.EventPlay, func(any) {
		s.log.Infof("resumed")
	})
	s.bus.Subscribe("ON_CONFIG_RELOAD", func(any) {
		s.log.Infof("config reloaded")
	})
}

// logEnableChange reports an M17/M18/M84-driven enable/disable transition,
// called from main.go right after gcodeio.EnableHandler.Handle succeeds.
func (s *simulator) logEnableChange() {
	s.log.Infof("drivers enabled=%v", s.stepper.EnablePinsStatus())
}

// flush writes any buffered notification frames to the mirror sink.
func (s *simulator) flush() {
	if s.mirror == nil || s.output.CurPosition() == 0 {
		return
	}
	s.mirror.Write(s.output.Result())
	s.output.Reset()
}

package gcodeio

import "pulsecore/protocol"

// Pin-change notification command IDs. Registered once per Notifier so
// the dictionary listing names them, even though the demo CLI is the
// only consumer today.
const (
	cmdStepChange      = "step_change"
	cmdDirectionChange = "direction_change"
	cmdEnableChange    = "enable_change"
)

// Notifier frames pin-change events over a protocol.Transport as
// MCU-to-host responses: a VLQ command ID followed by a VLQ axis index
// and a single state byte.
type Notifier struct {
	registry  *CommandRegistry
	transport *protocol.Transport

	stepCmd uint16
	dirCmd  uint16
	enCmd   uint16
}

// NewNotifier registers the three pin-change commands on registry and
// binds them to transport for framing.
func NewNotifier(registry *CommandRegistry, transport *protocol.Transport) *Notifier {
	n := &Notifier{registry: registry, transport: transport}
	n.stepCmd = registry.Register(cmdStepChange, "axis%u value%u", func(*[]byte) error { return nil })
	n.dirCmd = registry.Register(cmdDirectionChange, "axis%u value%u", func(*[]byte) error { return nil })
	n.enCmd = registry.Register(cmdEnableChange, "axis%u value%u", func(*[]byte) error { return nil })
	return n
}

func (n *Notifier) send(cmdID uint16, axis int, value bool) {
	if n.transport == nil {
		return
	}
	n.transport.SendCommand(cmdID, func(output protocol.OutputBuffer) {
		protocol.EncodeVLQUint(output, uint32(axis))
		v := uint32(0)
		if value {
			v = 1
		}
		protocol.EncodeVLQUint(output, v)
	})
}

// NotifyStep reports a step pin assert/deassert on axis.
func (n *Notifier) NotifyStep(axis int, high bool) { n.send(n.stepCmd, axis, high) }

// NotifyDirection reports a direction pin change on axis.
func (n *Notifier) NotifyDirection(axis int, forward bool) { n.send(n.dirCmd, axis, forward) }

// NotifyEnable reports a driver enable/disable change on axis.
func (n *Notifier) NotifyEnable(axis int, on bool) { n.send(n.enCmd, axis, on) }

// NotifyingPin wraps a hal.PinDriver, relaying every pin transition
// through a Notifier in addition to driving the underlying pin, so the
// demo CLI can mirror hardware state over protocol.Transport without the
// motion core itself depending on gcodeio.
type NotifyingPin struct {
	axis     int
	notifier *Notifier
	inner    PinDriver
}

// PinDriver mirrors motion.StepperMotor's own PinDriver interface,
// declared locally so this package does not need to import motion just
// to wrap a pin.
type PinDriver interface {
	Step()
	Unstep()
	SetDirection(forward bool)
	Enable(on bool)
}

// NewNotifyingPin wraps inner, reporting its transitions for axis through
// notifier.
func NewNotifyingPin(axis int, inner PinDriver, notifier *Notifier) *NotifyingPin {
	return &NotifyingPin{axis: axis, inner: inner, notifier: notifier}
}

func (p *NotifyingPin) Step() {
	p.inner.Step()
	p.notifier.NotifyStep(p.axis, true)
}

func (p *NotifyingPin) Unstep() {
	p.inner.Unstep()
	p.notifier.NotifyStep(p.axis, false)
}

func (p *NotifyingPin) SetDirection(forward bool) {
	p.inner.SetDirection(forward)
	p.notifier.NotifyDirection(p.axis, forward)
}

func (p *NotifyingPin) Enable(on bool) {
	p.inner.Enable(on)
	p.notifier.NotifyEnable(p.axis, on)
}

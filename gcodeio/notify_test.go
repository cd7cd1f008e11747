package gcodeio

import (
	"testing"

	"pulsecore/protocol"
)

type recordingPin struct {
	steps      int
	unsteps    int
	lastDir    bool
	lastEnable bool
}

func (p *recordingPin) Step()                     { p.steps++ }
func (p *recordingPin) Unstep()                   { p.unsteps++ }
func (p *recordingPin) SetDirection(forward bool) { p.lastDir = forward }
func (p *recordingPin) Enable(on bool)            { p.lastEnable = on }

func newTestTransport() (*protocol.Transport, *protocol.ScratchOutput) {
	out := protocol.NewScratchOutput()
	tr := protocol.NewTransport(out)
	return tr, out
}

func TestNotifierRegistersThreeCommands(t *testing.T) {
	registry := NewCommandRegistry()
	tr, _ := newTestTransport()
	NewNotifier(registry, tr)

	if registry.Count() != 3 {
		t.Fatalf("expected 3 registered commands, got %d", registry.Count())
	}
}

func TestNotifyStepEncodesFrame(t *testing.T) {
	registry := NewCommandRegistry()
	tr, out := newTestTransport()
	n := NewNotifier(registry, tr)

	n.NotifyStep(2, true)

	if out.CurPosition() == 0 {
		t.Fatalf("expected NotifyStep to write frame bytes")
	}
}

func TestNotifyingPinForwardsToInnerAndReportsEachTransition(t *testing.T) {
	registry := NewCommandRegistry()
	tr, out := newTestTransport()
	n := NewNotifier(registry, tr)
	inner := &recordingPin{}
	pin := NewNotifyingPin(0, inner, n)

	before := out.CurPosition()
	pin.Step()
	if inner.steps != 1 {
		t.Errorf("expected inner.Step called once")
	}
	if out.CurPosition() == before {
		t.Errorf("expected Step to emit a notification frame")
	}

	before = out.CurPosition()
	pin.Unstep()
	if inner.unsteps != 1 {
		t.Errorf("expected inner.Unstep called once")
	}
	if out.CurPosition() == before {
		t.Errorf("expected Unstep to emit a notification frame")
	}

	pin.SetDirection(true)
	if !inner.lastDir {
		t.Errorf("expected inner direction forwarded")
	}

	pin.Enable(true)
	if !inner.lastEnable {
		t.Errorf("expected inner enable forwarded")
	}
}

func TestNotifierWithNilTransportIsSafe(t *testing.T) {
	registry := NewCommandRegistry()
	n := NewNotifier(registry, nil)

	n.NotifyStep(0, true)
	n.NotifyDirection(0, true)
	n.NotifyEnable(0, true)
}

package gcodeio

import "testing"

type fakeEnableController struct {
	enabled bool
}

func (f *fakeEnableController) SetEnabled(on bool) { f.enabled = on }
func (f *fakeEnableController) EnablePinsStatus() bool { return f.enabled }

func TestM17EnablesDrivers(t *testing.T) {
	motors := &fakeEnableController{}
	h := NewEnableHandler(motors)

	cmd, _ := ParseLine("M17")
	if !h.Handle(cmd) {
		t.Fatalf("expected M17 to be handled")
	}
	if !motors.enabled {
		t.Errorf("expected drivers enabled after M17")
	}
}

func TestM18DisablesDrivers(t *testing.T) {
	motors := &fakeEnableController{enabled: true}
	h := NewEnableHandler(motors)

	cmd, _ := ParseLine("M18")
	if !h.Handle(cmd) {
		t.Fatalf("expected M18 to be handled")
	}
	if motors.enabled {
		t.Errorf("expected drivers disabled after M18")
	}
}

func TestM84DisablesDrivers(t *testing.T) {
	motors := &fakeEnableController{enabled: true}
	h := NewEnableHandler(motors)

	cmd, _ := ParseLine("M84")
	if !h.Handle(cmd) {
		t.Fatalf("expected M84 to be handled")
	}
	if motors.enabled {
		t.Errorf("expected drivers disabled after M84")
	}
}

func TestM84WithELetterLeavesDriversAlone(t *testing.T) {
	motors := &fakeEnableController{enabled: true}
	h := NewEnableHandler(motors)

	cmd, _ := ParseLine("M84 E0")
	if h.Handle(cmd) {
		t.Fatalf("expected M84 E0 to be left unhandled")
	}
	if !motors.enabled {
		t.Errorf("expected drivers to remain enabled when M84 carries an E parameter")
	}
}

func TestM18WithELetterLeavesDriversAlone(t *testing.T) {
	motors := &fakeEnableController{enabled: true}
	h := NewEnableHandler(motors)

	cmd, _ := ParseLine("M18 E1")
	if h.Handle(cmd) {
		t.Fatalf("expected M18 E1 to be left unhandled")
	}
	if !motors.enabled {
		t.Errorf("expected drivers to remain enabled when M18 carries an E parameter")
	}
}

func TestUnrelatedCommandIgnored(t *testing.T) {
	motors := &fakeEnableController{}
	h := NewEnableHandler(motors)

	cmd, _ := ParseLine("G1 X10")
	if h.Handle(cmd) {
		t.Errorf("expected non-M command to be ignored")
	}
}

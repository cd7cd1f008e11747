package gcodeio

// EnableController is the motion.Stepper surface M17/M18/M84 handling
// needs: turn all drivers on/off and read back their status.
type EnableController interface {
	SetEnabled(on bool)
	EnablePinsStatus() bool
}

// EnableHandler reacts to M17 (enable) and M18/M84 (disable) the way the
// original firmware's Stepper::on_gcode_execute does: M18/M84 only
// disables the drivers when the line does not carry an 'E' parameter,
// since some senders overload M84 En to mean "turn off this extruder's
// idle timeout" rather than "cut power to every stepper".
type EnableHandler struct {
	motors EnableController
}

// NewEnableHandler wires motors as the driver-enable target.
func NewEnableHandler(motors EnableController) *EnableHandler {
	return &EnableHandler{motors: motors}
}

// Handle applies M17/M18/M84 semantics for cmd. Any other command is
// ignored and returns false.
func (h *EnableHandler) Handle(cmd *GCode) bool {
	if cmd == nil || cmd.Type != 'M' {
		return false
	}

	switch cmd.Number {
	case 17:
		h.motors.SetEnabled(true)
		return true
	case 84, 18:
		if cmd.HasLetter('E') {
			return false
		}
		h.motors.SetEnabled(false)
		return true
	default:
		return false
	}
}

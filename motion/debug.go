package motion

import "strconv"

// DebugWriter is a function type for writing debug messages.
type DebugWriter func(string)

// TimingEvent captures a timing-critical event for post-mortem analysis.
type TimingEvent struct {
	EventType uint8  // Event type code
	OID       uint8  // Motor index the event concerns
	Clock     uint32 // StepTicker clock at event
	Value1    uint32 // Context-dependent value
	Value2    uint32 // Context-dependent value
}

// Event type codes recorded by the step and acceleration ISRs.
const (
	EvtTickFired      = 1 // StepTicker.TickMR0 serviced a step edge
	EvtUnstepFired     = 2 // StepTicker.TickMR1 deasserted pulses
	EvtOverrunDetected = 3 // TC ran past MR0 before the ISR serviced it
	EvtCatchUpApplied  = 4 // fx_counter fast-forwarded to skip stale ticks
	EvtBlockBegin      = 5 // Stepper.onBlockBegin started a new block
	EvtBlockEnd        = 6 // Stepper released a finished block
	EvtAccelSync       = 7 // synchronize_acceleration ran
)

const (
	// TimingRingSize keeps the last N events for post-mortem inspection.
	TimingRingSize = 32
)

var (
	// debugPrintln is the global debug print function (set by platform code).
	debugPrintln DebugWriter = func(s string) {}

	// debugEnabled gates DebugPrintln. Disabled by default: no work on the
	// step ISR path unless explicitly turned on for diagnosis.
	debugEnabled bool = false

	timingRing     [TimingRingSize]TimingEvent
	timingRingHead uint8
	timingEnabled  bool = true

	debugChan chan string
)

// SetDebugWriter sets the platform-specific debug output sink.
func SetDebugWriter(writer DebugWriter) {
	debugPrintln = writer
}

// SetDebugEnabled enables or disables debug output.
func SetDebugEnabled(enabled bool) {
	debugEnabled = enabled
}

// IsDebugEnabled returns whether debug output is enabled.
func IsDebugEnabled() bool {
	return debugEnabled
}

// InitAsyncDebug starts the async debug output goroutine. Call from
// main-context code after SetDebugWriter, never from the step ISR.
func InitAsyncDebug() {
	debugChan = make(chan string, 16)
	go debugOutputWorker()
}

func debugOutputWorker() {
	for msg := range debugChan {
		if debugPrintln != nil {
			debugPrintln(msg)
		}
	}
}

// DebugPrintln writes a debug message using the platform-specific writer.
func DebugPrintln(msg string) {
	if debugEnabled && debugPrintln != nil {
		debugPrintln(msg)
	}
}

// DebugAsync queues a debug message for async output, dropping it if the
// channel is full rather than blocking the caller.
func DebugAsync(msg string) {
	if debugChan != nil {
		select {
		case debugChan <- msg:
		default:
		}
	}
}

// RecordTiming captures a timing event in the ring buffer. Non-blocking,
// allocation-free: safe to call from StepTicker's ISR methods.
func RecordTiming(eventType, oid uint8, clock, value1, value2 uint32) {
	if !timingEnabled {
		return
	}
	idx := timingRingHead
	timingRing[idx] = TimingEvent{
		EventType: eventType,
		OID:       oid,
		Clock:     clock,
		Value1:    value1,
		Value2:    value2,
	}
	timingRingHead = (idx + 1) % TimingRingSize
}

// DumpTimingRing prints the ring buffer oldest-to-newest. Call from
// main-context code after stopping time-critical work (shutdown, panic
// recovery, watchdog trip), never from the ISR path itself.
func DumpTimingRing() {
	if debugPrintln == nil {
		return
	}

	debugPrintln("[TIMING] === Timing Ring Dump ===")

	start := timingRingHead
	for i := uint8(0); i < TimingRingSize; i++ {
		idx := (start + i) % TimingRingSize
		evt := &timingRing[idx]
		if evt.EventType == 0 {
			continue
		}

		var name string
		switch evt.EventType {
		case EvtTickFired:
			name = "TICK_FIRED"
		case EvtUnstepFired:
			name = "UNSTEP_FIRED"
		case EvtOverrunDetected:
			name = "OVERRUN"
		case EvtCatchUpApplied:
			name = "CATCH_UP"
		case EvtBlockBegin:
			name = "BLOCK_BEGIN"
		case EvtBlockEnd:
			name = "BLOCK_END"
		case EvtAccelSync:
			name = "ACCEL_SYNC"
		default:
			name = "UNKNOWN"
		}

		debugPrintln("[TIMING] " + name +
			" oid=" + strconv.Itoa(int(evt.OID)) +
			" clock=" + strconv.Itoa(int(evt.Clock)) +
			" v1=" + strconv.Itoa(int(evt.Value1)) +
			" v2=" + strconv.Itoa(int(evt.Value2)))
	}
	debugPrintln("[TIMING] === End Dump ===")
}

// ClearTimingRing resets the ring buffer to empty.
func ClearTimingRing() {
	for i := range timingRing {
		timingRing[i] = TimingEvent{}
	}
	timingRingHead = 0
}

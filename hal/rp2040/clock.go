//go:build tinygo && (rp2040 || rp2350)

package rp2040

import (
	"runtime/volatile"
	"unsafe"
)

// RP2040/RP2350 Timer peripheral memory map. The RP2040 has a free-running
// 64-bit microsecond timer.
const (
	timerBase     = 0x40054000
	timerTIMERAWH = timerBase + 0x08
	timerTIMERAWL = timerBase + 0x0C

	// ClockFreqHz is the RP2040 hardware timer's fixed rate.
	ClockFreqHz = 1000000
)

var (
	timerRAWH = (*volatile.Register32)(unsafe.Pointer(uintptr(timerTIMERAWH)))
	timerRAWL = (*volatile.Register32)(unsafe.Pointer(uintptr(timerTIMERAWL)))
)

// HardwareTime reads the low 32 bits of the microsecond counter, the
// domain motion.StepTicker's simulated counter stands in for on host
// builds.
func HardwareTime() uint32 {
	return timerRAWL.Get()
}

// HardwareUptime reads the full 64-bit counter, retrying if a rollover is
// detected mid-read (high word read before and after the low word must
// agree).
func HardwareUptime() uint64 {
	for {
		high1 := timerRAWH.Get()
		low := timerRAWL.Get()
		high2 := timerRAWH.Get()
		if high1 == high2 {
			return (uint64(high1) << 32) | uint64(low)
		}
	}
}

// Package config provides the checksum-keyed configuration store motion's
// external interfaces consume: Value(key).ByDefault(x).AsNumber(), loaded
// from JSON with an applyDefaults-style pass for the keys this module
// cares about.
package config

import (
	"encoding/json"
	"fmt"

	"pulsecore/eventbus"
	"pulsecore/protocol"
)

// Standard keys the motion core consumes, named the way printer.cfg-derived
// keys are named.
const (
	KeyAccelerationTicksPerSecond = "acceleration_ticks_per_second"
	KeyMinimumStepsPerMinute      = "minimum_steps_per_minute"
	KeyStepTickerFrequency        = "step_ticker_frequency"
	KeyPulseWidthSeconds          = "pulse_width_seconds"
)

var defaults = map[string]float64{
	KeyAccelerationTicksPerSecond: 100,
	KeyMinimumStepsPerMinute:      3000,
}

// Store is a checksum-keyed set of numeric configuration values. Keys are
// addressed by their CRC16 checksum rather than by string, the way
// Klipper's MCU-side config options are addressed by checksum rather than
// name once resolved.
type Store struct {
	values map[uint16]float64
	names  map[uint16]string
	bus    *eventbus.Bus
}

// Load parses jsonData as a flat map of key to numeric value and returns
// a Store. Unset standard keys are left absent; Value().ByDefault()
// supplies them at read time, the way applyDefaults fills in a struct.
func Load(jsonData []byte) (*Store, error) {
	var raw map[string]float64
	if err := json.Unmarshal(jsonData, &raw); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}

	s := &Store{
		values: make(map[uint16]float64, len(raw)),
		names:  make(map[uint16]string, len(raw)),
	}
	for k, v := range raw {
		s.set(k, v)
	}
	return s, nil
}

// NewDefault returns a Store pre-populated with this module's own
// defaults, for callers (tests, the demo CLI) that don't load a file.
func NewDefault() *Store {
	s := &Store{values: make(map[uint16]float64), names: make(map[uint16]string)}
	for k, v := range defaults {
		s.set(k, v)
	}
	return s
}

// SetBus attaches an event bus; Reload publishes ON_CONFIG_RELOAD on it.
func (s *Store) SetBus(bus *eventbus.Bus) { s.bus = bus }

func checksum(key string) uint16 {
	return protocol.CRC16([]byte(key))
}

func (s *Store) set(key string, v float64) {
	c := checksum(key)
	s.values[c] = v
	s.names[c] = key
}

// Reload replaces the store's contents from jsonData and publishes
// ON_CONFIG_RELOAD if a bus is attached.
func (s *Store) Reload(jsonData []byte) error {
	var raw map[string]float64
	if err := json.Unmarshal(jsonData, &raw); err != nil {
		return fmt.Errorf("config: reload: %w", err)
	}
	s.values = make(map[uint16]float64, len(raw))
	s.names = make(map[uint16]string, len(raw))
	for k, v := range raw {
		s.set(k, v)
	}
	if s.bus != nil {
		s.bus.Publish("ON_CONFIG_RELOAD", s)
	}
	return nil
}

// Value begins a lookup chain for key.
func (s *Store) Value(key string) Value {
	return Value{store: s, key: key}
}

// Value is a single checksum-keyed lookup, as returned by Store.Value.
// Call ByDefault before AsNumber if the key might be absent.
type Value struct {
	store      *Store
	key        string
	def        float64
	hasDefault bool
}

// ByDefault supplies the value AsNumber returns if key was never set.
func (v Value) ByDefault(x float64) Value {
	v.def = x
	v.hasDefault = true
	return v
}

// AsNumber resolves the value: the stored value if key was set, else the
// configured default, else the package-wide default for known keys.
// Panics if the key has no stored value and no default was given —
// mirroring a missing required config option, a startup-time error, not a
// runtime one.
func (v Value) AsNumber() float64 {
	c := checksum(v.key)
	if val, ok := v.store.values[c]; ok {
		return val
	}
	if v.hasDefault {
		return v.def
	}
	if d, ok := defaults[v.key]; ok {
		return d
	}
	panic(fmt.Sprintf("config: %q must be specified", v.key))
}

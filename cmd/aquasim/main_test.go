package main

import (
	"math/rand"
	"testing"
)

func TestDriftStaysInRange(t *testing.T) {
	rng := rand.New(rand.NewSource(1)) //nolint:gosec // deterministic test

	value := 6.0
	for i := 0; i < 1000; i++ {
		value = drift(rng, value, 0.5, 5.0, 7.0)
		if value < 5.0 || value > 7.0 {
			t.Fatalf("drift produced %v, want within [5.0, 7.0]", value)
		}
	}
}

func TestNextReadingWithinHealthyBounds(t *testing.T) {
	sim := newSimulator()

	for i := 0; i < 200; i++ {
		reading := sim.nextReading()
		if reading.PH < 5.0 || reading.PH > 7.0 {
			t.Fatalf("ph = %v out of range", reading.PH)
		}
		if reading.EC < 700 || reading.EC > 1600 {
			t.Fatalf("ec = %v out of range", reading.EC)
		}
		if reading.Humidity < 35 || reading.Humidity > 80 {
			t.Fatalf("humidity = %v out of range", reading.Humidity)
		}
	}
}

func TestRelayStatusReflectsToggles(t *testing.T) {
	sim := newSimulator()

	toggled := false
	for i := 0; i < 100 && !toggled; i++ {
		toggled = sim.maybeToggleRelay()
	}
	if !toggled {
		t.Fatal("expected at least one relay toggle in 100 cycles")
	}

	status := sim.relayStatus()
	states := []bool{
		status.Relay1Led, status.Relay2Pump, status.Relay3PhUp,
		status.Relay4Fan, status.Relay5Humidity, status.Relay6EC,
		status.Relay7CO2, status.Relay8Generic,
	}
	on := 0
	for _, s := range states {
		if s {
			on++
		}
	}
	if on != 1 {
		t.Errorf("relays on = %d, want exactly 1 after a single toggle", on)
	}
}

package capture_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/JaimeStill/veridid/internal/capture"
)

func TestMachineFiresAfterOneTick(t *testing.T) {
	m := capture.NewMachine(1, true)

	assert.Equal(t, capture.ActionArm, m.Observe(true))
	assert.Equal(t, capture.StateArmed, m.State())
	assert.Equal(t, 1, m.Countdown())

	assert.Equal(t, capture.ActionFire, m.Tick())
	assert.Equal(t, capture.StateCaptured, m.State())
	assert.True(t, m.Done())
}

func TestMachinePresenceLossCancelsCountdown(t *testing.T) {
	m := capture.NewMachine(4, true)

	samples := []bool{true, true, true, false, true, true, true, true, true}
	var arms, disarms, fires int

	for _, present := range samples {
		switch m.Observe(present) {
		case capture.ActionArm:
			arms++
		case capture.ActionDisarm:
			disarms++
		}
		if m.Tick() == capture.ActionFire {
			fires++
		}
	}

	assert.Equal(t, 2, arms, "countdown restarts after presence loss")
	assert.Equal(t, 1, disarms)
	assert.Equal(t, 1, fires, "at most one capture per armed sequence")
}

func TestMachineFiresOnceOnly(t *testing.T) {
	m := capture.NewMachine(1, true)
	m.Observe(true)

	fires := 0
	for range 5 {
		m.Observe(true)
		if m.Tick() == capture.ActionFire {
			fires++
		}
	}
	assert.Equal(t, 1, fires)
}

func TestMachineDisabledNeverArms(t *testing.T) {
	m := capture.NewMachine(1, false)
	assert.Equal(t, capture.ActionNone, m.Observe(true))
	assert.Equal(t, capture.ActionNone, m.Tick())
	assert.Equal(t, capture.StateIdle, m.State())
}

func TestMachineCancel(t *testing.T) {
	m := capture.NewMachine(1, true)
	m.Observe(true)
	m.Cancel()

	assert.Equal(t, capture.StateCancelled, m.State())
	assert.Equal(t, capture.ActionNone, m.Observe(true))
	assert.Equal(t, capture.ActionNone, m.Tick())
}

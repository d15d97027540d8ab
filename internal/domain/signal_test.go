package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSignal(t *testing.T) {
	for _, signal := range Signals {
		got, err := ParseSignal(" " + string(signal) + " ")
		require.NoError(t, err)
		assert.Equal(t, signal, got)
	}

	got, err := ParseSignal("PageHide")
	require.NoError(t, err)
	assert.Equal(t, SignalPageHide, got)

	_, err = ParseSignal("blur")
	require.ErrorIs(t, err, ErrUnknownSignal)
	assert.Contains(t, err.Error(), `"blur"`)
}

func TestSignalResumesActivity(t *testing.T) {
	resumes := map[Signal]bool{
		SignalMount:    true,
		SignalVisible:  true,
		SignalFocus:    true,
		SignalOnline:   true,
		SignalHidden:   false,
		SignalOffline:  false,
		SignalPageHide: false,
	}

	for signal, want := range resumes {
		assert.Equal(t, want, signal.ResumesActivity(), string(signal))
	}
}

package fsm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTransitionPauseResumeCycle(t *testing.T) {
	s := StateRunning

	next, err := Transition(s, EventPause)
	require.NoError(t, err)
	require.Equal(t, StatePaused, next)

	next, err = Transition(next, EventResume)
	require.NoError(t, err)
	require.Equal(t, StateRunning, next)

	next, err = Transition(next, EventStop)
	require.NoError(t, err)
	require.Equal(t, StateStopped, next)
}

func TestTransitionStopFromAnyLiveState(t *testing.T) {
	for _, state := range []State{StateRunning, StatePaused} {
		next, err := Transition(state, EventStop)
		require.NoError(t, err)
		require.Equal(t, StateStopped, next)
	}
}

func TestTransitionMatrixInvalidTransitions(t *testing.T) {
	tests := []struct {
		name    string
		state   State
		event   Event
		want    State
		wantErr bool
	}{
		{name: "running resume invalid", state: StateRunning, event: EventResume, want: StateRunning, wantErr: true},
		{name: "running pause valid", state: StateRunning, event: EventPause, want: StatePaused},
		{name: "paused pause invalid", state: StatePaused, event: EventPause, want: StatePaused, wantErr: true},
		{name: "paused resume valid", state: StatePaused, event: EventResume, want: StateRunning},
		{name: "stopped pause invalid", state: StateStopped, event: EventPause, want: StateStopped, wantErr: true},
		{name: "stopped resume invalid", state: StateStopped, event: EventResume, want: StateStopped, wantErr: true},
		{name: "stopped stop invalid", state: StateStopped, event: EventStop, want: StateStopped, wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			next, err := Transition(tc.state, tc.event)
			require.Equal(t, tc.want, next)
			if tc.wantErr {
				require.Error(t, err)
				require.Contains(t, err.Error(), "invalid transition")
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestTransitionUnknownState(t *testing.T) {
	next, err := Transition(State("mystery"), EventPause)
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown state")
	require.Equal(t, State("mystery"), next)
}

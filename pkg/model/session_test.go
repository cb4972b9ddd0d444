package model

import "testing"

func TestSessionCommand_Valid(t *testing.T) {
	tests := []struct {
		cmd   SessionCommand
		valid bool
	}{
		{CommandPlay, true},
		{CommandPause, true},
		{CommandStop, true},
		{CommandFinish, true},
		{CommandSeek, true},
		{CommandSetTime, true},
		{CommandSetSpeed, true},
		{CommandReverse, true},
		{"rewind", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := tt.cmd.Valid(); got != tt.valid {
			t.Errorf("SessionCommand(%q).Valid() = %v, want %v", tt.cmd, got, tt.valid)
		}
	}
}

func TestSessionCommand_NeedsValue(t *testing.T) {
	tests := []struct {
		cmd   SessionCommand
		needs bool
	}{
		{CommandSeek, true},
		{CommandSetTime, true},
		{CommandSetSpeed, true},
		{CommandPlay, false},
		{CommandPause, false},
		{CommandStop, false},
		{CommandFinish, false},
		{CommandReverse, false},
	}
	for _, tt := range tests {
		if got := tt.cmd.NeedsValue(); got != tt.needs {
			t.Errorf("SessionCommand(%q).NeedsValue() = %v, want %v", tt.cmd, got, tt.needs)
		}
	}
}

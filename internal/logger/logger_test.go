package logger

import (
	"testing"

	"go.uber.org/zap"
)

func TestNew_Levels(t *testing.T) {
	tests := []struct {
		name       string
		production bool
		debug      bool
		wantDebug  bool
	}{
		{"production info", true, false, false},
		{"production debug", true, true, true},
		{"development info", false, false, false},
		{"development debug", false, true, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			l, err := New(tc.production, tc.debug)
			if err != nil {
				t.Fatalf("New returned error: %v", err)
			}
			if got := l.Core().Enabled(zap.DebugLevel); got != tc.wantDebug {
				t.Errorf("expected debug enabled=%v, got %v", tc.wantDebug, got)
			}
			if !l.Core().Enabled(zap.InfoLevel) {
				t.Errorf("expected info level to be enabled")
			}
		})
	}
}

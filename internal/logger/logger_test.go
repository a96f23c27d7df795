package logger

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	tests := []struct {
		level, format string
		want          zapcore.Level
		wantErr       bool
	}{
		{"debug", "json", zap.DebugLevel, false},
		{"info", "console", zap.InfoLevel, false},
		{"warn", "", zap.WarnLevel, false},
		{"bogus", "json", zap.ErrorLevel, false},
		{"info", "xml", 0, true},
	}
	for _, tt := range tests {
		log, err := New(tt.level, tt.format)
		if tt.wantErr {
			if err == nil {
				t.Errorf("New(%q, %q): expected error", tt.level, tt.format)
			}
			continue
		}
		if err != nil {
			t.Fatalf("New(%q, %q): %v", tt.level, tt.format, err)
		}
		if !log.Core().Enabled(tt.want) {
			t.Errorf("New(%q): level %s disabled", tt.level, tt.want)
		}
		if tt.want > zap.DebugLevel && log.Core().Enabled(tt.want-1) {
			t.Errorf("New(%q): level %s unexpectedly enabled", tt.level, tt.want-1)
		}
	}
}

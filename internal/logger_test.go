package internal

import "testing"

func TestSetVerbose(t *testing.T) {
	saved := logLevel
	defer SetLogLevel(saved)

	SetVerbose(true)
	if logLevel != LogLevelDebug {
		t.Errorf("Log level = %d, want debug", logLevel)
	}

	SetVerbose(false)
	if logLevel != LogLevelInfo {
		t.Errorf("Log level = %d, want info", logLevel)
	}
}

func TestSetLogLevel(t *testing.T) {
	saved := logLevel
	defer SetLogLevel(saved)

	levels := []LogLevel{LogLevelError, LogLevelWarn, LogLevelInfo, LogLevelDebug}
	for _, level := range levels {
		SetLogLevel(level)
		if logLevel != level {
			t.Errorf("Log level = %d, want %d", logLevel, level)
		}
	}
}

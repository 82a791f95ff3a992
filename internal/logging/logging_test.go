package logging

import (
	"os"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected zerolog.Level
	}{
		{"", zerolog.InfoLevel},
		{"info", zerolog.InfoLevel},
		{"debug", zerolog.DebugLevel},
		{"trace", zerolog.TraceLevel},
		{"warn", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"fatal", zerolog.FatalLevel},
		{"disabled", zerolog.Disabled},
		{"  DEBUG  ", zerolog.DebugLevel},
		{"bogus", zerolog.InfoLevel},
	}

	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			if got := parseLevel(tc.input); got != tc.expected {
				t.Errorf("parseLevel(%q) = %v, want %v", tc.input, got, tc.expected)
			}
		})
	}
}

func TestSelectWriter(t *testing.T) {
	origIsTerminal := isTerminalFn
	defer func() { isTerminalFn = origIsTerminal }()

	isTerminalFn = func(*os.File) bool { return false }
	if w := selectWriter("auto"); w != os.Stderr {
		t.Error("auto format without a terminal should write raw JSON to stderr")
	}
	if w := selectWriter("json"); w != os.Stderr {
		t.Error("json format should write to stderr directly")
	}

	isTerminalFn = func(*os.File) bool { return true }
	if _, ok := selectWriter("auto").(zerolog.ConsoleWriter); !ok {
		t.Error("auto format on a terminal should produce a console writer")
	}
	if _, ok := selectWriter("console").(zerolog.ConsoleWriter); !ok {
		t.Error("console format should produce a console writer")
	}
}

func TestInitSetsComponent(t *testing.T) {
	logger := Init(Config{Format: "json", Level: "debug", Component: "test"})
	if !IsLevelEnabled(zerolog.DebugLevel) {
		t.Error("debug level should be enabled after Init")
	}
	// Smoke check the logger is usable.
	logger.Debug().Msg("init ok")
}

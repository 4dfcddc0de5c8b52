package logger_test

import (
	"encoding/json"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/rs/zerolog/log"

	"github.com/guardpost/guardpost/internal/logger"
)

func TestInit(t *testing.T) {
	type testCase struct {
		name             string
		cfg              logger.Log
		shouldHaveOutPut bool
		outPutIsJSON     bool
	}

	testCases := []testCase{
		{
			name: "no logger enabled",
			cfg: logger.Log{
				LogLevel:    "info",
				ServiceName: "test",
			},
			shouldHaveOutPut: false,
		},
		{
			name: "console enabled log level info",
			cfg: logger.Log{
				LogLevel:    "info",
				ServiceName: "test",
				Console:     logger.Console{Enabled: true, UseConsoleWriter: true},
			},
			shouldHaveOutPut: true,
		},
		{
			name: "console enabled console writer disabled expect json",
			cfg: logger.Log{
				LogLevel:    "info",
				ServiceName: "test",
				Console:     logger.Console{Enabled: true, UseConsoleWriter: false},
			},
			shouldHaveOutPut: true,
			outPutIsJSON:     true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// capture stdout while the test logs one line
			origStdout := os.Stdout

			r, w, err := os.Pipe()
			if err != nil {
				t.Fatalf("failed to create pipe: %v", err)
			}

			os.Stdout = w

			defer func() { os.Stdout = origStdout }()

			if err := logger.Init(tc.cfg); err != nil {
				t.Fatalf("Init() error = %v", err)
			}

			log.Info().Msg("test message")

			_ = w.Close()

			out, err := io.ReadAll(r)
			if err != nil {
				t.Fatalf("failed to read captured output: %v", err)
			}

			if tc.shouldHaveOutPut != (len(out) > 0) {
				t.Errorf("expected output %v, got %q", tc.shouldHaveOutPut, out)
			}

			if tc.outPutIsJSON {
				var decoded map[string]interface{}
				if err := json.Unmarshal(out, &decoded); err != nil {
					t.Errorf("expected JSON output, got %q: %v", out, err)
				}
			}
		})
	}
}

func TestInitErrors(t *testing.T) {
	if err := logger.Init(logger.Log{LogLevel: "nope", ServiceName: "test"}); err == nil {
		t.Error("expected error for unsupported log level")
	}

	err := logger.Init(logger.Log{LogLevel: "info"})
	if err == nil || !strings.Contains(err.Error(), "ServiceName") {
		t.Errorf("expected service name error, got %v", err)
	}
}

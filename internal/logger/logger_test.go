package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewLevels(t *testing.T) {
	testCases := []struct {
		Desc   string
		Level  string
		Format string
		Want   zapcore.Level
	}{
		{Desc: "debug console", Level: "debug", Format: "console", Want: zapcore.DebugLevel},
		{Desc: "warn json", Level: "warn", Format: "json", Want: zapcore.WarnLevel},
		{Desc: "error", Level: "ERROR", Format: "json", Want: zapcore.ErrorLevel},
		{Desc: "unknown falls back to info", Level: "chatty", Format: "", Want: zapcore.InfoLevel},
	}
	for _, tc := range testCases {
		t.Run(tc.Desc, func(t *testing.T) {
			l, err := New(tc.Level, tc.Format, "kcal-test")
			require.NoError(t, err)
			assert.True(t, l.Core().Enabled(tc.Want))
			if tc.Want > zapcore.DebugLevel {
				assert.False(t, l.Core().Enabled(tc.Want-1))
			}
		})
	}
}

package logger

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func resetLogger() {
	SetVerbose(false)
	SetOutput(os.Stderr)
}

func TestDebug_SilentByDefault(t *testing.T) {
	defer resetLogger()

	var buf bytes.Buffer
	SetOutput(&buf)

	Debug("should not appear %d", 1)
	assert.Empty(t, buf.String())
}

func TestLevels_VerboseEnabled(t *testing.T) {
	defer resetLogger()

	var buf bytes.Buffer
	SetOutput(&buf)
	SetVerbose(true)

	Debug("leased job %s", "j-1")
	Info("processed %d chunks", 12)
	Warn("fallback engine used")
	Stage("chunking")

	out := buf.String()
	assert.Contains(t, out, "[DEBUG] leased job j-1")
	assert.Contains(t, out, "[INFO] processed 12 chunks")
	assert.Contains(t, out, "[WARN] fallback engine used")
	assert.Contains(t, out, "=== chunking ===")
}

func TestIsVerbose(t *testing.T) {
	defer resetLogger()

	assert.False(t, IsVerbose())
	SetVerbose(true)
	assert.True(t, IsVerbose())
}

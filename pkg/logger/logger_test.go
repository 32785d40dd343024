package logger

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevelsWriteWithPrefix(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stdout)

	Info("connected %s", "u1")
	Warn("queue full for %s", "u2")
	Error("store failed")

	out := buf.String()
	assert.Contains(t, out, "INFO: ")
	assert.Contains(t, out, "connected u1")
	assert.Contains(t, out, "WARN: ")
	assert.Contains(t, out, "queue full for u2")
	assert.Contains(t, out, "ERROR: ")
	assert.Contains(t, out, "logger_test.go")
}

func TestDebugIsGated(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stdout)

	SetDebug(false)
	Debug("hidden")
	assert.Empty(t, buf.String())

	SetDebug(true)
	defer SetDebug(false)
	Debug("shown %d", 1)
	assert.Contains(t, buf.String(), "shown 1")
}

func TestMessageWithoutArgsIsLiteral(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stdout)

	Info("discount 100% off")
	assert.Contains(t, buf.String(), "discount 100% off")
	assert.NotContains(t, buf.String(), "%!")
}

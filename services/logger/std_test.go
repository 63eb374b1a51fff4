package logsvc

import (
	"bytes"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStdLoggerEnableTogglesOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := NewStdLogger(log.New(&buf, "", 0))

	logger.Info("arrancando")
	assert.Contains(t, buf.String(), "INFO: arrancando")

	buf.Reset()
	logger.Enable(false)
	logger.Info("silencio")
	logger.Error("silencio")
	assert.Empty(t, buf.String())

	logger.Enable(true)
	logger.Warn("de vuelta")
	assert.Contains(t, buf.String(), "WARN: de vuelta")
}

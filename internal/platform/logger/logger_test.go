package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_WritesJSONFile(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "logs", "nutriflow.log")

	log, err := New("nutriflow", logFile, true)
	require.NoError(t, err)

	log.Debug("hidden in production")
	log.Info("capture finished")
	log.Sync()

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"capture finished"`)
	assert.Contains(t, string(data), `"logger":"nutriflow"`)
	assert.NotContains(t, string(data), "hidden in production")
}

func TestNew_ConsoleOnly(t *testing.T) {
	log, err := New("nutriflow", "", false)
	require.NoError(t, err)
	assert.NotNil(t, log)
}

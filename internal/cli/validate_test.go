package cli

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validateCommand(t *testing.T, format string, args ...string) (string, error) {
	t.Helper()
	return execute(t, NewValidateCommand(&RootOptions{Format: format}), args...)
}

func TestValidate_ValidYAML(t *testing.T) {
	out, err := validateCommand(t, "text", filepath.Join("testdata", "source.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "✓ Config valid: device 1, 2 neighbor(s), memoryless, memory network, every 1ms\n", out)
}

func TestValidate_ValidCUEJSON(t *testing.T) {
	out, err := validateCommand(t, "json", filepath.Join("testdata", "relay.cue"))
	require.NoError(t, err)

	resp, data := decodeResponse(t, out)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, true, data["valid"])
	assert.Equal(t, float64(2), data["device"])
	assert.Equal(t, "least-recent", data["policy"])
}

func TestValidate_InvalidConfig(t *testing.T) {
	out, err := validateCommand(t, "text", filepath.Join("testdata", "invalid.yaml"))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ Validation failed")
	assert.Contains(t, out, "device: must be non-negative")
	assert.Contains(t, out, "network.qos")
}

func TestValidate_InvalidConfigJSON(t *testing.T) {
	out, err := validateCommand(t, "json", filepath.Join("testdata", "invalid.yaml"))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	resp, _ := decodeResponse(t, out)
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, ErrCodeConfig, resp.Error.Code)
}

func TestValidate_MissingFile(t *testing.T) {
	_, err := validateCommand(t, "text", filepath.Join("testdata", "absent.yaml"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestValidate_UnsupportedExtension(t *testing.T) {
	_, err := validateCommand(t, "text", "device.json")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestValidate_RequiresArgument(t *testing.T) {
	_, err := validateCommand(t, "text")
	require.Error(t, err)
}

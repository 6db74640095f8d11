// internal/cli/cli_test.go
package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tamzrod/routine-runner/internal/eeprom"
	"github.com/tamzrod/routine-runner/internal/gpio"
	"github.com/tamzrod/routine-runner/internal/store"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "routined.yaml")
	body = strings.ReplaceAll(body, "$DIR", dir)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

const imageConfig = `
device:
  path: $DIR/eeprom.bin
  size: 64
  max_routines: 4
tick:
  interval_ms: 1
log:
  level: error
`

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func execute(t *testing.T, ctx context.Context, stdin io.Reader, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(io.Discard)
	if stdin != nil {
		cmd.SetIn(stdin)
	}
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	return out.String(), err
}

func TestFormatThenReadAndDump(t *testing.T) {
	cfg := writeConfig(t, imageConfig)
	ctx := context.Background()

	_, err := execute(t, ctx, nil, "format", cfg)
	require.NoError(t, err)

	out, err := execute(t, ctx, nil, "read", cfg)
	require.NoError(t, err)
	assert.Equal(t, "00\n", out)

	out, err = execute(t, ctx, nil, "dump", cfg)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "0000: 01 FF "), lines[0])
	assert.True(t, strings.HasPrefix(lines[3], "0030: 00 "), lines[3])
}

func TestReset(t *testing.T) {
	cfg := writeConfig(t, imageConfig)
	ctx := context.Background()

	_, err := execute(t, ctx, nil, "format", cfg)
	require.NoError(t, err)
	_, err = execute(t, ctx, nil, "reset", cfg)
	require.NoError(t, err)

	out, err := execute(t, ctx, nil, "dump", cfg)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "0000: FF FF "), out)
}

func TestOfflineToolsNeedPath(t *testing.T) {
	cfg := writeConfig(t, "device:\n  size: 64\n")
	_, err := execute(t, context.Background(), nil, "read", cfg)
	assert.ErrorContains(t, err, "device.path")
}

func TestInvalidConfig(t *testing.T) {
	cfg := writeConfig(t, "gpio:\n  driver: spi\n")
	_, err := execute(t, context.Background(), nil, "run", cfg)
	assert.ErrorContains(t, err, "config validation failed")
}

func TestRun_ProgramsOverConsole(t *testing.T) {
	cfg := writeConfig(t, imageConfig)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	stdin := strings.NewReader("w01002003H005h\ns\n")
	out, err := execute(t, ctx, stdin, "run", cfg)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out, "Serial ready\nVersion: 1\nCONFIG_MAX_ROUTINES: 4\n"), out)
	assert.Contains(t, out, "OK\n")
	assert.Contains(t, out, "0:idle")

	got, err := execute(t, context.Background(), nil, "read", cfg)
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("%s\n", "01002003H005h"), got)
}

func TestRun_NoConsole(t *testing.T) {
	cfg := writeConfig(t, imageConfig+"console:\n  driver: none\n")

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	out, err := execute(t, ctx, nil, "run", cfg)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func golden(t *testing.T) *goldie.Goldie {
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

func TestGolden_DumpFormatted(t *testing.T) {
	cfg := writeConfig(t, imageConfig)

	_, err := execute(t, context.Background(), nil, "format", cfg)
	require.NoError(t, err)

	out, err := execute(t, context.Background(), nil, "dump", cfg)
	require.NoError(t, err)

	golden(t).Assert(t, "dump_formatted", []byte(out))
}

func TestGolden_ReadProgrammed(t *testing.T) {
	cfg := writeConfig(t, imageConfig)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_, err := execute(t, ctx, strings.NewReader("w02 002003 013004 H005h d002L013\n"), "run", cfg)
	require.NoError(t, err)

	out, err := execute(t, context.Background(), nil, "read", cfg)
	require.NoError(t, err)

	golden(t).Assert(t, "read_programmed", []byte(out))
}

const unsupportedTargetConfig = imageConfig + `
gpio:
  pin_validation: none
  indicator_pin: 13
  blink_ms: 2
`

func TestRun_UnsupportedTargetHalts(t *testing.T) {
	cfg := writeConfig(t, unsupportedTargetConfig)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	out, err := execute(t, ctx, strings.NewReader("r\n"), "run", cfg)
	require.ErrorIs(t, err, gpio.ErrUnsupportedTarget)
	assert.Empty(t, out, "console must not start on a halted target")
}

func TestServe_UnsupportedTargetBlinksIndicator(t *testing.T) {
	cfg, err := loadConfig(writeConfig(t, unsupportedTargetConfig))
	require.NoError(t, err)

	pins, syncer, closePins, err := buildPins(cfg.GPIO, nil)
	require.NoError(t, err)
	defer closePins()

	mem, ok := pins.(*gpio.Memory)
	require.True(t, ok)

	st, err := store.New(eeprom.NewMemory(cfg.Device.Size), store.Options{})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- serve(ctx, cfg, st, pins, syncer, strings.NewReader(""), io.Discard, discardLogger())
	}()

	sawHigh, sawLow := false, false
	require.Eventually(t, func() bool {
		if mem.Level(13) {
			sawHigh = true
		} else if sawHigh {
			sawLow = true
		}
		return sawHigh && sawLow
	}, 2*time.Second, time.Millisecond, "indicator never toggled")

	cancel()
	select {
	case err := <-done:
		assert.True(t, errors.Is(err, gpio.ErrUnsupportedTarget), "err=%v", err)
	case <-time.After(time.Second):
		t.Fatalf("serve did not return after cancel")
	}
}

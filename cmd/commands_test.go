package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wintermute101/uf2info/internal/parsers/blocks"
)

func writeCommandTestUF2(t *testing.T, dir string) string {
	t.Helper()

	var buf bytes.Buffer
	for i, addr := range []uint32{0x1000, 0x1010, 0x2000} {
		data, err := blocks.Encode(blocks.NewDataBlock(uint32(i), 3, addr, bytes.Repeat([]byte{byte(i)}, 16)))
		require.NoError(t, err)
		buf.Write(data)
	}

	path := filepath.Join(dir, "firmware.uf2")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	return stdout.String(), err
}

func TestConvertCommand(t *testing.T) {
	dir := t.TempDir()
	input := writeCommandTestUF2(t, dir)
	output := filepath.Join(dir, "firmware.bin")

	stdout, err := executeCommand(t, "convert", input, output, "--output", "table", "--no-color")
	require.NoError(t, err)

	assert.Contains(t, stdout, "total blocks 3 binary len 48")
	assert.Contains(t, stdout, "0x00001000")

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Len(t, data, 48)
}

func TestInfoCommandJSON(t *testing.T) {
	dir := t.TempDir()
	input := writeCommandTestUF2(t, dir)

	stdout, err := executeCommand(t, "info", input, "--output", "json")
	require.NoError(t, err)

	var report struct {
		BlocksProcessed uint32            `json:"blocks_processed"`
		Regions         []json.RawMessage `json:"regions"`
		Blocks          []json.RawMessage `json:"blocks"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &report))
	assert.Equal(t, uint32(3), report.BlocksProcessed)
	assert.Len(t, report.Regions, 2)
	assert.Len(t, report.Blocks, 3)
}

func TestConvertCommand_BadInput(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "broken.uf2")
	require.NoError(t, os.WriteFile(input, make([]byte, 512), 0o644))
	output := filepath.Join(dir, "broken.bin")

	_, err := executeCommand(t, "convert", input, output, "--output", "table")
	require.Error(t, err)
	assert.ErrorIs(t, err, blocks.ErrInvalidMagic)
	assert.NoFileExists(t, output)
}

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bbd03/check-swear/lib/checkswear"
)

func TestReadSamples(t *testing.T) {
	file := filepath.Join(t.TempDir(), "samples.txt")
	err := os.WriteFile(file, []byte("первый пример\n\n  \nвторой пример\nтретий пример\n"), 0o600)
	require.NoError(t, err)

	samples, err := readSamples(file)
	require.NoError(t, err)
	assert.Equal(t, []string{"первый пример", "второй пример", "третий пример"}, samples)
}

func TestReadSamples_Missing(t *testing.T) {
	_, err := readSamples(filepath.Join(t.TempDir(), "no-such-file.txt"))
	assert.Error(t, err)
}

func TestLogDetection(t *testing.T) {
	var buf bytes.Buffer
	logDetection(&buf, "плохой\nтекст  \n", 0.87)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "плохой текст", entry["text"])
	assert.InDelta(t, 0.87, entry["probability"], 1e-9)
	assert.NotEmpty(t, entry["ts"])
}

func TestMakeDetectionsLogWriter(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		opts := options{}
		wr, err := makeDetectionsLogWriter(opts)
		require.NoError(t, err)
		assert.IsType(t, nopWriteCloser{}, wr)
		assert.NoError(t, wr.Close())
	})

	t.Run("enabled with size suffix", func(t *testing.T) {
		opts := options{}
		opts.Logger.Enabled = true
		opts.Logger.FileName = filepath.Join(t.TempDir(), "detections.log")
		opts.Logger.MaxSize = "10M"
		wr, err := makeDetectionsLogWriter(opts)
		require.NoError(t, err)
		assert.NoError(t, wr.Close())
	})

	t.Run("bad size", func(t *testing.T) {
		opts := options{}
		opts.Logger.Enabled = true
		opts.Logger.MaxSize = "unparsable"
		_, err := makeDetectionsLogWriter(opts)
		assert.Error(t, err)
	})
}

func TestMakeChecker(t *testing.T) {
	dir := t.TempDir()
	profaneFile := filepath.Join(dir, "profane.txt")
	cleanFile := filepath.Join(dir, "clean.txt")
	require.NoError(t, os.WriteFile(profaneFile, []byte("охуеть какой кошмар\nпиздец что творится\n"), 0o600))
	require.NoError(t, os.WriteFile(cleanFile, []byte("ужас какой кошмар\nне могу поверить что творится\n"), 0o600))

	opts := options{Threshold: 0.5}
	opts.Files.ProfaneSamplesFile = profaneFile
	opts.Files.CleanSamplesFile = cleanFile

	checker, err := makeChecker(opts)
	require.NoError(t, err)

	probs, err := checker.PredictProba(checkswear.Text("охуеть"))
	require.NoError(t, err)
	require.Len(t, probs, 1)
	assert.Greater(t, probs[0], 0.5)
}

func TestMakeChecker_MissingSamples(t *testing.T) {
	opts := options{}
	opts.Files.ProfaneSamplesFile = filepath.Join(t.TempDir(), "missing.txt")
	opts.Files.CleanSamplesFile = filepath.Join(t.TempDir(), "missing.txt")
	_, err := makeChecker(opts)
	assert.Error(t, err)
}

func TestWatchSamples(t *testing.T) {
	dir := t.TempDir()
	profaneFile := filepath.Join(dir, "profane.txt")
	cleanFile := filepath.Join(dir, "clean.txt")
	require.NoError(t, os.WriteFile(profaneFile, []byte("плохой пример\n"), 0o600))
	require.NoError(t, os.WriteFile(cleanFile, []byte("хороший пример\n"), 0o600))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	reloaded := make(chan struct{}, 1)
	go watchSamples(ctx, profaneFile, cleanFile, func(profane, clean []string) error {
		select {
		case reloaded <- struct{}{}:
		default:
		}
		return nil
	})

	time.Sleep(200 * time.Millisecond) // let the watcher subscribe
	require.NoError(t, os.WriteFile(profaneFile, []byte("плохой пример\nеще один\n"), 0o600))

	select {
	case <-reloaded:
	case <-ctx.Done():
		t.Fatal("timed out waiting for samples reload")
	}
}

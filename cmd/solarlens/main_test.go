package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/solarlens/internal/fsutil"
	"github.com/banshee-data/solarlens/internal/imaging"
	"github.com/banshee-data/solarlens/internal/testutil"
	"github.com/banshee-data/solarlens/internal/version"
)

func TestRun_Version(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run(context.Background(), "version", nil, nil, &out))
	assert.Equal(t, version.String()+"\n", out.String())
}

func TestRun_Help(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run(context.Background(), "help", nil, nil, &out))
	for _, cmd := range []string{"detect", "serve", "migrate", "optics", "version"} {
		assert.Contains(t, out.String(), cmd)
	}
}

func TestRun_UnknownCommand(t *testing.T) {
	err := run(context.Background(), "launch", nil, nil, &bytes.Buffer{})
	assert.ErrorIs(t, err, errUnknownCommand)
}

func TestRun_FlagHelp(t *testing.T) {
	var out bytes.Buffer
	err := run(context.Background(), "optics", []string{"-h"}, nil, &out)
	assert.True(t, errors.Is(err, flag.ErrHelp))
	assert.Contains(t, out.String(), "-wavelength")
}

func TestOptics(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, handleOptics([]string{"-wavelength", "1000", "-distance-au", "650"}, &out))

	rep := testutil.DecodeJSON[opticsReport](t, &out)
	require.NotNil(t, rep.FocalDistanceAU)
	assert.Greater(t, *rep.FocalDistanceAU, 0.0)
	assert.True(t, rep.InFocalRange)
	assert.Greater(t, rep.Magnification, 1.0)
	assert.Greater(t, rep.PSFFWHMMas, 0.0)
	assert.InDelta(t, 2953, rep.SchwarzschildRadius, 5)
}

func TestOptics_NoFocus(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, handleOptics([]string{"-wavelength", "1e10", "-distance-au", "100"}, &out))

	assert.NotContains(t, out.String(), "focal_distance_au")
	rep := testutil.DecodeJSON[opticsReport](t, &out)
	assert.False(t, rep.InFocalRange)
}

// writeTestConfig shrinks the detector so a full pipeline run is quick.
func writeTestConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tuning.json")
	cfg := `{"image_size": 64, "psf_size": 16, "pixels_per_solar_radius": 0.01}`
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0o644))
	return path
}

// useMemoryFS installs an in-memory filesystem holding a point-source
// frame and an Earth-like spectrum.
func useMemoryFS(t *testing.T) *fsutil.MemoryFileSystem {
	t.Helper()
	mem := fsutil.NewMemoryFileSystem()

	var frame, spec bytes.Buffer
	require.NoError(t, imaging.WriteFrame(&frame, testutil.PointSourceFrame(64, 46, 18, 65535)))
	scale := imaging.ReferenceScale()
	require.NoError(t, imaging.WriteSpectrum(&spec, testutil.EarthLikeSpectrum(scale), scale))
	require.NoError(t, mem.WriteFile("obs.slfr", frame.Bytes(), 0o644))
	require.NoError(t, mem.WriteFile("obs.slsp", spec.Bytes(), 0o644))

	old := fileSystem
	fileSystem = mem
	t.Cleanup(func() { fileSystem = old })
	return mem
}

func TestDetect_PersistsAndPlots(t *testing.T) {
	mem := useMemoryFS(t)
	dbPath := filepath.Join(t.TempDir(), "runs.db")

	var out bytes.Buffer
	err := handleDetect([]string{
		"-frame", "obs.slfr",
		"-spectrum", "obs.slsp",
		"-config", writeTestConfig(t),
		"-doppler", "9.934e-5",
		"-db", dbPath,
		"-label", "synthetic",
		"-plots", "plots",
		"-log-level", "error",
	}, &out)
	require.NoError(t, err)

	res := testutil.DecodeJSON[map[string]any](t, &out)
	assert.NotEmpty(t, res["run_id"])
	planet, ok := res["planet"].(map[string]any)
	require.True(t, ok, "planet object in output")
	assert.Equal(t, true, planet["detected"])

	for _, name := range []string{"spectrum.png", "spectrum.html", "image.png"} {
		assert.True(t, mem.Exists(filepath.Join("plots", name)), "missing %s", name)
	}

	var status bytes.Buffer
	require.NoError(t, run(context.Background(), "migrate", []string{"-db", dbPath, "status"}, nil, &status))
	assert.NotEmpty(t, status.String())
}

func TestDetect_WithoutSpectrum(t *testing.T) {
	useMemoryFS(t)

	var out bytes.Buffer
	err := handleDetect([]string{"-frame", "obs.slfr", "-config", writeTestConfig(t), "-log-level", "error"}, &out)
	require.NoError(t, err)
	assert.NotContains(t, out.String(), "run_id")
}

func TestDetect_Errors(t *testing.T) {
	useMemoryFS(t)
	cfg := writeTestConfig(t)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"missing frame flag", []string{}, "-frame is required"},
		{"missing frame file", []string{"-frame", "nope.slfr", "-config", cfg}, "failed to read frame"},
		{"frame size mismatch", []string{"-frame", "obs.slfr"}, "frame size mismatch"},
		{"zero integration", []string{"-frame", "obs.slfr", "-config", cfg, "-integration", "0"}, "invalid observation"},
		{"integration overflows", []string{"-frame", "obs.slfr", "-config", cfg, "-integration", "4294967296"}, "exceeds 4294967295 seconds"},
		{"plots outside working dir", []string{"-frame", "obs.slfr", "-config", cfg, "-plots", "/proc/self/plots"}, "escapes allowed directories"},
		{"bad config extension", []string{"-frame", "obs.slfr", "-config", "tuning.yaml"}, ".json"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := handleDetect(append(tt.args, "-log-level", "error"), &bytes.Buffer{})
			require.Error(t, err)
			assert.True(t, strings.Contains(err.Error(), tt.want), "error %q should contain %q", err, tt.want)
		})
	}
}

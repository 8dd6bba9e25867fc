package security

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithinDir(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "plots"), 0o755))

	tests := []struct {
		name string
		path string
		ok   bool
	}{
		{"existing subdir", filepath.Join(root, "plots"), true},
		{"new file", filepath.Join(root, "plots", "spectrum.png"), true},
		{"new nested dir", filepath.Join(root, "a", "b", "c"), true},
		{"root itself", root, true},
		{"parent traversal", filepath.Join(root, "..", "escape"), false},
		{"absolute elsewhere", "/etc/passwd", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := WithinDir(tt.path, root)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrOutsideRoot)
			}
		})
	}
}

func TestWithinDir_SymlinkedParent(t *testing.T) {
	root := t.TempDir()
	outside := t.TempDir()
	link := filepath.Join(root, "out")
	if err := os.Symlink(outside, link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	err := WithinDir(filepath.Join(link, "image.png"), root)
	assert.ErrorIs(t, err, ErrOutsideRoot)
}

func TestWithinDir_MissingRoot(t *testing.T) {
	err := WithinDir("x", filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrOutsideRoot)
}

func TestWithinAny(t *testing.T) {
	a, b := t.TempDir(), t.TempDir()
	assert.NoError(t, WithinAny(filepath.Join(b, "f"), a, b))
	assert.ErrorIs(t, WithinAny("/etc/hosts", a, b), ErrOutsideRoot)
	assert.Error(t, WithinAny(filepath.Join(a, "f")))
}

func TestOutputPath(t *testing.T) {
	assert.NoError(t, OutputPath("plots"))
	assert.NoError(t, OutputPath(filepath.Join(os.TempDir(), "solarlens", "run.png")))
	assert.ErrorIs(t, OutputPath("/proc/self/out.png"), ErrOutsideRoot)
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"alpha-cen_b.v2", "alpha-cen_b.v2"},
		{"Proxima Cen b", "Proxima_Cen_b"},
		{"../../etc/passwd", "etc_passwd"},
		{"a  //  b", "a_b"},
		{"", "unknown"},
		{"...", "unknown"},
		{"ü", "unknown"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SanitizeFilename(tt.in), "input %q", tt.in)
	}

	long := SanitizeFilename(strings.Repeat("x", 300))
	assert.Len(t, long, maxFilenameLen)
}

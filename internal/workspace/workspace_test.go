package workspace

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStamp(t *testing.T) {
	tests := []struct {
		name string
		now  time.Time
		want string
	}{
		{
			name: "double digit fields",
			now:  time.Date(2026, 11, 23, 14, 35, 52, 0, time.Local),
			want: "2026-11-23_14-35-52",
		},
		{
			name: "single digit fields are zero padded",
			now:  time.Date(2026, 3, 5, 4, 7, 9, 0, time.Local),
			want: "2026-03-05_04-07-09",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Stamp(tt.now)
			assert.Equal(t, tt.want, got)
			assert.Len(t, got, 19)
		})
	}
}

func TestEnsureDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b", "c")

	require.NoError(t, EnsureDir(dir))
	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	// Existing directory is not an error.
	require.NoError(t, EnsureDir(dir))
}

func TestResolveOutDir(t *testing.T) {
	root := t.TempDir()
	now := time.Date(2026, 8, 29, 10, 0, 0, 0, time.Local)

	t.Run("absolute flag used as-is", func(t *testing.T) {
		abs := filepath.Join(t.TempDir(), "run1")
		assert.Equal(t, abs, ResolveOutDir(root, abs, "lab/init_runs", now))
	})

	t.Run("relative flag joined to root", func(t *testing.T) {
		assert.Equal(t, filepath.Join(root, "run1"), ResolveOutDir(root, "run1", "lab/init_runs", now))
	})

	t.Run("empty flag selects timestamped default", func(t *testing.T) {
		want := filepath.Join(root, "lab", "init_runs", "2026-08-29_10-00-00")
		assert.Equal(t, want, ResolveOutDir(root, "", "lab/init_runs", now))
	})
}

package report

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderIncludesCountsAndErrors(t *testing.T) {
	s := New()
	s.Scanned = 5
	s.Downloaded = 3
	s.Failed = 2
	s.AddError("Grace Hopper", "preview trigger: not found")
	s.AddError("Alan Turing", "no transfer path produced a file")
	s.EndTime = s.StartTime.Add(75 * time.Second)

	out := s.Render()
	assert.Contains(t, out, "3 downloaded")
	assert.Contains(t, out, "2 failed")
	assert.Contains(t, out, "1m 15s")
	assert.Contains(t, out, "Grace Hopper")
	assert.Contains(t, out, "Errors (2)")
}

func TestRenderCapsErrorList(t *testing.T) {
	s := New()
	for i := 0; i < 8; i++ {
		s.AddError("Candidate", "failed")
	}
	assert.Contains(t, s.Render(), "and 3 more")
}

func TestFinishSumsDownloadDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.pdf"), make([]byte, 2048), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.pdf"), make([]byte, 1024), 0o644))

	s := New()
	s.DownloadDir = dir
	s.Finish()
	assert.Equal(t, int64(3072), s.TotalSize)
	assert.Contains(t, s.Render(), "3.00 KB")
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "42s", formatDuration(42*time.Second))
	assert.Equal(t, "2m 5s", formatDuration(125*time.Second))
	assert.Equal(t, "1h 0m 1s", formatDuration(3601*time.Second))
}

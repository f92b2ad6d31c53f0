package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInspectionPaths_Layout(t *testing.T) {
	s := NewLocal("/var/lib/bladescan", "")

	p := s.InspectionPaths("p-1", "w-1", "t-1", "insp-1")

	assert.Equal(t, filepath.Join("/var/lib/bladescan",
		"projects", "p-1", "windfarms", "w-1", "turbines", "t-1", "inspections", "insp-1"), p.Base)
	assert.Equal(t, filepath.Join(p.Base, "raw"), p.Raw)
	assert.Equal(t, filepath.Join(p.Raw, "BladeA", "PS"), p.RawImageDir("BladeA", "PS"))
}

func TestNewTempArchivePath_Unique(t *testing.T) {
	s := NewLocal(t.TempDir(), "")

	a, err := s.NewTempArchivePath()
	assert.NoError(t, err)
	b, err := s.NewTempArchivePath()
	assert.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.Equal(t, ".zip", filepath.Ext(a))
}

func TestNewScratchDir_Created(t *testing.T) {
	s := NewLocal(t.TempDir(), "")

	dir, err := s.NewScratchDir()
	assert.NoError(t, err)

	info, statErr := os.Stat(dir)
	assert.NoError(t, statErr)
	assert.True(t, info.IsDir())
}

func TestCopyFile_CreatesParents(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.jpg")
	assert.NoError(t, os.WriteFile(src, []byte("jpeg-bytes"), 0o644))

	dst := filepath.Join(dir, "deep", "nested", "dst.jpg")
	n, err := CopyFile(src, dst)

	assert.NoError(t, err)
	assert.Equal(t, int64(len("jpeg-bytes")), n)

	data, readErr := os.ReadFile(dst)
	assert.NoError(t, readErr)
	assert.Equal(t, "jpeg-bytes", string(data))
}

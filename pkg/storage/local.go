package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Local manages the on-disk inspection storage tree. The layout is part of
// the external contract and must not change:
//
//	<root>/projects/<project_id>/windfarms/<windfarm_id>/turbines/<turbine_id>/inspections/<inspection_id>/
//	    raw/<Blade>/<Surface>/<original_filename>
type Local struct {
	root    string
	tempDir string
}

// NewLocal creates a Local storage manager
func NewLocal(root, tempDir string) *Local {
	if tempDir == "" {
		tempDir = filepath.Join(root, "temp")
	}
	return &Local{root: root, tempDir: tempDir}
}

// Root returns the storage root directory
func (s *Local) Root() string {
	return s.root
}

// EnsureDirs creates the root and temp directories if missing
func (s *Local) EnsureDirs() error {
	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return fmt.Errorf("failed to create storage root: %w", err)
	}
	if err := os.MkdirAll(s.tempDir, 0o755); err != nil {
		return fmt.Errorf("failed to create temp dir: %w", err)
	}
	return nil
}

// InspectionPaths holds the derived directories of one inspection
type InspectionPaths struct {
	Base string
	Raw  string
}

// RawImageDir returns the permanent directory for one blade/surface pair
func (p InspectionPaths) RawImageDir(blade, surface string) string {
	return filepath.Join(p.Raw, blade, surface)
}

// InspectionPaths derives the storage directories for an inspection from the
// asset hierarchy. The path is deterministic and never user-supplied.
func (s *Local) InspectionPaths(projectID, windfarmID, turbineID, inspectionID string) InspectionPaths {
	base := filepath.Join(s.root,
		"projects", projectID,
		"windfarms", windfarmID,
		"turbines", turbineID,
		"inspections", inspectionID,
	)
	return InspectionPaths{
		Base: base,
		Raw:  filepath.Join(base, "raw"),
	}
}

// NewTempArchivePath returns a fresh temp file path for an incoming archive
func (s *Local) NewTempArchivePath() (string, error) {
	if err := os.MkdirAll(s.tempDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create temp dir: %w", err)
	}
	return filepath.Join(s.tempDir, uuid.New().String()+".zip"), nil
}

// NewScratchDir creates a fresh extraction directory under the temp dir
func (s *Local) NewScratchDir() (string, error) {
	dir := filepath.Join(s.tempDir, "extract_"+uuid.New().String())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create scratch dir: %w", err)
	}
	return dir, nil
}

// CopyFile copies src to dst, creating parent directories as needed
func CopyFile(src, dst string) (int64, error) {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return 0, fmt.Errorf("failed to create directory: %w", err)
	}

	in, err := os.Open(src)
	if err != nil {
		return 0, fmt.Errorf("failed to open source file: %w", err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return 0, fmt.Errorf("failed to create destination file: %w", err)
	}
	defer out.Close()

	n, err := io.Copy(out, in)
	if err != nil {
		return 0, fmt.Errorf("failed to copy file: %w", err)
	}
	return n, nil
}

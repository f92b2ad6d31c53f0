package archive

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Blade/surface taxonomy required inside an uploaded archive. Images must
// sit under <Blade>/<Surface>/ to be picked up; anything else is ignored.
var (
	Blades   = []string{"BladeA", "BladeB", "BladeC"}
	Surfaces = []string{"PS", "LE", "TE", "SS"}
)

// ImageExtensions are the allowed image file extensions (lower case)
var ImageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".bmp":  true,
}

// ImageDescriptor is one discovered image with its inferred position metadata
type ImageDescriptor struct {
	Blade       string
	Surface     string
	Filename    string
	SourcePath  string
	PositionPct *float64
}

// Parse scans an extraction directory for images under the blade/surface
// taxonomy. If the archive wrapped everything in exactly one top-level
// folder, that folder is also searched; deeper nesting is not. Missing
// blades or surfaces are skipped. An empty result is not an error here;
// the caller decides whether that fails the upload.
func Parse(root string) ([]ImageDescriptor, error) {
	searchDirs := []string{root}

	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}
	var subdirs []string
	for _, e := range entries {
		if e.IsDir() {
			subdirs = append(subdirs, filepath.Join(root, e.Name()))
		}
	}
	if len(subdirs) == 1 {
		searchDirs = append(searchDirs, subdirs[0])
	}

	var files []ImageDescriptor
	for _, dir := range searchDirs {
		for _, blade := range Blades {
			bladeDir := filepath.Join(dir, blade)
			if _, err := os.Stat(bladeDir); err != nil {
				continue
			}
			for _, surface := range Surfaces {
				surfaceDir := filepath.Join(bladeDir, surface)
				surfEntries, err := os.ReadDir(surfaceDir)
				if err != nil {
					continue
				}
				for _, e := range surfEntries {
					if e.IsDir() {
						continue
					}
					ext := strings.ToLower(filepath.Ext(e.Name()))
					if !ImageExtensions[ext] {
						continue
					}
					files = append(files, ImageDescriptor{
						Blade:       blade,
						Surface:     surface,
						Filename:    e.Name(),
						SourcePath:  filepath.Join(surfaceDir, e.Name()),
						PositionPct: PositionPct(e.Name()),
					})
				}
			}
		}
		if len(files) > 0 {
			break
		}
	}
	return files, nil
}

// PositionPct opportunistically recovers the position-on-blade percentage
// from a filename: the stem is split on '_' and the first segment from the
// end that parses as an integer wins. "IMG_0082_D.JPG" yields 82;
// "photo.png" yields nil.
func PositionPct(name string) *float64 {
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	parts := strings.Split(stem, "_")
	for i := len(parts) - 1; i >= 0; i-- {
		if !isDigits(parts[i]) {
			continue
		}
		if n, err := strconv.Atoi(parts[i]); err == nil {
			pct := float64(n)
			return &pct
		}
	}
	return nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

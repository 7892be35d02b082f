package files

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// ErrNoFiles means a directory holds no file with an accepted extension.
var ErrNoFiles = errors.New("no spreadsheet files found")

// FileInfo represents information about a discovered file
type FileInfo struct {
	Path    string
	Name    string
	Size    int64
	ModTime time.Time
}

// Discovery provides file discovery operations
type Discovery struct {
	basePath   string
	extensions map[string]bool
}

// NewDiscovery creates a Discovery that accepts the given extensions
// (with leading dot, any case).
func NewDiscovery(basePath string, extensions ...string) *Discovery {
	d := &Discovery{basePath: basePath, extensions: make(map[string]bool, len(extensions))}
	for _, ext := range extensions {
		d.extensions[strings.ToLower(ext)] = true
	}
	return d
}

func (d *Discovery) resolve(dir string) string {
	if filepath.IsAbs(dir) || d.basePath == "" {
		return dir
	}
	return filepath.Join(d.basePath, dir)
}

// FindSpreadsheets lists accepted files in dir, newest first. Office lock
// files (~$name.xlsx) and hidden files are skipped.
func (d *Discovery) FindSpreadsheets(dir string) ([]FileInfo, error) {
	fullPath := d.resolve(dir)

	entries, err := os.ReadDir(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", fullPath, err)
	}

	var found []FileInfo
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, "~$") || strings.HasPrefix(name, ".") {
			continue
		}
		if !d.extensions[strings.ToLower(filepath.Ext(name))] {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}
		found = append(found, FileInfo{
			Path:    filepath.Join(fullPath, name),
			Name:    name,
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	sort.SliceStable(found, func(i, j int) bool {
		if found[i].ModTime.Equal(found[j].ModTime) {
			return found[i].Name < found[j].Name
		}
		return found[i].ModTime.After(found[j].ModTime)
	})
	return found, nil
}

// Latest returns the most recently modified accepted file in dir.
func (d *Discovery) Latest(dir string) (FileInfo, error) {
	found, err := d.FindSpreadsheets(dir)
	if err != nil {
		return FileInfo{}, err
	}
	if len(found) == 0 {
		return FileInfo{}, fmt.Errorf("%w in %s", ErrNoFiles, d.resolve(dir))
	}
	return found[0], nil
}

// ResolveInput returns path unchanged when it is a file and the newest
// accepted file when it is a directory.
func (d *Discovery) ResolveInput(path string) (string, error) {
	full := d.resolve(path)
	info, err := os.Stat(full)
	if err != nil {
		return "", fmt.Errorf("failed to stat %s: %w", full, err)
	}
	if !info.IsDir() {
		return full, nil
	}

	latest, err := d.Latest(full)
	if err != nil {
		return "", err
	}
	return latest.Path, nil
}

package files

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"flowpulse/internal/flow"
)

// Snapshot filename prefixes recognized by discovery.
var (
	optionPrefixes   = []string{"options_data_", "option_data_"}
	darkPoolPrefixes = []string{"darkpool_data_"}
)

// SnapshotFile is one discovered snapshot on disk. Timestamp comes from the
// filename stamp when present, otherwise the file's modification time.
type SnapshotFile struct {
	Path      string
	Name      string
	Size      int64
	Timestamp time.Time
}

// Discovery locates snapshot CSV files under a base directory.
type Discovery struct {
	basePath string
	logger   *slog.Logger
}

// NewDiscovery creates a discovery instance rooted at basePath.
func NewDiscovery(basePath string, logger *slog.Logger) *Discovery {
	if logger == nil {
		logger = slog.Default()
	}
	return &Discovery{
		basePath: basePath,
		logger:   logger.With(slog.String("component", "files")),
	}
}

// FindOptionSnapshots returns all option snapshot files in dir, newest
// first by snapshot timestamp.
func (d *Discovery) FindOptionSnapshots(dir string) ([]SnapshotFile, error) {
	return d.findSnapshots(dir, optionPrefixes)
}

// FindDarkPoolSnapshots returns all dark-pool snapshot files in dir, newest
// first by snapshot timestamp.
func (d *Discovery) FindDarkPoolSnapshots(dir string) ([]SnapshotFile, error) {
	return d.findSnapshots(dir, darkPoolPrefixes)
}

func (d *Discovery) findSnapshots(dir string, prefixes []string) ([]SnapshotFile, error) {
	fullPath := dir
	if !filepath.IsAbs(dir) {
		fullPath = filepath.Join(d.basePath, dir)
	}

	entries, err := os.ReadDir(fullPath)
	if err != nil {
		return nil, fmt.Errorf("read directory %s: %w", fullPath, err)
	}

	var files []SnapshotFile
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(strings.ToLower(name), ".csv") || !hasAnyPrefix(name, prefixes) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}

		ts, ok := flow.ParseFilenameTimestamp(name)
		if !ok {
			// Stamps are the normal case; fall back to mtime for
			// hand-renamed files.
			ts = info.ModTime()
			d.logger.Warn("snapshot filename missing timestamp stamp, using mtime",
				slog.String("file", name))
		}

		files = append(files, SnapshotFile{
			Path:      filepath.Join(fullPath, name),
			Name:      name,
			Size:      info.Size(),
			Timestamp: ts,
		})
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Timestamp.After(files[j].Timestamp)
	})
	return files, nil
}

func hasAnyPrefix(name string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(name, p) {
			return true
		}
	}
	return false
}

// LoadSnapshot reads one snapshot file into the shape the merger consumes.
func (d *Discovery) LoadSnapshot(sf SnapshotFile) (flow.Snapshot, error) {
	data, err := os.ReadFile(sf.Path)
	if err != nil {
		return flow.Snapshot{}, fmt.Errorf("read snapshot %s: %w", sf.Name, err)
	}
	return flow.Snapshot{
		Filename:  sf.Name,
		CSVText:   string(data),
		Timestamp: sf.Timestamp,
	}, nil
}

package thumbcache

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"media-explorer/internal/filesystem"
	"media-explorer/internal/logging"
	"media-explorer/internal/metrics"

	"github.com/dustin/go-humanize"
)

// staleTempAge is how old an abandoned atomic-write temp file must be before
// the janitor removes it. Live writes finish in well under a second.
const staleTempAge = time.Hour

// Limits are the janitor's ceilings. A zero field disables that sweep; use
// Purge to empty the cache.
type Limits struct {
	MaxAge   time.Duration
	MaxBytes int64
}

// LimitsFrom converts day and megabyte settings into Limits.
func LimitsFrom(maxAgeDays int, maxTotalMB int64) Limits {
	return Limits{
		MaxAge:   time.Duration(maxAgeDays) * 24 * time.Hour,
		MaxBytes: maxTotalMB * 1024 * 1024,
	}
}

// Report summarizes one maintenance pass.
type Report struct {
	AgeDeleted     int
	SizeDeleted    int
	TempDeleted    int
	FreedBytes     int64
	RemainingFiles int
	RemainingBytes int64
}

func (r Report) String() string {
	return "removed " + humanize.Comma(int64(r.AgeDeleted)) + " expired, " +
		humanize.Comma(int64(r.SizeDeleted)) + " over quota, " +
		humanize.Comma(int64(r.TempDeleted)) + " stale temp files; freed " +
		humanize.IBytes(uint64(r.FreedBytes)) + ", " +
		humanize.Comma(int64(r.RemainingFiles)) + " thumbnails (" +
		humanize.IBytes(uint64(r.RemainingBytes)) + ") remain"
}

// Janitor enforces age and size ceilings on a cache directory.
type Janitor struct {
	dir    string
	limits Limits
	now    func() time.Time
	remove func(string) error

	mu       sync.Mutex // serializes passes
	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewJanitor creates a janitor for dir.
func NewJanitor(dir string, limits Limits) *Janitor {
	return &Janitor{
		dir:    dir,
		limits: limits,
		now:    time.Now,
		remove: os.Remove,
		stop:   make(chan struct{}),
	}
}

type cacheFile struct {
	path    string
	modTime time.Time
	size    int64
}

// Maintain runs the age sweep and then the size sweep. Files that cannot be
// examined or removed are skipped.
func (j *Janitor) Maintain() Report {
	return j.sweep(j.limits, false)
}

// Purge removes every cache entry regardless of age or size.
func (j *Janitor) Purge() Report {
	return j.sweep(Limits{}, true)
}

func (j *Janitor) sweep(limits Limits, all bool) Report {
	j.mu.Lock()
	defer j.mu.Unlock()

	var report Report
	now := j.now()

	entries, err := os.ReadDir(j.dir)
	if err != nil {
		if !os.IsNotExist(err) {
			logging.Warn("Janitor could not read %s: %v", j.dir, err)
		}
		return report
	}

	var files []cacheFile
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		info, err := e.Info()
		if err != nil {
			continue
		}
		path := filepath.Join(j.dir, name)

		if filesystem.IsTempName(name) {
			if now.Sub(info.ModTime()) > staleTempAge && j.delete(path) {
				report.TempDeleted++
				report.FreedBytes += info.Size()
			}
			continue
		}
		if !strings.HasSuffix(name, Ext) {
			continue
		}
		files = append(files, cacheFile{path: path, modTime: info.ModTime(), size: info.Size()})
	}

	// Age sweep
	if limits.MaxAge > 0 || all {
		cutoff := now.Add(-limits.MaxAge)
		kept := files[:0]
		for _, f := range files {
			if (all || f.modTime.Before(cutoff)) && j.delete(f.path) {
				report.AgeDeleted++
				report.FreedBytes += f.size
				continue
			}
			kept = append(kept, f)
		}
		files = kept
	}

	var total int64
	for _, f := range files {
		total += f.size
	}

	// Size sweep, oldest first
	if limits.MaxBytes > 0 && total > limits.MaxBytes {
		sort.SliceStable(files, func(a, b int) bool {
			return files[a].modTime.Before(files[b].modTime)
		})
		kept := files[:0]
		for _, f := range files {
			if total > limits.MaxBytes && j.delete(f.path) {
				report.SizeDeleted++
				report.FreedBytes += f.size
				total -= f.size
				continue
			}
			kept = append(kept, f)
		}
		files = kept
	}

	report.RemainingFiles = len(files)
	report.RemainingBytes = total

	metrics.JanitorRunsTotal.Inc()
	metrics.JanitorDeletedTotal.WithLabelValues("age").Add(float64(report.AgeDeleted))
	metrics.JanitorDeletedTotal.WithLabelValues("size").Add(float64(report.SizeDeleted))
	metrics.JanitorDeletedTotal.WithLabelValues("temp").Add(float64(report.TempDeleted))
	metrics.JanitorFreedBytesTotal.Add(float64(report.FreedBytes))
	metrics.JanitorLastRunTimestamp.Set(float64(now.Unix()))
	metrics.ThumbnailCacheCount.Set(float64(report.RemainingFiles))
	metrics.ThumbnailCacheSize.Set(float64(report.RemainingBytes))

	return report
}

func (j *Janitor) delete(path string) bool {
	if err := j.remove(path); err != nil {
		if !os.IsNotExist(err) {
			logging.Debug("Janitor could not remove %s: %v", path, err)
		}
		return false
	}
	return true
}

// Start runs Maintain now and then every interval until Stop. An interval of
// zero or less runs only the initial pass.
func (j *Janitor) Start(interval time.Duration) {
	logging.Info("Janitor: %s", j.Maintain())
	if interval <= 0 {
		return
	}

	j.wg.Add(1)
	go func() {
		defer j.wg.Done()
		logging.Info("Running cache janitor every %s", interval)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-j.stop:
				logging.Info("Stopping cache janitor")
				return
			case <-ticker.C:
				report := j.Maintain()
				if report.AgeDeleted+report.SizeDeleted+report.TempDeleted > 0 {
					logging.Info("Janitor: %s", report)
				} else {
					logging.Debug("Janitor: %s", report)
				}
			}
		}
	}()
}

// Stop ends the background loop and waits for it to exit.
func (j *Janitor) Stop() {
	j.stopOnce.Do(func() { close(j.stop) })
	j.wg.Wait()
}

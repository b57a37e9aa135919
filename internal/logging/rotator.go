package logging

import (
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

const logFileName = "voidtab.log"

// Rotator is an io.Writer over a size-rotated log file. Rotated files
// get a timestamp suffix and are gzip-compressed; old backups are pruned
// by age and count.
type Rotator struct {
	mu         sync.Mutex
	dir        string
	maxSize    int64
	maxAge     time.Duration
	maxBackups int

	file *os.File
	size int64
}

// NewRotator opens (or creates) dir/voidtab.log for appending.
func NewRotator(dir string, maxSizeMB, maxBackups, maxAgeDays int) (*Rotator, error) {
	r := &Rotator{
		dir:        dir,
		maxSize:    int64(maxSizeMB) * 1024 * 1024,
		maxAge:     time.Duration(maxAgeDays) * 24 * time.Hour,
		maxBackups: maxBackups,
	}
	if err := r.open(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Rotator) open() error {
	path := filepath.Join(r.dir, logFileName)
	if info, err := os.Stat(path); err == nil {
		r.size = info.Size()
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	r.file = file
	return nil
}

func (r *Rotator) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.file == nil {
		if err := r.open(); err != nil {
			return 0, err
		}
	}
	if r.size+int64(len(p)) > r.maxSize {
		if err := r.rotate(); err != nil {
			return 0, err
		}
	}

	n, err := r.file.Write(p)
	r.size += int64(n)
	return n, err
}

func (r *Rotator) rotate() error {
	if r.file != nil {
		_ = r.file.Close()
	}

	stamp := time.Now().Format("2006-01-02-15-04-05")
	current := filepath.Join(r.dir, logFileName)
	backup := filepath.Join(r.dir, logFileName+"."+stamp)
	if err := os.Rename(current, backup); err != nil {
		return fmt.Errorf("failed to rotate log file: %w", err)
	}

	// Compression failure keeps the uncompressed backup; rotation itself
	// already succeeded.
	if err := compressFile(backup); err == nil {
		_ = os.Remove(backup)
	}

	r.prune()
	r.size = 0
	return r.open()
}

func compressFile(path string) error {
	in, err := os.Open(path)
	if err != nil {
		return err
	}
	defer in.Close() //nolint:errcheck

	out, err := os.Create(path + ".gz")
	if err != nil {
		return err
	}
	defer out.Close() //nolint:errcheck

	gz := gzip.NewWriter(out)
	if _, err := io.Copy(gz, in); err != nil {
		return err
	}
	return gz.Close()
}

// prune drops backups past maxAge and keeps at most maxBackups of the
// rest. Prune errors are silent; they only delay cleanup.
func (r *Rotator) prune() {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return
	}

	var backups []os.FileInfo
	now := time.Now()
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), logFileName+".") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if r.maxAge > 0 && now.Sub(info.ModTime()) > r.maxAge {
			_ = os.Remove(filepath.Join(r.dir, info.Name()))
			continue
		}
		backups = append(backups, info)
	}

	if r.maxBackups <= 0 || len(backups) <= r.maxBackups {
		return
	}
	sort.Slice(backups, func(i, j int) bool {
		return backups[i].ModTime().Before(backups[j].ModTime())
	})
	for _, info := range backups[:len(backups)-r.maxBackups] {
		_ = os.Remove(filepath.Join(r.dir, info.Name()))
	}
}

func (r *Rotator) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.file == nil {
		return nil
	}
	return r.file.Close()
}

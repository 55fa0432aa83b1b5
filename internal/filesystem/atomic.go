package filesystem

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

// TempMarker is the infix of temporary files created by WriteFileAtomic.
const TempMarker = ".tmp-"

// renameFunc is swapped in tests to simulate rename failures.
var renameFunc = os.Rename

// IsTempName reports whether name looks like an in-progress atomic write.
func IsTempName(name string) bool {
	return strings.HasPrefix(name, ".") && strings.Contains(name, TempMarker)
}

// WriteFileAtomic writes data to dir/name through a hidden temporary file in
// the same directory followed by a rename, so readers never observe a
// partially written file. An existing file is replaced.
func WriteFileAtomic(dir, name string, data []byte) (err error) {
	start := time.Now()
	defer func() {
		observe().ObserveOperation(defaultVolumes.Resolve(dir), "write", time.Since(start).Seconds(), err)
	}()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+name+TempMarker+"*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		_ = tmp.Close()
		if err != nil {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return err
	}
	if err = tmp.Chmod(0o644); err != nil {
		return err
	}
	if err = tmp.Sync(); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	if err = renameFunc(tmpName, filepath.Join(dir, name)); err != nil {
		return err
	}

	syncDir(dir)
	return nil
}

// syncDir flushes the directory entry. Failures are ignored since not every
// platform or filesystem supports it.
func syncDir(dir string) {
	if runtime.GOOS == "windows" {
		return
	}
	f, err := os.Open(dir)
	if err != nil {
		return
	}
	defer f.Close()
	_ = f.Sync()
}

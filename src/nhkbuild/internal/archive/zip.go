// Package archive assembles the dated flashable zip deliverables.
package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DatedName returns the archive filename for a build date. Names embed
// the calendar day, not the time: a re-run on the same day overwrites,
// a run on another day coexists.
func DatedName(prefix string, t time.Time) string {
	return fmt.Sprintf("%s-%s.zip", prefix, t.Format("20060102"))
}

// ExcludeFunc filters archive members by slash-separated relative path
type ExcludeFunc func(rel string) bool

// PackagingExcludes skips version-control metadata, documentation, and
// archives from prior runs.
func PackagingExcludes(rel string) bool {
	if rel == ".git" || strings.HasPrefix(rel, ".git/") {
		return true
	}
	if strings.HasSuffix(rel, ".md") {
		return true
	}
	if strings.HasSuffix(rel, ".zip") {
		return true
	}
	return false
}

// CreateZip compresses the contents of root into dest, omitting entries
// matched by exclude. File modes are preserved; the archive is written
// atomically via a temp file so a failed run leaves no partial zip.
func CreateZip(dest, root string, exclude ExcludeFunc) error {
	tmp, err := os.CreateTemp(filepath.Dir(dest), filepath.Base(dest)+".part-*")
	if err != nil {
		return fmt.Errorf("failed to create temp archive: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	zw := zip.NewWriter(tmp)

	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		// The archive lands inside the tree being packaged; never
		// include the in-progress temp file or the destination itself.
		if path == tmpPath || path == dest {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if exclude != nil && exclude(rel) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		if !info.Mode().IsRegular() {
			return nil
		}

		header, err := zip.FileInfoHeader(info)
		if err != nil {
			return err
		}
		header.Name = rel
		header.Method = zip.Deflate

		w, err := zw.CreateHeader(header)
		if err != nil {
			return err
		}

		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()

		_, err = io.Copy(w, f)
		return err
	})

	if walkErr != nil {
		zw.Close()
		tmp.Close()
		return fmt.Errorf("failed to archive %s: %w", root, walkErr)
	}
	if err := zw.Close(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to finalize archive: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close archive: %w", err)
	}

	return os.Rename(tmpPath, dest)
}

package archive

import (
	"archive/zip"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"
)

func TestDatedName(t *testing.T) {
	tests := []struct {
		name   string
		prefix string
		date   time.Time
		want   string
	}{
		{
			name:   "kernel archive",
			prefix: "NetHunter-flame-kernel",
			date:   time.Date(2026, 8, 25, 14, 30, 0, 0, time.UTC),
			want:   "NetHunter-flame-kernel-20260825.zip",
		},
		{
			name:   "installer archive",
			prefix: "NetHunter-installer-flame",
			date:   time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC),
			want:   "NetHunter-installer-flame-20260102.zip",
		},
		{
			name:   "time of day is ignored",
			prefix: "NetHunter-flame-kernel",
			date:   time.Date(2026, 8, 25, 23, 59, 59, 0, time.UTC),
			want:   "NetHunter-flame-kernel-20260825.zip",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DatedName(tt.prefix, tt.date); got != tt.want {
				t.Errorf("DatedName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPackagingExcludes(t *testing.T) {
	tests := []struct {
		rel  string
		want bool
	}{
		{".git", true},
		{".git/HEAD", true},
		{".git/objects/ab/cdef", true},
		{"README.md", true},
		{"docs/NOTES.md", true},
		{"NetHunter-flame-kernel-20260824.zip", true},
		{"anykernel.sh", false},
		{"Image.lz4-dtb", false},
		{"tools/busybox", false},
		{"META-INF/com/google/android/update-binary", false},
	}

	for _, tt := range tests {
		if got := PackagingExcludes(tt.rel); got != tt.want {
			t.Errorf("PackagingExcludes(%q) = %v, want %v", tt.rel, got, tt.want)
		}
	}
}

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, body := range files {
		path := filepath.Join(root, name)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(body), 0644); err != nil {
			t.Fatal(err)
		}
	}
}

func zipEntryNames(t *testing.T, path string) []string {
	t.Helper()
	r, err := zip.OpenReader(path)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	names := make([]string, 0, len(r.File))
	for _, f := range r.File {
		names = append(names, f.Name)
	}
	sort.Strings(names)
	return names
}

func TestCreateZip(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"anykernel.sh":  "# AnyKernel3 Backend\n",
		"Image.lz4-dtb": "kernel image bytes",
		".git/HEAD":     "ref: refs/heads/master",
		"README.md":     "docs",
		"old-build.zip": "stale archive",
		"tools/busybox": "binary",
	})

	dest := filepath.Join(root, "out.zip")
	if err := CreateZip(dest, root, PackagingExcludes); err != nil {
		t.Fatalf("CreateZip() error = %v", err)
	}

	want := []string{"Image.lz4-dtb", "anykernel.sh", "tools/busybox"}
	got := zipEntryNames(t, dest)
	if len(got) != len(want) {
		t.Fatalf("zip entries = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("entry %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestCreateZipOverwrites(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"payload": "v1"})

	dest := filepath.Join(t.TempDir(), "out.zip")
	if err := CreateZip(dest, root, nil); err != nil {
		t.Fatal(err)
	}

	// A second run on the same day targets the same name and must
	// replace the earlier archive, not fail or append.
	writeTree(t, root, map[string]string{"payload": "v2", "extra": "new"})
	if err := CreateZip(dest, root, nil); err != nil {
		t.Fatalf("CreateZip() overwrite error = %v", err)
	}

	got := zipEntryNames(t, dest)
	if len(got) != 2 {
		t.Errorf("zip entries = %v, want the second run's two files", got)
	}
}

func TestCreateZipMissingRoot(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "out.zip")
	err := CreateZip(dest, filepath.Join(t.TempDir(), "nope"), nil)
	if err == nil {
		t.Fatal("CreateZip() succeeded on a missing root")
	}
	if _, statErr := os.Stat(dest); !os.IsNotExist(statErr) {
		t.Error("failed CreateZip() left a partial archive at the destination")
	}
}

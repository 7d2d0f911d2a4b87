package subaru

import (
	"archive/tar"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/klauspost/pgzip"
	"github.com/ulikunitz/xz"
)

// newTestSettings builds Settings rooted in a temp directory so every store
// and command under test works on a throwaway tree.
func newTestSettings(t *testing.T) *Settings {
	t.Helper()
	root := t.TempDir()
	cfg := &Config{Values: map[string]string{
		"SUBARU_ROOT":      filepath.Join(root, "rootfs"),
		"SUBARU_CACHE_DIR": filepath.Join(root, "cache"),
	}}
	s, err := NewSettings(cfg)
	if err != nil {
		t.Fatalf("NewSettings() failed: %v", err)
	}
	return s
}

// writeIndexEntry creates index/<full>/desc with the given record text.
func writeIndexEntry(t *testing.T, s *Settings, full, desc string) {
	t.Helper()
	dir := filepath.Join(s.IndexDir, full)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("failed to create index entry %s: %v", full, err)
	}
	if err := os.WriteFile(filepath.Join(dir, "desc"), []byte(desc), 0o644); err != nil {
		t.Fatalf("failed to write desc for %s: %v", full, err)
	}
}

// feedStdin replaces os.Stdin with a pipe pre-filled with input, so tests
// can drive the interactive prompts.
func feedStdin(t *testing.T, input string) {
	t.Helper()
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe() failed: %v", err)
	}
	if _, err := w.WriteString(input); err != nil {
		t.Fatalf("failed to fill stdin pipe: %v", err)
	}
	w.Close()

	old := os.Stdin
	os.Stdin = r
	t.Cleanup(func() {
		os.Stdin = old
		r.Close()
	})
}

// tarEntry describes one member of a test archive.
type tarEntry struct {
	name     string
	typeflag byte
	body     string
	linkname string
}

func dirEntry(name string) tarEntry {
	return tarEntry{name: name, typeflag: tar.TypeDir}
}

func fileEntry(name, body string) tarEntry {
	return tarEntry{name: name, typeflag: tar.TypeReg, body: body}
}

// buildArchive writes a tar archive at path, compressed according to the
// path's extension (.tar, .tar.gz, .tar.zst or .tar.xz).
func buildArchive(t *testing.T, path string, entries []tarEntry) {
	t.Helper()

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create archive %s: %v", path, err)
	}
	defer f.Close()

	var compressor io.WriteCloser
	switch {
	case strings.HasSuffix(path, ".tar.gz"):
		compressor = pgzip.NewWriter(f)
	case strings.HasSuffix(path, ".tar.zst"):
		zw, err := zstd.NewWriter(f)
		if err != nil {
			t.Fatalf("zstd.NewWriter() failed: %v", err)
		}
		compressor = zw
	case strings.HasSuffix(path, ".tar.xz"):
		xw, err := xz.NewWriter(f)
		if err != nil {
			t.Fatalf("xz.NewWriter() failed: %v", err)
		}
		compressor = xw
	}

	var target io.Writer = f
	if compressor != nil {
		target = compressor
	}
	tw := tar.NewWriter(target)
	now := time.Now()
	for _, e := range entries {
		hdr := &tar.Header{
			Name:       e.name,
			Typeflag:   e.typeflag,
			ModTime:    now,
			AccessTime: now,
			Format:     tar.FormatPAX,
		}
		switch e.typeflag {
		case tar.TypeDir:
			hdr.Mode = 0o755
		case tar.TypeSymlink:
			hdr.Mode = 0o777
			hdr.Linkname = e.linkname
		default:
			hdr.Mode = 0o644
			hdr.Size = int64(len(e.body))
		}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatalf("failed to write tar header %s: %v", e.name, err)
		}
		if e.typeflag == tar.TypeReg {
			if _, err := tw.Write([]byte(e.body)); err != nil {
				t.Fatalf("failed to write tar body %s: %v", e.name, err)
			}
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatalf("failed to close tar writer: %v", err)
	}
	if compressor != nil {
		if err := compressor.Close(); err != nil {
			t.Fatalf("failed to close compressor: %v", err)
		}
	}
}

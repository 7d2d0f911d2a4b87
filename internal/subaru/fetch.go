package subaru

import (
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/term"
)

// Fetcher downloads repository files from the mirror into the local cache.
type Fetcher struct {
	client *http.Client
	mirror string
	binDir string // cached package archives
	dbDir  string // cached repository databases
}

func NewFetcher(s *Settings) *Fetcher {
	return &Fetcher{
		client: newHttpClient(),
		mirror: s.Mirror,
		binDir: filepath.Join(s.CacheDir, "bin"),
		dbDir:  filepath.Join(s.CacheDir, "db"),
	}
}

func newHttpClient() *http.Client {
	// Public mirrors are served with publicly trusted certificates, so the
	// system pool is used as-is.
	tlsConfig := &tls.Config{
		MinVersion: tls.VersionTLS12,
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = tlsConfig

	// Increase TLS handshake timeout to handle slow mirrors.
	// Default is 10s, we increase it to 30s.
	transport.TLSHandshakeTimeout = 30 * time.Second

	return &http.Client{
		Transport: transport,
		Timeout:   300 * time.Second, // 5 min total timeout for large downloads
	}
}

// FetchPackage downloads a package archive and returns its local path.
// A previously cached archive is reused without touching the network.
func (f *Fetcher) FetchPackage(filename string) (string, error) {
	if filename == "" {
		return "", fmt.Errorf("package has no archive filename in its description")
	}
	url := fmt.Sprintf("%s/%s", f.mirror, filename)
	destPath := filepath.Join(f.binDir, filename)
	if err := f.download(url, destPath); err != nil {
		return "", err
	}
	return destPath, nil
}

// FetchIndexDB downloads the repository database archive and returns its
// local path. The cache name is derived from the mirror URL so switching
// mirrors never reuses a stale database; the database also changes in place
// on the mirror, so it is always refetched.
func (f *Fetcher) FetchIndexDB(dbName string) (string, error) {
	filename := dbName + ".db.tar.gz"
	url := fmt.Sprintf("%s/%s", f.mirror, filename)
	destPath := filepath.Join(f.dbDir, hashString(url)+"-"+filename)
	if err := os.Remove(destPath); err != nil && !os.IsNotExist(err) {
		return "", err
	}
	if err := f.download(url, destPath); err != nil {
		return "", err
	}
	return destPath, nil
}

// download fetches url into destPath through a .part temporary, so a failed
// transfer never leaves a partial file at the final path. Progress is shown
// when stderr is a terminal.
func (f *Fetcher) download(url, destPath string) error {
	if _, err := os.Stat(destPath); err == nil {
		debugf("File %s already cached, skipping download.\n", destPath)
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return fmt.Errorf("failed to create cache directory for %s: %w", destPath, err)
	}

	debugf("Downloading %s -> %s\n", url, destPath)

	partPath := destPath + ".part"
	out, err := os.Create(partPath)
	if err != nil {
		return fmt.Errorf("failed to create destination file %s: %w", partPath, err)
	}

	resp, err := f.client.Get(url)
	if err != nil {
		out.Close()
		os.Remove(partPath)
		return fmt.Errorf("http get failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		out.Close()
		os.Remove(partPath)
		return fmt.Errorf("download failed with status: %s", resp.Status)
	}

	var dst io.Writer = out
	if term.IsTerminal(int(os.Stderr.Fd())) {
		bar := progressbar.DefaultBytes(resp.ContentLength, filepath.Base(destPath))
		dst = io.MultiWriter(out, bar)
	}

	if _, err := io.Copy(dst, resp.Body); err != nil {
		out.Close()
		os.Remove(partPath)
		return fmt.Errorf("failed to write to destination file: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(partPath)
		return err
	}

	return os.Rename(partPath, destPath)
}

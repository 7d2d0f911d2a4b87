package subaru

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Config struct
type Config struct {
	Values map[string]string
}

// Load /etc/subaru.conf and apply env overrides
func loadConfig(path string) (*Config, error) {
	cfg := &Config{Values: make(map[string]string)}

	// Attempt to read the file
	file, err := os.Open(path)
	if err == nil {
		defer file.Close()
		scanner := bufio.NewScanner(file)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			parts := strings.SplitN(line, "=", 2)
			if len(parts) != 2 {
				continue
			}
			key := strings.TrimSpace(parts[0])
			val := strings.TrimSpace(parts[1])
			val = strings.Trim(val, `"'`)
			cfg.Values[key] = val
		}
		if err := scanner.Err(); err != nil {
			return cfg, err
		}
	}

	// Merge SUBARU_* env overrides
	mergeEnvOverrides(cfg)

	return cfg, nil
}

// Merge SUBARU_* env overrides
func mergeEnvOverrides(cfg *Config) {
	for _, env := range os.Environ() {
		if strings.HasPrefix(env, "SUBARU_") {
			parts := strings.SplitN(env, "=", 2)
			if len(parts) == 2 {
				cfg.Values[parts[0]] = parts[1]
			}
		}
	}
}

// Settings holds everything derived from the config, resolved once at
// startup and passed explicitly to the stores and commands.
type Settings struct {
	Arch         string // "64" or "32"
	Prefix       string // package name prefix for the selected arch
	Mirror       string // repository base URL, no trailing slash
	DBName       string // repository database name (mingw64 / mingw32)
	RootDir      string // install root
	StateDir     string // <RootDir>/var/db/subaru
	IndexDir     string // <StateDir>/index
	InstalledDir string // <StateDir>/installed
	CacheDir     string // downloaded archive cache
	Debug        bool
	HostDeps     map[string]bool // dependency names satisfied by the host

	S3Endpoint  string
	S3Bucket    string
	S3AccessKey string
	S3SecretKey string
	S3Region    string
}

// NewSettings validates the config and derives all paths and URLs for the
// selected architecture. An unrecognized SUBARU_ARCH is a fatal
// configuration error.
func NewSettings(cfg *Config) (*Settings, error) {
	s := &Settings{}

	s.Arch = cfg.Values["SUBARU_ARCH"]
	if s.Arch == "" {
		s.Arch = "64"
	}
	switch s.Arch {
	case "64":
		s.Prefix = "mingw-w64-x86_64-"
		s.Mirror = "https://repo.msys2.org/mingw/x86_64"
		s.DBName = "mingw64"
		s.RootDir = "/opt/subaru/mingw64"
	case "32":
		s.Prefix = "mingw-w64-i686-"
		s.Mirror = "https://repo.msys2.org/mingw/i686"
		s.DBName = "mingw32"
		s.RootDir = "/opt/subaru/mingw32"
	default:
		return nil, fmt.Errorf("SUBARU_ARCH must be \"32\" or \"64\", got %q", s.Arch)
	}

	if root := cfg.Values["SUBARU_ROOT"]; root != "" {
		s.RootDir = strings.TrimRight(root, "/")
	}
	if mirror := cfg.Values["SUBARU_MIRROR"]; mirror != "" {
		s.Mirror = strings.TrimRight(mirror, "/")
	}

	s.CacheDir = cfg.Values["SUBARU_CACHE_DIR"]
	if s.CacheDir == "" {
		s.CacheDir = "/var/cache/subaru"
	}

	s.StateDir = filepath.Join(s.RootDir, "var/db/subaru")
	s.IndexDir = filepath.Join(s.StateDir, "index")
	s.InstalledDir = filepath.Join(s.StateDir, "installed")

	if cfg.Values["SUBARU_DEBUG"] == "1" {
		s.Debug = true
	}
	debugEnabled = s.Debug

	// winpty is always provided by the host package manager; the config can
	// name more such packages.
	s.HostDeps = map[string]bool{"winpty": true}
	for _, name := range strings.FieldsFunc(cfg.Values["SUBARU_HOST_DEPS"], func(r rune) bool {
		return r == ',' || r == ' '
	}) {
		s.HostDeps[name] = true
	}

	s.S3Endpoint = cfg.Values["SUBARU_S3_ENDPOINT"]
	s.S3Bucket = cfg.Values["SUBARU_S3_BUCKET"]
	s.S3AccessKey = cfg.Values["SUBARU_S3_ACCESS_KEY"]
	s.S3SecretKey = cfg.Values["SUBARU_S3_SECRET_KEY"]
	s.S3Region = cfg.Values["SUBARU_S3_REGION"]
	if s.S3Region == "" {
		s.S3Region = "auto"
	}

	debugf("=> Using mirror: %s\n", s.Mirror)
	debugf("=> Install root: %s\n", s.RootDir)

	return s, nil
}

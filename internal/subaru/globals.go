package subaru

import (
	"errors"
	"runtime"
	"sync/atomic"

	"github.com/gookit/color"
)

// GLOBAL STATE
// We use a value of 1 for critical and 0 for non-critical/default.
var isCriticalAtomic atomic.Int32

// Global variables
var (
	ConfigFile = "/etc/subaru.conf"
	version    = "dev" //default version; overridden at build time
	arch       = runtime.GOARCH
	buildDate  = "unknown" // overridden at build time

	errPackageNotFound     = errors.New("package not found")
	errIndexMissing        = errors.New("package index not found")
	errNotInstalled        = errors.New("package is not installed")
	errBlockedByDependents = errors.New("package has installed dependents")
)

// color helpers
var (
	colInfo    = color.Info // style provided by gookit/color
	colWarn    = color.Warn
	colError   = color.Error
	colSuccess = color.HEX("#1976D2")
	colArrow   = color.HEX("#FFEB3B")
	colNote    = color.Tag("notice")
)

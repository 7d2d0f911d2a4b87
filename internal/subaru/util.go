package subaru

import (
	"fmt"

	"lukechampine.com/blake3"
)

// color-compatible printer interface (works with *color.Theme and *color.Style)
type colorPrinter interface {
	Printf(format string, a ...any)
	Println(a ...any)
}

// cPrintf prints with a colored style or falls back to fmt.Printf when nil
func cPrintf(p colorPrinter, format string, a ...any) {
	if p == nil {
		fmt.Printf(format, a...)
		return
	}
	p.Printf(format, a...)
}

// cPrintln prints a line with the given style or falls back to fmt.Println when nil
func cPrintln(p colorPrinter, a ...any) {
	if p == nil {
		fmt.Println(a...)
		return
	}
	p.Println(a...)
}

// debugf prints debug messages when debug output is enabled
func debugf(format string, args ...any) {
	if debugEnabled {
		fmt.Printf(format, args...)
	}
}

// debugEnabled is set once from Settings during startup.
var debugEnabled bool

// hashString returns the BLAKE3 hex digest of s (32-byte output, no key).
// Used to derive stable cache file names from URLs.
func hashString(s string) string {
	h := blake3.New(32, nil)
	h.Write([]byte(s))
	return fmt.Sprintf("%x", h.Sum(nil))
}

package subaru

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"sync"
)

// interactiveMu ensures only one interactive prompt reads stdin at a time.
var interactiveMu sync.Mutex

// askForConfirmation prompts with a [Y/n] question; an empty answer accepts.
func askForConfirmation(p colorPrinter, format string, a ...any) bool {
	return ask(p, true, format, a...)
}

// askToOverride prompts with a [y/N] question; an empty answer declines.
// Used where the safe answer is "no", like conflict overrides.
func askToOverride(p colorPrinter, format string, a ...any) bool {
	return ask(p, false, format, a...)
}

func ask(p colorPrinter, defaultYes bool, format string, a ...any) bool {
	interactiveMu.Lock()
	defer interactiveMu.Unlock()

	reader := bufio.NewReader(os.Stdin)
	mainPrompt := fmt.Sprintf(format, a...)
	suffix := "[Y/n]"
	if !defaultYes {
		suffix = "[y/N]"
	}
	fullPrompt := fmt.Sprintf("%s %s: ", mainPrompt, suffix)

	for {
		// cPrintf handles a nil printer and prints without color.
		cPrintf(p, "%s", fullPrompt)
		response, err := reader.ReadString('\n')
		if err != nil {
			return false // On error (like Ctrl+D), default to "no"
		}
		response = strings.ToLower(strings.TrimSpace(response))

		if response == "" {
			return defaultYes
		}
		if response == "y" || response == "yes" {
			return true
		}
		if response == "n" || response == "no" {
			return false
		}
		cPrintln(colWarn, "Invalid input.")
	}
}

package subaru

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gookit/color"
)

// commandArgs maps each canonical command to its required positional argument
// count and usage line. The count is enforced before dispatch so every
// command body can index its arguments without re-checking.
var commandArgs = map[string]struct {
	count int
	usage string
}{
	"browse":    {0, "subaru browse"},
	"help":      {0, "subaru help"},
	"info":      {1, "subaru info <pkg>"},
	"install":   {1, "subaru install <pkg>"},
	"list":      {0, "subaru list"},
	"publish":   {1, "subaru publish <archive|dir>"},
	"search":    {1, "subaru search <term>"},
	"uninstall": {1, "subaru uninstall <pkg>"},
	"update":    {0, "subaru update"},
	"url":       {1, "subaru url <pkg>"},
	"version":   {0, "subaru version"},
}

var commandAliases = map[string]string{
	"--version": "version",
	"i":         "install",
	"ls":        "list",
	"r":         "uninstall",
	"remove":    "uninstall",
	"s":         "search",
	"u":         "update",
}

// printHelp prints the commands table
func printHelp() {
	colSuccess.Println("Usage: subaru <command> [arguments]")
	fmt.Println()
	color.Info.Println("Available Commands:")

	type cmdInfo struct {
		Cmd  string
		Args string
		Desc string
	}
	cmds := []cmdInfo{
		{"version, --version", "", "Version information"},
		{"browse", "", "Browse the package index interactively"},
		{"info", "<pkg>", "Show a package's description record"},
		{"install, i", "<pkg>", "Install a package and its dependencies"},
		{"list, ls", "", "List installed packages"},
		{"publish", "<archive|dir>", "Upload package archives to the repository bucket"},
		{"search, s", "<term>", "Search the package index"},
		{"uninstall, r", "<pkg>", "Uninstall an installed package"},
		{"update, u", "", "Refresh the package index and report upgrades"},
		{"url", "<pkg>", "Print a package's download URL"},
	}

	// Find the longest usage string so the description column lines up.
	maxLen := 0
	for _, c := range cmds {
		length := len(c.Cmd) + len(c.Args)
		if c.Args != "" {
			length++
		}
		if length > maxLen {
			maxLen = length
		}
	}
	columnWidth := maxLen + 4

	for _, c := range cmds {
		var usageString string
		if c.Args != "" {
			usageString = fmt.Sprintf("  %s %s", c.Cmd, c.Args)
		} else {
			usageString = fmt.Sprintf("  %s", c.Cmd)
		}

		fmt.Print("  ")
		color.Bold.Print(c.Cmd)
		if c.Args != "" {
			fmt.Print(" ")
			color.Cyan.Print(c.Args)
		}

		pad := columnWidth - len(usageString)
		if pad < 1 {
			pad = 1
		}
		fmt.Print(strings.Repeat(" ", pad))

		color.Info.Println(c.Desc)
	}

	fmt.Println()
}

// Main is the CLI entrypoint for cmd/subaru.
func Main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)

	// Two-phase interrupt handling: during a critical section (extraction,
	// index swap) the first Ctrl+C only warns, a second one forces exit.
	go func() {
		for {
			select {
			case sig := <-sigs:
				if isCriticalAtomic.Load() == 1 {
					colArrow.Print("\n-> ")
					colError.Printf("Critical operation in progress (e.g., install). Press Ctrl+C AGAIN to force exit NOW.\n")
					select {
					case <-sigs:
						colArrow.Print("\n-> ")
						colError.Printf("Forced immediate exit.")
						os.Exit(130)
					case <-time.After(5 * time.Second):
						continue
					case <-ctx.Done():
						return
					}
				} else {
					colArrow.Print("\n-> ")
					color.Danger.Printf("Received %v. Cancelling\n", sig)
					cancel()
					time.Sleep(100 * time.Millisecond)
					os.Exit(130)
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	if len(os.Args) < 2 {
		printHelp()
		return
	}

	cmd := os.Args[1]
	if canon, ok := commandAliases[cmd]; ok {
		cmd = canon
	}
	want, ok := commandArgs[cmd]
	if !ok {
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printHelp()
		os.Exit(1)
	}
	args := os.Args[2:]
	if len(args) != want.count {
		fmt.Fprintf(os.Stderr, "Usage: %s\n", want.usage)
		os.Exit(1)
	}

	cfg, err := loadConfig(ConfigFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading %s: %v\n", ConfigFile, err)
		os.Exit(1)
	}
	settings, err := NewSettings(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}

	index := NewIndexStore(settings)
	installed := NewInstalledStore(settings)
	dependents := NewDependentsStore(settings)
	resolver := NewResolver(index, settings)
	fetcher := NewFetcher(settings)

	// Everything below these commands reads the index tree, which only
	// exists once an update has run.
	switch cmd {
	case "browse", "info", "install", "search", "uninstall", "url":
		if !index.Ready() {
			fmt.Fprintln(os.Stderr, "Error: package index is empty, run 'subaru update' first")
			os.Exit(1)
		}
	}

	queries := NewQueries(settings, index, installed, dependents, resolver)

	exitCode := 0
	switch cmd {
	case "help":
		printHelp()

	case "version":
		colNote.Printf("subaru %s (%s) built %s\n", version, arch, buildDate)

	case "list":
		if err := queries.List(); err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			exitCode = 1
		}

	case "search":
		if err := queries.Search(args[0]); err != nil {
			// The "not found" case already printed a friendly message.
			if !errors.Is(err, errPackageNotFound) {
				fmt.Fprintln(os.Stderr, "Error:", err)
			}
			exitCode = 1
		}

	case "info":
		if err := queries.Info(args[0]); err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			exitCode = 1
		}

	case "url":
		if err := queries.URL(args[0]); err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			exitCode = 1
		}

	case "install":
		installer := NewInstaller(settings, index, installed, dependents, resolver, fetcher)
		if err := installer.Run(args[0]); err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			exitCode = 1
		}

	case "uninstall":
		uninstaller := NewUninstaller(settings, installed, dependents, resolver)
		if err := uninstaller.Run(args[0]); err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			exitCode = 1
		}

	case "update":
		updater := NewUpdater(settings, index, installed, fetcher)
		if err := updater.Run(); err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			exitCode = 1
		}

	case "browse":
		if err := runBrowse(settings, index, installed); err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			exitCode = 1
		}

	case "publish":
		if err := runPublish(ctx, settings, args[0]); err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			exitCode = 1
		}
	}

	os.Exit(exitCode)
}

package subaru

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

var (
	browseApp    *tview.Application
	browseIndex  *IndexStore
	browseInst   *InstalledStore
	browsePrefix string
	browseAll    []string // every index entry, lexicographic
	browseShown  []string // entries currently in the list, same order
	browseList   *tview.List
	browseDetail *tview.TextView
	browseFilter *tview.InputField
	browseFooter *tview.TextView
)

// runBrowse opens an interactive view of the package index: a filterable
// list on the left, the selected package's description record on the right.
func runBrowse(s *Settings, ix *IndexStore, inst *InstalledStore) error {
	entries, err := ix.ListAll()
	if err != nil {
		return err
	}

	browseIndex = ix
	browseInst = inst
	browsePrefix = s.Prefix
	browseAll = entries

	browseApp = tview.NewApplication()

	browseFilter = tview.NewInputField().
		SetLabel(" Filter: ").
		SetFieldBackgroundColor(tcell.ColorDefault)
	browseFilter.SetBorder(true)
	browseFilter.SetChangedFunc(func(text string) {
		refreshBrowseList(text)
	})
	browseFilter.SetDoneFunc(func(key tcell.Key) {
		browseApp.SetFocus(browseList)
	})

	browseList = tview.NewList().
		ShowSecondaryText(false).
		SetChangedFunc(func(index int, mainText, secondaryText string, shortcut rune) {
			if index >= 0 && index < len(browseShown) {
				showBrowseDetail(browseShown[index])
			}
		})
	browseList.SetBorder(true)

	browseDetail = tview.NewTextView().
		SetDynamicColors(true).
		SetWrap(true)
	browseDetail.SetBorder(true)
	browseDetail.SetTitle(" Package ")

	browseFooter = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignLeft)
	footerSegments := []string{
		"Press 'q' or Ctrl+Q to quit",
		"'/' to filter",
		"↑ ↓ to browse",
	}
	browseFooter.SetText(fmt.Sprintf("[gray]%s[white]", strings.Join(footerSegments, " | ")))

	browseList.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyCtrlQ, tcell.KeyEsc:
			browseApp.Stop()
			return nil
		case tcell.KeyRune:
			switch event.Rune() {
			case 'q':
				browseApp.Stop()
				return nil
			case '/':
				browseApp.SetFocus(browseFilter)
				return nil
			}
		}
		return event
	})

	columns := tview.NewFlex().
		AddItem(browseList, 0, 1, true).
		AddItem(browseDetail, 0, 2, false)

	flex := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(browseFilter, 3, 0, false).
		AddItem(columns, 0, 1, true).
		AddItem(browseFooter, 1, 0, false)

	refreshBrowseList("")

	browseApp.SetRoot(flex, true).SetFocus(browseList)
	return browseApp.Run()
}

// refreshBrowseList rebuilds the list with entries containing term.
func refreshBrowseList(term string) {
	browseList.Clear()
	browseShown = browseShown[:0]

	for _, full := range browseAll {
		if term != "" && !strings.Contains(full, term) {
			continue
		}
		browseShown = append(browseShown, full)

		label := full
		if parsed, err := parseFullName(full); err == nil {
			label = fmt.Sprintf("%s %s-%s",
				shortName(parsed.Name, browsePrefix), parsed.Version, parsed.Release)
		}
		browseList.AddItem(label, "", 0, nil)
	}

	browseList.SetTitle(fmt.Sprintf(" Packages (%d) ", len(browseShown)))
	if len(browseShown) > 0 {
		showBrowseDetail(browseShown[0])
	} else {
		browseDetail.SetText("[gray]No packages match the filter.[white]")
	}
}

// showBrowseDetail renders one package's description record in the preview.
func showBrowseDetail(full string) {
	rec, err := browseIndex.Lookup(full)
	if err != nil {
		browseDetail.SetText(fmt.Sprintf("[red]%v[white]", err))
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, "[yellow]%s[white]\n\n", rec.FullName)
	fmt.Fprintf(&b, "[gray]Version:[white]     %s-%s\n", rec.Version, rec.Release)
	if rec.Description != "" {
		fmt.Fprintf(&b, "[gray]Description:[white] %s\n", rec.Description)
	}
	if rec.URL != "" {
		fmt.Fprintf(&b, "[gray]URL:[white]         %s\n", rec.URL)
	}
	if len(rec.Licenses) > 0 {
		fmt.Fprintf(&b, "[gray]Licenses:[white]    %s\n", strings.Join(rec.Licenses, ", "))
	}
	if rec.ArchiveFilename != "" {
		fmt.Fprintf(&b, "[gray]Archive:[white]     %s\n", rec.ArchiveFilename)
	}

	fmt.Fprintf(&b, "\n[gray]Depends:[white]\n")
	if len(rec.Depends) == 0 {
		b.WriteString("  (none)\n")
	}
	for _, dep := range rec.Depends {
		fmt.Fprintf(&b, "  %s\n", dep)
	}
	if len(rec.Conflicts) > 0 {
		fmt.Fprintf(&b, "\n[gray]Conflicts:[white]\n")
		for _, c := range rec.Conflicts {
			fmt.Fprintf(&b, "  %s\n", c)
		}
	}

	if browseInst.IsInstalled(full) {
		b.WriteString("\n[green]Installed[white]\n")
	}

	browseDetail.SetText(b.String())
	browseDetail.ScrollToBeginning()
}

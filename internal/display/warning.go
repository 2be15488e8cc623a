// Package display formats user-facing notices for the command line.
package display

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// Warning represents a user-facing warning message
type Warning struct {
	Title      string   // Main warning title
	Message    string   // Detailed explanation (optional)
	Files      []string // Related files (optional)
	Suggestion string   // Action to take (optional)
}

// String renders the warning without color.
func (w Warning) String() string {
	var b strings.Builder

	b.WriteString("Warning: ")
	b.WriteString(w.Title)
	b.WriteString("\n")

	if w.Message != "" {
		b.WriteString("    " + w.Message + "\n")
	}

	if len(w.Files) > 0 {
		if len(w.Files) == 1 {
			b.WriteString("    Affected file:\n")
		} else {
			b.WriteString("    Affected files:\n")
		}
		for i, file := range w.Files {
			fmt.Fprintf(&b, "      %d. %s\n", i+1, file)
		}
	}

	if w.Suggestion != "" {
		b.WriteString("    Suggestion:\n")
		b.WriteString("    " + w.Suggestion + "\n")
	}

	return b.String()
}

// Display writes the warning to out in yellow. Color follows color.NoColor.
func (w Warning) Display(out io.Writer) {
	color.New(color.FgYellow).Fprint(out, w.String())
}

// IgnoredCatalogFiles builds the warning shown when a catalog directory holds
// files that are skipped for lacking a numeric prefix. It returns false when
// files is empty.
func IgnoredCatalogFiles(dir string, files []string) (Warning, bool) {
	if len(files) == 0 {
		return Warning{}, false
	}
	return Warning{
		Title:      fmt.Sprintf("%d file(s) in %s are not part of the catalog", len(files), dir),
		Message:    "Only numbered parts such as 01-governance.yaml are loaded, in numeric order",
		Files:      files,
		Suggestion: "Rename the files with a numeric prefix to include them, or move them out of the directory",
	}, true
}

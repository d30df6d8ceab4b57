package ui

import "strings"

// FormatError renders msg as an "Error:" line followed by an optional list
// of commands to try.
func FormatError(msg string, suggestions ...string) string {
	lines := []string{StyleBoldRed.Render("Error:") + " " + msg}
	if len(suggestions) > 0 {
		lines = append(lines, "", StyleHint.Render("  Try:"))
		for _, s := range suggestions {
			lines = append(lines, "    "+StyleHint.Render(SymbolArrow)+" "+s)
		}
	}
	return strings.Join(lines, "\n") + "\n"
}

// FormatWarning renders a one-line, non-fatal warning.
func FormatWarning(msg string) string {
	return StyleWarning.Render(SymbolWarning) + " " + msg + "\n"
}

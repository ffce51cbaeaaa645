package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

var bannerLines = []struct {
	text  string
	color string
}{
	{`                  _  __ _               `, "#34d399"},
	{`   ___ __ _ _ __ __| |/ _| | _____      __`, "#2dd4bf"},
	{`  / __/ _' | '__/ _' | |_| |/ _ \ \ /\ / /`, "#22d3ee"},
	{` | (_| (_| | | | (_| |  _| | (_) \ V  V / `, "#38bdf8"},
	{`  \___\__,_|_|  \__,_|_| |_|\___/ \_/\_/  `, "#60a5fa"},
}

// PrintBanner writes the cardflow banner, colored when the terminal supports it.
func PrintBanner(w io.Writer) {
	p := termenv.ColorProfile()
	fmt.Fprintln(w)
	for _, l := range bannerLines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w)
}

// Severity colors a label for terminal output: red for errors, yellow for warnings.
func Severity(label string) string {
	p := termenv.ColorProfile()
	s := termenv.String(label)
	switch label {
	case "error":
		return s.Foreground(p.Color("#f87171")).Bold().String()
	case "warning":
		return s.Foreground(p.Color("#fbbf24")).String()
	default:
		return s.Foreground(p.Color("#94a3b8")).String()
	}
}

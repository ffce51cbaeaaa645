package script

import (
	"fmt"
	"strings"
)

type writer struct {
	strings.Builder
}

func (w *writer) line(s string) {
	w.WriteString(s)
	w.WriteByte('\n')
}

func (w *writer) linef(format string, args ...any) {
	w.line(fmt.Sprintf(format, args...))
}

func (w *writer) blank() {
	w.WriteByte('\n')
}

// oneLine folds multi-line text so it stays inside a list item.
func oneLine(s string) string {
	return strings.Join(strings.Fields(strings.ReplaceAll(s, "\r\n", "\n")), " ")
}

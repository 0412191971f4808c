package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"
)

var (
	brand  = color.New(color.FgHiMagenta, color.Bold)
	subtle = color.New(color.FgHiBlack)
	good   = color.New(color.FgGreen)
	bad    = color.New(color.FgRed)
	info   = color.New(color.FgCyan)
)

// table prints rows aligned under headers.
func table(w io.Writer, headers []string, rows [][]string) {
	if len(rows) == 0 {
		return
	}
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) {
				widths[i] = max(widths[i], runewidth.StringWidth(cell))
			}
		}
	}

	line := func(cells []string) string {
		var b strings.Builder
		b.WriteString("  ")
		for i, c := range cells {
			if i >= len(widths) {
				break
			}
			b.WriteString(runewidth.FillRight(c, widths[i]))
			b.WriteString("  ")
		}
		return strings.TrimRight(b.String(), " ")
	}
	seps := make([]string, len(widths))
	for i, n := range widths {
		seps[i] = strings.Repeat("─", n)
	}

	fmt.Fprintln(w, subtle.Sprint(line(headers)))
	fmt.Fprintln(w, subtle.Sprint(line(seps)))
	for _, row := range rows {
		fmt.Fprintln(w, line(row))
	}
}

func statusIcon(ok bool) string {
	if ok {
		return good.Sprint("✓")
	}
	return bad.Sprint("✗")
}

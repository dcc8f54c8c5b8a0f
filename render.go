package main

import (
	"fmt"
	"github.com/fatih/color"
	"strconv"
	"strings"
)

// renderer turns the joined rows into an aligned terminal table, one padded
// cell per column, numeric cells colored apart from text ones. Only the CLI
// pretty mode uses it, the plain output path stays byte exact.
type renderer struct {
	delimiter string
	title     *color.Color
	num       *color.Color
}

func newRenderer(delimiter string) *renderer {
	return &renderer{
		delimiter: delimiter,
		title:     color.New(color.FgYellow, color.Bold),
		num:       color.New(color.FgCyan),
	}
}

func isNumber(x string) bool {
	_, err := strconv.ParseFloat(x, 64)
	return err == nil
}

func (self *renderer) widths(table [][]string) []int {
	width := []int{}
	for _, cols := range table {
		for i, c := range cols {
			if i >= len(width) {
				width = append(width, 0)
			}
			if len(c) > width[i] {
				width[i] = len(c)
			}
		}
	}

	// the title cells are $0, $1, ... and a narrow column must still fit its
	// own title
	for i := range width {
		if n := len(fmt.Sprintf("$%d", i)); n > width[i] {
			width[i] = n
		}
	}
	return width
}

func (self *renderer) render(rows []string) string {
	table := [][]string{}
	for _, row := range rows {
		table = append(table, strings.Split(row, self.delimiter))
	}
	width := self.widths(table)

	titleBar := strings.Builder{}
	for i, w := range width {
		titleBar.WriteString(
			fmt.Sprintf(" %-*s", w, fmt.Sprintf("$%d", i)),
		)
	}
	del := strings.Repeat("-", len(titleBar.String())+1)

	buf := strings.Builder{}
	buf.WriteString(del)
	buf.WriteString("\n")
	buf.WriteString(self.title.Sprint(titleBar.String()))
	buf.WriteString("\n")
	buf.WriteString(del)
	buf.WriteString("\n")

	for _, cols := range table {
		for i, c := range cols {
			cell := fmt.Sprintf("%-*s", width[i], c)
			if isNumber(c) {
				cell = self.num.Sprint(cell)
			}
			buf.WriteString(" ")
			buf.WriteString(cell)
		}
		buf.WriteString("\n")
	}

	buf.WriteString(del)
	buf.WriteString("\n")
	return buf.String()
}

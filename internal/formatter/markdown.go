// Package formatter renders datasets and map entities as aligned Markdown tables.
package formatter

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// FormatMarkdown aligns every table in a Markdown document by display width.
// Text outside tables is returned unchanged.
func FormatMarkdown(content string) string {
	lines := strings.Split(content, "\n")

	var formattedLines []string

	var tableBuffer []string

	for i := 0; i < len(lines); i++ {
		line := lines[i]
		trimmedLine := strings.TrimSpace(line)

		// A table row starts and ends with a pipe.
		if strings.HasPrefix(trimmedLine, "|") && strings.HasSuffix(trimmedLine, "|") {
			tableBuffer = append(tableBuffer, line)

			continue
		}

		if len(tableBuffer) > 0 {
			formattedLines = append(formattedLines, processTable(tableBuffer)...)
			tableBuffer = nil
		}

		formattedLines = append(formattedLines, line)
	}

	if len(tableBuffer) > 0 {
		formattedLines = append(formattedLines, processTable(tableBuffer)...)
	}

	return strings.Join(formattedLines, "\n")
}

func processTable(rows []string) []string {
	// Header and separator are both required.
	if len(rows) < 2 {
		return rows
	}

	var table [][]string

	for _, row := range rows {
		parts := splitRow(row)

		if len(parts) > 0 && strings.TrimSpace(parts[0]) == "" {
			parts = parts[1:]
		}

		if len(parts) > 0 && strings.TrimSpace(parts[len(parts)-1]) == "" {
			parts = parts[:len(parts)-1]
		}

		var cells []string
		for _, p := range parts {
			cells = append(cells, strings.TrimSpace(p))
		}

		table = append(table, cells)
	}

	colCount := len(table[0])
	for _, row := range table {
		if len(row) > colCount {
			colCount = len(row)
		}
	}

	separatorRowIdx := -1

	if len(table) > 1 {
		isSep := true
		for _, cell := range table[1] {
			trim := strings.TrimSpace(cell)
			trim = strings.ReplaceAll(trim, "-", "")
			trim = strings.ReplaceAll(trim, ":", "")
			trim = strings.ReplaceAll(trim, " ", "")

			if trim != "" {
				isSep = false
				break
			}
		}

		if isSep {
			separatorRowIdx = 1
		}
	}

	colWidths := make([]int, colCount)

	for rIdx, row := range table {
		if rIdx == separatorRowIdx {
			continue
		}

		for i := 0; i < len(row) && i < colCount; i++ {
			width := runewidth.StringWidth(row[i])
			if width > colWidths[i] {
				colWidths[i] = width
			}
		}
	}

	for i := range colWidths {
		if colWidths[i] < 3 {
			colWidths[i] = 3
		}
	}

	var result []string

	for i, row := range table {
		var sb strings.Builder

		sb.WriteString("|")

		isSeparator := (i == separatorRowIdx)

		for j := 0; j < colCount; j++ {
			sb.WriteString(" ")

			content := ""
			if j < len(row) {
				content = row[j]
			}

			if isSeparator {
				sb.WriteString(strings.Repeat("-", colWidths[j]))
			} else {
				sb.WriteString(content)
				contentWidth := runewidth.StringWidth(content)

				padding := colWidths[j] - contentWidth
				if padding > 0 {
					sb.WriteString(strings.Repeat(" ", padding))
				}
			}

			sb.WriteString(" |")
		}

		result = append(result, sb.String())
	}

	return result
}

// splitRow splits a table row on unescaped pipes.
func splitRow(row string) []string {
	var (
		parts []string
		cur   strings.Builder
	)

	escaped := false

	for _, r := range row {
		switch {
		case escaped:
			cur.WriteRune(r)

			escaped = false
		case r == '\\':
			cur.WriteRune(r)

			escaped = true
		case r == '|':
			parts = append(parts, cur.String())
			cur.Reset()
		default:
			cur.WriteRune(r)
		}
	}

	return append(parts, cur.String())
}

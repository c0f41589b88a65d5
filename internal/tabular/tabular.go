// Package tabular turns raw delimited text (CSV or TSV, auto-detected)
// into rows of trimmed string fields. It never reports errors: malformed
// input degrades into mis-split rows that the decoder rejects with a
// row-level message.
package tabular

import "strings"

// Dialect identifies the field-delimiting convention of an input.
type Dialect int

const (
	DialectCSV Dialect = iota
	DialectTSV
)

func (d Dialect) String() string {
	if d == DialectTSV {
		return "tsv"
	}
	return "csv"
}

// DetectDialect inspects the first physical line and compares comma vs
// tab counts; more commas means CSV, otherwise TSV. This is a heuristic:
// a comma-heavy description field in a TSV file can misclassify the
// input. Callers that know the format can call ParseCSV/ParseTSV
// directly.
func DetectDialect(text string) Dialect {
	line := text
	if idx := strings.IndexByte(line, '\n'); idx >= 0 {
		line = line[:idx]
	}
	if strings.Count(line, ",") > strings.Count(line, "\t") {
		return DialectCSV
	}
	return DialectTSV
}

// Parse auto-detects the dialect and returns the parsed rows. The first
// row is the header; stripping it is the caller's job.
func Parse(text string) [][]string {
	if DetectDialect(text) == DialectCSV {
		return ParseCSV(text)
	}
	return ParseTSV(text)
}

// ParseCSV parses comma-delimited text with RFC4180-style quoting: a
// double-quoted field may contain commas and embedded newlines, and an
// internal quote is written as two consecutive quotes. Quote state
// persists across physical lines until closed; a trailing row left open
// at end of input is still emitted. Rows whose every field is empty
// after trimming are dropped.
func ParseCSV(text string) [][]string {
	var rows [][]string
	var row []string
	var field strings.Builder
	inQuotes := false

	endField := func() {
		row = append(row, strings.TrimSpace(field.String()))
		field.Reset()
	}
	endRow := func() {
		endField()
		if !allEmpty(row) {
			rows = append(rows, row)
		}
		row = nil
	}

	for i := 0; i < len(text); i++ {
		c := text[i]
		if inQuotes {
			if c == '"' {
				if i+1 < len(text) && text[i+1] == '"' {
					field.WriteByte('"')
					i++
					continue
				}
				inQuotes = false
				continue
			}
			field.WriteByte(c)
			continue
		}
		switch c {
		case '"':
			inQuotes = true
		case ',':
			endField()
		case '\r':
			// swallowed; the following '\n' terminates the row
		case '\n':
			endRow()
		default:
			field.WriteByte(c)
		}
	}

	// Trailing row without a final newline (including an unterminated
	// quoted field) is still emitted.
	if field.Len() > 0 || len(row) > 0 {
		endRow()
	}
	return rows
}

// ParseTSV parses tab-delimited text with a naive per-line split: no
// quoting, no multi-line fields. All-empty rows are dropped.
func ParseTSV(text string) [][]string {
	var rows [][]string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSuffix(line, "\r")
		fields := strings.Split(line, "\t")
		for i, f := range fields {
			fields[i] = strings.TrimSpace(f)
		}
		if allEmpty(fields) {
			continue
		}
		rows = append(rows, fields)
	}
	return rows
}

func allEmpty(fields []string) bool {
	for _, f := range fields {
		if f != "" {
			return false
		}
	}
	return true
}

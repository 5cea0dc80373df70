package services

import (
	"regexp"
	"strings"

	"presale-tracker/models"
)

var (
	// zeroWidthRegexp matches zero-width spaces/joiners and stray BOMs
	zeroWidthRegexp = regexp.MustCompile(`[\x{200B}-\x{200D}\x{FEFF}]`)
	// lineBreakRegexp splits on CRLF or LF
	lineBreakRegexp = regexp.MustCompile(`\r\n|\n`)
)

// ParseCSV tokenizes decoded feed text into header-keyed records.
//
// This is deliberately not an RFC 4180 reader: a quote character only toggles
// the "inside quotes" state, commas split fields only outside quotes, and a
// trimmed field wrapped in quotes is unwrapped with "" collapsed to ". The
// feed's own quirks depend on exactly this behaviour.
//
// Text with fewer than two lines yields no records.
func ParseCSV(text string) []models.RawRecord {
	text = strings.TrimPrefix(text, "\uFEFF")
	text = zeroWidthRegexp.ReplaceAllString(text, "")

	lines := lineBreakRegexp.Split(text, -1)
	if len(lines) < 2 {
		return nil
	}

	headers := parseHeader(lines[0])
	records := make([]models.RawRecord, 0, len(lines)-1)

	for _, raw := range lines[1:] {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		values := splitLine(line)
		fields := make([]models.Field, len(headers))
		for i, h := range headers {
			var val string
			if i < len(values) {
				val = unquote(strings.TrimSpace(values[i]))
			}
			fields[i] = models.Field{Header: h, Value: val}
		}
		records = append(records, models.RawRecord{Fields: fields})
	}
	return records
}

func parseHeader(line string) []string {
	parts := strings.Split(line, ",")
	headers := make([]string, len(parts))
	for i, p := range parts {
		h := strings.TrimSpace(p)
		h = strings.TrimPrefix(h, `"`)
		h = strings.TrimSuffix(h, `"`)
		headers[i] = zeroWidthRegexp.ReplaceAllString(h, "")
	}
	return headers
}

// splitLine walks the line rune by rune, splitting on commas outside quotes.
// Quote characters themselves are consumed by the toggle.
func splitLine(line string) []string {
	var (
		fields      []string
		current     strings.Builder
		insideQuote bool
	)
	for _, ch := range line {
		switch {
		case ch == '"':
			insideQuote = !insideQuote
		case ch == ',' && !insideQuote:
			fields = append(fields, current.String())
			current.Reset()
		default:
			current.WriteRune(ch)
		}
	}
	return append(fields, current.String())
}

func unquote(val string) string {
	if !strings.HasPrefix(val, `"`) || !strings.HasSuffix(val, `"`) {
		return val
	}
	if len(val) < 2 {
		return ""
	}
	return strings.ReplaceAll(val[1:len(val)-1], `""`, `"`)
}

package ledgerio

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/MarkoPoloResearchLab/bookledger/pkg/book"
)

const (
	minimumImportColumns = 4
	utf8ByteOrderMark    = "\ufeff"
	fieldSeparator       = ","
	recordSeparator      = "\n"
)

// ParseCSV reads ledger rows of the form name, exposure A, exposure B, share %.
// The first record is a header. Rows with fewer than four columns or a blank
// name are skipped. Numbers are read from the leading numeric part of a cell,
// so "100abc" is 100, and cells without one become 0.
func ParseCSV(reader io.Reader) ([]book.ImportRow, error) {
	csvReader := csv.NewReader(stripByteOrderMark(reader))
	csvReader.FieldsPerRecord = -1
	csvReader.LazyQuotes = true

	var rows []book.ImportRow
	headerSeen := false
	for {
		record, err := csvReader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse csv: %w", err)
		}
		if !headerSeen {
			headerSeen = true
			continue
		}
		if len(record) < minimumImportColumns {
			continue
		}
		name := strings.TrimSpace(record[0])
		if name == "" {
			continue
		}
		rows = append(rows, book.ImportRow{
			Name:         name,
			ExposureA:    parseAmount(record[1]),
			ExposureB:    parseAmount(record[2]),
			SharePercent: parseAmount(record[3]),
		})
	}
	return rows, nil
}

var numericPrefix = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)

// parseAmount strips thousands separators and reads the leading number,
// falling back to 0 when there is none or it is not finite.
func parseAmount(raw string) float64 {
	cleaned := strings.TrimSpace(strings.ReplaceAll(raw, ",", ""))
	prefix := numericPrefix.FindString(cleaned)
	if prefix == "" {
		return 0
	}
	value, err := strconv.ParseFloat(prefix, 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return 0
	}
	return value
}

func stripByteOrderMark(reader io.Reader) io.Reader {
	buffered := bufio.NewReader(reader)
	prefix, err := buffered.Peek(len(utf8ByteOrderMark))
	if err == nil && string(prefix) == utf8ByteOrderMark {
		_, _ = buffered.Discard(len(utf8ByteOrderMark))
	}
	return buffered
}

// WriteCSV writes the entries of a match with share columns rounded to two places.
// The excel variant prefixes a UTF-8 byte order mark.
func WriteCSV(writer io.Writer, match book.Match, entries []book.Entry, excel bool) error {
	var builder strings.Builder
	if excel {
		builder.WriteString(utf8ByteOrderMark)
	}
	for index, record := range exportRecords(match, entries) {
		if index > 0 {
			builder.WriteString(recordSeparator)
		}
		for column, field := range record {
			if column > 0 {
				builder.WriteString(fieldSeparator)
			}
			builder.WriteString(quoteField(field))
		}
	}
	_, err := io.WriteString(writer, builder.String())
	return err
}

func exportHeader(match book.Match) []string {
	return []string{
		"Player",
		match.TeamA + " Exposure",
		match.TeamB + " Exposure",
		"Share %",
		"My Share on " + match.TeamA,
		"My Share on " + match.TeamB,
	}
}

func exportRecords(match book.Match, entries []book.Entry) [][]string {
	records := make([][]string, 0, len(entries)+1)
	records = append(records, exportHeader(match))
	for _, entry := range entries {
		totals := book.CalculateTotals([]book.Entry{entry})
		records = append(records, []string{
			entry.CustomerName,
			formatNumber(entry.ExposureA),
			formatNumber(entry.ExposureB),
			formatNumber(entry.SharePercent),
			formatNumber(book.Round2(totals.TotalAShare)),
			formatNumber(book.Round2(totals.TotalBShare)),
		})
	}
	return records
}

func quoteField(field string) string {
	if !strings.Contains(field, fieldSeparator) {
		return field
	}
	return `"` + strings.ReplaceAll(field, `"`, `""`) + `"`
}

func formatNumber(value float64) string {
	if value == 0 {
		return "0"
	}
	return strconv.FormatFloat(value, 'f', -1, 64)
}

package ledgerio

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/MarkoPoloResearchLab/bookledger/pkg/book"
)

// Format names an export representation of a match ledger.
type Format string

const (
	FormatCSV   Format = "csv"
	FormatExcel Format = "excel"
	FormatXLSX  Format = "xlsx"
)

// ErrUnknownFormat is returned for unsupported export formats.
var ErrUnknownFormat = errors.New("unknown export format")

// ParseFormat validates a format name. An empty name selects CSV.
func ParseFormat(raw string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(raw))) {
	case "", FormatCSV:
		return FormatCSV, nil
	case FormatExcel, "xls":
		return FormatExcel, nil
	case FormatXLSX:
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, raw)
	}
}

// ContentType returns the MIME type served for the format.
func (format Format) ContentType() string {
	switch format {
	case FormatExcel:
		return "application/vnd.ms-excel; charset=utf-8"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "text/csv; charset=utf-8"
	}
}

// FileName returns a download name for the match export.
func (format Format) FileName(match book.Match) string {
	base := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		case r == ' ':
			return '_'
		default:
			return -1
		}
	}, match.Name)
	if base == "" {
		base = "ledger"
	}
	switch format {
	case FormatExcel:
		return base + ".xls"
	case FormatXLSX:
		return base + ".xlsx"
	default:
		return base + ".csv"
	}
}

// Export writes the entries of a match in the requested format.
func Export(writer io.Writer, format Format, match book.Match, entries []book.Entry) error {
	switch format {
	case FormatCSV:
		return WriteCSV(writer, match, entries, false)
	case FormatExcel:
		return WriteCSV(writer, match, entries, true)
	case FormatXLSX:
		content, err := BuildLedgerXLSX(book.SummarizeMatch(match, entries, nil), entries)
		if err != nil {
			return err
		}
		_, err = writer.Write(content)
		return err
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

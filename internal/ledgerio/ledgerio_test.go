package ledgerio

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/MarkoPoloResearchLab/bookledger/pkg/book"
	"github.com/xuri/excelize/v2"
)

const errorMismatchMessage = "expected %v, got %v"

func fixtureMatch(test *testing.T) book.Match {
	test.Helper()
	matchID, err := book.NewMatchID("match-1")
	if err != nil {
		test.Fatalf("match id: %v", err)
	}
	return book.Match{ID: matchID, Name: "World Cup Final", TeamA: "India", TeamB: "Australia", Status: book.MatchStatusLive}
}

func fixtureEntries(test *testing.T, match book.Match) []book.Entry {
	test.Helper()
	newEntryID := func(raw string) book.EntryID {
		entryID, err := book.NewEntryID(raw)
		if err != nil {
			test.Fatalf("entry id: %v", err)
		}
		return entryID
	}
	newCustomerID := func(raw string) book.CustomerID {
		customerID, err := book.NewCustomerID(raw)
		if err != nil {
			test.Fatalf("customer id: %v", err)
		}
		return customerID
	}
	return []book.Entry{
		{ID: newEntryID("e-1"), CustomerID: newCustomerID("c-1"), CustomerName: "Ravi, Jr", MatchID: match.ID, ExposureA: -9500, ExposureB: 10000, SharePercent: 20},
		{ID: newEntryID("e-2"), CustomerID: newCustomerID("c-2"), CustomerName: "Meera", MatchID: match.ID, ExposureA: 5000, ExposureB: -4000, SharePercent: 50},
		{ID: newEntryID("e-3"), CustomerID: newCustomerID("c-3"), CustomerName: "Kiran", MatchID: match.ID, ExposureA: 100, ExposureB: -100.5, SharePercent: 33.333},
	}
}

func TestParseCSV(test *testing.T) {
	test.Parallel()
	input := strings.Join([]string{
		"Player,A Exposure,B Exposure,Share %",
		`"Ravi, Jr","-9,500",10000,20`,
		"",
		"Meera,5000,-4000,50",
		"short,1,2",
		",1,2,3",
		"Kiran,abc,,12.5",
		"Arjun,1e999,NaN, 7 ",
		"Leela,100abc,-25.5kg,.5%",
		"Dev,1e,2.5e1x,+3",
	}, "\r\n")

	rows, err := ParseCSV(strings.NewReader(input))
	if err != nil {
		test.Fatalf("parse: %v", err)
	}
	expected := []book.ImportRow{
		{Name: "Ravi, Jr", ExposureA: -9500, ExposureB: 10000, SharePercent: 20},
		{Name: "Meera", ExposureA: 5000, ExposureB: -4000, SharePercent: 50},
		{Name: "Kiran", ExposureA: 0, ExposureB: 0, SharePercent: 12.5},
		{Name: "Arjun", ExposureA: 0, ExposureB: 0, SharePercent: 7},
		{Name: "Leela", ExposureA: 100, ExposureB: -25.5, SharePercent: 0.5},
		{Name: "Dev", ExposureA: 1, ExposureB: 25, SharePercent: 3},
	}
	if len(rows) != len(expected) {
		test.Fatalf(errorMismatchMessage, expected, rows)
	}
	for index := range expected {
		if rows[index] != expected[index] {
			test.Fatalf("row %d: "+errorMismatchMessage, index, expected[index], rows[index])
		}
	}
}

func TestParseCSVHeaderOnlyAndByteOrderMark(test *testing.T) {
	test.Parallel()
	rows, err := ParseCSV(strings.NewReader("Player,A,B,Share\n"))
	if err != nil || len(rows) != 0 {
		test.Fatalf("expected no rows, got %+v (%v)", rows, err)
	}
	rows, err = ParseCSV(strings.NewReader("\ufeffPlayer,A,B,Share\nRavi,1,2,3"))
	if err != nil || len(rows) != 1 || rows[0].Name != "Ravi" || rows[0].SharePercent != 3 {
		test.Fatalf("unexpected rows: %+v (%v)", rows, err)
	}
}

func TestWriteCSV(test *testing.T) {
	test.Parallel()
	match := fixtureMatch(test)
	entries := fixtureEntries(test, match)
	expected := strings.Join([]string{
		"Player,India Exposure,Australia Exposure,Share %,My Share on India,My Share on Australia",
		`"Ravi, Jr",-9500,10000,20,-1900,2000`,
		"Meera,5000,-4000,50,2500,-2000",
		"Kiran,100,-100.5,33.333,33.33,-33.5",
	}, "\n")

	var buffer bytes.Buffer
	if err := WriteCSV(&buffer, match, entries, false); err != nil {
		test.Fatalf("write: %v", err)
	}
	if buffer.String() != expected {
		test.Fatalf(errorMismatchMessage, expected, buffer.String())
	}

	buffer.Reset()
	if err := Export(&buffer, FormatExcel, match, entries); err != nil {
		test.Fatalf("export excel: %v", err)
	}
	if buffer.String() != "\ufeff"+expected {
		test.Fatalf("excel export missing byte order mark: %q", buffer.String()[:8])
	}
}

func TestExportRoundTripsThroughParse(test *testing.T) {
	test.Parallel()
	match := fixtureMatch(test)
	entries := fixtureEntries(test, match)
	var buffer bytes.Buffer
	if err := Export(&buffer, FormatExcel, match, entries); err != nil {
		test.Fatalf("export: %v", err)
	}
	rows, err := ParseCSV(&buffer)
	if err != nil {
		test.Fatalf("parse: %v", err)
	}
	if len(rows) != len(entries) {
		test.Fatalf(errorMismatchMessage, len(entries), len(rows))
	}
	for index, entry := range entries {
		if rows[index].Name != entry.CustomerName || rows[index].ExposureB != entry.ExposureB || rows[index].SharePercent != entry.SharePercent {
			test.Fatalf("row %d: unexpected %+v", index, rows[index])
		}
	}
}

func TestBuildLedgerXLSX(test *testing.T) {
	test.Parallel()
	match := fixtureMatch(test)
	entries := fixtureEntries(test, match)
	var buffer bytes.Buffer
	if err := Export(&buffer, FormatXLSX, match, entries); err != nil {
		test.Fatalf("export xlsx: %v", err)
	}

	workbook, err := excelize.OpenReader(bytes.NewReader(buffer.Bytes()))
	if err != nil {
		test.Fatalf("open workbook: %v", err)
	}
	defer workbook.Close()

	testCases := []struct {
		sheet    string
		cell     string
		expected string
	}{
		{sheet: entriesSheet, cell: "A1", expected: "Player"},
		{sheet: entriesSheet, cell: "B1", expected: "India Exposure"},
		{sheet: entriesSheet, cell: "A2", expected: "Ravi, Jr"},
		{sheet: entriesSheet, cell: "E2", expected: "-1900"},
		{sheet: entriesSheet, cell: "F3", expected: "-2000"},
		{sheet: summarySheet, cell: "B1", expected: "World Cup Final"},
		{sheet: summarySheet, cell: "B2", expected: "India vs Australia"},
	}
	for _, testCase := range testCases {
		value, err := workbook.GetCellValue(testCase.sheet, testCase.cell)
		if err != nil {
			test.Fatalf("%s!%s: %v", testCase.sheet, testCase.cell, err)
		}
		if value != testCase.expected {
			test.Fatalf("%s!%s: "+errorMismatchMessage, testCase.sheet, testCase.cell, testCase.expected, value)
		}
	}
}

func TestBuildStatementPDF(test *testing.T) {
	test.Parallel()
	match := fixtureMatch(test)
	entries := fixtureEntries(test, match)
	settlement := book.ComputeSettlement(match.ID, book.SideA, entries, time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC))

	content, err := BuildStatementPDF(match, settlement, entries[:1])
	if err != nil {
		test.Fatalf("build pdf: %v", err)
	}
	if !bytes.HasPrefix(content, []byte("%PDF")) {
		test.Fatalf("expected pdf header, got %q", content[:8])
	}
}

func TestParseFormat(test *testing.T) {
	test.Parallel()
	testCases := []struct {
		raw      string
		expected Format
	}{
		{raw: "", expected: FormatCSV},
		{raw: "CSV", expected: FormatCSV},
		{raw: "xls", expected: FormatExcel},
		{raw: "excel", expected: FormatExcel},
		{raw: " xlsx ", expected: FormatXLSX},
	}
	for _, testCase := range testCases {
		format, err := ParseFormat(testCase.raw)
		if err != nil || format != testCase.expected {
			test.Fatalf("%q: "+errorMismatchMessage, testCase.raw, testCase.expected, format)
		}
	}
	if _, err := ParseFormat("ods"); !errors.Is(err, ErrUnknownFormat) {
		test.Fatalf(errorMismatchMessage, ErrUnknownFormat, err)
	}
	match := fixtureMatch(test)
	if name := FormatExcel.FileName(match); name != "World_Cup_Final.xls" {
		test.Fatalf(errorMismatchMessage, "World_Cup_Final.xls", name)
	}
}

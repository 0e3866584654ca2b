package ledgerio

import (
	"bytes"
	"fmt"

	"github.com/MarkoPoloResearchLab/bookledger/pkg/book"
	"github.com/xuri/excelize/v2"
)

const (
	entriesSheet = "entries"
	summarySheet = "summary"
	defaultSheet = "Sheet1"
)

// BuildLedgerXLSX renders the entries and the calculated summary of a match as a workbook.
func BuildLedgerXLSX(summary book.MatchSummary, entries []book.Entry) ([]byte, error) {
	file := excelize.NewFile()
	defer file.Close()

	if err := file.SetSheetName(defaultSheet, entriesSheet); err != nil {
		return nil, err
	}
	if _, err := file.NewSheet(summarySheet); err != nil {
		return nil, err
	}

	for rowIndex, record := range exportRecords(summary.Match, entries) {
		row := make([]interface{}, 0, len(record))
		if rowIndex == 0 {
			for _, header := range record {
				row = append(row, header)
			}
		} else {
			entry := entries[rowIndex-1]
			totals := book.CalculateTotals([]book.Entry{entry})
			row = append(row,
				entry.CustomerName,
				entry.ExposureA,
				entry.ExposureB,
				entry.SharePercent,
				book.Round2(totals.TotalAShare),
				book.Round2(totals.TotalBShare),
			)
		}
		cell, err := excelize.CoordinatesToCellName(1, rowIndex+1)
		if err != nil {
			return nil, err
		}
		if err := file.SetSheetRow(entriesSheet, cell, &row); err != nil {
			return nil, err
		}
	}

	summaryRows := [][]interface{}{
		{"Match", summary.Match.Name},
		{"Teams", fmt.Sprintf("%s vs %s", summary.Match.TeamA, summary.Match.TeamB)},
		{"Status", summary.Match.Status.String()},
		{"Entries", summary.EntryCount},
		{"Total " + summary.Match.TeamA, summary.Totals.TotalA},
		{"Total " + summary.Match.TeamB, summary.Totals.TotalB},
		{"My Share on " + summary.Match.TeamA, book.Round2(summary.Totals.TotalAShare)},
		{"My Share on " + summary.Match.TeamB, book.Round2(summary.Totals.TotalBShare)},
		{"Break-even odds " + summary.Match.TeamA, optionalCell(summary.AverageOdds.OddsA)},
		{"Break-even odds " + summary.Match.TeamB, optionalCell(summary.AverageOdds.OddsB)},
		{"Max loss", book.Round2(summary.ProfitLoss.MaxLoss)},
		{"Max profit", book.Round2(summary.ProfitLoss.MaxProfit)},
		{"Total exposure", book.Round2(summary.RiskMetrics.TotalExposure)},
	}
	for index, values := range summaryRows {
		cell, err := excelize.CoordinatesToCellName(1, index+1)
		if err != nil {
			return nil, err
		}
		row := values
		if err := file.SetSheetRow(summarySheet, cell, &row); err != nil {
			return nil, err
		}
	}

	var buffer bytes.Buffer
	if err := file.Write(&buffer); err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}

func optionalCell(value *float64) interface{} {
	if value == nil {
		return book.FormatAmount(nil)
	}
	return book.Round2(*value)
}

package ledgerio

import (
	"bytes"
	"fmt"
	"time"

	"github.com/MarkoPoloResearchLab/bookledger/pkg/book"
	"github.com/jung-kurt/gofpdf"
)

// BuildStatementPDF renders a settlement statement listing each entry's payout.
func BuildStatementPDF(match book.Match, settlement book.Settlement, entries []book.Entry) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	translate := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	winner := match.TeamB
	if settlement.WinningSide == book.SideA {
		winner = match.TeamA
	}
	netProfit := settlement.NetProfit

	pdf.Cell(0, 8, translate("Settlement Statement"))
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	for _, line := range []string{
		fmt.Sprintf("Match: %s", match.Name),
		fmt.Sprintf("Teams: %s vs %s", match.TeamA, match.TeamB),
		fmt.Sprintf("Winner: %s (side %s)", winner, settlement.WinningSide),
		fmt.Sprintf("Settled: %s", settlement.SettledAt.UTC().Format(time.RFC3339)),
		fmt.Sprintf("Net result: %s", book.FormatAmount(&netProfit)),
	} {
		pdf.Cell(0, 6, translate(line))
		pdf.Ln(5)
	}
	pdf.Ln(4)

	entriesByID := make(map[book.EntryID]book.Entry, len(entries))
	for _, entry := range entries {
		entriesByID[entry.ID] = entry
	}

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(70, 6, "Player", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 6, "Share %", "1", 0, "C", false, 0, "")
	pdf.CellFormat(45, 6, translate("Exposure on "+winner), "1", 0, "C", false, 0, "")
	pdf.CellFormat(45, 6, "Payout", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
	for _, payout := range settlement.Payouts {
		name := payout.CustomerID.String()
		share := book.FormatAmount(nil)
		exposureText := share
		if entry, ok := entriesByID[payout.EntryID]; ok {
			name = entry.CustomerName
			sharePercent := entry.SharePercent
			share = book.FormatAmount(&sharePercent)
			exposure := entry.ExposureB
			if settlement.WinningSide == book.SideA {
				exposure = entry.ExposureA
			}
			exposureText = book.FormatAmount(&exposure)
		}
		amount := payout.Payout
		pdf.CellFormat(70, 6, translate(name), "1", 0, "L", false, 0, "")
		pdf.CellFormat(30, 6, translate(share), "1", 0, "R", false, 0, "")
		pdf.CellFormat(45, 6, translate(exposureText), "1", 0, "R", false, 0, "")
		pdf.CellFormat(45, 6, translate(book.FormatAmount(&amount)), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(145, 6, "Total payout", "1", 0, "R", false, 0, "")
	totalPayout := settlement.TotalPayout
	pdf.CellFormat(45, 6, translate(book.FormatAmount(&totalPayout)), "1", 0, "R", false, 0, "")
	pdf.Ln(-1)

	var buffer bytes.Buffer
	if err := pdf.Output(&buffer); err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}

package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/MarkoPoloResearchLab/bookledger/pkg/book"
)

func printSummary(writer io.Writer, summary book.MatchSummary) error {
	match := summary.Match
	table := tabwriter.NewWriter(writer, 0, 0, 2, ' ', 0)
	rows := [][2]string{
		{"Match", match.Name},
		{"Teams", match.TeamA + " vs " + match.TeamB},
		{"Status", match.Status.String()},
		{"Entries", fmt.Sprintf("%d", summary.EntryCount)},
		{"Total " + match.TeamA, amount(summary.Totals.TotalA)},
		{"Total " + match.TeamB, amount(summary.Totals.TotalB)},
		{"My share on " + match.TeamA, amount(summary.Totals.TotalAShare)},
		{"My share on " + match.TeamB, amount(summary.Totals.TotalBShare)},
		{"Break-even odds " + match.TeamA, book.FormatAmount(summary.AverageOdds.OddsA)},
		{"Break-even odds " + match.TeamB, book.FormatAmount(summary.AverageOdds.OddsB)},
		{"Profit if " + match.TeamA, amount(summary.ProfitLoss.ProfitIfA)},
		{"Profit if " + match.TeamB, amount(summary.ProfitLoss.ProfitIfB)},
		{"Total exposure", amount(summary.RiskMetrics.TotalExposure)},
		{"Risk/reward", book.FormatAmount(summary.RiskMetrics.RiskRewardRatio)},
		{"Exposure limit", book.FormatAmount(summary.RiskMetrics.ExposureLimit)},
	}
	for _, row := range rows {
		if _, err := fmt.Fprintf(table, "%s\t%s\n", row[0], row[1]); err != nil {
			return err
		}
	}
	if summary.RiskMetrics.ExposureLimitExceeded {
		if _, err := fmt.Fprintln(table, "WARNING\texposure limit exceeded"); err != nil {
			return err
		}
	}
	return table.Flush()
}

func printSettlement(writer io.Writer, settlement book.Settlement) error {
	table := tabwriter.NewWriter(writer, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintf(table, "Match\t%s\nWinner\t%s\nSettled\t%s\nNet result\t%s\n\n",
		settlement.MatchID, settlement.WinningSide, settlement.SettledAt.UTC().Format(time.RFC3339), amount(settlement.NetProfit)); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(table, "ENTRY\tCUSTOMER\tPAYOUT"); err != nil {
		return err
	}
	for _, payout := range settlement.Payouts {
		if _, err := fmt.Fprintf(table, "%s\t%s\t%s\n", payout.EntryID, payout.CustomerID, amount(payout.Payout)); err != nil {
			return err
		}
	}
	return table.Flush()
}

func amount(value float64) string {
	return book.FormatAmount(&value)
}

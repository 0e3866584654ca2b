package book

import (
	"math"
	"time"
)

// Totals aggregates raw and share-weighted exposure of a set of entries.
type Totals struct {
	TotalA      float64
	TotalB      float64
	TotalAShare float64
	TotalBShare float64
}

// AverageOdds holds the break-even decimal odds per side.
// A nil value means the book has no winning position on the other side.
type AverageOdds struct {
	OddsA *float64
	OddsB *float64
}

// ProfitLoss holds the book's net result for each outcome.
type ProfitLoss struct {
	ProfitIfA      float64
	ProfitIfB      float64
	MaxLoss        float64
	MaxProfit      float64
	BreakEvenOddsA *float64
	BreakEvenOddsB *float64
}

// RiskMetrics summarizes how much the book has at stake.
type RiskMetrics struct {
	TotalExposure         float64
	MaxLoss               float64
	MaxProfit             float64
	RiskRewardRatio       *float64
	ExposureLimit         *float64
	ExposureLimitExceeded bool
}

// Exposure is a pair of per-side exposures.
type Exposure struct {
	ExposureA float64
	ExposureB float64
}

// MatchSummary bundles every calculation for a single match.
type MatchSummary struct {
	Match       Match
	EntryCount  int
	Totals      Totals
	AverageOdds AverageOdds
	ProfitLoss  ProfitLoss
	RiskMetrics RiskMetrics
}

func shareFraction(sharePercent float64) float64 {
	return sharePercent / percentDivisor
}

// shareOf returns exposure scaled by the entry share. The explicit
// conversion keeps the product rounded before it is accumulated.
func shareOf(exposure float64, sharePercent float64) float64 {
	return float64(exposure * shareFraction(sharePercent))
}

// CalculateTotals sums the raw and share-weighted exposures of entries.
func CalculateTotals(entries []Entry) Totals {
	var totals Totals
	for _, entry := range entries {
		totals.TotalA += entry.ExposureA
		totals.TotalB += entry.ExposureB
		totals.TotalAShare += shareOf(entry.ExposureA, entry.SharePercent)
		totals.TotalBShare += shareOf(entry.ExposureB, entry.SharePercent)
	}
	return totals
}

// CalculateAverageOdds derives break-even odds from share-weighted totals.
func CalculateAverageOdds(totals Totals) AverageOdds {
	oddsA, oddsB := breakEvenOdds(totals.TotalAShare, totals.TotalBShare)
	return AverageOdds{OddsA: oddsA, OddsB: oddsB}
}

// breakEvenOdds returns the odds at which the loss on one side is exactly
// recovered by the win on the other.
func breakEvenOdds(shareA float64, shareB float64) (*float64, *float64) {
	lossOnA := math.Max(0, -shareA)
	winOnB := math.Max(0, shareB)
	lossOnB := math.Max(0, -shareB)
	winOnA := math.Max(0, shareA)

	var oddsA, oddsB *float64
	if winOnB > 0 {
		oddsB = finitePointer(1 + lossOnA/winOnB)
	}
	if winOnA > 0 {
		oddsA = finitePointer(1 + lossOnB/winOnA)
	}
	return oddsA, oddsB
}

// finitePointer returns nil for values that cannot be reported, such as the
// quotient of a loss and a subnormal win.
func finitePointer(value float64) *float64 {
	if !isFinite(value) {
		return nil
	}
	return &value
}

func isFinite(value float64) bool {
	return !math.IsNaN(value) && !math.IsInf(value, 0)
}

// summaryIsFinite reports whether every aggregate over entries fits in a float64.
func summaryIsFinite(entries []Entry) bool {
	totals := CalculateTotals(entries)
	profitLoss := CalculateProfitLoss(entries)
	risk := CalculateRiskMetrics(totals, nil)
	for _, value := range []float64{
		totals.TotalA, totals.TotalB, totals.TotalAShare, totals.TotalBShare,
		profitLoss.ProfitIfA, profitLoss.ProfitIfB, risk.TotalExposure,
	} {
		if !isFinite(value) {
			return false
		}
	}
	return true
}

// CalculateProfitLoss computes the result of each outcome directly from entries.
func CalculateProfitLoss(entries []Entry) ProfitLoss {
	var profitIfA, profitIfB float64
	for _, entry := range entries {
		profitIfA += shareOf(entry.ExposureA, entry.SharePercent)
		profitIfB += shareOf(entry.ExposureB, entry.SharePercent)
	}
	oddsA, oddsB := breakEvenOdds(profitIfA, profitIfB)
	return ProfitLoss{
		ProfitIfA:      profitIfA,
		ProfitIfB:      profitIfB,
		MaxLoss:        math.Min(profitIfA, profitIfB),
		MaxProfit:      math.Max(profitIfA, profitIfB),
		BreakEvenOddsA: oddsA,
		BreakEvenOddsB: oddsB,
	}
}

// CalculateRiskMetrics reports exposure and risk ratios. A nil limit is never exceeded.
func CalculateRiskMetrics(totals Totals, exposureLimit *float64) RiskMetrics {
	totalExposure := math.Abs(totals.TotalAShare) + math.Abs(totals.TotalBShare)
	maxLoss := math.Min(totals.TotalAShare, totals.TotalBShare)
	maxProfit := math.Max(totals.TotalAShare, totals.TotalBShare)

	metrics := RiskMetrics{
		TotalExposure: totalExposure,
		MaxLoss:       maxLoss,
		MaxProfit:     maxProfit,
	}
	if maxLoss != 0 {
		metrics.RiskRewardRatio = finitePointer(math.Abs(maxProfit / maxLoss))
	}
	if exposureLimit != nil {
		limit := *exposureLimit
		metrics.ExposureLimit = &limit
		metrics.ExposureLimitExceeded = totalExposure > limit
	}
	return metrics
}

// ExposureFromOdds converts a back bet at decimal odds into book exposure.
// Backing A costs the book the profit if A wins and gains the stake otherwise.
func ExposureFromOdds(stake float64, odds float64, side Side) Exposure {
	profit := stake * math.Max(0, odds-1)
	if side == SideA {
		return Exposure{ExposureA: -profit, ExposureB: stake}
	}
	return Exposure{ExposureA: stake, ExposureB: -profit}
}

// ComputeSettlement resolves every entry against the winning side.
// Payouts are reported from the customer's perspective, so a book profit
// becomes a negative payout.
func ComputeSettlement(matchID MatchID, winningSide Side, entries []Entry, settledAt time.Time) Settlement {
	settlement := Settlement{
		MatchID:     matchID,
		WinningSide: winningSide,
		SettledAt:   settledAt,
		Payouts:     make([]EntryPayout, 0, len(entries)),
	}
	var totalPayout float64
	for _, entry := range entries {
		exposure := entry.ExposureB
		if winningSide == SideA {
			exposure = entry.ExposureA
		}
		payout := -shareOf(exposure, entry.SharePercent)
		totalPayout += payout
		settlement.Payouts = append(settlement.Payouts, EntryPayout{
			EntryID:    entry.ID,
			CustomerID: entry.CustomerID,
			Payout:     payout,
		})
	}
	settlement.TotalPayout = totalPayout
	settlement.NetProfit = totalPayout
	return settlement
}

// SummarizeMatch runs every calculation over the entries of a match.
func SummarizeMatch(match Match, entries []Entry, exposureLimit *float64) MatchSummary {
	totals := CalculateTotals(entries)
	return MatchSummary{
		Match:       match,
		EntryCount:  len(entries),
		Totals:      totals,
		AverageOdds: CalculateAverageOdds(totals),
		ProfitLoss:  CalculateProfitLoss(entries),
		RiskMetrics: CalculateRiskMetrics(totals, exposureLimit),
	}
}

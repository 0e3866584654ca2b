package book

import (
	"math"
	"reflect"
	"testing"
)

func settlementFixtureEntries(test *testing.T) []Entry {
	test.Helper()
	matchID := mustMatchID(test, "match-1")
	return []Entry{
		{ID: EntryID{value: "entry-1"}, CustomerID: CustomerID{value: "customer-1"}, MatchID: matchID, ExposureA: -9500, ExposureB: 10000, SharePercent: 20},
		{ID: EntryID{value: "entry-2"}, CustomerID: CustomerID{value: "customer-2"}, MatchID: matchID, ExposureA: 5000, ExposureB: -4000, SharePercent: 50},
	}
}

func TestCalculateTotalsSumsRawAndShareExposure(test *testing.T) {
	test.Parallel()
	totals := CalculateTotals(settlementFixtureEntries(test))
	expected := Totals{TotalA: -4500, TotalB: 6000, TotalAShare: 600, TotalBShare: 0}
	if totals != expected {
		test.Fatalf(errorMismatchMessage, expected, totals)
	}
}

func TestCalculateTotalsEmpty(test *testing.T) {
	test.Parallel()
	if totals := CalculateTotals(nil); totals != (Totals{}) {
		test.Fatalf(errorMismatchMessage, Totals{}, totals)
	}
}

func TestCalculateTotalsIsLinear(test *testing.T) {
	test.Parallel()
	matchID := mustMatchID(test, "match-1")
	first := []Entry{
		{ID: EntryID{value: "entry-1"}, MatchID: matchID, ExposureA: -9500, ExposureB: 10000, SharePercent: 25},
		{ID: EntryID{value: "entry-2"}, MatchID: matchID, ExposureA: 4000, ExposureB: -3000, SharePercent: 50},
	}
	second := []Entry{
		{ID: EntryID{value: "entry-3"}, MatchID: matchID, ExposureA: 1200, ExposureB: -800, SharePercent: 75},
		{ID: EntryID{value: "entry-4"}, MatchID: matchID, ExposureA: -64, ExposureB: 32, SharePercent: 100},
	}

	combined := CalculateTotals(append(append([]Entry{}, first...), second...))
	left := CalculateTotals(first)
	right := CalculateTotals(second)
	expected := Totals{
		TotalA:      left.TotalA + right.TotalA,
		TotalB:      left.TotalB + right.TotalB,
		TotalAShare: left.TotalAShare + right.TotalAShare,
		TotalBShare: left.TotalBShare + right.TotalBShare,
	}
	if combined != expected {
		test.Fatalf(errorMismatchMessage, expected, combined)
	}
}

func TestCalculateTotalsIsIdempotent(test *testing.T) {
	test.Parallel()
	entries := settlementFixtureEntries(test)
	original := append([]Entry{}, entries...)

	first := CalculateTotals(entries)
	second := CalculateTotals(entries)
	if first != second {
		test.Fatalf(errorMismatchMessage, first, second)
	}
	if !reflect.DeepEqual(entries, original) {
		test.Fatalf("entries changed: "+errorMismatchMessage, original, entries)
	}
}

func TestCalculateRiskMetricsDropsInfiniteRatio(test *testing.T) {
	test.Parallel()
	metrics := CalculateRiskMetrics(Totals{TotalAShare: -math.SmallestNonzeroFloat64, TotalBShare: 1e300}, nil)
	if metrics.RiskRewardRatio != nil {
		test.Fatalf("expected no ratio, got %v", *metrics.RiskRewardRatio)
	}
}

func TestCalculateAverageOdds(test *testing.T) {
	test.Parallel()
	testCases := []struct {
		name          string
		totals        Totals
		expectedOddsA *float64
		expectedOddsB *float64
	}{
		{
			name:          "loss on A recovered by win on B",
			totals:        Totals{TotalAShare: -1900, TotalBShare: 2000},
			expectedOddsA: nil,
			expectedOddsB: float64Pointer(1.95),
		},
		{
			name:          "loss on B recovered by win on A",
			totals:        Totals{TotalAShare: 3000, TotalBShare: -1500},
			expectedOddsA: float64Pointer(1.5),
			expectedOddsB: nil,
		},
		{
			name:          "win on A without loss elsewhere",
			totals:        Totals{TotalAShare: 600, TotalBShare: 0},
			expectedOddsA: float64Pointer(1),
			expectedOddsB: nil,
		},
		{
			name:   "both sides losing",
			totals: Totals{TotalAShare: -10, TotalBShare: -20},
		},
		{
			name:   "flat book",
			totals: Totals{},
		},
		{
			name:   "subnormal win overflows the quotient",
			totals: Totals{TotalAShare: math.SmallestNonzeroFloat64, TotalBShare: -1000},
		},
	}
	for _, testCase := range testCases {
		testCase := testCase
		test.Run(testCase.name, func(test *testing.T) {
			test.Parallel()
			odds := CalculateAverageOdds(testCase.totals)
			assertOptionalFloat(test, "oddsA", testCase.expectedOddsA, odds.OddsA)
			assertOptionalFloat(test, "oddsB", testCase.expectedOddsB, odds.OddsB)
		})
	}
}

func TestCalculateProfitLossMatchesShareTotals(test *testing.T) {
	test.Parallel()
	entries := []Entry{
		{ExposureA: -1234.56, ExposureB: 789.01, SharePercent: 33.3},
		{ExposureA: 42.42, ExposureB: -17.17, SharePercent: 12.5},
		{ExposureA: 0.1, ExposureB: 0.2, SharePercent: 70},
	}
	totals := CalculateTotals(entries)
	profitLoss := CalculateProfitLoss(entries)
	if profitLoss.ProfitIfA != totals.TotalAShare {
		test.Fatalf(errorMismatchMessage, totals.TotalAShare, profitLoss.ProfitIfA)
	}
	if profitLoss.ProfitIfB != totals.TotalBShare {
		test.Fatalf(errorMismatchMessage, totals.TotalBShare, profitLoss.ProfitIfB)
	}
	if profitLoss.MaxLoss != math.Min(profitLoss.ProfitIfA, profitLoss.ProfitIfB) {
		test.Fatalf("max loss %v is not the smaller outcome", profitLoss.MaxLoss)
	}
	if profitLoss.MaxProfit != math.Max(profitLoss.ProfitIfA, profitLoss.ProfitIfB) {
		test.Fatalf("max profit %v is not the larger outcome", profitLoss.MaxProfit)
	}
	odds := CalculateAverageOdds(totals)
	assertOptionalFloat(test, "breakEvenOddsA", odds.OddsA, profitLoss.BreakEvenOddsA)
	assertOptionalFloat(test, "breakEvenOddsB", odds.OddsB, profitLoss.BreakEvenOddsB)
}

func TestCalculateProfitLossEmpty(test *testing.T) {
	test.Parallel()
	profitLoss := CalculateProfitLoss(nil)
	if profitLoss.ProfitIfA != 0 || profitLoss.ProfitIfB != 0 || profitLoss.MaxLoss != 0 || profitLoss.MaxProfit != 0 {
		test.Fatalf("expected zero outcome, got %+v", profitLoss)
	}
	if profitLoss.BreakEvenOddsA != nil || profitLoss.BreakEvenOddsB != nil {
		test.Fatalf("expected no break-even odds, got %+v", profitLoss)
	}
}

func TestCalculateRiskMetrics(test *testing.T) {
	test.Parallel()
	testCases := []struct {
		name          string
		totals        Totals
		limit         *float64
		expectedTotal float64
		expectedLoss  float64
		expectedGain  float64
		expectedRatio *float64
		exceeded      bool
	}{
		{
			name:          "two sided book",
			totals:        Totals{TotalAShare: -1900, TotalBShare: 2000},
			expectedTotal: 3900,
			expectedLoss:  -1900,
			expectedGain:  2000,
			expectedRatio: float64Pointer(2000.0 / 1900.0),
		},
		{
			name:          "zero loss has no ratio",
			totals:        Totals{TotalAShare: 600, TotalBShare: 0},
			limit:         float64Pointer(500),
			expectedTotal: 600,
			expectedLoss:  0,
			expectedGain:  600,
			exceeded:      true,
		},
		{
			name:          "limit is strict",
			totals:        Totals{TotalAShare: 600, TotalBShare: 0},
			limit:         float64Pointer(600),
			expectedTotal: 600,
			expectedGain:  600,
		},
		{
			name:          "zero limit is a set limit",
			totals:        Totals{TotalAShare: -1, TotalBShare: 0},
			limit:         float64Pointer(0),
			expectedTotal: 1,
			expectedLoss:  -1,
			expectedRatio: float64Pointer(0),
			exceeded:      true,
		},
	}
	for _, testCase := range testCases {
		testCase := testCase
		test.Run(testCase.name, func(test *testing.T) {
			test.Parallel()
			metrics := CalculateRiskMetrics(testCase.totals, testCase.limit)
			if metrics.TotalExposure != testCase.expectedTotal {
				test.Fatalf(errorMismatchMessage, testCase.expectedTotal, metrics.TotalExposure)
			}
			if metrics.MaxLoss != testCase.expectedLoss {
				test.Fatalf(errorMismatchMessage, testCase.expectedLoss, metrics.MaxLoss)
			}
			if metrics.MaxProfit != testCase.expectedGain {
				test.Fatalf(errorMismatchMessage, testCase.expectedGain, metrics.MaxProfit)
			}
			assertOptionalFloat(test, "riskRewardRatio", testCase.expectedRatio, metrics.RiskRewardRatio)
			if metrics.ExposureLimitExceeded != testCase.exceeded {
				test.Fatalf(errorMismatchMessage, testCase.exceeded, metrics.ExposureLimitExceeded)
			}
			assertOptionalFloat(test, "exposureLimit", testCase.limit, metrics.ExposureLimit)
		})
	}
}

func TestExposureFromOdds(test *testing.T) {
	test.Parallel()
	testCases := []struct {
		name     string
		stake    float64
		odds     float64
		side     Side
		expected Exposure
	}{
		{name: "back A", stake: 10000, odds: 1.95, side: SideA, expected: Exposure{ExposureA: -9500, ExposureB: 10000}},
		{name: "back B", stake: 10000, odds: 1.95, side: SideB, expected: Exposure{ExposureA: 10000, ExposureB: -9500}},
		{name: "odds below evens clamp profit", stake: 500, odds: 0.8, side: SideA, expected: Exposure{ExposureA: 0, ExposureB: 500}},
		{name: "evens", stake: 250, odds: 2, side: SideB, expected: Exposure{ExposureA: 250, ExposureB: -250}},
	}
	for _, testCase := range testCases {
		testCase := testCase
		test.Run(testCase.name, func(test *testing.T) {
			test.Parallel()
			exposure := ExposureFromOdds(testCase.stake, testCase.odds, testCase.side)
			if exposure != testCase.expected {
				test.Fatalf(errorMismatchMessage, testCase.expected, exposure)
			}
		})
	}
}

func TestComputeSettlementFixture(test *testing.T) {
	test.Parallel()
	entries := settlementFixtureEntries(test)
	testCases := []struct {
		name            string
		side            Side
		expectedTotal   float64
		expectedPayouts []float64
	}{
		{name: "A wins", side: SideA, expectedTotal: -600, expectedPayouts: []float64{1900, -2500}},
		{name: "B wins", side: SideB, expectedTotal: 0, expectedPayouts: []float64{-2000, 2000}},
	}
	for _, testCase := range testCases {
		testCase := testCase
		test.Run(testCase.name, func(test *testing.T) {
			test.Parallel()
			settlement := ComputeSettlement(entries[0].MatchID, testCase.side, entries, fixedNow)
			if settlement.TotalPayout != testCase.expectedTotal {
				test.Fatalf(errorMismatchMessage, testCase.expectedTotal, settlement.TotalPayout)
			}
			if settlement.NetProfit != settlement.TotalPayout {
				test.Fatalf("net profit %v differs from total payout %v", settlement.NetProfit, settlement.TotalPayout)
			}
			if settlement.WinningSide != testCase.side || !settlement.SettledAt.Equal(fixedNow) {
				test.Fatalf("unexpected settlement header: %+v", settlement)
			}
			if len(settlement.Payouts) != len(testCase.expectedPayouts) {
				test.Fatalf(errorMismatchMessage, len(testCase.expectedPayouts), len(settlement.Payouts))
			}
			for index, payout := range settlement.Payouts {
				if payout.Payout != testCase.expectedPayouts[index] {
					test.Fatalf("payout %d: "+errorMismatchMessage, index, testCase.expectedPayouts[index], payout.Payout)
				}
				if payout.EntryID != entries[index].ID || payout.CustomerID != entries[index].CustomerID {
					test.Fatalf("payout %d attributed to %+v", index, payout)
				}
			}
		})
	}
}

func TestComputeSettlementWithoutEntries(test *testing.T) {
	test.Parallel()
	settlement := ComputeSettlement(mustMatchID(test, "empty"), SideB, nil, fixedNow)
	if settlement.TotalPayout != 0 || settlement.NetProfit != 0 || len(settlement.Payouts) != 0 {
		test.Fatalf("expected zero settlement, got %+v", settlement)
	}
}

func TestSummarizeMatchCombinesCalculations(test *testing.T) {
	test.Parallel()
	entries := settlementFixtureEntries(test)
	match := Match{ID: entries[0].MatchID, Status: MatchStatusLive}
	summary := SummarizeMatch(match, entries, float64Pointer(100))
	if summary.EntryCount != 2 || summary.Totals.TotalAShare != 600 {
		test.Fatalf("unexpected summary: %+v", summary)
	}
	if !summary.RiskMetrics.ExposureLimitExceeded {
		test.Fatalf("expected limit of 100 to be exceeded by %v", summary.RiskMetrics.TotalExposure)
	}
	if summary.ProfitLoss.ProfitIfA != summary.Totals.TotalAShare {
		test.Fatalf(errorMismatchMessage, summary.Totals.TotalAShare, summary.ProfitLoss.ProfitIfA)
	}
	assertOptionalFloat(test, "oddsA", float64Pointer(1), summary.AverageOdds.OddsA)
}

func assertOptionalFloat(test *testing.T, label string, expected *float64, actual *float64) {
	test.Helper()
	if expected == nil || actual == nil {
		if expected != actual {
			test.Fatalf("%s: "+errorMismatchMessage, label, describeOptional(expected), describeOptional(actual))
		}
		return
	}
	if *expected != *actual {
		test.Fatalf("%s: "+errorMismatchMessage, label, *expected, *actual)
	}
}

func describeOptional(value *float64) string {
	if value == nil {
		return "nil"
	}
	return FormatAmount(value)
}

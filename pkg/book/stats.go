package book

import (
	"math"
	"sort"
)

const (
	dashboardTopCustomers     = 10
	dashboardRecentSettlement = 5
)

// CustomerStats aggregates a customer's activity across matches.
type CustomerStats struct {
	Customer     Customer
	EntryCount   int
	MatchCount   int
	TotalA       float64
	TotalB       float64
	TotalAShare  float64
	TotalBShare  float64
	Balance      float64
	SettledCount int
}

// CustomerExposure ranks a customer by absolute share-weighted exposure.
type CustomerExposure struct {
	CustomerID   CustomerID
	CustomerName string
	Exposure     float64
}

// Dashboard is the book-wide overview.
type Dashboard struct {
	MatchCount        int
	SettledMatchCount int
	ActiveMatchCount  int
	CustomerCount     int
	EntryCount        int
	NetProfit         float64
	TopCustomers      []CustomerExposure
	RecentSettlements []Settlement
}

// BuildCustomerStats computes per-customer statistics. Balances come from the
// recorded settlement payouts so they do not drift if entries change later.
func BuildCustomerStats(customers []Customer, entries []Entry, settlements []Settlement) []CustomerStats {
	statsByCustomer := make(map[CustomerID]*CustomerStats, len(customers))
	matchesByCustomer := make(map[CustomerID]map[MatchID]struct{}, len(customers))
	ordered := make([]*CustomerStats, 0, len(customers))
	for _, customer := range customers {
		stats := &CustomerStats{Customer: customer}
		statsByCustomer[customer.ID] = stats
		matchesByCustomer[customer.ID] = map[MatchID]struct{}{}
		ordered = append(ordered, stats)
	}

	for _, entry := range entries {
		stats, ok := statsByCustomer[entry.CustomerID]
		if !ok {
			continue
		}
		stats.EntryCount++
		stats.TotalA += entry.ExposureA
		stats.TotalB += entry.ExposureB
		stats.TotalAShare += shareOf(entry.ExposureA, entry.SharePercent)
		stats.TotalBShare += shareOf(entry.ExposureB, entry.SharePercent)
		matchesByCustomer[entry.CustomerID][entry.MatchID] = struct{}{}
	}

	for _, settlement := range settlements {
		touched := map[CustomerID]struct{}{}
		for _, payout := range settlement.Payouts {
			stats, ok := statsByCustomer[payout.CustomerID]
			if !ok {
				continue
			}
			stats.Balance += payout.Payout
			touched[payout.CustomerID] = struct{}{}
		}
		for customerID := range touched {
			statsByCustomer[customerID].SettledCount++
		}
	}

	result := make([]CustomerStats, 0, len(ordered))
	for _, stats := range ordered {
		stats.MatchCount = len(matchesByCustomer[stats.Customer.ID])
		result = append(result, *stats)
	}
	return result
}

// BuildDashboard computes the overview shown on the landing page.
func BuildDashboard(matches []Match, customers []Customer, entries []Entry, settlements []Settlement) Dashboard {
	dashboard := Dashboard{
		MatchCount:    len(matches),
		CustomerCount: len(customers),
		EntryCount:    len(entries),
	}
	for _, match := range matches {
		switch match.Status {
		case MatchStatusSettled:
			dashboard.SettledMatchCount++
		case MatchStatusLive:
			dashboard.ActiveMatchCount++
		}
	}
	for _, settlement := range settlements {
		dashboard.NetProfit += settlement.NetProfit
	}

	exposureByCustomer := make(map[CustomerID]float64, len(customers))
	for _, entry := range entries {
		exposureByCustomer[entry.CustomerID] += math.Abs(shareOf(entry.ExposureA, entry.SharePercent)) +
			math.Abs(shareOf(entry.ExposureB, entry.SharePercent))
	}
	ranked := make([]CustomerExposure, 0, len(customers))
	for _, customer := range customers {
		exposure, ok := exposureByCustomer[customer.ID]
		if !ok {
			continue
		}
		ranked = append(ranked, CustomerExposure{
			CustomerID:   customer.ID,
			CustomerName: customer.Name,
			Exposure:     exposure,
		})
	}
	sort.SliceStable(ranked, func(left, right int) bool {
		return ranked[left].Exposure > ranked[right].Exposure
	})
	if len(ranked) > dashboardTopCustomers {
		ranked = ranked[:dashboardTopCustomers]
	}
	dashboard.TopCustomers = ranked

	recent := make([]Settlement, len(settlements))
	copy(recent, settlements)
	sort.SliceStable(recent, func(left, right int) bool {
		return recent[left].SettledAt.After(recent[right].SettledAt)
	})
	if len(recent) > dashboardRecentSettlement {
		recent = recent[:dashboardRecentSettlement]
	}
	dashboard.RecentSettlements = recent
	return dashboard
}

package httpapi

import (
	"time"

	"github.com/MarkoPoloResearchLab/bookledger/pkg/book"
)

type createMatchRequest struct {
	Name      string     `json:"name"`
	TeamA     string     `json:"team_a"`
	TeamB     string     `json:"team_b"`
	StartTime *time.Time `json:"start_time"`
}

type updateMatchRequest struct {
	Name      *string    `json:"name"`
	TeamA     *string    `json:"team_a"`
	TeamB     *string    `json:"team_b"`
	StartTime *time.Time `json:"start_time"`
	Status    *string    `json:"status"`
}

type createCustomerRequest struct {
	Name        string   `json:"name"`
	Email       string   `json:"email"`
	Phone       string   `json:"phone"`
	CreditLimit *float64 `json:"credit_limit"`
	Notes       string   `json:"notes"`
}

type updateCustomerRequest struct {
	Name        *string  `json:"name"`
	Email       *string  `json:"email"`
	Phone       *string  `json:"phone"`
	CreditLimit *float64 `json:"credit_limit"`
	Status      *string  `json:"status"`
	Notes       *string  `json:"notes"`
}

type createEntryRequest struct {
	CustomerID   string  `json:"customer_id"`
	ExposureA    float64 `json:"exposure_a"`
	ExposureB    float64 `json:"exposure_b"`
	SharePercent float64 `json:"share_percent"`
}

type updateEntryRequest struct {
	CustomerID   *string  `json:"customer_id"`
	ExposureA    *float64 `json:"exposure_a"`
	ExposureB    *float64 `json:"exposure_b"`
	SharePercent *float64 `json:"share_percent"`
}

type settleRequest struct {
	WinningSide string `json:"winning_side"`
}

type convertRequest struct {
	Name         string  `json:"name"`
	Stake        float64 `json:"stake"`
	Odds         float64 `json:"odds"`
	Side         string  `json:"side"`
	SharePercent float64 `json:"share_percent"`
}

type matchPayload struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	TeamA       string     `json:"team_a"`
	TeamB       string     `json:"team_b"`
	Status      string     `json:"status"`
	StartTime   *time.Time `json:"start_time,omitempty"`
	WinningSide *string    `json:"winning_side,omitempty"`
	SettledAt   *time.Time `json:"settled_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

type customerPayload struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email,omitempty"`
	Phone       string    `json:"phone,omitempty"`
	CreditLimit *float64  `json:"credit_limit,omitempty"`
	Status      string    `json:"status"`
	Notes       string    `json:"notes,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type entryPayload struct {
	ID           string    `json:"id"`
	CustomerID   string    `json:"customer_id"`
	CustomerName string    `json:"customer_name"`
	MatchID      string    `json:"match_id"`
	ExposureA    float64   `json:"exposure_a"`
	ExposureB    float64   `json:"exposure_b"`
	SharePercent float64   `json:"share_percent"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type payoutPayload struct {
	EntryID    string  `json:"entry_id"`
	CustomerID string  `json:"customer_id"`
	Payout     float64 `json:"payout"`
}

type settlementPayload struct {
	ID          string          `json:"id"`
	MatchID     string          `json:"match_id"`
	WinningSide string          `json:"winning_side"`
	TotalPayout float64         `json:"total_payout"`
	NetProfit   float64         `json:"net_profit"`
	SettledAt   time.Time       `json:"settled_at"`
	Payouts     []payoutPayload `json:"payouts"`
}

type totalsPayload struct {
	TotalA      float64 `json:"total_a"`
	TotalB      float64 `json:"total_b"`
	TotalAShare float64 `json:"total_a_share"`
	TotalBShare float64 `json:"total_b_share"`
}

type averageOddsPayload struct {
	OddsA *float64 `json:"odds_a"`
	OddsB *float64 `json:"odds_b"`
}

type profitLossPayload struct {
	ProfitIfA      float64  `json:"profit_if_a"`
	ProfitIfB      float64  `json:"profit_if_b"`
	MaxLoss        float64  `json:"max_loss"`
	MaxProfit      float64  `json:"max_profit"`
	BreakEvenOddsA *float64 `json:"break_even_odds_a"`
	BreakEvenOddsB *float64 `json:"break_even_odds_b"`
}

type riskMetricsPayload struct {
	TotalExposure         float64  `json:"total_exposure"`
	MaxLoss               float64  `json:"max_loss"`
	MaxProfit             float64  `json:"max_profit"`
	RiskRewardRatio       *float64 `json:"risk_reward_ratio"`
	ExposureLimit         *float64 `json:"exposure_limit"`
	ExposureLimitExceeded bool     `json:"exposure_limit_exceeded"`
}

type summaryPayload struct {
	Match       matchPayload       `json:"match"`
	EntryCount  int                `json:"entry_count"`
	Totals      totalsPayload      `json:"totals"`
	AverageOdds averageOddsPayload `json:"average_odds"`
	ProfitLoss  profitLossPayload  `json:"profit_loss"`
	RiskMetrics riskMetricsPayload `json:"risk_metrics"`
}

type exposurePayload struct {
	ExposureA float64 `json:"exposure_a"`
	ExposureB float64 `json:"exposure_b"`
}

type customerStatsPayload struct {
	Customer     customerPayload `json:"customer"`
	EntryCount   int             `json:"entry_count"`
	MatchCount   int             `json:"match_count"`
	TotalA       float64         `json:"total_a"`
	TotalB       float64         `json:"total_b"`
	TotalAShare  float64         `json:"total_a_share"`
	TotalBShare  float64         `json:"total_b_share"`
	Balance      float64         `json:"balance"`
	SettledCount int             `json:"settled_count"`
}

type customerExposurePayload struct {
	CustomerID   string  `json:"customer_id"`
	CustomerName string  `json:"customer_name"`
	Exposure     float64 `json:"exposure"`
}

type dashboardPayload struct {
	MatchCount        int                       `json:"match_count"`
	SettledMatchCount int                       `json:"settled_match_count"`
	ActiveMatchCount  int                       `json:"active_match_count"`
	CustomerCount     int                       `json:"customer_count"`
	EntryCount        int                       `json:"entry_count"`
	NetProfit         float64                   `json:"net_profit"`
	TopCustomers      []customerExposurePayload `json:"top_customers"`
	RecentSettlements []settlementPayload       `json:"recent_settlements"`
}

func newMatchPayload(match book.Match) matchPayload {
	payload := matchPayload{
		ID:        match.ID.String(),
		Name:      match.Name,
		TeamA:     match.TeamA,
		TeamB:     match.TeamB,
		Status:    match.Status.String(),
		StartTime: match.StartTime,
		SettledAt: match.SettledAt,
		CreatedAt: match.CreatedAt,
	}
	if match.WinningSide != nil {
		side := match.WinningSide.String()
		payload.WinningSide = &side
	}
	return payload
}

func newMatchPayloads(matches []book.Match) []matchPayload {
	payloads := make([]matchPayload, 0, len(matches))
	for _, match := range matches {
		payloads = append(payloads, newMatchPayload(match))
	}
	return payloads
}

func newCustomerPayload(customer book.Customer) customerPayload {
	return customerPayload{
		ID:          customer.ID.String(),
		Name:        customer.Name,
		Email:       customer.Email,
		Phone:       customer.Phone,
		CreditLimit: customer.CreditLimit,
		Status:      customer.Status.String(),
		Notes:       customer.Notes,
		CreatedAt:   customer.CreatedAt,
	}
}

func newCustomerPayloads(customers []book.Customer) []customerPayload {
	payloads := make([]customerPayload, 0, len(customers))
	for _, customer := range customers {
		payloads = append(payloads, newCustomerPayload(customer))
	}
	return payloads
}

func newEntryPayload(entry book.Entry) entryPayload {
	return entryPayload{
		ID:           entry.ID.String(),
		CustomerID:   entry.CustomerID.String(),
		CustomerName: entry.CustomerName,
		MatchID:      entry.MatchID.String(),
		ExposureA:    entry.ExposureA,
		ExposureB:    entry.ExposureB,
		SharePercent: entry.SharePercent,
		CreatedAt:    entry.CreatedAt,
		UpdatedAt:    entry.UpdatedAt,
	}
}

func newEntryPayloads(entries []book.Entry) []entryPayload {
	payloads := make([]entryPayload, 0, len(entries))
	for _, entry := range entries {
		payloads = append(payloads, newEntryPayload(entry))
	}
	return payloads
}

func newSettlementPayload(settlement book.Settlement) settlementPayload {
	payouts := make([]payoutPayload, 0, len(settlement.Payouts))
	for _, payout := range settlement.Payouts {
		payouts = append(payouts, payoutPayload{
			EntryID:    payout.EntryID.String(),
			CustomerID: payout.CustomerID.String(),
			Payout:     payout.Payout,
		})
	}
	return settlementPayload{
		ID:          settlement.ID,
		MatchID:     settlement.MatchID.String(),
		WinningSide: settlement.WinningSide.String(),
		TotalPayout: settlement.TotalPayout,
		NetProfit:   settlement.NetProfit,
		SettledAt:   settlement.SettledAt,
		Payouts:     payouts,
	}
}

func newSettlementPayloads(settlements []book.Settlement) []settlementPayload {
	payloads := make([]settlementPayload, 0, len(settlements))
	for _, settlement := range settlements {
		payloads = append(payloads, newSettlementPayload(settlement))
	}
	return payloads
}

func newSummaryPayload(summary book.MatchSummary) summaryPayload {
	return summaryPayload{
		Match:      newMatchPayload(summary.Match),
		EntryCount: summary.EntryCount,
		Totals: totalsPayload{
			TotalA:      summary.Totals.TotalA,
			TotalB:      summary.Totals.TotalB,
			TotalAShare: summary.Totals.TotalAShare,
			TotalBShare: summary.Totals.TotalBShare,
		},
		AverageOdds: averageOddsPayload{
			OddsA: summary.AverageOdds.OddsA,
			OddsB: summary.AverageOdds.OddsB,
		},
		ProfitLoss: profitLossPayload{
			ProfitIfA:      summary.ProfitLoss.ProfitIfA,
			ProfitIfB:      summary.ProfitLoss.ProfitIfB,
			MaxLoss:        summary.ProfitLoss.MaxLoss,
			MaxProfit:      summary.ProfitLoss.MaxProfit,
			BreakEvenOddsA: summary.ProfitLoss.BreakEvenOddsA,
			BreakEvenOddsB: summary.ProfitLoss.BreakEvenOddsB,
		},
		RiskMetrics: riskMetricsPayload{
			TotalExposure:         summary.RiskMetrics.TotalExposure,
			MaxLoss:               summary.RiskMetrics.MaxLoss,
			MaxProfit:             summary.RiskMetrics.MaxProfit,
			RiskRewardRatio:       summary.RiskMetrics.RiskRewardRatio,
			ExposureLimit:         summary.RiskMetrics.ExposureLimit,
			ExposureLimitExceeded: summary.RiskMetrics.ExposureLimitExceeded,
		},
	}
}

func newCustomerStatsPayloads(stats []book.CustomerStats) []customerStatsPayload {
	payloads := make([]customerStatsPayload, 0, len(stats))
	for _, item := range stats {
		payloads = append(payloads, customerStatsPayload{
			Customer:     newCustomerPayload(item.Customer),
			EntryCount:   item.EntryCount,
			MatchCount:   item.MatchCount,
			TotalA:       item.TotalA,
			TotalB:       item.TotalB,
			TotalAShare:  item.TotalAShare,
			TotalBShare:  item.TotalBShare,
			Balance:      item.Balance,
			SettledCount: item.SettledCount,
		})
	}
	return payloads
}

func newDashboardPayload(dashboard book.Dashboard) dashboardPayload {
	topCustomers := make([]customerExposurePayload, 0, len(dashboard.TopCustomers))
	for _, item := range dashboard.TopCustomers {
		topCustomers = append(topCustomers, customerExposurePayload{
			CustomerID:   item.CustomerID.String(),
			CustomerName: item.CustomerName,
			Exposure:     item.Exposure,
		})
	}
	return dashboardPayload{
		MatchCount:        dashboard.MatchCount,
		SettledMatchCount: dashboard.SettledMatchCount,
		ActiveMatchCount:  dashboard.ActiveMatchCount,
		CustomerCount:     dashboard.CustomerCount,
		EntryCount:        dashboard.EntryCount,
		NetProfit:         dashboard.NetProfit,
		TopCustomers:      topCustomers,
		RecentSettlements: newSettlementPayloads(dashboard.RecentSettlements),
	}
}

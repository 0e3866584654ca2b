package book

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Service contains the book domain logic over a Store.
type Service struct {
	store         Store
	nowFn         func() time.Time
	newID         func() string
	logger        OperationLogger
	exposureLimit *float64
}

// NewService wires a Service.
func NewService(store Store, now func() time.Time, options ...ServiceOption) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: store dependency is nil", ErrInvalidServiceConfig)
	}
	if now == nil {
		return nil, fmt.Errorf("%w: clock dependency is nil", ErrInvalidServiceConfig)
	}
	service := &Service{store: store, nowFn: now, newID: uuid.NewString}
	for _, option := range options {
		if option != nil {
			option(service)
		}
	}
	if service.newID == nil {
		return nil, fmt.Errorf("%w: id generator is nil", ErrInvalidServiceConfig)
	}
	return service, nil
}

// CreateMatch opens a new upcoming match.
func (service *Service) CreateMatch(ctx context.Context, input MatchInput) (Match, error) {
	var match Match
	operationError := func() error {
		name, err := normalizeName(input.Name)
		if err != nil {
			return err
		}
		teamA, err := normalizeName(input.TeamA)
		if err != nil {
			return fmt.Errorf("team A: %w", err)
		}
		teamB, err := normalizeName(input.TeamB)
		if err != nil {
			return fmt.Errorf("team B: %w", err)
		}
		matchID, err := NewMatchID(service.newID())
		if err != nil {
			return err
		}
		match = Match{
			ID:        matchID,
			Name:      name,
			TeamA:     teamA,
			TeamB:     teamB,
			Status:    MatchStatusUpcoming,
			StartTime: input.StartTime,
			CreatedAt: service.nowFn().UTC(),
		}
		return service.store.CreateMatch(ctx, match)
	}()
	service.logOperation(ctx, OperationLog{
		Operation: operationCreateMatch,
		MatchID:   match.ID,
		Error:     operationError,
	})
	if operationError != nil {
		return Match{}, operationError
	}
	return match, nil
}

// GetMatch loads a single match.
func (service *Service) GetMatch(ctx context.Context, matchID MatchID) (Match, error) {
	return service.store.GetMatch(ctx, matchID)
}

// ListMatches returns matches whose name or teams contain query, case-insensitively.
// An empty query returns every match.
func (service *Service) ListMatches(ctx context.Context, query string) ([]Match, error) {
	matches, err := service.store.ListMatches(ctx)
	if err != nil {
		return nil, err
	}
	needle := strings.ToLower(strings.TrimSpace(query))
	if needle == "" {
		return matches, nil
	}
	filtered := make([]Match, 0, len(matches))
	for _, match := range matches {
		if containsFold(needle, match.Name, match.TeamA, match.TeamB) {
			filtered = append(filtered, match)
		}
	}
	return filtered, nil
}

// UpdateMatch applies the non-nil fields of update. Settled matches are frozen.
func (service *Service) UpdateMatch(ctx context.Context, matchID MatchID, update MatchUpdate) (Match, error) {
	var updated Match
	operationError := service.store.WithTx(ctx, func(ctx context.Context, transactionStore Store) error {
		match, err := transactionStore.GetMatch(ctx, matchID)
		if err != nil {
			return err
		}
		if match.IsSettled() {
			return ErrMatchAlreadySettled
		}
		if update.Name != nil {
			if match.Name, err = normalizeName(*update.Name); err != nil {
				return err
			}
		}
		if update.TeamA != nil {
			if match.TeamA, err = normalizeName(*update.TeamA); err != nil {
				return fmt.Errorf("team A: %w", err)
			}
		}
		if update.TeamB != nil {
			if match.TeamB, err = normalizeName(*update.TeamB); err != nil {
				return fmt.Errorf("team B: %w", err)
			}
		}
		if update.StartTime != nil {
			startTime := *update.StartTime
			match.StartTime = &startTime
		}
		if update.Status != nil {
			if err := match.Status.validateTransition(*update.Status); err != nil {
				return err
			}
			match.Status = *update.Status
		}
		if err := transactionStore.UpdateMatch(ctx, match); err != nil {
			return err
		}
		updated = match
		return nil
	})
	service.logOperation(ctx, OperationLog{
		Operation: operationUpdateMatch,
		MatchID:   matchID,
		Error:     operationError,
	})
	if operationError != nil {
		return Match{}, operationError
	}
	return updated, nil
}

// DeleteMatch removes a match together with its entries and settlement.
func (service *Service) DeleteMatch(ctx context.Context, matchID MatchID) error {
	operationError := service.store.WithTx(ctx, func(ctx context.Context, transactionStore Store) error {
		if _, err := transactionStore.GetMatch(ctx, matchID); err != nil {
			return err
		}
		if err := transactionStore.DeleteEntriesByMatch(ctx, matchID); err != nil {
			return err
		}
		if err := transactionStore.DeleteSettlementsByMatch(ctx, matchID); err != nil {
			return err
		}
		return transactionStore.DeleteMatch(ctx, matchID)
	})
	service.logOperation(ctx, OperationLog{
		Operation: operationDeleteMatch,
		MatchID:   matchID,
		Error:     operationError,
	})
	return operationError
}

// Summary computes totals, odds, profit and loss, and risk for a match.
func (service *Service) Summary(ctx context.Context, matchID MatchID) (MatchSummary, error) {
	match, err := service.store.GetMatch(ctx, matchID)
	if err != nil {
		return MatchSummary{}, err
	}
	entries, err := service.store.ListEntriesByMatch(ctx, matchID)
	if err != nil {
		return MatchSummary{}, err
	}
	return SummarizeMatch(match, entries, service.exposureLimit), nil
}

// SettleMatch records the outcome of a match and freezes it.
// The settlement record and the status change commit together.
func (service *Service) SettleMatch(ctx context.Context, matchID MatchID, winningSide Side) (Settlement, error) {
	var settlement Settlement
	operationError := service.store.WithTx(ctx, func(ctx context.Context, transactionStore Store) error {
		side, err := ParseSide(winningSide.String())
		if err != nil {
			return err
		}
		match, err := transactionStore.GetMatch(ctx, matchID)
		if err != nil {
			return err
		}
		if match.IsSettled() {
			return ErrMatchAlreadySettled
		}
		entries, err := transactionStore.ListEntriesByMatch(ctx, matchID)
		if err != nil {
			return err
		}
		settledAt := service.nowFn().UTC()
		settlement = ComputeSettlement(matchID, side, entries, settledAt)
		settlement.ID = service.newID()
		if err := transactionStore.InsertSettlement(ctx, settlement); err != nil {
			if errors.Is(err, ErrDuplicateSettlement) {
				return ErrMatchAlreadySettled
			}
			return err
		}
		match.Status = MatchStatusSettled
		match.WinningSide = &side
		match.SettledAt = &settledAt
		return transactionStore.UpdateMatch(ctx, match)
	})
	service.logOperation(ctx, OperationLog{
		Operation: operationSettle,
		MatchID:   matchID,
		Side:      winningSide,
		Amount:    settlement.NetProfit,
		Count:     len(settlement.Payouts),
		Error:     operationError,
	})
	if operationError != nil {
		return Settlement{}, operationError
	}
	return settlement, nil
}

// GetSettlement loads the settlement of a match.
func (service *Service) GetSettlement(ctx context.Context, matchID MatchID) (Settlement, error) {
	return service.store.GetSettlement(ctx, matchID)
}

// ListSettlements returns every settlement, newest first.
func (service *Service) ListSettlements(ctx context.Context) ([]Settlement, error) {
	settlements, err := service.store.ListSettlements(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(settlements, func(left, right int) bool {
		return settlements[left].SettledAt.After(settlements[right].SettledAt)
	})
	return settlements, nil
}

// Dashboard builds the book-wide overview.
func (service *Service) Dashboard(ctx context.Context) (Dashboard, error) {
	matches, err := service.store.ListMatches(ctx)
	if err != nil {
		return Dashboard{}, err
	}
	customers, err := service.store.ListCustomers(ctx)
	if err != nil {
		return Dashboard{}, err
	}
	entries, err := service.store.ListEntries(ctx)
	if err != nil {
		return Dashboard{}, err
	}
	settlements, err := service.store.ListSettlements(ctx)
	if err != nil {
		return Dashboard{}, err
	}
	return BuildDashboard(matches, customers, entries, settlements), nil
}

func (service *Service) logOperation(ctx context.Context, entry OperationLog) {
	if service.logger == nil {
		return
	}
	if entry.Status == "" {
		if entry.Error != nil {
			entry.Status = operationStatusError
		} else {
			entry.Status = operationStatusOK
		}
	}
	service.logger.LogOperation(ctx, entry)
}

// requireOpenMatch loads a match that still accepts entry changes.
func requireOpenMatch(ctx context.Context, store Store, matchID MatchID) (Match, error) {
	match, err := store.GetMatch(ctx, matchID)
	if err != nil {
		return Match{}, err
	}
	if match.IsSettled() {
		return Match{}, ErrMatchAlreadySettled
	}
	return match, nil
}

func containsFold(needle string, haystacks ...string) bool {
	for _, haystack := range haystacks {
		if strings.Contains(strings.ToLower(haystack), needle) {
			return true
		}
	}
	return false
}

package book

import (
	"context"
	"fmt"
)

// AddEntry records a customer's exposure on an open match.
func (service *Service) AddEntry(ctx context.Context, input EntryInput) (Entry, error) {
	var entry Entry
	operationError := service.store.WithTx(ctx, func(ctx context.Context, transactionStore Store) error {
		if _, err := requireOpenMatch(ctx, transactionStore, input.MatchID); err != nil {
			return err
		}
		customer, err := transactionStore.GetCustomer(ctx, input.CustomerID)
		if err != nil {
			return err
		}
		created, err := service.insertEntry(ctx, transactionStore, input.MatchID, customer, Exposure{
			ExposureA: input.ExposureA,
			ExposureB: input.ExposureB,
		}, input.SharePercent)
		if err != nil {
			return err
		}
		entry = created
		return nil
	})
	service.logOperation(ctx, OperationLog{
		Operation:  operationAddEntry,
		MatchID:    input.MatchID,
		CustomerID: input.CustomerID,
		EntryID:    entry.ID,
		Error:      operationError,
	})
	if operationError != nil {
		return Entry{}, operationError
	}
	return entry, nil
}

func (service *Service) insertEntry(ctx context.Context, store Store, matchID MatchID, customer Customer, exposure Exposure, sharePercent float64) (Entry, error) {
	if err := validateExposure(exposure.ExposureA); err != nil {
		return Entry{}, err
	}
	if err := validateExposure(exposure.ExposureB); err != nil {
		return Entry{}, err
	}
	if err := validateSharePercent(sharePercent); err != nil {
		return Entry{}, err
	}
	entryID, err := NewEntryID(service.newID())
	if err != nil {
		return Entry{}, err
	}
	now := service.nowFn().UTC()
	entry := Entry{
		ID:           entryID,
		CustomerID:   customer.ID,
		CustomerName: customer.Name,
		MatchID:      matchID,
		ExposureA:    exposure.ExposureA,
		ExposureB:    exposure.ExposureB,
		SharePercent: sharePercent,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := ensureFiniteBook(ctx, store, entry); err != nil {
		return Entry{}, err
	}
	if err := store.InsertEntry(ctx, entry); err != nil {
		return Entry{}, err
	}
	return entry, nil
}

// UpdateEntry applies the non-nil fields of update to an entry of an open match.
func (service *Service) UpdateEntry(ctx context.Context, entryID EntryID, update EntryUpdate) (Entry, error) {
	var updated Entry
	operationError := service.store.WithTx(ctx, func(ctx context.Context, transactionStore Store) error {
		entry, err := transactionStore.GetEntry(ctx, entryID)
		if err != nil {
			return err
		}
		if _, err := requireOpenMatch(ctx, transactionStore, entry.MatchID); err != nil {
			return err
		}
		if update.CustomerID != nil {
			customer, err := transactionStore.GetCustomer(ctx, *update.CustomerID)
			if err != nil {
				return err
			}
			entry.CustomerID = customer.ID
			entry.CustomerName = customer.Name
		}
		if update.ExposureA != nil {
			if err := validateExposure(*update.ExposureA); err != nil {
				return err
			}
			entry.ExposureA = *update.ExposureA
		}
		if update.ExposureB != nil {
			if err := validateExposure(*update.ExposureB); err != nil {
				return err
			}
			entry.ExposureB = *update.ExposureB
		}
		if update.SharePercent != nil {
			if err := validateSharePercent(*update.SharePercent); err != nil {
				return err
			}
			entry.SharePercent = *update.SharePercent
		}
		entry.UpdatedAt = service.nowFn().UTC()
		if err := ensureFiniteBook(ctx, transactionStore, entry); err != nil {
			return err
		}
		if err := transactionStore.UpdateEntry(ctx, entry); err != nil {
			return err
		}
		updated = entry
		return nil
	})
	service.logOperation(ctx, OperationLog{
		Operation:  operationUpdateEntry,
		MatchID:    updated.MatchID,
		CustomerID: updated.CustomerID,
		EntryID:    entryID,
		Error:      operationError,
	})
	if operationError != nil {
		return Entry{}, operationError
	}
	return updated, nil
}

// DeleteEntry removes an entry of an open match.
func (service *Service) DeleteEntry(ctx context.Context, entryID EntryID) error {
	operationError := service.store.WithTx(ctx, func(ctx context.Context, transactionStore Store) error {
		entry, err := transactionStore.GetEntry(ctx, entryID)
		if err != nil {
			return err
		}
		if _, err := requireOpenMatch(ctx, transactionStore, entry.MatchID); err != nil {
			return err
		}
		return transactionStore.DeleteEntry(ctx, entryID)
	})
	service.logOperation(ctx, OperationLog{
		Operation: operationDeleteEntry,
		EntryID:   entryID,
		Error:     operationError,
	})
	return operationError
}

// ensureFiniteBook rejects candidate when storing it would overflow the match totals.
func ensureFiniteBook(ctx context.Context, store Store, candidate Entry) error {
	existing, err := store.ListEntriesByMatch(ctx, candidate.MatchID)
	if err != nil {
		return err
	}
	entries := make([]Entry, 0, len(existing)+1)
	for _, entry := range existing {
		if entry.ID != candidate.ID {
			entries = append(entries, entry)
		}
	}
	entries = append(entries, candidate)
	if !summaryIsFinite(entries) {
		return fmt.Errorf("%w: match totals would overflow", ErrInvalidExposure)
	}
	return nil
}

// ListMatchEntries returns the entries of a match in insertion order.
func (service *Service) ListMatchEntries(ctx context.Context, matchID MatchID) ([]Entry, error) {
	if _, err := service.store.GetMatch(ctx, matchID); err != nil {
		return nil, err
	}
	return service.store.ListEntriesByMatch(ctx, matchID)
}

// ListCustomerEntries returns every entry of a customer across matches.
func (service *Service) ListCustomerEntries(ctx context.Context, customerID CustomerID) ([]Entry, error) {
	if _, err := service.store.GetCustomer(ctx, customerID); err != nil {
		return nil, err
	}
	return service.store.ListEntriesByCustomer(ctx, customerID)
}

// PreviewConversion returns the rounded exposure a back bet would create.
func PreviewConversion(request ConvertRequest) (Exposure, error) {
	if err := request.validate(); err != nil {
		return Exposure{}, err
	}
	side, _ := ParseSide(request.Side.String())
	exposure := ExposureFromOdds(request.Stake, request.Odds, side)
	if !isFinite(exposure.ExposureA) || !isFinite(exposure.ExposureB) {
		return Exposure{}, fmt.Errorf("%w: converted exposure overflows", ErrInvalidStake)
	}
	return Exposure{
		ExposureA: Round2(exposure.ExposureA),
		ExposureB: Round2(exposure.ExposureB),
	}, nil
}

// ConvertToEntry turns a back bet into a ledger entry, creating the customer
// by name when it does not exist yet.
func (service *Service) ConvertToEntry(ctx context.Context, matchID MatchID, request ConvertRequest) (Entry, error) {
	var entry Entry
	operationError := service.store.WithTx(ctx, func(ctx context.Context, transactionStore Store) error {
		exposure, err := PreviewConversion(request)
		if err != nil {
			return err
		}
		if _, err := requireOpenMatch(ctx, transactionStore, matchID); err != nil {
			return err
		}
		customer, err := service.findOrCreateCustomer(ctx, transactionStore, request.Name)
		if err != nil {
			return err
		}
		created, err := service.insertEntry(ctx, transactionStore, matchID, customer, exposure, request.SharePercent)
		if err != nil {
			return err
		}
		entry = created
		return nil
	})
	service.logOperation(ctx, OperationLog{
		Operation:  operationConvert,
		MatchID:    matchID,
		CustomerID: entry.CustomerID,
		EntryID:    entry.ID,
		Side:       request.Side,
		Amount:     request.Stake,
		Error:      operationError,
	})
	if operationError != nil {
		return Entry{}, operationError
	}
	return entry, nil
}

// ImportEntries appends one entry per row to an open match. Customers are
// resolved by name and created on first sight. Either every row is stored or none.
func (service *Service) ImportEntries(ctx context.Context, matchID MatchID, rows []ImportRow) ([]Entry, error) {
	var imported []Entry
	operationError := service.store.WithTx(ctx, func(ctx context.Context, transactionStore Store) error {
		if _, err := requireOpenMatch(ctx, transactionStore, matchID); err != nil {
			return err
		}
		imported = make([]Entry, 0, len(rows))
		for index, row := range rows {
			customer, err := service.findOrCreateCustomer(ctx, transactionStore, row.Name)
			if err != nil {
				return fmt.Errorf("row %d: %w", index+1, err)
			}
			entry, err := service.insertEntry(ctx, transactionStore, matchID, customer, Exposure{
				ExposureA: row.ExposureA,
				ExposureB: row.ExposureB,
			}, row.SharePercent)
			if err != nil {
				return fmt.Errorf("row %d: %w", index+1, err)
			}
			imported = append(imported, entry)
		}
		return nil
	})
	service.logOperation(ctx, OperationLog{
		Operation: operationImport,
		MatchID:   matchID,
		Count:     len(rows),
		Error:     operationError,
	})
	if operationError != nil {
		return nil, operationError
	}
	return imported, nil
}

package book

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

const errorMismatchMessage = "expected %v, got %v"

var fixedNow = time.Date(2024, time.March, 9, 18, 30, 0, 0, time.UTC)

// stubStore keeps records in memory. WithTx snapshots state and restores it
// when the callback fails.
type stubStore struct {
	matches     []Match
	customers   []Customer
	entries     []Entry
	settlements []Settlement
	txCount     int
}

func newStubStore(test *testing.T) *stubStore {
	test.Helper()
	return &stubStore{}
}

func (store *stubStore) snapshot() stubStore {
	return stubStore{
		matches:     append([]Match(nil), store.matches...),
		customers:   append([]Customer(nil), store.customers...),
		entries:     append([]Entry(nil), store.entries...),
		settlements: append([]Settlement(nil), store.settlements...),
	}
}

func (store *stubStore) WithTx(ctx context.Context, fn func(ctx context.Context, txStore Store) error) error {
	store.txCount++
	saved := store.snapshot()
	if err := fn(ctx, store); err != nil {
		store.matches = saved.matches
		store.customers = saved.customers
		store.entries = saved.entries
		store.settlements = saved.settlements
		return err
	}
	return nil
}

func (store *stubStore) CreateMatch(_ context.Context, match Match) error {
	store.matches = append(store.matches, match)
	return nil
}

func (store *stubStore) GetMatch(_ context.Context, matchID MatchID) (Match, error) {
	for _, match := range store.matches {
		if match.ID == matchID {
			return match, nil
		}
	}
	return Match{}, ErrMatchNotFound
}

func (store *stubStore) ListMatches(context.Context) ([]Match, error) {
	return append([]Match(nil), store.matches...), nil
}

func (store *stubStore) UpdateMatch(_ context.Context, match Match) error {
	for index := range store.matches {
		if store.matches[index].ID == match.ID {
			store.matches[index] = match
			return nil
		}
	}
	return ErrMatchNotFound
}

func (store *stubStore) DeleteMatch(_ context.Context, matchID MatchID) error {
	kept := store.matches[:0:0]
	for _, match := range store.matches {
		if match.ID != matchID {
			kept = append(kept, match)
		}
	}
	store.matches = kept
	return nil
}

func (store *stubStore) CreateCustomer(_ context.Context, customer Customer) error {
	store.customers = append(store.customers, customer)
	return nil
}

func (store *stubStore) GetCustomer(_ context.Context, customerID CustomerID) (Customer, error) {
	for _, customer := range store.customers {
		if customer.ID == customerID {
			return customer, nil
		}
	}
	return Customer{}, ErrCustomerNotFound
}

func (store *stubStore) FindCustomerByName(_ context.Context, name string) (Customer, error) {
	for _, customer := range store.customers {
		if strings.EqualFold(customer.Name, name) {
			return customer, nil
		}
	}
	return Customer{}, ErrCustomerNotFound
}

func (store *stubStore) ListCustomers(context.Context) ([]Customer, error) {
	return append([]Customer(nil), store.customers...), nil
}

func (store *stubStore) UpdateCustomer(_ context.Context, customer Customer) error {
	for index := range store.customers {
		if store.customers[index].ID == customer.ID {
			store.customers[index] = customer
			return nil
		}
	}
	return ErrCustomerNotFound
}

func (store *stubStore) DeleteCustomer(_ context.Context, customerID CustomerID) error {
	kept := store.customers[:0:0]
	for _, customer := range store.customers {
		if customer.ID != customerID {
			kept = append(kept, customer)
		}
	}
	store.customers = kept
	return nil
}

func (store *stubStore) InsertEntry(_ context.Context, entry Entry) error {
	store.entries = append(store.entries, entry)
	return nil
}

func (store *stubStore) GetEntry(_ context.Context, entryID EntryID) (Entry, error) {
	for _, entry := range store.entries {
		if entry.ID == entryID {
			return entry, nil
		}
	}
	return Entry{}, ErrEntryNotFound
}

func (store *stubStore) UpdateEntry(_ context.Context, entry Entry) error {
	for index := range store.entries {
		if store.entries[index].ID == entry.ID {
			store.entries[index] = entry
			return nil
		}
	}
	return ErrEntryNotFound
}

func (store *stubStore) DeleteEntry(_ context.Context, entryID EntryID) error {
	store.filterEntries(func(entry Entry) bool { return entry.ID != entryID })
	return nil
}

func (store *stubStore) filterEntries(keep func(Entry) bool) {
	kept := store.entries[:0:0]
	for _, entry := range store.entries {
		if keep(entry) {
			kept = append(kept, entry)
		}
	}
	store.entries = kept
}

func (store *stubStore) ListEntries(context.Context) ([]Entry, error) {
	return append([]Entry(nil), store.entries...), nil
}

func (store *stubStore) ListEntriesByMatch(_ context.Context, matchID MatchID) ([]Entry, error) {
	var result []Entry
	for _, entry := range store.entries {
		if entry.MatchID == matchID {
			result = append(result, entry)
		}
	}
	return result, nil
}

func (store *stubStore) ListEntriesByCustomer(_ context.Context, customerID CustomerID) ([]Entry, error) {
	var result []Entry
	for _, entry := range store.entries {
		if entry.CustomerID == customerID {
			result = append(result, entry)
		}
	}
	return result, nil
}

func (store *stubStore) DeleteEntriesByMatch(_ context.Context, matchID MatchID) error {
	store.filterEntries(func(entry Entry) bool { return entry.MatchID != matchID })
	return nil
}

func (store *stubStore) DeleteEntriesByCustomer(_ context.Context, customerID CustomerID) error {
	store.filterEntries(func(entry Entry) bool { return entry.CustomerID != customerID })
	return nil
}

func (store *stubStore) RenameCustomerEntries(_ context.Context, customerID CustomerID, name string) error {
	for index := range store.entries {
		if store.entries[index].CustomerID == customerID {
			store.entries[index].CustomerName = name
		}
	}
	return nil
}

func (store *stubStore) InsertSettlement(_ context.Context, settlement Settlement) error {
	for _, existing := range store.settlements {
		if existing.MatchID == settlement.MatchID {
			return ErrDuplicateSettlement
		}
	}
	store.settlements = append(store.settlements, settlement)
	return nil
}

func (store *stubStore) GetSettlement(_ context.Context, matchID MatchID) (Settlement, error) {
	for _, settlement := range store.settlements {
		if settlement.MatchID == matchID {
			return settlement, nil
		}
	}
	return Settlement{}, ErrSettlementNotFound
}

func (store *stubStore) ListSettlements(context.Context) ([]Settlement, error) {
	return append([]Settlement(nil), store.settlements...), nil
}

func (store *stubStore) DeleteSettlementsByMatch(_ context.Context, matchID MatchID) error {
	kept := store.settlements[:0:0]
	for _, settlement := range store.settlements {
		if settlement.MatchID != matchID {
			kept = append(kept, settlement)
		}
	}
	store.settlements = kept
	return nil
}

// failingStore fails every call with the configured error.
type failingStore struct {
	stubStore
	err error
}

func newFailingStore(test *testing.T, err error) *failingStore {
	test.Helper()
	return &failingStore{err: err}
}

func (store *failingStore) WithTx(context.Context, func(context.Context, Store) error) error {
	return store.err
}

func (store *failingStore) ListMatches(context.Context) ([]Match, error) {
	return nil, store.err
}

func (store *failingStore) GetMatch(context.Context, MatchID) (Match, error) {
	return Match{}, store.err
}

func sequenceIDs(prefix string) func() string {
	counter := 0
	return func() string {
		counter++
		return fmt.Sprintf("%s-%d", prefix, counter)
	}
}

func mustNewService(test *testing.T, store Store, options ...ServiceOption) *Service {
	test.Helper()
	options = append([]ServiceOption{WithIDGenerator(sequenceIDs("id"))}, options...)
	service, err := NewService(store, func() time.Time { return fixedNow }, options...)
	if err != nil {
		test.Fatalf("new service: %v", err)
	}
	return service
}

func mustMatch(test *testing.T, service *Service, name string) Match {
	test.Helper()
	match, err := service.CreateMatch(context.Background(), MatchInput{Name: name, TeamA: "India", TeamB: "Australia"})
	if err != nil {
		test.Fatalf("create match: %v", err)
	}
	return match
}

func mustCustomer(test *testing.T, service *Service, name string) Customer {
	test.Helper()
	customer, err := service.CreateCustomer(context.Background(), CustomerInput{Name: name})
	if err != nil {
		test.Fatalf("create customer: %v", err)
	}
	return customer
}

func mustEntry(test *testing.T, service *Service, matchID MatchID, customerID CustomerID, exposureA float64, exposureB float64, sharePercent float64) Entry {
	test.Helper()
	entry, err := service.AddEntry(context.Background(), EntryInput{
		CustomerID:   customerID,
		MatchID:      matchID,
		ExposureA:    exposureA,
		ExposureB:    exposureB,
		SharePercent: sharePercent,
	})
	if err != nil {
		test.Fatalf("add entry: %v", err)
	}
	return entry
}

func mustMatchID(test *testing.T, raw string) MatchID {
	test.Helper()
	matchID, err := NewMatchID(raw)
	if err != nil {
		test.Fatalf("match id: %v", err)
	}
	return matchID
}

func assertErrorIs(test *testing.T, err error, target error) {
	test.Helper()
	if !errors.Is(err, target) {
		test.Fatalf(errorMismatchMessage, target, err)
	}
}

func float64Pointer(value float64) *float64 {
	return &value
}

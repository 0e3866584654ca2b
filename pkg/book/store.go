package book

import "context"

// Store persists matches, customers, entries, and settlements.
// Lookups of missing records return the matching Err*NotFound value.
type Store interface {
	WithTx(ctx context.Context, fn func(ctx context.Context, txStore Store) error) error

	CreateMatch(ctx context.Context, match Match) error
	GetMatch(ctx context.Context, matchID MatchID) (Match, error)
	ListMatches(ctx context.Context) ([]Match, error)
	UpdateMatch(ctx context.Context, match Match) error
	DeleteMatch(ctx context.Context, matchID MatchID) error

	CreateCustomer(ctx context.Context, customer Customer) error
	GetCustomer(ctx context.Context, customerID CustomerID) (Customer, error)
	FindCustomerByName(ctx context.Context, name string) (Customer, error)
	ListCustomers(ctx context.Context) ([]Customer, error)
	UpdateCustomer(ctx context.Context, customer Customer) error
	DeleteCustomer(ctx context.Context, customerID CustomerID) error

	InsertEntry(ctx context.Context, entry Entry) error
	GetEntry(ctx context.Context, entryID EntryID) (Entry, error)
	UpdateEntry(ctx context.Context, entry Entry) error
	DeleteEntry(ctx context.Context, entryID EntryID) error
	ListEntries(ctx context.Context) ([]Entry, error)
	ListEntriesByMatch(ctx context.Context, matchID MatchID) ([]Entry, error)
	ListEntriesByCustomer(ctx context.Context, customerID CustomerID) ([]Entry, error)
	DeleteEntriesByMatch(ctx context.Context, matchID MatchID) error
	DeleteEntriesByCustomer(ctx context.Context, customerID CustomerID) error
	RenameCustomerEntries(ctx context.Context, customerID CustomerID, name string) error

	InsertSettlement(ctx context.Context, settlement Settlement) error
	GetSettlement(ctx context.Context, matchID MatchID) (Settlement, error)
	ListSettlements(ctx context.Context) ([]Settlement, error)
	DeleteSettlementsByMatch(ctx context.Context, matchID MatchID) error
}

package gormstore

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/MarkoPoloResearchLab/bookledger/pkg/book"
	gosqlite "github.com/glebarez/go-sqlite"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	constraintSettlementMatch = "uniq_settlements_match"
	constraintCustomerNameKey = "uniq_customers_name_key"
	sqliteSettlementColumn    = "settlements.match_id"
	sqliteCustomerNameColumn  = "customers.name_key"
	pgUniqueViolationCode     = "23505"
	sqliteConstraintCode      = 19
	errorOperationStore       = "store"
	errorSubjectMatch         = "match"
	errorSubjectCustomer      = "customer"
	errorSubjectEntry         = "entry"
	errorSubjectSettlement    = "settlement"
	errorCodeCreate           = "create"
	errorCodeDelete           = "delete"
	errorCodeDuplicate        = "duplicate"
	errorCodeGet              = "get"
	errorCodeInsert           = "insert"
	errorCodeInvalid          = "invalid"
	errorCodeList             = "list"
	errorCodeLookup           = "lookup"
	errorCodeRename           = "rename"
	errorCodeUpdate           = "update"
)

// Store implements book.Store using GORM.
type Store struct {
	db   *gorm.DB
	inTx bool
}

// New returns a Store backed by gorm.DB.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Migrate creates or updates every table the store needs.
func Migrate(ctx context.Context, db *gorm.DB) error {
	return db.WithContext(ctx).AutoMigrate(Models()...)
}

// WithTx executes fn within a transaction.
func (store *Store) WithTx(ctx context.Context, fn func(ctx context.Context, txStore book.Store) error) error {
	return store.db.WithContext(ctx).Transaction(func(transaction *gorm.DB) error {
		return fn(ctx, &Store{db: transaction, inTx: true})
	})
}

// query returns a context-bound handle, row-locking reads inside transactions.
func (store *Store) query(ctx context.Context, lock bool) *gorm.DB {
	db := store.db.WithContext(ctx)
	if lock && store.inTx {
		db = db.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return db
}

func (store *Store) CreateMatch(ctx context.Context, match book.Match) error {
	model := matchModel(match)
	if err := store.db.WithContext(ctx).Create(&model).Error; err != nil {
		return wrapStoreError(errorSubjectMatch, errorCodeCreate, err)
	}
	return nil
}

func (store *Store) GetMatch(ctx context.Context, matchID book.MatchID) (book.Match, error) {
	var model Match
	err := store.query(ctx, true).Where("match_id = ?", matchID.String()).Take(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return book.Match{}, wrapStoreError(errorSubjectMatch, errorCodeGet, book.ErrMatchNotFound)
		}
		return book.Match{}, wrapStoreError(errorSubjectMatch, errorCodeGet, err)
	}
	match, err := mapMatch(model)
	if err != nil {
		return book.Match{}, wrapStoreError(errorSubjectMatch, errorCodeInvalid, err)
	}
	return match, nil
}

func (store *Store) ListMatches(ctx context.Context) ([]book.Match, error) {
	var rows []Match
	if err := store.db.WithContext(ctx).Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, wrapStoreError(errorSubjectMatch, errorCodeList, err)
	}
	matches := make([]book.Match, 0, len(rows))
	for _, row := range rows {
		match, err := mapMatch(row)
		if err != nil {
			return nil, wrapStoreError(errorSubjectMatch, errorCodeInvalid, err)
		}
		matches = append(matches, match)
	}
	return matches, nil
}

func (store *Store) UpdateMatch(ctx context.Context, match book.Match) error {
	model := matchModel(match)
	result := store.db.WithContext(ctx).
		Model(&Match{}).
		Where("match_id = ?", model.MatchID).
		Updates(map[string]interface{}{
			"name":         model.Name,
			"team_a":       model.TeamA,
			"team_b":       model.TeamB,
			"status":       model.Status,
			"start_time":   model.StartTime,
			"winning_side": model.WinningSide,
			"settled_at":   model.SettledAt,
		})
	if result.Error != nil {
		return wrapStoreError(errorSubjectMatch, errorCodeUpdate, result.Error)
	}
	if result.RowsAffected == 0 {
		return wrapStoreError(errorSubjectMatch, errorCodeUpdate, book.ErrMatchNotFound)
	}
	return nil
}

func (store *Store) DeleteMatch(ctx context.Context, matchID book.MatchID) error {
	result := store.db.WithContext(ctx).Where("match_id = ?", matchID.String()).Delete(&Match{})
	if result.Error != nil {
		return wrapStoreError(errorSubjectMatch, errorCodeDelete, result.Error)
	}
	if result.RowsAffected == 0 {
		return wrapStoreError(errorSubjectMatch, errorCodeDelete, book.ErrMatchNotFound)
	}
	return nil
}

func (store *Store) CreateCustomer(ctx context.Context, customer book.Customer) error {
	model := customerModel(customer)
	err := store.db.WithContext(ctx).Create(&model).Error
	if isUniqueViolation(err, constraintCustomerNameKey, sqliteCustomerNameColumn) {
		return wrapStoreError(errorSubjectCustomer, errorCodeDuplicate, book.ErrDuplicateCustomer)
	}
	if err != nil {
		return wrapStoreError(errorSubjectCustomer, errorCodeCreate, err)
	}
	return nil
}

func (store *Store) GetCustomer(ctx context.Context, customerID book.CustomerID) (book.Customer, error) {
	return store.takeCustomer(ctx, errorCodeGet, "customer_id = ?", customerID.String())
}

// FindCustomerByName matches names case-insensitively, including non-ASCII letters.
func (store *Store) FindCustomerByName(ctx context.Context, name string) (book.Customer, error) {
	return store.takeCustomer(ctx, errorCodeLookup, "name_key = ?", customerNameKey(name))
}

func (store *Store) takeCustomer(ctx context.Context, code string, condition string, argument string) (book.Customer, error) {
	var model Customer
	err := store.db.WithContext(ctx).Where(condition, argument).Order("created_at ASC").Take(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return book.Customer{}, wrapStoreError(errorSubjectCustomer, code, book.ErrCustomerNotFound)
		}
		return book.Customer{}, wrapStoreError(errorSubjectCustomer, code, err)
	}
	customer, err := mapCustomer(model)
	if err != nil {
		return book.Customer{}, wrapStoreError(errorSubjectCustomer, errorCodeInvalid, err)
	}
	return customer, nil
}

func (store *Store) ListCustomers(ctx context.Context) ([]book.Customer, error) {
	var rows []Customer
	if err := store.db.WithContext(ctx).Order("name ASC").Find(&rows).Error; err != nil {
		return nil, wrapStoreError(errorSubjectCustomer, errorCodeList, err)
	}
	customers := make([]book.Customer, 0, len(rows))
	for _, row := range rows {
		customer, err := mapCustomer(row)
		if err != nil {
			return nil, wrapStoreError(errorSubjectCustomer, errorCodeInvalid, err)
		}
		customers = append(customers, customer)
	}
	return customers, nil
}

func (store *Store) UpdateCustomer(ctx context.Context, customer book.Customer) error {
	model := customerModel(customer)
	result := store.db.WithContext(ctx).
		Model(&Customer{}).
		Where("customer_id = ?", model.CustomerID).
		Updates(map[string]interface{}{
			"name":         model.Name,
			"name_key":     model.NameKey,
			"email":        model.Email,
			"phone":        model.Phone,
			"credit_limit": model.CreditLimit,
			"status":       model.Status,
			"notes":        model.Notes,
		})
	if isUniqueViolation(result.Error, constraintCustomerNameKey, sqliteCustomerNameColumn) {
		return wrapStoreError(errorSubjectCustomer, errorCodeDuplicate, book.ErrDuplicateCustomer)
	}
	if result.Error != nil {
		return wrapStoreError(errorSubjectCustomer, errorCodeUpdate, result.Error)
	}
	if result.RowsAffected == 0 {
		return wrapStoreError(errorSubjectCustomer, errorCodeUpdate, book.ErrCustomerNotFound)
	}
	return nil
}

func (store *Store) DeleteCustomer(ctx context.Context, customerID book.CustomerID) error {
	result := store.db.WithContext(ctx).Where("customer_id = ?", customerID.String()).Delete(&Customer{})
	if result.Error != nil {
		return wrapStoreError(errorSubjectCustomer, errorCodeDelete, result.Error)
	}
	if result.RowsAffected == 0 {
		return wrapStoreError(errorSubjectCustomer, errorCodeDelete, book.ErrCustomerNotFound)
	}
	return nil
}

func (store *Store) InsertEntry(ctx context.Context, entry book.Entry) error {
	model := entryModel(entry)
	if err := store.db.WithContext(ctx).Create(&model).Error; err != nil {
		return wrapStoreError(errorSubjectEntry, errorCodeInsert, err)
	}
	return nil
}

func (store *Store) GetEntry(ctx context.Context, entryID book.EntryID) (book.Entry, error) {
	var model BookEntry
	err := store.query(ctx, true).Where("entry_id = ?", entryID.String()).Take(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return book.Entry{}, wrapStoreError(errorSubjectEntry, errorCodeGet, book.ErrEntryNotFound)
		}
		return book.Entry{}, wrapStoreError(errorSubjectEntry, errorCodeGet, err)
	}
	entry, err := mapEntry(model)
	if err != nil {
		return book.Entry{}, wrapStoreError(errorSubjectEntry, errorCodeInvalid, err)
	}
	return entry, nil
}

func (store *Store) UpdateEntry(ctx context.Context, entry book.Entry) error {
	model := entryModel(entry)
	result := store.db.WithContext(ctx).
		Model(&BookEntry{}).
		Where("entry_id = ?", model.EntryID).
		Updates(map[string]interface{}{
			"customer_id":   model.CustomerID,
			"customer_name": model.CustomerName,
			"exposure_a":    model.ExposureA,
			"exposure_b":    model.ExposureB,
			"share_percent": model.SharePercent,
			"updated_at":    model.UpdatedAt,
		})
	if result.Error != nil {
		return wrapStoreError(errorSubjectEntry, errorCodeUpdate, result.Error)
	}
	if result.RowsAffected == 0 {
		return wrapStoreError(errorSubjectEntry, errorCodeUpdate, book.ErrEntryNotFound)
	}
	return nil
}

func (store *Store) DeleteEntry(ctx context.Context, entryID book.EntryID) error {
	result := store.db.WithContext(ctx).Where("entry_id = ?", entryID.String()).Delete(&BookEntry{})
	if result.Error != nil {
		return wrapStoreError(errorSubjectEntry, errorCodeDelete, result.Error)
	}
	if result.RowsAffected == 0 {
		return wrapStoreError(errorSubjectEntry, errorCodeDelete, book.ErrEntryNotFound)
	}
	return nil
}

func (store *Store) ListEntries(ctx context.Context) ([]book.Entry, error) {
	return store.listEntries(ctx, "", "")
}

func (store *Store) ListEntriesByMatch(ctx context.Context, matchID book.MatchID) ([]book.Entry, error) {
	return store.listEntries(ctx, "match_id = ?", matchID.String())
}

func (store *Store) ListEntriesByCustomer(ctx context.Context, customerID book.CustomerID) ([]book.Entry, error) {
	return store.listEntries(ctx, "customer_id = ?", customerID.String())
}

func (store *Store) listEntries(ctx context.Context, condition string, argument string) ([]book.Entry, error) {
	query := store.db.WithContext(ctx).Order("created_at ASC").Order("sequence ASC")
	if condition != "" {
		query = query.Where(condition, argument)
	}
	var rows []BookEntry
	if err := query.Find(&rows).Error; err != nil {
		return nil, wrapStoreError(errorSubjectEntry, errorCodeList, err)
	}
	entries := make([]book.Entry, 0, len(rows))
	for _, row := range rows {
		entry, err := mapEntry(row)
		if err != nil {
			return nil, wrapStoreError(errorSubjectEntry, errorCodeInvalid, err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (store *Store) DeleteEntriesByMatch(ctx context.Context, matchID book.MatchID) error {
	err := store.db.WithContext(ctx).Where("match_id = ?", matchID.String()).Delete(&BookEntry{}).Error
	if err != nil {
		return wrapStoreError(errorSubjectEntry, errorCodeDelete, err)
	}
	return nil
}

func (store *Store) DeleteEntriesByCustomer(ctx context.Context, customerID book.CustomerID) error {
	err := store.db.WithContext(ctx).Where("customer_id = ?", customerID.String()).Delete(&BookEntry{}).Error
	if err != nil {
		return wrapStoreError(errorSubjectEntry, errorCodeDelete, err)
	}
	return nil
}

func (store *Store) RenameCustomerEntries(ctx context.Context, customerID book.CustomerID, name string) error {
	err := store.db.WithContext(ctx).
		Model(&BookEntry{}).
		Where("customer_id = ?", customerID.String()).
		Update("customer_name", name).Error
	if err != nil {
		return wrapStoreError(errorSubjectEntry, errorCodeRename, err)
	}
	return nil
}

func (store *Store) InsertSettlement(ctx context.Context, settlement book.Settlement) error {
	model, err := settlementModel(settlement)
	if err != nil {
		return wrapStoreError(errorSubjectSettlement, errorCodeInvalid, err)
	}
	err = store.db.WithContext(ctx).Create(&model).Error
	if isUniqueViolation(err, constraintSettlementMatch, sqliteSettlementColumn) {
		return wrapStoreError(errorSubjectSettlement, errorCodeDuplicate, book.ErrDuplicateSettlement)
	}
	if err != nil {
		return wrapStoreError(errorSubjectSettlement, errorCodeInsert, err)
	}
	return nil
}

func (store *Store) GetSettlement(ctx context.Context, matchID book.MatchID) (book.Settlement, error) {
	var model Settlement
	err := store.db.WithContext(ctx).Where("match_id = ?", matchID.String()).Take(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return book.Settlement{}, wrapStoreError(errorSubjectSettlement, errorCodeGet, book.ErrSettlementNotFound)
		}
		return book.Settlement{}, wrapStoreError(errorSubjectSettlement, errorCodeGet, err)
	}
	settlement, err := mapSettlement(model)
	if err != nil {
		return book.Settlement{}, wrapStoreError(errorSubjectSettlement, errorCodeInvalid, err)
	}
	return settlement, nil
}

func (store *Store) ListSettlements(ctx context.Context) ([]book.Settlement, error) {
	var rows []Settlement
	if err := store.db.WithContext(ctx).Order("settled_at DESC").Find(&rows).Error; err != nil {
		return nil, wrapStoreError(errorSubjectSettlement, errorCodeList, err)
	}
	settlements := make([]book.Settlement, 0, len(rows))
	for _, row := range rows {
		settlement, err := mapSettlement(row)
		if err != nil {
			return nil, wrapStoreError(errorSubjectSettlement, errorCodeInvalid, err)
		}
		settlements = append(settlements, settlement)
	}
	return settlements, nil
}

func (store *Store) DeleteSettlementsByMatch(ctx context.Context, matchID book.MatchID) error {
	err := store.db.WithContext(ctx).Where("match_id = ?", matchID.String()).Delete(&Settlement{}).Error
	if err != nil {
		return wrapStoreError(errorSubjectSettlement, errorCodeDelete, err)
	}
	return nil
}

func wrapStoreError(subject string, code string, err error) error {
	return book.WrapError(errorOperationStore, subject, code, err)
}

func matchModel(match book.Match) Match {
	var winningSide *string
	if match.WinningSide != nil {
		value := match.WinningSide.String()
		winningSide = &value
	}
	return Match{
		MatchID:     match.ID.String(),
		Name:        match.Name,
		TeamA:       match.TeamA,
		TeamB:       match.TeamB,
		Status:      match.Status.String(),
		StartTime:   match.StartTime,
		WinningSide: winningSide,
		SettledAt:   match.SettledAt,
		CreatedAt:   match.CreatedAt,
	}
}

func mapMatch(row Match) (book.Match, error) {
	matchID, err := book.NewMatchID(row.MatchID)
	if err != nil {
		return book.Match{}, err
	}
	status, err := book.ParseMatchStatus(row.Status)
	if err != nil {
		return book.Match{}, err
	}
	var winningSide *book.Side
	if row.WinningSide != nil {
		side, err := book.ParseSide(*row.WinningSide)
		if err != nil {
			return book.Match{}, err
		}
		winningSide = &side
	}
	return book.Match{
		ID:          matchID,
		Name:        row.Name,
		TeamA:       row.TeamA,
		TeamB:       row.TeamB,
		Status:      status,
		StartTime:   utcPointer(row.StartTime),
		WinningSide: winningSide,
		SettledAt:   utcPointer(row.SettledAt),
		CreatedAt:   row.CreatedAt.UTC(),
	}, nil
}

func customerModel(customer book.Customer) Customer {
	return Customer{
		CustomerID:  customer.ID.String(),
		Name:        customer.Name,
		NameKey:     customerNameKey(customer.Name),
		Email:       customer.Email,
		Phone:       customer.Phone,
		CreditLimit: customer.CreditLimit,
		Status:      customer.Status.String(),
		Notes:       customer.Notes,
		CreatedAt:   customer.CreatedAt,
	}
}

func mapCustomer(row Customer) (book.Customer, error) {
	customerID, err := book.NewCustomerID(row.CustomerID)
	if err != nil {
		return book.Customer{}, err
	}
	status, err := book.ParseCustomerStatus(row.Status)
	if err != nil {
		return book.Customer{}, err
	}
	return book.Customer{
		ID:          customerID,
		Name:        row.Name,
		Email:       row.Email,
		Phone:       row.Phone,
		CreditLimit: row.CreditLimit,
		Status:      status,
		Notes:       row.Notes,
		CreatedAt:   row.CreatedAt.UTC(),
	}, nil
}

func entryModel(entry book.Entry) BookEntry {
	return BookEntry{
		EntryID:      entry.ID.String(),
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

func mapEntry(row BookEntry) (book.Entry, error) {
	entryID, err := book.NewEntryID(row.EntryID)
	if err != nil {
		return book.Entry{}, err
	}
	customerID, err := book.NewCustomerID(row.CustomerID)
	if err != nil {
		return book.Entry{}, err
	}
	matchID, err := book.NewMatchID(row.MatchID)
	if err != nil {
		return book.Entry{}, err
	}
	return book.Entry{
		ID:           entryID,
		CustomerID:   customerID,
		CustomerName: row.CustomerName,
		MatchID:      matchID,
		ExposureA:    row.ExposureA,
		ExposureB:    row.ExposureB,
		SharePercent: row.SharePercent,
		CreatedAt:    row.CreatedAt.UTC(),
		UpdatedAt:    row.UpdatedAt.UTC(),
	}, nil
}

func settlementModel(settlement book.Settlement) (Settlement, error) {
	records := make([]payoutRecord, 0, len(settlement.Payouts))
	for _, payout := range settlement.Payouts {
		records = append(records, payoutRecord{
			EntryID:    payout.EntryID.String(),
			CustomerID: payout.CustomerID.String(),
			Payout:     payout.Payout,
		})
	}
	encoded, err := json.Marshal(records)
	if err != nil {
		return Settlement{}, err
	}
	return Settlement{
		SettlementID: settlement.ID,
		MatchID:      settlement.MatchID.String(),
		WinningSide:  settlement.WinningSide.String(),
		TotalPayout:  settlement.TotalPayout,
		NetProfit:    settlement.NetProfit,
		Payouts:      datatypes.JSON(encoded),
		SettledAt:    settlement.SettledAt,
	}, nil
}

func mapSettlement(row Settlement) (book.Settlement, error) {
	matchID, err := book.NewMatchID(row.MatchID)
	if err != nil {
		return book.Settlement{}, err
	}
	side, err := book.ParseSide(row.WinningSide)
	if err != nil {
		return book.Settlement{}, err
	}
	var records []payoutRecord
	if len(row.Payouts) > 0 {
		if err := json.Unmarshal([]byte(row.Payouts), &records); err != nil {
			return book.Settlement{}, err
		}
	}
	payouts := make([]book.EntryPayout, 0, len(records))
	for _, record := range records {
		entryID, err := book.NewEntryID(record.EntryID)
		if err != nil {
			return book.Settlement{}, err
		}
		customerID, err := book.NewCustomerID(record.CustomerID)
		if err != nil {
			return book.Settlement{}, err
		}
		payouts = append(payouts, book.EntryPayout{EntryID: entryID, CustomerID: customerID, Payout: record.Payout})
	}
	return book.Settlement{
		ID:          row.SettlementID,
		MatchID:     matchID,
		WinningSide: side,
		TotalPayout: row.TotalPayout,
		NetProfit:   row.NetProfit,
		SettledAt:   row.SettledAt.UTC(),
		Payouts:     payouts,
	}, nil
}

func utcPointer(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	converted := value.UTC()
	return &converted
}

// isUniqueViolation reports whether err came from the named unique index.
// SQLite does not report index names, only the offending column.
func isUniqueViolation(err error, constraint string, sqliteColumn string) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolationCode && pgErr.ConstraintName == constraint
	}
	var sqliteErr *gosqlite.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code()&0xFF == sqliteConstraintCode && strings.Contains(sqliteErr.Error(), sqliteColumn)
	}
	return false
}

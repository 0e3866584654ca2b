package gormstore

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Match mirrors the matches table.
type Match struct {
	MatchID     string     `gorm:"type:uuid;primaryKey"`
	Name        string     `gorm:"not null"`
	TeamA       string     `gorm:"not null"`
	TeamB       string     `gorm:"not null"`
	Status      string     `gorm:"not null;index"`
	StartTime   *time.Time `gorm:""`
	WinningSide *string    `gorm:"size:1"`
	SettledAt   *time.Time `gorm:""`
	CreatedAt   time.Time  `gorm:"not null;index"`
}

func (Match) TableName() string { return "matches" }

func (match *Match) BeforeCreate(tx *gorm.DB) error {
	if match.MatchID == "" {
		match.MatchID = uuid.NewString()
	}
	return nil
}

// Customer mirrors the customers table.
type Customer struct {
	CustomerID  string    `gorm:"type:uuid;primaryKey"`
	Name        string    `gorm:"not null;index"`
	NameKey     string    `gorm:"not null;uniqueIndex:uniq_customers_name_key"`
	Email       string    `gorm:"not null;default:''"`
	Phone       string    `gorm:"not null;default:''"`
	CreditLimit *float64  `gorm:"type:double precision"`
	Status      string    `gorm:"not null"`
	Notes       string    `gorm:"not null;default:''"`
	CreatedAt   time.Time `gorm:"not null"`
}

func (Customer) TableName() string { return "customers" }

func (customer *Customer) BeforeCreate(tx *gorm.DB) error {
	if customer.CustomerID == "" {
		customer.CustomerID = uuid.NewString()
	}
	customer.NameKey = customerNameKey(customer.Name)
	return nil
}

// customerNameKey folds a name for case-insensitive lookups. Folding happens in Go
// because SQLite's lower() only handles ASCII.
func customerNameKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// BookEntry mirrors the book_entries table.
type BookEntry struct {
	EntryID      string    `gorm:"type:uuid;primaryKey"`
	CustomerID   string    `gorm:"type:uuid;not null;index"`
	CustomerName string    `gorm:"not null"`
	MatchID      string    `gorm:"type:uuid;not null;index:idx_book_entries_match_created,priority:1"`
	ExposureA    float64   `gorm:"type:double precision;not null"`
	ExposureB    float64   `gorm:"type:double precision;not null"`
	SharePercent float64   `gorm:"type:double precision;not null"`
	Sequence     int64     `gorm:"not null;index:idx_book_entries_match_created,priority:3"`
	CreatedAt    time.Time `gorm:"not null;index:idx_book_entries_match_created,priority:2"`
	UpdatedAt    time.Time `gorm:"not null"`
}

func (BookEntry) TableName() string { return "book_entries" }

func (entry *BookEntry) BeforeCreate(tx *gorm.DB) error {
	if entry.EntryID == "" {
		entry.EntryID = uuid.NewString()
	}
	if entry.Sequence == 0 {
		entry.Sequence = nextSequence()
	}
	return nil
}

var (
	sequenceMutex sync.Mutex
	lastSequence  int64
)

// nextSequence orders entries that share a created_at timestamp.
func nextSequence() int64 {
	sequenceMutex.Lock()
	defer sequenceMutex.Unlock()
	candidate := time.Now().UnixNano()
	if candidate <= lastSequence {
		candidate = lastSequence + 1
	}
	lastSequence = candidate
	return candidate
}

// Settlement mirrors the settlements table. One row per match.
type Settlement struct {
	SettlementID string         `gorm:"type:uuid;primaryKey"`
	MatchID      string         `gorm:"type:uuid;not null;uniqueIndex:uniq_settlements_match"`
	WinningSide  string         `gorm:"size:1;not null"`
	TotalPayout  float64        `gorm:"type:double precision;not null"`
	NetProfit    float64        `gorm:"type:double precision;not null"`
	Payouts      datatypes.JSON `gorm:"not null"`
	SettledAt    time.Time      `gorm:"not null;index"`
}

func (Settlement) TableName() string { return "settlements" }

func (settlement *Settlement) BeforeCreate(tx *gorm.DB) error {
	if settlement.SettlementID == "" {
		settlement.SettlementID = uuid.NewString()
	}
	return nil
}

// payoutRecord is the JSON shape of one element of Settlement.Payouts.
type payoutRecord struct {
	EntryID    string  `json:"entry_id"`
	CustomerID string  `json:"customer_id"`
	Payout     float64 `json:"payout"`
}

// Models lists every table for AutoMigrate.
func Models() []interface{} {
	return []interface{}{&Match{}, &Customer{}, &BookEntry{}, &Settlement{}}
}

package book

import (
	"fmt"
	"math"
	"net/mail"
	"strings"
	"time"
)

// MatchID identifies a match.
type MatchID struct {
	value string
}

// CustomerID identifies a customer.
type CustomerID struct {
	value string
}

// EntryID identifies a ledger entry.
type EntryID struct {
	value string
}

// NewMatchID validates and normalizes a match id.
func NewMatchID(raw string) (MatchID, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return MatchID{}, fmt.Errorf("%w: empty value", ErrInvalidMatchID)
	}
	return MatchID{value: trimmed}, nil
}

// String returns the normalized identifier.
func (id MatchID) String() string {
	return id.value
}

// IsZero reports whether the id was never assigned.
func (id MatchID) IsZero() bool {
	return id.value == ""
}

// NewCustomerID validates and normalizes a customer id.
func NewCustomerID(raw string) (CustomerID, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return CustomerID{}, fmt.Errorf("%w: empty value", ErrInvalidCustomerID)
	}
	return CustomerID{value: trimmed}, nil
}

// String returns the normalized identifier.
func (id CustomerID) String() string {
	return id.value
}

// IsZero reports whether the id was never assigned.
func (id CustomerID) IsZero() bool {
	return id.value == ""
}

// NewEntryID validates and normalizes an entry id.
func NewEntryID(raw string) (EntryID, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return EntryID{}, fmt.Errorf("%w: empty value", ErrInvalidEntryID)
	}
	return EntryID{value: trimmed}, nil
}

// String returns the normalized identifier.
func (id EntryID) String() string {
	return id.value
}

// IsZero reports whether the id was never assigned.
func (id EntryID) IsZero() bool {
	return id.value == ""
}

// Side names one of the two outcomes of a match.
type Side string

const (
	SideA Side = "A"
	SideB Side = "B"
)

// ParseSide validates a side label, accepting lower case.
func ParseSide(raw string) (Side, error) {
	switch Side(strings.ToUpper(strings.TrimSpace(raw))) {
	case SideA:
		return SideA, nil
	case SideB:
		return SideB, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidSide, raw)
	}
}

// String returns the side label.
func (side Side) String() string {
	return string(side)
}

// MatchStatus defines the match lifecycle. Statuses only move forward.
type MatchStatus string

const (
	MatchStatusUpcoming  MatchStatus = "upcoming"
	MatchStatusLive      MatchStatus = "live"
	MatchStatusCompleted MatchStatus = "completed"
	MatchStatusSettled   MatchStatus = "settled"
)

var matchStatusRank = map[MatchStatus]int{
	MatchStatusUpcoming:  0,
	MatchStatusLive:      1,
	MatchStatusCompleted: 2,
	MatchStatusSettled:   3,
}

// ParseMatchStatus validates a stored or user supplied status.
func ParseMatchStatus(raw string) (MatchStatus, error) {
	status := MatchStatus(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := matchStatusRank[status]; !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidMatchStatus, raw)
	}
	return status, nil
}

// String returns the status label.
func (status MatchStatus) String() string {
	return string(status)
}

// validateTransition rejects backward moves and manual settlement.
func (status MatchStatus) validateTransition(next MatchStatus) error {
	if status == MatchStatusSettled {
		return ErrMatchAlreadySettled
	}
	if next == MatchStatusSettled {
		return fmt.Errorf("%w: settle the match to reach %s", ErrInvalidStatusTransition, MatchStatusSettled)
	}
	if matchStatusRank[next] < matchStatusRank[status] {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidStatusTransition, status, next)
	}
	return nil
}

// CustomerStatus defines whether a customer is still trading.
type CustomerStatus string

const (
	CustomerStatusActive    CustomerStatus = "active"
	CustomerStatusSuspended CustomerStatus = "suspended"
	CustomerStatusInactive  CustomerStatus = "inactive"
)

// ParseCustomerStatus validates a customer status.
func ParseCustomerStatus(raw string) (CustomerStatus, error) {
	switch CustomerStatus(strings.ToLower(strings.TrimSpace(raw))) {
	case CustomerStatusActive:
		return CustomerStatusActive, nil
	case CustomerStatusSuspended:
		return CustomerStatusSuspended, nil
	case CustomerStatusInactive:
		return CustomerStatusInactive, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidCustomerStatus, raw)
	}
}

// String returns the status label.
func (status CustomerStatus) String() string {
	return string(status)
}

// Match is a two-sided event the book takes positions on.
type Match struct {
	ID          MatchID
	Name        string
	TeamA       string
	TeamB       string
	Status      MatchStatus
	StartTime   *time.Time
	WinningSide *Side
	SettledAt   *time.Time
	CreatedAt   time.Time
}

// IsSettled reports whether the match reached its terminal status.
func (match Match) IsSettled() bool {
	return match.Status == MatchStatusSettled
}

// Customer is a bettor whose positions are recorded on the book.
type Customer struct {
	ID          CustomerID
	Name        string
	Email       string
	Phone       string
	CreditLimit *float64
	Status      CustomerStatus
	Notes       string
	CreatedAt   time.Time
}

// Entry is one customer's exposure on one match.
// Negative exposure is a liability of the book if that side wins.
type Entry struct {
	ID           EntryID
	CustomerID   CustomerID
	CustomerName string
	MatchID      MatchID
	ExposureA    float64
	ExposureB    float64
	SharePercent float64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// EntryPayout attributes part of a settlement to a single entry.
type EntryPayout struct {
	EntryID    EntryID
	CustomerID CustomerID
	Payout     float64
}

// Settlement is the immutable outcome of settling a match.
// TotalPayout and NetProfit always carry the same value.
type Settlement struct {
	ID          string
	MatchID     MatchID
	WinningSide Side
	TotalPayout float64
	NetProfit   float64
	SettledAt   time.Time
	Payouts     []EntryPayout
}

// MatchInput carries the fields needed to open a match.
type MatchInput struct {
	Name      string
	TeamA     string
	TeamB     string
	StartTime *time.Time
}

// MatchUpdate carries optional match changes; nil fields are left alone.
type MatchUpdate struct {
	Name      *string
	TeamA     *string
	TeamB     *string
	StartTime *time.Time
	Status    *MatchStatus
}

// CustomerInput carries the fields needed to register a customer.
type CustomerInput struct {
	Name        string
	Email       string
	Phone       string
	CreditLimit *float64
	Notes       string
}

// CustomerUpdate carries optional customer changes; nil fields are left alone.
type CustomerUpdate struct {
	Name        *string
	Email       *string
	Phone       *string
	CreditLimit *float64
	Status      *CustomerStatus
	Notes       *string
}

// EntryInput carries a new ledger entry.
type EntryInput struct {
	CustomerID   CustomerID
	MatchID      MatchID
	ExposureA    float64
	ExposureB    float64
	SharePercent float64
}

// EntryUpdate carries optional entry changes; nil fields are left alone.
type EntryUpdate struct {
	CustomerID   *CustomerID
	ExposureA    *float64
	ExposureB    *float64
	SharePercent *float64
}

// ImportRow is one parsed spreadsheet row keyed by customer name.
type ImportRow struct {
	Name         string
	ExposureA    float64
	ExposureB    float64
	SharePercent float64
}

// ConvertRequest describes a customer back bet to be turned into an entry.
type ConvertRequest struct {
	Name         string
	Stake        float64
	Odds         float64
	Side         Side
	SharePercent float64
}

const (
	minimumStake = 0.01
	minimumOdds  = 1.01
)

func normalizeName(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", fmt.Errorf("%w: empty value", ErrInvalidName)
	}
	return trimmed, nil
}

func validateSharePercent(value float64) error {
	if math.IsNaN(value) || value < 0 || value > 100 {
		return fmt.Errorf("%w: must be between 0 and 100", ErrInvalidSharePercent)
	}
	return nil
}

func validateExposure(value float64) error {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return fmt.Errorf("%w: must be finite", ErrInvalidExposure)
	}
	return nil
}

func normalizeEmail(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", nil
	}
	address, err := mail.ParseAddress(trimmed)
	if err != nil || address.Address != trimmed {
		return "", fmt.Errorf("%w: %q", ErrInvalidEmail, raw)
	}
	return trimmed, nil
}

func validateCreditLimit(limit *float64) error {
	if limit == nil {
		return nil
	}
	if math.IsNaN(*limit) || *limit < 0 {
		return fmt.Errorf("%w: must not be negative", ErrInvalidCreditLimit)
	}
	return nil
}

func (request ConvertRequest) validate() error {
	if _, err := normalizeName(request.Name); err != nil {
		return err
	}
	if math.IsNaN(request.Stake) || request.Stake < minimumStake {
		return fmt.Errorf("%w: must be at least %.2f", ErrInvalidStake, minimumStake)
	}
	if math.IsNaN(request.Odds) || math.IsInf(request.Odds, 0) || request.Odds < minimumOdds {
		return fmt.Errorf("%w: must be at least %.2f", ErrInvalidOdds, minimumOdds)
	}
	if _, err := ParseSide(request.Side.String()); err != nil {
		return err
	}
	return validateSharePercent(request.SharePercent)
}

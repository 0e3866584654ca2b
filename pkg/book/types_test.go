package book

import (
	"errors"
	"testing"
)

func TestIdentifierConstructorsRejectBlank(test *testing.T) {
	test.Parallel()
	if _, err := NewMatchID("  "); !errors.Is(err, ErrInvalidMatchID) {
		test.Fatalf(errorMismatchMessage, ErrInvalidMatchID, err)
	}
	if _, err := NewCustomerID(""); !errors.Is(err, ErrInvalidCustomerID) {
		test.Fatalf(errorMismatchMessage, ErrInvalidCustomerID, err)
	}
	if _, err := NewEntryID("\t"); !errors.Is(err, ErrInvalidEntryID) {
		test.Fatalf(errorMismatchMessage, ErrInvalidEntryID, err)
	}
	matchID, err := NewMatchID(" m-1 ")
	if err != nil || matchID.String() != "m-1" {
		test.Fatalf("expected trimmed id, got %q (%v)", matchID.String(), err)
	}
}

func TestParseSide(test *testing.T) {
	test.Parallel()
	testCases := []struct {
		raw      string
		expected Side
		err      error
	}{
		{raw: "A", expected: SideA},
		{raw: " b ", expected: SideB},
		{raw: "draw", err: ErrInvalidSide},
		{raw: "", err: ErrInvalidSide},
	}
	for _, testCase := range testCases {
		side, err := ParseSide(testCase.raw)
		if testCase.err != nil {
			if !errors.Is(err, testCase.err) {
				test.Fatalf("%q: "+errorMismatchMessage, testCase.raw, testCase.err, err)
			}
			continue
		}
		if err != nil || side != testCase.expected {
			test.Fatalf("%q: "+errorMismatchMessage, testCase.raw, testCase.expected, side)
		}
	}
}

func TestMatchStatusTransitions(test *testing.T) {
	test.Parallel()
	testCases := []struct {
		name string
		from MatchStatus
		to   MatchStatus
		err  error
	}{
		{name: "upcoming to live", from: MatchStatusUpcoming, to: MatchStatusLive},
		{name: "skip forward", from: MatchStatusUpcoming, to: MatchStatusCompleted},
		{name: "same status", from: MatchStatusLive, to: MatchStatusLive},
		{name: "backward", from: MatchStatusCompleted, to: MatchStatusLive, err: ErrInvalidStatusTransition},
		{name: "manual settle", from: MatchStatusCompleted, to: MatchStatusSettled, err: ErrInvalidStatusTransition},
		{name: "reopen settled", from: MatchStatusSettled, to: MatchStatusLive, err: ErrMatchAlreadySettled},
	}
	for _, testCase := range testCases {
		testCase := testCase
		test.Run(testCase.name, func(test *testing.T) {
			test.Parallel()
			err := testCase.from.validateTransition(testCase.to)
			if testCase.err == nil && err != nil {
				test.Fatalf("unexpected error: %v", err)
			}
			if testCase.err != nil && !errors.Is(err, testCase.err) {
				test.Fatalf(errorMismatchMessage, testCase.err, err)
			}
		})
	}
}

func TestParseStatuses(test *testing.T) {
	test.Parallel()
	if status, err := ParseMatchStatus("LIVE"); err != nil || status != MatchStatusLive {
		test.Fatalf(errorMismatchMessage, MatchStatusLive, status)
	}
	if _, err := ParseMatchStatus("postponed"); !errors.Is(err, ErrInvalidMatchStatus) {
		test.Fatalf(errorMismatchMessage, ErrInvalidMatchStatus, err)
	}
	if status, err := ParseCustomerStatus("suspended"); err != nil || status != CustomerStatusSuspended {
		test.Fatalf(errorMismatchMessage, CustomerStatusSuspended, status)
	}
	if _, err := ParseCustomerStatus("banned"); !errors.Is(err, ErrInvalidCustomerStatus) {
		test.Fatalf(errorMismatchMessage, ErrInvalidCustomerStatus, err)
	}
}

func TestValidationHelpers(test *testing.T) {
	test.Parallel()
	if err := validateSharePercent(100.5); !errors.Is(err, ErrInvalidSharePercent) {
		test.Fatalf(errorMismatchMessage, ErrInvalidSharePercent, err)
	}
	if err := validateSharePercent(0); err != nil {
		test.Fatalf("zero share should be valid: %v", err)
	}
	if _, err := normalizeEmail("not-an-email"); !errors.Is(err, ErrInvalidEmail) {
		test.Fatalf(errorMismatchMessage, ErrInvalidEmail, err)
	}
	if email, err := normalizeEmail(" ravi@example.com "); err != nil || email != "ravi@example.com" {
		test.Fatalf("unexpected email %q (%v)", email, err)
	}
	if err := validateCreditLimit(float64Pointer(-1)); !errors.Is(err, ErrInvalidCreditLimit) {
		test.Fatalf(errorMismatchMessage, ErrInvalidCreditLimit, err)
	}
}

func TestConvertRequestValidation(test *testing.T) {
	test.Parallel()
	valid := ConvertRequest{Name: "Ravi", Stake: 100, Odds: 1.5, Side: SideA, SharePercent: 10}
	testCases := []struct {
		name   string
		mutate func(*ConvertRequest)
		err    error
	}{
		{name: "blank name", mutate: func(request *ConvertRequest) { request.Name = " " }, err: ErrInvalidName},
		{name: "tiny stake", mutate: func(request *ConvertRequest) { request.Stake = 0.001 }, err: ErrInvalidStake},
		{name: "odds below minimum", mutate: func(request *ConvertRequest) { request.Odds = 1 }, err: ErrInvalidOdds},
		{name: "unknown side", mutate: func(request *ConvertRequest) { request.Side = "C" }, err: ErrInvalidSide},
		{name: "share above range", mutate: func(request *ConvertRequest) { request.SharePercent = 101 }, err: ErrInvalidSharePercent},
	}
	if err := valid.validate(); err != nil {
		test.Fatalf("valid request rejected: %v", err)
	}
	for _, testCase := range testCases {
		request := valid
		testCase.mutate(&request)
		if err := request.validate(); !errors.Is(err, testCase.err) {
			test.Fatalf("%s: "+errorMismatchMessage, testCase.name, testCase.err, err)
		}
	}
}

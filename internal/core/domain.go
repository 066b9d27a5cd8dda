package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	CategoryExpense CategoryType = "expense"
	CategoryIncome  CategoryType = "income"
	CategoryBoth    CategoryType = "both"
)

type (
	CategoryType string

	// Category is a read-only reference entity. The pipeline never creates
	// categories; it only resolves classifier guesses against the snapshot
	// captured at session start.
	Category struct {
		ID            string
		Name          string
		Icon          string
		Color         string
		MonthlyBudget decimal.Decimal
		Type          CategoryType
		SortOrder     int
	}

	// ParsedTransaction is the canonical transaction shape produced by the
	// normaliser. Amount is always non-negative; the original sign lives in
	// IsIncome.
	ParsedTransaction struct {
		Date        Date
		Amount      decimal.Decimal
		IsIncome    bool
		Description string
		Recipient   string
		CategoryID  string
	}

	// TransactionRecord is the persisted row shape. CategoryID is empty when
	// the row was committed without an assignment.
	TransactionRecord struct {
		ID          string
		Date        Date
		Amount      decimal.Decimal
		IsIncome    bool
		Description string
		Recipient   string
		CategoryID  string
		CreatedAt   time.Time
	}

	SavingsGoal struct {
		ID            string
		Name          string
		TargetAmount  decimal.Decimal
		CurrentAmount decimal.Decimal
		Deadline      Date
	}
)

var (
	ErrInvalidAmount = errors.New("amount must not be negative")
	ErrAmountFormat  = errors.New("malformed amount")
	ErrInvalidDate   = errors.New("invalid calendar date")
)

func (ct CategoryType) IsValid() bool {
	switch ct {
	case CategoryExpense, CategoryIncome, CategoryBoth:
		return true
	default:
		return false
	}
}

func (t ParsedTransaction) Validate() error {
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if t.Amount.IsNegative() {
		return ErrInvalidAmount
	}
	return nil
}

// Record materialises the transaction into its persisted shape with a fresh
// row id. The category id overrides whatever the classifier guessed.
func (t ParsedTransaction) Record(id, categoryID string, now time.Time) TransactionRecord {
	return TransactionRecord{
		ID:          id,
		Date:        t.Date,
		Amount:      t.Amount,
		IsIncome:    t.IsIncome,
		Description: t.Description,
		Recipient:   t.Recipient,
		CategoryID:  categoryID,
		CreatedAt:   now,
	}
}

// PayeeKey is the normalised grouping key used by the fixed-cost detector:
// recipient when present, else description, else "unbekannt".
func (t ParsedTransaction) PayeeKey() string {
	key := t.Recipient
	if key == "" {
		key = t.Description
	}
	if key == "" {
		key = "unbekannt"
	}
	return strings.TrimSpace(strings.ToLower(key))
}

package domain

import "time"

type EntryType string

const (
	EntryTypeIncome           EntryType = "income"
	EntryTypeExpense          EntryType = "expense"
	EntryTypeSavingInvestment EntryType = "saving_investment"
)

// Valid reports whether t is one of the known entry types.
func (t EntryType) Valid() bool {
	switch t {
	case EntryTypeIncome, EntryTypeExpense, EntryTypeSavingInvestment:
		return true
	}
	return false
}

// LedgerEntry is a single income, expense or saving record owned by a user.
// AmountMinor is expressed in the currency's minor unit.
type LedgerEntry struct {
	ID          int64
	UserID      int64
	EntryType   EntryType
	CategoryID  int64
	AmountMinor int64
	Date        time.Time
	Description string
	Memo        string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// LedgerFilter narrows ledger queries for a single user. Zero values are ignored.
type LedgerFilter struct {
	EntryType EntryType
	From      time.Time
	To        time.Time
}

// CategoryTotal sums one category's entries. CategoryID 0 collects uncategorised entries.
type CategoryTotal struct {
	CategoryID   int64
	CategoryName string
	EntryType    EntryType
	AmountMinor  int64
}

// MonthlySummary aggregates one calendar month of a user's ledger.
type MonthlySummary struct {
	Month                time.Time
	Totals               map[EntryType]int64
	Categories           []CategoryTotal
	PreviousExpenseMinor int64
}

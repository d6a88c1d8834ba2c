package domain

import "time"

// SubCategoryType refines a category within its entry type.
type SubCategoryType string

const (
	SubCategoryFixedIncome     SubCategoryType = "fixed_income"
	SubCategoryVariableIncome  SubCategoryType = "variable_income"
	SubCategoryFixedExpense    SubCategoryType = "fixed_expense"
	SubCategoryVariableExpense SubCategoryType = "variable_expense"
	SubCategorySaving          SubCategoryType = "saving"
	SubCategoryInvestment      SubCategoryType = "investment"
)

// Parent returns the entry type t belongs to, or "" when t is unknown.
func (t SubCategoryType) Parent() EntryType {
	switch t {
	case SubCategoryFixedIncome, SubCategoryVariableIncome:
		return EntryTypeIncome
	case SubCategoryFixedExpense, SubCategoryVariableExpense:
		return EntryTypeExpense
	case SubCategorySaving, SubCategoryInvestment:
		return EntryTypeSavingInvestment
	}
	return ""
}

// Category groups a user's ledger entries. Deactivated categories keep their
// existing entries but cannot be assigned to new ones.
type Category struct {
	ID        int64
	UserID    int64
	Name      string
	EntryType EntryType
	SubType   SubCategoryType
	Icon      string
	Color     string
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

type CategoryFilter struct {
	EntryType       EntryType
	SubType         SubCategoryType
	IncludeInactive bool
}

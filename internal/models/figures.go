package models

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// MonthlyFigures maps a two-digit month ("01".."12") to its extracted figure.
// A missing month means no figure was derivable, which is not the same as a
// zero figure.
type MonthlyFigures map[string]decimal.Decimal

// Months returns the populated months in ascending order.
func (m MonthlyFigures) Months() []string {
	months := make([]string, 0, len(m))
	for k := range m {
		months = append(months, k)
	}
	sort.Strings(months)
	return months
}

// FigureKey identifies one monthly figure of one account in one year.
// Consolidated ledger views are flat maps on this key rather than nested
// maps, so lookups and set comparisons stay trivial.
type FigureKey struct {
	Account AccountCode
	Year    string
	Month   string
}

func (k FigureKey) String() string {
	return fmt.Sprintf("%s/%s-%s", k.Account, k.Year, k.Month)
}

// FigureSet is a consolidated view of ledger figures across accounts.
type FigureSet map[FigureKey]decimal.Decimal

// Keys returns the keys sorted by account, year, month for deterministic
// iteration.
func (s FigureSet) Keys() []FigureKey {
	keys := make([]FigureKey, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Account != keys[j].Account {
			return keys[i].Account < keys[j].Account
		}
		if keys[i].Year != keys[j].Year {
			return keys[i].Year < keys[j].Year
		}
		return keys[i].Month < keys[j].Month
	})
	return keys
}

// Merge adds the figures of one account for one year into the set.
func (s FigureSet) Merge(account AccountCode, year string, figures MonthlyFigures) {
	for month, v := range figures {
		s[FigureKey{Account: account, Year: year, Month: month}] = v
	}
}
